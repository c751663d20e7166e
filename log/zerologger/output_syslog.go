//go:build !windows && !nacl && !plan9

package zerologger

import (
	"io"
	"log/syslog"
	"strings"
)

const syslogPriority = syslog.LOG_AUTHPRIV | syslog.LOG_INFO

const DefaultSyslogNetwork = "udp"

var syslogNetworks = map[string]bool{
	"ip": true, "ip4": true, "ip6": true,
	"tcp": true, "tcp4": true, "tcp6": true,
	"udp": true, "udp4": true, "udp6": true,
	"unix": true, "unixgram": true, "unixpacket": true,
}

// splitSyslogAddr splits "network:address", defaulting the network to udp.
func splitSyslogAddr(s string) (string, string) {
	if i := strings.Index(s, ":"); i > 0 && syslogNetworks[s[:i]] {
		return s[:i], s[i+1:]
	}
	return DefaultSyslogNetwork, s
}

// ConnectSyslog writes to the local syslog daemon when param is empty or
// "localhost", to [network:]address otherwise.
func ConnectSyslog(param, tag string) (io.Writer, error) {
	if param == "" || param == "localhost" {
		return syslog.New(syslogPriority, tag)
	}

	nw, addr := splitSyslogAddr(param)
	return syslog.Dial(nw, addr, syslogPriority, tag)
}
