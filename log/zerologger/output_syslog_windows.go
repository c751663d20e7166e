//go:build windows

package zerologger

import (
	"errors"
	"io"
)

func ConnectSyslog(param, tag string) (io.Writer, error) {
	return nil, errors.New("syslog output is not available on windows")
}
