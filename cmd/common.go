package cmd

import (
	"context"
	"errors"
	"fmt"
	"os"
	"strings"

	"github.com/spf13/cobra"
	"golang.org/x/term"

	"github.com/TopiaNetwork/topia-vault/codec"
	tpcmm "github.com/TopiaNetwork/topia-vault/common"
	"github.com/TopiaNetwork/topia-vault/configuration"
	tpcrtypes "github.com/TopiaNetwork/topia-vault/crypt/types"
	tplog "github.com/TopiaNetwork/topia-vault/log"
	tplogcmm "github.com/TopiaNetwork/topia-vault/log/common"
	"github.com/TopiaNetwork/topia-vault/wallet"
)

var (
	envPrefix     string
	password      string
	plaintext     bool
	cryptTypeName string
	addressFormat int
)

// openManager builds the manager from the environment. Flags override the
// configured keyring defaults.
func openManager(cmd *cobra.Command) (*wallet.Manager, *configuration.Configuration, error) {
	config, err := configuration.LoadConfiguration(envPrefix)
	if err != nil {
		return nil, nil, err
	}

	level, err := tplogcmm.ParseLogLevel(config.LogConfig.Level)
	if err != nil {
		return nil, nil, err
	}
	format, err := tplog.ParseLogFormat(config.LogConfig.Format)
	if err != nil {
		return nil, nil, err
	}
	output, err := tplog.ParseLogOutput(config.LogConfig.Output)
	if err != nil {
		return nil, nil, err
	}

	var mainLog tplog.Logger
	if output == tplog.StdErrOutput {
		mainLog, err = tplog.CreateWriterLogger(level, format, cmd.ErrOrStderr())
	} else {
		mainLog, err = tplog.CreateMainLogger(level, format, output, config.LogConfig.OutputParam)
	}
	if err != nil {
		return nil, nil, err
	}

	m, err := wallet.NewManager(level, mainLog, config.VaultConfig)
	if err != nil {
		return nil, nil, err
	}
	return m, config, nil
}

func keyringOptionsFromFlags(cmd *cobra.Command, config *configuration.Configuration) (*tpcrtypes.KeyringOptions, error) {
	opts := config.VaultConfig.KeyringOptions()
	if cmd.Flags().Changed("crypt-type") {
		ct, err := tpcrtypes.ParseCryptType(cryptTypeName)
		if err != nil {
			return nil, err
		}
		opts.CryptType = ct
	}
	if cmd.Flags().Changed("address-format") {
		if addressFormat < 0 || addressFormat > tpcrtypes.MaxAddressFormat {
			return nil, fmt.Errorf("address format %d out of range", addressFormat)
		}
		opts.AddressFormat = uint16(addressFormat)
	}
	return &opts, nil
}

// readPassword returns --password, or prompts on an interactive terminal.
func readPassword(cmd *cobra.Command, allowEmpty bool) (string, error) {
	if password != "" {
		return password, nil
	}
	if allowEmpty && plaintext {
		return "", nil
	}
	if !term.IsTerminal(int(os.Stdin.Fd())) {
		return "", errors.New("no password given: use --password or run interactively")
	}

	fmt.Fprint(cmd.ErrOrStderr(), "Enter wallet password: ")
	defer fmt.Fprintln(cmd.ErrOrStderr())

	raw, err := term.ReadPassword(int(os.Stdin.Fd()))
	if err != nil {
		return "", fmt.Errorf("failed to read password: %w", err)
	}
	defer tpcmm.Wipe(raw)

	if len(raw) == 0 && !allowEmpty {
		return "", tpcmm.ErrPasswordRequired
	}
	return string(raw), nil
}

func printJSON(cmd *cobra.Command, v interface{}) error {
	return codec.CreateEncoder(codec.CodecType_JSON, cmd.OutOrStdout()).Encode(v)
}

// messageBytes treats a 0x-prefixed message as hex, anything else as UTF-8 text.
func messageBytes(msg string) ([]byte, error) {
	if tpcmm.Has0xPrefix(msg) {
		return tpcmm.DecodeHex(msg)
	}
	return []byte(msg), nil
}

func commandContext(cmd *cobra.Command) context.Context {
	if ctx := cmd.Context(); ctx != nil {
		return ctx
	}
	return context.Background()
}

func closeManager(cmd *cobra.Command, m *wallet.Manager) {
	if err := m.Close(); err != nil {
		fmt.Fprintf(cmd.ErrOrStderr(), "close wallet manager: %v\n", err)
	}
}

func joinWords(args []string) string {
	return strings.Join(args, " ")
}
