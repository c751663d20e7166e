package cmd

import (
	"errors"
	"fmt"
	"strconv"
	"time"

	"github.com/skip2/go-qrcode"
	"github.com/spf13/cobra"

	tpcmm "github.com/TopiaNetwork/topia-vault/common"
	"github.com/TopiaNetwork/topia-vault/configuration"
	tpcrtypes "github.com/TopiaNetwork/topia-vault/crypt/types"
	"github.com/TopiaNetwork/topia-vault/wallet"
)

const (
	walletFuncName = "wallet"
	walletCmdDes   = "Operate wallets: generate, import, load, eject, address, list, sign, verify, clear."
)

var (
	hardDerivation  string
	softDerivation  string
	keypairPassword string
	walletNumber    uint64
	walletAddress   string
	qrFile          string
	message         string
	signature       string
	publicKey       string
	clearAll        bool
)

type createdOutput struct {
	Number          uint64            `json:"number"`
	Address         tpcrtypes.Address `json:"address"`
	Mnemonic        string            `json:"mnemonic"`
	EncryptedBackup string            `json:"encryptedBackup,omitempty"`
}

type walletOutput struct {
	Address   tpcrtypes.Address   `json:"address"`
	CryptType tpcrtypes.CryptType `json:"cryptoAlgorithm"`
	PublicKey string              `json:"publicKey"`
}

type listItem struct {
	Number     uint64            `json:"number"`
	Address    tpcrtypes.Address `json:"address"`
	CreatedAt  time.Time         `json:"createdAt"`
	SourceKind string            `json:"sourceKind"`
}

func addKeyringFlags(cmd *cobra.Command) {
	flags := cmd.Flags()
	flags.StringVarP(&cryptTypeName, "crypt-type", "", "sr25519", "signature scheme: sr25519, ed25519 or ecdsa")
	flags.IntVarP(&addressFormat, "address-format", "", 42, "SS58 network address format")
}

func addPasswordFlags(cmd *cobra.Command, withPlaintext bool) {
	flags := cmd.Flags()
	flags.StringVarP(&password, "password", "p", "", "backup password, prompted when omitted")
	if withPlaintext {
		flags.BoolVarP(&plaintext, "plaintext", "", false, "keep the mnemonic unencrypted in the cache tier only")
	}
}

func addSelectorFlags(cmd *cobra.Command) {
	flags := cmd.Flags()
	flags.Uint64VarP(&walletNumber, "number", "n", 0, "wallet number")
	flags.StringVarP(&walletAddress, "address", "a", "", "wallet address")
}

func printCreated(cmd *cobra.Command, created *wallet.Created) error {
	addr, err := created.Wallet.Address()
	if err != nil {
		return err
	}
	return printJSON(cmd, &createdOutput{
		Number:          created.Number,
		Address:         addr,
		Mnemonic:        created.Mnemonic,
		EncryptedBackup: created.EncryptedBackup,
	})
}

func createCmd(use string, short string, args cobra.PositionalArgs, create func(cmd *cobra.Command, args []string, m *wallet.Manager, config *configuration.Configuration) (*wallet.Created, error)) *cobra.Command {
	c := &cobra.Command{
		Use:   use,
		Short: short,
		Args:  args,
		RunE: func(cmd *cobra.Command, args []string) error {
			cmd.SilenceUsage = true

			m, config, err := openManager(cmd)
			if err != nil {
				return err
			}
			defer closeManager(cmd, m)

			created, err := create(cmd, args, m, config)
			if err != nil {
				return err
			}
			defer created.Wallet.Forget()

			return printCreated(cmd, created)
		},
	}
	addKeyringFlags(c)
	addPasswordFlags(c, true)
	return c
}

func generateCmd() *cobra.Command {
	return createCmd("generate", "Generates a wallet from a fresh mnemonic.", cobra.NoArgs,
		func(cmd *cobra.Command, args []string, m *wallet.Manager, config *configuration.Configuration) (*wallet.Created, error) {
			opts, err := keyringOptionsFromFlags(cmd, config)
			if err != nil {
				return nil, err
			}
			pwd, err := readPassword(cmd, true)
			if err != nil {
				return nil, err
			}
			return m.GenerateNew(commandContext(cmd), pwd, opts)
		})
}

func importCmd() *cobra.Command {
	c := createCmd("import <mnemonic words...>", "Imports a wallet from a mnemonic.", cobra.MinimumNArgs(1),
		func(cmd *cobra.Command, args []string, m *wallet.Manager, config *configuration.Configuration) (*wallet.Created, error) {
			opts, err := keyringOptionsFromFlags(cmd, config)
			if err != nil {
				return nil, err
			}
			pwd, err := readPassword(cmd, true)
			if err != nil {
				return nil, err
			}
			derivation := &tpcrtypes.DerivationPath{
				KeypairPassword: keypairPassword,
				HardDerivation:  hardDerivation,
				SoftDerivation:  softDerivation,
			}
			return m.ImportFromMnemonic(commandContext(cmd), joinWords(args), pwd, opts, derivation)
		})

	flags := c.Flags()
	flags.StringVarP(&hardDerivation, "hard", "", "", "hard derivation junction")
	flags.StringVarP(&softDerivation, "soft", "", "", "soft derivation junction, sr25519 only")
	flags.StringVarP(&keypairPassword, "keypair-password", "", "", "keypair password appended to the secret URI")
	return c
}

// loadSelected loads the wallet picked by --number or --address. Plaintext records
// need no password.
func loadSelected(cmd *cobra.Command, m *wallet.Manager) (*wallet.Wallet, error) {
	ctx := commandContext(cmd)
	if walletAddress == "" && walletNumber == 0 {
		return nil, errors.New("either --number or --address is required")
	}

	load := func(pwd string) (*wallet.Wallet, error) {
		if walletAddress != "" {
			return m.LoadByAddress(ctx, tpcrtypes.Address(walletAddress), pwd)
		}
		return m.LoadByNumber(ctx, walletNumber, pwd)
	}

	w, err := load(password)
	if err == nil || password != "" || !isPasswordRequired(err) {
		return w, err
	}

	pwd, err := readPassword(cmd, false)
	if err != nil {
		return nil, err
	}
	return load(pwd)
}

func isPasswordRequired(err error) bool {
	return errors.Is(err, tpcmm.ErrPasswordRequired)
}

func loadCmd() *cobra.Command {
	c := &cobra.Command{
		Use:   "load",
		Short: "Loads a wallet and prints its public data.",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			cmd.SilenceUsage = true

			m, _, err := openManager(cmd)
			if err != nil {
				return err
			}
			defer closeManager(cmd, m)

			w, err := loadSelected(cmd, m)
			if err != nil {
				return err
			}
			defer w.Forget()

			addr, err := m.GetAddress(w)
			if err != nil {
				return err
			}
			ct, err := w.CryptType()
			if err != nil {
				return err
			}
			pub, err := w.PublicKey()
			if err != nil {
				return err
			}
			return printJSON(cmd, &walletOutput{Address: addr, CryptType: ct, PublicKey: tpcmm.EncodeHex(pub)})
		},
	}
	addSelectorFlags(c)
	addPasswordFlags(c, false)
	return c
}

func ejectCmd() *cobra.Command {
	c := &cobra.Command{
		Use:   "eject <address>",
		Short: "Reveals the mnemonic of a wallet and removes it from the directory.",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			cmd.SilenceUsage = true

			m, _, err := openManager(cmd)
			if err != nil {
				return err
			}
			defer closeManager(cmd, m)

			pwd := password
			payload, err := m.Eject(commandContext(cmd), tpcrtypes.Address(args[0]), pwd)
			if isPasswordRequired(err) && pwd == "" {
				if pwd, err = readPassword(cmd, false); err != nil {
					return err
				}
				payload, err = m.Eject(commandContext(cmd), tpcrtypes.Address(args[0]), pwd)
			}
			if err != nil {
				return err
			}
			return printJSON(cmd, payload)
		},
	}
	addPasswordFlags(c, false)
	return c
}

func addressCmd() *cobra.Command {
	c := &cobra.Command{
		Use:   "address",
		Short: "Prints the address of a wallet, optionally as a QR code PNG.",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			cmd.SilenceUsage = true

			m, _, err := openManager(cmd)
			if err != nil {
				return err
			}
			defer closeManager(cmd, m)

			w, err := loadSelected(cmd, m)
			if err != nil {
				return err
			}
			defer w.Forget()

			addr, err := m.GetAddress(w)
			if err != nil {
				return err
			}
			if qrFile != "" {
				if err = qrcode.WriteFile(string(addr), qrcode.Medium, 256, qrFile); err != nil {
					return fmt.Errorf("failed to write QR code: %w", err)
				}
			}
			_, err = fmt.Fprintln(cmd.OutOrStdout(), addr)
			return err
		},
	}
	addSelectorFlags(c)
	addPasswordFlags(c, false)
	c.Flags().StringVarP(&qrFile, "qr-file", "", "", "write the address as a QR code PNG to this file")
	return c
}

func listCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "list",
		Short: "Lists the wallets of the directory.",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			cmd.SilenceUsage = true

			m, _, err := openManager(cmd)
			if err != nil {
				return err
			}
			defer closeManager(cmd, m)

			records, err := m.List(commandContext(cmd))
			if err != nil {
				return err
			}
			items := make([]listItem, 0, len(records))
			for _, rec := range records {
				items = append(items, listItem{
					Number:     rec.Number,
					Address:    rec.Address,
					CreatedAt:  rec.CreatedAt,
					SourceKind: string(rec.SourceKind),
				})
			}
			return printJSON(cmd, items)
		},
	}
}

func signCmd() *cobra.Command {
	c := &cobra.Command{
		Use:   "sign",
		Short: "Signs a message with a wallet.",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			cmd.SilenceUsage = true

			msg, err := messageBytes(message)
			if err != nil {
				return err
			}

			m, _, err := openManager(cmd)
			if err != nil {
				return err
			}
			defer closeManager(cmd, m)

			w, err := loadSelected(cmd, m)
			if err != nil {
				return err
			}
			defer w.Forget()

			sig, err := m.Sign(msg, w)
			if err != nil {
				return err
			}
			_, err = fmt.Fprintln(cmd.OutOrStdout(), tpcmm.EncodeHex(sig))
			return err
		},
	}
	addSelectorFlags(c)
	addPasswordFlags(c, false)
	c.Flags().StringVarP(&message, "message", "m", "", "message, 0x-prefixed hex or text")
	return c
}

func verifyCmd() *cobra.Command {
	c := &cobra.Command{
		Use:   "verify",
		Short: "Verifies a signature against a public key or an address.",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			cmd.SilenceUsage = true

			msg, err := messageBytes(message)
			if err != nil {
				return err
			}
			var sig []byte
			if signature != "" {
				if sig, err = tpcmm.DecodeHex(signature); err != nil {
					return err
				}
			}
			ct := tpcrtypes.CryptType_Unknown
			if cmd.Flags().Changed("crypt-type") {
				if ct, err = tpcrtypes.ParseCryptType(cryptTypeName); err != nil {
					return err
				}
			}

			m, _, err := openManager(cmd)
			if err != nil {
				return err
			}
			defer closeManager(cmd, m)

			ok, err := m.Verify(msg, sig, publicKey, ct)
			if err != nil {
				return err
			}
			_, err = fmt.Fprintln(cmd.OutOrStdout(), strconv.FormatBool(ok))
			return err
		},
	}
	flags := c.Flags()
	flags.StringVarP(&message, "message", "m", "", "message, 0x-prefixed hex or text")
	flags.StringVarP(&signature, "signature", "s", "", "0x-prefixed hex signature")
	flags.StringVarP(&publicKey, "key", "k", "", "0x-prefixed hex public key or SS58 address")
	flags.StringVarP(&cryptTypeName, "crypt-type", "", "", "signature scheme, inferred from the key when omitted")
	return c
}

func clearCmd() *cobra.Command {
	c := &cobra.Command{
		Use:   "clear [address]",
		Short: "Removes a wallet, or every wallet with --all.",
		Args:  cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			cmd.SilenceUsage = true
			if clearAll == (len(args) == 1) {
				return errors.New("give either an address or --all")
			}

			m, _, err := openManager(cmd)
			if err != nil {
				return err
			}
			defer closeManager(cmd, m)

			if clearAll {
				return m.ClearAll(commandContext(cmd))
			}
			return m.Clear(commandContext(cmd), tpcrtypes.Address(args[0]))
		},
	}
	c.Flags().BoolVarP(&clearAll, "all", "", false, "remove every wallet")
	return c
}

func WalletCmd() *cobra.Command {
	walletCmd := &cobra.Command{
		Use:   walletFuncName,
		Short: walletCmdDes,
		Long:  walletCmdDes,
	}
	walletCmd.PersistentFlags().StringVarP(&envPrefix, "env-prefix", "", configuration.DefaultEnvPrefix, "prefix of the configuration environment variables")

	walletCmd.AddCommand(
		generateCmd(),
		importCmd(),
		loadCmd(),
		ejectCmd(),
		addressCmd(),
		listCmd(),
		signCmd(),
		verifyCmd(),
		clearCmd(),
	)

	return walletCmd
}
