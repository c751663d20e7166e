package cmd

import (
	"bytes"
	"encoding/json"
	"io"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/TopiaNetwork/topia-vault/configuration"
)

const devPhrase = "bottom drive obey lake curtain smoke basket hold race lonely fit walk"

func setupEnv(t *testing.T) {
	t.Helper()

	prefix := configuration.DefaultEnvPrefix + "_"
	t.Setenv(prefix+"BACKUP_DIR", t.TempDir())
	t.Setenv(prefix+"CACHE_BACKEND", "lru")
	t.Setenv(prefix+"LOG_LEVEL", "error")
}

func runWallet(t *testing.T, args ...string) (string, error) {
	t.Helper()

	var out bytes.Buffer
	c := WalletCmd()
	c.SetOut(&out)
	c.SetErr(io.Discard)
	c.SetArgs(args)
	err := c.Execute()
	return strings.TrimSpace(out.String()), err
}

func TestWalletCmdLifecycle(t *testing.T) {
	setupEnv(t)

	out, err := runWallet(t, "generate", "--password", "pw1", "--crypt-type", "ed25519")
	require.NoError(t, err)

	var created createdOutput
	require.NoError(t, json.Unmarshal([]byte(out), &created))
	assert.Equal(t, uint64(1), created.Number)
	assert.True(t, created.Address.IsValid())
	assert.Len(t, strings.Fields(created.Mnemonic), 24)
	assert.NotEmpty(t, created.EncryptedBackup)

	out, err = runWallet(t, "list")
	require.NoError(t, err)
	var items []listItem
	require.NoError(t, json.Unmarshal([]byte(out), &items))
	require.Len(t, items, 1)
	assert.Equal(t, created.Address, items[0].Address)
	assert.Equal(t, uint64(1), items[0].Number)

	sig, err := runWallet(t, "sign", "--number", "1", "--password", "pw1", "--message", "hello")
	require.NoError(t, err)

	out, err = runWallet(t, "verify", "--message", "hello", "--signature", sig, "--key", string(created.Address), "--crypt-type", "ed25519")
	require.NoError(t, err)
	assert.Equal(t, "true", out)

	out, err = runWallet(t, "verify", "--message", "other", "--signature", sig, "--key", string(created.Address), "--crypt-type", "ed25519")
	require.NoError(t, err)
	assert.Equal(t, "false", out)

	_, err = runWallet(t, "sign", "--number", "1", "--password", "wrong", "--message", "hello")
	assert.Error(t, err)

	_, err = runWallet(t, "clear", string(created.Address))
	require.NoError(t, err)

	out, err = runWallet(t, "list")
	require.NoError(t, err)
	assert.Equal(t, "[]", out)
}

func TestWalletCmdImportKnownVector(t *testing.T) {
	setupEnv(t)

	args := append([]string{"import"}, strings.Fields(devPhrase)...)
	args = append(args, "--hard", "Alice", "--password", "pw")
	out, err := runWallet(t, args...)
	require.NoError(t, err)

	var created createdOutput
	require.NoError(t, json.Unmarshal([]byte(out), &created))
	assert.Equal(t, "5GrwvaEF5zXb26Fz9rcQpDWS57CtERHpNehXCPcNoHGKutQY", string(created.Address))

	out, err = runWallet(t, "address", "--address", string(created.Address), "--password", "pw")
	require.NoError(t, err)
	assert.Equal(t, string(created.Address), out)

	out, err = runWallet(t, "eject", string(created.Address), "--password", "pw")
	require.NoError(t, err)
	assert.Contains(t, out, devPhrase)

	out, err = runWallet(t, "list")
	require.NoError(t, err)
	assert.Equal(t, "[]", out)
}

func TestWalletCmdPlaintext(t *testing.T) {
	setupEnv(t)

	out, err := runWallet(t, "generate", "--plaintext")
	require.NoError(t, err)

	var created createdOutput
	require.NoError(t, json.Unmarshal([]byte(out), &created))
	assert.Empty(t, created.EncryptedBackup)
}

func TestWalletCmdRejects(t *testing.T) {
	setupEnv(t)

	_, err := runWallet(t, "clear")
	assert.Error(t, err)

	_, err = runWallet(t, "sign", "--message", "hello")
	assert.Error(t, err)

	_, err = runWallet(t, "generate", "--password", "pw", "--crypt-type", "rsa")
	assert.Error(t, err)

	_, err = runWallet(t, "verify", "--message", "hello", "--signature", "zz", "--key", "0x00")
	assert.Error(t, err)
}
