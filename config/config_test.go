package config

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/require"
)

func TestLoadCreatesDefaultFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "ideezad.toml")

	cfg, err := Load(path)
	require.NoError(t, err)
	require.Equal(t, BackendLevelDB, cfg.Backend)
	require.Equal(t, "127.0.0.1:8645", cfg.RPCAddress)
	require.FileExists(t, path)

	// second load reads the file it just created
	again, err := Load(path)
	require.NoError(t, err)
	require.Equal(t, cfg.RPCAddress, again.RPCAddress)
}

func TestLoadRejectsUnknownField(t *testing.T) {
	path := filepath.Join(t.TempDir(), "ideezad.toml")
	require.NoError(t, os.WriteFile(path, []byte("Bogus = true\n"), 0o600))

	_, err := Load(path)
	require.Error(t, err)
}

func TestLoadValidatesBackendAndOperator(t *testing.T) {
	dir := t.TempDir()

	path := filepath.Join(dir, "bad-backend.toml")
	require.NoError(t, os.WriteFile(path, []byte("Backend = \"redis\"\n"), 0o600))
	_, err := Load(path)
	require.Error(t, err)

	path = filepath.Join(dir, "bad-operator.toml")
	require.NoError(t, os.WriteFile(path, []byte("Operator = \"not-an-address\"\n"), 0o600))
	_, err = Load(path)
	require.Error(t, err)

	path = filepath.Join(dir, "good.toml")
	require.NoError(t, os.WriteFile(path, []byte(
		"Backend = \"memory\"\nOperator = \"0x00000000000000000000000000000000000000aa\"\nListingFee = \"25\"\n",
	), 0o600))
	cfg, err := Load(path)
	require.NoError(t, err)

	operator, ok, err := cfg.OperatorAddress()
	require.NoError(t, err)
	require.True(t, ok)
	require.Equal(t, byte(0xaa), operator[19])

	fee, err := cfg.ListingFeeAmount()
	require.NoError(t, err)
	require.Equal(t, "25", fee.String())
}
