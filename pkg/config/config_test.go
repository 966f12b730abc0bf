package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/gagliardetto/solana-go"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/ninja0404/pump-bundler/pkg/types"
)

func writeConfig(t *testing.T, name, content string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), name)
	require.NoError(t, os.WriteFile(path, []byte(content), 0o600))
	return path
}

func TestLoadDefaults(t *testing.T) {
	cfg, err := Load("")
	require.NoError(t, err)

	def := Default()
	assert.Equal(t, def.RPC.RPCURL, cfg.RPC.RPCURL)
	assert.Equal(t, def.RPC.Timeout, cfg.RPC.Timeout)
	assert.Equal(t, def.Bundler.ChunkSize, cfg.Bundler.ChunkSize)
	assert.Equal(t, def.Bundler.TipLamports, cfg.Bundler.TipLamports)
	assert.Equal(t, def.Bundler.ConfirmTimeout, cfg.Bundler.ConfirmTimeout)
	assert.Empty(t, cfg.Bundler.BlockEngines)
}

func TestLoadFile(t *testing.T) {
	treasury := solana.NewWallet().PublicKey()
	path := writeConfig(t, "bundler.yaml", `
rpc:
  network: devnet
  timeout: 5s
  rate_limit:
    rps: 0
bundler:
  block_engines:
    - https://ny.mainnet.block-engine.jito.wtf
  tip_lamports: 2000000
  treasury: `+treasury.String()+`
  chunk_size: 4
  slippage_bps: 300
  confirm_timeout: 90s
`)

	cfg, err := Load(path)
	require.NoError(t, err)
	assert.Equal(t, NetworkDevnet, cfg.RPC.Network)
	assert.Equal(t, DefaultRPCURL(NetworkDevnet), cfg.RPC.RPCURL)
	assert.Equal(t, "wss://api.devnet.solana.com", cfg.RPC.ResolveWSURL())
	assert.Equal(t, 5*time.Second, cfg.RPC.Timeout)
	assert.Zero(t, cfg.RPC.RateLimit.RPS)
	assert.Equal(t, []string{"https://ny.mainnet.block-engine.jito.wtf"}, cfg.Bundler.BlockEngines)
	assert.Equal(t, uint64(2_000_000), cfg.Bundler.TipLamports)
	assert.Equal(t, 4, cfg.Bundler.ChunkSize)
	assert.Equal(t, uint64(300), cfg.Bundler.SlippageBps)
	assert.Equal(t, 90*time.Second, cfg.Bundler.ConfirmTimeout)
	// unset keys keep their defaults
	assert.Equal(t, DefaultBundlerConfig().ATAChunkSize, cfg.Bundler.ATAChunkSize)

	key, ok := cfg.Bundler.TreasuryKey()
	require.True(t, ok)
	assert.Equal(t, treasury, key)
	_, ok = cfg.Bundler.LookupTableKey()
	assert.False(t, ok)
}

func TestLoadEnv(t *testing.T) {
	t.Setenv("MAIN_RPC_URL", "https://rpc.example.com")
	t.Setenv("JITO_UUID", "abc-123")
	t.Setenv(EnvPrefix+"_BUNDLER_CHUNK_SIZE", "3")

	cfg, err := Load("")
	require.NoError(t, err)
	assert.Equal(t, "https://rpc.example.com", cfg.RPC.RPCURL)
	assert.Equal(t, "wss://rpc.example.com", cfg.RPC.ResolveWSURL())
	assert.Equal(t, "abc-123", cfg.Bundler.UUID)
	assert.Equal(t, 3, cfg.Bundler.ChunkSize)
}

func TestLoadRejectsInvalid(t *testing.T) {
	tests := []struct {
		name    string
		content string
	}{
		{"slippage", "bundler:\n  slippage_bps: 20000\n"},
		{"chunk size", "bundler:\n  chunk_size: 0\n"},
		{"treasury", "bundler:\n  treasury: not-a-key\n"},
		{"block engine scheme", "bundler:\n  block_engines: [\"ftp://engine\"]\n"},
		{"ws scheme", "rpc:\n  ws_url: https://api.mainnet-beta.solana.com\n"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := Load(writeConfig(t, "bundler.yaml", tt.content))
			assert.ErrorIs(t, err, types.ErrInvalidInput)
		})
	}

	_, err := Load(filepath.Join(t.TempDir(), "missing.yaml"))
	assert.Error(t, err)
}

func TestResolveWSURL(t *testing.T) {
	c := RPCConfig{Network: NetworkMainnet}
	assert.Equal(t, DefaultWSURL(NetworkMainnet), c.ResolveWSURL())

	c.RPCURL = "http://localhost:8899"
	assert.Equal(t, "ws://localhost:8899", c.ResolveWSURL())

	c.WSURL = "ws://localhost:8900"
	assert.Equal(t, "ws://localhost:8900", c.ResolveWSURL())
}
