package config

import (
	"io"
	"time"

	"github.com/rs/zerolog"
)

// Network defines the target Solana cluster.
type Network string

const (
	NetworkMainnet Network = "mainnet"
	NetworkTestnet Network = "testnet"
	NetworkDevnet  Network = "devnet"
	NetworkCustom  Network = "custom"
)

// DefaultRPCURL returns the standard RPC endpoint for a known network.
func DefaultRPCURL(network Network) string {
	switch network {
	case NetworkMainnet:
		return "https://api.mainnet-beta.solana.com"
	case NetworkTestnet:
		return "https://api.testnet.solana.com"
	case NetworkDevnet:
		return "https://api.devnet.solana.com"
	default:
		return ""
	}
}

// DefaultWSURL returns the websocket endpoint for a known network.
func DefaultWSURL(network Network) string {
	switch network {
	case NetworkMainnet:
		return "wss://api.mainnet-beta.solana.com"
	case NetworkTestnet:
		return "wss://api.testnet.solana.com"
	case NetworkDevnet:
		return "wss://api.devnet.solana.com"
	default:
		return ""
	}
}

// RetryConfig controls RPC retry behavior. Only idempotent reads are retried.
type RetryConfig struct {
	Enabled        bool          `mapstructure:"enabled"`
	MaxAttempts    int           `mapstructure:"max_attempts"`
	InitialBackoff time.Duration `mapstructure:"initial_backoff"`
	MaxBackoff     time.Duration `mapstructure:"max_backoff"`
	Jitter         bool          `mapstructure:"jitter"`
}

// RateLimitConfig throttles outbound RPC calls.
type RateLimitConfig struct {
	RPS   float64 `mapstructure:"rps"`
	Burst int     `mapstructure:"burst"`
}

// RPCConfig aggregates runtime settings for RPC usage.
type RPCConfig struct {
	Network    Network         `mapstructure:"network"`
	RPCURL     string          `mapstructure:"url"`
	WSURL      string          `mapstructure:"ws_url"`
	Commitment string          `mapstructure:"commitment"`
	Timeout    time.Duration   `mapstructure:"timeout"`
	Retry      RetryConfig     `mapstructure:"retry"`
	RateLimit  RateLimitConfig `mapstructure:"rate_limit"`
	Logger     zerolog.Logger  `mapstructure:"-"`
}

// DefaultRPCConfig yields production-safe defaults (mainnet, confirmed commitment).
func DefaultRPCConfig() RPCConfig {
	return RPCConfig{
		Network:    NetworkMainnet,
		RPCURL:     DefaultRPCURL(NetworkMainnet),
		Commitment: "confirmed",
		Timeout:    20 * time.Second,
		Retry: RetryConfig{
			Enabled:        true,
			MaxAttempts:    3,
			InitialBackoff: 150 * time.Millisecond,
			MaxBackoff:     2 * time.Second,
			Jitter:         true,
		},
		RateLimit: RateLimitConfig{
			RPS:   8,
			Burst: 16,
		},
		Logger: zerolog.New(io.Discard),
	}
}

// ResolveRPCURL returns RPCURL if set, otherwise falls back to network defaults.
func (c RPCConfig) ResolveRPCURL() string {
	if c.RPCURL != "" {
		return c.RPCURL
	}
	return DefaultRPCURL(c.Network)
}

// ResolveWSURL returns WSURL if set, otherwise derives it from the RPC URL.
func (c RPCConfig) ResolveWSURL() string {
	if c.WSURL != "" {
		return c.WSURL
	}
	if c.RPCURL != "" {
		return httpToWS(c.RPCURL)
	}
	return DefaultWSURL(c.Network)
}

// BundlerConfig holds the batch and bundle settings.
type BundlerConfig struct {
	// BlockEngines lists relay endpoints; empty means every mainnet engine.
	BlockEngines []string `mapstructure:"block_engines"`
	UUID         string   `mapstructure:"uuid"`
	TipLamports  uint64   `mapstructure:"tip_lamports"`

	// Treasury receives TreasuryFee lamports when fee payment is requested.
	Treasury    string `mapstructure:"treasury"`
	TreasuryFee uint64 `mapstructure:"treasury_fee"`

	ChunkSize     int    `mapstructure:"chunk_size"`
	ATAChunkSize  int    `mapstructure:"ata_chunk_size"`
	SlippageBps   uint64 `mapstructure:"slippage_bps"`
	BuyHaircutBps uint64 `mapstructure:"buy_haircut_bps"`

	ComputeUnitLimit uint32 `mapstructure:"compute_unit_limit"`
	ComputeUnitPrice uint64 `mapstructure:"compute_unit_price"`

	LookupTable    string        `mapstructure:"lookup_table"`
	ConfirmTimeout time.Duration `mapstructure:"confirm_timeout"`
}

// DefaultBundlerConfig returns the bundler defaults.
func DefaultBundlerConfig() BundlerConfig {
	return BundlerConfig{
		TipLamports:    1_000_000,
		TreasuryFee:    1_000_000,
		ChunkSize:      5,
		ATAChunkSize:   12,
		SlippageBps:    500,
		BuyHaircutBps:  1000,
		ConfirmTimeout: 60 * time.Second,
	}
}

// Config is the full runtime configuration.
type Config struct {
	RPC     RPCConfig     `mapstructure:"rpc"`
	Bundler BundlerConfig `mapstructure:"bundler"`

	// KeypairPath points at a solana-keygen JSON file; KeypairHex holds a
	// hex-encoded 64-byte secret key. KeypairHex wins when both are set.
	KeypairPath string `mapstructure:"keypair"`
	KeypairHex  string `mapstructure:"keypair_hex"`
}

// Default returns the full default configuration.
func Default() Config {
	return Config{
		RPC:     DefaultRPCConfig(),
		Bundler: DefaultBundlerConfig(),
	}
}

func httpToWS(u string) string {
	switch {
	case len(u) >= 8 && u[:8] == "https://":
		return "wss://" + u[8:]
	case len(u) >= 7 && u[:7] == "http://":
		return "ws://" + u[7:]
	}
	return u
}
