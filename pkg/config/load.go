package config

import (
	"fmt"
	"net/url"
	"strings"

	"github.com/gagliardetto/solana-go"
	"github.com/spf13/viper"

	"github.com/ninja0404/pump-bundler/pkg/constants"
	"github.com/ninja0404/pump-bundler/pkg/types"
)

// EnvPrefix prefixes every environment override, e.g. PUMPBUNDLER_RPC_URL.
const EnvPrefix = "PUMPBUNDLER"

// Legacy environment names kept from the .env layout operators already use.
var envAliases = map[string]string{
	"rpc.url":          "MAIN_RPC_URL",
	"rpc.ws_url":       "MAIN_WSS_URL",
	"keypair_hex":      "MAIN_KEYPAIR_HEX",
	"bundler.treasury": "TREASURY_WALLET",
	"bundler.uuid":     "JITO_UUID",
}

// Load reads configuration from an optional file plus the environment and
// validates the result. An empty path skips the file.
func Load(path string) (Config, error) {
	v := viper.New()

	def := Default()
	defaults := map[string]interface{}{
		"rpc.network":                string(def.RPC.Network),
		"rpc.url":                    "",
		"rpc.ws_url":                 "",
		"rpc.commitment":             def.RPC.Commitment,
		"rpc.timeout":                def.RPC.Timeout,
		"rpc.retry.enabled":          def.RPC.Retry.Enabled,
		"rpc.retry.max_attempts":     def.RPC.Retry.MaxAttempts,
		"rpc.retry.initial_backoff":  def.RPC.Retry.InitialBackoff,
		"rpc.retry.max_backoff":      def.RPC.Retry.MaxBackoff,
		"rpc.retry.jitter":           def.RPC.Retry.Jitter,
		"rpc.rate_limit.rps":         def.RPC.RateLimit.RPS,
		"rpc.rate_limit.burst":       def.RPC.RateLimit.Burst,
		"bundler.block_engines":      []string{},
		"bundler.uuid":               "",
		"bundler.tip_lamports":       def.Bundler.TipLamports,
		"bundler.treasury":           "",
		"bundler.treasury_fee":       def.Bundler.TreasuryFee,
		"bundler.chunk_size":         def.Bundler.ChunkSize,
		"bundler.ata_chunk_size":     def.Bundler.ATAChunkSize,
		"bundler.slippage_bps":       def.Bundler.SlippageBps,
		"bundler.buy_haircut_bps":    def.Bundler.BuyHaircutBps,
		"bundler.compute_unit_limit": def.Bundler.ComputeUnitLimit,
		"bundler.compute_unit_price": def.Bundler.ComputeUnitPrice,
		"bundler.lookup_table":       "",
		"bundler.confirm_timeout":    def.Bundler.ConfirmTimeout,
		"keypair":                    "",
		"keypair_hex":                "",
	}
	for key, value := range defaults {
		v.SetDefault(key, value)
	}

	v.SetEnvPrefix(EnvPrefix)
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()
	for key, alias := range envAliases {
		if err := v.BindEnv(key, EnvPrefix+"_"+strings.ToUpper(strings.NewReplacer(".", "_").Replace(key)), alias); err != nil {
			return Config{}, fmt.Errorf("bind env %s: %w", alias, err)
		}
	}

	if path != "" {
		v.SetConfigFile(path)
		if err := v.ReadInConfig(); err != nil {
			return Config{}, fmt.Errorf("read config %s: %w", path, err)
		}
	}

	cfg := def
	if err := v.Unmarshal(&cfg); err != nil {
		return Config{}, fmt.Errorf("decode config: %w", err)
	}
	cfg.RPC.Logger = def.RPC.Logger
	if cfg.RPC.RPCURL == "" {
		cfg.RPC.RPCURL = DefaultRPCURL(cfg.RPC.Network)
	}

	if err := cfg.Validate(); err != nil {
		return Config{}, err
	}
	return cfg, nil
}

// Validate checks ranges and address formats.
func (c Config) Validate() error {
	if err := validateURL("rpc.url", c.RPC.ResolveRPCURL(), "http"); err != nil {
		return err
	}
	if c.RPC.WSURL != "" {
		if err := validateURL("rpc.ws_url", c.RPC.WSURL, "ws"); err != nil {
			return err
		}
	}
	if c.RPC.Timeout <= 0 {
		return types.NewValidationError("rpc.timeout", "must be positive")
	}
	if c.RPC.Retry.MaxAttempts < 0 {
		return types.NewValidationError("rpc.retry.max_attempts", "must be >= 0")
	}
	if c.RPC.RateLimit.RPS < 0 {
		return types.NewValidationError("rpc.rate_limit.rps", "must be >= 0")
	}
	return c.Bundler.Validate()
}

// Validate checks the bundler settings.
func (b BundlerConfig) Validate() error {
	if b.ChunkSize <= 0 {
		return types.NewValidationError("bundler.chunk_size", "must be positive")
	}
	if b.ATAChunkSize <= 0 {
		return types.NewValidationError("bundler.ata_chunk_size", "must be positive")
	}
	if b.SlippageBps > constants.MaxBps {
		return types.NewValidationError("bundler.slippage_bps", "must be <= 10000")
	}
	if b.BuyHaircutBps > constants.MaxBps {
		return types.NewValidationError("bundler.buy_haircut_bps", "must be <= 10000")
	}
	for _, engine := range b.BlockEngines {
		if err := validateURL("bundler.block_engines", engine, "http"); err != nil {
			return err
		}
	}
	if b.Treasury != "" {
		if _, err := solana.PublicKeyFromBase58(b.Treasury); err != nil {
			return types.NewValidationError("bundler.treasury", "invalid public key")
		}
	}
	if b.LookupTable != "" {
		if _, err := solana.PublicKeyFromBase58(b.LookupTable); err != nil {
			return types.NewValidationError("bundler.lookup_table", "invalid public key")
		}
	}
	return nil
}

// TreasuryKey parses the treasury address; ok is false when unset.
func (b BundlerConfig) TreasuryKey() (solana.PublicKey, bool) {
	if b.Treasury == "" {
		return solana.PublicKey{}, false
	}
	key, err := solana.PublicKeyFromBase58(b.Treasury)
	if err != nil {
		return solana.PublicKey{}, false
	}
	return key, true
}

// LookupTableKey parses the lookup table address; ok is false when unset.
func (b BundlerConfig) LookupTableKey() (solana.PublicKey, bool) {
	if b.LookupTable == "" {
		return solana.PublicKey{}, false
	}
	key, err := solana.PublicKeyFromBase58(b.LookupTable)
	if err != nil {
		return solana.PublicKey{}, false
	}
	return key, true
}

func validateURL(field, raw, scheme string) error {
	parsed, err := url.Parse(raw)
	if err != nil || parsed.Host == "" {
		return types.NewValidationError(field, "invalid URL")
	}
	if !strings.HasPrefix(parsed.Scheme, scheme) {
		return types.NewValidationError(field, "must use "+scheme+" scheme")
	}
	return nil
}
