package main

import (
	"errors"
	"fmt"
	"io/fs"
	"os"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"github.com/rs/zerolog"
	"github.com/spf13/cobra"

	"github.com/ninja0404/pump-bundler/pkg/batch"
	"github.com/ninja0404/pump-bundler/pkg/bundle"
	"github.com/ninja0404/pump-bundler/pkg/config"
	"github.com/ninja0404/pump-bundler/pkg/jito"
	sdkrpc "github.com/ninja0404/pump-bundler/pkg/rpc"
	"github.com/ninja0404/pump-bundler/pkg/txbuilder"
	"github.com/ninja0404/pump-bundler/pkg/wallet"
)

func main() {
	if err := newRootCmd().Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

type globalOpts struct {
	configPath     string
	envFile        string
	rpcURL         string
	wsURL          string
	commitment     string
	keypairPath    string
	skipPreflight  bool
	retryAttempts  int
	retryBackoffMs int
	rateLimitRPS   float64
	logLevel       string
	timeoutSec     int
}

func newRootCmd() *cobra.Command {
	opts := &globalOpts{}

	root := &cobra.Command{
		Use:           "pumpbundler",
		Short:         "Create pump.fun tokens and trade them from many wallets in Jito bundles",
		SilenceUsage:  true,
		SilenceErrors: true,
	}

	root.PersistentFlags().StringVar(&opts.configPath, "config", "", "config file (yaml, json or toml)")
	root.PersistentFlags().StringVar(&opts.envFile, "env-file", ".env", "dotenv file loaded before the config")
	root.PersistentFlags().StringVar(&opts.rpcURL, "rpc-url", "", "RPC endpoint (overrides config)")
	root.PersistentFlags().StringVar(&opts.wsURL, "ws-url", "", "websocket endpoint (overrides config)")
	root.PersistentFlags().StringVar(&opts.commitment, "commitment", "", "RPC commitment level")
	root.PersistentFlags().StringVar(&opts.keypairPath, "keypair", "", "path to solana-keygen json for the payer")
	root.PersistentFlags().BoolVar(&opts.skipPreflight, "skip-preflight", false, "skip preflight simulation")
	root.PersistentFlags().IntVar(&opts.retryAttempts, "retry-attempts", 0, "RPC retry attempts for reads")
	root.PersistentFlags().IntVar(&opts.retryBackoffMs, "retry-backoff-ms", 0, "initial backoff in ms")
	root.PersistentFlags().Float64Var(&opts.rateLimitRPS, "rate-limit-rps", -1, "rate limit RPS (0 to disable)")
	root.PersistentFlags().StringVar(&opts.logLevel, "log-level", "info", "log level (debug|info|warn|error)")
	root.PersistentFlags().IntVar(&opts.timeoutSec, "timeout-sec", 0, "RPC timeout seconds")

	root.AddCommand(
		newConfigCmd(opts),
		newAccountCmd(opts),
		newBalanceCmd(opts),
		newQuoteCmd(opts),
		newBuyCmd(opts),
		newSellCmd(opts),
		newCreateCmd(opts),
		newBatchCmd(opts),
		newLUTCmd(opts),
		newBundleCmd(opts),
		newEventsCmd(opts),
	)

	return root
}

// loadConfig reads the dotenv file, the config file and the environment,
// then applies flag overrides.
func loadConfig(cmd *cobra.Command, opts *globalOpts) (config.Config, zerolog.Logger, error) {
	log := zerolog.New(zerolog.ConsoleWriter{Out: cmd.ErrOrStderr(), TimeFormat: time.TimeOnly}).
		Level(parseLogLevel(opts.logLevel)).
		With().Timestamp().Logger()

	if opts.envFile != "" {
		if err := godotenv.Load(opts.envFile); err != nil && !errors.Is(err, fs.ErrNotExist) {
			return config.Config{}, log, fmt.Errorf("load %s: %w", opts.envFile, err)
		}
	}
	cfg, err := config.Load(opts.configPath)
	if err != nil {
		return config.Config{}, log, err
	}

	if opts.rpcURL != "" {
		cfg.RPC.RPCURL = opts.rpcURL
	}
	if opts.wsURL != "" {
		cfg.RPC.WSURL = opts.wsURL
	}
	if opts.commitment != "" {
		cfg.RPC.Commitment = opts.commitment
	}
	if opts.keypairPath != "" {
		cfg.KeypairPath = opts.keypairPath
		cfg.KeypairHex = ""
	}
	if opts.retryAttempts > 0 {
		cfg.RPC.Retry.MaxAttempts = opts.retryAttempts
	}
	if opts.retryBackoffMs > 0 {
		cfg.RPC.Retry.InitialBackoff = time.Duration(opts.retryBackoffMs) * time.Millisecond
	}
	if opts.rateLimitRPS >= 0 {
		cfg.RPC.RateLimit.RPS = opts.rateLimitRPS
	}
	if opts.timeoutSec > 0 {
		cfg.RPC.Timeout = time.Duration(opts.timeoutSec) * time.Second
	}
	cfg.RPC.Logger = log
	if err := cfg.Validate(); err != nil {
		return config.Config{}, log, err
	}
	return cfg, log, nil
}

type runtimeDeps struct {
	cfg     config.Config
	log     zerolog.Logger
	rpc     *sdkrpc.Client
	builder *txbuilder.Builder
	opts    *globalOpts
}

func newRuntime(cmd *cobra.Command, opts *globalOpts) (*runtimeDeps, error) {
	cfg, log, err := loadConfig(cmd, opts)
	if err != nil {
		return nil, err
	}
	client := sdkrpc.NewClient(cfg.RPC)
	builder := txbuilder.NewBuilder(client, client.Commitment()).
		WithSkipPreflight(opts.skipPreflight).
		WithPriorityFee(txbuilder.PriorityFee{
			UnitLimit: cfg.Bundler.ComputeUnitLimit,
			UnitPrice: cfg.Bundler.ComputeUnitPrice,
		}).
		WithLogger(log)
	return &runtimeDeps{cfg: cfg, log: log, rpc: client, builder: builder, opts: opts}, nil
}

// payer loads the configured keypair.
func (d *runtimeDeps) payer() (wallet.Signer, error) {
	if d.cfg.KeypairPath == "" && d.cfg.KeypairHex == "" {
		return nil, fmt.Errorf("payer keypair is required (use --keypair or MAIN_KEYPAIR_HEX)")
	}
	return wallet.Load(d.cfg.KeypairPath, d.cfg.KeypairHex)
}

func (d *runtimeDeps) orchestrator() *batch.Orchestrator {
	return batch.NewOrchestrator(d.rpc, d.log)
}

// batchOptions maps the bundler config onto orchestrator options.
func (d *runtimeDeps) batchOptions() batch.Options {
	b := d.cfg.Bundler
	opts := batch.Options{
		ChunkSize:    b.ChunkSize,
		ATAChunkSize: b.ATAChunkSize,
		SlippageBps:  b.SlippageBps,
		HaircutBps:   b.BuyHaircutBps,
	}
	if table, ok := b.LookupTableKey(); ok {
		opts.LookupTable = table
	}
	return opts
}

func (d *runtimeDeps) submitter() (*bundle.Submitter, error) {
	b := d.cfg.Bundler
	endpoints := jito.Endpoints(b.BlockEngines, b.UUID)
	relays := make([]bundle.Relay, 0, len(endpoints))
	for _, e := range endpoints {
		relays = append(relays, e)
	}
	cfg := bundle.Config{
		// the tip transaction never uses lookup tables or a priority prefix
		Builder:        txbuilder.NewBuilder(d.rpc, d.rpc.Commitment()).WithLogger(d.log),
		Relays:         relays,
		TipLamports:    b.TipLamports,
		TreasuryFee:    b.TreasuryFee,
		ConfirmTimeout: b.ConfirmTimeout,
		Logger:         d.log,
	}
	if treasury, ok := b.TreasuryKey(); ok {
		cfg.Treasury = treasury
	}
	return bundle.NewSubmitter(cfg)
}

func (d *runtimeDeps) jitoClient() *jito.Client {
	return jito.NewClient(jito.Endpoints(d.cfg.Bundler.BlockEngines, d.cfg.Bundler.UUID))
}

func parseLogLevel(lvl string) zerolog.Level {
	switch strings.ToLower(lvl) {
	case "debug":
		return zerolog.DebugLevel
	case "warn":
		return zerolog.WarnLevel
	case "error":
		return zerolog.ErrorLevel
	default:
		return zerolog.InfoLevel
	}
}
