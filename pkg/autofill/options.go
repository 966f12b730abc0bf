package autofill

import (
	"encoding/json"
	"io"
	"time"

	"github.com/gagliardetto/solana-go"
	"github.com/rs/zerolog"

	"github.com/ninja0404/pump-bundler/pkg/jito"
)

// Options configures autofill helpers.
type Options struct {
	Overrides       map[string]solana.PublicKey
	Preview         io.Writer
	TrackVolume     bool
	VanitySuffix    string             // Vanity address suffix (e.g., "pump")
	VanityPrefix    string             // Vanity address prefix
	VanityTimeout   time.Duration      // Vanity search timeout (default: 5 minutes)
	KnownATAs       []solana.PublicKey // Skip ATA existence check for these addresses
	ATAPayer        solana.PublicKey   // Pays rent for created ATAs (default: user)
	TokenProgram    solana.PublicKey   // Token program of the mint (default: mint account owner)
	CloseATA        bool               // Close the user ATA after sell (default: false)
	JitoTipLamports uint64             // Jito tip amount in lamports (0 = no tip)
	JitoTipAccount  solana.PublicKey   // Jito tip account (if zero, uses random from predefined list)
	Logger          zerolog.Logger
}

// Option functional option.
type Option func(*Options)

func newOptions(opts []Option) *Options {
	options := &Options{TrackVolume: true, Logger: zerolog.Nop()}
	for _, opt := range opts {
		opt(options)
	}
	return options
}

func WithOverrides(m map[string]solana.PublicKey) Option {
	return func(o *Options) { o.Overrides = m }
}

func WithPreview(w io.Writer) Option {
	return func(o *Options) { o.Preview = w }
}

func WithTrackVolume(v bool) Option {
	return func(o *Options) { o.TrackVolume = v }
}

func WithLogger(l zerolog.Logger) Option {
	return func(o *Options) { o.Logger = l }
}

// WithVanitySuffix generates a mint address ending with the specified suffix.
// Example: WithVanitySuffix("pump") generates addresses like "...pump"
func WithVanitySuffix(suffix string) Option {
	return func(o *Options) { o.VanitySuffix = suffix }
}

// WithVanityPrefix generates a mint address starting with the specified prefix.
func WithVanityPrefix(prefix string) Option {
	return func(o *Options) { o.VanityPrefix = prefix }
}

// WithVanityTimeout sets the timeout for vanity address generation.
// Default is 5 minutes if not specified.
func WithVanityTimeout(d time.Duration) Option {
	return func(o *Options) { o.VanityTimeout = d }
}

// WithKnownATAs skips the ATA existence probe for the specified addresses.
// Use this when the ATA is known to exist (e.g., created by a bundled buy that
// has not landed yet) to avoid RPC state propagation delays.
//
// Example:
//
//	// After buy, use the known ATA for sell
//	autofill.Sell(ctx, rpc, user, mint, tokens, 500,
//	    autofill.WithKnownATAs(buyAccts.AssociatedUser),
//	)
func WithKnownATAs(atas ...solana.PublicKey) Option {
	return func(o *Options) { o.KnownATAs = append(o.KnownATAs, atas...) }
}

// WithATAPayer makes payer fund any ATA the buy needs to create. The payer
// must sign the transaction.
func WithATAPayer(payer solana.PublicKey) Option {
	return func(o *Options) { o.ATAPayer = payer }
}

// WithTokenProgram skips the mint owner lookup.
func WithTokenProgram(program solana.PublicKey) Option {
	return func(o *Options) { o.TokenProgram = program }
}

// WithCloseATA closes the user ATA after sell to reclaim rent.
// Only use when selling ALL tokens in the account.
func WithCloseATA() Option {
	return func(o *Options) { o.CloseATA = true }
}

// WithJitoTip adds a Jito tip transfer instruction at the end of the transaction.
// tipLamports: amount to tip in lamports (e.g., 1_000_000 = 0.001 SOL)
// Uses a random tip account from the predefined list.
//
// Example:
//
//	autofill.Buy(ctx, rpc, user, mint, 100_000_000, 500,
//	    autofill.WithJitoTip(1_000_000), // 0.001 SOL tip
//	)
func WithJitoTip(tipLamports uint64) Option {
	return func(o *Options) {
		o.JitoTipLamports = tipLamports
		if o.JitoTipAccount.IsZero() {
			o.JitoTipAccount = jito.RandomTipAccount()
		}
	}
}

// WithJitoTipAccount specifies a custom Jito tip account.
// Use this with WithJitoTip to use a specific tip account instead of a random one.
func WithJitoTipAccount(account solana.PublicKey) Option {
	return func(o *Options) { o.JitoTipAccount = account }
}

// MergeOverridesFromJSON merges base58 pubkeys from JSON blob into map.
func MergeOverridesFromJSON(dst map[string]solana.PublicKey, jsonBytes []byte) (map[string]solana.PublicKey, error) {
	if dst == nil {
		dst = make(map[string]solana.PublicKey)
	}
	var m map[string]string
	if err := json.Unmarshal(jsonBytes, &m); err != nil {
		return nil, err
	}
	for k, v := range m {
		pk, err := solana.PublicKeyFromBase58(v)
		if err != nil {
			return nil, err
		}
		dst[k] = pk
	}
	return dst, nil
}
