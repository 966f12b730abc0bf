// Package bundle submits signed transaction groups as one atomic relay
// bundle, prefixed by a tip transaction, and reports whether it landed.
package bundle

import (
	"context"
	"fmt"
	"time"

	"github.com/gagliardetto/solana-go"
	"github.com/gagliardetto/solana-go/programs/system"
	"github.com/rs/zerolog"
	"golang.org/x/sync/errgroup"

	"github.com/ninja0404/pump-bundler/pkg/jito"
	"github.com/ninja0404/pump-bundler/pkg/txbuilder"
	"github.com/ninja0404/pump-bundler/pkg/types"
	"github.com/ninja0404/pump-bundler/pkg/wallet"
)

const (
	DefaultTipLamports    = 1_000_000
	DefaultConfirmTimeout = 60 * time.Second
	DefaultRelayTimeout   = 10 * time.Second
)

// Relay accepts base58 encoded bundles. *jito.Endpoint satisfies it.
type Relay interface {
	Name() string
	SendBundle(ctx context.Context, txs []string) (string, error)
}

// Config configures a Submitter.
type Config struct {
	// Builder compiles, signs and confirms the tip transaction. It should
	// carry no lookup tables.
	Builder *txbuilder.Builder
	Relays  []Relay

	// TipAccounts defaults to jito.MainnetTipAccounts.
	TipAccounts []solana.PublicKey
	TipLamports uint64

	// Treasury receives TreasuryFee when Submit is called with feePay.
	Treasury    solana.PublicKey
	TreasuryFee uint64

	ConfirmTimeout time.Duration
	RelayTimeout   time.Duration
	Logger         zerolog.Logger
}

// Result is the terminal outcome of one submission.
type Result struct {
	Confirmed    bool
	TipSignature solana.Signature
	BundleID     string
	// Accepted counts relays that returned a bundle id.
	Accepted int
	// Err explains an unconfirmed result.
	Err error
}

// Submitter sends bundles to every relay at once.
type Submitter struct {
	builder        *txbuilder.Builder
	relays         []Relay
	tipAccounts    []solana.PublicKey
	tipLamports    uint64
	treasury       solana.PublicKey
	treasuryFee    uint64
	confirmTimeout time.Duration
	relayTimeout   time.Duration
	log            zerolog.Logger
}

// NewSubmitter validates cfg and fills defaults.
func NewSubmitter(cfg Config) (*Submitter, error) {
	if cfg.Builder == nil {
		return nil, types.NewValidationError("builder", "is required")
	}
	if len(cfg.Relays) == 0 {
		return nil, types.NewValidationError("relays", "requires at least one relay")
	}
	s := &Submitter{
		builder:        cfg.Builder,
		relays:         cfg.Relays,
		tipAccounts:    cfg.TipAccounts,
		tipLamports:    cfg.TipLamports,
		treasury:       cfg.Treasury,
		treasuryFee:    cfg.TreasuryFee,
		confirmTimeout: cfg.ConfirmTimeout,
		relayTimeout:   cfg.RelayTimeout,
		log:            cfg.Logger,
	}
	if len(s.tipAccounts) == 0 {
		s.tipAccounts = jito.MainnetTipAccounts
	}
	if s.tipLamports == 0 {
		s.tipLamports = DefaultTipLamports
	}
	if s.confirmTimeout <= 0 {
		s.confirmTimeout = DefaultConfirmTimeout
	}
	if s.relayTimeout <= 0 {
		s.relayTimeout = DefaultRelayTimeout
	}
	return s, nil
}

// Relays returns the names of the configured relays.
func (s *Submitter) Relays() []string {
	names := make([]string, 0, len(s.relays))
	for _, r := range s.relays {
		names = append(names, r.Name())
	}
	return names
}

// TipInstructions returns the tip transfer, plus the treasury transfer when
// feePay is set and a treasury is configured.
func (s *Submitter) TipInstructions(payer, tipAccount solana.PublicKey, feePay bool) []solana.Instruction {
	ixs := []solana.Instruction{
		system.NewTransferInstruction(s.tipLamports, payer, tipAccount).Build(),
	}
	if feePay && !s.treasury.IsZero() && s.treasuryFee > 0 {
		ixs = append(ixs, system.NewTransferInstruction(s.treasuryFee, payer, s.treasury).Build())
	}
	return ixs
}

// Submit sends the tip transaction followed by txs as one bundle. txs must
// already be signed. Submit never returns transport failures or panics to
// the caller; they surface as an unconfirmed Result with Err set. Nothing
// is retried: rebuild with a fresh blockhash to try again.
func (s *Submitter) Submit(ctx context.Context, txs []*solana.Transaction, payer wallet.Signer, feePay bool) (res Result) {
	defer func() {
		if r := recover(); r != nil {
			s.log.Error().Interface("panic", r).Msg("bundle submission panicked")
			res = Result{Err: fmt.Errorf("bundle submission panicked: %v", r)}
		}
	}()
	if payer == nil {
		return Result{Err: types.ErrNilFeePayer}
	}

	tipAccount := jito.RandomTipAccount(s.tipAccounts...)
	s.log.Info().
		Int("transactions", len(txs)).
		Uint64("tip_lamports", s.tipLamports).
		Str("tip_account", tipAccount.String()).
		Bool("fee_pay", feePay).
		Msg("starting bundle")

	tipTx, err := s.builder.BuildAndSign(ctx, payer, nil, s.TipInstructions(payer.PublicKey(), tipAccount, feePay)...)
	if err != nil {
		return Result{Err: fmt.Errorf("build tip transaction: %w", err)}
	}
	tipSig := tipTx.Signatures[0]

	encoded, err := jito.EncodeBundle(append([]*solana.Transaction{tipTx}, txs...)...)
	if err != nil {
		return Result{Err: err}
	}

	ids := s.broadcast(ctx, encoded)
	accepted, bundleID := 0, ""
	for _, id := range ids {
		if id == "" {
			continue
		}
		if accepted == 0 {
			bundleID = id
		}
		accepted++
	}
	if accepted == 0 {
		s.log.Warn().Int("relays", len(s.relays)).Msg("no relay accepted the bundle")
		return Result{Err: types.ErrBundleUnaccepted}
	}
	s.log.Info().Str("bundle_id", bundleID).Int("accepted", accepted).Msg("bundle accepted, confirming tip")

	confirmCtx, cancel := context.WithTimeout(ctx, s.confirmTimeout)
	defer cancel()
	err = s.builder.WaitForConfirmation(confirmCtx, tipSig, txbuilder.ConfirmationConfirmed)
	if err != nil {
		s.log.Warn().Err(err).Str("signature", tipSig.String()).Msg("tip transaction did not confirm")
	} else {
		s.log.Info().Str("signature", tipSig.String()).Msg("bundle confirmed")
	}
	return Result{
		Confirmed:    err == nil,
		TipSignature: tipSig,
		BundleID:     bundleID,
		Accepted:     accepted,
		Err:          err,
	}
}

// broadcast sends encoded to every relay and waits for all of them. The
// returned slice holds each relay's bundle id, empty on failure.
func (s *Submitter) broadcast(ctx context.Context, encoded []string) []string {
	ids := make([]string, len(s.relays))
	var g errgroup.Group
	for i, relay := range s.relays {
		g.Go(func() error {
			defer func() {
				if r := recover(); r != nil {
					s.log.Error().Interface("panic", r).Str("relay", relay.Name()).Msg("relay panicked")
				}
			}()
			rctx, cancel := context.WithTimeout(ctx, s.relayTimeout)
			defer cancel()
			id, err := relay.SendBundle(rctx, encoded)
			if err != nil {
				s.log.Warn().Err(err).Str("relay", relay.Name()).Msg("relay rejected bundle")
				return nil
			}
			s.log.Debug().Str("relay", relay.Name()).Str("bundle_id", id).Msg("relay accepted bundle")
			ids[i] = id
			return nil
		})
	}
	_ = g.Wait()
	return ids
}
