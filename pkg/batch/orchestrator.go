package batch

import (
	"context"
	"fmt"

	"github.com/gagliardetto/solana-go"
	"github.com/rs/zerolog"

	"github.com/ninja0404/pump-bundler/pkg/autofill"
	"github.com/ninja0404/pump-bundler/pkg/constants"
	"github.com/ninja0404/pump-bundler/pkg/lut"
	"github.com/ninja0404/pump-bundler/pkg/program/pump"
	"github.com/ninja0404/pump-bundler/pkg/quote"
	"github.com/ninja0404/pump-bundler/pkg/types"
	"github.com/ninja0404/pump-bundler/pkg/wallet"
)

// Default tuning values.
const (
	DefaultChunkSize    = 5
	DefaultATAChunkSize = 12
	DefaultSlippageBps  = 500
	DefaultHaircutBps   = 1000
)

// Options tunes one build call.
type Options struct {
	// ChunkSize is the number of wallets per trade group.
	ChunkSize int
	// ATAChunkSize is the number of ATAs per BuildATAGroups group.
	ATAChunkSize int
	// SlippageBps bounds maxSolCost for buys and minSolOutput for sells.
	SlippageBps uint64
	// HaircutBps shaves the quoted token amount of every buy, leaving room
	// for the reserves to move before the chunk executes.
	HaircutBps uint64
	// LookupTable, when set, must resolve or the build fails.
	LookupTable solana.PublicKey
	// ATAPayer funds created ATAs. Defaults to the first wallet of the first chunk.
	ATAPayer wallet.Signer
	// TokenProgram of the mint. Defaults to the classic token program.
	TokenProgram solana.PublicKey
	// SequentialReserves advances the snapshot locally after every order so
	// later wallets of a chunk are priced after earlier ones. Off, every
	// wallet of a chunk is priced against the same snapshot.
	SequentialReserves bool
	// Curve replaces the RPC snapshot, e.g. the projected curve of a mint
	// created in the same bundle. It is advanced across chunks when
	// SequentialReserves is set.
	Curve *pump.BondingCurve
	// Global replaces the RPC read of the global config.
	Global *pump.Global
	// SkipVolumeTracking clears the buy volume tracking flag.
	SkipVolumeTracking bool
}

// DefaultOptions returns the defaults used when a field is left zero.
func DefaultOptions() Options {
	return Options{
		ChunkSize:    DefaultChunkSize,
		ATAChunkSize: DefaultATAChunkSize,
		SlippageBps:  DefaultSlippageBps,
		HaircutBps:   DefaultHaircutBps,
	}
}

func (o Options) withDefaults() Options {
	if o.ChunkSize <= 0 {
		o.ChunkSize = DefaultChunkSize
	}
	if o.ATAChunkSize <= 0 {
		o.ATAChunkSize = DefaultATAChunkSize
	}
	if o.TokenProgram.IsZero() {
		o.TokenProgram = constants.TokenProgramID
	}
	return o
}

// Orchestrator builds transaction groups. It holds no per-run state; the
// registry lives in the Session passed to every call.
type Orchestrator struct {
	reader autofill.AccountReader
	log    zerolog.Logger
}

// NewOrchestrator creates an orchestrator reading chain state through reader.
func NewOrchestrator(reader autofill.AccountReader, log zerolog.Logger) *Orchestrator {
	return &Orchestrator{reader: reader, log: log}
}

// BuildBuyGroups builds one group per chunk of orders, each wallet getting
// [createATA?] → buy. Order amounts are lamports to spend.
func (o *Orchestrator) BuildBuyGroups(ctx context.Context, sess *Session, mint solana.PublicKey, orders []Order, opts Options) (Plan, error) {
	return o.buildTrades(ctx, sess, mint, orders, opts, quote.Buy)
}

// BuildSellGroups builds one sell group per chunk of orders. Order amounts
// are raw token units. Selling never creates ATAs.
func (o *Orchestrator) BuildSellGroups(ctx context.Context, sess *Session, mint solana.PublicKey, orders []Order, opts Options) (Plan, error) {
	return o.buildTrades(ctx, sess, mint, orders, opts, quote.Sell)
}

func (o *Orchestrator) buildTrades(ctx context.Context, sess *Session, mint solana.PublicKey, orders []Order, opts Options, dir quote.Direction) (Plan, error) {
	registry, err := sess.active()
	if err != nil {
		return Plan{}, err
	}
	staged := registry.stage()
	plan, err := o.trades(ctx, staged, mint, orders, opts, dir)
	if err != nil {
		return Plan{}, err
	}
	staged.commit()
	return plan, nil
}

// trades assembles the groups against registry, which the caller commits
// only once the whole plan succeeded.
func (o *Orchestrator) trades(ctx context.Context, registry *Registry, mint solana.PublicKey, orders []Order, opts Options, dir quote.Direction) (Plan, error) {
	if err := validateOrders(mint, orders); err != nil {
		return Plan{}, err
	}
	if err := types.ValidateSlippage(opts.SlippageBps); err != nil {
		return Plan{}, err
	}
	opts = opts.withDefaults()

	global, err := o.global(ctx, opts)
	if err != nil {
		return Plan{}, err
	}
	tables, err := o.tables(ctx, opts)
	if err != nil {
		return Plan{}, err
	}

	payer := opts.ATAPayer
	if payer == nil {
		payer = orders[0].Signer
	}

	var (
		chunks    = Chunk(orders, opts.ChunkSize)
		plan      = Plan{Groups: make([]Group, 0, len(chunks)), LookupTables: tables}
		projected = opts.Curve
	)
	for i, chunk := range chunks {
		snapshot, err := o.snapshot(ctx, mint, projected)
		if err != nil {
			return Plan{}, fmt.Errorf("chunk %d: %w", i, err)
		}

		var exists map[solana.PublicKey]bool
		if dir == quote.Buy {
			exists = o.probe(ctx, registry, mint, chunk, opts.TokenProgram)
		}

		group := Group{Index: i, Orders: chunk}
		signers := newSignerSet()
		creates := 0
		for j, order := range chunk {
			var (
				ixs  []solana.Instruction
				next pump.BondingCurve
			)
			if dir == quote.Buy {
				var created bool
				ixs, next, created, err = o.buyOrder(registry, exists, global, snapshot, mint, order, payer, opts)
				if created {
					creates++
				}
			} else {
				ixs, next, err = sellOrder(global, snapshot, mint, order, opts)
			}
			if err != nil {
				return Plan{}, fmt.Errorf("chunk %d wallet %d (%s): %w", i, j, order.Signer.PublicKey(), err)
			}
			if opts.SequentialReserves {
				snapshot = next
			}
			group.Instructions = append(group.Instructions, ixs...)
			signers.add(order.Signer)
		}
		if creates > 0 {
			signers.add(payer)
		}
		group.Signers = signers.list

		if projected != nil && opts.SequentialReserves {
			projected = &snapshot
		}

		o.log.Debug().
			Str("mint", mint.String()).
			Str("side", dir.String()).
			Int("chunk", i).
			Int("wallets", len(chunk)).
			Int("instructions", len(group.Instructions)).
			Int("ata_creates", creates).
			Msg("chunk assembled")
		plan.Groups = append(plan.Groups, group)
	}
	return plan, nil
}

func (o *Orchestrator) buyOrder(registry *Registry, exists map[solana.PublicKey]bool, global pump.Global, snapshot pump.BondingCurve, mint solana.PublicKey, order Order, payer wallet.Signer, opts Options) ([]solana.Instruction, pump.BondingCurve, bool, error) {
	user := order.Signer.PublicKey()
	ata, err := autofill.FindATA(user, mint, opts.TokenProgram)
	if err != nil {
		return nil, snapshot, false, err
	}
	create := false
	if exists[ata] {
		registry.Add(ata)
	} else {
		create = registry.Add(ata)
	}

	tokens, next, err := quote.SimulateBuy(snapshot, order.Amount)
	if err != nil {
		return nil, snapshot, false, err
	}
	_, _, ixs, err := autofill.BuyInstructions(autofill.BuyParams{
		User:         user,
		Mint:         mint,
		FeeRecipient: global.FeeRecipient,
		Creator:      snapshot.Creator,
		TokenProgram: opts.TokenProgram,
		Amount:       quote.WithSlippage(tokens, opts.HaircutBps, quote.Sell),
		MaxSolCost:   quote.WithSlippage(order.Amount, opts.SlippageBps, quote.Buy),
		CreateATA:    create,
		ATAPayer:     payer.PublicKey(),
		TrackVolume:  !opts.SkipVolumeTracking,
	})
	if err != nil {
		return nil, snapshot, false, err
	}
	return ixs, next, create, nil
}

func sellOrder(global pump.Global, snapshot pump.BondingCurve, mint solana.PublicKey, order Order, opts Options) ([]solana.Instruction, pump.BondingCurve, error) {
	out, next, err := quote.SimulateSell(snapshot, order.Amount, global.FeeBasisPoints)
	if err != nil {
		return nil, snapshot, err
	}
	_, _, ixs, err := autofill.SellInstructions(autofill.SellParams{
		User:         order.Signer.PublicKey(),
		Mint:         mint,
		FeeRecipient: global.FeeRecipient,
		Creator:      snapshot.Creator,
		TokenProgram: opts.TokenProgram,
		Amount:       order.Amount,
		MinSolOutput: quote.WithSlippage(out, opts.SlippageBps, quote.Sell),
	})
	if err != nil {
		return nil, snapshot, err
	}
	return ixs, next, nil
}

// BuildATAGroups builds ATA-only groups for owners, opts.ATAChunkSize per
// group, all funded by payer. Owners whose ATA exists or is registered are
// skipped; groups left empty are dropped.
func (o *Orchestrator) BuildATAGroups(ctx context.Context, sess *Session, mint solana.PublicKey, owners []solana.PublicKey, payer wallet.Signer, opts Options) (Plan, error) {
	committed, err := sess.active()
	if err != nil {
		return Plan{}, err
	}
	registry := committed.stage()
	if payer == nil {
		return Plan{}, types.ErrNilFeePayer
	}
	if err := types.ValidatePublicKey("mint", mint); err != nil {
		return Plan{}, err
	}
	opts = opts.withDefaults()

	tables, err := o.tables(ctx, opts)
	if err != nil {
		return Plan{}, err
	}

	plan := Plan{LookupTables: tables}
	for _, chunk := range Chunk(owners, opts.ATAChunkSize) {
		atas := make([]solana.PublicKey, len(chunk))
		var unknown []solana.PublicKey
		for j, owner := range chunk {
			if atas[j], err = autofill.FindATA(owner, mint, opts.TokenProgram); err != nil {
				return Plan{}, err
			}
			if !registry.Has(atas[j]) {
				unknown = append(unknown, atas[j])
			}
		}
		exists := autofill.ProbeATAs(ctx, o.reader, o.log, unknown...)

		group := Group{Index: len(plan.Groups), Signers: []wallet.Signer{payer}}
		for j, owner := range chunk {
			if exists[atas[j]] {
				registry.Add(atas[j])
				continue
			}
			if !registry.Add(atas[j]) {
				continue
			}
			ix, err := autofill.CreateATAInstruction(payer.PublicKey(), owner, mint, opts.TokenProgram)
			if err != nil {
				return Plan{}, err
			}
			group.Instructions = append(group.Instructions, ix)
		}
		if len(group.Instructions) == 0 {
			continue
		}
		o.log.Debug().Int("group", group.Index).Int("creates", len(group.Instructions)).Msg("ata group assembled")
		plan.Groups = append(plan.Groups, group)
	}
	registry.commit()
	return plan, nil
}

func (o *Orchestrator) global(ctx context.Context, opts Options) (pump.Global, error) {
	if opts.Global != nil {
		return *opts.Global, nil
	}
	return quote.FetchGlobal(ctx, o.reader)
}

func (o *Orchestrator) tables(ctx context.Context, opts Options) (map[solana.PublicKey]solana.PublicKeySlice, error) {
	if opts.LookupTable.IsZero() {
		return nil, nil
	}
	return lut.Tables(ctx, o.reader, opts.LookupTable)
}

// snapshot returns the curve one chunk is priced against.
func (o *Orchestrator) snapshot(ctx context.Context, mint solana.PublicKey, projected *pump.BondingCurve) (pump.BondingCurve, error) {
	if projected != nil {
		if projected.Complete {
			return pump.BondingCurve{}, types.ErrCurveClosed
		}
		return *projected, nil
	}
	curve, _, err := quote.FetchCurve(ctx, o.reader, mint)
	if err != nil {
		return pump.BondingCurve{}, err
	}
	if curve.Complete {
		return pump.BondingCurve{}, types.ErrCurveClosed
	}
	return curve, nil
}

// probe checks, in one request, the ATAs of chunk not yet in registry.
func (o *Orchestrator) probe(ctx context.Context, registry *Registry, mint solana.PublicKey, chunk []Order, tokenProgram solana.PublicKey) map[solana.PublicKey]bool {
	var unknown []solana.PublicKey
	for _, order := range chunk {
		ata, err := autofill.FindATA(order.Signer.PublicKey(), mint, tokenProgram)
		if err != nil || registry.Has(ata) {
			continue
		}
		unknown = append(unknown, ata)
	}
	return autofill.ProbeATAs(ctx, o.reader, o.log, unknown...)
}

func validateOrders(mint solana.PublicKey, orders []Order) error {
	if err := types.ValidatePublicKey("mint", mint); err != nil {
		return err
	}
	if len(orders) == 0 {
		return types.NewValidationError("orders", "cannot be empty")
	}
	for i, order := range orders {
		if order.Signer == nil {
			return types.NewValidationError(fmt.Sprintf("orders[%d].signer", i), "cannot be nil")
		}
		if order.Amount == 0 {
			return types.NewValidationError(fmt.Sprintf("orders[%d].amount", i), "must be greater than 0")
		}
	}
	return nil
}

type signerSet struct {
	seen map[solana.PublicKey]struct{}
	list []wallet.Signer
}

func newSignerSet() *signerSet {
	return &signerSet{seen: make(map[solana.PublicKey]struct{})}
}

func (s *signerSet) add(signer wallet.Signer) {
	pk := signer.PublicKey()
	if _, ok := s.seen[pk]; ok {
		return
	}
	s.seen[pk] = struct{}{}
	s.list = append(s.list, signer)
}
