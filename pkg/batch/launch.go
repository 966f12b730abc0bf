package batch

import (
	"context"
	"fmt"

	"github.com/gagliardetto/solana-go"

	"github.com/ninja0404/pump-bundler/pkg/autofill"
	"github.com/ninja0404/pump-bundler/pkg/constants"
	"github.com/ninja0404/pump-bundler/pkg/quote"
	"github.com/ninja0404/pump-bundler/pkg/types"
	"github.com/ninja0404/pump-bundler/pkg/wallet"
)

// Launch is a token creation followed by coordinated buys, meant to land
// in one bundle.
type Launch struct {
	Creator wallet.Signer
	// MintKey is the secret key of the new mint. Nil generates one using
	// the autofill options passed to BuildLaunch.
	MintKey solana.PrivateKey

	Name   string
	Symbol string
	URI    string

	// DevBuy is the lamports the creator spends in the create group.
	// Zero skips the dev buy.
	DevBuy uint64
	Orders []Order
}

// LaunchPlan is a Plan whose first group creates the mint.
type LaunchPlan struct {
	Plan
	Mint    solana.PublicKey
	MintKey solana.PrivateKey
}

// BuildLaunch builds the create group (create, then the creator's ATA and
// dev buy) followed by buy groups for l.Orders. The mint does not exist yet,
// so every buy is priced against the curve projected from the global config,
// advanced after each buy.
func (o *Orchestrator) BuildLaunch(ctx context.Context, sess *Session, l Launch, opts Options, createOpts ...autofill.Option) (LaunchPlan, error) {
	committed, err := sess.active()
	if err != nil {
		return LaunchPlan{}, err
	}
	registry := committed.stage()
	if l.Creator == nil {
		return LaunchPlan{}, types.ErrNilSigner
	}
	if err := types.ValidateSlippage(opts.SlippageBps); err != nil {
		return LaunchPlan{}, err
	}
	opts = opts.withDefaults()
	// create always mints under the classic token program
	opts.TokenProgram = constants.TokenProgramID
	creator := l.Creator.PublicKey()

	mintKey := l.MintKey
	var createIx solana.Instruction
	if mintKey == nil {
		_, _, createIx, mintKey, err = autofill.Create(ctx, creator, l.Name, l.Symbol, l.URI, createOpts...)
	} else {
		_, _, createIx, err = autofill.CreateWithMint(creator, mintKey, l.Name, l.Symbol, l.URI, createOpts...)
	}
	if err != nil {
		return LaunchPlan{}, fmt.Errorf("create: %w", err)
	}
	mint := mintKey.PublicKey()

	global, err := o.global(ctx, opts)
	if err != nil {
		return LaunchPlan{}, err
	}
	curve := quote.InitialCurve(global, creator)

	group := Group{
		Index:        0,
		Instructions: []solana.Instruction{createIx},
		Signers:      []wallet.Signer{l.Creator, wallet.NewLocalFromPrivateKey(mintKey)},
	}
	if l.DevBuy > 0 {
		ata, err := autofill.FindATA(creator, mint, opts.TokenProgram)
		if err != nil {
			return LaunchPlan{}, err
		}
		tokens, next, err := quote.SimulateBuy(curve, l.DevBuy)
		if err != nil {
			return LaunchPlan{}, fmt.Errorf("dev buy: %w", err)
		}
		_, _, ixs, err := autofill.BuyInstructions(autofill.BuyParams{
			User:         creator,
			Mint:         mint,
			FeeRecipient: global.FeeRecipient,
			Creator:      creator,
			TokenProgram: opts.TokenProgram,
			Amount:       quote.WithSlippage(tokens, opts.HaircutBps, quote.Sell),
			MaxSolCost:   quote.WithSlippage(l.DevBuy, opts.SlippageBps, quote.Buy),
			CreateATA:    registry.Add(ata),
			ATAPayer:     creator,
			TrackVolume:  !opts.SkipVolumeTracking,
		})
		if err != nil {
			return LaunchPlan{}, fmt.Errorf("dev buy: %w", err)
		}
		group.Instructions = append(group.Instructions, ixs...)
		group.Orders = []Order{{Signer: l.Creator, Amount: l.DevBuy}}
		curve = next
	}

	out := LaunchPlan{
		Plan:    Plan{Groups: []Group{group}},
		Mint:    mint,
		MintKey: mintKey,
	}
	if len(l.Orders) == 0 {
		tables, err := o.tables(ctx, opts)
		if err != nil {
			return LaunchPlan{}, err
		}
		out.LookupTables = tables
		registry.commit()
		return out, nil
	}

	opts.Curve = &curve
	opts.Global = &global
	opts.SequentialReserves = true
	buys, err := o.trades(ctx, registry, mint, l.Orders, opts, quote.Buy)
	if err != nil {
		return LaunchPlan{}, err
	}
	for _, g := range buys.Groups {
		g.Index = len(out.Groups)
		out.Groups = append(out.Groups, g)
	}
	out.LookupTables = buys.LookupTables
	registry.commit()

	o.log.Info().
		Str("mint", mint.String()).
		Uint64("dev_buy", l.DevBuy).
		Int("wallets", len(l.Orders)).
		Int("groups", len(out.Groups)).
		Msg("launch planned")
	return out, nil
}
