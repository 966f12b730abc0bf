// Package quote prices trades against the pump.fun bonding curve.
//
// All monetary math is integer-only (math/big intermediates) so quotes match
// the on-chain program bit for bit. Every function here is pure: callers pass
// the curve snapshot they fetched, and nothing is cached between calls.
//
// Example usage:
//
//	curve, _, err := quote.FetchCurve(ctx, rpc, mint)
//	if err != nil {
//	    log.Fatal(err)
//	}
//	tokens, err := quote.QuoteBuy(curve, 1_000_000_000) // 1 SOL
//	maxCost := quote.WithSlippage(1_000_000_000, 500, quote.Buy)
package quote

import (
	"math/big"

	"github.com/gagliardetto/solana-go"

	"github.com/ninja0404/pump-bundler/pkg/constants"
	"github.com/ninja0404/pump-bundler/pkg/program/pump"
	"github.com/ninja0404/pump-bundler/pkg/types"
)

// Direction selects which way a slippage bound moves.
type Direction int

const (
	// Buy bounds grow: the limit is the most the trader will pay.
	Buy Direction = iota
	// Sell bounds shrink: the limit is the least the trader will accept.
	Sell
)

func (d Direction) String() string {
	if d == Sell {
		return "sell"
	}
	return "buy"
}

// Quote is the result of pricing a single trade against one curve snapshot.
type Quote struct {
	// AmountOut is tokens for a buy and lamports net of fee for a sell.
	AmountOut uint64
	// AmountInWithFee is the input the program charges, protocol fee included.
	AmountInWithFee uint64
	// Limit is the slippage-bounded instruction limit: maxSolCost for a buy,
	// minSolOutput for a sell.
	Limit uint64
}

var bpsDenominator = new(big.Int).SetUint64(constants.MaxBps)

// QuoteBuy returns the tokens received for solIn lamports. The invariant
// product is rounded up by one unit so the result never exceeds what the
// program pays out, and the output is capped at the real token reserves.
func QuoteBuy(curve pump.BondingCurve, solIn uint64) (uint64, error) {
	if curve.Complete {
		return 0, types.ErrCurveClosed
	}
	if solIn == 0 {
		return 0, types.NewValidationError("solIn", "must be greater than 0")
	}
	if curve.VirtualTokenReserves == 0 || curve.VirtualSolReserves == 0 {
		return 0, types.NewValidationError("curve", "virtual reserves are empty")
	}

	vT := new(big.Int).SetUint64(curve.VirtualTokenReserves)
	vS := new(big.Int).SetUint64(curve.VirtualSolReserves)
	in := new(big.Int).SetUint64(solIn)

	product := new(big.Int).Mul(vT, vS)
	newSol := new(big.Int).Add(vS, in)
	newTokens := product.Div(product, newSol)
	newTokens.Add(newTokens, big.NewInt(1))

	out := new(big.Int).Sub(vT, newTokens)
	if out.Sign() < 0 {
		return 0, nil
	}
	tokens := out.Uint64()
	if tokens > curve.RealTokenReserves {
		tokens = curve.RealTokenReserves
	}
	return tokens, nil
}

// QuoteSell returns the lamports received for tokensIn after the protocol fee.
// The gross amount is bounded by the SOL actually held in the curve.
func QuoteSell(curve pump.BondingCurve, tokensIn, feeBps uint64) (uint64, error) {
	if curve.Complete {
		return 0, types.ErrCurveClosed
	}
	if tokensIn == 0 {
		return 0, types.NewValidationError("tokensIn", "must be greater than 0")
	}
	if feeBps > constants.MaxBps {
		return 0, types.NewValidationError("feeBps", "must be <= 10000")
	}

	gross := grossSellProceeds(curve, tokensIn)
	fee := mulDivBps(gross, feeBps)
	return gross - fee, nil
}

// grossSellProceeds is the SOL side of the constant-product swap before fees.
func grossSellProceeds(curve pump.BondingCurve, tokensIn uint64) uint64 {
	in := new(big.Int).SetUint64(tokensIn)
	vS := new(big.Int).SetUint64(curve.VirtualSolReserves)
	denom := new(big.Int).Add(new(big.Int).SetUint64(curve.VirtualTokenReserves), in)

	n := new(big.Int).Mul(in, vS)
	n.Div(n, denom)
	if !n.IsUint64() || n.Uint64() > curve.RealSolReserves {
		return curve.RealSolReserves
	}
	return n.Uint64()
}

// WithSlippage widens amount by bps in the direction's unfavourable sense:
// up for a buy limit, down for a sell limit. Division truncates.
func WithSlippage(amount, bps uint64, dir Direction) uint64 {
	delta := mulDivBps(amount, bps)
	if dir == Sell {
		if delta >= amount {
			return 0
		}
		return amount - delta
	}
	sum := new(big.Int).Add(new(big.Int).SetUint64(amount), new(big.Int).SetUint64(delta))
	if !sum.IsUint64() {
		return ^uint64(0)
	}
	return sum.Uint64()
}

// BuyQuote prices a buy of solIn lamports and bounds it by slippageBps.
func BuyQuote(curve pump.BondingCurve, solIn, feeBps, slippageBps uint64) (Quote, error) {
	if err := types.ValidateSlippage(slippageBps); err != nil {
		return Quote{}, err
	}
	if feeBps > constants.MaxBps {
		return Quote{}, types.NewValidationError("feeBps", "must be <= 10000")
	}
	tokens, err := QuoteBuy(curve, solIn)
	if err != nil {
		return Quote{}, err
	}
	withFee := WithSlippage(solIn, feeBps, Buy)
	return Quote{
		AmountOut:       tokens,
		AmountInWithFee: withFee,
		Limit:           WithSlippage(withFee, slippageBps, Buy),
	}, nil
}

// SellQuote prices a sell of tokensIn and bounds it by slippageBps.
func SellQuote(curve pump.BondingCurve, tokensIn, feeBps, slippageBps uint64) (Quote, error) {
	if err := types.ValidateSlippage(slippageBps); err != nil {
		return Quote{}, err
	}
	out, err := QuoteSell(curve, tokensIn, feeBps)
	if err != nil {
		return Quote{}, err
	}
	return Quote{
		AmountOut:       out,
		AmountInWithFee: tokensIn,
		Limit:           WithSlippage(out, slippageBps, Sell),
	}, nil
}

// InitialCurve projects the curve a freshly created mint starts with, taken
// from the global config. Used to price buys bundled with the create.
func InitialCurve(global pump.Global, creator solana.PublicKey) pump.BondingCurve {
	return pump.BondingCurve{
		VirtualTokenReserves: global.InitialVirtualTokenReserves,
		VirtualSolReserves:   global.InitialVirtualSolReserves,
		RealTokenReserves:    global.InitialRealTokenReserves,
		RealSolReserves:      0,
		TokenTotalSupply:     global.TokenTotalSupply,
		Complete:             false,
		Creator:              creator,
	}
}

// Apply advances curve by one trade the way the program updates reserves.
// For a buy, in is lamports and out is tokens; for a sell, in is tokens and
// out is gross lamports. Reserves saturate at zero.
func Apply(curve pump.BondingCurve, dir Direction, in, out uint64) pump.BondingCurve {
	next := curve
	switch dir {
	case Buy:
		next.VirtualSolReserves = addSat(next.VirtualSolReserves, in)
		next.RealSolReserves = addSat(next.RealSolReserves, in)
		next.VirtualTokenReserves = subSat(next.VirtualTokenReserves, out)
		next.RealTokenReserves = subSat(next.RealTokenReserves, out)
	case Sell:
		next.VirtualTokenReserves = addSat(next.VirtualTokenReserves, in)
		next.RealTokenReserves = addSat(next.RealTokenReserves, in)
		next.VirtualSolReserves = subSat(next.VirtualSolReserves, out)
		next.RealSolReserves = subSat(next.RealSolReserves, out)
	}
	return next
}

// SimulateBuy quotes solIn against curve and returns the curve after the buy.
func SimulateBuy(curve pump.BondingCurve, solIn uint64) (uint64, pump.BondingCurve, error) {
	tokens, err := QuoteBuy(curve, solIn)
	if err != nil {
		return 0, curve, err
	}
	return tokens, Apply(curve, Buy, solIn, tokens), nil
}

// SimulateSell quotes tokensIn against curve and returns the curve after the sell.
func SimulateSell(curve pump.BondingCurve, tokensIn, feeBps uint64) (uint64, pump.BondingCurve, error) {
	out, err := QuoteSell(curve, tokensIn, feeBps)
	if err != nil {
		return 0, curve, err
	}
	return out, Apply(curve, Sell, tokensIn, grossSellProceeds(curve, tokensIn)), nil
}

// SpotPrice is the marginal price in lamports per token base unit, scaled by 1e9.
func SpotPrice(curve pump.BondingCurve) uint64 {
	if curve.VirtualTokenReserves == 0 {
		return 0
	}
	price := new(big.Int).SetUint64(curve.VirtualSolReserves)
	price.Mul(price, big.NewInt(1e9))
	price.Div(price, new(big.Int).SetUint64(curve.VirtualTokenReserves))
	return price.Uint64()
}

// PriceImpactBps compares the execution price of spending solIn for
// tokensOut with the spot price of curve.
func PriceImpactBps(curve pump.BondingCurve, solIn, tokensOut uint64) uint64 {
	spot := SpotPrice(curve)
	if spot == 0 || tokensOut == 0 {
		return 0
	}
	exec := new(big.Int).SetUint64(solIn)
	exec.Mul(exec, big.NewInt(1e9))
	exec.Div(exec, new(big.Int).SetUint64(tokensOut))
	if !exec.IsUint64() || exec.Uint64() <= spot {
		return 0
	}
	impact := new(big.Int).SetUint64(exec.Uint64() - spot)
	impact.Mul(impact, bpsDenominator)
	impact.Div(impact, new(big.Int).SetUint64(spot))
	return impact.Uint64()
}

func mulDivBps(amount, bps uint64) uint64 {
	v := new(big.Int).SetUint64(amount)
	v.Mul(v, new(big.Int).SetUint64(bps))
	v.Div(v, bpsDenominator)
	if !v.IsUint64() {
		return ^uint64(0)
	}
	return v.Uint64()
}

func addSat(a, b uint64) uint64 {
	if a > ^uint64(0)-b {
		return ^uint64(0)
	}
	return a + b
}

func subSat(a, b uint64) uint64 {
	if b > a {
		return 0
	}
	return a - b
}
