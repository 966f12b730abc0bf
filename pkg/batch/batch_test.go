package batch

import (
	"context"
	"encoding/binary"
	"errors"
	"math"
	"strings"
	"testing"

	"github.com/gagliardetto/solana-go"
	"github.com/rs/zerolog"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/ninja0404/pump-bundler/internal/chaintest"
	"github.com/ninja0404/pump-bundler/pkg/autofill"
	"github.com/ninja0404/pump-bundler/pkg/constants"
	"github.com/ninja0404/pump-bundler/pkg/lut"
	"github.com/ninja0404/pump-bundler/pkg/program/pump"
	"github.com/ninja0404/pump-bundler/pkg/quote"
	"github.com/ninja0404/pump-bundler/pkg/txbuilder"
	"github.com/ninja0404/pump-bundler/pkg/types"
	"github.com/ninja0404/pump-bundler/pkg/wallet"
)

type fixture struct {
	chain   *chaintest.Chain
	mint    solana.PublicKey
	creator solana.PublicKey
	fee     solana.PublicKey
	orch    *Orchestrator
}

func newFixture(t *testing.T) fixture {
	t.Helper()
	f := fixture{
		chain:   chaintest.New(),
		mint:    solana.NewWallet().PublicKey(),
		creator: solana.NewWallet().PublicKey(),
		fee:     solana.NewWallet().PublicKey(),
	}
	f.chain.SetGlobal(chaintest.Global(f.fee))
	f.chain.SetMint(f.mint, constants.TokenProgramID)
	f.chain.SetCurve(f.mint, chaintest.Curve(30_000_000_000, 1_000_000_000_000, f.creator))
	f.orch = NewOrchestrator(f.chain, zerolog.Nop())
	return f
}

func newOrders(t *testing.T, n int, amount uint64) []Order {
	t.Helper()
	out := make([]Order, n)
	for i := range out {
		w, err := wallet.NewRandomLocal()
		require.NoError(t, err)
		out[i] = Order{Signer: w, Amount: amount}
	}
	return out
}

// ataCreates returns the ATA addresses created by ixs, in order.
func ataCreates(ixs []solana.Instruction) []solana.PublicKey {
	var out []solana.PublicKey
	for _, ix := range ixs {
		if ix.ProgramID().Equals(constants.AssociatedTokenProgramID) {
			out = append(out, ix.Accounts()[1].PublicKey)
		}
	}
	return out
}

// buyArgs decodes the buy instructions of ixs.
func buyArgs(t *testing.T, ixs []solana.Instruction) []pump.BuyArgs {
	t.Helper()
	var out []pump.BuyArgs
	for _, ix := range ixs {
		if !ix.ProgramID().Equals(pump.ProgramKey) {
			continue
		}
		data, err := ix.Data()
		require.NoError(t, err)
		out = append(out, pump.BuyArgs{
			Amount:     binary.LittleEndian.Uint64(data[8:16]),
			MaxSolCost: binary.LittleEndian.Uint64(data[16:24]),
		})
	}
	return out
}

func TestChunk(t *testing.T) {
	for l := 0; l <= 23; l++ {
		items := make([]int, l)
		for i := range items {
			items[i] = i
		}
		for c := 1; c <= 6; c++ {
			chunks := Chunk(items, c)
			assert.Len(t, chunks, (l+c-1)/c, "L=%d C=%d", l, c)
			for i, chunk := range chunks {
				assert.Equal(t, items[i*c:min((i+1)*c, l)], chunk, "L=%d C=%d chunk %d", l, c, i)
			}
		}
	}
	assert.Len(t, Chunk([]int{1, 2, 3}, 0), 1)
}

func TestBuildBuyGroups_ChunksAndSnapshots(t *testing.T) {
	f := newFixture(t)
	orders := newOrders(t, 12, 100_000_000)

	plan, err := f.orch.BuildBuyGroups(context.Background(), NewSession(), f.mint, orders, DefaultOptions())
	require.NoError(t, err)
	require.Len(t, plan.Groups, 3)
	assert.Equal(t, orders[0:5], plan.Groups[0].Orders)
	assert.Equal(t, orders[5:10], plan.Groups[1].Orders)
	assert.Equal(t, orders[10:12], plan.Groups[2].Orders)
	assert.Nil(t, plan.LookupTables)

	// one global read, one curve read per chunk
	assert.Equal(t, 4, f.chain.Calls("getAccountInfo"))
	// one ATA probe per chunk
	assert.Equal(t, 3, f.chain.Calls("getMultipleAccounts"))

	for _, g := range plan.Groups {
		// create precedes every buy
		for k, ix := range g.Instructions {
			if k%2 == 0 {
				assert.Equal(t, constants.AssociatedTokenProgramID, ix.ProgramID())
			} else {
				assert.Equal(t, pump.ProgramKey, ix.ProgramID())
			}
		}
	}
}

func TestBuildBuyGroups_PricingAndPayer(t *testing.T) {
	f := newFixture(t)
	orders := newOrders(t, 7, 100_000_000)
	curve := chaintest.Curve(30_000_000_000, 1_000_000_000_000, f.creator)

	plan, err := f.orch.BuildBuyGroups(context.Background(), NewSession(), f.mint, orders, DefaultOptions())
	require.NoError(t, err)

	tokens, err := quote.QuoteBuy(curve, 100_000_000)
	require.NoError(t, err)
	want := pump.BuyArgs{
		Amount:     quote.WithSlippage(tokens, DefaultHaircutBps, quote.Sell),
		MaxSolCost: quote.WithSlippage(100_000_000, DefaultSlippageBps, quote.Buy),
	}
	for _, g := range plan.Groups {
		// snapshot not advanced within a chunk: identical orders price identically
		for _, args := range buyArgs(t, g.Instructions) {
			assert.Equal(t, want, args)
		}
		for _, ix := range g.Instructions {
			if ix.ProgramID().Equals(constants.AssociatedTokenProgramID) {
				assert.Equal(t, orders[0].Signer.PublicKey(), ix.Accounts()[0].PublicKey)
			}
		}
	}
	// the payer signs the second group because it funds its ATAs
	assert.Equal(t, orders[0].Signer, plan.Groups[1].Signers[len(plan.Groups[1].Signers)-1])
	assert.Len(t, plan.Groups[1].Signers, 3)
}

func TestBuildBuyGroups_SequentialReserves(t *testing.T) {
	f := newFixture(t)
	orders := newOrders(t, 3, 1_000_000_000)
	opts := DefaultOptions()
	opts.SequentialReserves = true

	plan, err := f.orch.BuildBuyGroups(context.Background(), NewSession(), f.mint, orders, opts)
	require.NoError(t, err)
	args := buyArgs(t, plan.Groups[0].Instructions)
	require.Len(t, args, 3)
	assert.Greater(t, args[0].Amount, args[1].Amount)
	assert.Greater(t, args[1].Amount, args[2].Amount)
}

func TestBuildBuyGroups_ProjectedCurveCarriesAcrossChunks(t *testing.T) {
	f := newFixture(t)
	orders := newOrders(t, 4, 1_000_000_000)
	initial := quote.InitialCurve(chaintest.Global(f.fee), f.creator)
	opts := DefaultOptions()
	opts.ChunkSize = 2
	opts.Curve = &initial
	opts.SequentialReserves = true

	plan, err := f.orch.BuildBuyGroups(context.Background(), NewSession(), f.mint, orders, opts)
	require.NoError(t, err)
	require.Len(t, plan.Groups, 2)
	first := buyArgs(t, plan.Groups[0].Instructions)
	second := buyArgs(t, plan.Groups[1].Instructions)
	assert.Greater(t, first[1].Amount, second[0].Amount)
	// projected curve: only the global config is read
	assert.Equal(t, 1, f.chain.Calls("getAccountInfo"))
}

func TestBuildBuyGroups_RegistryIdempotence(t *testing.T) {
	f := newFixture(t)
	orders := newOrders(t, 8, 50_000_000)
	sess := NewSession()

	first, err := f.orch.BuildBuyGroups(context.Background(), sess, f.mint, orders[:6], DefaultOptions())
	require.NoError(t, err)
	second, err := f.orch.BuildBuyGroups(context.Background(), sess, f.mint, orders[3:], DefaultOptions())
	require.NoError(t, err)

	seen := map[solana.PublicKey]int{}
	for _, plan := range []Plan{first, second} {
		for _, g := range plan.Groups {
			for _, ata := range ataCreates(g.Instructions) {
				seen[ata]++
			}
		}
	}
	assert.Len(t, seen, 8)
	for ata, n := range seen {
		assert.Equal(t, 1, n, "ata %s created %d times", ata, n)
	}
	assert.Equal(t, 8, sess.Registry().Len())

	sess.End()
	_, err = f.orch.BuildBuyGroups(context.Background(), sess, f.mint, orders, DefaultOptions())
	assert.ErrorIs(t, err, types.ErrInvalidInput)
}

func TestBuildBuyGroups_FailedBuildLeavesRegistryUnchanged(t *testing.T) {
	f := newFixture(t)
	orders := newOrders(t, 2, 1_000_000_000)
	drained := chaintest.Curve(30_000_000_000, 1_000_000_000_000, f.creator)
	drained.RealTokenReserves = 1_000
	opts := DefaultOptions()
	opts.Curve = &drained
	opts.SequentialReserves = true
	sess := NewSession()

	// the first buy takes every real token, the second quotes zero
	_, err := f.orch.BuildBuyGroups(context.Background(), sess, f.mint, orders, opts)
	require.Error(t, err)
	assert.Equal(t, 0, sess.Registry().Len())

	plan, err := f.orch.BuildBuyGroups(context.Background(), sess, f.mint, orders[:1], opts)
	require.NoError(t, err)
	require.Len(t, plan.Groups, 1)
	want, err := autofill.FindATA(orders[0].Signer.PublicKey(), f.mint, constants.TokenProgramID)
	require.NoError(t, err)
	assert.Equal(t, []solana.PublicKey{want}, ataCreates(plan.Groups[0].Instructions))
	assert.Equal(t, 1, sess.Registry().Len())
}

func TestBuildBuyGroups_DuplicateWalletInChunk(t *testing.T) {
	f := newFixture(t)
	orders := newOrders(t, 1, 50_000_000)
	orders = append(orders, orders[0])

	plan, err := f.orch.BuildBuyGroups(context.Background(), NewSession(), f.mint, orders, DefaultOptions())
	require.NoError(t, err)
	assert.Len(t, ataCreates(plan.Groups[0].Instructions), 1)
	assert.Len(t, plan.Groups[0].Signers, 1)
}

func TestBuildBuyGroups_ExistingATAsAndProbeFailure(t *testing.T) {
	f := newFixture(t)
	orders := newOrders(t, 2, 50_000_000)
	ata, err := autofill.FindATA(orders[1].Signer.PublicKey(), f.mint, constants.TokenProgramID)
	require.NoError(t, err)
	f.chain.Set(ata, constants.TokenProgramID, make([]byte, 165))

	plan, err := f.orch.BuildBuyGroups(context.Background(), NewSession(), f.mint, orders, DefaultOptions())
	require.NoError(t, err)
	assert.Len(t, ataCreates(plan.Groups[0].Instructions), 1)

	// a failed probe means "missing"
	f.chain.MultiErr = errors.New("rpc down")
	plan, err = f.orch.BuildBuyGroups(context.Background(), NewSession(), f.mint, orders, DefaultOptions())
	require.NoError(t, err)
	assert.Len(t, ataCreates(plan.Groups[0].Instructions), 2)
}

func TestBuildBuyGroups_Errors(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	orders := newOrders(t, 2, 50_000_000)

	_, err := f.orch.BuildBuyGroups(ctx, NewSession(), f.mint, nil, DefaultOptions())
	assert.ErrorIs(t, err, types.ErrInvalidInput)

	bad := append([]Order{}, orders...)
	bad[1].Amount = 0
	_, err = f.orch.BuildBuyGroups(ctx, NewSession(), f.mint, bad, DefaultOptions())
	assert.ErrorIs(t, err, types.ErrInvalidInput)

	bad[1] = Order{Amount: 1}
	_, err = f.orch.BuildBuyGroups(ctx, NewSession(), f.mint, bad, DefaultOptions())
	assert.ErrorIs(t, err, types.ErrInvalidInput)

	opts := DefaultOptions()
	opts.LookupTable = solana.NewWallet().PublicKey()
	_, err = f.orch.BuildBuyGroups(ctx, NewSession(), f.mint, orders, opts)
	assert.ErrorIs(t, err, types.ErrLookupTableUnavailable)

	_, err = f.orch.BuildBuyGroups(ctx, NewSession(), solana.NewWallet().PublicKey(), orders, DefaultOptions())
	assert.ErrorIs(t, err, types.ErrCurveNotFound)

	closed := chaintest.Curve(30_000_000_000, 1_000_000_000_000, f.creator)
	closed.Complete = true
	f.chain.SetCurve(f.mint, closed)
	_, err = f.orch.BuildBuyGroups(ctx, NewSession(), f.mint, orders, DefaultOptions())
	assert.ErrorIs(t, err, types.ErrCurveClosed)
}

func TestBuildSellGroups(t *testing.T) {
	f := newFixture(t)
	orders := newOrders(t, 6, 1_000_000_000)

	plan, err := f.orch.BuildSellGroups(context.Background(), NewSession(), f.mint, orders, DefaultOptions())
	require.NoError(t, err)
	require.Len(t, plan.Groups, 2)
	for _, g := range plan.Groups {
		assert.Empty(t, ataCreates(g.Instructions))
		assert.Len(t, g.Instructions, len(g.Orders))
	}

	curve := chaintest.Curve(30_000_000_000, 1_000_000_000_000, f.creator)
	out, err := quote.QuoteSell(curve, 1_000_000_000, 100)
	require.NoError(t, err)
	data, err := plan.Groups[0].Instructions[0].Data()
	require.NoError(t, err)
	assert.Equal(t, uint64(1_000_000_000), binary.LittleEndian.Uint64(data[8:16]))
	assert.Equal(t, quote.WithSlippage(out, DefaultSlippageBps, quote.Sell), binary.LittleEndian.Uint64(data[16:24]))
}

func TestBuildATAGroups(t *testing.T) {
	f := newFixture(t)
	payer, err := wallet.NewRandomLocal()
	require.NoError(t, err)
	owners := make([]solana.PublicKey, 26)
	for i := range owners {
		owners[i] = solana.NewWallet().PublicKey()
	}
	for _, owner := range owners[:2] {
		ata, err := autofill.FindATA(owner, f.mint, constants.TokenProgramID)
		require.NoError(t, err)
		f.chain.Set(ata, constants.TokenProgramID, make([]byte, 165))
	}
	sess := NewSession()

	plan, err := f.orch.BuildATAGroups(context.Background(), sess, f.mint, owners, payer, DefaultOptions())
	require.NoError(t, err)
	require.Len(t, plan.Groups, 3)
	assert.Len(t, plan.Groups[0].Instructions, 10)
	assert.Len(t, plan.Groups[1].Instructions, 12)
	assert.Len(t, plan.Groups[2].Instructions, 2)

	again, err := f.orch.BuildATAGroups(context.Background(), sess, f.mint, owners, payer, DefaultOptions())
	require.NoError(t, err)
	assert.Empty(t, again.Groups)
}

func encodeTable(authority solana.PublicKey, addrs []solana.PublicKey) []byte {
	data := make([]byte, 56, 56+32*len(addrs))
	binary.LittleEndian.PutUint32(data[0:4], 1)
	binary.LittleEndian.PutUint64(data[4:12], math.MaxUint64)
	data[21] = 1
	copy(data[22:54], authority[:])
	for _, a := range addrs {
		data = append(data, a[:]...)
	}
	return data
}

func TestPlanCompile(t *testing.T) {
	f := newFixture(t)
	orders := newOrders(t, 4, 50_000_000)
	payer := orders[0].Signer
	builder := txbuilder.NewBuilder(f.chain, "")

	opts := DefaultOptions()
	opts.ChunkSize = 2
	plan, err := f.orch.BuildBuyGroups(context.Background(), NewSession(), f.mint, orders, opts)
	require.NoError(t, err)

	txs, err := plan.Compile(context.Background(), builder, payer)
	require.NoError(t, err)
	require.Len(t, txs, 2)
	for _, tx := range txs {
		assert.Equal(t, f.chain.Blockhash, tx.Message.RecentBlockhash)
		assert.NoError(t, tx.VerifySignatures())
	}
}

func TestPlanSplit_CompilesEachPartFresh(t *testing.T) {
	f := newFixture(t)
	orders := newOrders(t, 5, 50_000_000)
	payer := orders[0].Signer
	builder := txbuilder.NewBuilder(f.chain, "")

	opts := DefaultOptions()
	opts.ChunkSize = 1
	plan, err := f.orch.BuildBuyGroups(context.Background(), NewSession(), f.mint, orders, opts)
	require.NoError(t, err)
	plan.LookupTables = map[solana.PublicKey]solana.PublicKeySlice{}

	parts := plan.Split(4)
	require.Len(t, parts, 2)
	assert.Len(t, parts[0].Groups, 4)
	assert.Len(t, parts[1].Groups, 1)
	assert.Equal(t, 4, parts[1].Groups[0].Index)
	for _, part := range parts {
		assert.NotNil(t, part.LookupTables)
	}

	first, err := parts[0].Compile(context.Background(), builder, payer)
	require.NoError(t, err)
	stale := f.chain.Blockhash
	f.chain.Blockhash = solana.HashFromBytes(solana.NewWallet().PublicKey().Bytes())
	second, err := parts[1].Compile(context.Background(), builder, payer)
	require.NoError(t, err)

	for _, tx := range first {
		assert.Equal(t, stale, tx.Message.RecentBlockhash)
	}
	require.Len(t, second, 1)
	assert.Equal(t, f.chain.Blockhash, second[0].Message.RecentBlockhash)
	assert.NoError(t, second[0].VerifySignatures())
	assert.Empty(t, Plan{}.Split(4))
}

func TestPlanCompile_WithLookupTable(t *testing.T) {
	f := newFixture(t)
	orders := newOrders(t, 5, 50_000_000)
	wallets := make([]solana.PublicKey, len(orders))
	for i, o := range orders {
		wallets[i] = o.Signer.PublicKey()
	}
	addrs, err := lut.CollectAddresses(f.mint, f.creator, f.fee, wallets)
	require.NoError(t, err)
	table := solana.NewWallet().PublicKey()
	f.chain.Set(table, constants.AddressLookupTableProgram, encodeTable(orders[0].Signer.PublicKey(), addrs))

	opts := DefaultOptions()
	opts.LookupTable = table
	plan, err := f.orch.BuildBuyGroups(context.Background(), NewSession(), f.mint, orders, opts)
	require.NoError(t, err)
	require.Contains(t, plan.LookupTables, table)

	txs, err := plan.Compile(context.Background(), txbuilder.NewBuilder(f.chain, ""), orders[0].Signer)
	require.NoError(t, err)
	require.Len(t, txs, 1)
	assert.True(t, txs[0].Message.IsVersioned())
	assert.NoError(t, txs[0].VerifySignatures())
}

func TestParseInput(t *testing.T) {
	w := solana.NewWallet()
	in := `[{"wallet":"` + w.PrivateKey.String() + `","amount":0.25},{"wallet":"` + w.PrivateKey.String() + `","amount":"1.5"}]`

	orders, err := ParseInput(strings.NewReader(in), BuyDecimals)
	require.NoError(t, err)
	require.Len(t, orders, 2)
	assert.Equal(t, uint64(250_000_000), orders[0].Amount)
	assert.Equal(t, uint64(1_500_000_000), orders[1].Amount)
	assert.Equal(t, w.PublicKey(), orders[0].Signer.PublicKey())

	for name, bad := range map[string]string{
		"negative":   `[{"wallet":"` + w.PrivateKey.String() + `","amount":-1}]`,
		"fractional": `[{"wallet":"` + w.PrivateKey.String() + `","amount":0.0000001}]`,
		"wallet":     `[{"wallet":"0OIl","amount":1}]`,
	} {
		_, err := ParseInput(strings.NewReader(bad), SellDecimals)
		assert.ErrorIs(t, err, types.ErrInvalidInput, name)
	}
	_, err = ParseInput(strings.NewReader(`{`), BuyDecimals)
	assert.Error(t, err)
}

func TestBaseUnits(t *testing.T) {
	n, err := ToBaseUnits(decimal.RequireFromString("12.345678"), SellDecimals)
	require.NoError(t, err)
	assert.Equal(t, uint64(12_345_678), n)
	assert.Equal(t, "12.345678", FromBaseUnits(n, SellDecimals).String())

	_, err = ToBaseUnits(decimal.RequireFromString("99999999999999999999"), BuyDecimals)
	assert.ErrorIs(t, err, types.ErrInvalidInput)
}

func TestBuildLaunch(t *testing.T) {
	f := newFixture(t)
	creator := newOrders(t, 1, 0)[0].Signer
	mintKey := solana.NewWallet().PrivateKey
	orders := newOrders(t, 7, 500_000_000)
	const devBuy = 1_000_000_000

	plan, err := f.orch.BuildLaunch(context.Background(), NewSession(), Launch{
		Creator: creator,
		MintKey: mintKey,
		Name:    "Launch",
		Symbol:  "LCH",
		URI:     "https://ipfs.io/ipfs/Qm",
		DevBuy:  devBuy,
		Orders:  orders,
	}, DefaultOptions())
	require.NoError(t, err)
	assert.Equal(t, mintKey.PublicKey(), plan.Mint)
	require.Len(t, plan.Groups, 3)
	for i, g := range plan.Groups {
		assert.Equal(t, i, g.Index)
	}

	create := plan.Groups[0]
	require.Len(t, create.Instructions, 3)
	assert.Equal(t, pump.ProgramKey, create.Instructions[0].ProgramID())
	assert.Equal(t, constants.AssociatedTokenProgramID, create.Instructions[1].ProgramID())
	assert.Equal(t, []solana.PublicKey{creator.PublicKey(), plan.Mint}, wallet.PublicKeys(create.Signers))

	// every buy is priced after the previous one, starting from the projected curve
	curve := quote.InitialCurve(chaintest.Global(f.fee), creator.PublicKey())
	price := func(amount uint64) pump.BuyArgs {
		tokens, next, err := quote.SimulateBuy(curve, amount)
		require.NoError(t, err)
		curve = next
		return pump.BuyArgs{
			Amount:     quote.WithSlippage(tokens, DefaultHaircutBps, quote.Sell),
			MaxSolCost: quote.WithSlippage(amount, DefaultSlippageBps, quote.Buy),
		}
	}
	assert.Equal(t, []pump.BuyArgs{price(devBuy)}, buyArgs(t, create.Instructions[1:]))
	var got []pump.BuyArgs
	for _, g := range plan.Groups[1:] {
		got = append(got, buyArgs(t, g.Instructions)...)
	}
	require.Len(t, got, len(orders))
	for i, o := range orders {
		assert.Equal(t, price(o.Amount), got[i], "order %d", i)
	}

	// the mint does not exist yet: no curve read, only the global config
	assert.Equal(t, 1, f.chain.Calls("getAccountInfo"))
}

func TestBuildLaunch_FailedBuildLeavesRegistryUnchanged(t *testing.T) {
	f := newFixture(t)
	creator := newOrders(t, 1, 0)[0].Signer
	orders := newOrders(t, 2, 500_000_000)
	orders[1].Amount = 0
	launch := Launch{
		Creator: creator,
		MintKey: solana.NewWallet().PrivateKey,
		Name:    "Retry",
		Symbol:  "RTY",
		URI:     "https://ipfs.io/ipfs/Qm",
		DevBuy:  1_000_000_000,
		Orders:  orders,
	}
	sess := NewSession()

	_, err := f.orch.BuildLaunch(context.Background(), sess, launch, DefaultOptions())
	assert.ErrorIs(t, err, types.ErrInvalidInput)
	assert.Equal(t, 0, sess.Registry().Len())

	launch.Orders = orders[:1]
	plan, err := f.orch.BuildLaunch(context.Background(), sess, launch, DefaultOptions())
	require.NoError(t, err)
	require.Len(t, plan.Groups, 2)
	assert.Len(t, ataCreates(plan.Groups[0].Instructions), 1)
	assert.Len(t, ataCreates(plan.Groups[1].Instructions), 1)
	assert.Equal(t, 2, sess.Registry().Len())
}

func TestBuildLaunch_GeneratesMintWithoutBuys(t *testing.T) {
	f := newFixture(t)
	creator := newOrders(t, 1, 0)[0].Signer

	plan, err := f.orch.BuildLaunch(context.Background(), NewSession(), Launch{
		Creator: creator,
		Name:    "Solo",
		Symbol:  "SOLO",
		URI:     "https://ipfs.io/ipfs/Qm",
	}, DefaultOptions())
	require.NoError(t, err)
	require.Len(t, plan.Groups, 1)
	require.Len(t, plan.Groups[0].Instructions, 1)
	assert.Len(t, plan.MintKey, 64)
	assert.Equal(t, plan.MintKey.PublicKey(), plan.Mint)

	_, err = f.orch.BuildLaunch(context.Background(), NewSession(), Launch{Name: "x", Symbol: "x", URI: "x"}, DefaultOptions())
	assert.ErrorIs(t, err, types.ErrNilSigner)

	_, err = f.orch.BuildLaunch(context.Background(), NewSession(), Launch{Creator: creator, Symbol: "x", URI: "x"}, DefaultOptions())
	assert.ErrorIs(t, err, types.ErrInvalidInput)
}
