package autofill_test

import (
	"bytes"
	"context"
	"encoding/binary"
	"errors"
	"testing"

	"github.com/gagliardetto/solana-go"
	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/ninja0404/pump-bundler/internal/chaintest"
	"github.com/ninja0404/pump-bundler/pkg/autofill"
	"github.com/ninja0404/pump-bundler/pkg/constants"
	"github.com/ninja0404/pump-bundler/pkg/program/pump"
	"github.com/ninja0404/pump-bundler/pkg/quote"
	"github.com/ninja0404/pump-bundler/pkg/types"
)

type market struct {
	chain        *chaintest.Chain
	mint         solana.PublicKey
	creator      solana.PublicKey
	feeRecipient solana.PublicKey
	curve        pump.BondingCurve
}

func newMarket(t *testing.T) market {
	t.Helper()
	m := market{
		chain:        chaintest.New(),
		mint:         solana.NewWallet().PublicKey(),
		creator:      solana.NewWallet().PublicKey(),
		feeRecipient: solana.NewWallet().PublicKey(),
	}
	m.curve = chaintest.Curve(30_000_000_000, 1_000_000_000_000, m.creator)
	m.chain.SetGlobal(chaintest.Global(m.feeRecipient))
	m.chain.SetMint(m.mint, constants.TokenProgramID)
	m.chain.SetCurve(m.mint, m.curve)
	return m
}

func TestLoadMarket(t *testing.T) {
	m := newMarket(t)

	got, err := autofill.LoadMarket(context.Background(), m.chain, m.mint)
	require.NoError(t, err)
	assert.Equal(t, m.feeRecipient, got.Global.FeeRecipient)
	assert.Equal(t, m.creator, got.Curve.Creator)
	assert.Equal(t, constants.TokenProgramID, got.TokenProgram)
	assert.Equal(t, 1, m.chain.Calls("getMultipleAccounts"))
}

func TestLoadMarket_Missing(t *testing.T) {
	m := newMarket(t)
	curveAddr, err := quote.CurveAddress(m.mint)
	require.NoError(t, err)
	m.chain.Delete(curveAddr)

	_, err = autofill.LoadMarket(context.Background(), m.chain, m.mint)
	assert.ErrorIs(t, err, types.ErrCurveNotFound)

	m.chain.Delete(m.mint)
	_, err = autofill.LoadMarket(context.Background(), m.chain, m.mint)
	assert.ErrorIs(t, err, types.ErrMintNotFound)
}

func TestBuy_CreatesMissingATA(t *testing.T) {
	m := newMarket(t)
	user := solana.NewWallet().PublicKey()

	accts, args, instrs, err := autofill.Buy(context.Background(), m.chain, user, m.mint, 1_000_000_000, 500)
	require.NoError(t, err)
	require.Len(t, instrs, 2)
	assert.Equal(t, constants.AssociatedTokenProgramID, instrs[0].ProgramID())
	assert.Equal(t, pump.ProgramKey, instrs[1].ProgramID())

	q, err := quote.BuyQuote(m.curve, 1_000_000_000, 100, 500)
	require.NoError(t, err)
	assert.Equal(t, q.AmountOut, args.Amount)
	assert.Equal(t, q.Limit, args.MaxSolCost)
	assert.True(t, args.TrackVolume.Field0)

	assert.Equal(t, m.feeRecipient, accts.FeeRecipient)
	vault, err := autofill.CreatorVault(m.creator)
	require.NoError(t, err)
	assert.Equal(t, vault, accts.CreatorVault)
	ata, err := autofill.FindATA(user, m.mint, constants.TokenProgramID)
	require.NoError(t, err)
	assert.Equal(t, ata, accts.AssociatedUser)
}

func TestBuy_ExistingATA(t *testing.T) {
	m := newMarket(t)
	user := solana.NewWallet().PublicKey()
	ata, err := autofill.FindATA(user, m.mint, constants.TokenProgramID)
	require.NoError(t, err)
	m.chain.Set(ata, constants.TokenProgramID, make([]byte, 165))

	_, _, instrs, err := autofill.Buy(context.Background(), m.chain, user, m.mint, 1_000_000, 100)
	require.NoError(t, err)
	assert.Len(t, instrs, 1)
	assert.Equal(t, 2, m.chain.Calls("getMultipleAccounts"))
}

func TestBuy_KnownATASkipsProbe(t *testing.T) {
	m := newMarket(t)
	user := solana.NewWallet().PublicKey()
	ata, err := autofill.FindATA(user, m.mint, constants.TokenProgramID)
	require.NoError(t, err)

	_, _, instrs, err := autofill.Buy(context.Background(), m.chain, user, m.mint, 1_000_000, 100,
		autofill.WithKnownATAs(ata),
		autofill.WithTrackVolume(false),
	)
	require.NoError(t, err)
	assert.Len(t, instrs, 1)
	assert.Equal(t, 1, m.chain.Calls("getMultipleAccounts"))
}

func TestBuy_JitoTipAndPreview(t *testing.T) {
	m := newMarket(t)
	user := solana.NewWallet().PublicKey()
	tipAccount := solana.NewWallet().PublicKey()
	var preview bytes.Buffer

	_, _, instrs, err := autofill.Buy(context.Background(), m.chain, user, m.mint, 1_000_000, 100,
		autofill.WithJitoTip(10_000),
		autofill.WithJitoTipAccount(tipAccount),
		autofill.WithPreview(&preview),
	)
	require.NoError(t, err)
	require.Len(t, instrs, 3)
	last := instrs[len(instrs)-1]
	assert.Equal(t, constants.SystemProgramID, last.ProgramID())
	assert.Equal(t, tipAccount, last.Accounts()[1].PublicKey)
	assert.Contains(t, preview.String(), `"accounts"`)
}

func TestBuy_Errors(t *testing.T) {
	m := newMarket(t)
	user := solana.NewWallet().PublicKey()
	ctx := context.Background()

	_, _, _, err := autofill.Buy(ctx, nil, user, m.mint, 1, 100)
	assert.ErrorIs(t, err, types.ErrNilRPC)

	_, _, _, err = autofill.Buy(ctx, m.chain, user, m.mint, 0, 100)
	assert.ErrorIs(t, err, types.ErrInvalidInput)

	_, _, _, err = autofill.Buy(ctx, m.chain, user, m.mint, 1, 10_001)
	assert.ErrorIs(t, err, types.ErrInvalidInput)

	_, _, _, err = autofill.Buy(ctx, m.chain, solana.PublicKey{}, m.mint, 1, 100)
	assert.ErrorIs(t, err, types.ErrInvalidInput)

	closed := m.curve
	closed.Complete = true
	m.chain.SetCurve(m.mint, closed)
	_, _, _, err = autofill.Buy(ctx, m.chain, user, m.mint, 1_000, 100)
	assert.ErrorIs(t, err, types.ErrCurveClosed)

	m.chain.MultiErr = errors.New("boom")
	_, _, _, err = autofill.Buy(ctx, m.chain, user, m.mint, 1_000, 100)
	assert.Error(t, err)
}

func TestSell_CloseATA(t *testing.T) {
	m := newMarket(t)
	user := solana.NewWallet().PublicKey()

	accts, args, instrs, err := autofill.Sell(context.Background(), m.chain, user, m.mint, 1_000_000_000, 100, autofill.WithCloseATA())
	require.NoError(t, err)
	require.Len(t, instrs, 2)
	assert.Equal(t, pump.ProgramKey, instrs[0].ProgramID())
	assert.Equal(t, constants.TokenProgramID, instrs[1].ProgramID())

	q, err := quote.SellQuote(m.curve, 1_000_000_000, 100, 100)
	require.NoError(t, err)
	assert.Equal(t, uint64(1_000_000_000), args.Amount)
	assert.Equal(t, q.Limit, args.MinSolOutput)
	assert.Equal(t, accts.AssociatedUser, instrs[1].Accounts()[0].PublicKey)
}

func TestSell_Overrides(t *testing.T) {
	m := newMarket(t)
	user := solana.NewWallet().PublicKey()
	custom := solana.NewWallet().PublicKey()

	accts, _, instrs, err := autofill.Sell(context.Background(), m.chain, user, m.mint, 1_000, 100,
		autofill.WithOverrides(map[string]solana.PublicKey{"fee_recipient": custom}),
	)
	require.NoError(t, err)
	assert.Equal(t, custom, accts.FeeRecipient)
	assert.Equal(t, custom, instrs[0].Accounts()[1].PublicKey)
}

func TestBuyInstructions_Pure(t *testing.T) {
	user := solana.NewWallet().PublicKey()
	payer := solana.NewWallet().PublicKey()
	p := autofill.BuyParams{
		User:         user,
		Mint:         solana.NewWallet().PublicKey(),
		FeeRecipient: solana.NewWallet().PublicKey(),
		Creator:      solana.NewWallet().PublicKey(),
		Amount:       1_000,
		MaxSolCost:   2_000,
		CreateATA:    true,
		ATAPayer:     payer,
	}

	accts, _, instrs, err := autofill.BuyInstructions(p)
	require.NoError(t, err)
	require.Len(t, instrs, 2)
	assert.Equal(t, payer, instrs[0].Accounts()[0].PublicKey)
	assert.Equal(t, constants.TokenProgramID, accts.TokenProgram)
	assert.Equal(t, constants.PumpFeeProgramID, accts.FeeProgram)

	p.MaxSolCost = 0
	_, _, _, err = autofill.BuyInstructions(p)
	assert.ErrorIs(t, err, types.ErrInvalidInput)
}

func TestCreateWithMint(t *testing.T) {
	user := solana.NewWallet().PublicKey()
	mintKey := solana.NewWallet().PrivateKey

	accts, args, ix, err := autofill.CreateWithMint(user, mintKey, "Token", "TKN", "https://example.com/meta.json")
	require.NoError(t, err)
	assert.Equal(t, mintKey.PublicKey(), accts.Mint)
	assert.Equal(t, user, args.Creator)
	assert.Equal(t, constants.MetadataProgramID, accts.MplTokenMetadata)
	assert.Equal(t, pump.ProgramKey, ix.ProgramID())

	metas := ix.Accounts()
	assert.True(t, metas[0].IsSigner)
	assert.Equal(t, accts.Mint, metas[0].PublicKey)

	_, _, _, err = autofill.CreateWithMint(user, mintKey, "", "TKN", "uri")
	assert.ErrorIs(t, err, types.ErrInvalidInput)
	_, _, _, err = autofill.CreateWithMint(user, nil, "Token", "TKN", "uri")
	assert.ErrorIs(t, err, types.ErrInvalidInput)
}

func TestCreate_RandomMint(t *testing.T) {
	user := solana.NewWallet().PublicKey()
	accts, _, _, mintKey, err := autofill.Create(context.Background(), user, "Token", "TKN", "uri")
	require.NoError(t, err)
	assert.Equal(t, mintKey.PublicKey(), accts.Mint)
}

func TestProbeATAs(t *testing.T) {
	chain := chaintest.New()
	a, b := solana.NewWallet().PublicKey(), solana.NewWallet().PublicKey()
	chain.Set(a, constants.TokenProgramID, make([]byte, 165))

	exists := autofill.ProbeATAs(context.Background(), chain, zerolog.Nop(), a, b)
	assert.True(t, exists[a])
	assert.False(t, exists[b])

	chain.MultiErr = errors.New("down")
	exists = autofill.ProbeATAs(context.Background(), chain, zerolog.Nop(), a, b)
	assert.Empty(t, exists)
}

func tokenAccount(mint, owner solana.PublicKey, amount uint64) []byte {
	data := make([]byte, 165)
	copy(data[0:32], mint[:])
	copy(data[32:64], owner[:])
	binary.LittleEndian.PutUint64(data[64:72], amount)
	data[108] = 1 // initialized
	return data
}

func TestTokenBalances(t *testing.T) {
	chain := chaintest.New()
	mint := solana.NewWallet().PublicKey()
	a, b := solana.NewWallet().PublicKey(), solana.NewWallet().PublicKey()
	chain.Set(a, constants.TokenProgramID, tokenAccount(mint, solana.NewWallet().PublicKey(), 1_234_567))

	balances, err := autofill.TokenBalances(context.Background(), chain, a, b)
	require.NoError(t, err)
	assert.Equal(t, uint64(1_234_567), balances[a])
	assert.Zero(t, balances[b])

	empty, err := autofill.TokenBalances(context.Background(), chain)
	require.NoError(t, err)
	assert.Empty(t, empty)
}
