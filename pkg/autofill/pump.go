package autofill

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/gagliardetto/solana-go"

	"github.com/ninja0404/pump-bundler/pkg/constants"
	"github.com/ninja0404/pump-bundler/pkg/program/pump"
	"github.com/ninja0404/pump-bundler/pkg/quote"
	"github.com/ninja0404/pump-bundler/pkg/types"
	"github.com/ninja0404/pump-bundler/pkg/vanity"
)

// Market is the on-chain state a trade on one mint depends on, read in a
// single batched request.
type Market struct {
	Global       pump.Global
	Curve        pump.BondingCurve
	CurveAddress solana.PublicKey
	TokenProgram solana.PublicKey
}

// LoadMarket reads the global config, the mint and its bonding curve.
func LoadMarket(ctx context.Context, reader AccountReader, mint solana.PublicKey) (Market, error) {
	if reader == nil {
		return Market{}, types.ErrNilRPC
	}
	globalAddr, err := quote.GlobalAddress()
	if err != nil {
		return Market{}, err
	}
	curveAddr, err := quote.CurveAddress(mint)
	if err != nil {
		return Market{}, err
	}

	amap, err := fetchAccountsBatch(ctx, reader, globalAddr, mint, curveAddr)
	if err != nil {
		return Market{}, fmt.Errorf("load market %s: %w", mint, err)
	}

	market := Market{CurveAddress: curveAddr}

	globalAcc := amap[globalAddr]
	if globalAcc == nil || globalAcc.Data == nil {
		return Market{}, types.ErrGlobalConfigNotFound
	}
	if market.Global, err = quote.DecodeGlobal(globalAcc.Data.GetBinary()); err != nil {
		return Market{}, err
	}

	// identify token program from mint owner
	mintAcc := amap[mint]
	if mintAcc == nil {
		return Market{}, fmt.Errorf("%w: %s", types.ErrMintNotFound, mint)
	}
	market.TokenProgram = mintAcc.Owner

	curveAcc := amap[curveAddr]
	if curveAcc == nil || curveAcc.Data == nil {
		return Market{}, fmt.Errorf("%w: mint %s", types.ErrCurveNotFound, mint)
	}
	if market.Curve, err = quote.DecodeCurve(curveAcc.Data.GetBinary()); err != nil {
		return Market{}, err
	}
	return market, nil
}

// CreatorVault derives the vault collecting creator fees for creator.
func CreatorVault(creator solana.PublicKey) (solana.PublicKey, error) {
	pk, _, err := solana.FindProgramAddress([][]byte{[]byte(constants.SeedCreatorVault), creator[:]}, pump.ProgramKey)
	if err != nil {
		return solana.PublicKey{}, fmt.Errorf("derive creator vault for %s: %w", creator, err)
	}
	return pk, nil
}

// DeriveBuyAccounts fills every buy account from the few inputs that are not
// PDAs of the mint or the user.
func DeriveBuyAccounts(user, mint, feeRecipient, creator, tokenProgram solana.PublicKey) (pump.BuyAccounts, error) {
	if isZeroPK(tokenProgram) {
		tokenProgram = constants.TokenProgramID
	}
	accts := pump.BuyAccounts{
		FeeRecipient:  feeRecipient,
		Mint:          mint,
		User:          user,
		SystemProgram: constants.SystemProgramID,
		TokenProgram:  tokenProgram,
		Program:       pump.ProgramKey,
		FeeProgram:    constants.PumpFeeProgramID,
	}
	// PDAs (non-account dependent)
	if pk, _, err := pump.DeriveBuyGlobalPDA(accts, pump.BuyArgs{}); err == nil {
		accts.Global = pk
	}
	if pk, _, err := pump.DeriveBuyBondingCurvePDA(accts, pump.BuyArgs{}); err == nil {
		accts.BondingCurve = pk
	}
	if pk, _, err := pump.DeriveBuyEventAuthorityPDA(accts, pump.BuyArgs{}); err == nil {
		accts.EventAuthority = pk
	}
	if pk, _, err := pump.DeriveBuyGlobalVolumeAccumulatorPDA(accts, pump.BuyArgs{}); err == nil {
		accts.GlobalVolumeAccumulator = pk
	}
	if pk, _, err := pump.DeriveBuyUserVolumeAccumulatorPDA(accts, pump.BuyArgs{}); err == nil {
		accts.UserVolumeAccumulator = pk
	}
	if pk, _, err := pump.DeriveBuyFeeConfigPDA(accts, pump.BuyArgs{}); err == nil {
		accts.FeeConfig = pk
	}

	var err error
	if accts.AssociatedUser, err = FindATA(user, mint, tokenProgram); err != nil {
		return accts, err
	}
	if accts.AssociatedBondingCurve, err = FindATA(accts.BondingCurve, mint, tokenProgram); err != nil {
		return accts, err
	}
	if accts.CreatorVault, err = CreatorVault(creator); err != nil {
		return accts, err
	}
	return accts, nil
}

// DeriveSellAccounts is the sell counterpart of DeriveBuyAccounts.
func DeriveSellAccounts(user, mint, feeRecipient, creator, tokenProgram solana.PublicKey) (pump.SellAccounts, error) {
	if isZeroPK(tokenProgram) {
		tokenProgram = constants.TokenProgramID
	}
	accts := pump.SellAccounts{
		FeeRecipient:  feeRecipient,
		Mint:          mint,
		User:          user,
		SystemProgram: constants.SystemProgramID,
		TokenProgram:  tokenProgram,
		Program:       pump.ProgramKey,
		FeeProgram:    constants.PumpFeeProgramID,
	}
	if pk, _, err := pump.DeriveSellGlobalPDA(accts, pump.SellArgs{}); err == nil {
		accts.Global = pk
	}
	if pk, _, err := pump.DeriveSellBondingCurvePDA(accts, pump.SellArgs{}); err == nil {
		accts.BondingCurve = pk
	}
	if pk, _, err := pump.DeriveSellEventAuthorityPDA(accts, pump.SellArgs{}); err == nil {
		accts.EventAuthority = pk
	}
	if pk, _, err := pump.DeriveSellFeeConfigPDA(accts, pump.SellArgs{}); err == nil {
		accts.FeeConfig = pk
	}

	var err error
	if accts.AssociatedUser, err = FindATA(user, mint, tokenProgram); err != nil {
		return accts, err
	}
	if accts.AssociatedBondingCurve, err = FindATA(accts.BondingCurve, mint, tokenProgram); err != nil {
		return accts, err
	}
	if accts.CreatorVault, err = CreatorVault(creator); err != nil {
		return accts, err
	}
	return accts, nil
}

// BuyParams are the explicit inputs of a buy instruction set.
type BuyParams struct {
	User         solana.PublicKey
	Mint         solana.PublicKey
	FeeRecipient solana.PublicKey
	Creator      solana.PublicKey
	TokenProgram solana.PublicKey

	// Amount is the token amount to buy; MaxSolCost bounds the lamports spent.
	Amount     uint64
	MaxSolCost uint64

	// CreateATA prepends creation of the user ATA, paid by ATAPayer (default User).
	CreateATA   bool
	ATAPayer    solana.PublicKey
	TrackVolume bool
}

// BuyInstructions builds [createATA?] → buy without touching the network.
func BuyInstructions(p BuyParams) (pump.BuyAccounts, pump.BuyArgs, []solana.Instruction, error) {
	if err := types.ValidatePublicKeys(map[string]solana.PublicKey{
		"user":         p.User,
		"mint":         p.Mint,
		"feeRecipient": p.FeeRecipient,
		"creator":      p.Creator,
	}); err != nil {
		return pump.BuyAccounts{}, pump.BuyArgs{}, nil, err
	}
	if err := types.ValidateBuyParams(p.Amount, p.MaxSolCost); err != nil {
		return pump.BuyAccounts{}, pump.BuyArgs{}, nil, err
	}

	accts, err := DeriveBuyAccounts(p.User, p.Mint, p.FeeRecipient, p.Creator, p.TokenProgram)
	if err != nil {
		return pump.BuyAccounts{}, pump.BuyArgs{}, nil, err
	}
	args := pump.BuyArgs{
		Amount:      p.Amount,
		MaxSolCost:  p.MaxSolCost,
		TrackVolume: pump.OptionBool{Field0: p.TrackVolume},
	}

	instrs := make([]solana.Instruction, 0, 2)
	if p.CreateATA {
		payer := p.ATAPayer
		if isZeroPK(payer) {
			payer = p.User
		}
		ix, err := CreateATAInstruction(payer, p.User, p.Mint, accts.TokenProgram)
		if err != nil {
			return pump.BuyAccounts{}, pump.BuyArgs{}, nil, err
		}
		instrs = append(instrs, ix)
	}

	ix, err := pump.BuildBuy(accts, args)
	if err != nil {
		return pump.BuyAccounts{}, pump.BuyArgs{}, nil, err
	}
	return accts, args, append(instrs, ix), nil
}

// SellParams are the explicit inputs of a sell instruction.
type SellParams struct {
	User         solana.PublicKey
	Mint         solana.PublicKey
	FeeRecipient solana.PublicKey
	Creator      solana.PublicKey
	TokenProgram solana.PublicKey

	Amount       uint64
	MinSolOutput uint64
}

// SellInstructions builds the sell instruction without touching the network.
// Selling never creates an ATA.
func SellInstructions(p SellParams) (pump.SellAccounts, pump.SellArgs, []solana.Instruction, error) {
	if err := types.ValidatePublicKeys(map[string]solana.PublicKey{
		"user":         p.User,
		"mint":         p.Mint,
		"feeRecipient": p.FeeRecipient,
		"creator":      p.Creator,
	}); err != nil {
		return pump.SellAccounts{}, pump.SellArgs{}, nil, err
	}
	if err := types.ValidateSellParams(p.Amount); err != nil {
		return pump.SellAccounts{}, pump.SellArgs{}, nil, err
	}

	accts, err := DeriveSellAccounts(p.User, p.Mint, p.FeeRecipient, p.Creator, p.TokenProgram)
	if err != nil {
		return pump.SellAccounts{}, pump.SellArgs{}, nil, err
	}
	args := pump.SellArgs{
		Amount:       p.Amount,
		MinSolOutput: p.MinSolOutput,
	}
	ix, err := pump.BuildSell(accts, args)
	if err != nil {
		return pump.SellAccounts{}, pump.SellArgs{}, nil, err
	}
	return accts, args, []solana.Instruction{ix}, nil
}

// Buy constructs a pump buy spending solIn lamports, with auto-filled accounts.
//
// It reads the global config, mint and curve once, quotes the token amount,
// bounds the cost by slippageBps and probes the user ATA. The result is
// [createATA?] → buy (→ tip transfer when WithJitoTip is set).
//
// Example:
//
//	accts, args, instrs, err := autofill.Buy(ctx, rpc, user, mint, 100_000_000, 500)
func Buy(ctx context.Context, reader AccountReader, user, mint solana.PublicKey, solIn, slippageBps uint64, opts ...Option) (pump.BuyAccounts, pump.BuyArgs, []solana.Instruction, error) {
	// Input validation
	if reader == nil {
		return pump.BuyAccounts{}, pump.BuyArgs{}, nil, types.ErrNilRPC
	}
	if err := types.ValidatePublicKey("user", user); err != nil {
		return pump.BuyAccounts{}, pump.BuyArgs{}, nil, err
	}
	if err := types.ValidatePublicKey("mint", mint); err != nil {
		return pump.BuyAccounts{}, pump.BuyArgs{}, nil, err
	}
	if err := types.ValidateAmount("solIn", solIn); err != nil {
		return pump.BuyAccounts{}, pump.BuyArgs{}, nil, err
	}
	if err := types.ValidateSlippage(slippageBps); err != nil {
		return pump.BuyAccounts{}, pump.BuyArgs{}, nil, err
	}

	options := newOptions(opts)

	market, err := LoadMarket(ctx, reader, mint)
	if err != nil {
		return pump.BuyAccounts{}, pump.BuyArgs{}, nil, err
	}
	tokenProgram := market.TokenProgram
	if !isZeroPK(options.TokenProgram) {
		tokenProgram = options.TokenProgram
	}

	q, err := quote.BuyQuote(market.Curve, solIn, market.Global.FeeBasisPoints, slippageBps)
	if err != nil {
		return pump.BuyAccounts{}, pump.BuyArgs{}, nil, err
	}

	ata, err := FindATA(user, mint, tokenProgram)
	if err != nil {
		return pump.BuyAccounts{}, pump.BuyArgs{}, nil, err
	}
	exists := knownSet(options.KnownATAs)
	if !exists[ata] {
		exists = ProbeATAs(ctx, reader, options.Logger, ata)
	}

	accts, args, instrs, err := BuyInstructions(BuyParams{
		User:         user,
		Mint:         mint,
		FeeRecipient: market.Global.FeeRecipient,
		Creator:      market.Curve.Creator,
		TokenProgram: tokenProgram,
		Amount:       q.AmountOut,
		MaxSolCost:   q.Limit,
		CreateATA:    !exists[ata],
		ATAPayer:     options.ATAPayer,
		TrackVolume:  options.TrackVolume,
	})
	if err != nil {
		return pump.BuyAccounts{}, pump.BuyArgs{}, nil, err
	}
	if len(options.Overrides) > 0 {
		applyPubkeyOverrides(&accts, options.Overrides)
		ix, err := pump.BuildBuy(accts, args)
		if err != nil {
			return pump.BuyAccounts{}, pump.BuyArgs{}, nil, err
		}
		instrs[len(instrs)-1] = ix
	}

	// Append Jito tip if configured
	instrs = appendJitoTip(instrs, user, options)
	if options.Preview != nil {
		_ = json.NewEncoder(options.Preview).Encode(struct {
			Accounts pump.BuyAccounts `json:"accounts"`
			Args     pump.BuyArgs     `json:"args"`
		}{accts, args})
	}
	return accts, args, instrs, nil
}

// Sell constructs a pump sell of tokensIn with auto-filled accounts. The
// minimum output is the fee-adjusted quote reduced by slippageBps.
//
// Example:
//
//	// Sell 1M tokens with 1% slippage
//	accts, args, instrs, err := autofill.Sell(ctx, rpc, user, mint, 1_000_000, 100)
func Sell(ctx context.Context, reader AccountReader, user, mint solana.PublicKey, tokensIn, slippageBps uint64, opts ...Option) (pump.SellAccounts, pump.SellArgs, []solana.Instruction, error) {
	// Input validation
	if reader == nil {
		return pump.SellAccounts{}, pump.SellArgs{}, nil, types.ErrNilRPC
	}
	if err := types.ValidatePublicKey("user", user); err != nil {
		return pump.SellAccounts{}, pump.SellArgs{}, nil, err
	}
	if err := types.ValidatePublicKey("mint", mint); err != nil {
		return pump.SellAccounts{}, pump.SellArgs{}, nil, err
	}
	if err := types.ValidateAmount("tokensIn", tokensIn); err != nil {
		return pump.SellAccounts{}, pump.SellArgs{}, nil, err
	}
	if err := types.ValidateSlippage(slippageBps); err != nil {
		return pump.SellAccounts{}, pump.SellArgs{}, nil, err
	}

	options := newOptions(opts)

	market, err := LoadMarket(ctx, reader, mint)
	if err != nil {
		return pump.SellAccounts{}, pump.SellArgs{}, nil, err
	}
	tokenProgram := market.TokenProgram
	if !isZeroPK(options.TokenProgram) {
		tokenProgram = options.TokenProgram
	}

	q, err := quote.SellQuote(market.Curve, tokensIn, market.Global.FeeBasisPoints, slippageBps)
	if err != nil {
		return pump.SellAccounts{}, pump.SellArgs{}, nil, err
	}

	accts, args, instrs, err := SellInstructions(SellParams{
		User:         user,
		Mint:         mint,
		FeeRecipient: market.Global.FeeRecipient,
		Creator:      market.Curve.Creator,
		TokenProgram: tokenProgram,
		Amount:       tokensIn,
		MinSolOutput: q.Limit,
	})
	if err != nil {
		return pump.SellAccounts{}, pump.SellArgs{}, nil, err
	}
	if len(options.Overrides) > 0 {
		applyPubkeyOverrides(&accts, options.Overrides)
		ix, err := pump.BuildSell(accts, args)
		if err != nil {
			return pump.SellAccounts{}, pump.SellArgs{}, nil, err
		}
		instrs[len(instrs)-1] = ix
	}

	// Close ATA only if explicitly requested
	if options.CloseATA {
		instrs = append(instrs, buildCloseAccount(accts.AssociatedUser, user, user, accts.TokenProgram))
	}
	// Append Jito tip if configured
	instrs = appendJitoTip(instrs, user, options)

	if options.Preview != nil {
		_ = json.NewEncoder(options.Preview).Encode(struct {
			Accounts pump.SellAccounts `json:"accounts"`
			Args     pump.SellArgs     `json:"args"`
		}{accts, args})
	}
	return accts, args, instrs, nil
}

// Create builds a pump create instruction for a fresh mint.
//
// The mint keypair is random, or vanity when WithVanityPrefix/WithVanitySuffix
// is set; it must sign the transaction alongside user. The metadata uri is
// passed through as-is.
//
// Example:
//
//	accts, args, ix, mintKey, err := autofill.Create(ctx, user, "My Token", "MTK", "https://...")
//	// Sign with both user and mintKey
func Create(ctx context.Context, user solana.PublicKey, name, symbol, uri string, opts ...Option) (pump.CreateAccounts, pump.CreateArgs, solana.Instruction, solana.PrivateKey, error) {
	if err := validateCreate(user, name, symbol, uri); err != nil {
		return pump.CreateAccounts{}, pump.CreateArgs{}, nil, nil, err
	}

	options := newOptions(opts)

	// Generate mint keypair (with optional vanity address)
	mintKey, err := generateMintKey(ctx, options)
	if err != nil {
		return pump.CreateAccounts{}, pump.CreateArgs{}, nil, nil, err
	}

	accts, args, ix, err := CreateWithMint(user, mintKey, name, symbol, uri, opts...)
	if err != nil {
		return pump.CreateAccounts{}, pump.CreateArgs{}, nil, nil, err
	}
	return accts, args, ix, mintKey, nil
}

// CreateWithMint builds a create instruction for a caller-supplied mint key.
func CreateWithMint(user solana.PublicKey, mintKey solana.PrivateKey, name, symbol, uri string, opts ...Option) (pump.CreateAccounts, pump.CreateArgs, solana.Instruction, error) {
	if err := validateCreate(user, name, symbol, uri); err != nil {
		return pump.CreateAccounts{}, pump.CreateArgs{}, nil, err
	}
	if len(mintKey) != 64 {
		return pump.CreateAccounts{}, pump.CreateArgs{}, nil, types.NewValidationError("mintKey", "must be a 64-byte private key")
	}

	options := newOptions(opts)

	mint := mintKey.PublicKey()
	accts, err := DeriveCreateAccounts(user, mint)
	if err != nil {
		return pump.CreateAccounts{}, pump.CreateArgs{}, nil, err
	}
	applyPubkeyOverrides(&accts, options.Overrides)

	// Build args (creator defaults to user)
	args := pump.CreateArgs{
		Name:    name,
		Symbol:  symbol,
		Uri:     uri,
		Creator: user,
	}

	ix, err := pump.BuildCreate(accts, args)
	if err != nil {
		return pump.CreateAccounts{}, pump.CreateArgs{}, nil, err
	}

	if options.Preview != nil {
		_ = json.NewEncoder(options.Preview).Encode(struct {
			Accounts pump.CreateAccounts `json:"accounts"`
			Args     pump.CreateArgs     `json:"args"`
			Mint     string              `json:"mint"`
		}{accts, args, mint.String()})
	}
	return accts, args, ix, nil
}

func validateCreate(user solana.PublicKey, name, symbol, uri string) error {
	if err := types.ValidatePublicKey("user", user); err != nil {
		return err
	}
	if name == "" {
		return types.NewValidationError("name", "cannot be empty")
	}
	if symbol == "" {
		return types.NewValidationError("symbol", "cannot be empty")
	}
	if uri == "" {
		return types.NewValidationError("uri", "cannot be empty")
	}
	return nil
}

// DeriveCreateAccounts auto-fills accounts for the create instruction (SPL Token).
func DeriveCreateAccounts(user, mint solana.PublicKey) (pump.CreateAccounts, error) {
	accts := pump.CreateAccounts{
		Mint:                   mint,
		User:                   user,
		SystemProgram:          constants.SystemProgramID,
		TokenProgram:           constants.TokenProgramID,
		AssociatedTokenProgram: constants.AssociatedTokenProgramID,
		Rent:                   constants.SysvarRentProgramID,
		MplTokenMetadata:       constants.MetadataProgramID,
		Program:                pump.ProgramKey,
	}

	if pk, _, err := pump.DeriveCreateMintAuthorityPDA(accts, pump.CreateArgs{}); err == nil {
		accts.MintAuthority = pk
	}
	if pk, _, err := pump.DeriveCreateBondingCurvePDA(accts, pump.CreateArgs{}); err == nil {
		accts.BondingCurve = pk
	}
	if pk, _, err := pump.DeriveCreateGlobalPDA(accts, pump.CreateArgs{}); err == nil {
		accts.Global = pk
	}
	if pk, _, err := pump.DeriveCreateEventAuthorityPDA(accts, pump.CreateArgs{}); err == nil {
		accts.EventAuthority = pk
	}

	// Derive Metadata PDA (metaplex standard)
	metadataSeeds := [][]byte{
		[]byte(constants.SeedMetadata),
		constants.MetadataProgramID[:],
		mint[:],
	}
	pk, _, err := solana.FindProgramAddress(metadataSeeds, constants.MetadataProgramID)
	if err != nil {
		return accts, fmt.Errorf("derive metadata PDA: %w", err)
	}
	accts.Metadata = pk

	if accts.AssociatedBondingCurve, err = FindATA(accts.BondingCurve, mint, constants.TokenProgramID); err != nil {
		return accts, err
	}
	return accts, nil
}

// generateMintKey generates a mint keypair with optional vanity address.
func generateMintKey(ctx context.Context, options *Options) (solana.PrivateKey, error) {
	if options.VanitySuffix != "" || options.VanityPrefix != "" {
		timeout := options.VanityTimeout
		if timeout == 0 {
			timeout = 5 * time.Minute
		}
		result, err := vanity.Generate(ctx, vanity.Options{
			Prefix:  options.VanityPrefix,
			Suffix:  options.VanitySuffix,
			Timeout: timeout,
			Logger:  options.Logger,
		})
		if err != nil {
			return nil, fmt.Errorf("generate vanity address: %w", err)
		}
		return result.PrivateKey, nil
	}
	mintKey, err := solana.NewRandomPrivateKey()
	if err != nil {
		return nil, fmt.Errorf("generate mint keypair: %w", err)
	}
	return mintKey, nil
}

func knownSet(keys []solana.PublicKey) map[solana.PublicKey]bool {
	set := make(map[solana.PublicKey]bool, len(keys))
	for _, k := range keys {
		set[k] = true
	}
	return set
}
