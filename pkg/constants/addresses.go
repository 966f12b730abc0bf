package constants

import "github.com/gagliardetto/solana-go"

// Well-known program IDs
var (
	SystemProgramID           = solana.SystemProgramID
	TokenProgramID            = solana.TokenProgramID
	AssociatedTokenProgramID  = solana.SPLAssociatedTokenAccountProgramID
	SysvarRentProgramID       = solana.SysVarRentPubkey
	ComputeBudgetProgramID    = solana.MustPublicKeyFromBase58("ComputeBudget111111111111111111111111111111")
	AddressLookupTableProgram = solana.MustPublicKeyFromBase58("AddressLookupTab1e1111111111111111111111111")
	MetadataProgramID         = solana.MustPublicKeyFromBase58("metaqbxxUerdq28cj1RbAWkYQm3ybzjb6a8bt518x1s")

	// Pump.fun bonding-curve program and its fee program
	PumpProgramID    = solana.MustPublicKeyFromBase58("6EF8rrecthR5Dkzon8Nwu78hRvfCKubJ14M5uBEwF6P")
	PumpFeeProgramID = solana.MustPublicKeyFromBase58("pfeeUxB6jkeY1Hxd7CsFCAjcbHA9rWtchMGdZ6VojVZ")
)

// Mainnet well-known pump accounts
var (
	PumpGlobal         = solana.MustPublicKeyFromBase58("4wTV1YmiEkRvAtNtsSGPtUrqRYQMe5SKy2uB4Jjaxnjf")
	PumpEventAuthority = solana.MustPublicKeyFromBase58("Ce6TQqeHC9p8KetsN6JsjHK7UTZk7nasjjnr7XxXp9F1")
)

// PDA seeds
const (
	SeedGlobal         = "global"
	SeedBondingCurve   = "bonding-curve"
	SeedCreatorVault   = "creator-vault"
	SeedMintAuthority  = "mint-authority"
	SeedEventAuthority = "__event_authority"
	SeedMetadata       = "metadata"
)

// Token and fee constants
const (
	LamportsPerSOL    uint64 = 1_000_000_000
	PumpTokenDecimals int32  = 6
	MaxBps            uint64 = 10_000

	DefaultJitoTipLamports  uint64 = 1_000_000
	DefaultTreasuryLamports uint64 = 1_000_000
	DefaultSlippageBps      uint64 = 500
)
