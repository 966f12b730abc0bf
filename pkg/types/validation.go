package types

import (
	"github.com/gagliardetto/solana-go"

	"github.com/ninja0404/pump-bundler/pkg/constants"
)

// ValidateAmount rejects a zero base-unit amount.
func ValidateAmount(field string, amount uint64) error {
	if amount == 0 {
		return NewValidationError(field, "must be greater than 0")
	}
	return nil
}

// ValidateBuyParams validates common buy parameters.
func ValidateBuyParams(amount, maxCost uint64) error {
	if err := ValidateAmount("amount", amount); err != nil {
		return err
	}
	return ValidateAmount("maxSolCost", maxCost)
}

// ValidateSellParams validates common sell parameters. A zero minimum output
// is allowed: it disables the slippage guard.
func ValidateSellParams(amount uint64) error {
	return ValidateAmount("amount", amount)
}

// ValidateSlippage validates slippage basis points.
func ValidateSlippage(slippageBps uint64) error {
	if slippageBps > constants.MaxBps {
		return NewValidationError("slippageBps", "must be <= 10000 (100%)")
	}
	return nil
}

// ValidatePublicKey validates a public key is not zero.
func ValidatePublicKey(name string, key solana.PublicKey) error {
	if key.IsZero() {
		return NewValidationError(name, "cannot be zero")
	}
	return nil
}

// ValidatePublicKeys validates multiple public keys.
func ValidatePublicKeys(keys map[string]solana.PublicKey) error {
	for name, key := range keys {
		if err := ValidatePublicKey(name, key); err != nil {
			return err
		}
	}
	return nil
}
