package batch

import (
	"encoding/json"
	"fmt"
	"io"
	"math/big"
	"os"

	"github.com/shopspring/decimal"

	"github.com/ninja0404/pump-bundler/pkg/constants"
	"github.com/ninja0404/pump-bundler/pkg/types"
	"github.com/ninja0404/pump-bundler/pkg/wallet"
)

// Decimals of the whole units batch input amounts are written in.
const (
	BuyDecimals  int32 = 9 // SOL
	SellDecimals       = constants.PumpTokenDecimals
)

// InputRecord is one entry of a batch input file:
//
//	[{"wallet": "<base58 secret key>", "amount": 0.25}, ...]
type InputRecord struct {
	Wallet string          `json:"wallet"`
	Amount decimal.Decimal `json:"amount"`
}

// LoadInput reads a batch input file. See ParseInput.
func LoadInput(path string, decimals int32) ([]Order, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("open batch input: %w", err)
	}
	defer f.Close()
	return ParseInput(f, decimals)
}

// ParseInput decodes batch input records and converts each whole-unit amount
// to base units (amount × 10^decimals). Negative amounts, amounts with more
// precision than the base unit, and malformed secrets are rejected.
func ParseInput(r io.Reader, decimals int32) ([]Order, error) {
	var records []InputRecord
	if err := json.NewDecoder(r).Decode(&records); err != nil {
		return nil, fmt.Errorf("decode batch input: %w", err)
	}
	orders := make([]Order, 0, len(records))
	for i, rec := range records {
		amount, err := ToBaseUnits(rec.Amount, decimals)
		if err != nil {
			return nil, fmt.Errorf("record %d: %w", i, err)
		}
		signer, err := wallet.NewLocalFromBase58(rec.Wallet)
		if err != nil {
			return nil, fmt.Errorf("record %d: %w", i, types.NewValidationError("wallet", err.Error()))
		}
		orders = append(orders, Order{Signer: signer, Amount: amount})
	}
	return orders, nil
}

// ToBaseUnits converts a whole-unit decimal to base units.
func ToBaseUnits(amount decimal.Decimal, decimals int32) (uint64, error) {
	if amount.IsNegative() {
		return 0, types.NewValidationError("amount", "cannot be negative")
	}
	units := amount.Shift(decimals)
	if !units.IsInteger() {
		return 0, types.NewValidationError("amount", fmt.Sprintf("%s has more than %d decimals", amount, decimals))
	}
	n := units.BigInt()
	if !n.IsUint64() {
		return 0, types.NewValidationError("amount", fmt.Sprintf("%s overflows", amount))
	}
	return n.Uint64(), nil
}

// FromBaseUnits renders base units as a whole-unit decimal.
func FromBaseUnits(units uint64, decimals int32) decimal.Decimal {
	return decimal.NewFromBigInt(new(big.Int).SetUint64(units), -decimals)
}
