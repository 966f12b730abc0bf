package quote

import (
	"context"
	"errors"
	"fmt"

	"github.com/gagliardetto/solana-go"
	solanarpc "github.com/gagliardetto/solana-go/rpc"

	"github.com/ninja0404/pump-bundler/pkg/program/pump"
	"github.com/ninja0404/pump-bundler/pkg/types"
)

// AccountReader is the slice of the RPC surface needed to read curve state.
type AccountReader interface {
	GetAccountInfo(ctx context.Context, account solana.PublicKey) (*solanarpc.GetAccountInfoResult, error)
}

// CurveAddress derives the bonding curve PDA of mint.
func CurveAddress(mint solana.PublicKey) (solana.PublicKey, error) {
	pk, _, err := pump.DeriveBuyBondingCurvePDA(pump.BuyAccounts{Mint: mint}, pump.BuyArgs{})
	if err != nil {
		return solana.PublicKey{}, fmt.Errorf("derive bonding curve for %s: %w", mint, err)
	}
	return pk, nil
}

// GlobalAddress derives the program's global config PDA.
func GlobalAddress() (solana.PublicKey, error) {
	pk, _, err := pump.DeriveBuyGlobalPDA(pump.BuyAccounts{}, pump.BuyArgs{})
	if err != nil {
		return solana.PublicKey{}, fmt.Errorf("derive global: %w", err)
	}
	return pk, nil
}

// FetchCurve reads and decodes the bonding curve of mint. It returns
// ErrCurveNotFound when the account does not exist or does not decode.
func FetchCurve(ctx context.Context, reader AccountReader, mint solana.PublicKey) (pump.BondingCurve, solana.PublicKey, error) {
	if reader == nil {
		return pump.BondingCurve{}, solana.PublicKey{}, types.ErrNilRPC
	}
	addr, err := CurveAddress(mint)
	if err != nil {
		return pump.BondingCurve{}, solana.PublicKey{}, err
	}
	data, err := fetchData(ctx, reader, addr)
	if err != nil {
		if errors.Is(err, types.ErrAccountNotFound) {
			return pump.BondingCurve{}, addr, fmt.Errorf("%w: mint %s", types.ErrCurveNotFound, mint)
		}
		return pump.BondingCurve{}, addr, err
	}
	curve, err := DecodeCurve(data)
	if err != nil {
		return pump.BondingCurve{}, addr, err
	}
	return curve, addr, nil
}

// DecodeCurve decodes raw bonding curve account data.
func DecodeCurve(data []byte) (pump.BondingCurve, error) {
	var curve pump.BondingCurve
	if err := curve.Unmarshal(data); err != nil {
		return pump.BondingCurve{}, fmt.Errorf("%w: %v", types.ErrCurveNotFound, err)
	}
	return curve, nil
}

// FetchGlobal reads and decodes the global config. Callers re-read it per
// operation rather than caching it.
func FetchGlobal(ctx context.Context, reader AccountReader) (pump.Global, error) {
	if reader == nil {
		return pump.Global{}, types.ErrNilRPC
	}
	addr, err := GlobalAddress()
	if err != nil {
		return pump.Global{}, err
	}
	data, err := fetchData(ctx, reader, addr)
	if err != nil {
		if errors.Is(err, types.ErrAccountNotFound) {
			return pump.Global{}, types.ErrGlobalConfigNotFound
		}
		return pump.Global{}, err
	}
	return DecodeGlobal(data)
}

// DecodeGlobal decodes raw global config account data.
func DecodeGlobal(data []byte) (pump.Global, error) {
	var global pump.Global
	if err := global.Unmarshal(data); err != nil {
		return pump.Global{}, fmt.Errorf("%w: %v", types.ErrGlobalConfigNotFound, err)
	}
	return global, nil
}

func fetchData(ctx context.Context, reader AccountReader, addr solana.PublicKey) ([]byte, error) {
	res, err := reader.GetAccountInfo(ctx, addr)
	if err != nil {
		if errors.Is(err, solanarpc.ErrNotFound) {
			return nil, types.ErrAccountNotFound
		}
		return nil, fmt.Errorf("get account %s: %w", addr, err)
	}
	if res == nil || res.Value == nil || res.Value.Data == nil {
		return nil, types.ErrAccountNotFound
	}
	return res.Value.Data.GetBinary(), nil
}
