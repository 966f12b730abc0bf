// Package lut manages address lookup tables: resolving them for v0
// compilation and driving their create, extend, deactivate and close
// lifecycle for a bundling authority.
package lut

import (
	"context"
	"errors"
	"fmt"

	"github.com/gagliardetto/solana-go"
	lookup "github.com/gagliardetto/solana-go/programs/address-lookup-table"
	solanarpc "github.com/gagliardetto/solana-go/rpc"
	"github.com/rs/zerolog"

	"github.com/ninja0404/pump-bundler/pkg/autofill"
	"github.com/ninja0404/pump-bundler/pkg/constants"
	"github.com/ninja0404/pump-bundler/pkg/txbuilder"
	"github.com/ninja0404/pump-bundler/pkg/types"
	"github.com/ninja0404/pump-bundler/pkg/wallet"
)

const (
	// ExtendBatchSize is how many addresses one extend transaction carries.
	ExtendBatchSize = 30
	// TeardownBatchSize is how many deactivate/close instructions share a transaction.
	TeardownBatchSize = 25
	// authorityOffset is where the authority key sits in table account data.
	authorityOffset = 22
)

// Reader resolves table accounts.
type Reader interface {
	GetAccountInfo(ctx context.Context, account solana.PublicKey) (*solanarpc.GetAccountInfoResult, error)
}

// ChainReader is the RPC surface of the table lifecycle.
type ChainReader interface {
	Reader
	GetSlot(ctx context.Context, commitment solanarpc.CommitmentType) (uint64, error)
	GetProgramAccounts(ctx context.Context, program solana.PublicKey, opts *solanarpc.GetProgramAccountsOpts) (solanarpc.GetProgramAccountsResult, error)
}

// Resolve returns the addresses stored in table. A missing, undecodable or
// empty table fails with types.ErrLookupTableUnavailable.
func Resolve(ctx context.Context, reader Reader, table solana.PublicKey) (solana.PublicKeySlice, error) {
	if reader == nil {
		return nil, types.ErrNilRPC
	}
	res, err := reader.GetAccountInfo(ctx, table)
	if err != nil {
		return nil, fmt.Errorf("%w: %s: %w", types.ErrLookupTableUnavailable, table, err)
	}
	if res == nil || res.Value == nil || res.Value.Data == nil {
		return nil, fmt.Errorf("%w: %s: account missing", types.ErrLookupTableUnavailable, table)
	}
	state, err := lookup.DecodeAddressLookupTableState(res.Value.Data.GetBinary())
	if err != nil {
		return nil, fmt.Errorf("%w: %s: %w", types.ErrLookupTableUnavailable, table, err)
	}
	if len(state.Addresses) == 0 {
		return nil, fmt.Errorf("%w: %s: table is empty", types.ErrLookupTableUnavailable, table)
	}
	return state.Addresses, nil
}

// Tables resolves each table into the map txbuilder compiles against.
func Tables(ctx context.Context, reader Reader, tables ...solana.PublicKey) (map[solana.PublicKey]solana.PublicKeySlice, error) {
	out := make(map[solana.PublicKey]solana.PublicKeySlice, len(tables))
	for _, t := range tables {
		addrs, err := Resolve(ctx, reader, t)
		if err != nil {
			return nil, err
		}
		out[t] = addrs
	}
	return out, nil
}

// CollectAddresses lists the accounts a batch on mint touches that are worth
// tabling: program ids, curve PDAs and every wallet's ATA and volume
// accumulator. Wallet keys themselves sign and are never looked up.
func CollectAddresses(mint, creator, feeRecipient solana.PublicKey, wallets []solana.PublicKey) ([]solana.PublicKey, error) {
	seen := make(map[solana.PublicKey]struct{})
	var out []solana.PublicKey
	add := func(keys ...solana.PublicKey) {
		for _, k := range keys {
			if k.IsZero() {
				continue
			}
			if _, ok := seen[k]; ok {
				continue
			}
			seen[k] = struct{}{}
			out = append(out, k)
		}
	}

	add(constants.SystemProgramID, constants.TokenProgramID, constants.AssociatedTokenProgramID,
		constants.ComputeBudgetProgramID, mint)

	for i, w := range wallets {
		accts, err := autofill.DeriveBuyAccounts(w, mint, feeRecipient, creator, constants.TokenProgramID)
		if err != nil {
			return nil, err
		}
		if i == 0 {
			add(accts.Program, accts.Global, accts.FeeRecipient, accts.BondingCurve,
				accts.AssociatedBondingCurve, accts.CreatorVault, accts.EventAuthority,
				accts.GlobalVolumeAccumulator, accts.FeeConfig, accts.FeeProgram)
		}
		add(accts.AssociatedUser, accts.UserVolumeAccumulator)
	}
	return out, nil
}

// Manager drives the table lifecycle for one authority. Every transaction
// it sends is confirmed at finalized before the next is built, since a
// table is usable only once its extension is rooted.
type Manager struct {
	chain   ChainReader
	builder *txbuilder.Builder
	log     zerolog.Logger
}

// NewManager creates a manager. builder must not compile against lookup
// tables itself.
func NewManager(chain ChainReader, builder *txbuilder.Builder, log zerolog.Logger) *Manager {
	return &Manager{chain: chain, builder: builder, log: log}
}

// Create creates a table at the current slot and extends it with addresses
// plus the lookup table program id, ExtendBatchSize addresses per
// transaction.
func (m *Manager) Create(ctx context.Context, authority wallet.Signer, addresses []solana.PublicKey) (solana.PublicKey, []solana.Signature, error) {
	if authority == nil {
		return solana.PublicKey{}, nil, types.ErrNilSigner
	}
	slot, err := m.chain.GetSlot(ctx, solanarpc.CommitmentFinalized)
	if err != nil {
		return solana.PublicKey{}, nil, fmt.Errorf("get slot: %w", err)
	}

	owner := authority.PublicKey()
	createIx, table, err := NewCreateInstruction(owner, owner, slot)
	if err != nil {
		return solana.PublicKey{}, nil, err
	}

	all := append(append([]solana.PublicKey{}, addresses...), constants.AddressLookupTableProgram)
	var sigs []solana.Signature
	for i := 0; i < len(all); i += ExtendBatchSize {
		end := min(i+ExtendBatchSize, len(all))
		extendIx, err := NewExtendInstruction(table, owner, owner, all[i:end])
		if err != nil {
			return table, sigs, err
		}
		ixs := []solana.Instruction{extendIx}
		if i == 0 {
			ixs = append([]solana.Instruction{createIx}, ixs...)
		}

		sig, err := m.builder.Submit(ctx, authority, nil, txbuilder.ConfirmationFinalized, ixs...)
		if err != nil {
			return table, sigs, fmt.Errorf("extend lookup table %s [%d:%d]: %w", table, i, end, err)
		}
		sigs = append(sigs, sig)
		m.log.Info().Str("table", table.String()).Int("from", i).Int("to", end).Str("signature", sig.String()).Msg("lookup table extended")
	}
	return table, sigs, nil
}

// Owned lists every table whose authority is owner.
func (m *Manager) Owned(ctx context.Context, owner solana.PublicKey) ([]solana.PublicKey, error) {
	res, err := m.chain.GetProgramAccounts(ctx, constants.AddressLookupTableProgram, &solanarpc.GetProgramAccountsOpts{
		Filters: []solanarpc.RPCFilter{{
			Memcmp: &solanarpc.RPCFilterMemcmp{
				Offset: authorityOffset,
				Bytes:  solana.Base58(owner.Bytes()),
			},
		}},
	})
	if err != nil {
		return nil, fmt.Errorf("list lookup tables of %s: %w", owner, err)
	}
	out := make([]solana.PublicKey, 0, len(res))
	for _, acc := range res {
		if acc != nil {
			out = append(out, acc.Pubkey)
		}
	}
	return out, nil
}

// DeactivateAll deactivates every table owned by authority.
func (m *Manager) DeactivateAll(ctx context.Context, authority wallet.Signer) ([]solana.Signature, error) {
	return m.teardown(ctx, authority, "deactivate", func(table, owner solana.PublicKey) solana.Instruction {
		return NewDeactivateInstruction(table, owner)
	})
}

// CloseAll closes every table owned by authority, returning rent to it.
// Tables must have been deactivated and cooled down first.
func (m *Manager) CloseAll(ctx context.Context, authority wallet.Signer) ([]solana.Signature, error) {
	return m.teardown(ctx, authority, "close", func(table, owner solana.PublicKey) solana.Instruction {
		return NewCloseInstruction(table, owner, owner)
	})
}

func (m *Manager) teardown(ctx context.Context, authority wallet.Signer, action string, build func(table, owner solana.PublicKey) solana.Instruction) ([]solana.Signature, error) {
	if authority == nil {
		return nil, types.ErrNilSigner
	}
	owner := authority.PublicKey()
	tables, err := m.Owned(ctx, owner)
	if err != nil {
		return nil, err
	}
	if len(tables) == 0 {
		return nil, nil
	}

	var (
		sigs []solana.Signature
		errs []error
	)
	for i := 0; i < len(tables); i += TeardownBatchSize {
		end := min(i+TeardownBatchSize, len(tables))
		ixs := make([]solana.Instruction, 0, end-i)
		for _, t := range tables[i:end] {
			ixs = append(ixs, build(t, owner))
		}
		sig, err := m.builder.Submit(ctx, authority, nil, txbuilder.ConfirmationConfirmed, ixs...)
		if err != nil {
			errs = append(errs, fmt.Errorf("%s lookup tables [%d:%d]: %w", action, i, end, err))
			continue
		}
		sigs = append(sigs, sig)
		m.log.Info().Str("action", action).Int("tables", end-i).Str("signature", sig.String()).Msg("lookup tables updated")
	}
	return sigs, errors.Join(errs...)
}
