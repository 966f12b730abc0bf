package lut

import (
	"bytes"
	"encoding/binary"
	"fmt"

	bin "github.com/gagliardetto/binary"
	"github.com/gagliardetto/solana-go"

	"github.com/ninja0404/pump-bundler/pkg/constants"
)

// Address lookup table program instruction indices (bincode u32 enum tag).
const (
	instructionCreate     uint32 = 0
	instructionExtend     uint32 = 2
	instructionDeactivate uint32 = 3
	instructionClose      uint32 = 4
)

// DeriveAddress returns the table address created by authority at recentSlot.
func DeriveAddress(authority solana.PublicKey, recentSlot uint64) (solana.PublicKey, uint8, error) {
	slot := new(bytes.Buffer)
	if err := bin.NewBinEncoder(slot).WriteUint64(recentSlot, binary.LittleEndian); err != nil {
		return solana.PublicKey{}, 0, err
	}
	return solana.FindProgramAddress([][]byte{authority[:], slot.Bytes()}, constants.AddressLookupTableProgram)
}

// NewCreateInstruction creates a table owned by authority, funded by payer.
func NewCreateInstruction(authority, payer solana.PublicKey, recentSlot uint64) (solana.Instruction, solana.PublicKey, error) {
	table, bump, err := DeriveAddress(authority, recentSlot)
	if err != nil {
		return nil, solana.PublicKey{}, fmt.Errorf("derive lookup table address: %w", err)
	}

	buf := new(bytes.Buffer)
	enc := bin.NewBinEncoder(buf)
	if err := enc.WriteUint32(instructionCreate, binary.LittleEndian); err != nil {
		return nil, solana.PublicKey{}, err
	}
	if err := enc.WriteUint64(recentSlot, binary.LittleEndian); err != nil {
		return nil, solana.PublicKey{}, err
	}
	if err := enc.WriteUint8(bump); err != nil {
		return nil, solana.PublicKey{}, err
	}

	metas := []*solana.AccountMeta{
		solana.NewAccountMeta(table, true, false),
		solana.NewAccountMeta(authority, false, true),
		solana.NewAccountMeta(payer, true, true),
		solana.NewAccountMeta(constants.SystemProgramID, false, false),
	}
	return solana.NewInstruction(constants.AddressLookupTableProgram, metas, buf.Bytes()), table, nil
}

// NewExtendInstruction appends addresses to table.
func NewExtendInstruction(table, authority, payer solana.PublicKey, addresses []solana.PublicKey) (solana.Instruction, error) {
	if len(addresses) == 0 {
		return nil, fmt.Errorf("extend lookup table: no addresses")
	}

	buf := new(bytes.Buffer)
	enc := bin.NewBinEncoder(buf)
	if err := enc.WriteUint32(instructionExtend, binary.LittleEndian); err != nil {
		return nil, err
	}
	if err := enc.WriteUint64(uint64(len(addresses)), binary.LittleEndian); err != nil {
		return nil, err
	}
	for _, a := range addresses {
		if err := enc.WriteBytes(a[:], false); err != nil {
			return nil, err
		}
	}

	metas := []*solana.AccountMeta{
		solana.NewAccountMeta(table, true, false),
		solana.NewAccountMeta(authority, false, true),
		solana.NewAccountMeta(payer, true, true),
		solana.NewAccountMeta(constants.SystemProgramID, false, false),
	}
	return solana.NewInstruction(constants.AddressLookupTableProgram, metas, buf.Bytes()), nil
}

// NewDeactivateInstruction starts the cool-down that precedes closing.
func NewDeactivateInstruction(table, authority solana.PublicKey) solana.Instruction {
	metas := []*solana.AccountMeta{
		solana.NewAccountMeta(table, true, false),
		solana.NewAccountMeta(authority, false, true),
	}
	return solana.NewInstruction(constants.AddressLookupTableProgram, metas, tag(instructionDeactivate))
}

// NewCloseInstruction reclaims a deactivated table's rent to recipient.
func NewCloseInstruction(table, authority, recipient solana.PublicKey) solana.Instruction {
	metas := []*solana.AccountMeta{
		solana.NewAccountMeta(table, true, false),
		solana.NewAccountMeta(authority, false, true),
		solana.NewAccountMeta(recipient, true, false),
	}
	return solana.NewInstruction(constants.AddressLookupTableProgram, metas, tag(instructionClose))
}

// tag encodes a data-less instruction. Writes to a bytes.Buffer cannot fail.
func tag(index uint32) []byte {
	buf := new(bytes.Buffer)
	_ = bin.NewBinEncoder(buf).WriteUint32(index, binary.LittleEndian)
	return buf.Bytes()
}
