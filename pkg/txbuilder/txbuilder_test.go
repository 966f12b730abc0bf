package txbuilder

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/gagliardetto/solana-go"
	"github.com/gagliardetto/solana-go/programs/system"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/ninja0404/pump-bundler/internal/chaintest"
	"github.com/ninja0404/pump-bundler/pkg/constants"
	"github.com/ninja0404/pump-bundler/pkg/types"
	"github.com/ninja0404/pump-bundler/pkg/wallet"
)

func transfer(t *testing.T, from wallet.Signer) solana.Instruction {
	t.Helper()
	return system.NewTransferInstruction(1_000, from.PublicKey(), solana.NewWallet().PublicKey()).Build()
}

func newSigner(t *testing.T) wallet.Signer {
	t.Helper()
	w, err := wallet.NewRandomLocal()
	require.NoError(t, err)
	return w
}

func TestBuildTransaction_PriorityPrefix(t *testing.T) {
	chain := chaintest.New()
	payer := newSigner(t)
	b := NewBuilder(chain, "").WithPriorityFee(PriorityFee{UnitLimit: 200_000, UnitPrice: 10_000})

	tx, err := b.BuildTransaction(context.Background(), payer.PublicKey(), transfer(t, payer))
	require.NoError(t, err)
	require.Len(t, tx.Message.Instructions, 3)
	for i, want := range []solana.PublicKey{constants.ComputeBudgetProgramID, constants.ComputeBudgetProgramID, constants.SystemProgramID} {
		got, err := tx.Message.ResolveProgramIDIndex(tx.Message.Instructions[i].ProgramIDIndex)
		require.NoError(t, err)
		assert.Equal(t, want, got, "instruction %d", i)
	}
	assert.Equal(t, chain.Blockhash, tx.Message.RecentBlockhash)
	assert.Equal(t, payer.PublicKey(), tx.Message.AccountKeys[0])
}

func TestBuildTransaction_Errors(t *testing.T) {
	payer := newSigner(t)

	_, err := NewBuilder(nil, "").BuildTransaction(context.Background(), payer.PublicKey(), transfer(t, payer))
	assert.ErrorIs(t, err, types.ErrNilRPC)

	_, err = NewBuilder(chaintest.New(), "").BuildTransaction(context.Background(), payer.PublicKey())
	assert.ErrorIs(t, err, types.ErrNoInstructions)
}

func TestSignTransaction_MissingSigner(t *testing.T) {
	payer, other := newSigner(t), newSigner(t)
	b := NewBuilder(chaintest.New(), "")

	tx, err := b.BuildTransaction(context.Background(), payer.PublicKey(), transfer(t, payer))
	require.NoError(t, err)
	assert.Error(t, SignTransaction(context.Background(), tx, other))
	require.NoError(t, SignTransaction(context.Background(), tx, other, payer))
	require.Len(t, tx.Signatures, 1)
	assert.NoError(t, tx.VerifySignatures())
}

func TestSubmit_Confirms(t *testing.T) {
	chain := chaintest.New()
	payer := newSigner(t)
	b := NewBuilder(chain, "").WithPollInterval(time.Millisecond)

	sig, err := b.Submit(context.Background(), payer, nil, ConfirmationConfirmed, transfer(t, payer))
	require.NoError(t, err)
	require.Len(t, chain.Sent, 1)
	assert.Len(t, chain.Simulated, 1)
	assert.Equal(t, chain.Sent[0].Signatures[0], sig)
}

func TestSubmit_SimulationFailureStopsSend(t *testing.T) {
	chain := chaintest.New()
	chain.SimErr = map[string]interface{}{
		"InstructionError": []interface{}{float64(1), map[string]interface{}{"Custom": float64(6002)}},
	}
	payer := newSigner(t)
	b := NewBuilder(chain, "")

	_, err := b.Submit(context.Background(), payer, nil, ConfirmationConfirmed, transfer(t, payer))
	require.Error(t, err)
	assert.True(t, types.IsSlippageError(err))
	assert.Empty(t, chain.Sent)

	chain.SimErr = "AccountNotFound"
	_, err = b.Submit(context.Background(), payer, nil, ConfirmationConfirmed, transfer(t, payer))
	assert.ErrorIs(t, err, types.ErrSimulationFailed)
}

func TestSubmit_SendFailure(t *testing.T) {
	chain := chaintest.New()
	chain.SendErr = errors.New("blockhash not found")
	payer := newSigner(t)
	b := NewBuilder(chain, "").WithSkipPreflight(true)

	_, err := b.Submit(context.Background(), payer, nil, ConfirmationConfirmed, transfer(t, payer))
	assert.ErrorIs(t, err, types.ErrSubmissionFailed)
	assert.Zero(t, chain.Calls("simulateTransaction"))
	assert.Equal(t, 1, chain.Calls("sendTransaction"))
}

func TestSubmit_ExecutionFailure(t *testing.T) {
	chain := chaintest.New()
	chain.TxErr = map[string]interface{}{"InstructionError": []interface{}{float64(0), "InsufficientFunds"}}
	payer := newSigner(t)
	b := NewBuilder(chain, "").WithSkipPreflight(true).WithPollInterval(time.Millisecond)

	sig, err := b.Submit(context.Background(), payer, nil, ConfirmationConfirmed, transfer(t, payer))
	assert.ErrorIs(t, err, types.ErrTransactionFailed)
	var txErr types.TransactionError
	require.True(t, errors.As(err, &txErr))
	assert.Equal(t, sig, txErr.Signature)
}

func TestWaitForConfirmation_Timeout(t *testing.T) {
	chain := chaintest.New()
	chain.Pending = true
	b := NewBuilder(chain, "").WithPollInterval(5 * time.Millisecond)

	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Millisecond)
	defer cancel()
	err := b.WaitForConfirmation(ctx, solana.Signature{1}, ConfirmationFinalized)
	assert.ErrorIs(t, err, types.ErrConfirmationTimeout)
	assert.Greater(t, chain.Calls("getSignatureStatuses"), 1)
}

func TestReached(t *testing.T) {
	assert.True(t, reached("", ConfirmationProcessed))
	assert.False(t, reached("processed", ConfirmationConfirmed))
	assert.True(t, reached("finalized", ConfirmationConfirmed))
	assert.False(t, reached("confirmed", ConfirmationFinalized))
}
