package types

import (
	"context"
	"errors"
	"fmt"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestValidationErrorMatchesInvalidInput(t *testing.T) {
	err := fmt.Errorf("record 2: %w", NewValidationError("amount", "cannot be negative"))
	assert.ErrorIs(t, err, ErrInvalidInput)
	assert.Contains(t, err.Error(), "amount")

	assert.ErrorIs(t, ValidateSlippage(10_001), ErrInvalidInput)
	assert.NoError(t, ValidateSlippage(10_000))
	assert.ErrorIs(t, ValidateAmount("solIn", 0), ErrInvalidInput)
}

func TestParseSimulationError(t *testing.T) {
	assert.NoError(t, ParseSimulationError(nil, nil))

	errVal := map[string]interface{}{
		"InstructionError": []interface{}{float64(2), map[string]interface{}{"Custom": float64(6002)}},
	}
	err := ParseSimulationError(errVal, nil)
	var progErr *ProgramError
	require.ErrorAs(t, err, &progErr)
	assert.Equal(t, 6002, progErr.Code)
	assert.True(t, IsSlippageError(err))

	err = ParseSimulationError(map[string]interface{}{
		"InstructionError": []interface{}{float64(0), map[string]interface{}{"Custom": float64(3012)}},
	}, []string{"Program log: AnchorError caused by account: user_volume_accumulator. Error Code: AccountNotInitialized."})
	require.ErrorAs(t, err, &progErr)
	assert.Contains(t, progErr.Message, "user_volume_accumulator")

	err = ParseSimulationError("AccountNotFound", nil)
	assert.ErrorIs(t, err, ErrSimulationFailed)
	assert.False(t, IsSlippageError(err))
}

func TestIsRetryableError(t *testing.T) {
	assert.False(t, IsRetryableError(nil))
	assert.False(t, IsRetryableError(NewValidationError("x", "y")))
	assert.False(t, IsRetryableError(fmt.Errorf("buy: %w", ErrCurveClosed)))
	assert.False(t, IsRetryableError(TransactionError{Err: "custom"}))
	assert.False(t, IsRetryableError(&ProgramError{Code: 6002}))
	assert.True(t, IsRetryableError(RPCError{Op: "getAccountInfo", Err: errors.New("connection reset")}))
	assert.True(t, IsRetryableError(context.DeadlineExceeded))
}
