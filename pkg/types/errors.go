package types

import (
	"encoding/json"
	"errors"
	"fmt"
	"strings"

	"github.com/gagliardetto/solana-go"

	"github.com/ninja0404/pump-bundler/pkg/program/pump"
)

// Bundler error taxonomy. Every failure surfaced by the core packages matches
// exactly one of these with errors.Is.
var (
	ErrCurveClosed            = errors.New("bonding curve is complete")
	ErrCurveNotFound          = errors.New("bonding curve not found")
	ErrInvalidInput           = errors.New("invalid input")
	ErrLookupTableUnavailable = errors.New("address lookup table unavailable")
	ErrSubmissionFailed       = errors.New("transaction submission failed")
	ErrTransactionFailed      = errors.New("transaction failed")
	ErrBundleUnaccepted       = errors.New("bundle not accepted by any relay")
)

// Common SDK errors
var (
	// Parameter validation errors
	ErrNilRPC           = errors.New("rpc client is nil")
	ErrNilSigner        = errors.New("signer is nil")
	ErrNilFeePayer      = errors.New("fee payer is nil")
	ErrInvalidPublicKey = errors.New("invalid public key")
	ErrNoInstructions   = errors.New("requires at least one instruction")

	// Account errors
	ErrAccountNotFound      = errors.New("account not found")
	ErrMintNotFound         = errors.New("mint account not found")
	ErrGlobalConfigNotFound = errors.New("global config not found")

	// Transaction errors
	ErrSimulationFailed    = errors.New("simulation failed")
	ErrConfirmationTimeout = errors.New("confirmation timeout")
)

// RPCError wraps RPC failures with operation context.
type RPCError struct {
	Op  string
	Err error
}

func (e RPCError) Error() string {
	return fmt.Sprintf("%s: %v", e.Op, e.Err)
}

func (e RPCError) Unwrap() error {
	return e.Err
}

// ValidationError represents input validation failures. It matches
// ErrInvalidInput.
type ValidationError struct {
	Field   string
	Message string
}

func (e ValidationError) Error() string {
	return fmt.Sprintf("validation error: %s - %s", e.Field, e.Message)
}

func (e ValidationError) Is(target error) bool {
	return target == ErrInvalidInput
}

// NewValidationError creates a new validation error.
func NewValidationError(field, message string) ValidationError {
	return ValidationError{Field: field, Message: message}
}

// ProgramError represents on-chain program execution errors.
type ProgramError struct {
	Program string
	Code    int
	Message string
	Logs    []string
}

func (e ProgramError) Error() string {
	if e.Program == "" {
		return fmt.Sprintf("program error [%d]: %s", e.Code, e.Message)
	}
	return fmt.Sprintf("program %s error [%d]: %s", e.Program, e.Code, e.Message)
}

// SimulationError contains simulation failure details.
type SimulationError struct {
	Err  interface{}
	Logs []string
}

func (e SimulationError) Error() string {
	return fmt.Sprintf("simulation failed: %v", e.Err)
}

func (e SimulationError) Is(target error) bool {
	return target == ErrSimulationFailed
}

// TransactionError reports a transaction that landed but failed to execute.
type TransactionError struct {
	Signature solana.Signature
	Err       interface{}
}

func (e TransactionError) Error() string {
	return fmt.Sprintf("transaction %s failed: %v", e.Signature, e.Err)
}

func (e TransactionError) Is(target error) bool {
	return target == ErrTransactionFailed
}

// ParsePumpError converts pump program error code to friendly error.
func ParsePumpError(code int) error {
	if err, ok := pump.ErrorFromCode(uint32(code)); ok {
		msg := err.Msg
		if msg == "" {
			msg = err.Name
		}
		return &ProgramError{
			Program: pump.ProgramName,
			Code:    code,
			Message: msg,
		}
	}
	return fmt.Errorf("pump error code %d", code)
}

// ParseSimulationError extracts error details from simulation result.
func ParseSimulationError(errVal interface{}, logs []string) error {
	if errVal == nil {
		return nil
	}

	if code, ok := customErrorCode(errVal); ok {
		account := extractAccountFromLogs(logs)
		return &ProgramError{
			Program: programFromCode(code),
			Code:    code,
			Message: parseErrorCode(code, account),
			Logs:    logs,
		}
	}

	return &SimulationError{Err: errVal, Logs: logs}
}

// customErrorCode digs the custom code out of {"InstructionError":[idx,{"Custom":n}]}.
func customErrorCode(errVal interface{}) (int, bool) {
	errMap, ok := errVal.(map[string]interface{})
	if !ok {
		return 0, false
	}
	instErr, ok := errMap["InstructionError"].([]interface{})
	if !ok || len(instErr) < 2 {
		return 0, false
	}
	custom, ok := instErr[1].(map[string]interface{})
	if !ok {
		return 0, false
	}
	switch v := custom["Custom"].(type) {
	case float64:
		return int(v), true
	case int:
		return v, true
	case json.Number:
		if n, err := v.Int64(); err == nil {
			return int(n), true
		}
	}
	return 0, false
}

func programFromCode(code int) string {
	if _, ok := pump.ErrorFromCode(uint32(code)); ok {
		return pump.ProgramName
	}
	return ""
}

// extractAccountFromLogs extracts the account name from Anchor error logs.
func extractAccountFromLogs(logs []string) string {
	const marker = "caused by account: "
	for _, log := range logs {
		idx := strings.Index(log, marker)
		if idx < 0 {
			continue
		}
		rest := log[idx+len(marker):]
		if end := strings.Index(rest, "."); end >= 0 {
			return rest[:end]
		}
		return rest
	}
	return ""
}

// parseErrorCode converts error code to human-readable message.
func parseErrorCode(code int, account string) string {
	// Anchor framework errors
	switch code {
	case 3012:
		if account != "" {
			return fmt.Sprintf("account '%s' not initialized (create the account first)", account)
		}
		return "account not initialized"
	case 2006:
		if account != "" {
			return fmt.Sprintf("seeds constraint violated (account: %s)", account)
		}
		return "seeds constraint violated"
	case 2023:
		return "token program constraint violated (wrong token program for mint)"
	case 3008:
		return "program ID was not as expected (wrong program)"
	}

	if err, ok := pump.ErrorFromCode(uint32(code)); ok {
		msg := err.Msg
		if msg == "" {
			msg = toReadableError(err.Name)
		}
		if account != "" && needsAccountContext(code) {
			return fmt.Sprintf("%s (account: %s)", msg, account)
		}
		return msg
	}

	return fmt.Sprintf("error code %d", code)
}

// needsAccountContext returns true if the error message should include account context.
func needsAccountContext(code int) bool {
	switch code {
	case 6000, 6004: // NotAuthorized, MintDoesNotMatchBondingCurve
		return true
	}
	return false
}

// toReadableError converts CamelCase error name to readable format.
func toReadableError(name string) string {
	if name == "" {
		return "unknown error"
	}
	var result []byte
	for i, c := range name {
		if i > 0 && c >= 'A' && c <= 'Z' {
			result = append(result, ' ')
		}
		result = append(result, byte(c))
	}
	return string(result)
}

// IsSlippageError reports whether err is one of the program's slippage guards.
func IsSlippageError(err error) bool {
	var progErr *ProgramError
	if !errors.As(err, &progErr) {
		return false
	}
	return progErr.Code == 6002 || progErr.Code == 6003
}

// IsRetryableError checks if an error is retryable. Validation, curve state
// and program errors are final.
func IsRetryableError(err error) bool {
	if err == nil {
		return false
	}
	if errors.Is(err, ErrInvalidInput) || errors.Is(err, ErrCurveClosed) || errors.Is(err, ErrCurveNotFound) {
		return false
	}
	if errors.Is(err, ErrTransactionFailed) || errors.Is(err, ErrSimulationFailed) {
		return false
	}
	var progErr *ProgramError
	if errors.As(err, &progErr) {
		return false
	}
	return true
}
