// Package txbuilder compiles instructions into signed v0 transactions and
// drives them through simulate, send and confirm.
package txbuilder

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/gagliardetto/solana-go"
	computebudget "github.com/gagliardetto/solana-go/programs/compute-budget"
	solanarpc "github.com/gagliardetto/solana-go/rpc"
	"github.com/rs/zerolog"

	"github.com/ninja0404/pump-bundler/pkg/types"
	"github.com/ninja0404/pump-bundler/pkg/wallet"
)

// ConfirmationLevel represents transaction confirmation depth.
type ConfirmationLevel string

const (
	ConfirmationProcessed ConfirmationLevel = "processed"
	ConfirmationConfirmed ConfirmationLevel = "confirmed"
	ConfirmationFinalized ConfirmationLevel = "finalized"
)

// MaxTransactionSize is the packet limit a signed transaction must fit.
const MaxTransactionSize = 1232

// RPC is the node surface the builder needs. *rpc.Client satisfies it.
type RPC interface {
	GetLatestBlockhash(ctx context.Context) (*solanarpc.GetLatestBlockhashResult, error)
	SimulateTransaction(ctx context.Context, tx *solana.Transaction, opts *solanarpc.SimulateTransactionOpts) (*solanarpc.SimulateTransactionResponse, error)
	SendTransaction(ctx context.Context, tx *solana.Transaction, opts solanarpc.TransactionOpts) (solana.Signature, error)
	GetSignatureStatuses(ctx context.Context, sigs ...solana.Signature) (*solanarpc.GetSignatureStatusesResult, error)
}

// PriorityFee is the compute-budget prefix. Zero fields are omitted.
type PriorityFee struct {
	UnitLimit uint32 // compute units
	UnitPrice uint64 // micro-lamports per unit
}

// Instructions returns the compute-budget instructions for p.
func (p PriorityFee) Instructions() []solana.Instruction {
	var out []solana.Instruction
	if p.UnitLimit > 0 {
		out = append(out, computebudget.NewSetComputeUnitLimitInstruction(p.UnitLimit).Build())
	}
	if p.UnitPrice > 0 {
		out = append(out, computebudget.NewSetComputeUnitPriceInstruction(p.UnitPrice).Build())
	}
	return out
}

// Builder ties together RPC, fee payer, and signing.
type Builder struct {
	client        RPC
	commitment    solanarpc.CommitmentType
	skipPreflight bool
	priority      PriorityFee
	tables        map[solana.PublicKey]solana.PublicKeySlice
	pollInterval  time.Duration
	log           zerolog.Logger
}

// NewBuilder constructs a builder with the provided client and commitment.
func NewBuilder(client RPC, commitment solanarpc.CommitmentType) *Builder {
	if commitment == "" {
		commitment = solanarpc.CommitmentConfirmed
	}
	return &Builder{
		client:       client,
		commitment:   commitment,
		pollInterval: 400 * time.Millisecond,
		log:          zerolog.Nop(),
	}
}

// WithSkipPreflight configures whether to skip simulation before send.
func (b *Builder) WithSkipPreflight(skip bool) *Builder {
	b.skipPreflight = skip
	return b
}

// WithPriorityFee prefixes every built transaction with compute-budget
// instructions.
func (b *Builder) WithPriorityFee(fee PriorityFee) *Builder {
	b.priority = fee
	return b
}

// WithLookupTables compiles every built transaction against tables.
func (b *Builder) WithLookupTables(tables map[solana.PublicKey]solana.PublicKeySlice) *Builder {
	b.tables = tables
	return b
}

// ForTables returns a copy of b that compiles against tables instead.
func (b *Builder) ForTables(tables map[solana.PublicKey]solana.PublicKeySlice) *Builder {
	c := *b
	c.tables = tables
	return &c
}

// WithPollInterval sets the signature status polling period.
func (b *Builder) WithPollInterval(d time.Duration) *Builder {
	if d > 0 {
		b.pollInterval = d
	}
	return b
}

// WithLogger sets the logger.
func (b *Builder) WithLogger(log zerolog.Logger) *Builder {
	b.log = log
	return b
}

// Commitment returns the preflight commitment.
func (b *Builder) Commitment() solanarpc.CommitmentType {
	return b.commitment
}

// LatestBlockhash returns the most recent blockhash.
func (b *Builder) LatestBlockhash(ctx context.Context) (solana.Hash, error) {
	if b.client == nil {
		return solana.Hash{}, types.ErrNilRPC
	}
	latest, err := b.client.GetLatestBlockhash(ctx)
	if err != nil {
		return solana.Hash{}, fmt.Errorf("get latest blockhash: %w", err)
	}
	if latest == nil || latest.Value == nil {
		return solana.Hash{}, fmt.Errorf("get latest blockhash: empty result")
	}
	return latest.Value.Blockhash, nil
}

// BuildTransaction builds a transaction with fresh blockhash.
func (b *Builder) BuildTransaction(ctx context.Context, feePayer solana.PublicKey, instructions ...solana.Instruction) (*solana.Transaction, error) {
	blockhash, err := b.LatestBlockhash(ctx)
	if err != nil {
		return nil, err
	}
	return b.Compile(blockhash, feePayer, instructions...)
}

// Compile builds a transaction against a known blockhash. Several
// transactions of one bundle share a blockhash this way.
func (b *Builder) Compile(blockhash solana.Hash, feePayer solana.PublicKey, instructions ...solana.Instruction) (*solana.Transaction, error) {
	if len(instructions) == 0 {
		return nil, types.ErrNoInstructions
	}
	if feePayer.IsZero() {
		return nil, types.ErrNilFeePayer
	}

	all := append(b.priority.Instructions(), instructions...)
	opts := []solana.TransactionOption{solana.TransactionPayer(feePayer)}
	if len(b.tables) > 0 {
		opts = append(opts, solana.TransactionAddressTables(b.tables))
	}

	tx, err := solana.NewTransaction(all, blockhash, opts...)
	if err != nil {
		return nil, fmt.Errorf("build transaction: %w", err)
	}
	if size, err := wireSize(tx); err == nil && size > MaxTransactionSize {
		return nil, fmt.Errorf("%w: transaction is %d bytes, limit %d", types.ErrInvalidInput, size, MaxTransactionSize)
	}
	return tx, nil
}

// wireSize is the serialized length once every signature slot is filled.
func wireSize(tx *solana.Transaction) (int, error) {
	msg, err := tx.Message.MarshalBinary()
	if err != nil {
		return 0, err
	}
	n := int(tx.Message.Header.NumRequiredSignatures)
	return compactLen(n) + n*64 + len(msg), nil
}

func compactLen(n int) int {
	switch {
	case n < 0x80:
		return 1
	case n < 0x4000:
		return 2
	default:
		return 3
	}
}

// SignTransaction signs using the provided signers in account-key order.
func SignTransaction(ctx context.Context, tx *solana.Transaction, signers ...wallet.Signer) error {
	if tx == nil {
		return fmt.Errorf("transaction is nil")
	}
	required := int(tx.Message.Header.NumRequiredSignatures)
	if required == 0 {
		return nil
	}
	if len(tx.Message.AccountKeys) < required {
		return fmt.Errorf("not enough account keys for required signatures")
	}

	signerMap := make(map[solana.PublicKey]wallet.Signer, len(signers))
	for _, s := range signers {
		if s == nil {
			return types.ErrNilSigner
		}
		signerMap[s.PublicKey()] = s
	}

	messageBytes, err := tx.Message.MarshalBinary()
	if err != nil {
		return fmt.Errorf("encode message: %w", err)
	}

	tx.Signatures = make([]solana.Signature, required)
	for i := 0; i < required; i++ {
		pk := tx.Message.AccountKeys[i]
		signer, ok := signerMap[pk]
		if !ok {
			return fmt.Errorf("missing signer for %s", pk)
		}
		sig, err := signer.SignMessage(ctx, messageBytes)
		if err != nil {
			return fmt.Errorf("sign message for %s: %w", pk, err)
		}
		tx.Signatures[i] = sig
	}
	return nil
}

// BuildAndSign builds a transaction paid by feePayer and signs it with
// feePayer plus signers.
func (b *Builder) BuildAndSign(ctx context.Context, feePayer wallet.Signer, signers []wallet.Signer, instructions ...solana.Instruction) (*solana.Transaction, error) {
	if feePayer == nil {
		return nil, types.ErrNilFeePayer
	}
	tx, err := b.BuildTransaction(ctx, feePayer.PublicKey(), instructions...)
	if err != nil {
		return nil, err
	}
	if err := SignTransaction(ctx, tx, append([]wallet.Signer{feePayer}, signers...)...); err != nil {
		return nil, err
	}
	return tx, nil
}

// Simulate runs tx through preflight. A failing simulation returns a
// *types.ProgramError for program custom codes and *types.SimulationError
// otherwise.
func (b *Builder) Simulate(ctx context.Context, tx *solana.Transaction) (*solanarpc.SimulateTransactionResult, error) {
	if b.client == nil {
		return nil, types.ErrNilRPC
	}
	resp, err := b.client.SimulateTransaction(ctx, tx, &solanarpc.SimulateTransactionOpts{
		SigVerify:  false,
		Commitment: b.commitment,
	})
	if err != nil {
		return nil, fmt.Errorf("simulate transaction: %w", err)
	}
	if resp == nil || resp.Value == nil {
		return nil, fmt.Errorf("simulate transaction: empty result")
	}
	if simErr := types.ParseSimulationError(resp.Value.Err, resp.Value.Logs); simErr != nil {
		return resp.Value, simErr
	}
	return resp.Value, nil
}

// Send sends a signed transaction once. Failures match
// types.ErrSubmissionFailed.
func (b *Builder) Send(ctx context.Context, tx *solana.Transaction) (solana.Signature, error) {
	if b.client == nil {
		return solana.Signature{}, types.ErrNilRPC
	}
	opts := solanarpc.TransactionOpts{
		SkipPreflight:       true,
		PreflightCommitment: b.commitment,
	}
	sig, err := b.client.SendTransaction(ctx, tx, opts)
	if err != nil {
		return solana.Signature{}, fmt.Errorf("%w: %w", types.ErrSubmissionFailed, err)
	}
	return sig, nil
}

// Submit builds, signs, simulates (unless preflight is skipped), sends and
// confirms at level. No step is retried.
func (b *Builder) Submit(ctx context.Context, feePayer wallet.Signer, signers []wallet.Signer, level ConfirmationLevel, instructions ...solana.Instruction) (solana.Signature, error) {
	tx, err := b.BuildAndSign(ctx, feePayer, signers, instructions...)
	if err != nil {
		return solana.Signature{}, err
	}
	return b.SubmitSigned(ctx, tx, level)
}

// SubmitSigned is Submit for an already signed transaction.
func (b *Builder) SubmitSigned(ctx context.Context, tx *solana.Transaction, level ConfirmationLevel) (solana.Signature, error) {
	if !b.skipPreflight {
		if _, err := b.Simulate(ctx, tx); err != nil {
			return solana.Signature{}, err
		}
	}
	sig, err := b.Send(ctx, tx)
	if err != nil {
		return solana.Signature{}, err
	}
	b.log.Debug().Str("signature", sig.String()).Str("level", string(level)).Msg("transaction sent")

	if err := b.WaitForConfirmation(ctx, sig, level); err != nil {
		return sig, err
	}
	return sig, nil
}

// WaitForConfirmation polls transaction status until level is reached, the
// transaction fails, or ctx ends. Execution failures match
// types.ErrTransactionFailed; a context deadline matches
// types.ErrConfirmationTimeout.
func (b *Builder) WaitForConfirmation(ctx context.Context, sig solana.Signature, level ConfirmationLevel) error {
	if b.client == nil {
		return types.ErrNilRPC
	}

	ticker := time.NewTicker(b.pollInterval)
	defer ticker.Stop()

	for {
		resp, err := b.client.GetSignatureStatuses(ctx, sig)
		switch {
		case err != nil:
			b.log.Debug().Err(err).Str("signature", sig.String()).Msg("status poll failed")
		case resp != nil && len(resp.Value) > 0 && resp.Value[0] != nil:
			status := resp.Value[0]
			if status.Err != nil {
				return types.TransactionError{Signature: sig, Err: status.Err}
			}
			if reached(status.ConfirmationStatus, level) {
				return nil
			}
		}

		select {
		case <-ctx.Done():
			if errors.Is(ctx.Err(), context.DeadlineExceeded) {
				return fmt.Errorf("%w: %s", types.ErrConfirmationTimeout, sig)
			}
			return ctx.Err()
		case <-ticker.C:
		}
	}
}

func reached(status solanarpc.ConfirmationStatusType, level ConfirmationLevel) bool {
	switch level {
	case ConfirmationProcessed:
		return true // any status means processed
	case ConfirmationFinalized:
		return status == solanarpc.ConfirmationStatusFinalized
	default:
		return status == solanarpc.ConfirmationStatusConfirmed ||
			status == solanarpc.ConfirmationStatusFinalized
	}
}

// ToCommitment maps a confirmation level to the RPC commitment.
func ToCommitment(level ConfirmationLevel) solanarpc.CommitmentType {
	switch level {
	case ConfirmationProcessed:
		return solanarpc.CommitmentProcessed
	case ConfirmationFinalized:
		return solanarpc.CommitmentFinalized
	default:
		return solanarpc.CommitmentConfirmed
	}
}
