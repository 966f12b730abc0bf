package rpc

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/cenkalti/backoff/v5"
	"github.com/gagliardetto/solana-go"
	solanarpc "github.com/gagliardetto/solana-go/rpc"
	"github.com/rs/zerolog"
	"golang.org/x/time/rate"

	"github.com/ninja0404/pump-bundler/pkg/config"
	"github.com/ninja0404/pump-bundler/pkg/types"
)

// Client wraps solana-go rpc.Client with retry, timeout, and rate limiting.
// Reads are retried with exponential backoff; sends are attempted once.
type Client struct {
	raw     *solanarpc.Client
	cfg     config.RPCConfig
	limiter *rate.Limiter
	log     zerolog.Logger
}

// NewClient builds a configured Client.
func NewClient(cfg config.RPCConfig) *Client {
	return newClient(solanarpc.New(cfg.ResolveRPCURL()), cfg)
}

func newClient(raw *solanarpc.Client, cfg config.RPCConfig) *Client {
	var limiter *rate.Limiter
	if cfg.RateLimit.RPS > 0 {
		burst := cfg.RateLimit.Burst
		if burst == 0 {
			burst = int(cfg.RateLimit.RPS * 2)
		}
		if burst < 1 {
			burst = 1
		}
		limiter = rate.NewLimiter(rate.Limit(cfg.RateLimit.RPS), burst)
	}

	log := cfg.Logger
	if log.GetLevel() == zerolog.NoLevel {
		log = zerolog.Nop()
	}

	return &Client{
		raw:     raw,
		cfg:     cfg,
		limiter: limiter,
		log:     log,
	}
}

// Raw exposes the underlying solana-go client.
func (c *Client) Raw() *solanarpc.Client {
	return c.raw
}

// Commitment returns the configured default commitment.
func (c *Client) Commitment() solanarpc.CommitmentType {
	if c.cfg.Commitment == "" {
		return solanarpc.CommitmentConfirmed
	}
	return solanarpc.CommitmentType(c.cfg.Commitment)
}

// GetLatestBlockhash fetches the latest blockhash at the configured commitment.
func (c *Client) GetLatestBlockhash(ctx context.Context) (*solanarpc.GetLatestBlockhashResult, error) {
	var out *solanarpc.GetLatestBlockhashResult
	err := c.call(ctx, "getLatestBlockhash", func(ctx context.Context) error {
		var err error
		out, err = c.raw.GetLatestBlockhash(ctx, c.Commitment())
		return err
	})
	return out, err
}

// GetAccountInfo fetches one account. A missing account yields solanarpc.ErrNotFound.
func (c *Client) GetAccountInfo(ctx context.Context, account solana.PublicKey) (*solanarpc.GetAccountInfoResult, error) {
	var out *solanarpc.GetAccountInfoResult
	err := c.call(ctx, "getAccountInfo", func(ctx context.Context) error {
		var err error
		out, err = c.raw.GetAccountInfoWithOpts(ctx, account, &solanarpc.GetAccountInfoOpts{
			Commitment: c.Commitment(),
			Encoding:   solana.EncodingBase64,
		})
		return err
	})
	return out, err
}

// GetMultipleAccounts fetches several accounts in one request. Missing
// accounts come back as nil entries in Value.
func (c *Client) GetMultipleAccounts(ctx context.Context, accounts ...solana.PublicKey) (*solanarpc.GetMultipleAccountsResult, error) {
	var out *solanarpc.GetMultipleAccountsResult
	err := c.call(ctx, "getMultipleAccounts", func(ctx context.Context) error {
		var err error
		out, err = c.raw.GetMultipleAccountsWithOpts(ctx, accounts, &solanarpc.GetMultipleAccountsOpts{
			Commitment: c.Commitment(),
			Encoding:   solana.EncodingBase64,
		})
		return err
	})
	return out, err
}

// GetProgramAccounts lists accounts owned by program matching opts.
func (c *Client) GetProgramAccounts(ctx context.Context, program solana.PublicKey, opts *solanarpc.GetProgramAccountsOpts) (solanarpc.GetProgramAccountsResult, error) {
	var out solanarpc.GetProgramAccountsResult
	err := c.call(ctx, "getProgramAccounts", func(ctx context.Context) error {
		var err error
		out, err = c.raw.GetProgramAccountsWithOpts(ctx, program, opts)
		return err
	})
	return out, err
}

// GetSlot returns the current slot at the given commitment.
func (c *Client) GetSlot(ctx context.Context, commitment solanarpc.CommitmentType) (uint64, error) {
	var out uint64
	err := c.call(ctx, "getSlot", func(ctx context.Context) error {
		var err error
		out, err = c.raw.GetSlot(ctx, commitment)
		return err
	})
	return out, err
}

// GetBalance returns the lamport balance of account.
func (c *Client) GetBalance(ctx context.Context, account solana.PublicKey) (uint64, error) {
	var out uint64
	err := c.call(ctx, "getBalance", func(ctx context.Context) error {
		res, err := c.raw.GetBalance(ctx, account, c.Commitment())
		if err != nil {
			return err
		}
		out = res.Value
		return nil
	})
	return out, err
}

// GetSignatureStatuses looks up statuses, searching transaction history.
func (c *Client) GetSignatureStatuses(ctx context.Context, sigs ...solana.Signature) (*solanarpc.GetSignatureStatusesResult, error) {
	var out *solanarpc.GetSignatureStatusesResult
	err := c.call(ctx, "getSignatureStatuses", func(ctx context.Context) error {
		var err error
		out, err = c.raw.GetSignatureStatuses(ctx, true, sigs...)
		return err
	})
	return out, err
}

// SendTransaction submits a signed transaction. It is never retried: a
// duplicate submission of a trade must be an explicit caller decision.
func (c *Client) SendTransaction(ctx context.Context, tx *solana.Transaction, opts solanarpc.TransactionOpts) (solana.Signature, error) {
	var sig solana.Signature
	err := c.once(ctx, "sendTransaction", func(ctx context.Context) error {
		var err error
		sig, err = c.raw.SendTransactionWithOpts(ctx, tx, opts)
		return err
	})
	return sig, err
}

// SimulateTransaction simulates a transaction for preflight checks.
func (c *Client) SimulateTransaction(ctx context.Context, tx *solana.Transaction, opts *solanarpc.SimulateTransactionOpts) (*solanarpc.SimulateTransactionResponse, error) {
	var res *solanarpc.SimulateTransactionResponse
	err := c.call(ctx, "simulateTransaction", func(ctx context.Context) error {
		var err error
		res, err = c.raw.SimulateTransactionWithOpts(ctx, tx, opts)
		return err
	})
	return res, err
}

// once runs fn a single time under the rate limit and the per-call timeout.
func (c *Client) once(ctx context.Context, op string, fn func(context.Context) error) error {
	if err := c.attempt(ctx, fn); err != nil {
		return types.RPCError{Op: op, Err: err}
	}
	return nil
}

func (c *Client) call(ctx context.Context, op string, fn func(context.Context) error) error {
	attempts := c.cfg.Retry.MaxAttempts
	if !c.cfg.Retry.Enabled || attempts <= 1 {
		return c.once(ctx, op, fn)
	}

	attempt := 0
	operation := func() (struct{}, error) {
		attempt++
		err := c.attempt(ctx, fn)
		if err != nil && (ctx.Err() != nil || !retryable(err)) {
			return struct{}{}, backoff.Permanent(err)
		}
		return struct{}{}, err
	}
	notify := func(err error, d time.Duration) {
		c.log.Debug().
			Str("op", op).
			Int("attempt", attempt).
			Dur("backoff", d).
			Err(err).
			Msg("rpc retry")
	}

	_, err := backoff.Retry(ctx, operation,
		backoff.WithBackOff(c.policy()),
		backoff.WithMaxTries(uint(attempts)),
		backoff.WithNotify(notify))
	if err != nil {
		if attempt > 1 {
			err = fmt.Errorf("failed after %d attempts: %w", attempt, err)
		}
		return types.RPCError{Op: op, Err: err}
	}
	return nil
}

func (c *Client) attempt(ctx context.Context, fn func(context.Context) error) error {
	ctx, cancel := c.withTimeout(ctx)
	defer cancel()

	if c.limiter != nil {
		if err := c.limiter.Wait(ctx); err != nil {
			return err
		}
	}
	return fn(ctx)
}

func (c *Client) withTimeout(ctx context.Context) (context.Context, context.CancelFunc) {
	if c.cfg.Timeout <= 0 {
		return context.WithCancel(ctx)
	}
	return context.WithTimeout(ctx, c.cfg.Timeout)
}

func (c *Client) policy() *backoff.ExponentialBackOff {
	policy := backoff.NewExponentialBackOff()
	if c.cfg.Retry.InitialBackoff > 0 {
		policy.InitialInterval = c.cfg.Retry.InitialBackoff
	}
	if c.cfg.Retry.MaxBackoff > 0 {
		policy.MaxInterval = c.cfg.Retry.MaxBackoff
	}
	if !c.cfg.Retry.Jitter {
		policy.RandomizationFactor = 0
	}
	return policy
}

func retryable(err error) bool {
	if err == nil {
		return true
	}
	if errors.Is(err, context.Canceled) {
		return false
	}
	// Absent accounts are an answer, not a transport failure.
	if errors.Is(err, solanarpc.ErrNotFound) {
		return false
	}
	return true
}
