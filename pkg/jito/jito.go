// Package jito is the client side of the Jito block engine bundle API:
// relay endpoints, the tip account pool and base58 bundle encoding.
//
// For more information, see: https://github.com/jito-labs/jito-go-rpc
package jito

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"math/rand/v2"
	"strings"
	"sync/atomic"
	"time"

	"github.com/gagliardetto/solana-go"
	jitorpc "github.com/jito-labs/jito-go-rpc"
	"github.com/mr-tron/base58"

	"github.com/ninja0404/pump-bundler/pkg/types"
)

// Default Jito Block Engine endpoints
const (
	MainnetBlockEngine = "https://mainnet.block-engine.jito.wtf/api/v1"
	TestnetBlockEngine = "https://testnet.block-engine.jito.wtf/api/v1"
)

// MaxBundleSize is the most transactions one bundle may carry.
const MaxBundleSize = 5

// MainnetBlockEngines contains all available Jito mainnet endpoints.
var MainnetBlockEngines = []string{
	"https://mainnet.block-engine.jito.wtf/api/v1",
	"https://amsterdam.mainnet.block-engine.jito.wtf/api/v1",
	"https://frankfurt.mainnet.block-engine.jito.wtf/api/v1",
	"https://ny.mainnet.block-engine.jito.wtf/api/v1",
	"https://tokyo.mainnet.block-engine.jito.wtf/api/v1",
}

// MainnetTipAccounts are the official Jito tip accounts. Any one is valid.
var MainnetTipAccounts = []solana.PublicKey{
	solana.MustPublicKeyFromBase58("96gYZGLnJYVFmbjzopPSU6QiEV5fGqZNyN9nmNhvrZU5"),
	solana.MustPublicKeyFromBase58("HFqU5x63VTqvQss8hp11i4wVV8bD44PvwucfZ2bU7gRe"),
	solana.MustPublicKeyFromBase58("Cw8CFyM9FkoMi7K7Crf6HNQqf4uEMzpKw6QNghXLvLkY"),
	solana.MustPublicKeyFromBase58("ADaUMid9yfUytqMBgopwjb2DTLSokTSzL1zt6iGPaS49"),
	solana.MustPublicKeyFromBase58("DfXygSm4jCyNCybVYYK6DwvWqjKee8pbDmJGcLWNDXjh"),
	solana.MustPublicKeyFromBase58("ADuUkR4vqLUMWXxW9gh6D6L8pMSawimctcNZ5pGwDcEt"),
	solana.MustPublicKeyFromBase58("DttWaMuVvTiduZRnguLF7jNxTgiMBZ1hyAumKUiL2KRL"),
	solana.MustPublicKeyFromBase58("3AVi9Tg9Uo68tJfuvoKvqKNWKkC5wPdSSdeBnizKZ6jT"),
}

// RandomTipAccount picks a tip account from pool, or from
// MainnetTipAccounts when pool is empty.
func RandomTipAccount(pool ...solana.PublicKey) solana.PublicKey {
	if len(pool) == 0 {
		pool = MainnetTipAccounts
	}
	return pool[rand.IntN(len(pool))]
}

// EncodeBundle serializes signed transactions to the base58 wire form
// sendBundle expects, preserving order.
func EncodeBundle(txs ...*solana.Transaction) ([]string, error) {
	if len(txs) == 0 {
		return nil, types.NewValidationError("bundle", "requires at least one transaction")
	}
	if len(txs) > MaxBundleSize {
		return nil, types.NewValidationError("bundle", fmt.Sprintf("%d transactions exceed the limit of %d", len(txs), MaxBundleSize))
	}
	out := make([]string, 0, len(txs))
	for i, tx := range txs {
		if tx == nil {
			return nil, types.NewValidationError("bundle", fmt.Sprintf("transaction %d is nil", i))
		}
		raw, err := tx.MarshalBinary()
		if err != nil {
			return nil, fmt.Errorf("marshal transaction %d: %w", i, err)
		}
		out = append(out, base58.Encode(raw))
	}
	return out, nil
}

// BundleStatus is the landed state of one bundle.
type BundleStatus struct {
	BundleID           string
	Slot               uint64
	ConfirmationStatus string
	Err                interface{}
}

// Landed reports whether the bundle reached confirmed or finalized.
func (s BundleStatus) Landed() bool {
	return s.ConfirmationStatus == "confirmed" || s.ConfirmationStatus == "finalized"
}

// Endpoint is one block engine. Calls are bounded by ctx even though the
// underlying client is not context aware.
type Endpoint struct {
	url    string
	client *jitorpc.JitoJsonRpcClient
}

// NewEndpoint creates an endpoint. uuid is optional.
func NewEndpoint(url, uuid string) *Endpoint {
	if url == "" {
		url = MainnetBlockEngine
	}
	return &Endpoint{url: url, client: jitorpc.NewJitoJsonRpcClient(url, uuid)}
}

// Endpoints creates one endpoint per url, defaulting to MainnetBlockEngines.
func Endpoints(urls []string, uuid string) []*Endpoint {
	if len(urls) == 0 {
		urls = MainnetBlockEngines
	}
	out := make([]*Endpoint, 0, len(urls))
	for _, u := range urls {
		out = append(out, NewEndpoint(u, uuid))
	}
	return out
}

// Name returns the endpoint URL.
func (e *Endpoint) Name() string {
	return e.url
}

// SendBundle submits base58 transactions and returns the bundle id.
func (e *Endpoint) SendBundle(ctx context.Context, txs []string) (string, error) {
	raw, err := call(ctx, func() (json.RawMessage, error) {
		return e.client.SendBundle([][]string{txs})
	})
	if err != nil {
		return "", fmt.Errorf("send bundle to %s: %w", e.url, err)
	}
	var bundleID string
	if err := json.Unmarshal(raw, &bundleID); err != nil {
		return "", fmt.Errorf("unmarshal bundle response from %s: %w", e.url, err)
	}
	if bundleID == "" {
		return "", fmt.Errorf("send bundle to %s: empty bundle id", e.url)
	}
	return bundleID, nil
}

// BundleStatuses returns the statuses of landed bundles among ids. Bundles
// the engine does not know yet are absent from the result.
func (e *Endpoint) BundleStatuses(ctx context.Context, ids []string) ([]BundleStatus, error) {
	resp, err := call(ctx, func() (*jitorpc.BundleStatusResponse, error) {
		return e.client.GetBundleStatuses(ids)
	})
	if err != nil {
		return nil, fmt.Errorf("get bundle statuses from %s: %w", e.url, err)
	}
	if resp == nil {
		return nil, nil
	}
	return decodeStatuses(resp)
}

type wireStatuses struct {
	Value []struct {
		BundleID           string `json:"bundle_id"`
		Slot               uint64 `json:"slot"`
		ConfirmationStatus string `json:"confirmation_status"`
		Err                struct {
			Ok interface{} `json:"Ok"`
		} `json:"err"`
	} `json:"value"`
}

// decodeStatuses round-trips the client response through its wire form.
func decodeStatuses(resp interface{}) ([]BundleStatus, error) {
	raw, err := json.Marshal(resp)
	if err != nil {
		return nil, fmt.Errorf("marshal bundle statuses: %w", err)
	}
	var wire wireStatuses
	if err := json.Unmarshal(raw, &wire); err != nil {
		return nil, fmt.Errorf("unmarshal bundle statuses: %w", err)
	}
	out := make([]BundleStatus, 0, len(wire.Value))
	for _, v := range wire.Value {
		out = append(out, BundleStatus{
			BundleID:           v.BundleID,
			Slot:               v.Slot,
			ConfirmationStatus: v.ConfirmationStatus,
			Err:                v.Err.Ok,
		})
	}
	return out, nil
}

// TipAccounts fetches the current tip accounts from the engine.
func (e *Endpoint) TipAccounts(ctx context.Context) ([]solana.PublicKey, error) {
	raw, err := call(ctx, func() (json.RawMessage, error) {
		return e.client.GetTipAccounts()
	})
	if err != nil {
		return nil, fmt.Errorf("get tip accounts from %s: %w", e.url, err)
	}
	var accounts []string
	if err := json.Unmarshal(raw, &accounts); err != nil {
		return nil, fmt.Errorf("unmarshal tip accounts: %w", err)
	}
	result := make([]solana.PublicKey, 0, len(accounts))
	for _, acc := range accounts {
		pk, err := solana.PublicKeyFromBase58(acc)
		if err != nil {
			continue
		}
		result = append(result, pk)
	}
	return result, nil
}

// call runs fn in its own goroutine so ctx can abandon it.
func call[T any](ctx context.Context, fn func() (T, error)) (T, error) {
	type result struct {
		v   T
		err error
	}
	done := make(chan result, 1)
	go func() {
		v, err := fn()
		done <- result{v, err}
	}()
	select {
	case r := <-done:
		return r.v, r.err
	case <-ctx.Done():
		var zero T
		return zero, ctx.Err()
	}
}

// Client rotates read calls across endpoints, moving on when one is rate
// limited.
type Client struct {
	endpoints  []*Endpoint
	next       atomic.Uint32
	retryDelay time.Duration
}

// NewClient creates a client over endpoints.
//
// Example:
//
//	client := jito.NewClient(jito.Endpoints(nil, ""))
func NewClient(endpoints []*Endpoint) *Client {
	if len(endpoints) == 0 {
		endpoints = Endpoints(nil, "")
	}
	return &Client{endpoints: endpoints, retryDelay: 100 * time.Millisecond}
}

// WithRetryDelay sets the pause between rate-limited attempts.
func (c *Client) WithRetryDelay(d time.Duration) *Client {
	c.retryDelay = d
	return c
}

func (c *Client) endpoint() *Endpoint {
	idx := c.next.Add(1) - 1
	return c.endpoints[int(idx)%len(c.endpoints)]
}

// BundleStatuses asks the endpoints in turn until one answers.
func (c *Client) BundleStatuses(ctx context.Context, ids []string) ([]BundleStatus, error) {
	return rotate(ctx, c, func(e *Endpoint) ([]BundleStatus, error) {
		return e.BundleStatuses(ctx, ids)
	})
}

// TipAccounts asks the endpoints in turn until one answers.
func (c *Client) TipAccounts(ctx context.Context) ([]solana.PublicKey, error) {
	return rotate(ctx, c, func(e *Endpoint) ([]solana.PublicKey, error) {
		return e.TipAccounts(ctx)
	})
}

func rotate[T any](ctx context.Context, c *Client, fn func(*Endpoint) (T, error)) (T, error) {
	var (
		zero    T
		lastErr error
	)
	attempts := len(c.endpoints) + 2
	for i := 0; i < attempts; i++ {
		v, err := fn(c.endpoint())
		if err == nil {
			return v, nil
		}
		lastErr = err
		if !isRateLimitError(err) {
			return zero, err
		}
		select {
		case <-ctx.Done():
			return zero, ctx.Err()
		case <-time.After(c.retryDelay):
		}
	}
	return zero, fmt.Errorf("failed after %d attempts: %w", attempts, lastErr)
}

// isRateLimitError checks if the error is a rate limit error.
func isRateLimitError(err error) bool {
	if err == nil || errors.Is(err, context.Canceled) || errors.Is(err, context.DeadlineExceeded) {
		return false
	}
	errStr := strings.ToLower(err.Error())
	return strings.Contains(errStr, "rate limit") ||
		strings.Contains(errStr, "congested") ||
		strings.Contains(errStr, "429")
}
