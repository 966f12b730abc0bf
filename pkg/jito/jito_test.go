package jito

import (
	"context"
	"encoding/json"
	"errors"
	"io"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	bin "github.com/gagliardetto/binary"
	"github.com/gagliardetto/solana-go"
	"github.com/gagliardetto/solana-go/programs/system"
	"github.com/mr-tron/base58"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/ninja0404/pump-bundler/pkg/types"
)

func signedTransfer(t *testing.T) *solana.Transaction {
	t.Helper()
	payer := solana.NewWallet()
	tx, err := solana.NewTransaction(
		[]solana.Instruction{system.NewTransferInstruction(1, payer.PublicKey(), solana.NewWallet().PublicKey()).Build()},
		solana.Hash{1},
		solana.TransactionPayer(payer.PublicKey()),
	)
	require.NoError(t, err)
	_, err = tx.Sign(func(key solana.PublicKey) *solana.PrivateKey {
		if key.Equals(payer.PublicKey()) {
			return &payer.PrivateKey
		}
		return nil
	})
	require.NoError(t, err)
	return tx
}

// rpcServer answers every JSON-RPC call with result and records the
// request method and body.
func rpcServer(t *testing.T, result string) (*httptest.Server, *[]string, *[]string) {
	t.Helper()
	var methods, bodies []string
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		raw, _ := io.ReadAll(r.Body)
		var req struct {
			Method string `json:"method"`
		}
		_ = json.Unmarshal(raw, &req)
		methods = append(methods, req.Method)
		bodies = append(bodies, string(raw))
		w.Header().Set("Content-Type", "application/json")
		_, _ = io.WriteString(w, `{"jsonrpc":"2.0","id":1,"result":`+result+`}`)
	}))
	t.Cleanup(srv.Close)
	return srv, &methods, &bodies
}

func TestEncodeBundle(t *testing.T) {
	a, b := signedTransfer(t), signedTransfer(t)

	out, err := EncodeBundle(a, b)
	require.NoError(t, err)
	require.Len(t, out, 2)
	for i, want := range []*solana.Transaction{a, b} {
		raw, err := base58.Decode(out[i])
		require.NoError(t, err)
		got, err := solana.TransactionFromDecoder(bin.NewBinDecoder(raw))
		require.NoError(t, err)
		assert.Equal(t, want.Signatures[0], got.Signatures[0], "order preserved at %d", i)
	}
}

func TestEncodeBundle_Limits(t *testing.T) {
	_, err := EncodeBundle()
	assert.ErrorIs(t, err, types.ErrInvalidInput)

	txs := make([]*solana.Transaction, MaxBundleSize+1)
	for i := range txs {
		txs[i] = signedTransfer(t)
	}
	_, err = EncodeBundle(txs...)
	assert.ErrorIs(t, err, types.ErrInvalidInput)

	_, err = EncodeBundle(signedTransfer(t), nil)
	assert.ErrorIs(t, err, types.ErrInvalidInput)
}

func TestRandomTipAccount(t *testing.T) {
	pool := []solana.PublicKey{solana.NewWallet().PublicKey(), solana.NewWallet().PublicKey()}
	for i := 0; i < 20; i++ {
		assert.Contains(t, pool, RandomTipAccount(pool...))
	}
	assert.Contains(t, MainnetTipAccounts, RandomTipAccount())
}

func TestEndpoints_Defaults(t *testing.T) {
	eps := Endpoints(nil, "")
	require.Len(t, eps, len(MainnetBlockEngines))
	assert.Equal(t, MainnetBlockEngines[0], eps[0].Name())

	eps = Endpoints([]string{"http://relay.local/api/v1"}, "uuid")
	require.Len(t, eps, 1)
	assert.Equal(t, "http://relay.local/api/v1", eps[0].Name())
}

func TestEndpoint_SendBundle(t *testing.T) {
	srv, methods, bodies := rpcServer(t, `"b-123"`)
	ep := NewEndpoint(srv.URL, "")

	encoded, err := EncodeBundle(signedTransfer(t), signedTransfer(t))
	require.NoError(t, err)

	id, err := ep.SendBundle(context.Background(), encoded)
	require.NoError(t, err)
	assert.Equal(t, "b-123", id)
	require.Len(t, *methods, 1)
	assert.Equal(t, "sendBundle", (*methods)[0])
	for _, tx := range encoded {
		assert.Contains(t, (*bodies)[0], tx)
	}
}

func TestEndpoint_SendBundleEmptyID(t *testing.T) {
	srv, _, _ := rpcServer(t, `""`)
	_, err := NewEndpoint(srv.URL, "").SendBundle(context.Background(), []string{"x"})
	assert.Error(t, err)
}

func TestEndpoint_SendBundleHonorsContext(t *testing.T) {
	release := make(chan struct{})
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		<-release
	}))
	t.Cleanup(srv.Close)
	t.Cleanup(func() { close(release) })

	ctx, cancel := context.WithTimeout(context.Background(), 20*time.Millisecond)
	defer cancel()
	_, err := NewEndpoint(srv.URL, "").SendBundle(ctx, []string{"x"})
	assert.ErrorIs(t, err, context.DeadlineExceeded)
}

func TestEndpoint_BundleStatuses(t *testing.T) {
	srv, methods, _ := rpcServer(t, `{"context":{"slot":10},"value":[
		{"bundle_id":"b-1","transactions":["s1"],"slot":9,"confirmation_status":"confirmed","err":{"Ok":null}}
	]}`)

	statuses, err := NewEndpoint(srv.URL, "").BundleStatuses(context.Background(), []string{"b-1"})
	require.NoError(t, err)
	require.Len(t, statuses, 1)
	assert.Equal(t, "getBundleStatuses", (*methods)[0])
	assert.Equal(t, "b-1", statuses[0].BundleID)
	assert.Equal(t, uint64(9), statuses[0].Slot)
	assert.True(t, statuses[0].Landed())
	assert.Nil(t, statuses[0].Err)
}

func TestEndpoint_TipAccounts(t *testing.T) {
	want := MainnetTipAccounts[0].String()
	srv, _, _ := rpcServer(t, `["`+want+`","not-a-key"]`)

	got, err := NewEndpoint(srv.URL, "").TipAccounts(context.Background())
	require.NoError(t, err)
	assert.Equal(t, []solana.PublicKey{MainnetTipAccounts[0]}, got)
}

func TestIsRateLimitError(t *testing.T) {
	assert.True(t, isRateLimitError(errors.New("HTTP 429 Too Many Requests")))
	assert.True(t, isRateLimitError(errors.New("Network congested")))
	assert.False(t, isRateLimitError(errors.New("bad request")))
	assert.False(t, isRateLimitError(context.DeadlineExceeded))
	assert.False(t, isRateLimitError(nil))
}

func TestClient_RotatesPastRateLimits(t *testing.T) {
	calls := 0
	limited := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		calls++
		w.WriteHeader(http.StatusTooManyRequests)
		_, _ = io.WriteString(w, `{"jsonrpc":"2.0","id":1,"error":{"code":429,"message":"rate limit exceeded"}}`)
	}))
	t.Cleanup(limited.Close)
	ok, _, _ := rpcServer(t, `["`+MainnetTipAccounts[1].String()+`"]`)

	client := NewClient([]*Endpoint{NewEndpoint(limited.URL, ""), NewEndpoint(ok.URL, "")}).WithRetryDelay(time.Millisecond)
	got, err := client.TipAccounts(context.Background())
	require.NoError(t, err)
	assert.Equal(t, []solana.PublicKey{MainnetTipAccounts[1]}, got)
	assert.Equal(t, 1, calls)
}
