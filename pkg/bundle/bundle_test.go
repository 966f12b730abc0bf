package bundle

import (
	"bytes"
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	bin "github.com/gagliardetto/binary"
	"github.com/gagliardetto/solana-go"
	"github.com/gagliardetto/solana-go/programs/system"
	"github.com/mr-tron/base58"
	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/ninja0404/pump-bundler/internal/chaintest"
	"github.com/ninja0404/pump-bundler/pkg/txbuilder"
	"github.com/ninja0404/pump-bundler/pkg/types"
	"github.com/ninja0404/pump-bundler/pkg/wallet"
)

type fakeRelay struct {
	name  string
	id    string
	err   error
	panic bool
	block bool

	mu  sync.Mutex
	got [][]string
}

func (r *fakeRelay) Name() string { return r.name }

func (r *fakeRelay) SendBundle(ctx context.Context, txs []string) (string, error) {
	r.mu.Lock()
	r.got = append(r.got, txs)
	r.mu.Unlock()
	if r.panic {
		panic("relay exploded")
	}
	if r.block {
		<-ctx.Done()
		return "", ctx.Err()
	}
	return r.id, r.err
}

func newPayer(t *testing.T) wallet.Signer {
	t.Helper()
	w, err := wallet.NewRandomLocal()
	require.NoError(t, err)
	return w
}

func signedGroup(t *testing.T, b *txbuilder.Builder, payer wallet.Signer) *solana.Transaction {
	t.Helper()
	ix := system.NewTransferInstruction(5_000, payer.PublicKey(), solana.NewWallet().PublicKey()).Build()
	tx, err := b.BuildAndSign(context.Background(), payer, nil, ix)
	require.NoError(t, err)
	return tx
}

func decode(t *testing.T, s string) *solana.Transaction {
	t.Helper()
	raw, err := base58.Decode(s)
	require.NoError(t, err)
	tx, err := solana.TransactionFromDecoder(bin.NewBinDecoder(raw))
	require.NoError(t, err)
	return tx
}

func newSubmitter(t *testing.T, chain *chaintest.Chain, relays ...Relay) (*Submitter, solana.PublicKey) {
	t.Helper()
	treasury := solana.NewWallet().PublicKey()
	s, err := NewSubmitter(Config{
		Builder:        txbuilder.NewBuilder(chain, "").WithPollInterval(time.Millisecond),
		Relays:         relays,
		TipLamports:    2_000_000,
		Treasury:       treasury,
		TreasuryFee:    500_000,
		ConfirmTimeout: time.Second,
		RelayTimeout:   50 * time.Millisecond,
		Logger:         zerolog.Nop(),
	})
	require.NoError(t, err)
	return s, treasury
}

func TestNewSubmitter_Validation(t *testing.T) {
	_, err := NewSubmitter(Config{Relays: []Relay{&fakeRelay{}}})
	assert.ErrorIs(t, err, types.ErrInvalidInput)

	_, err = NewSubmitter(Config{Builder: txbuilder.NewBuilder(chaintest.New(), "")})
	assert.ErrorIs(t, err, types.ErrInvalidInput)

	s, err := NewSubmitter(Config{Builder: txbuilder.NewBuilder(chaintest.New(), ""), Relays: []Relay{&fakeRelay{name: "a"}}})
	require.NoError(t, err)
	assert.Equal(t, uint64(DefaultTipLamports), s.tipLamports)
	assert.Equal(t, DefaultConfirmTimeout, s.confirmTimeout)
	assert.NotEmpty(t, s.tipAccounts)
	assert.Equal(t, []string{"a"}, s.Relays())
}

func TestSubmit_PartialAcceptanceConfirms(t *testing.T) {
	chain := chaintest.New()
	payer := newPayer(t)
	ok := &fakeRelay{name: "ok", id: "bundle-1"}
	bad := &fakeRelay{name: "bad", err: errors.New("connection refused")}
	s, treasury := newSubmitter(t, chain, bad, ok)

	group := signedGroup(t, s.builder, payer)
	res := s.Submit(context.Background(), []*solana.Transaction{group}, payer, true)

	require.NoError(t, res.Err)
	assert.True(t, res.Confirmed)
	assert.Equal(t, "bundle-1", res.BundleID)
	assert.Equal(t, 1, res.Accepted)
	assert.False(t, res.TipSignature.IsZero())

	require.Len(t, ok.got, 1)
	require.Len(t, bad.got, 1)
	assert.Equal(t, ok.got[0], bad.got[0], "every relay gets the same bundle")
	require.Len(t, ok.got[0], 2)

	tip := decode(t, ok.got[0][0])
	assert.Equal(t, res.TipSignature, tip.Signatures[0], "tip transaction goes first")
	require.Len(t, tip.Message.Instructions, 2)
	assert.Contains(t, tip.Message.AccountKeys, treasury)
	assert.Equal(t, group.Signatures[0], decode(t, ok.got[0][1]).Signatures[0])

	assert.Zero(t, chain.Calls("sendTransaction"), "bundle transactions never go through the rpc")
}

func TestBroadcast_WarnsOnRejection(t *testing.T) {
	var buf bytes.Buffer
	s, _ := newSubmitter(t, chaintest.New(),
		&fakeRelay{name: "flaky", err: errors.New("rate limited")},
		&fakeRelay{name: "ok", id: "bundle-7"},
	)
	s.log = zerolog.New(zerolog.SyncWriter(&buf)).Level(zerolog.WarnLevel)

	ids := s.broadcast(context.Background(), []string{"tx"})
	assert.Equal(t, []string{"", "bundle-7"}, ids)

	out := buf.String()
	assert.Contains(t, out, `"level":"warn"`)
	assert.Contains(t, out, `"relay":"flaky"`)
	assert.Contains(t, out, "rate limited")
	assert.NotContains(t, out, `"relay":"ok"`)
}

func TestSubmit_NoTreasuryWithoutFeePay(t *testing.T) {
	chain := chaintest.New()
	payer := newPayer(t)
	ok := &fakeRelay{name: "ok", id: "bundle-2"}
	s, treasury := newSubmitter(t, chain, ok)

	res := s.Submit(context.Background(), nil, payer, false)
	require.True(t, res.Confirmed)

	tip := decode(t, ok.got[0][0])
	require.Len(t, tip.Message.Instructions, 1)
	assert.NotContains(t, tip.Message.AccountKeys, treasury)
}

func TestSubmit_ZeroAcceptances(t *testing.T) {
	chain := chaintest.New()
	payer := newPayer(t)
	s, _ := newSubmitter(t, chain,
		&fakeRelay{name: "a", err: errors.New("rate limited")},
		&fakeRelay{name: "b", block: true},
		&fakeRelay{name: "c", panic: true},
	)

	res := s.Submit(context.Background(), []*solana.Transaction{signedGroup(t, s.builder, newPayer(t))}, payer, true)
	assert.False(t, res.Confirmed)
	assert.ErrorIs(t, res.Err, types.ErrBundleUnaccepted)
	assert.True(t, res.TipSignature.IsZero())
	assert.Empty(t, res.BundleID)
	assert.Zero(t, chain.Calls("getSignatureStatuses"))
}

func TestSubmit_PanickingRelayDoesNotBlockOthers(t *testing.T) {
	chain := chaintest.New()
	s, _ := newSubmitter(t, chain, &fakeRelay{name: "p", panic: true}, &fakeRelay{name: "ok", id: "bundle-3"})

	res := s.Submit(context.Background(), nil, newPayer(t), false)
	assert.True(t, res.Confirmed)
	assert.Equal(t, "bundle-3", res.BundleID)
}

func TestSubmit_TipExecutionFailure(t *testing.T) {
	chain := chaintest.New()
	chain.TxErr = map[string]interface{}{"InstructionError": []interface{}{0, "Custom"}}
	s, _ := newSubmitter(t, chain, &fakeRelay{name: "ok", id: "bundle-4"})

	res := s.Submit(context.Background(), nil, newPayer(t), false)
	assert.False(t, res.Confirmed)
	assert.ErrorIs(t, res.Err, types.ErrTransactionFailed)
	assert.False(t, res.TipSignature.IsZero())
	assert.Equal(t, "bundle-4", res.BundleID)
}

func TestSubmit_ConfirmationTimeout(t *testing.T) {
	chain := chaintest.New()
	chain.Pending = true
	s, _ := newSubmitter(t, chain, &fakeRelay{name: "ok", id: "bundle-5"})
	s.confirmTimeout = 20 * time.Millisecond

	res := s.Submit(context.Background(), nil, newPayer(t), false)
	assert.False(t, res.Confirmed)
	assert.ErrorIs(t, res.Err, types.ErrConfirmationTimeout)
}

func TestSubmit_Errors(t *testing.T) {
	chain := chaintest.New()
	relay := &fakeRelay{name: "ok", id: "bundle-6"}
	s, _ := newSubmitter(t, chain, relay)

	res := s.Submit(context.Background(), nil, nil, false)
	assert.ErrorIs(t, res.Err, types.ErrNilFeePayer)

	payer := newPayer(t)
	var txs []*solana.Transaction
	for i := 0; i < 5; i++ {
		txs = append(txs, signedGroup(t, s.builder, payer))
	}
	res = s.Submit(context.Background(), txs, payer, false)
	assert.False(t, res.Confirmed)
	assert.ErrorIs(t, res.Err, types.ErrInvalidInput, "tip plus five groups exceeds the bundle limit")
	assert.Empty(t, relay.got)

	res = s.Submit(context.Background(), []*solana.Transaction{nil}, payer, false)
	assert.False(t, res.Confirmed)
	assert.Error(t, res.Err)
}
