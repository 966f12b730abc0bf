// Package batch turns many wallet orders on one mint into a bounded list of
// transaction groups: wallets are chunked, every chunk is priced against one
// curve snapshot, and ATA creation is deduplicated through a session-owned
// registry.
package batch

import (
	"context"
	"fmt"

	"github.com/gagliardetto/solana-go"

	"github.com/ninja0404/pump-bundler/pkg/txbuilder"
	"github.com/ninja0404/pump-bundler/pkg/types"
	"github.com/ninja0404/pump-bundler/pkg/wallet"
)

// Order is one row of a batch: a signing wallet and an amount in base units
// (lamports for buys, raw token units for sells).
type Order struct {
	Signer wallet.Signer
	Amount uint64
}

// Chunk splits items into ceil(len/size) slices of at most size, preserving
// order. A non-positive size yields a single chunk.
func Chunk[T any](items []T, size int) [][]T {
	if len(items) == 0 {
		return nil
	}
	if size <= 0 {
		size = len(items)
	}
	out := make([][]T, 0, (len(items)+size-1)/size)
	for i := 0; i < len(items); i += size {
		end := min(i+size, len(items))
		out = append(out, items[i:end:end])
	}
	return out
}

// Registry is the set of ATA addresses known to exist or already scheduled
// for creation. It is not safe for concurrent use.
type Registry struct {
	seen   map[solana.PublicKey]struct{}
	parent *Registry
}

func newRegistry() *Registry {
	return &Registry{seen: make(map[solana.PublicKey]struct{})}
}

// stage returns a child registry that sees r but records additions
// locally until commit.
func (r *Registry) stage() *Registry {
	return &Registry{seen: make(map[solana.PublicKey]struct{}), parent: r}
}

// commit merges staged additions into the parent.
func (r *Registry) commit() {
	if r.parent == nil {
		return
	}
	for addr := range r.seen {
		r.parent.seen[addr] = struct{}{}
	}
	r.seen = make(map[solana.PublicKey]struct{})
}

// Has reports whether addr is registered.
func (r *Registry) Has(addr solana.PublicKey) bool {
	if _, ok := r.seen[addr]; ok {
		return true
	}
	return r.parent != nil && r.parent.Has(addr)
}

// Add registers addr and reports whether it was new.
func (r *Registry) Add(addr solana.PublicKey) bool {
	if r.Has(addr) {
		return false
	}
	r.seen[addr] = struct{}{}
	return true
}

// Len returns the number of registered addresses.
func (r *Registry) Len() int {
	return len(r.seen)
}

// Session scopes one orchestration run. Calls sharing a session never emit
// two create instructions for the same ATA.
type Session struct {
	registry *Registry
}

// NewSession starts a session with an empty registry.
func NewSession() *Session {
	return &Session{registry: newRegistry()}
}

// Registry returns the session registry, or nil once the session ended.
func (s *Session) Registry() *Registry {
	return s.registry
}

// End discards the registry. Further builds on s fail.
func (s *Session) End() {
	s.registry = nil
}

func (s *Session) active() (*Registry, error) {
	if s == nil || s.registry == nil {
		return nil, types.NewValidationError("session", "nil or ended")
	}
	return s.registry, nil
}

// Group is the instruction set of one transaction and the wallets that must
// sign it.
type Group struct {
	Index        int
	Instructions []solana.Instruction
	Signers      []wallet.Signer
	Orders       []Order
}

// Plan is the orchestrator output: one group per chunk plus the lookup
// tables the groups compile against.
type Plan struct {
	Groups       []Group
	LookupTables map[solana.PublicKey]solana.PublicKeySlice
}

// Compile builds every group into a signed transaction paid by payer. All
// transactions share one blockhash so they can travel in a single bundle.
func (p Plan) Compile(ctx context.Context, builder *txbuilder.Builder, payer wallet.Signer) ([]*solana.Transaction, error) {
	if payer == nil {
		return nil, types.ErrNilFeePayer
	}
	if len(p.Groups) == 0 {
		return nil, nil
	}
	b := builder.ForTables(p.LookupTables)
	blockhash, err := b.LatestBlockhash(ctx)
	if err != nil {
		return nil, err
	}

	txs := make([]*solana.Transaction, 0, len(p.Groups))
	for _, g := range p.Groups {
		tx, err := b.Compile(blockhash, payer.PublicKey(), g.Instructions...)
		if err != nil {
			return nil, fmt.Errorf("compile group %d: %w", g.Index, err)
		}
		signers := append([]wallet.Signer{payer}, g.Signers...)
		if err := txbuilder.SignTransaction(ctx, tx, signers...); err != nil {
			return nil, fmt.Errorf("sign group %d: %w", g.Index, err)
		}
		txs = append(txs, tx)
	}
	return txs, nil
}

// Split cuts p into plans of at most size groups, in group order. Each part
// keeps the lookup tables so it can be compiled on its own.
func (p Plan) Split(size int) []Plan {
	chunks := Chunk(p.Groups, size)
	out := make([]Plan, len(chunks))
	for i, groups := range chunks {
		out[i] = Plan{Groups: groups, LookupTables: p.LookupTables}
	}
	return out
}

// Signers returns every distinct signer of the plan in group order.
func (p Plan) Signers() []wallet.Signer {
	seen := make(map[solana.PublicKey]struct{})
	var out []wallet.Signer
	for _, g := range p.Groups {
		for _, s := range g.Signers {
			if _, ok := seen[s.PublicKey()]; ok {
				continue
			}
			seen[s.PublicKey()] = struct{}{}
			out = append(out, s)
		}
	}
	return out
}
