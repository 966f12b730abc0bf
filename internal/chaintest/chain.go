// Package chaintest provides an in-memory stand-in for the RPC surface used by
// the bundler packages, plus encoders for pump account data. Test use only.
package chaintest

import (
	"bytes"
	"context"
	"sync"

	bin "github.com/gagliardetto/binary"
	"github.com/gagliardetto/solana-go"
	solanarpc "github.com/gagliardetto/solana-go/rpc"

	"github.com/ninja0404/pump-bundler/pkg/program/pump"
)

// Chain is a fake RPC backend holding accounts in memory. The zero value is
// not usable; call New.
type Chain struct {
	mu       sync.Mutex
	accounts map[solana.PublicKey]*solanarpc.Account
	calls    map[string]int

	// MultiErr, when set, fails every GetMultipleAccounts call.
	MultiErr error
	// SendErr, when set, fails every SendTransaction call.
	SendErr error
	// SimErr is reported as the simulation error value when non-nil.
	SimErr interface{}
	// SimLogs are returned with every simulation.
	SimLogs []string
	// TxErr is reported as the execution error of every landed signature.
	TxErr interface{}
	// Pending keeps signature statuses empty so confirmation never completes.
	Pending bool
	// Slot is returned by GetSlot.
	Slot uint64

	Sent      []*solana.Transaction
	Simulated []*solana.Transaction
	Blockhash solana.Hash
}

// New returns an empty chain with a random blockhash.
func New() *Chain {
	return &Chain{
		accounts:  make(map[solana.PublicKey]*solanarpc.Account),
		calls:     make(map[string]int),
		Blockhash: solana.HashFromBytes(solana.NewWallet().PublicKey().Bytes()),
		Slot:      1000,
	}
}

// Calls returns how many times op was invoked.
func (c *Chain) Calls(op string) int {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.calls[op]
}

func (c *Chain) count(op string) {
	c.calls[op]++
}

// Set stores an account.
func (c *Chain) Set(key, owner solana.PublicKey, data []byte) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.accounts[key] = &solanarpc.Account{
		Lamports: 1_000_000,
		Owner:    owner,
		Data:     solanarpc.DataBytesOrJSONFromBytes(data),
	}
}

// Delete removes an account.
func (c *Chain) Delete(key solana.PublicKey) {
	c.mu.Lock()
	defer c.mu.Unlock()
	delete(c.accounts, key)
}

// SetGlobal stores the pump global config.
func (c *Chain) SetGlobal(global pump.Global) solana.PublicKey {
	addr, _, _ := pump.DeriveBuyGlobalPDA(pump.BuyAccounts{}, pump.BuyArgs{})
	c.Set(addr, pump.ProgramKey, EncodeAccount(pump.GlobalDiscriminator, global))
	return addr
}

// SetCurve stores the bonding curve of mint.
func (c *Chain) SetCurve(mint solana.PublicKey, curve pump.BondingCurve) solana.PublicKey {
	addr, _, _ := pump.DeriveBuyBondingCurvePDA(pump.BuyAccounts{Mint: mint}, pump.BuyArgs{})
	c.Set(addr, pump.ProgramKey, EncodeAccount(pump.BondingCurveDiscriminator, curve))
	return addr
}

// SetMint stores a bare mint account owned by tokenProgram.
func (c *Chain) SetMint(mint, tokenProgram solana.PublicKey) {
	c.Set(mint, tokenProgram, make([]byte, 82))
}

// GetAccountInfo mirrors solana-go: a missing account yields ErrNotFound.
func (c *Chain) GetAccountInfo(ctx context.Context, account solana.PublicKey) (*solanarpc.GetAccountInfoResult, error) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.count("getAccountInfo")
	acc, ok := c.accounts[account]
	if !ok {
		return nil, solanarpc.ErrNotFound
	}
	return &solanarpc.GetAccountInfoResult{Value: acc}, nil
}

// GetMultipleAccounts returns nil entries for missing accounts.
func (c *Chain) GetMultipleAccounts(ctx context.Context, accounts ...solana.PublicKey) (*solanarpc.GetMultipleAccountsResult, error) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.count("getMultipleAccounts")
	if c.MultiErr != nil {
		return nil, c.MultiErr
	}
	out := &solanarpc.GetMultipleAccountsResult{Value: make([]*solanarpc.Account, len(accounts))}
	for i, key := range accounts {
		out.Value[i] = c.accounts[key]
	}
	return out, nil
}

// GetProgramAccounts returns every stored account owned by program whose data
// matches all memcmp filters.
func (c *Chain) GetProgramAccounts(ctx context.Context, program solana.PublicKey, opts *solanarpc.GetProgramAccountsOpts) (solanarpc.GetProgramAccountsResult, error) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.count("getProgramAccounts")
	var out solanarpc.GetProgramAccountsResult
	for key, acc := range c.accounts {
		if !acc.Owner.Equals(program) {
			continue
		}
		if opts != nil && !matchesFilters(acc.Data.GetBinary(), opts.Filters) {
			continue
		}
		out = append(out, &solanarpc.KeyedAccount{Pubkey: key, Account: acc})
	}
	return out, nil
}

func matchesFilters(data []byte, filters []solanarpc.RPCFilter) bool {
	for _, f := range filters {
		if f.Memcmp == nil {
			continue
		}
		off := int(f.Memcmp.Offset)
		want := []byte(f.Memcmp.Bytes)
		if off+len(want) > len(data) || !bytes.Equal(data[off:off+len(want)], want) {
			return false
		}
	}
	return true
}

// GetSlot returns Slot.
func (c *Chain) GetSlot(ctx context.Context, commitment solanarpc.CommitmentType) (uint64, error) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.count("getSlot")
	return c.Slot, nil
}

// GetLatestBlockhash returns Blockhash.
func (c *Chain) GetLatestBlockhash(ctx context.Context) (*solanarpc.GetLatestBlockhashResult, error) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.count("getLatestBlockhash")
	return &solanarpc.GetLatestBlockhashResult{
		Value: &solanarpc.LatestBlockhashResult{Blockhash: c.Blockhash, LastValidBlockHeight: 100},
	}, nil
}

// SimulateTransaction records tx and reports SimErr/SimLogs.
func (c *Chain) SimulateTransaction(ctx context.Context, tx *solana.Transaction, opts *solanarpc.SimulateTransactionOpts) (*solanarpc.SimulateTransactionResponse, error) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.count("simulateTransaction")
	c.Simulated = append(c.Simulated, tx)
	return &solanarpc.SimulateTransactionResponse{
		Value: &solanarpc.SimulateTransactionResult{Err: c.SimErr, Logs: c.SimLogs},
	}, nil
}

// SendTransaction records tx and returns its first signature.
func (c *Chain) SendTransaction(ctx context.Context, tx *solana.Transaction, opts solanarpc.TransactionOpts) (solana.Signature, error) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.count("sendTransaction")
	if c.SendErr != nil {
		return solana.Signature{}, c.SendErr
	}
	c.Sent = append(c.Sent, tx)
	if len(tx.Signatures) == 0 {
		return solana.Signature{}, nil
	}
	return tx.Signatures[0], nil
}

// GetSignatureStatuses reports every signature as finalized with TxErr,
// unless Pending is set.
func (c *Chain) GetSignatureStatuses(ctx context.Context, sigs ...solana.Signature) (*solanarpc.GetSignatureStatusesResult, error) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.count("getSignatureStatuses")
	out := &solanarpc.GetSignatureStatusesResult{Value: make([]*solanarpc.SignatureStatusesResult, len(sigs))}
	if c.Pending {
		return out, nil
	}
	for i := range sigs {
		out.Value[i] = &solanarpc.SignatureStatusesResult{
			Slot:               c.Slot,
			ConfirmationStatus: solanarpc.ConfirmationStatusFinalized,
			Err:                c.TxErr,
		}
	}
	return out, nil
}

// EncodeAccount prefixes the Borsh encoding of v with disc.
func EncodeAccount(disc []byte, v interface{}) []byte {
	buf := new(bytes.Buffer)
	buf.Write(disc)
	if err := bin.NewBorshEncoder(buf).Encode(v); err != nil {
		panic(err)
	}
	return buf.Bytes()
}

// Global returns a mainnet-like global config.
func Global(feeRecipient solana.PublicKey) pump.Global {
	return pump.Global{
		Initialized:                 true,
		Authority:                   solana.NewWallet().PublicKey(),
		FeeRecipient:                feeRecipient,
		InitialVirtualTokenReserves: 1_073_000_000_000_000,
		InitialVirtualSolReserves:   30_000_000_000,
		InitialRealTokenReserves:    793_100_000_000_000,
		TokenTotalSupply:            1_000_000_000_000_000,
		FeeBasisPoints:              100,
	}
}

// Curve returns an open curve with the given virtual reserves and generous
// real reserves.
func Curve(virtualSol, virtualToken uint64, creator solana.PublicKey) pump.BondingCurve {
	return pump.BondingCurve{
		VirtualTokenReserves: virtualToken,
		VirtualSolReserves:   virtualSol,
		RealTokenReserves:    virtualToken,
		RealSolReserves:      virtualSol,
		TokenTotalSupply:     1_000_000_000_000_000,
		Creator:              creator,
	}
}
