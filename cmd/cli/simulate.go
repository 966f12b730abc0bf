package main

import (
	"context"
	"fmt"
	"io"

	"github.com/gagliardetto/solana-go"
	solanarpc "github.com/gagliardetto/solana-go/rpc"

	"github.com/ninja0404/pump-bundler/pkg/wallet"
)

// simulate builds and signs ixs without sending them. Simulation failures
// are returned alongside the result so their logs can still be printed.
func simulate(ctx context.Context, deps *runtimeDeps, payer wallet.Signer, signers []wallet.Signer, ixs ...solana.Instruction) (*solanarpc.SimulateTransactionResult, error) {
	tx, err := deps.builder.BuildAndSign(ctx, payer, signers, ixs...)
	if err != nil {
		return nil, fmt.Errorf("build tx: %w", err)
	}
	return deps.builder.Simulate(ctx, tx)
}

func printSimResult(w io.Writer, res *solanarpc.SimulateTransactionResult, simErr error) {
	if res == nil {
		fmt.Fprintf(w, "no simulation result: %v\n", simErr)
		return
	}
	if simErr != nil {
		fmt.Fprintf(w, "simulation error: %v\n", simErr)
	} else {
		fmt.Fprintln(w, "simulation ok")
	}
	if res.UnitsConsumed != nil {
		fmt.Fprintf(w, "compute units: %d\n", *res.UnitsConsumed)
	}
	if len(res.Logs) > 0 {
		fmt.Fprintln(w, "logs:")
		for _, l := range res.Logs {
			fmt.Fprintf(w, "  %s\n", l)
		}
	}
}
