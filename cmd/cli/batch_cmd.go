package main

import (
	"context"
	"fmt"
	"io"
	"time"

	"github.com/gagliardetto/solana-go"
	"github.com/jedib0t/go-pretty/v6/table"
	"github.com/spf13/cobra"

	"github.com/ninja0404/pump-bundler/pkg/batch"
	"github.com/ninja0404/pump-bundler/pkg/jito"
	"github.com/ninja0404/pump-bundler/pkg/txbuilder"
	"github.com/ninja0404/pump-bundler/pkg/wallet"
)

// loadOrders reads a batch input file. Sell amounts are in tokens, buy
// amounts in SOL.
func loadOrders(path string, sell bool) ([]batch.Order, error) {
	if sell {
		return batch.LoadInput(path, batch.SellDecimals)
	}
	return batch.LoadInput(path, batch.BuyDecimals)
}

type batchFlags struct {
	mint      string
	input     string
	chunkSize int
	noBundle  bool
	noFee     bool
}

func (f *batchFlags) register(cmd *cobra.Command) {
	cmd.Flags().StringVar(&f.mint, "mint", "", "token mint")
	cmd.Flags().StringVar(&f.input, "input", "", "batch input file: [{\"wallet\": \"<base58 secret>\", \"amount\": 0.1}]")
	cmd.Flags().IntVar(&f.chunkSize, "chunk-size", 0, "wallets per transaction (overrides config)")
	_ = cmd.MarkFlagRequired("mint")
	_ = cmd.MarkFlagRequired("input")
}

func newBatchCmd(opts *globalOpts) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "batch",
		Short: "Trade from many wallets in chunked transactions sent as Jito bundles",
	}
	cmd.AddCommand(
		newBatchPlanCmd(opts),
		newBatchTradeCmd(opts, false),
		newBatchTradeCmd(opts, true),
		newBatchATACmd(opts),
	)
	return cmd
}

func newBatchPlanCmd(opts *globalOpts) *cobra.Command {
	var (
		f    batchFlags
		sell bool
	)
	cmd := &cobra.Command{
		Use:   "plan",
		Short: "Print the transaction groups a batch would be split into",
		RunE: func(cmd *cobra.Command, args []string) error {
			deps, mint, orders, bopts, err := f.load(cmd, opts, sell)
			if err != nil {
				return err
			}
			ctx, cancel := context.WithTimeout(cmd.Context(), time.Minute)
			defer cancel()

			sess := batch.NewSession()
			defer sess.End()
			orch := deps.orchestrator()
			build := orch.BuildBuyGroups
			if sell {
				build = orch.BuildSellGroups
			}
			plan, err := build(ctx, sess, mint, orders, bopts)
			if err != nil {
				return err
			}
			printPlan(cmd.OutOrStdout(), plan)
			fmt.Fprintf(cmd.OutOrStdout(), "bundles: %d\n", len(bundlePlans(plan)))
			return nil
		},
	}
	f.register(cmd)
	cmd.Flags().BoolVar(&sell, "sell", false, "plan sells instead of buys")
	return cmd
}

func newBatchTradeCmd(opts *globalOpts, sell bool) *cobra.Command {
	var f batchFlags
	use, short := "buy", "Buy from every wallet in the input file"
	if sell {
		use, short = "sell", "Sell from every wallet in the input file"
	}
	cmd := &cobra.Command{
		Use:   use,
		Short: short,
		RunE: func(cmd *cobra.Command, args []string) error {
			deps, mint, orders, bopts, err := f.load(cmd, opts, sell)
			if err != nil {
				return err
			}
			payer, err := deps.payer()
			if err != nil {
				return err
			}
			bopts.ATAPayer = payer

			ctx, cancel := context.WithTimeout(cmd.Context(), 10*time.Minute)
			defer cancel()

			sess := batch.NewSession()
			defer sess.End()
			orch := deps.orchestrator()
			build := orch.BuildBuyGroups
			if sell {
				build = orch.BuildSellGroups
			}
			plan, err := build(ctx, sess, mint, orders, bopts)
			if err != nil {
				return err
			}
			printPlan(cmd.OutOrStdout(), plan)
			if f.noBundle {
				return sendPlan(ctx, cmd, deps, plan, payer)
			}
			return submitPlan(ctx, cmd, deps, plan, payer, !f.noFee)
		},
	}
	f.register(cmd)
	cmd.Flags().BoolVar(&f.noBundle, "no-bundle", false, "send each transaction over RPC instead of Jito")
	cmd.Flags().BoolVar(&f.noFee, "no-fee", false, "skip the treasury fee in the tip transaction")
	return cmd
}

func newBatchATACmd(opts *globalOpts) *cobra.Command {
	var f batchFlags
	cmd := &cobra.Command{
		Use:   "ata",
		Short: "Create missing token accounts for every wallet, paid by the payer",
		RunE: func(cmd *cobra.Command, args []string) error {
			deps, mint, orders, bopts, err := f.load(cmd, opts, false)
			if err != nil {
				return err
			}
			payer, err := deps.payer()
			if err != nil {
				return err
			}
			owners := make([]solana.PublicKey, 0, len(orders))
			for _, o := range orders {
				owners = append(owners, o.Signer.PublicKey())
			}

			ctx, cancel := context.WithTimeout(cmd.Context(), 10*time.Minute)
			defer cancel()

			sess := batch.NewSession()
			defer sess.End()
			plan, err := deps.orchestrator().BuildATAGroups(ctx, sess, mint, owners, payer, bopts)
			if err != nil {
				return err
			}
			if len(plan.Groups) == 0 {
				fmt.Fprintln(cmd.OutOrStdout(), "every token account already exists")
				return nil
			}
			printPlan(cmd.OutOrStdout(), plan)
			if f.noBundle {
				return sendPlan(ctx, cmd, deps, plan, payer)
			}
			return submitPlan(ctx, cmd, deps, plan, payer, false)
		},
	}
	f.register(cmd)
	cmd.Flags().BoolVar(&f.noBundle, "no-bundle", false, "send each transaction over RPC instead of Jito")
	return cmd
}

func (f *batchFlags) load(cmd *cobra.Command, opts *globalOpts, sell bool) (*runtimeDeps, solana.PublicKey, []batch.Order, batch.Options, error) {
	mint, err := parsePubkey("mint", f.mint)
	if err != nil {
		return nil, mint, nil, batch.Options{}, err
	}
	orders, err := loadOrders(f.input, sell)
	if err != nil {
		return nil, mint, nil, batch.Options{}, err
	}
	deps, err := newRuntime(cmd, opts)
	if err != nil {
		return nil, mint, nil, batch.Options{}, err
	}
	bopts := deps.batchOptions()
	if f.chunkSize > 0 {
		bopts.ChunkSize = f.chunkSize
		bopts.ATAChunkSize = f.chunkSize
	}
	return deps, mint, orders, bopts, nil
}

func printPlan(w io.Writer, plan batch.Plan) {
	t := newTable(w, "plan", table.Row{"group", "wallets", "instructions", "signers", "amount"})
	for _, g := range plan.Groups {
		var total uint64
		for _, o := range g.Orders {
			total += o.Amount
		}
		t.AppendRow(table.Row{g.Index, len(g.Orders), len(g.Instructions), len(g.Signers), total})
	}
	t.AppendFooter(table.Row{"", "", "", "lookup tables", len(plan.LookupTables)})
	t.Render()
}

// bundlePlans splits plan into bundles leaving room for the tip
// transaction.
func bundlePlans(plan batch.Plan) []batch.Plan {
	return plan.Split(jito.MaxBundleSize - 1)
}

// submitPlan sends plan as one or more bundles in group order. Each bundle
// is compiled against a fresh blockhash right before it is sent. Only the
// first bundle carries the treasury fee.
func submitPlan(ctx context.Context, cmd *cobra.Command, deps *runtimeDeps, plan batch.Plan, payer wallet.Signer, feePay bool) error {
	sub, err := deps.submitter()
	if err != nil {
		return err
	}

	t := newTable(cmd.OutOrStdout(), "bundles", table.Row{"#", "txs", "accepted", "bundle id", "tip signature", "status"})
	defer t.Render()
	for i, part := range bundlePlans(plan) {
		txs, err := part.Compile(ctx, deps.builder, payer)
		if err != nil {
			return fmt.Errorf("bundle %d: %w", i, err)
		}
		res := sub.Submit(ctx, txs, payer, feePay && i == 0)
		status := "confirmed"
		if res.Err != nil {
			status = res.Err.Error()
		}
		t.AppendRow(table.Row{i, len(txs), fmt.Sprintf("%d/%d", res.Accepted, len(sub.Relays())), res.BundleID, res.TipSignature, status})
		if !res.Confirmed {
			return fmt.Errorf("bundle %d: %w", i, res.Err)
		}
	}
	return nil
}

// sendPlan submits every group as its own transaction over RPC.
func sendPlan(ctx context.Context, cmd *cobra.Command, deps *runtimeDeps, plan batch.Plan, payer wallet.Signer) error {
	txs, err := plan.Compile(ctx, deps.builder, payer)
	if err != nil {
		return err
	}
	for i, tx := range txs {
		sig, err := deps.builder.SubmitSigned(ctx, tx, txbuilder.ConfirmationConfirmed)
		if err != nil {
			return fmt.Errorf("group %d: %w", i, err)
		}
		fmt.Fprintf(cmd.OutOrStdout(), "group %d: %s\n", i, sig)
	}
	return nil
}
