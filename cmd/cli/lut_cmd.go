package main

import (
	"context"
	"fmt"
	"time"

	"github.com/gagliardetto/solana-go"
	"github.com/jedib0t/go-pretty/v6/table"
	"github.com/spf13/cobra"

	"github.com/ninja0404/pump-bundler/pkg/lut"
	"github.com/ninja0404/pump-bundler/pkg/quote"
)

func newLUTCmd(opts *globalOpts) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "lut",
		Short: "Manage address lookup tables owned by the payer",
	}
	cmd.AddCommand(
		newLUTCreateCmd(opts),
		newLUTTeardownCmd(opts, "deactivate"),
		newLUTTeardownCmd(opts, "close"),
		newLUTShowCmd(opts),
	)
	return cmd
}

func (d *runtimeDeps) lutManager() *lut.Manager {
	return lut.NewManager(d.rpc, d.builder, d.log)
}

func newLUTCreateCmd(opts *globalOpts) *cobra.Command {
	var (
		mintStr    string
		creatorStr string
		inputPath  string
	)
	cmd := &cobra.Command{
		Use:   "create",
		Short: "Create a table holding the accounts a batch on the mint touches",
		RunE: func(cmd *cobra.Command, args []string) error {
			mint, err := parsePubkey("mint", mintStr)
			if err != nil {
				return err
			}
			orders, err := loadOrders(inputPath, false)
			if err != nil {
				return err
			}
			deps, err := newRuntime(cmd, opts)
			if err != nil {
				return err
			}
			payer, err := deps.payer()
			if err != nil {
				return err
			}

			ctx, cancel := context.WithTimeout(cmd.Context(), 5*time.Minute)
			defer cancel()

			creator := payer.PublicKey()
			if creatorStr != "" {
				if creator, err = parsePubkey("creator", creatorStr); err != nil {
					return err
				}
			} else if curve, _, err := quote.FetchCurve(ctx, deps.rpc, mint); err == nil {
				creator = curve.Creator
			}
			global, err := quote.FetchGlobal(ctx, deps.rpc)
			if err != nil {
				return err
			}
			wallets := make([]solana.PublicKey, 0, len(orders)+1)
			wallets = append(wallets, payer.PublicKey())
			for _, o := range orders {
				wallets = append(wallets, o.Signer.PublicKey())
			}
			addrs, err := lut.CollectAddresses(mint, creator, global.FeeRecipient, wallets)
			if err != nil {
				return err
			}

			tbl, sigs, err := deps.lutManager().Create(ctx, payer, addrs)
			if err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "lookup table: %s (%d addresses, %d transactions)\n", tbl, len(addrs)+1, len(sigs))
			fmt.Fprintln(cmd.OutOrStdout(), "set bundler.lookup_table to use it")
			return nil
		},
	}
	cmd.Flags().StringVar(&mintStr, "mint", "", "token mint")
	cmd.Flags().StringVar(&creatorStr, "creator", "", "token creator, read from the curve when omitted")
	cmd.Flags().StringVar(&inputPath, "input", "", "batch input file whose wallets to table")
	_ = cmd.MarkFlagRequired("mint")
	_ = cmd.MarkFlagRequired("input")
	return cmd
}

func newLUTTeardownCmd(opts *globalOpts, action string) *cobra.Command {
	short := "Deactivate every table owned by the payer"
	if action == "close" {
		short = "Close every deactivated table owned by the payer and reclaim rent"
	}
	return &cobra.Command{
		Use:   action,
		Short: short,
		RunE: func(cmd *cobra.Command, args []string) error {
			deps, err := newRuntime(cmd, opts)
			if err != nil {
				return err
			}
			payer, err := deps.payer()
			if err != nil {
				return err
			}
			ctx, cancel := context.WithTimeout(cmd.Context(), 5*time.Minute)
			defer cancel()

			m := deps.lutManager()
			teardown := m.DeactivateAll
			if action == "close" {
				teardown = m.CloseAll
			}
			sigs, err := teardown(ctx, payer)
			for _, sig := range sigs {
				fmt.Fprintf(cmd.OutOrStdout(), "tx signature: %s\n", sig)
			}
			return err
		},
	}
}

func newLUTShowCmd(opts *globalOpts) *cobra.Command {
	return &cobra.Command{
		Use:   "show [table]",
		Short: "List the payer's tables, or the addresses of one table",
		Args:  cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			deps, err := newRuntime(cmd, opts)
			if err != nil {
				return err
			}
			ctx, cancel := context.WithTimeout(cmd.Context(), 30*time.Second)
			defer cancel()

			if len(args) == 1 {
				pk, err := parsePubkey("table", args[0])
				if err != nil {
					return err
				}
				addrs, err := lut.Resolve(ctx, deps.rpc, pk)
				if err != nil {
					return err
				}
				t := newTable(cmd.OutOrStdout(), pk.String(), table.Row{"#", "address"})
				for i, a := range addrs {
					t.AppendRow(table.Row{i, a})
				}
				t.Render()
				return nil
			}

			payer, err := deps.payer()
			if err != nil {
				return err
			}
			tables, err := deps.lutManager().Owned(ctx, payer.PublicKey())
			if err != nil {
				return err
			}
			t := newTable(cmd.OutOrStdout(), "tables of "+short(payer.PublicKey()), table.Row{"#", "table"})
			for i, tbl := range tables {
				t.AppendRow(table.Row{i, tbl})
			}
			t.Render()
			return nil
		},
	}
}
