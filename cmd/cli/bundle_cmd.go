package main

import (
	"context"
	"time"

	"github.com/jedib0t/go-pretty/v6/table"
	"github.com/spf13/cobra"
)

func newBundleCmd(opts *globalOpts) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "bundle",
		Short: "Query the Jito block engines",
	}
	cmd.AddCommand(newBundleStatusCmd(opts), newBundleTipAccountsCmd(opts))
	return cmd
}

func newBundleStatusCmd(opts *globalOpts) *cobra.Command {
	return &cobra.Command{
		Use:   "status [bundle-id...]",
		Short: "Show the landing status of bundles",
		Args:  cobra.MinimumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			deps, err := newRuntime(cmd, opts)
			if err != nil {
				return err
			}
			ctx, cancel := context.WithTimeout(cmd.Context(), 30*time.Second)
			defer cancel()

			statuses, err := deps.jitoClient().BundleStatuses(ctx, args)
			if err != nil {
				return err
			}
			t := newTable(cmd.OutOrStdout(), "", table.Row{"bundle id", "slot", "status", "landed", "error"})
			for _, s := range statuses {
				t.AppendRow(table.Row{s.BundleID, s.Slot, s.ConfirmationStatus, s.Landed(), s.Err})
			}
			if len(statuses) == 0 {
				t.AppendRow(table.Row{args[0], "", "unknown", false, ""})
			}
			t.Render()
			return nil
		},
	}
}

func newBundleTipAccountsCmd(opts *globalOpts) *cobra.Command {
	return &cobra.Command{
		Use:   "tip-accounts",
		Short: "List the tip accounts advertised by the block engine",
		RunE: func(cmd *cobra.Command, args []string) error {
			deps, err := newRuntime(cmd, opts)
			if err != nil {
				return err
			}
			ctx, cancel := context.WithTimeout(cmd.Context(), 30*time.Second)
			defer cancel()

			accounts, err := deps.jitoClient().TipAccounts(ctx)
			if err != nil {
				return err
			}
			t := newTable(cmd.OutOrStdout(), "", table.Row{"#", "tip account"})
			for i, a := range accounts {
				t.AppendRow(table.Row{i, a})
			}
			t.Render()
			return nil
		},
	}
}
