package main

import (
	"context"
	"errors"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/gagliardetto/solana-go"
	solanarpc "github.com/gagliardetto/solana-go/rpc"
	"github.com/spf13/cobra"

	"github.com/ninja0404/pump-bundler/pkg/events"
)

func newEventsCmd(opts *globalOpts) *cobra.Command {
	var (
		mintStr   string
		tradeOnly bool
	)
	cmd := &cobra.Command{
		Use:   "events",
		Short: "Stream pump program events until interrupted",
		RunE: func(cmd *cobra.Command, args []string) error {
			deps, err := newRuntime(cmd, opts)
			if err != nil {
				return err
			}
			var mint solana.PublicKey
			if mintStr != "" {
				if mint, err = parsePubkey("mint", mintStr); err != nil {
					return err
				}
			}

			ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
			defer stop()

			w := cmd.OutOrStdout()
			l := events.NewListener(deps.cfg.RPC.ResolveWSURL(),
				events.WithCommitment(solanarpc.CommitmentType(deps.cfg.RPC.Commitment)),
				events.WithLogger(deps.log),
			)
			events.On(l, func(ev events.TradeEvent, m events.Meta) {
				if !mint.IsZero() && ev.Mint != mint {
					return
				}
				side := "sell"
				if ev.IsBuy {
					side = "buy"
				}
				fmt.Fprintf(w, "%d trade %s %s %s tokens for %s SOL by %s (%s)\n",
					m.Slot, short(ev.Mint), side, formatTokens(ev.TokenAmount), formatSOL(ev.SolAmount), short(ev.User), m.Signature)
			})
			if !tradeOnly {
				events.On(l, func(ev events.CreateEvent, m events.Meta) {
					fmt.Fprintf(w, "%d create %s %q (%s) by %s uri=%s\n", m.Slot, ev.Mint, ev.Name, ev.Symbol, short(ev.User), ev.Uri)
				})
				events.On(l, func(ev events.CompleteEvent, m events.Meta) {
					if !mint.IsZero() && ev.Mint != mint {
						return
					}
					fmt.Fprintf(w, "%d complete %s\n", m.Slot, ev.Mint)
				})
			}

			deps.log.Info().Str("ws", deps.cfg.RPC.ResolveWSURL()).Msg("streaming events")
			if err := l.Run(ctx); err != nil && !errors.Is(err, context.Canceled) {
				return err
			}
			return nil
		},
	}
	cmd.Flags().StringVar(&mintStr, "mint", "", "only show trades of this mint")
	cmd.Flags().BoolVar(&tradeOnly, "trades", false, "only show trades")
	return cmd
}
