package main

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/gagliardetto/solana-go"
	"github.com/jedib0t/go-pretty/v6/table"
	"github.com/spf13/cobra"

	"github.com/ninja0404/pump-bundler/pkg/autofill"
	"github.com/ninja0404/pump-bundler/pkg/program/pump"
	"github.com/ninja0404/pump-bundler/pkg/quote"
)

func newConfigCmd(opts *globalOpts) *cobra.Command {
	return &cobra.Command{
		Use:   "config",
		Short: "Show the effective configuration",
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, _, err := loadConfig(cmd, opts)
			if err != nil {
				return err
			}
			b := cfg.Bundler
			t := newTable(cmd.OutOrStdout(), "config", table.Row{"key", "value"})
			t.AppendRows([]table.Row{
				{"rpc.network", cfg.RPC.Network},
				{"rpc.url", cfg.RPC.ResolveRPCURL()},
				{"rpc.ws_url", cfg.RPC.ResolveWSURL()},
				{"rpc.commitment", cfg.RPC.Commitment},
				{"rpc.timeout", cfg.RPC.Timeout},
				{"rpc.rate_limit.rps", cfg.RPC.RateLimit.RPS},
				{"bundler.block_engines", len(b.BlockEngines)},
				{"bundler.tip", formatSOL(b.TipLamports) + " SOL"},
				{"bundler.treasury", b.Treasury},
				{"bundler.treasury_fee", formatSOL(b.TreasuryFee) + " SOL"},
				{"bundler.chunk_size", b.ChunkSize},
				{"bundler.ata_chunk_size", b.ATAChunkSize},
				{"bundler.slippage_bps", b.SlippageBps},
				{"bundler.buy_haircut_bps", b.BuyHaircutBps},
				{"bundler.lookup_table", b.LookupTable},
				{"bundler.confirm_timeout", b.ConfirmTimeout},
				{"keypair", cfg.KeypairPath != "" || cfg.KeypairHex != ""},
			})
			t.Render()
			return nil
		},
	}
}

func newAccountCmd(opts *globalOpts) *cobra.Command {
	return &cobra.Command{
		Use:   "account [pubkey]",
		Short: "Decode a pump global config or bonding curve account",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			pub, err := parsePubkey("account", args[0])
			if err != nil {
				return err
			}
			deps, err := newRuntime(cmd, opts)
			if err != nil {
				return err
			}

			ctx, cancel := context.WithTimeout(cmd.Context(), 10*time.Second)
			defer cancel()

			acc, err := deps.rpc.GetAccountInfo(ctx, pub)
			if err != nil {
				return fmt.Errorf("fetch account: %w", err)
			}
			if acc == nil || acc.Value == nil || acc.Value.Data == nil {
				return fmt.Errorf("account not found or empty")
			}
			name, decoded, err := decodeKnownAccount(acc.Value.Data.GetBinary())
			if err != nil {
				return err
			}
			bz, _ := json.MarshalIndent(decoded, "", "  ")
			fmt.Fprintf(cmd.OutOrStdout(), "account=%s owner=%s\n%s\n", name, acc.Value.Owner, string(bz))
			if curve, ok := decoded.(*pump.BondingCurve); ok && !curve.Complete {
				fmt.Fprintf(cmd.OutOrStdout(), "spot price: %s SOL per token\n", formatPrice(quote.SpotPrice(*curve)))
			}
			return nil
		},
	}
}

func decodeKnownAccount(data []byte) (string, interface{}, error) {
	if len(data) < 8 {
		return "", nil, fmt.Errorf("account data too short")
	}
	decoders := []struct {
		name string
		disc []byte
		alloc func() interface{ Unmarshal([]byte) error }
	}{
		{"pump.BondingCurve", pump.BondingCurveDiscriminator, func() interface{ Unmarshal([]byte) error } { return &pump.BondingCurve{} }},
		{"pump.Global", pump.GlobalDiscriminator, func() interface{ Unmarshal([]byte) error } { return &pump.Global{} }},
	}

	for _, d := range decoders {
		if bytes.Equal(data[:8], d.disc) {
			inst := d.alloc()
			if err := inst.Unmarshal(data); err != nil {
				return d.name, nil, err
			}
			return d.name, inst, nil
		}
	}
	return "", nil, fmt.Errorf("unknown discriminator")
}

func newBalanceCmd(opts *globalOpts) *cobra.Command {
	var (
		mintStr   string
		inputPath string
	)
	cmd := &cobra.Command{
		Use:   "balance [pubkey...]",
		Short: "Show SOL and token balances of wallets",
		RunE: func(cmd *cobra.Command, args []string) error {
			deps, err := newRuntime(cmd, opts)
			if err != nil {
				return err
			}
			owners, err := balanceOwners(deps, args, inputPath)
			if err != nil {
				return err
			}

			ctx, cancel := context.WithTimeout(cmd.Context(), 30*time.Second)
			defer cancel()

			var (
				mint   solana.PublicKey
				tokens map[solana.PublicKey]uint64
				atas   = make([]solana.PublicKey, len(owners))
			)
			if mintStr != "" {
				if mint, err = parsePubkey("mint", mintStr); err != nil {
					return err
				}
				market, err := autofill.LoadMarket(ctx, deps.rpc, mint)
				if err != nil {
					return err
				}
				for i, owner := range owners {
					if atas[i], err = autofill.FindATA(owner, mint, market.TokenProgram); err != nil {
						return err
					}
				}
				if tokens, err = autofill.TokenBalances(ctx, deps.rpc, atas...); err != nil {
					return err
				}
			}

			header := table.Row{"#", "wallet", "SOL"}
			if mintStr != "" {
				header = append(header, "tokens")
			}
			t := newTable(cmd.OutOrStdout(), "", header)
			var total uint64
			for i, owner := range owners {
				lamports, err := deps.rpc.GetBalance(ctx, owner)
				if err != nil {
					return err
				}
				total += lamports
				row := table.Row{i, owner.String(), formatSOL(lamports)}
				if mintStr != "" {
					row = append(row, formatTokens(tokens[atas[i]]))
				}
				t.AppendRow(row)
			}
			t.AppendFooter(table.Row{"", "total", formatSOL(total)})
			t.Render()
			return nil
		},
	}
	cmd.Flags().StringVar(&mintStr, "mint", "", "also show balances of this token")
	cmd.Flags().StringVar(&inputPath, "input", "", "batch input file whose wallets to list")
	return cmd
}

func balanceOwners(deps *runtimeDeps, args []string, inputPath string) ([]solana.PublicKey, error) {
	var owners []solana.PublicKey
	for _, a := range args {
		pk, err := parsePubkey("wallet", a)
		if err != nil {
			return nil, err
		}
		owners = append(owners, pk)
	}
	if inputPath != "" {
		orders, err := loadOrders(inputPath, true)
		if err != nil {
			return nil, err
		}
		for _, o := range orders {
			owners = append(owners, o.Signer.PublicKey())
		}
	}
	if len(owners) == 0 {
		payer, err := deps.payer()
		if err != nil {
			return nil, err
		}
		owners = append(owners, payer.PublicKey())
	}
	return owners, nil
}
