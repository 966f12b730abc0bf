package main

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/gagliardetto/solana-go"
	"github.com/jedib0t/go-pretty/v6/table"
	"github.com/spf13/cobra"

	"github.com/ninja0404/pump-bundler/pkg/autofill"
	"github.com/ninja0404/pump-bundler/pkg/batch"
	"github.com/ninja0404/pump-bundler/pkg/metadata"
	"github.com/ninja0404/pump-bundler/pkg/quote"
	"github.com/ninja0404/pump-bundler/pkg/txbuilder"
	"github.com/ninja0404/pump-bundler/pkg/wallet"
)

func newQuoteCmd(opts *globalOpts) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "quote",
		Short: "Price a trade against the current bonding curve",
	}
	cmd.AddCommand(newQuoteSideCmd(opts, quote.Buy), newQuoteSideCmd(opts, quote.Sell))
	return cmd
}

func newQuoteSideCmd(opts *globalOpts, dir quote.Direction) *cobra.Command {
	var (
		mintStr     string
		amountStr   string
		slippageBps uint64
	)
	cmd := &cobra.Command{
		Use:   dir.String(),
		Short: fmt.Sprintf("Quote a %s", dir),
		RunE: func(cmd *cobra.Command, args []string) error {
			mint, err := parsePubkey("mint", mintStr)
			if err != nil {
				return err
			}
			deps, err := newRuntime(cmd, opts)
			if err != nil {
				return err
			}
			ctx, cancel := context.WithTimeout(cmd.Context(), 20*time.Second)
			defer cancel()

			market, err := autofill.LoadMarket(ctx, deps.rpc, mint)
			if err != nil {
				return err
			}
			curve := market.Curve

			t := newTable(cmd.OutOrStdout(), fmt.Sprintf("%s %s", dir, short(mint)), table.Row{"field", "value"})
			switch dir {
			case quote.Buy:
				solIn, err := parseSOL(amountStr)
				if err != nil {
					return err
				}
				q, err := quote.BuyQuote(curve, solIn, market.Global.FeeBasisPoints, slippageBps)
				if err != nil {
					return err
				}
				t.AppendRows([]table.Row{
					{"sol in", formatSOL(solIn)},
					{"tokens out", formatTokens(q.AmountOut)},
					{"sol with fee", formatSOL(q.AmountInWithFee)},
					{"max sol cost", formatSOL(q.Limit)},
					{"price impact bps", quote.PriceImpactBps(curve, solIn, q.AmountOut)},
				})
			default:
				tokensIn, err := parseTokens(amountStr)
				if err != nil {
					return err
				}
				q, err := quote.SellQuote(curve, tokensIn, market.Global.FeeBasisPoints, slippageBps)
				if err != nil {
					return err
				}
				t.AppendRows([]table.Row{
					{"tokens in", formatTokens(tokensIn)},
					{"sol out", formatSOL(q.AmountOut)},
					{"min sol output", formatSOL(q.Limit)},
				})
			}
			t.AppendRows([]table.Row{
				{"spot price", formatPrice(quote.SpotPrice(curve))},
				{"curve complete", curve.Complete},
			})
			t.Render()
			return nil
		},
	}
	cmd.Flags().StringVar(&mintStr, "mint", "", "token mint")
	cmd.Flags().StringVar(&amountStr, "amount", "", "SOL to spend (buy) or tokens to sell (sell)")
	cmd.Flags().Uint64Var(&slippageBps, "slippage-bps", batch.DefaultSlippageBps, "slippage tolerance in basis points")
	_ = cmd.MarkFlagRequired("mint")
	_ = cmd.MarkFlagRequired("amount")
	return cmd
}

type tradeFlags struct {
	mint         string
	amount       string
	slippageBps  uint64
	overridePath string
	preview      bool
	simulate     bool
	jitoTip      string
	closeATA     bool
}

func (f *tradeFlags) register(cmd *cobra.Command, amountUsage string) {
	cmd.Flags().StringVar(&f.mint, "mint", "", "token mint")
	cmd.Flags().StringVar(&f.amount, "amount", "", amountUsage)
	cmd.Flags().Uint64Var(&f.slippageBps, "slippage-bps", batch.DefaultSlippageBps, "slippage tolerance in basis points")
	cmd.Flags().StringVar(&f.overridePath, "overrides", "", "json file of account overrides")
	cmd.Flags().BoolVar(&f.preview, "preview", false, "print the derived accounts and exit")
	cmd.Flags().BoolVar(&f.simulate, "simulate", false, "simulate instead of sending")
	cmd.Flags().StringVar(&f.jitoTip, "jito-tip", "", "append a Jito tip of this many SOL")
	_ = cmd.MarkFlagRequired("mint")
	_ = cmd.MarkFlagRequired("amount")
}

func (f *tradeFlags) options(cmd *cobra.Command, deps *runtimeDeps) ([]autofill.Option, error) {
	overrides, err := loadOverrides(f.overridePath)
	if err != nil {
		return nil, err
	}
	out := []autofill.Option{overrides, autofill.WithLogger(deps.log)}
	if f.preview {
		out = append(out, autofill.WithPreview(cmd.OutOrStdout()))
	}
	if f.jitoTip != "" {
		tip, err := parseSOL(f.jitoTip)
		if err != nil {
			return nil, err
		}
		out = append(out, autofill.WithJitoTip(tip))
	}
	if f.closeATA {
		out = append(out, autofill.WithCloseATA())
	}
	return out, nil
}

// send simulates or submits ixs signed by payer.
func (f *tradeFlags) send(cmd *cobra.Command, deps *runtimeDeps, payer wallet.Signer, ixs []solana.Instruction) error {
	ctx := cmd.Context()
	if f.simulate {
		res, simErr := simulate(ctx, deps, payer, nil, ixs...)
		printSimResult(cmd.OutOrStdout(), res, simErr)
		return simErr
	}
	sig, err := deps.builder.Submit(ctx, payer, nil, txbuilder.ConfirmationConfirmed, ixs...)
	if err != nil {
		return err
	}
	fmt.Fprintf(cmd.OutOrStdout(), "tx signature: %s\n", sig)
	return nil
}

func newBuyCmd(opts *globalOpts) *cobra.Command {
	var f tradeFlags
	cmd := &cobra.Command{
		Use:   "buy",
		Short: "Buy tokens on the bonding curve with the payer wallet",
		RunE: func(cmd *cobra.Command, args []string) error {
			mint, err := parsePubkey("mint", f.mint)
			if err != nil {
				return err
			}
			solIn, err := parseSOL(f.amount)
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
			afOpts, err := f.options(cmd, deps)
			if err != nil {
				return err
			}

			ctx, cancel := context.WithTimeout(cmd.Context(), 90*time.Second)
			defer cancel()
			cmd.SetContext(ctx)

			_, ixArgs, ixs, err := autofill.Buy(ctx, deps.rpc, payer.PublicKey(), mint, solIn, f.slippageBps, afOpts...)
			if err != nil {
				return err
			}
			if f.preview {
				return nil
			}
			deps.log.Info().
				Str("tokens", formatTokens(ixArgs.Amount)).
				Str("max_sol_cost", formatSOL(ixArgs.MaxSolCost)).
				Msg("buy")
			return f.send(cmd, deps, payer, ixs)
		},
	}
	f.register(cmd, "SOL to spend")
	return cmd
}

func newSellCmd(opts *globalOpts) *cobra.Command {
	var f tradeFlags
	cmd := &cobra.Command{
		Use:   "sell",
		Short: "Sell tokens on the bonding curve from the payer wallet",
		RunE: func(cmd *cobra.Command, args []string) error {
			mint, err := parsePubkey("mint", f.mint)
			if err != nil {
				return err
			}
			tokensIn, err := parseTokens(f.amount)
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
			afOpts, err := f.options(cmd, deps)
			if err != nil {
				return err
			}

			ctx, cancel := context.WithTimeout(cmd.Context(), 90*time.Second)
			defer cancel()
			cmd.SetContext(ctx)

			_, ixArgs, ixs, err := autofill.Sell(ctx, deps.rpc, payer.PublicKey(), mint, tokensIn, f.slippageBps, afOpts...)
			if err != nil {
				return err
			}
			if f.preview {
				return nil
			}
			deps.log.Info().
				Str("tokens", formatTokens(ixArgs.Amount)).
				Str("min_sol_output", formatSOL(ixArgs.MinSolOutput)).
				Msg("sell")
			return f.send(cmd, deps, payer, ixs)
		},
	}
	f.register(cmd, "tokens to sell")
	cmd.Flags().BoolVar(&f.closeATA, "close-ata", false, "close the token account after selling everything")
	return cmd
}

func newCreateCmd(opts *globalOpts) *cobra.Command {
	var (
		token       metadata.Token
		imagePath   string
		uri         string
		devBuy      string
		inputPath   string
		mintKeyPath string
		vanity      string
		bundleIt    bool
		uploadURL   string
	)
	cmd := &cobra.Command{
		Use:   "create",
		Short: "Upload metadata, create a token and dev buy, optionally bundling wallet buys",
		Long: "Create uploads the token metadata (unless --uri is given), creates the mint and\n" +
			"buys with the payer. With --input every wallet in the file buys in the same\n" +
			"Jito bundle, priced against the curve the create leaves behind.",
		RunE: func(cmd *cobra.Command, args []string) error {
			deps, err := newRuntime(cmd, opts)
			if err != nil {
				return err
			}
			creator, err := deps.payer()
			if err != nil {
				return err
			}
			var devLamports uint64
			if devBuy != "" {
				if devLamports, err = parseSOL(devBuy); err != nil {
					return err
				}
			}
			var orders []batch.Order
			if inputPath != "" {
				if orders, err = loadOrders(inputPath, false); err != nil {
					return err
				}
				bundleIt = true
			}
			var mintKey solana.PrivateKey
			if mintKeyPath != "" {
				if mintKey, err = solana.PrivateKeyFromSolanaKeygenFile(mintKeyPath); err != nil {
					return fmt.Errorf("load mint key: %w", err)
				}
			}

			ctx, cancel := context.WithTimeout(cmd.Context(), 5*time.Minute)
			defer cancel()

			if uri == "" {
				if imagePath == "" {
					return fmt.Errorf("either --uri or --image is required")
				}
				f, err := os.Open(imagePath)
				if err != nil {
					return fmt.Errorf("open image: %w", err)
				}
				defer f.Close()
				token.Image = f
				token.ImageName = filepath.Base(imagePath)

				mdOpts := []metadata.Option{metadata.WithLogger(deps.log)}
				if uploadURL != "" {
					mdOpts = append(mdOpts, metadata.WithEndpoint(uploadURL))
				}
				if uri, err = metadata.NewClient(mdOpts...).Upload(ctx, token); err != nil {
					return err
				}
				deps.log.Info().Str("uri", uri).Msg("metadata uploaded")
			}

			createOpts := []autofill.Option{autofill.WithLogger(deps.log)}
			if vanity != "" {
				createOpts = append(createOpts, autofill.WithVanitySuffix(vanity))
			}

			sess := batch.NewSession()
			defer sess.End()
			plan, err := deps.orchestrator().BuildLaunch(ctx, sess, batch.Launch{
				Creator: creator,
				MintKey: mintKey,
				Name:    token.Name,
				Symbol:  token.Symbol,
				URI:     uri,
				DevBuy:  devLamports,
				Orders:  orders,
			}, deps.batchOptions(), createOpts...)
			if err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "mint: %s\n", plan.Mint)

			if !bundleIt {
				g := plan.Groups[0]
				sig, err := deps.builder.ForTables(plan.LookupTables).Submit(ctx, creator, g.Signers, txbuilder.ConfirmationConfirmed, g.Instructions...)
				if err != nil {
					return err
				}
				fmt.Fprintf(cmd.OutOrStdout(), "tx signature: %s\n", sig)
				return nil
			}
			printPlan(cmd.OutOrStdout(), plan.Plan)
			return submitPlan(ctx, cmd, deps, plan.Plan, creator, true)
		},
	}
	cmd.Flags().StringVar(&token.Name, "name", "", "token name")
	cmd.Flags().StringVar(&token.Symbol, "symbol", "", "token symbol")
	cmd.Flags().StringVar(&token.Description, "description", "", "token description")
	cmd.Flags().StringVar(&token.Twitter, "twitter", "", "twitter link")
	cmd.Flags().StringVar(&token.Telegram, "telegram", "", "telegram link")
	cmd.Flags().StringVar(&token.Website, "website", "", "website link")
	cmd.Flags().StringVar(&imagePath, "image", "", "image file to upload with the metadata")
	cmd.Flags().StringVar(&uri, "uri", "", "existing metadata uri, skips the upload")
	cmd.Flags().StringVar(&uploadURL, "upload-url", "", "metadata upload endpoint")
	cmd.Flags().StringVar(&devBuy, "dev-buy", "", "SOL the creator spends in the create transaction")
	cmd.Flags().StringVar(&inputPath, "input", "", "batch input file of wallets buying in the launch bundle")
	cmd.Flags().StringVar(&mintKeyPath, "mint-keypair", "", "solana-keygen json of the mint to create")
	cmd.Flags().StringVar(&vanity, "vanity-suffix", "", "grind a mint address ending in this suffix")
	cmd.Flags().BoolVar(&bundleIt, "bundle", false, "send the create through Jito")
	_ = cmd.MarkFlagRequired("name")
	_ = cmd.MarkFlagRequired("symbol")
	return cmd
}
