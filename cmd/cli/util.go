package main

import (
	"fmt"
	"io"
	"os"

	"github.com/gagliardetto/solana-go"
	"github.com/jedib0t/go-pretty/v6/table"
	"github.com/shopspring/decimal"

	"github.com/ninja0404/pump-bundler/pkg/autofill"
	"github.com/ninja0404/pump-bundler/pkg/batch"
	"github.com/ninja0404/pump-bundler/pkg/constants"
)

// parsePubkey converts base58 string to PublicKey.
func parsePubkey(label, v string) (solana.PublicKey, error) {
	if v == "" {
		return solana.PublicKey{}, fmt.Errorf("%s is required", label)
	}
	pk, err := solana.PublicKeyFromBase58(v)
	if err != nil {
		return solana.PublicKey{}, fmt.Errorf("%s invalid pubkey: %w", label, err)
	}
	return pk, nil
}

// parseSOL converts a decimal SOL amount such as "0.25" to lamports.
func parseSOL(v string) (uint64, error) {
	return parseUnits("sol", v, batch.BuyDecimals)
}

// parseTokens converts a decimal token amount to raw units.
func parseTokens(v string) (uint64, error) {
	return parseUnits("tokens", v, batch.SellDecimals)
}

func parseUnits(label, v string, decimals int32) (uint64, error) {
	d, err := decimal.NewFromString(v)
	if err != nil {
		return 0, fmt.Errorf("%s: %w", label, err)
	}
	return batch.ToBaseUnits(d, decimals)
}

func formatSOL(lamports uint64) string {
	return batch.FromBaseUnits(lamports, batch.BuyDecimals).String()
}

func formatTokens(raw uint64) string {
	return batch.FromBaseUnits(raw, constants.PumpTokenDecimals).String()
}

// formatPrice renders a quote.SpotPrice value as SOL per whole token.
func formatPrice(spot uint64) string {
	return batch.FromBaseUnits(spot, 2*batch.BuyDecimals-constants.PumpTokenDecimals).String()
}

// loadOverrides reads a JSON object of account overrides for autofill.
func loadOverrides(path string) (autofill.Option, error) {
	if path == "" {
		return autofill.WithOverrides(nil), nil
	}
	content, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read overrides json: %w", err)
	}
	m, err := autofill.MergeOverridesFromJSON(nil, content)
	if err != nil {
		return nil, err
	}
	return autofill.WithOverrides(m), nil
}

func newTable(w io.Writer, title string, header table.Row) table.Writer {
	t := table.NewWriter()
	t.SetOutputMirror(w)
	t.SetStyle(table.StyleLight)
	if title != "" {
		t.SetTitle(title)
	}
	t.AppendHeader(header)
	return t
}

func short(pk solana.PublicKey) string {
	s := pk.String()
	if len(s) <= 12 {
		return s
	}
	return s[:4] + ".." + s[len(s)-4:]
}
