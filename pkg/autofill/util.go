package autofill

import (
	"context"
	"fmt"
	"reflect"
	"strings"

	bin "github.com/gagliardetto/binary"
	"github.com/gagliardetto/solana-go"
	associatedtokenaccount "github.com/gagliardetto/solana-go/programs/associated-token-account"
	"github.com/gagliardetto/solana-go/programs/system"
	"github.com/gagliardetto/solana-go/programs/token"
	solanarpc "github.com/gagliardetto/solana-go/rpc"
	"github.com/rs/zerolog"

	"github.com/ninja0404/pump-bundler/pkg/constants"
	"github.com/ninja0404/pump-bundler/pkg/jito"
)

// AccountReader is the read-only RPC surface autofill needs. *rpc.Client
// satisfies it.
type AccountReader interface {
	GetAccountInfo(ctx context.Context, account solana.PublicKey) (*solanarpc.GetAccountInfoResult, error)
	GetMultipleAccounts(ctx context.Context, accounts ...solana.PublicKey) (*solanarpc.GetMultipleAccountsResult, error)
}

// applyPubkeyOverrides sets exported fields from a map (key: field name or snake_case).
func applyPubkeyOverrides(target interface{}, m map[string]solana.PublicKey) {
	if len(m) == 0 {
		return
	}
	val := reflect.ValueOf(target)
	if val.Kind() != reflect.Ptr {
		panic("target must be pointer to struct")
	}
	val = reflect.Indirect(val)
	if val.Kind() != reflect.Struct {
		panic("target must be struct")
	}
	t := val.Type()
	for i := 0; i < val.NumField(); i++ {
		field := t.Field(i)
		if !field.IsExported() {
			continue
		}
		key := pickKey(field.Name, m)
		if key == "" {
			continue
		}
		if pk, ok := m[key]; ok {
			val.Field(i).Set(reflect.ValueOf(pk))
		}
	}
}

func pickKey(name string, m map[string]solana.PublicKey) string {
	candidates := []string{name, lowerCamel(name), snake(name)}
	for _, k := range candidates {
		if _, ok := m[k]; ok {
			return k
		}
	}
	return ""
}

func lowerCamel(name string) string {
	if name == "" {
		return ""
	}
	return strings.ToLower(name[:1]) + name[1:]
}

func snake(name string) string {
	var parts []string
	cur := ""
	for i, r := range name {
		if i > 0 && r >= 'A' && r <= 'Z' {
			parts = append(parts, strings.ToLower(cur))
			cur = string(r)
		} else {
			cur += string(r)
		}
	}
	if cur != "" {
		parts = append(parts, strings.ToLower(cur))
	}
	return strings.Join(parts, "_")
}

func isZeroPK(pk solana.PublicKey) bool {
	return pk == (solana.PublicKey{})
}

// FindATA derives the associated token account of wallet for mint under
// tokenProgram.
func FindATA(wallet, mint, tokenProgram solana.PublicKey) (solana.PublicKey, error) {
	ata, _, err := findATAWithProgram(wallet, mint, tokenProgram, constants.AssociatedTokenProgramID)
	if err != nil {
		return solana.PublicKey{}, fmt.Errorf("derive ATA of %s for mint %s: %w", wallet, mint, err)
	}
	return ata, nil
}

func findATAWithProgram(wallet, mint, tokenProgram, ataProgram solana.PublicKey) (solana.PublicKey, uint8, error) {
	return solana.FindProgramAddress([][]byte{
		wallet[:],
		tokenProgram[:],
		mint[:],
	}, ataProgram)
}

// CreateATAInstruction creates wallet's ATA for mint, funded by payer. The
// classic token program goes through the solana-go builder; other token
// programs get the same account layout with their own program id.
func CreateATAInstruction(payer, wallet, mint, tokenProgram solana.PublicKey) (solana.Instruction, error) {
	if isZeroPK(tokenProgram) || tokenProgram.Equals(constants.TokenProgramID) {
		ix, err := associatedtokenaccount.NewCreateInstruction(payer, wallet, mint).ValidateAndBuild()
		if err != nil {
			return nil, fmt.Errorf("build create ATA: %w", err)
		}
		return ix, nil
	}
	ata, err := FindATA(wallet, mint, tokenProgram)
	if err != nil {
		return nil, err
	}
	metas := []*solana.AccountMeta{
		solana.NewAccountMeta(payer, true, true),
		solana.NewAccountMeta(ata, true, false),
		solana.NewAccountMeta(wallet, false, false),
		solana.NewAccountMeta(mint, false, false),
		solana.NewAccountMeta(constants.SystemProgramID, false, false),
		solana.NewAccountMeta(tokenProgram, false, false),
	}
	return solana.NewInstruction(constants.AssociatedTokenProgramID, metas, nil), nil
}

// ProbeATAs reports which of atas exist, in one batched request. A failed
// probe is logged and every address is reported missing: creating an ATA
// twice fails loudly, trading into a missing one fails silently.
func ProbeATAs(ctx context.Context, reader AccountReader, log zerolog.Logger, atas ...solana.PublicKey) map[solana.PublicKey]bool {
	exists := make(map[solana.PublicKey]bool, len(atas))
	if len(atas) == 0 {
		return exists
	}
	amap, err := fetchAccountsBatch(ctx, reader, atas...)
	if err != nil {
		log.Warn().Err(err).Int("count", len(atas)).Msg("ata probe failed, assuming missing")
		return exists
	}
	for _, ata := range atas {
		if acc := amap[ata]; acc != nil {
			exists[ata] = true
		}
	}
	return exists
}

// TokenBalances reads token amounts for accounts in one batched request.
// Missing or undecodable accounts report 0.
func TokenBalances(ctx context.Context, reader AccountReader, accounts ...solana.PublicKey) (map[solana.PublicKey]uint64, error) {
	result := make(map[solana.PublicKey]uint64, len(accounts))
	if len(accounts) == 0 {
		return result, nil
	}
	amap, err := fetchAccountsBatch(ctx, reader, accounts...)
	if err != nil {
		return nil, err
	}
	for _, addr := range accounts {
		result[addr] = 0
		acc := amap[addr]
		if acc == nil || acc.Data == nil {
			continue
		}
		data := acc.Data.GetBinary()
		if len(data) == 0 {
			continue
		}
		var tokAcc token.Account
		if err := bin.NewBinDecoder(data).Decode(&tokAcc); err != nil {
			continue
		}
		result[addr] = tokAcc.Amount
	}
	return result, nil
}

// fetchAccountsBatch pulls multiple accounts in one RPC call.
func fetchAccountsBatch(ctx context.Context, reader AccountReader, addrs ...solana.PublicKey) (map[solana.PublicKey]*solanarpc.Account, error) {
	if len(addrs) == 0 {
		return map[solana.PublicKey]*solanarpc.Account{}, nil
	}
	res, err := reader.GetMultipleAccounts(ctx, addrs...)
	if err != nil {
		return nil, err
	}
	if res == nil {
		return nil, fmt.Errorf("getMultipleAccounts: empty result")
	}
	out := make(map[solana.PublicKey]*solanarpc.Account, len(addrs))
	for i, v := range res.Value {
		if v == nil || i >= len(addrs) {
			continue
		}
		out[addrs[i]] = v
	}
	return out, nil
}

// buildCloseAccount returns the ATA rent to destination.
func buildCloseAccount(account, destination, owner, tokenProgram solana.PublicKey) solana.Instruction {
	ix := token.NewCloseAccountInstruction(account, destination, owner, nil).Build()
	if isZeroPK(tokenProgram) || tokenProgram.Equals(constants.TokenProgramID) {
		return ix
	}
	// Token-2022 shares the instruction layout.
	data, _ := ix.Data()
	return solana.NewInstruction(tokenProgram, ix.Accounts(), data)
}

// appendJitoTip appends a Jito tip transfer instruction if configured.
func appendJitoTip(instrs []solana.Instruction, from solana.PublicKey, options *Options) []solana.Instruction {
	if options == nil || options.JitoTipLamports == 0 {
		return instrs
	}
	tipAccount := options.JitoTipAccount
	if tipAccount.IsZero() {
		tipAccount = jito.RandomTipAccount()
	}
	tipIx := system.NewTransferInstruction(options.JitoTipLamports, from, tipAccount).Build()
	return append(instrs, tipIx)
}
