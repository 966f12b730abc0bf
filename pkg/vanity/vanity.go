// Package vanity searches for mint keypairs whose base58 address carries a
// chosen prefix or suffix.
package vanity

import (
	"context"
	"errors"
	"fmt"
	"runtime"
	"strings"
	"sync/atomic"
	"time"

	"github.com/gagliardetto/solana-go"
	"github.com/mr-tron/base58"
	"github.com/rs/zerolog"
	"golang.org/x/sync/errgroup"
)

// ErrEmptyPattern is returned when neither prefix nor suffix is set.
var ErrEmptyPattern = errors.New("vanity: prefix or suffix is required")

// Result represents a vanity address search result.
type Result struct {
	PrivateKey solana.PrivateKey
	PublicKey  solana.PublicKey
	Attempts   uint64
	Duration   time.Duration
}

// Options configures vanity address generation.
type Options struct {
	Prefix          string        // Required prefix
	Suffix          string        // Required suffix
	Workers         int           // Number of parallel workers (default: NumCPU)
	Timeout         time.Duration // Max search time (0 = no timeout)
	CaseInsensitive bool          // Case-insensitive matching
	Logger          zerolog.Logger
}

// ValidatePattern rejects patterns no base58 address can contain.
func ValidatePattern(pattern string) error {
	if pattern == "" {
		return nil
	}
	// 0, O, I and l are outside the alphabet
	if _, err := base58.Decode(pattern); err != nil {
		return fmt.Errorf("vanity: %q is not base58: %w", pattern, err)
	}
	return nil
}

// Generate searches for a keypair matching the specified criteria.
//
// Example:
//
//	result, err := vanity.Generate(ctx, vanity.Options{Suffix: "pump"})
//	if err != nil {
//	    log.Fatal(err)
//	}
//	fmt.Printf("Found: %s (attempts: %d, time: %s)\n",
//	    result.PublicKey, result.Attempts, result.Duration)
func Generate(ctx context.Context, opts Options) (*Result, error) {
	if opts.Prefix == "" && opts.Suffix == "" {
		return nil, ErrEmptyPattern
	}
	if !opts.CaseInsensitive {
		if err := ValidatePattern(opts.Prefix); err != nil {
			return nil, err
		}
		if err := ValidatePattern(opts.Suffix); err != nil {
			return nil, err
		}
	}

	workers := opts.Workers
	if workers <= 0 {
		workers = runtime.NumCPU()
	}

	prefix, suffix := opts.Prefix, opts.Suffix
	if opts.CaseInsensitive {
		prefix = strings.ToLower(prefix)
		suffix = strings.ToLower(suffix)
	}

	searchCtx := ctx
	if opts.Timeout > 0 {
		var cancel context.CancelFunc
		searchCtx, cancel = context.WithTimeout(ctx, opts.Timeout)
		defer cancel()
	}

	log := opts.Logger.With().Str("prefix", opts.Prefix).Str("suffix", opts.Suffix).Logger()
	log.Debug().
		Int("workers", workers).
		Uint64("expected_attempts", EstimateDifficulty(len(prefix), len(suffix))).
		Msg("vanity search started")

	var (
		attempts atomic.Uint64
		result   atomic.Pointer[Result]
	)
	start := time.Now()

	// errgroup cancels the siblings once one worker reports a match
	g, gctx := errgroup.WithContext(searchCtx)
	for i := 0; i < workers; i++ {
		g.Go(func() error {
			for {
				if err := gctx.Err(); err != nil {
					return nil
				}
				key, err := solana.NewRandomPrivateKey()
				if err != nil {
					return fmt.Errorf("vanity: generate key: %w", err)
				}
				n := attempts.Add(1)

				addr := key.PublicKey().String()
				if opts.CaseInsensitive {
					addr = strings.ToLower(addr)
				}
				if strings.HasPrefix(addr, prefix) && strings.HasSuffix(addr, suffix) {
					result.CompareAndSwap(nil, &Result{
						PrivateKey: key,
						PublicKey:  key.PublicKey(),
						Attempts:   n,
						Duration:   time.Since(start),
					})
					return errFound
				}
			}
		})
	}

	err := g.Wait()
	if r := result.Load(); r != nil {
		log.Info().
			Str("address", r.PublicKey.String()).
			Uint64("attempts", r.Attempts).
			Dur("elapsed", r.Duration).
			Msg("vanity address found")
		return r, nil
	}
	if err != nil && !errors.Is(err, errFound) {
		return nil, err
	}
	if searchCtx.Err() != nil {
		return nil, fmt.Errorf("search cancelled after %d attempts: %w", attempts.Load(), searchCtx.Err())
	}
	return nil, fmt.Errorf("search failed after %d attempts", attempts.Load())
}

var errFound = errors.New("vanity: found")

// GenerateWithSuffix is a convenience function to generate an address with specific suffix.
func GenerateWithSuffix(ctx context.Context, suffix string) (*Result, error) {
	return Generate(ctx, Options{Suffix: suffix, Logger: zerolog.Nop()})
}

// GenerateWithPrefix is a convenience function to generate an address with specific prefix.
func GenerateWithPrefix(ctx context.Context, prefix string) (*Result, error) {
	return Generate(ctx, Options{Prefix: prefix, Logger: zerolog.Nop()})
}

// EstimateDifficulty estimates the average attempts needed for a pattern:
// 58^(prefixLen+suffixLen), saturating at MaxUint64.
func EstimateDifficulty(prefixLen, suffixLen int) uint64 {
	result := uint64(1)
	for i := 0; i < prefixLen+suffixLen; i++ {
		if result > ^uint64(0)/58 {
			return ^uint64(0)
		}
		result *= 58
	}
	return result
}
