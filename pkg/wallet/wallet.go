package wallet

import (
	"context"
	"encoding/hex"
	"fmt"
	"strings"

	"github.com/gagliardetto/solana-go"
)

// Signer performs detached signatures for transaction messages.
type Signer interface {
	PublicKey() solana.PublicKey
	SignMessage(ctx context.Context, message []byte) (solana.Signature, error)
}

// Local wraps a local private key.
type Local struct {
	key solana.PrivateKey
}

// NewLocalFromKeygen loads a solana-keygen JSON file.
func NewLocalFromKeygen(path string) (Local, error) {
	key, err := solana.PrivateKeyFromSolanaKeygenFile(path)
	if err != nil {
		return Local{}, fmt.Errorf("load keypair: %w", err)
	}
	return Local{key: key}, nil
}

// NewLocalFromBase58 constructs a local signer from base58-encoded key.
func NewLocalFromBase58(privateKey string) (Local, error) {
	key, err := solana.PrivateKeyFromBase58(privateKey)
	if err != nil {
		return Local{}, fmt.Errorf("decode base58 key: %w", err)
	}
	return Local{key: key}, nil
}

// NewLocalFromHex constructs a local signer from a hex-encoded 64-byte secret key.
func NewLocalFromHex(secret string) (Local, error) {
	raw, err := hex.DecodeString(strings.TrimPrefix(strings.TrimSpace(secret), "0x"))
	if err != nil {
		return Local{}, fmt.Errorf("decode hex key: %w", err)
	}
	if len(raw) != 64 {
		return Local{}, fmt.Errorf("decode hex key: want 64 bytes, got %d", len(raw))
	}
	return Local{key: solana.PrivateKey(raw)}, nil
}

// Load picks a signer from a hex secret or a keygen file, hex first.
func Load(keygenPath, hexSecret string) (Local, error) {
	switch {
	case hexSecret != "":
		return NewLocalFromHex(hexSecret)
	case keygenPath != "":
		return NewLocalFromKeygen(keygenPath)
	default:
		return Local{}, fmt.Errorf("no keypair configured")
	}
}

// NewRandomLocal creates a signer over a fresh random key.
func NewRandomLocal() (Local, error) {
	key, err := solana.NewRandomPrivateKey()
	if err != nil {
		return Local{}, fmt.Errorf("generate key: %w", err)
	}
	return Local{key: key}, nil
}

// NewLocalFromPrivateKey constructs a local signer from existing private key.
func NewLocalFromPrivateKey(key solana.PrivateKey) Local {
	return Local{key: key}
}

// PublicKey returns the associated public key.
func (l Local) PublicKey() solana.PublicKey {
	return l.key.PublicKey()
}

// PrivateKey exposes the wrapped key.
func (l Local) PrivateKey() solana.PrivateKey {
	return l.key
}

// SignMessage signs the provided message bytes.
func (l Local) SignMessage(ctx context.Context, message []byte) (solana.Signature, error) {
	select {
	case <-ctx.Done():
		return solana.Signature{}, ctx.Err()
	default:
		sig, err := l.key.Sign(message)
		if err != nil {
			return solana.Signature{}, fmt.Errorf("sign message: %w", err)
		}
		return sig, nil
	}
}

// RemoteSigner signs by delegating to an external signer function.
type RemoteSigner struct {
	pub      solana.PublicKey
	SignFunc func(ctx context.Context, message []byte) ([]byte, error)
}

// NewRemoteSigner constructs a remote signer.
func NewRemoteSigner(pub solana.PublicKey, fn func(ctx context.Context, message []byte) ([]byte, error)) RemoteSigner {
	return RemoteSigner{
		pub:      pub,
		SignFunc: fn,
	}
}

// PublicKey returns the attached public key.
func (r RemoteSigner) PublicKey() solana.PublicKey {
	return r.pub
}

// SignMessage obtains a signature from the remote function.
func (r RemoteSigner) SignMessage(ctx context.Context, message []byte) (solana.Signature, error) {
	if r.SignFunc == nil {
		return solana.Signature{}, fmt.Errorf("sign func not set")
	}
	raw, err := r.SignFunc(ctx, message)
	if err != nil {
		return solana.Signature{}, fmt.Errorf("remote sign: %w", err)
	}
	if len(raw) != solana.SignatureLength {
		return solana.Signature{}, fmt.Errorf("invalid signature length: got %d", len(raw))
	}
	var sig solana.Signature
	copy(sig[:], raw)
	return sig, nil
}

// PublicKeys lists the public keys of signers in order.
func PublicKeys(signers []Signer) []solana.PublicKey {
	out := make([]solana.PublicKey, 0, len(signers))
	for _, s := range signers {
		out = append(out, s.PublicKey())
	}
	return out
}
