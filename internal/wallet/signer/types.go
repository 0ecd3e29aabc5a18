package signer

import (
	"context"

	"github.com/ethereum/go-ethereum/common"
	"github.com/pkg/errors"
	"github/chapool/go-txenvelope/internal/envelope/aa"
	"github/chapool/go-txenvelope/internal/envelope/feetoken"
	"github/chapool/go-txenvelope/internal/envelope/keyauth"
	"github/chapool/go-txenvelope/internal/envelope/signature"
)

var ErrSigningDisabled = errors.New("signing is disabled")

// Service signs envelopes with keys derived from the wallet seed.
type Service interface {
	// Address returns the account the key at path signs as.
	Address(ctx context.Context, key KeyRef) (common.Address, error)

	// SignHash signs a raw 32-byte payload.
	SignHash(ctx context.Context, key KeyRef, hash common.Hash) (signature.Envelope, error)

	// SignAA fills in the sender signature of an AA envelope.
	SignAA(ctx context.Context, req *SignAARequest) (*SignResponse, error)

	// SignFeeToken fills in the sender signature of a fee token envelope.
	SignFeeToken(ctx context.Context, req *SignFeeTokenRequest) (*SignResponse, error)

	// AuthorizeKey signs a key authorization with the root key.
	AuthorizeKey(ctx context.Context, req *AuthorizeKeyRequest) (*keyauth.KeyAuthorization, error)
}

// KeyRef names a derived key.
type KeyRef struct {
	DerivationPath string           // BIP44 derivation path (e.g., "m/44'/60'/0'/0/0")
	Scheme         signature.Scheme // Key type the path is derived for
}

// LocalOptions configures the P256 and WebAuthn local signers.
type LocalOptions struct {
	Prehash bool
	RPID    string
	Origin  string
}

type SignAARequest struct {
	Envelope *aa.Envelope
	Key      KeyRef
	// Keychain, when set, signs with Key as an access key of this root account.
	Keychain *common.Address
}

type SignFeeTokenRequest struct {
	Envelope *feetoken.Envelope
	// DerivationPath of the secp256k1 sender key.
	DerivationPath string
}

type AuthorizeKeyRequest struct {
	Root      KeyRef
	AccessKey KeyRef
	Options   keyauth.Options
}

// SignResponse represents a signed envelope
type SignResponse struct {
	RawTransaction []byte         // Typed envelope bytes
	TxHash         common.Hash    // keccak256 of RawTransaction
	Sender         common.Address // Account the envelope authenticates as
}
