// Package signature implements the pluggable signature envelope: a closed sum
// type over secp256k1, P256 and WebAuthn credentials, plus the keychain
// wrapper used when an access key signs on behalf of a root account.
package signature

import (
	"context"
	"crypto/ecdsa"
	"crypto/elliptic"
	"fmt"

	"github.com/ethereum/go-ethereum/common"
	"github.com/ethereum/go-ethereum/crypto"
	"github.com/holiman/uint256"
	"github.com/pkg/errors"
	"github/chapool/go-txenvelope/internal/envelope"
)

// Scheme identifies the key type behind a signature. The numeric values are
// the key type tags used by key authorizations.
type Scheme uint8

const (
	SchemeSecp256k1 Scheme = 0
	SchemeP256      Scheme = 1
	SchemeWebAuthn  Scheme = 2
)

func (s Scheme) String() string {
	switch s {
	case SchemeSecp256k1:
		return "secp256k1"
	case SchemeP256:
		return "p256"
	case SchemeWebAuthn:
		return "webAuthn"
	default:
		return fmt.Sprintf("scheme(%d)", uint8(s))
	}
}

// Valid reports whether s is one of the known leaf schemes.
func (s Scheme) Valid() bool {
	return s <= SchemeWebAuthn
}

// ParseScheme resolves a scheme name as printed by Scheme.String.
func ParseScheme(name string) (Scheme, error) {
	for _, s := range []Scheme{SchemeSecp256k1, SchemeP256, SchemeWebAuthn} {
		if s.String() == name {
			return s, nil
		}
	}

	return 0, errors.Wrapf(envelope.ErrUnknownScheme, "%q", name)
}

// Envelope is one of *Secp256k1, *P256, *WebAuthn or *Keychain.
type Envelope interface {
	// Scheme reports the leaf scheme; a keychain reports the scheme of its inner signature.
	Scheme() Scheme
	isEnvelope()
}

// Secp256k1 is a recoverable ECDSA signature over secp256k1. It is also the
// inline signature shape used by fee payers and by the fee-token envelope.
type Secp256k1 struct {
	R       uint256.Int
	S       uint256.Int
	YParity uint8
}

// Secp256k1FromBytes splits a 65-byte [R || S || V] signature as produced by
// crypto.Sign. V may be 0/1 or 27/28.
func Secp256k1FromBytes(sig []byte) (*Secp256k1, error) {
	if len(sig) != crypto.SignatureLength {
		return nil, errors.Wrapf(envelope.ErrMalformedEnvelope, "secp256k1 signature must be %d bytes, got %d",
			crypto.SignatureLength, len(sig))
	}

	yParity, err := normalizeV(sig[64])
	if err != nil {
		return nil, err
	}

	out := &Secp256k1{YParity: yParity}
	out.R.SetBytes(sig[:32])
	out.S.SetBytes(sig[32:64])

	return out, nil
}

// Bytes returns the [R || S || V] form with V as 0 or 1, as expected by crypto.Ecrecover.
func (s *Secp256k1) Bytes() []byte {
	var sig [crypto.SignatureLength]byte
	s.R.WriteToSlice(sig[:32])
	s.S.WriteToSlice(sig[32:64])
	sig[64] = s.YParity

	return sig[:]
}

func (*Secp256k1) Scheme() Scheme { return SchemeSecp256k1 }
func (*Secp256k1) isEnvelope()    {}

// PublicKey is an uncompressed P256 public key.
type PublicKey struct {
	X uint256.Int
	Y uint256.Int
}

// Address derives the account address controlled by a P256 key:
// the last 20 bytes of keccak256(x || y).
func (p PublicKey) Address() common.Address {
	x := p.X.Bytes32()
	y := p.Y.Bytes32()

	return common.BytesToAddress(crypto.Keccak256(x[:], y[:])[12:])
}

// PublicKeyFromECDSA converts a P256 public key, rejecting keys on other curves.
func PublicKeyFromECDSA(pub *ecdsa.PublicKey) (PublicKey, error) {
	if pub == nil || pub.Curve != elliptic.P256() {
		return PublicKey{}, errors.Wrap(envelope.ErrMalformedEnvelope, "not a p256 public key")
	}

	var out PublicKey
	out.X.SetFromBig(pub.X)
	out.Y.SetFromBig(pub.Y)

	return out, nil
}

// P256Signature is a plain (r, s) ECDSA pair.
type P256Signature struct {
	R uint256.Int
	S uint256.Int
}

// P256 is a signature by a P256 key. Prehash tells the verifier to sha256 the
// payload before verification, for backends that hash internally.
type P256 struct {
	PublicKey PublicKey
	Signature P256Signature
	Prehash   bool
}

func (*P256) Scheme() Scheme { return SchemeP256 }
func (*P256) isEnvelope()    {}

// WebAuthnMetadata holds the exact bytes an authenticator signed over. They
// are carried verbatim and never re-serialized.
type WebAuthnMetadata struct {
	AuthenticatorData []byte
	ClientDataJSON    []byte
}

// WebAuthn is an assertion produced by a WebAuthn authenticator holding a P256 key.
type WebAuthn struct {
	PublicKey PublicKey
	Signature P256Signature
	Metadata  WebAuthnMetadata
}

func (*WebAuthn) Scheme() Scheme { return SchemeWebAuthn }
func (*WebAuthn) isEnvelope()    {}

// Keychain is a signature by an access key acting for UserAddress. Inner is
// never itself a keychain.
type Keychain struct {
	UserAddress common.Address
	Inner       Envelope
}

func (k *Keychain) Scheme() Scheme {
	if k.Inner == nil {
		return SchemeSecp256k1
	}

	return k.Inner.Scheme()
}
func (*Keychain) isEnvelope() {}

// Signer is the boundary to an external signing backend (local key, hardware
// key, platform authenticator or KMS). SignHash may block on user interaction
// and must honor ctx cancellation.
type Signer interface {
	// Address is the account the produced signatures authenticate as.
	Address() common.Address
	// Scheme is the leaf scheme of the produced signatures.
	Scheme() Scheme
	// SignHash signs a 32-byte payload.
	SignHash(ctx context.Context, hash common.Hash) (Envelope, error)
}
