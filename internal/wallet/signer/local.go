package signer

import (
	"context"
	"crypto/ecdsa"
	"crypto/elliptic"
	"crypto/rand"
	"crypto/sha256"
	"encoding/binary"
	"sync/atomic"

	"github.com/ethereum/go-ethereum/common"
	"github.com/ethereum/go-ethereum/crypto"
	"github.com/pkg/errors"
	"github.com/valyala/fastjson"
	"github/chapool/go-txenvelope/internal/envelope/signature"
)

// WebAuthn authenticator data flags: user present and user verified.
const webAuthnFlags byte = 0x05

// Secp256k1Signer signs with an in-memory secp256k1 key.
type Secp256k1Signer struct {
	key *ecdsa.PrivateKey
}

func NewSecp256k1Signer(key *ecdsa.PrivateKey) (*Secp256k1Signer, error) {
	if key == nil || key.Curve != crypto.S256() {
		return nil, errors.New("not a secp256k1 key")
	}

	return &Secp256k1Signer{key: key}, nil
}

func (s *Secp256k1Signer) Address() common.Address  { return crypto.PubkeyToAddress(s.key.PublicKey) }
func (s *Secp256k1Signer) Scheme() signature.Scheme { return signature.SchemeSecp256k1 }

//nolint:ireturn // signature.Signer contract
func (s *Secp256k1Signer) SignHash(ctx context.Context, hash common.Hash) (signature.Envelope, error) {
	return s.SignSecp256k1(ctx, hash)
}

// SignSecp256k1 is SignHash with the concrete result type, for slots that
// only admit secp256k1.
func (s *Secp256k1Signer) SignSecp256k1(ctx context.Context, hash common.Hash) (*signature.Secp256k1, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	raw, err := crypto.Sign(hash.Bytes(), s.key)
	if err != nil {
		return nil, errors.Wrap(err, "failed to sign hash")
	}

	return signature.Secp256k1FromBytes(raw)
}

// P256Signer signs with an in-memory P256 key. With Prehash set it signs
// sha256(hash), the form produced by platform key stores.
type P256Signer struct {
	key     *ecdsa.PrivateKey
	pub     signature.PublicKey
	Prehash bool
}

func NewP256Signer(key *ecdsa.PrivateKey, prehash bool) (*P256Signer, error) {
	pub, err := signature.PublicKeyFromECDSA(&key.PublicKey)
	if err != nil {
		return nil, err
	}

	return &P256Signer{key: key, pub: pub, Prehash: prehash}, nil
}

func (s *P256Signer) Address() common.Address  { return s.pub.Address() }
func (s *P256Signer) Scheme() signature.Scheme { return signature.SchemeP256 }

//nolint:ireturn // signature.Signer contract
func (s *P256Signer) SignHash(ctx context.Context, hash common.Hash) (signature.Envelope, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	digest := hash.Bytes()
	if s.Prehash {
		sum := sha256.Sum256(digest)
		digest = sum[:]
	}

	sig, err := signP256(s.key, digest)
	if err != nil {
		return nil, err
	}

	return &signature.P256{PublicKey: s.pub, Signature: sig, Prehash: s.Prehash}, nil
}

// WebAuthnSigner is a software authenticator producing WebAuthn assertions
// for a fixed relying party.
type WebAuthnSigner struct {
	key     *ecdsa.PrivateKey
	pub     signature.PublicKey
	rpID    string
	origin  string
	counter atomic.Uint32
}

func NewWebAuthnSigner(key *ecdsa.PrivateKey, rpID string, origin string) (*WebAuthnSigner, error) {
	pub, err := signature.PublicKeyFromECDSA(&key.PublicKey)
	if err != nil {
		return nil, err
	}
	if rpID == "" || origin == "" {
		return nil, errors.New("webauthn relying party and origin must be set")
	}

	return &WebAuthnSigner{key: key, pub: pub, rpID: rpID, origin: origin}, nil
}

func (s *WebAuthnSigner) Address() common.Address  { return s.pub.Address() }
func (s *WebAuthnSigner) Scheme() signature.Scheme { return signature.SchemeWebAuthn }

//nolint:ireturn // signature.Signer contract
func (s *WebAuthnSigner) SignHash(ctx context.Context, hash common.Hash) (signature.Envelope, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	meta := signature.WebAuthnMetadata{
		AuthenticatorData: s.authenticatorData(),
		ClientDataJSON:    s.clientDataJSON(hash),
	}

	sig, err := signP256(s.key, signature.WebAuthnDigest(meta))
	if err != nil {
		return nil, err
	}

	return &signature.WebAuthn{PublicKey: s.pub, Signature: sig, Metadata: meta}, nil
}

// authenticatorData is rpIdHash || flags || signCount.
func (s *WebAuthnSigner) authenticatorData() []byte {
	rpIDHash := sha256.Sum256([]byte(s.rpID))

	out := make([]byte, 0, len(rpIDHash)+5)
	out = append(out, rpIDHash[:]...)
	out = append(out, webAuthnFlags)

	return binary.BigEndian.AppendUint32(out, s.counter.Add(1))
}

func (s *WebAuthnSigner) clientDataJSON(hash common.Hash) []byte {
	var a fastjson.Arena

	o := a.NewObject()
	o.Set("type", a.NewString("webauthn.get"))
	o.Set("challenge", a.NewString(signature.WebAuthnChallenge(hash)))
	o.Set("origin", a.NewString(s.origin))
	o.Set("crossOrigin", a.NewFalse())

	return o.MarshalTo(nil)
}

// KeychainSigner signs with an access key on behalf of a root account.
type KeychainSigner struct {
	User  common.Address
	Inner signature.Signer
}

// Address is the root account, since keychain signatures authenticate as it.
func (s *KeychainSigner) Address() common.Address  { return s.User }
func (s *KeychainSigner) Scheme() signature.Scheme { return s.Inner.Scheme() }

//nolint:ireturn // signature.Signer contract
func (s *KeychainSigner) SignHash(ctx context.Context, hash common.Hash) (signature.Envelope, error) {
	inner, err := s.Inner.SignHash(ctx, hash)
	if err != nil {
		return nil, err
	}
	if _, nested := inner.(*signature.Keychain); nested {
		return nil, errors.New("keychain signers cannot be nested")
	}

	return &signature.Keychain{UserAddress: s.User, Inner: inner}, nil
}

// NewLocalSigner wraps key in the signer for scheme.
//
//nolint:ireturn // the concrete signer depends on scheme
func NewLocalSigner(key *ecdsa.PrivateKey, scheme signature.Scheme, opts LocalOptions) (signature.Signer, error) {
	switch scheme {
	case signature.SchemeSecp256k1:
		return NewSecp256k1Signer(key)
	case signature.SchemeP256:
		return NewP256Signer(key, opts.Prehash)
	case signature.SchemeWebAuthn:
		return NewWebAuthnSigner(key, opts.RPID, opts.Origin)
	default:
		return nil, errors.Errorf("unsupported scheme: %s", scheme)
	}
}

func signP256(key *ecdsa.PrivateKey, digest []byte) (signature.P256Signature, error) {
	if key.Curve != elliptic.P256() {
		return signature.P256Signature{}, errors.New("not a p256 key")
	}

	r, s, err := ecdsa.Sign(rand.Reader, key, digest)
	if err != nil {
		return signature.P256Signature{}, errors.Wrap(err, "failed to sign digest")
	}

	var out signature.P256Signature
	out.R.SetFromBig(r)
	out.S.SetFromBig(s)

	return out, nil
}
