// Package keyauth implements key authorizations: capabilities signed by a
// root account that admit a secondary access key, optionally scoped to a
// chain, an expiry and per-token spend limits.
package keyauth

import (
	"context"

	"github.com/ethereum/go-ethereum/common"
	"github.com/ethereum/go-ethereum/rlp"
	"github.com/holiman/uint256"
	"github.com/pkg/errors"
	"github/chapool/go-txenvelope/internal/envelope"
	"github/chapool/go-txenvelope/internal/envelope/codec"
	"github/chapool/go-txenvelope/internal/envelope/signature"
)

const (
	// MaxExpiry is the largest 48-bit timestamp. It is also the expiry used
	// when none is requested.
	MaxExpiry uint64 = 0xffffffffffff
	// DefaultExpiry is applied by New when Options.Expiry is nil.
	DefaultExpiry = MaxExpiry
	// NeverExpires is the literal expiry value meaning the key never expires.
	NeverExpires uint64 = 0
)

const (
	unsignedTupleLength = 5
	signedTupleLength   = 6
	limitTupleLength    = 2
)

// Limit caps the cumulative amount of Token the access key may spend.
type Limit struct {
	Token common.Address
	Limit uint256.Int
}

// KeyAuthorization binds an access key to the root account that signed it.
// It is immutable once signed.
type KeyAuthorization struct {
	// Address is derived from the access key.
	Address common.Address
	// ChainID zero means any chain.
	ChainID uint256.Int
	// Expiry is a 48-bit unix timestamp; zero means the key never expires.
	Expiry uint64
	Limits []Limit
	// Type is the scheme of the access key.
	Type signature.Scheme
	// Signature is the root account's signature over Hash; nil until signed.
	Signature signature.Envelope
}

// Options are the optional parts of a new authorization.
type Options struct {
	ChainID *uint256.Int
	// Expiry nil applies DefaultExpiry; a pointer to zero means never expires.
	Expiry *uint64
	Limits []Limit
}

// New builds an unsigned authorization for key.
func New(key common.Address, scheme signature.Scheme, opts Options) (*KeyAuthorization, error) {
	auth := &KeyAuthorization{
		Address: key,
		Expiry:  DefaultExpiry,
		Type:    scheme,
	}
	if opts.ChainID != nil {
		auth.ChainID = *opts.ChainID
	}
	if opts.Expiry != nil {
		auth.Expiry = *opts.Expiry
	}
	if len(opts.Limits) > 0 {
		auth.Limits = append([]Limit(nil), opts.Limits...)
	}

	if err := auth.Assert(); err != nil {
		return nil, err
	}

	return auth, nil
}

// Assert checks the field ranges.
func (k *KeyAuthorization) Assert() error {
	if !k.Type.Valid() {
		return errors.Wrapf(envelope.ErrUnknownScheme, "key type %d", k.Type)
	}
	if k.Expiry > MaxExpiry {
		return errors.Wrapf(envelope.ErrInvalidExpiry, "expiry %d", k.Expiry)
	}

	return nil
}

// Expired reports whether the authorization is no longer valid at unix time now.
func (k *KeyAuthorization) Expired(now uint64) bool {
	return k.Expiry != NeverExpires && now >= k.Expiry
}

func (k *KeyAuthorization) unsignedItems() []interface{} {
	limits := make([]interface{}, 0, len(k.Limits))
	for i := range k.Limits {
		limits = append(limits, []interface{}{
			k.Limits[i].Token.Bytes(),
			codec.Uint256Bytes(&k.Limits[i].Limit),
		})
	}

	return []interface{}{
		codec.Uint256Bytes(&k.ChainID),
		codec.Uint64Bytes(uint64(k.Type)),
		k.Address.Bytes(),
		codec.Uint64Bytes(k.Expiry),
		limits,
	}
}

// Hash is the payload the root account signs. It never covers Signature.
func (k *KeyAuthorization) Hash() (common.Hash, error) {
	if err := k.Assert(); err != nil {
		return common.Hash{}, err
	}

	b, err := codec.Encode(k.unsignedItems())
	if err != nil {
		return common.Hash{}, err
	}

	return codec.Keccak256(b), nil
}

// ToTuple renders the authorization as the list embedded in larger
// structures: five elements when unsigned, six with the serialized signature.
func (k *KeyAuthorization) ToTuple() ([]interface{}, error) {
	if err := k.Assert(); err != nil {
		return nil, err
	}

	items := k.unsignedItems()
	if k.Signature == nil {
		return items, nil
	}

	sig, err := signature.Serialize(k.Signature)
	if err != nil {
		return nil, errors.Wrap(err, "failed to serialize key authorization signature")
	}

	return append(items, sig), nil
}

// FromTuple parses the raw elements of a five or six element tuple.
func FromTuple(raw []rlp.RawValue) (*KeyAuthorization, error) {
	if len(raw) != unsignedTupleLength && len(raw) != signedTupleLength {
		return nil, errors.Wrapf(envelope.ErrMalformedRLP, "key authorization has %d elements", len(raw))
	}

	f := codec.NewFields(raw, []string{"chainId", "type", "address", "expiry", "limits", "signature"})
	auth := &KeyAuthorization{ChainID: f.Uint256OrZero(0)}

	keyType := f.Uint64(1)
	if f.Err() == nil && keyType > uint64(signature.SchemeWebAuthn) {
		f.Fail(1, errors.Wrapf(envelope.ErrUnknownScheme, "key type %d", keyType))
	}
	auth.Type = signature.Scheme(keyType) //nolint:gosec // range checked above
	auth.Expiry = f.Uint64(3)

	if f.Err() == nil {
		addr, err := codec.Address(f.Raw(2))
		f.Fail(2, err)
		auth.Address = addr
	}

	for i, rawLimit := range f.List(4) {
		limit, err := parseLimit(rawLimit)
		if err != nil {
			f.Fail(4, errors.Wrapf(err, "limit %d", i))
			break
		}
		auth.Limits = append(auth.Limits, limit)
	}

	if len(raw) == signedTupleLength {
		sigBytes := f.Bytes(5)
		if f.Err() == nil {
			sig, err := signature.Deserialize(sigBytes)
			f.Fail(5, err)
			auth.Signature = sig
		}
	}

	if err := f.Err(); err != nil {
		return nil, err
	}
	if err := auth.Assert(); err != nil {
		return nil, err
	}

	return auth, nil
}

func parseLimit(raw rlp.RawValue) (Limit, error) {
	fields, err := codec.ListElements(raw)
	if err != nil {
		return Limit{}, err
	}
	if len(fields) != limitTupleLength {
		return Limit{}, errors.Wrapf(envelope.ErrMalformedRLP, "limit has %d elements", len(fields))
	}

	token, err := codec.Address(fields[0])
	if err != nil {
		return Limit{}, err
	}
	amount, err := codec.Uint256OrZero(fields[1])
	if err != nil {
		return Limit{}, err
	}

	return Limit{Token: token, Limit: amount}, nil
}

// Serialize renders the tuple as a standalone RLP list.
func (k *KeyAuthorization) Serialize() ([]byte, error) {
	items, err := k.ToTuple()
	if err != nil {
		return nil, err
	}

	return codec.Encode(items)
}

// Deserialize parses the output of Serialize.
func Deserialize(b []byte) (*KeyAuthorization, error) {
	raw, err := codec.SplitList(b)
	if err != nil {
		return nil, err
	}

	return FromTuple(raw)
}

// Sign returns a copy of auth signed by root.
func Sign(ctx context.Context, root signature.Signer, auth *KeyAuthorization) (*KeyAuthorization, error) {
	hash, err := auth.Hash()
	if err != nil {
		return nil, err
	}

	sig, err := root.SignHash(ctx, hash)
	if err != nil {
		return nil, errors.Wrap(err, "failed to sign key authorization")
	}

	signed := *auth
	signed.Limits = append([]Limit(nil), auth.Limits...)
	signed.Signature = sig

	return &signed, nil
}

// Recover returns the root account that signed the authorization.
func (k *KeyAuthorization) Recover() (common.Address, error) {
	if k.Signature == nil {
		return common.Address{}, errors.Wrap(envelope.ErrInvalidSignature, "key authorization is not signed")
	}

	hash, err := k.Hash()
	if err != nil {
		return common.Address{}, err
	}

	return signature.Recover(k.Signature, hash)
}
