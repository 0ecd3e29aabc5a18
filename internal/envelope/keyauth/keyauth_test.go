package keyauth_test

import (
	"context"
	"crypto/ecdsa"
	"encoding/hex"
	"testing"

	"github.com/ethereum/go-ethereum/common"
	"github.com/ethereum/go-ethereum/crypto"
	"github.com/holiman/uint256"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github/chapool/go-txenvelope/internal/envelope"
	"github/chapool/go-txenvelope/internal/envelope/codec"
	"github/chapool/go-txenvelope/internal/envelope/keyauth"
	"github/chapool/go-txenvelope/internal/envelope/signature"
)

var accessKey = common.HexToAddress("0x70997970c51812dc3a010c7d01b50e0d17dc79c8")

type localSigner struct {
	key *ecdsa.PrivateKey
}

func (s *localSigner) Address() common.Address  { return crypto.PubkeyToAddress(s.key.PublicKey) }
func (s *localSigner) Scheme() signature.Scheme { return signature.SchemeSecp256k1 }

func (s *localSigner) SignHash(_ context.Context, hash common.Hash) (signature.Envelope, error) {
	raw, err := crypto.Sign(hash.Bytes(), s.key)
	if err != nil {
		return nil, err
	}

	return signature.Secp256k1FromBytes(raw)
}

func newRoot(t *testing.T) *localSigner {
	t.Helper()

	key, err := crypto.HexToECDSA("ac0974bec39a17e36ba4a6b4d238ff944bacb478cbed5efcae784d7bf4f2ff80")
	require.NoError(t, err)

	return &localSigner{key: key}
}

func TestDefaultExpiry(t *testing.T) {
	auth, err := keyauth.New(accessKey, signature.SchemeSecp256k1, keyauth.Options{})
	require.NoError(t, err)
	assert.Equal(t, uint64(0xffffffffffff), auth.Expiry)

	b, err := auth.Serialize()
	require.NoError(t, err)
	assert.Equal(t, "df8080"+"94"+hex.EncodeToString(accessKey.Bytes())+"86ffffffffffff"+"c0", hex.EncodeToString(b))
	assert.True(t, auth.Expired(0xffffffffffff))
	assert.False(t, auth.Expired(1_700_000_000))
}

func TestZeroExpiryNeverExpires(t *testing.T) {
	never := keyauth.NeverExpires
	auth, err := keyauth.New(accessKey, signature.SchemeSecp256k1, keyauth.Options{Expiry: &never})
	require.NoError(t, err)
	assert.Equal(t, uint64(0), auth.Expiry)

	b, err := auth.Serialize()
	require.NoError(t, err)
	assert.Equal(t, "d98080"+"94"+hex.EncodeToString(accessKey.Bytes())+"80"+"c0", hex.EncodeToString(b))
	assert.False(t, auth.Expired(^uint64(0)))

	defaulted, err := keyauth.New(accessKey, signature.SchemeSecp256k1, keyauth.Options{})
	require.NoError(t, err)

	neverHash, err := auth.Hash()
	require.NoError(t, err)
	defaultHash, err := defaulted.Hash()
	require.NoError(t, err)
	assert.NotEqual(t, neverHash, defaultHash)
}

func TestExpiryRange(t *testing.T) {
	tooLate := keyauth.MaxExpiry + 1
	_, err := keyauth.New(accessKey, signature.SchemeP256, keyauth.Options{Expiry: &tooLate})
	require.ErrorIs(t, err, envelope.ErrInvalidExpiry)

	_, err = keyauth.New(accessKey, signature.Scheme(7), keyauth.Options{})
	require.ErrorIs(t, err, envelope.ErrUnknownScheme)
}

func TestSignAndRecover(t *testing.T) {
	root := newRoot(t)
	expiry := uint64(1_900_000_000)

	auth, err := keyauth.New(accessKey, signature.SchemeP256, keyauth.Options{
		ChainID: uint256.NewInt(42431),
		Expiry:  &expiry,
		Limits: []keyauth.Limit{
			{Token: common.HexToAddress("0x20c0000000000000000000000000000000000001"), Limit: *uint256.NewInt(1_000_000)},
		},
	})
	require.NoError(t, err)

	unsignedHash, err := auth.Hash()
	require.NoError(t, err)

	signed, err := keyauth.Sign(t.Context(), root, auth)
	require.NoError(t, err)
	assert.Nil(t, auth.Signature)
	require.NotNil(t, signed.Signature)

	signedHash, err := signed.Hash()
	require.NoError(t, err)
	assert.Equal(t, unsignedHash, signedHash)

	got, err := signed.Recover()
	require.NoError(t, err)
	assert.Equal(t, root.Address(), got)

	_, err = auth.Recover()
	require.ErrorIs(t, err, envelope.ErrInvalidSignature)
}

func TestTupleRoundTrip(t *testing.T) {
	root := newRoot(t)

	auth, err := keyauth.New(accessKey, signature.SchemeWebAuthn, keyauth.Options{
		Limits: []keyauth.Limit{
			{Token: common.HexToAddress("0x20c0000000000000000000000000000000000001"), Limit: *uint256.NewInt(5)},
			{Token: common.HexToAddress("0x20c0000000000000000000000000000000000002"), Limit: *uint256.NewInt(6)},
		},
	})
	require.NoError(t, err)

	unsigned, err := auth.Serialize()
	require.NoError(t, err)
	raw, err := codec.SplitList(unsigned)
	require.NoError(t, err)
	require.Len(t, raw, 5)

	decoded, err := keyauth.Deserialize(unsigned)
	require.NoError(t, err)
	assert.Equal(t, auth, decoded)

	signed, err := keyauth.Sign(t.Context(), root, auth)
	require.NoError(t, err)

	b, err := signed.Serialize()
	require.NoError(t, err)
	raw, err = codec.SplitList(b)
	require.NoError(t, err)
	require.Len(t, raw, 6)

	decoded, err = keyauth.FromTuple(raw)
	require.NoError(t, err)
	assert.Equal(t, signed, decoded)
}

func TestFromTupleRejects(t *testing.T) {
	_, err := keyauth.FromTuple(nil)
	require.ErrorIs(t, err, envelope.ErrMalformedRLP)

	b, err := codec.Encode([]interface{}{[]byte{}, []byte{0x03}, accessKey.Bytes(), []byte{}, []interface{}{}})
	require.NoError(t, err)
	_, err = keyauth.Deserialize(b)
	require.ErrorIs(t, err, envelope.ErrUnknownScheme)

	b, err = codec.Encode([]interface{}{[]byte{}, []byte{}, accessKey.Bytes()[:19], []byte{}, []interface{}{}})
	require.NoError(t, err)
	_, err = keyauth.Deserialize(b)
	require.ErrorIs(t, err, envelope.ErrInvalidAddress)

	b, err = codec.Encode([]interface{}{[]byte{}, []byte{}, accessKey.Bytes(), []byte{0x00, 0x01}, []interface{}{}})
	require.NoError(t, err)
	_, err = keyauth.Deserialize(b)
	require.ErrorIs(t, err, envelope.ErrNonCanonicalInteger)
}
