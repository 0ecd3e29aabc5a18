package address_test

import (
	"crypto/elliptic"
	"encoding/hex"
	"testing"

	"github.com/ethereum/go-ethereum/crypto"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github/chapool/go-txenvelope/internal/envelope/signature"
	"github/chapool/go-txenvelope/internal/wallet/address"
)

const testSeedHex = "fffcf41c46a4fd6f7fa6bd8e1f55e0d37aa1d4bb2cdaf9fa9b6e4bd6e4e3a8e1a9b1a8b41ee84b14ccb2f3fa66e8e66a6a86fc65dbc9c1a4c8b9d6b3d12c8d0d"

func testSeed(t *testing.T) []byte {
	t.Helper()

	seed, err := hex.DecodeString(testSeedHex)
	require.NoError(t, err)

	return seed
}

func TestParsePath(t *testing.T) {
	indices, err := address.ParsePath("m/44'/60'/0'/0/7")
	require.NoError(t, err)
	assert.Equal(t, []uint32{0x8000002c, 0x8000003c, 0x80000000, 0, 7}, indices)

	for _, bad := range []string{"", "m", "44'/60'", "m/44'/x", "m//0", "m/2147483648"} {
		_, err := address.ParsePath(bad)
		require.ErrorIs(t, err, address.ErrInvalidPath, bad)
	}
}

func TestBIP44Path(t *testing.T) {
	s := address.NewService()
	assert.Equal(t, "m/44'/60'/0'/0/3", s.BIP44Path(3))
}

func TestDeriveSecp256k1(t *testing.T) {
	s := address.NewService()
	seed := testSeed(t)

	key, err := s.DeriveKey(t.Context(), seed, s.BIP44Path(0), signature.SchemeSecp256k1)
	require.NoError(t, err)
	assert.Equal(t, crypto.S256(), key.Curve)

	addr, err := s.DeriveAddress(t.Context(), seed, s.BIP44Path(0), signature.SchemeSecp256k1)
	require.NoError(t, err)
	assert.Equal(t, crypto.PubkeyToAddress(key.PublicKey), addr)

	other, err := s.DeriveAddress(t.Context(), seed, s.BIP44Path(1), signature.SchemeSecp256k1)
	require.NoError(t, err)
	assert.NotEqual(t, addr, other)
}

func TestDeriveP256(t *testing.T) {
	s := address.NewService()
	seed := testSeed(t)
	path := s.BIP44Path(0)

	key, err := s.DeriveKey(t.Context(), seed, path, signature.SchemeP256)
	require.NoError(t, err)
	assert.Equal(t, elliptic.P256(), key.Curve)
	assert.True(t, key.Curve.IsOnCurve(key.X, key.Y))

	again, err := s.DeriveKey(t.Context(), seed, path, signature.SchemeWebAuthn)
	require.NoError(t, err)
	assert.Equal(t, key.D, again.D)

	pub, err := signature.PublicKeyFromECDSA(&key.PublicKey)
	require.NoError(t, err)

	addr, err := s.DeriveAddress(t.Context(), seed, path, signature.SchemeP256)
	require.NoError(t, err)
	assert.Equal(t, pub.Address(), addr)

	secp, err := s.DeriveAddress(t.Context(), seed, path, signature.SchemeSecp256k1)
	require.NoError(t, err)
	assert.NotEqual(t, secp, addr)
}

func TestClearKey(t *testing.T) {
	s := address.NewService()

	key, err := s.DeriveKey(t.Context(), testSeed(t), s.BIP44Path(0), signature.SchemeSecp256k1)
	require.NoError(t, err)

	address.ClearKey(key)
	assert.Zero(t, key.D.Sign())
	assert.NotPanics(t, func() { address.ClearKey(nil) })
}

func TestDeriveRejects(t *testing.T) {
	s := address.NewService()

	_, err := s.DeriveKey(t.Context(), testSeed(t), "m/x", signature.SchemeSecp256k1)
	require.ErrorIs(t, err, address.ErrInvalidPath)

	_, err = s.DeriveAddress(t.Context(), testSeed(t), s.BIP44Path(0), signature.Scheme(9))
	require.Error(t, err)
}
