package signer_test

import (
	"context"
	"crypto/ecdsa"
	"crypto/elliptic"
	"crypto/rand"
	"testing"

	"github.com/ethereum/go-ethereum/common"
	"github.com/ethereum/go-ethereum/crypto"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github/chapool/go-txenvelope/internal/envelope/signature"
	"github/chapool/go-txenvelope/internal/wallet/signer"
)

var payload = common.HexToHash("0x4f3c1b6f8f0b7c8e6a1f2d9c3b5a7e8d1c2b3a4f5e6d7c8b9a0f1e2d3c4b5a69")

func p256Key(t *testing.T) *ecdsa.PrivateKey {
	t.Helper()

	key, err := ecdsa.GenerateKey(elliptic.P256(), rand.Reader)
	require.NoError(t, err)

	return key
}

func TestLocalSignersVerify(t *testing.T) {
	secpKey, err := crypto.GenerateKey()
	require.NoError(t, err)

	secp, err := signer.NewSecp256k1Signer(secpKey)
	require.NoError(t, err)
	p256, err := signer.NewP256Signer(p256Key(t), false)
	require.NoError(t, err)
	prehashed, err := signer.NewP256Signer(p256Key(t), true)
	require.NoError(t, err)
	webAuthn, err := signer.NewWebAuthnSigner(p256Key(t), "wallet.example", "https://wallet.example")
	require.NoError(t, err)

	for _, s := range []signature.Signer{secp, p256, prehashed, webAuthn} {
		t.Run(s.Scheme().String(), func(t *testing.T) {
			sig, err := s.SignHash(t.Context(), payload)
			require.NoError(t, err)
			assert.Equal(t, s.Scheme(), sig.Scheme())

			require.NoError(t, signature.Verify(sig, payload, s.Address()))

			raw, err := signature.Serialize(sig)
			require.NoError(t, err)
			decoded, err := signature.Deserialize(raw)
			require.NoError(t, err)
			require.NoError(t, signature.Verify(decoded, payload, s.Address()))
		})
	}
}

func TestWebAuthnAssertion(t *testing.T) {
	s, err := signer.NewWebAuthnSigner(p256Key(t), "wallet.example", "https://wallet.example")
	require.NoError(t, err)

	first, err := s.SignHash(t.Context(), payload)
	require.NoError(t, err)
	second, err := s.SignHash(t.Context(), payload)
	require.NoError(t, err)

	a, ok := first.(*signature.WebAuthn)
	require.True(t, ok)
	b, ok := second.(*signature.WebAuthn)
	require.True(t, ok)

	require.Len(t, a.Metadata.AuthenticatorData, 37)
	assert.Equal(t, byte(0x05), a.Metadata.AuthenticatorData[32])
	assert.Equal(t, []byte{0, 0, 0, 1}, a.Metadata.AuthenticatorData[33:])
	assert.Equal(t, []byte{0, 0, 0, 2}, b.Metadata.AuthenticatorData[33:])

	assert.JSONEq(t,
		`{"type":"webauthn.get","challenge":"`+signature.WebAuthnChallenge(payload)+`","origin":"https://wallet.example","crossOrigin":false}`,
		string(a.Metadata.ClientDataJSON))

	_, err = signer.NewWebAuthnSigner(p256Key(t), "", "")
	require.Error(t, err)
}

func TestKeychainSigner(t *testing.T) {
	root := common.HexToAddress("0xf39fd6e51aad88f6f4ce6ab8827279cfffb92266")

	inner, err := signer.NewP256Signer(p256Key(t), false)
	require.NoError(t, err)

	s := &signer.KeychainSigner{User: root, Inner: inner}
	assert.Equal(t, root, s.Address())
	assert.Equal(t, signature.SchemeP256, s.Scheme())

	sig, err := s.SignHash(t.Context(), payload)
	require.NoError(t, err)

	got, err := signature.Recover(sig, payload)
	require.NoError(t, err)
	assert.Equal(t, root, got)

	key, err := signature.RecoverKey(sig, payload)
	require.NoError(t, err)
	assert.Equal(t, inner.Address(), key)

	nested := &signer.KeychainSigner{User: root, Inner: s}
	_, err = nested.SignHash(t.Context(), payload)
	require.Error(t, err)
}

func TestSignHonorsContext(t *testing.T) {
	ctx, cancel := context.WithCancel(t.Context())
	cancel()

	secpKey, err := crypto.GenerateKey()
	require.NoError(t, err)

	for _, scheme := range []signature.Scheme{signature.SchemeSecp256k1, signature.SchemeP256, signature.SchemeWebAuthn} {
		key := secpKey
		if scheme != signature.SchemeSecp256k1 {
			key = p256Key(t)
		}

		s, err := signer.NewLocalSigner(key, scheme, signer.LocalOptions{RPID: "localhost", Origin: "http://localhost"})
		require.NoError(t, err)

		_, err = s.SignHash(ctx, payload)
		require.ErrorIs(t, err, context.Canceled)
	}
}

func TestNewLocalSignerRejectsCurveMismatch(t *testing.T) {
	_, err := signer.NewLocalSigner(p256Key(t), signature.SchemeSecp256k1, signer.LocalOptions{})
	require.Error(t, err)

	secpKey, err := crypto.GenerateKey()
	require.NoError(t, err)
	_, err = signer.NewLocalSigner(secpKey, signature.SchemeP256, signer.LocalOptions{})
	require.Error(t, err)
}
