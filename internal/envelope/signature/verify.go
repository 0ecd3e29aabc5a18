package signature

import (
	"bytes"
	"crypto/ecdsa"
	"crypto/elliptic"
	"crypto/sha256"
	"encoding/base64"

	"github.com/ethereum/go-ethereum/common"
	"github.com/ethereum/go-ethereum/crypto"
	"github.com/pkg/errors"
	"github.com/valyala/fastjson"
	"github/chapool/go-txenvelope/internal/envelope"
)

const webAuthnTypeGet = "webauthn.get"

// The authenticator data flags byte follows the 32-byte rpIdHash.
const (
	flagsOffset     = 32
	flagUserPresent = 0x01
)

// Recover returns the account a signature authenticates as. For a keychain
// signature that is the delegating root account; the inner signature must
// still be valid for payload. Recover does not check that the access key is
// authorized by that root account.
func Recover(env Envelope, payload common.Hash) (common.Address, error) {
	if k, ok := env.(*Keychain); ok {
		if _, err := RecoverKey(k.Inner, payload); err != nil {
			return common.Address{}, errors.Wrap(err, "invalid keychain inner signature")
		}

		return k.UserAddress, nil
	}

	return RecoverKey(env, payload)
}

// RecoverKey returns the address of the key that produced the signature. For
// a keychain signature that is the access key, not the root account.
func RecoverKey(env Envelope, payload common.Hash) (common.Address, error) {
	switch sig := env.(type) {
	case *Secp256k1:
		return recoverSecp256k1(sig, payload)
	case *P256:
		digest := payload.Bytes()
		if sig.Prehash {
			sum := sha256.Sum256(digest)
			digest = sum[:]
		}
		if err := verifyP256(sig.PublicKey, sig.Signature, digest); err != nil {
			return common.Address{}, err
		}

		return sig.PublicKey.Address(), nil
	case *WebAuthn:
		if err := verifyWebAuthn(sig, payload); err != nil {
			return common.Address{}, err
		}

		return sig.PublicKey.Address(), nil
	case *Keychain:
		return RecoverKey(sig.Inner, payload)
	case nil:
		return common.Address{}, errors.Wrap(envelope.ErrInvalidSignature, "nil signature envelope")
	default:
		return common.Address{}, errors.Wrapf(envelope.ErrUnknownScheme, "unsupported envelope %T", env)
	}
}

// Verify checks that env authenticates payload as expected.
func Verify(env Envelope, payload common.Hash, expected common.Address) error {
	got, err := Recover(env, payload)
	if err != nil {
		return err
	}
	if got != expected {
		return errors.Wrapf(envelope.ErrInvalidSignature, "recovered %s, expected %s", got.Hex(), expected.Hex())
	}

	return nil
}

func recoverSecp256k1(sig *Secp256k1, payload common.Hash) (common.Address, error) {
	if !crypto.ValidateSignatureValues(sig.YParity, sig.R.ToBig(), sig.S.ToBig(), true) {
		return common.Address{}, errors.Wrap(envelope.ErrInvalidSignature, "secp256k1 signature values out of range")
	}

	pub, err := crypto.SigToPub(payload.Bytes(), sig.Bytes())
	if err != nil {
		return common.Address{}, errors.Wrap(envelope.ErrInvalidSignature, err.Error())
	}

	return crypto.PubkeyToAddress(*pub), nil
}

func verifyP256(pub PublicKey, sig P256Signature, digest []byte) error {
	curve := elliptic.P256()
	x, y := pub.X.ToBig(), pub.Y.ToBig()
	if !curve.IsOnCurve(x, y) {
		return errors.Wrap(envelope.ErrInvalidSignature, "p256 public key is not on the curve")
	}

	key := &ecdsa.PublicKey{Curve: curve, X: x, Y: y}
	if !ecdsa.Verify(key, digest, sig.R.ToBig(), sig.S.ToBig()) {
		return errors.Wrap(envelope.ErrInvalidSignature, "p256 signature does not verify")
	}

	return nil
}

// WebAuthnChallenge is the challenge an authenticator must sign for payload:
// the unpadded base64url encoding of its 32 bytes.
func WebAuthnChallenge(payload common.Hash) string {
	return base64.RawURLEncoding.EncodeToString(payload.Bytes())
}

// WebAuthnDigest is the message a WebAuthn assertion signs:
// sha256(authenticatorData || sha256(clientDataJSON)).
func WebAuthnDigest(meta WebAuthnMetadata) []byte {
	clientHash := sha256.Sum256(meta.ClientDataJSON)
	h := sha256.New()
	h.Write(meta.AuthenticatorData)
	h.Write(clientHash[:])

	return h.Sum(nil)
}

func verifyWebAuthn(sig *WebAuthn, payload common.Hash) error {
	meta := sig.Metadata
	if len(meta.AuthenticatorData) < minAuthenticatorDataLength {
		return errors.Wrap(envelope.ErrInvalidSignature, "authenticator data too short")
	}
	if meta.AuthenticatorData[flagsOffset]&flagUserPresent == 0 {
		return errors.Wrap(envelope.ErrInvalidSignature, "user presence flag not set")
	}

	var p fastjson.Parser
	clientData, err := p.ParseBytes(meta.ClientDataJSON)
	if err != nil {
		return errors.Wrap(envelope.ErrInvalidSignature, "client data is not valid JSON")
	}
	if !bytes.Equal(clientData.GetStringBytes("type"), []byte(webAuthnTypeGet)) {
		return errors.Wrap(envelope.ErrInvalidSignature, "client data type is not webauthn.get")
	}
	if string(clientData.GetStringBytes("challenge")) != WebAuthnChallenge(payload) {
		return errors.Wrap(envelope.ErrInvalidSignature, "client data challenge does not match payload")
	}

	return verifyP256(sig.PublicKey, sig.Signature, WebAuthnDigest(meta))
}
