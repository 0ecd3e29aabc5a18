package signature

import (
	"bytes"

	"github.com/ethereum/go-ethereum/common"
	"github.com/ethereum/go-ethereum/crypto"
	"github.com/pkg/errors"
	"github/chapool/go-txenvelope/internal/envelope"
)

// Wire type bytes. secp256k1 has no tag byte: it is recognized by its
// 65-byte length.
const (
	TypeP256     byte = 0x01
	TypeWebAuthn byte = 0x02
	TypeKeychain byte = 0x03
)

const (
	wordLength = 32
	// r || s || x || y
	p256BodyLength = 4 * wordLength
	// TypeP256 || r || s || x || y || prehash
	P256Length = 1 + p256BodyLength + 1
	// rpIdHash(32) || flags(1) || signCount(4)
	minAuthenticatorDataLength = 37
	keychainHeaderLength       = 1 + common.AddressLength
)

var clientDataJSONStart = []byte(`{"`)

// Serialize renders env in its wire form.
func Serialize(env Envelope) ([]byte, error) {
	switch sig := env.(type) {
	case *Secp256k1:
		return serializeSecp256k1(sig)
	case *P256:
		return serializeP256(sig), nil
	case *WebAuthn:
		return serializeWebAuthn(sig)
	case *Keychain:
		return serializeKeychain(sig)
	case nil:
		return nil, errors.Wrap(envelope.ErrMalformedEnvelope, "nil signature envelope")
	default:
		return nil, errors.Wrapf(envelope.ErrUnknownScheme, "unsupported envelope %T", env)
	}
}

func serializeSecp256k1(sig *Secp256k1) ([]byte, error) {
	if sig.YParity > 1 {
		return nil, errors.Wrapf(envelope.ErrMalformedEnvelope, "yParity %d", sig.YParity)
	}

	const legacyVOffset = 27
	out := sig.Bytes()
	out[64] += legacyVOffset

	return out, nil
}

func serializeP256(sig *P256) []byte {
	out := make([]byte, 0, P256Length)
	out = append(out, TypeP256)
	out = appendP256Body(out, sig.Signature, sig.PublicKey)
	if sig.Prehash {
		out = append(out, 1)
	} else {
		out = append(out, 0)
	}

	return out
}

func serializeWebAuthn(sig *WebAuthn) ([]byte, error) {
	meta := sig.Metadata
	if len(meta.AuthenticatorData) < minAuthenticatorDataLength {
		return nil, errors.Wrapf(envelope.ErrMalformedEnvelope, "authenticator data is %d bytes", len(meta.AuthenticatorData))
	}
	if !bytes.HasPrefix(meta.ClientDataJSON, clientDataJSONStart) {
		return nil, errors.Wrap(envelope.ErrMalformedEnvelope, "client data is not a JSON object")
	}
	// The decoder splits at the first `{"` after the fixed authenticator data header.
	if bytes.Contains(meta.AuthenticatorData[minAuthenticatorDataLength:], clientDataJSONStart) {
		return nil, errors.Wrap(envelope.ErrMalformedEnvelope, "authenticator data extensions are ambiguous with client data")
	}

	out := make([]byte, 0, 1+len(meta.AuthenticatorData)+len(meta.ClientDataJSON)+p256BodyLength)
	out = append(out, TypeWebAuthn)
	out = append(out, meta.AuthenticatorData...)
	out = append(out, meta.ClientDataJSON...)
	out = appendP256Body(out, sig.Signature, sig.PublicKey)

	return out, nil
}

func serializeKeychain(sig *Keychain) ([]byte, error) {
	if _, nested := sig.Inner.(*Keychain); nested {
		return nil, errors.Wrap(envelope.ErrMalformedEnvelope, "keychain signature cannot wrap another keychain signature")
	}

	inner, err := Serialize(sig.Inner)
	if err != nil {
		return nil, errors.Wrap(err, "failed to serialize keychain inner signature")
	}

	out := make([]byte, 0, keychainHeaderLength+len(inner))
	out = append(out, TypeKeychain)
	out = append(out, sig.UserAddress.Bytes()...)
	out = append(out, inner...)

	return out, nil
}

func appendP256Body(out []byte, sig P256Signature, pub PublicKey) []byte {
	for _, word := range [][32]byte{sig.R.Bytes32(), sig.S.Bytes32(), pub.X.Bytes32(), pub.Y.Bytes32()} {
		out = append(out, word[:]...)
	}

	return out
}

// Deserialize parses the wire form produced by Serialize.
func Deserialize(b []byte) (Envelope, error) {
	if len(b) == 0 {
		return nil, errors.Wrap(envelope.ErrMalformedEnvelope, "empty signature")
	}
	if len(b) == crypto.SignatureLength {
		return Secp256k1FromBytes(b)
	}

	switch b[0] {
	case TypeP256:
		return deserializeP256(b)
	case TypeWebAuthn:
		return deserializeWebAuthn(b)
	case TypeKeychain:
		return deserializeKeychain(b)
	default:
		return nil, errors.Wrapf(envelope.ErrUnknownScheme, "type byte 0x%02x with length %d", b[0], len(b))
	}
}

func deserializeP256(b []byte) (*P256, error) {
	if len(b) != P256Length {
		return nil, errors.Wrapf(envelope.ErrMalformedEnvelope, "p256 signature must be %d bytes, got %d", P256Length, len(b))
	}

	out := &P256{}
	readP256Body(b[1:1+p256BodyLength], &out.Signature, &out.PublicKey)

	switch b[P256Length-1] {
	case 0:
	case 1:
		out.Prehash = true
	default:
		return nil, errors.Wrapf(envelope.ErrMalformedEnvelope, "prehash flag 0x%02x", b[P256Length-1])
	}

	return out, nil
}

func deserializeWebAuthn(b []byte) (*WebAuthn, error) {
	body := b[1:]
	if len(body) < minAuthenticatorDataLength+len(clientDataJSONStart)+p256BodyLength {
		return nil, errors.Wrapf(envelope.ErrMalformedEnvelope, "webauthn signature too short: %d bytes", len(b))
	}

	data := body[:len(body)-p256BodyLength]
	idx := bytes.Index(data[minAuthenticatorDataLength:], clientDataJSONStart)
	if idx < 0 {
		return nil, errors.Wrap(envelope.ErrMalformedEnvelope, "webauthn client data not found")
	}
	split := minAuthenticatorDataLength + idx

	out := &WebAuthn{
		Metadata: WebAuthnMetadata{
			AuthenticatorData: common.CopyBytes(data[:split]),
			ClientDataJSON:    common.CopyBytes(data[split:]),
		},
	}
	readP256Body(body[len(body)-p256BodyLength:], &out.Signature, &out.PublicKey)

	return out, nil
}

func deserializeKeychain(b []byte) (*Keychain, error) {
	if len(b) <= keychainHeaderLength {
		return nil, errors.Wrapf(envelope.ErrMalformedEnvelope, "keychain signature too short: %d bytes", len(b))
	}

	rest := b[keychainHeaderLength:]
	if len(rest) != crypto.SignatureLength && rest[0] == TypeKeychain {
		return nil, errors.Wrap(envelope.ErrMalformedEnvelope, "keychain signature cannot wrap another keychain signature")
	}

	inner, err := Deserialize(rest)
	if err != nil {
		return nil, errors.Wrap(err, "failed to deserialize keychain inner signature")
	}

	return &Keychain{
		UserAddress: common.BytesToAddress(b[1:keychainHeaderLength]),
		Inner:       inner,
	}, nil
}

func readP256Body(body []byte, sig *P256Signature, pub *PublicKey) {
	sig.R.SetBytes(body[0:wordLength])
	sig.S.SetBytes(body[wordLength : 2*wordLength])
	pub.X.SetBytes(body[2*wordLength : 3*wordLength])
	pub.Y.SetBytes(body[3*wordLength : 4*wordLength])
}

func normalizeV(v byte) (uint8, error) {
	switch v {
	case 0, 27:
		return 0, nil
	case 1, 28:
		return 1, nil
	default:
		return 0, errors.Wrapf(envelope.ErrMalformedEnvelope, "invalid recovery id %d", v)
	}
}
