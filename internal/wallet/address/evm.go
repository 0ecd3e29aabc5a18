package address

import (
	"context"
	"crypto/ecdh"
	"crypto/ecdsa"
	"crypto/elliptic"
	"math/big"
	"strconv"
	"strings"

	"github.com/ethereum/go-ethereum/crypto"
	"github.com/pkg/errors"
	"github.com/tyler-smith/go-bip32"
	"github/chapool/go-txenvelope/internal/envelope/signature"
)

var ErrInvalidPath = errors.New("invalid BIP44 path")

// DeriveKey walks path from the BIP32 master key of seed. secp256k1 uses the
// child key directly; P256 and WebAuthn map the 32 child bytes onto a P256
// scalar in [1, N-1].
func (s *service) DeriveKey(_ context.Context, seed []byte, path string, scheme signature.Scheme) (*ecdsa.PrivateKey, error) {
	masterKey, err := bip32.NewMasterKey(seed)
	if err != nil {
		return nil, errors.Wrap(err, "failed to create master key")
	}

	derivedKey, err := deriveKeyFromPath(masterKey, path)
	if err != nil {
		return nil, errors.Wrap(err, "failed to derive key from path")
	}
	defer clear(derivedKey.Key)

	switch scheme {
	case signature.SchemeSecp256k1:
		key, err := crypto.ToECDSA(derivedKey.Key)
		if err != nil {
			return nil, errors.Wrap(err, "failed to convert to ECDSA private key")
		}
		return key, nil
	case signature.SchemeP256, signature.SchemeWebAuthn:
		return p256FromBytes(derivedKey.Key)
	default:
		return nil, errors.Errorf("unsupported scheme: %s", scheme)
	}
}

func p256FromBytes(b []byte) (*ecdsa.PrivateKey, error) {
	curve := elliptic.P256()
	nMinusOne := new(big.Int).Sub(curve.Params().N, big.NewInt(1))

	d := new(big.Int).SetBytes(b)
	d.Mod(d, nMinusOne)
	d.Add(d, big.NewInt(1))

	var scalar [32]byte
	d.FillBytes(scalar[:])
	defer clear(scalar[:])

	priv, err := ecdh.P256().NewPrivateKey(scalar[:])
	if err != nil {
		return nil, errors.Wrap(err, "failed to build p256 key")
	}

	// Uncompressed point: 0x04 || x || y
	point := priv.PublicKey().Bytes()

	return &ecdsa.PrivateKey{
		PublicKey: ecdsa.PublicKey{
			Curve: curve,
			X:     new(big.Int).SetBytes(point[1:33]),
			Y:     new(big.Int).SetBytes(point[33:65]),
		},
		D: d,
	}, nil
}

// deriveKeyFromPath derives a key from BIP44 path
// Path format: m/44'/60'/0'/0/{index}
func deriveKeyFromPath(masterKey *bip32.Key, path string) (*bip32.Key, error) {
	indices, err := ParsePath(path)
	if err != nil {
		return nil, err
	}

	key := masterKey
	for _, index := range indices {
		key, err = key.NewChildKey(index)
		if err != nil {
			return nil, errors.Wrapf(err, "failed to derive child key at index %d", index)
		}
	}

	return key, nil
}

// ParsePath parses a BIP44 path string into indices
// Example: "m/44'/60'/0'/0/0" -> [2147483692, 2147483708, 2147483648, 0, 0]
func ParsePath(path string) ([]uint32, error) {
	parts := strings.Split(path, "/")
	if len(parts) < 2 || parts[0] != "m" {
		return nil, errors.Wrapf(ErrInvalidPath, "%q", path)
	}

	indices := make([]uint32, 0, len(parts)-1)
	for _, part := range parts[1:] {
		hardened := strings.HasSuffix(part, "'")
		part = strings.TrimSuffix(part, "'")

		index, err := strconv.ParseUint(part, 10, 31)
		if err != nil {
			return nil, errors.Wrapf(ErrInvalidPath, "segment %q", part)
		}

		if hardened {
			index += uint64(bip32.FirstHardenedChild)
		}

		indices = append(indices, uint32(index))
	}

	return indices, nil
}
