package address

import (
	"context"
	"crypto/ecdsa"
	"fmt"

	"github.com/ethereum/go-ethereum/common"
	"github.com/ethereum/go-ethereum/crypto"
	"github.com/pkg/errors"
	"github/chapool/go-txenvelope/internal/envelope/signature"
)

type service struct{}

// NewService creates a new AddressService
//
//nolint:ireturn // Returning interface is intentional for dependency injection
func NewService() Service {
	return &service{}
}

func (s *service) DeriveAddress(ctx context.Context, seed []byte, path string, scheme signature.Scheme) (common.Address, error) {
	key, err := s.DeriveKey(ctx, seed, path, scheme)
	if err != nil {
		return common.Address{}, err
	}
	defer ClearKey(key)

	return KeyAddress(key, scheme)
}

// KeyAddress maps a public key to the account it authenticates as.
func KeyAddress(key *ecdsa.PrivateKey, scheme signature.Scheme) (common.Address, error) {
	switch scheme {
	case signature.SchemeSecp256k1:
		return crypto.PubkeyToAddress(key.PublicKey), nil
	case signature.SchemeP256, signature.SchemeWebAuthn:
		pub, err := signature.PublicKeyFromECDSA(&key.PublicKey)
		if err != nil {
			return common.Address{}, err
		}
		return pub.Address(), nil
	default:
		return common.Address{}, errors.Errorf("unsupported scheme: %s", scheme)
	}
}

func (s *service) BIP44Path(addressIndex int) string {
	return fmt.Sprintf("m/44'/60'/0'/0/%d", addressIndex)
}

// ClearKey zeroes the private scalar.
func ClearKey(key *ecdsa.PrivateKey) {
	if key == nil || key.D == nil {
		return
	}
	key.D.SetInt64(0)
}
