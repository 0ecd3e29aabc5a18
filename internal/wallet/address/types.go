package address

import (
	"context"
	"crypto/ecdsa"

	"github.com/ethereum/go-ethereum/common"
	"github/chapool/go-txenvelope/internal/envelope/signature"
)

// Service derives signing keys and their addresses from the wallet seed.
type Service interface {
	// DeriveKey derives the private key at path for the given scheme.
	// WARNING: Caller must clear the private key after use
	DeriveKey(ctx context.Context, seed []byte, path string, scheme signature.Scheme) (*ecdsa.PrivateKey, error)

	// DeriveAddress derives the address the key at path signs as.
	DeriveAddress(ctx context.Context, seed []byte, path string, scheme signature.Scheme) (common.Address, error)

	// BIP44Path returns m/44'/60'/0'/0/{index}.
	BIP44Path(addressIndex int) string
}
