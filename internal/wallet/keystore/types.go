package keystore

import (
	"context"

	"github.com/ethereum/go-ethereum/accounts/keystore"
	"github.com/ethereum/go-ethereum/common"
	"github.com/pkg/errors"
)

const Version = 3

var (
	ErrNotFound      = errors.New("keystore not found")
	ErrAlreadyExists = errors.New("keystore already exists")
	// ErrDecrypt is returned for a wrong password or a tampered file.
	ErrDecrypt = keystore.ErrDecrypt
)

// Service stores the encrypted wallet secret.
type Service interface {
	// CreateKeystore encrypts mnemonic under password and writes it out.
	CreateKeystore(ctx context.Context, mnemonic string, password string) (*Keystore, error)

	// DecryptMnemonic decrypts mnemonic from keystore
	DecryptMnemonic(ctx context.Context, keystore *Keystore, password string) (string, error)

	// GetKeystore reads the stored keystore.
	GetKeystore(ctx context.Context) (*Keystore, error)

	// Exists checks if keystore exists
	Exists(ctx context.Context) (bool, error)

	// SetVerificationAddress records the address used to check the password on unlock.
	SetVerificationAddress(ctx context.Context, address common.Address) error
}

// Keystore is the Ethereum keystore v3 JSON structure with the wallet's
// verification address alongside.
type Keystore struct {
	Version             int                 `json:"version"`
	ID                  string              `json:"id"`
	VerificationAddress *common.Address     `json:"verificationAddress,omitempty"`
	Crypto              keystore.CryptoJSON `json:"crypto"`
}

// ScryptParams selects the scrypt cost. Tests use keystore.LightScryptN/P.
type ScryptParams struct {
	N int
	P int
}

func DefaultScryptParams() ScryptParams {
	return ScryptParams{N: keystore.StandardScryptN, P: keystore.StandardScryptP}
}
