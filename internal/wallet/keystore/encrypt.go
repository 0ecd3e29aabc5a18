package keystore

import (
	"github.com/ethereum/go-ethereum/accounts/keystore"
	"github.com/google/uuid"
	"github.com/pkg/errors"
)

// encryptMnemonic encrypts a mnemonic using Ethereum keystore v3 format
// (scrypt, AES-128-CTR, keccak MAC).
func (s *service) encryptMnemonic(mnemonic string, password string) (*Keystore, error) {
	cryptoJSON, err := keystore.EncryptDataV3([]byte(mnemonic), []byte(password), s.scrypt.N, s.scrypt.P)
	if err != nil {
		return nil, errors.Wrap(err, "failed to encrypt")
	}

	id, err := uuid.NewRandom()
	if err != nil {
		return nil, errors.Wrap(err, "failed to generate keystore id")
	}

	return &Keystore{
		Version: Version,
		ID:      id.String(),
		Crypto:  cryptoJSON,
	}, nil
}
