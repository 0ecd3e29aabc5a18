package keystore

import (
	"github.com/ethereum/go-ethereum/accounts/keystore"
	"github.com/pkg/errors"
)

// decryptMnemonic verifies the MAC and decrypts the stored secret.
func (s *service) decryptMnemonic(ks *Keystore, password string) (string, error) {
	if ks.Version != Version {
		return "", errors.Errorf("unsupported keystore version %d", ks.Version)
	}

	plaintext, err := keystore.DecryptDataV3(ks.Crypto, password)
	if err != nil {
		return "", err
	}
	defer clear(plaintext)

	return string(plaintext), nil
}
