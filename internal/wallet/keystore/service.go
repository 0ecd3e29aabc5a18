package keystore

import (
	"context"
	"encoding/json"
	"os"
	"path/filepath"

	"github.com/ethereum/go-ethereum/common"
	"github.com/pkg/errors"
	"github.com/spf13/afero"
	"github/chapool/go-txenvelope/internal/util"
)

const (
	dirPerm  os.FileMode = 0o700
	filePerm os.FileMode = 0o600
)

type service struct {
	fs     afero.Fs
	path   string
	scrypt ScryptParams
}

// NewService creates a KeystoreService backed by the file at path on fs.
//
//nolint:ireturn // Returning interface is intentional for dependency injection
func NewService(fs afero.Fs, path string, scrypt ScryptParams) (Service, error) {
	if path == "" {
		return nil, errors.New("keystore path must not be empty")
	}
	if scrypt.N <= 0 || scrypt.P <= 0 {
		scrypt = DefaultScryptParams()
	}

	return &service{
		fs:     fs,
		path:   path,
		scrypt: scrypt,
	}, nil
}

func (s *service) CreateKeystore(ctx context.Context, mnemonic string, password string) (*Keystore, error) {
	log := util.LogFromContext(ctx)

	exists, err := s.Exists(ctx)
	if err != nil {
		return nil, errors.Wrap(err, "failed to check keystore existence")
	}
	if exists {
		return nil, ErrAlreadyExists
	}

	ks, err := s.encryptMnemonic(mnemonic, password)
	if err != nil {
		log.Error().Err(err).Msg("Failed to encrypt mnemonic")
		return nil, errors.Wrap(err, "failed to encrypt mnemonic")
	}

	if err := s.write(ks); err != nil {
		log.Error().Err(err).Str("path", s.path).Msg("Failed to write keystore")
		return nil, err
	}

	log.Debug().Str("path", s.path).Str("id", ks.ID).Msg("Keystore written")

	return ks, nil
}

func (s *service) DecryptMnemonic(ctx context.Context, ks *Keystore, password string) (string, error) {
	mnemonic, err := s.decryptMnemonic(ks, password)
	if err != nil {
		util.LogFromContext(ctx).Debug().Err(err).Msg("Failed to decrypt mnemonic")
		return "", errors.Wrap(err, "failed to decrypt mnemonic")
	}

	return mnemonic, nil
}

func (s *service) GetKeystore(_ context.Context) (*Keystore, error) {
	data, err := afero.ReadFile(s.fs, s.path)
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return nil, ErrNotFound
		}
		return nil, errors.Wrap(err, "failed to read keystore")
	}

	var ks Keystore
	if err := json.Unmarshal(data, &ks); err != nil {
		return nil, errors.Wrap(err, "failed to unmarshal keystore JSON")
	}

	return &ks, nil
}

func (s *service) Exists(_ context.Context) (bool, error) {
	exists, err := afero.Exists(s.fs, s.path)
	if err != nil {
		return false, errors.Wrap(err, "failed to stat keystore")
	}

	return exists, nil
}

func (s *service) SetVerificationAddress(ctx context.Context, address common.Address) error {
	ks, err := s.GetKeystore(ctx)
	if err != nil {
		return err
	}

	ks.VerificationAddress = &address

	return s.write(ks)
}

// write replaces the keystore file through a rename so a crash never leaves
// a truncated file behind.
func (s *service) write(ks *Keystore) error {
	data, err := json.MarshalIndent(ks, "", "  ")
	if err != nil {
		return errors.Wrap(err, "failed to marshal keystore JSON")
	}

	if err := s.fs.MkdirAll(filepath.Dir(s.path), dirPerm); err != nil {
		return errors.Wrap(err, "failed to create keystore directory")
	}

	tmp := s.path + ".tmp"
	if err := afero.WriteFile(s.fs, tmp, data, filePerm); err != nil {
		return errors.Wrap(err, "failed to write keystore")
	}

	if err := s.fs.Rename(tmp, s.path); err != nil {
		return errors.Wrap(err, "failed to move keystore into place")
	}

	return nil
}
