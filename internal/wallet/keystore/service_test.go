package keystore_test

import (
	"encoding/json"
	"testing"

	gethkeystore "github.com/ethereum/go-ethereum/accounts/keystore"
	"github.com/ethereum/go-ethereum/common"
	"github.com/spf13/afero"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github/chapool/go-txenvelope/internal/wallet/keystore"
)

const path = "/data/keystore/txenv.json"

func newService(t *testing.T) (keystore.Service, afero.Fs) {
	t.Helper()

	fs := afero.NewMemMapFs()
	s, err := keystore.NewService(fs, path, keystore.ScryptParams{N: gethkeystore.LightScryptN, P: gethkeystore.LightScryptP})
	require.NoError(t, err)

	return s, fs
}

func TestCreateAndDecrypt(t *testing.T) {
	s, fs := newService(t)
	ctx := t.Context()

	exists, err := s.Exists(ctx)
	require.NoError(t, err)
	assert.False(t, exists)

	_, err = s.GetKeystore(ctx)
	require.ErrorIs(t, err, keystore.ErrNotFound)

	created, err := s.CreateKeystore(ctx, "secret words", "correct horse")
	require.NoError(t, err)
	assert.Equal(t, keystore.Version, created.Version)
	assert.NotEmpty(t, created.ID)

	info, err := fs.Stat(path)
	require.NoError(t, err)
	assert.Equal(t, "-rw-------", info.Mode().String())

	tmpExists, err := afero.Exists(fs, path+".tmp")
	require.NoError(t, err)
	assert.False(t, tmpExists)

	ks, err := s.GetKeystore(ctx)
	require.NoError(t, err)
	assert.Equal(t, created.ID, ks.ID)

	mnemonic, err := s.DecryptMnemonic(ctx, ks, "correct horse")
	require.NoError(t, err)
	assert.Equal(t, "secret words", mnemonic)

	_, err = s.DecryptMnemonic(ctx, ks, "wrong")
	require.ErrorIs(t, err, keystore.ErrDecrypt)

	_, err = s.CreateKeystore(ctx, "other", "correct horse")
	require.ErrorIs(t, err, keystore.ErrAlreadyExists)
}

func TestFileFormat(t *testing.T) {
	s, fs := newService(t)

	_, err := s.CreateKeystore(t.Context(), "secret words", "pw")
	require.NoError(t, err)

	data, err := afero.ReadFile(fs, path)
	require.NoError(t, err)

	var raw map[string]interface{}
	require.NoError(t, json.Unmarshal(data, &raw))
	assert.InDelta(t, 3, raw["version"], 0)

	crypto, ok := raw["crypto"].(map[string]interface{})
	require.True(t, ok)
	assert.Equal(t, "aes-128-ctr", crypto["cipher"])
	assert.Equal(t, "scrypt", crypto["kdf"])
	assert.NotContains(t, string(data), "secret words")
}

func TestVerificationAddress(t *testing.T) {
	s, _ := newService(t)
	ctx := t.Context()

	err := s.SetVerificationAddress(ctx, common.HexToAddress("0x01"))
	require.ErrorIs(t, err, keystore.ErrNotFound)

	_, err = s.CreateKeystore(ctx, "secret words", "pw")
	require.NoError(t, err)

	addr := common.HexToAddress("0xf39fd6e51aad88f6f4ce6ab8827279cfffb92266")
	require.NoError(t, s.SetVerificationAddress(ctx, addr))

	ks, err := s.GetKeystore(ctx)
	require.NoError(t, err)
	require.NotNil(t, ks.VerificationAddress)
	assert.Equal(t, addr, *ks.VerificationAddress)

	mnemonic, err := s.DecryptMnemonic(ctx, ks, "pw")
	require.NoError(t, err)
	assert.Equal(t, "secret words", mnemonic)
}

func TestNewServiceRejectsEmptyPath(t *testing.T) {
	_, err := keystore.NewService(afero.NewMemMapFs(), "", keystore.DefaultScryptParams())
	require.Error(t, err)
}
