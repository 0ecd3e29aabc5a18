package test

import (
	"testing"

	"github.com/ethereum/go-ethereum/accounts/keystore"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/spf13/afero"
	"github.com/stretchr/testify/require"
	"github/chapool/go-txenvelope/internal/config"
	"github/chapool/go-txenvelope/internal/wallet"
)

const (
	TestSecret   = "5f1cbd0c0e2c3a0f7a4b1e4c9a4e2f6d8b7c6a5d4e3f2a1b0c9d8e7f6a5b4c3d"
	TestPassword = "correct horse battery staple"
	TestChainID  = 42431
)

// DefaultTestConfig is the env config with an in-memory friendly keystore path and cheap scrypt.
func DefaultTestConfig() config.Server {
	cfg := config.DefaultServiceConfigFromEnv()

	cfg.Logger.PrettyPrintConsole = false
	cfg.Wallet.KeystorePath = "/keystore/txenv.json"
	cfg.Wallet.RootPath = "m/44'/60'/0'/0/0"
	cfg.Wallet.AccessKeyPath = "m/44'/60'/0'/1/0"
	cfg.Wallet.FeePayerPath = "m/44'/60'/0'/2/0"
	cfg.Wallet.AccessKeyScheme = "p256"
	cfg.Wallet.WebAuthnRPID = "localhost"
	cfg.Wallet.WebAuthnOrigin = "http://localhost"
	cfg.Wallet.EnableSigning = true
	cfg.Wallet.ScryptN = keystore.LightScryptN
	cfg.Wallet.ScryptP = keystore.LightScryptP
	cfg.Chain.ChainID = TestChainID
	cfg.Chain.FeeToken = ""

	return cfg
}

// WithTestWallet runs closure with an unlocked wallet on a fresh in-memory filesystem.
func WithTestWallet(t *testing.T, closure func(w *wallet.Wallet)) {
	t.Helper()

	closure(NewTestWallet(t, DefaultTestConfig()))
}

func NewTestWallet(t *testing.T, cfg config.Server) *wallet.Wallet {
	t.Helper()

	w, err := wallet.New(cfg, afero.NewMemMapFs(), prometheus.NewRegistry())
	require.NoError(t, err)
	require.NoError(t, w.Create(t.Context(), TestSecret, TestPassword))

	return w
}
