package wallet

import (
	"context"

	"github.com/pkg/errors"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/spf13/afero"
	"github/chapool/go-txenvelope/internal/config"
	"github/chapool/go-txenvelope/internal/envelope/signature"
	"github/chapool/go-txenvelope/internal/envelope/tokenid"
	"github/chapool/go-txenvelope/internal/metrics"
	"github/chapool/go-txenvelope/internal/wallet/address"
	"github/chapool/go-txenvelope/internal/wallet/keystore"
	"github/chapool/go-txenvelope/internal/wallet/relay"
	"github/chapool/go-txenvelope/internal/wallet/seed"
	"github/chapool/go-txenvelope/internal/wallet/signer"
)

// Wallet bundles the services behind the CLI.
type Wallet struct {
	Config   config.Server
	Seed     seed.Manager
	Address  address.Service
	Keystore keystore.Service
	Signer   signer.Service
	Relay    relay.Service
	Metrics  *metrics.Service
}

// New wires the wallet services. The keystore lives at cfg.Wallet.KeystorePath on fs.
func New(cfg config.Server, fs afero.Fs, reg prometheus.Registerer) (*Wallet, error) {
	if _, err := signature.ParseScheme(cfg.Wallet.AccessKeyScheme); err != nil {
		return nil, errors.Wrap(err, "invalid access key scheme")
	}

	m, err := metrics.New(reg)
	if err != nil {
		return nil, err
	}

	keystoreService, err := keystore.NewService(fs, cfg.Wallet.KeystorePath, keystore.ScryptParams{
		N: cfg.Wallet.ScryptN,
		P: cfg.Wallet.ScryptP,
	})
	if err != nil {
		return nil, errors.Wrap(err, "failed to create keystore service")
	}

	seedManager := seed.NewManager()
	addressService := address.NewService()

	signerService, err := signer.NewService(seedManager, addressService, cfg.Wallet, m)
	if err != nil {
		return nil, errors.Wrap(err, "failed to create signer service")
	}

	var policy relay.Policy
	if cfg.Chain.FeeToken != "" {
		token, err := tokenid.Parse(cfg.Chain.FeeToken)
		if err != nil {
			return nil, errors.Wrap(err, "invalid fee token")
		}
		policy.FeeTokens = append(policy.FeeTokens, token)
	}

	return &Wallet{
		Config:   cfg,
		Seed:     seedManager,
		Address:  addressService,
		Keystore: keystoreService,
		Signer:   signerService,
		Relay:    relay.NewService(signerService, cfg.Wallet.FeePayerPath, policy, m),
		Metrics:  m,
	}, nil
}

// Account derives the account for role.
func (w *Wallet) Account(ctx context.Context, role Role) (*Account, error) {
	var (
		path   string
		scheme = signature.SchemeSecp256k1
	)

	switch role {
	case RoleRoot:
		path = w.Config.Wallet.RootPath
	case RoleAccessKey:
		path = w.Config.Wallet.AccessKeyPath
		parsed, err := signature.ParseScheme(w.Config.Wallet.AccessKeyScheme)
		if err != nil {
			return nil, err
		}
		scheme = parsed
	case RoleFeePayer:
		path = w.Config.Wallet.FeePayerPath
	default:
		return nil, errors.Errorf("unknown role %q", role)
	}

	account := &Account{
		Role:           role,
		Scheme:         scheme,
		SchemeName:     scheme.String(),
		DerivationPath: path,
	}

	addr, err := w.Signer.Address(ctx, account.KeyRef())
	if err != nil {
		return nil, errors.Wrapf(err, "failed to derive %s account", role)
	}
	account.Address = addr

	return account, nil
}

// ListAccounts derives every configured account.
func (w *Wallet) ListAccounts(ctx context.Context) ([]*Account, error) {
	roles := []Role{RoleRoot, RoleAccessKey, RoleFeePayer}
	accounts := make([]*Account, 0, len(roles))

	for _, role := range roles {
		account, err := w.Account(ctx, role)
		if err != nil {
			return nil, err
		}
		accounts = append(accounts, account)
	}

	return accounts, nil
}
