package command

import (
	"context"

	"github.com/pkg/errors"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/rs/zerolog/log"
	"github.com/spf13/afero"
	"github.com/spf13/cobra"
	"github/chapool/go-txenvelope/internal/config"
	"github/chapool/go-txenvelope/internal/util"
	"github/chapool/go-txenvelope/internal/wallet"
)

// NewSubcommandGroup returns a command that only groups subCmds and prints its help otherwise.
func NewSubcommandGroup(name string, subCmds ...*cobra.Command) *cobra.Command {
	c := &cobra.Command{
		Use:   name,
		Short: name + " subcommands",
		Run: func(cmd *cobra.Command, _ []string) {
			if err := cmd.Help(); err != nil {
				log.Error().Err(err).Msg("Failed to print help")
			}
		},
	}

	c.AddCommand(subCmds...)

	return c
}

type walletOptions struct {
	fs       afero.Fs
	registry prometheus.Registerer
	prompt   wallet.PasswordPrompt
	create   bool
}

type Option func(*walletOptions)

// WithFs replaces the OS filesystem the keystore is read from.
func WithFs(fs afero.Fs) Option {
	return func(o *walletOptions) { o.fs = fs }
}

// WithRegisterer replaces the prometheus default registerer.
func WithRegisterer(reg prometheus.Registerer) Option {
	return func(o *walletOptions) { o.registry = reg }
}

// WithPrompt replaces the terminal password prompt.
func WithPrompt(prompt wallet.PasswordPrompt) Option {
	return func(o *walletOptions) { o.prompt = prompt }
}

// AllowCreate lets an absent keystore be created instead of failing.
func AllowCreate() Option {
	return func(o *walletOptions) { o.create = true }
}

// WithWallet configures logging, unlocks the wallet described by cfg and runs fn.
// The seed is cleared once fn returns.
func WithWallet(ctx context.Context, cfg config.Server, fn func(ctx context.Context, w *wallet.Wallet) error, opts ...Option) error {
	o := walletOptions{
		fs:       afero.NewOsFs(),
		registry: prometheus.DefaultRegisterer,
	}
	for _, opt := range opts {
		opt(&o)
	}

	util.ConfigureLogger(cfg.Logger)
	logger := log.With().Str("component", "wallet").Logger()
	ctx = logger.WithContext(ctx)

	w, err := wallet.New(cfg, o.fs, o.registry)
	if err != nil {
		return errors.Wrap(err, "failed to create wallet")
	}
	defer w.Seed.Clear()

	if !o.create {
		exists, err := w.Keystore.Exists(ctx)
		if err != nil {
			return err
		}
		if !exists {
			return errors.Errorf("no keystore at %s, run keystore init first", cfg.Wallet.KeystorePath)
		}
	}

	if err := w.InitializeKeystore(ctx, o.prompt); err != nil {
		return errors.Wrap(err, "failed to initialize keystore")
	}

	return fn(ctx, w)
}
