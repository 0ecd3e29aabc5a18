package keystore

import (
	"context"

	"github.com/spf13/cobra"
	"github/chapool/go-txenvelope/internal/config"
	"github/chapool/go-txenvelope/internal/util/command"
	"github/chapool/go-txenvelope/internal/wallet"
)

func New() *cobra.Command {
	return command.NewSubcommandGroup("keystore",
		newInit(),
		newAccounts(),
	)
}

func newInit() *cobra.Command {
	return &cobra.Command{
		Use:   "init",
		Short: "Creates the keystore, or unlocks it to check the password",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			cfg := config.DefaultServiceConfigFromEnv()

			return command.WithWallet(cmd.Context(), cfg, func(ctx context.Context, w *wallet.Wallet) error {
				accounts, err := w.ListAccounts(ctx)
				if err != nil {
					return err
				}

				return command.PrintJSON(cmd, accounts)
			}, command.AllowCreate())
		},
	}
}

func newAccounts() *cobra.Command {
	return &cobra.Command{
		Use:   "accounts",
		Short: "Lists the root, access key and fee payer accounts",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			cfg := config.DefaultServiceConfigFromEnv()

			return command.WithWallet(cmd.Context(), cfg, func(ctx context.Context, w *wallet.Wallet) error {
				accounts, err := w.ListAccounts(ctx)
				if err != nil {
					return err
				}

				return command.PrintJSON(cmd, accounts)
			})
		},
	}
}
