package feepayer

import (
	"context"

	"github.com/ethereum/go-ethereum/common"
	"github.com/ethereum/go-ethereum/common/hexutil"
	"github.com/spf13/cobra"
	"github/chapool/go-txenvelope/internal/config"
	"github/chapool/go-txenvelope/internal/util/command"
	"github/chapool/go-txenvelope/internal/wallet"
)

func New() *cobra.Command {
	return command.NewSubcommandGroup("feepayer",
		newCoSign(),
		newAddress(),
	)
}

type coSignResult struct {
	Kind           string         `json:"kind"`
	Hash           common.Hash    `json:"hash"`
	Sender         common.Address `json:"sender"`
	FeePayer       common.Address `json:"feePayer"`
	RawTransaction hexutil.Bytes  `json:"rawTransaction"`
}

func newCoSign() *cobra.Command {
	return &cobra.Command{
		Use:   "cosign <0x-hex | ->",
		Short: "Attaches the fee payer signature to an envelope that requests one",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			raw, err := command.ReadHexArg(cmd, args)
			if err != nil {
				return err
			}

			cfg := config.DefaultServiceConfigFromEnv()

			return command.WithWallet(cmd.Context(), cfg, func(ctx context.Context, w *wallet.Wallet) error {
				res, err := w.Relay.CoSign(ctx, raw)
				if err != nil {
					return err
				}

				return command.PrintJSON(cmd, coSignResult{
					Kind:           res.Kind,
					Hash:           res.TxHash,
					Sender:         res.Sender,
					FeePayer:       res.FeePayer,
					RawTransaction: res.RawTransaction,
				})
			})
		},
	}
}

func newAddress() *cobra.Command {
	return &cobra.Command{
		Use:   "address",
		Short: "Prints the fee payer address",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			cfg := config.DefaultServiceConfigFromEnv()

			return command.WithWallet(cmd.Context(), cfg, func(ctx context.Context, w *wallet.Wallet) error {
				addr, err := w.Relay.Address(ctx)
				if err != nil {
					return err
				}

				return command.PrintJSON(cmd, map[string]common.Address{"feePayer": addr})
			})
		},
	}
}
