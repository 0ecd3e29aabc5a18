package envelope

import (
	"github.com/ethereum/go-ethereum/common"
	"github.com/spf13/cobra"
	"github/chapool/go-txenvelope/internal/envelope/codec"
	"github/chapool/go-txenvelope/internal/envelope/transaction"
	"github/chapool/go-txenvelope/internal/util/command"
)

type decodeResult struct {
	Kind     string                  `json:"kind"`
	Hash     common.Hash             `json:"hash"`
	Sender   *common.Address         `json:"sender,omitempty"`
	FeePayer *common.Address         `json:"feePayer,omitempty"`
	Envelope transaction.Transaction `json:"envelope"`
}

func newDecode() *cobra.Command {
	return &cobra.Command{
		Use:   "decode <0x-hex | ->",
		Short: "Decodes a typed envelope and prints it as JSON",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			raw, err := command.ReadHexArg(cmd, args)
			if err != nil {
				return err
			}

			tx, err := transaction.Decode(raw)
			if err != nil {
				return err
			}

			out := decodeResult{
				Kind:     tx.Kind(),
				Hash:     codec.Keccak256(raw),
				Envelope: tx,
			}
			if sender, err := tx.Sender(); err == nil {
				out.Sender = &sender
			}
			if feePayer, err := tx.FeePayerAddress(); err == nil {
				out.FeePayer = &feePayer
			}

			return command.PrintJSON(cmd, out)
		},
	}
}
