package envelope

import (
	"github.com/ethereum/go-ethereum/common"
	"github.com/spf13/cobra"
	"github/chapool/go-txenvelope/internal/envelope/transaction"
	"github/chapool/go-txenvelope/internal/util/command"
)

const senderFlag = "sender"

type hashResult struct {
	Hash                common.Hash  `json:"hash"`
	SignPayload         common.Hash  `json:"signPayload"`
	FeePayerSignPayload *common.Hash `json:"feePayerSignPayload,omitempty"`
}

func newHash() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "hash <0x-hex | ->",
		Short: "Prints the envelope hash and the payloads its signers sign",
		Long: `Prints the envelope hash and the payloads its signers sign.

The fee payer payload is bound to the sender. It is recovered from the
envelope signature unless --sender is given.`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			raw, err := command.ReadHexArg(cmd, args)
			if err != nil {
				return err
			}

			tx, err := transaction.Decode(raw)
			if err != nil {
				return err
			}

			var out hashResult
			if out.Hash, err = tx.Hash(false); err != nil {
				return err
			}
			if out.SignPayload, err = tx.SignPayload(); err != nil {
				return err
			}

			var sender *common.Address
			if s, _ := cmd.Flags().GetString(senderFlag); s != "" {
				if !common.IsHexAddress(s) {
					return errInvalidAddress(senderFlag, s)
				}
				addr := common.HexToAddress(s)
				sender = &addr
			}

			if tx.Delegation().Active() {
				payload, err := tx.FeePayerSignPayload(sender)
				if err != nil {
					return err
				}
				out.FeePayerSignPayload = &payload
			}

			return command.PrintJSON(cmd, out)
		},
	}

	cmd.Flags().String(senderFlag, "", "Sender address the fee payer payload is bound to")

	return cmd
}
