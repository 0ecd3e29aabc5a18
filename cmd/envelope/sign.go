package envelope

import (
	"context"
	"fmt"

	"github.com/ethereum/go-ethereum/common"
	"github.com/ethereum/go-ethereum/common/hexutil"
	"github.com/holiman/uint256"
	"github.com/pkg/errors"
	"github.com/spf13/cobra"
	"github/chapool/go-txenvelope/internal/config"
	"github/chapool/go-txenvelope/internal/envelope"
	"github/chapool/go-txenvelope/internal/envelope/aa"
	"github/chapool/go-txenvelope/internal/envelope/feepayer"
	"github/chapool/go-txenvelope/internal/envelope/feetoken"
	"github/chapool/go-txenvelope/internal/envelope/tokenid"
	"github/chapool/go-txenvelope/internal/util/command"
	"github/chapool/go-txenvelope/internal/wallet"
	"github/chapool/go-txenvelope/internal/wallet/signer"
)

const (
	kindFlag        = "kind"
	toFlag          = "to"
	valueFlag       = "value"
	dataFlag        = "data"
	nonceFlag       = "nonce"
	nonceKeyFlag    = "nonce-key"
	gasFlag         = "gas"
	maxFeeFlag      = "max-fee"
	tipFlag         = "tip"
	feeTokenFlag    = "fee-token"
	sponsoredFlag   = "sponsored"
	validBeforeFlag = "valid-before"
	validAfterFlag  = "valid-after"
	accessKeyFlag   = "access-key"
)

type signFlags struct {
	kind        string
	to          string
	value       string
	data        string
	nonce       uint64
	nonceKey    string
	gas         uint64
	maxFee      string
	tip         string
	feeToken    string
	sponsored   bool
	validBefore uint64
	validAfter  uint64
	accessKey   bool
}

func errInvalidAddress(flag string, value string) error {
	return errors.Wrapf(envelope.ErrInvalidAddress, "--%s %q", flag, value)
}

func newSign() *cobra.Command {
	var f signFlags

	cmd := &cobra.Command{
		Use:   "sign",
		Short: "Builds and signs a single call envelope with the wallet keys",
		Long: `Builds and signs a single call envelope with the wallet keys.

AA envelopes are signed by the root key, or with --access-key by the access
key as a keychain signature on behalf of the root account. Fee token
envelopes are always signed by the root key.`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			cfg := config.DefaultServiceConfigFromEnv()

			return command.WithWallet(cmd.Context(), cfg, func(ctx context.Context, w *wallet.Wallet) error {
				res, err := f.sign(ctx, w)
				if err != nil {
					return err
				}

				_, err = fmt.Fprintln(cmd.OutOrStdout(), hexutil.Encode(res.RawTransaction))
				return err
			})
		},
	}

	cmd.Flags().StringVar(&f.kind, kindFlag, aa.Kind, "Envelope kind: aa or feeToken")
	cmd.Flags().StringVar(&f.to, toFlag, "", "Call target; empty creates a contract")
	cmd.Flags().StringVar(&f.value, valueFlag, "", "Call value in wei")
	cmd.Flags().StringVar(&f.data, dataFlag, "", "0x-prefixed call data")
	cmd.Flags().Uint64Var(&f.nonce, nonceFlag, 0, "Nonce")
	cmd.Flags().StringVar(&f.nonceKey, nonceKeyFlag, "", "AA nonce key (at most 192 bits)")
	cmd.Flags().Uint64Var(&f.gas, gasFlag, 0, "Gas limit")
	cmd.Flags().StringVar(&f.maxFee, maxFeeFlag, "", "Max fee per gas in wei")
	cmd.Flags().StringVar(&f.tip, tipFlag, "", "Max priority fee per gas in wei")
	cmd.Flags().StringVar(&f.feeToken, feeTokenFlag, "", "Fee token address or numeric token id; defaults to the configured fee token")
	cmd.Flags().BoolVar(&f.sponsored, sponsoredFlag, false, "Request a fee payer")
	cmd.Flags().Uint64Var(&f.validBefore, validBeforeFlag, 0, "AA validity upper bound (unix seconds)")
	cmd.Flags().Uint64Var(&f.validAfter, validAfterFlag, 0, "AA validity lower bound (unix seconds)")
	cmd.Flags().BoolVar(&f.accessKey, accessKeyFlag, false, "Sign AA envelopes with the access key")

	return cmd
}

func (f *signFlags) sign(ctx context.Context, w *wallet.Wallet) (*signer.SignResponse, error) {
	root, err := w.Account(ctx, wallet.RoleRoot)
	if err != nil {
		return nil, err
	}

	chainID := uint256.NewInt(w.Config.Chain.ChainID)

	to, value, data, err := f.call()
	if err != nil {
		return nil, err
	}

	maxFee, err := envelope.FeeFromDecimal(f.maxFee)
	if err != nil {
		return nil, err
	}
	tip, err := envelope.FeeFromDecimal(f.tip)
	if err != nil {
		return nil, err
	}

	feeTokenInput := f.feeToken
	if feeTokenInput == "" {
		feeTokenInput = w.Config.Chain.FeeToken
	}
	var feeToken *common.Address
	if feeTokenInput != "" {
		token, err := tokenid.Parse(feeTokenInput)
		if err != nil {
			return nil, err
		}
		feeToken = &token
	}

	delegation := feepayer.None()
	if f.sponsored {
		delegation = feepayer.Requested()
	}

	switch f.kind {
	case aa.Kind:
		e := &aa.Envelope{
			ChainID:              *chainID,
			MaxPriorityFeePerGas: tip,
			MaxFeePerGas:         maxFee,
			Gas:                  f.gas,
			Calls:                []aa.Call{{To: to, Value: value, Data: data}},
			Nonce:                f.nonce,
			ValidBefore:          optionalUint64(f.validBefore),
			ValidAfter:           optionalUint64(f.validAfter),
			FeeToken:             feeToken,
			FeePayer:             delegation,
		}
		if f.nonceKey != "" {
			if e.NonceKey, err = uint256.FromDecimal(f.nonceKey); err != nil {
				return nil, errors.Wrapf(err, "--%s", nonceKeyFlag)
			}
		}

		req := &signer.SignAARequest{Envelope: e, Key: root.KeyRef()}
		if f.accessKey {
			accessKey, err := w.Account(ctx, wallet.RoleAccessKey)
			if err != nil {
				return nil, err
			}
			req.Key = accessKey.KeyRef()
			req.Keychain = &root.Address
		}

		return w.Signer.SignAA(ctx, req)

	case feetoken.Kind:
		e := &feetoken.Envelope{
			ChainID:              *chainID,
			Nonce:                f.nonce,
			MaxPriorityFeePerGas: tip,
			MaxFeePerGas:         maxFee,
			Gas:                  f.gas,
			To:                   to,
			Value:                value,
			Data:                 data,
			FeeToken:             feeToken,
			FeePayer:             delegation,
		}

		return w.Signer.SignFeeToken(ctx, &signer.SignFeeTokenRequest{Envelope: e, DerivationPath: root.DerivationPath})

	default:
		return nil, errors.Wrapf(envelope.ErrUnknownTxType, "--%s %q", kindFlag, f.kind)
	}
}

func (f *signFlags) call() (*common.Address, *uint256.Int, []byte, error) {
	var to *common.Address
	if f.to != "" {
		if !common.IsHexAddress(f.to) {
			return nil, nil, nil, errInvalidAddress(toFlag, f.to)
		}
		addr := common.HexToAddress(f.to)
		to = &addr
	}

	var value *uint256.Int
	if f.value != "" {
		v, err := uint256.FromDecimal(f.value)
		if err != nil {
			return nil, nil, nil, errors.Wrapf(err, "--%s", valueFlag)
		}
		value = v
	}

	var data []byte
	if f.data != "" {
		d, err := hexutil.Decode(f.data)
		if err != nil {
			return nil, nil, nil, errors.Wrapf(err, "--%s", dataFlag)
		}
		data = d
	}

	return to, value, data, nil
}

func optionalUint64(v uint64) *uint64 {
	if v == 0 {
		return nil
	}

	return &v
}
