package keyauth

import (
	"context"
	"strings"

	"github.com/ethereum/go-ethereum/common"
	"github.com/ethereum/go-ethereum/common/hexutil"
	"github.com/holiman/uint256"
	"github.com/pkg/errors"
	"github.com/spf13/cobra"
	"github/chapool/go-txenvelope/internal/config"
	"github/chapool/go-txenvelope/internal/envelope/keyauth"
	"github/chapool/go-txenvelope/internal/envelope/signature"
	"github/chapool/go-txenvelope/internal/envelope/tokenid"
	"github/chapool/go-txenvelope/internal/util/command"
	"github/chapool/go-txenvelope/internal/wallet"
	"github/chapool/go-txenvelope/internal/wallet/signer"
)

const (
	expiryFlag   = "expiry"
	limitFlag    = "limit"
	anyChainFlag = "any-chain"
)

func New() *cobra.Command {
	return command.NewSubcommandGroup("keyauth",
		newSign(),
	)
}

type limitView struct {
	Token common.Address `json:"token"`
	Limit *hexutil.U256  `json:"limit"`
}

type authView struct {
	Address   common.Address      `json:"address"`
	Type      string              `json:"type"`
	ChainID   *hexutil.U256       `json:"chainId"`
	Expiry    hexutil.Uint64      `json:"expiry"`
	Limits    []limitView         `json:"limits"`
	Hash      common.Hash         `json:"hash"`
	Signature *signature.JSONView `json:"signature"`
	RLP       hexutil.Bytes       `json:"rlp"`
}

func newSign() *cobra.Command {
	var (
		expiry   string
		limits   []string
		anyChain bool
	)

	cmd := &cobra.Command{
		Use:   "sign",
		Short: "Authorizes the access key with the root key",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			opts, err := parseOptions(expiry, limits)
			if err != nil {
				return err
			}

			cfg := config.DefaultServiceConfigFromEnv()
			if !anyChain {
				opts.ChainID = uint256.NewInt(cfg.Chain.ChainID)
			}

			return command.WithWallet(cmd.Context(), cfg, func(ctx context.Context, w *wallet.Wallet) error {
				root, err := w.Account(ctx, wallet.RoleRoot)
				if err != nil {
					return err
				}
				accessKey, err := w.Account(ctx, wallet.RoleAccessKey)
				if err != nil {
					return err
				}

				auth, err := w.Signer.AuthorizeKey(ctx, &signer.AuthorizeKeyRequest{
					Root:      root.KeyRef(),
					AccessKey: accessKey.KeyRef(),
					Options:   opts,
				})
				if err != nil {
					return err
				}

				view, err := render(auth)
				if err != nil {
					return err
				}

				return command.PrintJSON(cmd, view)
			})
		},
	}

	cmd.Flags().StringVar(&expiry, expiryFlag, "", `Unix expiry; "never" for no expiry, empty for the maximum`)
	cmd.Flags().StringArrayVar(&limits, limitFlag, nil, "Spend limit as token=amount, token being an address or a token id (repeatable)")
	cmd.Flags().BoolVar(&anyChain, anyChainFlag, false, "Valid on any chain instead of the configured one")

	return cmd
}

func parseOptions(expiry string, limits []string) (keyauth.Options, error) {
	var opts keyauth.Options

	switch expiry {
	case "":
	case "never":
		never := keyauth.NeverExpires
		opts.Expiry = &never
	default:
		v, err := hexutil.DecodeUint64(expiry)
		if err != nil {
			d, derr := uint256.FromDecimal(expiry)
			if derr != nil || !d.IsUint64() {
				return opts, errors.Errorf("invalid --%s %q", expiryFlag, expiry)
			}
			v = d.Uint64()
		}
		opts.Expiry = &v
	}

	for _, l := range limits {
		token, amount, ok := strings.Cut(l, "=")
		if !ok {
			return opts, errors.Errorf("invalid --%s %q, expected token=amount", limitFlag, l)
		}

		addr, err := tokenid.Parse(token)
		if err != nil {
			return opts, errors.Wrapf(err, "--%s %q", limitFlag, l)
		}

		v, err := uint256.FromDecimal(amount)
		if err != nil {
			return opts, errors.Wrapf(err, "--%s %q", limitFlag, l)
		}

		opts.Limits = append(opts.Limits, keyauth.Limit{Token: addr, Limit: *v})
	}

	return opts, nil
}

func render(auth *keyauth.KeyAuthorization) (*authView, error) {
	hash, err := auth.Hash()
	if err != nil {
		return nil, err
	}

	b, err := auth.Serialize()
	if err != nil {
		return nil, err
	}

	view := &authView{
		Address:   auth.Address,
		Type:      auth.Type.String(),
		ChainID:   (*hexutil.U256)(&auth.ChainID),
		Expiry:    hexutil.Uint64(auth.Expiry),
		Limits:    make([]limitView, 0, len(auth.Limits)),
		Hash:      hash,
		Signature: signature.View(auth.Signature),
		RLP:       b,
	}
	for i := range auth.Limits {
		view.Limits = append(view.Limits, limitView{
			Token: auth.Limits[i].Token,
			Limit: (*hexutil.U256)(&auth.Limits[i].Limit),
		})
	}

	return view, nil
}
