package relay_test

import (
	"testing"

	"github.com/ethereum/go-ethereum/common"
	"github.com/holiman/uint256"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github/chapool/go-txenvelope/internal/envelope"
	"github/chapool/go-txenvelope/internal/envelope/aa"
	"github/chapool/go-txenvelope/internal/envelope/feepayer"
	"github/chapool/go-txenvelope/internal/envelope/feetoken"
	"github/chapool/go-txenvelope/internal/envelope/tokenid"
	"github/chapool/go-txenvelope/internal/test"
	"github/chapool/go-txenvelope/internal/wallet"
	"github/chapool/go-txenvelope/internal/wallet/relay"
	"github/chapool/go-txenvelope/internal/wallet/signer"
)

var recipient = common.HexToAddress("0x70997970c51812dc3a010c7d01b50e0d17dc79c8")

func signedAA(t *testing.T, w *wallet.Wallet, delegation feepayer.Delegation) (*aa.Envelope, []byte) {
	t.Helper()

	root, err := w.Account(t.Context(), wallet.RoleRoot)
	require.NoError(t, err)

	token := tokenid.ToAddress(1)
	e := &aa.Envelope{
		ChainID:              *uint256.NewInt(test.TestChainID),
		MaxPriorityFeePerGas: uint256.NewInt(1),
		MaxFeePerGas:         uint256.NewInt(2_000_000_000),
		Gas:                  100_000,
		Calls:                []aa.Call{{To: &recipient, Value: uint256.NewInt(5), Data: []byte{0x01}}},
		Nonce:                3,
		FeeToken:             &token,
		FeePayer:             delegation,
	}

	res, err := w.Signer.SignAA(t.Context(), &signer.SignAARequest{Envelope: e, Key: root.KeyRef()})
	require.NoError(t, err)

	return e, res.RawTransaction
}

func TestCoSignAA(t *testing.T) {
	test.WithTestWallet(t, func(w *wallet.Wallet) {
		ctx := t.Context()

		root, err := w.Account(ctx, wallet.RoleRoot)
		require.NoError(t, err)
		feePayer, err := w.Account(ctx, wallet.RoleFeePayer)
		require.NoError(t, err)

		original, raw := signedAA(t, w, feepayer.Requested())

		res, err := w.Relay.CoSign(ctx, raw)
		require.NoError(t, err)
		assert.Equal(t, aa.Kind, res.Kind)
		assert.Equal(t, root.Address, res.Sender)
		assert.Equal(t, feePayer.Address, res.FeePayer)

		relayAddress, err := w.Relay.Address(ctx)
		require.NoError(t, err)
		assert.Equal(t, feePayer.Address, relayAddress)

		sponsored, err := aa.Deserialize(res.RawTransaction)
		require.NoError(t, err)

		sender, err := sponsored.Sender()
		require.NoError(t, err)
		assert.Equal(t, root.Address, sender)

		payer, err := sponsored.FeePayerAddress()
		require.NoError(t, err)
		assert.Equal(t, feePayer.Address, payer)

		// Only the slot changed.
		require.NotNil(t, sponsored.FeePayer.Signature)
		sponsored.FeePayer = original.FeePayer
		assert.Equal(t, original, sponsored)
	})
}

func TestCoSignFeeToken(t *testing.T) {
	test.WithTestWallet(t, func(w *wallet.Wallet) {
		ctx := t.Context()

		root, err := w.Account(ctx, wallet.RoleRoot)
		require.NoError(t, err)
		feePayer, err := w.Account(ctx, wallet.RoleFeePayer)
		require.NoError(t, err)

		e := &feetoken.Envelope{
			ChainID:      *uint256.NewInt(test.TestChainID),
			MaxFeePerGas: uint256.NewInt(2_000_000_000),
			Gas:          21_000,
			To:           &recipient,
			FeePayer:     feepayer.Requested(),
		}
		signed, err := w.Signer.SignFeeToken(ctx, &signer.SignFeeTokenRequest{Envelope: e, DerivationPath: root.DerivationPath})
		require.NoError(t, err)

		res, err := w.Relay.CoSign(ctx, signed.RawTransaction)
		require.NoError(t, err)
		assert.Equal(t, feetoken.Kind, res.Kind)

		sponsored, err := feetoken.Deserialize(res.RawTransaction)
		require.NoError(t, err)

		payer, err := sponsored.FeePayerAddress()
		require.NoError(t, err)
		assert.Equal(t, feePayer.Address, payer)

		sponsored.FeePayer = e.FeePayer
		assert.Equal(t, e, sponsored)
	})
}

func TestCoSignRejects(t *testing.T) {
	test.WithTestWallet(t, func(w *wallet.Wallet) {
		ctx := t.Context()

		_, raw := signedAA(t, w, feepayer.None())
		_, err := w.Relay.CoSign(ctx, raw)
		require.ErrorIs(t, err, relay.ErrNotRequested)

		_, raw = signedAA(t, w, feepayer.Requested())
		res, err := w.Relay.CoSign(ctx, raw)
		require.NoError(t, err)
		_, err = w.Relay.CoSign(ctx, res.RawTransaction)
		require.ErrorIs(t, err, relay.ErrAlreadySponsored)

		unsigned := &aa.Envelope{
			ChainID:      *uint256.NewInt(test.TestChainID),
			MaxFeePerGas: uint256.NewInt(1),
			Calls:        []aa.Call{{To: &recipient}},
			FeePayer:     feepayer.Requested(),
		}
		raw, err = unsigned.Serialize()
		require.NoError(t, err)
		_, err = w.Relay.CoSign(ctx, raw)
		require.ErrorIs(t, err, envelope.ErrSenderUnknown)

		_, err = w.Relay.CoSign(ctx, []byte{0x76, 0x01})
		require.ErrorIs(t, err, envelope.ErrMalformedRLP)
		assert.Equal(t, envelope.ClassStructural, envelope.ClassOf(err))
	})
}

func TestCoSignFeeTokenPolicy(t *testing.T) {
	cfg := test.DefaultTestConfig()
	cfg.Chain.FeeToken = "2"
	w := test.NewTestWallet(t, cfg)

	_, raw := signedAA(t, w, feepayer.Requested())
	_, err := w.Relay.CoSign(t.Context(), raw)
	require.ErrorIs(t, err, relay.ErrFeeTokenRejected)

	cfg.Chain.FeeToken = "1"
	w = test.NewTestWallet(t, cfg)

	_, raw = signedAA(t, w, feepayer.Requested())
	_, err = w.Relay.CoSign(t.Context(), raw)
	require.NoError(t, err)
}
