package feetoken_test

import (
	"crypto/ecdsa"
	"errors"
	"math"
	"testing"

	"github.com/ethereum/go-ethereum/common"
	"github.com/ethereum/go-ethereum/core/types"
	"github.com/ethereum/go-ethereum/crypto"
	"github.com/holiman/uint256"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github/chapool/go-txenvelope/internal/envelope"
	"github/chapool/go-txenvelope/internal/envelope/codec"
	"github/chapool/go-txenvelope/internal/envelope/feepayer"
	"github/chapool/go-txenvelope/internal/envelope/feetoken"
	"github/chapool/go-txenvelope/internal/envelope/signature"
	"github/chapool/go-txenvelope/internal/envelope/tokenid"
)

const (
	senderKeyHex   = "ac0974bec39a17e36ba4a6b4d238ff944bacb478cbed5efcae784d7bf4f2ff80"
	feePayerKeyHex = "59c6995e998f97a5a0044966f0945389dc9e86dae88c7a8412f4603b6b78690d"
)

var recipient = common.HexToAddress("0x70997970c51812dc3a010c7d01b50e0d17dc79c8")

func mustKey(t *testing.T, keyHex string) *ecdsa.PrivateKey {
	t.Helper()

	key, err := crypto.HexToECDSA(keyHex)
	require.NoError(t, err)

	return key
}

func sign(t *testing.T, key *ecdsa.PrivateKey, hash common.Hash) *signature.Secp256k1 {
	t.Helper()

	raw, err := crypto.Sign(hash.Bytes(), key)
	require.NoError(t, err)

	sig, err := signature.Secp256k1FromBytes(raw)
	require.NoError(t, err)

	return sig
}

func baseEnvelope() *feetoken.Envelope {
	token := tokenid.ToAddress(1)

	return &feetoken.Envelope{
		ChainID:              *uint256.NewInt(42431),
		Nonce:                7,
		MaxPriorityFeePerGas: uint256.NewInt(1_000_000_000),
		MaxFeePerGas:         uint256.NewInt(3_000_000_000),
		Gas:                  21_000,
		To:                   &recipient,
		Value:                uint256.NewInt(1),
		Data:                 []byte{0xde, 0xad, 0xbe, 0xef},
		FeeToken:             &token,
	}
}

func TestRoundTrip(t *testing.T) {
	senderKey := mustKey(t, senderKeyHex)
	feePayerKey := mustKey(t, feePayerKeyHex)

	t.Run("unsigned", func(t *testing.T) {
		e := baseEnvelope()
		b, err := e.Serialize()
		require.NoError(t, err)
		assert.Equal(t, feetoken.TxType, b[0])

		decoded, err := feetoken.Deserialize(b)
		require.NoError(t, err)
		assert.Equal(t, e, decoded)
	})

	t.Run("signed with access and authorization lists", func(t *testing.T) {
		e := baseEnvelope()
		e.AccessList = types.AccessList{{
			Address:     recipient,
			StorageKeys: []common.Hash{common.HexToHash("0x01")},
		}}
		auth, err := feetoken.SignAuthorization(senderKey, types.SetCodeAuthorization{
			ChainID: e.ChainID,
			Address: common.HexToAddress("0x00000000000000000000000000000000000000aa"),
			Nonce:   8,
		})
		require.NoError(t, err)
		e.AuthorizationList = []types.SetCodeAuthorization{auth}

		payload, err := e.SignPayload()
		require.NoError(t, err)
		e.Signature = sign(t, senderKey, payload)

		b, err := e.Serialize()
		require.NoError(t, err)

		decoded, err := feetoken.Deserialize(b)
		require.NoError(t, err)
		assert.Equal(t, e, decoded)

		authority, err := decoded.AuthorizationList[0].Authority()
		require.NoError(t, err)
		assert.Equal(t, crypto.PubkeyToAddress(senderKey.PublicKey), authority)
	})

	t.Run("fee payer signed", func(t *testing.T) {
		e := baseEnvelope()
		e.FeePayer = feepayer.Requested()

		payload, err := e.SignPayload()
		require.NoError(t, err)
		e.Signature = sign(t, senderKey, payload)

		feePayerPayload, err := e.FeePayerSignPayload(nil)
		require.NoError(t, err)
		e.FeePayer = feepayer.Signed(sign(t, feePayerKey, feePayerPayload))

		b, err := e.Serialize()
		require.NoError(t, err)

		decoded, err := feetoken.Deserialize(b)
		require.NoError(t, err)
		assert.Equal(t, e, decoded)

		sender, err := decoded.Sender()
		require.NoError(t, err)
		assert.Equal(t, crypto.PubkeyToAddress(senderKey.PublicKey), sender)

		payer, err := decoded.FeePayerAddress()
		require.NoError(t, err)
		assert.Equal(t, crypto.PubkeyToAddress(feePayerKey.PublicKey), payer)
	})
}

func TestFeePayerPayloadDropsTypeByte(t *testing.T) {
	sender := common.HexToAddress("0xf39fd6e51aad88f6f4ce6ab8827279cfffb92266")

	e := baseEnvelope()
	e.FeePayer = feepayer.Requested()

	preimage, err := e.Serialize(envelope.ForFeePayer(sender))
	require.NoError(t, err)
	assert.Equal(t, feetoken.TxType, preimage[0])

	raw, err := codec.SplitList(preimage[1:])
	require.NoError(t, err)
	require.Len(t, raw, 12)
	slot, err := codec.Bytes(raw[11])
	require.NoError(t, err)
	assert.Equal(t, sender.Bytes(), slot)

	payload, err := e.FeePayerSignPayload(&sender)
	require.NoError(t, err)
	assert.Equal(t, codec.Keccak256(preimage[1:]), payload)
	assert.NotEqual(t, codec.Keccak256(preimage), payload)
}

func TestSignPayloadExclusivity(t *testing.T) {
	senderKey := mustKey(t, senderKeyHex)
	sender := crypto.PubkeyToAddress(senderKey.PublicKey)

	e := baseEnvelope()
	e.FeePayer = feepayer.Requested()

	before, err := e.SignPayload()
	require.NoError(t, err)
	feePayerBefore, err := e.FeePayerSignPayload(&sender)
	require.NoError(t, err)

	e.Signature = sign(t, senderKey, before)
	e.FeePayer = feepayer.Signed(sign(t, mustKey(t, feePayerKeyHex), feePayerBefore))

	after, err := e.SignPayload()
	require.NoError(t, err)
	assert.Equal(t, before, after)

	feePayerAfter, err := e.FeePayerSignPayload(nil)
	require.NoError(t, err)
	assert.Equal(t, feePayerBefore, feePayerAfter)

	full, err := e.Hash(false)
	require.NoError(t, err)
	assert.NotEqual(t, before, full)
}

func TestAssert(t *testing.T) {
	tests := []struct {
		name   string
		mutate func(e *feetoken.Envelope)
		want   error
	}{
		{"valid", func(*feetoken.Envelope) {}, nil},
		{"contract creation", func(e *feetoken.Envelope) { e.To = nil }, nil},
		{"zero chain id", func(e *feetoken.Envelope) { e.ChainID = uint256.Int{} }, envelope.ErrInvalidChainID},
		{"tip above fee cap", func(e *feetoken.Envelope) { e.MaxPriorityFeePerGas = uint256.NewInt(3_000_000_001) }, envelope.ErrTipAboveFeeCap},
		{"authorization on other chain", func(e *feetoken.Envelope) {
			e.AuthorizationList = []types.SetCodeAuthorization{{ChainID: *uint256.NewInt(1)}}
		}, envelope.ErrInvalidAuthorization},
		{"authorization on any chain", func(e *feetoken.Envelope) {
			e.AuthorizationList = []types.SetCodeAuthorization{{}}
		}, nil},
		{"authorization nonce", func(e *feetoken.Envelope) {
			e.AuthorizationList = []types.SetCodeAuthorization{{Nonce: math.MaxUint64}}
		}, envelope.ErrInvalidAuthorization},
		{"authorization yParity", func(e *feetoken.Envelope) {
			e.AuthorizationList = []types.SetCodeAuthorization{{V: 27}}
		}, envelope.ErrInvalidAuthorization},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			e := baseEnvelope()
			tt.mutate(e)

			err := e.Assert()
			if tt.want == nil {
				require.NoError(t, err)
				assert.True(t, e.Validate())
				return
			}

			require.ErrorIs(t, err, tt.want)
			assert.False(t, e.Validate())
		})
	}
}

func TestDeserializeRejects(t *testing.T) {
	b, err := baseEnvelope().Serialize()
	require.NoError(t, err)

	_, err = feetoken.Deserialize(append([]byte{0x76}, b[1:]...))
	require.ErrorIs(t, err, envelope.ErrUnknownTxType)

	items := make([]interface{}, 13)
	for i := range items {
		items[i] = []byte{}
	}
	short, err := codec.EncodeTyped(feetoken.TxType, items)
	require.NoError(t, err)

	_, err = feetoken.Deserialize(short)
	var serr *envelope.InvalidSerializedError
	require.True(t, errors.As(err, &serr))
	assert.Equal(t, []string{"r", "s"}, serr.Missing)
	assert.Equal(t, envelope.ClassStructural, envelope.ClassOf(err))
}

func TestSenderUnknown(t *testing.T) {
	_, err := baseEnvelope().Sender()
	require.ErrorIs(t, err, envelope.ErrSenderUnknown)
	assert.Equal(t, envelope.ClassCryptographic, envelope.ClassOf(err))
}
