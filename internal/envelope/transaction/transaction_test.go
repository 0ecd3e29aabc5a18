package transaction_test

import (
	"testing"

	"github.com/ethereum/go-ethereum/common"
	"github.com/ethereum/go-ethereum/crypto"
	"github.com/holiman/uint256"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github/chapool/go-txenvelope/internal/envelope"
	"github/chapool/go-txenvelope/internal/envelope/aa"
	"github/chapool/go-txenvelope/internal/envelope/feepayer"
	"github/chapool/go-txenvelope/internal/envelope/feetoken"
	"github/chapool/go-txenvelope/internal/envelope/signature"
	"github/chapool/go-txenvelope/internal/envelope/transaction"
)

var recipient = common.HexToAddress("0x70997970c51812dc3a010c7d01b50e0d17dc79c8")

func TestDecodeDispatch(t *testing.T) {
	aaEnv := &aa.Envelope{
		ChainID:      *uint256.NewInt(1),
		MaxFeePerGas: uint256.NewInt(10),
		Calls:        []aa.Call{{To: &recipient}},
		FeePayer:     feepayer.Requested(),
	}
	aaRaw, err := aaEnv.Serialize()
	require.NoError(t, err)

	ftEnv := &feetoken.Envelope{
		ChainID:      *uint256.NewInt(1),
		MaxFeePerGas: uint256.NewInt(10),
		To:           &recipient,
	}
	ftRaw, err := ftEnv.Serialize()
	require.NoError(t, err)

	tx, err := transaction.Decode(aaRaw)
	require.NoError(t, err)
	assert.Equal(t, aa.Kind, tx.Kind())
	assert.True(t, tx.Delegation().Active())

	tx, err = transaction.Decode(ftRaw)
	require.NoError(t, err)
	assert.Equal(t, feetoken.Kind, tx.Kind())
	assert.False(t, tx.Delegation().Active())

	reencoded, err := tx.Serialize()
	require.NoError(t, err)
	assert.Equal(t, ftRaw, reencoded)
}

func TestDecodeRejects(t *testing.T) {
	_, err := transaction.Decode(nil)
	require.ErrorIs(t, err, envelope.ErrMalformedRLP)

	_, err = transaction.Decode([]byte{aa.FeePayerTxType, 0xc0})
	require.ErrorIs(t, err, envelope.ErrUnknownTxType)

	_, err = transaction.Decode([]byte{0x02, 0xc0})
	require.ErrorIs(t, err, envelope.ErrUnknownTxType)
}

func TestSetFeePayerSignature(t *testing.T) {
	key, err := crypto.HexToECDSA("59c6995e998f97a5a0044966f0945389dc9e86dae88c7a8412f4603b6b78690d")
	require.NoError(t, err)

	var tx transaction.Transaction = &feetoken.Envelope{
		ChainID:      *uint256.NewInt(1),
		MaxFeePerGas: uint256.NewInt(10),
		To:           &recipient,
		FeePayer:     feepayer.Requested(),
	}

	sender := common.HexToAddress("0xf39fd6e51aad88f6f4ce6ab8827279cfffb92266")
	payload, err := tx.FeePayerSignPayload(&sender)
	require.NoError(t, err)

	raw, err := crypto.Sign(payload.Bytes(), key)
	require.NoError(t, err)
	sig, err := signature.Secp256k1FromBytes(raw)
	require.NoError(t, err)

	tx.SetFeePayerSignature(sig)
	assert.Equal(t, sig, tx.Delegation().Signature)
	assert.True(t, tx.Delegation().Active())
}
