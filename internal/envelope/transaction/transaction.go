// Package transaction decodes any supported typed envelope behind a common interface.
package transaction

import (
	"encoding/json"

	"github.com/ethereum/go-ethereum/common"
	"github.com/pkg/errors"
	"github/chapool/go-txenvelope/internal/envelope"
	"github/chapool/go-txenvelope/internal/envelope/aa"
	"github/chapool/go-txenvelope/internal/envelope/feepayer"
	"github/chapool/go-txenvelope/internal/envelope/feetoken"
	"github/chapool/go-txenvelope/internal/envelope/signature"
)

// Transaction is implemented by *aa.Envelope and *feetoken.Envelope.
type Transaction interface {
	json.Marshaler

	Kind() string
	Assert() error
	Serialize(opts ...envelope.SerializeOption) ([]byte, error)
	Hash(presign bool) (common.Hash, error)
	SignPayload() (common.Hash, error)
	FeePayerSignPayload(sender *common.Address) (common.Hash, error)
	Sender() (common.Address, error)
	FeePayerAddress() (common.Address, error)
	FeeTokenAddress() *common.Address
	Delegation() feepayer.Delegation
	SetFeePayerSignature(sig *signature.Secp256k1)
}

var (
	_ Transaction = (*aa.Envelope)(nil)
	_ Transaction = (*feetoken.Envelope)(nil)
)

// Decode dispatches on the leading type byte.
//
//nolint:ireturn // the concrete envelope type is only known after reading the type byte
func Decode(b []byte) (Transaction, error) {
	if len(b) == 0 {
		return nil, errors.Wrap(envelope.ErrMalformedRLP, "empty input")
	}

	var (
		tx  Transaction
		err error
	)
	switch b[0] {
	case aa.TxType:
		tx, err = aa.Deserialize(b)
	case feetoken.TxType:
		tx, err = feetoken.Deserialize(b)
	default:
		return nil, errors.Wrapf(envelope.ErrUnknownTxType, "0x%02x", b[0])
	}
	if err != nil {
		return nil, err
	}

	return tx, nil
}
