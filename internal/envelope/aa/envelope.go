package aa

import (
	"github.com/ethereum/go-ethereum/rlp"
	"github.com/pkg/errors"
	"github/chapool/go-txenvelope/internal/envelope"
	"github/chapool/go-txenvelope/internal/envelope/codec"
	"github/chapool/go-txenvelope/internal/envelope/feepayer"
	"github/chapool/go-txenvelope/internal/envelope/signature"
)

// Assert checks the envelope invariants.
func (e *Envelope) Assert() error {
	if len(e.Calls) == 0 {
		return envelope.ErrEmptyCalls
	}

	if e.ValidBefore != nil && e.ValidAfter != nil && *e.ValidBefore <= *e.ValidAfter {
		return errors.Wrapf(envelope.ErrInvalidValidityWindow, "validBefore %d, validAfter %d", *e.ValidBefore, *e.ValidAfter)
	}

	if e.NonceKey != nil && e.NonceKey.BitLen() > nonceKeyBits {
		return errors.Wrapf(envelope.ErrInvalidNonceKey, "nonce key %s", e.NonceKey.Hex())
	}

	return envelope.AssertFees(&e.ChainID, e.MaxFeePerGas, e.MaxPriorityFeePerGas)
}

// Validate is the predicate form of Assert.
func (e *Envelope) Validate() bool {
	return e.Assert() == nil
}

// Serialize renders the envelope. Without options the signature is appended
// when present; envelope.Presign and envelope.ForFeePayer render the two sign
// payload preimages instead.
func (e *Envelope) Serialize(opts ...envelope.SerializeOption) ([]byte, error) {
	if err := e.Assert(); err != nil {
		return nil, err
	}

	cfg := envelope.ResolveOptions(opts...)

	slot, err := feepayer.SlotFor(e.FeePayer, cfg).Item()
	if err != nil {
		return nil, err
	}

	items := make([]interface{}, 0, len(signedFields))
	items = append(items,
		codec.Uint256Bytes(&e.ChainID),
		codec.Uint256Bytes(e.MaxPriorityFeePerGas),
		codec.Uint256Bytes(e.MaxFeePerGas),
		codec.Uint64Bytes(e.Gas),
		callItems(e.Calls),
		codec.AccessListItems(e.AccessList),
		codec.Uint256Bytes(e.NonceKey),
		codec.Uint64Bytes(e.Nonce),
		codec.OptionalUint64Bytes(e.ValidBefore),
		codec.OptionalUint64Bytes(e.ValidAfter),
		codec.AddressBytes(e.FeeToken),
		slot,
	)

	if cfg.WithSignature() && e.Signature != nil {
		sig, err := signature.Serialize(e.Signature)
		if err != nil {
			return nil, errors.Wrap(err, "failed to serialize sender signature")
		}
		items = append(items, sig)
	}

	txType := TxType
	if cfg.Sender != nil {
		txType = FeePayerTxType
	}

	return codec.EncodeTyped(txType, items)
}

func callItems(calls []Call) []interface{} {
	items := make([]interface{}, 0, len(calls))
	for _, c := range calls {
		data := c.Data
		if data == nil {
			data = []byte{}
		}
		items = append(items, []interface{}{
			codec.AddressBytes(c.To),
			codec.Uint256Bytes(c.Value),
			data,
		})
	}

	return items
}

// Deserialize parses a 0x76 envelope and re-runs Assert on the result.
func Deserialize(b []byte) (*Envelope, error) {
	if len(b) == 0 || b[0] != TxType {
		return nil, errors.Wrapf(envelope.ErrUnknownTxType, "expected 0x%02x", TxType)
	}

	raw, err := codec.SplitList(b[1:])
	if err != nil {
		return nil, err
	}
	if len(raw) != len(unsignedFields) && len(raw) != len(signedFields) {
		names := unsignedFields
		if len(raw) > len(signedFields) {
			names = signedFields
		}

		return nil, envelope.NewInvalidSerializedError(Kind, names, len(raw))
	}

	f := codec.NewFields(raw, signedFields)
	e := &Envelope{
		ChainID:              f.Uint256OrZero(idxChainID),
		MaxPriorityFeePerGas: f.Uint256(idxMaxPriorityFeePerGas),
		MaxFeePerGas:         f.Uint256(idxMaxFeePerGas),
		Gas:                  f.Uint64(idxGas),
		AccessList:           f.AccessList(idxAccessList),
		NonceKey:             f.Uint256(idxNonceKey),
		Nonce:                f.Uint64(idxNonce),
		ValidBefore:          f.OptionalUint64(idxValidBefore),
		ValidAfter:           f.OptionalUint64(idxValidAfter),
		FeeToken:             f.OptionalAddress(idxFeeToken),
	}

	for i, rawCall := range f.List(idxCalls) {
		call, err := parseCall(rawCall)
		if err != nil {
			f.Fail(idxCalls, errors.Wrapf(err, "call %d", i))
			break
		}
		e.Calls = append(e.Calls, call)
	}

	if f.Err() == nil {
		slot, err := feepayer.DecodeSlot(f.Raw(idxFeePayer))
		f.Fail(idxFeePayer, err)
		e.FeePayer = slot.Delegation()
	}

	if len(raw) == len(signedFields) {
		sigBytes := f.Bytes(idxSignature)
		if f.Err() == nil {
			sig, err := signature.Deserialize(sigBytes)
			f.Fail(idxSignature, err)
			e.Signature = sig
		}
	}

	if err := f.Err(); err != nil {
		return nil, err
	}
	if err := e.Assert(); err != nil {
		return nil, err
	}

	return e, nil
}

func parseCall(raw rlp.RawValue) (Call, error) {
	fields, err := codec.ListElements(raw)
	if err != nil {
		return Call{}, err
	}
	if len(fields) != callTupleLength {
		return Call{}, errors.Wrapf(envelope.ErrMalformedRLP, "call has %d elements", len(fields))
	}

	to, err := codec.OptionalAddress(fields[0])
	if err != nil {
		return Call{}, errors.Wrap(err, "to")
	}
	value, err := codec.Uint256(fields[1])
	if err != nil {
		return Call{}, errors.Wrap(err, "value")
	}
	data, err := codec.OptionalBytes(fields[2])
	if err != nil {
		return Call{}, errors.Wrap(err, "data")
	}

	return Call{To: to, Value: value, Data: data}, nil
}
