package feetoken

import (
	"github.com/ethereum/go-ethereum/common"
	"github.com/pkg/errors"
	"github/chapool/go-txenvelope/internal/envelope"
	"github/chapool/go-txenvelope/internal/envelope/codec"
	"github/chapool/go-txenvelope/internal/envelope/feepayer"
	"github/chapool/go-txenvelope/internal/envelope/signature"
)

// Assert validates the authorization list and then applies the shared fee rules.
func (e *Envelope) Assert() error {
	for i := range e.AuthorizationList {
		if err := AssertAuthorization(&e.ChainID, &e.AuthorizationList[i]); err != nil {
			return errors.Wrapf(err, "authorization %d", i)
		}
	}

	return envelope.AssertFees(&e.ChainID, e.MaxFeePerGas, e.MaxPriorityFeePerGas)
}

// Validate is the predicate form of Assert.
func (e *Envelope) Validate() bool {
	return e.Assert() == nil
}

// Serialize renders the envelope. Without options the inline signature is
// appended when present.
func (e *Envelope) Serialize(opts ...envelope.SerializeOption) ([]byte, error) {
	if err := e.Assert(); err != nil {
		return nil, err
	}

	cfg := envelope.ResolveOptions(opts...)

	slot, err := feepayer.SlotFor(e.FeePayer, cfg).Item()
	if err != nil {
		return nil, err
	}

	data := e.Data
	if data == nil {
		data = []byte{}
	}

	items := make([]interface{}, 0, len(signedFields))
	items = append(items,
		codec.Uint256Bytes(&e.ChainID),
		codec.Uint64Bytes(e.Nonce),
		codec.Uint256Bytes(e.MaxPriorityFeePerGas),
		codec.Uint256Bytes(e.MaxFeePerGas),
		codec.Uint64Bytes(e.Gas),
		codec.AddressBytes(e.To),
		codec.Uint256Bytes(e.Value),
		data,
		codec.AccessListItems(e.AccessList),
		authorizationItems(e.AuthorizationList),
		codec.AddressBytes(e.FeeToken),
		slot,
	)

	if cfg.WithSignature() && e.Signature != nil {
		if e.Signature.YParity > 1 {
			return nil, errors.Wrapf(envelope.ErrMalformedEnvelope, "yParity %d", e.Signature.YParity)
		}
		items = append(items,
			codec.Uint64Bytes(uint64(e.Signature.YParity)),
			codec.Uint256Bytes(&e.Signature.R),
			codec.Uint256Bytes(&e.Signature.S),
		)
	}

	return codec.EncodeTyped(TxType, items)
}

// Deserialize parses a 0x77 envelope and re-runs Assert on the result.
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
		if len(raw) > len(unsignedFields) {
			names = signedFields
		}

		return nil, envelope.NewInvalidSerializedError(Kind, names, len(raw))
	}

	f := codec.NewFields(raw, signedFields)
	e := &Envelope{
		ChainID:              f.Uint256OrZero(idxChainID),
		Nonce:                f.Uint64(idxNonce),
		MaxPriorityFeePerGas: f.Uint256(idxMaxPriorityFeePerGas),
		MaxFeePerGas:         f.Uint256(idxMaxFeePerGas),
		Gas:                  f.Uint64(idxGas),
		To:                   f.OptionalAddress(idxTo),
		Value:                f.Uint256(idxValue),
		Data:                 f.OptionalBytes(idxData),
		AccessList:           f.AccessList(idxAccessList),
		FeeToken:             f.OptionalAddress(idxFeeToken),
	}

	for i, rawAuth := range f.List(idxAuthorizationList) {
		auth, err := parseAuthorization(rawAuth)
		if err != nil {
			f.Fail(idxAuthorizationList, errors.Wrapf(err, "authorization %d", i))
			break
		}
		e.AuthorizationList = append(e.AuthorizationList, auth)
	}

	if f.Err() == nil {
		slot, err := feepayer.DecodeSlot(f.Raw(idxFeePayer))
		f.Fail(idxFeePayer, err)
		e.FeePayer = slot.Delegation()
	}

	if len(raw) == len(signedFields) && f.Err() == nil {
		sig, err := feepayer.DecodeSignatureFields(raw[idxYParity], raw[idxR], raw[idxS])
		f.Fail(idxYParity, err)
		e.Signature = sig
	}

	if err := f.Err(); err != nil {
		return nil, err
	}
	if err := e.Assert(); err != nil {
		return nil, err
	}

	return e, nil
}

// Hash is the keccak256 of the serialized envelope, without the signature
// when presign is set.
func (e *Envelope) Hash(presign bool) (common.Hash, error) {
	var opts []envelope.SerializeOption
	if presign {
		opts = append(opts, envelope.Presign())
	}

	b, err := e.Serialize(opts...)
	if err != nil {
		return common.Hash{}, err
	}

	return codec.Keccak256(b), nil
}

// SignPayload is the hash the sender signs.
func (e *Envelope) SignPayload() (common.Hash, error) {
	return e.Hash(true)
}

// FeePayerSignPayload is the hash the fee payer signs: the serialization bound
// to sender, minus its type byte. A nil sender is recovered from the signature.
func (e *Envelope) FeePayerSignPayload(sender *common.Address) (common.Hash, error) {
	if sender == nil {
		recovered, err := e.Sender()
		if err != nil {
			return common.Hash{}, err
		}
		sender = &recovered
	}

	b, err := e.Serialize(envelope.ForFeePayer(*sender))
	if err != nil {
		return common.Hash{}, err
	}

	return codec.Keccak256(b[1:]), nil
}

// Sender recovers the account that signed the envelope.
func (e *Envelope) Sender() (common.Address, error) {
	if e.Signature == nil {
		return common.Address{}, envelope.ErrSenderUnknown
	}

	payload, err := e.SignPayload()
	if err != nil {
		return common.Address{}, err
	}

	sender, err := signature.RecoverKey(e.Signature, payload)
	if err != nil {
		return common.Address{}, errors.Wrap(err, "failed to recover sender")
	}

	return sender, nil
}

// FeePayerAddress recovers the account that sponsored the envelope.
func (e *Envelope) FeePayerAddress() (common.Address, error) {
	if e.FeePayer.Signature == nil {
		return common.Address{}, envelope.ErrFeePayerUnknown
	}

	payload, err := e.FeePayerSignPayload(nil)
	if err != nil {
		return common.Address{}, err
	}

	return feepayer.Recover(e.FeePayer.Signature, payload)
}

func (e *Envelope) Kind() string { return Kind }

// Delegation reports the fee payer slot state.
func (e *Envelope) Delegation() feepayer.Delegation { return e.FeePayer }

// SetFeePayerSignature attaches the sponsor's signature.
func (e *Envelope) SetFeePayerSignature(sig *signature.Secp256k1) {
	e.FeePayer = feepayer.Signed(sig)
}

// FeeTokenAddress is the token fees are paid in; nil means the native asset.
func (e *Envelope) FeeTokenAddress() *common.Address { return e.FeeToken }
