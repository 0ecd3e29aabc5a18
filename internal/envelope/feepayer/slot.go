// Package feepayer models the fee-payer position shared by every envelope
// kind. On the wire the position is a single RLP item whose shape alone
// tells the states apart:
//
//	0x             no delegation
//	0x00           delegation requested, fee payer has not signed
//	20 bytes       sender address, only inside the fee payer's sign payload
//	[yParity,r,s]  fee payer signature
package feepayer

import (
	"github.com/ethereum/go-ethereum/common"
	"github.com/ethereum/go-ethereum/rlp"
	"github.com/pkg/errors"
	"github/chapool/go-txenvelope/internal/envelope"
	"github/chapool/go-txenvelope/internal/envelope/codec"
	"github/chapool/go-txenvelope/internal/envelope/signature"
)

// Delegation is the fee-payer state an envelope carries.
type Delegation struct {
	// Requested marks that a fee payer will sign the envelope.
	Requested bool
	// Signature is the fee payer's signature once attached. A non-nil
	// Signature implies Requested.
	Signature *signature.Secp256k1
}

// None is the zero Delegation: the sender pays for gas.
func None() Delegation { return Delegation{} }

// Requested asks a fee payer to sign.
func Requested() Delegation { return Delegation{Requested: true} }

// Signed carries the fee payer's signature.
func Signed(sig *signature.Secp256k1) Delegation {
	return Delegation{Requested: true, Signature: sig}
}

// Active reports whether a fee payer takes part in the envelope.
func (d Delegation) Active() bool {
	return d.Requested || d.Signature != nil
}

// SlotKind enumerates the wire shapes of the fee-payer position.
type SlotKind uint8

const (
	SlotEmpty SlotKind = iota
	SlotRequested
	SlotSender
	SlotSignature
)

func (k SlotKind) String() string {
	switch k {
	case SlotEmpty:
		return "empty"
	case SlotRequested:
		return "requested"
	case SlotSender:
		return "sender"
	case SlotSignature:
		return "signature"
	default:
		return "invalid"
	}
}

// Slot is one decoded fee-payer position.
type Slot struct {
	Kind      SlotKind
	Sender    common.Address
	Signature *signature.Secp256k1
}

const (
	requestedSentinel    = 0x00
	signatureTupleLength = 3
)

// SlotFor resolves the slot an envelope renders under cfg.
func SlotFor(d Delegation, cfg envelope.SerializeConfig) Slot {
	switch {
	case cfg.Sender != nil:
		return Slot{Kind: SlotSender, Sender: *cfg.Sender}
	case cfg.Presign:
		if d.Active() {
			return Slot{Kind: SlotRequested}
		}
		return Slot{Kind: SlotEmpty}
	case d.Signature != nil:
		return Slot{Kind: SlotSignature, Signature: d.Signature}
	case d.Requested:
		return Slot{Kind: SlotRequested}
	default:
		return Slot{Kind: SlotEmpty}
	}
}

// Item renders the slot as an RLP item.
func (s Slot) Item() (interface{}, error) {
	switch s.Kind {
	case SlotEmpty:
		return []byte{}, nil
	case SlotRequested:
		return []byte{requestedSentinel}, nil
	case SlotSender:
		return s.Sender.Bytes(), nil
	case SlotSignature:
		if s.Signature == nil {
			return nil, errors.Wrap(envelope.ErrMalformedEnvelope, "fee payer slot without signature")
		}
		if s.Signature.YParity > 1 {
			return nil, errors.Wrapf(envelope.ErrMalformedEnvelope, "fee payer yParity %d", s.Signature.YParity)
		}
		return []interface{}{
			codec.Uint64Bytes(uint64(s.Signature.YParity)),
			codec.Uint256Bytes(&s.Signature.R),
			codec.Uint256Bytes(&s.Signature.S),
		}, nil
	default:
		return nil, errors.Errorf("invalid fee payer slot kind %d", s.Kind)
	}
}

// DecodeSlot sniffs the shape of a raw fee-payer item.
func DecodeSlot(raw rlp.RawValue) (Slot, error) {
	if codec.IsList(raw) {
		return decodeSignature(raw)
	}

	b, err := codec.Bytes(raw)
	if err != nil {
		return Slot{}, err
	}

	switch {
	case len(b) == 0:
		return Slot{Kind: SlotEmpty}, nil
	case len(b) == 1 && b[0] == requestedSentinel:
		return Slot{Kind: SlotRequested}, nil
	case len(b) == common.AddressLength:
		return Slot{Kind: SlotSender, Sender: common.BytesToAddress(b)}, nil
	default:
		return Slot{}, errors.Wrapf(envelope.ErrMalformedEnvelope, "fee payer slot of %d bytes", len(b))
	}
}

func decodeSignature(raw rlp.RawValue) (Slot, error) {
	fields, err := codec.ListElements(raw)
	if err != nil {
		return Slot{}, err
	}
	if len(fields) != signatureTupleLength {
		return Slot{}, errors.Wrapf(envelope.ErrMalformedEnvelope, "fee payer signature has %d elements", len(fields))
	}

	sig, err := DecodeSignatureFields(fields[0], fields[1], fields[2])
	if err != nil {
		return Slot{}, errors.Wrap(err, "fee payer signature")
	}

	return Slot{Kind: SlotSignature, Signature: sig}, nil
}

// DecodeSignatureFields decodes an inline (yParity, r, s) triple.
func DecodeSignatureFields(rawYParity, rawR, rawS rlp.RawValue) (*signature.Secp256k1, error) {
	yParity, err := codec.Uint64(rawYParity)
	if err != nil {
		return nil, err
	}
	if yParity > 1 {
		return nil, errors.Wrapf(envelope.ErrMalformedEnvelope, "yParity %d", yParity)
	}

	r, err := codec.Uint256OrZero(rawR)
	if err != nil {
		return nil, err
	}
	s, err := codec.Uint256OrZero(rawS)
	if err != nil {
		return nil, err
	}

	return &signature.Secp256k1{R: r, S: s, YParity: uint8(yParity)}, nil
}

// Delegation converts a decoded slot back into envelope state. A sender slot
// only appears inside sign payloads and decodes as a pending request.
func (s Slot) Delegation() Delegation {
	switch s.Kind {
	case SlotSignature:
		return Signed(s.Signature)
	case SlotRequested, SlotSender:
		return Requested()
	default:
		return None()
	}
}

// Recover returns the fee payer address for a signature over payload.
func Recover(sig *signature.Secp256k1, payload common.Hash) (common.Address, error) {
	if sig == nil {
		return common.Address{}, envelope.ErrFeePayerUnknown
	}

	return signature.RecoverKey(sig, payload)
}
