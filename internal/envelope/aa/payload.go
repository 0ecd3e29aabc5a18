package aa

import (
	"github.com/ethereum/go-ethereum/common"
	"github.com/pkg/errors"
	"github/chapool/go-txenvelope/internal/envelope"
	"github/chapool/go-txenvelope/internal/envelope/codec"
	"github/chapool/go-txenvelope/internal/envelope/feepayer"
	"github/chapool/go-txenvelope/internal/envelope/signature"
)

// Hash is the keccak256 of the serialized envelope. With presign set the
// signature is left out and the fee-payer slot is rendered as the sender
// signs it.
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

// FeePayerSignPayload is the hash the fee payer signs. It binds the envelope
// to sender; a nil sender is recovered from the sender signature.
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

	return codec.Keccak256(b), nil
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

	sender, err := signature.Recover(e.Signature, payload)
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

// SetFeePayerSignature attaches the sponsor's signature. The sender signature
// is left untouched since it does not cover the slot contents.
func (e *Envelope) SetFeePayerSignature(sig *signature.Secp256k1) {
	e.FeePayer = feepayer.Signed(sig)
}

// FeeTokenAddress is the token fees are paid in; nil means the native asset.
func (e *Envelope) FeeTokenAddress() *common.Address { return e.FeeToken }
