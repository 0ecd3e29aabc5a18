package relay

import (
	"context"

	"github.com/ethereum/go-ethereum/common"
	"github.com/pkg/errors"
)

var (
	ErrNotRequested     = errors.New("envelope does not request a fee payer")
	ErrAlreadySponsored = errors.New("envelope already carries a fee payer signature")
	ErrFeeTokenRejected = errors.New("fee token is not accepted by this fee payer")
)

// Service co-signs envelopes as their fee payer.
type Service interface {
	// CoSign decodes raw, attaches the fee payer signature and returns the
	// re-serialized envelope.
	CoSign(ctx context.Context, raw []byte) (*CoSignResponse, error)

	// Address is the account that pays the fees.
	Address(ctx context.Context) (common.Address, error)
}

type CoSignResponse struct {
	RawTransaction []byte
	TxHash         common.Hash
	Kind           string
	Sender         common.Address
	FeePayer       common.Address
}

// Policy restricts what the relay is willing to sponsor.
type Policy struct {
	// FeeTokens, when non-empty, lists the only fee tokens accepted.
	// An envelope without a fee token is checked against the zero address.
	FeeTokens []common.Address
}
