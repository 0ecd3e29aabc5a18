package envelope

import (
	"math/big"

	"github.com/holiman/uint256"
	"github.com/pkg/errors"
)

// AssertFees applies the EIP-1559 style rules shared by every envelope kind:
// a positive chain id, a fee cap that fits 256 bits and a tip that does not
// exceed the fee cap. The tip rule only applies when both values are present.
func AssertFees(chainID *uint256.Int, maxFeePerGas, maxPriorityFeePerGas *uint256.Int) error {
	if chainID == nil || chainID.IsZero() {
		return ErrInvalidChainID
	}

	if maxFeePerGas != nil && maxPriorityFeePerGas != nil && maxPriorityFeePerGas.Gt(maxFeePerGas) {
		return errors.Wrapf(ErrTipAboveFeeCap, "maxPriorityFeePerGas %s > maxFeePerGas %s",
			maxPriorityFeePerGas.Dec(), maxFeePerGas.Dec())
	}

	return nil
}

// FeeFromBig converts an arbitrary precision fee into a 256-bit quantity.
// A nil input yields an absent fee.
func FeeFromBig(v *big.Int) (*uint256.Int, error) {
	if v == nil {
		return nil, nil //nolint:nilnil // absent fee
	}
	if v.Sign() < 0 {
		return nil, errors.Wrap(ErrFeeCapTooHigh, "negative fee")
	}

	fee, overflow := uint256.FromBig(v)
	if overflow {
		return nil, errors.Wrapf(ErrFeeCapTooHigh, "fee %s", v.String())
	}

	return fee, nil
}

// FeeFromDecimal parses a base 10 fee string. An empty string yields an absent fee.
func FeeFromDecimal(s string) (*uint256.Int, error) {
	if s == "" {
		return nil, nil //nolint:nilnil // absent fee
	}

	const base10 = 10
	v, ok := new(big.Int).SetString(s, base10)
	if !ok {
		return nil, errors.Errorf("invalid fee format %q", s)
	}

	return FeeFromBig(v)
}
