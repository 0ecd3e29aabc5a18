package feetoken

import (
	"crypto/ecdsa"
	"math"

	"github.com/ethereum/go-ethereum/core/types"
	"github.com/ethereum/go-ethereum/rlp"
	"github.com/holiman/uint256"
	"github.com/pkg/errors"
	"github/chapool/go-txenvelope/internal/envelope"
	"github/chapool/go-txenvelope/internal/envelope/codec"
)

// AssertAuthorization checks one delegation entry against the envelope chain.
func AssertAuthorization(chainID *uint256.Int, auth *types.SetCodeAuthorization) error {
	if !auth.ChainID.IsZero() && !auth.ChainID.Eq(chainID) {
		return errors.Wrapf(envelope.ErrInvalidAuthorization, "chain id %s does not match %s",
			auth.ChainID.Dec(), chainID.Dec())
	}
	if auth.Nonce == math.MaxUint64 {
		return errors.Wrap(envelope.ErrInvalidAuthorization, "nonce must be below 2^64-1")
	}
	if auth.V > 1 {
		return errors.Wrapf(envelope.ErrInvalidAuthorization, "yParity %d", auth.V)
	}

	return nil
}

// SignAuthorization signs a delegation of key's account to the code at
// auth.Address.
func SignAuthorization(key *ecdsa.PrivateKey, auth types.SetCodeAuthorization) (types.SetCodeAuthorization, error) {
	signed, err := types.SignSetCode(key, auth)
	if err != nil {
		return types.SetCodeAuthorization{}, errors.Wrap(err, "failed to sign authorization")
	}

	return signed, nil
}

func authorizationItems(list []types.SetCodeAuthorization) []interface{} {
	items := make([]interface{}, 0, len(list))
	for i := range list {
		auth := &list[i]
		items = append(items, []interface{}{
			codec.Uint256Bytes(&auth.ChainID),
			auth.Address.Bytes(),
			codec.Uint64Bytes(auth.Nonce),
			codec.Uint64Bytes(uint64(auth.V)),
			codec.Uint256Bytes(&auth.R),
			codec.Uint256Bytes(&auth.S),
		})
	}

	return items
}

func parseAuthorization(raw rlp.RawValue) (types.SetCodeAuthorization, error) {
	fields, err := codec.ListElements(raw)
	if err != nil {
		return types.SetCodeAuthorization{}, err
	}
	if len(fields) != authorizationTupleLength {
		return types.SetCodeAuthorization{}, errors.Wrapf(envelope.ErrMalformedRLP,
			"authorization has %d elements", len(fields))
	}

	f := codec.NewFields(fields, []string{"chainId", "address", "nonce", "yParity", "r", "s"})
	auth := types.SetCodeAuthorization{
		ChainID: f.Uint256OrZero(0),
		Nonce:   f.Uint64(2),
		R:       f.Uint256OrZero(4),
		S:       f.Uint256OrZero(5),
	}

	yParity := f.Uint64(3)
	if f.Err() == nil && yParity > 1 {
		f.Fail(3, errors.Wrapf(envelope.ErrInvalidAuthorization, "yParity %d", yParity))
	}
	auth.V = uint8(yParity) //nolint:gosec // range checked above

	if f.Err() == nil {
		addr, err := codec.Address(f.Raw(1))
		f.Fail(1, err)
		auth.Address = addr
	}

	return auth, f.Err()
}
