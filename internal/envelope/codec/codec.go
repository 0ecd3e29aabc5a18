// Package codec is the boundary between the envelope packages and the RLP
// primitives provided by go-ethereum. Integers are minimal-width big-endian
// strings, an empty string means "absent" (or zero where the field has no
// absent state), and non-canonical encodings are rejected on decode.
package codec

import (
	"github.com/ethereum/go-ethereum/common"
	"github.com/ethereum/go-ethereum/core/types"
	"github.com/ethereum/go-ethereum/crypto"
	"github.com/ethereum/go-ethereum/rlp"
	"github.com/holiman/uint256"
	"github.com/pkg/errors"
	"github/chapool/go-txenvelope/internal/envelope"
)

// Encode renders items as one RLP list. Items may be []byte, rlp.RawValue or
// nested []interface{} lists.
func Encode(items []interface{}) ([]byte, error) {
	b, err := rlp.EncodeToBytes(items)
	if err != nil {
		return nil, errors.Wrap(err, "failed to encode rlp list")
	}

	return b, nil
}

// EncodeTyped renders items as an RLP list prefixed with a one-byte type tag.
func EncodeTyped(txType byte, items []interface{}) ([]byte, error) {
	b, err := Encode(items)
	if err != nil {
		return nil, err
	}

	return append([]byte{txType}, b...), nil
}

// Keccak256 hashes the concatenation of data.
func Keccak256(data ...[]byte) common.Hash {
	return crypto.Keccak256Hash(data...)
}

// Uint64Bytes returns the minimal big-endian form of v; zero is empty.
func Uint64Bytes(v uint64) []byte {
	if v == 0 {
		return []byte{}
	}

	return uint256.NewInt(v).Bytes()
}

// Uint256Bytes returns the minimal big-endian form of v; nil and zero are empty.
func Uint256Bytes(v *uint256.Int) []byte {
	if v == nil || v.IsZero() {
		return []byte{}
	}

	return v.Bytes()
}

// OptionalUint64Bytes returns the minimal form of *v, or empty when v is nil.
func OptionalUint64Bytes(v *uint64) []byte {
	if v == nil {
		return []byte{}
	}

	return Uint64Bytes(*v)
}

// AddressBytes returns the 20 address bytes, or empty when a is nil.
func AddressBytes(a *common.Address) []byte {
	if a == nil {
		return []byte{}
	}

	return a.Bytes()
}

// AccessListItems renders an access list as nested RLP items.
func AccessListItems(al types.AccessList) []interface{} {
	items := make([]interface{}, 0, len(al))
	for _, tuple := range al {
		keys := make([]interface{}, 0, len(tuple.StorageKeys))
		for _, key := range tuple.StorageKeys {
			keys = append(keys, key.Bytes())
		}
		items = append(items, []interface{}{tuple.Address.Bytes(), keys})
	}

	return items
}

// SplitList splits b, which must hold exactly one RLP list, into its raw elements.
func SplitList(b []byte) ([]rlp.RawValue, error) {
	content, rest, err := rlp.SplitList(b)
	if err != nil {
		return nil, errors.Wrap(envelope.ErrMalformedRLP, err.Error())
	}
	if len(rest) != 0 {
		return nil, errors.Wrapf(envelope.ErrMalformedRLP, "%d trailing bytes after list", len(rest))
	}

	return splitElements(content)
}

// ListElements splits a raw element that must itself be a list.
func ListElements(raw rlp.RawValue) ([]rlp.RawValue, error) {
	return SplitList(raw)
}

func splitElements(content []byte) ([]rlp.RawValue, error) {
	var elems []rlp.RawValue
	for len(content) > 0 {
		_, _, rest, err := rlp.Split(content)
		if err != nil {
			return nil, errors.Wrap(envelope.ErrMalformedRLP, err.Error())
		}
		elems = append(elems, rlp.RawValue(content[:len(content)-len(rest)]))
		content = rest
	}

	return elems, nil
}

// IsList reports whether raw is an RLP list.
func IsList(raw rlp.RawValue) bool {
	kind, _, _, err := rlp.Split(raw)
	return err == nil && kind == rlp.List
}

// Bytes returns the payload of a string element.
func Bytes(raw rlp.RawValue) ([]byte, error) {
	content, rest, err := rlp.SplitString(raw)
	if err != nil {
		return nil, errors.Wrap(envelope.ErrMalformedRLP, err.Error())
	}
	if len(rest) != 0 {
		return nil, errors.Wrap(envelope.ErrMalformedRLP, "trailing bytes after string")
	}

	return content, nil
}

func integerBytes(raw rlp.RawValue, maxLen int) ([]byte, error) {
	b, err := Bytes(raw)
	if err != nil {
		return nil, err
	}
	if len(b) > 0 && b[0] == 0 {
		return nil, envelope.ErrNonCanonicalInteger
	}
	if len(b) > maxLen {
		return nil, errors.Wrapf(envelope.ErrIntegerOverflow, "%d bytes exceed %d", len(b), maxLen)
	}

	return b, nil
}

// Uint64 decodes an integer of at most 8 bytes; empty decodes to zero.
func Uint64(raw rlp.RawValue) (uint64, error) {
	const width = 8
	b, err := integerBytes(raw, width)
	if err != nil {
		return 0, err
	}

	return new(uint256.Int).SetBytes(b).Uint64(), nil
}

// OptionalUint64 decodes an integer of at most 8 bytes; empty decodes to nil.
func OptionalUint64(raw rlp.RawValue) (*uint64, error) {
	const width = 8
	b, err := integerBytes(raw, width)
	if err != nil || len(b) == 0 {
		return nil, err
	}

	v := new(uint256.Int).SetBytes(b).Uint64()
	return &v, nil
}

// Uint256 decodes an integer of at most 32 bytes; empty decodes to nil.
func Uint256(raw rlp.RawValue) (*uint256.Int, error) {
	const width = 32
	b, err := integerBytes(raw, width)
	if err != nil || len(b) == 0 {
		return nil, err
	}

	return new(uint256.Int).SetBytes(b), nil
}

// Uint256OrZero decodes an integer of at most 32 bytes; empty decodes to zero.
func Uint256OrZero(raw rlp.RawValue) (uint256.Int, error) {
	v, err := Uint256(raw)
	if err != nil || v == nil {
		return uint256.Int{}, err
	}

	return *v, nil
}

// Address decodes a mandatory 20-byte address.
func Address(raw rlp.RawValue) (common.Address, error) {
	b, err := Bytes(raw)
	if err != nil {
		return common.Address{}, err
	}
	if len(b) != common.AddressLength {
		return common.Address{}, errors.Wrapf(envelope.ErrInvalidAddress, "got %d bytes", len(b))
	}

	return common.BytesToAddress(b), nil
}

// OptionalAddress decodes a 20-byte address; empty decodes to nil.
func OptionalAddress(raw rlp.RawValue) (*common.Address, error) {
	b, err := Bytes(raw)
	if err != nil || len(b) == 0 {
		return nil, err
	}

	addr, err := Address(raw)
	if err != nil {
		return nil, err
	}

	return &addr, nil
}

// OptionalBytes decodes a string element; empty decodes to nil.
func OptionalBytes(raw rlp.RawValue) ([]byte, error) {
	b, err := Bytes(raw)
	if err != nil || len(b) == 0 {
		return nil, err
	}

	return common.CopyBytes(b), nil
}

// AccessList decodes an EIP-2930 access list; an empty list decodes to nil.
func AccessList(raw rlp.RawValue) (types.AccessList, error) {
	tuples, err := ListElements(raw)
	if err != nil {
		return nil, err
	}

	var al types.AccessList
	for i, rawTuple := range tuples {
		fields, err := ListElements(rawTuple)
		if err != nil {
			return nil, errors.Wrapf(err, "access list entry %d", i)
		}
		const tupleLen = 2
		if len(fields) != tupleLen {
			return nil, errors.Wrapf(envelope.ErrMalformedRLP, "access list entry %d has %d elements", i, len(fields))
		}

		addr, err := Address(fields[0])
		if err != nil {
			return nil, errors.Wrapf(err, "access list entry %d", i)
		}

		rawKeys, err := ListElements(fields[1])
		if err != nil {
			return nil, errors.Wrapf(err, "access list entry %d storage keys", i)
		}

		tuple := types.AccessTuple{Address: addr}
		for j, rawKey := range rawKeys {
			key, err := Bytes(rawKey)
			if err != nil {
				return nil, errors.Wrapf(err, "access list entry %d key %d", i, j)
			}
			if len(key) != common.HashLength {
				return nil, errors.Wrapf(envelope.ErrMalformedRLP, "access list entry %d key %d has %d bytes", i, j, len(key))
			}
			tuple.StorageKeys = append(tuple.StorageKeys, common.BytesToHash(key))
		}
		al = append(al, tuple)
	}

	return al, nil
}
