package codec

import (
	"github.com/ethereum/go-ethereum/common"
	"github.com/ethereum/go-ethereum/core/types"
	"github.com/ethereum/go-ethereum/rlp"
	"github.com/holiman/uint256"
	"github.com/pkg/errors"
)

// Fields decodes the elements of a transaction list by position. The first
// error is kept, wrapped with the name of the failing field, and every later
// call becomes a no-op returning the zero value.
type Fields struct {
	raw   []rlp.RawValue
	names []string
	err   error
}

// NewFields wraps the raw elements of a list whose positions are named by names.
func NewFields(raw []rlp.RawValue, names []string) *Fields {
	return &Fields{raw: raw, names: names}
}

// Err returns the first decoding error.
func (f *Fields) Err() error {
	return f.err
}

// Raw returns element i without decoding it.
func (f *Fields) Raw(i int) rlp.RawValue {
	return f.raw[i]
}

// Fail records err against field i unless an earlier error is already kept.
func (f *Fields) Fail(i int, err error) {
	if f.err == nil && err != nil {
		f.err = errors.Wrapf(err, "field %s", f.name(i))
	}
}

func (f *Fields) name(i int) string {
	if i < len(f.names) {
		return f.names[i]
	}

	return "unknown"
}

func (f *Fields) Uint64(i int) uint64 {
	if f.err != nil {
		return 0
	}
	v, err := Uint64(f.raw[i])
	f.Fail(i, err)

	return v
}

func (f *Fields) OptionalUint64(i int) *uint64 {
	if f.err != nil {
		return nil
	}
	v, err := OptionalUint64(f.raw[i])
	f.Fail(i, err)

	return v
}

func (f *Fields) Uint256(i int) *uint256.Int {
	if f.err != nil {
		return nil
	}
	v, err := Uint256(f.raw[i])
	f.Fail(i, err)

	return v
}

func (f *Fields) Uint256OrZero(i int) uint256.Int {
	if f.err != nil {
		return uint256.Int{}
	}
	v, err := Uint256OrZero(f.raw[i])
	f.Fail(i, err)

	return v
}

func (f *Fields) OptionalAddress(i int) *common.Address {
	if f.err != nil {
		return nil
	}
	v, err := OptionalAddress(f.raw[i])
	f.Fail(i, err)

	return v
}

func (f *Fields) OptionalBytes(i int) []byte {
	if f.err != nil {
		return nil
	}
	v, err := OptionalBytes(f.raw[i])
	f.Fail(i, err)

	return v
}

func (f *Fields) Bytes(i int) []byte {
	if f.err != nil {
		return nil
	}
	v, err := Bytes(f.raw[i])
	f.Fail(i, err)

	return v
}

func (f *Fields) AccessList(i int) types.AccessList {
	if f.err != nil {
		return nil
	}
	v, err := AccessList(f.raw[i])
	f.Fail(i, err)

	return v
}

func (f *Fields) List(i int) []rlp.RawValue {
	if f.err != nil {
		return nil
	}
	v, err := ListElements(f.raw[i])
	f.Fail(i, err)

	return v
}
