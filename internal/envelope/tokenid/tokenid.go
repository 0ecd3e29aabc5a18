// Package tokenid maps compact numeric token ids to the precompile addresses
// that hold the token contracts: a 0x20c0 prefix, zero padding, and the id
// as 8 big-endian bytes in the low end of the address.
package tokenid

import (
	"encoding/binary"
	"strconv"
	"strings"

	"github.com/ethereum/go-ethereum/common"
	"github.com/pkg/errors"
	"github/chapool/go-txenvelope/internal/envelope"
)

const idLength = 8

// Prefix is the leading two bytes shared by every token address.
var Prefix = [2]byte{0x20, 0xc0}

// ToAddress returns the address of token id.
func ToAddress(id uint64) common.Address {
	var addr common.Address
	copy(addr[:len(Prefix)], Prefix[:])
	binary.BigEndian.PutUint64(addr[common.AddressLength-idLength:], id)

	return addr
}

// FromAddress returns the id encoded in addr, or false when addr is not a
// token address.
func FromAddress(addr common.Address) (uint64, bool) {
	if addr[0] != Prefix[0] || addr[1] != Prefix[1] {
		return 0, false
	}
	for _, b := range addr[len(Prefix) : common.AddressLength-idLength] {
		if b != 0 {
			return 0, false
		}
	}

	return binary.BigEndian.Uint64(addr[common.AddressLength-idLength:]), true
}

// Parse accepts either a 0x-prefixed address or a decimal token id.
func Parse(s string) (common.Address, error) {
	s = strings.TrimSpace(s)
	if strings.HasPrefix(s, "0x") || strings.HasPrefix(s, "0X") {
		if !common.IsHexAddress(s) {
			return common.Address{}, errors.Wrapf(envelope.ErrInvalidAddress, "%q", s)
		}

		return common.HexToAddress(s), nil
	}

	id, err := strconv.ParseUint(s, 10, 64)
	if err != nil {
		return common.Address{}, errors.Wrapf(envelope.ErrInvalidAddress, "token %q is neither an address nor an id", s)
	}

	return ToAddress(id), nil
}
