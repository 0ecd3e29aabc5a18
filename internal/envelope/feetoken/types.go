// Package feetoken implements the single-call envelope that pays for gas in
// a fungible token instead of the native asset. It carries an EIP-2930
// access list, an EIP-7702 authorization list and an inline secp256k1
// signature.
package feetoken

import (
	"github.com/ethereum/go-ethereum/common"
	"github.com/ethereum/go-ethereum/core/types"
	"github.com/holiman/uint256"
	"github/chapool/go-txenvelope/internal/envelope/feepayer"
	"github/chapool/go-txenvelope/internal/envelope/signature"
)

const (
	// TxType prefixes a serialized envelope. The fee payer's sign payload has
	// no type byte of its own: it is the 0x77 serialization with the byte cut off.
	TxType byte = 0x77

	// Kind names the envelope in errors, logs and metrics.
	Kind = "feeToken"
)

// Envelope is a FeeToken transaction. A nil To creates a contract.
type Envelope struct {
	ChainID              uint256.Int
	Nonce                uint64
	MaxPriorityFeePerGas *uint256.Int
	MaxFeePerGas         *uint256.Int
	Gas                  uint64
	To                   *common.Address
	Value                *uint256.Int
	Data                 []byte
	AccessList           types.AccessList
	AuthorizationList    []types.SetCodeAuthorization
	FeeToken             *common.Address
	FeePayer             feepayer.Delegation
	Signature            *signature.Secp256k1
}

var (
	unsignedFields = []string{
		"chainId", "nonce", "maxPriorityFeePerGas", "maxFeePerGas", "gas", "to", "value", "data",
		"accessList", "authorizationList", "feeToken", "feePayerSignature",
	}
	signedFields = append(append([]string(nil), unsignedFields...), "yParity", "r", "s")
)

const (
	idxChainID = iota
	idxNonce
	idxMaxPriorityFeePerGas
	idxMaxFeePerGas
	idxGas
	idxTo
	idxValue
	idxData
	idxAccessList
	idxAuthorizationList
	idxFeeToken
	idxFeePayer
	idxYParity
	idxR
	idxS
)

const authorizationTupleLength = 6
