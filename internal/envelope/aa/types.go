// Package aa implements the account-abstraction envelope: several calls
// executed atomically under a two-dimensional nonce and an optional validity
// window, authenticated by a pluggable signature and optionally paid for by
// a fee payer.
package aa

import (
	"github.com/ethereum/go-ethereum/common"
	"github.com/ethereum/go-ethereum/core/types"
	"github.com/holiman/uint256"
	"github/chapool/go-txenvelope/internal/envelope/feepayer"
	"github/chapool/go-txenvelope/internal/envelope/signature"
)

const (
	// TxType prefixes a serialized envelope.
	TxType byte = 0x76
	// FeePayerTxType prefixes the preimage of the fee payer's sign payload.
	FeePayerTxType byte = 0x78

	// Kind names the envelope in errors, logs and metrics.
	Kind = "aa"

	// nonce keys partition the upper 192 bits of the nonce space
	nonceKeyBits = 192
)

// Call is one sub-operation. A nil To creates a contract.
type Call struct {
	To    *common.Address
	Value *uint256.Int
	Data  []byte
}

// Envelope is an AA transaction. Optional fields are nil when absent; an
// absent value and an explicit zero serialize identically.
type Envelope struct {
	ChainID              uint256.Int
	MaxPriorityFeePerGas *uint256.Int
	MaxFeePerGas         *uint256.Int
	Gas                  uint64
	Calls                []Call
	AccessList           types.AccessList
	NonceKey             *uint256.Int
	Nonce                uint64
	ValidBefore          *uint64
	ValidAfter           *uint64
	FeeToken             *common.Address
	FeePayer             feepayer.Delegation
	Signature            signature.Envelope
}

var (
	unsignedFields = []string{
		"chainId", "maxPriorityFeePerGas", "maxFeePerGas", "gas", "calls", "accessList",
		"nonceKey", "nonce", "validBefore", "validAfter", "feeToken", "feePayerSignature",
	}
	signedFields = append(append([]string(nil), unsignedFields...), "signature")
)

const (
	idxChainID = iota
	idxMaxPriorityFeePerGas
	idxMaxFeePerGas
	idxGas
	idxCalls
	idxAccessList
	idxNonceKey
	idxNonce
	idxValidBefore
	idxValidAfter
	idxFeeToken
	idxFeePayer
	idxSignature
)

const callTupleLength = 3
