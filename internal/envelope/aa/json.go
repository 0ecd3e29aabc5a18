package aa

import (
	"encoding/json"

	"github.com/ethereum/go-ethereum/common"
	"github.com/ethereum/go-ethereum/common/hexutil"
	"github.com/ethereum/go-ethereum/core/types"
	"github/chapool/go-txenvelope/internal/envelope/signature"
)

type jsonCall struct {
	To    *common.Address `json:"to"`
	Value *hexutil.U256   `json:"value,omitempty"`
	Data  hexutil.Bytes   `json:"data,omitempty"`
}

type jsonEnvelope struct {
	Type                 hexutil.Uint64      `json:"type"`
	ChainID              *hexutil.U256       `json:"chainId"`
	MaxPriorityFeePerGas *hexutil.U256       `json:"maxPriorityFeePerGas,omitempty"`
	MaxFeePerGas         *hexutil.U256       `json:"maxFeePerGas,omitempty"`
	Gas                  hexutil.Uint64      `json:"gas"`
	Calls                []jsonCall          `json:"calls"`
	AccessList           types.AccessList    `json:"accessList"`
	NonceKey             *hexutil.U256       `json:"nonceKey,omitempty"`
	Nonce                hexutil.Uint64      `json:"nonce"`
	ValidBefore          *hexutil.Uint64     `json:"validBefore,omitempty"`
	ValidAfter           *hexutil.Uint64     `json:"validAfter,omitempty"`
	FeeToken             *common.Address     `json:"feeToken,omitempty"`
	FeePayerRequested    bool                `json:"feePayerRequested"`
	FeePayerSignature    *signature.JSONView `json:"feePayerSignature,omitempty"`
	Signature            *signature.JSONView `json:"signature,omitempty"`
}

// MarshalJSON renders a read-only view with hex quantities.
func (e *Envelope) MarshalJSON() ([]byte, error) {
	out := jsonEnvelope{
		Type:                 hexutil.Uint64(TxType),
		ChainID:              (*hexutil.U256)(&e.ChainID),
		MaxPriorityFeePerGas: (*hexutil.U256)(e.MaxPriorityFeePerGas),
		MaxFeePerGas:         (*hexutil.U256)(e.MaxFeePerGas),
		Gas:                  hexutil.Uint64(e.Gas),
		Calls:                make([]jsonCall, 0, len(e.Calls)),
		AccessList:           e.AccessList,
		NonceKey:             (*hexutil.U256)(e.NonceKey),
		Nonce:                hexutil.Uint64(e.Nonce),
		ValidBefore:          (*hexutil.Uint64)(e.ValidBefore),
		ValidAfter:           (*hexutil.Uint64)(e.ValidAfter),
		FeeToken:             e.FeeToken,
		FeePayerRequested:    e.FeePayer.Active(),
		Signature:            signature.View(e.Signature),
	}
	if out.AccessList == nil {
		out.AccessList = types.AccessList{}
	}
	if e.FeePayer.Signature != nil {
		out.FeePayerSignature = signature.View(e.FeePayer.Signature)
	}

	for _, c := range e.Calls {
		out.Calls = append(out.Calls, jsonCall{
			To:    c.To,
			Value: (*hexutil.U256)(c.Value),
			Data:  c.Data,
		})
	}

	return json.Marshal(out)
}
