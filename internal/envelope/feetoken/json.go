package feetoken

import (
	"encoding/json"

	"github.com/ethereum/go-ethereum/common"
	"github.com/ethereum/go-ethereum/common/hexutil"
	"github.com/ethereum/go-ethereum/core/types"
	"github/chapool/go-txenvelope/internal/envelope/signature"
)

type jsonEnvelope struct {
	Type                 hexutil.Uint64               `json:"type"`
	ChainID              *hexutil.U256                `json:"chainId"`
	Nonce                hexutil.Uint64               `json:"nonce"`
	MaxPriorityFeePerGas *hexutil.U256                `json:"maxPriorityFeePerGas,omitempty"`
	MaxFeePerGas         *hexutil.U256                `json:"maxFeePerGas,omitempty"`
	Gas                  hexutil.Uint64               `json:"gas"`
	To                   *common.Address              `json:"to"`
	Value                *hexutil.U256                `json:"value,omitempty"`
	Data                 hexutil.Bytes                `json:"data,omitempty"`
	AccessList           types.AccessList             `json:"accessList"`
	AuthorizationList    []types.SetCodeAuthorization `json:"authorizationList"`
	FeeToken             *common.Address              `json:"feeToken,omitempty"`
	FeePayerRequested    bool                         `json:"feePayerRequested"`
	FeePayerSignature    *signature.JSONView          `json:"feePayerSignature,omitempty"`
	Signature            *signature.JSONView          `json:"signature,omitempty"`
}

// MarshalJSON renders a read-only view with hex quantities.
func (e *Envelope) MarshalJSON() ([]byte, error) {
	out := jsonEnvelope{
		Type:                 hexutil.Uint64(TxType),
		ChainID:              (*hexutil.U256)(&e.ChainID),
		Nonce:                hexutil.Uint64(e.Nonce),
		MaxPriorityFeePerGas: (*hexutil.U256)(e.MaxPriorityFeePerGas),
		MaxFeePerGas:         (*hexutil.U256)(e.MaxFeePerGas),
		Gas:                  hexutil.Uint64(e.Gas),
		To:                   e.To,
		Value:                (*hexutil.U256)(e.Value),
		Data:                 e.Data,
		AccessList:           e.AccessList,
		AuthorizationList:    e.AuthorizationList,
		FeeToken:             e.FeeToken,
		FeePayerRequested:    e.FeePayer.Active(),
	}
	if out.AccessList == nil {
		out.AccessList = types.AccessList{}
	}
	if out.AuthorizationList == nil {
		out.AuthorizationList = []types.SetCodeAuthorization{}
	}
	if e.FeePayer.Signature != nil {
		out.FeePayerSignature = signature.View(e.FeePayer.Signature)
	}
	if e.Signature != nil {
		out.Signature = signature.View(e.Signature)
	}

	return json.Marshal(out)
}
