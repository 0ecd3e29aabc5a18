package signature

import (
	"github.com/ethereum/go-ethereum/common"
	"github.com/ethereum/go-ethereum/common/hexutil"
)

// JSONView is the JSON rendering of an envelope used by the CLI.
type JSONView struct {
	Type              string          `json:"type"`
	R                 *hexutil.U256   `json:"r,omitempty"`
	S                 *hexutil.U256   `json:"s,omitempty"`
	YParity           *hexutil.Uint64 `json:"yParity,omitempty"`
	PublicKeyX        *hexutil.U256   `json:"publicKeyX,omitempty"`
	PublicKeyY        *hexutil.U256   `json:"publicKeyY,omitempty"`
	Prehash           *bool           `json:"prehash,omitempty"`
	AuthenticatorData hexutil.Bytes   `json:"authenticatorData,omitempty"`
	ClientDataJSON    string          `json:"clientDataJSON,omitempty"`
	UserAddress       *common.Address `json:"userAddress,omitempty"`
	Inner             *JSONView       `json:"inner,omitempty"`
}

// View renders env; nil yields nil.
func View(env Envelope) *JSONView {
	switch sig := env.(type) {
	case *Secp256k1:
		if sig == nil {
			return nil
		}
		yParity := hexutil.Uint64(sig.YParity)
		return &JSONView{
			Type:    SchemeSecp256k1.String(),
			R:       (*hexutil.U256)(&sig.R),
			S:       (*hexutil.U256)(&sig.S),
			YParity: &yParity,
		}
	case *P256:
		prehash := sig.Prehash
		return &JSONView{
			Type:       SchemeP256.String(),
			R:          (*hexutil.U256)(&sig.Signature.R),
			S:          (*hexutil.U256)(&sig.Signature.S),
			PublicKeyX: (*hexutil.U256)(&sig.PublicKey.X),
			PublicKeyY: (*hexutil.U256)(&sig.PublicKey.Y),
			Prehash:    &prehash,
		}
	case *WebAuthn:
		return &JSONView{
			Type:              SchemeWebAuthn.String(),
			R:                 (*hexutil.U256)(&sig.Signature.R),
			S:                 (*hexutil.U256)(&sig.Signature.S),
			PublicKeyX:        (*hexutil.U256)(&sig.PublicKey.X),
			PublicKeyY:        (*hexutil.U256)(&sig.PublicKey.Y),
			AuthenticatorData: sig.Metadata.AuthenticatorData,
			ClientDataJSON:    string(sig.Metadata.ClientDataJSON),
		}
	case *Keychain:
		user := sig.UserAddress
		return &JSONView{
			Type:        "keychain",
			UserAddress: &user,
			Inner:       View(sig.Inner),
		}
	default:
		return nil
	}
}
