package wallet

import (
	"github.com/ethereum/go-ethereum/common"
	"github/chapool/go-txenvelope/internal/envelope/signature"
	"github/chapool/go-txenvelope/internal/wallet/signer"
)

// Role is what a derived account is used for.
type Role string

const (
	// RoleRoot owns funds and authorizes access keys.
	RoleRoot Role = "root"
	// RoleAccessKey signs AA envelopes on behalf of the root account.
	RoleAccessKey Role = "accessKey"
	// RoleFeePayer sponsors envelopes that request a fee payer.
	RoleFeePayer Role = "feePayer"
)

// Account represents a derived signing account
type Account struct {
	Role           Role             `json:"role"`
	Address        common.Address   `json:"address"`
	Scheme         signature.Scheme `json:"-"`
	SchemeName     string           `json:"scheme"`
	DerivationPath string           `json:"derivationPath"`
}

// KeyRef is the signer reference for the account.
func (a *Account) KeyRef() signer.KeyRef {
	return signer.KeyRef{DerivationPath: a.DerivationPath, Scheme: a.Scheme}
}
