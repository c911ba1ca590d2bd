package models

import (
	"crypto/ecdsa"

	"github.com/ethereum/go-ethereum/common"
)

// Account is a named role resolved to a concrete address on one network
type Account struct {
	Role    string         `json:"role"`
	Network string         `json:"network"`
	Address common.Address `json:"address"`

	// Key is only set for signing accounts and is never serialized
	Key *ecdsa.PrivateKey `json:"-"`
}

// CanSign reports whether the account carries a private key
func (a Account) CanSign() bool {
	return a.Key != nil
}
