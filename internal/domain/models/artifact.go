package models

import (
	"github.com/ethereum/go-ethereum/accounts/abi"
)

// Artifact is a compiled contract: creation bytecode plus its ABI
type Artifact struct {
	Name     string
	Path     string // artifact file, relative to the project root
	Bytecode []byte
	ABI      *abi.ABI
}
