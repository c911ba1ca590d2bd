package models

import (
	"time"
)

// DeploymentStatus describes what the deploy-or-skip primitive did
type DeploymentStatus string

const (
	// DeploymentStatusDeployed means a new transaction was submitted and confirmed
	DeploymentStatusDeployed DeploymentStatus = "deployed"
	// DeploymentStatusSkipped means an identical, sufficiently confirmed deployment already existed
	DeploymentStatusSkipped DeploymentStatus = "skipped"
	// DeploymentStatusPending means a deployment would be submitted (dry run)
	DeploymentStatusPending DeploymentStatus = "pending"
)

// Deployment is the persisted outcome of a successful deployment of one
// contract on one network
type Deployment struct {
	ContractName    string    `json:"contractName"`
	Network         string    `json:"network"`
	ChainID         uint64    `json:"chainId"`
	Address         string    `json:"address"`
	Deployer        string    `json:"deployer"`
	ConstructorArgs []string  `json:"constructorArgs"`
	Fingerprint     string    `json:"fingerprint"`  // keccak256 of the init code
	BytecodeHash    string    `json:"bytecodeHash"` // keccak256 of the creation bytecode
	TransactionHash string    `json:"transactionHash"`
	BlockHash       string    `json:"blockHash"`
	BlockNumber     uint64    `json:"blockNumber"`
	Confirmations   uint64    `json:"confirmations"`
	Task            string    `json:"task,omitempty"`
	Tags            []string  `json:"tags,omitempty"`
	ArtifactPath    string    `json:"artifactPath,omitempty"`
	DeployedAt      time.Time `json:"deployedAt"`
}

// DeployResult is returned by the deploy-or-skip primitive
type DeployResult struct {
	Status     DeploymentStatus `json:"status"`
	Deployment *Deployment      `json:"deployment"`
	// Previous is the record that was replaced by a redeploy, if any
	Previous *Deployment `json:"previous,omitempty"`
}

// Submission describes a creation transaction accepted by the network
type Submission struct {
	TxHash  string
	Address string
	Nonce   uint64
}

// Receipt holds the confirmation state of a mined transaction
type Receipt struct {
	TxHash          string
	BlockHash       string
	BlockNumber     uint64
	ContractAddress string
	Confirmations   uint64
}
