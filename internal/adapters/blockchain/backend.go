package blockchain

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"math/big"
	"sync"

	"github.com/ethereum/go-ethereum"
	"github.com/ethereum/go-ethereum/common"
	"github.com/ethereum/go-ethereum/core/types"
	"github.com/ethereum/go-ethereum/crypto"
	"github.com/ethereum/go-ethereum/ethclient"
	"github.com/trebuchet-org/treb-deploy/internal/domain"
	"github.com/trebuchet-org/treb-deploy/internal/domain/config"
	"github.com/trebuchet-org/treb-deploy/internal/domain/models"
	"github.com/trebuchet-org/treb-deploy/internal/usecase"
)

// gasMarginPercent is added on top of the node's gas estimate
const gasMarginPercent = 20

// ChainClient is the subset of ethclient.Client the backend needs
type ChainClient interface {
	ChainID(ctx context.Context) (*big.Int, error)
	PendingNonceAt(ctx context.Context, account common.Address) (uint64, error)
	SuggestGasTipCap(ctx context.Context) (*big.Int, error)
	SuggestGasPrice(ctx context.Context) (*big.Int, error)
	HeaderByNumber(ctx context.Context, number *big.Int) (*types.Header, error)
	EstimateGas(ctx context.Context, msg ethereum.CallMsg) (uint64, error)
	SendTransaction(ctx context.Context, tx *types.Transaction) error
	TransactionReceipt(ctx context.Context, txHash common.Hash) (*types.Receipt, error)
	BlockNumber(ctx context.Context) (uint64, error)
	Close()
}

// Dialer opens a client for an RPC URL
type Dialer func(ctx context.Context, rpcURL string) (ChainClient, error)

// Backend submits contract creation transactions through a JSON-RPC node
type Backend struct {
	dial Dialer
	log  *slog.Logger

	mu      sync.Mutex
	clients map[string]ChainClient
}

// NewBackend creates a backend dialing nodes with ethclient
func NewBackend(log *slog.Logger) *Backend {
	return NewBackendWithDialer(func(ctx context.Context, rpcURL string) (ChainClient, error) {
		return ethclient.DialContext(ctx, rpcURL)
	}, log)
}

// NewBackendWithDialer creates a backend with a custom dialer
func NewBackendWithDialer(dial Dialer, log *slog.Logger) *Backend {
	return &Backend{
		dial:    dial,
		log:     log,
		clients: make(map[string]ChainClient),
	}
}

// client returns a connected client for the network, dialing on first use
// and verifying the node serves the configured chain
func (b *Backend) client(ctx context.Context, network *config.Network) (ChainClient, error) {
	b.mu.Lock()
	defer b.mu.Unlock()

	if c, ok := b.clients[network.RPCURL]; ok {
		return c, nil
	}
	if network.RPCURL == "" {
		return nil, fmt.Errorf("network %s has no rpc_url", network.Name)
	}

	c, err := b.dial(ctx, network.RPCURL)
	if err != nil {
		return nil, fmt.Errorf("failed to connect to RPC: %w", err)
	}

	if network.ChainID != 0 {
		chainID, err := c.ChainID(ctx)
		if err != nil {
			c.Close()
			return nil, fmt.Errorf("failed to get chain ID: %w", err)
		}
		if chainID.Uint64() != network.ChainID {
			c.Close()
			return nil, fmt.Errorf("chain ID mismatch on %s: expected %d, got %d", network.Name, network.ChainID, chainID.Uint64())
		}
	}

	b.log.Debug("connected to network", "network", network.Name, "chainId", network.ChainID)
	b.clients[network.RPCURL] = c
	return c, nil
}

// Submit signs and sends a contract creation transaction from the account
func (b *Backend) Submit(ctx context.Context, network *config.Network, from models.Account, initCode []byte) (*models.Submission, error) {
	if !from.CanSign() {
		return nil, domain.ErrNoSigner
	}

	c, err := b.client(ctx, network)
	if err != nil {
		return nil, err
	}

	chainID := new(big.Int).SetUint64(network.ChainID)
	if network.ChainID == 0 {
		if chainID, err = c.ChainID(ctx); err != nil {
			return nil, fmt.Errorf("failed to get chain ID: %w", err)
		}
	}

	nonce, err := c.PendingNonceAt(ctx, from.Address)
	if err != nil {
		return nil, fmt.Errorf("failed to get nonce: %w", err)
	}

	head, err := c.HeaderByNumber(ctx, nil)
	if err != nil {
		return nil, fmt.Errorf("failed to get latest header: %w", err)
	}

	msg := ethereum.CallMsg{From: from.Address, Data: initCode}

	var txData types.TxData
	if head.BaseFee != nil {
		tip, err := c.SuggestGasTipCap(ctx)
		if err != nil {
			return nil, fmt.Errorf("failed to suggest gas tip: %w", err)
		}
		feeCap := new(big.Int).Add(tip, new(big.Int).Mul(head.BaseFee, big.NewInt(2)))
		msg.GasTipCap, msg.GasFeeCap = tip, feeCap

		gas, err := b.gasLimit(ctx, c, network, msg)
		if err != nil {
			return nil, err
		}
		txData = &types.DynamicFeeTx{
			ChainID:   chainID,
			Nonce:     nonce,
			GasTipCap: tip,
			GasFeeCap: feeCap,
			Gas:       gas,
			Value:     big.NewInt(0),
			Data:      initCode,
		}
	} else {
		gasPrice, err := c.SuggestGasPrice(ctx)
		if err != nil {
			return nil, fmt.Errorf("failed to suggest gas price: %w", err)
		}
		msg.GasPrice = gasPrice

		gas, err := b.gasLimit(ctx, c, network, msg)
		if err != nil {
			return nil, err
		}
		txData = &types.LegacyTx{
			Nonce:    nonce,
			GasPrice: gasPrice,
			Gas:      gas,
			Value:    big.NewInt(0),
			Data:     initCode,
		}
	}

	signed, err := types.SignNewTx(from.Key, types.LatestSignerForChainID(chainID), txData)
	if err != nil {
		return nil, fmt.Errorf("failed to sign transaction: %w", err)
	}

	if err := c.SendTransaction(ctx, signed); err != nil {
		return nil, fmt.Errorf("failed to send transaction: %w", err)
	}

	return &models.Submission{
		TxHash:  signed.Hash().Hex(),
		Address: crypto.CreateAddress(from.Address, nonce).Hex(),
		Nonce:   nonce,
	}, nil
}

func (b *Backend) gasLimit(ctx context.Context, c ChainClient, network *config.Network, msg ethereum.CallMsg) (uint64, error) {
	if network.GasLimit > 0 {
		return network.GasLimit, nil
	}
	gas, err := c.EstimateGas(ctx, msg)
	if err != nil {
		return 0, fmt.Errorf("failed to estimate gas: %w", err)
	}
	return gas + gas*gasMarginPercent/100, nil
}

// Confirmations reports how deep the transaction is buried. It returns nil
// while the transaction is not mined.
func (b *Backend) Confirmations(ctx context.Context, network *config.Network, txHash string) (*models.Receipt, error) {
	c, err := b.client(ctx, network)
	if err != nil {
		return nil, err
	}

	receipt, err := c.TransactionReceipt(ctx, common.HexToHash(txHash))
	if errors.Is(err, ethereum.NotFound) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get receipt: %w", err)
	}
	if receipt.Status == types.ReceiptStatusFailed {
		return nil, fmt.Errorf("%w: %s in block %s", domain.ErrTransactionReverted, txHash, receipt.BlockNumber)
	}

	head, err := c.BlockNumber(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to get block number: %w", err)
	}

	mined := receipt.BlockNumber.Uint64()
	var confirmations uint64
	if head >= mined {
		confirmations = head - mined + 1
	}

	result := &models.Receipt{
		TxHash:        txHash,
		BlockHash:     receipt.BlockHash.Hex(),
		BlockNumber:   mined,
		Confirmations: confirmations,
	}
	if receipt.ContractAddress != (common.Address{}) {
		result.ContractAddress = receipt.ContractAddress.Hex()
	}
	return result, nil
}

// Close closes every open client
func (b *Backend) Close() {
	b.mu.Lock()
	defer b.mu.Unlock()
	for url, c := range b.clients {
		c.Close()
		delete(b.clients, url)
	}
}

var _ usecase.DeploymentBackend = (*Backend)(nil)
