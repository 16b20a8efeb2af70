// Package gasmgr quotes gas price, estimates gas, signs and sends the
// transaction, and waits for confirmation. A Manager is built per
// (chain_id, wallet, is_eip1559): it picks legacy or EIP-1559 transaction
// construction accordingly and polls TransactionReceipt to confirm.
package gasmgr

import (
	"context"
	"errors"
	"fmt"
	"math/big"
	"time"

	"github.com/ethereum/go-ethereum"
	"github.com/ethereum/go-ethereum/common"
	"github.com/ethereum/go-ethereum/core/types"

	"github.com/dando385/chain-relayer/internal/wallet"
)

// ChainClient is the subset of *ethclient.Client the Gas Manager needs,
// narrow enough to fake in tests.
type ChainClient interface {
	SuggestGasPrice(ctx context.Context) (*big.Int, error)
	SuggestGasTipCap(ctx context.Context) (*big.Int, error)
	HeaderByNumber(ctx context.Context, number *big.Int) (*types.Header, error)
	EstimateGas(ctx context.Context, msg ethereum.CallMsg) (uint64, error)
	SendTransaction(ctx context.Context, tx *types.Transaction) error
	TransactionReceipt(ctx context.Context, txHash common.Hash) (*types.Receipt, error)
	PendingNonceAt(ctx context.Context, account common.Address) (uint64, error)
}

// EIP1559GasPriceMultiplier and LegacyGasPriceMultiplier are the fee
// guard's ceiling multipliers: how far a chain's quoted gas price may be
// multiplied up when choosing max_gas_price.
const (
	EIP1559GasPriceMultiplier = 2
	LegacyGasPriceMultiplier  = 1
)

// Manager is the per-ChannelKey Gas Manager.
type Manager struct {
	client              ChainClient
	wallet              *wallet.Wallet
	chainID             *big.Int
	isEIP1559           bool
	confirmTimeout      time.Duration
	confirmPollInterval time.Duration
}

// New builds a Gas Manager bound to one signer wallet and chain.
func New(client ChainClient, w *wallet.Wallet, chainID *big.Int, isEIP1559 bool, confirmTimeout time.Duration) *Manager {
	return &Manager{
		client:              client,
		wallet:              w,
		chainID:             chainID,
		isEIP1559:           isEIP1559,
		confirmTimeout:      confirmTimeout,
		confirmPollInterval: 2 * time.Second,
	}
}

// Multiplier returns this manager's fee-guard ceiling multiplier M.
func (m *Manager) Multiplier() int64 {
	if m.isEIP1559 {
		return EIP1559GasPriceMultiplier
	}
	return LegacyGasPriceMultiplier
}

// GasPrice returns the effective price the relayer intends to pay: the max
// fee per gas for EIP-1559 chains, the current gas price for legacy ones.
func (m *Manager) GasPrice(ctx context.Context) (*big.Int, error) {
	if !m.isEIP1559 {
		price, err := m.client.SuggestGasPrice(ctx)
		if err != nil {
			return nil, fmt.Errorf("gasmgr: suggest gas price: %w", err)
		}
		return price, nil
	}

	tip, err := m.client.SuggestGasTipCap(ctx)
	if err != nil {
		return nil, fmt.Errorf("gasmgr: suggest gas tip cap: %w", err)
	}
	head, err := m.client.HeaderByNumber(ctx, nil)
	if err != nil {
		return nil, fmt.Errorf("gasmgr: header by number: %w", err)
	}
	if head.BaseFee == nil {
		return nil, fmt.Errorf("gasmgr: chain %s reports no base fee for an eip1559 manager", m.chainID)
	}
	// maxFeePerGas = tip + 2*baseFee, the same headroom geth's own
	// suggester applies so the cap survives a couple of base-fee doublings.
	maxFee := new(big.Int).Add(tip, new(big.Int).Mul(head.BaseFee, big.NewInt(2)))
	return maxFee, nil
}

// EstimateGas estimates gas for a call to `to` with `data`, quoted against
// maxPrice so wallets with insufficient balance fail estimation early.
func (m *Manager) EstimateGas(ctx context.Context, to common.Address, data []byte, value, maxPrice *big.Int) (uint64, error) {
	msg := ethereum.CallMsg{
		From:  m.wallet.Address,
		To:    &to,
		Data:  data,
		Value: value,
	}
	if m.isEIP1559 {
		msg.GasFeeCap = maxPrice
	} else {
		msg.GasPrice = maxPrice
	}
	gas, err := m.client.EstimateGas(ctx, msg)
	if err != nil {
		return 0, fmt.Errorf("gasmgr: estimate gas: %w", err)
	}
	return gas, nil
}

// Send signs and submits the transaction, returning the hash it was
// submitted under (which confirmation may later supersede, on an
// EIP-1559 replacement). The nonce is fetched here rather than accepted
// from the caller: nonce serialization without locking only holds if the
// only place a nonce is read is inside the single in-flight Send call a
// signer's consumer ever makes.
func (m *Manager) Send(ctx context.Context, to common.Address, data []byte, value *big.Int, gas uint64, maxGasPrice *big.Int) (common.Hash, error) {
	nonce, err := m.client.PendingNonceAt(ctx, m.wallet.Address)
	if err != nil {
		return common.Hash{}, fmt.Errorf("gasmgr: pending nonce: %w", err)
	}

	auth, err := m.wallet.TransactOpts(ctx, m.chainID, nonce, maxGasPrice, gas)
	if err != nil {
		return common.Hash{}, fmt.Errorf("gasmgr: build transactor: %w", err)
	}
	auth.Value = value

	var tx *types.Transaction
	if m.isEIP1559 {
		tip, tipErr := m.client.SuggestGasTipCap(ctx)
		if tipErr != nil {
			return common.Hash{}, fmt.Errorf("gasmgr: suggest gas tip cap: %w", tipErr)
		}
		if tip.Cmp(maxGasPrice) > 0 {
			tip = maxGasPrice
		}
		tx = types.NewTx(&types.DynamicFeeTx{
			ChainID:   m.chainID,
			Nonce:     nonce,
			GasTipCap: tip,
			GasFeeCap: maxGasPrice,
			Gas:       gas,
			To:        &to,
			Value:     value,
			Data:      data,
		})
	} else {
		tx = types.NewTransaction(nonce, to, value, gas, maxGasPrice, data)
	}

	signed, err := auth.Signer(auth.From, tx)
	if err != nil {
		return common.Hash{}, fmt.Errorf("gasmgr: sign transaction: %w", err)
	}

	if err := m.client.SendTransaction(ctx, signed); err != nil {
		return common.Hash{}, fmt.Errorf("gasmgr: send transaction: %w", err)
	}
	return signed.Hash(), nil
}

// Confirm blocks until hash's receipt is available or confirmTimeout
// elapses.
func (m *Manager) Confirm(ctx context.Context, hash common.Hash) (*types.Receipt, error) {
	deadline := time.Now().Add(m.confirmTimeout)
	ticker := time.NewTicker(m.confirmPollInterval)
	defer ticker.Stop()

	for {
		receipt, err := m.client.TransactionReceipt(ctx, hash)
		if err == nil {
			return receipt, nil
		}
		if !errors.Is(err, ethereum.NotFound) {
			return nil, fmt.Errorf("gasmgr: transaction receipt: %w", err)
		}
		if time.Now().After(deadline) {
			return nil, fmt.Errorf("gasmgr: confirm timeout waiting for %s", hash)
		}
		select {
		case <-ctx.Done():
			return nil, ctx.Err()
		case <-ticker.C:
		}
	}
}
