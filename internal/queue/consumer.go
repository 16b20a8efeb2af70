package queue

import (
	"context"
	"fmt"
	"math/big"
	"time"

	"github.com/ethereum/go-ethereum/common"
	"go.uber.org/zap"

	"github.com/dando385/chain-relayer/internal/calldata"
	"github.com/dando385/chain-relayer/internal/chainspec"
	"github.com/dando385/chain-relayer/internal/gasmgr"
	"github.com/dando385/chain-relayer/internal/oracle"
	"github.com/dando385/chain-relayer/internal/store"
)

// storeRetryAttempts and storeRetryInterval bound the Consumer's retry of a
// store write before it gives up and logs the failure. A store write
// failure never abandons an already-submitted transaction; it is retried.
const (
	storeRetryAttempts = 5
	storeRetryInterval = 2 * time.Second
)

// Consumer is the single goroutine draining one ChannelKey's queue. It
// exclusively owns the signer wallet its Gas Manager wraps, so nonce
// handling across the whole pipeline never needs its own lock.
type Consumer struct {
	store    *store.Store
	queue    *queue
	gas      *gasmgr.Manager
	fee      *oracle.Oracle
	calldata *calldata.Builder
	chain    chainspec.ChainConfig
	logger   *zap.Logger
}

// Run drains the queue until ctx is cancelled or the queue is closed.
func (c *Consumer) Run(ctx context.Context) {
	for {
		select {
		case <-ctx.Done():
			return
		case s, ok := <-c.queue.ch:
			if !ok {
				return
			}
			c.process(ctx, s.jobID, s.req)
		}
	}
}

// process runs the submission pipeline against one dequeued job: build
// calldata, quote gas, validate the relayer's offered fee against the
// estimated on-chain cost, submit, record the pending hash, wait for
// confirmation, record the final outcome.
func (c *Consumer) process(ctx context.Context, jobID string, req Request) {
	pool := common.HexToAddress(req.PoolAddress)

	data, err := c.calldata.BuildTransact(req.ProofPayload, []byte(req.Signature))
	if err != nil {
		c.fail(ctx, jobID, "failed to build calldata: "+err.Error())
		return
	}

	gasPrice, err := c.gas.GasPrice(ctx)
	if err != nil {
		c.fail(ctx, jobID, "failed to get gas price: "+err.Error())
		return
	}

	estimateGas, err := c.gas.EstimateGas(ctx, pool, data, big.NewInt(0), gasPrice)
	if err != nil {
		c.fail(ctx, jobID, "failed to estimate gas: "+err.Error())
		return
	}

	// est_fee_native = gas_price * estimate_gas, relayer_fee_native =
	// oracle.Swap(...); the fee guard below stays in integer arithmetic
	// throughout.
	estFeeNative := new(big.Int).Mul(gasPrice, new(big.Int).SetUint64(estimateGas))

	relayerFeeNative, err := c.fee.Swap(ctx, req.AssetSymbol, req.AssetDecimals, req.RelayerFeeAmount,
		c.chain.MainAssetSymbol, c.chain.MainAssetDecimals)
	if err != nil {
		c.fail(ctx, jobID, "fee oracle failure: "+err.Error())
		return
	}

	if relayerFeeNative.Cmp(estFeeNative) < 0 {
		c.fail(ctx, jobID, fmt.Sprintf(
			"Relayer fee amount not enough(relayer fee in %s = %s, estimated transaction fee = %s)",
			c.chain.MainAssetSymbol, relayerFeeNative, estFeeNative))
		return
	}

	// max_gas_price = min(relayer_fee_native / estimate_gas, gas_price * M).
	maxGasPrice := new(big.Int).Div(relayerFeeNative, new(big.Int).SetUint64(estimateGas))
	ceiling := new(big.Int).Mul(gasPrice, big.NewInt(c.gas.Multiplier()))
	if ceiling.Cmp(maxGasPrice) < 0 {
		maxGasPrice = ceiling
	}

	hash, err := c.gas.Send(ctx, pool, data, big.NewInt(0), estimateGas, maxGasPrice)
	if err != nil {
		c.fail(ctx, jobID, "failed to send transaction: "+err.Error())
		return
	}

	pending := store.StatusPending
	hashHex := hash.Hex()
	c.updateWithRetry(ctx, jobID, store.UpdateParams{Status: &pending, TransactionHash: &hashHex})

	receipt, err := c.gas.Confirm(ctx, hash)
	if err != nil {
		c.fail(ctx, jobID, "failed to confirm transaction: "+err.Error())
		return
	}

	// The confirmed receipt's hash may differ from the submitted one (an
	// EIP-1559 chain may mine a replacement) — the receipt's hash wins.
	succeeded := store.StatusSucceeded
	finalHash := receipt.TxHash.Hex()
	c.updateWithRetry(ctx, jobID, store.UpdateParams{Status: &succeeded, TransactionHash: &finalHash})
}

func (c *Consumer) fail(ctx context.Context, jobID, message string) {
	failed := store.StatusFailed
	c.updateWithRetry(ctx, jobID, store.UpdateParams{Status: &failed, ErrorMessage: &message})
}

// updateWithRetry retries a store write storeRetryAttempts times on a fixed
// interval before logging and giving up — the on-chain side of a submission
// already happened, so the Consumer cannot roll it back, only keep trying
// to record it.
func (c *Consumer) updateWithRetry(ctx context.Context, jobID string, p store.UpdateParams) {
	var lastErr error
	for attempt := 0; attempt < storeRetryAttempts; attempt++ {
		_, err := c.store.Update(ctx, jobID, p)
		if err == nil {
			return
		}
		lastErr = err
		select {
		case <-ctx.Done():
			if c.logger != nil {
				c.logger.Error("store update abandoned: context cancelled", zap.String("job_id", jobID))
			}
			return
		case <-time.After(storeRetryInterval):
		}
	}
	if c.logger != nil {
		c.logger.Error("store update failed after retries",
			zap.String("job_id", jobID), zap.Error(lastErr))
	}
}
