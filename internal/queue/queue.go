// Package queue implements the Producer/Consumer/Channel-Registry triad:
// one bounded, non-blocking channel per (chain_id, private_key), fed by a
// Producer and drained by a single long-lived Consumer goroutine that owns
// the signer exclusively.
package queue

import (
	"math/big"
	"sync"

	"github.com/dando385/chain-relayer/internal/apierr"
)

// Request is everything a Consumer needs to submit one transact job once
// dequeued — the producer-side view of a transaction job, plus the
// relayer-fee amount the client offered, which the store itself does not
// persist.
type Request struct {
	ChainID          uint64
	SpendType        string
	BridgeType       string
	PoolAddress      string
	AssetSymbol      string
	AssetDecimals    uint8
	CircuitType      string
	Signature        string
	ProofPayload     []byte
	RelayerFeeAmount *big.Int
}

type slot struct {
	jobID string
	req   Request
}

// queue is a bounded FIFO with a non-blocking send side: an enqueue
// attempt that would block fails immediately instead.
type queue struct {
	ch     chan slot
	mu     sync.RWMutex
	closed bool
}

func newQueue(capacity int) *queue {
	return &queue{ch: make(chan slot, capacity)}
}

// trySend enqueues without blocking, failing with a TransactionChannelError
// if the queue is full or already closed.
func (q *queue) trySend(jobID string, req Request) error {
	q.mu.RLock()
	defer q.mu.RUnlock()
	if q.closed {
		return apierr.New(apierr.CodeTransactionChannelError, "transaction channel for this signer is shut down")
	}
	select {
	case q.ch <- slot{jobID: jobID, req: req}:
		return nil
	default:
		return apierr.New(apierr.CodeTransactionChannelError, "transaction channel for this signer is at capacity")
	}
}

// close shuts the queue down; safe to call more than once.
func (q *queue) close() {
	q.mu.Lock()
	defer q.mu.Unlock()
	if !q.closed {
		q.closed = true
		close(q.ch)
	}
}
