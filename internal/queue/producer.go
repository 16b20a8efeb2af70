package queue

import (
	"context"

	"github.com/dando385/chain-relayer/internal/accounts"
	"github.com/dando385/chain-relayer/internal/store"
)

// Producer is the write side of one ChannelKey's queue. It owns no signer
// state itself — only the account metadata the Dispatcher needs to filter
// on, and the store handle to persist the job before the enqueue attempt.
type Producer struct {
	Account accounts.Account
	store   *store.Store
	queue   *queue
}

// Send persists req as a new queued job, then attempts to hand it to the
// backing Consumer without blocking. A full or closed channel marks the
// job failed and returns the channel error to the caller; the job row
// itself still records the attempt.
func (p *Producer) Send(ctx context.Context, req Request) (*store.Job, error) {
	job, err := p.store.Create(ctx, store.CreateParams{
		ChainID:       req.ChainID,
		SpendType:     req.SpendType,
		BridgeType:    req.BridgeType,
		PoolAddress:   req.PoolAddress,
		AssetSymbol:   req.AssetSymbol,
		AssetDecimals: req.AssetDecimals,
		CircuitType:   req.CircuitType,
		Signature:     req.Signature,
		ProofPayload:  req.ProofPayload,
	})
	if err != nil {
		return nil, err
	}

	if err := p.queue.trySend(job.ID, req); err != nil {
		failed := store.StatusFailed
		msg := err.Error()
		if updated, uerr := p.store.Update(ctx, job.ID, store.UpdateParams{Status: &failed, ErrorMessage: &msg}); uerr == nil && updated != nil {
			job = updated
		}
		return job, err
	}
	return job, nil
}
