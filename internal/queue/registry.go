package queue

import (
	"context"
	"sync"

	"go.uber.org/zap"

	"github.com/dando385/chain-relayer/internal/accounts"
	"github.com/dando385/chain-relayer/internal/calldata"
	"github.com/dando385/chain-relayer/internal/chainspec"
	"github.com/dando385/chain-relayer/internal/gasmgr"
	"github.com/dando385/chain-relayer/internal/oracle"
	"github.com/dando385/chain-relayer/internal/store"
)

// ChannelKey identifies one Producer/Consumer pair. The Channel Registry
// is keyed by (chain_id, private_key) so every configured signer gets its
// own queue and exclusive-owner consumer goroutine.
type ChannelKey struct {
	ChainID       uint64
	PrivateKeyHex string
}

type channel struct {
	producer *Producer
	queue    *queue
	cancel   context.CancelFunc
}

// Registry is the Channel Registry: it builds one bounded channel per
// ChannelKey at startup and keeps its Consumer goroutine running for the
// life of the process.
type Registry struct {
	mu       sync.RWMutex
	channels map[ChannelKey]*channel
}

// NewRegistry returns an empty Channel Registry.
func NewRegistry() *Registry {
	return &Registry{channels: make(map[ChannelKey]*channel)}
}

// Register builds the queue, Producer and Consumer for key and starts the
// Consumer goroutine under ctx. It returns the Producer so callers (the
// Dispatcher) can route jobs to it.
func (r *Registry) Register(
	ctx context.Context,
	key ChannelKey,
	capacity int,
	account accounts.Account,
	st *store.Store,
	gas *gasmgr.Manager,
	fee *oracle.Oracle,
	cd *calldata.Builder,
	chain chainspec.ChainConfig,
	logger *zap.Logger,
) *Producer {
	q := newQueue(capacity)
	producer := &Producer{Account: account, store: st, queue: q}
	consumer := &Consumer{store: st, queue: q, gas: gas, fee: fee, calldata: cd, chain: chain, logger: logger}

	chCtx, cancel := context.WithCancel(ctx)
	go consumer.Run(chCtx)

	r.mu.Lock()
	r.channels[key] = &channel{producer: producer, queue: q, cancel: cancel}
	r.mu.Unlock()

	return producer
}

// Producers returns every registered Producer, for the Dispatcher to filter
// over.
func (r *Registry) Producers() []*Producer {
	r.mu.RLock()
	defer r.mu.RUnlock()
	out := make([]*Producer, 0, len(r.channels))
	for _, ch := range r.channels {
		out = append(out, ch.producer)
	}
	return out
}

// Shutdown closes every channel and cancels every Consumer goroutine.
func (r *Registry) Shutdown() {
	r.mu.Lock()
	defer r.mu.Unlock()
	for _, ch := range r.channels {
		ch.queue.close()
		ch.cancel()
	}
}
