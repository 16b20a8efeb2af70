// Package dispatch picks, given an incoming transact request's (chain_id,
// asset_symbol, asset_type), one eligible Producer uniformly at random
// among the configured accounts that can serve it.
package dispatch

import (
	"math/rand"
	"sync"

	"github.com/dando385/chain-relayer/internal/chainspec"
	"github.com/dando385/chain-relayer/internal/queue"
)

// Dispatcher selects among a fixed set of registered Producers.
type Dispatcher struct {
	mu        sync.RWMutex
	producers []*queue.Producer
}

// New builds a Dispatcher over producers (typically every Producer the
// Channel Registry holds at startup).
func New(producers []*queue.Producer) *Dispatcher {
	return &Dispatcher{producers: producers}
}

// Select picks a Producer eligible to serve chainID/assetSymbol/assetType.
// Eligibility is: the account's chain id matches, and — for ERC-20 assets
// only — the symbol appears in the account's case-insensitive
// supported-token set. Native-asset requests match any account on the
// chain. Returns (nil, false) if nothing is eligible.
func (d *Dispatcher) Select(chainID uint64, assetSymbol string, assetType chainspec.AssetType) (*queue.Producer, bool) {
	d.mu.RLock()
	defer d.mu.RUnlock()

	var eligible []*queue.Producer
	for _, p := range d.producers {
		if p.Account.ChainID != chainID {
			continue
		}
		if assetType == chainspec.AssetERC20 && !p.Account.SupportsSymbol(assetSymbol) {
			continue
		}
		eligible = append(eligible, p)
	}
	if len(eligible) == 0 {
		return nil, false
	}
	return eligible[rand.Intn(len(eligible))], true
}
