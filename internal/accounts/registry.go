// Package accounts is a read-only, startup-validated view of the relayer
// accounts configured for each chain. Chain addresses are derived with
// crypto.PubkeyToAddress (Keccak-256 of the uncompressed public key, last
// 20 bytes).
package accounts

import (
	"fmt"
	"strings"
	"time"

	mapset "github.com/deckarep/golang-set/v2"
	"github.com/ethereum/go-ethereum/common"
	"github.com/ethereum/go-ethereum/crypto"

	"github.com/dando385/chain-relayer/internal/chainspec"
	"github.com/dando385/chain-relayer/internal/config"
)

// Account is a validated, read-only view of one configured relayer signer.
type Account struct {
	ChainID               uint64
	ChainAddress          common.Address
	PrivateKeyHex         string
	Available             bool
	SupportedERC20Symbols mapset.Set[string] // lower-cased
	BalanceAlarmThreshold float64
	BalanceCheckInterval  time.Duration
}

// SupportsSymbol reports case-insensitive membership in the account's
// configured ERC-20 symbol set.
func (a Account) SupportsSymbol(symbol string) bool {
	return a.SupportedERC20Symbols.Contains(strings.ToLower(symbol))
}

// Registry is the startup-built, read-only set of configured accounts,
// indexed by chain id.
type Registry struct {
	byChain map[uint64][]Account
}

// Build validates every configured account against spec (chain ids and
// ERC-20 symbols must resolve) and derives each account's chain address.
// Any mismatch is a fatal startup error.
func Build(accountCfgs []config.AccountConfig, spec *chainspec.Spec) (*Registry, error) {
	r := &Registry{byChain: make(map[uint64][]Account)}
	for i, ac := range accountCfgs {
		chain, ok := spec.Chain(ac.ChainID)
		if !ok {
			return nil, fmt.Errorf("accounts: account[%d]: chain_id %d not found in relayer config", i, ac.ChainID)
		}

		symbolSet := mapset.NewSet[string]()
		for _, sym := range ac.SupportedERC20Tokens {
			lower := strings.ToLower(sym)
			if _, found := chain.Contract(lower); !found {
				return nil, fmt.Errorf("accounts: account[%d]: erc20 symbol %q not configured on chain %d", i, sym, ac.ChainID)
			}
			symbolSet.Add(lower)
		}

		priv, err := crypto.HexToECDSA(strings.TrimPrefix(ac.PrivateKey, "0x"))
		if err != nil {
			return nil, fmt.Errorf("accounts: account[%d]: invalid private key: %w", i, err)
		}
		addr := crypto.PubkeyToAddress(priv.PublicKey)

		account := Account{
			ChainID:               ac.ChainID,
			ChainAddress:          addr,
			PrivateKeyHex:         ac.PrivateKey,
			Available:             ac.Available,
			SupportedERC20Symbols: symbolSet,
			BalanceAlarmThreshold: ac.BalanceAlarmThreshold,
			BalanceCheckInterval:  time.Duration(ac.BalanceCheckIntervalMs) * time.Millisecond,
		}
		r.byChain[ac.ChainID] = append(r.byChain[ac.ChainID], account)
	}
	return r, nil
}

// FindByChain returns every configured account serving chainID, in
// configuration order.
func (r *Registry) FindByChain(chainID uint64) []Account {
	return r.byChain[chainID]
}

// All returns every configured account across every chain.
func (r *Registry) All() []Account {
	var out []Account
	for _, accs := range r.byChain {
		out = append(out, accs...)
	}
	return out
}
