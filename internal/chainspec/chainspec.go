// Package chainspec models the externally published relayer chain
// configuration: per-chain contract addresses, supported assets, and the
// gas-cost table the chain-info minimum_gas_fee quote (see internal/api)
// reads. It is loaded
// from a local file or a remote URL, and is read-only once loaded.
package chainspec

import (
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"os"
	"strings"
	"time"
)

// AssetType distinguishes the chain's native gas token from ERC-20 fee
// tokens.
type AssetType string

const (
	AssetMain  AssetType = "main"
	AssetERC20 AssetType = "erc20"
)

// ContractConfig is one shielded-pool deployment on a chain: the asset it
// is denominated in and the relayer fee basis points charged against it.
type ContractConfig struct {
	PoolAddress               string    `json:"poolAddress"`
	AssetSymbol               string    `json:"assetSymbol"`
	AssetType                 AssetType `json:"assetType"`
	AssetDecimals             uint8     `json:"assetDecimals"`
	RelayerFeeOfTenThousandth uint64    `json:"relayerFeeOfTenThousandth"`
}

// ChainConfig is one chain's relayer-relevant configuration: its native
// asset, the contracts it serves, and the circuit-type gas-cost table used
// to quote minimum_gas_fee.
type ChainConfig struct {
	ChainID                uint64           `json:"chainId"`
	Name                   string           `json:"name"`
	RPCURL                 string           `json:"rpcUrl"`
	IsEIP1559              bool             `json:"isEip1559"`
	ConfirmTimeoutMs       int64            `json:"confirmTimeoutMs"`
	MainAssetSymbol        string           `json:"mainAssetSymbol"`
	MainAssetDecimals      uint8            `json:"mainAssetDecimals"`
	RelayerContractAddress string           `json:"relayerContractAddress"`
	Contracts              []ContractConfig `json:"contracts"`
	// GasCost is indexed [assetType][circuitType] -> gas units.
	GasCost map[AssetType]map[string]uint64 `json:"gasCost"`
}

// Contract finds the contract configured for an asset symbol
// (case-insensitive), used for both account validation and chain-info
// queries.
func (c ChainConfig) Contract(assetSymbol string) (ContractConfig, bool) {
	for _, ct := range c.Contracts {
		if strings.EqualFold(ct.AssetSymbol, assetSymbol) {
			return ct, true
		}
	}
	return ContractConfig{}, false
}

// GasCostFor returns the gas-cost estimate for (assetType, circuitType), or
// false if unconfigured.
func (c ChainConfig) GasCostFor(assetType AssetType, circuitType string) (uint64, bool) {
	byCircuit, ok := c.GasCost[assetType]
	if !ok {
		return 0, false
	}
	cost, ok := byCircuit[circuitType]
	return cost, ok
}

// Spec is the full set of configured chains, keyed by chain id.
type Spec struct {
	Chains map[uint64]ChainConfig
}

type wireSpec struct {
	Chains []ChainConfig `json:"chains"`
}

// Load reads a relayer chain configuration from a local path or, if path
// looks like a URL, a remote endpoint.
func Load(path string) (*Spec, error) {
	var raw []byte
	var err error
	if strings.HasPrefix(path, "http://") || strings.HasPrefix(path, "https://") {
		raw, err = fetchRemote(path)
	} else {
		raw, err = os.ReadFile(path)
	}
	if err != nil {
		return nil, fmt.Errorf("chainspec: load %s: %w", path, err)
	}
	var w wireSpec
	if err := json.Unmarshal(raw, &w); err != nil {
		return nil, fmt.Errorf("chainspec: parse %s: %w", path, err)
	}
	s := &Spec{Chains: make(map[uint64]ChainConfig, len(w.Chains))}
	for _, c := range w.Chains {
		s.Chains[c.ChainID] = c
	}
	return s, nil
}

func fetchRemote(url string) ([]byte, error) {
	client := &http.Client{Timeout: 10 * time.Second}
	resp, err := client.Get(url)
	if err != nil {
		return nil, err
	}
	defer resp.Body.Close()
	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("unexpected status %d", resp.StatusCode)
	}
	return io.ReadAll(resp.Body)
}

// Chain looks up a chain's configuration.
func (s *Spec) Chain(chainID uint64) (ChainConfig, bool) {
	c, ok := s.Chains[chainID]
	return c, ok
}
