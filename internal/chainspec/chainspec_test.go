package chainspec

import (
	"os"
	"path/filepath"
	"testing"
)

const sampleSpec = `{
	"chains": [
		{
			"chainId": 1,
			"name": "ethereum",
			"rpcUrl": "https://example.invalid",
			"isEip1559": true,
			"mainAssetSymbol": "ETH",
			"mainAssetDecimals": 18,
			"contracts": [
				{"poolAddress": "0xpool", "assetSymbol": "USDT", "assetType": "erc20", "assetDecimals": 6, "relayerFeeOfTenThousandth": 30}
			],
			"gasCost": {"erc20": {"transfer1x0": 300000}}
		}
	]
}`

func writeTempSpec(t *testing.T) string {
	t.Helper()
	dir := t.TempDir()
	path := filepath.Join(dir, "spec.json")
	if err := os.WriteFile(path, []byte(sampleSpec), 0o600); err != nil {
		t.Fatalf("write temp spec: %v", err)
	}
	return path
}

func TestLoadAndChain(t *testing.T) {
	spec, err := Load(writeTempSpec(t))
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	chain, ok := spec.Chain(1)
	if !ok {
		t.Fatalf("expected chain 1 to be present")
	}
	if chain.MainAssetSymbol != "ETH" {
		t.Errorf("expected ETH, got %q", chain.MainAssetSymbol)
	}
}

func TestChainMissing(t *testing.T) {
	spec, err := Load(writeTempSpec(t))
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	if _, ok := spec.Chain(999); ok {
		t.Errorf("expected chain 999 to be absent")
	}
}

func TestContractCaseInsensitive(t *testing.T) {
	spec, err := Load(writeTempSpec(t))
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	chain, _ := spec.Chain(1)
	if _, ok := chain.Contract("usdt"); !ok {
		t.Errorf("expected case-insensitive contract lookup to find USDT")
	}
}

func TestGasCostFor(t *testing.T) {
	spec, err := Load(writeTempSpec(t))
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	chain, _ := spec.Chain(1)
	cost, ok := chain.GasCostFor(AssetERC20, "transfer1x0")
	if !ok || cost != 300000 {
		t.Errorf("expected gas cost 300000, got %d (ok=%v)", cost, ok)
	}
	if _, ok := chain.GasCostFor(AssetMain, "nonexistent"); ok {
		t.Errorf("expected missing circuit type to report not-found")
	}
}
