package config

import (
	"os"
	"path/filepath"
	"testing"
)

const sampleTOML = `
[settings]
network_type = "testnet"
sqlite_db_path = "relayer.sqlite"
log_level = "debug"
host = "127.0.0.1"
port = 9090

[[accounts]]
chain_id = 1
private_key = "deadbeef"
available = true
supported_erc20_tokens = ["USDT"]
`

func writeTempConfig(t *testing.T, body string) string {
	t.Helper()
	dir := t.TempDir()
	path := filepath.Join(dir, "relayer.toml")
	if err := os.WriteFile(path, []byte(body), 0o600); err != nil {
		t.Fatalf("write temp config: %v", err)
	}
	return path
}

func TestLoadAppliesDefaults(t *testing.T) {
	path := writeTempConfig(t, sampleTOML)
	cfg, err := Load(path)
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	if cfg.Settings.QueueCapacity != DefaultQueueCapacity {
		t.Errorf("expected default queue capacity %d, got %d", DefaultQueueCapacity, cfg.Settings.QueueCapacity)
	}
	if len(cfg.Settings.APIVersion) == 0 {
		t.Errorf("expected api_version default to be filled in")
	}
}

func TestLoadEnvOverride(t *testing.T) {
	t.Setenv("MYSTIKO_RELAYER_SQLITE_DB_PATH", "override.sqlite")
	t.Setenv("MYSTIKO_RELAYER_PORT", "1234")

	path := writeTempConfig(t, sampleTOML)
	cfg, err := Load(path)
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	if cfg.Settings.SqliteDBPath != "override.sqlite" {
		t.Errorf("expected env override of sqlite_db_path, got %q", cfg.Settings.SqliteDBPath)
	}
	if cfg.Settings.Port != 1234 {
		t.Errorf("expected env override of port, got %d", cfg.Settings.Port)
	}
}

func TestValidateRejectsMissingSqliteSuffix(t *testing.T) {
	cfg := &Config{
		Settings: Settings{SqliteDBPath: "relayer.db"},
		Accounts: []AccountConfig{{ChainID: 1, PrivateKey: "deadbeef"}},
	}
	if err := cfg.Validate(); err == nil {
		t.Errorf("expected validation error for non-.sqlite path")
	}
}

func TestValidateRejectsDuplicateAccounts(t *testing.T) {
	cfg := &Config{
		Settings: Settings{SqliteDBPath: "relayer.sqlite"},
		Accounts: []AccountConfig{
			{ChainID: 1, PrivateKey: "deadbeef"},
			{ChainID: 1, PrivateKey: "deadbeef"},
		},
	}
	if err := cfg.Validate(); err == nil {
		t.Errorf("expected validation error for duplicate (chain_id, private_key)")
	}
}

func TestValidateRejectsNoAccounts(t *testing.T) {
	cfg := &Config{Settings: Settings{SqliteDBPath: "relayer.sqlite"}}
	if err := cfg.Validate(); err == nil {
		t.Errorf("expected validation error when no accounts are configured")
	}
}
