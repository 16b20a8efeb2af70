// Package config loads the relayer's own settings: TOML on disk with
// MYSTIKO_RELAYER_/RELAYER_CONFIG_-prefixed environment overrides. This is
// the service's operational configuration — not to be confused with
// chainspec.Spec, the externally published chain+contract data the Account
// Registry and Gas Manager consult.
package config

import (
	"fmt"
	"os"
	"strconv"
	"strings"

	"github.com/pelletier/go-toml/v2"
)

const (
	// DefaultQueueCapacity is the per-account bounded queue capacity used
	// when settings.queue_capacity is unset.
	DefaultQueueCapacity = 50

	minBalanceAlarmThreshold  = 0.0001
	minBalanceCheckIntervalMs = 20000
	envPrefixMystikoRelayer   = "MYSTIKO_RELAYER_"
	envPrefixRelayerConfig    = "RELAYER_CONFIG_"
)

// Settings is the [settings] TOML table.
type Settings struct {
	APIVersion          []string `toml:"api_version"`
	NetworkType         string   `toml:"network_type"`
	SqliteDBPath        string   `toml:"sqlite_db_path"`
	LogLevel            string   `toml:"log_level"`
	Host                string   `toml:"host"`
	Port                int      `toml:"port"`
	CoinMarketCapAPIKey string   `toml:"coin_market_cap_api_key"`
	QueueCapacity       int      `toml:"queue_capacity"`
}

// AccountConfig is one entry of the [[accounts]] TOML array.
type AccountConfig struct {
	ChainID                uint64   `toml:"chain_id"`
	PrivateKey             string   `toml:"private_key"`
	Available              bool     `toml:"available"`
	SupportedERC20Tokens   []string `toml:"supported_erc20_tokens"`
	BalanceAlarmThreshold  float64  `toml:"balance_alarm_threshold"`
	BalanceCheckIntervalMs int64    `toml:"balance_check_interval_ms"`
}

// Options is the [options] TOML table.
type Options struct {
	MystikoConfigPath          string `toml:"mystiko_config_path"`
	RelayerConfigPath          string `toml:"relayer_config_path"`
	MystikoRemoteConfigBaseURL string `toml:"mystiko_remote_config_base_url"`
	RelayerRemoteConfigBaseURL string `toml:"relayer_remote_config_base_url"`
	MystikoIsStaging           bool   `toml:"mystiko_is_staging"`
	RelayerIsStaging           bool   `toml:"relayer_is_staging"`
}

// Config is the fully parsed, validated relayer configuration file.
type Config struct {
	Settings Settings        `toml:"settings"`
	Accounts []AccountConfig `toml:"accounts"`
	Options  Options         `toml:"options"`
}

// Load reads path, applies environment overrides, fills defaults, and
// validates. Any failure here is fatal at startup.
func Load(path string) (*Config, error) {
	raw, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("config: read %s: %w", path, err)
	}
	var cfg Config
	if err := toml.Unmarshal(raw, &cfg); err != nil {
		return nil, fmt.Errorf("config: parse %s: %w", path, err)
	}
	applyEnvOverrides(&cfg)
	applyDefaults(&cfg)
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return &cfg, nil
}

func applyDefaults(cfg *Config) {
	if cfg.Settings.QueueCapacity <= 0 {
		cfg.Settings.QueueCapacity = DefaultQueueCapacity
	}
	if len(cfg.Settings.APIVersion) == 0 {
		cfg.Settings.APIVersion = []string{"v1", "v2"}
	}
	if cfg.Settings.Host == "" {
		cfg.Settings.Host = "0.0.0.0"
	}
	if cfg.Settings.Port == 0 {
		cfg.Settings.Port = 8080
	}
	if cfg.Settings.LogLevel == "" {
		cfg.Settings.LogLevel = "info"
	}
}

// applyEnvOverrides looks up a small, explicitly named set of
// MYSTIKO_RELAYER_*/RELAYER_CONFIG_* variables rather than reflecting over
// struct tags — the override surface is small and fixed, so a generic
// env-binding library would add a dependency for no real flexibility gain
// (see DESIGN.md).
func applyEnvOverrides(cfg *Config) {
	for _, prefix := range []string{envPrefixMystikoRelayer, envPrefixRelayerConfig} {
		if v, ok := os.LookupEnv(prefix + "SQLITE_DB_PATH"); ok {
			cfg.Settings.SqliteDBPath = v
		}
		if v, ok := os.LookupEnv(prefix + "LOG_LEVEL"); ok {
			cfg.Settings.LogLevel = v
		}
		if v, ok := os.LookupEnv(prefix + "HOST"); ok {
			cfg.Settings.Host = v
		}
		if v, ok := os.LookupEnv(prefix + "PORT"); ok {
			if p, err := strconv.Atoi(v); err == nil {
				cfg.Settings.Port = p
			}
		}
		if v, ok := os.LookupEnv(prefix + "COIN_MARKET_CAP_API_KEY"); ok {
			cfg.Settings.CoinMarketCapAPIKey = v
		}
	}
}

// Validate enforces the recognized options' invariants. It never mutates
// the config.
func (c *Config) Validate() error {
	if !strings.Contains(c.Settings.SqliteDBPath, ".sqlite") {
		return fmt.Errorf("config: settings.sqlite_db_path must contain \".sqlite\", got %q", c.Settings.SqliteDBPath)
	}
	if len(c.Accounts) == 0 {
		return fmt.Errorf("config: at least one account must be configured")
	}
	seen := make(map[string]struct{}, len(c.Accounts))
	for i, acc := range c.Accounts {
		if acc.PrivateKey == "" {
			return fmt.Errorf("config: accounts[%d].private_key is required", i)
		}
		key := fmt.Sprintf("%d:%s", acc.ChainID, acc.PrivateKey)
		if _, dup := seen[key]; dup {
			return fmt.Errorf("config: accounts[%d] duplicates an existing (chain_id, private_key) pair", i)
		}
		seen[key] = struct{}{}
		if acc.BalanceAlarmThreshold != 0 && acc.BalanceAlarmThreshold < minBalanceAlarmThreshold {
			return fmt.Errorf("config: accounts[%d].balance_alarm_threshold must be >= %v", i, minBalanceAlarmThreshold)
		}
		if acc.BalanceCheckIntervalMs != 0 && acc.BalanceCheckIntervalMs < minBalanceCheckIntervalMs {
			return fmt.Errorf("config: accounts[%d].balance_check_interval_ms must be >= %d", i, minBalanceCheckIntervalMs)
		}
	}
	return nil
}
