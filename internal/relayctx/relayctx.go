// Package relayctx is the composition root: it wires every component —
// chain spec, account registry, store, fee oracle, per-account wallets and
// gas managers, the channel registry and dispatcher — into one running
// relayer context, exposed as a single entry point a cmd/ binary calls
// once at startup.
package relayctx

import (
	"context"
	"fmt"
	"math/big"
	"time"

	"github.com/ethereum/go-ethereum/ethclient"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"

	"github.com/dando385/chain-relayer/internal/accounts"
	"github.com/dando385/chain-relayer/internal/calldata"
	"github.com/dando385/chain-relayer/internal/chainspec"
	"github.com/dando385/chain-relayer/internal/config"
	"github.com/dando385/chain-relayer/internal/dispatch"
	"github.com/dando385/chain-relayer/internal/gasmgr"
	"github.com/dando385/chain-relayer/internal/oracle"
	"github.com/dando385/chain-relayer/internal/queue"
	"github.com/dando385/chain-relayer/internal/store"
	"github.com/dando385/chain-relayer/internal/wallet"
)

// defaultConfirmTimeout is used when a chain's confirmTimeoutMs is unset.
const defaultConfirmTimeout = 120 * time.Second

// Context is the fully wired relayer: everything the Public API handlers
// need to serve a request.
type Context struct {
	Config     *config.Config
	ChainSpec  *chainspec.Spec
	Accounts   *accounts.Registry
	Store      *store.Store
	Oracle     *oracle.Oracle
	Registry   *queue.Registry
	Dispatcher *dispatch.Dispatcher
	Logger     *zap.Logger

	// ChainGas holds one Gas Manager per chain id, reused by the chain-info
	// endpoints to quote a minimum_gas_fee without needing a signer —
	// Manager.GasPrice never touches the wallet it was built with.
	ChainGas map[uint64]*gasmgr.Manager

	clients map[uint64]*ethclient.Client
}

// New builds a Context from a validated Config. Any failure here is fatal
// at startup.
func New(ctx context.Context, cfg *config.Config) (*Context, error) {
	logger, err := buildLogger(cfg.Settings.LogLevel)
	if err != nil {
		return nil, fmt.Errorf("relayctx: build logger: %w", err)
	}

	specPath := cfg.Options.RelayerConfigPath
	if specPath == "" {
		specPath = cfg.Options.RelayerRemoteConfigBaseURL
	}
	spec, err := chainspec.Load(specPath)
	if err != nil {
		return nil, fmt.Errorf("relayctx: load chain spec: %w", err)
	}

	accountsReg, err := accounts.Build(cfg.Accounts, spec)
	if err != nil {
		return nil, fmt.Errorf("relayctx: build account registry: %w", err)
	}

	st, err := store.Open(cfg.Settings.SqliteDBPath, logger)
	if err != nil {
		return nil, fmt.Errorf("relayctx: open store: %w", err)
	}

	feeOracle := oracle.New(oracle.NewHTTPQuoter("https://pro-api.coinmarketcap.com", cfg.Settings.CoinMarketCapAPIKey))
	cdBuilder, err := calldata.NewBuilder()
	if err != nil {
		st.Close()
		return nil, fmt.Errorf("relayctx: build calldata encoder: %w", err)
	}

	rc := &Context{
		Config:    cfg,
		ChainSpec: spec,
		Accounts:  accountsReg,
		Store:     st,
		Oracle:    feeOracle,
		Registry:  queue.NewRegistry(),
		Logger:    logger,
		ChainGas:  make(map[uint64]*gasmgr.Manager),
		clients:   make(map[uint64]*ethclient.Client),
	}

	var producers []*queue.Producer
	for _, acc := range accountsReg.All() {
		chain, ok := spec.Chain(acc.ChainID)
		if !ok {
			st.Close()
			return nil, fmt.Errorf("relayctx: account configured for unknown chain %d", acc.ChainID)
		}

		client, err := rc.clientFor(ctx, chain)
		if err != nil {
			st.Close()
			return nil, err
		}

		w, err := wallet.New(acc.PrivateKeyHex)
		if err != nil {
			st.Close()
			return nil, fmt.Errorf("relayctx: build wallet for chain %d: %w", acc.ChainID, err)
		}

		confirmTimeout := time.Duration(chain.ConfirmTimeoutMs) * time.Millisecond
		if confirmTimeout <= 0 {
			confirmTimeout = defaultConfirmTimeout
		}
		gasManager := gasmgr.New(client, w, new(big.Int).SetUint64(acc.ChainID), chain.IsEIP1559, confirmTimeout)
		if _, ok := rc.ChainGas[acc.ChainID]; !ok {
			rc.ChainGas[acc.ChainID] = gasManager
		}

		key := queue.ChannelKey{ChainID: acc.ChainID, PrivateKeyHex: acc.PrivateKeyHex}
		producer := rc.Registry.Register(ctx, key, cfg.Settings.QueueCapacity, acc, st, gasManager, feeOracle, cdBuilder, chain, logger)
		producers = append(producers, producer)

		if err := st.RecordAccount(ctx, acc.ChainID, acc.ChainAddress.Hex(), acc.Available); err != nil {
			logger.Warn("failed to record account snapshot", zap.Uint64("chain_id", acc.ChainID), zap.Error(err))
		}
	}

	rc.Dispatcher = dispatch.New(producers)
	return rc, nil
}

func (rc *Context) clientFor(ctx context.Context, chain chainspec.ChainConfig) (*ethclient.Client, error) {
	if c, ok := rc.clients[chain.ChainID]; ok {
		return c, nil
	}
	client, err := ethclient.DialContext(ctx, chain.RPCURL)
	if err != nil {
		return nil, fmt.Errorf("relayctx: dial chain %d at %s: %w", chain.ChainID, chain.RPCURL, err)
	}
	rc.clients[chain.ChainID] = client
	return client, nil
}

// Shutdown stops every Consumer goroutine and closes the store.
func (rc *Context) Shutdown() {
	rc.Registry.Shutdown()
	for _, c := range rc.clients {
		c.Close()
	}
	if err := rc.Store.Close(); err != nil && rc.Logger != nil {
		rc.Logger.Warn("error closing store", zap.Error(err))
	}
}

func buildLogger(level string) (*zap.Logger, error) {
	var zl zapcore.Level
	if err := zl.Set(level); err != nil {
		zl = zapcore.InfoLevel
	}
	cfg := zap.NewProductionConfig()
	cfg.Level = zap.NewAtomicLevelAt(zl)
	return cfg.Build()
}
