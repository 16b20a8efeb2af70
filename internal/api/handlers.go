package api

import (
	"encoding/json"
	"math/big"
	"net/http"
	"strings"
	"time"

	"github.com/ethereum/go-ethereum/common"
	"github.com/go-chi/chi/v5"

	"github.com/dando385/chain-relayer/internal/apierr"
	"github.com/dando385/chain-relayer/internal/chainspec"
	"github.com/dando385/chain-relayer/internal/queue"
	"github.com/dando385/chain-relayer/internal/store"
)

func (s *Server) handleHandshake(w http.ResponseWriter, r *http.Request) {
	writeData(w, HandshakeResponse{
		PackageVersion: packageVersion,
		APIVersion:     s.rc.Config.Settings.APIVersion,
	})
}

// handleStatusV1 and handleInfoV2 both answer a chain-info query over the
// same {chain_id, options?} request shape.
func (s *Server) handleStatusV1(w http.ResponseWriter, r *http.Request) {
	s.handleChainInfo(w, r)
}

func (s *Server) handleInfoV2(w http.ResponseWriter, r *http.Request) {
	s.handleChainInfo(w, r)
}

// handleChainInfo answers a chain-info query: support is false when the
// chain is unconfigured or (when an asset symbol is given) no account
// serves it; available is false when every registered account is marked
// unavailable; each returned contract carries a minimum_gas_fee quote when
// options name an asset/circuit pair.
func (s *Server) handleChainInfo(w http.ResponseWriter, r *http.Request) {
	var req ChainInfoRequest
	if r.Body != nil {
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil && err.Error() != "EOF" {
			writeError(w, apierr.New(apierr.CodeValidateError, "invalid request body: %v", err))
			return
		}
	}

	resp := ChainInfoResponse{ChainID: req.ChainID}
	chain, chainOK := s.rc.ChainSpec.Chain(req.ChainID)
	if !chainOK {
		writeData(w, resp)
		return
	}

	accountsForChain := s.rc.Accounts.FindByChain(req.ChainID)
	if len(accountsForChain) == 0 {
		writeError(w, apierr.New(apierr.CodeAccountNotFoundInDatabase, "no registered account serves chain %d", req.ChainID))
		return
	}

	symbolServed := func(symbol string) bool {
		if strings.EqualFold(symbol, chain.MainAssetSymbol) {
			return true
		}
		for _, acc := range accountsForChain {
			if acc.SupportsSymbol(symbol) {
				return true
			}
		}
		return false
	}

	if req.Options != nil && req.Options.AssetSymbol != "" && !symbolServed(req.Options.AssetSymbol) {
		writeData(w, resp)
		return
	}

	resp.Support = true
	for _, acc := range accountsForChain {
		if acc.Available {
			resp.Available = true
			break
		}
	}
	if !resp.Available {
		writeData(w, resp)
		return
	}

	var contractConfigs []chainspec.ContractConfig
	if req.Options != nil && req.Options.AssetSymbol != "" {
		if c, found := chain.Contract(req.Options.AssetSymbol); found {
			contractConfigs = []chainspec.ContractConfig{c}
		}
	} else {
		contractConfigs = chain.Contracts
	}

	var gasPrice *big.Int
	if req.Options != nil && req.Options.AssetSymbol != "" && req.Options.CircuitType != "" {
		gm, ok := s.rc.ChainGas[req.ChainID]
		if !ok {
			writeError(w, apierr.New(apierr.CodeGetGasPriceError, "no gas manager configured for chain %d", req.ChainID))
			return
		}
		price, err := gm.GasPrice(r.Context())
		if err != nil {
			writeError(w, apierr.New(apierr.CodeGetGasPriceError, "failed to quote gas price for chain %d: %v", req.ChainID, err))
			return
		}
		gasPrice = price
	}

	contracts := make([]ContractInfo, 0, len(contractConfigs))
	for _, c := range contractConfigs {
		if !symbolServed(c.AssetSymbol) {
			continue
		}
		contract := ContractInfo{
			AssetSymbol:               c.AssetSymbol,
			RelayerFeeOfTenThousandth: c.RelayerFeeOfTenThousandth,
		}
		if gasPrice != nil {
			fee, err := s.minimumGasFee(r, chain, c, gasPrice, *req.Options)
			if err != nil {
				writeError(w, apierr.New(apierr.CodeGetMinimumGasFeeFailed, "failed to quote minimum gas fee for %s: %v", c.AssetSymbol, err))
				return
			}
			feeStr := fee.String()
			contract.MinimumGasFee = &feeStr
		}
		contracts = append(contracts, contract)
	}

	resp.RelayerContractAddress = chain.RelayerContractAddress
	resp.Contracts = contracts
	writeData(w, resp)
}

// minimumGasFee computes gas_price * gas_cost[asset_type][circuit_type],
// converting into the contract's own asset via the fee oracle when it is
// an ERC-20.
func (s *Server) minimumGasFee(r *http.Request, chain chainspec.ChainConfig, c chainspec.ContractConfig, gasPrice *big.Int, opts ChainInfoOptions) (*big.Int, error) {
	gasCost, ok := chain.GasCostFor(c.AssetType, opts.CircuitType)
	if !ok {
		return nil, apierr.New(apierr.CodeGetMinimumGasFeeFailed, "no gas cost configured for asset type %q circuit %q", c.AssetType, opts.CircuitType)
	}
	feeNative := new(big.Int).Mul(gasPrice, new(big.Int).SetUint64(gasCost))
	if c.AssetType == chainspec.AssetMain {
		return feeNative, nil
	}
	return s.rc.Oracle.Swap(r.Context(), chain.MainAssetSymbol, chain.MainAssetDecimals, feeNative, c.AssetSymbol, c.AssetDecimals)
}

func (s *Server) handleJobV1(w http.ResponseWriter, r *http.Request) {
	job, apiErr := s.findJob(r)
	if apiErr != nil {
		writeError(w, apiErr)
		return
	}
	writeData(w, jobStatusV1(job))
}

func (s *Server) handleStatusV2(w http.ResponseWriter, r *http.Request) {
	job, apiErr := s.findJob(r)
	if apiErr != nil {
		writeError(w, apiErr)
		return
	}
	writeData(w, transactStatusV2(job))
}

func (s *Server) findJob(r *http.Request) (*store.Job, error) {
	id := chi.URLParam(r, "id")
	job, err := s.rc.Store.Find(r.Context(), id)
	if err != nil {
		return nil, apierr.Wrap(apierr.CodeDatabaseError, err)
	}
	if job == nil {
		return nil, apierr.New(apierr.CodeTransactionNotFound, "no job with id %q", id)
	}
	return job, nil
}

// handleTransactV1 submits a job, then blocks polling the store every
// v1TransactPollInterval until the job has a transaction hash assigned,
// fails, or v1TransactMaxWait elapses. A job that ends failed is reported
// as apierr.CodeTransactionFailed rather than as a successful envelope.
func (s *Server) handleTransactV1(w http.ResponseWriter, r *http.Request) {
	job, apiErr := s.submit(r)
	if apiErr != nil {
		writeError(w, apiErr)
		return
	}

	deadline := time.Now().Add(v1TransactMaxWait)
	ticker := time.NewTicker(v1TransactPollInterval)
	defer ticker.Stop()

	for {
		current, err := s.rc.Store.Find(r.Context(), job.ID)
		if err == nil && current != nil {
			job = current
		}
		if job.Status == store.StatusFailed {
			writeError(w, apierr.New(apierr.CodeTransactionFailed, "%s", job.ErrorMessage))
			return
		}
		if job.TransactionHash != "" || time.Now().After(deadline) {
			writeData(w, TransactResponseV1{ID: job.ID, Hash: job.TransactionHash, ChainID: job.ChainID})
			return
		}
		select {
		case <-r.Context().Done():
			return
		case <-ticker.C:
		}
	}
}

// handleTransactV2 submits a job and returns immediately with its id.
func (s *Server) handleTransactV2(w http.ResponseWriter, r *http.Request) {
	job, apiErr := s.submit(r)
	if apiErr != nil {
		writeError(w, apiErr)
		return
	}
	writeData(w, TransactResponseV2{UUID: job.ID})
}

// submit validates a TransactRequest, dedups it by signature, dispatches it
// to an eligible account, and enqueues it — the shared submission path for
// both API versions.
func (s *Server) submit(r *http.Request) (*store.Job, error) {
	var req TransactRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		return nil, apierr.New(apierr.CodeValidateError, "invalid request body: %v", err)
	}
	if req.Signature == "" {
		return nil, apierr.New(apierr.CodeValidateError, "signature is required")
	}
	if req.PoolAddress == "" {
		return nil, apierr.New(apierr.CodeValidateError, "pool_address is required")
	}
	feeAmount, ok := new(big.Int).SetString(req.RelayerFeeAmount, 0)
	if !ok {
		return nil, apierr.New(apierr.CodeValidateError, "relayer_fee_amount must be a decimal or 0x-prefixed hex integer string")
	}

	repeated, err := s.rc.Store.IsRepeated(r.Context(), req.Signature)
	if err != nil {
		return nil, apierr.Wrap(apierr.CodeDatabaseError, err)
	}
	if repeated {
		return nil, apierr.New(apierr.CodeRepeatedTransaction, "a non-failed job already carries this signature")
	}

	chain, ok := s.rc.ChainSpec.Chain(req.ChainID)
	if !ok {
		return nil, apierr.New(apierr.CodeChainIDNotFound, "chain id %d is not configured", req.ChainID)
	}

	// The fee asset's type is derived, not client-asserted: anything other
	// than the chain's native asset symbol is treated as an ERC-20.
	assetType := chainspec.AssetERC20
	if strings.EqualFold(req.AssetSymbol, chain.MainAssetSymbol) {
		assetType = chainspec.AssetMain
	}

	producer, ok := s.rc.Dispatcher.Select(req.ChainID, req.AssetSymbol, assetType)
	if !ok {
		return nil, apierr.New(apierr.CodeUnsupportedTransaction, "no configured account on chain %d supports asset %q", req.ChainID, req.AssetSymbol)
	}

	qreq := queue.Request{
		ChainID:          req.ChainID,
		SpendType:        req.SpendType,
		BridgeType:       req.BridgeType,
		PoolAddress:      req.PoolAddress,
		AssetSymbol:      req.AssetSymbol,
		AssetDecimals:    req.AssetDecimals,
		CircuitType:      req.CircuitType,
		Signature:        req.Signature,
		ProofPayload:     common.FromHex(req.ProofPayload),
		RelayerFeeAmount: feeAmount,
	}

	job, err := producer.Send(r.Context(), qreq)
	if err != nil {
		return job, err
	}
	return job, nil
}
