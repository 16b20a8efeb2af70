package api

import "github.com/dando385/chain-relayer/internal/store"

// TransactRequest is the shared v1/v2 request body for submitting a new
// transact job — the wire form of queue.Request. Whether the fee asset is
// the chain's native token or an ERC-20 is derived server-side by comparing
// asset_symbol against the chain's configured main asset.
type TransactRequest struct {
	ChainID          uint64 `json:"chain_id"`
	SpendType        string `json:"spend_type"`
	BridgeType       string `json:"bridge_type"`
	PoolAddress      string `json:"pool_address"`
	AssetSymbol      string `json:"asset_symbol"`
	AssetDecimals    uint8  `json:"asset_decimals"`
	CircuitType      string `json:"circuit_type"`
	Signature        string `json:"signature"`
	ProofPayload     string `json:"proof_payload"`      // 0x-prefixed hex
	RelayerFeeAmount string `json:"relayer_fee_amount"` // decimal or 0x-prefixed hex integer
}

// HandshakeResponse answers the v1 /handshake probe.
type HandshakeResponse struct {
	PackageVersion string   `json:"package_version"`
	APIVersion     []string `json:"api_version"`
}

// ChainInfoOptions narrows a chain-info query to one asset/circuit pair so
// the returned contract can carry a minimum_gas_fee quote.
type ChainInfoOptions struct {
	AssetSymbol string `json:"asset_symbol"`
	CircuitType string `json:"circuit_type"`
}

// ChainInfoRequest is the shared v1 /status and v2 /api/v2/info request
// body.
type ChainInfoRequest struct {
	ChainID uint64            `json:"chain_id"`
	Options *ChainInfoOptions `json:"options,omitempty"`
}

// ContractInfo is one shielded-pool deployment's public view. MinimumGasFee
// is populated only when the request's options name both an asset symbol and
// a circuit type, and is null otherwise.
type ContractInfo struct {
	AssetSymbol               string  `json:"asset_symbol"`
	RelayerFeeOfTenThousandth uint64  `json:"relayer_fee_of_ten_thousandth"`
	MinimumGasFee             *string `json:"minimum_gas_fee"`
}

// ChainInfoResponse answers both /status (v1) and /api/v2/info (v2) with a
// shared shape.
type ChainInfoResponse struct {
	Support                bool           `json:"support"`
	Available              bool           `json:"available"`
	ChainID                uint64         `json:"chain_id"`
	RelayerContractAddress string         `json:"relayer_contract_address,omitempty"`
	Contracts              []ContractInfo `json:"contracts,omitempty"`
}

// TransactResponseV1 is the v1 /transact reply, produced once the job has a
// transaction hash assigned; Hash is empty when the handler's maximum wait
// elapsed first.
type TransactResponseV1 struct {
	ID      string `json:"id"`
	Hash    string `json:"hash"`
	ChainID uint64 `json:"chain_id"`
}

// ResponseQueueData carries a job's on-chain result inside the v1
// job-status reply; absent until a transaction hash exists.
type ResponseQueueData struct {
	Hash    string `json:"hash"`
	ChainID uint64 `json:"chain_id"`
}

// JobStatusResponseV1 is the v1 /jobs/{id} reply.
type JobStatusResponseV1 struct {
	ID       string             `json:"id"`
	JobType  string             `json:"job_type"`
	Status   string             `json:"status"`
	Response *ResponseQueueData `json:"response,omitempty"`
	Error    string             `json:"error,omitempty"`
}

// TransactResponseV2 acknowledges a v2 submission with the job's id only;
// clients poll /api/v2/transaction/status/{id} for progress.
type TransactResponseV2 struct {
	UUID string `json:"uuid"`
}

// TransactStatusResponseV2 is the v2 transaction-status reply.
type TransactStatusResponseV2 struct {
	UUID            string `json:"uuid"`
	ChainID         uint64 `json:"chain_id"`
	SpendType       string `json:"spend_type"`
	Status          string `json:"status"`
	TransactionHash string `json:"transaction_hash,omitempty"`
	ErrorMsg        string `json:"error_msg,omitempty"`
}

func jobStatusV1(j *store.Job) JobStatusResponseV1 {
	resp := JobStatusResponseV1{
		ID:      j.ID,
		JobType: j.SpendType,
		Status:  string(j.Status),
		Error:   j.ErrorMessage,
	}
	if j.TransactionHash != "" {
		resp.Response = &ResponseQueueData{Hash: j.TransactionHash, ChainID: j.ChainID}
	}
	return resp
}

func transactStatusV2(j *store.Job) TransactStatusResponseV2 {
	return TransactStatusResponseV2{
		UUID:            j.ID,
		ChainID:         j.ChainID,
		SpendType:       j.SpendType,
		Status:          string(j.Status),
		TransactionHash: j.TransactionHash,
		ErrorMsg:        j.ErrorMessage,
	}
}
