// Package calldata ABI-encodes the shielded-pool contract's "transact"
// method call from a job's opaque proof/commitment payload and signature.
package calldata

import (
	"fmt"
	"strings"

	"github.com/ethereum/go-ethereum/accounts/abi"
)

// transactABI is the minimal shielded-pool ABI fragment this relayer needs:
// one state-changing method that takes the proof/commitment payload plus
// the relayer's signature authorizing the submission. The on-chain
// contract verifies the zk proof itself — the relayer never interprets
// proofData beyond passing it through.
const transactABI = `[{
	"name": "transact",
	"type": "function",
	"stateMutability": "nonpayable",
	"inputs": [
		{"name": "proofData", "type": "bytes"},
		{"name": "signature", "type": "bytes"}
	],
	"outputs": []
}]`

// Builder ABI-encodes transact() calls against a fixed ABI fragment.
type Builder struct {
	parsed abi.ABI
}

// NewBuilder parses the shielded-pool transact ABI once; Builder values are
// safe for concurrent use across every Consumer.
func NewBuilder() (*Builder, error) {
	parsed, err := abi.JSON(strings.NewReader(transactABI))
	if err != nil {
		return nil, fmt.Errorf("calldata: parse abi: %w", err)
	}
	return &Builder{parsed: parsed}, nil
}

// BuildTransact packs the transact(proofData, signature) call.
func (b *Builder) BuildTransact(proofPayload []byte, signature []byte) ([]byte, error) {
	packed, err := b.parsed.Pack("transact", proofPayload, signature)
	if err != nil {
		return nil, fmt.Errorf("calldata: pack transact: %w", err)
	}
	return packed, nil
}
