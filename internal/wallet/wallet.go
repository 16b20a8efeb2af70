// Package wallet wraps the signer key a single Consumer owns exclusively.
package wallet

import (
	"context"
	"crypto/ecdsa"
	"fmt"
	"math/big"
	"strings"

	"github.com/ethereum/go-ethereum/accounts/abi/bind"
	"github.com/ethereum/go-ethereum/common"
	"github.com/ethereum/go-ethereum/crypto"
)

// Wallet is the private key and derived address backing one ChannelKey's
// submissions. It never leaves the Consumer goroutine that owns it.
type Wallet struct {
	priv    *ecdsa.PrivateKey
	Address common.Address
}

// New parses a hex-encoded secp256k1 private key and derives its address.
func New(privateKeyHex string) (*Wallet, error) {
	priv, err := crypto.HexToECDSA(strings.TrimPrefix(privateKeyHex, "0x"))
	if err != nil {
		return nil, fmt.Errorf("wallet: invalid private key: %w", err)
	}
	return &Wallet{priv: priv, Address: crypto.PubkeyToAddress(priv.PublicKey)}, nil
}

// TransactOpts builds a *bind.TransactOpts for a single submission: nonce
// and gas price are always set explicitly by the caller (the Gas Manager's
// Send, with the max gas price the Consumer chose),
// never inferred here, so a per-submission fee-guard result is never
// silently overridden. The returned Signer closure is what the Gas
// Manager uses to sign the transaction it builds for this submission.
func (w *Wallet) TransactOpts(ctx context.Context, chainID *big.Int, nonce uint64, gasPrice *big.Int, gasLimit uint64) (*bind.TransactOpts, error) {
	auth, err := bind.NewKeyedTransactorWithChainID(w.priv, chainID)
	if err != nil {
		return nil, fmt.Errorf("wallet: build transactor: %w", err)
	}
	auth.Context = ctx
	auth.Nonce = new(big.Int).SetUint64(nonce)
	auth.Value = big.NewInt(0)
	auth.GasLimit = gasLimit
	auth.GasPrice = gasPrice
	return auth, nil
}
