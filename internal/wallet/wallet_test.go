package wallet

import (
	"context"
	"math/big"
	"testing"
)

const testPrivateKey = "4c0883a69102937d6231471b5dbb6204fe5129617082792ae468d01a3f362318"

func TestNewDerivesAddress(t *testing.T) {
	w, err := New(testPrivateKey)
	if err != nil {
		t.Fatalf("New: %v", err)
	}
	var zero [20]byte
	if w.Address == zero {
		t.Errorf("expected a non-zero derived address")
	}
}

func TestNewAccepts0xPrefix(t *testing.T) {
	w1, err := New(testPrivateKey)
	if err != nil {
		t.Fatalf("New: %v", err)
	}
	w2, err := New("0x" + testPrivateKey)
	if err != nil {
		t.Fatalf("New (0x-prefixed): %v", err)
	}
	if w1.Address != w2.Address {
		t.Errorf("expected identical addresses with/without 0x prefix")
	}
}

func TestNewRejectsInvalidKey(t *testing.T) {
	if _, err := New("not-a-key"); err == nil {
		t.Errorf("expected error for invalid private key")
	}
}

func TestTransactOptsSetsExplicitFields(t *testing.T) {
	w, err := New(testPrivateKey)
	if err != nil {
		t.Fatalf("New: %v", err)
	}
	auth, err := w.TransactOpts(context.Background(), big.NewInt(1), 7, big.NewInt(100), 21000)
	if err != nil {
		t.Fatalf("TransactOpts: %v", err)
	}
	if auth.Nonce.Uint64() != 7 {
		t.Errorf("expected nonce 7, got %d", auth.Nonce.Uint64())
	}
	if auth.GasPrice.Cmp(big.NewInt(100)) != 0 {
		t.Errorf("expected gas price 100, got %s", auth.GasPrice)
	}
	if auth.GasLimit != 21000 {
		t.Errorf("expected gas limit 21000, got %d", auth.GasLimit)
	}
}
