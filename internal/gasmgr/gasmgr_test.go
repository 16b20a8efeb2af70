package gasmgr

import (
	"context"
	"math/big"
	"testing"
	"time"

	"github.com/ethereum/go-ethereum"
	"github.com/ethereum/go-ethereum/common"
	"github.com/ethereum/go-ethereum/core/types"

	"github.com/dando385/chain-relayer/internal/wallet"
)

const testPrivateKey = "4c0883a69102937d6231471b5dbb6204fe5129617082792ae468d01a3f362318"

type fakeClient struct {
	gasPrice     *big.Int
	tipCap       *big.Int
	header       *types.Header
	estimatedGas uint64
	nonce        uint64
	receipts     map[common.Hash]*types.Receipt
	sendErr      error
	sent         *types.Transaction
}

func (f *fakeClient) SuggestGasPrice(ctx context.Context) (*big.Int, error) { return f.gasPrice, nil }
func (f *fakeClient) SuggestGasTipCap(ctx context.Context) (*big.Int, error) { return f.tipCap, nil }
func (f *fakeClient) HeaderByNumber(ctx context.Context, number *big.Int) (*types.Header, error) {
	return f.header, nil
}
func (f *fakeClient) EstimateGas(ctx context.Context, msg ethereum.CallMsg) (uint64, error) {
	return f.estimatedGas, nil
}
func (f *fakeClient) SendTransaction(ctx context.Context, tx *types.Transaction) error {
	f.sent = tx
	return f.sendErr
}
func (f *fakeClient) TransactionReceipt(ctx context.Context, hash common.Hash) (*types.Receipt, error) {
	r, ok := f.receipts[hash]
	if !ok {
		return nil, ethereum.NotFound
	}
	return r, nil
}
func (f *fakeClient) PendingNonceAt(ctx context.Context, account common.Address) (uint64, error) {
	return f.nonce, nil
}

func testWallet(t *testing.T) *wallet.Wallet {
	t.Helper()
	w, err := wallet.New(testPrivateKey)
	if err != nil {
		t.Fatalf("wallet.New: %v", err)
	}
	return w
}

func TestGasPriceLegacy(t *testing.T) {
	client := &fakeClient{gasPrice: big.NewInt(10)}
	m := New(client, testWallet(t), big.NewInt(1), false, time.Second)
	price, err := m.GasPrice(context.Background())
	if err != nil {
		t.Fatalf("GasPrice: %v", err)
	}
	if price.Cmp(big.NewInt(10)) != 0 {
		t.Errorf("expected legacy gas price 10, got %s", price)
	}
	if m.Multiplier() != LegacyGasPriceMultiplier {
		t.Errorf("expected legacy multiplier %d, got %d", LegacyGasPriceMultiplier, m.Multiplier())
	}
}

func TestGasPriceEIP1559(t *testing.T) {
	client := &fakeClient{
		tipCap: big.NewInt(2),
		header: &types.Header{BaseFee: big.NewInt(100)},
	}
	m := New(client, testWallet(t), big.NewInt(1), true, time.Second)
	price, err := m.GasPrice(context.Background())
	if err != nil {
		t.Fatalf("GasPrice: %v", err)
	}
	// tip(2) + 2*baseFee(100) = 202
	if price.Cmp(big.NewInt(202)) != 0 {
		t.Errorf("expected eip1559 gas price 202, got %s", price)
	}
	if m.Multiplier() != EIP1559GasPriceMultiplier {
		t.Errorf("expected eip1559 multiplier %d, got %d", EIP1559GasPriceMultiplier, m.Multiplier())
	}
}

func TestSendLegacySignsAndSubmits(t *testing.T) {
	client := &fakeClient{gasPrice: big.NewInt(10), nonce: 5}
	m := New(client, testWallet(t), big.NewInt(1), false, time.Second)

	to := common.HexToAddress("0xabc0000000000000000000000000000000abc0")
	hash, err := m.Send(context.Background(), to, []byte{0x01}, big.NewInt(0), 21000, big.NewInt(10))
	if err != nil {
		t.Fatalf("Send: %v", err)
	}
	if client.sent == nil {
		t.Fatalf("expected SendTransaction to be called")
	}
	if client.sent.Nonce() != 5 {
		t.Errorf("expected nonce fetched from PendingNonceAt (5), got %d", client.sent.Nonce())
	}
	if hash != client.sent.Hash() {
		t.Errorf("expected returned hash to match signed tx hash")
	}
}

func TestConfirmReturnsReceiptWhenFound(t *testing.T) {
	want := &types.Receipt{Status: 1}
	hash := common.HexToHash("0x01")
	client := &fakeClient{receipts: map[common.Hash]*types.Receipt{hash: want}}
	m := New(client, testWallet(t), big.NewInt(1), false, time.Second)

	got, err := m.Confirm(context.Background(), hash)
	if err != nil {
		t.Fatalf("Confirm: %v", err)
	}
	if got != want {
		t.Errorf("expected the configured receipt to be returned")
	}
}

func TestConfirmTimesOut(t *testing.T) {
	client := &fakeClient{receipts: map[common.Hash]*types.Receipt{}}
	m := New(client, testWallet(t), big.NewInt(1), false, 10*time.Millisecond)
	m.confirmPollInterval = 5 * time.Millisecond

	_, err := m.Confirm(context.Background(), common.HexToHash("0x02"))
	if err == nil {
		t.Errorf("expected Confirm to time out for a receipt that never appears")
	}
}
