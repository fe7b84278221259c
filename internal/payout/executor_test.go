package payout

import (
	"context"
	"testing"

	"github.com/blocpool/payoutd/internal/ledger"
	"github.com/blocpool/payoutd/internal/logging"
)

func testExecutor(t *testing.T, wallet *fakeWallet, store *ledger.InMemory) (*Executor, context.CancelFunc) {
	t.Helper()
	breaker := NewBreaker(logging.Discard(), nil)
	s, cancel := startSerializer(t, wallet, breaker)
	rec := NewRecorder(store, breaker, nil, RecorderConfig{Mixin: 5, CoinUnits: 1_000_000_000_000}, logging.Discard())
	exec := NewExecutor(ExecutorConfig{
		Mixin:               5,
		Priority:            2,
		TransferFee:         100,
		MaxBulkDestinations: 10,
	}, s, rec, logging.Discard())
	return exec, cancel
}

func TestExecutorSoloTransferNetsFee(t *testing.T) {
	wallet := newFakeWallet(100_000_000)
	store := ledger.NewInMemory()
	ledger.SeedBalance(store, ledger.Balance{ID: 1, Address: "integrated1", Amount: 2_000_000})
	exec, cancel := testExecutor(t, wallet, store)
	defer cancel()

	p := Payee{
		BalanceID: 1,
		Identity:  "integrated1",
		Address:   "integrated1",
		Amount:    1_000_000,
		Fee:       20_000,
		Route:     RouteIntegrated,
	}
	if !exec.SubmitSolo(context.Background(), p) {
		t.Fatal("submit rejected")
	}

	waitFor(t, func() bool { return wallet.transferCount() == 1 })
	waitFor(t, func() bool { return len(store.Payments()) == 1 })

	wallet.mu.Lock()
	req := wallet.transfers[0]
	wallet.mu.Unlock()
	if len(req.Destinations) != 1 {
		t.Fatalf("expected one destination, got %d", len(req.Destinations))
	}
	if req.Destinations[0].Amount != 980_000 {
		t.Fatalf("destination should carry the net amount, got %d", req.Destinations[0].Amount)
	}
	if req.PaymentID != "" {
		t.Fatalf("integrated route must not set an explicit payment ID")
	}
	if req.Mixin != 5 || req.Fee != 100 || req.Priority != 2 {
		t.Fatalf("request should carry the configured knobs, got %+v", req)
	}
	if got := store.BalanceAmount(1); got != 1_000_000 {
		t.Fatalf("gross amount should be debited, balance %d", got)
	}
}

func TestExecutorPaymentIDRouteSetsPaymentID(t *testing.T) {
	wallet := newFakeWallet(100_000_000)
	store := ledger.NewInMemory()
	ledger.SeedBalance(store, ledger.Balance{ID: 1, Address: "addr1", Amount: 2_000_000})
	exec, cancel := testExecutor(t, wallet, store)
	defer cancel()

	p := Payee{
		BalanceID: 1,
		Identity:  "addr1.deadbeef",
		Address:   "addr1",
		PaymentID: strPtr("deadbeef"),
		Amount:    1_000_000,
		Route:     RoutePaymentID,
	}
	if !exec.SubmitSolo(context.Background(), p) {
		t.Fatal("submit rejected")
	}

	waitFor(t, func() bool { return wallet.transferCount() == 1 })

	wallet.mu.Lock()
	req := wallet.transfers[0]
	wallet.mu.Unlock()
	if req.PaymentID != "deadbeef" {
		t.Fatalf("expected payment ID deadbeef, got %q", req.PaymentID)
	}
}

func TestExecutorBulkChunking(t *testing.T) {
	wallet := newFakeWallet(1_000_000_000)
	store := ledger.NewInMemory()
	var payees []Payee
	for i := int64(1); i <= 25; i++ {
		ledger.SeedBalance(store, ledger.Balance{ID: i, Address: "addr", Amount: 2_000_000})
		payees = append(payees, Payee{BalanceID: i, Identity: "addr", Address: "addr", Amount: 1_000_000, Route: RouteBulk})
	}
	exec, cancel := testExecutor(t, wallet, store)
	defer cancel()

	if got := exec.SubmitBulk(context.Background(), payees); got != 3 {
		t.Fatalf("expected 3 chunked requests, got %d", got)
	}

	waitFor(t, func() bool { return wallet.transferCount() == 3 })
	waitFor(t, func() bool { return len(store.Payments()) == 25 })

	wallet.mu.Lock()
	sizes := []int{len(wallet.transfers[0].Destinations), len(wallet.transfers[1].Destinations), len(wallet.transfers[2].Destinations)}
	wallet.mu.Unlock()
	if sizes[0] != 10 || sizes[1] != 10 || sizes[2] != 5 {
		t.Fatalf("unexpected chunk sizes %v", sizes)
	}
	if txs := store.Transactions(); len(txs) != 3 {
		t.Fatalf("expected 3 transaction rows, got %d", len(txs))
	}
}
