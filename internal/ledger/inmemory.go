package ledger

import (
	"context"
	"sync"
)

// InMemory is a concurrency-safe in-memory ledger store for unit tests. The
// Fail* fields simulate the partial-failure modes the recorder must handle.
type InMemory struct {
	mu         sync.Mutex
	balances   map[int64]Balance
	thresholds map[string]int64
	targets    map[string]NotificationTarget

	transactions []Transaction
	payments     []Payment
	nextTxID     int64

	FailTransactionInsert bool
	FailPaymentInsert     bool
	FailDebit             bool
}

// NewInMemory creates an empty in-memory ledger store.
func NewInMemory() *InMemory {
	return &InMemory{
		balances:   make(map[int64]Balance),
		thresholds: make(map[string]int64),
		targets:    make(map[string]NotificationTarget),
		nextTxID:   1,
	}
}

// EligibleBalances returns seeded balances at or above the minimum amount.
func (s *InMemory) EligibleBalances(_ context.Context, minAmount int64) ([]Balance, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	var out []Balance
	for _, b := range s.balances {
		if b.Amount >= minAmount {
			out = append(out, b)
		}
	}
	return out, nil
}

// PayoutThreshold returns the seeded custom threshold, if any.
func (s *InMemory) PayoutThreshold(_ context.Context, identity string) (int64, bool, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	threshold, ok := s.thresholds[identity]
	if !ok || threshold == 0 {
		return 0, false, nil
	}
	return threshold, true, nil
}

// InsertTransaction records a transaction row and returns its ID.
func (s *InMemory) InsertTransaction(_ context.Context, tx Transaction) (int64, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.FailTransactionInsert {
		return 0, ErrRowCount
	}
	tx.ID = s.nextTxID
	s.nextTxID++
	s.transactions = append(s.transactions, tx)
	return tx.ID, nil
}

// InsertPayment appends a payment row.
func (s *InMemory) InsertPayment(_ context.Context, p Payment) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.FailPaymentInsert {
		return ErrRowCount
	}
	s.payments = append(s.payments, p)
	return nil
}

// DebitBalance decrements a seeded balance row.
func (s *InMemory) DebitBalance(_ context.Context, balanceID, amount int64) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.FailDebit {
		return ErrRowCount
	}
	b, ok := s.balances[balanceID]
	if !ok {
		return ErrRowCount
	}
	b.Amount -= amount
	s.balances[balanceID] = b
	return nil
}

// NotificationTarget returns the seeded notification target, if any.
func (s *InMemory) NotificationTarget(_ context.Context, identity string) (NotificationTarget, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	target, ok := s.targets[identity]
	if !ok {
		return NotificationTarget{}, ErrNotFound
	}
	return target, nil
}

// Transactions returns a copy of all recorded transaction rows.
func (s *InMemory) Transactions() []Transaction {
	s.mu.Lock()
	defer s.mu.Unlock()
	out := make([]Transaction, len(s.transactions))
	copy(out, s.transactions)
	return out
}

// Payments returns a copy of all recorded payment rows.
func (s *InMemory) Payments() []Payment {
	s.mu.Lock()
	defer s.mu.Unlock()
	out := make([]Payment, len(s.payments))
	copy(out, s.payments)
	return out
}

// BalanceAmount returns the current amount of a seeded balance row.
func (s *InMemory) BalanceAmount(balanceID int64) int64 {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.balances[balanceID].Amount
}
