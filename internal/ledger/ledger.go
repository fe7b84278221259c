package ledger

import (
	"context"
	"errors"
	"time"
)

var (
	// ErrRowCount indicates a write affected a number of rows other than
	// exactly one. After a confirmed transfer this is the signal that the
	// ledger can no longer be mutated safely and automated payouts must halt.
	ErrRowCount = errors.New("unexpected affected row count")

	// ErrNotFound indicates the requested row does not exist.
	ErrNotFound = errors.New("not found")
)

// Balance is one accrual row in the pooled ledger. Amount is integer minor
// units and is only ever decremented by the recorder after a confirmed
// transfer.
type Balance struct {
	ID          int64
	Address     string
	PaymentID   *string
	AltCurrency bool
	Amount      int64
	PoolType    string
}

// Identity returns the account identity key used for threshold and
// notification lookups: the address alone, or address.paymentID when a
// payment ID is attached.
func (b Balance) Identity() string {
	if b.PaymentID == nil {
		return b.Address
	}
	return b.Address + "." + *b.PaymentID
}

// Transaction records one successful wallet transfer call. A bulk transfer
// covers many payees under a single transaction row.
type Transaction struct {
	ID          int64
	AltCurrency bool
	Address     *string
	PaymentID   *string
	TotalAmount int64
	TxHash      string
	Mixin       int
	Fee         int64
	PayeeCount  int
}

// Payment is one append-only audit row per payee per transaction. Amount is
// the net amount delivered (gross minus the pool transfer fee).
type Payment struct {
	UnlockedAt    time.Time
	PaidAt        time.Time
	PoolType      string
	Address       string
	TransactionID int64
	AltCurrency   bool
	Amount        int64
	PaymentID     *string
	Fee           int64
}

// NotificationTarget carries an account's email opt-in state.
type NotificationTarget struct {
	Email   string
	Enabled bool
}

// Store defines the ledger operations the payout engine requires.
type Store interface {
	// EligibleBalances returns all balance rows at or above the minimum
	// payout amount.
	EligibleBalances(ctx context.Context, minAmount int64) ([]Balance, error)

	// PayoutThreshold returns the account's custom payout threshold. The
	// boolean reports whether a non-zero custom threshold is configured.
	PayoutThreshold(ctx context.Context, identity string) (int64, bool, error)

	// InsertTransaction persists a transaction row and returns its ID.
	InsertTransaction(ctx context.Context, tx Transaction) (int64, error)

	// InsertPayment appends a payment audit row. Returns ErrRowCount if the
	// insert did not affect exactly one row.
	InsertPayment(ctx context.Context, p Payment) error

	// DebitBalance decrements a balance row by the given amount. Returns
	// ErrRowCount if the update did not affect exactly one row.
	DebitBalance(ctx context.Context, balanceID, amount int64) error

	// NotificationTarget returns the account's notification email and
	// opt-in flag, or ErrNotFound when the account has no email on file.
	NotificationTarget(ctx context.Context, identity string) (NotificationTarget, error)
}
