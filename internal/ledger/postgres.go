package ledger

import (
	"context"
	"errors"
	"fmt"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
)

// PostgresStore persists the payout ledger in PostgreSQL.
type PostgresStore struct {
	db *pgxpool.Pool
}

// NewPostgresStore constructs a Postgres-backed ledger store.
func NewPostgresStore(db *pgxpool.Pool) *PostgresStore {
	return &PostgresStore{db: db}
}

// EligibleBalances returns balance rows at or above the minimum payout amount.
func (s *PostgresStore) EligibleBalances(ctx context.Context, minAmount int64) ([]Balance, error) {
	rows, err := s.db.Query(ctx, `SELECT id, address, payment_id, alt_currency, amount, pool_type
        FROM balances WHERE amount >= $1`, minAmount)
	if err != nil {
		return nil, fmt.Errorf("query eligible balances: %w", err)
	}
	defer rows.Close()

	var balances []Balance
	for rows.Next() {
		var b Balance
		if err := rows.Scan(&b.ID, &b.Address, &b.PaymentID, &b.AltCurrency, &b.Amount, &b.PoolType); err != nil {
			return nil, fmt.Errorf("scan balance row: %w", err)
		}
		balances = append(balances, b)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate balance rows: %w", err)
	}
	return balances, nil
}

// PayoutThreshold returns the custom threshold for an account identity.
// A zero stored threshold means the default applies.
func (s *PostgresStore) PayoutThreshold(ctx context.Context, identity string) (int64, bool, error) {
	var threshold int64
	err := s.db.QueryRow(ctx, `SELECT payout_threshold FROM users WHERE username = $1`, identity).Scan(&threshold)
	if errors.Is(err, pgx.ErrNoRows) {
		return 0, false, nil
	}
	if err != nil {
		return 0, false, fmt.Errorf("query payout threshold: %w", err)
	}
	return threshold, threshold != 0, nil
}

// InsertTransaction persists a transaction row and returns its generated ID.
func (s *PostgresStore) InsertTransaction(ctx context.Context, tx Transaction) (int64, error) {
	var id int64
	err := s.db.QueryRow(ctx, `INSERT INTO transactions
        (alt_currency, address, payment_id, total_amount, tx_hash, mixin, fee, payee_count)
        VALUES ($1, $2, $3, $4, $5, $6, $7, $8) RETURNING id`,
		tx.AltCurrency, tx.Address, tx.PaymentID, tx.TotalAmount, tx.TxHash, tx.Mixin, tx.Fee, tx.PayeeCount).Scan(&id)
	if err != nil {
		return 0, fmt.Errorf("insert transaction: %w", err)
	}
	return id, nil
}

// InsertPayment appends one payment audit row.
func (s *PostgresStore) InsertPayment(ctx context.Context, p Payment) error {
	tag, err := s.db.Exec(ctx, `INSERT INTO payments
        (unlocked_at, paid_at, pool_type, address, transaction_id, alt_currency, amount, payment_id, fee)
        VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9)`,
		p.UnlockedAt.UTC(), p.PaidAt.UTC(), p.PoolType, p.Address, p.TransactionID, p.AltCurrency, p.Amount, p.PaymentID, p.Fee)
	if err != nil {
		return fmt.Errorf("insert payment: %w", err)
	}
	if tag.RowsAffected() != 1 {
		return ErrRowCount
	}
	return nil
}

// DebitBalance decrements a balance row by the confirmed transfer amount.
func (s *PostgresStore) DebitBalance(ctx context.Context, balanceID, amount int64) error {
	tag, err := s.db.Exec(ctx, `UPDATE balances SET amount = amount - $1 WHERE id = $2`, amount, balanceID)
	if err != nil {
		return fmt.Errorf("debit balance %d: %w", balanceID, err)
	}
	if tag.RowsAffected() != 1 {
		return ErrRowCount
	}
	return nil
}

// NotificationTarget returns the notification email and opt-in flag for an account.
func (s *PostgresStore) NotificationTarget(ctx context.Context, identity string) (NotificationTarget, error) {
	var target NotificationTarget
	err := s.db.QueryRow(ctx, `SELECT email, notify_enabled FROM users WHERE username = $1 AND email <> ''`,
		identity).Scan(&target.Email, &target.Enabled)
	if errors.Is(err, pgx.ErrNoRows) {
		return NotificationTarget{}, ErrNotFound
	}
	if err != nil {
		return NotificationTarget{}, fmt.Errorf("query notification target: %w", err)
	}
	return target, nil
}
