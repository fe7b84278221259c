package payout

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"regexp"
	"strings"
	"time"

	"github.com/blocpool/payoutd/internal/coinutil"
	"github.com/blocpool/payoutd/internal/ledger"
	"github.com/blocpool/payoutd/internal/notification"
	"github.com/blocpool/payoutd/internal/walletrpc"
)

// Wallets occasionally decorate the hash in their response; only the leading
// hex run is the transaction hash proper.
var hexRun = regexp.MustCompile(`[0-9a-f]+`)

// RecorderConfig carries the recording and receipt-formatting knobs.
type RecorderConfig struct {
	Mixin        int
	CoinUnits    int64
	ProofURLBase string
}

// Recorder reflects a confirmed wallet transfer in the ledger: one
// transaction row, then per payee a balance debit and a payment row. A write
// failure after funds have left the wallet is the most safety-critical
// failure in the system, so the recorder never retries; it emits the exact
// SQL an operator must run and trips the breaker.
type Recorder struct {
	store    ledger.Store
	breaker  *Breaker
	notifier notification.Notifier
	cfg      RecorderConfig
	logger   *slog.Logger

	now func() time.Time
}

// NewRecorder constructs a recorder. notifier may be nil to disable recipient
// receipts.
func NewRecorder(store ledger.Store, breaker *Breaker, notifier notification.Notifier, cfg RecorderConfig, logger *slog.Logger) *Recorder {
	return &Recorder{
		store:    store,
		breaker:  breaker,
		notifier: notifier,
		cfg:      cfg,
		logger:   logger,
		now:      time.Now,
	}
}

// Record persists the outcome of one successful transfer covering the given
// payees. It is invoked from the serializer lane, so recording is itself
// serialized with respect to further transfers.
func (r *Recorder) Record(ctx context.Context, payees []Payee, res walletrpc.TransferResult) {
	txHash := hexRun.FindString(res.TxHash)
	if txHash == "" {
		r.logger.Error("wallet returned no transaction hash, nothing to record", "response", fmt.Sprintf("%+v", res))
		return
	}

	var total int64
	for _, p := range payees {
		total += p.Amount
	}

	tx := ledger.Transaction{
		AltCurrency: payees[0].AltCurrency,
		TotalAmount: total,
		TxHash:      txHash,
		Mixin:       r.cfg.Mixin,
		Fee:         res.Fee,
		PayeeCount:  len(payees),
	}
	if len(payees) == 1 {
		tx.Address = &payees[0].Address
		tx.PaymentID = payees[0].PaymentID
	}

	txID, err := r.store.InsertTransaction(ctx, tx)
	if err != nil {
		r.reportReconciliation(payees, 0, false, fmt.Errorf("insert transaction for tx %s: %w", txHash, err))
		return
	}

	for i, p := range payees {
		r.logger.Info("payment recorded",
			"identity", p.Identity,
			"amount", coinutil.Format(p.Amount, r.cfg.CoinUnits),
			"fee", coinutil.Format(p.Fee, r.cfg.CoinUnits),
			"tx_hash", txHash)

		if err := r.store.DebitBalance(ctx, p.BalanceID, p.Amount); err != nil {
			r.reportReconciliation(payees[i:], txID, false, fmt.Errorf("debit balance %d: %w", p.BalanceID, err))
			return
		}
		payment := ledger.Payment{
			UnlockedAt:    r.now().UTC(),
			PaidAt:        r.now().UTC(),
			PoolType:      p.PoolType,
			Address:       p.Address,
			TransactionID: txID,
			AltCurrency:   p.AltCurrency,
			Amount:        p.Net(),
			PaymentID:     p.PaymentID,
			Fee:           p.Fee,
		}
		if err := r.store.InsertPayment(ctx, payment); err != nil {
			r.reportReconciliation(payees[i:], txID, true, fmt.Errorf("insert payment for balance %d: %w", p.BalanceID, err))
			return
		}

		if r.notifier != nil {
			go r.sendReceipt(ctx, p, txHash, res.TxKey)
		}
	}
}

// reportReconciliation emits the manual statements an operator must apply,
// then halts automated payouts. payees holds only the rows not yet fully
// recorded; payees already written before the failure must never reappear
// here, or the operator applying the report would debit them a second time.
// firstDebited marks that the first payee's balance debit already went
// through, so only its payment insert is outstanding. Funds have already left
// the wallet; retrying here could debit twice.
func (r *Recorder) reportReconciliation(payees []Payee, txID int64, firstDebited bool, cause error) {
	var report strings.Builder
	fmt.Fprintf(&report, "manual payment update required, apply by hand:\n")
	for i, p := range payees {
		stmts := reconciliationSQL(p, txID)
		if i == 0 && firstDebited {
			stmts = stmts[1:]
		}
		for _, stmt := range stmts {
			report.WriteString("  " + stmt + "\n")
		}
	}
	r.logger.Error("ledger write failed after confirmed transfer",
		"error", cause, "reconciliation", report.String())
	r.breaker.Trip("ledger write failed after confirmed transfer",
		fmt.Sprintf("%v\n\n%s", cause, report.String()))
}

func reconciliationSQL(p Payee, txID int64) []string {
	paymentID := "NULL"
	if p.PaymentID != nil {
		paymentID = "'" + *p.PaymentID + "'"
	}
	return []string{
		fmt.Sprintf("UPDATE balances SET amount = amount - %d WHERE id = %d;", p.Amount, p.BalanceID),
		fmt.Sprintf("INSERT INTO payments (unlocked_at, paid_at, pool_type, address, transaction_id, alt_currency, amount, payment_id, fee)"+
			" VALUES (now(), now(), '%s', '%s', %d, %t, %d, %s, %d);",
			p.PoolType, p.Address, txID, p.AltCurrency, p.Net(), paymentID, p.Fee),
	}
}

func (r *Recorder) sendReceipt(ctx context.Context, p Payee, txHash, txKey string) {
	target, err := r.store.NotificationTarget(ctx, p.Identity)
	if errors.Is(err, ledger.ErrNotFound) {
		return
	}
	if err != nil {
		r.logger.Warn("notification target lookup failed", "identity", p.Identity, "error", err)
		return
	}
	if !target.Enabled {
		return
	}

	net := coinutil.Format(p.Net(), r.cfg.CoinUnits)
	gross := coinutil.Format(p.Amount, r.cfg.CoinUnits)
	fee := coinutil.Format(p.Fee, r.cfg.CoinUnits)

	var body strings.Builder
	fmt.Fprintf(&body, "Your payment of %s (with transfer fee %s) to %s was just performed and the amount due was decreased by %s.\n",
		net, fee, p.Identity, gross)
	if txHash != "" && txKey != "" {
		fmt.Fprintf(&body, "The payment tx_hash (tx_id) is %s and tx_key is %s; they can be used to verify the payment.\n", txHash, txKey)
		fmt.Fprintf(&body, "Verification link: %s/%s/%s/%s\n", r.cfg.ProofURLBase, txHash, p.Address, txKey)
	}

	msg := notification.Message{
		Kind:        notification.KindPaymentReceipt,
		Destination: target.Email,
		Subject:     fmt.Sprintf("Your %s payment was just performed", net),
		Body:        body.String(),
	}
	if err := r.notifier.Send(ctx, msg); err != nil {
		r.logger.Warn("payment receipt delivery failed", "identity", p.Identity, "error", err)
	}
}
