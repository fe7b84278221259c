package payout

import (
	"log/slog"

	"github.com/blocpool/payoutd/internal/ledger"
)

// PlannerConfig carries the routing policy knobs.
type PlannerConfig struct {
	Curve             FeeCurve
	FeeAddress        string
	FeeReserve        int64
	ExchangeMin       int64
	Denomination      int64
	DefaultThreshold  int64
	IntegratedAddrLen int
}

// Planner decides, for one eligible balance row, whether and how it gets paid
// this round. It never mutates the ledger.
type Planner struct {
	cfg    PlannerConfig
	logger *slog.Logger
}

// NewPlanner constructs a routing planner.
func NewPlanner(cfg PlannerConfig, logger *slog.Logger) *Planner {
	return &Planner{cfg: cfg, logger: logger}
}

// Plan evaluates one balance row against its payout threshold. customThreshold
// is the account's own threshold when hasCustom is true; otherwise the
// configured default applies. The returned bool is false when the row is
// skipped or deferred this round.
func (p *Planner) Plan(b ledger.Balance, customThreshold int64, hasCustom bool) (Payee, bool) {
	amount := b.Amount
	identity := b.Identity()

	// The pool's own fee accrual only pays out when it can also cover the
	// disbursement cost; otherwise the funds are withheld, not paid.
	if b.PoolType == "fees" && b.Address == p.cfg.FeeAddress {
		if amount >= p.cfg.FeeReserve+p.cfg.ExchangeMin {
			amount -= p.cfg.FeeReserve
		} else {
			p.logger.Debug("fee address below disbursement floor, withholding", "identity", identity)
			amount = 0
		}
	}

	// Pay whole denominations only; the remainder stays on the balance row
	// for a future round.
	amount -= amount % p.cfg.Denomination

	threshold := p.cfg.DefaultThreshold
	if hasCustom {
		threshold = customThreshold
	}
	if amount <= 0 || amount < threshold {
		p.logger.Debug("below payout threshold, skipping", "identity", identity, "amount", amount, "threshold", threshold)
		return Payee{}, false
	}

	payee := Payee{
		BalanceID:   b.ID,
		Identity:    identity,
		Address:     b.Address,
		PaymentID:   b.PaymentID,
		PoolType:    b.PoolType,
		AltCurrency: b.AltCurrency,
		Amount:      amount,
		Fee:         p.cfg.Curve.Fee(amount),
	}

	// A custom threshold can admit amounts inside the flat fee region where
	// the fee would swallow the whole payout. Nothing sane can be sent, so
	// the balance waits until it has grown past the fee.
	if payee.Fee >= amount {
		p.logger.Debug("transfer fee consumes the payout, deferring", "identity", identity, "amount", amount, "fee", payee.Fee)
		return Payee{}, false
	}

	// Solo transfers are exchange-bound and must meet the exchange minimum,
	// unless the account raised its own threshold above the default.
	soloGate := amount >= p.cfg.ExchangeMin || (hasCustom && amount > threshold)

	switch {
	case !b.AltCurrency && b.PaymentID == nil && len(b.Address) != p.cfg.IntegratedAddrLen:
		payee.Route = RouteBulk
	case !b.AltCurrency && b.PaymentID == nil && soloGate:
		payee.Route = RouteIntegrated
	case !b.AltCurrency && b.PaymentID != nil && soloGate:
		payee.Route = RoutePaymentID
	case b.AltCurrency && soloGate:
		payee.Route = RouteAltCurrency
	default:
		// Intentional backpressure: eligible but not yet payable through any
		// route, so it waits for a future round.
		p.logger.Debug("deferring payout to a future round", "identity", identity, "amount", amount)
		return Payee{}, false
	}

	return payee, true
}
