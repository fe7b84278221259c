package payout

import (
	"context"
	"log/slog"
	"time"

	"github.com/google/uuid"

	"github.com/blocpool/payoutd/internal/ledger"
	"github.com/blocpool/payoutd/internal/walletrpc"
)

// AltPayer settles payees routed to an alternate currency. The engine hands
// such payees over instead of submitting them to the wallet lane.
type AltPayer interface {
	PayAlt(ctx context.Context, p Payee) error
}

// EngineConfig carries the scheduling knobs for payout rounds.
type EngineConfig struct {
	// PayoutEvery is the interval between rounds. The first round runs
	// immediately on start.
	PayoutEvery time.Duration
	// MinPayout is the floor applied to the eligible-balance query.
	MinPayout int64
	// StoreFlushEvery is the wallet state flush interval.
	StoreFlushEvery time.Duration
	// DepthLogEvery is the queue depth reporting interval.
	DepthLogEvery time.Duration
}

// Engine drives periodic payout rounds: it reads eligible balances, plans a
// disposition per row, and feeds the results to the executor. All wallet work
// happens downstream on the serializer lane; the engine itself never blocks
// on a transfer.
type Engine struct {
	cfg        EngineConfig
	store      ledger.Store
	wallet     walletrpc.Client
	planner    *Planner
	executor   *Executor
	serializer *Serializer
	breaker    *Breaker
	altPayer   AltPayer
	logger     *slog.Logger
}

// NewEngine constructs a payout engine. altPayer may be nil; alt-currency
// payees are then deferred with a log line.
func NewEngine(cfg EngineConfig, store ledger.Store, wallet walletrpc.Client, planner *Planner,
	executor *Executor, serializer *Serializer, breaker *Breaker, altPayer AltPayer, logger *slog.Logger) *Engine {
	if cfg.StoreFlushEvery <= 0 {
		cfg.StoreFlushEvery = time.Minute
	}
	if cfg.DepthLogEvery <= 0 {
		cfg.DepthLogEvery = 10 * time.Minute
	}
	return &Engine{
		cfg:        cfg,
		store:      store,
		wallet:     wallet,
		planner:    planner,
		executor:   executor,
		serializer: serializer,
		breaker:    breaker,
		altPayer:   altPayer,
		logger:     logger,
	}
}

// Run executes rounds until ctx is cancelled. The first round starts
// immediately; wallet state flushes and queue depth reports run on their own
// tickers.
func (e *Engine) Run(ctx context.Context) {
	if err := e.wallet.Store(ctx); err != nil {
		e.logger.Warn("wallet state flush failed", "error", err)
	}
	e.runRound(ctx)

	rounds := time.NewTicker(e.cfg.PayoutEvery)
	defer rounds.Stop()
	flush := time.NewTicker(e.cfg.StoreFlushEvery)
	defer flush.Stop()
	depth := time.NewTicker(e.cfg.DepthLogEvery)
	defer depth.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-rounds.C:
			e.runRound(ctx)
		case <-flush.C:
			if err := e.wallet.Store(ctx); err != nil {
				e.logger.Warn("wallet state flush failed", "error", err)
			}
		case <-depth.C:
			e.logger.Info("payment queue depth", "depth", e.serializer.Depth())
		}
	}
}

// runRound plans and submits one payout round. A round only starts from a
// clean slate: a stopped breaker or a busy lane defers the whole round to the
// next tick rather than stacking new work behind unresolved transfers.
func (e *Engine) runRound(ctx context.Context) {
	if e.breaker.Stopped() {
		e.logger.Warn("skipping payout round, full stop in effect", "reason", e.breaker.Reason())
		return
	}
	if !e.serializer.Idle() {
		e.logger.Info("skipping payout round, previous payments still in flight", "depth", e.serializer.Depth())
		return
	}

	round := uuid.New().String()
	logger := e.logger.With("round", round)

	balances, err := e.store.EligibleBalances(ctx, e.cfg.MinPayout)
	if err != nil {
		logger.Error("eligible balance query failed", "error", err)
		return
	}
	logger.Info("payout round started", "candidates", len(balances))

	var bulk []Payee
	solo, alt := 0, 0
	for _, b := range balances {
		threshold, hasCustom, err := e.store.PayoutThreshold(ctx, b.Identity())
		if err != nil {
			logger.Error("payout threshold lookup failed", "identity", b.Identity(), "error", err)
			continue
		}
		payee, ok := e.planner.Plan(b, threshold, hasCustom)
		if !ok {
			continue
		}
		switch payee.Route {
		case RouteBulk:
			bulk = append(bulk, payee)
		case RouteIntegrated, RoutePaymentID:
			if e.executor.SubmitSolo(ctx, payee) {
				solo++
			}
		case RouteAltCurrency:
			if e.altPayer == nil {
				logger.Info("alternate currency payout deferred, no alt payer configured", "identity", payee.Identity)
				continue
			}
			if err := e.altPayer.PayAlt(ctx, payee); err != nil {
				logger.Error("alternate currency payout failed", "identity", payee.Identity, "error", err)
				continue
			}
			alt++
		}
	}

	bulkRequests := e.executor.SubmitBulk(ctx, bulk)
	logger.Info("payout round submitted",
		"bulk_payees", len(bulk), "bulk_requests", bulkRequests, "solo", solo, "alt", alt)
}
