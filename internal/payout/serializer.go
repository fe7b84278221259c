package payout

import (
	"context"
	"log/slog"
	"sync/atomic"
	"time"

	"github.com/blocpool/payoutd/internal/walletrpc"
)

const queueCapacity = 512

// Waits parameterizes the serializer's suspend intervals. Production values
// come from DefaultWaits; tests shrink them to keep runs fast.
type Waits struct {
	// BalanceError is the pause after a failed wallet balance query.
	BalanceError time.Duration
	// Unlocking is the pause while the unlocked balance is exactly zero
	// (funds from a previous payment are still maturing).
	Unlocking time.Duration
	// Insufficient is the pause when the unlocked balance cannot cover the
	// requested total.
	Insufficient time.Duration
	// WalletShort is the pause after the wallet itself rejects a transfer
	// for insufficient funds.
	WalletShort time.Duration
}

// DefaultWaits returns the production suspend intervals. retryInterval is the
// configured insufficient-balance re-check period.
func DefaultWaits(retryInterval time.Duration) Waits {
	return Waits{
		BalanceError: time.Minute,
		Unlocking:    5 * time.Minute,
		Insufficient: retryInterval,
		WalletShort:  10 * time.Minute,
	}
}

type txRequest struct {
	payload walletrpc.TransferRequest
	done    func(walletrpc.TransferResult)
}

// Serializer executes wallet transfer requests strictly one at a time.
// Concurrent transfers from one wallet can double-spend the same unlocked
// balance, so the single lane is a correctness requirement, not a tuning
// choice. All retry waits park the lane; nothing else may proceed meanwhile.
type Serializer struct {
	wallet  walletrpc.Client
	breaker *Breaker
	waits   Waits
	logger  *slog.Logger

	queue   chan txRequest
	pending atomic.Int64
	onDrain atomic.Pointer[func()]
}

// NewSerializer constructs an idle serializer. Run must be called to start
// the worker.
func NewSerializer(wallet walletrpc.Client, breaker *Breaker, waits Waits, logger *slog.Logger) *Serializer {
	return &Serializer{
		wallet:  wallet,
		breaker: breaker,
		waits:   waits,
		logger:  logger,
		queue:   make(chan txRequest, queueCapacity),
	}
}

// OnDrain registers a hook invoked each time the queue empties completely.
func (s *Serializer) OnDrain(fn func()) {
	s.onDrain.Store(&fn)
}

// Idle reports whether no request is queued or in flight.
func (s *Serializer) Idle() bool {
	return s.pending.Load() == 0
}

// Depth returns the number of queued plus in-flight requests.
func (s *Serializer) Depth() int64 {
	return s.pending.Load()
}

// Submit enqueues one transfer request with its completion continuation.
// Returns false when the request was dropped: the breaker has tripped or the
// queue is full. Dropped requests never invoke their continuation.
func (s *Serializer) Submit(payload walletrpc.TransferRequest, done func(walletrpc.TransferResult)) bool {
	if s.breaker.Stopped() {
		s.logger.Debug("dropping payment, full stop in effect")
		return false
	}
	s.pending.Add(1)
	select {
	case s.queue <- txRequest{payload: payload, done: done}:
		return true
	default:
		s.pending.Add(-1)
		s.logger.Error("payment queue full, dropping request", "destinations", len(payload.Destinations))
		return false
	}
}

// Run processes the lane until ctx is cancelled. It must be called exactly once.
func (s *Serializer) Run(ctx context.Context) {
	for {
		select {
		case <-ctx.Done():
			return
		case req := <-s.queue:
			s.process(ctx, req)
			if s.pending.Add(-1) == 0 {
				if fn := s.onDrain.Load(); fn != nil {
					s.logger.Info("payment queue drained")
					(*fn)()
				}
			}
		}
	}
}

func (s *Serializer) process(ctx context.Context, req txRequest) {
	total := req.payload.Total()

	for {
		// Every wake re-checks the breaker; a trip discards the request
		// without invoking its continuation.
		if s.breaker.Stopped() {
			s.logger.Debug("discarding pending payment, full stop in effect")
			return
		}

		balance, err := s.wallet.GetBalance(ctx)
		if err != nil {
			if ctx.Err() != nil {
				return
			}
			s.logger.Error("wallet balance query failed, retrying", "error", err)
			if !s.wait(ctx, s.waits.BalanceError) {
				return
			}
			continue
		}
		if balance.Available == 0 {
			s.logger.Info("waiting for balance to unlock after previous payment")
			if !s.wait(ctx, s.waits.Unlocking) {
				return
			}
			continue
		}
		if balance.Available < total {
			s.logger.Warn("unlocked balance cannot cover payment, waiting",
				"available", balance.Available, "required", total)
			if !s.wait(ctx, s.waits.Insufficient) {
				return
			}
			continue
		}

		result, err := s.wallet.Transfer(ctx, req.payload)
		if err != nil {
			if ctx.Err() != nil {
				return
			}
			if walletrpc.IsInsufficientFunds(err) {
				s.logger.Warn("wallet reports insufficient funds, retrying later", "error", err)
				if !s.wait(ctx, s.waits.WalletShort) {
					return
				}
				continue
			}
			s.breaker.Trip("wallet transfer failed", err.Error())
			return
		}

		req.done(result)
		return
	}
}

// wait parks the lane for d. Returns false if ctx was cancelled while parked.
func (s *Serializer) wait(ctx context.Context, d time.Duration) bool {
	timer := time.NewTimer(d)
	defer timer.Stop()
	select {
	case <-ctx.Done():
		return false
	case <-timer.C:
		return true
	}
}
