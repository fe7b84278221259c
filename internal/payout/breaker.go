package payout

import (
	"log/slog"
	"sync"
)

// Breaker is the process-wide full stop for automated payouts. Once tripped
// it stays stopped until an operator intervenes; all queued and future
// payment work is discarded while stopped.
type Breaker struct {
	mu      sync.Mutex
	stopped bool
	reason  string

	logger *slog.Logger
	alert  func(reason, detail string)
}

// NewBreaker constructs an armed breaker. alert, if non-nil, is invoked
// exactly once per trip with the trip reason and failure detail.
func NewBreaker(logger *slog.Logger, alert func(reason, detail string)) *Breaker {
	return &Breaker{logger: logger, alert: alert}
}

// Stopped reports whether the breaker has tripped.
func (b *Breaker) Stopped() bool {
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.stopped
}

// Reason returns the trip reason, or the empty string while armed.
func (b *Breaker) Reason() string {
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.reason
}

// Trip transitions armed to stopped. Calls while already stopped are no-ops;
// the operator notification fires only on the transition.
func (b *Breaker) Trip(reason, detail string) {
	b.mu.Lock()
	if b.stopped {
		b.mu.Unlock()
		return
	}
	b.stopped = true
	b.reason = reason
	alert := b.alert
	b.mu.Unlock()

	b.logger.Error("payment full stop: no further payments until restarted",
		"reason", reason, "detail", detail)
	if alert != nil {
		alert(reason, detail)
	}
}

// Reset re-arms the breaker. This is an operator action taken after manual
// reconciliation, never called by the engine itself.
func (b *Breaker) Reset() {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.stopped = false
	b.reason = ""
}
