package payout

import (
	"context"
	"log/slog"

	"github.com/blocpool/payoutd/internal/walletrpc"
)

// ExecutorConfig carries the wallet request construction knobs.
type ExecutorConfig struct {
	Mixin       int
	Priority    int
	TransferFee int64
	// MaxBulkDestinations limits destinations per wallet call; the bulk
	// batch is chunked to respect it.
	MaxBulkDestinations int
}

// Executor turns planned payees into wallet transfer requests and submits
// them through the serializer. Results fan out to the recorder for every
// payee a request covered.
type Executor struct {
	cfg        ExecutorConfig
	serializer *Serializer
	recorder   *Recorder
	logger     *slog.Logger
}

// NewExecutor constructs a transfer executor.
func NewExecutor(cfg ExecutorConfig, serializer *Serializer, recorder *Recorder, logger *slog.Logger) *Executor {
	return &Executor{cfg: cfg, serializer: serializer, recorder: recorder, logger: logger}
}

// SubmitSolo enqueues one single-destination transfer for an integrated or
// payment-ID payee. Returns false if the request was dropped.
func (e *Executor) SubmitSolo(ctx context.Context, p Payee) bool {
	req := walletrpc.TransferRequest{
		Destinations: []walletrpc.Destination{{Amount: p.Net(), Address: p.Address}},
		Mixin:        e.cfg.Mixin,
		Fee:          e.cfg.TransferFee,
		Priority:     e.cfg.Priority,
	}
	if p.Route == RoutePaymentID && p.PaymentID != nil {
		req.PaymentID = *p.PaymentID
	}

	payees := []Payee{p}
	e.logger.Info("submitting solo payment",
		"identity", p.Identity, "route", p.Route.String(), "amount", p.Amount)
	return e.serializer.Submit(req, func(res walletrpc.TransferResult) {
		e.recorder.Record(ctx, payees, res)
	})
}

// SubmitBulk chunks the accumulated bulk destinations into transfer requests
// of at most MaxBulkDestinations each and enqueues them. Returns the number
// of requests actually enqueued.
func (e *Executor) SubmitBulk(ctx context.Context, payees []Payee) int {
	submitted := 0
	for len(payees) > 0 {
		n := len(payees)
		if n > e.cfg.MaxBulkDestinations {
			n = e.cfg.MaxBulkDestinations
		}
		chunk := payees[:n]
		payees = payees[n:]

		req := walletrpc.TransferRequest{
			Destinations: make([]walletrpc.Destination, 0, len(chunk)),
			Mixin:        e.cfg.Mixin,
			Fee:          e.cfg.TransferFee,
			Priority:     e.cfg.Priority,
		}
		for _, p := range chunk {
			req.Destinations = append(req.Destinations, walletrpc.Destination{Amount: p.Net(), Address: p.Address})
		}

		covered := make([]Payee, len(chunk))
		copy(covered, chunk)

		e.logger.Info("submitting bulk payment", "destinations", len(chunk))
		if e.serializer.Submit(req, func(res walletrpc.TransferResult) {
			e.recorder.Record(ctx, covered, res)
		}) {
			submitted++
		}
	}
	return submitted
}
