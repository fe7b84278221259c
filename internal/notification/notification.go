package notification

import (
	"context"
	"log/slog"
)

const (
	// KindPaymentReceipt indicates a recipient-facing payment confirmation.
	KindPaymentReceipt = "payment_receipt"
	// KindOperatorAlert indicates an operator-facing failure alert.
	KindOperatorAlert = "operator_alert"
)

// Message describes a notification payload.
type Message struct {
	Kind        string
	Destination string
	Subject     string
	Body        string
}

// Notifier delivers notifications to downstream systems.
type Notifier interface {
	Send(ctx context.Context, message Message) error
}

// LoggerNotifier is a stub implementation that writes notifications to the logger.
type LoggerNotifier struct {
	logger *slog.Logger
}

// NewLoggerNotifier constructs a logging notifier stub.
func NewLoggerNotifier(logger *slog.Logger) *LoggerNotifier {
	return &LoggerNotifier{logger: logger}
}

// Send writes the message to the structured logger.
func (n *LoggerNotifier) Send(_ context.Context, message Message) error {
	if n == nil || n.logger == nil {
		return nil
	}
	n.logger.Info("notification",
		"kind", message.Kind,
		"destination", message.Destination,
		"subject", message.Subject,
		"body", message.Body)
	return nil
}

// Fanout delivers every message to all wrapped notifiers, ignoring individual
// delivery failures beyond logging them.
type Fanout struct {
	notifiers []Notifier
	logger    *slog.Logger
}

// NewFanout builds a notifier that fans out to all given notifiers.
func NewFanout(logger *slog.Logger, notifiers ...Notifier) *Fanout {
	return &Fanout{notifiers: notifiers, logger: logger}
}

// Send delivers the message to every wrapped notifier.
func (f *Fanout) Send(ctx context.Context, message Message) error {
	for _, n := range f.notifiers {
		if err := n.Send(ctx, message); err != nil && f.logger != nil {
			f.logger.Warn("notification delivery failed", "kind", message.Kind, "error", err)
		}
	}
	return nil
}
