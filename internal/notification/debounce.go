package notification

import (
	"sync"
	"time"
)

const (
	defaultFastFlush    = 5 * time.Minute
	defaultSlowFlush    = 30 * time.Minute
	defaultRepeatWindow = 6 * time.Hour
)

// Debouncer accumulates message bodies keyed by (recipient, subject) and
// flushes each key after an interval. The first message for a quiet key
// flushes after the fast interval; if the key was flushed recently the next
// accumulation waits the slow interval instead, so a flood of per-payment
// messages to one recipient collapses into a few emails.
type Debouncer struct {
	deliver func(destination, subject, body string)

	fastFlush    time.Duration
	slowFlush    time.Duration
	repeatWindow time.Duration

	mu       sync.Mutex
	pending  map[string]string
	lastSend map[string]time.Time
}

// NewDebouncer builds a debouncer delivering flushed bodies through deliver.
func NewDebouncer(deliver func(destination, subject, body string)) *Debouncer {
	return &Debouncer{
		deliver:      deliver,
		fastFlush:    defaultFastFlush,
		slowFlush:    defaultSlowFlush,
		repeatWindow: defaultRepeatWindow,
		pending:      make(map[string]string),
		lastSend:     make(map[string]time.Time),
	}
}

// SetIntervals overrides the flush timing, primarily for tests.
func (d *Debouncer) SetIntervals(fast, slow, repeatWindow time.Duration) {
	d.mu.Lock()
	defer d.mu.Unlock()
	d.fastFlush, d.slowFlush, d.repeatWindow = fast, slow, repeatWindow
}

// Enqueue adds a message body for (destination, subject). If a flush is
// already scheduled for the key the body is appended to it; otherwise a flush
// timer starts.
func (d *Debouncer) Enqueue(destination, subject, body string) {
	key := destination + "\t" + subject

	d.mu.Lock()
	defer d.mu.Unlock()

	if existing, ok := d.pending[key]; ok {
		d.pending[key] = existing + body
		return
	}

	d.pending[key] = body
	wait := d.fastFlush
	if last, ok := d.lastSend[key]; ok && time.Since(last) <= d.repeatWindow {
		wait = d.slowFlush
	}
	d.lastSend[key] = time.Now()

	time.AfterFunc(wait, func() { d.flush(destination, subject, key) })
}

func (d *Debouncer) flush(destination, subject, key string) {
	d.mu.Lock()
	body, ok := d.pending[key]
	delete(d.pending, key)
	d.mu.Unlock()

	if !ok {
		return
	}
	d.deliver(destination, subject, body)
}
