package notification

import (
	"context"
	"sync"
	"testing"
	"time"

	"github.com/blocpool/payoutd/internal/logging"
)

type recordedMail struct {
	to, subject, body string
}

func TestDebouncerAccumulatesUntilFlush(t *testing.T) {
	var mu sync.Mutex
	var sent []recordedMail

	d := NewDebouncer(func(to, subject, body string) {
		mu.Lock()
		defer mu.Unlock()
		sent = append(sent, recordedMail{to, subject, body})
	})
	d.SetIntervals(20*time.Millisecond, time.Hour, time.Hour)

	d.Enqueue("miner@example.com", "Payment sent", "first. ")
	d.Enqueue("miner@example.com", "Payment sent", "second.")
	d.Enqueue("other@example.com", "Payment sent", "solo.")

	time.Sleep(100 * time.Millisecond)

	mu.Lock()
	defer mu.Unlock()
	if len(sent) != 2 {
		t.Fatalf("expected 2 flushed mails, got %d", len(sent))
	}
	bodies := map[string]string{}
	for _, m := range sent {
		bodies[m.to] = m.body
	}
	if bodies["miner@example.com"] != "first. second." {
		t.Fatalf("accumulated body = %q", bodies["miner@example.com"])
	}
	if bodies["other@example.com"] != "solo." {
		t.Fatalf("solo body = %q", bodies["other@example.com"])
	}
}

func TestDebouncerUsesSlowFlushForRepeatKeys(t *testing.T) {
	var mu sync.Mutex
	var count int

	d := NewDebouncer(func(string, string, string) {
		mu.Lock()
		defer mu.Unlock()
		count++
	})
	d.SetIntervals(10*time.Millisecond, time.Hour, time.Hour)

	d.Enqueue("miner@example.com", "Payment sent", "a")
	time.Sleep(50 * time.Millisecond)

	// Key flushed recently; the next enqueue schedules the slow interval and
	// must not deliver within this test window.
	d.Enqueue("miner@example.com", "Payment sent", "b")
	time.Sleep(50 * time.Millisecond)

	mu.Lock()
	defer mu.Unlock()
	if count != 1 {
		t.Fatalf("expected exactly 1 delivery, got %d", count)
	}
}

func TestMailerDropsInvalidAddress(t *testing.T) {
	var sent int
	m := NewMailer(MailerConfig{From: "pool@example.com", AdminEmail: "admin@example.com"}, logging.Discard())
	m.send = func(string, string, string) error { sent++; return nil }
	m.debouncer.SetIntervals(time.Millisecond, time.Millisecond, time.Millisecond)

	if err := m.Send(context.Background(), Message{Kind: KindPaymentReceipt, Destination: "not-an-email", Body: "x"}); err != nil {
		t.Fatalf("send: %v", err)
	}
	time.Sleep(20 * time.Millisecond)
	if sent != 0 {
		t.Fatalf("expected no delivery to invalid address, got %d", sent)
	}
}

func TestMailerSendsAdminImmediately(t *testing.T) {
	var sent []recordedMail
	m := NewMailer(MailerConfig{From: "pool@example.com", AdminEmail: "admin@example.com"}, logging.Discard())
	m.send = func(to, subject, body string) error {
		sent = append(sent, recordedMail{to, subject, body})
		return nil
	}

	msg := Message{Kind: KindOperatorAlert, Destination: "admin@example.com", Subject: "Payout halted", Body: "detail"}
	if err := m.Send(context.Background(), msg); err != nil {
		t.Fatalf("send: %v", err)
	}
	if len(sent) != 1 || sent[0].subject != "Payout halted" {
		t.Fatalf("expected immediate admin delivery, got %+v", sent)
	}
}
