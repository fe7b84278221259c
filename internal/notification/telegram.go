package notification

import (
	"context"
	"fmt"
	"log/slog"
	"net/http"
	"net/url"
	"regexp"
	"time"
)

var chatIDPattern = regexp.MustCompile(`^[0-9]{5,}$`)

// Telegram delivers operator alerts to a Telegram chat through the bot API.
type Telegram struct {
	botKey string
	chatID string
	http   *http.Client
	logger *slog.Logger
}

// NewTelegram constructs a Telegram notifier for the configured chat.
func NewTelegram(botKey, chatID string, logger *slog.Logger) *Telegram {
	return &Telegram{
		botKey: botKey,
		chatID: chatID,
		http:   &http.Client{Timeout: 30 * time.Second},
		logger: logger,
	}
}

// Send posts the message body to the configured chat. Recipient-facing kinds
// are ignored; Telegram is an operator channel.
func (t *Telegram) Send(ctx context.Context, message Message) error {
	if message.Kind != KindOperatorAlert {
		return nil
	}
	if !chatIDPattern.MatchString(t.chatID) {
		return fmt.Errorf("invalid telegram chat id %q", t.chatID)
	}

	endpoint := fmt.Sprintf("https://api.telegram.org/bot%s/sendmessage?chat_id=%s&text=%s",
		t.botKey, t.chatID, url.QueryEscape(message.Subject+"\n"+message.Body))

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, endpoint, nil)
	if err != nil {
		return fmt.Errorf("build telegram request: %w", err)
	}
	resp, err := t.http.Do(req)
	if err != nil {
		return fmt.Errorf("telegram send: %w", err)
	}
	defer resp.Body.Close()
	if resp.StatusCode != http.StatusOK {
		return fmt.Errorf("telegram send: unexpected status %d", resp.StatusCode)
	}
	return nil
}
