package payout

import (
	"context"
	"errors"
	"log/slog"
	"strconv"
	"time"

	"github.com/redis/go-redis/v9"
)

const lastCycleKey = "payout:last_cycle"

// Watermark tracks the last fully drained payment cycle in Redis so other
// pool components and the ops endpoint can see when payouts last completed.
type Watermark struct {
	rdb    *redis.Client
	logger *slog.Logger
	now    func() time.Time
}

// NewWatermark constructs a cycle watermark backed by the given Redis client.
func NewWatermark(rdb *redis.Client, logger *slog.Logger) *Watermark {
	return &Watermark{rdb: rdb, logger: logger, now: time.Now}
}

// MarkCycle records the current time as the last completed payment cycle.
func (w *Watermark) MarkCycle(ctx context.Context) {
	ts := strconv.FormatInt(w.now().Unix(), 10)
	if err := w.rdb.Set(ctx, lastCycleKey, ts, 0).Err(); err != nil {
		w.logger.Error("failed to record payment cycle watermark", "error", err)
	}
}

// LastCycle returns the unix timestamp of the last completed cycle, or zero
// when no cycle has completed yet.
func (w *Watermark) LastCycle(ctx context.Context) (int64, error) {
	val, err := w.rdb.Get(ctx, lastCycleKey).Result()
	if errors.Is(err, redis.Nil) {
		return 0, nil
	}
	if err != nil {
		return 0, err
	}
	return strconv.ParseInt(val, 10, 64)
}
