package share

import (
	"context"
	"time"

	"github.com/robfig/cron/v3"
	"go.uber.org/zap"
)

const DefaultFlushSpec = "@every 1m"

// Flusher periodically folds buffered view counts into the share store.
type Flusher struct {
	counter ViewCounter
	store   Store
	logger  *zap.Logger
	cron    *cron.Cron
}

func NewFlusher(counter ViewCounter, store Store, logger *zap.Logger) *Flusher {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Flusher{counter: counter, store: store, logger: logger}
}

// Start schedules Flush on a robfig/cron schedule, DefaultFlushSpec if empty.
func (f *Flusher) Start(schedule string) error {
	if schedule == "" {
		schedule = DefaultFlushSpec
	}
	f.cron = cron.New()
	if _, err := f.cron.AddFunc(schedule, func() {
		ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
		defer cancel()
		f.Flush(ctx)
	}); err != nil {
		return err
	}
	f.cron.Start()
	return nil
}

// Stop waits for a running flush and then runs a final one.
func (f *Flusher) Stop(ctx context.Context) {
	if f.cron != nil {
		<-f.cron.Stop().Done()
	}
	f.Flush(ctx)
}

// Flush drains the counter into the store and returns the number of views written.
// Views the store rejects go back to the counter for the next run.
func (f *Flusher) Flush(ctx context.Context) int64 {
	counts, err := f.counter.Drain(ctx)
	if err != nil {
		f.logger.Warn("draining view counters", zap.Error(err))
	}
	var total int64
	for id, n := range counts {
		if err := f.store.AddViews(ctx, id, n); err != nil {
			f.logger.Warn("flushing share views", zap.String("share_id", id), zap.Int64("views", n), zap.Error(err))
			if rerr := f.counter.Restore(ctx, id, n); rerr != nil {
				f.logger.Error("share views lost", zap.String("share_id", id), zap.Int64("views", n), zap.Error(rerr))
			}
			continue
		}
		total += n
	}
	if total > 0 {
		f.logger.Debug("flushed share views", zap.Int64("views", total), zap.Int("shares", len(counts)))
	}
	return total
}
