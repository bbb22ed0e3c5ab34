package telemetry

import (
	"context"
	"log/slog"
	"time"

	"github.com/contra-app/fetchcache/config"
	"github.com/contra-app/fetchcache/internal/shared/bytes"
)

type Logger interface {
	Interval() time.Duration
	Close() error
}

// Logs periodically samples the memoizer counters and logs per-interval
// deltas, plus a storage line when the backend can report its footprint.
type Logs struct {
	ctx      context.Context
	cancel   context.CancelFunc
	cfg      *config.Cache
	logger   *slog.Logger
	memo     MemoMetrics
	usage    StorageUsage
	memLen   func() int
	interval time.Duration
}

func New(
	ctx context.Context,
	cfg *config.Cache,
	logger *slog.Logger,
	memo MemoMetrics,
	usage StorageUsage,
	memLen func() int,
) *Logs {
	ctx, cancel := context.WithCancel(ctx)
	interval := time.Duration(0)
	if cfg.Telemetry.Enabled() {
		interval = cfg.Telemetry.LogsInterval
	}
	return (&Logs{
		ctx:      ctx,
		cancel:   cancel,
		cfg:      cfg,
		logger:   logger,
		memo:     memo,
		usage:    usage,
		memLen:   memLen,
		interval: interval,
	}).run()
}

func (l *Logs) Interval() time.Duration {
	return l.interval
}

func (l *Logs) Close() error {
	l.cancel()
	return nil
}

func (l *Logs) run() *Logs {
	if l.cfg.Telemetry.Enabled() && l.cfg.Telemetry.LogsEnabled {
		go l.loop()
	}
	return l
}

func (l *Logs) loop() {
	ticker := time.NewTicker(l.interval)
	defer ticker.Stop()

	s := newSampler(l.memo)
	prev := s.snapshot()

	for {
		select {
		case <-l.ctx.Done():
			return

		case <-ticker.C:
			cur := s.snapshot()
			d := deltaSnapshot(prev, cur)
			prev = cur

			common := []any{"interval", l.interval.String()}

			l.logger.Info("memoizer",
				append(common,
					"hits", int64(d.hits),
					"misses", int64(d.misses),
					"bypasses", int64(d.bypasses),
					"degraded_keys", int64(d.degradedKeys),
					"write_errors", int64(d.writeErrors),
				)...,
			)

			if l.usage != nil {
				size, entries := l.usage.Usage()
				l.logger.Info("storage",
					append(common,
						"size", bytes.FmtMem(uint64(max(size, 0))),
						"entries", entries,
						"memory_entries", l.memLen(),
					)...,
				)
			}
		}
	}
}
