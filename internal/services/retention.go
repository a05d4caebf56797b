package services

import (
	"context"
	"log/slog"
	"time"

	"github.com/inkpress/backoffice/internal/logging"
)

// RetentionSweeper periodically purges audit log entries older than the
// configured retention window. The purge goes through the facade, so
// it is audited like any other delete and the 7-day guardrail applies.
type RetentionSweeper struct {
	logger   *logging.Logger
	days     int
	interval time.Duration
	stop     chan struct{}
}

func NewRetentionSweeper(logger *logging.Logger, days int, interval time.Duration) *RetentionSweeper {
	if interval <= 0 {
		interval = 24 * time.Hour
	}
	return &RetentionSweeper{
		logger:   logger,
		days:     days,
		interval: interval,
		stop:     make(chan struct{}),
	}
}

func (rs *RetentionSweeper) Start() {
	go rs.loop()
	slog.Info("Retention sweeper started", "days", rs.days, "interval", rs.interval)
}

func (rs *RetentionSweeper) Stop() {
	rs.stop <- struct{}{}
	slog.Info("Retention sweeper stopped")
}

func (rs *RetentionSweeper) loop() {
	ticker := time.NewTicker(rs.interval)
	defer ticker.Stop()

	// Run an initial sweep on startup
	rs.sweep()

	for {
		select {
		case <-ticker.C:
			rs.sweep()
		case <-rs.stop:
			return
		}
	}
}

func (rs *RetentionSweeper) sweep() {
	ctx, cancel := context.WithTimeout(context.Background(), time.Minute)
	defer cancel()

	deleted, err := rs.logger.DeleteLogs(ctx, rs.days, nil, nil)
	if err != nil {
		slog.Error("Retention sweep failed", "days", rs.days, "error", err)
		return
	}
	if deleted > 0 {
		slog.Info("Retention sweep completed", "deleted", deleted, "days", rs.days)
	}
}
