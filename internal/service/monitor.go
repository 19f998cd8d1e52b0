package service

import (
	"context"
	"sync"
	"time"

	"go.uber.org/zap"

	"github.com/ifuryst/scriptforge/internal/config"
	"github.com/ifuryst/scriptforge/internal/metrics"
)

// StaleMonitor periodically counts submissions that never reached a terminal
// state. It only reports them; rows are left untouched.
type StaleMonitor struct {
	config      *config.MonitorConfig
	logger      *zap.Logger
	submissions SubmissionRepository
	ticker      *time.Ticker
	stopCh      chan struct{}
	stopOnce    sync.Once
	now         func() time.Time
}

func NewStaleMonitor(cfg *config.MonitorConfig, logger *zap.Logger, submissions SubmissionRepository) *StaleMonitor {
	return &StaleMonitor{
		config:      cfg,
		logger:      logger,
		submissions: submissions,
		stopCh:      make(chan struct{}),
		now:         time.Now,
	}
}

// Run blocks until ctx is cancelled or Stop is called.
func (m *StaleMonitor) Run(ctx context.Context) error {
	if !m.config.Enabled {
		m.logger.Info("Stale monitor is disabled")
		return nil
	}

	m.logger.Info("Starting stale monitor",
		zap.Duration("interval", m.config.Interval),
		zap.Duration("stale_after", m.config.StaleAfter))

	m.ticker = time.NewTicker(m.config.Interval)
	defer m.ticker.Stop()

	m.sweep(ctx)

	for {
		select {
		case <-m.ticker.C:
			m.sweep(ctx)
		case <-m.stopCh:
			m.logger.Info("Stale monitor stopped")
			return nil
		case <-ctx.Done():
			m.logger.Info("Stale monitor context cancelled")
			return nil
		}
	}
}

func (m *StaleMonitor) Stop() {
	m.stopOnce.Do(func() {
		close(m.stopCh)
	})
}

// sweep returns the stale count, or -1 when the count failed.
func (m *StaleMonitor) sweep(ctx context.Context) int64 {
	start := time.Now()
	cutoff := m.now().Add(-m.config.StaleAfter)

	count, err := m.submissions.CountStale(ctx, cutoff)
	duration := time.Since(start)
	if err != nil {
		m.logger.Error("Stale sweep failed",
			zap.Error(err),
			zap.Duration("duration", duration))
		return -1
	}

	metrics.StaleSubmissions.Set(float64(count))
	if count > 0 {
		m.logger.Warn("Submissions stuck in a non-terminal state",
			zap.Int64("count", count),
			zap.Time("created_before", cutoff))
	} else {
		m.logger.Debug("Stale sweep completed", zap.Duration("duration", duration))
	}
	return count
}
