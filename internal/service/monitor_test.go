package service

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/ifuryst/scriptforge/internal/config"
	"github.com/ifuryst/scriptforge/internal/models"
)

func TestStaleMonitorSweep(t *testing.T) {
	now := time.Date(2025, 3, 1, 12, 0, 0, 0, time.UTC)
	repo := newMemorySubmissions()
	repo.put(models.Submission{ID: "stuck", Status: models.StatusProcessing, CreatedAt: now.Add(-2 * time.Hour)})
	repo.put(models.Submission{ID: "queued", Status: models.StatusQueued, CreatedAt: now.Add(-45 * time.Minute)})
	repo.put(models.Submission{ID: "fresh", Status: models.StatusProcessing, CreatedAt: now.Add(-time.Minute)})
	repo.put(models.Submission{ID: "done", Status: models.StatusDone, CreatedAt: now.Add(-3 * time.Hour)})

	m := NewStaleMonitor(&config.MonitorConfig{Enabled: true, Interval: time.Minute, StaleAfter: 30 * time.Minute}, zap.NewNop(), repo)
	m.now = func() time.Time { return now }

	require.EqualValues(t, 2, m.sweep(context.Background()))

	// Rows are reported, never rewritten.
	row, err := repo.Get(context.Background(), "stuck")
	require.NoError(t, err)
	require.Equal(t, models.StatusProcessing, row.Status)
}

func TestStaleMonitorDisabled(t *testing.T) {
	m := NewStaleMonitor(&config.MonitorConfig{}, zap.NewNop(), newMemorySubmissions())
	require.NoError(t, m.Run(context.Background()))
}

func TestStaleMonitorStops(t *testing.T) {
	m := NewStaleMonitor(&config.MonitorConfig{Enabled: true, Interval: time.Hour, StaleAfter: time.Hour}, zap.NewNop(), newMemorySubmissions())

	done := make(chan error, 1)
	go func() { done <- m.Run(context.Background()) }()

	m.Stop()
	m.Stop()

	select {
	case err := <-done:
		require.NoError(t, err)
	case <-time.After(2 * time.Second):
		t.Fatal("monitor did not stop")
	}
}
