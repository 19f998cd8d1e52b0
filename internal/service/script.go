package service

import (
	"context"
	"errors"
	"fmt"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/ifuryst/scriptforge/internal/metrics"
	"github.com/ifuryst/scriptforge/internal/models"
	"github.com/ifuryst/scriptforge/internal/script"
)

// ScriptFetcher loads a generated script and returns it normalised. There is
// no fallback tier: a done job whose script is missing is reported as is.
type ScriptFetcher struct {
	scripts ScriptRepository
	logger  *zap.Logger
}

func NewScriptFetcher(scripts ScriptRepository, logger *zap.Logger) *ScriptFetcher {
	return &ScriptFetcher{scripts: scripts, logger: logger}
}

func (f *ScriptFetcher) Fetch(ctx context.Context, scriptID string) (*script.Script, error) {
	if _, err := uuid.Parse(scriptID); err != nil {
		metrics.ScriptFetches.WithLabelValues("not_found").Inc()
		return nil, models.ErrNotFound
	}

	row, err := f.scripts.Get(ctx, scriptID)
	if errors.Is(err, models.ErrNotFound) {
		metrics.ScriptFetches.WithLabelValues("not_found").Inc()
		f.logger.Warn("Script not found", zap.String("script_id", scriptID))
		return nil, err
	}
	if err != nil {
		metrics.ScriptFetches.WithLabelValues("error").Inc()
		f.logger.Error("Failed to fetch script", zap.String("script_id", scriptID), zap.Error(err))
		return nil, fmt.Errorf("fetch script: %w", err)
	}

	metrics.ScriptFetches.WithLabelValues("ok").Inc()
	s := script.FromModel(row)
	return &s, nil
}
