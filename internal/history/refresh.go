package history

import (
	"context"
	"errors"

	"github.com/ifuryst/scriptforge/internal/models"
)

type StatusChecker interface {
	Status(ctx context.Context, jobID string) (*models.JobStatus, error)
}

type RefreshResult struct {
	Checked int
	Updated int
	Failed  int
}

// Refresh checks every non-terminal entry once. An entry whose check fails
// is marked failed locally; the server side job is not touched.
func (s *Store) Refresh(ctx context.Context, checker StatusChecker) (RefreshResult, error) {
	var result RefreshResult

	entries, err := s.List(ctx)
	if err != nil {
		return result, err
	}

	for _, e := range entries {
		if e.Status.Terminal() {
			continue
		}
		result.Checked++

		status, err := checker.Status(ctx, e.JobID)
		if err != nil {
			if errors.Is(err, context.Canceled) || errors.Is(err, context.DeadlineExceeded) {
				return result, err
			}
			if err := s.Update(ctx, e.JobID, models.StatusFailed, nil); err != nil {
				return result, err
			}
			result.Failed++
			continue
		}

		if status.Status == e.Status && status.ScriptID == nil {
			continue
		}
		if err := s.Update(ctx, e.JobID, status.Status, status.ScriptID); err != nil {
			return result, err
		}
		result.Updated++
	}
	return result, nil
}
