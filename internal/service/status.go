package service

import (
	"context"
	"errors"
	"fmt"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"go.uber.org/zap"

	"github.com/ifuryst/scriptforge/internal/metrics"
	"github.com/ifuryst/scriptforge/internal/models"
)

// StatusReader is a read projection over the submission row. Both access
// tiers implement it so they can be composed with FallbackStatusReader.
type StatusReader interface {
	Status(ctx context.Context, jobID string) (*models.JobStatus, error)
}

// ElevatedStatusReader reads through the service-role connection.
type ElevatedStatusReader struct {
	submissions SubmissionRepository
}

func NewElevatedStatusReader(submissions SubmissionRepository) *ElevatedStatusReader {
	return &ElevatedStatusReader{submissions: submissions}
}

func (r *ElevatedStatusReader) Status(ctx context.Context, jobID string) (*models.JobStatus, error) {
	sub, err := r.submissions.Get(ctx, jobID)
	if err != nil {
		metrics.StatusReads.WithLabelValues("elevated", outcomeOf(err)).Inc()
		return nil, err
	}
	metrics.StatusReads.WithLabelValues("elevated", "ok").Inc()
	return projectStatus(sub.ID, string(sub.Status), sub.ScriptID), nil
}

// RowQuerier is the subset of pgxpool.Pool the restricted reader needs.
type RowQuerier interface {
	QueryRow(ctx context.Context, sql string, args ...any) pgx.Row
}

// RestrictedStatusReader queries the row directly with read-only credentials.
type RestrictedStatusReader struct {
	db RowQuerier
}

func NewRestrictedStatusReader(db RowQuerier) *RestrictedStatusReader {
	return &RestrictedStatusReader{db: db}
}

const restrictedStatusQuery = `SELECT id::text, status, script_id::text FROM submissions WHERE id = $1`

func (r *RestrictedStatusReader) Status(ctx context.Context, jobID string) (*models.JobStatus, error) {
	var (
		id       string
		status   string
		scriptID *string
	)
	err := r.db.QueryRow(ctx, restrictedStatusQuery, jobID).Scan(&id, &status, &scriptID)
	if errors.Is(err, pgx.ErrNoRows) {
		metrics.StatusReads.WithLabelValues("restricted", "not_found").Inc()
		return nil, models.ErrNotFound
	}
	if err != nil {
		metrics.StatusReads.WithLabelValues("restricted", "error").Inc()
		return nil, err
	}
	metrics.StatusReads.WithLabelValues("restricted", "ok").Inc()
	return projectStatus(id, status, scriptID), nil
}

// FallbackStatusReader tries the primary tier and, only when it fails for a
// reason other than a clean not-found, the fallback tier.
type FallbackStatusReader struct {
	primary  StatusReader
	fallback StatusReader
	logger   *zap.Logger
}

// NewFallbackStatusReader accepts a nil fallback.
func NewFallbackStatusReader(primary, fallback StatusReader, logger *zap.Logger) *FallbackStatusReader {
	return &FallbackStatusReader{
		primary:  primary,
		fallback: fallback,
		logger:   logger,
	}
}

func (r *FallbackStatusReader) Status(ctx context.Context, jobID string) (*models.JobStatus, error) {
	status, err := r.primary.Status(ctx, jobID)
	if err == nil || errors.Is(err, models.ErrNotFound) {
		return status, err
	}

	if r.fallback == nil {
		r.logger.Error("Status lookup failed", zap.String("job_id", jobID), zap.Error(err))
		return nil, fmt.Errorf("%w: %v", models.ErrUpstreamUnavailable, err)
	}

	r.logger.Warn("Primary status lookup failed, using fallback",
		zap.String("job_id", jobID),
		zap.Error(err))

	status, fbErr := r.fallback.Status(ctx, jobID)
	if fbErr == nil || errors.Is(fbErr, models.ErrNotFound) {
		return status, fbErr
	}

	r.logger.Error("Fallback status lookup failed",
		zap.String("job_id", jobID),
		zap.NamedError("primary_error", err),
		zap.Error(fbErr))
	return nil, fmt.Errorf("%w: %v", models.ErrUpstreamUnavailable, fbErr)
}

// StatusResolver is the entry point used by handlers. Identifiers that can
// never name a row resolve to not-found without touching the store.
type StatusResolver struct {
	reader StatusReader
}

func NewStatusResolver(reader StatusReader) *StatusResolver {
	return &StatusResolver{reader: reader}
}

func (r *StatusResolver) Resolve(ctx context.Context, jobID string) (*models.JobStatus, error) {
	if _, err := uuid.Parse(jobID); err != nil {
		return nil, models.ErrNotFound
	}
	return r.reader.Status(ctx, jobID)
}

// projectStatus reports unrecognised stored values as processing so callers
// only ever see the four lifecycle states.
func projectStatus(id, status string, scriptID *string) *models.JobStatus {
	s := models.SubmissionStatus(status)
	if !s.Valid() {
		s = models.StatusProcessing
	}
	if scriptID != nil && *scriptID == "" {
		scriptID = nil
	}
	return &models.JobStatus{
		JobID:    id,
		Status:   s,
		ScriptID: scriptID,
	}
}

func outcomeOf(err error) string {
	if errors.Is(err, models.ErrNotFound) {
		return "not_found"
	}
	return "error"
}
