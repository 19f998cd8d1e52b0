package service

import (
	"context"
	"errors"
	"testing"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/ifuryst/scriptforge/internal/models"
)

type stubReader struct {
	status *models.JobStatus
	err    error
	calls  int
}

func (s *stubReader) Status(ctx context.Context, jobID string) (*models.JobStatus, error) {
	s.calls++
	return s.status, s.err
}

func TestFallbackNotUsedOnNotFound(t *testing.T) {
	primary := &stubReader{err: models.ErrNotFound}
	fallback := &stubReader{status: &models.JobStatus{Status: models.StatusDone}}
	r := NewFallbackStatusReader(primary, fallback, zap.NewNop())

	_, err := r.Status(context.Background(), "job")
	require.ErrorIs(t, err, models.ErrNotFound)
	require.Equal(t, 1, primary.calls)
	require.Zero(t, fallback.calls)
}

func TestFallbackUsedOnPrimaryFailure(t *testing.T) {
	want := &models.JobStatus{JobID: "job", Status: models.StatusProcessing}
	primary := &stubReader{err: errors.New("proxy unreachable")}
	fallback := &stubReader{status: want}
	r := NewFallbackStatusReader(primary, fallback, zap.NewNop())

	got, err := r.Status(context.Background(), "job")
	require.NoError(t, err)
	require.Equal(t, want, got)
	require.Equal(t, 1, fallback.calls)
}

func TestFallbackNotFoundPassesThrough(t *testing.T) {
	primary := &stubReader{err: errors.New("proxy unreachable")}
	fallback := &stubReader{err: models.ErrNotFound}
	r := NewFallbackStatusReader(primary, fallback, zap.NewNop())

	_, err := r.Status(context.Background(), "job")
	require.ErrorIs(t, err, models.ErrNotFound)
	require.NotErrorIs(t, err, models.ErrUpstreamUnavailable)
}

func TestFallbackFailureIsUpstreamUnavailable(t *testing.T) {
	primary := &stubReader{err: errors.New("proxy unreachable")}
	fallback := &stubReader{err: errors.New("connection reset")}
	r := NewFallbackStatusReader(primary, fallback, zap.NewNop())

	_, err := r.Status(context.Background(), "job")
	require.ErrorIs(t, err, models.ErrUpstreamUnavailable)
	require.ErrorContains(t, err, "connection reset")
}

func TestPrimaryFailureWithoutFallback(t *testing.T) {
	primary := &stubReader{err: errors.New("proxy unreachable")}
	r := NewFallbackStatusReader(primary, nil, zap.NewNop())

	_, err := r.Status(context.Background(), "job")
	require.ErrorIs(t, err, models.ErrUpstreamUnavailable)
}

func TestResolverRejectsMalformedIDs(t *testing.T) {
	reader := &stubReader{status: &models.JobStatus{}}
	r := NewStatusResolver(reader)

	_, err := r.Resolve(context.Background(), "not-a-uuid")
	require.ErrorIs(t, err, models.ErrNotFound)
	require.Zero(t, reader.calls)
}

func TestElevatedReaderProjectsRow(t *testing.T) {
	repo := newMemorySubmissions()
	scriptID := uuid.NewString()
	id := uuid.NewString()
	repo.put(models.Submission{ID: id, Status: models.StatusDone, ScriptID: &scriptID})
	strange := uuid.NewString()
	repo.put(models.Submission{ID: strange, Status: "generating"})

	r := NewStatusResolver(NewElevatedStatusReader(repo))

	got, err := r.Resolve(context.Background(), id)
	require.NoError(t, err)
	require.Equal(t, id, got.JobID)
	require.True(t, got.Ready())
	require.Equal(t, scriptID, *got.ScriptID)

	got, err = r.Resolve(context.Background(), strange)
	require.NoError(t, err)
	require.Equal(t, models.StatusProcessing, got.Status)

	_, err = r.Resolve(context.Background(), uuid.NewString())
	require.ErrorIs(t, err, models.ErrNotFound)
}

func TestResolverIsIdempotent(t *testing.T) {
	repo := newMemorySubmissions()
	id := uuid.NewString()
	repo.put(models.Submission{ID: id, Status: models.StatusProcessing})
	r := NewStatusResolver(NewFallbackStatusReader(NewElevatedStatusReader(repo), nil, zap.NewNop()))

	first, err := r.Resolve(context.Background(), id)
	require.NoError(t, err)
	for i := 0; i < 5; i++ {
		again, err := r.Resolve(context.Background(), id)
		require.NoError(t, err)
		require.Equal(t, first, again)
	}
}

type fakeRow struct {
	values []any
	err    error
}

func (r fakeRow) Scan(dest ...any) error {
	if r.err != nil {
		return r.err
	}
	for i, d := range dest {
		switch p := d.(type) {
		case *string:
			*p = r.values[i].(string)
		case **string:
			if v, ok := r.values[i].(string); ok {
				*p = &v
			}
		}
	}
	return nil
}

type fakeQuerier struct {
	row   fakeRow
	query string
	args  []any
}

func (q *fakeQuerier) QueryRow(ctx context.Context, sql string, args ...any) pgx.Row {
	q.query = sql
	q.args = args
	return q.row
}

func TestRestrictedReader(t *testing.T) {
	t.Run("found", func(t *testing.T) {
		q := &fakeQuerier{row: fakeRow{values: []any{"job-1", "done", "script-1"}}}
		got, err := NewRestrictedStatusReader(q).Status(context.Background(), "job-1")
		require.NoError(t, err)
		require.Equal(t, models.StatusDone, got.Status)
		require.Equal(t, "script-1", *got.ScriptID)
		require.Equal(t, []any{"job-1"}, q.args)
		require.Contains(t, q.query, "FROM submissions")
	})

	t.Run("pending without script", func(t *testing.T) {
		q := &fakeQuerier{row: fakeRow{values: []any{"job-1", "queued", nil}}}
		got, err := NewRestrictedStatusReader(q).Status(context.Background(), "job-1")
		require.NoError(t, err)
		require.Equal(t, models.StatusQueued, got.Status)
		require.Nil(t, got.ScriptID)
	})

	t.Run("no rows", func(t *testing.T) {
		q := &fakeQuerier{row: fakeRow{err: pgx.ErrNoRows}}
		_, err := NewRestrictedStatusReader(q).Status(context.Background(), "job-1")
		require.ErrorIs(t, err, models.ErrNotFound)
	})

	t.Run("query error", func(t *testing.T) {
		q := &fakeQuerier{row: fakeRow{err: errors.New("permission denied")}}
		_, err := NewRestrictedStatusReader(q).Status(context.Background(), "job-1")
		require.Error(t, err)
		require.NotErrorIs(t, err, models.ErrNotFound)
	})
}
