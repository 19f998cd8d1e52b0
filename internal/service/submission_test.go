package service

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/ifuryst/scriptforge/internal/config"
	"github.com/ifuryst/scriptforge/internal/models"
	"github.com/ifuryst/scriptforge/internal/workflow"
)

func strPtr(s string) *string { return &s }

func validRequest() SubmitRequest {
	return SubmitRequest{
		SourceURL:    strPtr("https://example.com/post"),
		SourceType:   strPtr("auto"),
		Requirements: strPtr("keep it short"),
		ClientToken:  "client-a",
	}
}

type recorder struct {
	mu   sync.Mutex
	reqs []workflow.Request
	errs []error
}

func (r *recorder) hook(req workflow.Request, err error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.reqs = append(r.reqs, req)
	r.errs = append(r.errs, err)
}

func (r *recorder) snapshot() ([]workflow.Request, []error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	return append([]workflow.Request(nil), r.reqs...), append([]error(nil), r.errs...)
}

func newTestGateway(t *testing.T, repo SubmissionRepository, trigger workflow.Trigger) (*Gateway, *workflow.Dispatcher, *recorder) {
	t.Helper()
	rec := &recorder{}
	d := workflow.NewDispatcher(trigger, time.Second, zap.NewNop(), workflow.WithCompletionHook(rec.hook))
	g := NewGateway(repo, d, config.RateLimitConfig{MaxSubmissions: 10, Window: time.Hour}, 90, zap.NewNop())
	return g, d, rec
}

func TestGatewayRejectsMissingFields(t *testing.T) {
	tests := []struct {
		name   string
		mutate func(*SubmitRequest)
		fields []string
	}{
		{
			name:   "empty source url",
			mutate: func(r *SubmitRequest) { r.SourceURL = strPtr("") },
			fields: []string{"source_url"},
		},
		{
			name:   "absent source type",
			mutate: func(r *SubmitRequest) { r.SourceType = nil },
			fields: []string{"source_type"},
		},
		{
			name:   "absent requirements",
			mutate: func(r *SubmitRequest) { r.Requirements = nil },
			fields: []string{"requirements"},
		},
		{
			name: "several missing",
			mutate: func(r *SubmitRequest) {
				r.SourceURL = nil
				r.Requirements = nil
			},
			fields: []string{"source_url", "requirements"},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			repo := newMemorySubmissions()
			var triggered int
			g, d, _ := newTestGateway(t, repo, funcTrigger(func(ctx context.Context, req workflow.Request) error {
				triggered++
				return nil
			}))

			req := validRequest()
			tt.mutate(&req)

			resp, err := g.Submit(context.Background(), req)
			require.Nil(t, resp)
			require.ErrorIs(t, err, models.ErrValidation)

			var verr *models.ValidationError
			require.True(t, errors.As(err, &verr))
			require.Equal(t, tt.fields, verr.Fields)

			require.NoError(t, d.Wait(context.Background()))
			require.Zero(t, repo.len())
			require.Zero(t, triggered)
		})
	}
}

func TestGatewayAcceptsEmptyRequirements(t *testing.T) {
	repo := newMemorySubmissions()
	g, d, _ := newTestGateway(t, repo, funcTrigger(func(ctx context.Context, req workflow.Request) error {
		return nil
	}))

	req := validRequest()
	req.Requirements = strPtr("")

	resp, err := g.Submit(context.Background(), req)
	require.NoError(t, err)
	require.NotEmpty(t, resp.JobID)
	require.NoError(t, d.Wait(context.Background()))
}

func TestGatewayCreatesRowBeforeTrigger(t *testing.T) {
	repo := newMemorySubmissions()
	g, d, rec := newTestGateway(t, repo, funcTrigger(func(ctx context.Context, req workflow.Request) error {
		_, err := repo.Get(ctx, req.SubmissionID)
		return err
	}))

	resp, err := g.Submit(context.Background(), validRequest())
	require.NoError(t, err)
	require.Equal(t, models.StatusProcessing, resp.Status)
	require.Equal(t, 90, resp.ETASeconds)

	require.NoError(t, d.Wait(context.Background()))
	reqs, errs := rec.snapshot()
	require.Len(t, reqs, 1)
	require.NoError(t, errs[0])
	require.Equal(t, resp.JobID, reqs[0].SubmissionID)
	require.Equal(t, "https://example.com/post", reqs[0].SourceURL)
	require.Equal(t, "keep it short", reqs[0].Requirements)

	row, err := repo.Get(context.Background(), resp.JobID)
	require.NoError(t, err)
	require.Nil(t, row.ScriptID)
	require.False(t, row.Status.Terminal())
}

func TestGatewaySwallowsTriggerFailure(t *testing.T) {
	repo := newMemorySubmissions()
	g, d, rec := newTestGateway(t, repo, funcTrigger(func(ctx context.Context, req workflow.Request) error {
		return errors.New("connection refused")
	}))

	resp, err := g.Submit(context.Background(), validRequest())
	require.NoError(t, err)
	require.NotEmpty(t, resp.JobID)

	require.NoError(t, d.Wait(context.Background()))
	_, errs := rec.snapshot()
	require.Len(t, errs, 1)
	require.Error(t, errs[0])
	require.Equal(t, 1, repo.len())
}

func TestGatewayAppliesEnumDefaults(t *testing.T) {
	repo := newMemorySubmissions()
	g, d, _ := newTestGateway(t, repo, funcTrigger(func(ctx context.Context, req workflow.Request) error {
		return nil
	}))

	resp, err := g.Submit(context.Background(), validRequest())
	require.NoError(t, err)
	require.NoError(t, d.Wait(context.Background()))

	row, err := repo.Get(context.Background(), resp.JobID)
	require.NoError(t, err)
	require.Equal(t, models.SourceAuto, row.SourceType)
	require.Equal(t, models.OutputLong, row.OutputType)
	require.Equal(t, models.ToneNeutral, row.Tone)
}

func TestGatewayRejectsUnknownEnums(t *testing.T) {
	tests := []struct {
		name   string
		mutate func(*SubmitRequest)
		field  string
	}{
		{"source type", func(r *SubmitRequest) { r.SourceType = strPtr("podcast") }, "source_type"},
		{"output type", func(r *SubmitRequest) { r.OutputType = "medium" }, "output_type"},
		{"tone", func(r *SubmitRequest) { r.Tone = "grumpy" }, "tone"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			repo := newMemorySubmissions()
			g, _, _ := newTestGateway(t, repo, funcTrigger(func(ctx context.Context, req workflow.Request) error {
				return nil
			}))

			req := validRequest()
			tt.mutate(&req)

			_, err := g.Submit(context.Background(), req)
			require.ErrorIs(t, err, models.ErrValidation)
			require.ErrorContains(t, err, tt.field)
			require.Zero(t, repo.len())
		})
	}
}

func TestGatewayWorkflowNotConfigured(t *testing.T) {
	repo := newMemorySubmissions()
	d := workflow.NewDispatcher(nil, time.Second, zap.NewNop())
	g := NewGateway(repo, d, config.RateLimitConfig{MaxSubmissions: 10, Window: time.Hour}, 90, zap.NewNop())

	_, err := g.Submit(context.Background(), validRequest())
	require.ErrorIs(t, err, models.ErrWorkflowNotConfigured)
	require.Zero(t, repo.len())
}

func TestGatewayRateLimit(t *testing.T) {
	repo := newMemorySubmissions()
	g, d, _ := newTestGateway(t, repo, funcTrigger(func(ctx context.Context, req workflow.Request) error {
		return nil
	}))

	now := time.Date(2025, 3, 1, 12, 0, 0, 0, time.UTC)
	g.now = func() time.Time { return now }

	// One old row outside the window does not count.
	repo.put(models.Submission{ID: "old", ClientToken: "client-a", Status: models.StatusDone, CreatedAt: now.Add(-2 * time.Hour)})
	for i := 0; i < 10; i++ {
		repo.put(models.Submission{
			ID:          "recent-" + string(rune('a'+i)),
			ClientToken: "client-a",
			Status:      models.StatusProcessing,
			CreatedAt:   now.Add(-time.Duration(i) * time.Minute),
		})
	}

	_, err := g.Submit(context.Background(), validRequest())
	require.ErrorIs(t, err, models.ErrRateLimited)
	require.Equal(t, 11, repo.len())

	other := validRequest()
	other.ClientToken = "client-b"
	_, err = g.Submit(context.Background(), other)
	require.NoError(t, err)
	require.NoError(t, d.Wait(context.Background()))
}

func TestGatewayRateLimitFallsBackToClientIP(t *testing.T) {
	repo := newMemorySubmissions()
	g, d, _ := newTestGateway(t, repo, funcTrigger(func(ctx context.Context, req workflow.Request) error {
		return nil
	}))
	g.rateLimit.MaxSubmissions = 1

	req := validRequest()
	req.ClientToken = ""
	req.ClientIP = "10.0.0.7"

	_, err := g.Submit(context.Background(), req)
	require.NoError(t, err)
	_, err = g.Submit(context.Background(), req)
	require.ErrorIs(t, err, models.ErrRateLimited)
	require.NoError(t, d.Wait(context.Background()))
}

func TestGatewayStoreFailure(t *testing.T) {
	repo := newMemorySubmissions()
	repo.createErr = errors.New("db down")
	var triggered bool
	g, d, _ := newTestGateway(t, repo, funcTrigger(func(ctx context.Context, req workflow.Request) error {
		triggered = true
		return nil
	}))

	_, err := g.Submit(context.Background(), validRequest())
	require.ErrorContains(t, err, "db down")
	require.NoError(t, d.Wait(context.Background()))
	require.False(t, triggered)
}
