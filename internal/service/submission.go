package service

import (
	"context"
	"fmt"
	"strings"
	"time"

	"go.uber.org/zap"

	"github.com/ifuryst/scriptforge/internal/config"
	"github.com/ifuryst/scriptforge/internal/metrics"
	"github.com/ifuryst/scriptforge/internal/models"
	"github.com/ifuryst/scriptforge/internal/workflow"
)

// SubmitRequest is the client payload. Pointer fields distinguish an absent
// key from an empty value: requirements may be "" but must be present.
type SubmitRequest struct {
	SourceURL    *string `json:"source_url"`
	SourceType   *string `json:"source_type"`
	Category     string  `json:"category"`
	Requirements *string `json:"requirements"`
	OutputType   string  `json:"output_type"`
	Tone         string  `json:"tone"`
	ClientToken  string  `json:"client_token"`

	// ClientIP keys the rate limit when no client token is sent.
	ClientIP string `json:"-"`
}

type SubmitResponse struct {
	JobID      string                  `json:"job_id"`
	Status     models.SubmissionStatus `json:"status"`
	ETASeconds int                     `json:"eta_seconds"`
}

type WorkflowDispatcher interface {
	Configured() bool
	Dispatch(req workflow.Request)
}

// Gateway accepts submissions: it writes the durable row and only then hands
// the job to the generation workflow without waiting for it.
type Gateway struct {
	submissions SubmissionRepository
	dispatcher  WorkflowDispatcher
	rateLimit   config.RateLimitConfig
	etaSeconds  int
	logger      *zap.Logger
	now         func() time.Time
}

func NewGateway(submissions SubmissionRepository, dispatcher WorkflowDispatcher, rateLimit config.RateLimitConfig, etaSeconds int, logger *zap.Logger) *Gateway {
	return &Gateway{
		submissions: submissions,
		dispatcher:  dispatcher,
		rateLimit:   rateLimit,
		etaSeconds:  etaSeconds,
		logger:      logger,
		now:         time.Now,
	}
}

func (g *Gateway) Submit(ctx context.Context, req SubmitRequest) (*SubmitResponse, error) {
	sub, err := buildSubmission(req)
	if err != nil {
		metrics.Submissions.WithLabelValues("invalid").Inc()
		return nil, err
	}

	if g.dispatcher == nil || !g.dispatcher.Configured() {
		metrics.Submissions.WithLabelValues("error").Inc()
		return nil, models.ErrWorkflowNotConfigured
	}

	if err := g.checkRateLimit(ctx, sub.ClientToken); err != nil {
		return nil, err
	}

	if err := g.submissions.Create(ctx, sub); err != nil {
		metrics.Submissions.WithLabelValues("error").Inc()
		g.logger.Error("Failed to create submission", zap.Error(err))
		return nil, fmt.Errorf("create submission: %w", err)
	}

	// The row is committed at this point, so a workflow callback that races
	// ahead of our response always finds it.
	g.dispatcher.Dispatch(workflow.RequestFromSubmission(sub))

	metrics.Submissions.WithLabelValues("accepted").Inc()
	g.logger.Info("Submission accepted",
		zap.String("job_id", sub.ID),
		zap.String("source_type", string(sub.SourceType)),
		zap.String("output_type", string(sub.OutputType)))

	return &SubmitResponse{
		JobID:      sub.ID,
		Status:     sub.Status,
		ETASeconds: g.etaSeconds,
	}, nil
}

func (g *Gateway) checkRateLimit(ctx context.Context, clientToken string) error {
	if g.rateLimit.MaxSubmissions <= 0 {
		return nil
	}

	since := g.now().Add(-g.rateLimit.Window)
	count, err := g.submissions.CountSince(ctx, clientToken, since)
	if err != nil {
		metrics.Submissions.WithLabelValues("error").Inc()
		return fmt.Errorf("count recent submissions: %w", err)
	}
	if count >= int64(g.rateLimit.MaxSubmissions) {
		metrics.Submissions.WithLabelValues("rate_limited").Inc()
		g.logger.Warn("Submission rate limited",
			zap.String("client_token", clientToken),
			zap.Int64("recent", count))
		return models.ErrRateLimited
	}
	return nil
}

func buildSubmission(req SubmitRequest) (*models.Submission, error) {
	var missing []string
	if req.SourceURL == nil || strings.TrimSpace(*req.SourceURL) == "" {
		missing = append(missing, "source_url")
	}
	if req.SourceType == nil || strings.TrimSpace(*req.SourceType) == "" {
		missing = append(missing, "source_type")
	}
	if req.Requirements == nil {
		missing = append(missing, "requirements")
	}
	if len(missing) > 0 {
		return nil, &models.ValidationError{Fields: missing}
	}

	sourceType := models.SourceType(strings.TrimSpace(*req.SourceType))
	if !sourceType.Valid() {
		return nil, invalidEnum("source_type", string(sourceType))
	}

	outputType := models.OutputLong
	if req.OutputType != "" {
		outputType = models.OutputType(req.OutputType)
		if !outputType.Valid() {
			return nil, invalidEnum("output_type", req.OutputType)
		}
	}

	tone := models.ToneNeutral
	if req.Tone != "" {
		tone = models.Tone(req.Tone)
		if !tone.Valid() {
			return nil, invalidEnum("tone", req.Tone)
		}
	}

	clientToken := strings.TrimSpace(req.ClientToken)
	if clientToken == "" {
		clientToken = "ip:" + req.ClientIP
	}

	return &models.Submission{
		Status:       models.InitialStatus,
		SourceURL:    strings.TrimSpace(*req.SourceURL),
		SourceType:   sourceType,
		Category:     req.Category,
		Requirements: *req.Requirements,
		OutputType:   outputType,
		Tone:         tone,
		ClientToken:  clientToken,
	}, nil
}

func invalidEnum(field, value string) error {
	return &models.ValidationError{
		Fields:  []string{field},
		Message: fmt.Sprintf("Invalid %s: %q", field, value),
	}
}
