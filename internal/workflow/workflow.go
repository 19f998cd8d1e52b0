// Package workflow hands accepted submissions to the external generation
// workflow. Triggers are fire-and-forget from the caller's point of view.
package workflow

import (
	"context"
	"errors"

	"github.com/ifuryst/scriptforge/internal/models"
)

var ErrUnexpectedResponse = errors.New("unexpected workflow response")

// Request is the payload the workflow receives. SubmissionID lets the
// workflow write its result back to the right row.
type Request struct {
	SubmissionID string            `json:"submission_id"`
	SourceURL    string            `json:"source_url"`
	SourceType   models.SourceType `json:"source_type"`
	Category     string            `json:"category"`
	Requirements string            `json:"requirements"`
	OutputType   models.OutputType `json:"output_type"`
	Tone         models.Tone       `json:"tone"`
	ClientToken  string            `json:"client_token"`
}

func RequestFromSubmission(s *models.Submission) Request {
	return Request{
		SubmissionID: s.ID,
		SourceURL:    s.SourceURL,
		SourceType:   s.SourceType,
		Category:     s.Category,
		Requirements: s.Requirements,
		OutputType:   s.OutputType,
		Tone:         s.Tone,
		ClientToken:  s.ClientToken,
	}
}

type Trigger interface {
	Name() string
	Trigger(ctx context.Context, req Request) error
}
