package models

import "time"

type SubmissionStatus string

const (
	StatusQueued     SubmissionStatus = "queued"
	StatusProcessing SubmissionStatus = "processing"
	StatusDone       SubmissionStatus = "done"
	StatusFailed     SubmissionStatus = "failed"
)

// InitialStatus is written by the gateway on every accepted submission.
const InitialStatus = StatusProcessing

func (s SubmissionStatus) Valid() bool {
	switch s {
	case StatusQueued, StatusProcessing, StatusDone, StatusFailed:
		return true
	}
	return false
}

// Terminal reports whether no further transitions are expected.
func (s SubmissionStatus) Terminal() bool {
	return s == StatusDone || s == StatusFailed
}

type SourceType string

const (
	SourceAuto    SourceType = "auto"
	SourceYouTube SourceType = "youtube"
	SourceWebsite SourceType = "website"
	SourceRSS     SourceType = "rss"
)

func (s SourceType) Valid() bool {
	switch s {
	case SourceAuto, SourceYouTube, SourceWebsite, SourceRSS:
		return true
	}
	return false
}

type OutputType string

const (
	OutputShort OutputType = "short"
	OutputLong  OutputType = "long"
)

func (o OutputType) Valid() bool {
	return o == OutputShort || o == OutputLong
}

type Tone string

const (
	ToneNeutral   Tone = "neutral"
	ToneFriendly  Tone = "friendly"
	ToneEnergetic Tone = "energetic"
)

func (t Tone) Valid() bool {
	switch t {
	case ToneNeutral, ToneFriendly, ToneEnergetic:
		return true
	}
	return false
}

// Submission is one generation job. The row is written once by the gateway;
// status and script_id are afterwards owned by the generation workflow.
type Submission struct {
	ID           string           `gorm:"primaryKey;type:uuid;default:gen_random_uuid()" json:"id"`
	Status       SubmissionStatus `gorm:"size:20;not null;default:'processing';index" json:"status"`
	ScriptID     *string          `gorm:"type:uuid;index" json:"script_id"`
	SourceURL    string           `gorm:"type:text;not null" json:"source_url"`
	SourceType   SourceType       `gorm:"size:20;not null" json:"source_type"`
	Category     string           `gorm:"size:255" json:"category"`
	Requirements string           `gorm:"type:text" json:"requirements"`
	OutputType   OutputType       `gorm:"size:20" json:"output_type"`
	Tone         Tone             `gorm:"size:20" json:"tone"`
	ClientToken  string           `gorm:"size:255;index" json:"client_token"`
	CreatedAt    time.Time        `gorm:"autoCreateTime;index" json:"created_at"`
	UpdatedAt    time.Time        `gorm:"autoUpdateTime" json:"updated_at"`
}

func (Submission) TableName() string {
	return "submissions"
}

// JobStatus is the read projection of a submission served to pollers.
type JobStatus struct {
	JobID    string           `json:"job_id"`
	Status   SubmissionStatus `json:"status"`
	ScriptID *string          `json:"script_id"`
}

// Ready reports whether the job finished with a script attached.
func (j JobStatus) Ready() bool {
	return j.Status == StatusDone && j.ScriptID != nil && *j.ScriptID != ""
}
