package service

import (
	"context"
	"errors"
	"time"

	"gorm.io/gorm"

	"github.com/ifuryst/scriptforge/internal/models"
)

type SubmissionRepository interface {
	Create(ctx context.Context, s *models.Submission) error
	Get(ctx context.Context, id string) (*models.Submission, error)
	// CountSince counts rows created by clientToken at or after since.
	CountSince(ctx context.Context, clientToken string, since time.Time) (int64, error)
	// CountStale counts non-terminal rows created before cutoff.
	CountStale(ctx context.Context, cutoff time.Time) (int64, error)
}

type ScriptRepository interface {
	Get(ctx context.Context, id string) (*models.Script, error)
}

type SubmissionStore struct {
	db *gorm.DB
}

func NewSubmissionStore(db *gorm.DB) *SubmissionStore {
	return &SubmissionStore{db: db}
}

// Create lets the database assign the id and writes it back into s.
func (r *SubmissionStore) Create(ctx context.Context, s *models.Submission) error {
	return r.db.WithContext(ctx).Create(s).Error
}

func (r *SubmissionStore) Get(ctx context.Context, id string) (*models.Submission, error) {
	var s models.Submission
	err := r.db.WithContext(ctx).Where("id = ?", id).First(&s).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, models.ErrNotFound
	}
	if err != nil {
		return nil, err
	}
	return &s, nil
}

func (r *SubmissionStore) CountSince(ctx context.Context, clientToken string, since time.Time) (int64, error) {
	var count int64
	err := r.db.WithContext(ctx).
		Model(&models.Submission{}).
		Where("client_token = ? AND created_at >= ?", clientToken, since).
		Count(&count).Error
	return count, err
}

func (r *SubmissionStore) CountStale(ctx context.Context, cutoff time.Time) (int64, error) {
	var count int64
	err := r.db.WithContext(ctx).
		Model(&models.Submission{}).
		Where("status IN ? AND created_at < ?", []models.SubmissionStatus{models.StatusQueued, models.StatusProcessing}, cutoff).
		Count(&count).Error
	return count, err
}

type ScriptStore struct {
	db *gorm.DB
}

func NewScriptStore(db *gorm.DB) *ScriptStore {
	return &ScriptStore{db: db}
}

func (r *ScriptStore) Get(ctx context.Context, id string) (*models.Script, error) {
	var s models.Script
	err := r.db.WithContext(ctx).Where("id = ?", id).First(&s).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, models.ErrNotFound
	}
	if err != nil {
		return nil, err
	}
	return &s, nil
}
