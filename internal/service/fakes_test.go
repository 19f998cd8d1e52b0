package service

import (
	"context"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/ifuryst/scriptforge/internal/models"
	"github.com/ifuryst/scriptforge/internal/workflow"
)

type memorySubmissions struct {
	mu        sync.Mutex
	rows      map[string]models.Submission
	createErr error
	getErr    error
	gets      int
}

func newMemorySubmissions() *memorySubmissions {
	return &memorySubmissions{rows: make(map[string]models.Submission)}
}

func (m *memorySubmissions) Create(ctx context.Context, s *models.Submission) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.createErr != nil {
		return m.createErr
	}
	s.ID = uuid.NewString()
	if s.CreatedAt.IsZero() {
		s.CreatedAt = time.Now()
	}
	m.rows[s.ID] = *s
	return nil
}

func (m *memorySubmissions) Get(ctx context.Context, id string) (*models.Submission, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.gets++
	if m.getErr != nil {
		return nil, m.getErr
	}
	s, ok := m.rows[id]
	if !ok {
		return nil, models.ErrNotFound
	}
	return &s, nil
}

func (m *memorySubmissions) CountSince(ctx context.Context, clientToken string, since time.Time) (int64, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	var n int64
	for _, s := range m.rows {
		if s.ClientToken == clientToken && !s.CreatedAt.Before(since) {
			n++
		}
	}
	return n, nil
}

func (m *memorySubmissions) CountStale(ctx context.Context, cutoff time.Time) (int64, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	var n int64
	for _, s := range m.rows {
		if !s.Status.Terminal() && s.CreatedAt.Before(cutoff) {
			n++
		}
	}
	return n, nil
}

func (m *memorySubmissions) put(s models.Submission) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.rows[s.ID] = s
}

func (m *memorySubmissions) len() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return len(m.rows)
}

type memoryScripts struct {
	rows map[string]models.Script
	err  error
}

func (m *memoryScripts) Get(ctx context.Context, id string) (*models.Script, error) {
	if m.err != nil {
		return nil, m.err
	}
	s, ok := m.rows[id]
	if !ok {
		return nil, models.ErrNotFound
	}
	return &s, nil
}

type funcTrigger func(ctx context.Context, req workflow.Request) error

func (f funcTrigger) Name() string { return "test" }

func (f funcTrigger) Trigger(ctx context.Context, req workflow.Request) error { return f(ctx, req) }
