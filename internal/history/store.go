// Package history keeps the client's own submissions and its client token in
// a local SQLite file.
package history

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/google/uuid"
	_ "modernc.org/sqlite"

	"github.com/ifuryst/scriptforge/internal/models"
)

const schema = `
CREATE TABLE IF NOT EXISTS settings (
	key   TEXT PRIMARY KEY,
	value TEXT NOT NULL
);
CREATE TABLE IF NOT EXISTS submissions (
	job_id       TEXT PRIMARY KEY,
	source_url   TEXT NOT NULL,
	source_type  TEXT NOT NULL DEFAULT '',
	output_type  TEXT NOT NULL DEFAULT '',
	tone         TEXT NOT NULL DEFAULT '',
	category     TEXT NOT NULL DEFAULT '',
	requirements TEXT NOT NULL DEFAULT '',
	status       TEXT NOT NULL,
	script_id    TEXT,
	created_at   INTEGER NOT NULL,
	updated_at   INTEGER NOT NULL
);
CREATE INDEX IF NOT EXISTS idx_submissions_created_at ON submissions(created_at);
`

const clientTokenKey = "client_token"

type Entry struct {
	JobID        string
	SourceURL    string
	SourceType   string
	OutputType   string
	Tone         string
	Category     string
	Requirements string
	Status       models.SubmissionStatus
	ScriptID     *string
	CreatedAt    time.Time
	UpdatedAt    time.Time
}

// DeadEnd reports a failure that never produced a script.
func (e Entry) DeadEnd() bool {
	return e.Status == models.StatusFailed && (e.ScriptID == nil || *e.ScriptID == "")
}

type Store struct {
	db  *sql.DB
	now func() time.Time
}

// DefaultPath is the history file under the user's config directory.
func DefaultPath() (string, error) {
	dir, err := os.UserConfigDir()
	if err != nil {
		return "", fmt.Errorf("resolve config dir: %w", err)
	}
	return filepath.Join(dir, "scriptforge", "history.db"), nil
}

// Open prepares the database and drops dead-end failures left by earlier
// sessions.
func Open(ctx context.Context, path string) (*Store, error) {
	if strings.TrimSpace(path) == "" {
		return nil, fmt.Errorf("db path is required")
	}
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return nil, fmt.Errorf("create db directory: %w", err)
	}

	db, err := sql.Open("sqlite", path)
	if err != nil {
		return nil, fmt.Errorf("open sqlite: %w", err)
	}
	db.SetMaxOpenConns(1)
	db.SetMaxIdleConns(1)

	s := &Store{db: db, now: time.Now}
	if err := s.init(ctx); err != nil {
		_ = db.Close()
		return nil, err
	}
	if _, err := s.Prune(ctx); err != nil {
		_ = db.Close()
		return nil, err
	}
	return s, nil
}

func (s *Store) Close() error {
	if s == nil || s.db == nil {
		return nil
	}
	return s.db.Close()
}

func (s *Store) init(ctx context.Context) error {
	if _, err := s.db.ExecContext(ctx, "PRAGMA busy_timeout = 5000;"); err != nil {
		return fmt.Errorf("set busy timeout: %w", err)
	}
	if _, err := s.db.ExecContext(ctx, schema); err != nil {
		return fmt.Errorf("create schema: %w", err)
	}
	return nil
}

// ClientToken returns the installation's token, creating it on first use.
func (s *Store) ClientToken(ctx context.Context) (string, error) {
	if _, err := s.db.ExecContext(ctx,
		`INSERT OR IGNORE INTO settings (key, value) VALUES (?, ?)`,
		clientTokenKey, uuid.NewString()); err != nil {
		return "", fmt.Errorf("create client token: %w", err)
	}

	var token string
	if err := s.db.QueryRowContext(ctx,
		`SELECT value FROM settings WHERE key = ?`, clientTokenKey).Scan(&token); err != nil {
		return "", fmt.Errorf("read client token: %w", err)
	}
	return token, nil
}

func (s *Store) Add(ctx context.Context, e Entry) error {
	now := s.now().UTC()
	if e.CreatedAt.IsZero() {
		e.CreatedAt = now
	}
	_, err := s.db.ExecContext(ctx, `
		INSERT INTO submissions (job_id, source_url, source_type, output_type, tone, category, requirements, status, script_id, created_at, updated_at)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)
		ON CONFLICT(job_id) DO UPDATE SET status = excluded.status, script_id = excluded.script_id, updated_at = excluded.updated_at`,
		e.JobID, e.SourceURL, e.SourceType, e.OutputType, e.Tone, e.Category, e.Requirements,
		string(e.Status), nullString(e.ScriptID), e.CreatedAt.UnixMilli(), now.UnixMilli())
	if err != nil {
		return fmt.Errorf("insert submission %s: %w", e.JobID, err)
	}
	return nil
}

// Update records the latest observed status of a job.
func (s *Store) Update(ctx context.Context, jobID string, status models.SubmissionStatus, scriptID *string) error {
	res, err := s.db.ExecContext(ctx,
		`UPDATE submissions SET status = ?, script_id = COALESCE(?, script_id), updated_at = ? WHERE job_id = ?`,
		string(status), nullString(scriptID), s.now().UTC().UnixMilli(), jobID)
	if err != nil {
		return fmt.Errorf("update submission %s: %w", jobID, err)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("update submission %s: %w", jobID, err)
	}
	if n == 0 {
		return models.ErrNotFound
	}
	return nil
}

func (s *Store) Get(ctx context.Context, jobID string) (*Entry, error) {
	row := s.db.QueryRowContext(ctx, selectEntries+` WHERE job_id = ?`, jobID)
	e, err := scanEntry(row)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, models.ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("get submission %s: %w", jobID, err)
	}
	return e, nil
}

// List returns every entry, newest first.
func (s *Store) List(ctx context.Context) ([]Entry, error) {
	rows, err := s.db.QueryContext(ctx, selectEntries+` ORDER BY created_at DESC, job_id`)
	if err != nil {
		return nil, fmt.Errorf("list submissions: %w", err)
	}
	defer rows.Close()

	var entries []Entry
	for rows.Next() {
		e, err := scanEntry(rows)
		if err != nil {
			return nil, fmt.Errorf("scan submission: %w", err)
		}
		entries = append(entries, *e)
	}
	return entries, rows.Err()
}

// Prune deletes failures that never acquired a script.
func (s *Store) Prune(ctx context.Context) (int64, error) {
	res, err := s.db.ExecContext(ctx,
		`DELETE FROM submissions WHERE status = ? AND (script_id IS NULL OR script_id = '')`,
		string(models.StatusFailed))
	if err != nil {
		return 0, fmt.Errorf("prune submissions: %w", err)
	}
	return res.RowsAffected()
}

const selectEntries = `SELECT job_id, source_url, source_type, output_type, tone, category, requirements, status, script_id, created_at, updated_at FROM submissions`

type scanner interface {
	Scan(dest ...any) error
}

func scanEntry(row scanner) (*Entry, error) {
	var (
		e         Entry
		status    string
		scriptID  sql.NullString
		createdAt int64
		updatedAt int64
	)
	if err := row.Scan(&e.JobID, &e.SourceURL, &e.SourceType, &e.OutputType, &e.Tone, &e.Category,
		&e.Requirements, &status, &scriptID, &createdAt, &updatedAt); err != nil {
		return nil, err
	}
	e.Status = models.SubmissionStatus(status)
	if scriptID.Valid && scriptID.String != "" {
		id := scriptID.String
		e.ScriptID = &id
	}
	e.CreatedAt = time.UnixMilli(createdAt).UTC()
	e.UpdatedAt = time.UnixMilli(updatedAt).UTC()
	return &e, nil
}

func nullString(s *string) any {
	if s == nil || *s == "" {
		return nil
	}
	return *s
}
