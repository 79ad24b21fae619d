package story

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/google/uuid"
	_ "modernc.org/sqlite"
)

// SQLiteRepository implements Repository on a local SQLite file.
type SQLiteRepository struct {
	db *sql.DB
}

// NewSQLiteRepository opens or creates the story database.
func NewSQLiteRepository(dbPath string) (*SQLiteRepository, error) {
	if dir := filepath.Dir(dbPath); dir != "." {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return nil, fmt.Errorf("create db dir: %w", err)
		}
	}

	db, err := sql.Open("sqlite", dbPath+"?_pragma=journal_mode(wal)&_pragma=foreign_keys(on)")
	if err != nil {
		return nil, fmt.Errorf("open db: %w", err)
	}

	r := &SQLiteRepository{db: db}
	if err := r.migrate(); err != nil {
		db.Close()
		return nil, fmt.Errorf("migrate: %w", err)
	}
	return r, nil
}

func (r *SQLiteRepository) migrate() error {
	schema := `
	CREATE TABLE IF NOT EXISTS stories (
		id            TEXT PRIMARY KEY,
		title         TEXT NOT NULL,
		text          TEXT NOT NULL,
		audio_url     TEXT NOT NULL,
		movements_url TEXT NOT NULL,
		emotion       TEXT,
		created_at    TEXT NOT NULL
	);
	CREATE INDEX IF NOT EXISTS idx_stories_created ON stories(created_at DESC);
	`
	_, err := r.db.Exec(schema)
	return err
}

// Close releases the database handle.
func (r *SQLiteRepository) Close() error { return r.db.Close() }

// Save inserts or replaces a story. A missing id is generated.
func (r *SQLiteRepository) Save(ctx context.Context, s *Story) error {
	if s.ID == "" {
		s.ID = uuid.NewString()
	}
	if s.CreatedAt.IsZero() {
		s.CreatedAt = time.Now().UTC()
	}
	_, err := r.db.ExecContext(ctx, `
		INSERT OR REPLACE INTO stories (id, title, text, audio_url, movements_url, emotion, created_at)
		VALUES (?, ?, ?, ?, ?, ?, ?)`,
		s.ID, s.Title, s.Text, s.AudioURL, s.MovementsURL, s.Emotion,
		s.CreatedAt.Format(time.RFC3339Nano))
	if err != nil {
		return fmt.Errorf("save story: %w", err)
	}
	return nil
}

// GetByID fetches one story.
func (r *SQLiteRepository) GetByID(ctx context.Context, id string) (*Story, error) {
	row := r.db.QueryRowContext(ctx, `
		SELECT id, title, text, audio_url, movements_url, emotion, created_at
		FROM stories WHERE id = ?`, id)
	s, err := scanStory(row)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, ErrNotFound
	}
	return s, err
}

// List returns all stories, newest first.
func (r *SQLiteRepository) List(ctx context.Context) ([]*Story, error) {
	rows, err := r.db.QueryContext(ctx, `
		SELECT id, title, text, audio_url, movements_url, emotion, created_at
		FROM stories ORDER BY created_at DESC`)
	if err != nil {
		return nil, fmt.Errorf("list stories: %w", err)
	}
	defer rows.Close()

	var stories []*Story
	for rows.Next() {
		s, err := scanStory(rows)
		if err != nil {
			return nil, err
		}
		stories = append(stories, s)
	}
	return stories, rows.Err()
}

type scanner interface {
	Scan(dest ...any) error
}

func scanStory(row scanner) (*Story, error) {
	var s Story
	var emotion sql.NullString
	var created string
	if err := row.Scan(&s.ID, &s.Title, &s.Text, &s.AudioURL, &s.MovementsURL, &emotion, &created); err != nil {
		return nil, err
	}
	s.Emotion = emotion.String
	if t, err := time.Parse(time.RFC3339Nano, created); err == nil {
		s.CreatedAt = t
	}
	return &s, nil
}
