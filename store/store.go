package store

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"time"

	_ "modernc.org/sqlite"
)

// timeLayout is fixed width so created_at sorts lexically.
const timeLayout = "2006-01-02T15:04:05.000000000Z"

// ErrNotFound is returned when a session id is unknown.
var ErrNotFound = errors.New("session not found")

// Store keeps the history of analysis runs in SQLite.
type Store struct {
	db   *sql.DB
	path string
}

type Kind string

const (
	KindFace       Kind = "face"
	KindVoice      Kind = "voice"
	KindTranscribe Kind = "transcribe"
	KindFull       Kind = "full"
)

type Status string

const (
	StatusOK    Status = "ok"
	StatusEmpty Status = "empty"
)

type Segment struct {
	Start float64
	End   float64
	Label string
}

type Session struct {
	ID           string
	Kind         Kind
	CreatedAt    time.Time
	Source       string
	VoiceEmotion string
	TextEmotion  string
	Transcript   string
	Status       Status
	Segments     []Segment
}

const schema = `
CREATE TABLE IF NOT EXISTS sessions (
	id            TEXT PRIMARY KEY,
	kind          TEXT NOT NULL,
	created_at    TEXT NOT NULL,
	source        TEXT NOT NULL DEFAULT '',
	voice_emotion TEXT NOT NULL DEFAULT '',
	text_emotion  TEXT NOT NULL DEFAULT '',
	transcript    TEXT NOT NULL DEFAULT '',
	status        TEXT NOT NULL
);
CREATE TABLE IF NOT EXISTS segments (
	session_id TEXT NOT NULL REFERENCES sessions(id) ON DELETE CASCADE,
	idx        INTEGER NOT NULL,
	start_s    REAL NOT NULL,
	end_s      REAL NOT NULL,
	label      TEXT NOT NULL,
	PRIMARY KEY (session_id, idx)
);
CREATE INDEX IF NOT EXISTS idx_sessions_created ON sessions(created_at);
`

// Open creates or opens the database at path.
func Open(path string) (*Store, error) {
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return nil, fmt.Errorf("ensure database dir: %w", err)
	}
	db, err := sql.Open("sqlite", path)
	if err != nil {
		return nil, fmt.Errorf("open sqlite db: %w", err)
	}

	pragmas := []string{
		"PRAGMA journal_mode=WAL",
		"PRAGMA foreign_keys = ON",
		"PRAGMA busy_timeout = 5000",
	}
	for _, pragma := range pragmas {
		if _, execErr := db.Exec(pragma); execErr != nil {
			_ = db.Close()
			return nil, fmt.Errorf("apply pragma %q: %w", pragma, execErr)
		}
	}
	if _, err := db.Exec(schema); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("apply schema: %w", err)
	}
	return &Store{db: db, path: path}, nil
}

// Close closes the underlying database connection.
func (s *Store) Close() error {
	if s == nil || s.db == nil {
		return nil
	}
	return s.db.Close()
}

func (s *Store) Path() string { return s.path }

// SaveSession inserts a session and its segments in one transaction.
func (s *Store) SaveSession(ctx context.Context, sess *Session) (err error) {
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("begin: %w", err)
	}
	defer func() {
		if err != nil {
			_ = tx.Rollback()
		}
	}()

	_, err = tx.ExecContext(ctx,
		`INSERT INTO sessions (id, kind, created_at, source, voice_emotion, text_emotion, transcript, status)
		 VALUES (?, ?, ?, ?, ?, ?, ?, ?)`,
		sess.ID, string(sess.Kind), sess.CreatedAt.UTC().Format(timeLayout),
		sess.Source, sess.VoiceEmotion, sess.TextEmotion, sess.Transcript, string(sess.Status))
	if err != nil {
		return fmt.Errorf("insert session %s: %w", sess.ID, err)
	}
	for i, seg := range sess.Segments {
		if _, err = tx.ExecContext(ctx,
			`INSERT INTO segments (session_id, idx, start_s, end_s, label) VALUES (?, ?, ?, ?, ?)`,
			sess.ID, i, seg.Start, seg.End, seg.Label); err != nil {
			return fmt.Errorf("insert segment %d: %w", i, err)
		}
	}
	if err = tx.Commit(); err != nil {
		return fmt.Errorf("commit: %w", err)
	}
	return nil
}

// ListSessions returns the most recent sessions first, without segments.
func (s *Store) ListSessions(ctx context.Context, limit int) ([]Session, error) {
	if limit <= 0 {
		limit = 20
	}
	rows, err := s.db.QueryContext(ctx,
		`SELECT id, kind, created_at, source, voice_emotion, text_emotion, transcript, status
		 FROM sessions ORDER BY created_at DESC LIMIT ?`, limit)
	if err != nil {
		return nil, fmt.Errorf("list sessions: %w", err)
	}
	defer rows.Close()

	var out []Session
	for rows.Next() {
		sess, err := scanSession(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, *sess)
	}
	return out, rows.Err()
}

// Get returns one session with its segments.
func (s *Store) Get(ctx context.Context, id string) (*Session, error) {
	row := s.db.QueryRowContext(ctx,
		`SELECT id, kind, created_at, source, voice_emotion, text_emotion, transcript, status
		 FROM sessions WHERE id = ?`, id)
	sess, err := scanSession(row)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, err
	}
	if sess.Segments, err = s.Segments(ctx, id); err != nil {
		return nil, err
	}
	return sess, nil
}

func (s *Store) Segments(ctx context.Context, id string) ([]Segment, error) {
	rows, err := s.db.QueryContext(ctx,
		`SELECT start_s, end_s, label FROM segments WHERE session_id = ? ORDER BY idx`, id)
	if err != nil {
		return nil, fmt.Errorf("list segments: %w", err)
	}
	defer rows.Close()

	var out []Segment
	for rows.Next() {
		var seg Segment
		if err := rows.Scan(&seg.Start, &seg.End, &seg.Label); err != nil {
			return nil, err
		}
		out = append(out, seg)
	}
	return out, rows.Err()
}

type scanner interface {
	Scan(dest ...any) error
}

func scanSession(sc scanner) (*Session, error) {
	var (
		sess          Session
		kind, status  string
		createdAtText string
	)
	if err := sc.Scan(&sess.ID, &kind, &createdAtText, &sess.Source, &sess.VoiceEmotion,
		&sess.TextEmotion, &sess.Transcript, &status); err != nil {
		return nil, err
	}
	created, err := time.Parse(timeLayout, createdAtText)
	if err != nil {
		return nil, fmt.Errorf("parse created_at for %s: %w", sess.ID, err)
	}
	sess.Kind = Kind(kind)
	sess.Status = Status(status)
	sess.CreatedAt = created
	return &sess, nil
}
