// Package history keeps every submitted annotation in a SQLite database so
// past labels can be listed and counted across sessions.
package history

import (
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/google/uuid"
	_ "modernc.org/sqlite"

	"github.com/ppiankov/labelsel/internal/label"
)

const schema = `
CREATE TABLE IF NOT EXISTS annotations (
	id              TEXT PRIMARY KEY,
	session_id      TEXT NOT NULL,
	created_at      TEXT NOT NULL,
	label           TEXT NOT NULL,
	rule            TEXT NOT NULL,
	summary         TEXT NOT NULL,
	selections_json TEXT NOT NULL,
	layout_hash     TEXT
);

CREATE INDEX IF NOT EXISTS idx_annotations_created ON annotations(created_at);
CREATE INDEX IF NOT EXISTS idx_annotations_session ON annotations(session_id);
`

// timeLayout is fixed-width so created_at sorts correctly as text.
const timeLayout = "2006-01-02T15:04:05.000000000Z"

// ErrNotFound is returned by Get for an unknown annotation ID.
var ErrNotFound = errors.New("annotation not found")

// Annotation is one stored submission.
type Annotation struct {
	ID         string            `json:"id"`
	SessionID  string            `json:"session_id"`
	CreatedAt  time.Time         `json:"created_at"`
	Label      label.Label       `json:"label"`
	Rule       string            `json:"rule"`
	Summary    string            `json:"summary"`
	Selections map[string]string `json:"selections"`
	LayoutHash string            `json:"layout_hash,omitempty"`
}

// LabelCount is the number of annotations carrying one label.
type LabelCount struct {
	Label label.Label `json:"label"`
	Count int         `json:"count"`
}

// Store manages annotation history in SQLite.
type Store struct {
	db *sql.DB
}

// DefaultPath returns ~/.labelsel/history.db, or "" when home is unknown.
func DefaultPath() string {
	home, err := os.UserHomeDir()
	if err != nil {
		return ""
	}
	return filepath.Join(home, ".labelsel", "history.db")
}

// NewStore opens (or creates) the database at dbPath and runs migrations.
func NewStore(dbPath string) (*Store, error) {
	if dir := filepath.Dir(dbPath); dir != "" {
		if err := os.MkdirAll(dir, 0700); err != nil {
			return nil, fmt.Errorf("create db dir: %w", err)
		}
	}
	db, err := sql.Open("sqlite", dbPath)
	if err != nil {
		return nil, fmt.Errorf("open db: %w", err)
	}
	if _, err := db.Exec("PRAGMA journal_mode=WAL"); err != nil {
		db.Close()
		return nil, fmt.Errorf("pragma: %w", err)
	}
	if _, err := db.Exec(schema); err != nil {
		db.Close()
		return nil, fmt.Errorf("migrate: %w", err)
	}
	return &Store{db: db}, nil
}

// Close closes the underlying database connection.
func (s *Store) Close() error {
	return s.db.Close()
}

// Record stores a decision with the selections that produced it.
func (s *Store) Record(d label.Decision, selections map[string]string, sessionID, layoutHash string) (Annotation, error) {
	if selections == nil {
		selections = map[string]string{}
	}
	a := Annotation{
		ID:         uuid.New().String(),
		SessionID:  sessionID,
		CreatedAt:  time.Now().UTC(),
		Label:      d.Label,
		Rule:       d.Rule,
		Summary:    d.Summary,
		Selections: selections,
		LayoutHash: layoutHash,
	}

	selJSON, err := json.Marshal(selections)
	if err != nil {
		return Annotation{}, fmt.Errorf("marshal selections: %w", err)
	}

	_, err = s.db.Exec(
		`INSERT INTO annotations (id, session_id, created_at, label, rule, summary, selections_json, layout_hash)
		 VALUES (?, ?, ?, ?, ?, ?, ?, ?)`,
		a.ID, a.SessionID, a.CreatedAt.Format(timeLayout), string(a.Label), a.Rule, a.Summary,
		string(selJSON), a.LayoutHash,
	)
	if err != nil {
		return Annotation{}, fmt.Errorf("insert annotation: %w", err)
	}
	return a, nil
}

// Get returns the annotation with the given ID.
func (s *Store) Get(id string) (Annotation, error) {
	row := s.db.QueryRow(
		`SELECT id, session_id, created_at, label, rule, summary, selections_json, layout_hash
		 FROM annotations WHERE id = ?`, id)
	a, err := scanAnnotation(row)
	if errors.Is(err, sql.ErrNoRows) {
		return Annotation{}, fmt.Errorf("%w: %s", ErrNotFound, id)
	}
	return a, err
}

// List returns the most recent annotations, newest first. limit <= 0 returns all.
func (s *Store) List(limit int) ([]Annotation, error) {
	query := `SELECT id, session_id, created_at, label, rule, summary, selections_json, layout_hash
		FROM annotations ORDER BY created_at DESC, rowid DESC`
	args := []any{}
	if limit > 0 {
		query += " LIMIT ?"
		args = append(args, limit)
	}

	rows, err := s.db.Query(query, args...)
	if err != nil {
		return nil, fmt.Errorf("query annotations: %w", err)
	}
	defer rows.Close()

	var out []Annotation
	for rows.Next() {
		a, err := scanAnnotation(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, a)
	}
	return out, rows.Err()
}

// CountByLabel returns annotation counts per label, most frequent first.
func (s *Store) CountByLabel() ([]LabelCount, error) {
	rows, err := s.db.Query(
		`SELECT label, COUNT(*) FROM annotations GROUP BY label ORDER BY COUNT(*) DESC, label ASC`)
	if err != nil {
		return nil, fmt.Errorf("count labels: %w", err)
	}
	defer rows.Close()

	var out []LabelCount
	for rows.Next() {
		var lc LabelCount
		var l string
		if err := rows.Scan(&l, &lc.Count); err != nil {
			return nil, fmt.Errorf("scan count: %w", err)
		}
		lc.Label = label.Label(l)
		out = append(out, lc)
	}
	return out, rows.Err()
}

type scanner interface {
	Scan(dest ...any) error
}

func scanAnnotation(sc scanner) (Annotation, error) {
	var (
		a          Annotation
		createdAt  string
		lbl        string
		selJSON    string
		layoutHash sql.NullString
	)
	if err := sc.Scan(&a.ID, &a.SessionID, &createdAt, &lbl, &a.Rule, &a.Summary, &selJSON, &layoutHash); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return Annotation{}, err
		}
		return Annotation{}, fmt.Errorf("scan annotation: %w", err)
	}

	t, err := time.Parse(timeLayout, createdAt)
	if err != nil {
		return Annotation{}, fmt.Errorf("parse created_at: %w", err)
	}
	a.CreatedAt = t
	a.Label = label.Label(lbl)
	a.LayoutHash = layoutHash.String

	if err := json.Unmarshal([]byte(selJSON), &a.Selections); err != nil {
		return Annotation{}, fmt.Errorf("unmarshal selections: %w", err)
	}
	return a, nil
}
