package journal

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	_ "modernc.org/sqlite"
)

// Entry is one recorded Ensure outcome.
type Entry struct {
	ID        int64         `json:"id"`
	RunID     string        `json:"run_id,omitempty"`
	Artifact  string        `json:"artifact"`
	Tier      string        `json:"tier"`
	WheelPath string        `json:"wheel_path,omitempty"`
	Success   bool          `json:"success"`
	Error     string        `json:"error,omitempty"`
	Duration  time.Duration `json:"duration_ns"`
	CreatedAt time.Time     `json:"created_at"`
}

// Store persists install outcomes in SQLite.
type Store struct {
	db   *sql.DB
	path string
}

const entryColumns = "id, run_id, artifact, tier, wheel_path, success, error_message, duration_ms, created_at"

// Open initializes or connects to the journal database and applies migrations.
func Open(path string) (*Store, error) {
	path = strings.TrimSpace(path)
	if path == "" {
		return nil, errors.New("journal path required")
	}
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return nil, fmt.Errorf("create journal directory: %w", err)
	}

	db, err := sql.Open("sqlite", path)
	if err != nil {
		return nil, fmt.Errorf("open sqlite db: %w", err)
	}

	pragmas := []string{
		"PRAGMA journal_mode=WAL",
		"PRAGMA busy_timeout = 5000",
	}
	for _, pragma := range pragmas {
		if _, execErr := db.Exec(pragma); execErr != nil {
			_ = db.Close()
			return nil, fmt.Errorf("apply pragma %q: %w", pragma, execErr)
		}
	}

	store := &Store{db: db, path: path}
	if err := store.applyMigrations(context.Background()); err != nil {
		_ = db.Close()
		return nil, err
	}
	return store, nil
}

// Path returns the database file location.
func (s *Store) Path() string {
	return s.path
}

// Close closes the underlying database connection.
func (s *Store) Close() error {
	if s == nil || s.db == nil {
		return nil
	}
	return s.db.Close()
}

// Record inserts an outcome. A zero CreatedAt is stamped with the current time.
func (s *Store) Record(ctx context.Context, entry Entry) error {
	if strings.TrimSpace(entry.Artifact) == "" {
		return errors.New("journal entry requires an artifact")
	}
	if entry.CreatedAt.IsZero() {
		entry.CreatedAt = time.Now()
	}
	success := 0
	if entry.Success {
		success = 1
	}
	_, err := s.db.ExecContext(
		ctx,
		`INSERT INTO installs (
            run_id, artifact, tier, wheel_path, success, error_message, duration_ms, created_at
        ) VALUES (?, ?, ?, ?, ?, ?, ?, ?)`,
		nullableString(entry.RunID),
		entry.Artifact,
		entry.Tier,
		nullableString(entry.WheelPath),
		success,
		nullableString(entry.Error),
		entry.Duration.Milliseconds(),
		entry.CreatedAt.UTC().Format(time.RFC3339Nano),
	)
	if err != nil {
		return fmt.Errorf("insert journal entry: %w", err)
	}
	return nil
}

// Recent returns the newest entries first. A non-positive limit returns all.
func (s *Store) Recent(ctx context.Context, limit int) ([]Entry, error) {
	query := `SELECT ` + entryColumns + ` FROM installs ORDER BY id DESC`
	args := []any{}
	if limit > 0 {
		query += ` LIMIT ?`
		args = append(args, limit)
	}
	return s.query(ctx, query, args...)
}

// ForRun returns the entries recorded by one bootstrap run in insertion order.
func (s *Store) ForRun(ctx context.Context, runID string) ([]Entry, error) {
	return s.query(ctx, `SELECT `+entryColumns+` FROM installs WHERE run_id = ? ORDER BY id`, runID)
}

func (s *Store) query(ctx context.Context, query string, args ...any) ([]Entry, error) {
	rows, err := s.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("query journal: %w", err)
	}
	defer rows.Close()

	var entries []Entry
	for rows.Next() {
		entry, err := scanEntry(rows)
		if err != nil {
			return nil, fmt.Errorf("scan journal entry: %w", err)
		}
		entries = append(entries, entry)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate journal: %w", err)
	}
	return entries, nil
}

func scanEntry(scanner interface{ Scan(dest ...any) error }) (Entry, error) {
	var (
		id         int64
		runID      sql.NullString
		artifact   string
		tier       string
		wheelPath  sql.NullString
		success    int64
		errMessage sql.NullString
		durationMS int64
		createdRaw string
	)
	if err := scanner.Scan(&id, &runID, &artifact, &tier, &wheelPath, &success, &errMessage, &durationMS, &createdRaw); err != nil {
		return Entry{}, err
	}
	created, _ := time.Parse(time.RFC3339Nano, createdRaw)
	return Entry{
		ID:        id,
		RunID:     runID.String,
		Artifact:  artifact,
		Tier:      tier,
		WheelPath: wheelPath.String,
		Success:   success != 0,
		Error:     errMessage.String,
		Duration:  time.Duration(durationMS) * time.Millisecond,
		CreatedAt: created,
	}, nil
}

func nullableString(value string) any {
	if strings.TrimSpace(value) == "" {
		return nil
	}
	return value
}
