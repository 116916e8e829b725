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

	_ "modernc.org/sqlite"

	"q7z/internal/extract"
)

// ErrNotFound reports a job id with no history row.
var ErrNotFound = errors.New("job not found")

// Store persists job history in SQLite.
type Store struct {
	db   *sql.DB
	path string
}

// Open creates or opens the history database at path.
func Open(path string) (*Store, error) {
	if dir := filepath.Dir(path); dir != "" {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return nil, fmt.Errorf("create history directory: %w", err)
		}
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
	if err := store.initSchema(context.Background()); err != nil {
		_ = db.Close()
		return nil, err
	}
	return store, nil
}

// Close closes the underlying database connection.
func (s *Store) Close() error {
	if s == nil || s.db == nil {
		return nil
	}
	return s.db.Close()
}

// Path returns the database file location.
func (s *Store) Path() string {
	return s.path
}

// Begin records a job as running.
func (s *Store) Begin(ctx context.Context, jobID string, req extract.Request) error {
	_, err := s.db.ExecContext(ctx,
		`INSERT INTO jobs (job_id, input_path, output_dir, filter, status, started_at)
         VALUES (?, ?, ?, ?, ?, ?)`,
		jobID, req.Input, req.Output, req.Filter, StatusRunning, formatTime(time.Now()),
	)
	if err != nil {
		return fmt.Errorf("insert job %s: %w", jobID, err)
	}
	return nil
}

// Finish records the outcome of a running job. A nil Outcome.Err marks it succeeded.
func (s *Store) Finish(ctx context.Context, jobID string, out Outcome) error {
	status := StatusSucceeded
	var errText sql.NullString
	if out.Err != nil {
		status = StatusFailed
		if errors.Is(out.Err, context.Canceled) {
			status = StatusInterrupted
		}
		errText = sql.NullString{String: strings.TrimSpace(out.Err.Error()), Valid: true}
	}
	var exitCode sql.NullInt64
	if out.ExitCode >= 0 {
		exitCode = sql.NullInt64{Int64: int64(out.ExitCode), Valid: true}
	}
	res, err := s.db.ExecContext(ctx,
		`UPDATE jobs SET status = ?, error_message = ?, exit_code = ?, last_percent = ?, files = ?, finished_at = ?
         WHERE job_id = ?`,
		status, errText, exitCode, out.LastPercent, out.Files, formatTime(time.Now()), jobID,
	)
	if err != nil {
		return fmt.Errorf("update job %s: %w", jobID, err)
	}
	if n, err := res.RowsAffected(); err == nil && n == 0 {
		return fmt.Errorf("%w: %s", ErrNotFound, jobID)
	}
	return nil
}

// MarkInterrupted flags jobs left running by a Primary that exited without
// finishing them. It returns the number of rows changed.
func (s *Store) MarkInterrupted(ctx context.Context) (int64, error) {
	res, err := s.db.ExecContext(ctx,
		`UPDATE jobs SET status = ?, finished_at = ? WHERE status = ?`,
		StatusInterrupted, formatTime(time.Now()), StatusRunning,
	)
	if err != nil {
		return 0, fmt.Errorf("mark interrupted jobs: %w", err)
	}
	return res.RowsAffected()
}

// Get returns the record for jobID.
func (s *Store) Get(ctx context.Context, jobID string) (Record, error) {
	row := s.db.QueryRowContext(ctx, selectColumns+` WHERE job_id = ?`, jobID)
	rec, err := scanRecord(row)
	if errors.Is(err, sql.ErrNoRows) {
		return Record{}, fmt.Errorf("%w: %s", ErrNotFound, jobID)
	}
	return rec, err
}

// List returns the most recent jobs first. limit <= 0 returns every row.
func (s *Store) List(ctx context.Context, limit int) ([]Record, error) {
	query := selectColumns + ` ORDER BY started_at DESC, id DESC`
	args := []any{}
	if limit > 0 {
		query += ` LIMIT ?`
		args = append(args, limit)
	}
	rows, err := s.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("list jobs: %w", err)
	}
	defer rows.Close()

	var records []Record
	for rows.Next() {
		rec, err := scanRecord(rows)
		if err != nil {
			return nil, err
		}
		records = append(records, rec)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate jobs: %w", err)
	}
	return records, nil
}

const selectColumns = `SELECT id, job_id, input_path, output_dir, filter, status, error_message,
    exit_code, last_percent, files, started_at, finished_at FROM jobs`

type scanner interface {
	Scan(dest ...any) error
}

func scanRecord(row scanner) (Record, error) {
	var (
		rec        Record
		status     string
		errText    sql.NullString
		exitCode   sql.NullInt64
		startedAt  string
		finishedAt sql.NullString
	)
	if err := row.Scan(&rec.ID, &rec.JobID, &rec.Request.Input, &rec.Request.Output, &rec.Request.Filter,
		&status, &errText, &exitCode, &rec.LastPercent, &rec.Files, &startedAt, &finishedAt); err != nil {
		return Record{}, err
	}
	rec.Status = Status(status)
	rec.Error = errText.String
	if exitCode.Valid {
		code := int(exitCode.Int64)
		rec.ExitCode = &code
	}
	rec.StartedAt = parseTime(startedAt)
	if finishedAt.Valid {
		ts := parseTime(finishedAt.String)
		rec.FinishedAt = &ts
	}
	return rec, nil
}

// timeLayout is fixed width so stored timestamps sort lexically.
const timeLayout = "2006-01-02T15:04:05.000000000Z07:00"

func formatTime(t time.Time) string {
	return t.UTC().Format(timeLayout)
}

func parseTime(value string) time.Time {
	ts, err := time.Parse(time.RFC3339Nano, value)
	if err != nil {
		return time.Time{}
	}
	return ts
}
