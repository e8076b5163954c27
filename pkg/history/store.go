// Validation run history
// Persists per-run outcome digests in a local sqlite database
package history

import (
	"context"
	"crypto/sha256"
	"database/sql"
	"embed"
	"encoding/hex"
	"errors"
	"fmt"
	"time"

	"github.com/andrewh/tracecheck/pkg/expect"
	"github.com/golang-migrate/migrate/v4"
	migratesqlite "github.com/golang-migrate/migrate/v4/database/sqlite"
	"github.com/golang-migrate/migrate/v4/source/iofs"
	"github.com/google/uuid"
	_ "modernc.org/sqlite" // sqlite driver
)

//go:embed migrations/*.sql
var migrationsFS embed.FS

// Run is one persisted validation outcome.
type Run struct {
	ID           string
	CreatedAt    time.Time
	Source       string
	PassCount    int
	FailureCount int
	Digest       string
	Summary      string
}

// Success reports whether the run had no failures.
func (r Run) Success() bool { return r.FailureCount == 0 }

// Store is a sqlite-backed history of validation runs.
type Store struct {
	db *sql.DB
}

// Open opens (creating if needed) the history database at path and
// applies pending schema migrations.
func Open(path string) (*Store, error) {
	db, err := sql.Open("sqlite", path)
	if err != nil {
		return nil, fmt.Errorf("opening history database: %w", err)
	}
	if err := migrateUp(db); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("migrating history database: %w", err)
	}
	return &Store{db: db}, nil
}

func migrateUp(db *sql.DB) error {
	src, err := iofs.New(migrationsFS, "migrations")
	if err != nil {
		return err
	}
	driver, err := migratesqlite.WithInstance(db, &migratesqlite.Config{})
	if err != nil {
		return err
	}
	m, err := migrate.NewWithInstance("iofs", src, "sqlite", driver)
	if err != nil {
		return err
	}
	if err := m.Up(); err != nil && !errors.Is(err, migrate.ErrNoChange) {
		return err
	}
	return nil
}

// Close closes the underlying database.
func (s *Store) Close() error { return s.db.Close() }

// Save persists one validation report under a fresh run id.
func (s *Store) Save(ctx context.Context, report *expect.Report, source string) (Run, error) {
	run := Run{
		ID:           uuid.NewString(),
		CreatedAt:    time.Now().UTC(),
		Source:       source,
		PassCount:    report.PassCount(),
		FailureCount: report.FailureCount(),
		Digest:       Digest(report),
		Summary:      report.Summary(),
	}

	_, err := s.db.ExecContext(ctx,
		`INSERT INTO runs (id, created_at, source, pass_count, failure_count, digest, summary)
		 VALUES (?, ?, ?, ?, ?, ?, ?)`,
		run.ID, run.CreatedAt.Format(time.RFC3339Nano), run.Source,
		run.PassCount, run.FailureCount, run.Digest, run.Summary)
	if err != nil {
		return Run{}, fmt.Errorf("saving run: %w", err)
	}
	return run, nil
}

// List returns the most recent runs, newest first. A non-positive limit
// means no limit.
func (s *Store) List(ctx context.Context, limit int) ([]Run, error) {
	query := `SELECT id, created_at, source, pass_count, failure_count, digest, summary
	          FROM runs ORDER BY created_at DESC`
	args := []any{}
	if limit > 0 {
		query += " LIMIT ?"
		args = append(args, limit)
	}

	rows, err := s.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("listing runs: %w", err)
	}
	defer rows.Close() //nolint:errcheck // read-only cursor

	var out []Run
	for rows.Next() {
		run, err := scanRun(rows.Scan)
		if err != nil {
			return nil, err
		}
		out = append(out, run)
	}
	return out, rows.Err()
}

// Get fetches one run by id.
func (s *Store) Get(ctx context.Context, id string) (Run, error) {
	row := s.db.QueryRowContext(ctx,
		`SELECT id, created_at, source, pass_count, failure_count, digest, summary
		 FROM runs WHERE id = ?`, id)
	run, err := scanRun(row.Scan)
	if errors.Is(err, sql.ErrNoRows) {
		return Run{}, fmt.Errorf("run %s not found", id)
	}
	return run, err
}

func scanRun(scan func(dest ...any) error) (Run, error) {
	var run Run
	var createdAt string
	if err := scan(&run.ID, &createdAt, &run.Source, &run.PassCount,
		&run.FailureCount, &run.Digest, &run.Summary); err != nil {
		return Run{}, err
	}
	t, err := time.Parse(time.RFC3339Nano, createdAt)
	if err != nil {
		return Run{}, fmt.Errorf("parsing run timestamp: %w", err)
	}
	run.CreatedAt = t
	return run, nil
}

// Digest produces a stable fingerprint of a report's outcome, so
// identical results across runs can be spotted in the history.
func Digest(report *expect.Report) string {
	h := sha256.New()
	for _, name := range report.Passes {
		fmt.Fprintf(h, "pass\x00%s\x00", name)
	}
	for _, f := range report.Failures {
		fmt.Fprintf(h, "fail\x00%s\x00%s\x00", f.Name, f.Message)
	}
	sum := h.Sum(nil)
	return hex.EncodeToString(sum[:8])
}
