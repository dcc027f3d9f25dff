package catalog

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strings"
	"time"
)

// ErrRunNotFound is returned when a run id has no catalog record.
var ErrRunNotFound = errors.New("run not found")

// Run is one recorded reaction search.
type Run struct {
	ID          string
	Initial     string
	FinalStates []string
	Fingerprint string
	Problems    int
	Transitions int
	Truncated   bool
	CreatedAt   time.Time
}

// Filter restricts ListRuns. Zero values match everything.
type Filter struct {
	Initial   string
	Truncated *bool
	Limit     int
}

// WriteRun inserts one run record. Duplicate run ids are silently ignored;
// a run is written once and never amended.
func (s *Store) WriteRun(ctx context.Context, run Run) error {
	if run.ID == "" {
		return fmt.Errorf("write run: empty run id")
	}
	truncated := 0
	if run.Truncated {
		truncated = 1
	}
	_, err := s.db.ExecContext(ctx, `
		INSERT INTO runs
		(id, initial, final_states, fingerprint, problems, transitions, truncated, created_at)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?)
		ON CONFLICT(id) DO NOTHING
	`,
		run.ID,
		run.Initial,
		strings.Join(run.FinalStates, ","),
		run.Fingerprint,
		run.Problems,
		run.Transitions,
		truncated,
		run.CreatedAt.UTC().Format(time.RFC3339Nano),
	)
	if err != nil {
		return fmt.Errorf("write run: %w", err)
	}
	return nil
}

// ReadRun returns the run with the given id, or ErrRunNotFound.
func (s *Store) ReadRun(ctx context.Context, id string) (Run, error) {
	row := s.db.QueryRowContext(ctx, `
		SELECT id, initial, final_states, fingerprint, problems, transitions, truncated, created_at
		FROM runs
		WHERE id = ?
	`, id)
	run, err := scanRun(row)
	if errors.Is(err, sql.ErrNoRows) {
		return Run{}, fmt.Errorf("read run %s: %w", id, ErrRunNotFound)
	}
	if err != nil {
		return Run{}, fmt.Errorf("read run %s: %w", id, err)
	}
	return run, nil
}

// ListRuns returns recorded runs, newest first, with id as tiebreaker so
// equal timestamps still order deterministically.
func (s *Store) ListRuns(ctx context.Context, filter Filter) ([]Run, error) {
	query := `
		SELECT id, initial, final_states, fingerprint, problems, transitions, truncated, created_at
		FROM runs
	`
	var clauses []string
	var args []any
	if filter.Initial != "" {
		clauses = append(clauses, "initial = ?")
		args = append(args, filter.Initial)
	}
	if filter.Truncated != nil {
		clauses = append(clauses, "truncated = ?")
		if *filter.Truncated {
			args = append(args, 1)
		} else {
			args = append(args, 0)
		}
	}
	if len(clauses) > 0 {
		query += " WHERE " + strings.Join(clauses, " AND ")
	}
	query += " ORDER BY created_at DESC, id COLLATE BINARY ASC"
	if filter.Limit > 0 {
		query += " LIMIT ?"
		args = append(args, filter.Limit)
	}

	rows, err := s.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("query runs: %w", err)
	}
	defer rows.Close()

	runs := []Run{}
	for rows.Next() {
		run, err := scanRun(rows)
		if err != nil {
			return nil, fmt.Errorf("scan run: %w", err)
		}
		runs = append(runs, run)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate runs: %w", err)
	}
	return runs, nil
}

type scannable interface {
	Scan(dest ...any) error
}

func scanRun(row scannable) (Run, error) {
	var run Run
	var finals string
	var truncated int
	var createdAt string
	err := row.Scan(&run.ID, &run.Initial, &finals, &run.Fingerprint,
		&run.Problems, &run.Transitions, &truncated, &createdAt)
	if err != nil {
		return Run{}, err
	}
	if finals != "" {
		run.FinalStates = strings.Split(finals, ",")
	}
	run.Truncated = truncated == 1
	run.CreatedAt, err = time.Parse(time.RFC3339Nano, createdAt)
	if err != nil {
		return Run{}, fmt.Errorf("parse created_at: %w", err)
	}
	return run, nil
}
