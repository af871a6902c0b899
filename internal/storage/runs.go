package storage

import (
	"database/sql"
	"encoding/json"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"

	"mftfcheck/internal/breaking"
	ckerrors "mftfcheck/internal/errors"
)

// Run is one recorded comparison
type Run struct {
	ID           string    `json:"id"`
	CreatedAt    time.Time `json:"createdAt"`
	Before       string    `json:"before"`
	After        string    `json:"after"`
	SemverAdvice string    `json:"semverAdvice"`
	Major        int       `json:"major"`
	Minor        int       `json:"minor"`
	Patch        int       `json:"patch"`
	Suppressed   int       `json:"suppressed"`
	TotalBefore  int       `json:"totalBefore"`
	TotalAfter   int       `json:"totalAfter"`
	DurationMs   int64     `json:"durationMs"`
}

// OperationRecord is a stored operation of a run
type OperationRecord struct {
	Context string `json:"context"`
	breaking.Operation
}

// RunRepository provides access to recorded runs
type RunRepository struct {
	db *DB
}

// NewRunRepository creates a new run repository
func NewRunRepository(db *DB) *RunRepository {
	return &RunRepository{db: db}
}

// NewRun builds a run record for report. The ID and timestamp are assigned here.
func NewRun(before, after string, report *breaking.Report, totalBefore, totalAfter, suppressed int, duration time.Duration) *Run {
	summary := report.Summary()
	return &Run{
		ID:           uuid.New().String(),
		CreatedAt:    time.Now().UTC(),
		Before:       before,
		After:        after,
		SemverAdvice: summary.SemverAdvice(),
		Major:        summary.Major,
		Minor:        summary.Minor,
		Patch:        summary.Patch,
		Suppressed:   suppressed,
		TotalBefore:  totalBefore,
		TotalAfter:   totalAfter,
		DurationMs:   duration.Milliseconds(),
	}
}

// Create stores run together with every operation of report, in order.
func (r *RunRepository) Create(run *Run, report *breaking.Report) error {
	if run.ID == "" {
		run.ID = uuid.New().String()
	}
	err := r.db.WithTx(func(tx *sql.Tx) error {
		_, err := tx.Exec(`
			INSERT INTO runs (id, created_at, before_ref, after_ref, semver_advice,
				major, minor, patch, suppressed, total_before, total_after, duration_ms)
			VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)
		`, run.ID, run.CreatedAt.UTC().Format(timeLayout), run.Before, run.After, run.SemverAdvice,
			run.Major, run.Minor, run.Patch, run.Suppressed, run.TotalBefore, run.TotalAfter, run.DurationMs)
		if err != nil {
			return fmt.Errorf("failed to insert run: %w", err)
		}

		stmt, err := tx.Prepare(`
			INSERT INTO operations (run_id, seq, context, code, severity, target, reason, sources_json)
			VALUES (?, ?, ?, ?, ?, ?, ?, ?)
		`)
		if err != nil {
			return err
		}
		defer stmt.Close()

		seq := 0
		var insertErr error
		report.Each(func(context string, op breaking.Operation) {
			if insertErr != nil {
				return
			}
			var sources interface{}
			if len(op.SourceLocations) > 0 {
				data, err := json.Marshal(op.SourceLocations)
				if err != nil {
					insertErr = err
					return
				}
				sources = string(data)
			}
			_, insertErr = stmt.Exec(run.ID, seq, context, op.Code, string(op.Severity), op.Target, op.Reason, sources)
			seq++
		})
		if insertErr != nil {
			return fmt.Errorf("failed to insert operation: %w", insertErr)
		}
		return nil
	})
	if err != nil {
		return ckerrors.New(ckerrors.StorageFailure, "failed to record run", err)
	}
	return nil
}

// Get returns the run with the given id. A unique id prefix is accepted.
func (r *RunRepository) Get(id string) (*Run, error) {
	rows, err := r.db.Query(runSelect+` WHERE id = ? OR id LIKE ? ESCAPE '\' ORDER BY id LIMIT 2`, id, likePrefix(id))
	if err != nil {
		return nil, ckerrors.New(ckerrors.StorageFailure, "failed to query run", err)
	}
	runs, err := scanRuns(rows)
	if err != nil {
		return nil, err
	}

	for _, run := range runs {
		if run.ID == id {
			return run, nil
		}
	}
	switch len(runs) {
	case 0:
		return nil, ckerrors.Newf(ckerrors.RunNotFound, "run %q not found", id)
	case 1:
		return runs[0], nil
	}
	return nil, ckerrors.Newf(ckerrors.RunNotFound, "run id prefix %q is ambiguous", id)
}

// List returns the most recent runs, newest first. limit <= 0 means all.
func (r *RunRepository) List(limit int) ([]*Run, error) {
	query := runSelect + " ORDER BY created_at DESC, id"
	var args []interface{}
	if limit > 0 {
		query += " LIMIT ?"
		args = append(args, limit)
	}
	rows, err := r.db.Query(query, args...)
	if err != nil {
		return nil, ckerrors.New(ckerrors.StorageFailure, "failed to list runs", err)
	}
	return scanRuns(rows)
}

// Operations returns the stored operations of run id in report order.
func (r *RunRepository) Operations(id string) ([]OperationRecord, error) {
	rows, err := r.db.Query(`
		SELECT context, code, severity, target, reason, sources_json
		FROM operations WHERE run_id = ? ORDER BY seq
	`, id)
	if err != nil {
		return nil, ckerrors.New(ckerrors.StorageFailure, "failed to query operations", err)
	}
	defer rows.Close()

	var ops []OperationRecord
	for rows.Next() {
		var rec OperationRecord
		var severity string
		var sources sql.NullString
		if err := rows.Scan(&rec.Context, &rec.Code, &severity, &rec.Target, &rec.Reason, &sources); err != nil {
			return nil, ckerrors.New(ckerrors.StorageFailure, "failed to scan operation", err)
		}
		rec.Severity = breaking.Severity(severity)
		if kind, ok := breaking.KindByCode(rec.Code); ok {
			rec.Kind = kind
		}
		if sources.Valid {
			if err := json.Unmarshal([]byte(sources.String), &rec.SourceLocations); err != nil {
				return nil, ckerrors.New(ckerrors.StorageFailure, "corrupt source locations", err)
			}
		}
		ops = append(ops, rec)
	}
	if err := rows.Err(); err != nil {
		return nil, ckerrors.New(ckerrors.StorageFailure, "failed to read operations", err)
	}
	return ops, nil
}

// Delete removes a run and its operations
func (r *RunRepository) Delete(id string) error {
	return r.db.WithTx(func(tx *sql.Tx) error {
		res, err := tx.Exec("DELETE FROM runs WHERE id = ?", id)
		if err != nil {
			return ckerrors.New(ckerrors.StorageFailure, "failed to delete run", err)
		}
		if n, _ := res.RowsAffected(); n == 0 {
			return ckerrors.Newf(ckerrors.RunNotFound, "run %q not found", id)
		}
		return nil
	})
}

// Prune keeps the newest keep runs and deletes the rest, returning how many
// runs were removed.
func (r *RunRepository) Prune(keep int) (int, error) {
	var removed int64
	err := r.db.WithTx(func(tx *sql.Tx) error {
		res, err := tx.Exec(`
			DELETE FROM runs WHERE id NOT IN (
				SELECT id FROM runs ORDER BY created_at DESC, id LIMIT ?
			)
		`, keep)
		if err != nil {
			return err
		}
		removed, err = res.RowsAffected()
		return err
	})
	if err != nil {
		return 0, ckerrors.New(ckerrors.StorageFailure, "failed to prune runs", err)
	}
	return int(removed), nil
}

// timeLayout is fixed-width so created_at sorts chronologically as text.
const timeLayout = "2006-01-02T15:04:05.000000000Z"

const runSelect = `
	SELECT id, created_at, before_ref, after_ref, semver_advice,
		major, minor, patch, suppressed, total_before, total_after, duration_ms
	FROM runs`

func scanRuns(rows *sql.Rows) ([]*Run, error) {
	defer rows.Close()

	var runs []*Run
	for rows.Next() {
		var run Run
		var created string
		if err := rows.Scan(&run.ID, &created, &run.Before, &run.After, &run.SemverAdvice,
			&run.Major, &run.Minor, &run.Patch, &run.Suppressed, &run.TotalBefore, &run.TotalAfter, &run.DurationMs); err != nil {
			return nil, ckerrors.New(ckerrors.StorageFailure, "failed to scan run", err)
		}
		t, err := time.Parse(timeLayout, created)
		if err != nil {
			return nil, ckerrors.New(ckerrors.StorageFailure, "corrupt run timestamp", err)
		}
		run.CreatedAt = t
		runs = append(runs, &run)
	}
	if err := rows.Err(); err != nil {
		return nil, ckerrors.New(ckerrors.StorageFailure, "failed to read runs", err)
	}
	return runs, nil
}

var likeEscaper = strings.NewReplacer(`\`, `\\`, `%`, `\%`, `_`, `\_`)

// likePrefix builds a LIKE pattern matching values that start with prefix.
func likePrefix(prefix string) string {
	return likeEscaper.Replace(prefix) + "%"
}
