package storage

import (
	"database/sql"
	"fmt"
	"time"

	sq "github.com/Masterminds/squirrel"
	"github.com/google/uuid"

	"github.com/mvp-joe/openvulns/internal/dataset"
)

// RunStats summarizes one extraction run.
type RunStats struct {
	FilesTotal   int
	FilesSkipped int
	Records      int
}

// Run is a stored extraction run.
type Run struct {
	ID         string
	Kind       dataset.Kind
	StartedAt  time.Time
	FinishedAt *time.Time
	Stats      RunStats
	// Error is set when the run aborted.
	Error string
}

// RunStore records extraction runs.
type RunStore struct {
	db *sql.DB
}

// NewRunStore creates a RunStore.
func NewRunStore(db *sql.DB) *RunStore {
	return &RunStore{db: db}
}

// BeginRun inserts a new run of kind and returns its id.
func (s *RunStore) BeginRun(kind dataset.Kind) (string, error) {
	id := uuid.NewString()
	_, err := sq.Insert("runs").
		Columns("run_id", "kind", "started_at").
		Values(id, string(kind), time.Now().UTC().Format(time.RFC3339Nano)).
		RunWith(s.db).
		Exec()
	if err != nil {
		return "", fmt.Errorf("failed to begin run: %w", err)
	}
	return id, nil
}

// FinishRun stamps the run's completion time and stats.
func (s *RunStore) FinishRun(id string, stats RunStats) error {
	return s.finish(id, stats, nil)
}

// FailRun closes a run that aborted, recording cause.
func (s *RunStore) FailRun(id string, stats RunStats, cause error) error {
	msg := "unknown error"
	if cause != nil {
		msg = cause.Error()
	}
	return s.finish(id, stats, &msg)
}

func (s *RunStore) finish(id string, stats RunStats, cause *string) error {
	res, err := sq.Update("runs").
		Set("finished_at", time.Now().UTC().Format(time.RFC3339Nano)).
		Set("files_total", stats.FilesTotal).
		Set("files_skipped", stats.FilesSkipped).
		Set("record_count", stats.Records).
		Set("error", nullableString(cause)).
		Where(sq.Eq{"run_id": id}).
		RunWith(s.db).
		Exec()
	if err != nil {
		return fmt.Errorf("failed to finish run %s: %w", id, err)
	}
	if n, _ := res.RowsAffected(); n == 0 {
		return fmt.Errorf("run %s not found", id)
	}
	return nil
}

// LatestRun returns the most recently started run of kind, or (nil, nil)
// when none exists.
func (s *RunStore) LatestRun(kind dataset.Kind) (*Run, error) {
	var (
		run         Run
		kindStr     string
		startedAt   string
		finishedAt  sql.NullString
		runErr      sql.NullString
		total, skip int
		records     int
	)

	err := sq.Select("run_id", "kind", "started_at", "finished_at", "files_total", "files_skipped", "record_count", "error").
		From("runs").
		Where(sq.Eq{"kind": string(kind)}).
		OrderBy("started_at DESC").
		Limit(1).
		RunWith(s.db).
		QueryRow().
		Scan(&run.ID, &kindStr, &startedAt, &finishedAt, &total, &skip, &records, &runErr)
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to query latest run: %w", err)
	}

	run.Kind = dataset.Kind(kindStr)
	run.StartedAt, _ = time.Parse(time.RFC3339Nano, startedAt)
	if finishedAt.Valid {
		t, _ := time.Parse(time.RFC3339Nano, finishedAt.String)
		run.FinishedAt = &t
	}
	run.Stats = RunStats{FilesTotal: total, FilesSkipped: skip, Records: records}
	run.Error = runErr.String
	return &run, nil
}
