package journal

import (
	"database/sql"

	"github.com/AlessandroHultman/fp-analysis/errors"
)

// Store handles persistence of runs and per-file outcomes
type Store struct {
	db *sql.DB
}

// NewStore creates a journal store over an open database
func NewStore(db *sql.DB) *Store {
	return &Store{db: db}
}

// CreateRun inserts a new run row
func (s *Store) CreateRun(run *Run) error {
	query := `
		INSERT INTO runs (
			id, root, langs,
			files_found, files_succeeded, files_failed,
			status, started_at
		) VALUES (?, ?, ?, ?, ?, ?, ?, ?)
	`

	_, err := s.db.Exec(query,
		run.ID,
		run.Root,
		run.Langs,
		run.FilesFound,
		run.FilesSucceeded,
		run.FilesFailed,
		run.Status,
		run.StartedAt,
	)
	if err != nil {
		return errors.Wrap(err, "failed to create run")
	}

	return nil
}

// FinishRun updates the run's final counts, status and finish time
func (s *Store) FinishRun(run *Run) error {
	query := `
		UPDATE runs
		SET files_found = ?,
		    files_succeeded = ?,
		    files_failed = ?,
		    status = ?,
		    finished_at = ?
		WHERE id = ?
	`

	_, err := s.db.Exec(query,
		run.FilesFound,
		run.FilesSucceeded,
		run.FilesFailed,
		run.Status,
		run.FinishedAt,
		run.ID,
	)
	if err != nil {
		return errors.Wrap(err, "failed to finish run")
	}

	return nil
}

// RecordFile inserts one file outcome row
func (s *Store) RecordFile(rec *FileRecord) error {
	query := `
		INSERT INTO run_files (
			run_id, path, language, stage, status, error, duration_ms
		) VALUES (?, ?, ?, ?, ?, ?, ?)
	`

	_, err := s.db.Exec(query,
		rec.RunID,
		rec.Path,
		rec.Language,
		rec.Stage,
		rec.Status,
		rec.Error,
		rec.DurationMS,
	)
	if err != nil {
		return errors.Wrap(err, "failed to record file outcome")
	}

	return nil
}

// GetRun retrieves a run by ID
func (s *Store) GetRun(id string) (*Run, error) {
	query := `
		SELECT id, root, langs, files_found, files_succeeded, files_failed,
		       status, started_at, finished_at
		FROM runs WHERE id = ?
	`

	var run Run
	var finishedAt sql.NullTime
	err := s.db.QueryRow(query, id).Scan(
		&run.ID,
		&run.Root,
		&run.Langs,
		&run.FilesFound,
		&run.FilesSucceeded,
		&run.FilesFailed,
		&run.Status,
		&run.StartedAt,
		&finishedAt,
	)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, errors.Newf("run not found: %s", id)
	}
	if err != nil {
		return nil, errors.Wrap(err, "failed to get run")
	}
	if finishedAt.Valid {
		t := finishedAt.Time
		run.FinishedAt = &t
	}

	return &run, nil
}

// ListRuns returns the most recent runs, newest first
func (s *Store) ListRuns(limit int) ([]*Run, error) {
	query := `
		SELECT id, root, langs, files_found, files_succeeded, files_failed,
		       status, started_at, finished_at
		FROM runs ORDER BY started_at DESC LIMIT ?
	`

	rows, err := s.db.Query(query, limit)
	if err != nil {
		return nil, errors.Wrap(err, "failed to list runs")
	}
	defer rows.Close()

	var runs []*Run
	for rows.Next() {
		var run Run
		var finishedAt sql.NullTime
		if err := rows.Scan(
			&run.ID,
			&run.Root,
			&run.Langs,
			&run.FilesFound,
			&run.FilesSucceeded,
			&run.FilesFailed,
			&run.Status,
			&run.StartedAt,
			&finishedAt,
		); err != nil {
			return nil, errors.Wrap(err, "failed to scan run")
		}
		if finishedAt.Valid {
			t := finishedAt.Time
			run.FinishedAt = &t
		}
		runs = append(runs, &run)
	}

	return runs, rows.Err()
}

// ListFiles returns the file outcomes for a run
func (s *Store) ListFiles(runID string) ([]*FileRecord, error) {
	query := `
		SELECT run_id, path, language, stage, status, error, duration_ms
		FROM run_files WHERE run_id = ? ORDER BY path
	`

	rows, err := s.db.Query(query, runID)
	if err != nil {
		return nil, errors.Wrap(err, "failed to list run files")
	}
	defer rows.Close()

	var records []*FileRecord
	for rows.Next() {
		var rec FileRecord
		if err := rows.Scan(
			&rec.RunID,
			&rec.Path,
			&rec.Language,
			&rec.Stage,
			&rec.Status,
			&rec.Error,
			&rec.DurationMS,
		); err != nil {
			return nil, errors.Wrap(err, "failed to scan run file")
		}
		records = append(records, &rec)
	}

	return records, rows.Err()
}
