// Package journal persists run outcomes to the SQLite journal so past
// analysis runs can be listed and inspected from the CLI.
package journal

import (
	"strings"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"
)

// RunStatus describes the lifecycle state of a recorded run.
type RunStatus string

const (
	RunStatusRunning     RunStatus = "running"
	RunStatusCompleted   RunStatus = "completed"
	RunStatusInterrupted RunStatus = "interrupted"
)

// File record statuses.
const (
	FileStatusOK       = "ok"
	FileStatusFailed   = "failed"
	FileStatusNoReport = "no-report"
)

// Run is one invocation of the scan pipeline.
type Run struct {
	ID             string
	Root           string
	Langs          string // comma-joined requested tokens, empty = all
	FilesFound     int
	FilesSucceeded int
	FilesFailed    int
	Status         RunStatus
	StartedAt      time.Time
	FinishedAt     *time.Time
}

// FileRecord is the outcome of one file's pipeline.
type FileRecord struct {
	RunID      string
	Path       string
	Language   string
	Stage      string // pipeline stage reached: frontend, analysis, merge, done
	Status     string // ok | failed
	Error      string
	DurationMS int64
}

// NewRun creates a run row ready for CreateRun.
func NewRun(root string, langs []string) *Run {
	return &Run{
		ID:        "RN_" + uuid.New().String(),
		Root:      root,
		Langs:     strings.Join(langs, ","),
		Status:    RunStatusRunning,
		StartedAt: time.Now().UTC(),
	}
}

// Journal wraps a Store with best-effort semantics: journal failures are
// logged and never propagate into the scan itself. A nil *Journal is a
// valid no-op recorder.
type Journal struct {
	store *Store
	log   *zap.SugaredLogger
}

// New creates a best-effort journal over the store.
func New(store *Store, log *zap.SugaredLogger) *Journal {
	return &Journal{store: store, log: log.Named("journal")}
}

// RunStarted records the run row.
func (j *Journal) RunStarted(run *Run) {
	if j == nil {
		return
	}
	if err := j.store.CreateRun(run); err != nil {
		j.log.Warnw("Failed to record run start", "run_id", run.ID, "error", err)
	}
}

// FileDone records one file outcome.
func (j *Journal) FileDone(rec *FileRecord) {
	if j == nil {
		return
	}
	if err := j.store.RecordFile(rec); err != nil {
		j.log.Warnw("Failed to record file outcome", "run_id", rec.RunID, "path", rec.Path, "error", err)
	}
}

// RunFinished records the final counts and status.
func (j *Journal) RunFinished(run *Run) {
	if j == nil {
		return
	}
	now := time.Now().UTC()
	run.FinishedAt = &now
	if err := j.store.FinishRun(run); err != nil {
		j.log.Warnw("Failed to record run finish", "run_id", run.ID, "error", err)
	}
}
