// Package pipeline runs the per-file analysis sequence — frontend
// lowering, floating-point analysis pass, artifact cleanup and report
// merge — across a bounded pool of concurrent workers.
package pipeline

import (
	"path/filepath"
	"strings"
	"time"

	"github.com/AlessandroHultman/fp-analysis/lang"
	"github.com/AlessandroHultman/fp-analysis/scan"
)

// Stage identifies where in the per-file pipeline an outcome was decided.
type Stage string

const (
	StageFrontend Stage = "frontend"
	StageAnalysis Stage = "analysis"
	StageMerge    Stage = "merge"
	StageDone     Stage = "done"
)

// Task pairs a discovered source file with its toolchain profile.
// Tasks are mutually independent; no task reads another task's output.
type Task struct {
	Source  scan.SourceFile
	Profile lang.Profile
}

// BaseName returns the source file name without its extension. External
// tools derive their artifact names from it.
func (t Task) BaseName() string {
	return strings.TrimSuffix(filepath.Base(t.Source.Path), t.Source.Ext)
}

// Outcome is the result of one task's full pipeline.
type Outcome struct {
	Task     Task
	Stage    Stage // StageDone on success, otherwise the failing stage
	Err      error
	Duration time.Duration
}

// Failed reports whether the task's pipeline failed.
func (o Outcome) Failed() bool {
	return o.Err != nil
}

// Summary aggregates a whole run. It is emitted regardless of how many
// individual files failed.
type Summary struct {
	Found          int // files matched and scheduled
	Succeeded      int
	Failed         int // frontend, analysis or merge failures
	MissingReports int // analysis succeeded but produced no report artifact
	Skipped        int // regular files with no registered toolchain
	Duration       time.Duration
}
