package pipeline

import (
	"context"
	"crypto/sha256"
	"encoding/hex"
	"os"
	"path/filepath"
	"time"

	"go.uber.org/zap"

	"github.com/AlessandroHultman/fp-analysis/errors"
	"github.com/AlessandroHultman/fp-analysis/journal"
	"github.com/AlessandroHultman/fp-analysis/lang"
	"github.com/AlessandroHultman/fp-analysis/scan"
)

// Driver composes the scanner's stream into pool tasks, drains the pool
// and reports a summary. One Driver handles one run at a time.
type Driver struct {
	registry *lang.Registry
	scanner  *scan.Scanner
	invoker  *Invoker
	janitor  *Janitor
	journal  *journal.Journal // nil = journaling disabled
	workers  int
	log      *zap.SugaredLogger
}

// NewDriver wires the pipeline components together.
func NewDriver(registry *lang.Registry, scanner *scan.Scanner, invoker *Invoker, janitor *Janitor, jrnl *journal.Journal, workers int, log *zap.SugaredLogger) *Driver {
	return &Driver{
		registry: registry,
		scanner:  scanner,
		invoker:  invoker,
		janitor:  janitor,
		journal:  jrnl,
		workers:  workers,
		log:      log.Named("driver"),
	}
}

// Run scans root for files of the requested languages and pushes each
// through the frontend → analysis → janitor pipeline concurrently.
//
// Only an invalid root is fatal. Unknown language tokens are reported and
// contribute zero scheduled files; unsupported extensions are silently
// skipped; per-file toolchain failures are logged, counted and contained.
// Cancelling ctx stops submission — tasks already submitted finish.
func (d *Driver) Run(ctx context.Context, root string, tokens []string) (*Summary, error) {
	absRoot, err := scan.ValidateRoot(root)
	if err != nil {
		return nil, err
	}

	exts, unknown := lang.ResolveTokens(tokens)
	for _, token := range unknown {
		d.log.Warnw("Ignoring unknown language", "token", token, "error", errors.ErrUnknownLanguage)
	}
	if len(tokens) > 0 && len(exts) == 0 {
		d.log.Warnw("No recognized languages requested; nothing to scan")
		return &Summary{}, nil
	}

	stream, err := d.scanner.Stream(ctx, absRoot, exts)
	if err != nil {
		return nil, err
	}

	// Every task gets its own scratch working directory under this
	// run-scoped root, so identically-named sources from different
	// subdirectories can never collide on an artifact path.
	scratchRoot, err := os.MkdirTemp("", "fpscan-*")
	if err != nil {
		return nil, err
	}
	defer os.RemoveAll(scratchRoot)

	run := journal.NewRun(absRoot, tokens)
	d.journal.RunStarted(run)

	pool := NewWorkerPool(d.workers, &taskExecutor{driver: d, scratchRoot: scratchRoot}, d.log)
	pool.Start()

	start := time.Now()
	summary := &Summary{}

	collected := make(chan struct{})
	go func() {
		defer close(collected)
		for outcome := range pool.Outcomes() {
			d.collect(run.ID, outcome, summary)
		}
	}()

	interrupted := false
submit:
	for {
		select {
		case <-ctx.Done():
			interrupted = true
			d.log.Warnw("Run interrupted; submitted tasks will drain, no new tasks accepted")
			break submit
		case sf, ok := <-stream:
			if !ok {
				break submit
			}
			profile, supported := d.registry.Lookup(sf.Ext)
			if !supported {
				// Unsupported extension: not an error, not a failure.
				summary.Skipped++
				continue
			}
			summary.Found++
			pool.Submit(Task{Source: sf, Profile: profile})
		}
	}

	// The stream also watches ctx and may close before the select above
	// observes the cancellation.
	if ctx.Err() != nil {
		interrupted = true
	}

	pool.Close()
	<-collected
	summary.Duration = time.Since(start)

	run.FilesFound = summary.Found
	run.FilesSucceeded = summary.Succeeded
	run.FilesFailed = summary.Failed
	run.Status = journal.RunStatusCompleted
	if interrupted {
		run.Status = journal.RunStatusInterrupted
	}
	d.journal.RunFinished(run)

	d.log.Infow("Run complete",
		"root", absRoot,
		"found", summary.Found,
		"succeeded", summary.Succeeded,
		"failed", summary.Failed,
		"missing_reports", summary.MissingReports,
		"skipped", summary.Skipped,
		"duration", summary.Duration.Round(time.Millisecond),
	)
	return summary, nil
}

// collect tallies one outcome and journals it.
func (d *Driver) collect(runID string, outcome Outcome, summary *Summary) {
	rec := &journal.FileRecord{
		RunID:      runID,
		Path:       outcome.Task.Source.RelPath,
		Language:   outcome.Task.Profile.Language,
		Stage:      string(outcome.Stage),
		Status:     journal.FileStatusOK,
		DurationMS: outcome.Duration.Milliseconds(),
	}

	switch {
	case errors.Is(outcome.Err, errors.ErrMissingReport):
		// The toolchain ran clean but left nothing to merge. Not a
		// failure; the file simply contributes no aggregate entry.
		summary.MissingReports++
		rec.Status = journal.FileStatusNoReport
		rec.Error = outcome.Err.Error()
		d.log.Warnw("Missing result artifact",
			"path", outcome.Task.Source.RelPath,
			"language", outcome.Task.Profile.Language,
		)
	case outcome.Failed():
		summary.Failed++
		rec.Status = journal.FileStatusFailed
		rec.Error = outcome.Err.Error()
		d.log.Errorw("File pipeline failed",
			"path", outcome.Task.Source.RelPath,
			"stage", outcome.Stage,
			"error", outcome.Err,
		)
	default:
		summary.Succeeded++
		d.log.Infow("File analyzed",
			"path", outcome.Task.Source.RelPath,
			"language", outcome.Task.Profile.Language,
			"duration", outcome.Duration.Round(time.Millisecond),
		)
	}

	d.journal.FileDone(rec)
}

// taskExecutor runs one task end to end inside its scratch directory.
type taskExecutor struct {
	driver      *Driver
	scratchRoot string
}

// Execute runs frontend → analysis → merge for one file. The scratch
// directory is removed on every exit path, so the IR artifact (and any
// unmerged report) never outlives the task.
func (e *taskExecutor) Execute(task Task) Outcome {
	d := e.driver
	start := time.Now()

	scratch := filepath.Join(e.scratchRoot, scratchStem(task.Source))
	if err := os.MkdirAll(scratch, 0o755); err != nil {
		return Outcome{Task: task, Stage: StageFrontend, Err: err, Duration: time.Since(start)}
	}
	defer d.janitor.Cleanup(scratch)

	ir, err := d.invoker.EmitIR(task, scratch)
	if err != nil {
		return Outcome{Task: task, Stage: StageFrontend, Err: err, Duration: time.Since(start)}
	}

	if err := d.invoker.Analyze(ir, scratch); err != nil {
		return Outcome{Task: task, Stage: StageAnalysis, Err: err, Duration: time.Since(start)}
	}

	if err := d.janitor.Merge(task, scratch); err != nil {
		return Outcome{Task: task, Stage: StageMerge, Err: err, Duration: time.Since(start)}
	}

	return Outcome{Task: task, Stage: StageDone, Duration: time.Since(start)}
}

// scratchStem derives a stable scratch directory name from the source's
// root-relative path, so reruns of the same file land in the same place
// and distinct files never share one.
func scratchStem(sf scan.SourceFile) string {
	sum := sha256.Sum256([]byte(sf.RelPath))
	return hex.EncodeToString(sum[:8])
}
