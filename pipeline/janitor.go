package pipeline

import (
	"os"
	"path/filepath"
	"sync"

	"go.uber.org/zap"

	"github.com/AlessandroHultman/fp-analysis/errors"
)

// AggregateFileName is the per-language aggregate file inside each
// results directory. Reports are appended to it as opaque byte streams
// and then deleted; the aggregate itself is never truncated by a run.
const AggregateFileName = "results.csv"

// ResultsDir returns the per-language results directory under the scan
// root.
func ResultsDir(root, language string) string {
	return filepath.Join(root, language+"-results")
}

// Janitor owns ephemeral artifacts after the analysis stage: it merges
// the per-file report into the language aggregate and removes the
// scratch directory (IR, report, everything) on every exit path of a
// task.
//
// Concurrent appends to one language's aggregate are serialized with a
// per-language mutex held for the whole append-and-flush, so entries
// from different files never interleave mid-line.
type Janitor struct {
	log *zap.SugaredLogger

	mu    sync.Mutex
	locks map[string]*sync.Mutex
}

// NewJanitor creates a janitor logging through the given logger.
func NewJanitor(log *zap.SugaredLogger) *Janitor {
	return &Janitor{
		log:   log.Named("janitor"),
		locks: make(map[string]*sync.Mutex),
	}
}

// Merge ensures the language's results directory exists, appends the
// task's report to the aggregate and deletes the report. A missing
// report is recoverable: it is reported and the worker continues.
func (j *Janitor) Merge(task Task, scratch string) error {
	dir := ResultsDir(task.Source.Root, task.Profile.Language)
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return errors.Wrap(err, "create results directory")
	}

	report := filepath.Join(scratch, task.BaseName()+".csv")
	data, err := os.ReadFile(report)
	if err != nil {
		if os.IsNotExist(err) {
			return errors.Wrapf(errors.ErrMissingReport, "%s", task.Source.RelPath)
		}
		return errors.Wrap(err, "read report artifact")
	}

	if err := j.appendAggregate(dir, data); err != nil {
		return err
	}

	// Ownership of the report transferred here; merged reports are
	// transient within the results flow.
	if err := os.Remove(report); err != nil {
		j.log.Warnw("Failed to remove merged report", "path", report, "error", err)
	}
	return nil
}

// Cleanup removes the task's scratch directory and everything in it.
// Called on every exit path — success, frontend failure, analysis
// failure or timeout — so no IR or report artifact outlives its task.
func (j *Janitor) Cleanup(scratch string) {
	if err := os.RemoveAll(scratch); err != nil {
		j.log.Warnw("Failed to remove scratch directory", "path", scratch, "error", err)
	}
}

// appendAggregate appends one report to the language aggregate under the
// per-language lock. Reports are opaque bytes; the only guarantee added
// is a trailing newline so two reports never share a line.
func (j *Janitor) appendAggregate(dir string, data []byte) error {
	lock := j.lockFor(dir)
	lock.Lock()
	defer lock.Unlock()

	path := filepath.Join(dir, AggregateFileName)
	f, err := os.OpenFile(path, os.O_CREATE|os.O_WRONLY|os.O_APPEND, 0o644)
	if err != nil {
		return errors.Wrap(err, "open aggregate file")
	}
	defer f.Close()

	if _, err := f.Write(data); err != nil {
		return errors.Wrap(err, "append to aggregate file")
	}
	if len(data) > 0 && data[len(data)-1] != '\n' {
		if _, err := f.Write([]byte{'\n'}); err != nil {
			return errors.Wrap(err, "append to aggregate file")
		}
	}
	if err := f.Sync(); err != nil {
		return errors.Wrap(err, "flush aggregate file")
	}
	return nil
}

func (j *Janitor) lockFor(dir string) *sync.Mutex {
	j.mu.Lock()
	defer j.mu.Unlock()
	lock, ok := j.locks[dir]
	if !ok {
		lock = &sync.Mutex{}
		j.locks[dir] = lock
	}
	return lock
}
