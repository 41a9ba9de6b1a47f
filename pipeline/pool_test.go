package pipeline

import (
	"sync/atomic"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap/zaptest"

	"github.com/AlessandroHultman/fp-analysis/lang"
	"github.com/AlessandroHultman/fp-analysis/scan"
)

type countingExecutor struct {
	executed atomic.Int64
}

func (c *countingExecutor) Execute(task Task) Outcome {
	c.executed.Add(1)
	return Outcome{Task: task, Stage: StageDone}
}

func TestWorkerPoolExecutesEveryTask(t *testing.T) {
	exec := &countingExecutor{}
	pool := NewWorkerPool(4, exec, zaptest.NewLogger(t).Sugar())
	pool.Start()

	const n = 50
	go func() {
		for i := 0; i < n; i++ {
			pool.Submit(Task{Source: scan.SourceFile{RelPath: "f.c"}, Profile: lang.Profile{Language: "c"}})
		}
		pool.Close()
	}()

	drained := 0
	for outcome := range pool.Outcomes() {
		require.NoError(t, outcome.Err)
		drained++
	}

	assert.Equal(t, n, drained)
	assert.Equal(t, int64(n), exec.executed.Load())
}

func TestWorkerPoolSizing(t *testing.T) {
	exec := &countingExecutor{}

	pool := NewWorkerPool(3, exec, zaptest.NewLogger(t).Sugar())
	assert.Equal(t, 3, pool.Workers())

	auto := NewWorkerPool(0, exec, zaptest.NewLogger(t).Sugar())
	assert.Greater(t, auto.Workers(), 0, "auto sizing must pick at least one worker")
}

func TestWorkerPoolOutcomesCloseAfterDrain(t *testing.T) {
	pool := NewWorkerPool(2, &countingExecutor{}, zaptest.NewLogger(t).Sugar())
	pool.Start()
	pool.Close()

	_, open := <-pool.Outcomes()
	assert.False(t, open, "outcomes channel must close once all workers exit")
}
