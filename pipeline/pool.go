package pipeline

import (
	"runtime"
	"sync"

	"github.com/shirou/gopsutil/v3/cpu"
	"go.uber.org/zap"
)

// Executor runs one task's full pipeline and reports its outcome.
type Executor interface {
	Execute(task Task) Outcome
}

// WorkerPool executes tasks concurrently, bounded by host parallelism.
// Tasks are mutually independent; the only cross-task synchronization is
// the janitor's per-language aggregate lock.
type WorkerPool struct {
	workers  int
	executor Executor
	tasks    chan Task
	outcomes chan Outcome
	wg       sync.WaitGroup
	log      *zap.SugaredLogger
}

// NewWorkerPool creates a pool of the given size. workers <= 0 sizes the
// pool from the host's physical CPU count.
func NewWorkerPool(workers int, executor Executor, log *zap.SugaredLogger) *WorkerPool {
	if workers <= 0 {
		workers = hostWorkers()
	}
	return &WorkerPool{
		workers:  workers,
		executor: executor,
		tasks:    make(chan Task, workers*2),
		outcomes: make(chan Outcome, workers*2),
		log:      log.Named("pool"),
	}
}

// Start spawns the workers. The outcomes channel closes once Close() has
// been called and every in-flight task has finished.
func (wp *WorkerPool) Start() {
	wp.log.Debugw("Starting worker pool", "workers", wp.workers)
	for i := 0; i < wp.workers; i++ {
		wp.wg.Add(1)
		go wp.worker(i)
	}
	go func() {
		wp.wg.Wait()
		close(wp.outcomes)
	}()
}

// Submit hands one task to the pool. It blocks only when every worker is
// busy and the handoff buffer is full.
func (wp *WorkerPool) Submit(task Task) {
	wp.tasks <- task
}

// Close signals that no further tasks will be submitted. In-flight tasks
// are allowed to finish.
func (wp *WorkerPool) Close() {
	close(wp.tasks)
}

// Outcomes returns the stream of task results.
func (wp *WorkerPool) Outcomes() <-chan Outcome {
	return wp.outcomes
}

// Workers returns the pool size.
func (wp *WorkerPool) Workers() int {
	return wp.workers
}

func (wp *WorkerPool) worker(id int) {
	defer wp.wg.Done()
	for task := range wp.tasks {
		wp.log.Debugw("Worker picked up task", "worker_id", id, "path", task.Source.RelPath)
		wp.outcomes <- wp.executor.Execute(task)
	}
}

// hostWorkers sizes the pool from the physical CPU count; the workload is
// dominated by external tool processes, so hyperthread siblings add
// little.
func hostWorkers() int {
	if n, err := cpu.Counts(false); err == nil && n > 0 {
		return n
	}
	return runtime.NumCPU()
}
