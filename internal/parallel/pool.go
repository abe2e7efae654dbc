package parallel

import (
	"context"
	"fmt"
	"sync"
	"time"

	"golang.org/x/sync/semaphore"

	"github.com/nibzard/taxocard/internal/validator"
)

// TaskResult is the outcome of one submitted card.
type TaskResult struct {
	TaskID   string
	Result   validator.Result
	Error    error
	Duration time.Duration
	// Skipped is set when the task never ran because the pool was cancelled.
	Skipped bool
}

// TaskFunc validates one card.
type TaskFunc func(ctx context.Context) (validator.Result, error)

// WorkerPool runs validations with bounded concurrency and keeps their
// results in submission order.
type WorkerPool struct {
	maxWorkers int
	sem        *semaphore.Weighted // nil when unbounded
	failFast   bool

	ctx    context.Context
	cancel context.CancelFunc
	wg     sync.WaitGroup

	mu      sync.Mutex
	results []TaskResult
	errs    []error
}

// NewWorkerPool creates a pool running at most maxWorkers tasks at once.
// Zero or a negative count means no bound. With failFast the first task
// error cancels everything not yet started.
func NewWorkerPool(ctx context.Context, maxWorkers int, failFast bool) *WorkerPool {
	p := &WorkerPool{
		maxWorkers: max(maxWorkers, 0),
		failFast:   failFast,
	}
	if p.maxWorkers > 0 {
		p.sem = semaphore.NewWeighted(int64(p.maxWorkers))
	}
	p.ctx, p.cancel = context.WithCancel(ctx)
	return p
}

// Submit schedules fn and returns at once. Its slot in the results is
// reserved now, so Wait reports it in the order of submission.
func (p *WorkerPool) Submit(taskID string, fn TaskFunc) {
	p.mu.Lock()
	slot := len(p.results)
	p.results = append(p.results, TaskResult{TaskID: taskID, Skipped: true})
	p.mu.Unlock()

	if p.ctx.Err() != nil {
		return
	}
	p.wg.Add(1)
	go p.run(slot, taskID, fn)
}

func (p *WorkerPool) run(slot int, taskID string, fn TaskFunc) {
	defer p.wg.Done()

	if p.sem != nil {
		if err := p.sem.Acquire(p.ctx, 1); err != nil {
			return
		}
		defer p.sem.Release(1)
	}
	// A slot may free up just as the pool is cancelled.
	if p.ctx.Err() != nil {
		return
	}

	start := time.Now()
	res, err := fn(p.ctx)
	elapsed := time.Since(start)

	p.mu.Lock()
	defer p.mu.Unlock()
	p.results[slot] = TaskResult{TaskID: taskID, Result: res, Error: err, Duration: elapsed}
	if err == nil {
		return
	}
	p.errs = append(p.errs, fmt.Errorf("%s: %w", taskID, err))
	if p.failFast {
		p.cancel()
	}
}

// Wait blocks until every started task is done, releases the pool and
// returns results in submission order along with the task errors.
func (p *WorkerPool) Wait() ([]TaskResult, []error) {
	p.wg.Wait()
	p.cancel()
	return p.snapshot()
}

// Results returns the results recorded so far without waiting.
func (p *WorkerPool) Results() []TaskResult {
	results, _ := p.snapshot()
	return results
}

// Cancel stops tasks that have not started yet. Running tasks see their
// context cancelled.
func (p *WorkerPool) Cancel() {
	p.cancel()
}

func (p *WorkerPool) snapshot() ([]TaskResult, []error) {
	p.mu.Lock()
	defer p.mu.Unlock()
	return append([]TaskResult(nil), p.results...), append([]error(nil), p.errs...)
}
