package perf

import (
	"context"
	"sync"
	"sync/atomic"
	"time"
)

// PoolConfig configures a worker pool
type PoolConfig struct {
	WorkerCount int
	QueueSize   int
}

// DefaultPoolConfig returns default configuration
func DefaultPoolConfig() *PoolConfig {
	return &PoolConfig{
		WorkerCount: 8,
		QueueSize:   512,
	}
}

// Pool runs tasks across a bounded set of workers. The batch scoring
// path gets its own pool so bulk load never contends with real-time
// requests.
type Pool[T any, R any] struct {
	config  *PoolConfig
	process func(context.Context, T) (R, error)
	tasks   chan *poolTask[T, R]
	stats   *PoolStats
	wg      sync.WaitGroup

	// mu orders Submit's send against Close's channel close; a send
	// after close would panic.
	mu     sync.RWMutex
	closed bool
}

type poolTask[T any, R any] struct {
	ctx    context.Context
	input  T
	result chan poolResult[R]
}

type poolResult[R any] struct {
	value R
	err   error
}

// PoolStats tracks pool statistics
type PoolStats struct {
	Submitted  int64
	Completed  int64
	Failed     int64
	Dropped    int64
	QueueDepth int64
	totalTime  int64
}

// NewPool creates a pool and starts its workers
func NewPool[T any, R any](config *PoolConfig, process func(context.Context, T) (R, error)) *Pool[T, R] {
	if config == nil {
		config = DefaultPoolConfig()
	}
	p := &Pool[T, R]{
		config:  config,
		process: process,
		tasks:   make(chan *poolTask[T, R], config.QueueSize),
		stats:   &PoolStats{},
	}
	for i := 0; i < config.WorkerCount; i++ {
		p.wg.Add(1)
		go p.worker()
	}
	return p
}

func (p *Pool[T, R]) worker() {
	defer p.wg.Done()

	for task := range p.tasks {
		atomic.AddInt64(&p.stats.QueueDepth, -1)

		if err := task.ctx.Err(); err != nil {
			atomic.AddInt64(&p.stats.Failed, 1)
			task.result <- poolResult[R]{err: err}
			close(task.result)
			continue
		}

		start := time.Now()
		value, err := p.process(task.ctx, task.input)
		atomic.AddInt64(&p.stats.totalTime, time.Since(start).Nanoseconds())
		atomic.AddInt64(&p.stats.Completed, 1)
		if err != nil {
			atomic.AddInt64(&p.stats.Failed, 1)
		}

		task.result <- poolResult[R]{value: value, err: err}
		close(task.result)
	}
}

// Submit queues a task and returns a future for its result
func (p *Pool[T, R]) Submit(ctx context.Context, input T) *Future[R] {
	p.mu.RLock()
	defer p.mu.RUnlock()
	if p.closed {
		return failedFuture[R](ErrPoolClosed)
	}

	task := &poolTask[T, R]{
		ctx:    ctx,
		input:  input,
		result: make(chan poolResult[R], 1),
	}

	select {
	case p.tasks <- task:
		atomic.AddInt64(&p.stats.Submitted, 1)
		atomic.AddInt64(&p.stats.QueueDepth, 1)
		return newFuture(task.result)
	default:
		atomic.AddInt64(&p.stats.Dropped, 1)
		return failedFuture[R](ErrQueueFull)
	}
}

// Stats returns pool statistics
func (p *Pool[T, R]) Stats() *PoolStats {
	return &PoolStats{
		Submitted:  atomic.LoadInt64(&p.stats.Submitted),
		Completed:  atomic.LoadInt64(&p.stats.Completed),
		Failed:     atomic.LoadInt64(&p.stats.Failed),
		Dropped:    atomic.LoadInt64(&p.stats.Dropped),
		QueueDepth: atomic.LoadInt64(&p.stats.QueueDepth),
	}
}

// Close drains the queue and stops the workers
func (p *Pool[T, R]) Close() error {
	p.mu.Lock()
	if p.closed {
		p.mu.Unlock()
		return ErrPoolClosed
	}
	p.closed = true
	close(p.tasks)
	p.mu.Unlock()

	p.wg.Wait()
	return nil
}

// ErrPoolClosed indicates the pool is closed
var ErrPoolClosed = &PoolError{msg: "pool closed"}

// ErrQueueFull indicates the queue is full
var ErrQueueFull = &PoolError{msg: "queue full"}

// PoolError represents a pool error
type PoolError struct {
	msg string
}

func (e *PoolError) Error() string {
	return e.msg
}

// Future represents a pending result
type Future[R any] struct {
	result R
	err    error
	done   chan struct{}
}

func newFuture[R any](resultCh chan poolResult[R]) *Future[R] {
	f := &Future[R]{done: make(chan struct{})}
	go func() {
		result := <-resultCh
		f.result = result.value
		f.err = result.err
		close(f.done)
	}()
	return f
}

func failedFuture[R any](err error) *Future[R] {
	f := &Future[R]{done: make(chan struct{}), err: err}
	close(f.done)
	return f
}

// Get waits for the result or the context
func (f *Future[R]) Get(ctx context.Context) (R, error) {
	select {
	case <-f.done:
		return f.result, f.err
	case <-ctx.Done():
		var zero R
		return zero, ctx.Err()
	}
}
