package scanner

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"sync"
	"sync/atomic"

	"github.com/archbase/archbase-cli/pkg/util"
)

// FileOutcome is what a worker produced for one file. Err is set when the
// file could not be read or parsed; Usages is nil in that case.
type FileOutcome struct {
	Path   string
	Usages []ComponentUsage
	Err    error
}

// AnalyzeFunc turns file contents into usages. It must be safe for
// concurrent use.
type AnalyzeFunc func(path string, content []byte) ([]ComponentUsage, error)

var errPoolClosed = errors.New("worker pool no longer accepts files")

// WorkerPool analyzes files on a fixed set of goroutines and reports one
// FileOutcome per submitted path.
//
//	pool := NewWorkerPool(ctx, 0, cache, analyze, logger)
//	pool.Start()
//	defer pool.Stop()
//	// drain Outcomes() in another goroutine, then Submit paths
//	pool.CloseInput()
//
// Size it like the parser pool; extra workers only wait for a parser.
type WorkerPool struct {
	workers  int
	input    chan string
	outcomes chan FileOutcome
	wg       sync.WaitGroup
	cache    util.SourceCache
	analyze  AnalyzeFunc
	logger   *slog.Logger

	ctx         context.Context
	cancel      context.CancelFunc
	started     atomic.Bool
	stopped     atomic.Bool
	inputClosed atomic.Bool

	submitted atomic.Int64
	analyzed  atomic.Int64
	failed    atomic.Int64
}

// NewWorkerPool creates a pool bound to ctx. workers 0 picks
// util.GetOptimalPoolSize().
func NewWorkerPool(ctx context.Context, workers int, cache util.SourceCache, analyze AnalyzeFunc, logger *slog.Logger) *WorkerPool {
	workers = util.GetOptimalPoolSizeWithOverride(workers)
	ctx, cancel := context.WithCancel(ctx)

	return &WorkerPool{
		workers:  workers,
		input:    make(chan string, workers*2),
		outcomes: make(chan FileOutcome, workers),
		cache:    cache,
		analyze:  analyze,
		logger:   util.OrDefault(logger),
		ctx:      ctx,
		cancel:   cancel,
	}
}

// Start launches the workers once.
func (wp *WorkerPool) Start() {
	if !wp.started.CompareAndSwap(false, true) {
		return
	}
	wp.wg.Add(wp.workers)
	for i := 0; i < wp.workers; i++ {
		go wp.run()
	}
}

func (wp *WorkerPool) run() {
	defer wp.wg.Done()
	for {
		select {
		case <-wp.ctx.Done():
			return
		case path, ok := <-wp.input:
			if !ok {
				return
			}
			out := wp.analyzeOne(path)
			select {
			case wp.outcomes <- out:
			case <-wp.ctx.Done():
				return
			}
		}
	}
}

func (wp *WorkerPool) analyzeOne(path string) FileOutcome {
	content, err := wp.cache.Read(path)
	if err != nil {
		wp.failed.Add(1)
		return FileOutcome{Path: path, Err: fmt.Errorf("read: %w", err)}
	}
	usages, err := wp.analyze(path, content)
	if err != nil {
		wp.failed.Add(1)
		return FileOutcome{Path: path, Err: err}
	}
	wp.analyzed.Add(1)
	return FileOutcome{Path: path, Usages: usages}
}

// Submit queues path, blocking while the queue is full.
func (wp *WorkerPool) Submit(path string) error {
	if wp.stopped.Load() || wp.inputClosed.Load() {
		return errPoolClosed
	}
	select {
	case <-wp.ctx.Done():
		return wp.ctx.Err()
	case wp.input <- path:
		wp.submitted.Add(1)
		return nil
	}
}

func (wp *WorkerPool) Outcomes() <-chan FileOutcome { return wp.outcomes }

// CloseInput signals that no more paths follow. Workers exit once the queue
// drains.
func (wp *WorkerPool) CloseInput() {
	if wp.inputClosed.CompareAndSwap(false, true) {
		close(wp.input)
	}
}

// Stop cancels the workers, waits for them and closes Outcomes.
func (wp *WorkerPool) Stop() {
	if !wp.stopped.CompareAndSwap(false, true) {
		return
	}
	wp.CloseInput()
	wp.cancel()
	wp.wg.Wait()
	close(wp.outcomes)

	st := wp.Stats()
	wp.logger.Debug("worker pool stopped",
		"workers", st.Workers, "submitted", st.Submitted,
		"analyzed", st.Analyzed, "failed", st.Failed)
}

// PoolStats are WorkerPool counters.
type PoolStats struct {
	Workers   int
	Submitted int64
	Analyzed  int64
	Failed    int64
	Queued    int
}

func (wp *WorkerPool) Stats() PoolStats {
	return PoolStats{
		Workers:   wp.workers,
		Submitted: wp.submitted.Load(),
		Analyzed:  wp.analyzed.Load(),
		Failed:    wp.failed.Load(),
		Queued:    len(wp.input),
	}
}
