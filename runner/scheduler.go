package runner

import (
	"context"
	"sync"
	"time"

	"github.com/ethereum/go-ethereum/log"

	"github.com/bullptr/marco/types"
)

// Scheduler owns the bounded worker pool. It dispatches test cases to the
// Executor and collects exactly one Result per case. No ordering is
// imposed on when tests run; callers re-sort the returned collection by
// (source file, order index) for deterministic reporting.
type Scheduler struct {
	exec        *Executor
	concurrency int
	log         log.Logger
}

// NewScheduler creates a scheduler with the given worker count. The
// concurrency value must already be resolved and positive.
func NewScheduler(exec *Executor, concurrency int, logger log.Logger) *Scheduler {
	if exec == nil {
		panic("executor cannot be nil")
	}
	if concurrency < 1 {
		panic("concurrency must be at least 1")
	}
	if concurrency > MaxReasonableConcurrency {
		logger.Warn("Very high concurrency requested", "concurrency", concurrency,
			"recommendation", "consider lower values to avoid resource exhaustion")
	}

	return &Scheduler{
		exec:        exec,
		concurrency: concurrency,
		log:         logger.New("component", "scheduler"),
	}
}

// Concurrency returns the worker pool size.
func (s *Scheduler) Concurrency() int {
	return s.concurrency
}

// Run blocks until every test case has produced exactly one Result. Cases
// that never ran because the context was cancelled yield errored Results,
// so the invariant holds even on interrupt.
func (s *Scheduler) Run(ctx context.Context, cases []*types.TestCase) []*types.Result {
	if len(cases) == 0 {
		return nil
	}

	start := time.Now()
	s.log.Info("Starting test execution", "totalTests", len(cases), "concurrency", s.concurrency)

	// Conservative buffering: enough to keep workers busy without holding
	// the whole run in channel memory.
	bufferSize := min(s.concurrency*2, 100)
	workChan := make(chan *types.TestCase, bufferSize)
	resultChan := make(chan *types.Result, bufferSize)

	var wg sync.WaitGroup
	for i := 0; i < s.concurrency; i++ {
		wg.Add(1)
		go s.worker(ctx, &wg, workChan, resultChan)
	}

	go func() {
		defer close(workChan)
		for _, tc := range cases {
			select {
			case workChan <- tc:
			case <-ctx.Done():
				s.log.Debug("Context cancelled while queueing tests")
				return
			}
		}
	}()

	go func() {
		wg.Wait()
		close(resultChan)
	}()

	results := make([]*types.Result, 0, len(cases))
	seen := make(map[*types.TestCase]bool, len(cases))
	for r := range resultChan {
		seen[r.Test] = true
		results = append(results, r)
	}

	// Cancellation can drop queued or in-flight cases; every case still
	// owes its caller a Result.
	for _, tc := range cases {
		if !seen[tc] {
			results = append(results, errored(tc, 0, "run interrupted before the test executed"))
		}
	}

	s.log.Info("Test execution completed",
		"duration", time.Since(start), "totalTests", len(cases))
	return results
}

// worker pulls test cases from the shared queue until it closes or the
// context is cancelled.
func (s *Scheduler) worker(ctx context.Context, wg *sync.WaitGroup, workChan <-chan *types.TestCase, resultChan chan<- *types.Result) {
	defer wg.Done()

	for {
		select {
		case tc, ok := <-workChan:
			if !ok {
				return
			}

			s.log.Info("Test started", "test", tc.Name, "file", tc.SourceFile)
			result := s.exec.Execute(ctx, tc)
			s.log.Info("Test finished",
				"test", tc.Name, "file", tc.SourceFile,
				"status", result.Status, "duration", result.Duration)

			// Unconditional send: the collector drains until every worker
			// exits, and dropping here would lose a real result.
			resultChan <- result

		case <-ctx.Done():
			return
		}
	}
}
