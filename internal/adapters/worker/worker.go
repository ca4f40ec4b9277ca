// Package worker fans batch predictions out over a fixed set of goroutines.
package worker

import (
	"context"
	"fmt"
	"runtime"
	"strconv"
	"sync"
	"time"

	"github.com/okian/intentiq/internal/domain/intent"
	"github.com/okian/intentiq/pkg/logger"
	"github.com/okian/intentiq/pkg/metrics"
)

// Predictor classifies one text. It must be safe for concurrent use.
type Predictor interface {
	Predict(ctx context.Context, text string) (intent.Prediction, error)
}

// Job is one text to classify; Index is its position in the batch.
type Job struct {
	Index int
	Text  string
}

// Result carries the prediction of a Job.
type Result struct {
	Index      int
	Prediction intent.Prediction
	Err        error
}

// InMemoryWorker predicts jobs read off a channel.
type InMemoryWorker struct {
	predictor Predictor
	name      string
	logger    logger.Logger
}

// NewInMemoryWorker creates a new worker with configuration options.
func NewInMemoryWorker(p Predictor, opts ...Option) *InMemoryWorker {
	w := &InMemoryWorker{
		predictor: p,
		name:      "worker",
		logger:    logger.NewNop(),
	}
	for _, opt := range opts {
		opt(w)
	}
	w.logger = w.logger.Named(w.name)
	return w
}

// Run predicts jobs until the channel closes or ctx is cancelled. results
// must have room for every job that can still arrive.
func (w *InMemoryWorker) Run(ctx context.Context, jobs <-chan Job, results chan<- Result) {
	for {
		select {
		case <-ctx.Done():
			return
		case job, ok := <-jobs:
			if !ok {
				return
			}
			start := time.Now()
			pred, err := w.predictor.Predict(ctx, job.Text)
			if err != nil {
				w.logger.Debug(ctx, "prediction failed", logger.Int("index", job.Index), logger.Error(err))
			} else {
				w.logger.Debug(ctx, "prediction done",
					logger.Int("index", job.Index),
					logger.Duration("elapsed", time.Since(start)))
			}
			results <- Result{Index: job.Index, Prediction: pred, Err: err}
		}
	}
}

// Pool manages multiple workers sharing one predictor.
type Pool struct {
	workers []*InMemoryWorker
	logger  logger.Logger
}

// NewPool creates a pool of workerCount workers; values below one mean one
// worker per CPU.
func NewPool(workerCount int, p Predictor, log logger.Logger) *Pool {
	if workerCount < 1 {
		workerCount = runtime.NumCPU()
	}
	if log == nil {
		log = logger.NewNop()
	}
	pool := &Pool{
		workers: make([]*InMemoryWorker, workerCount),
		logger:  log.Named("worker-pool"),
	}
	for i := 0; i < workerCount; i++ {
		pool.workers[i] = NewInMemoryWorker(p,
			WithName("worker-"+strconv.Itoa(i)),
			WithLogger(log))
	}
	return pool
}

// Size returns the number of workers.
func (p *Pool) Size() int { return len(p.workers) }

// PredictAll returns one prediction per text, in input order. The first
// failure cancels the remaining work and is returned.
func (p *Pool) PredictAll(ctx context.Context, texts []string) ([]intent.Prediction, error) {
	runCtx, cancel := context.WithCancel(ctx)
	defer cancel()

	jobs := make(chan Job)
	results := make(chan Result, len(texts))

	var wg sync.WaitGroup
	for _, w := range p.workers {
		wg.Add(1)
		go func(w *InMemoryWorker) {
			defer wg.Done()
			w.Run(runCtx, jobs, results)
		}(w)
	}
	go func() {
		defer close(jobs)
		for i, t := range texts {
			select {
			case jobs <- Job{Index: i, Text: t}:
			case <-runCtx.Done():
				return
			}
		}
	}()
	go func() {
		wg.Wait()
		close(results)
	}()

	start := time.Now()
	out := make([]intent.Prediction, len(texts))
	var firstErr error
	done := 0
	for r := range results {
		if r.Err != nil {
			if firstErr == nil {
				firstErr = fmt.Errorf("text %d: %w", r.Index+1, r.Err)
				cancel()
			}
			continue
		}
		out[r.Index] = r.Prediction
		done++
	}
	if firstErr != nil {
		metrics.RecordErrorByComponent("worker", "predict")
		return nil, firstErr
	}
	if done != len(texts) {
		return nil, ctx.Err()
	}
	p.logger.Info(ctx, "batch predicted",
		logger.Int("texts", len(texts)),
		logger.Int("workers", len(p.workers)),
		logger.Duration("elapsed", time.Since(start)))
	return out, nil
}
