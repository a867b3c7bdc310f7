package batch

import (
	"context"
	"sync"
	"time"

	"windaep/app"
	"windaep/domain/aep"
	"windaep/internal"

	"golang.org/x/sync/semaphore"
)

// Case is one independent evaluation, e.g. one starting-direction offset
type Case struct {
	Name    string
	Samples aep.Samples
	// Load reads samples lazily; used instead of Samples when set
	Load func() (aep.Samples, error)
}

// CaseResult pairs a case with its evaluation or failure
type CaseResult struct {
	Name       string          `json:"name"`
	Evaluation *app.Evaluation `json:"evaluation,omitempty"`
	Error      string          `json:"error,omitempty"`
	Err        error           `json:"-"`
}

// Evaluator is the part of app.AEPService the runner needs
type Evaluator interface {
	Evaluate(ctx context.Context, req app.EvaluationRequest) (*app.Evaluation, error)
}

// Runner evaluates cases with bounded concurrency. A failing case does not stop
// the others.
type Runner struct {
	evaluator    Evaluator
	concurrency  int64
	method       app.Method
	withGradient bool
	logger       *internal.Logger
}

// NewRunner creates a runner; concurrency below one is treated as one
func NewRunner(evaluator Evaluator, concurrency int, logger *internal.Logger) *Runner {
	if concurrency < 1 {
		concurrency = 1
	}
	if logger == nil {
		logger = internal.DefaultLogger
	}
	return &Runner{
		evaluator:   evaluator,
		concurrency: int64(concurrency),
		logger:      logger.With("batch"),
	}
}

// WithMethod sets the method used for every case
func (r *Runner) WithMethod(method app.Method) *Runner {
	r.method = method
	return r
}

// WithGradient requests gradients for every case
func (r *Runner) WithGradient(enabled bool) *Runner {
	r.withGradient = enabled
	return r
}

// Run evaluates all cases and returns results in input order
func (r *Runner) Run(ctx context.Context, cases []Case) ([]CaseResult, error) {
	start := time.Now()
	results := make([]CaseResult, len(cases))
	sem := semaphore.NewWeighted(r.concurrency)

	var wg sync.WaitGroup
	for i := range cases {
		if err := sem.Acquire(ctx, 1); err != nil {
			wg.Wait()
			return results, err
		}

		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			defer sem.Release(1)
			results[i] = r.runCase(ctx, cases[i])
		}(i)
	}
	wg.Wait()

	failed := 0
	for _, res := range results {
		if res.Err != nil {
			failed++
		}
	}
	r.logger.Info("evaluated %d cases (%d failed) in %s", len(cases), failed, time.Since(start))
	return results, nil
}

func (r *Runner) runCase(ctx context.Context, c Case) CaseResult {
	res := CaseResult{Name: c.Name}

	samples := c.Samples
	if c.Load != nil {
		loaded, err := c.Load()
		if err != nil {
			return r.fail(res, err)
		}
		samples = loaded
	}

	eval, err := r.evaluator.Evaluate(ctx, app.EvaluationRequest{
		Samples:      samples,
		Method:       r.method,
		WithGradient: r.withGradient,
	})
	if err != nil {
		return r.fail(res, err)
	}
	res.Evaluation = eval
	return res
}

func (r *Runner) fail(res CaseResult, err error) CaseResult {
	r.logger.Warn("case %s failed: %v", res.Name, err)
	res.Err = err
	res.Error = err.Error()
	return res
}
