package pipeline

import (
	"context"

	"golang.org/x/sync/errgroup"
)

// Input is one job posting / resume pair for a batch.
type Input struct {
	ID         string `json:"id" yaml:"id"`
	JobPosting string `json:"job_posting" yaml:"job_posting"`
	Resume     string `json:"resume" yaml:"resume"`
}

// BatchResult pairs an input with its outcome.
type BatchResult struct {
	Input  Input
	Result *Result
	Err    error
}

// RunBatch runs every input through p with at most concurrency runs in flight.
// Runs are independent: one failing never cancels the others. Results are
// returned in input order.
func RunBatch(ctx context.Context, p *Pipeline, inputs []Input, concurrency int) []BatchResult {
	results := make([]BatchResult, len(inputs))
	if concurrency <= 0 {
		concurrency = 1
	}

	var g errgroup.Group
	g.SetLimit(concurrency)
	for i, in := range inputs {
		g.Go(func() error {
			res, err := p.Run(ctx, in.JobPosting, in.Resume)
			results[i] = BatchResult{Input: in, Result: res, Err: err}
			return nil
		})
	}
	_ = g.Wait()

	return results
}
