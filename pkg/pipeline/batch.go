package pipeline

import (
	"context"
	"sync"
)

// ProcessBatch runs ProcessLaw for every code over a fixed-size worker pool.
// Results come back in the order of codes; per-law failures are recorded in
// the corresponding Result, never aborting the batch.
func (p *Pipeline) ProcessBatch(ctx context.Context, codes []string) []*Result {
	results := make([]*Result, len(codes))
	jobs := make(chan int)

	var wg sync.WaitGroup
	for w := 0; w < p.opts.Workers; w++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			for i := range jobs {
				results[i] = p.ProcessLaw(ctx, codes[i])
			}
		}()
	}

	for i := range codes {
		select {
		case jobs <- i:
		case <-ctx.Done():
			results[i] = &Result{LawCode: codes[i], Err: ctx.Err()}
		}
	}
	close(jobs)
	wg.Wait()

	return results
}
