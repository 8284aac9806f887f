package brain

import (
	"context"
	"errors"
	"fmt"
	"sync"
)

// StageSummary counts the outcome of every key handed to a stage.
type StageSummary struct {
	Stage     string
	Populated int
	Skipped   int
	Failed    int
	Errors    []error
}

func (s StageSummary) String() string {
	return fmt.Sprintf("%s: %d populated, %d skipped, %d failed", s.Stage, s.Populated, s.Skipped, s.Failed)
}

type workerResult[K fmt.Stringer] struct {
	key K
	err error
}

func worker[K fmt.Stringer](ctx context.Context, id int, makeFn func(context.Context, K) error,
	jobs <-chan K, results chan<- workerResult[K], logger Logger, verbosity int) {
	for key := range jobs {
		if verbosity > 1 {
			logger.Info(fmt.Sprintf("Worker %d processing %s", id, key), "workers")
		}
		results <- workerResult[K]{key: key, err: runJob(ctx, makeFn, key)}
	}
}

func runJob[K fmt.Stringer](ctx context.Context, makeFn func(context.Context, K) error, key K) (err error) {
	defer func() {
		if r := recover(); r != nil {
			err = fmt.Errorf("recovered from panic on %s: %v", key, r)
		}
	}()
	if err := ctx.Err(); err != nil {
		return err
	}
	return makeFn(ctx, key)
}

func sendKeysToWorkers[K fmt.Stringer](ctx context.Context, keys []K, jobs chan<- K) {
	defer close(jobs)
	for _, key := range keys {
		select {
		case jobs <- key:
		case <-ctx.Done():
			return
		}
	}
}

// runStage computes every key with numWorkers concurrent workers. Keys are
// independent; a key that fails leaves nothing behind and is retried on the
// next run.
func runStage[K fmt.Stringer](ctx context.Context, name string, keys []K, numWorkers int,
	makeFn func(context.Context, K) error, logger Logger, verbosity int) StageSummary {
	summary := StageSummary{Stage: name}
	if len(keys) == 0 {
		return summary
	}
	if numWorkers < 1 {
		numWorkers = 1
	}
	if numWorkers > len(keys) {
		numWorkers = len(keys)
	}

	jobs := make(chan K, numWorkers)
	results := make(chan workerResult[K], numWorkers)

	var wg sync.WaitGroup
	for w := 1; w <= numWorkers; w++ {
		wg.Add(1)
		go func(id int) {
			defer wg.Done()
			worker(ctx, id, makeFn, jobs, results, logger, verbosity)
		}(w)
	}
	go sendKeysToWorkers(ctx, keys, jobs)
	go func() {
		wg.Wait()
		close(results)
	}()

	for result := range results {
		switch {
		case result.err == nil:
			summary.Populated++
		case errors.Is(result.err, ErrExists):
			summary.Skipped++
			if verbosity > 1 {
				logger.Info(fmt.Sprintf("%s already populated", result.key), name)
			}
		default:
			summary.Failed++
			err := fmt.Errorf("error populating %s: %w", result.key, result.err)
			summary.Errors = append(summary.Errors, err)
			logger.Error(err.Error())
		}
	}
	return summary
}
