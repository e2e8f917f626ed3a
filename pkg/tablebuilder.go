package chamber

import (
	"context"
	"fmt"
	"sync"

	"github.com/google/uuid"
)

type gridJob struct {
	Index int
	Field float64
}

type gridResult struct {
	Index int
	Entry TransportEntry
	Err   error
}

func gridWorker(ctx context.Context, id int, provider TransportProvider, cond Conditions,
	jobs <-chan gridJob, results chan<- gridResult, logger Logger, verbosity int) {
	for job := range jobs {
		results <- evaluateGridPoint(ctx, id, provider, cond, job, logger, verbosity)
	}
}

func evaluateGridPoint(ctx context.Context, id int, provider TransportProvider, cond Conditions,
	job gridJob, logger Logger, verbosity int) (result gridResult) {
	result.Index = job.Index
	defer func() {
		if r := recover(); r != nil {
			result.Err = fmt.Errorf("worker %d recovered from panic at %g V/cm: %v", id, job.Field, r)
		}
	}()

	if err := ctx.Err(); err != nil {
		result.Err = err
		return result
	}
	if verbosity > 1 {
		logger.Info(fmt.Sprintf("Worker %d evaluating E = %g V/cm", id, job.Field), "tablebuilder")
	}
	coeffs, err := provider.Transport(ctx, job.Field, cond)
	if err != nil {
		result.Err = fmt.Errorf("transport at %g V/cm: %w", job.Field, err)
		return result
	}
	result.Entry = TransportEntry{Field: job.Field, TransportCoefficients: coeffs}
	return result
}

// BuildTransportTable evaluates provider at every grid point using
// cfg.NumWorkers goroutines and assembles the results in grid order. The
// context is checked before each point is dispatched and before it is
// evaluated; any failure discards the whole table.
func BuildTransportTable(ctx context.Context, cfg TableBuildConfig, provider TransportProvider, logger Logger) (*TransportTable, error) {
	logger = loggerOrDiscard(logger)
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	grid, err := NewFieldGrid(cfg.Grid)
	if err != nil {
		return nil, err
	}
	gas, err := NewGasComposition(cfg.Gas.Components)
	if err != nil {
		return nil, err
	}
	cond := Conditions{
		Temperature: cfg.Gas.Temperature,
		Pressure:    cfg.Gas.Pressure,
		Collisions:  cfg.Collisions,
	}

	ctx, cancel := context.WithCancel(ctx)
	defer cancel()

	jobs := make(chan gridJob, cfg.NumWorkers)
	results := make(chan gridResult, grid.Count())

	var wg sync.WaitGroup
	for w := 1; w <= cfg.NumWorkers; w++ {
		wg.Add(1)
		go func(id int) {
			defer wg.Done()
			gridWorker(ctx, id, provider, cond, jobs, results, logger, cfg.Verbosity)
		}(w)
	}

	go func() {
		defer close(jobs)
		for i, field := range grid.Values {
			select {
			case <-ctx.Done():
				return
			case jobs <- gridJob{Index: i, Field: field}:
			}
		}
	}()

	go func() {
		wg.Wait()
		close(results)
	}()

	entries := make([]TransportEntry, grid.Count())
	done := 0
	var firstErr error
	for result := range results {
		if result.Err != nil {
			if firstErr == nil {
				firstErr = result.Err
				cancel()
			}
			continue
		}
		entries[result.Index] = result.Entry
		done++
		if cfg.Verbosity > 0 {
			message := fmt.Sprintf("Grid point %d/%d done (E = %g V/cm)", done, grid.Count(), result.Entry.Field)
			logger.Info(message, "tablebuilder")
		}
	}
	if firstErr != nil {
		return nil, fmt.Errorf("building transport table: %w", firstErr)
	}
	if err := ctx.Err(); err != nil || done != grid.Count() {
		if err == nil {
			err = context.Canceled
		}
		return nil, fmt.Errorf("building transport table: %d of %d points evaluated: %w", done, grid.Count(), err)
	}

	key := TableKey{
		Gas:         gas.Key(),
		Temperature: cfg.Gas.Temperature,
		Pressure:    cfg.Gas.Pressure,
		Grid:        grid.Config(),
		Collisions:  cfg.Collisions,
	}
	return NewTransportTable(uuid.NewString(), key, entries)
}
