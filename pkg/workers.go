package chamber

import (
	"context"
	"errors"
	"fmt"
	"sync"
)

type driftJob struct {
	Index    int
	Electron Electron
}

// DriftSummary counts the outcomes of a drift batch.
type DriftSummary struct {
	Total      int
	Drifted    int
	Skipped    int
	Collected  int
	Lost       int
	Diverged   int
	OutOfRange int
}

func (s DriftSummary) String() string {
	return fmt.Sprintf("%d electrons: %d drifted (%d skipped), %d collected, %d lost, %d diverged (%d out of table range)",
		s.Total, s.Drifted, s.Skipped, s.Collected, s.Lost, s.Diverged, s.OutOfRange)
}

func driftWorker(id int, sim *DriftSimulator, event int, jobs <-chan driftJob, results chan<- DriftResult,
	logger Logger, verbosity int) {
	for job := range jobs {
		results <- driftOne(id, sim, event, job, logger, verbosity)
	}
}

func driftOne(id int, sim *DriftSimulator, event int, job driftJob, logger Logger, verbosity int) (result DriftResult) {
	defer func() {
		if r := recover(); r != nil {
			result = DriftResult{
				Index:  job.Index,
				Start:  job.Electron,
				Status: Diverged,
				Err: &DriftError{Electron: job.Index, Time: job.Electron.T,
					Reason: fmt.Sprintf("worker %d recovered from panic: %v", id, r)},
			}
		}
	}()
	if verbosity > 2 {
		logger.Info(fmt.Sprintf("Worker %d drifting electron %d", id, job.Index), "drift")
	}
	return sim.Drift(event, job.Index, job.Electron)
}

// DriftBatch drifts the electrons of one event with Config.NumWorkers
// goroutines. Only the first Config.MaxElectrons electrons are drifted when
// the limit is set. Results are returned in electron order whatever the
// completion order of the workers.
func (s *DriftSimulator) DriftBatch(ctx context.Context, event int, electrons []Electron,
	logger Logger, verbosity int) ([]DriftResult, DriftSummary, error) {
	logger = loggerOrDiscard(logger)
	summary := DriftSummary{Total: len(electrons)}

	n := len(electrons)
	if s.Config.MaxElectrons > 0 && n > s.Config.MaxElectrons {
		n = s.Config.MaxElectrons
		summary.Skipped = len(electrons) - n
		logger.Info(fmt.Sprintf("Event %d: drifting %d of %d electrons, the signal is biased low",
			event, n, len(electrons)), "drift")
	}

	jobs := make(chan driftJob, s.Config.NumWorkers)
	results := make(chan DriftResult, s.Config.NumWorkers)

	var wg sync.WaitGroup
	for w := 1; w <= s.Config.NumWorkers; w++ {
		wg.Add(1)
		go func(id int) {
			defer wg.Done()
			driftWorker(id, s, event, jobs, results, logger, verbosity)
		}(w)
	}

	go func() {
		defer close(jobs)
		for i := 0; i < n; i++ {
			select {
			case <-ctx.Done():
				return
			case jobs <- driftJob{Index: i, Electron: electrons[i]}:
			}
		}
	}()

	go func() {
		wg.Wait()
		close(results)
	}()

	drifted := make([]DriftResult, n)
	received := 0
	for result := range results {
		drifted[result.Index] = result
		received++
		switch result.Status {
		case Collected:
			summary.Collected++
		case Lost:
			summary.Lost++
		case Diverged:
			summary.Diverged++
			if errors.Is(result.Err, ErrFieldOutOfRange) {
				summary.OutOfRange++
			}
			if verbosity > 1 {
				logger.Error(result.Err.Error())
			}
		}
	}
	summary.Drifted = received
	if err := ctx.Err(); err != nil {
		return nil, summary, fmt.Errorf("drifting event %d: %d of %d electrons done: %w", event, received, n, err)
	}
	return drifted, summary, nil
}
