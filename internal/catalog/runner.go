package catalog

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"sync"

	"github.com/google/uuid"
	"github.com/pkg/errors"
	"go.uber.org/zap"

	"pcmdec/internal/core/domain"
	"pcmdec/internal/core/ports"
)

var ErrDuplicateOutput = errors.New("output path already claimed by another job")

// Publisher receives every successfully decrypted file.
type Publisher interface {
	Publish(ctx context.Context, result domain.Result) error
}

// Runner drives the pipeline over a batch of jobs. A failed job never stops
// the batch.
type Runner struct {
	Pipeline  ports.Pipeline
	Keys      ports.KeyResolver
	Workers   int
	Publisher Publisher
	Logger    *zap.Logger

	// RunID tags the report and log lines. A uuid is generated when empty.
	RunID string
}

type Failure struct {
	Job domain.Job
	Err error
}

type Report struct {
	RunID     string
	Total     int
	Succeeded []domain.Result
	Failed    []Failure
	Skipped   []domain.Job
}

// Err summarises the failures of the run, or returns nil if there were none.
func (r *Report) Err() error {
	if len(r.Failed) == 0 {
		return nil
	}
	return errors.Wrapf(r.Failed[0].Err, "%d of %d jobs failed, first", len(r.Failed), r.Total)
}

func (r *Report) String() string {
	return fmt.Sprintf("run %s: %d succeeded, %d failed, %d skipped of %d",
		r.RunID, len(r.Succeeded), len(r.Failed), len(r.Skipped), r.Total)
}

type outcome struct {
	result  *domain.Result
	err     error
	skipped bool
}

func (r *Runner) Run(ctx context.Context, jobs []domain.Job) *Report {
	logger := r.Logger
	if logger == nil {
		logger = zap.NewNop()
	}
	runID := r.RunID
	if runID == "" {
		runID = uuid.NewString()
	}
	report := &Report{RunID: runID, Total: len(jobs)}
	logger = logger.With(zap.String("run_id", report.RunID))

	outcomes := make([]outcome, len(jobs))
	claimed := make(map[string]int)
	var queue []int
	for i, job := range jobs {
		out := filepath.Clean(job.OutputPath)
		if first, ok := claimed[out]; ok {
			outcomes[i].err = errors.Wrapf(ErrDuplicateOutput, "%s (also written by %s)", out, jobs[first].InputPath)
			continue
		}
		claimed[out] = i

		if _, err := os.Stat(job.InputPath); os.IsNotExist(err) {
			logger.Warn("input file missing, skipping", zap.String("input", job.InputPath))
			outcomes[i].skipped = true
			continue
		}
		queue = append(queue, i)
	}

	workers := r.Workers
	if workers < 1 {
		workers = 1
	}

	next := make(chan int)
	var wg sync.WaitGroup
	for w := 0; w < workers; w++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			for i := range next {
				outcomes[i] = r.runJob(ctx, jobs[i], logger)
			}
		}()
	}
	for _, i := range queue {
		next <- i
	}
	close(next)
	wg.Wait()

	for i, o := range outcomes {
		switch {
		case o.skipped:
			report.Skipped = append(report.Skipped, jobs[i])
		case o.err != nil:
			report.Failed = append(report.Failed, Failure{Job: jobs[i], Err: o.err})
		default:
			report.Succeeded = append(report.Succeeded, *o.result)
		}
	}

	logger.Info("batch finished",
		zap.Int("succeeded", len(report.Succeeded)),
		zap.Int("failed", len(report.Failed)),
		zap.Int("skipped", len(report.Skipped)))
	return report
}

func (r *Runner) runJob(ctx context.Context, job domain.Job, logger *zap.Logger) outcome {
	if err := ctx.Err(); err != nil {
		return outcome{err: err}
	}

	result, err := r.Pipeline.Run(ctx, job.InputPath, job.OutputPath, r.Keys)
	if err != nil {
		logger.Error("failed to decrypt", zap.String("input", job.InputPath), zap.Error(err))
		return outcome{err: err}
	}

	if r.Publisher != nil {
		if err := r.Publisher.Publish(ctx, *result); err != nil {
			logger.Error("failed to publish", zap.String("output", job.OutputPath), zap.Error(err))
			return outcome{err: errors.Wrapf(err, "publish %s", job.OutputPath)}
		}
	}
	return outcome{result: result}
}
