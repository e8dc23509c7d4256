package pipeline

import (
	"cmp"
	"context"
	"io"
	"log/slog"
	"slices"
	"sync"
	"time"

	"github.com/lehigh-university-libraries/measurer/internal/dataset"
	"github.com/schollz/progressbar/v2"
	"golang.org/x/sync/errgroup"
)

// DefaultWorkers is the size of the worker pool when none is configured.
const DefaultWorkers = 4

// Runner dispatches rows to a bounded pool of workers.
type Runner struct {
	predictor *Predictor
	workers   int
	progress  io.Writer
}

// Option configures a Runner.
type Option func(*Runner)

// WithProgress renders a progress bar on w.
func WithProgress(w io.Writer) Option {
	return func(r *Runner) {
		r.progress = w
	}
}

// NewRunner returns a runner with the given pool size. Values below one
// fall back to DefaultWorkers.
func NewRunner(predictor *Predictor, workers int, opts ...Option) *Runner {
	if workers < 1 {
		workers = DefaultWorkers
	}
	r := &Runner{predictor: predictor, workers: workers}
	for _, opt := range opts {
		opt(r)
	}
	return r
}

// Run predicts every row and returns one record per row, ordered by row
// index. Per-row failures are folded into the records; the only error is
// cancellation of ctx.
func (r *Runner) Run(ctx context.Context, rows []dataset.Row) ([]dataset.Prediction, error) {
	start := time.Now()
	slog.Info("Processing rows", "rows", len(rows), "workers", r.workers)

	results := make([]dataset.Prediction, len(rows))
	tick := r.newTicker(len(rows))

	g, gCtx := errgroup.WithContext(ctx)
	g.SetLimit(r.workers)

	for i, row := range rows {
		if gCtx.Err() != nil {
			break
		}
		g.Go(func() error {
			if err := gCtx.Err(); err != nil {
				return err
			}
			results[i] = r.predictor.Predict(gCtx, row)
			tick()
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return nil, err
	}
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	slices.SortStableFunc(results, func(a, b dataset.Prediction) int {
		return cmp.Compare(a.Index, b.Index)
	})

	predicted := 0
	for _, p := range results {
		if p.Prediction != nil {
			predicted++
		}
	}
	slog.Info("Finished processing rows",
		"rows", len(results),
		"predicted", predicted,
		"duration", time.Since(start).Round(time.Millisecond))
	return results, nil
}

// newTicker returns a function advancing the progress bar by one row. The
// function is a no-op without a progress writer.
func (r *Runner) newTicker(total int) func() {
	if r.progress == nil || total == 0 {
		return func() {}
	}

	bar := progressbar.NewOptions(total,
		progressbar.OptionSetWriter(r.progress),
		progressbar.OptionSetDescription("Extracting data"),
	)
	var mu sync.Mutex
	done := 0
	return func() {
		mu.Lock()
		defer mu.Unlock()
		_ = bar.Add(1)
		done++
		if done == total {
			_ = bar.Finish()
			_, _ = io.WriteString(r.progress, "\n")
		}
	}
}
