package app

import (
	"context"
	"fmt"
	"log/slog"
	"path/filepath"
	"sync"
	"sync/atomic"
	"time"

	"golang.org/x/sync/errgroup"

	"github.com/roman-kulish/radialqc/internal/qc"
	"github.com/roman-kulish/radialqc/internal/radialshort"
	"github.com/roman-kulish/radialqc/internal/storage"
)

// WithStore sets the store every processed file is recorded in.
func WithStore(store storage.Store) func(*Orchestrator) {
	return func(o *Orchestrator) {
		o.store = store
	}
}

// WithWorkers sets the number of files processed concurrently.
func WithWorkers(n int) func(*Orchestrator) {
	return func(o *Orchestrator) {
		if n > 0 {
			o.workers = n
		}
	}
}

// runConfig is the processing configuration recorded with every run.
type runConfig struct {
	QC            bool          `json:"qc"`
	Thresholds    qc.Thresholds `json:"thresholds"`
	BearingSpread float64       `json:"bearingSpread"`
	Weight        string        `json:"weight"`
	MergeWindow   string        `json:"mergeWindow,omitempty"`
}

// Orchestrator processes radialmetric jobs on a bounded pool of workers and
// hands the results to a single goroutine that stores them.
type Orchestrator struct {
	options radialshort.Options
	output  OutputConfig
	record  runConfig

	logger  *slog.Logger
	store   storage.Store
	workers int

	failed atomic.Int64
	wg     sync.WaitGroup
}

// NewOrchestrator creates a new Orchestrator
func NewOrchestrator(config *Config, logger *slog.Logger, options ...func(*Orchestrator)) *Orchestrator {
	o := Orchestrator{
		options: radialshort.Options{
			QC:            config.QC.Enabled,
			Thresholds:    config.QC.Thresholds,
			BearingSpread: config.Averaging.BearingSpread,
			Policy:        config.Averaging.Policy(),
		},
		output: config.Output,
		record: runConfig{
			QC:            config.QC.Enabled,
			Thresholds:    config.QC.Thresholds,
			BearingSpread: config.Averaging.BearingSpread,
			Weight:        config.Averaging.Policy().String(),
		},
		logger:  logger,
		workers: 1,
	}
	if w := time.Duration(config.Input.MergeWindow); w > 0 {
		o.record.MergeWindow = w.String()
	}

	for _, option := range options {
		option(&o)
	}

	return &o
}

// Run processes every job. A failing job is logged and does not stop the
// others; Run reports how many failed once all are done. Cancelling ctx stops
// scheduling new jobs.
func (o *Orchestrator) Run(ctx context.Context, jobs []job) error {
	if len(jobs) == 0 {
		return fmt.Errorf("no files to process")
	}
	o.failed.Store(0)

	results := make(chan *result, o.workers)

	o.wg.Add(1)
	go o.handleResults(ctx, results)

	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(o.workers)

	for _, j := range jobs {
		if gctx.Err() != nil {
			break
		}

		g.Go(func() error {
			if err := gctx.Err(); err != nil {
				return err
			}

			start := time.Now()
			r, err := processJob(j, o.options, &o.output)
			if err != nil {
				o.failed.Add(1)
				o.logger.Error(err.Error(), slog.String("file", j.target))
				return nil
			}

			logResult(o.logger, r, time.Since(start))
			results <- r
			return nil
		})
	}

	err := g.Wait()
	close(results)
	o.wg.Wait()

	if err != nil {
		return err
	}
	if err = ctx.Err(); err != nil {
		return err
	}
	if n := o.failed.Load(); n > 0 {
		return fmt.Errorf("%d of %d files failed", n, len(jobs))
	}
	return nil
}

// Failed returns the number of jobs that failed during the last Run.
func (o *Orchestrator) Failed() int {
	return int(o.failed.Load())
}

func (o *Orchestrator) handleResults(ctx context.Context, results <-chan *result) {
	defer o.wg.Done()

	for r := range results {
		if o.store == nil {
			continue
		}
		if err := o.storeResult(ctx, r); err != nil {
			o.failed.Add(1)
			o.logger.Error(err.Error(), slog.String("file", r.output))
		}
	}
}

func (o *Orchestrator) storeResult(ctx context.Context, r *result) error {
	sources := make([]string, len(r.job.sources))
	for i, s := range r.job.sources {
		sources[i] = filepath.Base(s)
	}

	run := storage.Run{
		Site:          r.site,
		DataTime:      r.job.dataTime,
		Sources:       sources,
		OutputFile:    r.output,
		Policy:        o.options.Policy.String(),
		BearingSpread: o.options.BearingSpread,
		QC:            o.options.QC,
		InputRows:     r.summary.InputRows,
		GoodRows:      r.summary.GoodRows,
		Cells:         r.summary.Cells,
		EmptyCells:    r.summary.EmptyCells,
		Checksum:      r.file.Table.Checksum(),
	}

	runID, err := o.store.SaveRun(ctx, &run, o.record, r.file.Table)
	if err != nil {
		return fmt.Errorf("storing run for %s: %w", r.job.target, err)
	}

	o.logger.Debug("run stored", slog.Int64("run", runID), slog.String("site", r.site))
	return nil
}
