package app

import (
	"context"
	"errors"
	"fmt"
	"io/fs"
	"log/slog"
	"os"
	"path/filepath"
	"slices"
	"strings"
	"time"

	"github.com/dustin/go-humanize"

	"github.com/roman-kulish/radialqc/internal/lluv"
	"github.com/roman-kulish/radialqc/internal/radialshort"
	"github.com/roman-kulish/radialqc/internal/storage"
)

const (
	storageFile   = "radialqc.sqlite"
	metricPrefix  = "RDLv"
	siteHeaderKey = "Site"
)

// Run discovers radialmetric files, converts each into a radialshort file and
// optionally records the runs in storage.
func Run(ctx context.Context, config *Config, logger *slog.Logger) error {
	files, err := discoverFiles(&config.Input)
	if err != nil {
		return fmt.Errorf("discovering input files: %w", err)
	}
	if len(files) == 0 {
		return fmt.Errorf("no input files match %q", config.Input.Pattern)
	}

	jobs := planJobs(files, time.Duration(config.Input.MergeWindow))
	logger.Info("processing radialmetric files",
		slog.Int("files", len(files)),
		slog.Int("jobs", len(jobs)),
		slog.Int("workers", config.Settings.Workers),
		slog.String("weight", config.Averaging.Policy().String()),
		slog.Bool("qc", config.QC.Enabled))

	options := []func(*Orchestrator){WithWorkers(config.Settings.Workers)}
	if config.Storage.Enabled {
		store, err := createStorage(&config.Storage)
		if err != nil {
			return fmt.Errorf("failed to create storage: %w", err)
		}
		defer func() {
			if cErr := store.Close(); cErr != nil {
				logger.Error("closing storage", slog.String("error", cErr.Error()))
			}
		}()
		options = append(options, WithStore(store))
	}

	return NewOrchestrator(config, logger, options...).Run(ctx, jobs)
}

// job is a single radialshort file to produce. The target provides the
// header, footer and output name; every source is merged before averaging.
type job struct {
	target   string
	sources  []string
	dataTime time.Time
}

// result is a processed job, ready to be stored.
type result struct {
	job     job
	site    string
	output  string
	file    *lluv.File
	summary radialshort.Summary
}

func discoverFiles(config *InputConfig) ([]string, error) {
	var files []string
	if config.Directory != "" {
		err := filepath.WalkDir(config.Directory, func(path string, d fs.DirEntry, err error) error {
			if err != nil {
				return err
			}
			if d.IsDir() {
				return nil
			}

			ok, err := filepath.Match(config.Pattern, d.Name())
			if err != nil {
				return err
			}
			if ok {
				files = append(files, path)
			}
			return nil
		})
		if err != nil {
			return nil, err
		}
	}

	for _, f := range config.Files {
		if _, err := os.Stat(f); err != nil {
			return nil, err
		}
		files = append(files, filepath.Clean(f))
	}

	slices.Sort(files)
	return slices.Compact(files), nil
}

// planJobs creates a job per file. With a positive window, files of the same
// site and type whose timestamps lie within window of a target are merged
// into its job, in time order.
func planJobs(files []string, window time.Duration) []job {
	type stamped struct {
		path string
		key  string
		time time.Time
		ok   bool
	}

	all := make([]stamped, len(files))
	for i, f := range files {
		name := filepath.Base(f)
		t, ok := lluv.ParseTimestamp(name)
		all[i] = stamped{path: f, key: lluv.TrimTimestamp(name), time: t, ok: ok}
	}

	jobs := make([]job, 0, len(all))
	for _, target := range all {
		j := job{target: target.path, sources: []string{target.path}, dataTime: target.time}
		if window <= 0 || !target.ok {
			jobs = append(jobs, j)
			continue
		}

		var neighbours []stamped
		for _, other := range all {
			if !other.ok || other.key != target.key {
				continue
			}
			if d := other.time.Sub(target.time).Abs(); d <= window {
				neighbours = append(neighbours, other)
			}
		}
		slices.SortStableFunc(neighbours, func(a, b stamped) int {
			return a.time.Compare(b.time)
		})

		j.sources = j.sources[:0]
		for _, n := range neighbours {
			j.sources = append(j.sources, n.path)
		}
		jobs = append(jobs, j)
	}
	return jobs
}

// outputName replaces the radialmetric prefix of name with prefix, or
// prepends prefix when name has no such prefix.
func outputName(name, prefix string) string {
	if rest, ok := strings.CutPrefix(name, metricPrefix); ok {
		return prefix + rest
	}
	return prefix + "_" + name
}

// processJob reads, merges and converts the sources of j, then writes the
// radialshort file.
func processJob(j job, opts radialshort.Options, output *OutputConfig) (*result, error) {
	var target *lluv.File
	tables := make([]*lluv.Table, 0, len(j.sources))
	for _, src := range j.sources {
		f, err := lluv.ReadFile(src)
		if err != nil {
			return nil, fmt.Errorf("reading %s: %w", src, err)
		}
		if src == j.target {
			target = f
		}
		tables = append(tables, f.Table)
	}
	if target == nil {
		return nil, fmt.Errorf("target %s is not among the sources", j.target)
	}

	merged := *target
	if len(tables) > 1 {
		table, err := lluv.Concat(tables...)
		if err != nil {
			return nil, fmt.Errorf("merging %d files: %w", len(tables), err)
		}
		merged.Table = table
	}

	out, summary, err := radialshort.Generate(&merged, opts)
	if err != nil {
		return nil, fmt.Errorf("generating radialshort for %s: %w", j.target, err)
	}

	dir := output.Directory
	if dir == "" {
		dir = filepath.Dir(j.target)
	}
	path := filepath.Join(dir, outputName(filepath.Base(j.target), output.Prefix))
	if err = lluv.WriteFile(path, out); err != nil {
		return nil, fmt.Errorf("writing %s: %w", path, err)
	}

	site, _ := lluv.HeaderValue(target.Header, siteHeaderKey)
	if fields := strings.Fields(site); len(fields) > 0 {
		site = fields[0]
	}

	return &result{
		job:     j,
		site:    site,
		output:  path,
		file:    out,
		summary: summary,
	}, nil
}

func logResult(logger *slog.Logger, r *result, elapsed time.Duration) {
	size := "unknown"
	if info, err := os.Stat(r.output); err == nil {
		size = humanize.Bytes(uint64(info.Size()))
	}

	logger.Info("radialshort written",
		slog.String("file", r.output),
		slog.String("size", size),
		slog.Duration("elapsed", elapsed),
		slog.Group("rows",
			slog.String("input", humanize.Comma(int64(r.summary.InputRows))),
			slog.String("good", humanize.Comma(int64(r.summary.GoodRows))),
			slog.Int("sources", len(r.job.sources))),
		slog.Group("cells",
			slog.String("total", humanize.Comma(int64(r.summary.Cells))),
			slog.Int("empty", r.summary.EmptyCells)))
}

func createStorage(config *StorageConfig) (*storage.SqliteStore, error) {
	dir := config.DataDirectory
	if dir == "" {
		dir = defaultStorageDir
	}

	stat, err := os.Stat(dir)
	if err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			return nil, fmt.Errorf("storage directory '%s' does not exist: %w", dir, err)
		}
		return nil, err
	}
	if !stat.IsDir() {
		return nil, fmt.Errorf("invalid storage directory '%s'", dir)
	}

	return storage.NewSqliteStore(filepath.Join(dir, storageFile), storage.WithMaxBatchSize(config.MaxBatchSize)), nil
}
