package app

import (
	"context"
	"errors"
	"fmt"
	"image"
	"image/jpeg"
	"image/png"
	"io/fs"
	"log/slog"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/dustin/go-humanize"

	"github.com/roman-kulish/radialqc/internal/lluv"
	"github.com/roman-kulish/radialqc/internal/storage"
)

const siteHeaderKey = "Site"

func Run(ctx context.Context, config *Config, logger *slog.Logger) error {
	data, err := loadRadials(ctx, config)
	if err != nil {
		return err
	}

	bounds := NewVelocityBounds(data.Velocities(), config.MaxVelocity)

	logger.Info("finished reading radials",
		slog.Group("stats",
			slog.String("site", data.Site),
			slog.Bool("difference", data.Difference),
			slog.String("cells", humanize.Comma(int64(len(data.Cells)))),
			slog.Int("empty", data.Empty),
			slog.Int("skipped", data.Skipped),
			slog.String("maxRange", formatRange(data.MaxRange)),
			slog.String("meanVelocity", fmt.Sprintf("%0.2fcm/s", bounds.Mean)),
			slog.String("maxVelocity", fmt.Sprintf("%0.2fcm/s", bounds.Max)),
		))

	if len(data.Cells) == 0 {
		return errors.New("no positioned cells to render")
	}

	renderer, err := NewMapRenderer(RenderConfig{
		Scale:         config.Scale,
		ColorTheme:    config.Theme,
		NoAnnotations: config.NoAnnotations,
	})
	if err != nil {
		return fmt.Errorf("creating map renderer: %w", err)
	}

	img, err := renderer.Render(data, bounds)
	if err != nil {
		return fmt.Errorf("rendering map: %w", err)
	}

	logger.Info("rendering map",
		slog.Group("image",
			slog.String("destination", config.OutputFile),
			slog.String("format", string(config.Format)),
			slog.String("theme", string(config.Theme)),
			slog.Int("width", img.Bounds().Dx()),
			slog.Int("height", img.Bounds().Dy()),
		))

	return writeImage(config.OutputFile, config.Format, img)
}

// radials is a radialshort table with the site and time it was measured at.
type radials struct {
	table    *lluv.Table
	site     string
	dataTime time.Time
}

func loadRadials(ctx context.Context, config *Config) (*RadialData, error) {
	if config.InputFile != "" {
		r, err := readFile(config.InputFile)
		if err != nil {
			return nil, err
		}
		if config.BaseFile == "" {
			return NewRadialData(r.table, r.site, r.dataTime)
		}

		base, err := readFile(config.BaseFile)
		if err != nil {
			return nil, err
		}
		return newDifference(r, base)
	}

	if _, err := os.Stat(config.DBPath); err != nil && errors.Is(err, fs.ErrNotExist) {
		return nil, fmt.Errorf("database file '%s' does not exist: %w", config.DBPath, err)
	}

	store := storage.NewSqliteStore(config.DBPath)
	defer store.Close()

	return readRun(ctx, store, config.RunID, config.BaseRunID)
}

func readFile(path string) (*radials, error) {
	f, err := lluv.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("reading radialshort file: %w", err)
	}

	site, _ := lluv.HeaderValue(f.Header, siteHeaderKey)
	if fields := strings.Fields(site); len(fields) > 0 {
		site = fields[0]
	}
	timestamp, _ := lluv.ParseTimestamp(filepath.Base(path))

	return &radials{table: f.Table, site: site, dataTime: timestamp}, nil
}

// readRun loads a stored run. A positive baseRunID renders the difference
// against that run.
func readRun(ctx context.Context, store storage.Store, runID, baseRunID int64) (*RadialData, error) {
	r, err := readStoredRun(ctx, store, runID)
	if err != nil {
		return nil, err
	}
	if baseRunID <= 0 {
		return NewRadialData(r.table, r.site, r.dataTime)
	}

	base, err := readStoredRun(ctx, store, baseRunID)
	if err != nil {
		return nil, err
	}
	return newDifference(r, base)
}

func readStoredRun(ctx context.Context, store storage.Store, runID int64) (*radials, error) {
	run, err := store.Run(ctx, runID)
	if err != nil {
		return nil, fmt.Errorf("reading run %d: %w", runID, err)
	}

	t, err := store.ReadRadials(ctx, runID)
	if err != nil {
		return nil, fmt.Errorf("reading radials of run %d: %w", runID, err)
	}

	return &radials{table: t, site: run.Site, dataTime: run.DataTime}, nil
}

func newDifference(r, base *radials) (*RadialData, error) {
	t, err := velocityDifference(r.table, base.table)
	if err != nil {
		return nil, err
	}

	data, err := NewRadialData(t, r.site, r.dataTime)
	if err != nil {
		return nil, err
	}
	data.Difference = true
	data.BaseTime = base.dataTime
	return data, nil
}

func writeImage(path string, format ImageFormat, img image.Image) (err error) {
	out, err := os.Create(path)
	if err != nil {
		return err
	}
	defer func() {
		if cErr := out.Close(); cErr != nil && err == nil {
			err = cErr
		}
	}()

	switch format {
	case ImagePNG:
		err = png.Encode(out, img)

	case ImageJPEG:
		err = jpeg.Encode(out, img, &jpeg.Options{
			Quality: 98,
		})

	default:
		err = fmt.Errorf("invalid image format: %s", format)
	}
	return err
}
