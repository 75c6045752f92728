package app

import (
	"context"
	"image/png"
	"io"
	"log/slog"
	"math"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/roman-kulish/radialqc/internal/lluv"
	"github.com/roman-kulish/radialqc/internal/radialshort"
	"github.com/roman-kulish/radialqc/internal/storage"
)

var discard = slog.New(slog.NewTextHandler(io.Discard, nil))

func testCells(t *testing.T) *lluv.Table {
	return cellTable(t,
		[3]float64{1, 1, 12},
		[3]float64{-1, 2, -8},
		[3]float64{0.5, -1.5, math.NaN()},
	)
}

func TestRun_File(t *testing.T) {
	dir := t.TempDir()
	input := filepath.Join(dir, "RDLx_TEST_2013_11_05_0000.ruv")

	header := "%CTF: 1.00\n%Site: TEST \"\"\n%TableType: LLUV RDL7\n%TableColumnTypes: " + radialshort.Schema.String()
	f := &lluv.File{Header: header, Table: testCells(t), Footer: "%TableEnd:\n%End:"}
	if err := lluv.WriteFile(input, f); err != nil {
		t.Fatalf("Failed to write input: %v", err)
	}

	config := NewConfig()
	config.InputFile = input
	config.OutputFile = filepath.Join(dir, "map.png")

	if err := Run(context.Background(), config, discard); err != nil {
		t.Fatalf("Unexpected error: %v", err)
	}

	out, err := os.Open(config.OutputFile)
	if err != nil {
		t.Fatalf("Failed to open image: %v", err)
	}
	defer out.Close()

	img, err := png.Decode(out)
	if err != nil {
		t.Fatalf("Failed to decode image: %v", err)
	}
	if img.Bounds().Dx() <= defaultLeftBorder+defaultRightBorder {
		t.Errorf("Unexpected image size: %v", img.Bounds())
	}
}

func TestRun_FileDifference(t *testing.T) {
	dir := t.TempDir()
	header := "%CTF: 1.00\n%Site: TEST \"\"\n%TableType: LLUV RDL7\n%TableColumnTypes: " + radialshort.Schema.String()

	files := map[string]*lluv.Table{
		"RDLx_TEST_2013_11_05_0000.ruv": radialsTable(t, cell{1, 10, 1, 1, 12}, cell{2, 10, 2, 2, 3}),
		"RDLx_TEST_2013_11_04_2330.ruv": radialsTable(t, cell{1, 10, 1, 1, 2}),
	}
	for name, table := range files {
		f := &lluv.File{Header: header, Table: table, Footer: "%TableEnd:\n%End:"}
		if err := lluv.WriteFile(filepath.Join(dir, name), f); err != nil {
			t.Fatalf("Failed to write %s: %v", name, err)
		}
	}

	config := NewConfig()
	config.InputFile = filepath.Join(dir, "RDLx_TEST_2013_11_05_0000.ruv")
	config.BaseFile = filepath.Join(dir, "RDLx_TEST_2013_11_04_2330.ruv")
	config.OutputFile = filepath.Join(dir, "diff.png")

	data, err := loadRadials(context.Background(), config)
	if err != nil {
		t.Fatalf("Unexpected error: %v", err)
	}
	if !data.Difference || data.Site != "TEST" || len(data.Cells) != 1 || data.Cells[0].Velocity != 10 {
		t.Errorf("Unexpected difference: %+v", data)
	}
	if want := time.Date(2013, 11, 4, 23, 30, 0, 0, time.UTC); !data.BaseTime.Equal(want) {
		t.Errorf("Expected base time %v, got %v", want, data.BaseTime)
	}

	if err = Run(context.Background(), config, discard); err != nil {
		t.Fatalf("Unexpected error: %v", err)
	}
	if _, err = os.Stat(config.OutputFile); err != nil {
		t.Errorf("Expected image to be written: %v", err)
	}
}

func TestRun_Store(t *testing.T) {
	ctx := context.Background()
	dbPath := filepath.Join(t.TempDir(), "radialqc.sqlite")

	store := storage.NewSqliteStore(dbPath)
	dataTime := time.Date(2013, 11, 5, 0, 0, 0, 0, time.UTC)
	runID, err := store.CreateRun(ctx, &storage.Run{Site: "TEST", DataTime: dataTime, Policy: "MP"}, nil)
	if err != nil {
		t.Fatalf("Failed to create run: %v", err)
	}
	if err = store.StoreRadials(ctx, runID, testCells(t)); err != nil {
		t.Fatalf("Failed to store radials: %v", err)
	}
	if err = store.Close(); err != nil {
		t.Fatalf("Failed to close store: %v", err)
	}

	reader := storage.NewSqliteStore(dbPath)
	defer reader.Close()

	data, err := readRun(ctx, reader, runID, 0)
	if err != nil {
		t.Fatalf("Unexpected error: %v", err)
	}
	if data.Site != "TEST" || !data.Time.Equal(dataTime) || len(data.Cells) != 3 || data.Empty != 1 {
		t.Errorf("Unexpected radial data: %+v", data)
	}

	config := NewConfig()
	config.DBPath = dbPath
	config.RunID = runID
	config.Format = ImageJPEG
	config.OutputFile = filepath.Join(t.TempDir(), "map.jpeg")
	if err = Run(ctx, config, discard); err != nil {
		t.Fatalf("Unexpected error: %v", err)
	}
	if _, err = os.Stat(config.OutputFile); err != nil {
		t.Errorf("Expected image to be written: %v", err)
	}
}

func TestRun_Errors(t *testing.T) {
	dir := t.TempDir()

	config := NewConfig()
	config.DBPath = filepath.Join(dir, "missing.sqlite")
	config.RunID = 1
	config.OutputFile = filepath.Join(dir, "map.png")
	if err := Run(context.Background(), config, discard); err == nil {
		t.Error("Expected error for missing database")
	}

	config = NewConfig()
	config.InputFile = filepath.Join(dir, "missing.ruv")
	config.OutputFile = filepath.Join(dir, "map.png")
	if err := Run(context.Background(), config, discard); err == nil {
		t.Error("Expected error for missing input file")
	}
}
