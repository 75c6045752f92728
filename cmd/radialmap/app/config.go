package app

import (
	"errors"
	"flag"
	"fmt"
	"os"
	"strings"
)

const (
	ImagePNG  = "png"
	ImageJPEG = "jpeg"

	defaultScale = 20 // pixels per km
)

type ImageFormat string

type Config struct {
	InputFile     string   // Radialshort LLUV file, or
	DBPath        string   // radialqc database holding
	RunID         int64    // the run to render
	BaseFile      string   // Optional, renders InputFile minus BaseFile
	BaseRunID     int64    // Optional, renders RunID minus BaseRunID
	OutputFile    string   // Without extension
	Format        ImageFormat
	Theme         ColorTheme
	MaxVelocity   *float64 // cm/s, overrides the percentile bound
	Scale         int      // Pixels per km
	NoAnnotations bool
}

var validImageFormats = map[ImageFormat]struct{}{
	ImagePNG:  {},
	ImageJPEG: {},
}

func NewConfig() *Config {
	return &Config{
		Format: ImagePNG,
		Theme:  ClassicTheme,
		Scale:  defaultScale,
	}
}

func NewConfigFromCLI() (*Config, error) {
	return parseConfig(flag.CommandLine, os.Args[1:])
}

func parseConfig(fs *flag.FlagSet, args []string) (*Config, error) {
	c := NewConfig()

	var imageFormat, theme string
	var maxVelocity float64
	fs.StringVar(&c.InputFile, "i", "", "Path to a radialshort file")
	fs.StringVar(&c.DBPath, "db", "", "Path to the database file")
	fs.Int64Var(&c.RunID, "r", 0, "Run ID, used with -db")
	fs.StringVar(&c.BaseFile, "base", "", "Path to a radialshort file to subtract, used with -i")
	fs.Int64Var(&c.BaseRunID, "base-run", 0, "Run ID to subtract, used with -db")
	fs.StringVar(&c.OutputFile, "o", "", "Path to the output file")
	fs.StringVar(&imageFormat, "f", string(ImagePNG), "Output image format. [png, jpeg]")
	fs.StringVar(&theme, "theme", string(ClassicTheme), "Colour theme. [classic, marine, grayscale]")
	fs.Float64Var(&maxVelocity, "max-velocity", 0, "Define a manual velocity bound in cm/s (format nn.n)")
	fs.IntVar(&c.Scale, "scale", defaultScale, "Pixels per km")
	fs.BoolVar(&c.NoAnnotations, "no-annotations", false, "Disable annotations such as range rings and colour bar")

	if err := fs.Parse(args); err != nil {
		return nil, err
	}

	imageFormat = strings.ToLower(imageFormat)
	theme = strings.ToLower(theme)

	fs.Visit(func(f *flag.Flag) {
		if f.Name == "max-velocity" {
			c.MaxVelocity = &maxVelocity
		}
	})

	var err error
	switch {
	case c.InputFile == "" && c.DBPath == "":
		err = errors.New("input file or db path is required")
	case c.InputFile != "" && c.DBPath != "":
		err = errors.New("input file and db path are mutually exclusive")
	case c.DBPath != "" && c.RunID <= 0:
		err = errors.New("run id is required")
	case c.BaseFile != "" && c.InputFile == "":
		err = errors.New("base file requires an input file")
	case c.BaseRunID != 0 && (c.DBPath == "" || c.BaseRunID < 0):
		err = errors.New("base run requires a db path and a positive run id")
	case c.OutputFile == "":
		err = errors.New("output file is required")
	case c.Scale <= 0:
		err = fmt.Errorf("invalid scale: %d", c.Scale)
	case c.MaxVelocity != nil && *c.MaxVelocity <= 0:
		err = fmt.Errorf("invalid max velocity: %v", *c.MaxVelocity)
	}
	if err == nil {
		if _, ok := validImageFormats[ImageFormat(imageFormat)]; !ok {
			err = fmt.Errorf("invalid image format: %s", imageFormat)
		} else if _, ok = validThemes[ColorTheme(theme)]; !ok {
			err = fmt.Errorf("invalid theme: %s", theme)
		}
	}

	if err != nil {
		fs.Usage()
		return nil, err
	}

	c.Format = ImageFormat(imageFormat)
	c.Theme = ColorTheme(theme)
	c.OutputFile = fmt.Sprintf("%s.%s", c.OutputFile, c.Format)
	return c, nil
}
