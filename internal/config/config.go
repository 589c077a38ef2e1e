package config

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"time"

	"gopkg.in/yaml.v3"
)

const (
	// frames
	ExtFrame        = ".jpg"
	ExtVideo        = ".mp4"
	NameFormat      = "image_%Y-%m-%d_%H%M%S"
	TimestampFormat = "%Y-%m-%d_%H%M"
	CounterLabel    = "min."

	// limits
	MaxBlend = 5

	// Path
	PathVideoOut = "output.mp4"
	PathScratch  = "testimage.jpg"

	// external tools
	BinCamera  = "rpicam-still"
	BinEncoder = "ffmpeg"
	BinPreview = "ffplay"
)

var ErrInvalid = errors.New("invalid config")

type Config struct {
	Capture Capture `yaml:"capture"`
	Movie   Movie   `yaml:"movie"`
}

type Capture struct {
	Width       int           `yaml:"width"`
	Height      int           `yaml:"height"`
	Rotation    int           `yaml:"rotation"`
	ISO         int           `yaml:"iso"`
	Framerate   int           `yaml:"framerate"`
	SettleDelay time.Duration `yaml:"settle_delay"`
	Interval    time.Duration `yaml:"interval"`
	Count       int           `yaml:"count"`
	OutputDir   string        `yaml:"output_dir"`
	NameFormat  string        `yaml:"name_format"`
	Binary      string        `yaml:"binary"`
}

type Movie struct {
	Output          string        `yaml:"output"`
	FPS             int           `yaml:"fps"`
	Blend           int           `yaml:"blend"`
	ShowTimestamp   bool          `yaml:"show_timestamp"`
	DryRun          bool          `yaml:"dry_run"`
	Preview         bool          `yaml:"preview"`
	TimestampFormat string        `yaml:"timestamp_format"`
	CounterLabel    string        `yaml:"counter_label"`
	Codec           string        `yaml:"codec"`
	PreviewPause    time.Duration `yaml:"preview_pause"`
	PreviewScale    float64       `yaml:"preview_scale"`
	Extension       string        `yaml:"extension"`
	Encoder         string        `yaml:"encoder"`
	Viewer          string        `yaml:"viewer"`
	Quiet           bool          `yaml:"quiet"`
}

func Default() Config {
	wd, err := os.Getwd()
	if err != nil {
		wd = "."
	}
	return Config{
		Capture: Capture{
			Width:       1920,
			Height:      1080,
			Rotation:    180,
			ISO:         400,
			Framerate:   15,
			SettleDelay: 2 * time.Second,
			Interval:    0,
			Count:       10,
			OutputDir:   wd,
			NameFormat:  NameFormat,
			Binary:      BinCamera,
		},
		Movie: Movie{
			Output:          PathVideoOut,
			FPS:             12,
			Blend:           0,
			TimestampFormat: TimestampFormat,
			CounterLabel:    CounterLabel,
			Codec:           "mpeg4", // ffmpeg name for the mp4v fourcc
			PreviewPause:    100 * time.Millisecond,
			PreviewScale:    0.5,
			Extension:       ExtFrame,
			Encoder:         BinEncoder,
			Viewer:          BinPreview,
		},
	}
}

// Load returns the defaults overlaid with the YAML file at path.
// An empty path yields the defaults.
func Load(path string) (Config, error) {
	cfg := Default()
	if path == "" {
		return cfg, nil
	}
	data, err := os.ReadFile(path)
	if err != nil {
		return cfg, fmt.Errorf("reading config %s: %w", path, err)
	}
	if err := yaml.Unmarshal(data, &cfg); err != nil {
		return cfg, fmt.Errorf("parsing config %s: %w", path, err)
	}
	return cfg, nil
}

func (c Capture) Validate() error {
	if c.Width <= 0 || c.Height <= 0 {
		return fmt.Errorf("%w: resolution %dx%d", ErrInvalid, c.Width, c.Height)
	}
	if c.Count <= 0 {
		return fmt.Errorf("%w: image count %d", ErrInvalid, c.Count)
	}
	if c.SettleDelay < 0 {
		return fmt.Errorf("%w: settle delay %s", ErrInvalid, c.SettleDelay)
	}
	if c.NameFormat == "" {
		return fmt.Errorf("%w: empty name format", ErrInvalid)
	}
	return nil
}

func (m Movie) Validate() error {
	if m.FPS <= 0 {
		return fmt.Errorf("%w: fps %d", ErrInvalid, m.FPS)
	}
	if m.Blend < 0 || m.Blend > MaxBlend {
		return fmt.Errorf("%w: blend %d is outside 0..%d", ErrInvalid, m.Blend, MaxBlend)
	}
	if m.PreviewScale <= 0 || m.PreviewScale > 1 {
		return fmt.Errorf("%w: preview scale %g", ErrInvalid, m.PreviewScale)
	}
	if m.PreviewPause < 0 {
		return fmt.Errorf("%w: preview pause %s", ErrInvalid, m.PreviewPause)
	}
	if m.TimestampFormat == "" {
		return fmt.Errorf("%w: empty timestamp format", ErrInvalid)
	}
	return nil
}

// ParseResolution parses "WxH", e.g. 1920x1080.
func ParseResolution(s string) (int, int, error) {
	parts := strings.SplitN(strings.ToLower(s), "x", 2)
	if len(parts) != 2 {
		return 0, 0, fmt.Errorf("%w: resolution %q, want WxH", ErrInvalid, s)
	}
	w, err := strconv.Atoi(strings.TrimSpace(parts[0]))
	if err != nil {
		return 0, 0, fmt.Errorf("%w: resolution width %q", ErrInvalid, parts[0])
	}
	h, err := strconv.Atoi(strings.TrimSpace(parts[1]))
	if err != nil {
		return 0, 0, fmt.Errorf("%w: resolution height %q", ErrInvalid, parts[1])
	}
	if w <= 0 || h <= 0 {
		return 0, 0, fmt.Errorf("%w: resolution %dx%d", ErrInvalid, w, h)
	}
	return w, h, nil
}

// NormalizeOutput appends the .mp4 suffix when missing.
func NormalizeOutput(path string) string {
	if path == "" {
		return PathVideoOut
	}
	if strings.EqualFold(filepath.Ext(path), ExtVideo) {
		return path
	}
	return path + ExtVideo
}
