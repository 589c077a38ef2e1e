package config

import (
	"errors"
	"os"
	"path/filepath"
	"testing"
	"time"
)

func TestDefaultIsValid(t *testing.T) {
	cfg := Default()
	if err := cfg.Capture.Validate(); err != nil {
		t.Errorf("default capture config: %v", err)
	}
	if err := cfg.Movie.Validate(); err != nil {
		t.Errorf("default movie config: %v", err)
	}
	if cfg.Movie.FPS != 12 {
		t.Errorf("fps: got %d, want 12", cfg.Movie.FPS)
	}
	if cfg.Movie.TimestampFormat != "%Y-%m-%d_%H%M" {
		t.Errorf("timestamp format: got %q", cfg.Movie.TimestampFormat)
	}
}

func TestMovieValidate(t *testing.T) {
	testCases := []struct {
		name    string
		mutate  func(m *Movie)
		wantErr bool
	}{
		{name: "defaults", mutate: func(m *Movie) {}},
		{name: "max blend", mutate: func(m *Movie) { m.Blend = 5 }},
		{name: "blend too high", mutate: func(m *Movie) { m.Blend = 6 }, wantErr: true},
		{name: "negative blend", mutate: func(m *Movie) { m.Blend = -1 }, wantErr: true},
		{name: "zero fps", mutate: func(m *Movie) { m.FPS = 0 }, wantErr: true},
		{name: "zero preview scale", mutate: func(m *Movie) { m.PreviewScale = 0 }, wantErr: true},
		{name: "empty format", mutate: func(m *Movie) { m.TimestampFormat = "" }, wantErr: true},
	}

	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			m := Default().Movie
			tc.mutate(&m)
			err := m.Validate()
			if tc.wantErr && !errors.Is(err, ErrInvalid) {
				t.Errorf("got %v, want ErrInvalid", err)
			}
			if !tc.wantErr && err != nil {
				t.Errorf("unexpected error: %v", err)
			}
		})
	}
}

func TestParseResolution(t *testing.T) {
	testCases := []struct {
		in      string
		w, h    int
		wantErr bool
	}{
		{in: "1920x1080", w: 1920, h: 1080},
		{in: "2592X1944", w: 2592, h: 1944},
		{in: "1024 x 768", w: 1024, h: 768},
		{in: "1920", wantErr: true},
		{in: "axb", wantErr: true},
		{in: "0x10", wantErr: true},
	}

	for _, tc := range testCases {
		t.Run(tc.in, func(t *testing.T) {
			w, h, err := ParseResolution(tc.in)
			if tc.wantErr {
				if err == nil {
					t.Fatalf("expected error for %q", tc.in)
				}
				return
			}
			if err != nil {
				t.Fatalf("unexpected error: %v", err)
			}
			if w != tc.w || h != tc.h {
				t.Errorf("got %dx%d, want %dx%d", w, h, tc.w, tc.h)
			}
		})
	}
}

func TestNormalizeOutput(t *testing.T) {
	testCases := map[string]string{
		"":              "output.mp4",
		"movie":         "movie.mp4",
		"movie.mp4":     "movie.mp4",
		"MOVIE.MP4":     "MOVIE.MP4",
		"dir/clip.v1":   "dir/clip.v1.mp4",
		"timelapse.mov": "timelapse.mov.mp4",
	}
	for in, want := range testCases {
		if got := NormalizeOutput(in); got != want {
			t.Errorf("NormalizeOutput(%q): got %q, want %q", in, got, want)
		}
	}
}

func TestLoadOverlaysDefaults(t *testing.T) {
	path := filepath.Join(t.TempDir(), "timereel.yaml")
	data := []byte(`
capture:
  iso: 100
  settle_delay: 3s
movie:
  fps: 24
  blend: 2
  preview_pause: 250ms
`)
	if err := os.WriteFile(path, data, 0o644); err != nil {
		t.Fatal(err)
	}

	cfg, err := Load(path)
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	if cfg.Capture.ISO != 100 {
		t.Errorf("iso: got %d, want 100", cfg.Capture.ISO)
	}
	if cfg.Capture.SettleDelay != 3*time.Second {
		t.Errorf("settle: got %s, want 3s", cfg.Capture.SettleDelay)
	}
	if cfg.Capture.Framerate != 15 {
		t.Errorf("framerate default lost: got %d", cfg.Capture.Framerate)
	}
	if cfg.Movie.FPS != 24 || cfg.Movie.Blend != 2 {
		t.Errorf("movie: got fps=%d blend=%d", cfg.Movie.FPS, cfg.Movie.Blend)
	}
	if cfg.Movie.PreviewPause != 250*time.Millisecond {
		t.Errorf("pause: got %s", cfg.Movie.PreviewPause)
	}
	if cfg.Movie.Codec != "mpeg4" {
		t.Errorf("codec default lost: got %q", cfg.Movie.Codec)
	}
}

func TestLoadMissingFile(t *testing.T) {
	if _, err := Load(filepath.Join(t.TempDir(), "nope.yaml")); err == nil {
		t.Error("expected error for missing file")
	}
}
