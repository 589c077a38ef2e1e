package camera

import (
	"bytes"
	"context"
	"fmt"
	"os/exec"
	"strconv"
	"strings"
	"time"

	"github.com/goccy/go-json"

	"github.com/1F47E/go-timereel/internal/logger"
)

// Rpicam drives the camera through the rpicam-still executable.
type Rpicam struct {
	Binary   string
	settings Settings
}

func NewRpicam(binary string) *Rpicam {
	return &Rpicam{Binary: binary}
}

// metadata is the part of `rpicam-still --metadata -` output we need.
type metadata struct {
	ExposureTime int64     `json:"ExposureTime"` // microseconds
	ColourGains  []float64 `json:"ColourGains"`
	AnalogueGain float64   `json:"AnalogueGain"`
}

func (r *Rpicam) Configure(ctx context.Context, s Settings) error {
	if _, err := exec.LookPath(r.Binary); err != nil {
		return fmt.Errorf("%w: %v", ErrDeviceInit, err)
	}
	out, err := r.run(ctx, "--list-cameras")
	if err != nil {
		return fmt.Errorf("%w: %v", ErrDeviceInit, err)
	}
	if !bytes.Contains(out, []byte("Available cameras")) {
		return fmt.Errorf("%w: no camera detected", ErrDeviceInit)
	}
	r.settings = s
	return nil
}

func (r *Rpicam) Probe(ctx context.Context, scratch string, settle time.Duration) (Exposure, error) {
	out, err := r.run(ctx, r.probeArgs(scratch, settle)...)
	if err != nil {
		return Exposure{}, err
	}
	return parseMetadata(out)
}

// probeArgs meters in the long exposure mode, the closest rpicam-still has to
// a night mode, so dim scenes settle on a usable shutter before the lock.
func (r *Rpicam) probeArgs(scratch string, settle time.Duration) []string {
	return append(r.baseArgs(),
		"--exposure", "long",
		"-t", strconv.FormatInt(settle.Milliseconds(), 10),
		"--metadata", "-",
		"--metadata-format", "json",
		"-o", scratch,
	)
}

func (r *Rpicam) Capture(ctx context.Context, path string, exp *Exposure) error {
	_, err := r.run(ctx, r.captureArgs(path, exp)...)
	return err
}

func (r *Rpicam) baseArgs() []string {
	s := r.settings
	return []string{
		"-n",
		"--encoding", "jpg",
		"--width", strconv.Itoa(s.Width),
		"--height", strconv.Itoa(s.Height),
		"--rotation", strconv.Itoa(s.Rotation),
		"--framerate", strconv.Itoa(s.Framerate),
		"--gain", strconv.FormatFloat(s.Gain(), 'f', 2, 64),
	}
}

func (r *Rpicam) captureArgs(path string, exp *Exposure) []string {
	args := append(r.baseArgs(), "--immediate")
	if exp != nil {
		args = append(args,
			"--shutter", strconv.FormatInt(exp.Shutter.Microseconds(), 10),
			"--awbgains", fmt.Sprintf("%.3f,%.3f", exp.GainRed, exp.GainBlue),
		)
	}
	return append(args, "-o", path)
}

func (r *Rpicam) run(ctx context.Context, args ...string) ([]byte, error) {
	log := logger.Scope("rpicam")
	log.Debugf("%s %s", r.Binary, strings.Join(args, " "))
	var stdout, stderr bytes.Buffer
	cmd := exec.CommandContext(ctx, r.Binary, args...)
	cmd.Stdout = &stdout
	cmd.Stderr = &stderr
	if err := cmd.Run(); err != nil {
		if ctx.Err() != nil {
			return nil, ctx.Err()
		}
		return nil, fmt.Errorf("%s failed: %w: %s", r.Binary, err, strings.TrimSpace(stderr.String()))
	}
	// --list-cameras reports on stderr on some releases
	return append(stdout.Bytes(), stderr.Bytes()...), nil
}

// parseMetadata reads the first JSON object found in out; rpicam-still may
// print other lines around it.
func parseMetadata(out []byte) (Exposure, error) {
	start := bytes.IndexByte(out, '{')
	end := bytes.LastIndexByte(out, '}')
	if start < 0 || end < start {
		return Exposure{}, fmt.Errorf("no metadata in camera output")
	}
	var md metadata
	if err := json.Unmarshal(out[start:end+1], &md); err != nil {
		return Exposure{}, fmt.Errorf("Cannot parse camera metadata: %w", err)
	}
	if md.ExposureTime <= 0 {
		return Exposure{}, fmt.Errorf("camera metadata has no exposure time")
	}
	if len(md.ColourGains) != 2 {
		return Exposure{}, fmt.Errorf("camera metadata has %d colour gains, want 2", len(md.ColourGains))
	}
	return Exposure{
		Shutter:      time.Duration(md.ExposureTime) * time.Microsecond,
		GainRed:      md.ColourGains[0],
		GainBlue:     md.ColourGains[1],
		AnalogueGain: md.AnalogueGain,
	}, nil
}
