package camera

import (
	"context"
	"errors"
	"fmt"
	"path/filepath"
	"time"

	"github.com/1F47E/go-timereel/internal/config"
	"github.com/1F47E/go-timereel/internal/logger"
	"github.com/1F47E/go-timereel/internal/meta"
	"github.com/1F47E/go-timereel/internal/storage"
)

var ErrDeviceInit = errors.New("camera device init failed")

type Settings struct {
	Width     int
	Height    int
	Rotation  int
	ISO       int
	Framerate int
}

// Gain is the analogue gain standing in for ISO, 100 ISO = 1.0.
func (s Settings) Gain() float64 {
	return float64(s.ISO) / 100
}

// Exposure is what the auto-exposure probe settled on.
type Exposure struct {
	Shutter      time.Duration
	GainRed      float64
	GainBlue     float64
	AnalogueGain float64
}

func (e Exposure) String() string {
	return fmt.Sprintf("shutter %s, awb gains %.3f,%.3f, analogue gain %.2f", e.Shutter, e.GainRed, e.GainBlue, e.AnalogueGain)
}

// Driver is the still camera itself.
type Driver interface {
	// Configure checks the device is there and remembers the settings.
	Configure(ctx context.Context, s Settings) error
	// Probe takes one auto-exposure shot into scratch after settle and
	// reports the exposure it converged on.
	Probe(ctx context.Context, scratch string, settle time.Duration) (Exposure, error)
	// Capture writes one image to path. A nil exposure means automatic.
	Capture(ctx context.Context, path string, exp *Exposure) error
}

type Camera struct {
	driver     Driver
	settings   Settings
	settle     time.Duration
	nameFormat string

	ready    bool
	exposure *Exposure

	now   func() time.Time
	sleep func(ctx context.Context, d time.Duration) error
}

func New(driver Driver, cfg config.Capture) *Camera {
	return &Camera{
		driver: driver,
		settings: Settings{
			Width:     cfg.Width,
			Height:    cfg.Height,
			Rotation:  cfg.Rotation,
			ISO:       cfg.ISO,
			Framerate: cfg.Framerate,
		},
		settle:     cfg.SettleDelay,
		nameFormat: cfg.NameFormat,
		now:        time.Now,
		sleep:      sleep,
	}
}

func (c *Camera) Initialize(ctx context.Context) error {
	log := logger.Scope("camera")
	if err := c.driver.Configure(ctx, c.settings); err != nil {
		if errors.Is(err, ErrDeviceInit) {
			return err
		}
		return fmt.Errorf("%w: %v", ErrDeviceInit, err)
	}
	c.ready = true
	log.Infof("Camera ready: %dx%d, rotation %d, iso %d, framerate %d",
		c.settings.Width, c.settings.Height, c.settings.Rotation, c.settings.ISO, c.settings.Framerate)
	return nil
}

// LockExposure lets auto exposure and white balance converge on a throwaway
// shot, then pins every later capture to the result. The scratch image is
// removed afterwards.
func (c *Camera) LockExposure(ctx context.Context, scratch string) (Exposure, error) {
	log := logger.Scope("camera")
	if !c.ready {
		return Exposure{}, fmt.Errorf("%w: exposure lock before initialize", ErrDeviceInit)
	}
	if err := storage.EnsureDir(filepath.Dir(scratch)); err != nil {
		return Exposure{}, err
	}
	log.Infof("Waiting %s for automatic gain control to settle", c.settle)
	exp, err := c.driver.Probe(ctx, scratch, c.settle)
	if err != nil {
		if errors.Is(err, ErrDeviceInit) || errors.Is(err, context.Canceled) {
			return Exposure{}, err
		}
		return Exposure{}, fmt.Errorf("%w: exposure probe: %v", ErrDeviceInit, err)
	}
	if err := storage.Discard(scratch); err != nil {
		log.Warnf("Cannot remove scratch image %s: %v", scratch, err)
	}
	c.exposure = &exp
	log.Infof("Exposure locked: %s", exp)
	return exp, nil
}

// CaptureOne writes one image into dir, named after the current time to the
// second, and returns its path.
func (c *Camera) CaptureOne(ctx context.Context, dir string) (string, error) {
	log := logger.Scope("camera")
	if !c.ready {
		return "", fmt.Errorf("%w: capture before initialize", ErrDeviceInit)
	}
	path := filepath.Join(dir, meta.Format(c.now(), c.nameFormat)+config.ExtFrame)
	if err := c.driver.Capture(ctx, path, c.exposure); err != nil {
		return "", fmt.Errorf("Error capturing %s: %w", path, err)
	}
	log.Infof("Captured image %s", path)
	return path, nil
}

// RunInterval takes count images into dir, interval apart from the start of
// one capture to the start of the next. There is no wait after the last
// capture, and interval <= 0 takes a single image. The first failed capture
// ends the run.
func (c *Camera) RunInterval(ctx context.Context, dir string, count int, interval time.Duration) ([]string, error) {
	log := logger.Scope("camera")
	if err := storage.EnsureDir(dir); err != nil {
		return nil, err
	}
	if interval <= 0 {
		count = 1
	}

	paths := make([]string, 0, count)
	for i := 0; i < count; i++ {
		if err := ctx.Err(); err != nil {
			return paths, err
		}
		start := c.now()
		path, err := c.CaptureOne(ctx, dir)
		if err != nil {
			return paths, err
		}
		paths = append(paths, path)
		if i == count-1 {
			break
		}

		wait := interval - c.now().Sub(start)
		if wait <= 0 {
			log.Warnf("Capture took longer than the %s interval", interval)
			continue
		}
		log.Debugf("Next capture in %s", wait)
		if err := c.sleep(ctx, wait); err != nil {
			return paths, err
		}
	}
	return paths, nil
}

func sleep(ctx context.Context, d time.Duration) error {
	t := time.NewTimer(d)
	defer t.Stop()
	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-t.C:
		return nil
	}
}
