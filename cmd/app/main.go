package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"path/filepath"
	"syscall"
	"time"

	"github.com/urfave/cli"

	"github.com/1F47E/go-timereel/internal/camera"
	"github.com/1F47E/go-timereel/internal/config"
	"github.com/1F47E/go-timereel/internal/core"
	"github.com/1F47E/go-timereel/internal/logger"
)

var app = cli.NewApp()
var log = logger.Log

// set in main, canceled on SIGINT/SIGTERM
var ctx = context.Background()

func init() {
	defaults := config.Default()

	app.Name = "timereel"
	app.Usage = "Timelapse capture and movie assembly"
	app.UsageText = "timereel [global options] command [options] [imgpath]"
	app.HideVersion = true
	app.Flags = []cli.Flag{
		cli.StringFlag{Name: "config, c", Usage: "YAML config file"},
		cli.BoolFlag{Name: "debug", Usage: "debug logging, same as DEBUG=1"},
	}
	app.Before = func(c *cli.Context) error {
		if c.GlobalBool("debug") {
			logger.SetDebug(true)
		}
		return nil
	}
	app.Commands = []cli.Command{
		{
			Name:    "capture",
			Aliases: []string{"c"},
			Usage:   "Take timelapse images with the Pi camera",
			Flags: []cli.Flag{
				cli.StringFlag{Name: "resolution, r", Value: fmt.Sprintf("%dx%d", defaults.Capture.Width, defaults.Capture.Height), Usage: "image size WxH"},
				cli.IntFlag{Name: "interval, i", Usage: "seconds between captures, 0 takes a single image"},
				cli.IntFlag{Name: "count, n", Value: defaults.Capture.Count, Usage: "number of images"},
				cli.StringFlag{Name: "output, t", Value: defaults.Capture.OutputDir, Usage: "target directory"},
				cli.IntFlag{Name: "rotation", Value: defaults.Capture.Rotation},
				cli.IntFlag{Name: "iso", Value: defaults.Capture.ISO},
				cli.IntFlag{Name: "framerate", Value: defaults.Capture.Framerate},
				cli.DurationFlag{Name: "settle", Value: defaults.Capture.SettleDelay, Usage: "auto exposure settle time before the lock"},
				cli.StringFlag{Name: "camera-bin", Value: defaults.Capture.Binary},
			},
			Action: runCapture,
		},
		{
			Name:      "movie",
			Aliases:   []string{"m"},
			Usage:     "Assemble a directory of timestamped images into an mp4",
			ArgsUsage: "<imgpath>",
			Flags: []cli.Flag{
				cli.StringFlag{Name: "output, o", Value: defaults.Movie.Output, Usage: "output file, .mp4 is appended when missing"},
				cli.BoolFlag{Name: "view, v", Usage: "live preview window"},
				cli.BoolFlag{Name: "test, t", Usage: "dry run, no video is written"},
				cli.IntFlag{Name: "blend, b", Usage: fmt.Sprintf("intermediate frames between images, 0..%d", config.MaxBlend)},
				cli.IntFlag{Name: "fps", Value: defaults.Movie.FPS},
				cli.StringFlag{Name: "timestamp_format", Value: defaults.Movie.TimestampFormat, Usage: "strftime format of the image file names"},
				cli.BoolFlag{Name: "ts", Usage: "stamp the capture time on every frame"},
				cli.StringFlag{Name: "codec", Value: defaults.Movie.Codec, Usage: "ffmpeg video codec"},
				cli.DurationFlag{Name: "pause", Value: defaults.Movie.PreviewPause, Usage: "preview time per frame"},
				cli.BoolFlag{Name: "quiet", Usage: "no progress bar"},
			},
			Action: runMovie,
		},
	}
}

// loadConfig reads --config; command line flags win over it.
func loadConfig(c *cli.Context) (config.Config, error) {
	return config.Load(c.GlobalString("config"))
}

func runCapture(c *cli.Context) error {
	cfg, err := loadConfig(c)
	if err != nil {
		return err
	}
	cc := &cfg.Capture
	if c.IsSet("resolution") {
		if cc.Width, cc.Height, err = config.ParseResolution(c.String("resolution")); err != nil {
			return err
		}
	}
	if c.IsSet("interval") {
		cc.Interval = time.Duration(c.Int("interval")) * time.Second
	}
	if c.IsSet("count") {
		cc.Count = c.Int("count")
	}
	if c.IsSet("output") {
		cc.OutputDir = c.String("output")
	}
	if c.IsSet("rotation") {
		cc.Rotation = c.Int("rotation")
	}
	if c.IsSet("iso") {
		cc.ISO = c.Int("iso")
	}
	if c.IsSet("framerate") {
		cc.Framerate = c.Int("framerate")
	}
	if c.IsSet("settle") {
		cc.SettleDelay = c.Duration("settle")
	}
	if c.IsSet("camera-bin") {
		cc.Binary = c.String("camera-bin")
	}
	if err := cc.Validate(); err != nil {
		return err
	}

	cam := camera.New(camera.NewRpicam(cc.Binary), *cc)
	if err := cam.Initialize(ctx); err != nil {
		return err
	}
	if _, err := cam.LockExposure(ctx, filepath.Join(cc.OutputDir, config.PathScratch)); err != nil {
		return err
	}
	paths, err := cam.RunInterval(ctx, cc.OutputDir, cc.Count, cc.Interval)
	if err != nil {
		return err
	}
	log.Infof("%d images saved to %s", len(paths), cc.OutputDir)
	return nil
}

func runMovie(c *cli.Context) error {
	dir := c.Args().Get(0)
	if dir == "" {
		return fmt.Errorf("Image path is required")
	}
	cfg, err := loadConfig(c)
	if err != nil {
		return err
	}
	m := &cfg.Movie
	if c.IsSet("output") {
		m.Output = c.String("output")
	}
	if c.IsSet("view") {
		m.Preview = c.Bool("view")
	}
	if c.IsSet("test") {
		m.DryRun = c.Bool("test")
	}
	if c.IsSet("blend") {
		m.Blend = c.Int("blend")
	}
	if c.IsSet("fps") {
		m.FPS = c.Int("fps")
	}
	if c.IsSet("timestamp_format") {
		m.TimestampFormat = c.String("timestamp_format")
	}
	if c.IsSet("ts") {
		m.ShowTimestamp = c.Bool("ts")
	}
	if c.IsSet("codec") {
		m.Codec = c.String("codec")
	}
	if c.IsSet("pause") {
		m.PreviewPause = c.Duration("pause")
	}
	if c.IsSet("quiet") {
		m.Quiet = c.Bool("quiet")
	}
	if err := m.Validate(); err != nil {
		return err
	}

	return core.NewCore(ctx, core.FromConfig(*m)).RunDir(dir)
}

func main() {
	var cancel context.CancelFunc
	ctx, cancel = signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer cancel()

	err := app.Run(os.Args)
	if err != nil {
		cancel()
		log.Fatal(err)
	}
}
