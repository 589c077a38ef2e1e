package core

import (
	"context"
	"errors"
	"fmt"
	"image/color"
	"time"

	"github.com/1F47E/go-timereel/internal/config"
	"github.com/1F47E/go-timereel/internal/core/progress"
	"github.com/1F47E/go-timereel/internal/video"
)

var ErrEmptyInput = errors.New("no frames found")

// Options of one movie run. The zero value is not usable; start from
// FromConfig or fill every field.
type Options struct {
	Output          string
	FPS             int
	Blend           int // intermediate frames per gap, 0..5
	ShowTimestamp   bool
	DryRun          bool // run everything except opening and writing the video
	Preview         bool
	TimestampFormat string
	CounterLabel    string
	Codec           string
	PreviewPause    time.Duration
	PreviewScale    float64
	Extension       string
	Encoder         string
	Viewer          string
	Quiet           bool
	TextColor       color.Color
}

func FromConfig(m config.Movie) Options {
	return Options{
		Output:          config.NormalizeOutput(m.Output),
		FPS:             m.FPS,
		Blend:           m.Blend,
		ShowTimestamp:   m.ShowTimestamp,
		DryRun:          m.DryRun,
		Preview:         m.Preview,
		TimestampFormat: m.TimestampFormat,
		CounterLabel:    m.CounterLabel,
		Codec:           m.Codec,
		PreviewPause:    m.PreviewPause,
		PreviewScale:    m.PreviewScale,
		Extension:       m.Extension,
		Encoder:         m.Encoder,
		Viewer:          m.Viewer,
		Quiet:           m.Quiet,
		TextColor:       color.Black,
	}
}

func (o Options) validate() error {
	if o.FPS <= 0 {
		return fmt.Errorf("%w: fps %d", config.ErrInvalid, o.FPS)
	}
	if o.Blend < 0 || o.Blend > config.MaxBlend {
		return fmt.Errorf("%w: blend %d is outside 0..%d", config.ErrInvalid, o.Blend, config.MaxBlend)
	}
	if o.ShowTimestamp && o.TimestampFormat == "" {
		return fmt.Errorf("%w: empty timestamp format", config.ErrInvalid)
	}
	return nil
}

// SinkOpener and PreviewOpener create the external collaborators of a run.
type SinkOpener func(ctx context.Context, opts video.Options) (video.Sink, error)
type PreviewOpener func(ctx context.Context, opts video.PreviewOptions, width, height int) (video.Previewer, error)

type Core struct {
	ctx         context.Context
	opts        Options
	openSink    SinkOpener
	openPreview PreviewOpener
	progress    *progress.Progress
}

type Option func(*Core)

func WithSink(open SinkOpener) Option {
	return func(c *Core) { c.openSink = open }
}

func WithPreview(open PreviewOpener) Option {
	return func(c *Core) { c.openPreview = open }
}

func NewCore(ctx context.Context, opts Options, options ...Option) *Core {
	if opts.TextColor == nil {
		opts.TextColor = color.Black
	}
	if opts.Extension == "" {
		opts.Extension = config.ExtFrame
	}
	c := &Core{
		ctx:  ctx,
		opts: opts,
		openSink: func(ctx context.Context, o video.Options) (video.Sink, error) {
			return video.Create(ctx, o)
		},
		openPreview: func(ctx context.Context, o video.PreviewOptions, w, h int) (video.Previewer, error) {
			return video.OpenPreview(ctx, o, w, h)
		},
		progress: progress.New(opts.Quiet),
	}
	for _, o := range options {
		o(c)
	}
	return c
}
