package core

import (
	"errors"
	"fmt"
	"image"
	"path/filepath"

	"github.com/1F47E/go-timereel/internal/blend"
	"github.com/1F47E/go-timereel/internal/job"
	"github.com/1F47E/go-timereel/internal/logger"
	"github.com/1F47E/go-timereel/internal/meta"
	"github.com/1F47E/go-timereel/internal/overlay"
	"github.com/1F47E/go-timereel/internal/storage"
	"github.com/1F47E/go-timereel/internal/video"
)

// RunDir assembles every frame file in dir.
func (c *Core) RunDir(dir string) error {
	seq, err := storage.ScanFrames(dir, c.opts.Extension)
	if err != nil {
		return err
	}
	if seq.Len() == 0 {
		return fmt.Errorf("%w: no %s files in %s", ErrEmptyInput, c.opts.Extension, dir)
	}
	paths := seq.Paths()
	logger.Scope("core assemble").Debugf("Frames %s .. %s", filepath.Base(paths[0]), filepath.Base(paths[len(paths)-1]))
	return c.Run(seq)
}

// run is the state of one assembly pass.
type run struct {
	*Core
	seq     storage.Sequence
	width   int
	height  int
	painter *overlay.Painter
	sink    video.Sink
	preview video.Previewer
}

// Run turns seq into a movie:
//  1. the first frame fixes the output size, every other frame must match
//  2. each real frame is stamped (optional), previewed (optional) and written
//  3. between two real frames Blend cross-dissolved frames follow, stamped
//     like the earlier real frame
//
// The video is only kept when every frame made it; on any error the sink is
// aborted and no output file remains.
func (c *Core) Run(seq storage.Sequence) (err error) {
	log := logger.Scope("core assemble")
	if err := c.opts.validate(); err != nil {
		return err
	}
	if seq.Len() == 0 {
		return ErrEmptyInput
	}

	first, err := storage.FrameRead(seq.At(0))
	if err != nil {
		return err
	}
	r := &run{
		Core:   c,
		seq:    seq,
		width:  first.Bounds().Dx(),
		height: first.Bounds().Dy(),
	}

	if c.opts.DryRun {
		log.Info("Testing only. No actual video file will be written.")
	}
	if c.opts.Blend > 0 {
		log.Infof("Blending ON. Creating %d intermediate images between each frame pair", c.opts.Blend)
	}
	log.Infof("%d images found", seq.Len())
	log.Infof("First image height: %d, width: %d", r.height, r.width)
	log.Info("All subsequent images have to have the same dimensions!")

	if c.opts.ShowTimestamp {
		r.painter, err = overlay.NewPainter(c.opts.TextColor)
		if err != nil {
			return err
		}
		defer r.painter.Close()
	}

	if !c.opts.DryRun {
		r.sink, err = c.openSink(c.ctx, video.Options{
			Path:   c.opts.Output,
			Width:  r.width,
			Height: r.height,
			FPS:    c.opts.FPS,
			Codec:  c.opts.Codec,
			Binary: c.opts.Encoder,
		})
		if err != nil {
			if !errors.Is(err, video.ErrSinkOpen) {
				err = fmt.Errorf("%w: %v", video.ErrSinkOpen, err)
			}
			return err
		}
		log.Infof("Opened video writer: %s", c.opts.Output)
		defer func() {
			if err != nil {
				_ = r.sink.Abort()
			}
		}()
	}

	if c.opts.Preview {
		r.preview, err = c.openPreview(c.ctx, video.PreviewOptions{
			Scale:  c.opts.PreviewScale,
			Pause:  c.opts.PreviewPause,
			Binary: c.opts.Viewer,
		}, r.width, r.height)
		if err != nil {
			return err
		}
		defer r.preview.Close()
	}

	plan := job.Plan(seq.Len(), c.opts.Blend)
	c.progress.Reset(len(plan), "Assembling...")
	if err := r.frames(plan, first); err != nil {
		return err
	}

	if r.sink != nil {
		c.progress.Spinner("Saving video... ")
		if err := r.sink.Close(); err != nil {
			return err
		}
		log.Infof("Video saved: %s", c.opts.Output)
	}
	c.progress.Finish()
	log.Info("Done.")
	return nil
}

// frames walks the job plan. A real frame is loaded once: the blends before
// it already pulled it in as the right-hand side.
func (r *run) frames(plan []job.Job, first *image.RGBA) error {
	log := logger.Scope("core assemble")
	var (
		current = first
		next    *image.RGBA
		blends  []*image.RGBA
		lines   *overlay.Lines
		err     error
	)
	for _, j := range plan {
		if err := r.ctx.Err(); err != nil {
			return err
		}
		switch j.Kind {
		case job.KindReal:
			path := r.seq.At(j.Index)
			log.Debugf("Current image: %s", path)
			r.progress.Describe(fmt.Sprintf("Assembling %s", filepath.Base(path)))
			if j.Index > 0 {
				if next == nil {
					if next, err = r.load(path); err != nil {
						return err
					}
				}
				current, next = next, nil
			}
			if lines, err = r.lines(j.Index); err != nil {
				return err
			}
			if err := r.emit(j, current, lines); err != nil {
				return err
			}

		case job.KindBlend:
			if j.Step == 1 {
				log.Debugf("Creating %d intermediate blends to image %s", j.Steps, r.seq.At(j.Index+1))
				if next, err = r.load(r.seq.At(j.Index + 1)); err != nil {
					return err
				}
				if blends, err = blend.Interpolate(current, next, j.Steps); err != nil {
					return err
				}
			}
			if err := r.emit(j, blends[j.Step-1], lines); err != nil {
				return err
			}
		}
	}
	return nil
}

// lines is the overlay text of real frame n, nil without --ts. Blends carry
// the text of the real frame before them.
func (r *run) lines(n int) (*overlay.Lines, error) {
	if !r.opts.ShowTimestamp {
		return nil, nil
	}
	info, err := meta.FromFilename(r.seq.At(n), r.opts.TimestampFormat)
	if err != nil {
		return nil, err
	}
	logger.Scope("core assemble").Debug(info.Print())
	return &overlay.Lines{
		Day:     info.Day,
		Date:    info.Date,
		Clock:   info.Clock,
		Counter: meta.Counter(n+1, r.opts.CounterLabel),
	}, nil
}

// load reads a frame and holds it to the size of the first one.
func (r *run) load(path string) (*image.RGBA, error) {
	img, err := storage.FrameRead(path)
	if err != nil {
		return nil, err
	}
	if err := blend.SameSize(image.Rect(0, 0, r.width, r.height), img.Bounds()); err != nil {
		return nil, fmt.Errorf("%s: %w", path, err)
	}
	return img, nil
}

// emit stamps, previews and writes one output frame. img itself is never
// drawn on; it may still be needed for the next blend.
func (r *run) emit(j job.Job, img *image.RGBA, lines *overlay.Lines) error {
	log := logger.Scope("core assemble")
	log.Debug(j.Print())

	out := img
	if lines != nil {
		var err error
		out, err = r.painter.Stamp(img, *lines)
		if err != nil {
			return err
		}
	}
	if r.preview != nil {
		r.preview.Show(out)
	}
	if r.sink != nil {
		if err := r.sink.WriteFrame(out); err != nil {
			return err
		}
	}
	r.progress.Add(1)
	return nil
}
