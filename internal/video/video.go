package video

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"image"
	"io"
	"os"
	"os/exec"
	"path/filepath"
	"strconv"
	"strings"

	"github.com/1F47E/go-timereel/internal/blend"
	"github.com/1F47E/go-timereel/internal/logger"
	"github.com/1F47E/go-timereel/internal/storage"
)

var (
	ErrSinkOpen = errors.New("cannot open video sink")
	ErrClosed   = errors.New("video sink already closed")
)

// Sink is an append-only stream of equally sized frames. It is finished
// exactly once: Close keeps the video, Abort throws it away.
type Sink interface {
	WriteFrame(img *image.RGBA) error
	Close() error
	Abort() error
}

type Options struct {
	Path   string
	Width  int
	Height int
	FPS    int
	Codec  string // ffmpeg encoder name, e.g. mpeg4 or libx264
	Binary string // ffmpeg executable
}

// Encoder pipes raw RGBA frames into an ffmpeg process. The video is written
// to a .partial file next to Path and moved into place by Close, so a failed
// run never leaves a truncated movie behind.
type Encoder struct {
	opts    Options
	partial string
	cmd     *exec.Cmd
	stdin   io.WriteCloser
	stderr  bytes.Buffer
	frames  int
	closed  bool
}

// Create starts ffmpeg for opts. Every failure wraps ErrSinkOpen.
func Create(ctx context.Context, opts Options) (*Encoder, error) {
	log := logger.Scope("video")
	if opts.Width <= 0 || opts.Height <= 0 || opts.FPS <= 0 {
		return nil, fmt.Errorf("%w: invalid size %dx%d at %d fps", ErrSinkOpen, opts.Width, opts.Height, opts.FPS)
	}
	if opts.Binary == "" {
		opts.Binary = "ffmpeg"
	}
	bin, err := exec.LookPath(opts.Binary)
	if err != nil {
		return nil, fmt.Errorf("%w: %s not found: %v", ErrSinkOpen, opts.Binary, err)
	}
	dir := filepath.Dir(opts.Path)
	if info, err := os.Stat(dir); err != nil || !info.IsDir() {
		return nil, fmt.Errorf("%w: output dir %s is not usable", ErrSinkOpen, dir)
	}

	e := &Encoder{
		opts:    opts,
		partial: storage.PartialPath(opts.Path),
	}
	args := e.args()
	log.Debugf("Running ffmpeg command: %s %s", bin, strings.Join(args, " "))
	e.cmd = exec.CommandContext(ctx, bin, args...)
	e.cmd.Stderr = &e.stderr
	e.stdin, err = e.cmd.StdinPipe()
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrSinkOpen, err)
	}
	if err := e.cmd.Start(); err != nil {
		return nil, fmt.Errorf("%w: starting %s: %v", ErrSinkOpen, opts.Binary, err)
	}
	return e, nil
}

func (e *Encoder) args() []string {
	args := []string{
		"-y", "-hide_banner", "-loglevel", "error",
		"-f", "rawvideo",
		"-pix_fmt", "rgba",
		"-s", fmt.Sprintf("%dx%d", e.opts.Width, e.opts.Height),
		"-r", strconv.Itoa(e.opts.FPS),
		"-i", "pipe:0",
		"-an",
	}
	if e.opts.Codec != "" {
		args = append(args, "-c:v", e.opts.Codec)
	}
	if e.opts.Codec == "mpeg4" {
		// default mpeg4 bitrate is far too low for stills
		args = append(args, "-q:v", "3")
	}
	return append(args, "-pix_fmt", "yuv420p", e.partial)
}

func (e *Encoder) WriteFrame(img *image.RGBA) error {
	if e.closed {
		return ErrClosed
	}
	b := img.Bounds()
	if b.Dx() != e.opts.Width || b.Dy() != e.opts.Height {
		return fmt.Errorf("%w: sink is %dx%d, frame is %dx%d", blend.ErrDimensionMismatch, e.opts.Width, e.opts.Height, b.Dx(), b.Dy())
	}
	rowLen := b.Dx() * 4
	if img.Stride == rowLen {
		start := img.PixOffset(b.Min.X, b.Min.Y)
		if _, err := e.stdin.Write(img.Pix[start : start+rowLen*b.Dy()]); err != nil {
			return e.pipeErr(err)
		}
	} else {
		for y := b.Min.Y; y < b.Max.Y; y++ {
			start := img.PixOffset(b.Min.X, y)
			if _, err := e.stdin.Write(img.Pix[start : start+rowLen]); err != nil {
				return e.pipeErr(err)
			}
		}
	}
	e.frames++
	return nil
}

// Close flushes ffmpeg and moves the finished video to its final path.
func (e *Encoder) Close() error {
	if e.closed {
		return ErrClosed
	}
	e.closed = true
	_ = e.stdin.Close()
	if err := e.cmd.Wait(); err != nil {
		_ = storage.Discard(e.partial)
		return fmt.Errorf("ffmpeg failed: %w (output: %s)", err, strings.TrimSpace(e.stderr.String()))
	}
	if err := storage.Commit(e.partial, e.opts.Path); err != nil {
		return err
	}
	logger.Scope("video").Debugf("Video saved: %s (%d frames)", e.opts.Path, e.frames)
	return nil
}

// Abort stops ffmpeg and removes the partial video.
func (e *Encoder) Abort() error {
	if e.closed {
		return nil
	}
	e.closed = true
	_ = e.stdin.Close()
	if e.cmd.Process != nil {
		_ = e.cmd.Process.Kill()
	}
	_ = e.cmd.Wait() // killed on purpose
	return storage.Discard(e.partial)
}

// pipeErr finishes the sink after a failed write; ffmpeg has gone away, so
// its output is only safe to read after Wait.
func (e *Encoder) pipeErr(err error) error {
	e.closed = true
	_ = e.stdin.Close()
	_ = e.cmd.Wait()
	_ = storage.Discard(e.partial)
	return fmt.Errorf("Error writing frame %d to ffmpeg: %w (output: %s)", e.frames+1, err, strings.TrimSpace(e.stderr.String()))
}
