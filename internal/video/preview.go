package video

import (
	"context"
	"fmt"
	"image"
	"io"
	"math"
	"os/exec"
	"strconv"
	"strings"
	"sync"
	"time"

	"github.com/disintegration/gift"

	"github.com/1F47E/go-timereel/internal/logger"
)

// Previewer mirrors frames to a live window. Show never blocks the caller
// and must not be called after Close.
type Previewer interface {
	Show(img image.Image)
	Close() error
}

type PreviewOptions struct {
	Scale  float64       // 0.5 shows half size
	Pause  time.Duration // how long each frame stays on screen
	Binary string        // ffplay executable
	Title  string
}

// Preview feeds scaled frames to an ffplay window. Frames that arrive while
// the window is still holding the previous one replace each other; only the
// latest waits to be shown.
type Preview struct {
	opts   PreviewOptions
	width  int
	height int
	filter *gift.GIFT
	cmd    *exec.Cmd
	stdin  io.WriteCloser
	frames chan []byte
	wg     sync.WaitGroup
	once   sync.Once
}

// ScaledSize is the preview size of a width x height frame, at least 1x1.
func ScaledSize(width, height int, scale float64) (int, int) {
	w := int(math.Round(float64(width) * scale))
	h := int(math.Round(float64(height) * scale))
	return max(w, 1), max(h, 1)
}

// OpenPreview starts ffplay for frames of width x height.
func OpenPreview(ctx context.Context, opts PreviewOptions, width, height int) (*Preview, error) {
	log := logger.Scope("preview")
	if opts.Binary == "" {
		opts.Binary = "ffplay"
	}
	if opts.Scale <= 0 {
		opts.Scale = 0.5
	}
	if opts.Title == "" {
		opts.Title = "timereel"
	}
	bin, err := exec.LookPath(opts.Binary)
	if err != nil {
		return nil, fmt.Errorf("Cannot start preview, %s not found: %w", opts.Binary, err)
	}

	w, h := ScaledSize(width, height, opts.Scale)
	p := &Preview{
		opts:   opts,
		width:  w,
		height: h,
		filter: gift.New(gift.Resize(w, h, gift.CubicResampling)),
		frames: make(chan []byte, 1),
	}

	args := []string{
		"-hide_banner", "-loglevel", "error",
		"-autoexit",
		"-window_title", opts.Title,
		"-f", "rawvideo",
		"-pixel_format", "rgba",
		"-video_size", fmt.Sprintf("%dx%d", w, h),
		"-framerate", strconv.FormatFloat(displayRate(opts.Pause), 'f', 3, 64),
		"-i", "pipe:0",
	}
	log.Debugf("Running ffplay command: %s %s", bin, strings.Join(args, " "))
	p.cmd = exec.CommandContext(ctx, bin, args...)
	p.stdin, err = p.cmd.StdinPipe()
	if err != nil {
		return nil, fmt.Errorf("Cannot start preview: %w", err)
	}
	if err := p.cmd.Start(); err != nil {
		return nil, fmt.Errorf("Cannot start preview: %w", err)
	}

	p.wg.Add(1)
	go p.feed()
	return p, nil
}

// displayRate turns the hold time into the frame rate ffplay paces the
// window with.
func displayRate(pause time.Duration) float64 {
	if pause <= 0 {
		return 25
	}
	return float64(time.Second) / float64(pause)
}

func (p *Preview) Show(img image.Image) {
	dst := image.NewRGBA(image.Rect(0, 0, p.width, p.height))
	p.filter.Draw(dst, img)

	// latest frame wins
	select {
	case p.frames <- dst.Pix:
	default:
		select {
		case <-p.frames:
		default:
		}
		select {
		case p.frames <- dst.Pix:
		default:
		}
	}
}

func (p *Preview) feed() {
	defer p.wg.Done()
	log := logger.Scope("preview")
	broken := false
	for buf := range p.frames {
		if broken {
			continue
		}
		if _, err := p.stdin.Write(buf); err != nil {
			// window closed by the user; keep draining
			log.Debugf("Preview stopped: %v", err)
			broken = true
		}
	}
}

// Close stops the feeder and lets ffplay play out what it already has.
func (p *Preview) Close() error {
	p.once.Do(func() {
		close(p.frames)
		p.wg.Wait()
		_ = p.stdin.Close()

		done := make(chan error, 1)
		go func() { done <- p.cmd.Wait() }()
		select {
		case <-done:
		case <-time.After(2*p.opts.Pause + time.Second):
			_ = p.cmd.Process.Kill()
			<-done
		}
	})
	return nil
}
