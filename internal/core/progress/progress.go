package progress

import (
	"io"
	"os"

	"github.com/schollz/progressbar/v3"
)

type Progress struct {
	bar *progressbar.ProgressBar
	out io.Writer
}

// New returns a progress reporter writing to stderr, or a silent one.
func New(quiet bool) *Progress {
	var out io.Writer = os.Stderr
	if quiet {
		out = io.Discard
	}
	return &Progress{bar: progressCreate(-1, "", out), out: out}
}

func (p *Progress) Spinner(desc string) {
	_ = p.bar.Clear()
	p.Reset(-1, desc)
	_ = p.bar.RenderBlank()
}

func (p *Progress) Reset(max int, desc string) {
	p.bar = progressCreate(max, desc, p.out)
}

func (p *Progress) Add(n int) {
	_ = p.bar.Add(n)
}

func (p *Progress) Describe(desc string) {
	p.bar.Describe(desc)
}

func (p *Progress) Finish() {
	_ = p.bar.Finish()
}

func progressCreate(max int, desc string, out io.Writer) *progressbar.ProgressBar {
	return progressbar.NewOptions(max,
		progressbar.OptionSetWriter(out),
		progressbar.OptionSetDescription(desc),
		progressbar.OptionShowCount(),
		progressbar.OptionEnableColorCodes(true),
		progressbar.OptionOnCompletion(func() {
			_, _ = io.WriteString(out, "\n")
		}),
		progressbar.OptionSetTheme(progressbar.Theme{
			Saucer:        "[green]/[reset]",
			SaucerHead:    "[green]/[reset]",
			SaucerPadding: " ",
			BarStart:      "[",
			BarEnd:        "]",
		}))
}
