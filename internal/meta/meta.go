package meta

import (
	"errors"
	"fmt"
	"path/filepath"
	"strings"
	"time"

	"github.com/itchyny/timefmt-go"

	"github.com/1F47E/go-timereel/internal/logger"
)

var ErrMalformedTimestamp = errors.New("malformed timestamp")

// Info holds the overlay strings of one frame. All of them are rendered
// from Time, so they always agree with each other.
type Info struct {
	Time  time.Time
	Day   string // full weekday name
	Date  string // MM-DD-YYYY
	Clock string // HH:MM
}

// Parse reads raw with a strftime format such as "%Y-%m-%d_%H%M".
// The whole of raw has to match.
func Parse(raw, format string) (Info, error) {
	t, err := timefmt.Parse(raw, format)
	if err != nil {
		return Info{}, fmt.Errorf("%w: %q does not match %q: %v", ErrMalformedTimestamp, raw, format, err)
	}
	return newInfo(t), nil
}

// FromFilename parses the file name without directory and extension,
// e.g. frames/2018-02-09_1750.jpg.
func FromFilename(path, format string) (Info, error) {
	log := logger.Scope("meta parser")
	stem := strings.TrimSuffix(filepath.Base(path), filepath.Ext(path))
	log.Debugf("Parsing timestamp %q with %q", stem, format)
	return Parse(stem, format)
}

// Format renders t with a strftime format. Parse(Format(t, f), f) gives t
// back for every t the format can express.
func Format(t time.Time, format string) string {
	return timefmt.Format(t, format)
}

// Counter renders the frame position right aligned in three columns followed
// by label, e.g. "  7 min.". Wider numbers are not truncated.
//
// NOTE: the "min." label assumes one frame per minute of capture. The number
// is the frame position, not elapsed time; with any other capture interval
// the label is wrong.
func Counter(position int, label string) string {
	return fmt.Sprintf("%3d %s", position, label)
}

func (i Info) Print() string {
	return fmt.Sprintf("Day: %s, Date: %s, Time: %s", i.Day, i.Date, i.Clock)
}

func newInfo(t time.Time) Info {
	return Info{
		Time:  t,
		Day:   t.Format("Monday"),
		Date:  t.Format("01-02-2006"),
		Clock: t.Format("15:04"),
	}
}
