// All files related functions
package storage

import (
	"errors"
	"fmt"
	"image"
	"image/draw"
	_ "image/jpeg"
	_ "image/png"
	"os"
	"path/filepath"
	"sort"
	"strings"
)

// Sequence is an ordered view over an immutable list of frame paths.
// The order is the lexicographic order of the file names; callers name
// their frames so that this is also chronological.
type Sequence struct {
	paths []string
	order []int
}

func NewSequence(paths []string) Sequence {
	store := make([]string, len(paths))
	copy(store, paths)
	order := make([]int, len(store))
	for i := range order {
		order[i] = i
	}
	sort.SliceStable(order, func(i, j int) bool {
		return filepath.Base(store[order[i]]) < filepath.Base(store[order[j]])
	})
	return Sequence{paths: store, order: order}
}

func (s Sequence) Len() int {
	return len(s.order)
}

// At returns the path at sorted position i.
func (s Sequence) At(i int) string {
	return s.paths[s.order[i]]
}

func (s Sequence) Paths() []string {
	out := make([]string, len(s.order))
	for i := range s.order {
		out[i] = s.At(i)
	}
	return out
}

// ScanFrames lists the files in dir ending in ext (case insensitive).
// An empty result is not an error here; the caller decides.
func ScanFrames(dir, ext string) (Sequence, error) {
	files, err := os.ReadDir(dir)
	if err != nil {
		return Sequence{}, fmt.Errorf("Error scanning frames dir: %w", err)
	}
	filesList := make([]string, 0, len(files))
	for _, file := range files {
		if file.IsDir() {
			continue
		}
		if strings.EqualFold(filepath.Ext(file.Name()), ext) {
			filesList = append(filesList, filepath.Join(dir, file.Name()))
		}
	}
	return NewSequence(filesList), nil
}

// FrameRead decodes an image file into an RGBA frame anchored at 0,0.
func FrameRead(filename string) (*image.RGBA, error) {
	file, err := os.Open(filename)
	if err != nil {
		return nil, err
	}
	defer file.Close()
	img, _, err := image.Decode(file)
	if err != nil {
		return nil, fmt.Errorf("Cannot decode frame %s: %w", filename, err)
	}
	return ToRGBA(img), nil
}

// ToRGBA copies img into a new RGBA frame anchored at 0,0.
func ToRGBA(img image.Image) *image.RGBA {
	b := img.Bounds()
	out := image.NewRGBA(image.Rect(0, 0, b.Dx(), b.Dy()))
	draw.Draw(out, out.Bounds(), img, b.Min, draw.Src)
	return out
}

// PartialPath is where a file is written before Commit moves it to path,
// e.g. out/movie.mp4 -> out/movie.partial.mp4. The extension is kept so
// tools that pick a format by extension still work.
func PartialPath(path string) string {
	ext := filepath.Ext(path)
	return strings.TrimSuffix(path, ext) + ".partial" + ext
}

// Commit moves the partial file over path.
func Commit(partial, path string) error {
	if err := os.Rename(partial, path); err != nil {
		return fmt.Errorf("Cannot move %s to %s: %w", partial, path, err)
	}
	return nil
}

// Discard removes the partial file, ignoring a file that was never created.
func Discard(partial string) error {
	err := os.Remove(partial)
	if err != nil && !errors.Is(err, os.ErrNotExist) {
		return err
	}
	return nil
}

// EnsureDir creates dir and its parents.
func EnsureDir(dir string) error {
	if err := os.MkdirAll(dir, os.ModePerm); err != nil {
		return fmt.Errorf("Cannot create dir %s: %w", dir, err)
	}
	return nil
}
