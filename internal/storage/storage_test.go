package storage

import (
	"image"
	"image/color"
	"image/jpeg"
	"image/png"
	"os"
	"path/filepath"
	"reflect"
	"testing"
)

func writePNG(t *testing.T, path string, w, h int, c color.RGBA) {
	t.Helper()
	img := image.NewRGBA(image.Rect(0, 0, w, h))
	for y := 0; y < h; y++ {
		for x := 0; x < w; x++ {
			img.SetRGBA(x, y, c)
		}
	}
	f, err := os.Create(path)
	if err != nil {
		t.Fatal(err)
	}
	defer f.Close()
	if err := png.Encode(f, img); err != nil {
		t.Fatal(err)
	}
}

func TestNewSequenceSortsWithoutMutating(t *testing.T) {
	in := []string{"d/c.jpg", "d/a.jpg", "d/b.jpg"}
	seq := NewSequence(in)

	want := []string{"d/a.jpg", "d/b.jpg", "d/c.jpg"}
	if got := seq.Paths(); !reflect.DeepEqual(got, want) {
		t.Errorf("got %v, want %v", got, want)
	}
	if in[0] != "d/c.jpg" {
		t.Errorf("input slice was reordered: %v", in)
	}
	in[0] = "changed"
	if seq.At(2) != "d/c.jpg" {
		t.Errorf("sequence shares storage with input")
	}
}

func TestScanFrames(t *testing.T) {
	dir := t.TempDir()
	for _, name := range []string{"2018-02-09_1752.jpg", "2018-02-09_1750.jpg", "notes.txt", "2018-02-09_1751.JPG"} {
		if err := os.WriteFile(filepath.Join(dir, name), []byte("x"), 0o644); err != nil {
			t.Fatal(err)
		}
	}
	if err := os.Mkdir(filepath.Join(dir, "sub.jpg"), 0o755); err != nil {
		t.Fatal(err)
	}

	seq, err := ScanFrames(dir, ".jpg")
	if err != nil {
		t.Fatal(err)
	}
	want := []string{
		filepath.Join(dir, "2018-02-09_1750.jpg"),
		filepath.Join(dir, "2018-02-09_1751.JPG"),
		filepath.Join(dir, "2018-02-09_1752.jpg"),
	}
	if got := seq.Paths(); !reflect.DeepEqual(got, want) {
		t.Errorf("got %v, want %v", got, want)
	}
}

func TestScanFramesEmpty(t *testing.T) {
	seq, err := ScanFrames(t.TempDir(), ".jpg")
	if err != nil {
		t.Fatal(err)
	}
	if seq.Len() != 0 {
		t.Errorf("got %d frames", seq.Len())
	}
}

func TestScanFramesMissingDir(t *testing.T) {
	if _, err := ScanFrames(filepath.Join(t.TempDir(), "missing"), ".jpg"); err == nil {
		t.Error("expected error")
	}
}

func TestFrameRead(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "frame.png")
	writePNG(t, path, 5, 3, color.RGBA{10, 20, 30, 255})

	img, err := FrameRead(path)
	if err != nil {
		t.Fatal(err)
	}
	if img.Bounds() != image.Rect(0, 0, 5, 3) {
		t.Errorf("bounds: got %v", img.Bounds())
	}
	if got := img.RGBAAt(4, 2); got != (color.RGBA{10, 20, 30, 255}) {
		t.Errorf("pixel: got %v", got)
	}
}

func TestFrameReadJPEG(t *testing.T) {
	path := filepath.Join(t.TempDir(), "frame.jpg")
	f, err := os.Create(path)
	if err != nil {
		t.Fatal(err)
	}
	if err := jpeg.Encode(f, image.NewGray(image.Rect(0, 0, 8, 6)), nil); err != nil {
		t.Fatal(err)
	}
	f.Close()

	img, err := FrameRead(path)
	if err != nil {
		t.Fatal(err)
	}
	if img.Bounds().Dx() != 8 || img.Bounds().Dy() != 6 {
		t.Errorf("bounds: got %v", img.Bounds())
	}
}

func TestFrameReadGarbage(t *testing.T) {
	path := filepath.Join(t.TempDir(), "broken.jpg")
	if err := os.WriteFile(path, []byte("not an image"), 0o644); err != nil {
		t.Fatal(err)
	}
	if _, err := FrameRead(path); err == nil {
		t.Error("expected decode error")
	}
}

func TestPartialCommitDiscard(t *testing.T) {
	dir := t.TempDir()
	final := filepath.Join(dir, "movie.mp4")
	partial := PartialPath(final)
	if partial != filepath.Join(dir, "movie.partial.mp4") {
		t.Fatalf("partial path: got %s", partial)
	}

	if err := os.WriteFile(partial, []byte("data"), 0o644); err != nil {
		t.Fatal(err)
	}
	if err := Commit(partial, final); err != nil {
		t.Fatal(err)
	}
	if _, err := os.Stat(final); err != nil {
		t.Errorf("final missing: %v", err)
	}
	if _, err := os.Stat(partial); !os.IsNotExist(err) {
		t.Errorf("partial still present: %v", err)
	}

	if err := os.WriteFile(partial, []byte("data"), 0o644); err != nil {
		t.Fatal(err)
	}
	if err := Discard(partial); err != nil {
		t.Fatal(err)
	}
	if err := Discard(partial); err != nil {
		t.Errorf("second discard: %v", err)
	}
}
