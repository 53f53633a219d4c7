package screen

import (
	"bytes"
	"context"
	"errors"
	"image"
	"image/color"
	"image/png"
	"os"
	"path/filepath"
	"testing"
	"time"

	apperrors "github.com/GriffinCanCode/focuswatch/internal/errors"
)

// fakeBackend writes a generated PNG instead of grabbing the screen
type fakeBackend struct {
	pattern int
	err     error
	calls   int
}

func (f *fakeBackend) name() string { return "fake" }

func (f *fakeBackend) captureTo(_ context.Context, path string) error {
	f.calls++
	if f.err != nil {
		return f.err
	}
	return os.WriteFile(path, makePatternPNG(f.pattern), 0o644)
}

// makePatternPNG creates test images with distinct patterns for pHash testing.
func makePatternPNG(pattern int) []byte {
	img := image.NewRGBA(image.Rect(0, 0, 64, 64))
	for y := 0; y < 64; y++ {
		for x := 0; x < 64; x++ {
			var c color.RGBA
			switch pattern {
			case 0: // solid gray
				c = color.RGBA{R: 128, G: 128, B: 128, A: 255}
			case 1: // checkerboard
				if (x/8+y/8)%2 == 0 {
					c = color.RGBA{R: 255, G: 255, B: 255, A: 255}
				} else {
					c = color.RGBA{R: 0, G: 0, B: 0, A: 255}
				}
			case 2: // horizontal gradient
				c = color.RGBA{R: uint8(x * 4), G: 0, B: uint8(255 - x*4), A: 255}
			}
			img.Set(x, y, c)
		}
	}
	var buf bytes.Buffer
	_ = png.Encode(&buf, img)
	return buf.Bytes()
}

func TestArtifactName(t *testing.T) {
	ts := time.Date(2024, 1, 1, 12, 0, 0, 0, time.Local)
	if got := ArtifactName(ts); got != "screenshot_2024-01-01_12-00-00.png" {
		t.Errorf("ArtifactName() = %q, want %q", got, "screenshot_2024-01-01_12-00-00.png")
	}

	next := ArtifactName(ts.Add(time.Second))
	if next == ArtifactName(ts) {
		t.Error("captures one second apart should not collide")
	}
}

func TestCaptureCreatesDirectoryAndFile(t *testing.T) {
	dir := filepath.Join(t.TempDir(), "nested", "screen_captures")
	fb := &fakeBackend{}
	c := newFileCapturer(fb, dir)
	c.now = func() time.Time { return time.Date(2024, 3, 5, 9, 8, 7, 0, time.Local) }

	path, err := c.Capture(context.Background())
	if err != nil {
		t.Fatalf("Capture() error = %v", err)
	}

	if !filepath.IsAbs(path) {
		t.Errorf("path %q should be absolute", path)
	}
	if filepath.Base(path) != "screenshot_2024-03-05_09-08-07.png" {
		t.Errorf("file name = %q", filepath.Base(path))
	}
	if _, err := os.Stat(path); err != nil {
		t.Errorf("screenshot should exist: %v", err)
	}
	if fb.calls != 1 {
		t.Errorf("backend calls = %d, want 1", fb.calls)
	}
}

func TestCaptureRelativeDirectoryIsResolved(t *testing.T) {
	t.Chdir(t.TempDir())
	c := newFileCapturer(&fakeBackend{}, "screen_captures")

	path, err := c.Capture(context.Background())
	if err != nil {
		t.Fatalf("Capture() error = %v", err)
	}
	if !filepath.IsAbs(path) {
		t.Errorf("path %q should be absolute", path)
	}
}

func TestCaptureBackendFailure(t *testing.T) {
	boom := errors.New("cannot open display")
	c := newFileCapturer(&fakeBackend{err: boom}, t.TempDir())

	_, err := c.Capture(context.Background())
	if !errors.Is(err, boom) {
		t.Errorf("Capture() error = %v, want wrapping %v", err, boom)
	}
	if !apperrors.IsCode(err, apperrors.CodeCapture) {
		t.Errorf("Capture() error code = %v, want %v", apperrors.CodeOf(err), apperrors.CodeCapture)
	}
}

func TestBGRXToRGBA(t *testing.T) {
	// two pixels: pure blue, pure red (B, G, R, pad)
	data := []byte{255, 0, 0, 0, 0, 0, 255, 0}

	img, err := bgrxToRGBA(data, 2, 1)
	if err != nil {
		t.Fatalf("bgrxToRGBA() error = %v", err)
	}

	if got := img.RGBAAt(0, 0); got != (color.RGBA{B: 255, A: 255}) {
		t.Errorf("pixel 0 = %+v, want blue", got)
	}
	if got := img.RGBAAt(1, 0); got != (color.RGBA{R: 255, A: 255}) {
		t.Errorf("pixel 1 = %+v, want red", got)
	}
}

func TestBGRXToRGBAShortBuffer(t *testing.T) {
	if _, err := bgrxToRGBA(make([]byte, 7), 2, 1); err == nil {
		t.Error("expected error for short buffer")
	}
	if _, err := bgrxToRGBA(nil, 0, 1); err == nil {
		t.Error("expected error for empty size")
	}
}

func TestWritePNGRoundTrip(t *testing.T) {
	img, _ := bgrxToRGBA([]byte{10, 20, 30, 0}, 1, 1)
	path := filepath.Join(t.TempDir(), "one.png")

	if err := writePNG(path, img); err != nil {
		t.Fatalf("writePNG() error = %v", err)
	}

	f, err := os.Open(path)
	if err != nil {
		t.Fatal(err)
	}
	defer f.Close()
	decoded, err := png.Decode(f)
	if err != nil {
		t.Fatalf("png.Decode() error = %v", err)
	}
	r, g, b, _ := decoded.At(0, 0).RGBA()
	if r>>8 != 30 || g>>8 != 20 || b>>8 != 10 {
		t.Errorf("pixel = (%d,%d,%d), want (30,20,10)", r>>8, g>>8, b>>8)
	}
}

func writePattern(t *testing.T, pattern int) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "pattern.png")
	if err := os.WriteFile(path, makePatternPNG(pattern), 0o644); err != nil {
		t.Fatal(err)
	}
	return path
}

func TestFingerprintIdenticalFrames(t *testing.T) {
	a, err := Fingerprint(writePattern(t, 1))
	if err != nil {
		t.Fatalf("Fingerprint() error = %v", err)
	}
	b, err := Fingerprint(writePattern(t, 1))
	if err != nil {
		t.Fatalf("Fingerprint() error = %v", err)
	}

	if d := Distance(a, b); d != 0 {
		t.Errorf("Distance() = %d, want 0 for identical frames", d)
	}
}

func TestFingerprintDifferentFrames(t *testing.T) {
	a, _ := Fingerprint(writePattern(t, 1))
	b, _ := Fingerprint(writePattern(t, 2))

	if d := Distance(a, b); d <= 0 {
		t.Errorf("Distance() = %d, want > 0 for distinct frames", d)
	}
}

func TestFingerprintErrors(t *testing.T) {
	if _, err := Fingerprint(filepath.Join(t.TempDir(), "missing.png")); err == nil {
		t.Error("expected error for missing file")
	}

	path := filepath.Join(t.TempDir(), "garbage.png")
	_ = os.WriteFile(path, []byte("not an image"), 0o644)
	if _, err := Fingerprint(path); err == nil {
		t.Error("expected error for undecodable file")
	}

	if d := Distance(nil, nil); d != -1 {
		t.Errorf("Distance(nil, nil) = %d, want -1", d)
	}
}
