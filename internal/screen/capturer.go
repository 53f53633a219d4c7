// Package screen provides platform-agnostic screen capture to timestamped PNG files
package screen

import (
	"context"
	"log/slog"
	"os"
	"path/filepath"
	"time"

	apperrors "github.com/GriffinCanCode/focuswatch/internal/errors"
)

// TimestampLayout formats capture and sidecar timestamps (YYYY-MM-DD_HH-MM-SS).
const TimestampLayout = "2006-01-02_15-04-05"

// Capturer writes a screenshot of the current screen and returns its absolute path.
// Capture blocks until the platform capture returns; there is no timeout.
type Capturer interface {
	Capture(ctx context.Context) (string, error)
}

// backend implements platform-specific capture into a file
type backend interface {
	captureTo(ctx context.Context, path string) error
	name() string
}

// fileCapturer owns directory creation and artifact naming for a backend
type fileCapturer struct {
	backend
	dir string
	now func() time.Time
}

func newFileCapturer(b backend, dir string) *fileCapturer {
	return &fileCapturer{backend: b, dir: dir, now: time.Now}
}

// ArtifactName returns the file name of a screenshot taken at t (local time).
func ArtifactName(t time.Time) string {
	return "screenshot_" + t.Local().Format(TimestampLayout) + ".png"
}

func (c *fileCapturer) Capture(ctx context.Context) (string, error) {
	dir, err := filepath.Abs(c.dir)
	if err != nil {
		return "", apperrors.Wrapf(err, apperrors.CodeCapture, "resolve capture directory %s", c.dir)
	}
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return "", apperrors.Wrapf(err, apperrors.CodeCapture, "create capture directory %s", dir)
	}

	path := filepath.Join(dir, ArtifactName(c.now()))
	if err := c.captureTo(ctx, path); err != nil {
		return "", apperrors.Wrap(err, apperrors.CodeCapture, "capture screen").
			WithMetadata("backend", c.name()).
			WithMetadata("path", path)
	}

	slog.Info("saved screenshot", "path", path, "backend", c.name())
	return path, nil
}
