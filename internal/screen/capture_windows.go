//go:build windows

package screen

import (
	"context"
	"errors"

	"github.com/kbinani/screenshot"
)

type windowsBackend struct{}

func (windowsBackend) name() string { return "gdi" }

// captureTo grabs the primary display through GDI.
func (windowsBackend) captureTo(_ context.Context, path string) error {
	if screenshot.NumActiveDisplays() == 0 {
		return errors.New("no active display")
	}
	img, err := screenshot.CaptureDisplay(0)
	if err != nil {
		return err
	}
	return writePNG(path, img)
}

// New creates a screen capturer writing into dir
func New(dir string) Capturer {
	return newFileCapturer(windowsBackend{}, dir)
}
