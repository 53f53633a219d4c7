//go:build darwin

package screen

import (
	"bytes"
	"context"
	"log/slog"
	"os/exec"
)

type darwinBackend struct{}

func (darwinBackend) name() string { return "screencapture" }

// -x: no sound, -t png: PNG format
func (darwinBackend) captureTo(ctx context.Context, path string) error {
	cmd := exec.CommandContext(ctx, "screencapture", "-x", "-t", "png", path)
	var stderr bytes.Buffer
	cmd.Stderr = &stderr
	if err := cmd.Run(); err != nil {
		slog.Error("screencapture failed", "error", err, "stderr", stderr.String())
		return err
	}
	return nil
}

// New creates a screen capturer writing into dir
func New(dir string) Capturer {
	return newFileCapturer(darwinBackend{}, dir)
}
