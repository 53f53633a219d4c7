//go:build linux

package screen

import (
	"bytes"
	"context"
	"errors"
	"log/slog"
	"os/exec"

	"github.com/jezek/xgb"
	"github.com/jezek/xgb/xproto"
)

type linuxBackend struct{}

func (linuxBackend) name() string { return "linux" }

func (linuxBackend) captureTo(ctx context.Context, path string) error {
	err := captureX11(path)
	if err == nil {
		return nil
	}
	slog.Debug("x11 capture unavailable, trying screenshot tools", "error", err)
	return captureWithTool(ctx, path)
}

// captureX11 grabs the root window of the default screen.
func captureX11(path string) error {
	conn, err := xgb.NewConn()
	if err != nil {
		return err
	}
	defer conn.Close()

	scr := xproto.Setup(conn).DefaultScreen(conn)
	w, h := scr.WidthInPixels, scr.HeightInPixels
	reply, err := xproto.GetImage(conn, xproto.ImageFormatZPixmap, xproto.Drawable(scr.Root),
		0, 0, w, h, 0xffffffff).Reply()
	if err != nil {
		return err
	}

	img, err := bgrxToRGBA(reply.Data, int(w), int(h))
	if err != nil {
		return err
	}
	return writePNG(path, img)
}

// captureWithTool tries gnome-screenshot first, then scrot
func captureWithTool(ctx context.Context, path string) error {
	var cmd *exec.Cmd
	if _, err := exec.LookPath("gnome-screenshot"); err == nil {
		cmd = exec.CommandContext(ctx, "gnome-screenshot", "-f", path)
	} else if _, err := exec.LookPath("scrot"); err == nil {
		cmd = exec.CommandContext(ctx, "scrot", "-o", path)
	} else {
		return errors.New("no screenshot tool found (install gnome-screenshot or scrot)")
	}

	var stderr bytes.Buffer
	cmd.Stderr = &stderr
	if err := cmd.Run(); err != nil {
		slog.Error("screenshot failed", "error", err, "stderr", stderr.String())
		return err
	}
	return nil
}

// New creates a screen capturer writing into dir
func New(dir string) Capturer {
	return newFileCapturer(linuxBackend{}, dir)
}
