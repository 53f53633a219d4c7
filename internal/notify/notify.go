// Package notify raises native desktop notifications
package notify

import (
	"context"
	"errors"
	"os/exec"

	"github.com/gen2brain/beeep"

	apperrors "github.com/GriffinCanCode/focuswatch/internal/errors"
	"github.com/GriffinCanCode/focuswatch/internal/trace"
)

// Default alert text
const (
	DefaultTitle   = "Excuse me..."
	DefaultMessage = "GO BACK TO WORK!"
)

// Notifier submits a title and message to the OS notification service.
// Notify blocks until the notification facility returns; nothing is queued or retried.
type Notifier interface {
	Notify(ctx context.Context, title, message string) error
}

// sendFunc delivers one notification through the platform facility
type sendFunc func(title, message string) error

// desktopNotifier applies the failure policy around a sendFunc
type desktopNotifier struct {
	name string
	send sendFunc
}

// New creates a notifier backed by the OS facility: osascript on darwin,
// D-Bus or notify-send on linux, toast on windows.
func New() Notifier {
	return &desktopNotifier{name: "beeep", send: func(title, message string) error {
		return beeep.Notify(title, message, "")
	}}
}

func (n *desktopNotifier) Notify(ctx context.Context, title, message string) error {
	err := n.send(title, message)
	var exitErr *exec.ExitError
	switch {
	case err == nil:
		return nil
	case errors.As(err, &exitErr):
		// the tool ran but refused; the loop carries on
		trace.Logger(ctx).Warn("notification command failed",
			"facility", n.name, "exit_code", exitErr.ExitCode(), "stderr", string(exitErr.Stderr))
		return nil
	default:
		return apperrors.Wrap(err, apperrors.CodeNotify, "send notification").WithMetadata("facility", n.name)
	}
}
