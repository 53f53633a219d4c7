// Package inference sends a screenshot plus a prompt to a vision language model.
//
// Calls are synchronous and carry no timeout of their own: a stalled backend
// stalls the caller. Deadlines, if any, come from the caller's context.
package inference

import (
	"context"
	"os"

	"google.golang.org/protobuf/types/known/structpb"

	"github.com/GriffinCanCode/focuswatch/internal/config"
	apperrors "github.com/GriffinCanCode/focuswatch/internal/errors"
)

// Client asks the model about one image and returns its raw reply.
type Client interface {
	Ask(ctx context.Context, imagePath string) (string, error)
}

// Settings are the per-request parameters shared by all backends.
type Settings struct {
	Model   string
	Prompt  string
	Options map[string]any // decoding options, forwarded as-is where the backend allows
}

// New creates the client selected by cfg.Backend.
func New(cfg *config.Config) (Client, error) {
	opts, err := NormalizeOptions(cfg.ModelOptions())
	if err != nil {
		return nil, err
	}
	s := Settings{Model: cfg.ModelName, Prompt: cfg.Prompt, Options: opts}

	switch cfg.Backend {
	case config.BackendOpenAI:
		return NewOpenAI(cfg.OpenAIBaseURL, cfg.OpenAIAPIKey, s), nil
	case config.BackendOllama:
		return NewOllama(cfg.OllamaHost, s)
	default:
		return nil, apperrors.Newf(apperrors.CodeConfig, "unknown inference backend %q", cfg.Backend)
	}
}

// NormalizeOptions checks that every option is JSON-compatible and returns
// the options in their canonical form (numbers become float64).
func NormalizeOptions(opts map[string]any) (map[string]any, error) {
	s, err := structpb.NewStruct(opts)
	if err != nil {
		return nil, apperrors.Wrap(err, apperrors.CodeConfig, "invalid model options")
	}
	return s.AsMap(), nil
}

func readImage(path string) ([]byte, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, apperrors.Wrap(err, apperrors.CodeInference, "read screenshot").WithMetadata("path", path)
	}
	return data, nil
}
