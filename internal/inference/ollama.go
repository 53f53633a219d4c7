package inference

import (
	"context"
	"net"
	"net/http"
	"net/url"
	"strings"

	"github.com/ollama/ollama/api"

	apperrors "github.com/GriffinCanCode/focuswatch/internal/errors"
	"github.com/GriffinCanCode/focuswatch/internal/trace"
)

// DefaultOllamaPort is used when a host without scheme names no port.
const DefaultOllamaPort = "11434"

// OllamaClient talks to the native Ollama chat API.
type OllamaClient struct {
	api      *api.Client
	settings Settings
}

// NewOllama creates a client for host, or for OLLAMA_HOST resolution when host is empty.
func NewOllama(host string, s Settings) (*OllamaClient, error) {
	if host == "" {
		c, err := api.ClientFromEnvironment()
		if err != nil {
			return nil, apperrors.Wrap(err, apperrors.CodeConfig, "resolve ollama host")
		}
		return &OllamaClient{api: c, settings: s}, nil
	}

	base, err := ollamaBaseURL(host)
	if err != nil {
		return nil, err
	}
	return &OllamaClient{api: api.NewClient(base, http.DefaultClient), settings: s}, nil
}

// ollamaBaseURL resolves host the way the ollama client resolves OLLAMA_HOST:
// a bare host gets http and port 11434, an explicit scheme keeps its own default port.
func ollamaBaseURL(host string) (*url.URL, error) {
	scheme, hostport, ok := strings.Cut(strings.TrimSpace(host), "://")
	defaultPort := DefaultOllamaPort
	switch {
	case !ok:
		scheme, hostport = "http", scheme
	case scheme == "http":
		defaultPort = "80"
	case scheme == "https":
		defaultPort = "443"
	}

	hostport, path, _ := strings.Cut(hostport, "/")
	h, port, err := net.SplitHostPort(hostport)
	if err != nil {
		h, port = hostport, defaultPort
		if ip := net.ParseIP(strings.Trim(h, "[]")); ip != nil {
			h = ip.String()
		}
	}
	if h == "" {
		h = "127.0.0.1"
	}

	return &url.URL{
		Scheme: scheme,
		Host:   net.JoinHostPort(h, port),
		Path:   strings.TrimSuffix("/"+path, "/"),
	}, nil
}

// Ask sends a single-turn chat with the screenshot attached.
func (c *OllamaClient) Ask(ctx context.Context, imagePath string) (string, error) {
	img, err := readImage(imagePath)
	if err != nil {
		return "", err
	}

	stream := false
	req := &api.ChatRequest{
		Model: c.settings.Model,
		Messages: []api.Message{{
			Role:    "user",
			Content: c.settings.Prompt,
			Images:  []api.ImageData{img},
		}},
		Stream:  &stream,
		Options: c.settings.Options,
	}

	trace.Logger(ctx).Debug("ollama chat", "model", req.Model, "image_bytes", len(img))

	var reply strings.Builder
	err = c.api.Chat(ctx, req, func(resp api.ChatResponse) error {
		reply.WriteString(resp.Message.Content)
		return nil
	})
	if err != nil {
		return "", apperrors.Wrap(err, apperrors.CodeInference, "ollama chat").WithMetadata("model", req.Model)
	}
	return reply.String(), nil
}
