package inference

import (
	"context"
	"encoding/base64"
	"math"
	"net/http"
	"sort"

	"github.com/sashabaranov/go-openai"

	apperrors "github.com/GriffinCanCode/focuswatch/internal/errors"
	"github.com/GriffinCanCode/focuswatch/internal/trace"
)

// OpenAIClient talks to any OpenAI-compatible chat completions endpoint.
type OpenAIClient struct {
	api      *openai.Client
	settings Settings
}

// NewOpenAI creates a client; an empty baseURL uses the OpenAI default.
func NewOpenAI(baseURL, apiKey string, s Settings) *OpenAIClient {
	cfg := openai.DefaultConfig(apiKey)
	if baseURL != "" {
		cfg.BaseURL = baseURL
	}
	return &OpenAIClient{api: openai.NewClientWithConfig(cfg), settings: s}
}

// Ask sends the prompt and the screenshot as a data URL.
func (c *OpenAIClient) Ask(ctx context.Context, imagePath string) (string, error) {
	img, err := readImage(imagePath)
	if err != nil {
		return "", err
	}
	dataURL := "data:" + http.DetectContentType(img) + ";base64," + base64.StdEncoding.EncodeToString(img)

	req := openai.ChatCompletionRequest{
		Model: c.settings.Model,
		Messages: []openai.ChatCompletionMessage{{
			Role: openai.ChatMessageRoleUser,
			MultiContent: []openai.ChatMessagePart{
				{Type: openai.ChatMessagePartTypeText, Text: c.settings.Prompt},
				{Type: openai.ChatMessagePartTypeImageURL, ImageURL: &openai.ChatMessageImageURL{
					URL:    dataURL,
					Detail: openai.ImageURLDetailAuto,
				}},
			},
		}},
	}
	ignored := applyOptions(&req, c.settings.Options)

	log := trace.Logger(ctx)
	if len(ignored) > 0 {
		log.Debug("options not supported by openai backend", "options", ignored)
	}
	log.Debug("openai chat completion", "model", req.Model, "image_bytes", len(img))

	resp, err := c.api.CreateChatCompletion(ctx, req)
	if err != nil {
		return "", apperrors.Wrap(err, apperrors.CodeInference, "create chat completion").WithMetadata("model", req.Model)
	}
	if len(resp.Choices) == 0 {
		return "", apperrors.New(apperrors.CodeInference, "chat completion returned no choices").WithMetadata("model", req.Model)
	}
	return resp.Choices[0].Message.Content, nil
}

// applyOptions maps known decoding options onto req and returns the names it ignored.
func applyOptions(req *openai.ChatCompletionRequest, opts map[string]any) []string {
	var ignored []string
	for k, v := range opts {
		f, ok := toFloat(v)
		if !ok {
			ignored = append(ignored, k)
			continue
		}
		switch k {
		case "temperature":
			// zero is dropped by omitempty; the smallest float32 requests greedy decoding
			if f == 0 {
				req.Temperature = math.SmallestNonzeroFloat32
			} else {
				req.Temperature = float32(f)
			}
		case "top_p":
			req.TopP = float32(f)
		case "seed":
			seed := int(f)
			req.Seed = &seed
		case "num_predict", "max_tokens":
			req.MaxTokens = int(f)
		default:
			ignored = append(ignored, k)
		}
	}
	sort.Strings(ignored)
	return ignored
}

func toFloat(v any) (float64, bool) {
	switch n := v.(type) {
	case float64:
		return n, true
	case float32:
		return float64(n), true
	case int:
		return float64(n), true
	case int64:
		return float64(n), true
	default:
		return 0, false
	}
}
