package vision

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"time"

	"github.com/ajuraforce/photo-product-analyzer/internal/vocab"
)

// ExtractionError is an infrastructure-side failure of the vision capability:
// timeout, quota, transport, or a provider-level refusal. Generic to the
// sender, detailed to the operator log.
type ExtractionError struct {
	Provider string
	Err      error
}

func (e *ExtractionError) Error() string {
	return fmt.Sprintf("extraction failed (provider %s): %v", e.Provider, e.Err)
}

func (e *ExtractionError) Unwrap() error { return e.Err }

// Low temperature for consistent, factual output.
const extractionTemperature = 0.1

// Client drives one vision provider with a single bounded timeout per call.
// Failures are never retried here; retry policy belongs to the orchestrator,
// which deliberately does not retry extraction to avoid compounding quota
// costs.
type Client struct {
	provider     Provider
	providerName string
	model        string
	timeout      time.Duration
	types        *vocab.Vocabulary
	colors       *vocab.Vocabulary
}

// NewClient selects a provider by name and binds the vocabularies the prompt
// embeds. An empty model picks the provider's default.
func NewClient(providerName, model string, timeout time.Duration, types, colors *vocab.Vocabulary) (*Client, error) {
	var provider Provider
	switch providerName {
	case "openai":
		provider = NewOpenAI()
	case "ollama":
		provider = NewOllama()
	case "gemini":
		provider = NewGemini()
	default:
		return nil, fmt.Errorf("unsupported vision provider: %s", providerName)
	}

	if model == "" {
		model = defaultModel(providerName)
	}

	return &Client{
		provider:     provider,
		providerName: providerName,
		model:        model,
		timeout:      timeout,
		types:        types,
		colors:       colors,
	}, nil
}

// NewClientWithProvider wires an explicit provider implementation. Used by
// tests and by callers that construct providers themselves.
func NewClientWithProvider(provider Provider, name, model string, timeout time.Duration, types, colors *vocab.Vocabulary) *Client {
	return &Client{
		provider:     provider,
		providerName: name,
		model:        model,
		timeout:      timeout,
		types:        types,
		colors:       colors,
	}
}

// Extract asks the model to describe the published image and returns the raw
// response text. One bounded timeout covers the whole call; deadline expiry
// and provider failures surface as *ExtractionError.
func (c *Client) Extract(ctx context.Context, imageURL string) (string, error) {
	ctx, cancel := context.WithTimeout(ctx, c.timeout)
	defer cancel()

	start := time.Now()
	raw, err := c.provider.AnalyzeImage(ctx, Request{
		Model:       c.model,
		Temperature: extractionTemperature,
		Prompt:      BuildPrompt(c.types, c.colors),
		ImageURL:    imageURL,
	})
	if err != nil {
		return "", &ExtractionError{Provider: c.providerName, Err: err}
	}

	slog.Info("Vision extraction completed",
		"provider", c.providerName,
		"model", c.model,
		"duration", time.Since(start).Round(time.Millisecond),
		"length", len(raw))
	return raw, nil
}

func defaultModel(provider string) string {
	switch provider {
	case "openai":
		if model := os.Getenv("OPENAI_MODEL"); model != "" {
			return model
		}
		return "gpt-4o"
	case "ollama":
		if model := os.Getenv("OLLAMA_MODEL"); model != "" {
			return model
		}
		return "mistral-small3.2:24b"
	case "gemini":
		if model := os.Getenv("GEMINI_MODEL"); model != "" {
			return model
		}
		return "gemini-1.5-flash"
	default:
		return ""
	}
}
