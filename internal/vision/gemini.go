package vision

import (
	"context"
	"fmt"
	"os"
	"path"
	"strings"

	"github.com/google/generative-ai-go/genai"
	"google.golang.org/api/option"
)

// Gemini is a provider for Google Gemini.
type Gemini struct{}

// NewGemini returns a new Gemini provider.
func NewGemini() *Gemini {
	return &Gemini{}
}

// AnalyzeImage sends the prompt and the image to Gemini. The genai API takes
// inline image data rather than a URL, so the published bytes are fetched
// first.
func (g *Gemini) AnalyzeImage(ctx context.Context, req Request) (string, error) {
	apiKey := os.Getenv("GEMINI_API_KEY")
	if apiKey == "" {
		return "", fmt.Errorf("GEMINI_API_KEY environment variable not set")
	}

	imageData, err := fetchImage(ctx, req.ImageURL)
	if err != nil {
		return "", err
	}

	client, err := genai.NewClient(ctx, option.WithAPIKey(apiKey))
	if err != nil {
		return "", fmt.Errorf("failed to create new gemini client: %w", err)
	}
	defer client.Close()

	model := client.GenerativeModel(req.Model)
	model.SetTemperature(float32(req.Temperature))

	resp, err := model.GenerateContent(ctx,
		genai.ImageData(imageFormat(req.ImageURL), imageData),
		genai.Text(req.Prompt),
	)
	if err != nil {
		return "", fmt.Errorf("failed to generate content: %w", err)
	}

	if len(resp.Candidates) == 0 {
		return "", fmt.Errorf("no candidates returned from Gemini")
	}

	candidate := resp.Candidates[0]
	if candidate.Content == nil || len(candidate.Content.Parts) == 0 {
		return "", fmt.Errorf("empty content returned from Gemini")
	}

	if txt, ok := candidate.Content.Parts[0].(genai.Text); ok {
		return string(txt), nil
	}

	return "", fmt.Errorf("unexpected response format from Gemini")
}

// imageFormat derives the genai image format label from the published URL.
func imageFormat(imageURL string) string {
	ext := strings.ToLower(strings.TrimPrefix(path.Ext(imageURL), "."))
	if ext == "jpg" {
		return "jpeg"
	}
	if ext == "" {
		return "jpeg"
	}
	return ext
}
