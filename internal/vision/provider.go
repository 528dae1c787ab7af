package vision

import (
	"context"
	"fmt"
	"io"
	"net/http"
)

// Request carries everything a provider needs for one image analysis.
type Request struct {
	Model       string
	Temperature float64
	Prompt      string
	ImageURL    string
}

// Provider defines the interface for a vision-capable model provider.
type Provider interface {
	// AnalyzeImage sends the prompt and image to the model and returns the raw
	// response text. The text is untrusted; structure validation happens in
	// the normalizer.
	AnalyzeImage(ctx context.Context, req Request) (string, error)
}

// fetchImage downloads published image bytes for providers whose APIs take
// inline data instead of a URL.
func fetchImage(ctx context.Context, imageURL string) ([]byte, error) {
	req, err := http.NewRequestWithContext(ctx, "GET", imageURL, nil)
	if err != nil {
		return nil, fmt.Errorf("failed to create image request: %w", err)
	}

	resp, err := http.DefaultClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("failed to download image: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("failed to download image: HTTP %d", resp.StatusCode)
	}

	data, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("failed to read image data: %w", err)
	}
	return data, nil
}
