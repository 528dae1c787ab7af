package publish

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"strings"
	"time"
)

// Error is an infrastructure-side publishing failure. It is terminal for the
// request that hit it and generic to the sender.
type Error struct {
	Path string
	Err  error
}

func (e *Error) Error() string {
	return fmt.Sprintf("failed to publish image %s: %v", e.Path, e.Err)
}

func (e *Error) Unwrap() error { return e.Err }

const (
	maxWriteAttempts = 3
	initialBackoff   = 200 * time.Millisecond
)

// Publisher stores validated image bytes on local disk under a name derived
// from the request ID and returns a stable public URL served by the static
// handler. Names come from the request ID, not a content hash, so identical
// images from different requests never collide.
type Publisher struct {
	dir     string
	baseURL string
	backoff time.Duration
}

// New creates a publisher rooted at dir, serving URLs under baseURL.
func New(dir, baseURL string) *Publisher {
	return &Publisher{
		dir:     dir,
		baseURL: strings.TrimSuffix(baseURL, "/"),
		backoff: initialBackoff,
	}
}

// Publish writes data to disk and returns its public URL. Transient write
// failures are retried with bounded exponential backoff; running out of
// attempts returns *Error.
func (p *Publisher) Publish(ctx context.Context, requestID string, data []byte, format string) (string, error) {
	if err := os.MkdirAll(p.dir, 0755); err != nil {
		return "", &Error{Path: p.dir, Err: err}
	}

	name := requestID + "." + strings.ToLower(strings.TrimPrefix(format, "."))
	path := filepath.Join(p.dir, name)

	var lastErr error
	backoff := p.backoff
	for attempt := 1; attempt <= maxWriteAttempts; attempt++ {
		if err := ctx.Err(); err != nil {
			return "", &Error{Path: path, Err: err}
		}

		if err := os.WriteFile(path, data, 0644); err != nil {
			lastErr = err
			slog.Warn("Image write failed", "path", path, "attempt", attempt, "error", err)
			if attempt < maxWriteAttempts {
				select {
				case <-ctx.Done():
					return "", &Error{Path: path, Err: ctx.Err()}
				case <-time.After(backoff):
				}
				backoff *= 2
			}
			continue
		}

		url := p.baseURL + "/uploads/" + name
		slog.Info("Image published", "filename", name, "url", url)
		return url, nil
	}

	return "", &Error{Path: path, Err: lastErr}
}

// CleanupOlderThan removes published files older than age and returns how many
// were deleted. Retention only needs to outlive extraction, but files are kept
// around so catalog rows keep working links.
func (p *Publisher) CleanupOlderThan(age time.Duration) (int, error) {
	entries, err := os.ReadDir(p.dir)
	if err != nil {
		if os.IsNotExist(err) {
			return 0, nil
		}
		return 0, fmt.Errorf("failed to read upload directory: %w", err)
	}

	cutoff := time.Now().Add(-age)
	deleted := 0
	for _, entry := range entries {
		if entry.IsDir() {
			continue
		}
		info, err := entry.Info()
		if err != nil {
			continue
		}
		if info.ModTime().Before(cutoff) {
			if err := os.Remove(filepath.Join(p.dir, entry.Name())); err != nil {
				slog.Warn("Failed to remove old upload", "filename", entry.Name(), "error", err)
				continue
			}
			deleted++
		}
	}

	slog.Info("Upload cleanup complete", "deleted", deleted)
	return deleted, nil
}
