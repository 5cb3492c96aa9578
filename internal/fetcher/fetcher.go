// Package fetcher retrieves the hosted docs page and the search-index
// payload it references.
package fetcher

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"net/url"
	"time"
)

const maxAttempts = 3

// Fetcher downloads documents from a docs page such as
// https://doc.rust-lang.org/nightly/std/index.html. References found
// inside the page are resolved against the page URL.
type Fetcher struct {
	PageURL string
	Client  *http.Client
	Logger  *slog.Logger
}

func New(pageURL string) *Fetcher {
	return &Fetcher{
		PageURL: pageURL,
		Client:  http.DefaultClient,
	}
}

// DocsPage fetches the configured docs page.
func (f *Fetcher) DocsPage(ctx context.Context) ([]byte, error) {
	return f.get(ctx, f.PageURL)
}

// SearchIndex fetches the search-index payload. ref is the
// page-relative path found in the page markup.
func (f *Fetcher) SearchIndex(ctx context.Context, ref string) ([]byte, error) {
	target, err := f.resolve(ref)
	if err != nil {
		return nil, err
	}
	return f.get(ctx, target)
}

func (f *Fetcher) resolve(ref string) (string, error) {
	base, err := url.Parse(f.PageURL)
	if err != nil {
		return "", fmt.Errorf("parse page url: %w", err)
	}
	rel, err := url.Parse(ref)
	if err != nil {
		return "", fmt.Errorf("parse search-index ref %q: %w", ref, err)
	}
	return base.ResolveReference(rel).String(), nil
}

func (f *Fetcher) get(ctx context.Context, target string) ([]byte, error) {
	var lastErr error
	for attempt := range maxAttempts {
		if attempt > 0 {
			if f.Logger != nil {
				f.Logger.Warn("retrying fetch", "url", target, "attempt", attempt+1, "error", lastErr)
			}
			select {
			case <-ctx.Done():
				return nil, ctx.Err()
			case <-time.After(time.Duration(attempt) * time.Second):
			}
		}

		body, err := f.getOnce(ctx, target)
		if err == nil {
			return body, nil
		}
		lastErr = err
		if ctx.Err() != nil {
			return nil, lastErr
		}
	}
	return nil, lastErr
}

func (f *Fetcher) getOnce(ctx context.Context, target string) ([]byte, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, target, nil)
	if err != nil {
		return nil, fmt.Errorf("build request: %w", err)
	}

	client := f.Client
	if client == nil {
		client = http.DefaultClient
	}
	resp, err := client.Do(req)
	if err != nil {
		return nil, fmt.Errorf("fetch %s: %w", target, err)
	}
	defer func() { _ = resp.Body.Close() }()

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		_, _ = io.Copy(io.Discard, resp.Body)
		return nil, fmt.Errorf("fetch %s: status %s", target, resp.Status)
	}

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("read body %s: %w", target, err)
	}
	return body, nil
}
