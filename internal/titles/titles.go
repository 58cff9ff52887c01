// Package titles resolves page titles for URLs that arrive without one
// (drops from outside the browser carry only the URL).
package titles

import (
	"context"
	"fmt"
	"net/http"
	"strings"
	"time"

	readability "github.com/go-shiori/go-readability"
)

const fetchTimeout = 15 * time.Second

var skipPrefixes = []string{"about:", "moz-extension:", "file:", "chrome:", "resource:", "data:"}

// Fetch downloads the page and extracts its title. Returns an error for
// non-HTTP URLs and any fetch or extraction failure; callers fall back
// to the URL itself.
func Fetch(ctx context.Context, url string) (string, error) {
	for _, prefix := range skipPrefixes {
		if strings.HasPrefix(url, prefix) {
			return "", fmt.Errorf("non-HTTP url: %s", url)
		}
	}

	ctx, cancel := context.WithTimeout(ctx, fetchTimeout)
	defer cancel()

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		return "", fmt.Errorf("fetch %s: %w", url, err)
	}
	req.Header.Set("User-Agent", "Mozilla/5.0 (Windows NT 10.0; Win64; x64) AppleWebKit/537.36 (KHTML, like Gecko) Chrome/120.0.0.0 Safari/537.36")

	resp, err := http.DefaultClient.Do(req)
	if err != nil {
		return "", fmt.Errorf("fetch %s: %w", url, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode >= 400 {
		return "", fmt.Errorf("fetch %s: HTTP %d", url, resp.StatusCode)
	}

	article, err := readability.FromReader(resp.Body, nil)
	if err != nil {
		return "", fmt.Errorf("extract title from %s: %w", url, err)
	}
	title := strings.TrimSpace(article.Title)
	if title == "" {
		return "", fmt.Errorf("no title in %s", url)
	}
	return title, nil
}

// Resolver adapts Fetch to the organizer's TitleFunc: failures resolve
// to "".
func Resolver(ctx context.Context, url string) string {
	title, err := Fetch(ctx, url)
	if err != nil {
		return ""
	}
	return title
}
