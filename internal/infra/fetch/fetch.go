// Package fetch downloads remote audio resources to local files.
package fetch

import (
	"context"
	"fmt"
	"io"
	"mime"
	"net/http"
	neturl "net/url"
	"os"
	"path"
	"regexp"
	"strings"
	"time"
)

// Client fetches remote resources with fixed per-call timeouts.
type Client struct {
	HTTP            *http.Client
	DownloadTimeout time.Duration
	HeadTimeout     time.Duration
}

// NewClient returns a Client with the given timeouts.
func NewClient(downloadTimeout, headTimeout time.Duration) *Client {
	return &Client{
		HTTP:            &http.Client{},
		DownloadTimeout: downloadTimeout,
		HeadTimeout:     headTimeout,
	}
}

// Download streams the body of rawURL into dest. Non-2xx statuses are errors.
// A partially written dest is removed on failure.
func (c *Client) Download(ctx context.Context, rawURL, dest string) (int64, error) {
	ctx, cancel := context.WithTimeout(ctx, c.DownloadTimeout)
	defer cancel()

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, rawURL, nil)
	if err != nil {
		return 0, fmt.Errorf("build request: %w", err)
	}
	resp, err := c.HTTP.Do(req)
	if err != nil {
		return 0, fmt.Errorf("get %s: %w", rawURL, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		return 0, fmt.Errorf("get %s: unexpected status %s", rawURL, resp.Status)
	}

	f, err := os.Create(dest)
	if err != nil {
		return 0, fmt.Errorf("create %s: %w", dest, err)
	}
	n, err := io.Copy(f, resp.Body)
	if cerr := f.Close(); err == nil {
		err = cerr
	}
	if err != nil {
		_ = os.Remove(dest)
		return n, fmt.Errorf("write %s: %w", dest, err)
	}
	return n, nil
}

// ContentType issues a metadata-only request for rawURL and returns the
// declared media type without parameters. It returns "" when none is declared.
func (c *Client) ContentType(ctx context.Context, rawURL string) (string, error) {
	ctx, cancel := context.WithTimeout(ctx, c.HeadTimeout)
	defer cancel()

	req, err := http.NewRequestWithContext(ctx, http.MethodHead, rawURL, nil)
	if err != nil {
		return "", fmt.Errorf("build request: %w", err)
	}
	resp, err := c.HTTP.Do(req)
	if err != nil {
		return "", fmt.Errorf("head %s: %w", rawURL, err)
	}
	resp.Body.Close()

	header := resp.Header.Get("Content-Type")
	if header == "" {
		return "", nil
	}
	mediaType, _, err := mime.ParseMediaType(header)
	if err != nil {
		return "", fmt.Errorf("parse content type %q: %w", header, err)
	}
	return mediaType, nil
}

// audioExtensions pins the extension for common audio types; the system mime
// tables disagree across platforms for several of them.
var audioExtensions = map[string]string{
	"audio/mpeg":      ".mp3",
	"audio/mp3":       ".mp3",
	"audio/mp4":       ".m4a",
	"audio/x-m4a":     ".m4a",
	"audio/aac":       ".aac",
	"audio/wav":       ".wav",
	"audio/x-wav":     ".wav",
	"audio/wave":      ".wav",
	"audio/ogg":       ".ogg",
	"audio/opus":      ".opus",
	"audio/flac":      ".flac",
	"audio/x-flac":    ".flac",
	"audio/webm":      ".webm",
	"audio/amr":       ".amr",
	"audio/3gpp":      ".3gp",
	"video/mp4":       ".mp4",
	"video/webm":      ".webm",
	"video/ogg":       ".ogv",
	"video/x-msvideo": ".avi",
	"video/quicktime": ".mov",
}

// ExtensionForType maps a media type to a file extension including the dot.
// It returns "" when the type is unknown.
func ExtensionForType(mediaType string) string {
	mediaType = strings.ToLower(strings.TrimSpace(mediaType))
	if mediaType == "" {
		return ""
	}
	if ext, ok := audioExtensions[mediaType]; ok {
		return ext
	}
	exts, err := mime.ExtensionsByType(mediaType)
	if err != nil || len(exts) == 0 {
		return ""
	}
	return exts[0]
}

var unsafeNameChars = regexp.MustCompile(`[^A-Za-z0-9_.-]+`)

// BaseName derives a file base name (without extension) from the path of rawURL.
// It returns fallback when nothing usable can be derived.
func BaseName(rawURL, fallback string) string {
	u, err := neturl.Parse(rawURL)
	if err != nil {
		return fallback
	}
	if u.Path == "" || strings.HasSuffix(u.Path, "/") {
		return fallback
	}
	name := path.Base(u.Path)
	if name == "." || name == "/" {
		return fallback
	}
	name = strings.TrimSuffix(name, path.Ext(name))
	name = unsafeNameChars.ReplaceAllString(name, "_")
	name = strings.Trim(name, ".")
	if name == "" {
		return fallback
	}
	return name
}
