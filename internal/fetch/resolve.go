// Copyright 2025 Seth Burkart
//
// Package fetch resolves file locators to local paths. A locator is either
// a local filesystem path, returned unchanged if it exists, or a URL, which
// is downloaded into a per-process temp directory with the best file
// extension the resolver can detect (URL path, Content-Type probe, or URL
// pattern heuristics, in that order).
package fetch

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log"
	"net/http"
	"net/url"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/google/uuid"
)

// ErrNotFound is returned when a local-path locator does not exist.
var ErrNotFound = errors.New("file not found")

// downloadDirName is the per-process download directory created under the
// system temp dir when no explicit directory is configured.
const downloadDirName = "openlp-mcp-downloads"

const probeTimeout = 10 * time.Second

// Resolver turns locators into local file paths.
type Resolver struct {
	dir    string
	client *http.Client
}

// Option configures a Resolver.
type Option func(*Resolver)

// WithDir sets the download directory.
func WithDir(dir string) Option {
	return func(r *Resolver) { r.dir = dir }
}

// WithClient sets the HTTP client used for probes and downloads.
func WithClient(client *http.Client) Option {
	return func(r *Resolver) { r.client = client }
}

// NewResolver returns a resolver downloading into the system temp dir by
// default.
func NewResolver(opts ...Option) *Resolver {
	r := &Resolver{
		dir:    filepath.Join(os.TempDir(), downloadDirName),
		client: &http.Client{Timeout: 2 * time.Minute},
	}
	for _, opt := range opts {
		opt(r)
	}
	return r
}

// Dir reports the download directory.
func (r *Resolver) Dir() string { return r.dir }

// IsURL reports whether the locator is a URL rather than a local path.
// Recognized schemes are http, https, ftp, and ftps.
func IsURL(locator string) bool {
	u, err := url.Parse(locator)
	if err != nil {
		return false
	}
	switch u.Scheme {
	case "http", "https", "ftp", "ftps":
		return true
	}
	return false
}

// Resolve returns a local path for the locator. Local paths must exist;
// URL locators are downloaded. Only http and https downloads are
// supported.
func (r *Resolver) Resolve(ctx context.Context, locator string) (string, error) {
	if locator == "" {
		return "", errors.New("file path or URL cannot be empty")
	}
	if !IsURL(locator) {
		if _, err := os.Stat(locator); err != nil {
			return "", fmt.Errorf("%w: %s", ErrNotFound, locator)
		}
		return locator, nil
	}
	if scheme := schemeOf(locator); scheme != "http" && scheme != "https" {
		return "", fmt.Errorf("downloads over %s are not supported: %s", scheme, locator)
	}
	return r.download(ctx, locator)
}

func schemeOf(locator string) string {
	u, err := url.Parse(locator)
	if err != nil {
		return ""
	}
	return u.Scheme
}

func (r *Resolver) download(ctx context.Context, rawURL string) (string, error) {
	log.Printf("Downloading file from URL: %s", rawURL)
	if err := os.MkdirAll(r.dir, 0755); err != nil {
		return "", fmt.Errorf("create download dir: %w", err)
	}
	dest := filepath.Join(r.dir, r.fileNameFor(ctx, rawURL))

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, rawURL, nil)
	if err != nil {
		return "", fmt.Errorf("build download request: %w", err)
	}
	resp, err := r.client.Do(req)
	if err != nil {
		return "", fmt.Errorf("failed to download %s: %w", rawURL, err)
	}
	defer resp.Body.Close()
	if resp.StatusCode != http.StatusOK {
		return "", fmt.Errorf("failed to download %s: status %s", rawURL, resp.Status)
	}

	f, err := os.Create(dest)
	if err != nil {
		return "", fmt.Errorf("create download file: %w", err)
	}
	if _, err := io.Copy(f, resp.Body); err != nil {
		f.Close()
		os.Remove(dest)
		return "", fmt.Errorf("failed to download %s: %w", rawURL, err)
	}
	if err := f.Close(); err != nil {
		os.Remove(dest)
		return "", fmt.Errorf("write download file: %w", err)
	}
	log.Printf("Successfully downloaded %s to %s", rawURL, dest)
	return dest, nil
}

// fileNameFor picks the local file name for a URL: the URL path basename
// when it already carries an extension, otherwise a generated name from the
// detected media class and a short random id.
func (r *Resolver) fileNameFor(ctx context.Context, rawURL string) string {
	name := urlBasename(rawURL)
	if name != "" && strings.Contains(name, ".") {
		return name
	}

	ext := extensionForContentType(r.probeContentType(ctx, rawURL))
	if ext == ".tmp" {
		ext = guessExtensionFromURL(rawURL)
	}
	if name != "" {
		return name + ext
	}
	return fmt.Sprintf("%s_%s%s", mediaClassForExtension(ext), uuid.NewString()[:8], ext)
}

// probeContentType issues a HEAD request for the URL's Content-Type, ""
// when the probe fails.
func (r *Resolver) probeContentType(ctx context.Context, rawURL string) string {
	ctx, cancel := context.WithTimeout(ctx, probeTimeout)
	defer cancel()
	req, err := http.NewRequestWithContext(ctx, http.MethodHead, rawURL, nil)
	if err != nil {
		return ""
	}
	resp, err := r.client.Do(req)
	if err != nil {
		log.Printf("Could not get content type for %s: %v", rawURL, err)
		return ""
	}
	defer resp.Body.Close()
	return strings.ToLower(resp.Header.Get("Content-Type"))
}

// Clean removes downloaded files and, when possible, the download
// directory itself. A missing directory is not an error.
func (r *Resolver) Clean() error {
	entries, err := os.ReadDir(r.dir)
	if err != nil {
		if os.IsNotExist(err) {
			return nil
		}
		return err
	}
	var errs []error
	for _, entry := range entries {
		if entry.IsDir() {
			continue
		}
		if err := os.Remove(filepath.Join(r.dir, entry.Name())); err != nil {
			errs = append(errs, err)
		}
	}
	if len(errs) > 0 {
		return errors.Join(errs...)
	}
	// The directory may hold foreign subdirectories; a failed rmdir is
	// not worth reporting.
	os.Remove(r.dir)
	return nil
}
