// Package imager downloads rendered component previews to a local directory.
package imager

import (
	"context"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"os"
	"path"
	"path/filepath"
	"strings"
	"sync"
)

// DefaultParallelDownloads bounds concurrent downloads when Config.Parallelism is unset.
const DefaultParallelDownloads = 5

// Config holds configuration for preview downloads.
type Config struct {
	Format      string  // "png", "svg", "jpg", "pdf"
	Scale       float64 // render scale, used for the @2x style file suffix
	OutputDir   string
	Parallelism int
	HTTPClient  *http.Client
}

// Item is one rendered image to fetch.
type Item struct {
	NodeID string
	Name   string
	URL    string
}

// Asset represents a single downloaded image.
type Asset struct {
	NodeID   string
	NodeName string
	FileName string
	Path     string
	Format   string
	Scale    float64
}

// Result holds the results of a download run.
type Result struct {
	Assets []Asset
	Errors []error // non-fatal per-image download failures
}

// Download fetches items into config.OutputDir. File names are derived from
// the item names in kebab-case and made unique before any download starts.
// A failed download is recorded in Result.Errors and does not stop the others.
func Download(ctx context.Context, items []Item, config Config) (*Result, error) {
	if err := os.MkdirAll(config.OutputDir, 0o755); err != nil {
		return nil, fmt.Errorf("failed to create output directory %q: %w", config.OutputDir, err)
	}

	client := config.HTTPClient
	if client == nil {
		client = http.DefaultClient
	}
	parallel := config.Parallelism
	if parallel <= 0 {
		parallel = DefaultParallelDownloads
	}

	result := &Result{}
	usedNames := make(map[string]int)
	fileNames := make([]string, len(items))
	for i, item := range items {
		format := detectExtensionFromURL(item.URL, config.Format)
		fileName := buildFileName(item.Name, item.NodeID, format, config.Scale)

		if count, exists := usedNames[fileName]; exists {
			ext := filepath.Ext(fileName)
			base := strings.TrimSuffix(fileName, ext)
			usedNames[fileName] = count + 1
			fileName = fmt.Sprintf("%s-%d%s", base, count+1, ext)
		} else {
			usedNames[fileName] = 1
		}
		fileNames[i] = fileName
	}

	var (
		wg  sync.WaitGroup
		mu  sync.Mutex
		sem = make(chan struct{}, parallel)
	)

	for i, item := range items {
		if item.URL == "" {
			mu.Lock()
			result.Errors = append(result.Errors, fmt.Errorf("no image URL for node %s", item.NodeID))
			mu.Unlock()
			continue
		}

		wg.Add(1)
		go func(item Item, fileName string) {
			defer wg.Done()
			sem <- struct{}{}
			defer func() { <-sem }()

			destPath := filepath.Join(config.OutputDir, fileName)
			if err := downloadFile(ctx, client, item.URL, destPath); err != nil {
				mu.Lock()
				result.Errors = append(result.Errors, fmt.Errorf("failed to download %s: %w", item.Name, err))
				mu.Unlock()
				return
			}

			mu.Lock()
			result.Assets = append(result.Assets, Asset{
				NodeID:   item.NodeID,
				NodeName: item.Name,
				FileName: fileName,
				Path:     destPath,
				Format:   strings.TrimPrefix(filepath.Ext(fileName), "."),
				Scale:    config.Scale,
			})
			mu.Unlock()
		}(item, fileNames[i])
	}

	wg.Wait()
	return result, ctx.Err()
}

// downloadFile performs an HTTP GET and saves the response body to destPath.
func downloadFile(ctx context.Context, client *http.Client, rawURL, destPath string) error {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, rawURL, nil)
	if err != nil {
		return fmt.Errorf("failed to create request: %w", err)
	}

	resp, err := client.Do(req)
	if err != nil {
		return fmt.Errorf("HTTP GET failed: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return fmt.Errorf("unexpected status %d downloading image", resp.StatusCode)
	}

	f, err := os.Create(destPath)
	if err != nil {
		return fmt.Errorf("failed to create file %q: %w", destPath, err)
	}
	defer f.Close()

	if _, err := io.Copy(f, resp.Body); err != nil {
		return fmt.Errorf("failed to write file %q: %w", destPath, err)
	}

	return nil
}

var knownExtensions = map[string]bool{"png": true, "jpg": true, "jpeg": true, "svg": true, "pdf": true, "gif": true, "webp": true}

// detectExtensionFromURL returns the image extension of the URL path, or
// fallback when the path carries none (render URLs usually don't).
func detectExtensionFromURL(rawURL, fallback string) string {
	u, err := url.Parse(rawURL)
	if err != nil {
		return fallback
	}
	ext := strings.ToLower(strings.TrimPrefix(path.Ext(u.Path), "."))
	if knownExtensions[ext] {
		if ext == "jpeg" {
			return "jpg"
		}
		return ext
	}
	return fallback
}

// buildFileName creates a sanitized filename from a node name.
// Uses kebab-case, adds @2x/@3x suffix for raster scales > 1,
// falls back to sanitized node ID if name is empty.
func buildFileName(nodeName, nodeID, format string, scale float64) string {
	name := nodeName
	if name == "" {
		name = nodeID
	}

	name = toKebabCase(name)
	if name == "" {
		name = "asset"
	}

	scaleSuffix := ""
	if scale > 1 && format != "svg" && format != "pdf" {
		scaleSuffix = fmt.Sprintf("@%gx", scale)
	}

	return fmt.Sprintf("%s%s.%s", name, scaleSuffix, format)
}

// toKebabCase converts a string to kebab-case format (lowercase with hyphens).
// Slashes and '=' from variant names become hyphens too.
func toKebabCase(s string) string {
	s = strings.ToLower(s)
	s = strings.NewReplacer(" ", "-", "_", "-", "/", "-", "=", "-").Replace(s)

	var result strings.Builder
	for _, r := range s {
		if (r >= 'a' && r <= 'z') || (r >= '0' && r <= '9') || r == '-' {
			result.WriteRune(r)
		}
	}

	return result.String()
}
