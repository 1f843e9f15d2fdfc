package figma

import (
	"fmt"
	"net/url"
	"regexp"
	"strings"
)

var fileKeyRe = regexp.MustCompile(`^https?://(?:www\.)?figma\.com/(?:file|design)/([A-Za-z0-9]+)(?:/|$|\?|#)`)

// ExtractFileKey extracts the unique file identifier from a Figma URL.
// Supports both /file/ and /design/ URL patterns (e.g., figma.com/file/ABC123/Design-Name).
// The pattern is anchored so look-alike domains are rejected.
func ExtractFileKey(figmaURL string) (string, error) {
	matches := fileKeyRe.FindStringSubmatch(figmaURL)
	if len(matches) < 2 {
		return "", fmt.Errorf("invalid Figma URL format: must be a valid figma.com URL with /file/ or /design/ path")
	}

	return matches[1], nil
}

// ResolveFileKey accepts either a bare file key or a Figma URL.
func ResolveFileKey(keyOrURL string) (string, error) {
	if !strings.Contains(keyOrURL, "/") {
		if keyOrURL == "" {
			return "", fmt.Errorf("empty file key")
		}
		return keyOrURL, nil
	}
	return ExtractFileKey(keyOrURL)
}

// ExtractNodeIDs returns the node ids referenced by a Figma URL, in order and
// without duplicates. It understands the node-id query parameter, the #id
// fragment and the /nodes/id path forms. URL-encoded ids (123-456) are
// normalized to the API form (123:456).
func ExtractNodeIDs(figmaURL string) ([]string, error) {
	u, err := url.Parse(figmaURL)
	if err != nil {
		return nil, fmt.Errorf("invalid URL: %w", err)
	}

	var raw string
	switch {
	case u.Query().Get("node-id") != "":
		raw = u.Query().Get("node-id")
	case u.Fragment != "":
		raw = u.Fragment
	default:
		if idx := strings.Index(u.Path, "/nodes/"); idx >= 0 {
			raw = u.Path[idx+len("/nodes/"):]
		}
	}

	ids := make([]string, 0)
	for _, part := range strings.Split(raw, ",") {
		id := strings.TrimSpace(part)
		if id == "" {
			continue
		}
		if !strings.Contains(id, ":") {
			id = strings.Replace(id, "-", ":", 1)
		}
		ids = append(ids, id)
	}

	return deduplicateNodeIDs(ids), nil
}

func deduplicateNodeIDs(ids []string) []string {
	seen := make(map[string]struct{}, len(ids))
	result := make([]string, 0, len(ids))
	for _, id := range ids {
		if _, ok := seen[id]; ok {
			continue
		}
		seen[id] = struct{}{}
		result = append(result, id)
	}
	return result
}
