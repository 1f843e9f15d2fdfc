package imager

import (
	"context"
	"fmt"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"sort"
	"testing"
)

func TestBuildFileName(t *testing.T) {
	tests := []struct {
		name     string
		nodeName string
		nodeID   string
		format   string
		scale    float64
		want     string
	}{
		{"simple", "Primary Button", "1:2", "png", 1, "primary-button.png"},
		{"retina suffix", "Primary Button", "1:2", "png", 2, "primary-button@2x.png"},
		{"vector ignores scale", "Icon", "1:3", "svg", 3, "icon.svg"},
		{"variant name", "Size=lg/State=hover", "1:4", "png", 1, "size-lg-state-hover.png"},
		{"empty name falls back to id", "", "12:34", "png", 1, "1234.png"},
		{"nothing usable", "★★", "", "jpg", 1, "asset.jpg"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := buildFileName(tt.nodeName, tt.nodeID, tt.format, tt.scale)
			if got != tt.want {
				t.Errorf("buildFileName(%q, %q, %q, %g) = %q, want %q", tt.nodeName, tt.nodeID, tt.format, tt.scale, got, tt.want)
			}
		})
	}
}

func TestDetectExtensionFromURL(t *testing.T) {
	tests := []struct {
		name     string
		url      string
		fallback string
		want     string
	}{
		{"png path", "https://cdn.example.com/images/abc.png", "svg", "png"},
		{"jpeg normalized", "https://cdn.example.com/a/photo.JPEG?x=1", "png", "jpg"},
		{"no extension", "https://figma-alpha-api.s3.us-west-2.amazonaws.com/images/0b1c", "png", "png"},
		{"unknown extension", "https://cdn.example.com/file.bin", "png", "png"},
		{"invalid url", "://bad", "svg", "svg"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := detectExtensionFromURL(tt.url, tt.fallback); got != tt.want {
				t.Errorf("detectExtensionFromURL(%q) = %q, want %q", tt.url, got, tt.want)
			}
		})
	}
}

func TestDownload(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path == "/missing" {
			http.NotFound(w, r)
			return
		}
		w.Write([]byte("image:" + r.URL.Path))
	}))
	defer srv.Close()

	dir := filepath.Join(t.TempDir(), "previews")
	items := []Item{
		{NodeID: "1:1", Name: "Button", URL: srv.URL + "/a"},
		{NodeID: "1:2", Name: "Button", URL: srv.URL + "/b"},
		{NodeID: "1:3", Name: "Card", URL: srv.URL + "/missing"},
		{NodeID: "1:4", Name: "Empty"},
	}

	result, err := Download(context.Background(), items, Config{Format: "png", Scale: 2, OutputDir: dir, Parallelism: 2})
	if err != nil {
		t.Fatalf("Download() error = %v", err)
	}

	if len(result.Errors) != 2 {
		t.Fatalf("got %d errors, want 2: %v", len(result.Errors), result.Errors)
	}
	if len(result.Assets) != 2 {
		t.Fatalf("got %d assets, want 2", len(result.Assets))
	}

	sort.Slice(result.Assets, func(i, j int) bool { return result.Assets[i].NodeID < result.Assets[j].NodeID })

	wantNames := []string{"button@2x.png", "button@2x-2.png"}
	for i, asset := range result.Assets {
		if asset.FileName != wantNames[i] {
			t.Errorf("asset %s file name = %q, want %q", asset.NodeID, asset.FileName, wantNames[i])
		}
		if asset.Format != "png" {
			t.Errorf("asset %s format = %q, want png", asset.NodeID, asset.Format)
		}
	}

	body, err := os.ReadFile(filepath.Join(dir, "button@2x-2.png"))
	if err != nil {
		t.Fatalf("read downloaded file: %v", err)
	}
	if string(body) != "image:/b" {
		t.Errorf("downloaded body = %q, want %q", body, "image:/b")
	}
}

func TestDownload_MixedMissingURLsAndFailures(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		http.Error(w, "gone", http.StatusGone)
	}))
	defer srv.Close()

	var items []Item
	for i := 0; i < 20; i++ {
		id := fmt.Sprintf("7:%d", i)
		item := Item{NodeID: id, Name: "Node " + id}
		if i%2 == 0 {
			item.URL = srv.URL + "/" + id
		}
		items = append(items, item)
	}

	result, err := Download(context.Background(), items, Config{Format: "png", OutputDir: t.TempDir(), Parallelism: 4})
	if err != nil {
		t.Fatalf("Download() error = %v", err)
	}
	if len(result.Errors) != len(items) {
		t.Errorf("got %d errors, want %d", len(result.Errors), len(items))
	}
	if len(result.Assets) != 0 {
		t.Errorf("got %d assets, want 0", len(result.Assets))
	}
}
