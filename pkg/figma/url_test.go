package figma

import (
	"testing"
)

func TestExtractFileKey(t *testing.T) {
	tests := []struct {
		name    string
		url     string
		want    string
		wantErr bool
	}{
		{name: "valid /file/ URL", url: "https://www.figma.com/file/ABC123XYZ/Design-Name", want: "ABC123XYZ"},
		{name: "valid /design/ URL", url: "https://www.figma.com/design/ABC123XYZ/Design-Name", want: "ABC123XYZ"},
		{name: "URL with node-id parameter", url: "https://www.figma.com/design/4gkABR5gEZnIvlCaXmA4KI/Tokens?node-id=11933-305884", want: "4gkABR5gEZnIvlCaXmA4KI"},
		{name: "URL without www subdomain", url: "https://figma.com/file/ABC123XYZ/Design-Name", want: "ABC123XYZ"},
		{name: "URL with http protocol", url: "http://www.figma.com/file/ABC123XYZ/Design-Name", want: "ABC123XYZ"},
		{name: "URL with trailing slash", url: "https://www.figma.com/file/ABC123XYZ/", want: "ABC123XYZ"},
		{name: "key followed by query", url: "https://www.figma.com/file/ABC123XYZ?node-id=1-2", want: "ABC123XYZ"},
		{name: "invalid URL - missing file key", url: "https://www.figma.com/file/", wantErr: true},
		{name: "invalid URL - wrong domain", url: "https://www.example.com/file/ABC123XYZ", wantErr: true},
		{name: "invalid URL - look-alike domain", url: "https://figma.com.evil.io/file/ABC123XYZ", wantErr: true},
		{name: "invalid URL - wrong path", url: "https://www.figma.com/dashboard/ABC123XYZ", wantErr: true},
		{name: "empty URL", url: "", wantErr: true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := ExtractFileKey(tt.url)
			if (err != nil) != tt.wantErr {
				t.Errorf("ExtractFileKey() error = %v, wantErr %v", err, tt.wantErr)
				return
			}
			if got != tt.want {
				t.Errorf("ExtractFileKey() = %v, want %v", got, tt.want)
			}
		})
	}
}

func TestResolveFileKey(t *testing.T) {
	tests := []struct {
		in      string
		want    string
		wantErr bool
	}{
		{in: "ABC123", want: "ABC123"},
		{in: "https://www.figma.com/design/ABC123/Tokens", want: "ABC123"},
		{in: "", wantErr: true},
		{in: "not/a/url", wantErr: true},
	}

	for _, tt := range tests {
		t.Run(tt.in, func(t *testing.T) {
			got, err := ResolveFileKey(tt.in)
			if (err != nil) != tt.wantErr {
				t.Fatalf("ResolveFileKey(%q) error = %v, wantErr %v", tt.in, err, tt.wantErr)
			}
			if got != tt.want {
				t.Errorf("ResolveFileKey(%q) = %q, want %q", tt.in, got, tt.want)
			}
		})
	}
}

func TestExtractNodeIDs(t *testing.T) {
	tests := []struct {
		name string
		url  string
		want []string
	}{
		{name: "single node-id with colon", url: "https://www.figma.com/file/ABC123/Design?node-id=123:456", want: []string{"123:456"}},
		{name: "single node-id with dash", url: "https://www.figma.com/design/4gkABR5gEZnIvlCaXmA4KI/Tokens?node-id=11933-305884", want: []string{"11933:305884"}},
		{name: "node-id with additional parameters", url: "https://www.figma.com/design/4gkABR5gEZnIvlCaXmA4KI/Tokens?node-id=11933-305884&t=ObvUckUHZc8tSjeT-1", want: []string{"11933:305884"}},
		{name: "multiple node-ids with mixed format", url: "https://www.figma.com/file/ABC123/Design?node-id=123:456,789-012", want: []string{"123:456", "789:012"}},
		{name: "hash fragment format", url: "https://www.figma.com/file/ABC123/Design#123:456,789:012", want: []string{"123:456", "789:012"}},
		{name: "path format", url: "https://www.figma.com/file/ABC123/Design/nodes/123:456", want: []string{"123:456"}},
		{name: "no node-ids in URL", url: "https://www.figma.com/file/ABC123/Design", want: []string{}},
		{name: "spaces are trimmed", url: "https://www.figma.com/file/ABC123/Design?node-id=123:456, 789:012", want: []string{"123:456", "789:012"}},
		{name: "duplicates are removed", url: "https://www.figma.com/file/ABC123/Design?node-id=123:456,123:456,789:012", want: []string{"123:456", "789:012"}},
		{name: "empty node-id parameter", url: "https://www.figma.com/file/ABC123/Design?node-id=", want: []string{}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := ExtractNodeIDs(tt.url)
			if err != nil {
				t.Fatalf("ExtractNodeIDs() error = %v", err)
			}
			if len(got) != len(tt.want) {
				t.Fatalf("ExtractNodeIDs() = %v, want %v", got, tt.want)
			}
			for i := range got {
				if got[i] != tt.want[i] {
					t.Errorf("ExtractNodeIDs() at index %d = %v, want %v", i, got[i], tt.want[i])
				}
			}
		})
	}
}

func TestDeduplicateNodeIDs(t *testing.T) {
	got := deduplicateNodeIDs([]string{"789:012", "123:456", "789:012", "345:678", "123:456"})
	want := []string{"789:012", "123:456", "345:678"}

	if len(got) != len(want) {
		t.Fatalf("deduplicateNodeIDs() = %v, want %v", got, want)
	}
	for i := range got {
		if got[i] != want[i] {
			t.Errorf("deduplicateNodeIDs() at index %d = %v, want %v", i, got[i], want[i])
		}
	}
}
