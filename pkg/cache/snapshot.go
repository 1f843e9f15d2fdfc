package cache

import (
	"fmt"
	"time"

	"github.com/gobwas/glob"

	"github.com/kataras/figma-sync/pkg/components"
	"github.com/kataras/figma-sync/pkg/figma"
	"github.com/kataras/figma-sync/pkg/tokens"
)

// Page is a CANVAS of a synced file.
type Page struct {
	ID             string `json:"id"`
	Name           string `json:"name"`
	FileID         string `json:"fileId"`
	FrameCount     int    `json:"frameCount"`
	ComponentCount int    `json:"componentCount"`
}

// Data is the persisted snapshot body: cache.json.
type Data struct {
	Tokens     []tokens.DesignToken   `json:"tokens"`
	Components []components.Component `json:"components"`
	Pages      []Page                 `json:"pages"`
}

// normalize replaces nil collections with empty ones so they persist as [].
func (d *Data) normalize() {
	if d.Tokens == nil {
		d.Tokens = []tokens.DesignToken{}
	}
	if d.Components == nil {
		d.Components = []components.Component{}
	}
	if d.Pages == nil {
		d.Pages = []Page{}
	}
}

// Replace returns a copy of d where every item of fileID is replaced by the
// given ones. Items of other files keep their order.
func (d Data) Replace(fileID string, toks []tokens.DesignToken, comps []components.Component, pages []Page) Data {
	out := Data{
		Tokens:     make([]tokens.DesignToken, 0, len(d.Tokens)+len(toks)),
		Components: make([]components.Component, 0, len(d.Components)+len(comps)),
		Pages:      make([]Page, 0, len(d.Pages)+len(pages)),
	}

	for _, t := range d.Tokens {
		if t.FileID != fileID {
			out.Tokens = append(out.Tokens, t)
		}
	}
	for _, c := range d.Components {
		if c.FileID != fileID {
			out.Components = append(out.Components, c)
		}
	}
	for _, p := range d.Pages {
		if p.FileID != fileID {
			out.Pages = append(out.Pages, p)
		}
	}

	out.Tokens = append(out.Tokens, toks...)
	out.Components = append(out.Components, comps...)
	out.Pages = append(out.Pages, pages...)
	return out
}

// FileMeta is the per-file breakdown of the last successful sync of that file.
type FileMeta struct {
	Name       string    `json:"name,omitempty"`
	Version    string    `json:"version"`
	SyncedAt   time.Time `json:"syncedAt"`
	Tokens     int       `json:"tokens"`
	Components int       `json:"components"`
	Pages      int       `json:"pages"`
}

// Metadata is the sync bookkeeping persisted next to the data: metadata.json.
type Metadata struct {
	LastSync       time.Time           `json:"lastSync"`
	FileVersion    map[string]string   `json:"fileVersion"`
	TokenCount     int                 `json:"tokenCount"`
	ComponentCount int                 `json:"componentCount"`
	PageCount      int                 `json:"pageCount"`
	Files          map[string]FileMeta `json:"files"`
}

func newMetadata() *Metadata {
	return &Metadata{
		FileVersion: make(map[string]string),
		Files:       make(map[string]FileMeta),
	}
}

// IsStale reports whether more than ttl has passed since the last sync.
// A cache that was never synced is always stale.
func (m *Metadata) IsStale(now time.Time, ttl time.Duration) bool {
	if m == nil || m.LastSync.IsZero() {
		return true
	}
	return now.Sub(m.LastSync) > ttl
}

// Clone returns a deep copy of m.
func (m *Metadata) Clone() *Metadata {
	c := *m
	c.FileVersion = make(map[string]string, len(m.FileVersion))
	for k, v := range m.FileVersion {
		c.FileVersion[k] = v
	}
	c.Files = make(map[string]FileMeta, len(m.Files))
	for k, v := range m.Files {
		c.Files[k] = v
	}
	return &c
}

// Snapshot is one committed cache state. It is never mutated after Load,
// so it can be shared between readers while a sync builds the next one.
type Snapshot struct {
	Data     Data
	Metadata Metadata
}

// TokenFilter narrows Snapshot.Tokens. Empty fields match everything.
// Category is a glob with '/' as separator, so "colors/*" matches every
// color subcategory and a plain category matches itself.
type TokenFilter struct {
	FileID   string
	Kind     tokens.Kind
	Category string
}

// Tokens returns the tokens matching f, in snapshot order.
func (s *Snapshot) Tokens(f TokenFilter) ([]tokens.DesignToken, error) {
	var category glob.Glob
	if f.Category != "" {
		g, err := glob.Compile(f.Category, '/')
		if err != nil {
			return nil, fmt.Errorf("invalid category pattern %q: %w", f.Category, err)
		}
		category = g
	}

	out := []tokens.DesignToken{}
	for _, t := range s.Data.Tokens {
		if f.FileID != "" && t.FileID != f.FileID {
			continue
		}
		if f.Kind != "" && t.Kind != f.Kind {
			continue
		}
		if category != nil && !category.Match(t.Category) {
			continue
		}
		out = append(out, t)
	}
	return out, nil
}

// ComponentFilter narrows Snapshot.Components. Empty fields match everything.
type ComponentFilter struct {
	FileID string
	Type   figma.NodeType
}

// Components returns the components matching f, in snapshot order.
func (s *Snapshot) Components(f ComponentFilter) []components.Component {
	out := []components.Component{}
	for _, c := range s.Data.Components {
		if f.FileID != "" && c.FileID != f.FileID {
			continue
		}
		if f.Type != "" && c.Type != f.Type {
			continue
		}
		out = append(out, c)
	}
	return out
}

// Component looks a component up by id, including variants of sets.
// Node ids are only unique within a file, so fileID narrows the lookup;
// an empty fileID returns the first match of any file.
func (s *Snapshot) Component(id, fileID string) (components.Component, bool) {
	for _, c := range s.Data.Components {
		if fileID != "" && c.FileID != fileID {
			continue
		}
		if c.ID == id {
			return c, true
		}
		for _, v := range c.Variants {
			if v.ID == id {
				return v, true
			}
		}
	}
	return components.Component{}, false
}

// TokensUsedBy returns every token id the component uses. With an empty
// fileID the usages of every file defining componentID are merged.
func (s *Snapshot) TokensUsedBy(componentID, fileID string) ([]string, bool) {
	if fileID != "" {
		c, ok := s.Component(componentID, fileID)
		if !ok {
			return nil, false
		}
		return c.UsedTokens.All(), true
	}

	var (
		found bool
		out   []string
		seen  = make(map[string]struct{})
	)
	for _, f := range s.componentFiles() {
		c, ok := s.Component(componentID, f)
		if !ok {
			continue
		}
		found = true
		for _, id := range c.UsedTokens.All() {
			if _, dup := seen[id]; !dup {
				seen[id] = struct{}{}
				out = append(out, id)
			}
		}
	}
	if !found {
		return nil, false
	}
	if out == nil {
		out = []string{}
	}
	return out, true
}

// ComponentsUsing returns the top-level components that use tokenID. A
// component only refers to tokens of its own file, so a non-empty fileID
// scopes the match to that file.
func (s *Snapshot) ComponentsUsing(tokenID, fileID string) []components.Component {
	out := []components.Component{}
	for _, c := range s.Data.Components {
		if fileID != "" && c.FileID != fileID {
			continue
		}
		if c.UsedTokens.Uses(tokenID) {
			out = append(out, c)
		}
	}
	return out
}

// componentFiles lists the files that contributed components, in snapshot order.
func (s *Snapshot) componentFiles() []string {
	var files []string
	seen := make(map[string]struct{})
	for _, c := range s.Data.Components {
		if _, ok := seen[c.FileID]; !ok {
			seen[c.FileID] = struct{}{}
			files = append(files, c.FileID)
		}
	}
	return files
}
