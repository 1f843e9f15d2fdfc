// Package components extracts component and component-set definitions from a
// Figma document tree and links each of them to the design tokens it uses.
package components

import (
	"time"

	"github.com/kataras/figma-sync/pkg/figma"
	"github.com/kataras/figma-sync/pkg/tokens"
)

// Property types as inferred from component property values.
const (
	PropertyBoolean = "BOOLEAN"
	PropertyText    = "TEXT"
	PropertyVariant = "VARIANT"
)

// Property is a declared component property.
type Property struct {
	Type  string `json:"type"`
	Value any    `json:"value,omitempty"`
}

// UsedTokens lists the token ids a component uses, per bucket. Every bucket
// is deduplicated. Radius tokens are reported under Spacing and shadow or
// effect tokens under Effects.
type UsedTokens struct {
	Colors     []string `json:"colors"`
	Typography []string `json:"typography"`
	Spacing    []string `json:"spacing"`
	Effects    []string `json:"effects"`
}

// All returns every bucket concatenated.
func (u UsedTokens) All() []string {
	out := make([]string, 0, len(u.Colors)+len(u.Typography)+len(u.Spacing)+len(u.Effects))
	out = append(out, u.Colors...)
	out = append(out, u.Typography...)
	out = append(out, u.Spacing...)
	return append(out, u.Effects...)
}

// Uses reports whether tokenID is in any bucket.
func (u UsedTokens) Uses(tokenID string) bool {
	for _, id := range u.All() {
		if id == tokenID {
			return true
		}
	}
	return false
}

// Component is a COMPONENT or COMPONENT_SET extracted from a file.
type Component struct {
	ID           string              `json:"id"`
	Name         string              `json:"name"`
	Type         figma.NodeType      `json:"type"`
	FileID       string              `json:"fileId"`
	PageID       string              `json:"pageId"`
	FrameID      string              `json:"frameId,omitempty"`
	SetID        string              `json:"setId,omitempty"`
	Description  string              `json:"description,omitempty"`
	Properties   map[string]Property `json:"properties"`
	Variants     []Component         `json:"variants,omitempty"`
	UsedTokens   UsedTokens          `json:"usedTokens"`
	Children     []NodeSnapshot      `json:"children,omitempty"`
	PreviewURL   string              `json:"previewUrl,omitempty"`
	PreviewPath  string              `json:"previewPath,omitempty"`
	LastModified time.Time           `json:"lastModified"`

	// node is the source subtree, only set on freshly extracted components.
	node *figma.Node
}

// IsSet reports whether c is a component set.
func (c Component) IsSet() bool { return c.Type == figma.NodeTypeComponentSet }

// NodeSnapshot is a projection of one node of a component's visual subtree,
// enough to render a preview of it later.
type NodeSnapshot struct {
	ID   string         `json:"id"`
	Name string         `json:"name"`
	Type figma.NodeType `json:"type"`

	Width  float64 `json:"width,omitempty"`
	Height float64 `json:"height,omitempty"`

	Fills        []string `json:"fills,omitempty"`
	ImageFills   []string `json:"imageFills,omitempty"`
	Strokes      []string `json:"strokes,omitempty"`
	StrokeWeight float64  `json:"strokeWeight,omitempty"`
	CornerRadius float64  `json:"cornerRadius,omitempty"`

	Text       string             `json:"text,omitempty"`
	Typography *tokens.Typography `json:"typography,omitempty"`

	LayoutMode  string          `json:"layoutMode,omitempty"`
	Padding     *tokens.Spacing `json:"padding,omitempty"`
	ItemSpacing float64         `json:"itemSpacing,omitempty"`

	Shadows []string `json:"shadows,omitempty"`

	Children []NodeSnapshot `json:"children,omitempty"`
}

// Snapshot projects node and its visible descendants.
func Snapshot(node *figma.Node) NodeSnapshot {
	s := NodeSnapshot{
		ID:           node.ID,
		Name:         node.Name,
		Type:         node.Type,
		StrokeWeight: node.StrokeWeight,
		CornerRadius: node.CornerRadius,
		LayoutMode:   node.LayoutMode,
		ItemSpacing:  node.ItemSpacing,
	}

	if node.AbsoluteBoundingBox != nil {
		s.Width = node.AbsoluteBoundingBox.Width
		s.Height = node.AbsoluteBoundingBox.Height
	}

	for _, fill := range node.Fills {
		if !fill.IsVisible() {
			continue
		}
		if fill.IsSolid() {
			s.Fills = append(s.Fills, tokens.PaintHex(fill))
		}
		if fill.Type == "IMAGE" && fill.ImageRef != "" {
			s.ImageFills = append(s.ImageFills, fill.ImageRef)
		}
	}
	for _, stroke := range node.Strokes {
		if stroke.IsSolid() {
			s.Strokes = append(s.Strokes, tokens.PaintHex(stroke))
		}
	}

	if node.Type == figma.NodeTypeText {
		s.Text = node.Characters
		if node.Style != nil {
			s.Typography = &tokens.Typography{
				FontFamily: node.Style.FontFamily,
				FontSize:   node.Style.FontSize,
				FontWeight: node.Style.FontWeight,
				LineHeight: node.Style.LineHeightPx,
				Align:      node.Style.TextAlignHorizontal,
			}
		}
	}

	if node.HasPadding() {
		s.Padding = &tokens.Spacing{
			Top: node.PaddingTop, Right: node.PaddingRight,
			Bottom: node.PaddingBottom, Left: node.PaddingLeft,
		}
	}

	for _, effect := range node.Effects {
		if effect.IsDropShadow() {
			s.Shadows = append(s.Shadows, tokens.FormatShadow(effect))
		}
	}

	for i := range node.Children {
		child := &node.Children[i]
		if child.Visible != nil && !*child.Visible {
			continue
		}
		s.Children = append(s.Children, Snapshot(child))
	}

	return s
}

// Detach returns copies of comps without their source trees, so they can be
// kept without pinning the fetched document in memory. Detached components
// are not relinked by Link.
func Detach(comps []Component) []Component {
	if comps == nil {
		return nil
	}
	out := make([]Component, len(comps))
	for i, c := range comps {
		c.node = nil
		c.Variants = Detach(c.Variants)
		out[i] = c
	}
	return out
}
