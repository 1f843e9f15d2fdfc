package figma

import (
	"errors"
	"strings"
)

// FileResponse represents the complete response from the Figma file API endpoint.
// It contains the file metadata, document structure, published styles and components.
type FileResponse struct {
	Name          string               `json:"name"`
	LastModified  string               `json:"lastModified"`
	ThumbnailURL  string               `json:"thumbnailUrl"`
	Version       string               `json:"version"`
	Document      Node                 `json:"document"`
	Components    map[string]Component `json:"components,omitempty"`
	Styles        map[string]Style     `json:"styles"`
	SchemaVersion int                  `json:"schemaVersion"`
}

// ImagesResponse is the body of the render endpoint: node id to a temporary image URL.
// A null URL means the node could not be rendered.
type ImagesResponse struct {
	Err    *string           `json:"err"`
	Images map[string]string `json:"images"`
}

// Component represents a Figma component definition with its metadata.
type Component struct {
	Key            string `json:"key"`
	Name           string `json:"name"`
	Description    string `json:"description"`
	ComponentSetID string `json:"componentSetId,omitempty"`
}

// Style represents a published Figma style with its basic properties.
// Styles can be colors (FILL), text styles (TEXT), effects (EFFECT), or layout grids (GRID).
// The file endpoint never inlines the style value itself.
type Style struct {
	Key         string `json:"key"`
	Name        string `json:"name"`
	Description string `json:"description"`
	StyleType   string `json:"styleType"`
}

// Style purposes as declared by the API.
const (
	StyleTypeFill   = "FILL"
	StyleTypeText   = "TEXT"
	StyleTypeEffect = "EFFECT"
	StyleTypeGrid   = "GRID"
)

// NodeType is the set of node kinds the extractors dispatch on.
// Types the API adds later decode as their raw string and Known reports
// them as false. A node without a type decodes as NodeTypeUnknown.
type NodeType string

const (
	NodeTypeUnknown      NodeType = ""
	NodeTypeDocument     NodeType = "DOCUMENT"
	NodeTypeCanvas       NodeType = "CANVAS"
	NodeTypeFrame        NodeType = "FRAME"
	NodeTypeGroup        NodeType = "GROUP"
	NodeTypeSection      NodeType = "SECTION"
	NodeTypeComponent    NodeType = "COMPONENT"
	NodeTypeComponentSet NodeType = "COMPONENT_SET"
	NodeTypeInstance     NodeType = "INSTANCE"
	NodeTypeText         NodeType = "TEXT"
	NodeTypeRectangle    NodeType = "RECTANGLE"
	NodeTypeEllipse      NodeType = "ELLIPSE"
	NodeTypeVector       NodeType = "VECTOR"
	NodeTypeLine         NodeType = "LINE"
	NodeTypeStar         NodeType = "STAR"
	NodeTypePolygon      NodeType = "REGULAR_POLYGON"
	NodeTypeBoolean      NodeType = "BOOLEAN_OPERATION"
)

var knownNodeTypes = map[NodeType]struct{}{
	NodeTypeDocument: {}, NodeTypeCanvas: {}, NodeTypeFrame: {}, NodeTypeGroup: {},
	NodeTypeSection: {}, NodeTypeComponent: {}, NodeTypeComponentSet: {},
	NodeTypeInstance: {}, NodeTypeText: {}, NodeTypeRectangle: {}, NodeTypeEllipse: {},
	NodeTypeVector: {}, NodeTypeLine: {}, NodeTypeStar: {}, NodeTypePolygon: {},
	NodeTypeBoolean: {},
}

// Known reports whether t is one of the declared node types.
func (t NodeType) Known() bool {
	_, ok := knownNodeTypes[t]
	return ok
}

// IsComponent reports whether t defines a component (single or set).
func (t NodeType) IsComponent() bool {
	return t == NodeTypeComponent || t == NodeTypeComponentSet
}

// ErrMalformedNode is returned by Node.Validate when a node lacks its identity fields.
var ErrMalformedNode = errors.New("malformed node")

// Node represents a single element in the Figma document tree hierarchy.
// Nodes can be frames, groups, text, shapes, or other Figma elements, each with their own properties
// such as fills, strokes, effects, layout settings, and children nodes.
type Node struct {
	ID                    string            `json:"id"`
	Name                  string            `json:"name"`
	Type                  NodeType          `json:"type"`
	Visible               *bool             `json:"visible,omitempty"`
	Children              []Node            `json:"children,omitempty"`
	BackgroundColor       *Color            `json:"backgroundColor,omitempty"`
	Fills                 []Paint           `json:"fills,omitempty"`
	Strokes               []Paint           `json:"strokes,omitempty"`
	StrokeWeight          float64           `json:"strokeWeight,omitempty"`
	CornerRadius          float64           `json:"cornerRadius,omitempty"`
	Effects               []Effect          `json:"effects,omitempty"`
	Characters            string            `json:"characters,omitempty"`
	Style                 *TypeStyle        `json:"style,omitempty"`
	Styles                map[string]string `json:"styles,omitempty"`
	AbsoluteBoundingBox   *Rectangle        `json:"absoluteBoundingBox,omitempty"`
	Constraints           *LayoutConstraint `json:"constraints,omitempty"`
	LayoutMode            string            `json:"layoutMode,omitempty"`
	PrimaryAxisSizingMode string            `json:"primaryAxisSizingMode,omitempty"`
	CounterAxisSizingMode string            `json:"counterAxisSizingMode,omitempty"`
	PaddingLeft           float64           `json:"paddingLeft,omitempty"`
	PaddingRight          float64           `json:"paddingRight,omitempty"`
	PaddingTop            float64           `json:"paddingTop,omitempty"`
	PaddingBottom         float64           `json:"paddingBottom,omitempty"`
	ItemSpacing           float64           `json:"itemSpacing,omitempty"`

	// Component metadata. Values are kept as decoded JSON because the API
	// mixes scalars and typed objects in these maps.
	ComponentPropertyReferences  map[string]any `json:"componentPropertyReferences,omitempty"`
	ComponentProperties          map[string]any `json:"componentProperties,omitempty"`
	ComponentPropertyDefinitions map[string]any `json:"componentPropertyDefinitions,omitempty"`
}

// Validate checks the identity fields every extractor relies on.
func (n *Node) Validate() error {
	var missing []string
	if n.ID == "" {
		missing = append(missing, "id")
	}
	if n.Name == "" {
		missing = append(missing, "name")
	}
	if len(missing) > 0 {
		return errors.Join(ErrMalformedNode, errors.New("missing "+strings.Join(missing, ", ")))
	}
	return nil
}

// HasPadding reports whether any of the four auto-layout paddings is set.
func (n *Node) HasPadding() bool {
	return n.PaddingTop != 0 || n.PaddingRight != 0 || n.PaddingBottom != 0 || n.PaddingLeft != 0
}

// StyleRef returns the style id the node references for the given purpose
// ("fill", "stroke", "text", "effect"). The API uses both singular and plural keys.
func (n *Node) StyleRef(purpose string) string {
	if n.Styles == nil {
		return ""
	}
	if id := n.Styles[purpose]; id != "" {
		return id
	}
	return n.Styles[purpose+"s"]
}

// Color represents an RGBA color with float values ranging from 0 to 1.
// The R, G, B, and A (alpha/opacity) values must be converted to 0-255 range for standard use.
type Color struct {
	R float64 `json:"r"`
	G float64 `json:"g"`
	B float64 `json:"b"`
	A float64 `json:"a"`
}

// Paint represents a fill or stroke applied to a Figma node.
// The API omits "visible" and "opacity" when they hold their defaults (true and 1).
type Paint struct {
	Type     string   `json:"type"`
	Visible  *bool    `json:"visible,omitempty"`
	Opacity  *float64 `json:"opacity,omitempty"`
	Color    *Color   `json:"color,omitempty"`
	ImageRef string   `json:"imageRef,omitempty"`
}

// IsVisible reports the effective visibility of the paint.
func (p Paint) IsVisible() bool { return p.Visible == nil || *p.Visible }

// IsSolid reports whether the paint is a visible solid color.
func (p Paint) IsSolid() bool { return p.Type == "SOLID" && p.Color != nil && p.IsVisible() }

// Alpha is the effective alpha: the color's own alpha times the paint opacity.
func (p Paint) Alpha() float64 {
	if p.Color == nil {
		return 1
	}
	a := p.Color.A
	if p.Opacity != nil {
		a *= *p.Opacity
	}
	return a
}

// Effect represents a visual effect applied to a Figma node such as drop shadows, inner shadows, or blur effects.
// It includes positioning (offset), blur radius, spread, color, and blend mode settings.
type Effect struct {
	Type      string  `json:"type"`
	Visible   *bool   `json:"visible,omitempty"`
	Radius    float64 `json:"radius,omitempty"`
	Color     *Color  `json:"color,omitempty"`
	Offset    *Vector `json:"offset,omitempty"`
	Spread    float64 `json:"spread,omitempty"`
	BlendMode string  `json:"blendMode,omitempty"`
}

// IsDropShadow reports whether the effect is a visible DROP_SHADOW.
func (e Effect) IsDropShadow() bool {
	return e.Type == "DROP_SHADOW" && (e.Visible == nil || *e.Visible)
}

// Vector represents a 2D coordinate or offset with X and Y values.
type Vector struct {
	X float64 `json:"x"`
	Y float64 `json:"y"`
}

// TypeStyle represents comprehensive text styling properties from Figma.
// It includes font family, weight, size, line height, letter spacing, and text alignment settings.
type TypeStyle struct {
	FontFamily          string  `json:"fontFamily"`
	FontPostScriptName  string  `json:"fontPostScriptName"`
	FontWeight          float64 `json:"fontWeight"`
	FontSize            float64 `json:"fontSize"`
	LineHeightPx        float64 `json:"lineHeightPx"`
	LineHeightPercent   float64 `json:"lineHeightPercent"`
	LetterSpacing       float64 `json:"letterSpacing"`
	TextAlignHorizontal string  `json:"textAlignHorizontal"`
	TextAlignVertical   string  `json:"textAlignVertical"`
}

// Rectangle represents a bounding box with position (X, Y) and dimensions (Width, Height).
type Rectangle struct {
	X      float64 `json:"x"`
	Y      float64 `json:"y"`
	Width  float64 `json:"width"`
	Height float64 `json:"height"`
}

// LayoutConstraint defines how a node's position and size behave when its parent is resized.
type LayoutConstraint struct {
	Vertical   string `json:"vertical"`
	Horizontal string `json:"horizontal"`
}
