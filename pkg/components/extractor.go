package components

import (
	"sort"
	"time"

	"github.com/kataras/figma-sync/pkg/figma"
	"github.com/kataras/figma-sync/pkg/logger"
	"github.com/kataras/figma-sync/pkg/walker"
)

// Extractor turns COMPONENT and COMPONENT_SET nodes of one file into Components.
type Extractor struct {
	FileID string
	// Meta is the file's published component metadata, keyed by node id.
	// It supplies descriptions and set membership.
	Meta   map[string]figma.Component
	Now    func() time.Time
	Logger logger.Logger
}

// NewExtractor returns an extractor stamping components with fileID.
func NewExtractor(fileID string, meta map[string]figma.Component) *Extractor {
	return &Extractor{
		FileID: fileID,
		Meta:   meta,
		Now:    func() time.Time { return time.Now().UTC() },
		Logger: logger.Nop,
	}
}

// Extraction collects the components of one walk in pre-order.
type Extraction struct {
	Components []Component

	e     *Extractor
	stamp time.Time
	sets  map[string]struct{}
}

// Visitor returns a walker.Visitor that fills a fresh Extraction.
func (e *Extractor) Visitor() (walker.Visitor, *Extraction) {
	stamp := time.Now().UTC()
	if e.Now != nil {
		stamp = e.Now()
	}
	x := &Extraction{e: e, stamp: stamp, sets: make(map[string]struct{})}
	return walker.VisitorFunc(x.visit), x
}

// ExtractFromDocument walks root and returns its components.
func (e *Extractor) ExtractFromDocument(root *figma.Node) []Component {
	v, x := e.Visitor()
	w := walker.Walker{Logger: e.Logger}
	w.Walk(root, v)
	return x.Components
}

func (x *Extraction) visit(n *figma.Node, ctx walker.Context) {
	if !n.Type.IsComponent() {
		return
	}

	c := x.build(n, ctx)
	if _, ok := x.sets[ctx.ParentID]; ok && c.SetID == "" {
		c.SetID = ctx.ParentID
	}

	if n.Type == figma.NodeTypeComponentSet {
		x.sets[n.ID] = struct{}{}
		for i := range n.Children {
			child := &n.Children[i]
			if child.Type != figma.NodeTypeComponent || child.Validate() != nil {
				continue
			}
			v := x.build(child, ctx)
			v.SetID = n.ID
			c.Variants = append(c.Variants, v)
		}
	}

	x.Components = append(x.Components, c)
}

func (x *Extraction) build(n *figma.Node, ctx walker.Context) Component {
	c := Component{
		ID:           n.ID,
		Name:         n.Name,
		Type:         n.Type,
		FileID:       x.e.FileID,
		PageID:       ctx.PageID,
		FrameID:      ctx.FrameID,
		Properties:   Properties(n),
		UsedTokens:   UsedTokens{Colors: []string{}, Typography: []string{}, Spacing: []string{}, Effects: []string{}},
		LastModified: x.stamp,
		node:         n,
	}

	if meta, ok := x.e.Meta[n.ID]; ok {
		c.Description = meta.Description
		c.SetID = meta.ComponentSetID
	}

	for i := range n.Children {
		child := &n.Children[i]
		if child.Visible != nil && !*child.Visible {
			continue
		}
		c.Children = append(c.Children, Snapshot(child))
	}

	return c
}

// Properties builds the property map of a component node. Property
// references are read first; raw properties and definitions only fill keys
// that are not set yet.
func Properties(n *figma.Node) map[string]Property {
	props := make(map[string]Property)
	for _, src := range []map[string]any{n.ComponentPropertyReferences, n.ComponentProperties, n.ComponentPropertyDefinitions} {
		for _, key := range sortedKeys(src) {
			if _, exists := props[key]; exists {
				continue
			}
			props[key] = inferProperty(src[key])
		}
	}
	return props
}

func inferProperty(v any) Property {
	switch val := v.(type) {
	case bool:
		return Property{Type: PropertyBoolean, Value: val}
	case string:
		return Property{Type: PropertyText, Value: val}
	case map[string]any:
		typ, _ := val["type"].(string)
		if typ == "" {
			return Property{Type: PropertyText}
		}
		p := Property{Type: typ}
		if value, ok := val["value"]; ok {
			p.Value = value
		} else if def, ok := val["defaultValue"]; ok {
			p.Value = def
		}
		return p
	default:
		return Property{Type: PropertyText, Value: val}
	}
}

func sortedKeys(m map[string]any) []string {
	keys := make([]string, 0, len(m))
	for k := range m {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	return keys
}
