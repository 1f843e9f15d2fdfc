package tokens

import (
	"fmt"
	"math"
	"sort"
	"strconv"
	"time"

	"github.com/kataras/figma-sync/pkg/figma"
	"github.com/kataras/figma-sync/pkg/logger"
	"github.com/kataras/figma-sync/pkg/walker"
)

// Typography defaults applied when the source omits a field.
const (
	DefaultFontFamily = "Inter"
	DefaultFontSize   = 16
	DefaultFontWeight = 400
	DefaultTextAlign  = "LEFT"

	defaultLineHeightRatio = 1.2
)

// ColorTokenID is the id of the token for the fill at index i of a node.
func ColorTokenID(nodeID string, i int) string { return nodeID + "-color-" + strconv.Itoa(i) }

// TypographyTokenID is the id of a TEXT node's typography token.
func TypographyTokenID(nodeID string) string { return nodeID + "-typography" }

// SpacingTokenID is the id of a node's padding token.
func SpacingTokenID(nodeID string) string { return nodeID + "-spacing" }

// RadiusTokenID is the id of a node's corner radius token.
func RadiusTokenID(nodeID string) string { return nodeID + "-radius" }

// ShadowTokenID is the id of the drop shadow at effect index i of a node.
func ShadowTokenID(nodeID string, i int) string { return nodeID + "-shadow-" + strconv.Itoa(i) }

// StyleTokenID is the id of the token backing a named remote style.
func StyleTokenID(styleID string) string { return "style-" + styleID }

// NodeToken is a token a single node defines inline, before it is stamped
// with file and category information.
type NodeToken struct {
	ID    string
	Kind  Kind
	Value Value
}

// NodeTokens returns the inline tokens of n in a fixed order: fills, text
// style, padding, corner radius, drop shadows. Component linking relies on
// the exact same ids.
func NodeTokens(n *figma.Node) []NodeToken {
	var out []NodeToken

	for i, fill := range n.Fills {
		if fill.IsSolid() {
			out = append(out, NodeToken{ID: ColorTokenID(n.ID, i), Kind: KindColor, Value: Value{Color: PaintHex(fill)}})
		}
	}

	if n.Type == figma.NodeTypeText && n.Style != nil {
		out = append(out, NodeToken{ID: TypographyTokenID(n.ID), Kind: KindTypography, Value: Value{Typography: typographyOf(n.Style)}})
	}

	if n.HasPadding() {
		out = append(out, NodeToken{ID: SpacingTokenID(n.ID), Kind: KindSpacing, Value: Value{Spacing: &Spacing{
			Top: n.PaddingTop, Right: n.PaddingRight, Bottom: n.PaddingBottom, Left: n.PaddingLeft,
		}}})
	}

	if n.CornerRadius != 0 {
		r := n.CornerRadius
		out = append(out, NodeToken{ID: RadiusTokenID(n.ID), Kind: KindBorderRadius, Value: Value{Number: &r}})
	}

	for i, effect := range n.Effects {
		if effect.IsDropShadow() {
			out = append(out, NodeToken{ID: ShadowTokenID(n.ID, i), Kind: KindShadow, Value: Value{Text: FormatShadow(effect)}})
		}
	}

	return out
}

// Extractor turns nodes and global styles of one file into tokens.
type Extractor struct {
	FileID string
	Now    func() time.Time
	Logger logger.Logger
}

// NewExtractor returns an extractor stamping tokens with fileID.
func NewExtractor(fileID string) *Extractor {
	return &Extractor{FileID: fileID, Now: utcNow, Logger: logger.Nop}
}

func utcNow() time.Time { return time.Now().UTC() }

func (e *Extractor) now() time.Time {
	if e.Now == nil {
		return utcNow()
	}
	return e.Now()
}

// Extraction accumulates the result of one document walk: the inline tokens
// and the first concrete value seen for every referenced style id.
type Extraction struct {
	Tokens *Set

	styleValues map[string]NodeToken
	stamp       time.Time
	fileID      string
}

// Visitor returns a walker.Visitor that fills a fresh Extraction.
func (e *Extractor) Visitor() (walker.Visitor, *Extraction) {
	x := &Extraction{
		Tokens:      NewSet(),
		styleValues: make(map[string]NodeToken),
		stamp:       e.now(),
		fileID:      e.FileID,
	}
	return walker.VisitorFunc(x.visit), x
}

func (x *Extraction) visit(n *figma.Node, _ walker.Context) {
	category := Categorize(n.Name)
	for _, nt := range NodeTokens(n) {
		x.Tokens.Put(DesignToken{
			ID:           nt.ID,
			Name:         n.Name,
			Kind:         nt.Kind,
			Value:        nt.Value,
			Category:     category,
			FileID:       x.fileID,
			NodeID:       n.ID,
			LastModified: x.stamp,
		})
	}

	x.recordStyleUsage(n)
}

// recordStyleUsage keeps the first concrete value a node gives to each style it references.
func (x *Extraction) recordStyleUsage(n *figma.Node) {
	record := func(styleID string, nt NodeToken, ok bool) {
		if styleID == "" || !ok {
			return
		}
		if _, seen := x.styleValues[styleID]; !seen {
			x.styleValues[styleID] = nt
		}
	}

	fill, ok := firstSolid(n.Fills)
	record(n.StyleRef("fill"), fill, ok)
	stroke, ok := firstSolid(n.Strokes)
	record(n.StyleRef("stroke"), stroke, ok)
	if n.Style != nil {
		record(n.StyleRef("text"), NodeToken{Kind: KindTypography, Value: Value{Typography: typographyOf(n.Style)}}, true)
	}
	effect, ok := firstEffect(n.Effects)
	record(n.StyleRef("effect"), effect, ok)
}

// ExtractFromDocument walks root and returns its inline tokens plus the
// style usages needed to resolve global styles.
func (e *Extractor) ExtractFromDocument(root *figma.Node) *Extraction {
	v, x := e.Visitor()
	w := walker.Walker{Logger: e.Logger}
	w.Walk(root, v)
	return x
}

// ExtractFromGlobalStyles turns the file's named styles into tokens keyed
// style-{id}. A style whose value no node in usage revealed stays flagged
// Unresolved with an empty value. GRID styles carry no token.
func (e *Extractor) ExtractFromGlobalStyles(styles map[string]figma.Style, usage *Extraction) []DesignToken {
	ids := make([]string, 0, len(styles))
	for id := range styles {
		ids = append(ids, id)
	}
	sort.Strings(ids)

	stamp := e.now()
	if usage != nil {
		stamp = usage.stamp
	}

	out := make([]DesignToken, 0, len(ids))
	for _, id := range ids {
		style := styles[id]

		kind, ok := styleKind(style.StyleType)
		if !ok {
			continue
		}

		tok := DesignToken{
			ID:           StyleTokenID(id),
			Name:         style.Name,
			Kind:         kind,
			Category:     Categorize(style.Name),
			FileID:       e.FileID,
			StyleID:      id,
			Description:  style.Description,
			LastModified: stamp,
		}

		if usage != nil {
			if nt, ok := usage.styleValues[id]; ok {
				tok.Kind = nt.Kind
				tok.Value = nt.Value
			}
		}
		if tok.Value.IsZero() {
			tok.Unresolved = true
			logger.OrNop(e.Logger).Warnf("Style %q (%s) of file %s is not used by any node; leaving it unresolved", style.Name, id, e.FileID)
		}

		out = append(out, tok)
	}

	return out
}

// Extract runs both passes over a file and returns the deduplicated set.
func (e *Extractor) Extract(file *figma.FileResponse) *Set {
	x := e.ExtractFromDocument(&file.Document)
	return x.WithStyles(e.ExtractFromGlobalStyles(file.Styles, x))
}

// WithStyles puts style tokens into the extraction's set and returns it.
func (x *Extraction) WithStyles(styleTokens []DesignToken) *Set {
	for _, t := range styleTokens {
		x.Tokens.Put(t)
	}
	return x.Tokens
}

func styleKind(styleType string) (Kind, bool) {
	switch styleType {
	case figma.StyleTypeFill:
		return KindColor, true
	case figma.StyleTypeText:
		return KindTypography, true
	case figma.StyleTypeEffect:
		return KindEffect, true
	}
	return "", false
}

func firstSolid(paints []figma.Paint) (NodeToken, bool) {
	for _, p := range paints {
		if p.IsSolid() {
			return NodeToken{Kind: KindColor, Value: Value{Color: PaintHex(p)}}, true
		}
	}
	return NodeToken{}, false
}

func firstEffect(effects []figma.Effect) (NodeToken, bool) {
	for _, e := range effects {
		if e.IsDropShadow() {
			return NodeToken{Kind: KindShadow, Value: Value{Text: FormatShadow(e)}}, true
		}
	}
	for _, e := range effects {
		if e.Visible == nil || *e.Visible {
			return NodeToken{Kind: KindEffect, Value: Value{Text: fmt.Sprintf("%s %s", e.Type, px(e.Radius))}}, true
		}
	}
	return NodeToken{}, false
}

func typographyOf(s *figma.TypeStyle) *Typography {
	t := &Typography{
		FontFamily: s.FontFamily,
		FontSize:   s.FontSize,
		FontWeight: s.FontWeight,
		LineHeight: s.LineHeightPx,
		Align:      s.TextAlignHorizontal,
	}
	if t.FontFamily == "" {
		t.FontFamily = DefaultFontFamily
	}
	if t.FontSize <= 0 {
		t.FontSize = DefaultFontSize
	}
	if t.FontWeight <= 0 {
		t.FontWeight = DefaultFontWeight
	}
	if t.LineHeight <= 0 {
		t.LineHeight = math.Round(t.FontSize*defaultLineHeightRatio*100) / 100
	}
	if t.Align == "" {
		t.Align = DefaultTextAlign
	}
	return t
}

// ColorToHex converts a Figma RGBA color (with 0-1 float values) to #RRGGBB,
// appending a two-digit alpha when alpha < 1. Returns "#000000" if the color is nil.
func ColorToHex(c *figma.Color, alpha float64) string {
	if c == nil {
		return "#000000"
	}

	hex := fmt.Sprintf("#%02X%02X%02X", channel(c.R), channel(c.G), channel(c.B))
	if alpha < 1 {
		hex += fmt.Sprintf("%02X", channel(alpha))
	}
	return hex
}

// PaintHex is ColorToHex with the paint's effective alpha.
func PaintHex(p figma.Paint) string {
	return ColorToHex(p.Color, p.Alpha())
}

// FormatShadow renders "offsetX offsetY blur spread rgba(r, g, b, a)".
func FormatShadow(e figma.Effect) string {
	var x, y float64
	if e.Offset != nil {
		x, y = e.Offset.X, e.Offset.Y
	}

	r, g, b, a := 0, 0, 0, 1.0
	if e.Color != nil {
		r, g, b, a = channel(e.Color.R), channel(e.Color.G), channel(e.Color.B), e.Color.A
	}

	return fmt.Sprintf("%s %s %s %s rgba(%d, %d, %d, %s)",
		px(x), px(y), px(e.Radius), px(e.Spread), r, g, b,
		strconv.FormatFloat(math.Round(a*100)/100, 'f', -1, 64))
}

func channel(v float64) int {
	return int(math.Round(math.Max(0, math.Min(1, v)) * 255))
}
