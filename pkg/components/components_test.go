package components

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/kataras/figma-sync/pkg/figma"
	"github.com/kataras/figma-sync/pkg/tokens"
)

var fixedTime = time.Date(2026, 3, 1, 10, 0, 0, 0, time.UTC)

func testExtractor(meta map[string]figma.Component) *Extractor {
	e := NewExtractor("FILE1", meta)
	e.Now = func() time.Time { return fixedTime }
	return e
}

func buttonDocument() *figma.Node {
	hidden := false
	return &figma.Node{
		ID: "0:0", Name: "Document", Type: figma.NodeTypeDocument,
		Children: []figma.Node{{
			ID: "1:0", Name: "Components", Type: figma.NodeTypeCanvas,
			Children: []figma.Node{{
				ID: "2:0", Name: "Buttons", Type: figma.NodeTypeFrame,
				Children: []figma.Node{
					{
						ID: "3:0", Name: "Button", Type: figma.NodeTypeComponentSet,
						ComponentPropertyDefinitions: map[string]any{
							"Size":     map[string]any{"type": "VARIANT", "defaultValue": "md"},
							"Disabled": map[string]any{"type": "BOOLEAN", "defaultValue": false},
						},
						Children: []figma.Node{
							{
								ID: "3:1", Name: "Size=md", Type: figma.NodeTypeComponent,
								PaddingTop: 8, PaddingRight: 16, PaddingBottom: 8, PaddingLeft: 16,
								CornerRadius: 4,
								Children: []figma.Node{
									{
										ID: "3:2", Name: "Label", Type: figma.NodeTypeText,
										Characters: "Click",
										Style:      &figma.TypeStyle{FontFamily: "Inter", FontSize: 14, FontWeight: 500},
										Styles:     map[string]string{"text": "S:body"},
									},
									{
										ID: "3:3", Name: "Background", Type: figma.NodeTypeRectangle,
										Fills:  []figma.Paint{{Type: "SOLID", Color: &figma.Color{R: 1, A: 1}}},
										Styles: map[string]string{"fills": "S:brand"},
									},
									{ID: "3:4", Name: "Hidden", Type: figma.NodeTypeRectangle, Visible: &hidden},
								},
							},
							{
								ID: "3:5", Name: "Size=lg", Type: figma.NodeTypeComponent,
								ComponentPropertyReferences: map[string]any{"visible": "Disabled#1:0"},
							},
							{ID: "3:6", Name: "Notes", Type: figma.NodeTypeText},
						},
					},
				},
			}},
		}},
	}
}

func TestExtractFromDocument(t *testing.T) {
	meta := map[string]figma.Component{
		"3:1": {Name: "Size=md", Description: "Medium button", ComponentSetID: "3:0"},
	}
	comps := testExtractor(meta).ExtractFromDocument(buttonDocument())
	require.Len(t, comps, 3)

	set := comps[0]
	assert.Equal(t, "3:0", set.ID)
	assert.True(t, set.IsSet())
	assert.Equal(t, "1:0", set.PageID)
	assert.Equal(t, "2:0", set.FrameID)
	assert.Equal(t, "FILE1", set.FileID)
	assert.Equal(t, fixedTime, set.LastModified)
	assert.Equal(t, map[string]Property{
		"Size":     {Type: PropertyVariant, Value: "md"},
		"Disabled": {Type: PropertyBoolean, Value: false},
	}, set.Properties)

	require.Len(t, set.Variants, 2, "only COMPONENT children become variants")
	assert.Equal(t, "3:1", set.Variants[0].ID)
	assert.Equal(t, "3:0", set.Variants[0].SetID)
	assert.Equal(t, "Medium button", set.Variants[0].Description)

	md := comps[1]
	assert.Equal(t, "3:1", md.ID)
	assert.Equal(t, "3:0", md.SetID)
	require.Len(t, md.Children, 2, "invisible children are not projected")
	assert.Equal(t, "Click", md.Children[0].Text)
	assert.Equal(t, []string{"#FF0000"}, md.Children[1].Fills)

	lg := comps[2]
	assert.Equal(t, "3:0", lg.SetID, "set membership falls back to the parent set")
	assert.Equal(t, map[string]Property{"visible": {Type: PropertyText, Value: "Disabled#1:0"}}, lg.Properties)
}

func TestProperties_ReferencesWin(t *testing.T) {
	n := &figma.Node{
		ComponentPropertyReferences: map[string]any{"label": "Label#2:0"},
		ComponentProperties: map[string]any{
			"label":  map[string]any{"type": "TEXT", "value": "ignored"},
			"active": true,
			"count":  3.0,
		},
		ComponentPropertyDefinitions: map[string]any{
			"active": map[string]any{"type": "VARIANT"},
			"raw":    map[string]any{"other": 1.0},
		},
	}

	assert.Equal(t, map[string]Property{
		"label":  {Type: PropertyText, Value: "Label#2:0"},
		"active": {Type: PropertyBoolean, Value: true},
		"count":  {Type: PropertyText, Value: 3.0},
		"raw":    {Type: PropertyText},
	}, Properties(n))
}

func TestLink(t *testing.T) {
	doc := buttonDocument()
	comps := testExtractor(nil).ExtractFromDocument(doc)
	set := tokens.NewSet(tokens.DesignToken{ID: "style-S:brand", Kind: tokens.KindColor})

	linked := Link(comps, set)
	require.Len(t, linked, 3)

	md := linked[1]
	assert.Equal(t, []string{"3:3-color-0", "style-S:brand"}, sortedCopy(md.UsedTokens.Colors))
	assert.Equal(t, []string{"3:2-typography"}, md.UsedTokens.Typography, "S:body is not a known token")
	assert.Equal(t, []string{"3:1-spacing", "3:1-radius"}, md.UsedTokens.Spacing)
	assert.Empty(t, md.UsedTokens.Effects)

	// The set sees the whole subtree of its variants.
	assert.ElementsMatch(t, md.UsedTokens.All(), linked[0].UsedTokens.All())
	assert.Equal(t, md.UsedTokens, linked[0].Variants[0].UsedTokens)

	assert.Empty(t, comps[1].UsedTokens.Colors, "the input is not modified")

	again := Link(linked, set)
	assert.Equal(t, linked, again)
}

func TestLink_TextAndRectangle(t *testing.T) {
	root := &figma.Node{
		ID: "0:0", Name: "Page", Type: figma.NodeTypeCanvas,
		Children: []figma.Node{{
			ID: "5:0", Name: "Card", Type: figma.NodeTypeComponent,
			Children: []figma.Node{
				{ID: "5:1", Name: "Title", Type: figma.NodeTypeText, Style: &figma.TypeStyle{FontFamily: "Inter", FontSize: 18}},
				{ID: "5:2", Name: "Box", Type: figma.NodeTypeRectangle, Fills: []figma.Paint{{Type: "SOLID", Color: &figma.Color{B: 1, A: 1}}}},
			},
		}},
	}

	comps := testExtractor(nil).ExtractFromDocument(root)
	require.Len(t, comps, 1)

	for range 2 {
		comps = Link(comps, tokens.NewSet())
		used := comps[0].UsedTokens
		assert.Equal(t, []string{"5:2-color-0"}, used.Colors)
		assert.Equal(t, []string{"5:1-typography"}, used.Typography)
		assert.Empty(t, used.Spacing)
		assert.Empty(t, used.Effects)
	}
}

func TestLink_KeepsPersistedUsage(t *testing.T) {
	loaded := []Component{{ID: "1:1", UsedTokens: UsedTokens{Colors: []string{"x-color-0"}}}}
	assert.Equal(t, loaded, Link(loaded, nil))
}

func TestUsedTokens_Uses(t *testing.T) {
	u := UsedTokens{Colors: []string{"a"}, Effects: []string{"b"}}
	assert.True(t, u.Uses("a"))
	assert.True(t, u.Uses("b"))
	assert.False(t, u.Uses("c"))
}

func sortedCopy(ids []string) []string {
	out := append([]string(nil), ids...)
	for i := 1; i < len(out); i++ {
		for j := i; j > 0 && out[j] < out[j-1]; j-- {
			out[j], out[j-1] = out[j-1], out[j]
		}
	}
	return out
}
