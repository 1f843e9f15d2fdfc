package cache

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/kataras/figma-sync/pkg/components"
	"github.com/kataras/figma-sync/pkg/figma"
	"github.com/kataras/figma-sync/pkg/tokens"
)

func twoFileSnapshot() *Snapshot {
	used := func(colors ...string) components.UsedTokens {
		return components.UsedTokens{Colors: colors, Typography: []string{}, Spacing: []string{}, Effects: []string{}}
	}
	return &Snapshot{Data: Data{
		Tokens: []tokens.DesignToken{
			{ID: "3:1-color-0", Name: "Plain", Kind: tokens.KindColor, Value: tokens.Value{Color: "#000000"}, FileID: "A"},
			{ID: "3:1-color-0", Name: "Accent", Kind: tokens.KindColor, Value: tokens.Value{Color: "#FF0000"}, FileID: "B"},
			{ID: "5:1-color-0", Name: "Muted", Kind: tokens.KindColor, Value: tokens.Value{Color: "#888888"}, FileID: "B"},
		},
		Components: []components.Component{
			{ID: "3:0", Name: "Badge", Type: figma.NodeTypeComponent, FileID: "A", UsedTokens: used()},
			{ID: "4:0", Name: "Chip", Type: figma.NodeTypeComponent, FileID: "A", UsedTokens: used("3:1-color-0")},
			{ID: "3:0", Name: "Badge", Type: figma.NodeTypeComponent, FileID: "B", UsedTokens: used("3:1-color-0", "5:1-color-0")},
		},
	}}
}

func TestSnapshot_Component_ScopedByFile(t *testing.T) {
	snap := twoFileSnapshot()

	c, ok := snap.Component("3:0", "B")
	require.True(t, ok)
	assert.Equal(t, "B", c.FileID)

	c, ok = snap.Component("3:0", "")
	require.True(t, ok)
	assert.Equal(t, "A", c.FileID)

	_, ok = snap.Component("4:0", "B")
	assert.False(t, ok)
}

func TestSnapshot_TokensUsedBy_SameNodeIDInTwoFiles(t *testing.T) {
	snap := twoFileSnapshot()

	ids, ok := snap.TokensUsedBy("3:0", "A")
	require.True(t, ok)
	assert.Empty(t, ids)

	ids, ok = snap.TokensUsedBy("3:0", "B")
	require.True(t, ok)
	assert.Equal(t, []string{"3:1-color-0", "5:1-color-0"}, ids)

	ids, ok = snap.TokensUsedBy("3:0", "")
	require.True(t, ok)
	assert.Equal(t, []string{"3:1-color-0", "5:1-color-0"}, ids)

	_, ok = snap.TokensUsedBy("3:0", "C")
	assert.False(t, ok)

	ids, ok = snap.TokensUsedBy("4:0", "")
	require.True(t, ok)
	assert.Equal(t, []string{"3:1-color-0"}, ids)
}

func TestSnapshot_ComponentsUsing_ScopedByFile(t *testing.T) {
	snap := twoFileSnapshot()

	names := func(comps []components.Component) []string {
		out := []string{}
		for _, c := range comps {
			out = append(out, c.FileID+"/"+c.ID)
		}
		return out
	}

	assert.Equal(t, []string{"A/4:0"}, names(snap.ComponentsUsing("3:1-color-0", "A")))
	assert.Equal(t, []string{"B/3:0"}, names(snap.ComponentsUsing("3:1-color-0", "B")))
	assert.Equal(t, []string{"A/4:0", "B/3:0"}, names(snap.ComponentsUsing("3:1-color-0", "")))
	assert.Empty(t, snap.ComponentsUsing("5:1-color-0", "A"))
}
