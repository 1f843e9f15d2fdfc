package cache

import (
	"os"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/kataras/figma-sync/pkg/components"
	"github.com/kataras/figma-sync/pkg/figma"
	"github.com/kataras/figma-sync/pkg/tokens"
)

var fixedTime = time.Date(2026, 3, 1, 10, 0, 0, 0, time.UTC)

func radius(v float64) *float64 { return &v }

func sampleData() Data {
	return Data{
		Tokens: []tokens.DesignToken{
			{ID: "1:1-color-0", Name: "Primary", Kind: tokens.KindColor, Value: tokens.Value{Color: "#3366FF"}, Category: "colors/primary", FileID: "A", NodeID: "1:1", LastModified: fixedTime},
			{ID: "1:2-typography", Name: "Heading", Kind: tokens.KindTypography, Value: tokens.Value{Typography: &tokens.Typography{FontFamily: "Inter", FontSize: 32, FontWeight: 700, LineHeight: 38.4, Align: "LEFT"}}, Category: "typography/headings", FileID: "A", NodeID: "1:2", LastModified: fixedTime},
			{ID: "1:3-spacing", Name: "Card", Kind: tokens.KindSpacing, Value: tokens.Value{Spacing: &tokens.Spacing{Top: 8, Right: 16, Bottom: 8, Left: 16}}, Category: tokens.Uncategorized, FileID: "A", NodeID: "1:3", LastModified: fixedTime},
			{ID: "1:3-radius", Name: "Card", Kind: tokens.KindBorderRadius, Value: tokens.Value{Number: radius(4)}, Category: tokens.Uncategorized, FileID: "A", NodeID: "1:3", LastModified: fixedTime},
			{ID: "1:3-shadow-0", Name: "Card", Kind: tokens.KindShadow, Value: tokens.Value{Text: "0px 4px 8px 0px rgba(0, 0, 0, 0.25)"}, Category: "effects/shadows", FileID: "B", NodeID: "1:3", LastModified: fixedTime},
		},
		Components: []components.Component{
			{
				ID: "2:0", Name: "Button", Type: figma.NodeTypeComponentSet, FileID: "A", PageID: "0:1",
				Properties: map[string]components.Property{"Size": {Type: components.PropertyVariant, Value: "md"}},
				UsedTokens: components.UsedTokens{Colors: []string{"1:1-color-0"}, Typography: []string{"1:2-typography"}, Spacing: []string{}, Effects: []string{}},
				Variants: []components.Component{{
					ID: "2:1", Name: "Size=md", Type: figma.NodeTypeComponent, FileID: "A", PageID: "0:1", SetID: "2:0",
					Properties: map[string]components.Property{},
					UsedTokens: components.UsedTokens{Colors: []string{"1:1-color-0"}, Typography: []string{}, Spacing: []string{}, Effects: []string{}},
					LastModified: fixedTime,
				}},
				Children: []components.NodeSnapshot{{ID: "2:1", Name: "Size=md", Type: figma.NodeTypeComponent}},
				LastModified: fixedTime,
			},
			{
				ID: "3:0", Name: "Card", Type: figma.NodeTypeComponent, FileID: "B", PageID: "0:2",
				Properties: map[string]components.Property{},
				UsedTokens: components.UsedTokens{Colors: []string{}, Typography: []string{}, Spacing: []string{}, Effects: []string{"1:3-shadow-0"}},
				LastModified: fixedTime,
			},
		},
		Pages: []Page{
			{ID: "0:1", Name: "Components", FileID: "A", FrameCount: 2, ComponentCount: 1},
			{ID: "0:2", Name: "Cards", FileID: "B", FrameCount: 0, ComponentCount: 1},
		},
	}
}

func TestStore_ColdStart(t *testing.T) {
	s, err := Open(t.TempDir())
	require.NoError(t, err)

	snap, err := s.Load()
	require.NoError(t, err)
	assert.Empty(t, snap.Data.Tokens)
	assert.NotNil(t, snap.Data.Tokens)
	assert.NotNil(t, snap.Data.Components)
	assert.NotNil(t, snap.Data.Pages)
	assert.True(t, snap.Metadata.LastSync.IsZero())
	assert.Empty(t, snap.Metadata.FileVersion)

	stale, err := s.IsStale(time.Hour)
	require.NoError(t, err)
	assert.True(t, stale, "a cache that was never synced is stale")
}

func TestStore_RoundTrip(t *testing.T) {
	dir := t.TempDir()
	s, err := Open(dir)
	require.NoError(t, err)

	data := sampleData()
	meta := Metadata{
		LastSync:    fixedTime,
		FileVersion: map[string]string{"A": "10", "B": "20"},
		Files: map[string]FileMeta{
			"A": {Name: "Design System", Version: "10", SyncedAt: fixedTime, Tokens: 4, Components: 1, Pages: 1},
			"B": {Name: "Cards", Version: "20", SyncedAt: fixedTime, Tokens: 1, Components: 1, Pages: 1},
		},
	}

	saved, err := s.Save(data, meta)
	require.NoError(t, err)
	assert.Equal(t, 5, saved.Metadata.TokenCount)
	assert.Equal(t, 2, saved.Metadata.ComponentCount)
	assert.Equal(t, 2, saved.Metadata.PageCount)

	reopened, err := Open(dir)
	require.NoError(t, err)
	loaded, err := reopened.Load()
	require.NoError(t, err)

	assert.Equal(t, data, loaded.Data)
	assert.Equal(t, saved.Metadata, loaded.Metadata)

	_, err = os.Stat(reopened.Path(DataFile + ".tmp"))
	assert.True(t, os.IsNotExist(err), "temp files are renamed away")
}

func TestStore_CorruptMetadataIsColdMetadata(t *testing.T) {
	s, err := Open(t.TempDir())
	require.NoError(t, err)
	require.NoError(t, os.WriteFile(s.Path(MetadataFile), []byte("{not json"), 0o644))

	meta, err := s.LoadMetadata()
	require.NoError(t, err)
	assert.True(t, meta.LastSync.IsZero())
}

func TestStore_CorruptDataFails(t *testing.T) {
	s, err := Open(t.TempDir())
	require.NoError(t, err)
	require.NoError(t, os.WriteFile(s.Path(DataFile), []byte("[]]"), 0o644))

	_, err = s.Load()
	assert.Error(t, err)
}

func TestStore_IsStale(t *testing.T) {
	now := fixedTime
	s, err := Open(t.TempDir(), WithClock(func() time.Time { return now }))
	require.NoError(t, err)

	_, err = s.Save(Data{}, Metadata{LastSync: fixedTime})
	require.NoError(t, err)

	tests := []struct {
		name  string
		at    time.Time
		stale bool
	}{
		{"just synced", fixedTime, false},
		{"exactly ttl", fixedTime.Add(time.Hour), false},
		{"past ttl", fixedTime.Add(time.Hour + time.Second), true},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			now = tt.at
			stale, err := s.IsStale(time.Hour)
			require.NoError(t, err)
			assert.Equal(t, tt.stale, stale)
		})
	}
}

func TestData_Replace(t *testing.T) {
	data := sampleData()
	fresh := []tokens.DesignToken{{ID: "9:9-color-0", Kind: tokens.KindColor, FileID: "A"}}

	out := data.Replace("A", fresh, nil, []Page{{ID: "0:9", FileID: "A"}})

	ids := make([]string, 0, len(out.Tokens))
	for _, tok := range out.Tokens {
		ids = append(ids, tok.ID)
	}
	assert.Equal(t, []string{"1:3-shadow-0", "9:9-color-0"}, ids)
	require.Len(t, out.Components, 1)
	assert.Equal(t, "3:0", out.Components[0].ID)
	assert.Equal(t, []Page{{ID: "0:2", Name: "Cards", FileID: "B", ComponentCount: 1}, {ID: "0:9", FileID: "A"}}, out.Pages)

	assert.Len(t, data.Tokens, 5, "the receiver is not modified")
}

func TestStore_Watch(t *testing.T) {
	dir := t.TempDir()
	reader, err := Open(dir)
	require.NoError(t, err)

	var reloads atomic.Int32
	var lastCount atomic.Int32
	w, err := reader.Watch(func(snap *Snapshot) {
		lastCount.Store(int32(len(snap.Data.Tokens)))
		reloads.Add(1)
	})
	require.NoError(t, err)
	defer w.Close()

	writer, err := Open(dir)
	require.NoError(t, err)
	_, err = writer.Save(sampleData(), Metadata{LastSync: fixedTime})
	require.NoError(t, err)

	require.Eventually(t, func() bool { return reloads.Load() > 0 }, 5*time.Second, 20*time.Millisecond)
	assert.Equal(t, int32(5), lastCount.Load())

	require.NoError(t, w.Close())
	require.NoError(t, w.Close())
}
