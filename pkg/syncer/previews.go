package syncer

import (
	"context"
	"net/http"

	"github.com/kataras/figma-sync/pkg/components"
	"github.com/kataras/figma-sync/pkg/imager"
)

// PreviewConfig controls component preview rendering.
type PreviewConfig struct {
	Enabled bool
	Format  string  // png, jpg, svg or pdf; png when empty
	Scale   float64 // 1 when zero
	// DownloadDir, when set, receives a local copy of every rendered preview.
	DownloadDir string
	HTTPClient  *http.Client
}

// attachPreviews renders every component and variant of comps and stores the
// returned URLs, and the downloaded paths when DownloadDir is set, in place.
// Batches the API fails to render leave their components without a preview;
// only cancellation is an error.
func (e *Engine) attachPreviews(ctx context.Context, fileID string, comps []components.Component) error {
	format := e.previews.Format
	if format == "" {
		format = "png"
	}
	scale := e.previews.Scale
	if scale <= 0 {
		scale = 1
	}

	seen := make(map[string]struct{})
	var ids []string
	forEachComponent(comps, func(c *components.Component) {
		if _, ok := seen[c.ID]; !ok {
			seen[c.ID] = struct{}{}
			ids = append(ids, c.ID)
		}
	})

	urls, err := e.remote.GetImages(ctx, fileID, ids, format, scale)
	if err != nil {
		return err
	}
	if len(urls) < len(ids) {
		e.logger.Warnf("%d of %d component previews of %s were not rendered", len(ids)-len(urls), len(ids), fileID)
	}

	var paths map[string]string
	if e.previews.DownloadDir != "" {
		items := make([]imager.Item, 0, len(urls))
		queued := make(map[string]struct{}, len(urls))
		forEachComponent(comps, func(c *components.Component) {
			u, ok := urls[c.ID]
			if !ok {
				return
			}
			if _, dup := queued[c.ID]; dup {
				return
			}
			queued[c.ID] = struct{}{}
			items = append(items, imager.Item{NodeID: c.ID, Name: c.Name, URL: u})
		})

		result, err := imager.Download(ctx, items, imager.Config{
			Format:     format,
			Scale:      scale,
			OutputDir:  e.previews.DownloadDir,
			HTTPClient: e.previews.HTTPClient,
		})
		if err != nil {
			return err
		}
		for _, dlErr := range result.Errors {
			e.logger.Warnf("%v", dlErr)
		}
		paths = make(map[string]string, len(result.Assets))
		for _, a := range result.Assets {
			paths[a.NodeID] = a.Path
		}
	}

	forEachComponent(comps, func(c *components.Component) {
		c.PreviewURL = urls[c.ID]
		c.PreviewPath = paths[c.ID]
	})
	return nil
}

func forEachComponent(comps []components.Component, fn func(*components.Component)) {
	for i := range comps {
		fn(&comps[i])
		forEachComponent(comps[i].Variants, fn)
	}
}
