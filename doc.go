// Package figmasync keeps a local, queryable mirror of Figma design files:
// design tokens (colors, typography, spacing, radii, shadows and named
// styles), components with their variants and properties, and the tokens
// every component uses.
//
// The CLI lives in cmd/figma-sync; this root package exposes the same
// service as a Go API so that callers can embed syncing in their own tools
// without shelling out.
//
// # Import
//
// The module path contains a hyphen but Go package names cannot, so the
// package is named figmasync:
//
//	import "github.com/kataras/figma-sync" // package figmasync
//
// # Quick start
//
//	svc, err := figmasync.New(figmasync.Options{
//	    AccessToken: os.Getenv("FIGMA_TOKEN"),
//	    Files:       []syncer.File{{ID: "ABC123"}},
//	    CacheDir:    ".figma-sync",
//	})
//	if err != nil {
//	    log.Fatal(err)
//	}
//	defer svc.Close()
//
//	if _, err := svc.Sync(ctx, syncer.Full); err != nil {
//	    log.Fatal(err)
//	}
//	colors, _ := svc.Tokens(cache.TokenFilter{Category: "colors/*"})
//
// # Sync kinds
//
// A [syncer.Full] sync re-extracts every file. A [syncer.Delta] sync first
// asks the API for each file's version and skips files that did not change.
// Only one sync runs at a time: [Service.StartSync] reports false instead of
// queuing a second one. A file that fails keeps its previously cached data;
// only a run in which every file failed returns an error.
//
// # Rate budget
//
// Every API call is counted against an hourly budget persisted next to the
// cache, so restarts do not reset it. Once the budget is spent calls fail
// with [figma.ErrRateLimitExceeded] until the window rolls over.
//
// # Logging
//
// Pass a [Logger] implementation in [Options.Logger] to receive progress
// messages. A nil Logger silences all output. A *zap.SugaredLogger can be
// passed as is.
package figmasync
