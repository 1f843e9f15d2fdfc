package figmasync

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"sync/atomic"
	"time"

	"github.com/kataras/figma-sync/pkg/cache"
	"github.com/kataras/figma-sync/pkg/components"
	"github.com/kataras/figma-sync/pkg/figma"
	"github.com/kataras/figma-sync/pkg/formatter"
	"github.com/kataras/figma-sync/pkg/logger"
	"github.com/kataras/figma-sync/pkg/syncer"
	"github.com/kataras/figma-sync/pkg/tokens"
)

// Version is the current figma-sync version.
const Version = "0.3.0"

// Logger receives progress messages. A nil Logger means silent operation.
type Logger = logger.Logger

// ErrAutoSyncDisabled is returned by AutoSync when no interval is configured.
var ErrAutoSyncDisabled = errors.New("auto sync is disabled")

// Options configures a Service.
type Options struct {
	AccessToken     string
	BaseURL         string        // empty = public Figma API
	Files           []syncer.File // synced when StartSync gets no file ids
	MaxCallsPerHour int           // 0 = figma.DefaultMaxCallsPerHour

	CacheDir string
	CacheTTL time.Duration // auto sync skips ticks while the cache is younger

	AutoSyncInterval time.Duration // 0 = no auto sync
	Previews         syncer.PreviewConfig

	// Watch reloads the served snapshot when another process commits to
	// the same cache directory.
	Watch bool

	HTTPClient *http.Client
	// Remote replaces the Figma client, mostly for tests.
	Remote syncer.Remote
	Logger Logger // nil = no logging
}

// Service keeps a local cache of one or more Figma files in sync and answers
// queries from the last committed snapshot.
type Service struct {
	opts      Options
	store     *cache.Store
	limiter   *figma.RateLimiter
	engine    *syncer.Engine
	scheduler *syncer.Scheduler
	watcher   *cache.Watcher
	logger    Logger

	snapshot atomic.Pointer[cache.Snapshot]
}

// New opens the cache at opts.CacheDir and prepares the sync engine. It
// does not contact the remote API.
func New(opts Options) (*Service, error) {
	if opts.CacheDir == "" {
		return nil, errors.New("cache directory is required")
	}
	if opts.Remote == nil && opts.AccessToken == "" {
		return nil, errors.New("access token is required")
	}

	s := &Service{opts: opts, logger: logger.OrNop(opts.Logger)}

	store, err := cache.Open(opts.CacheDir, cache.WithLogger(s.logger))
	if err != nil {
		return nil, err
	}
	s.store = store

	limiter, err := figma.NewRateLimiter(store.Path(cache.RateLimitFile), opts.MaxCallsPerHour,
		figma.WithRateLimiterLogger(s.logger))
	if err != nil {
		return nil, err
	}
	s.limiter = limiter

	remote := opts.Remote
	if remote == nil {
		clientOpts := []figma.ClientOption{
			figma.WithRateLimiter(limiter),
			figma.WithLogger(s.logger),
		}
		if opts.BaseURL != "" {
			clientOpts = append(clientOpts, figma.WithBaseURL(opts.BaseURL))
		}
		if opts.HTTPClient != nil {
			clientOpts = append(clientOpts, figma.WithHTTPClient(opts.HTTPClient))
		}
		remote = figma.NewClient(opts.AccessToken, clientOpts...)
	}

	previews := opts.Previews
	if previews.HTTPClient == nil {
		previews.HTTPClient = opts.HTTPClient
	}

	s.engine, err = syncer.NewEngine(remote, store,
		syncer.WithBudget(limiter),
		syncer.WithLogger(s.logger),
		syncer.WithPreviews(previews),
		syncer.OnCommit(s.snapshot.Store),
	)
	if err != nil {
		return nil, err
	}

	if opts.AutoSyncInterval > 0 {
		if len(opts.Files) == 0 {
			return nil, errors.New("auto sync needs at least one configured file")
		}
		s.scheduler, err = syncer.NewScheduler(s.engine, opts.Files, opts.AutoSyncInterval,
			syncer.WithTTL(opts.CacheTTL))
		if err != nil {
			return nil, err
		}
	}

	snap, err := store.Load()
	if err != nil {
		return nil, fmt.Errorf("load cache: %w", err)
	}
	s.snapshot.Store(snap)

	if opts.Watch {
		if s.watcher, err = store.Watch(s.snapshot.Store); err != nil {
			return nil, err
		}
	}

	return s, nil
}

// Close stops watching the cache directory. A running sync is not stopped.
func (s *Service) Close() error {
	if s.watcher != nil {
		return s.watcher.Close()
	}
	return nil
}

// StartSync starts a sync in the background and reports whether it was
// accepted; it is not when another sync is running. With no file ids every
// configured file is synced.
func (s *Service) StartSync(kind syncer.Kind, fileIDs ...string) (bool, error) {
	files, err := s.files(kind, fileIDs)
	if err != nil {
		return false, err
	}
	return s.engine.Start(kind, files), nil
}

// Sync runs a sync and waits for it.
func (s *Service) Sync(ctx context.Context, kind syncer.Kind, fileIDs ...string) (*syncer.Result, error) {
	files, err := s.files(kind, fileIDs)
	if err != nil {
		return nil, err
	}
	return s.engine.Run(ctx, kind, files)
}

// files resolves ids against the configured files, so an explicitly
// requested file keeps its priority and node scope.
func (s *Service) files(kind syncer.Kind, ids []string) ([]syncer.File, error) {
	if _, err := syncer.ParseKind(string(kind)); err != nil {
		return nil, err
	}
	if len(ids) == 0 {
		if len(s.opts.Files) == 0 {
			return nil, errors.New("no files configured")
		}
		return s.opts.Files, nil
	}

	configured := make(map[string]syncer.File, len(s.opts.Files))
	for _, f := range s.opts.Files {
		configured[f.ID] = f
	}

	files := make([]syncer.File, 0, len(ids))
	for _, id := range ids {
		key, err := figma.ResolveFileKey(id)
		if err != nil {
			return nil, err
		}
		if f, ok := configured[key]; ok {
			files = append(files, f)
			continue
		}
		files = append(files, syncer.File{ID: key})
	}
	return files, nil
}

// AutoSync starts delta syncs every AutoSyncInterval until ctx is done.
func (s *Service) AutoSync(ctx context.Context) error {
	if s.scheduler == nil {
		return ErrAutoSyncDisabled
	}
	return s.scheduler.Run(ctx)
}

// SyncStatus returns the sync state and the remaining rate budget.
func (s *Service) SyncStatus() syncer.Status {
	return s.engine.Status()
}

// Snapshot returns the last committed cache state.
func (s *Service) Snapshot() *cache.Snapshot {
	return s.snapshot.Load()
}

// Tokens returns the cached tokens matching f.
func (s *Service) Tokens(f cache.TokenFilter) ([]tokens.DesignToken, error) {
	return s.Snapshot().Tokens(f)
}

// Components returns the cached components matching f.
func (s *Service) Components(f cache.ComponentFilter) []components.Component {
	return s.Snapshot().Components(f)
}

// TokensUsedBy returns the ids of the tokens the component uses. It reports
// false when the component is unknown. An empty fileID searches every file.
func (s *Service) TokensUsedBy(componentID, fileID string) ([]string, bool) {
	return s.Snapshot().TokensUsedBy(componentID, fileID)
}

// ComponentsUsing returns the components using tokenID, limited to fileID
// when it is not empty.
func (s *Service) ComponentsUsing(tokenID, fileID string) []components.Component {
	return s.Snapshot().ComponentsUsing(tokenID, fileID)
}

// Markdown renders the cached tokens and components of fileID, or of every
// file when fileID is empty, as a markdown report.
func (s *Service) Markdown(fileID string) (string, error) {
	snap := s.Snapshot()

	toks, err := snap.Tokens(cache.TokenFilter{FileID: fileID})
	if err != nil {
		return "", err
	}
	comps := snap.Components(cache.ComponentFilter{FileID: fileID})

	title := "All files"
	if fileID != "" {
		title = fileID
		if fm, ok := snap.Metadata.Files[fileID]; ok && fm.Name != "" {
			title = fm.Name
		}
	}
	return formatter.ToMarkdown(title, toks, comps), nil
}
