// Package syncer runs full and delta syncs of remote Figma files into the
// local cache, one run at a time, and schedules periodic delta syncs.
package syncer

import (
	"context"
	"errors"
	"fmt"
	"sort"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/kataras/figma-sync/internal/metrics"
	"github.com/kataras/figma-sync/pkg/cache"
	"github.com/kataras/figma-sync/pkg/components"
	"github.com/kataras/figma-sync/pkg/figma"
	"github.com/kataras/figma-sync/pkg/logger"
	"github.com/kataras/figma-sync/pkg/tokens"
	"github.com/kataras/figma-sync/pkg/walker"
)

// Remote is the read side of the Figma API the engine needs.
// *figma.Client implements it.
type Remote interface {
	GetFile(ctx context.Context, fileKey string, nodeIDs ...string) (*figma.FileResponse, error)
	GetFileVersion(ctx context.Context, fileKey string) (string, error)
	GetImages(ctx context.Context, fileKey string, nodeIDs []string, format string, scale float64) (map[string]string, error)
}

// Budget exposes the rate limiter state. *figma.RateLimiter implements it.
type Budget interface {
	CanMakeCall() bool
	State() figma.RateLimitState
	ResetAt() time.Time
}

// RateLimitStatus is the budget part of Status.
type RateLimitStatus struct {
	Used    int       `json:"used"`
	Max     int       `json:"max"`
	ResetAt time.Time `json:"resetAt"`
}

// Status is a point-in-time view of the engine.
type Status struct {
	IsSyncing    bool             `json:"isSyncing"`
	Progress     Progress         `json:"progress"`
	LastSyncTime time.Time        `json:"lastSyncTime"`
	LastError    string           `json:"lastError,omitempty"`
	LastResult   *Result          `json:"lastResult,omitempty"`
	RateLimit    *RateLimitStatus `json:"rateLimit,omitempty"`
}

// Engine runs syncs. Only one run is in progress at any time; manual runs
// and the scheduler share the same flag.
type Engine struct {
	remote   Remote
	store    *cache.Store
	budget   Budget
	logger   logger.Logger
	now      func() time.Time
	previews PreviewConfig
	onCommit func(*cache.Snapshot)

	mu         sync.Mutex
	running    bool
	progress   Progress
	lastSync   time.Time
	lastError  string
	lastResult *Result
}

// Option configures an Engine.
type Option func(*Engine)

// WithBudget reports the rate limiter in Status and lets the scheduler
// skip ticks when the budget is exhausted.
func WithBudget(b Budget) Option {
	return func(e *Engine) { e.budget = b }
}

// WithLogger sets the engine logger.
func WithLogger(l logger.Logger) Option {
	return func(e *Engine) { e.logger = logger.OrNop(l) }
}

// WithClock replaces time.Now.
func WithClock(now func() time.Time) Option {
	return func(e *Engine) { e.now = now }
}

// WithPreviews enables component preview rendering.
func WithPreviews(cfg PreviewConfig) Option {
	return func(e *Engine) { e.previews = cfg }
}

// OnCommit registers a callback receiving every committed snapshot.
func OnCommit(fn func(*cache.Snapshot)) Option {
	return func(e *Engine) { e.onCommit = fn }
}

// NewEngine returns an idle engine committing to store.
func NewEngine(remote Remote, store *cache.Store, opts ...Option) (*Engine, error) {
	if remote == nil {
		return nil, errors.New("syncer: remote is required")
	}
	if store == nil {
		return nil, errors.New("syncer: cache store is required")
	}

	e := &Engine{
		remote:   remote,
		store:    store,
		logger:   logger.Nop,
		now:      func() time.Time { return time.Now().UTC() },
		progress: Progress{Phase: PhaseIdle},
	}
	for _, opt := range opts {
		opt(e)
	}

	meta, err := store.LoadMetadata()
	if err != nil {
		return nil, err
	}
	e.lastSync = meta.LastSync
	return e, nil
}

// IsSyncing reports whether a run is in progress.
func (e *Engine) IsSyncing() bool {
	e.mu.Lock()
	defer e.mu.Unlock()
	return e.running
}

// Status returns the current engine state.
func (e *Engine) Status() Status {
	e.mu.Lock()
	st := Status{
		IsSyncing:    e.running,
		Progress:     e.progress,
		LastSyncTime: e.lastSync,
		LastError:    e.lastError,
		LastResult:   e.lastResult,
	}
	e.mu.Unlock()

	if e.budget != nil {
		s := e.budget.State()
		st.RateLimit = &RateLimitStatus{Used: s.APICallsThisHour, Max: s.MaxAPICallsPerHour, ResetAt: e.budget.ResetAt()}
	}
	return st
}

// Start runs a sync in the background. It returns false, without doing
// anything, when a run is already in progress.
func (e *Engine) Start(kind Kind, files []File) bool {
	if !e.begin() {
		return false
	}
	go func() {
		if _, err := e.run(context.Background(), kind, files); err != nil {
			e.logger.Errorf("Sync failed: %v", err)
		}
	}()
	return true
}

// Run performs one sync and waits for it. When another run is in progress
// it returns immediately with OutcomeAlreadyRunning and a nil error. The
// error is non-nil only when nothing could be committed.
func (e *Engine) Run(ctx context.Context, kind Kind, files []File) (*Result, error) {
	if !e.begin() {
		return &Result{Kind: kind, Outcome: OutcomeAlreadyRunning}, nil
	}
	return e.run(ctx, kind, files)
}

func (e *Engine) begin() bool {
	e.mu.Lock()
	defer e.mu.Unlock()
	if e.running {
		return false
	}
	e.running = true
	e.progress = Progress{Phase: PhaseStarting, Message: "Starting sync"}
	return true
}

func (e *Engine) setProgress(phase string, percent int, format string, args ...any) {
	e.mu.Lock()
	e.progress = e.progress.advance(phase, percent, fmt.Sprintf(format, args...))
	e.mu.Unlock()
}

func (e *Engine) finish(res *Result, err error) {
	e.mu.Lock()
	defer e.mu.Unlock()

	e.running = false
	e.lastResult = res
	if err != nil {
		e.lastError = err.Error()
	} else {
		e.lastError = ""
	}
	e.progress = e.progress.advance(PhaseDone, 100, string(res.Outcome))
	if res.Outcome == OutcomeSucceeded || res.Outcome == OutcomePartialFailure {
		e.lastSync = res.FinishedAt
	}
}

// run executes a run whose begin already succeeded.
func (e *Engine) run(ctx context.Context, kind Kind, files []File) (res *Result, err error) {
	res = &Result{RunID: uuid.NewString(), Kind: kind, StartedAt: e.now()}
	defer func() {
		res.FinishedAt = e.now()
		if res.Outcome == "" {
			res.Outcome = OutcomeFailed
		}
		metrics.RecordSyncRun(string(kind), string(res.Outcome), res.Duration())
		e.finish(res, err)
	}()

	if kind != Full && kind != Delta {
		return res, fmt.Errorf("unknown sync kind %q", kind)
	}
	if len(files) == 0 {
		return res, errors.New("no files to sync")
	}

	snap, err := e.store.Load()
	if err != nil {
		return res, fmt.Errorf("load cache: %w", err)
	}
	data := snap.Data
	meta := snap.Metadata.Clone()

	ordered := orderFiles(files)
	e.logger.Infof("Starting %s sync %s of %d file(s)", kind, res.RunID, len(ordered))

	var failures []error
	for i, f := range ordered {
		fr, out := e.syncFile(ctx, kind, f, meta.FileVersion[f.ID], i, len(ordered))
		metrics.RecordFileSync(string(fr.Status))
		res.Files = append(res.Files, fr)

		switch fr.Status {
		case FileFailed:
			e.logger.Warnf("Sync of file %s failed, keeping its cached data: %v", f.ID, fr.err)
			failures = append(failures, fmt.Errorf("file %s: %w", f.ID, fr.err))
		case FileUnchanged:
			e.logger.Infof("File %s unchanged at version %s", f.ID, fr.Version)
		case FileSynced:
			data = data.Replace(f.ID, out.tokens, out.components, out.pages)
			meta.FileVersion[f.ID] = fr.Version
			meta.Files[f.ID] = cache.FileMeta{
				Name:       fr.Name,
				Version:    fr.Version,
				SyncedAt:   e.now(),
				Tokens:     fr.Tokens,
				Components: fr.Components,
				Pages:      fr.Pages,
			}
			e.logger.Infof("File %s synced: %d tokens, %d components, %d pages", f.ID, fr.Tokens, fr.Components, fr.Pages)
		}
	}

	if len(failures) == len(ordered) {
		return res, &TotalFailureError{Errs: failures}
	}

	e.setProgress(PhaseCommitting, 92, "Writing cache")
	meta.LastSync = e.now()
	committed, err := e.store.Save(data, *meta)
	if err != nil {
		return res, fmt.Errorf("commit cache: %w", err)
	}
	if e.onCommit != nil {
		e.onCommit(committed)
	}

	if len(failures) > 0 {
		res.Outcome = OutcomePartialFailure
	} else {
		res.Outcome = OutcomeSucceeded
	}
	return res, nil
}

// orderFiles sorts by ascending priority, keeping the given order on ties.
func orderFiles(files []File) []File {
	out := append([]File(nil), files...)
	sort.SliceStable(out, func(i, j int) bool { return out[i].Priority < out[j].Priority })
	return out
}

type fileOutput struct {
	tokens     []tokens.DesignToken
	components []components.Component
	pages      []cache.Page
}

func (e *Engine) syncFile(ctx context.Context, kind Kind, f File, lastVersion string, i, n int) (FileResult, fileOutput) {
	fr := FileResult{FileID: f.ID}
	fail := func(err error) (FileResult, fileOutput) {
		fr.Status = FileFailed
		fr.err = err
		fr.Error = err.Error()
		return fr, fileOutput{}
	}

	if kind == Delta && lastVersion != "" {
		e.setProgress(PhaseFetching, filePercent(i, n, 0, 4), "Checking version of %s", f.ID)
		version, err := e.remote.GetFileVersion(ctx, f.ID)
		if err != nil {
			return fail(err)
		}
		if version == lastVersion {
			fr.Status = FileUnchanged
			fr.Version = version
			return fr, fileOutput{}
		}
	}

	e.setProgress(PhaseFetching, filePercent(i, n, 1, 4), "Fetching %s", f.ID)
	file, err := e.remote.GetFile(ctx, f.ID, f.NodeIDs...)
	if err != nil {
		return fail(err)
	}

	e.setProgress(PhaseExtracting, filePercent(i, n, 2, 4), "Extracting %s", file.Name)
	out, skipped := e.extract(f.ID, file)

	if e.previews.Enabled && len(out.components) > 0 {
		e.setProgress(PhasePreviews, filePercent(i, n, 3, 4), "Rendering previews of %s", file.Name)
		if err := e.attachPreviews(ctx, f.ID, out.components); err != nil {
			return fail(err)
		}
	}

	fr.Status = FileSynced
	fr.Name = file.Name
	fr.Version = file.Version
	fr.Tokens = len(out.tokens)
	fr.Components = len(out.components)
	fr.Pages = len(out.pages)
	fr.Skipped = skipped
	return fr, out
}

// extract walks the document once with the token, component and page
// visitors, then resolves global styles and links components to tokens.
func (e *Engine) extract(fileID string, file *figma.FileResponse) (fileOutput, int) {
	tokExt := tokens.NewExtractor(fileID)
	tokExt.Now = e.now
	tokExt.Logger = e.logger

	compExt := components.NewExtractor(fileID, file.Components)
	compExt.Now = e.now
	compExt.Logger = e.logger

	tv, tx := tokExt.Visitor()
	cv, cx := compExt.Visitor()
	pv := newPageCounter(fileID)

	w := walker.Walker{Logger: e.logger}
	stats := w.Walk(&file.Document, tv, cv, pv)
	if stats.Unknown > 0 {
		logger.OrNop(e.logger).Infof("File %s has %d nodes of unrecognized type; they carry only generic tokens", fileID, stats.Unknown)
	}

	set := tx.WithStyles(tokExt.ExtractFromGlobalStyles(file.Styles, tx))
	comps := components.Detach(components.Link(cx.Components, set))

	return fileOutput{tokens: set.Tokens(), components: comps, pages: pv.list()}, stats.Skipped
}

// pageCounter is a walker.Visitor building the page list of a file.
type pageCounter struct {
	fileID string
	order  []string
	pages  map[string]*cache.Page
}

func newPageCounter(fileID string) *pageCounter {
	return &pageCounter{fileID: fileID, pages: make(map[string]*cache.Page)}
}

func (p *pageCounter) Visit(n *figma.Node, ctx walker.Context) {
	if n.Type == figma.NodeTypeCanvas {
		p.order = append(p.order, n.ID)
		p.pages[n.ID] = &cache.Page{ID: n.ID, Name: n.Name, FileID: p.fileID}
		return
	}

	page, ok := p.pages[ctx.PageID]
	if !ok {
		return
	}
	switch {
	case n.Type == figma.NodeTypeFrame:
		page.FrameCount++
	case n.Type.IsComponent():
		page.ComponentCount++
	}
}

func (p *pageCounter) list() []cache.Page {
	out := make([]cache.Page, 0, len(p.order))
	for _, id := range p.order {
		out = append(out, *p.pages[id])
	}
	return out
}
