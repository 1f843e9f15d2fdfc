// Package cache persists the extracted tokens, components and pages of the
// synced files, together with the sync metadata that drives delta syncs.
//
// A cache directory holds:
//
//	cache.json       tokens, components and pages
//	metadata.json    last sync time, file versions and per-file counts
//	rate_limit.json  the API rate limiter state
//	.lock            cross-process lock held while saving
//
// Every file is written to a temporary file and renamed into place, and
// metadata.json is written only after cache.json, so a metadata timestamp
// always refers to data that made it to disk.
package cache

import (
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/gofrs/flock"

	"github.com/kataras/figma-sync/internal/metrics"
	"github.com/kataras/figma-sync/pkg/logger"
)

// File names inside the cache directory.
const (
	DataFile      = "cache.json"
	MetadataFile  = "metadata.json"
	RateLimitFile = "rate_limit.json"
	LockFile      = ".lock"
)

// Store reads and writes one cache directory.
type Store struct {
	dir    string
	lock   *flock.Flock
	now    func() time.Time
	logger logger.Logger
}

// Option configures a Store.
type Option func(*Store)

// WithClock replaces time.Now for staleness checks.
func WithClock(now func() time.Time) Option {
	return func(s *Store) { s.now = now }
}

// WithLogger sets the logger used for recoverable read problems.
func WithLogger(l logger.Logger) Option {
	return func(s *Store) { s.logger = logger.OrNop(l) }
}

// Open prepares dir as a cache directory, creating it if needed.
// Nothing is read until Load.
func Open(dir string, opts ...Option) (*Store, error) {
	if dir == "" {
		return nil, errors.New("cache directory is required")
	}
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return nil, fmt.Errorf("failed to create cache directory: %w", err)
	}

	s := &Store{
		dir:    dir,
		lock:   flock.New(filepath.Join(dir, LockFile)),
		now:    time.Now,
		logger: logger.Nop,
	}
	for _, opt := range opts {
		opt(s)
	}
	return s, nil
}

// Dir returns the cache directory.
func (s *Store) Dir() string { return s.dir }

// Path returns the path of name inside the cache directory.
func (s *Store) Path(name string) string { return filepath.Join(s.dir, name) }

// Load reads the committed snapshot. A directory that was never saved to is
// a cold start: empty collections and zero metadata, not an error.
func (s *Store) Load() (*Snapshot, error) {
	snap := &Snapshot{}

	raw, err := os.ReadFile(s.Path(DataFile))
	switch {
	case errors.Is(err, os.ErrNotExist):
	case err != nil:
		return nil, fmt.Errorf("failed to read cache data: %w", err)
	default:
		if err := json.Unmarshal(raw, &snap.Data); err != nil {
			return nil, fmt.Errorf("failed to parse %s: %w", DataFile, err)
		}
	}
	snap.Data.normalize()

	meta, err := s.LoadMetadata()
	if err != nil {
		return nil, err
	}
	snap.Metadata = *meta

	return snap, nil
}

// LoadMetadata reads metadata.json only. A missing or unreadable file yields
// empty metadata, which marks every file as never synced.
func (s *Store) LoadMetadata() (*Metadata, error) {
	raw, err := os.ReadFile(s.Path(MetadataFile))
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return newMetadata(), nil
		}
		return nil, fmt.Errorf("failed to read metadata: %w", err)
	}

	var meta Metadata
	if err := json.Unmarshal(raw, &meta); err != nil {
		s.logger.Warnf("Ignoring corrupt %s: %v", s.Path(MetadataFile), err)
		return newMetadata(), nil
	}
	if meta.FileVersion == nil {
		meta.FileVersion = make(map[string]string)
	}
	if meta.Files == nil {
		meta.Files = make(map[string]FileMeta)
	}
	return &meta, nil
}

// Save replaces the on-disk snapshot with data and then meta. The item
// counts of meta are taken from data. The cache lock is held for the whole
// write so two processes never interleave their commits.
func (s *Store) Save(data Data, meta Metadata) (*Snapshot, error) {
	data.normalize()
	meta.TokenCount = len(data.Tokens)
	meta.ComponentCount = len(data.Components)
	meta.PageCount = len(data.Pages)
	if meta.FileVersion == nil {
		meta.FileVersion = make(map[string]string)
	}
	if meta.Files == nil {
		meta.Files = make(map[string]FileMeta)
	}

	if err := s.lock.Lock(); err != nil {
		return nil, fmt.Errorf("failed to acquire cache lock: %w", err)
	}
	defer s.lock.Unlock()

	if err := writeJSONAtomic(s.Path(DataFile), data); err != nil {
		return nil, fmt.Errorf("failed to write cache data: %w", err)
	}
	if err := writeJSONAtomic(s.Path(MetadataFile), meta); err != nil {
		return nil, fmt.Errorf("failed to write metadata: %w", err)
	}

	metrics.SetCacheItems(meta.TokenCount, meta.ComponentCount, meta.PageCount)
	return &Snapshot{Data: data, Metadata: meta}, nil
}

// IsStale reports whether the last sync is older than ttl.
func (s *Store) IsStale(ttl time.Duration) (bool, error) {
	meta, err := s.LoadMetadata()
	if err != nil {
		return false, err
	}
	return meta.IsStale(s.now(), ttl), nil
}

// writeJSONAtomic writes v as indented JSON to a temp file and renames it over path.
func writeJSONAtomic(path string, v any) error {
	raw, err := json.MarshalIndent(v, "", "  ")
	if err != nil {
		return fmt.Errorf("failed to marshal: %w", err)
	}

	tmp := path + ".tmp"
	if err := os.WriteFile(tmp, raw, 0o644); err != nil {
		return fmt.Errorf("failed to write temp file: %w", err)
	}
	if err := os.Rename(tmp, path); err != nil {
		os.Remove(tmp)
		return fmt.Errorf("failed to rename temp file: %w", err)
	}
	return nil
}
