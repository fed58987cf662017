// Package registry caches small reference datasets (organisations,
// topics, world locations) used to expand slugs into display entities
// during presentation.
package registry

import (
	"context"
	"strings"
	"sync"
	"sync/atomic"
	"time"

	"go.uber.org/zap"
)

// DefaultLifetime is how long a fetched snapshot is served before a
// wholesale refresh.
const DefaultLifetime = 12 * time.Hour

// Clock supplies the current time. Substitutable in tests.
type Clock interface {
	Now() time.Time
}

// SystemClock is the default Clock.
type SystemClock struct{}

// Now returns the current system time.
func (SystemClock) Now() time.Time { return time.Now() }

// Entry is one cached reference object (slug, link, title plus extras).
type Entry map[string]any

// Slug returns the entry's slug, falling back to the last link segment.
func (e Entry) Slug() string {
	if slug, ok := e["slug"].(string); ok && slug != "" {
		return slug
	}
	if link, ok := e["link"].(string); ok {
		if i := strings.LastIndexByte(link, '/'); i >= 0 {
			return link[i+1:]
		}
	}
	return ""
}

// Fetcher retrieves the full backing dataset for one registry.
type Fetcher interface {
	DocumentsByFormat(ctx context.Context, format string, fields []string) ([]map[string]any, error)
}

// Registry is a time-bounded full-refresh cache over one reference
// dataset. Lookups between refreshes are served from an immutable
// in-memory snapshot; the refresh builds a complete replacement and swaps
// it atomically, so no reader ever observes a partial entry set.
type Registry struct {
	fetcher  Fetcher
	format   string
	fields   []string
	lifetime time.Duration
	clock    Clock
	logger   *zap.Logger

	refreshMu sync.Mutex
	snap      atomic.Pointer[snapshot]
}

type snapshot struct {
	entries   map[string]Entry
	fetchedAt time.Time
}

// New creates a registry over documents of one format.
func New(fetcher Fetcher, format string, fields []string) *Registry {
	return &Registry{
		fetcher:  fetcher,
		format:   format,
		fields:   fields,
		lifetime: DefaultLifetime,
		clock:    SystemClock{},
		logger:   zap.NewNop(),
	}
}

// WithClock substitutes the time source.
func (r *Registry) WithClock(clock Clock) *Registry {
	r.clock = clock
	return r
}

// WithLifetime overrides the snapshot time-to-live.
func (r *Registry) WithLifetime(lifetime time.Duration) *Registry {
	if lifetime > 0 {
		r.lifetime = lifetime
	}
	return r
}

// WithLogger attaches a logger for refresh diagnostics.
func (r *Registry) WithLogger(logger *zap.Logger) *Registry {
	r.logger = logger
	return r
}

// Lookup returns the entry for a slug. Only the very first fetch blocks;
// a stale snapshot keeps serving while one caller runs the refresh, and
// a failed refresh leaves the previous snapshot in place.
func (r *Registry) Lookup(ctx context.Context, slug string) (Entry, bool) {
	snap := r.current(ctx)
	if snap == nil {
		return nil, false
	}
	entry, ok := snap.entries[slug]
	return entry, ok
}

// All returns every entry in the current snapshot, refreshing if needed.
func (r *Registry) All(ctx context.Context) []Entry {
	snap := r.current(ctx)
	if snap == nil {
		return nil
	}
	entries := make([]Entry, 0, len(snap.entries))
	for _, e := range snap.entries {
		entries = append(entries, e)
	}
	return entries
}

// current returns a usable snapshot. With no snapshot at all, callers
// block on the first fetch. Once a snapshot exists, expiry hands the
// refresh to whichever caller claims the lock; everyone else serves the
// stale entries until the swap lands.
func (r *Registry) current(ctx context.Context) *snapshot {
	snap := r.snap.Load()
	switch {
	case snap == nil:
		r.refresh(ctx)
	case r.clock.Now().Sub(snap.fetchedAt) >= r.lifetime:
		if r.refreshMu.TryLock() {
			r.refreshLocked(ctx)
			r.refreshMu.Unlock()
		}
	}
	return r.snap.Load()
}

// refresh re-fetches the whole dataset and swaps the snapshot in one
// store. Concurrent first-fetch callers serialize on the mutex; the
// double check avoids fetching twice after waiting for another refresher.
func (r *Registry) refresh(ctx context.Context) {
	r.refreshMu.Lock()
	defer r.refreshMu.Unlock()
	r.refreshLocked(ctx)
}

func (r *Registry) refreshLocked(ctx context.Context) {
	if snap := r.snap.Load(); snap != nil && r.clock.Now().Sub(snap.fetchedAt) < r.lifetime {
		return
	}

	docs, err := r.fetcher.DocumentsByFormat(ctx, r.format, r.fields)
	if err != nil {
		r.logger.Warn("registry refresh failed, serving stale snapshot",
			zap.String("format", r.format),
			zap.Error(err),
		)
		return
	}

	entries := make(map[string]Entry, len(docs))
	for _, doc := range docs {
		entry := normalize(doc)
		if slug := entry.Slug(); slug != "" {
			entries[slug] = entry
		}
	}
	r.snap.Store(&snapshot{entries: entries, fetchedAt: r.clock.Now()})
	r.logger.Info("registry refreshed",
		zap.String("format", r.format),
		zap.Int("entries", len(entries)),
	)
}

// normalize unwraps the engine's per-field sequence encoding: registry
// fields are single-valued, so a length-1 sequence becomes its scalar.
func normalize(doc map[string]any) Entry {
	entry := make(Entry, len(doc))
	for k, v := range doc {
		if seq, ok := v.([]any); ok && len(seq) == 1 {
			entry[k] = seq[0]
			continue
		}
		entry[k] = v
	}
	return entry
}
