// Package schema caches the integer to name dictionaries a graph server uses
// to compress compact replies.
//
// Each graph keeps three independent append-only dictionaries: labels,
// property keys and relationship types. Replies refer to names by position,
// so the client keeps a copy of each table and refreshes it wholesale from the
// server when it sees an index it does not know yet.
//
// Reads are lock free. A refresh holds a per-kind mutex so at most one fetch
// per kind is in flight; concurrent readers of other kinds are never blocked.
//
// Example:
//
//	cache := schema.NewCache(graph, schema.Options{Graph: "social"})
//	name, err := cache.Resolve(ctx, schema.Label, 0)
package schema

import (
	"context"
	"fmt"
	"sync"
	"sync/atomic"

	"github.com/sirupsen/logrus"
)

// Fetcher lists the current contents of one dictionary.
//
// Implementations must not go through the stale schema retry path: a fetch
// that itself hits a stale signal has to fail, not recurse into the cache.
type Fetcher interface {
	FetchNames(ctx context.Context, kind Kind) ([]string, error)
}

// FetcherFunc adapts a function to Fetcher.
type FetcherFunc func(ctx context.Context, kind Kind) ([]string, error)

func (f FetcherFunc) FetchNames(ctx context.Context, kind Kind) ([]string, error) {
	return f(ctx, kind)
}

// SnapshotStore persists dictionary tables between processes.
type SnapshotStore interface {
	Load(graph string, kind Kind) ([]string, bool, error)
	Save(graph string, kind Kind, names []string) error
	Delete(graph string) error
}

// Options configures a Cache. The zero value is usable.
type Options struct {
	// Graph names the graph in logs and snapshot keys.
	Graph string
	// Store records every fetched table. Resolve never reads it back: the
	// server stays the only source of names. Optional.
	Store SnapshotStore
	// Logger defaults to the logrus standard logger.
	Logger *logrus.Entry
	// OnRefresh is called after every successful fetch with the new table size.
	OnRefresh func(kind Kind, size int)
}

type table struct {
	mu    sync.Mutex
	names atomic.Pointer[[]string]
}

func (t *table) lookup(idx int64) (string, bool) {
	p := t.names.Load()
	if p == nil || idx >= int64(len(*p)) {
		return "", false
	}
	return (*p)[idx], true
}

// Cache is the per-graph dictionary cache. It is safe for concurrent use.
type Cache struct {
	graph     string
	fetcher   Fetcher
	store     SnapshotStore
	log       *logrus.Entry
	onRefresh func(Kind, int)

	tables [kindCount]table
}

// NewCache creates an empty cache that refreshes through f.
func NewCache(f Fetcher, opts Options) *Cache {
	log := opts.Logger
	if log == nil {
		log = logrus.NewEntry(logrus.StandardLogger())
	}
	return &Cache{
		graph:     opts.Graph,
		fetcher:   f,
		store:     opts.Store,
		log:       log.WithFields(logrus.Fields{"component": "schema", "graph": opts.Graph}),
		onRefresh: opts.OnRefresh,
	}
}

// Resolve returns the name stored at idx in the kind dictionary, fetching the
// dictionary from the server when idx is beyond the cached table.
func (c *Cache) Resolve(ctx context.Context, kind Kind, idx int64) (string, error) {
	if !kind.Valid() {
		return "", fmt.Errorf("%w: %d", ErrInvalidKind, int(kind))
	}
	if idx < 0 {
		return "", fmt.Errorf("%w: %s %d", ErrInvalidIndex, kind, idx)
	}

	t := &c.tables[kind]
	if name, ok := t.lookup(idx); ok {
		return name, nil
	}

	t.mu.Lock()
	defer t.mu.Unlock()

	// Another goroutine may have refreshed while we waited.
	if name, ok := t.lookup(idx); ok {
		return name, nil
	}

	if err := c.refreshLocked(ctx, t, kind); err != nil {
		return "", err
	}
	if name, ok := t.lookup(idx); ok {
		return name, nil
	}
	return "", fmt.Errorf("%w: %s %d", ErrUnknownIndex, kind, idx)
}

// Refresh fetches the kind dictionary unconditionally.
func (c *Cache) Refresh(ctx context.Context, kind Kind) error {
	if !kind.Valid() {
		return fmt.Errorf("%w: %d", ErrInvalidKind, int(kind))
	}
	t := &c.tables[kind]
	t.mu.Lock()
	defer t.mu.Unlock()
	return c.refreshLocked(ctx, t, kind)
}

// Names returns a copy of the cached table. A cold table yields nil.
func (c *Cache) Names(kind Kind) []string {
	if !kind.Valid() {
		return nil
	}
	p := c.tables[kind].names.Load()
	if p == nil {
		return nil
	}
	out := make([]string, len(*p))
	copy(out, *p)
	return out
}

// Invalidate drops all three tables. It never waits for a fetch in flight,
// so it may be called from inside a query issued by a fetch.
func (c *Cache) Invalidate() {
	for i := range c.tables {
		c.tables[i].names.Store(nil)
	}
	if c.store != nil {
		if err := c.store.Delete(c.graph); err != nil {
			c.log.WithError(err).Warn("failed to delete schema snapshot")
		}
	}
	c.log.Debug("schema cache invalidated")
}

// refreshLocked replaces the table wholesale. The caller holds t.mu.
// A failed fetch leaves the previous table in place.
func (c *Cache) refreshLocked(ctx context.Context, t *table, kind Kind) error {
	names, err := c.fetcher.FetchNames(ctx, kind)
	if err != nil {
		return fmt.Errorf("failed to fetch %s dictionary: %w", kind, err)
	}
	if names == nil {
		names = []string{}
	}
	t.names.Store(&names)

	c.log.WithFields(logrus.Fields{"kind": kind.String(), "size": len(names)}).Info("schema dictionary refreshed")
	if c.onRefresh != nil {
		c.onRefresh(kind, len(names))
	}
	if c.store != nil {
		if err := c.store.Save(c.graph, kind, names); err != nil {
			c.log.WithError(err).WithField("kind", kind.String()).Warn("failed to save schema snapshot")
		}
	}
	return nil
}

// LastKnown returns the table recorded by the most recent successful fetch,
// possibly by an earlier process. It is for inspection only.
func (c *Cache) LastKnown(kind Kind) ([]string, bool, error) {
	if c.store == nil {
		return nil, false, nil
	}
	return c.store.Load(c.graph, kind)
}
