// Package falkordb is a client for graph databases that speak the compact
// GRAPH.QUERY protocol over the Redis wire format.
//
// A Client owns the transport; a Graph is a handle on one named graph and
// owns that graph's schema dictionary cache. Graph handles are safe for
// concurrent use and are cached per client, so selecting the same graph twice
// shares one dictionary.
//
// Example:
//
//	client, err := falkordb.Connect(config.LoadFromEnv())
//	if err != nil {
//		log.Fatal(err)
//	}
//	defer client.Close()
//
//	g := client.SelectGraph("social")
//	rs, err := g.Query(ctx, "MATCH (p:Person {name: $name}) RETURN p", map[string]any{"name": "Ada"})
//	for _, rec := range rs.Records() {
//		node, _ := rec.GetNode("p")
//		fmt.Println(node.Labels())
//	}
package falkordb

import (
	"context"
	"errors"
	"fmt"
	"io"
	"sync"
	"time"

	"github.com/gomodule/redigo/redis"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/sirupsen/logrus"

	"github.com/orneryd/falkorgraph/pkg/config"
	"github.com/orneryd/falkorgraph/pkg/schema"
)

// Server commands.
const (
	cmdQuery      = "GRAPH.QUERY"
	cmdROQuery    = "GRAPH.RO_QUERY"
	cmdDelete     = "GRAPH.DELETE"
	cmdCopy       = "GRAPH.COPY"
	cmdExplain    = "GRAPH.EXPLAIN"
	cmdProfile    = "GRAPH.PROFILE"
	cmdSlowlog    = "GRAPH.SLOWLOG"
	cmdConstraint = "GRAPH.CONSTRAINT"
	cmdList       = "GRAPH.LIST"
	cmdConfig     = "GRAPH.CONFIG"
)

type graphKey struct {
	name     string
	readOnly bool
}

// Client talks to one server. It is safe for concurrent use.
type Client struct {
	exec           Executor
	log            *logrus.Entry
	metrics        *Metrics
	store          schema.SnapshotStore
	defaultTimeout time.Duration

	// closers are released by Close in reverse order.
	closers []io.Closer

	mu     sync.Mutex
	graphs map[graphKey]*Graph
	closed bool
}

// New creates a client that sends commands through exec.
func New(exec Executor, opts ...Option) *Client {
	c := &Client{
		exec:   exec,
		graphs: make(map[graphKey]*Graph),
	}
	for _, opt := range opts {
		opt(c)
	}
	if c.log == nil {
		c.log = logrus.NewEntry(logrus.StandardLogger())
	}
	c.log = c.log.WithField("component", "falkordb")
	return c
}

// Connect builds a pooled client from cfg. The snapshot store and metrics
// named by cfg are created here and released by Close; explicit options
// override them.
func Connect(cfg *config.Config, opts ...Option) (*Client, error) {
	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("invalid config: %w", err)
	}

	pool := NewPool(cfg)
	exec := NewPoolExecutor(pool)
	closers := []io.Closer{exec}

	var base []Option
	if cfg.Query.Timeout > 0 {
		base = append(base, WithDefaultTimeout(cfg.Query.Timeout))
	}

	switch {
	case cfg.Schema.SnapshotDir != "":
		store, err := schema.NewBadgerStore(cfg.Schema.SnapshotDir)
		if err != nil {
			exec.Close()
			return nil, err
		}
		closers = append(closers, store)
		base = append(base, WithSnapshotStore(store))
	case cfg.Schema.SnapshotInMemory:
		store, err := schema.NewBadgerStoreInMemory()
		if err != nil {
			exec.Close()
			return nil, err
		}
		closers = append(closers, store)
		base = append(base, WithSnapshotStore(store))
	}

	if cfg.Metrics.Enabled {
		m := NewMetrics(cfg.Metrics.Namespace)
		if err := m.Register(prometheus.DefaultRegisterer); err != nil {
			closeAll(closers)
			return nil, fmt.Errorf("failed to register metrics: %w", err)
		}
		base = append(base, WithMetrics(m))
	}

	c := New(exec, append(base, opts...)...)
	c.closers = closers
	c.log.WithField("address", cfg.Server.Address).Debug("client configured")
	return c, nil
}

func closeAll(closers []io.Closer) error {
	var errs []error
	for i := len(closers) - 1; i >= 0; i-- {
		if err := closers[i].Close(); err != nil {
			errs = append(errs, err)
		}
	}
	return errors.Join(errs...)
}

// Close releases the resources created by Connect. Graph handles become
// unusable.
func (c *Client) Close() error {
	c.mu.Lock()
	if c.closed {
		c.mu.Unlock()
		return nil
	}
	c.closed = true
	c.mu.Unlock()
	return closeAll(c.closers)
}

func (c *Client) do(ctx context.Context, cmd string, args ...any) (any, error) {
	c.mu.Lock()
	closed := c.closed
	c.mu.Unlock()
	if closed {
		return nil, ErrClosed
	}
	return c.exec.Execute(ctx, cmd, args...)
}

// SelectGraph returns the read-write handle for name.
func (c *Client) SelectGraph(name string) *Graph {
	return c.selectGraph(name, false)
}

// SelectReadOnlyGraph returns a handle whose queries and schema fetches all
// go through GRAPH.RO_QUERY.
func (c *Client) SelectReadOnlyGraph(name string) *Graph {
	return c.selectGraph(name, true)
}

func (c *Client) selectGraph(name string, readOnly bool) *Graph {
	key := graphKey{name: name, readOnly: readOnly}
	c.mu.Lock()
	defer c.mu.Unlock()
	if g, ok := c.graphs[key]; ok {
		return g
	}
	g := newGraph(c, name, readOnly)
	c.graphs[key] = g
	return g
}

// forgetGraph drops cached handles after the graph was deleted server side.
// Callers may still hold them, so their schema caches are emptied first.
func (c *Client) forgetGraph(name string) {
	c.mu.Lock()
	var handles []*Graph
	for _, key := range []graphKey{{name: name}, {name: name, readOnly: true}} {
		if g, ok := c.graphs[key]; ok {
			handles = append(handles, g)
			delete(c.graphs, key)
		}
	}
	c.mu.Unlock()

	for _, g := range handles {
		g.cache.Invalidate()
	}
}

// ListGraphs returns the names of every graph on the server.
func (c *Client) ListGraphs(ctx context.Context) ([]string, error) {
	r, err := c.do(ctx, cmdList)
	if err != nil {
		return nil, err
	}
	names, err := redis.Strings(r, nil)
	if err != nil {
		return nil, &TransportError{Command: cmdList, Err: err}
	}
	return names, nil
}

// ConfigGet reads server configuration. name may be "*" for every setting.
func (c *Client) ConfigGet(ctx context.Context, name string) (map[string]any, error) {
	r, err := c.do(ctx, cmdConfig, "GET", name)
	if err != nil {
		return nil, err
	}
	items, ok := r.([]any)
	if !ok {
		return nil, &TransportError{Command: cmdConfig, Err: fmt.Errorf("unexpected reply %T", r)}
	}

	out := make(map[string]any)
	// A single setting replies [name, value]; "*" replies [[name, value]...].
	if len(items) == 2 {
		if _, nested := items[0].([]any); !nested {
			items = []any{items}
		}
	}
	for _, item := range items {
		pair, ok := item.([]any)
		if !ok || len(pair) != 2 {
			return nil, &TransportError{Command: cmdConfig, Err: fmt.Errorf("unexpected config entry %T", item)}
		}
		key, err := redis.String(pair[0], nil)
		if err != nil {
			return nil, &TransportError{Command: cmdConfig, Err: err}
		}
		out[key] = configValue(pair[1])
	}
	return out, nil
}

func configValue(v any) any {
	if b, ok := v.([]byte); ok {
		return string(b)
	}
	return v
}

// ConfigSet changes a server configuration value.
func (c *Client) ConfigSet(ctx context.Context, name string, value any) error {
	_, err := c.do(ctx, cmdConfig, "SET", name, value)
	return err
}
