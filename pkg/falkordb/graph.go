package falkordb

import (
	"context"
	"errors"
	"fmt"
	"strconv"
	"strings"
	"time"
	"unicode/utf8"

	"github.com/gomodule/redigo/redis"
	"github.com/google/uuid"
	"github.com/sirupsen/logrus"

	"github.com/orneryd/falkorgraph/pkg/cypher"
	"github.com/orneryd/falkorgraph/pkg/reply"
	"github.com/orneryd/falkorgraph/pkg/schema"
	"github.com/orneryd/falkorgraph/pkg/value"
)

// Graph is a handle on one named graph. It owns the graph's schema
// dictionary cache and is safe for concurrent use.
type Graph struct {
	client   *Client
	name     string
	readOnly bool

	cache   *schema.Cache
	decoder *reply.Decoder
	log     *logrus.Entry
}

func newGraph(c *Client, name string, readOnly bool) *Graph {
	g := &Graph{
		client:   c,
		name:     name,
		readOnly: readOnly,
		log:      c.log.WithFields(logrus.Fields{"graph": name, "read_only": readOnly}),
	}
	g.cache = schema.NewCache(g, schema.Options{
		Graph:  name,
		Store:  c.store,
		Logger: c.log,
		OnRefresh: func(kind schema.Kind, _ int) {
			c.metrics.observeRefresh(name, kind.String())
		},
	})
	g.decoder = reply.NewDecoder(g.cache)
	return g
}

// Name returns the graph name.
func (g *Graph) Name() string { return g.name }

// ReadOnly reports whether every query goes through GRAPH.RO_QUERY.
func (g *Graph) ReadOnly() bool { return g.readOnly }

// Schema returns the graph's dictionary cache.
func (g *Graph) Schema() *schema.Cache { return g.cache }

func (g *Graph) queryCommand() string {
	if g.readOnly {
		return cmdROQuery
	}
	return cmdQuery
}

// Query runs a Cypher query. params are rendered into the query prelude;
// see cypher.PrepareQuery.
func (g *Graph) Query(ctx context.Context, query string, params map[string]any, opts ...QueryOption) (*ResultSet, error) {
	return g.run(ctx, g.queryCommand(), query, params, opts)
}

// ROQuery runs a read-only query. The server rejects writes.
func (g *Graph) ROQuery(ctx context.Context, query string, params map[string]any, opts ...QueryOption) (*ResultSet, error) {
	return g.run(ctx, cmdROQuery, query, params, opts)
}

// CallProcedure runs CALL name(args...) YIELD yield...
func (g *Graph) CallProcedure(ctx context.Context, name string, args []string, yield []string, opts ...QueryOption) (*ResultSet, error) {
	return g.Query(ctx, cypher.CallProcedure(name, args, yield), nil, opts...)
}

func (g *Graph) queryArgs(prepared string, opts []QueryOption) []any {
	o := queryOptions{timeout: g.client.defaultTimeout}
	for _, opt := range opts {
		opt(&o)
	}
	args := []any{g.name, prepared, "--compact"}
	if ms := o.timeout.Milliseconds(); ms > 0 {
		args = append(args, "timeout", ms)
	}
	return args
}

// command sends a non-query command for this graph and records its metrics.
func (g *Graph) command(ctx context.Context, cmd string, args ...any) (any, error) {
	if g.name == "" {
		return nil, ErrEmptyGraphName
	}
	start := time.Now()
	r, err := g.client.do(ctx, cmd, args...)
	err = normalizeError(cmd, err)
	g.client.metrics.observeQuery(g.name, cmd, start, err)
	if err != nil {
		g.log.WithError(err).WithField("command", cmd).Debug("command failed")
	}
	return r, err
}

// FetchNames lists one schema dictionary. It is called by the cache and
// never retries: a stale signal here is returned to the caller.
func (g *Graph) FetchNames(ctx context.Context, kind schema.Kind) ([]string, error) {
	cmd := g.queryCommand()
	query := "CALL " + kind.Procedure() + "()"
	raw, err := g.command(ctx, cmd, g.name, query, "--compact")
	if err != nil {
		return nil, err
	}
	rs, err := assemble(ctx, metadataDecoder, raw)
	if err != nil {
		return nil, err
	}
	names := make([]string, 0, rs.Len())
	for i, row := range rs.rows {
		if len(row) == 0 {
			return nil, &DecodeError{Path: "row " + strconv.Itoa(i), Err: reply.ErrMalformed}
		}
		s, ok := row[0].(value.String)
		if !ok {
			return nil, &DecodeError{
				Path: "row " + strconv.Itoa(i) + " column 0",
				Err:  fmt.Errorf("%w: %s name is %s, want string", reply.ErrMalformed, kind, kindOf(row[0])),
			}
		}
		names = append(names, string(s))
	}
	return names, nil
}

// metadataDecoder decodes procedure rows, which never reference the
// dictionaries.
var metadataDecoder = reply.NewDecoder(noResolver{})

type noResolver struct{}

func (noResolver) Resolve(_ context.Context, kind schema.Kind, idx int64) (string, error) {
	return "", fmt.Errorf("%w: unexpected %s reference %d in metadata row", reply.ErrMalformed, kind, idx)
}

func kindOf(v value.Value) string {
	if v == nil {
		return "nil"
	}
	return v.Kind().String()
}

// Labels refreshes and returns the label dictionary.
func (g *Graph) Labels(ctx context.Context) ([]string, error) {
	return g.names(ctx, schema.Label)
}

// PropertyKeys refreshes and returns the property key dictionary.
func (g *Graph) PropertyKeys(ctx context.Context) ([]string, error) {
	return g.names(ctx, schema.PropertyKey)
}

// RelationshipTypes refreshes and returns the relationship type dictionary.
func (g *Graph) RelationshipTypes(ctx context.Context) ([]string, error) {
	return g.names(ctx, schema.RelationshipType)
}

func (g *Graph) names(ctx context.Context, kind schema.Kind) ([]string, error) {
	if err := g.cache.Refresh(ctx, kind); err != nil {
		return nil, err
	}
	return g.cache.Names(kind), nil
}

// Delete removes the graph from the server and drops its cached schema.
func (g *Graph) Delete(ctx context.Context) error {
	_, err := g.command(ctx, cmdDelete, g.name)
	g.cache.Invalidate()
	if err != nil {
		return err
	}
	g.client.forgetGraph(g.name)
	g.log.Info("graph deleted")
	return nil
}

// Copy clones the graph into dest and returns a handle on the copy.
func (g *Graph) Copy(ctx context.Context, dest string) (*Graph, error) {
	if dest == "" {
		return nil, ErrEmptyGraphName
	}
	if _, err := g.command(ctx, cmdCopy, g.name, dest); err != nil {
		return nil, err
	}
	return g.client.SelectGraph(dest), nil
}

// Explain returns the execution plan of query without running it.
func (g *Graph) Explain(ctx context.Context, query string, params map[string]any) ([]string, error) {
	return g.plan(ctx, cmdExplain, query, params)
}

// Profile runs query and returns the plan annotated with per-operation
// records and timings.
func (g *Graph) Profile(ctx context.Context, query string, params map[string]any) ([]string, error) {
	return g.plan(ctx, cmdProfile, query, params)
}

func (g *Graph) plan(ctx context.Context, cmd, query string, params map[string]any) ([]string, error) {
	prepared, err := cypher.PrepareQuery(query, params)
	if err != nil {
		return nil, err
	}
	r, err := g.command(ctx, cmd, g.name, prepared)
	if err != nil {
		return nil, err
	}
	lines, err := redis.Strings(r, nil)
	if err != nil {
		return nil, &TransportError{Command: cmd, Err: err}
	}
	return lines, nil
}

// SlowlogEntry is one of the slowest recent queries of a graph.
type SlowlogEntry struct {
	Time     time.Time
	Command  string
	Query    string
	Duration time.Duration
}

// Slowlog returns the graph's slowest recent queries.
func (g *Graph) Slowlog(ctx context.Context) ([]SlowlogEntry, error) {
	r, err := g.command(ctx, cmdSlowlog, g.name)
	if err != nil {
		return nil, err
	}
	items, err := redis.Values(r, nil)
	if err != nil {
		return nil, &TransportError{Command: cmdSlowlog, Err: err}
	}
	entries := make([]SlowlogEntry, 0, len(items))
	for i, item := range items {
		e, err := parseSlowlogEntry(item)
		if err != nil {
			return nil, &DecodeError{Path: "slowlog[" + strconv.Itoa(i) + "]", Err: err}
		}
		entries = append(entries, e)
	}
	return entries, nil
}

// parseSlowlogEntry reads [timestamp, command, query, milliseconds].
func parseSlowlogEntry(item any) (SlowlogEntry, error) {
	fields, err := redis.Strings(item, nil)
	if err != nil {
		return SlowlogEntry{}, fmt.Errorf("%w: %v", reply.ErrMalformed, err)
	}
	if len(fields) != 4 {
		return SlowlogEntry{}, fmt.Errorf("%w: expected 4 fields, got %d", reply.ErrMalformed, len(fields))
	}
	secs, err := strconv.ParseInt(fields[0], 10, 64)
	if err != nil {
		return SlowlogEntry{}, fmt.Errorf("%w: timestamp %q", reply.ErrMalformed, fields[0])
	}
	ms, err := strconv.ParseFloat(fields[3], 64)
	if err != nil {
		return SlowlogEntry{}, fmt.Errorf("%w: duration %q", reply.ErrMalformed, fields[3])
	}
	return SlowlogEntry{
		Time:     time.Unix(secs, 0),
		Command:  fields[1],
		Query:    fields[2],
		Duration: time.Duration(ms * float64(time.Millisecond)),
	}, nil
}

// SlowlogReset clears the graph's slowlog.
func (g *Graph) SlowlogReset(ctx context.Context) error {
	_, err := g.command(ctx, cmdSlowlog, g.name, "RESET")
	return err
}

// CreateIndex creates the index described by spec.
func (g *Graph) CreateIndex(ctx context.Context, spec cypher.IndexSpec) (*ResultSet, error) {
	q, err := cypher.CreateIndex(spec)
	if err != nil {
		return nil, err
	}
	return g.Query(ctx, q, nil)
}

// DropIndex drops the index described by spec.
func (g *Graph) DropIndex(ctx context.Context, spec cypher.IndexSpec) (*ResultSet, error) {
	q, err := cypher.DropIndex(spec)
	if err != nil {
		return nil, err
	}
	return g.Query(ctx, q, nil)
}

func (g *Graph) CreateNodeRangeIndex(ctx context.Context, label string, props ...string) (*ResultSet, error) {
	return g.CreateIndex(ctx, cypher.IndexSpec{Entity: cypher.NodeEntity, Type: cypher.RangeIndex, Label: label, Properties: props})
}

func (g *Graph) CreateNodeFulltextIndex(ctx context.Context, label string, props ...string) (*ResultSet, error) {
	return g.CreateIndex(ctx, cypher.IndexSpec{Entity: cypher.NodeEntity, Type: cypher.FulltextIndex, Label: label, Properties: props})
}

// CreateNodeVectorIndex indexes float32 vectors of dim elements. An empty
// similarity selects euclidean distance.
func (g *Graph) CreateNodeVectorIndex(ctx context.Context, label string, dim int, similarity string, props ...string) (*ResultSet, error) {
	return g.CreateIndex(ctx, cypher.IndexSpec{
		Entity: cypher.NodeEntity, Type: cypher.VectorIndex, Label: label, Properties: props,
		Dimension: dim, Similarity: similarity,
	})
}

func (g *Graph) CreateEdgeRangeIndex(ctx context.Context, relType string, props ...string) (*ResultSet, error) {
	return g.CreateIndex(ctx, cypher.IndexSpec{Entity: cypher.EdgeEntity, Type: cypher.RangeIndex, Label: relType, Properties: props})
}

func (g *Graph) CreateEdgeFulltextIndex(ctx context.Context, relType string, props ...string) (*ResultSet, error) {
	return g.CreateIndex(ctx, cypher.IndexSpec{Entity: cypher.EdgeEntity, Type: cypher.FulltextIndex, Label: relType, Properties: props})
}

func (g *Graph) CreateEdgeVectorIndex(ctx context.Context, relType string, dim int, similarity string, props ...string) (*ResultSet, error) {
	return g.CreateIndex(ctx, cypher.IndexSpec{
		Entity: cypher.EdgeEntity, Type: cypher.VectorIndex, Label: relType, Properties: props,
		Dimension: dim, Similarity: similarity,
	})
}

func (g *Graph) DropNodeRangeIndex(ctx context.Context, label, prop string) (*ResultSet, error) {
	return g.DropIndex(ctx, cypher.IndexSpec{Entity: cypher.NodeEntity, Type: cypher.RangeIndex, Label: label, Properties: []string{prop}})
}

func (g *Graph) DropNodeFulltextIndex(ctx context.Context, label, prop string) (*ResultSet, error) {
	return g.DropIndex(ctx, cypher.IndexSpec{Entity: cypher.NodeEntity, Type: cypher.FulltextIndex, Label: label, Properties: []string{prop}})
}

func (g *Graph) DropNodeVectorIndex(ctx context.Context, label, prop string) (*ResultSet, error) {
	return g.DropIndex(ctx, cypher.IndexSpec{Entity: cypher.NodeEntity, Type: cypher.VectorIndex, Label: label, Properties: []string{prop}})
}

func (g *Graph) DropEdgeRangeIndex(ctx context.Context, relType, prop string) (*ResultSet, error) {
	return g.DropIndex(ctx, cypher.IndexSpec{Entity: cypher.EdgeEntity, Type: cypher.RangeIndex, Label: relType, Properties: []string{prop}})
}

func (g *Graph) DropEdgeFulltextIndex(ctx context.Context, relType, prop string) (*ResultSet, error) {
	return g.DropIndex(ctx, cypher.IndexSpec{Entity: cypher.EdgeEntity, Type: cypher.FulltextIndex, Label: relType, Properties: []string{prop}})
}

func (g *Graph) DropEdgeVectorIndex(ctx context.Context, relType, prop string) (*ResultSet, error) {
	return g.DropIndex(ctx, cypher.IndexSpec{Entity: cypher.EdgeEntity, Type: cypher.VectorIndex, Label: relType, Properties: []string{prop}})
}

// ListIndices returns the output of db.indexes().
func (g *Graph) ListIndices(ctx context.Context) (*ResultSet, error) {
	return g.CallProcedure(ctx, "db.indexes", nil, nil)
}

// CreateConstraint creates spec through GRAPH.CONSTRAINT. A unique
// constraint needs a range index over the same properties; it is created
// first and an error there (usually "already indexed") is ignored.
func (g *Graph) CreateConstraint(ctx context.Context, spec cypher.ConstraintSpec) error {
	if spec.Type == cypher.UniqueConstraint {
		_, err := g.CreateIndex(ctx, cypher.IndexSpec{
			Entity: spec.Entity, Type: cypher.RangeIndex, Label: spec.Label, Properties: spec.Properties,
		})
		if err != nil {
			g.log.WithError(err).WithField("label", spec.Label).Debug("supporting index not created")
		}
	}
	return g.constraint(ctx, "CREATE", spec)
}

// DropConstraint drops spec. Supporting indexes are left in place.
func (g *Graph) DropConstraint(ctx context.Context, spec cypher.ConstraintSpec) error {
	return g.constraint(ctx, "DROP", spec)
}

func (g *Graph) constraint(ctx context.Context, op string, spec cypher.ConstraintSpec) error {
	args, err := cypher.ConstraintArgs(op, g.name, spec)
	if err != nil {
		return err
	}
	_, err = g.command(ctx, cmdConstraint, args...)
	return err
}

func (g *Graph) CreateNodeUniqueConstraint(ctx context.Context, label string, props ...string) error {
	return g.CreateConstraint(ctx, cypher.ConstraintSpec{Type: cypher.UniqueConstraint, Entity: cypher.NodeEntity, Label: label, Properties: props})
}

func (g *Graph) CreateNodeMandatoryConstraint(ctx context.Context, label string, props ...string) error {
	return g.CreateConstraint(ctx, cypher.ConstraintSpec{Type: cypher.MandatoryConstraint, Entity: cypher.NodeEntity, Label: label, Properties: props})
}

func (g *Graph) CreateEdgeUniqueConstraint(ctx context.Context, relType string, props ...string) error {
	return g.CreateConstraint(ctx, cypher.ConstraintSpec{Type: cypher.UniqueConstraint, Entity: cypher.EdgeEntity, Label: relType, Properties: props})
}

func (g *Graph) CreateEdgeMandatoryConstraint(ctx context.Context, relType string, props ...string) error {
	return g.CreateConstraint(ctx, cypher.ConstraintSpec{Type: cypher.MandatoryConstraint, Entity: cypher.EdgeEntity, Label: relType, Properties: props})
}

func (g *Graph) DropNodeUniqueConstraint(ctx context.Context, label string, props ...string) error {
	return g.DropConstraint(ctx, cypher.ConstraintSpec{Type: cypher.UniqueConstraint, Entity: cypher.NodeEntity, Label: label, Properties: props})
}

func (g *Graph) DropNodeMandatoryConstraint(ctx context.Context, label string, props ...string) error {
	return g.DropConstraint(ctx, cypher.ConstraintSpec{Type: cypher.MandatoryConstraint, Entity: cypher.NodeEntity, Label: label, Properties: props})
}

func (g *Graph) DropEdgeUniqueConstraint(ctx context.Context, relType string, props ...string) error {
	return g.DropConstraint(ctx, cypher.ConstraintSpec{Type: cypher.UniqueConstraint, Entity: cypher.EdgeEntity, Label: relType, Properties: props})
}

func (g *Graph) DropEdgeMandatoryConstraint(ctx context.Context, relType string, props ...string) error {
	return g.DropConstraint(ctx, cypher.ConstraintSpec{Type: cypher.MandatoryConstraint, Entity: cypher.EdgeEntity, Label: relType, Properties: props})
}

// ListConstraints returns the output of DB.CONSTRAINTS().
func (g *Graph) ListConstraints(ctx context.Context) (*ResultSet, error) {
	return g.CallProcedure(ctx, "DB.CONSTRAINTS", nil, nil)
}

// normalizeError makes sure every failure leaving the client is one of the
// documented kinds, whatever the Executor returned.
func normalizeError(cmd string, err error) error {
	if err == nil {
		return nil
	}
	var (
		qe *QueryError
		se *SchemaStaleError
		te *TransportError
	)
	switch {
	case errors.Is(err, ErrClosed),
		errors.Is(err, context.Canceled),
		errors.Is(err, context.DeadlineExceeded),
		errors.As(err, &qe),
		errors.As(err, &se),
		errors.As(err, &te):
		return err
	}
	return classifyTransport(cmd, err)
}

// shortQuery trims a query for log fields.
func shortQuery(q string) string {
	q = strings.Join(strings.Fields(q), " ")
	if len(q) > 120 {
		cut := 117
		for cut > 0 && !utf8.RuneStart(q[cut]) {
			cut--
		}
		return q[:cut] + "..."
	}
	return q
}

func newQueryID() string {
	return uuid.NewString()
}
