// Package reply decodes compact graph query replies into typed values.
//
// A compact reply compresses every value as a [typeTag, payload] pair and
// replaces label, property key and relationship type names with positions in
// the graph's schema dictionaries. The Decoder expands both, resolving names
// through a Resolver (normally a *schema.Cache).
//
// Replies are the values returned by redigo: []any for arrays, int64 for
// integers, []byte or string for bulk and status strings, redis.Error for
// error elements and nil for the null reply.
package reply

import (
	"context"
	"fmt"
	"strconv"

	"github.com/gomodule/redigo/redis"

	"github.com/orneryd/falkorgraph/pkg/schema"
	"github.com/orneryd/falkorgraph/pkg/value"
)

// Wire type tags.
const (
	tagUnknown = 0
	tagNull    = 1
	tagString  = 2
	tagInt64   = 3
	tagBoolean = 4
	tagDouble  = 5
	tagArray   = 6
	tagEdge    = 7
	tagNode    = 8
	tagPath    = 9
	tagMap     = 10
	tagPoint   = 11
	tagVector  = 12
)

// Resolver maps a dictionary index to its name.
type Resolver interface {
	Resolve(ctx context.Context, kind schema.Kind, idx int64) (string, error)
}

// Decoder turns compact reply elements into values. It holds no state of
// its own and is safe for concurrent use when its Resolver is.
type Decoder struct {
	resolver Resolver
}

// NewDecoder returns a decoder resolving names through r.
func NewDecoder(r Resolver) *Decoder {
	return &Decoder{resolver: r}
}

// DecodeScalar decodes one [typeTag, payload] element.
//
// An unrecognised tag yields value.Unknown rather than an error.
func (d *Decoder) DecodeScalar(ctx context.Context, node any) (value.Value, error) {
	if e, ok := node.(redis.Error); ok {
		return nil, ClassifyError(e)
	}
	pair, ok := node.([]any)
	if !ok || len(pair) != 2 {
		return nil, malformed("expected [type, value] pair, got %s", describe(node))
	}
	tag, err := asInt64(pair[0])
	if err != nil {
		return nil, withPath("type", err)
	}
	payload := pair[1]
	if e, ok := payload.(redis.Error); ok {
		return nil, ClassifyError(e)
	}

	switch tag {
	case tagNull:
		return value.Null{}, nil
	case tagString:
		s, err := asString(payload)
		if err != nil {
			return nil, withPath("string", err)
		}
		return value.String(s), nil
	case tagInt64:
		n, err := asInt64(payload)
		if err != nil {
			return nil, withPath("int64", err)
		}
		return value.Int64(n), nil
	case tagBoolean:
		b, err := asBool(payload)
		if err != nil {
			return nil, withPath("boolean", err)
		}
		return value.Boolean(b), nil
	case tagDouble:
		f, err := asFloat64(payload)
		if err != nil {
			return nil, withPath("double", err)
		}
		return value.Double(f), nil
	case tagArray:
		arr, err := d.decodeArray(ctx, payload)
		return arr, withPath("array", err)
	case tagEdge:
		e, err := d.DecodeEdge(ctx, payload)
		if err != nil {
			return nil, withPath("edge", err)
		}
		return e, nil
	case tagNode:
		n, err := d.DecodeNode(ctx, payload)
		if err != nil {
			return nil, withPath("node", err)
		}
		return n, nil
	case tagPath:
		p, err := d.DecodePath(ctx, payload)
		if err != nil {
			return nil, withPath("path", err)
		}
		return p, nil
	case tagMap:
		m, err := d.decodeMap(ctx, payload)
		return m, withPath("map", err)
	case tagPoint:
		p, err := decodePoint(payload)
		return p, withPath("point", err)
	case tagVector:
		v, err := decodeVector(payload)
		return v, withPath("vector", err)
	default:
		return value.Unknown{Tag: tag, Payload: payload}, nil
	}
}

func (d *Decoder) decodeArray(ctx context.Context, payload any) (value.Value, error) {
	items, err := asArray(payload)
	if err != nil {
		return nil, err
	}
	out := make(value.Array, len(items))
	for i, item := range items {
		v, err := d.DecodeScalar(ctx, item)
		if err != nil {
			return nil, withPath("["+strconv.Itoa(i)+"]", err)
		}
		out[i] = v
	}
	return out, nil
}

// decodeMap reads a flat key, value sequence. A repeated key keeps the last
// value.
func (d *Decoder) decodeMap(ctx context.Context, payload any) (value.Value, error) {
	items, err := asArray(payload)
	if err != nil {
		return nil, err
	}
	if len(items)%2 != 0 {
		return nil, malformed("odd number of map elements (%d)", len(items))
	}
	out := make(value.Map, len(items)/2)
	for i := 0; i < len(items); i += 2 {
		key, err := asString(items[i])
		if err != nil {
			return nil, withPath("key["+strconv.Itoa(i/2)+"]", err)
		}
		v, err := d.DecodeScalar(ctx, items[i+1])
		if err != nil {
			return nil, withPath(key, err)
		}
		out[key] = v
	}
	return out, nil
}

// DecodeNode assembles a node from [id, [labelIdx...], [[propIdx, tag, value]...]].
func (d *Decoder) DecodeNode(ctx context.Context, payload any) (*value.Node, error) {
	parts, err := asArray(payload)
	if err != nil {
		return nil, err
	}
	if len(parts) != 3 {
		return nil, malformed("expected [id, labels, properties], got %d elements", len(parts))
	}
	id, err := asInt64(parts[0])
	if err != nil {
		return nil, withPath("id", err)
	}
	labelIdxs, err := asArray(parts[1])
	if err != nil {
		return nil, withPath("labels", err)
	}

	n := &value.Node{ID: id}
	for i, raw := range labelIdxs {
		idx, err := asInt64(raw)
		if err != nil {
			return nil, withPath("labels["+strconv.Itoa(i)+"]", err)
		}
		label, err := d.resolver.Resolve(ctx, schema.Label, idx)
		if err != nil {
			return nil, withPath("labels["+strconv.Itoa(i)+"]", err)
		}
		n.AddLabel(label)
	}
	if err := d.decodeProperties(ctx, parts[2], &n.Properties); err != nil {
		return nil, withPath("properties", err)
	}
	return n, nil
}

// DecodeEdge assembles an edge from [id, relTypeIdx, srcID, dstID, properties].
func (d *Decoder) DecodeEdge(ctx context.Context, payload any) (*value.Edge, error) {
	parts, err := asArray(payload)
	if err != nil {
		return nil, err
	}
	if len(parts) != 5 {
		return nil, malformed("expected [id, type, source, destination, properties], got %d elements", len(parts))
	}
	var ids [4]int64
	for i, field := range [4]string{"id", "type", "source", "destination"} {
		if ids[i], err = asInt64(parts[i]); err != nil {
			return nil, withPath(field, err)
		}
	}
	relType, err := d.resolver.Resolve(ctx, schema.RelationshipType, ids[1])
	if err != nil {
		return nil, withPath("type", err)
	}

	e := &value.Edge{ID: ids[0], Type: relType, Source: ids[2], Destination: ids[3]}
	if err := d.decodeProperties(ctx, parts[4], &e.Properties); err != nil {
		return nil, withPath("properties", err)
	}
	return e, nil
}

func (d *Decoder) decodeProperties(ctx context.Context, raw any, props *value.Properties) error {
	entries, err := asArray(raw)
	if err != nil {
		return err
	}
	for i, entry := range entries {
		triple, err := asArray(entry)
		if err != nil {
			return withPath("["+strconv.Itoa(i)+"]", err)
		}
		if len(triple) != 3 {
			return withPath("["+strconv.Itoa(i)+"]", malformed("expected [key, type, value], got %d elements", len(triple)))
		}
		idx, err := asInt64(triple[0])
		if err != nil {
			return withPath("["+strconv.Itoa(i)+"]", err)
		}
		name, err := d.resolver.Resolve(ctx, schema.PropertyKey, idx)
		if err != nil {
			return withPath("["+strconv.Itoa(i)+"]", err)
		}
		v, err := d.DecodeScalar(ctx, []any{triple[1], triple[2]})
		if err != nil {
			return withPath(name, err)
		}
		props.Set(name, v)
	}
	return nil
}

// DecodePath assembles a path from [array(nodes), array(edges)]. An empty
// payload is the empty path.
func (d *Decoder) DecodePath(ctx context.Context, payload any) (*value.Path, error) {
	parts, err := asArray(payload)
	if err != nil {
		return nil, err
	}
	if len(parts) == 0 {
		return value.NewPath(nil, nil)
	}
	if len(parts) != 2 {
		return nil, malformed("expected [nodes, edges], got %d elements", len(parts))
	}

	nodesVal, err := d.DecodeScalar(ctx, parts[0])
	if err != nil {
		return nil, withPath("nodes", err)
	}
	edgesVal, err := d.DecodeScalar(ctx, parts[1])
	if err != nil {
		return nil, withPath("edges", err)
	}
	nodes, ok := nodesVal.(value.Array)
	if !ok {
		return nil, withPath("nodes", malformed("expected array, got %s", nodesVal.Kind()))
	}
	edges, ok := edgesVal.(value.Array)
	if !ok {
		return nil, withPath("edges", malformed("expected array, got %s", edgesVal.Kind()))
	}
	if len(nodes) == 0 && len(edges) == 0 {
		return value.NewPath(nil, nil)
	}
	if len(nodes) != len(edges)+1 {
		return nil, &DecodeError{Err: fmt.Errorf("%w: %d nodes, %d edges", value.ErrPathIncomplete, len(nodes), len(edges))}
	}

	b := value.NewPathBuilder(len(nodes))
	for i, nv := range nodes {
		n, ok := nv.(*value.Node)
		if !ok {
			return nil, withPath("nodes["+strconv.Itoa(i)+"]", malformed("expected node, got %s", nv.Kind()))
		}
		if err := b.AppendNode(n); err != nil {
			return nil, &DecodeError{Err: err}
		}
		if i == len(edges) {
			break
		}
		e, ok := edges[i].(*value.Edge)
		if !ok {
			return nil, withPath("edges["+strconv.Itoa(i)+"]", malformed("expected edge, got %s", edges[i].Kind()))
		}
		if err := b.AppendEdge(e); err != nil {
			return nil, &DecodeError{Err: err}
		}
	}
	p, err := b.Build()
	if err != nil {
		return nil, &DecodeError{Err: err}
	}
	return p, nil
}

// decodePoint reads [latitude, longitude].
func decodePoint(payload any) (value.Value, error) {
	parts, err := asArray(payload)
	if err != nil {
		return nil, err
	}
	if len(parts) != 2 {
		return nil, malformed("expected [latitude, longitude], got %d elements", len(parts))
	}
	lat, err := asNumber(parts[0])
	if err != nil {
		return nil, withPath("latitude", err)
	}
	lon, err := asNumber(parts[1])
	if err != nil {
		return nil, withPath("longitude", err)
	}
	return value.Point{X: lat, Y: lon}, nil
}

func decodeVector(payload any) (value.Value, error) {
	parts, err := asArray(payload)
	if err != nil {
		return nil, err
	}
	out := make(value.Vector, len(parts))
	for i, p := range parts {
		f, err := asNumber(p)
		if err != nil {
			return nil, withPath("["+strconv.Itoa(i)+"]", err)
		}
		out[i] = f
	}
	return out, nil
}

// DecodeCell decodes one cell of a result row according to its column type.
// Scalar and unknown columns carry [typeTag, payload]; node and relation
// columns carry the bare entity payload.
func (d *Decoder) DecodeCell(ctx context.Context, col ColumnType, cell any) (value.Value, error) {
	if e, ok := cell.(redis.Error); ok {
		return nil, ClassifyError(e)
	}
	switch col {
	case ColumnNode:
		if cell == nil {
			return value.Null{}, nil
		}
		n, err := d.DecodeNode(ctx, cell)
		if err != nil {
			return nil, withPath("node", err)
		}
		return n, nil
	case ColumnRelation:
		if cell == nil {
			return value.Null{}, nil
		}
		e, err := d.DecodeEdge(ctx, cell)
		if err != nil {
			return nil, withPath("edge", err)
		}
		return e, nil
	default:
		return d.DecodeScalar(ctx, cell)
	}
}

// DecodeRows decodes every row of a result against its header. Row order is
// preserved. The first failing cell aborts the whole decode.
func (d *Decoder) DecodeRows(ctx context.Context, h Header, raw any) ([][]value.Value, error) {
	rows, err := asArray(raw)
	if err != nil {
		return nil, withPath("rows", err)
	}
	out := make([][]value.Value, len(rows))
	for r, rawRow := range rows {
		if err := ctx.Err(); err != nil {
			return nil, err
		}
		cells, err := asArray(rawRow)
		if err != nil {
			return nil, withPath("row "+strconv.Itoa(r), err)
		}
		if len(cells) != h.Len() {
			return nil, withPath("row "+strconv.Itoa(r), malformed("expected %d columns, got %d", h.Len(), len(cells)))
		}
		row := make([]value.Value, len(cells))
		for c, cell := range cells {
			v, err := d.DecodeCell(ctx, h.Type(c), cell)
			if err != nil {
				return nil, withPath("row "+strconv.Itoa(r)+" column "+strconv.Itoa(c), err)
			}
			row[c] = v
		}
		out[r] = row
	}
	return out, nil
}
