package falkordb

import (
	"context"
	"time"

	"github.com/sirupsen/logrus"

	"github.com/orneryd/falkorgraph/pkg/cypher"
)

// attempt tracks where a query is in the stale schema protocol.
type attempt int

const (
	// attemptFirst is the initial send. A stale signal invalidates the
	// schema cache and moves to attemptRetried.
	attemptFirst attempt = iota
	// attemptRetried is the single resend. Any failure here is final.
	attemptRetried
)

func (a attempt) String() string {
	if a == attemptFirst {
		return "first"
	}
	return "retried"
}

// run prepares query, sends it and assembles the result, resending once when
// the server reports that the client's schema is stale.
func (g *Graph) run(ctx context.Context, cmd, query string, params map[string]any, opts []QueryOption) (*ResultSet, error) {
	if g.name == "" {
		return nil, ErrEmptyGraphName
	}
	prepared, err := cypher.PrepareQuery(query, params)
	if err != nil {
		return nil, err
	}
	args := g.queryArgs(prepared, opts)

	log := g.log.WithFields(logrus.Fields{
		"command":  cmd,
		"query_id": newQueryID(),
	})
	log.WithField("query", shortQuery(query)).Debug("sending query")

	start := time.Now()
	rs, err := g.send(ctx, log, cmd, args)
	g.client.metrics.observeQuery(g.name, cmd, start, err)
	if err != nil {
		log.WithError(err).Debug("query failed")
		return nil, err
	}
	log.WithFields(logrus.Fields{
		"rows":    rs.Len(),
		"elapsed": time.Since(start),
	}).Debug("query completed")
	return rs, nil
}

func (g *Graph) send(ctx context.Context, log *logrus.Entry, cmd string, args []any) (*ResultSet, error) {
	state := attemptFirst
	for {
		rs, err := g.attempt(ctx, cmd, args)
		if err == nil {
			return rs, nil
		}
		if !IsSchemaStale(err) || state == attemptRetried {
			return nil, err
		}

		log.WithError(err).WithField("attempt", state.String()).Warn("schema changed on server, invalidating and retrying once")
		g.cache.Invalidate()
		g.client.metrics.observeStaleRetry(g.name)
		state = attemptRetried
	}
}

// attempt is one round trip. A stale signal may come from the reply itself
// or from a dictionary fetch made while decoding it.
func (g *Graph) attempt(ctx context.Context, cmd string, args []any) (*ResultSet, error) {
	raw, err := g.client.do(ctx, cmd, args...)
	if err != nil {
		return nil, normalizeError(cmd, err)
	}
	return assemble(ctx, g.decoder, raw)
}
