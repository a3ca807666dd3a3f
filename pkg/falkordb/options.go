package falkordb

import (
	"time"

	"github.com/sirupsen/logrus"

	"github.com/orneryd/falkorgraph/pkg/schema"
)

// Option configures a Client.
type Option func(*Client)

// WithLogger sets the logger. The default is the logrus standard logger.
func WithLogger(log *logrus.Entry) Option {
	return func(c *Client) {
		c.log = log
	}
}

// WithMetrics records query and schema metrics into m.
func WithMetrics(m *Metrics) Option {
	return func(c *Client) {
		c.metrics = m
	}
}

// WithSnapshotStore persists schema dictionaries between runs.
func WithSnapshotStore(store schema.SnapshotStore) Option {
	return func(c *Client) {
		c.store = store
	}
}

// WithDefaultTimeout sets the server side timeout sent with every query that
// does not set its own.
func WithDefaultTimeout(d time.Duration) Option {
	return func(c *Client) {
		c.defaultTimeout = d
	}
}

// QueryOption configures a single query.
type QueryOption func(*queryOptions)

type queryOptions struct {
	timeout time.Duration
}

// WithTimeout asks the server to abort the query after d. It is sent in
// whole milliseconds; zero disables the timeout for this query.
func WithTimeout(d time.Duration) QueryOption {
	return func(o *queryOptions) {
		o.timeout = d
	}
}
