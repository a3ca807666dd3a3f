package falkordb

import (
	"errors"

	"github.com/gomodule/redigo/redis"

	"github.com/orneryd/falkorgraph/pkg/reply"
)

// Client error types
var (
	ErrClosed         = errors.New("client is closed")
	ErrColumnNotFound = errors.New("column not found")
	ErrTypeMismatch   = errors.New("value has a different type")
	ErrNoRows         = errors.New("result has no rows")
	ErrEmptyGraphName = errors.New("graph name must not be empty")
)

// Server and reply errors, re-exported so callers need only this package.
type (
	QueryError       = reply.QueryError
	SchemaStaleError = reply.SchemaStaleError
	DecodeError      = reply.DecodeError
)

// ErrSchemaStale matches any stale schema failure with errors.Is.
var ErrSchemaStale = reply.ErrSchemaStale

// TransportError is a connectivity or protocol failure. The command may or
// may not have reached the server.
type TransportError struct {
	Command string
	Err     error
}

func (e *TransportError) Error() string {
	return "transport error on " + e.Command + ": " + e.Err.Error()
}

func (e *TransportError) Unwrap() error { return e.Err }

// classifyTransport sorts a command error into stale, query or transport.
func classifyTransport(cmd string, err error) error {
	var re redis.Error
	if errors.As(err, &re) {
		return reply.ClassifyError(re)
	}
	return &TransportError{Command: cmd, Err: err}
}

// IsSchemaStale reports whether err is a stale schema signal.
func IsSchemaStale(err error) bool {
	return errors.Is(err, reply.ErrSchemaStale)
}

// IsQueryError reports whether err is a server reported query failure.
func IsQueryError(err error) bool {
	var qe *reply.QueryError
	return errors.As(err, &qe)
}

// IsTransportError reports whether err is a connectivity failure.
func IsTransportError(err error) bool {
	var te *TransportError
	return errors.As(err, &te)
}

// IsDecodeError reports whether err is a malformed reply.
func IsDecodeError(err error) bool {
	var de *reply.DecodeError
	return errors.As(err, &de)
}
