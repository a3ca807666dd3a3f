package reply

import (
	"errors"
	"fmt"
	"strings"

	"github.com/gomodule/redigo/redis"
)

// Reply error types
var (
	ErrSchemaStale = errors.New("schema version mismatch")
	ErrMalformed   = errors.New("malformed reply")
)

// staleMarker is the server text announcing a schema version mismatch.
const staleMarker = "version mismatch"

// QueryError is an error the server reported for a query, either as the
// whole reply or as an element inside it.
type QueryError struct {
	Message string
}

func (e *QueryError) Error() string {
	return "query failed: " + e.Message
}

// SchemaStaleError reports that the server's dictionaries moved past the
// client's cached copy. Version is the server schema version when it was sent.
type SchemaStaleError struct {
	Version    int64
	HasVersion bool
}

func (e *SchemaStaleError) Error() string {
	if e.HasVersion {
		return fmt.Sprintf("%s (server version %d)", ErrSchemaStale.Error(), e.Version)
	}
	return ErrSchemaStale.Error()
}

// Is matches ErrSchemaStale.
func (e *SchemaStaleError) Is(target error) bool {
	return target == ErrSchemaStale
}

// DecodeError reports a reply element whose shape does not match its type tag.
// Path locates the element, e.g. "row 2 column 1: node: labels[0]".
type DecodeError struct {
	Path string
	Err  error
}

func (e *DecodeError) Error() string {
	if e.Path == "" {
		return "decode: " + e.Err.Error()
	}
	return "decode " + e.Path + ": " + e.Err.Error()
}

func (e *DecodeError) Unwrap() error { return e.Err }

func malformed(format string, args ...any) error {
	return &DecodeError{Err: fmt.Errorf("%w: "+format, append([]any{ErrMalformed}, args...)...)}
}

// withPath prefixes the location of a nested failure. Query errors pass
// through untouched so callers can tell server failures from bad replies.
func withPath(prefix string, err error) error {
	if err == nil {
		return nil
	}
	if de, ok := err.(*DecodeError); ok {
		p := prefix
		if de.Path != "" {
			p += ": " + de.Path
		}
		return &DecodeError{Path: p, Err: de.Err}
	}
	var qe *QueryError
	if errors.As(err, &qe) {
		return err
	}
	return fmt.Errorf("%s: %w", prefix, err)
}

// IsStaleMessage reports whether a server error text is the stale schema
// signal.
func IsStaleMessage(msg string) bool {
	return strings.Contains(strings.ToLower(msg), staleMarker)
}

// ClassifyError converts a server error reply into a *SchemaStaleError or
// *QueryError.
func ClassifyError(e redis.Error) error {
	if IsStaleMessage(string(e)) {
		return &SchemaStaleError{}
	}
	return &QueryError{Message: string(e)}
}

// ScanErrors inspects the top level elements of a reply before any of it is
// decoded. A stale signal in the first element wins over any other error;
// element 1 then carries the server version when present.
func ScanErrors(elements []any) error {
	if len(elements) == 0 {
		return nil
	}
	if isStaleElement(elements[0]) {
		stale := &SchemaStaleError{}
		if len(elements) > 1 {
			if v, ok := elements[1].(int64); ok {
				stale.Version, stale.HasVersion = v, true
			}
		}
		return stale
	}
	for _, el := range elements {
		if e, ok := el.(redis.Error); ok {
			return ClassifyError(e)
		}
	}
	return nil
}

func isStaleElement(el any) bool {
	switch v := el.(type) {
	case redis.Error:
		return IsStaleMessage(string(v))
	case []byte:
		return IsStaleMessage(string(v))
	case string:
		return IsStaleMessage(v)
	}
	return false
}
