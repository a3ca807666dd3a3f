package falkordb

import (
	"context"
	"fmt"
	"io"
	"iter"
	"strings"
	"text/tabwriter"

	"github.com/gomodule/redigo/redis"

	"github.com/orneryd/falkorgraph/pkg/reply"
	"github.com/orneryd/falkorgraph/pkg/value"
)

// ResultSet is a fully decoded query result. Row access is safe for
// concurrent use; the Next/Record cursor is not.
type ResultSet struct {
	header reply.Header
	rows   [][]value.Value
	stats  reply.Statistics

	pos int
}

// assemble splits a raw reply into header, rows and statistics. Every top
// level element is scanned for errors before anything is decoded, and a
// ResultSet is returned only when every row decoded.
func assemble(ctx context.Context, dec *reply.Decoder, raw any) (*ResultSet, error) {
	rs := &ResultSet{pos: -1}

	switch r := raw.(type) {
	case redis.Error:
		return nil, reply.ClassifyError(r)

	case []any:
		if err := reply.ScanErrors(r); err != nil {
			return nil, err
		}
		if len(r) == 3 {
			header, err := reply.ParseHeader(r[0])
			if err != nil {
				return nil, err
			}
			rows, err := dec.DecodeRows(ctx, header, r[1])
			if err != nil {
				return nil, err
			}
			stats, err := reply.ParseStatistics(r[2])
			if err != nil {
				return nil, err
			}
			rs.header, rs.rows, rs.stats = header, rows, stats
			return rs, nil
		}
		// Write-only queries reply with statistics alone.
		var last any
		if len(r) > 0 {
			last = r[len(r)-1]
		}
		stats, err := reply.ParseStatistics(last)
		if err != nil {
			return nil, err
		}
		rs.stats = stats
		return rs, nil

	default:
		stats, err := reply.ParseStatistics(raw)
		if err != nil {
			return nil, err
		}
		rs.stats = stats
		return rs, nil
	}
}

// Header returns the column names and types.
func (rs *ResultSet) Header() reply.Header { return rs.header }

// Statistics returns the counters the server reported.
func (rs *ResultSet) Statistics() reply.Statistics { return rs.stats }

// Len returns the number of rows.
func (rs *ResultSet) Len() int { return len(rs.rows) }

// Empty reports whether the result has no rows.
func (rs *ResultSet) Empty() bool { return len(rs.rows) == 0 }

// Row returns row i, or nil when out of range.
func (rs *ResultSet) Row(i int) *Record {
	if i < 0 || i >= len(rs.rows) {
		return nil
	}
	return &Record{header: rs.header, values: rs.rows[i]}
}

// First returns the first row or ErrNoRows.
func (rs *ResultSet) First() (*Record, error) {
	if rs.Empty() {
		return nil, ErrNoRows
	}
	return rs.Row(0), nil
}

// Records iterates over the rows in order. Each call starts from the
// first row.
func (rs *ResultSet) Records() iter.Seq2[int, *Record] {
	return func(yield func(int, *Record) bool) {
		for i := range rs.rows {
			if !yield(i, rs.Row(i)) {
				return
			}
		}
	}
}

// Next advances the cursor and reports whether a row is available.
func (rs *ResultSet) Next() bool {
	if rs.pos+1 >= len(rs.rows) {
		rs.pos = len(rs.rows)
		return false
	}
	rs.pos++
	return true
}

// Record returns the row under the cursor, or nil before the first Next or
// after the last.
func (rs *ResultSet) Record() *Record {
	return rs.Row(rs.pos)
}

// Reset moves the cursor back before the first row.
func (rs *ResultSet) Reset() { rs.pos = -1 }

// PrettyPrint writes the rows as an aligned table followed by the
// statistics.
func (rs *ResultSet) PrettyPrint(w io.Writer) error {
	tw := tabwriter.NewWriter(w, 0, 0, 2, ' ', 0)
	if rs.header.Len() > 0 {
		names := rs.header.Names()
		fmt.Fprintln(tw, strings.Join(names, "\t"))
		rule := make([]string, len(names))
		for i, n := range names {
			rule[i] = strings.Repeat("-", max(len(n), 3))
		}
		fmt.Fprintln(tw, strings.Join(rule, "\t"))
		for _, row := range rs.rows {
			cells := make([]string, len(row))
			for i, v := range row {
				cells[i] = value.Format(v)
			}
			fmt.Fprintln(tw, strings.Join(cells, "\t"))
		}
	}
	if err := tw.Flush(); err != nil {
		return err
	}
	if rs.header.Len() > 0 {
		if _, err := fmt.Fprintf(w, "\n%d row(s)\n", len(rs.rows)); err != nil {
			return err
		}
	}
	for _, label := range rs.stats.Labels() {
		v, _ := rs.stats.Get(label)
		if _, err := fmt.Fprintf(w, "%s: %s\n", label, v); err != nil {
			return err
		}
	}
	return nil
}
