package falkordb

import (
	"context"
	"errors"
	"strings"
	"sync"

	"github.com/sirupsen/logrus"
	"github.com/sirupsen/logrus/hooks/test"
)

// bigInt needs more than 32 bits.
const bigInt int64 = 1 << 40

type call struct {
	cmd  string
	args []any
}

func (c call) query() string {
	if len(c.args) < 2 {
		return ""
	}
	s, _ := c.args[1].(string)
	return s
}

// fakeExecutor answers commands from a handler and records every call.
type fakeExecutor struct {
	mu     sync.Mutex
	calls  []call
	handle func(cmd string, args []any) (any, error)
}

func (f *fakeExecutor) Execute(ctx context.Context, cmd string, args ...any) (any, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	f.mu.Lock()
	f.calls = append(f.calls, call{cmd: cmd, args: args})
	f.mu.Unlock()
	return f.handle(cmd, args)
}

func (f *fakeExecutor) recorded() []call {
	f.mu.Lock()
	defer f.mu.Unlock()
	out := make([]call, len(f.calls))
	copy(out, f.calls)
	return out
}

// countQuery counts calls whose query text starts with prefix.
func (f *fakeExecutor) countQuery(prefix string) int {
	n := 0
	for _, c := range f.recorded() {
		if strings.HasPrefix(c.query(), prefix) {
			n++
		}
	}
	return n
}

// fakeServer serves schema procedures from tables and hands every other
// query to queries.
type fakeServer struct {
	mu      sync.Mutex
	tables  map[string][]string
	queries func(cmd, query string) (any, error)
}

func newFakeServer(queries func(cmd, query string) (any, error)) *fakeServer {
	return &fakeServer{
		tables: map[string][]string{
			"db.labels":            {"Person", "City"},
			"db.propertyKeys":      {"name", "age", "since"},
			"db.relationshipTypes": {"KNOWS", "LIVES_IN"},
		},
		queries: queries,
	}
}

func (s *fakeServer) handle(cmd string, args []any) (any, error) {
	if len(args) < 2 {
		return nil, errors.New("bad args")
	}
	q, _ := args[1].(string)
	for proc := range s.tables {
		if q == "CALL "+proc+"()" {
			s.mu.Lock()
			names := s.tables[proc]
			s.mu.Unlock()
			return procedureReply(names), nil
		}
	}
	return s.queries(cmd, q)
}

func (s *fakeServer) setTable(proc string, names ...string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.tables[proc] = names
}

func procedureReply(names []string) []any {
	rows := make([]any, len(names))
	for i, n := range names {
		rows[i] = []any{[]any{int64(2), []byte(n)}}
	}
	return []any{
		[]any{[]any{int64(1), []byte("name")}},
		rows,
		[]any{[]byte("Cached execution: 0")},
	}
}

func col(t int64, name string) []any { return []any{t, []byte(name)} }

func cell(tag int64, payload any) []any { return []any{tag, payload} }

// table builds a three element compact reply.
func table(header []any, rows ...[]any) []any {
	rs := make([]any, len(rows))
	for i, r := range rows {
		rs[i] = r
	}
	return []any{header, rs, []any{[]byte("Query internal execution time: 0.25 milliseconds")}}
}

// personNode is a compact Person node with name and age properties.
func personNode(id int64, name string, age int64) []any {
	return []any{
		id,
		[]any{int64(0)},
		[]any{
			[]any{int64(0), int64(2), []byte(name)},
			[]any{int64(1), int64(3), age},
		},
	}
}

func newTestClient(handle func(cmd string, args []any) (any, error), opts ...Option) (*Client, *fakeExecutor, *test.Hook) {
	logger, hook := test.NewNullLogger()
	logger.SetLevel(logrus.DebugLevel)
	exec := &fakeExecutor{handle: handle}
	opts = append([]Option{WithLogger(logrus.NewEntry(logger))}, opts...)
	return New(exec, opts...), exec, hook
}
