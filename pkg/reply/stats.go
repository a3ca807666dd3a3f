package reply

import (
	"sort"
	"strconv"
	"strings"
	"time"
)

// Statistic labels as reported by the server.
const (
	StatLabelsAdded                = "Labels added"
	StatLabelsRemoved              = "Labels removed"
	StatNodesCreated               = "Nodes created"
	StatNodesDeleted               = "Nodes deleted"
	StatPropertiesSet              = "Properties set"
	StatPropertiesRemoved          = "Properties removed"
	StatRelationshipsCreated       = "Relationships created"
	StatRelationshipsDeleted       = "Relationships deleted"
	StatIndicesCreated             = "Indices created"
	StatIndicesDeleted             = "Indices deleted"
	StatCachedExecution            = "Cached execution"
	StatQueryInternalExecutionTime = "Query internal execution time"
)

// Statistics holds the counters reported with a result. A label that the
// server did not report is absent, which is different from a zero counter.
type Statistics struct {
	values map[string]string
}

// ParseStatistics reads "Label: value" lines. A single status string is
// accepted as one line.
func ParseStatistics(raw any) (Statistics, error) {
	s := Statistics{values: make(map[string]string)}
	var lines []any
	switch v := raw.(type) {
	case nil:
		return s, nil
	case []any:
		lines = v
	default:
		lines = []any{v}
	}
	for i, line := range lines {
		text, err := asString(line)
		if err != nil {
			return Statistics{}, withPath("statistics["+strconv.Itoa(i)+"]", err)
		}
		name, val, ok := strings.Cut(text, ":")
		if !ok {
			// Status replies such as "OK" carry no counter.
			continue
		}
		s.values[strings.TrimSpace(name)] = strings.TrimSpace(val)
	}
	return s, nil
}

// Get returns the raw reported text for label.
func (s Statistics) Get(label string) (string, bool) {
	v, ok := s.values[label]
	return v, ok
}

// Int returns the integer counter for label.
func (s Statistics) Int(label string) (int, bool) {
	v, ok := s.values[label]
	if !ok {
		return 0, false
	}
	n, err := strconv.Atoi(firstField(v))
	if err != nil {
		return 0, false
	}
	return n, true
}

// Labels returns the reported labels sorted by name.
func (s Statistics) Labels() []string {
	out := make([]string, 0, len(s.values))
	for k := range s.values {
		out = append(out, k)
	}
	sort.Strings(out)
	return out
}

// Len returns the number of reported statistics.
func (s Statistics) Len() int { return len(s.values) }

func (s Statistics) counter(label string) int {
	n, _ := s.Int(label)
	return n
}

func (s Statistics) LabelsAdded() int          { return s.counter(StatLabelsAdded) }
func (s Statistics) LabelsRemoved() int        { return s.counter(StatLabelsRemoved) }
func (s Statistics) NodesCreated() int         { return s.counter(StatNodesCreated) }
func (s Statistics) NodesDeleted() int         { return s.counter(StatNodesDeleted) }
func (s Statistics) PropertiesSet() int        { return s.counter(StatPropertiesSet) }
func (s Statistics) PropertiesRemoved() int    { return s.counter(StatPropertiesRemoved) }
func (s Statistics) RelationshipsCreated() int { return s.counter(StatRelationshipsCreated) }
func (s Statistics) RelationshipsDeleted() int { return s.counter(StatRelationshipsDeleted) }
func (s Statistics) IndicesCreated() int       { return s.counter(StatIndicesCreated) }
func (s Statistics) IndicesDeleted() int       { return s.counter(StatIndicesDeleted) }

// CachedExecution reports whether the server reused a cached plan.
func (s Statistics) CachedExecution() bool {
	return s.counter(StatCachedExecution) == 1
}

// ExecutionTime is the server side execution time. The server reports
// fractional milliseconds.
func (s Statistics) ExecutionTime() time.Duration {
	v, ok := s.values[StatQueryInternalExecutionTime]
	if !ok {
		return 0
	}
	ms, err := strconv.ParseFloat(firstField(v), 64)
	if err != nil {
		return 0
	}
	return time.Duration(ms * float64(time.Millisecond))
}

func (s Statistics) String() string {
	labels := s.Labels()
	parts := make([]string, len(labels))
	for i, l := range labels {
		parts[i] = l + ": " + s.values[l]
	}
	return strings.Join(parts, "\n")
}

func firstField(v string) string {
	if i := strings.IndexByte(v, ' '); i >= 0 {
		return v[:i]
	}
	return v
}
