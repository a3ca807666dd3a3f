package main

import (
	"encoding/csv"
	"fmt"
	"math"
	"os"
	"path/filepath"
	"slices"
	"strconv"
	"time"
)

type summary struct {
	label        string
	totalOps     int
	totalSeconds float64
	latencies    []time.Duration
}

func (s summary) opsPerSec() float64 {
	if s.totalSeconds <= 0 {
		return 0
	}
	return float64(s.totalOps) / s.totalSeconds
}

type latency struct {
	p50, p95, p99, min, max, mean time.Duration
}

func latencyStats(durs []time.Duration) latency {
	if len(durs) == 0 {
		return latency{}
	}
	cp := slices.Clone(durs)
	slices.Sort(cp)

	var sum time.Duration
	for _, d := range cp {
		sum += d
	}
	at := func(q float64) time.Duration { return cp[int(float64(len(cp)-1)*q)] }
	return latency{
		p50:  at(0.50),
		p95:  at(0.95),
		p99:  at(0.99),
		min:  cp[0],
		max:  cp[len(cp)-1],
		mean: sum / time.Duration(len(cp)),
	}
}

func ms(d time.Duration) float64 { return d.Seconds() * 1000 }

func printSummary(name string, s summary) {
	l := latencyStats(s.latencies)
	logf("%s: ops=%d secs=%.3f ops/sec=%.2f", name, s.totalOps, s.totalSeconds, s.opsPerSec())
	logf("%s: latency ms: min=%.3f p50=%.3f p95=%.3f p99=%.3f max=%.3f mean=%.3f",
		name, ms(l.min), ms(l.p50), ms(l.p95), ms(l.p99), ms(l.max), ms(l.mean))
	logf("%s: histogram (ms)", name)
	for _, line := range histogram(s.latencies) {
		logf("  %s", line)
	}
}

// histogram buckets samples by log2 milliseconds with a leading <1ms bucket.
func histogram(durs []time.Duration) []string {
	if len(durs) == 0 {
		return []string{"(no samples)"}
	}
	buckets := make([]int, 17)
	for _, d := range durs {
		v := ms(d)
		if v < 1 {
			buckets[0]++
			continue
		}
		b := int(math.Floor(math.Log2(v))) + 1
		buckets[min(max(b, 1), len(buckets)-1)]++
	}

	var out []string
	for i, c := range buckets {
		if c == 0 {
			continue
		}
		lo, hi := "0", "1"
		if i > 0 {
			lo = fmt.Sprintf("%.0f", math.Pow(2, float64(i-1)))
			hi = fmt.Sprintf("%.0f", math.Pow(2, float64(i)))
		}
		out = append(out, fmt.Sprintf("[%s,%s)ms: %d (%.2f%%)", lo, hi, c, 100*float64(c)/float64(len(durs))))
	}
	return out
}

type csvRow struct {
	Timestamp string
	Scenario  string
	Points    int
	Dim       int
	K         int
	Conc      int
	Ops       int
	Seconds   float64
	OpsPerSec float64
	Latency   latency
}

var csvHeader = []string{
	"timestamp", "scenario", "points", "dim", "k", "concurrency",
	"ops", "seconds", "ops_per_sec",
	"p50_ms", "p95_ms", "p99_ms", "mean_ms", "min_ms", "max_ms",
}

func rowFromSummary(scenario string, points, dim, k, conc int, s summary) csvRow {
	return csvRow{
		Timestamp: time.Now().UTC().Format(time.RFC3339),
		Scenario:  scenario,
		Points:    points,
		Dim:       dim,
		K:         k,
		Conc:      conc,
		Ops:       s.totalOps,
		Seconds:   s.totalSeconds,
		OpsPerSec: s.opsPerSec(),
		Latency:   latencyStats(s.latencies),
	}
}

func (r csvRow) record() []string {
	f := func(v float64) string { return strconv.FormatFloat(v, 'f', 6, 64) }
	return []string{
		r.Timestamp,
		r.Scenario,
		strconv.Itoa(r.Points),
		strconv.Itoa(r.Dim),
		strconv.Itoa(r.K),
		strconv.Itoa(r.Conc),
		strconv.Itoa(r.Ops),
		f(r.Seconds),
		f(r.OpsPerSec),
		f(ms(r.Latency.p50)),
		f(ms(r.Latency.p95)),
		f(ms(r.Latency.p99)),
		f(ms(r.Latency.mean)),
		f(ms(r.Latency.min)),
		f(ms(r.Latency.max)),
	}
}

// appendCSV appends rows to path, writing the header only into an empty file.
func appendCSV(path string, rows []csvRow) (err error) {
	if len(rows) == 0 {
		return nil
	}
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return err
	}

	needHeader := true
	if st, statErr := os.Stat(path); statErr == nil && st.Size() > 0 {
		needHeader = false
	}

	f, err := os.OpenFile(path, os.O_CREATE|os.O_APPEND|os.O_WRONLY, 0o644)
	if err != nil {
		return err
	}

	w := csv.NewWriter(f)
	defer func() {
		w.Flush()
		if flushErr := w.Error(); flushErr != nil && err == nil {
			err = flushErr
		}
		if closeErr := f.Close(); closeErr != nil && err == nil {
			err = closeErr
		}
	}()

	if needHeader {
		if err := w.Write(csvHeader); err != nil {
			return err
		}
	}
	for _, r := range rows {
		if err := w.Write(r.record()); err != nil {
			return err
		}
	}
	return nil
}
