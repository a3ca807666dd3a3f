package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"math"
	"os"
	"strings"
	"sync"
	"time"

	"github.com/sirupsen/logrus"

	"github.com/orneryd/falkorgraph/pkg/config"
	"github.com/orneryd/falkorgraph/pkg/falkordb"
	"github.com/orneryd/falkorgraph/pkg/value"
)

// Measures end-to-end query latency through the compact decoder against a
// live server: send, decode, resolve schema names, assemble.
//
//	go run ./testing/benchmarks/query_latency -addr localhost:6379 -scenarios scalar,node
func main() {
	var (
		addr          = flag.String("addr", "", "server address (default from FALKORDB_ADDRESS or localhost:6379)")
		graphName     = flag.String("graph", "bench_latency", "graph to seed and query")
		points        = flag.Int("points", 1000, "nodes to seed")
		dim           = flag.Int("dim", 32, "embedding dimension for the vector scenario")
		k             = flag.Int("k", 10, "rows per node/vector query")
		concurrency   = flag.Int("concurrency", 8, "concurrent workers")
		seconds       = flag.Int("seconds", 10, "measured seconds per scenario")
		warmupSeconds = flag.Int("warmup-seconds", 2, "warmup seconds per scenario (discarded)")
		scenariosFlag = flag.String("scenarios", "scalar,params,node,path,vector", "comma-separated scenarios")
		csvPath       = flag.String("csv", "", "append results to this CSV file")
		keep          = flag.Bool("keep", false, "keep the seeded graph after the run")
	)
	flag.Parse()

	scenarios, err := parseScenarios(*scenariosFlag)
	if err != nil {
		fatalf("%v", err)
	}

	cfg := config.LoadFromEnv()
	if *addr != "" {
		cfg.Server.Address = *addr
	}
	cfg.Pool.MaxActive = max(cfg.Pool.MaxActive, *concurrency)
	cfg.Pool.MaxIdle = max(cfg.Pool.MaxIdle, *concurrency)
	cfg.Metrics.Enabled = false
	if err := cfg.Validate(); err != nil {
		fatalf("invalid config: %v", err)
	}

	log := logrus.New()
	log.SetLevel(logrus.WarnLevel)
	client, err := falkordb.Connect(cfg, falkordb.WithLogger(logrus.NewEntry(log)))
	if err != nil {
		fatalf("connect %s: %v", cfg.Server.Address, err)
	}
	defer client.Close()

	g := client.SelectGraph(*graphName)
	ctx := context.Background()

	logf("seeding %d nodes (dim=%d) into %q", *points, *dim, *graphName)
	if err := seed(ctx, g, *points, *dim, contains(scenarios, scenarioVector)); err != nil {
		fatalf("seed: %v", err)
	}
	if !*keep {
		defer func() {
			if err := g.Delete(context.Background()); err != nil {
				logf("cleanup: %v", err)
			}
		}()
	}

	run := runConfig{
		concurrency: *concurrency,
		seconds:     time.Duration(*seconds) * time.Second,
		warmup:      time.Duration(*warmupSeconds) * time.Second,
	}
	query := deterministicVector(*dim)

	var rows []csvRow
	for _, sc := range scenarios {
		op := newOperation(g, sc, *points, *k, query)
		s := runBenchmark(string(sc), run, op)
		printSummary(string(sc), s)
		rows = append(rows, rowFromSummary(string(sc), *points, *dim, *k, *concurrency, s))
	}

	if *csvPath != "" {
		if err := appendCSV(*csvPath, rows); err != nil {
			fatalf("write csv: %v", err)
		}
		logf("appended %d row(s) to %s", len(rows), *csvPath)
	}
}

type scenario string

const (
	scenarioScalar scenario = "scalar"
	scenarioParams scenario = "params"
	scenarioNode   scenario = "node"
	scenarioPath   scenario = "path"
	scenarioVector scenario = "vector"
)

var knownScenarios = []scenario{scenarioScalar, scenarioParams, scenarioNode, scenarioPath, scenarioVector}

func parseScenarios(s string) ([]scenario, error) {
	var out []scenario
	for _, part := range strings.Split(s, ",") {
		part = strings.TrimSpace(strings.ToLower(part))
		if part == "" {
			continue
		}
		sc := scenario(part)
		if !contains(knownScenarios, sc) {
			return nil, fmt.Errorf("unknown scenario %q", part)
		}
		if !contains(out, sc) {
			out = append(out, sc)
		}
	}
	if len(out) == 0 {
		return nil, errors.New("no scenarios selected")
	}
	return out, nil
}

func contains(list []scenario, v scenario) bool {
	for _, s := range list {
		if s == v {
			return true
		}
	}
	return false
}

const benchLabel = "BenchNode"

func seed(ctx context.Context, g *falkordb.Graph, points, dim int, withIndex bool) error {
	const batch = 500
	for start := 0; start < points; start += batch {
		n := min(batch, points-start)
		items := make([]any, 0, n)
		for i := start; i < start+n; i++ {
			items = append(items, map[string]any{
				"id":        i,
				"name":      fmt.Sprintf("node-%d", i),
				"embedding": seedVector(i, dim),
			})
		}
		_, err := g.Query(ctx,
			"UNWIND $items AS it CREATE (:"+benchLabel+" {id: it.id, name: it.name, embedding: vecf32(it.embedding)})",
			map[string]any{"items": items})
		if err != nil {
			return err
		}
	}
	if _, err := g.Query(ctx,
		"MATCH (a:"+benchLabel+"), (b:"+benchLabel+") WHERE b.id = a.id + 1 CREATE (a)-[:NEXT {w: a.id}]->(b)",
		nil); err != nil {
		return err
	}
	if withIndex {
		if _, err := g.CreateNodeVectorIndex(ctx, benchLabel, dim, "cosine", "embedding"); err != nil {
			return fmt.Errorf("vector index: %w", err)
		}
	}
	return nil
}

func newOperation(g *falkordb.Graph, sc scenario, points, k int, q value.Vector) workerFn {
	switch sc {
	case scenarioParams:
		params := map[string]any{
			"s":    "it's a \"quoted\" string",
			"xs":   []int{1, 2, 3, 4, 5},
			"m":    map[string]any{"a": 1.5, "b": true, "c": nil},
			"when": 1700000000,
		}
		return func(ctx context.Context) error {
			_, err := g.ROQuery(ctx, "RETURN $s, $xs, $m, $when", params)
			return err
		}
	case scenarioNode:
		return func(ctx context.Context) error {
			rs, err := g.ROQuery(ctx, "MATCH (n:"+benchLabel+") RETURN n LIMIT $k", map[string]any{"k": k})
			if err != nil {
				return err
			}
			return expectRows(rs, k, points)
		}
	case scenarioPath:
		return func(ctx context.Context) error {
			_, err := g.ROQuery(ctx,
				"MATCH p = (:"+benchLabel+" {id: 0})-[:NEXT*1..3]->() RETURN p", nil)
			return err
		}
	case scenarioVector:
		return func(ctx context.Context) error {
			_, err := g.QueryVectorNodes(ctx, benchLabel, "embedding", k, q, "cosine")
			return err
		}
	default:
		return func(ctx context.Context) error {
			_, err := g.ROQuery(ctx, "RETURN 1, 2.5, 'x', true, null, [1, 2, 3]", nil)
			return err
		}
	}
}

func expectRows(rs *falkordb.ResultSet, k, points int) error {
	if want := min(k, points); rs.Len() != want {
		return fmt.Errorf("got %d rows, want %d", rs.Len(), want)
	}
	return nil
}

func seedVector(i, dim int) []float64 {
	v := make([]float64, dim)
	for j := range v {
		v[j] = math.Sin(float64((i+1)*(j+1))) * 0.5
	}
	return v
}

// deterministicVector is a stable query embedding for regression tracking.
func deterministicVector(dim int) value.Vector {
	v := make(value.Vector, dim)
	for i := range v {
		v[i] = math.Sin(float64(i+1)) * 0.5
	}
	return v
}

type runConfig struct {
	concurrency int
	seconds     time.Duration
	warmup      time.Duration
}

type workerFn func(ctx context.Context) error

func runBenchmark(label string, cfg runConfig, fn workerFn) summary {
	doRun := func(d time.Duration) (int, []time.Duration) {
		if d <= 0 {
			return 0, nil
		}
		ctx, cancel := context.WithTimeout(context.Background(), d)
		defer cancel()

		var (
			mu     sync.Mutex
			count  int
			latAll []time.Duration
		)

		var wg sync.WaitGroup
		for i := 0; i < cfg.concurrency; i++ {
			wg.Add(1)
			go func() {
				defer wg.Done()
				local := make([]time.Duration, 0, 1024)
				for ctx.Err() == nil {
					start := time.Now()
					err := fn(ctx)
					dur := time.Since(start)
					if err != nil {
						if ctx.Err() != nil || isContextDoneErr(err) {
							break
						}
						logf("[%s] op error: %v", label, err)
						break
					}
					local = append(local, dur)
				}
				mu.Lock()
				count += len(local)
				latAll = append(latAll, local...)
				mu.Unlock()
			}()
		}
		wg.Wait()
		return count, latAll
	}

	_, _ = doRun(cfg.warmup)

	start := time.Now()
	n, lat := doRun(cfg.seconds)
	return summary{
		label:        label,
		totalOps:     n,
		totalSeconds: time.Since(start).Seconds(),
		latencies:    lat,
	}
}

func isContextDoneErr(err error) bool {
	return errors.Is(err, context.DeadlineExceeded) || errors.Is(err, context.Canceled)
}

func logf(format string, args ...any) {
	fmt.Printf(format+"\n", args...)
}

func fatalf(format string, args ...any) {
	logf(format, args...)
	os.Exit(1)
}
