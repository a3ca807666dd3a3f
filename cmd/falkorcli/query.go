package main

import (
	"fmt"
	"io"
	"strings"
	"time"

	"github.com/spf13/cobra"
	"gopkg.in/yaml.v3"

	"github.com/orneryd/falkorgraph/pkg/falkordb"
)

func newQueryCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "query GRAPH CYPHER",
		Short: "Run a Cypher query",
		Example: `  falkorcli query social "MATCH (p:Person {name: \$name}) RETURN p" --param name=Ada
  falkorcli query social "RETURN \$tags" --param 'tags=[a, b]'`,
		Args: cobra.ExactArgs(2),
		RunE: runQuery,
	}
	cmd.Flags().StringArray("param", nil, "Query parameter name=value; values are parsed as YAML (repeatable)")
	cmd.Flags().Bool("readonly", false, "Send the query with GRAPH.RO_QUERY")
	cmd.Flags().Duration("timeout", 0, "Server side query timeout (0 uses the configured default)")
	return cmd
}

func newPlanCmd(name, short string) *cobra.Command {
	cmd := &cobra.Command{
		Use:   name + " GRAPH CYPHER",
		Short: short,
		Args:  cobra.ExactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			params, err := paramFlags(cmd)
			if err != nil {
				return err
			}
			client, cfg, err := connect(cmd)
			if err != nil {
				return err
			}
			defer client.Close()

			g := selectGraph(cmd, client, cfg, args[0])
			var lines []string
			if name == "explain" {
				lines, err = g.Explain(cmd.Context(), args[1], params)
			} else {
				lines, err = g.Profile(cmd.Context(), args[1], params)
			}
			if err != nil {
				return err
			}
			for _, l := range lines {
				fmt.Fprintln(cmd.OutOrStdout(), l)
			}
			return nil
		},
	}
	cmd.Flags().StringArray("param", nil, "Query parameter name=value (repeatable)")
	return cmd
}

func runQuery(cmd *cobra.Command, args []string) error {
	params, err := paramFlags(cmd)
	if err != nil {
		return err
	}
	client, cfg, err := connect(cmd)
	if err != nil {
		return err
	}
	defer client.Close()

	var opts []falkordb.QueryOption
	if timeout, _ := cmd.Flags().GetDuration("timeout"); timeout > 0 {
		opts = append(opts, falkordb.WithTimeout(timeout))
	}

	g := selectGraph(cmd, client, cfg, args[0])
	start := time.Now()
	rs, err := g.Query(cmd.Context(), args[1], params, opts...)
	if err != nil {
		return err
	}
	return printResult(cmd.OutOrStdout(), rs, time.Since(start))
}

func paramFlags(cmd *cobra.Command) (map[string]any, error) {
	raw, _ := cmd.Flags().GetStringArray("param")
	return parseParams(raw)
}

// parseParams turns name=value pairs into query parameters. Values are YAML,
// so 3 is an integer, 2.5 a float, [a, b] a list and {k: v} a map. Quote a
// value to force a string.
func parseParams(pairs []string) (map[string]any, error) {
	if len(pairs) == 0 {
		return nil, nil
	}
	params := make(map[string]any, len(pairs))
	for _, pair := range pairs {
		name, raw, ok := strings.Cut(pair, "=")
		name = strings.TrimSpace(name)
		if !ok || name == "" {
			return nil, fmt.Errorf("invalid parameter %q: expected name=value", pair)
		}
		var v any
		if err := yaml.Unmarshal([]byte(raw), &v); err != nil {
			return nil, fmt.Errorf("invalid value for parameter %s: %w", name, err)
		}
		params[name] = normalizeYAML(v)
	}
	return params, nil
}

// normalizeYAML widens the ints yaml.v3 decodes to int64.
func normalizeYAML(v any) any {
	switch val := v.(type) {
	case int:
		return int64(val)
	case []any:
		for i, item := range val {
			val[i] = normalizeYAML(item)
		}
		return val
	case map[string]any:
		for k, item := range val {
			val[k] = normalizeYAML(item)
		}
		return val
	}
	return v
}

func printResult(w io.Writer, rs *falkordb.ResultSet, elapsed time.Duration) error {
	if rs.Header().Len() > 0 {
		headerColor.Fprintf(w, "%d column(s)\n", rs.Header().Len())
	}
	if err := rs.PrettyPrint(w); err != nil {
		return err
	}
	dimColor.Fprintf(w, "(%s)\n", elapsed.Round(time.Microsecond))
	return nil
}
