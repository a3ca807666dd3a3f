package main

import (
	"bufio"
	"context"
	"fmt"
	"io"
	"os"
	"sort"
	"strings"
	"time"

	"github.com/spf13/cobra"

	"github.com/orneryd/falkorgraph/pkg/cypher"
	"github.com/orneryd/falkorgraph/pkg/falkordb"
)

func newShellCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "shell GRAPH",
		Short: "Interactive Cypher shell",
		Long: `Interactive Cypher shell. Each line is sent as one query.

Commands:
  :params name=value      set a parameter for the following queries
  :params                  show the current parameters
  :clear                   drop all parameters
  :schema                  list labels, property keys and relationship types
  :quit                    leave the shell (also exit, quit or Ctrl+D)`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			client, cfg, err := connect(cmd)
			if err != nil {
				return err
			}
			defer client.Close()

			g := selectGraph(cmd, client, cfg, args[0])
			fmt.Fprintf(cmd.OutOrStdout(), "Connected to %s, graph %s\n", cfg.Server.Address, g.Name())
			fmt.Fprintln(cmd.OutOrStdout(), "Type :quit or Ctrl+D to leave")
			return runShell(cmd.Context(), g, os.Stdin, cmd.OutOrStdout())
		},
	}
	cmd.Flags().Bool("readonly", false, "Send queries with GRAPH.RO_QUERY")
	return cmd
}

// runShell reads queries from in until EOF or :quit. Query errors are
// printed and the loop continues.
func runShell(ctx context.Context, g *falkordb.Graph, in io.Reader, out io.Writer) error {
	scanner := bufio.NewScanner(in)
	scanner.Buffer(make([]byte, 64*1024), 1<<20)
	params := map[string]any{}

	for {
		fmt.Fprintf(out, "%s> ", g.Name())
		if !scanner.Scan() {
			break
		}
		line := strings.TrimSpace(scanner.Text())
		line = strings.TrimSuffix(line, ";")
		if line == "" {
			continue
		}

		if strings.HasPrefix(line, ":") || line == "exit" || line == "quit" {
			quit, err := shellCommand(ctx, g, line, params, out)
			if err != nil {
				errorColor.Fprintf(out, "Error: %v\n", err)
			}
			if quit {
				break
			}
			continue
		}

		start := time.Now()
		rs, err := g.Query(ctx, line, params)
		if err != nil {
			errorColor.Fprintf(out, "Error: %v\n", err)
			continue
		}
		if err := printResult(out, rs, time.Since(start)); err != nil {
			return err
		}
		fmt.Fprintln(out)
	}

	if err := scanner.Err(); err != nil {
		return fmt.Errorf("reading input: %w", err)
	}
	fmt.Fprintln(out, "Bye")
	return nil
}

func shellCommand(ctx context.Context, g *falkordb.Graph, line string, params map[string]any, out io.Writer) (bool, error) {
	fields := strings.Fields(line)
	switch fields[0] {
	case ":quit", ":q", ":exit", "exit", "quit":
		return true, nil

	case ":params":
		if len(fields) == 1 {
			names := make([]string, 0, len(params))
			for name := range params {
				names = append(names, name)
			}
			sort.Strings(names)
			for _, name := range names {
				lit, err := cypher.EncodeValue(params[name])
				if err != nil {
					lit = fmt.Sprintf("%v", params[name])
				}
				fmt.Fprintf(out, "  %s = %s\n", name, lit)
			}
			return false, nil
		}
		rest := strings.TrimSpace(strings.TrimPrefix(line, ":params"))
		parsed, err := parseParams([]string{rest})
		if err != nil {
			return false, err
		}
		for name, v := range parsed {
			params[name] = v
		}
		return false, nil

	case ":clear":
		clear(params)
		return false, nil

	case ":schema":
		for _, s := range []struct {
			title string
			fetch func(context.Context) ([]string, error)
		}{
			{"Labels", g.Labels},
			{"Property keys", g.PropertyKeys},
			{"Relationship types", g.RelationshipTypes},
		} {
			names, err := s.fetch(ctx)
			if err != nil {
				return false, err
			}
			fmt.Fprintf(out, "%s: %s\n", s.title, strings.Join(names, ", "))
		}
		return false, nil
	}
	return false, fmt.Errorf("unknown command %s", fields[0])
}
