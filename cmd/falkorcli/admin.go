package main

import (
	"fmt"
	"strings"
	"text/tabwriter"
	"time"

	"github.com/spf13/cobra"
)

func newSchemaCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "schema GRAPH",
		Short: "List the labels, property keys and relationship types of a graph",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			client, cfg, err := connect(cmd)
			if err != nil {
				return err
			}
			defer client.Close()

			g := selectGraph(cmd, client, cfg, args[0])
			ctx := cmd.Context()
			sections := []struct {
				title string
				fetch func() ([]string, error)
			}{
				{"Labels", func() ([]string, error) { return g.Labels(ctx) }},
				{"Property keys", func() ([]string, error) { return g.PropertyKeys(ctx) }},
				{"Relationship types", func() ([]string, error) { return g.RelationshipTypes(ctx) }},
			}
			out := cmd.OutOrStdout()
			for _, s := range sections {
				names, err := s.fetch()
				if err != nil {
					return fmt.Errorf("%s: %w", strings.ToLower(s.title), err)
				}
				headerColor.Fprintf(out, "%s (%d)\n", s.title, len(names))
				for i, n := range names {
					fmt.Fprintf(out, "  %3d  %s\n", i, n)
				}
			}
			return nil
		},
	}
}

func newListCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "list",
		Short: "List the graphs on the server",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			client, _, err := connect(cmd)
			if err != nil {
				return err
			}
			defer client.Close()

			graphs, err := client.ListGraphs(cmd.Context())
			if err != nil {
				return err
			}
			for _, g := range graphs {
				fmt.Fprintln(cmd.OutOrStdout(), g)
			}
			return nil
		},
	}
}

func newDeleteCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "delete GRAPH",
		Short: "Delete a graph and all its data",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			client, _, err := connect(cmd)
			if err != nil {
				return err
			}
			defer client.Close()

			if err := client.SelectGraph(args[0]).Delete(cmd.Context()); err != nil {
				return err
			}
			successColor.Fprintf(cmd.OutOrStdout(), "Deleted graph %s\n", args[0])
			return nil
		},
	}
}

func newCopyCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "copy SRC DST",
		Short: "Copy a graph",
		Args:  cobra.ExactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			client, _, err := connect(cmd)
			if err != nil {
				return err
			}
			defer client.Close()

			if _, err := client.SelectGraph(args[0]).Copy(cmd.Context(), args[1]); err != nil {
				return err
			}
			successColor.Fprintf(cmd.OutOrStdout(), "Copied %s to %s\n", args[0], args[1])
			return nil
		},
	}
}

func newSlowlogCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "slowlog GRAPH",
		Short: "Show the slowest recent queries of a graph",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			client, _, err := connect(cmd)
			if err != nil {
				return err
			}
			defer client.Close()

			g := client.SelectGraph(args[0])
			if reset, _ := cmd.Flags().GetBool("reset"); reset {
				if err := g.SlowlogReset(cmd.Context()); err != nil {
					return err
				}
				successColor.Fprintln(cmd.OutOrStdout(), "Slowlog cleared")
				return nil
			}

			entries, err := g.Slowlog(cmd.Context())
			if err != nil {
				return err
			}
			tw := tabwriter.NewWriter(cmd.OutOrStdout(), 0, 0, 2, ' ', 0)
			fmt.Fprintln(tw, "TIME\tCOMMAND\tDURATION\tQUERY")
			for _, e := range entries {
				fmt.Fprintf(tw, "%s\t%s\t%s\t%s\n", e.Time.Format(time.DateTime), e.Command, e.Duration, e.Query)
			}
			return tw.Flush()
		},
	}
	cmd.Flags().Bool("reset", false, "Clear the slowlog instead of printing it")
	return cmd
}
