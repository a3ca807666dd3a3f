// Package main provides the falkorcli command line client.
package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/fatih/color"
	"github.com/sirupsen/logrus"
	"github.com/spf13/cobra"

	"github.com/orneryd/falkorgraph/pkg/config"
	"github.com/orneryd/falkorgraph/pkg/falkordb"
)

var (
	version   = "0.1.0"
	commit    = "dev"
	buildTime = "unknown" // Set via ldflags: -X main.buildTime=$(date +%Y%m%d-%H%M%S)
)

var (
	errorColor   = color.New(color.FgRed, color.Bold)
	successColor = color.New(color.FgGreen)
	headerColor  = color.New(color.FgCyan, color.Bold)
	dimColor     = color.New(color.Faint)
)

func main() {
	rootCmd := newRootCmd()

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	if err := rootCmd.ExecuteContext(ctx); err != nil {
		errorColor.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
}

func newRootCmd() *cobra.Command {
	rootCmd := &cobra.Command{
		Use:   "falkorcli",
		Short: "falkorcli - command line client for FalkorDB graphs",
		Long: `falkorcli sends Cypher queries to a FalkorDB server and prints the
decoded results.

Configuration is read from --config (or ./falkorgraph.yaml), then FALKORDB_*
environment variables, then flags.`,
		SilenceUsage:  true,
		SilenceErrors: true,
	}

	rootCmd.PersistentFlags().String("config", "", "Config file (default: search ./falkorgraph.yaml, ~/.falkorgraph/config.yaml)")
	rootCmd.PersistentFlags().String("address", "", "Server address host:port")
	rootCmd.PersistentFlags().String("password", "", "Server password")
	rootCmd.PersistentFlags().String("log-level", "", "Log level: debug, info, warn, error")

	rootCmd.AddCommand(&cobra.Command{
		Use:   "version",
		Short: "Print version information",
		Run: func(cmd *cobra.Command, args []string) {
			fmt.Fprintf(cmd.OutOrStdout(), "falkorcli v%s (%s) built %s\n", version, commit, buildTime)
		},
	})

	rootCmd.AddCommand(
		newQueryCmd(),
		newPlanCmd("explain", "Show the execution plan of a query"),
		newPlanCmd("profile", "Run a query and show the profiled plan"),
		newSchemaCmd(),
		newListCmd(),
		newDeleteCmd(),
		newCopyCmd(),
		newSlowlogCmd(),
		newShellCmd(),
	)
	return rootCmd
}

// loadConfig resolves the configuration for cmd: file, then environment,
// then persistent flags.
func loadConfig(cmd *cobra.Command) (*config.Config, error) {
	path, _ := cmd.Flags().GetString("config")
	if path == "" {
		path = config.FindConfigFile()
	}

	var (
		cfg *config.Config
		err error
	)
	if path != "" {
		cfg, err = config.LoadFromFile(path)
		if err != nil {
			return nil, err
		}
	} else {
		cfg = config.LoadFromEnv()
	}

	if v, _ := cmd.Flags().GetString("address"); v != "" {
		cfg.Server.Address = v
	}
	if v, _ := cmd.Flags().GetString("password"); v != "" {
		cfg.Server.Password = v
	}
	if v, _ := cmd.Flags().GetString("log-level"); v != "" {
		cfg.Logging.Level = v
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

func setupLogging(cfg *config.Config) *logrus.Entry {
	logger := logrus.New()
	logger.SetOutput(os.Stderr)
	if level, err := logrus.ParseLevel(cfg.Logging.Level); err == nil {
		logger.SetLevel(level)
	}
	if cfg.Logging.Format == "json" {
		logger.SetFormatter(&logrus.JSONFormatter{})
	} else {
		logger.SetFormatter(&logrus.TextFormatter{FullTimestamp: true})
	}
	return logrus.NewEntry(logger).WithField("app", "falkorcli")
}

// connect loads the configuration and opens a client.
func connect(cmd *cobra.Command) (*falkordb.Client, *config.Config, error) {
	cfg, err := loadConfig(cmd)
	if err != nil {
		return nil, nil, err
	}
	log := setupLogging(cfg)
	log.WithField("config", cfg.String()).Debug("configuration loaded")

	client, err := falkordb.Connect(cfg, falkordb.WithLogger(log))
	if err != nil {
		return nil, nil, err
	}
	return client, cfg, nil
}

// selectGraph honours --readonly and the configured default.
func selectGraph(cmd *cobra.Command, client *falkordb.Client, cfg *config.Config, name string) *falkordb.Graph {
	readOnly := cfg.Query.ReadOnly
	if f := cmd.Flags().Lookup("readonly"); f != nil && f.Changed {
		readOnly, _ = cmd.Flags().GetBool("readonly")
	}
	if readOnly {
		return client.SelectReadOnlyGraph(name)
	}
	return client.SelectGraph(name)
}
