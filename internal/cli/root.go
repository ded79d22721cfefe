// Package cli provides the command-line interface for textgraph.
package cli

import (
	"context"
	"fmt"
	"io/fs"
	"log/slog"
	"os"

	"github.com/raphaelgruber/textgraph/internal/config"
	"github.com/raphaelgruber/textgraph/internal/db"
	"github.com/raphaelgruber/textgraph/internal/llm"
	"github.com/raphaelgruber/textgraph/internal/metrics"
	"github.com/raphaelgruber/textgraph/internal/prompts"
	"github.com/raphaelgruber/textgraph/internal/service"
	"github.com/spf13/cobra"
)

// skipDB marks commands that run without a database connection.
const skipDB = "skip-db"

var (
	// Version is set at build time.
	Version = "0.1.0"

	// Global flags
	verbose    bool
	jsonOutput bool
	showStats  bool

	cfg       config.Config
	dbClient  *db.Client
	collector = metrics.NewCollector()
	closeLog  = func() error { return nil }
)

// rootCmd represents the base command when called without any subcommands.
var rootCmd = &cobra.Command{
	Use:   "textgraph",
	Short: "Extract knowledge graphs from text",
	Long: `Textgraph extracts a knowledge graph of typed nodes and relationships
from unstructured text using a language model, and stores it in SurrealDB.

Extraction runs in two phases: nodes first, then relationships between the
nodes just stored.`,
	Version:       Version,
	SilenceUsage:  true,
	SilenceErrors: true,
	PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
		cfg = config.Load()

		level := cfg.LogLevel
		if verbose {
			level = slog.LevelDebug
		}
		var logger *slog.Logger
		logger, closeLog = config.SetupLogger(cfg.LogFile, level)
		slog.SetDefault(logger)

		if cmd.Annotations[skipDB] == "true" {
			return nil
		}

		ctx := cmd.Context()
		dbCfg := db.Config{
			URL:       cfg.SurrealDBURL,
			Namespace: cfg.SurrealDBNamespace,
			Database:  cfg.SurrealDBDatabase,
			Username:  cfg.SurrealDBUser,
			Password:  cfg.SurrealDBPass,
			AuthLevel: cfg.SurrealDBAuthLevel,
		}

		var err error
		dbClient, err = db.NewClient(ctx, dbCfg, logger)
		if err != nil {
			return fmt.Errorf("connect to database: %w", err)
		}
		dbClient.WithMetrics(collector)

		if err := dbClient.InitSchema(ctx); err != nil {
			return fmt.Errorf("initialize schema: %w", err)
		}
		return nil
	},
	PersistentPostRun: func(cmd *cobra.Command, args []string) {
		if showStats {
			fmt.Fprintln(os.Stderr)
			printStats(os.Stderr, collector.Snapshot(), newTheme(os.Stderr))
		}
		if dbClient != nil {
			if err := dbClient.Close(context.Background()); err != nil {
				fmt.Fprintf(os.Stderr, "Warning: failed to close database: %v\n", err)
			}
		}
		_ = closeLog()
	},
}

// promptFS returns the configured prompt directory, or the built-in set.
func promptFS() fs.FS {
	if cfg.PromptsDir != "" {
		return os.DirFS(cfg.PromptsDir)
	}
	return prompts.Defaults()
}

// newExtractor wires the extraction pipeline. Commands that never call the
// model pass requireLLM=false and skip provider setup.
func newExtractor(ctx context.Context, requireLLM bool) (*service.Extractor, error) {
	store, err := prompts.NewStore(promptFS())
	if err != nil {
		return nil, fmt.Errorf("load prompts: %w", err)
	}

	var gen service.Generator
	if requireLLM {
		model, err := llm.NewModel(ctx, cfg)
		if err != nil {
			return nil, fmt.Errorf("init model: %w", err)
		}
		gen = model.WithMetrics(collector)
	}

	var graph service.GraphStore
	if dbClient != nil {
		graph = dbClient
	}

	return service.NewExtractor(graph, store, gen).
		WithMetrics(collector).
		WithCompletionParams(service.Params{
			Temperature: cfg.Temperature,
			MaxTokens:   cfg.MaxTokens,
		}), nil
}

// Execute adds all child commands to the root command and sets flags appropriately.
func Execute() error {
	return rootCmd.Execute()
}

func init() {
	// Global flags
	rootCmd.PersistentFlags().BoolVarP(&verbose, "verbose", "v", false, "verbose output")
	rootCmd.PersistentFlags().BoolVar(&jsonOutput, "json", false, "print JSON instead of formatted output")
	rootCmd.PersistentFlags().BoolVar(&showStats, "stats", false, "print call timings and token usage when done")

	// Add subcommands
	rootCmd.AddCommand(extractCmd)
	rootCmd.AddCommand(sampleCmd)
	rootCmd.AddCommand(streamCmd)
	rootCmd.AddCommand(graphCmd)
	rootCmd.AddCommand(clearCmd)
	rootCmd.AddCommand(pingCmd)
	rootCmd.AddCommand(promptsCmd)
}
