// Package main provides the catchfish binary entry point.
// Catchfish is a neurosymbolic knowledge retrieval and validation engine:
// it extracts a knowledge graph from source documents, answers questions
// against it, and validates its own coverage with behavior scenarios.
package main

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"os/signal"
	"runtime"
	"strings"
	"syscall"

	"github.com/spf13/cobra"

	// Register vocabularies via init()
	_ "github.com/c360studio/catchfish/vocabulary/clinical"
	_ "github.com/c360studio/catchfish/vocabulary/pm"

	"github.com/c360studio/catchfish/config"
	"github.com/c360studio/catchfish/export"
)

const (
	Version   = "0.1.0"
	BuildTime = "dev"
	appName   = "catchfish"
)

func main() {
	// Add panic recovery
	defer func() {
		if r := recover(); r != nil {
			buf := make([]byte, 4096)
			n := runtime.Stack(buf, false)
			_, _ = fmt.Fprintf(os.Stderr, "PANIC: %v\nStack trace:\n%s\n", r, string(buf[:n]))
			os.Exit(2)
		}
	}()

	if err := rootCmd().Execute(); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
}

func rootCmd() *cobra.Command {
	var (
		configPath string
		logLevel   string
	)

	cmd := &cobra.Command{
		Use:   "catchfish",
		Short: "Knowledge graph extraction and validation engine",
		Long: `Catchfish converts source documents into a knowledge graph with
provenance, answers natural-language questions against it, and runs
behavior scenarios to validate its own coverage.

The run command drives the full loop: extract triples, validate the
suite, diagnose coverage gaps, and repeat until the quality gate is met
or the cycle budget runs out.`,
	}

	cmd.PersistentFlags().StringVarP(&configPath, "config", "c", "", "Config file path (YAML)")
	cmd.PersistentFlags().StringVar(&logLevel, "log-level", "info", "Log level (debug, info, warn, error)")

	newApp := func() (*App, error) {
		logger := newLogger(logLevel)
		cfg, err := loadConfig(configPath, logger)
		if err != nil {
			return nil, err
		}
		return NewApp(cfg, logger)
	}

	var watch bool
	runCmd := &cobra.Command{
		Use:   "run",
		Short: "Run the full extract-validate-refine loop",
		RunE: func(cmd *cobra.Command, args []string) error {
			app, err := newApp()
			if err != nil {
				return err
			}
			return withApp(app, func(ctx context.Context) error {
				return app.RunLoop(ctx, watch)
			})
		},
	}
	runCmd.Flags().BoolVar(&watch, "watch", false, "Re-run the loop when source documents change")
	cmd.AddCommand(runCmd)

	cmd.AddCommand(&cobra.Command{
		Use:   "validate",
		Short: "Extract once and run the scenario suite",
		RunE: func(cmd *cobra.Command, args []string) error {
			app, err := newApp()
			if err != nil {
				return err
			}
			return withApp(app, app.Validate)
		},
	})

	cmd.AddCommand(&cobra.Command{
		Use:   "ask [question]",
		Short: "Answer a question against the extracted graph",
		Args:  cobra.MinimumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			app, err := newApp()
			if err != nil {
				return err
			}
			question := strings.Join(args, " ")
			return withApp(app, func(ctx context.Context) error {
				return app.Ask(ctx, question)
			})
		},
	})

	cmd.AddCommand(&cobra.Command{
		Use:   "ingest",
		Short: "Extract triples from source documents",
		RunE: func(cmd *cobra.Command, args []string) error {
			app, err := newApp()
			if err != nil {
				return err
			}
			return withApp(app, app.Ingest)
		},
	})

	var (
		format string
		output string
	)
	exportCmd := &cobra.Command{
		Use:   "export",
		Short: "Export the extracted graph as RDF",
		RunE: func(cmd *cobra.Command, args []string) error {
			exportFormat, err := export.ParseFormat(format)
			if err != nil {
				return err
			}
			app, err := newApp()
			if err != nil {
				return err
			}
			return withApp(app, func(ctx context.Context) error {
				return app.Export(ctx, exportFormat, output)
			})
		},
	}
	exportCmd.Flags().StringVarP(&format, "format", "f", "turtle", "Output format (turtle, ntriples, jsonld)")
	exportCmd.Flags().StringVarP(&output, "output", "o", "", "Output file (default stdout)")
	cmd.AddCommand(exportCmd)

	cmd.AddCommand(&cobra.Command{
		Use:   "version",
		Short: "Print version information",
		Run: func(cmd *cobra.Command, args []string) {
			fmt.Printf("%s version %s (build: %s)\n", appName, Version, BuildTime)
		},
	})

	return cmd
}

// withApp starts the app, runs fn under a signal-aware context, and shuts
// the app down.
func withApp(app *App, fn func(context.Context) error) error {
	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	if err := app.Start(ctx); err != nil {
		return err
	}
	defer app.Shutdown()

	return fn(ctx)
}

func loadConfig(configPath string, logger *slog.Logger) (*config.Config, error) {
	if configPath != "" {
		cfg, err := config.LoadFromFile(configPath)
		if err != nil {
			return nil, err
		}
		if err := cfg.Validate(); err != nil {
			return nil, err
		}
		return cfg, nil
	}
	return config.NewLoader(logger).Load()
}

func newLogger(level string) *slog.Logger {
	var lvl slog.Level
	switch strings.ToLower(level) {
	case "debug":
		lvl = slog.LevelDebug
	case "warn":
		lvl = slog.LevelWarn
	case "error":
		lvl = slog.LevelError
	default:
		lvl = slog.LevelInfo
	}
	return slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{Level: lvl}))
}
