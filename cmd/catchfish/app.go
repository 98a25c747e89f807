package main

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"os"
	"time"

	"github.com/bmatcuk/doublestar/v4"
	"github.com/nats-io/nats-server/v2/server"
	"github.com/nats-io/nats.go"
	"github.com/nats-io/nats.go/jetstream"
	"github.com/prometheus/client_golang/prometheus"

	"github.com/c360studio/catchfish/config"
	"github.com/c360studio/catchfish/docindex"
	"github.com/c360studio/catchfish/export"
	"github.com/c360studio/catchfish/extract"
	"github.com/c360studio/catchfish/graph"
	"github.com/c360studio/catchfish/navigator"
	"github.com/c360studio/catchfish/reasoner"
	"github.com/c360studio/catchfish/scenario"
	"github.com/c360studio/catchfish/source"
	"github.com/c360studio/catchfish/storage"
	"github.com/c360studio/catchfish/triple"
	"github.com/c360studio/catchfish/validator"
	"github.com/c360studio/catchfish/vocabulary"
)

// GraphStream is the JetStream stream backing graph ingestion.
const GraphStream = "GRAPH_INGEST"

// App is the main application that wires together all components.
type App struct {
	cfg    *config.Config
	logger *slog.Logger

	// NATS
	embeddedServer *server.Server
	natsConn       *nats.Conn
	js             jetstream.JetStream

	// Persistence and publishing; nil without NATS
	store     *storage.Store
	publisher *graph.Publisher

	// Engine
	tripleStore *triple.Store
	index       *docindex.Index
	extractor   *vocabulary.Extractor
	pipeline    *extract.Pipeline
	reasoner    *reasoner.Reasoner
	runner      *validator.Runner
	navigator   *navigator.Navigator

	// metrics is the app-local Prometheus registry.
	metrics *prometheus.Registry
}

// NewApp creates a new application instance.
func NewApp(cfg *config.Config, logger *slog.Logger) (*App, error) {
	if logger == nil {
		logger = slog.Default()
	}

	extractor := vocabulary.Default()
	if cfg.Vocabulary.Domain != "" {
		e, ok := vocabulary.Lookup(cfg.Vocabulary.Domain)
		if !ok {
			return nil, fmt.Errorf("unknown vocabulary domain: %s (registered: %v)",
				cfg.Vocabulary.Domain, vocabulary.Domains())
		}
		extractor = e
	}

	tripleStore := triple.NewStore()

	index := docindex.New(docindex.Config{
		Roots:       cfg.Documents.Roots,
		ExcludeDirs: cfg.Documents.ExcludeDirs,
		Timeout:     cfg.Documents.SearchTimeout,
	})
	index.SetLogger(logger)

	r, err := reasoner.New(tripleStore, index, extractor, reasoner.Config{
		FallbackFloor: cfg.Reasoner.FallbackFloor,
		GraphWeight:   cfg.Reasoner.GraphWeight,
		DocWeight:     cfg.Reasoner.DocWeight,
	})
	if err != nil {
		return nil, fmt.Errorf("create reasoner: %w", err)
	}
	r.SetLogger(logger)

	pipeline := extract.New(tripleStore, extractor)
	pipeline.SetLogger(logger)

	runner, err := validator.New(r, pipeline, validator.Config{
		Threshold: cfg.Validator.ConfidenceThreshold,
	})
	if err != nil {
		return nil, fmt.Errorf("create validator: %w", err)
	}
	runner.SetLogger(logger)

	nav, err := navigator.New(pipeline, runner, navigator.Config{
		MaxCycles:   cfg.Navigator.MaxCycles,
		QualityGate: cfg.Navigator.QualityGate,
	})
	if err != nil {
		return nil, fmt.Errorf("create navigator: %w", err)
	}
	nav.SetLogger(logger)
	registry := prometheus.NewRegistry()
	nav.SetMetrics(navigator.NewMetrics(registry))

	return &App{
		cfg:         cfg,
		logger:      logger,
		tripleStore: tripleStore,
		index:       index,
		extractor:   extractor,
		pipeline:    pipeline,
		reasoner:    r,
		runner:      runner,
		navigator:   nav,
		metrics:     registry,
	}, nil
}

// Start initializes optional NATS-backed components.
func (a *App) Start(ctx context.Context) error {
	if a.cfg.NATS.URL == "" && !a.cfg.NATS.Embedded {
		a.logger.Debug("NATS disabled, running without persistence or publishing")
		a.publisher = graph.NewPublisher(nil)
		return nil
	}

	if err := a.startNATS(ctx); err != nil {
		return fmt.Errorf("start NATS: %w", err)
	}

	store, err := storage.NewStore(ctx, a.js)
	if err != nil {
		return fmt.Errorf("initialize storage: %w", err)
	}
	a.store = store

	a.publisher = graph.NewPublisher(&jsPublisher{js: a.js})
	a.publisher.SetLogger(a.logger)

	return nil
}

func (a *App) startNATS(ctx context.Context) error {
	if a.cfg.NATS.URL != "" && !a.cfg.NATS.Embedded {
		// Connect to external NATS
		a.logger.Info("connecting to NATS", "url", a.cfg.NATS.URL)
		conn, err := nats.Connect(a.cfg.NATS.URL)
		if err != nil {
			return fmt.Errorf("connect to NATS: %w", err)
		}
		a.natsConn = conn
	} else {
		// Start embedded NATS server
		a.logger.Info("starting embedded NATS server")
		opts := &server.Options{
			Port:      -1, // Random available port
			JetStream: true,
			NoLog:     true,
			NoSigs:    true,
		}

		ns, err := server.NewServer(opts)
		if err != nil {
			return fmt.Errorf("create embedded NATS server: %w", err)
		}

		go ns.Start()

		// Wait for server to be ready
		if !ns.ReadyForConnections(5 * time.Second) {
			ns.Shutdown()
			return fmt.Errorf("embedded NATS server failed to start")
		}

		a.embeddedServer = ns

		// Connect to embedded server
		conn, err := nats.Connect(ns.ClientURL())
		if err != nil {
			ns.Shutdown()
			return fmt.Errorf("connect to embedded NATS: %w", err)
		}
		a.natsConn = conn
	}

	// Get JetStream context
	js, err := jetstream.New(a.natsConn)
	if err != nil {
		return fmt.Errorf("create JetStream context: %w", err)
	}
	a.js = js

	// Ensure the graph ingestion stream exists
	_, err = js.CreateOrUpdateStream(ctx, jetstream.StreamConfig{
		Name:     GraphStream,
		Subjects: []string{"graph.ingest.>"},
	})
	if err != nil {
		return fmt.Errorf("create graph stream: %w", err)
	}

	return nil
}

// Shutdown gracefully stops all components.
func (a *App) Shutdown() {
	if a.natsConn != nil {
		_ = a.natsConn.Drain()
		a.natsConn.Close()
	}
	if a.embeddedServer != nil {
		a.embeddedServer.Shutdown()
		a.embeddedServer.WaitForShutdown()
	}
}

// jsPublisher adapts a JetStream context to graph.StreamPublisher.
type jsPublisher struct {
	js jetstream.JetStream
}

func (p *jsPublisher) PublishToStream(ctx context.Context, subject string, data []byte) error {
	_, err := p.js.Publish(ctx, subject, data)
	return err
}

// RunLoop drives the full extract-validate-refine loop, optionally
// re-running it when source documents change.
func (a *App) RunLoop(ctx context.Context, watch bool) error {
	if err := a.runOnce(ctx); err != nil {
		return err
	}
	if !watch {
		return nil
	}

	watcher, err := extract.NewWatcher(a.watchRoots(), extract.WatchConfig{
		ExcludeDirs: a.cfg.Documents.ExcludeDirs,
	})
	if err != nil {
		return fmt.Errorf("create watcher: %w", err)
	}
	watcher.SetLogger(a.logger)
	if err := watcher.Start(ctx); err != nil {
		return fmt.Errorf("start watcher: %w", err)
	}

	a.logger.Info("watching for document changes", "roots", a.watchRoots())
	for {
		select {
		case <-ctx.Done():
			return nil
		case event, ok := <-watcher.Events():
			if !ok {
				return nil
			}
			a.logger.Info("source documents changed", "files", len(event.Paths))
			if err := a.runOnce(ctx); err != nil {
				return err
			}
		}
	}
}

func (a *App) runOnce(ctx context.Context) error {
	docs, err := a.loadDocuments()
	if err != nil {
		return err
	}
	scenarios, err := scenario.LoadDir(a.cfg.Documents.ScenarioDir)
	if err != nil {
		return fmt.Errorf("load scenarios: %w", err)
	}
	if len(scenarios) == 0 {
		return fmt.Errorf("no scenarios found in %s", a.cfg.Documents.ScenarioDir)
	}

	report, err := a.navigator.Run(ctx, docs, scenarios)
	if err != nil {
		return err
	}

	if err := a.persistReport(ctx, report); err != nil {
		a.logger.Warn("persist report", "error", err)
	}
	if err := a.publisher.PublishRun(ctx, a.tripleStore.All()); err != nil {
		a.logger.Warn("publish graph", "error", err)
	}

	return printJSON(reportSummary(report, a.navigator.Cycles()))
}

// Validate runs one extraction pass and the full scenario suite.
func (a *App) Validate(ctx context.Context) error {
	docs, err := a.loadDocuments()
	if err != nil {
		return err
	}
	scenarios, err := scenario.LoadDir(a.cfg.Documents.ScenarioDir)
	if err != nil {
		return fmt.Errorf("load scenarios: %w", err)
	}

	if _, err := a.pipeline.Run(ctx, docs, nil); err != nil {
		return err
	}
	report, err := a.runner.RunSuite(ctx, scenarios)
	if err != nil {
		return err
	}

	if err := a.persistReport(ctx, report); err != nil {
		a.logger.Warn("persist report", "error", err)
	}
	return printJSON(report)
}

// Ask extracts the graph and answers one question against it.
func (a *App) Ask(ctx context.Context, question string) error {
	docs, err := a.loadDocuments()
	if err != nil {
		return err
	}
	if _, err := a.pipeline.Run(ctx, docs, nil); err != nil {
		return err
	}

	set, err := a.reasoner.Answer(ctx, question)
	if err != nil {
		return err
	}
	return printJSON(set)
}

// Ingest runs one extraction pass and publishes the resulting triples.
func (a *App) Ingest(ctx context.Context) error {
	docs, err := a.loadDocuments()
	if err != nil {
		return err
	}

	result, err := a.pipeline.Run(ctx, docs, nil)
	if err != nil {
		return err
	}
	if err := a.publisher.PublishRun(ctx, result.Triples); err != nil {
		a.logger.Warn("publish graph", "error", err)
	}
	return printJSON(result)
}

// Export extracts the graph and writes it in the requested RDF format.
func (a *App) Export(ctx context.Context, format export.Format, output string) error {
	docs, err := a.loadDocuments()
	if err != nil {
		return err
	}
	if _, err := a.pipeline.Run(ctx, docs, nil); err != nil {
		return err
	}

	exporter := export.NewExporter()
	exporter.Add(a.tripleStore.All()...)
	out, err := exporter.Export(format)
	if err != nil {
		return err
	}

	if output == "" {
		fmt.Print(out)
		return nil
	}
	return os.WriteFile(output, []byte(out), 0644)
}

// loadDocuments loads every source document under the configured roots.
// Glob roots resolve to individual files; plain roots load recursively.
func (a *App) loadDocuments() ([]source.Document, error) {
	var docs []source.Document
	for _, root := range a.cfg.Documents.Roots {
		if isGlobPattern(root) {
			matches, err := doublestar.FilepathGlob(root)
			if err != nil {
				return nil, fmt.Errorf("resolve glob %q: %w", root, err)
			}
			for _, match := range matches {
				doc, err := source.LoadFile(match)
				if err != nil {
					a.logger.Warn("skipping document", "path", match, "error", err)
					continue
				}
				docs = append(docs, *doc)
			}
			continue
		}

		loaded, err := source.LoadDir(root, a.cfg.Documents.ExcludeDirs)
		if err != nil {
			return nil, fmt.Errorf("load documents from %q: %w", root, err)
		}
		docs = append(docs, loaded...)
	}

	if len(docs) == 0 {
		return nil, fmt.Errorf("no source documents found under %v", a.cfg.Documents.Roots)
	}
	a.logger.Info("documents loaded", "count", len(docs))
	return docs, nil
}

// watchRoots returns the non-glob document roots, the only ones the
// watcher can register.
func (a *App) watchRoots() []string {
	var roots []string
	for _, root := range a.cfg.Documents.Roots {
		if !isGlobPattern(root) {
			roots = append(roots, root)
		}
	}
	return roots
}

func isGlobPattern(s string) bool {
	for _, r := range s {
		switch r {
		case '*', '?', '[', '{':
			return true
		}
	}
	return false
}

func (a *App) persistReport(ctx context.Context, report *validator.CoverageReport) error {
	if a.store == nil {
		return nil
	}

	runID := a.pipeline.Artifacts().RunID
	if _, err := a.store.SaveReport(ctx, runID, report); err != nil {
		return err
	}
	for _, result := range report.Results {
		if _, err := a.store.SaveResult(ctx, runID, result); err != nil {
			return err
		}
	}
	return nil
}

// loopSummary is the run command's terminal output.
type loopSummary struct {
	Converged     bool                    `json:"converged"`
	PassRate      float64                 `json:"pass_rate"`
	AvgConfidence float64                 `json:"avg_confidence"`
	Total         int                     `json:"total"`
	Passed        int                     `json:"passed"`
	Failures      []string                `json:"failures,omitempty"`
	Gaps          []validator.Gap         `json:"gaps,omitempty"`
	Cycles        []navigator.CycleRecord `json:"cycles"`
}

func reportSummary(report *validator.CoverageReport, cycles []navigator.CycleRecord) loopSummary {
	return loopSummary{
		Converged:     report.Converged,
		PassRate:      report.PassRate,
		AvgConfidence: report.AvgConfidence,
		Total:         report.Total,
		Passed:        report.Passed,
		Failures:      report.Failures,
		Gaps:          report.Gaps,
		Cycles:        cycles,
	}
}

func printJSON(v any) error {
	data, err := json.MarshalIndent(v, "", "  ")
	if err != nil {
		return fmt.Errorf("marshal output: %w", err)
	}
	fmt.Println(string(data))
	return nil
}
