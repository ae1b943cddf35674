// Copyright 2025 Poiesic Systems
//
// Licensed under the Apache License, Version 2.0 (the "License");
// you may not use this file except in compliance with the License.
// You may obtain a copy of the License at
//
//     http://www.apache.org/licenses/LICENSE-2.0
//
// Unless required by applicable law or agreed to in writing, software
// distributed under the License is distributed on an "AS IS" BASIS,
// WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.
// See the License for the specific language governing permissions and
// limitations under the License.


package main

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log"
	"log/slog"
	"os"
	"os/signal"
	"path/filepath"
	"strconv"
	"strings"
	"syscall"
	"time"

	"github.com/urfave/cli/v2"

	"github.com/poiesic/corpus"
	"github.com/poiesic/corpus/config"
	"github.com/poiesic/corpus/core"
	"github.com/poiesic/corpus/ingest"
	"github.com/poiesic/corpus/retrieval"
	"github.com/poiesic/corpus/segment"
)

func main() {
	if err := newApp().Run(os.Args); err != nil {
		log.Fatal(err)
	}
}

func newApp() *cli.App {
	return &cli.App{
		Name:  "corpus",
		Usage: "Knowledge ingestion and semantic retrieval over local documents",
		Flags: []cli.Flag{
			&cli.StringFlag{
				Name:    "config",
				Usage:   "Path to the YAML configuration file",
				Aliases: []string{"c"},
			},
			&cli.StringFlag{
				Name:  "data",
				Usage: "Data directory (overrides the configured storage path)",
			},
			&cli.StringFlag{
				Name:    "log-level",
				Aliases: []string{"l"},
				Usage:   "Set logging level (debug, info, warn, error)",
				Value:   "info",
			},
		},
		Before: setupLogger,
		Commands: []*cli.Command{
			{
				Name:      "ingest",
				Usage:     "Ingest text files and wait for processing to finish",
				ArgsUsage: "FILE...",
				Action:    ingestCommand,
				Flags: []cli.Flag{
					&cli.StringFlag{
						Name:  "title",
						Usage: "Document title (single file only; defaults to the file name)",
					},
					&cli.IntFlag{
						Name:  "priority",
						Usage: "Queue priority, 1 (lowest) to 10",
					},
					&cli.StringFlag{
						Name:  "method",
						Usage: "Chunking method (fixed, semantic, sentence, paragraph)",
					},
					&cli.IntFlag{
						Name:  "target-size",
						Usage: "Target fragment size in characters",
					},
					&cli.IntFlag{
						Name:  "overlap",
						Usage: "Overlap between adjacent fragments in characters",
					},
				},
			},
			{
				Name:      "search",
				Usage:     "Find fragments similar to a query",
				ArgsUsage: "QUERY...",
				Action:    searchCommand,
				Flags:     searchFlags(),
			},
			{
				Name:      "ask",
				Usage:     "Answer a question from the knowledge base, streaming the reply",
				ArgsUsage: "QUESTION...",
				Action:    askCommand,
				Flags:     searchFlags(),
			},
			{
				Name:   "status",
				Usage:  "Summarize documents, fragments, queue and cache health",
				Action: statusCommand,
			},
			{
				Name:      "fragments",
				Usage:     "List a document's fragments in position order",
				ArgsUsage: "DOCUMENT_ID",
				Action:    fragmentsCommand,
				Flags: []cli.Flag{
					&cli.IntFlag{
						Name:  "page",
						Usage: "Page number",
						Value: 1,
					},
				},
			},
			{
				Name:      "reprocess",
				Usage:     "Re-run processing stages for a document",
				ArgsUsage: "DOCUMENT_ID",
				Action:    reprocessCommand,
				Flags: []cli.Flag{
					&cli.BoolFlag{
						Name:  "reembed",
						Usage: "Re-run the embedding stage without touching fragments",
					},
					&cli.BoolFlag{
						Name:  "overwrite",
						Usage: "Also re-embed fragments that already completed",
					},
					&cli.BoolFlag{
						Name:  "failed-only",
						Usage: "Re-embed exactly the fragments whose embedding failed",
					},
				},
			},
			{
				Name:      "rechunk",
				Usage:     "Re-segment a document and re-embed the result",
				ArgsUsage: "DOCUMENT_ID",
				Action:    rechunkCommand,
				Flags: []cli.Flag{
					&cli.StringFlag{
						Name:  "method",
						Usage: "Chunking method (fixed, semantic, sentence, paragraph)",
					},
					&cli.IntFlag{
						Name:  "target-size",
						Usage: "Target fragment size in characters",
					},
					&cli.IntFlag{
						Name:  "overlap",
						Usage: "Overlap between adjacent fragments in characters",
					},
				},
			},
			{
				Name:   "optimize",
				Usage:  "Queue re-chunking and re-embedding for low quality documents",
				Action: optimizeCommand,
			},
			{
				Name:   "cleanup",
				Usage:  "Reap orphan fragments, purge deleted documents, requeue stuck ones",
				Action: cleanupCommand,
			},
			{
				Name:      "export",
				Usage:     "Write a document and its fragments as JSON",
				ArgsUsage: "DOCUMENT_ID",
				Action:    exportCommand,
				Flags: []cli.Flag{
					&cli.StringFlag{
						Name:    "out",
						Aliases: []string{"o"},
						Usage:   "Output file (defaults to stdout)",
					},
				},
			},
			{
				Name:      "delete",
				Usage:     "Soft-delete a document and its fragments",
				ArgsUsage: "DOCUMENT_ID",
				Action:    deleteCommand,
			},
			{
				Name:      "watch",
				Usage:     "Watch directories and ingest matching files as they appear",
				ArgsUsage: "[DIR...]",
				Action:    watchCommand,
				Flags: []cli.Flag{
					&cli.StringSliceFlag{
						Name:  "extensions",
						Usage: "Watched file extensions, including the leading dot",
					},
					&cli.DurationFlag{
						Name:  "debounce",
						Usage: "Quiet period before a changed file is ingested",
					},
				},
			},
		},
	}
}

func searchFlags() []cli.Flag {
	return []cli.Flag{
		&cli.IntFlag{
			Name:    "limit",
			Aliases: []string{"n"},
			Usage:   "Maximum number of hits (0 uses the configured default)",
		},
		&cli.Float64Flag{
			Name:  "threshold",
			Usage: "Minimum similarity in [0, 1] (0 uses the configured default)",
		},
		&cli.Uint64SliceFlag{
			Name:  "document",
			Usage: "Restrict to fragments of these document ids",
		},
	}
}

func ingestCommand(c *cli.Context) error {
	ctx := context.Background()

	paths := c.Args().Slice()
	if len(paths) == 0 {
		return fmt.Errorf("at least one file is required")
	}
	if c.IsSet("title") && len(paths) > 1 {
		return fmt.Errorf("--title applies to a single file only")
	}

	lib, cfg, err := openLibrary(c)
	if err != nil {
		return err
	}
	defer lib.Close()

	segOpts, hasSegOpts, err := segmentOverride(c, cfg)
	if err != nil {
		return err
	}

	extractor := &ingest.PlainTextExtractor{}
	var queued []core.ID
	for _, path := range paths {
		text, err := extractor.Extract(ctx, path)
		if err != nil {
			return fmt.Errorf("failed to read %s: %w", path, err)
		}

		title := c.String("title")
		if title == "" {
			title = filepath.Base(path)
		}
		opts := ingest.IngestOptions{
			Title:    title,
			Filename: filepath.Base(path),
			Priority: c.Int("priority"),
		}
		if hasSegOpts {
			opts.Segment = segOpts
		}

		doc, err := lib.Ingest(ctx, text, opts)
		if errors.Is(err, ingest.ErrDuplicateDocument) {
			fmt.Fprintf(os.Stderr, "Skipping %s: identical content already ingested\n", path)
			continue
		}
		if err != nil {
			return fmt.Errorf("failed to ingest %s: %w", path, err)
		}
		fmt.Fprintf(os.Stderr, "Queued %s as document %d\n", path, doc.Id)
		queued = append(queued, doc.Id)
	}

	return waitForSettle(ctx, lib, queued)
}

// waitForSettle blocks until every queued document leaves the pending
// and processing states, then prints one result line per document.
func waitForSettle(ctx context.Context, lib *corpus.Library, ids []core.ID) error {
	documents := lib.DocumentRepository()
	for _, id := range ids {
		for {
			doc, err := documents.GetDocument(ctx, id)
			if err != nil {
				return err
			}
			if doc.ProcessingStatus != core.StatusPending && doc.ProcessingStatus != core.StatusProcessing {
				fmt.Printf("%d\t%s\t%d fragments\t%s\n", doc.Id, doc.ProcessingStatus, doc.FragmentCount, doc.Title)
				break
			}
			time.Sleep(200 * time.Millisecond)
		}
	}
	return nil
}

func searchCommand(c *cli.Context) error {
	ctx := context.Background()

	query := strings.Join(c.Args().Slice(), " ")
	if strings.TrimSpace(query) == "" {
		return fmt.Errorf("a query is required")
	}

	lib, _, err := openLibrary(c)
	if err != nil {
		return err
	}
	defer lib.Close()

	hits, err := lib.SearchRelevantFragments(ctx, query, searchOptions(c))
	if err != nil {
		return fmt.Errorf("search failed: %w", err)
	}

	fmt.Printf("Found %d hits\n", len(hits))
	for i, hit := range hits {
		fmt.Printf("%d: [%0.3f] %s (document %d, fragment %d)\n", i+1, hit.Similarity, hit.DocumentTitle, hit.Fragment.DocumentId, hit.Fragment.Id)
		fmt.Printf("   %s\n", snippet(hit.Fragment.Content, 160))
	}
	return nil
}

func askCommand(c *cli.Context) error {
	ctx := context.Background()

	question := strings.Join(c.Args().Slice(), " ")
	if strings.TrimSpace(question) == "" {
		return fmt.Errorf("a question is required")
	}

	lib, _, err := openLibrary(c)
	if err != nil {
		return err
	}
	defer lib.Close()

	stream, hits, err := lib.Ask(ctx, question, searchOptions(c))
	if err != nil {
		return fmt.Errorf("ask failed: %w", err)
	}
	defer stream.Close()

	for {
		token, err := stream.Next()
		if errors.Is(err, io.EOF) {
			break
		}
		if err != nil {
			return fmt.Errorf("answer stream failed: %w", err)
		}
		fmt.Print(token)
	}
	fmt.Println()

	if len(hits) > 0 {
		fmt.Fprintln(os.Stderr, "\nSources:")
		for _, hit := range hits {
			fmt.Fprintf(os.Stderr, "  [%0.3f] %s (document %d, fragment %d)\n", hit.Similarity, hit.DocumentTitle, hit.Fragment.DocumentId, hit.Fragment.Id)
		}
	}
	return nil
}

func statusCommand(c *cli.Context) error {
	ctx := context.Background()

	lib, _, err := openLibrary(c)
	if err != nil {
		return err
	}
	defer lib.Close()

	status, err := lib.KnowledgeStatus(ctx)
	if err != nil {
		return fmt.Errorf("failed to read status: %w", err)
	}

	cacheState := "healthy"
	if !status.CacheHealthy {
		cacheState = "unreachable"
	}

	fmt.Printf("Documents:  %d\n", status.Documents)
	fmt.Printf("Fragments:  %d\n", status.Fragments)
	fmt.Printf("Queue:      %d\n", status.QueueDepth)
	fmt.Printf("Cache:      %s\n", cacheState)
	fmt.Printf("Processing: %s\n", formatTrack(status.Processing))
	fmt.Printf("Chunking:   %s\n", formatTrack(status.Chunking))
	fmt.Printf("Embedding:  %s\n", formatTrack(status.Embedding))
	if len(status.RecentQueries) > 0 {
		fmt.Println("Recent queries:")
		for _, q := range status.RecentQueries {
			fmt.Printf("  - %s\n", q)
		}
	}
	return nil
}

func formatTrack(counts map[core.Status]int) string {
	order := []core.Status{
		core.StatusCompleted,
		core.StatusPartial,
		core.StatusProcessing,
		core.StatusPending,
		core.StatusFailed,
	}
	parts := make([]string, 0, len(order))
	for _, s := range order {
		if n := counts[s]; n > 0 {
			parts = append(parts, fmt.Sprintf("%s=%d", s, n))
		}
	}
	if len(parts) == 0 {
		return "none"
	}
	return strings.Join(parts, " ")
}

func fragmentsCommand(c *cli.Context) error {
	ctx := context.Background()

	id, err := parseDocumentID(c)
	if err != nil {
		return err
	}

	lib, _, err := openLibrary(c)
	if err != nil {
		return err
	}
	defer lib.Close()

	frags, total, err := lib.DocumentFragments(ctx, id, c.Int("page"))
	if err != nil {
		return fmt.Errorf("failed to list fragments: %w", err)
	}

	fmt.Printf("Document %d has %d fragments\n", id, total)
	for _, frag := range frags {
		fmt.Printf("%d: #%d [%s/%s] %s\n", frag.Position.Index, frag.Id, frag.ProcessingStatus, frag.EmbeddingStatus, snippet(frag.Content, 120))
	}
	return nil
}

func reprocessCommand(c *cli.Context) error {
	ctx := context.Background()

	id, err := parseDocumentID(c)
	if err != nil {
		return err
	}

	lib, _, err := openLibrary(c)
	if err != nil {
		return err
	}
	defer lib.Close()

	if c.Bool("failed-only") {
		summary, err := lib.ReprocessFailedEmbeddings(ctx, id)
		if err != nil {
			return fmt.Errorf("reprocess failed: %w", err)
		}
		fmt.Printf("Re-embedded %d fragments: %d succeeded, %d failed, %d from cache\n",
			summary.Total, summary.Succeeded, summary.Failed, summary.Cached)
		return nil
	}

	report, err := lib.Reprocess(ctx, id, ingest.ReprocessOptions{
		Reembed:   c.Bool("reembed"),
		Overwrite: c.Bool("overwrite"),
	})
	if err != nil {
		return fmt.Errorf("reprocess failed: %w", err)
	}
	printReport(report)
	return nil
}

func rechunkCommand(c *cli.Context) error {
	ctx := context.Background()

	id, err := parseDocumentID(c)
	if err != nil {
		return err
	}

	lib, cfg, err := openLibrary(c)
	if err != nil {
		return err
	}
	defer lib.Close()

	segOpts, _, err := segmentOverride(c, cfg)
	if err != nil {
		return err
	}

	report, err := lib.Rechunk(ctx, id, segOpts)
	if err != nil {
		return fmt.Errorf("rechunk failed: %w", err)
	}
	printReport(report)
	return nil
}

func printReport(report *ingest.Report) {
	fmt.Printf("Document %d: %s\n", report.DocumentId, report.Status)
	if report.Chunked > 0 || report.Rejected > 0 {
		fmt.Printf("Chunked %d fragments (%d rejected)\n", report.Chunked, report.Rejected)
	}
	if report.Embedding != nil && report.Embedding.Total > 0 {
		fmt.Printf("Embedded %d fragments: %d succeeded, %d failed, %d from cache\n",
			report.Embedding.Total, report.Embedding.Succeeded, report.Embedding.Failed, report.Embedding.Cached)
	}
}

func optimizeCommand(c *cli.Context) error {
	ctx := context.Background()

	lib, _, err := openLibrary(c)
	if err != nil {
		return err
	}
	defer lib.Close()

	report, err := lib.Optimize(ctx)
	if err != nil {
		return fmt.Errorf("optimize failed: %w", err)
	}

	fmt.Printf("Queued %d documents for re-chunking\n", report.RechunkQueued)
	fmt.Printf("Queued %d documents for re-embedding\n", report.ReembedQueued)
	if len(report.DuplicateClusters) > 0 {
		fmt.Printf("Near-duplicate fragment clusters:\n")
		for _, cluster := range report.DuplicateClusters {
			ids := make([]string, 0, len(cluster))
			for _, id := range cluster {
				ids = append(ids, strconv.FormatUint(uint64(id), 10))
			}
			fmt.Printf("  %s\n", strings.Join(ids, ", "))
		}
	}
	return nil
}

func cleanupCommand(c *cli.Context) error {
	ctx := context.Background()

	lib, _, err := openLibrary(c)
	if err != nil {
		return err
	}
	defer lib.Close()

	report, err := lib.Cleanup(ctx)
	if err != nil {
		return fmt.Errorf("cleanup failed: %w", err)
	}

	fmt.Printf("Reaped %d orphan fragments\n", report.OrphanFragments)
	fmt.Printf("Purged %d deleted documents\n", report.PurgedDocuments)
	fmt.Printf("Requeued %d stuck documents\n", report.RequeuedDocuments)
	return nil
}

func exportCommand(c *cli.Context) error {
	ctx := context.Background()

	id, err := parseDocumentID(c)
	if err != nil {
		return err
	}

	lib, _, err := openLibrary(c)
	if err != nil {
		return err
	}
	defer lib.Close()

	var w io.Writer = os.Stdout
	if out := c.String("out"); out != "" {
		f, err := os.Create(out)
		if err != nil {
			return fmt.Errorf("failed to create %s: %w", out, err)
		}
		defer f.Close()
		w = f
	}

	if err := lib.Export(ctx, id, w); err != nil {
		return fmt.Errorf("export failed: %w", err)
	}
	return nil
}

func deleteCommand(c *cli.Context) error {
	ctx := context.Background()

	id, err := parseDocumentID(c)
	if err != nil {
		return err
	}

	lib, _, err := openLibrary(c)
	if err != nil {
		return err
	}
	defer lib.Close()

	if err := lib.DeleteDocument(ctx, id); err != nil {
		return fmt.Errorf("delete failed: %w", err)
	}
	fmt.Printf("Document %d deleted\n", id)
	return nil
}

func watchCommand(c *cli.Context) error {
	lib, cfg, err := openLibrary(c)
	if err != nil {
		return err
	}
	defer lib.Close()

	dirs := c.Args().Slice()
	if len(dirs) == 0 {
		dirs = cfg.Watch.Dirs
	}
	if len(dirs) == 0 {
		return fmt.Errorf("at least one directory is required (argument or watch.dirs in the config)")
	}

	wopts := []ingest.WatcherOption{ingest.WithDebounce(cfg.Debounce())}
	if len(cfg.Watch.Extensions) > 0 {
		wopts = append(wopts, ingest.WithExtensions(cfg.Watch.Extensions...))
	}
	if c.IsSet("extensions") {
		wopts = append(wopts, ingest.WithExtensions(c.StringSlice("extensions")...))
	}
	if c.IsSet("debounce") {
		wopts = append(wopts, ingest.WithDebounce(c.Duration("debounce")))
	}

	watcher, err := lib.NewWatcher(wopts...)
	if err != nil {
		return fmt.Errorf("failed to create watcher: %w", err)
	}
	defer watcher.Close()

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	fmt.Fprintf(os.Stderr, "Watching %s (press Ctrl-C to stop)\n", strings.Join(dirs, ", "))
	return watcher.Watch(ctx, dirs...)
}

// openLibrary loads the configuration and opens the library it points
// at. The caller owns the returned library and must close it.
func openLibrary(c *cli.Context) (*corpus.Library, *config.AppConfig, error) {
	cfg, err := loadConfig(c)
	if err != nil {
		return nil, nil, err
	}

	ingestCfg, err := cfg.IngestConfig()
	if err != nil {
		return nil, nil, err
	}

	lib, err := corpus.NewLibrary(cfg.Storage.Path,
		corpus.WithAIConfig(cfg.AIConfig()),
		corpus.WithEmbeddingConfig(cfg.EmbeddingConfig()),
		corpus.WithRetrievalConfig(cfg.RetrievalConfig()),
		corpus.WithIngestConfig(ingestCfg),
	)
	if err != nil {
		return nil, nil, fmt.Errorf("failed to open library: %w", err)
	}
	return lib, cfg, nil
}

func loadConfig(c *cli.Context) (*config.AppConfig, error) {
	var cfg *config.AppConfig
	var err error
	if path := c.String("config"); path != "" {
		cfg, err = config.Load(path)
	} else {
		cfg, _, err = config.LoadDefault()
	}
	if err != nil {
		return nil, fmt.Errorf("failed to load configuration: %w", err)
	}

	if c.IsSet("data") {
		cfg.Storage.Path = c.String("data")
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}

	// The log-level flag wins; otherwise the config's logging section
	// applies.
	if !c.IsSet("log-level") {
		applyLogging(cfg.Logging)
	}
	return cfg, nil
}

func applyLogging(lc config.LoggingConfig) {
	opts := &slog.HandlerOptions{Level: lc.SlogLevel()}
	var handler slog.Handler
	if lc.Format == "json" {
		handler = slog.NewJSONHandler(os.Stderr, opts)
	} else {
		handler = slog.NewTextHandler(os.Stderr, opts)
	}
	slog.SetDefault(slog.New(handler))
}

// segmentOverride folds the chunking flags over the configured
// segmentation options. The bool reports whether any flag was set.
func segmentOverride(c *cli.Context, cfg *config.AppConfig) (segment.Options, bool, error) {
	opts, err := cfg.SegmentOptions()
	if err != nil {
		return segment.Options{}, false, err
	}

	set := false
	if c.IsSet("method") {
		method, err := core.ParseSegmentMethod(c.String("method"))
		if err != nil {
			return segment.Options{}, false, err
		}
		opts.Method = method
		set = true
	}
	if c.IsSet("target-size") {
		opts.TargetSize = c.Int("target-size")
		set = true
	}
	if c.IsSet("overlap") {
		opts.Overlap = c.Int("overlap")
		set = true
	}
	if set {
		if err := opts.Validate(); err != nil {
			return segment.Options{}, false, err
		}
	}
	return opts, set, nil
}

func searchOptions(c *cli.Context) retrieval.SearchOptions {
	opts := retrieval.SearchOptions{
		Limit:     c.Int("limit"),
		Threshold: float32(c.Float64("threshold")),
	}
	for _, id := range c.Uint64Slice("document") {
		opts.DocumentIds = append(opts.DocumentIds, core.ID(id))
	}
	return opts
}

func parseDocumentID(c *cli.Context) (core.ID, error) {
	if c.NArg() < 1 {
		return 0, fmt.Errorf("document id is required")
	}
	raw := c.Args().First()
	id, err := strconv.ParseUint(raw, 10, 64)
	if err != nil {
		return 0, fmt.Errorf("invalid document id %q", raw)
	}
	return core.ID(id), nil
}

// snippet truncates text to max runes on a single line.
func snippet(text string, max int) string {
	text = strings.Join(strings.Fields(text), " ")
	runes := []rune(text)
	if len(runes) <= max {
		return text
	}
	return string(runes[:max]) + "..."
}

func setupLogger(c *cli.Context) error {
	// Get log level from flag and normalize to lowercase
	levelStr := strings.ToLower(c.String("log-level"))

	// Map string to slog.Level
	var level slog.Level
	switch levelStr {
	case "debug":
		level = slog.LevelDebug
	case "info":
		level = slog.LevelInfo
	case "warn":
		level = slog.LevelWarn
	case "error":
		level = slog.LevelError
	default:
		return fmt.Errorf("invalid log level %q: must be one of debug, info, warn, error", levelStr)
	}

	// Configure slog with the specified level
	logger := slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{
		Level: level,
	}))
	slog.SetDefault(logger)

	return nil
}
