// Package main provides the docqa CLI: an HTTP retrieval server plus
// one-shot ingest and ask commands against the same knowledge base.
package main

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"path/filepath"
	"strings"
	"syscall"
	"time"

	"github.com/joho/godotenv"
	"github.com/spf13/cobra"

	"github.com/ynaka-dev/docqa/internal/answer"
	"github.com/ynaka-dev/docqa/internal/config"
	"github.com/ynaka-dev/docqa/internal/document"
	"github.com/ynaka-dev/docqa/internal/embedding"
	"github.com/ynaka-dev/docqa/internal/extract"
	"github.com/ynaka-dev/docqa/internal/retrieval"
	"github.com/ynaka-dev/docqa/internal/segment"
	"github.com/ynaka-dev/docqa/internal/server"
	"github.com/ynaka-dev/docqa/internal/store"
)

var configPath string

var rootCmd = &cobra.Command{
	Use:   "docqa",
	Short: "Document question answering over a local knowledge base",
	Long: `docqa indexes PDF, Markdown, web and plain-text documents into a
vector store and answers questions grounded in the indexed material.

Environment variables:
  OPENAI_API_KEY OpenAI API key for embeddings and answers (required)`,
}

var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Run the HTTP API server",
	RunE:  runServe,
}

var ingestCmd = &cobra.Command{
	Use:   "ingest [path|url ...]",
	Short: "Index documents, replacing the current collection",
	Long: `Extracts text from the given files or URLs, splits it into chunks
and replaces the knowledge base with the result. PDF, Markdown and
plain-text files are supported; http(s) arguments are fetched and the
readable page text is indexed.`,
	Args: cobra.MinimumNArgs(1),
	RunE: runIngest,
}

var askCmd = &cobra.Command{
	Use:   "ask [question]",
	Short: "Ask a question against the indexed documents",
	Args:  cobra.ExactArgs(1),
	RunE:  runAsk,
}

func init() {
	rootCmd.PersistentFlags().StringVar(&configPath, "config", "config.yaml", "path to config file")
	rootCmd.AddCommand(serveCmd)
	rootCmd.AddCommand(ingestCmd)
	rootCmd.AddCommand(askCmd)
}

func main() {
	// Load .env if present for local development.
	_ = godotenv.Load()

	if err := rootCmd.Execute(); err != nil {
		os.Exit(1)
	}
}

// app bundles the wired components shared by all commands.
type app struct {
	cfg       *config.Config
	store     store.Store
	segmenter *segment.Segmenter
	answers   *answer.Service
	logger    *slog.Logger
	close     func()
}

func newApp() (*app, error) {
	cfg, err := config.Load(configPath)
	if err != nil {
		return nil, err
	}

	logger := slog.New(slog.NewTextHandler(os.Stderr, nil))

	provider, err := embedding.NewOpenAI(cfg.Embedder.BatchSize)
	if err != nil {
		return nil, fmt.Errorf("create embedding provider: %w", err)
	}

	var (
		st      store.Store
		cleanup = func() {}
	)
	switch cfg.Store.Type {
	case "memory":
		st = store.NewMemory(provider)
	case "qdrant":
		qs, err := store.NewQdrant(provider, cfg.Store.Qdrant.Host, cfg.Store.Qdrant.Port, cfg.Store.Qdrant.Collection)
		if err != nil {
			return nil, fmt.Errorf("connect to qdrant: %w", err)
		}
		st = qs
		cleanup = func() { qs.Close() }
	default:
		return nil, fmt.Errorf("unknown store type %q", cfg.Store.Type)
	}

	generator := answer.NewOpenAIGenerator(provider.Client(), cfg.Answer.Model)
	svc := answer.NewService(retrieval.NewBuilder(st), generator, logger)

	return &app{
		cfg:       cfg,
		store:     st,
		segmenter: segment.New(cfg.Segmenter.MaxSize, cfg.Segmenter.Overlap),
		answers:   svc,
		logger:    logger,
		close:     cleanup,
	}, nil
}

func runServe(cmd *cobra.Command, args []string) error {
	ctx, cancel := signal.NotifyContext(context.Background(), syscall.SIGTERM, syscall.SIGINT)
	defer cancel()

	a, err := newApp()
	if err != nil {
		return err
	}
	defer a.close()

	srv := server.New(&server.Config{
		Store:     a.store,
		Answers:   a.answers,
		Segmenter: a.segmenter,
		Logger:    a.logger,
	})

	httpServer := &http.Server{
		Addr:    a.cfg.Server.Addr,
		Handler: srv.Handler(),
	}

	errCh := make(chan error, 1)
	go func() {
		a.logger.Info("Starting HTTP server", "addr", a.cfg.Server.Addr, "store", a.cfg.Store.Type)
		if err := httpServer.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errCh <- err
		}
	}()

	select {
	case err := <-errCh:
		return fmt.Errorf("http server: %w", err)
	case <-ctx.Done():
	}

	a.logger.Info("Shutting down")
	shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer shutdownCancel()
	return httpServer.Shutdown(shutdownCtx)
}

func runIngest(cmd *cobra.Command, args []string) error {
	ctx, cancel := signal.NotifyContext(context.Background(), syscall.SIGTERM, syscall.SIGINT)
	defer cancel()

	a, err := newApp()
	if err != nil {
		return err
	}
	defer a.close()

	var chunks []document.Chunk
	for _, arg := range args {
		extracted, err := extractArg(ctx, arg, a.segmenter)
		if err != nil {
			return fmt.Errorf("extract %s: %w", arg, err)
		}
		fmt.Printf("Extracted %d chunks from %s\n", len(extracted), arg)
		chunks = append(chunks, extracted...)
	}
	if len(chunks) == 0 {
		return fmt.Errorf("no text extracted from the given sources")
	}

	start := time.Now()
	if err := a.store.ReplaceAll(ctx, chunks); err != nil {
		return fmt.Errorf("index chunks: %w", err)
	}

	summary := document.Summarize(chunks)
	fmt.Println()
	fmt.Printf("Indexed %d chunks (%d chars) from %d sources in %s\n",
		summary.TotalChunks, summary.TotalChars, len(summary.Sources), time.Since(start).Round(time.Millisecond))
	return nil
}

// extractArg turns one CLI argument into chunks, dispatching on whether
// it is a URL and on the file extension.
func extractArg(ctx context.Context, arg string, seg *segment.Segmenter) ([]document.Chunk, error) {
	if strings.HasPrefix(arg, "http://") || strings.HasPrefix(arg, "https://") {
		return extract.Web(ctx, arg, seg)
	}

	switch strings.ToLower(filepath.Ext(arg)) {
	case ".pdf":
		f, err := os.Open(arg)
		if err != nil {
			return nil, err
		}
		defer f.Close()
		info, err := f.Stat()
		if err != nil {
			return nil, err
		}
		return extract.PDF(f, info.Size(), filepath.Base(arg), seg)
	case ".md", ".markdown":
		data, err := os.ReadFile(arg)
		if err != nil {
			return nil, err
		}
		return extract.Markdown(data, filepath.Base(arg), seg)
	default:
		data, err := os.ReadFile(arg)
		if err != nil {
			return nil, err
		}
		return extract.Text(string(data), filepath.Base(arg), seg), nil
	}
}

func runAsk(cmd *cobra.Command, args []string) error {
	ctx, cancel := signal.NotifyContext(context.Background(), syscall.SIGTERM, syscall.SIGINT)
	defer cancel()

	a, err := newApp()
	if err != nil {
		return err
	}
	defer a.close()

	result, err := a.answers.Answer(ctx, args[0], a.cfg.Answer.TopK)
	if err != nil {
		return fmt.Errorf("answer: %w", err)
	}

	fmt.Println(result.Answer)
	if len(result.Sources) > 0 {
		fmt.Println()
		fmt.Println("Sources:")
		for i, src := range result.Sources {
			fmt.Printf("  %d. %s (score %.3f)\n", i+1, src.Source, src.Score)
		}
	}
	return nil
}
