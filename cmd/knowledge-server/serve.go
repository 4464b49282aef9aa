package main

import (
	"context"
	"fmt"
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/maxzrff/KnowledgeMCP/internal/config"
	"github.com/maxzrff/KnowledgeMCP/internal/embed"
	"github.com/maxzrff/KnowledgeMCP/internal/extract"
	"github.com/maxzrff/KnowledgeMCP/internal/knowledge"
	"github.com/maxzrff/KnowledgeMCP/internal/logging"
	"github.com/maxzrff/KnowledgeMCP/internal/mcpserver"
	"github.com/maxzrff/KnowledgeMCP/internal/vectorstore"
)

// serveCmd builds the `serve` subcommand: load config, wire every
// collaborator (extractors, OCR, embedder, vector store, knowledge
// service), then run whichever transport the config/flag selects.
func serveCmd() *cobra.Command {
	var transportFlag string
	var debug bool

	cmd := &cobra.Command{
		Use:   "serve",
		Short: "Run the knowledge server",
		RunE: func(cmd *cobra.Command, args []string) error {
			return runServe(configPath, transportFlag, debug)
		},
	}
	cmd.Flags().StringVar(&transportFlag, "transport", "", "override mcp.transport from config (stdio|http|http-streamable)")
	cmd.Flags().BoolVar(&debug, "debug", false, "use a human-readable development logger")
	return cmd
}

func runServe(configPath, transportOverride string, debug bool) error {
	cfg, err := config.Load(configPath)
	if err != nil {
		return fmt.Errorf("loading configuration: %w", err)
	}
	if transportOverride != "" {
		cfg.MCP.Transport = transportOverride
		if err := cfg.Validate(); err != nil {
			return fmt.Errorf("validating --transport override: %w", err)
		}
	}

	log, err := logging.New(debug)
	if err != nil {
		return fmt.Errorf("building logger: %w", err)
	}
	defer log.Sync() //nolint:errcheck

	log.Info("starting knowledge-server",
		zap.String("transport", cfg.MCP.Transport),
		zap.String("vector_db_path", cfg.Storage.VectorDBPath),
	)

	ocr, err := extract.NewOCRService(cfg.OCR.Language, cfg.Processing.OCRWorkerPoolSize)
	if err != nil {
		return fmt.Errorf("starting OCR service: %w", err)
	}
	defer ocr.Close()

	registry := extract.NewRegistry(ocr)
	embedder := embed.NewLocalEmbedder(cfg.Embedding.Dimension)
	store := vectorstore.New(cfg.Storage.VectorDBPath, cfg.Embedding.Dimension, cfg.Processing.MaxConcurrentTasks, cfg.Embedding.BatchSize, log)
	defer store.Close()

	svc, err := knowledge.New(cfg, registry, embedder, store, log)
	if err != nil {
		return fmt.Errorf("starting knowledge service: %w", err)
	}

	dispatcher := mcpserver.NewDispatcher(svc)

	switch cfg.MCP.Transport {
	case "stdio":
		transport := mcpserver.NewStdioTransport(dispatcher)
		return transport.Serve(context.Background())
	case "http", "http-streamable":
		return serveHTTP(cfg, dispatcher, log)
	default:
		return fmt.Errorf("transport %q is not implemented; supported: stdio, http, http-streamable", cfg.MCP.Transport)
	}
}

func serveHTTP(cfg *config.Config, dispatcher *mcpserver.Dispatcher, log *zap.Logger) error {
	gin.SetMode(gin.ReleaseMode)
	sessions := mcpserver.NewSessionManager()
	transport := mcpserver.NewHTTPTransport(dispatcher, sessions, cfg.MCP.StrictSessions, log)

	r := gin.New()
	r.Use(gin.Recovery())
	transport.Register(r)

	addr := fmt.Sprintf("%s:%d", cfg.MCP.Host, cfg.MCP.Port)
	log.Info("listening", zap.String("addr", addr))

	srv := &http.Server{Addr: addr, Handler: r}
	return srv.ListenAndServe()
}
