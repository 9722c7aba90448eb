package main

import (
	"context"
	"errors"
	"fmt"
	"os"
	"os/signal"
	"runtime"
	"syscall"

	"github.com/spf13/pflag"
	"go.uber.org/zap"

	"github.com/a3tai/mcp-release-notes/internal/archive"
	"github.com/a3tai/mcp-release-notes/internal/config"
	"github.com/a3tai/mcp-release-notes/internal/httpapi"
	"github.com/a3tai/mcp-release-notes/internal/logger"
	"github.com/a3tai/mcp-release-notes/internal/mcp"
	"github.com/a3tai/mcp-release-notes/internal/releasenote"
	"github.com/a3tai/mcp-release-notes/internal/store"
)

var (
	version   = "dev"     // This will be set by build flags
	buildTime = "unknown" // This will be set by build flags
	gitCommit = "unknown" // This will be set by build flags
)

// newEngine builds the extraction engine, with the vocabulary file when
// one is configured
func newEngine(cfg *config.Config, log *zap.Logger) (*releasenote.Engine, error) {
	vocab := releasenote.DefaultVocabulary()
	if cfg.VocabularyFile != "" {
		var err error
		vocab, err = releasenote.LoadVocabulary(cfg.VocabularyFile)
		if err != nil {
			return nil, err
		}
		log.Info("loaded vocabulary", zap.String("file", cfg.VocabularyFile))
	}
	return releasenote.NewEngine(
		releasenote.WithVocabulary(vocab),
		releasenote.WithLogger(log),
	)
}

// newService opens the archive database and wires the archive service.
// The returned store must be closed by the caller.
func newService(cfg *config.Config, log *zap.Logger) (*archive.Service, store.Store, error) {
	engine, err := newEngine(cfg, log)
	if err != nil {
		return nil, nil, fmt.Errorf("failed to create extraction engine: %w", err)
	}

	st, err := store.Open(cfg.DatabasePath, store.WithMkdirAll(), store.WithLogger(log))
	if err != nil {
		return nil, nil, fmt.Errorf("failed to open archive database: %w", err)
	}

	svc, err := archive.NewService(archive.Config{
		ServerName:       cfg.ServerName,
		Version:          cfg.Version,
		ArchiveDirectory: cfg.ArchiveDirectory,
		MaxFileSize:      cfg.MaxFileSize,
	}, engine, st, log)
	if err != nil {
		st.Close()
		return nil, nil, err
	}
	return svc, st, nil
}

// runServerMode serves the HTTP API until a shutdown signal arrives
func runServerMode(ctx context.Context, cfg *config.Config, svc *archive.Service, log *zap.Logger) error {
	server, err := httpapi.NewServer(cfg.Address(), svc, cfg.MaxFileSize, log)
	if err != nil {
		return err
	}

	if err := server.Run(ctx); err != nil {
		return err
	}
	log.Info("server stopped successfully")
	return nil
}

// runStdioMode serves MCP over stdin/stdout. The parent process controls
// our lifecycle: we exit when stdin is closed.
func runStdioMode(ctx context.Context, cfg *config.Config, svc *archive.Service, log *zap.Logger) error {
	server, err := mcp.NewServer(cfg, svc, log)
	if err != nil {
		return fmt.Errorf("failed to create MCP server: %w", err)
	}
	return server.Run(ctx)
}

func run() int {
	cfg, err := config.LoadFromFlags()
	switch {
	case errors.Is(err, config.ErrVersionRequested):
		printVersion()
		return 0
	case errors.Is(err, pflag.ErrHelp):
		return 0
	case err != nil:
		fmt.Fprintf(os.Stderr, "Failed to load configuration: %v\n", err)
		return 2
	}

	// Set version if it was provided during build
	if version != "dev" {
		cfg.Version = version
	}

	log, err := logger.New(cfg.LogLevel, cfg.Mode)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Failed to create logger: %v\n", err)
		return 1
	}
	defer logger.Sync(log)

	log.Debug("starting", zap.Stringer("config", cfg))

	svc, st, err := newService(cfg, log)
	if err != nil {
		log.Error("startup failed", zap.Error(err))
		return 1
	}
	defer st.Close()

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM, syscall.SIGHUP)
	defer stop()

	if cfg.IsServerMode() {
		err = runServerMode(ctx, cfg, svc, log)
	} else {
		err = runStdioMode(ctx, cfg, svc, log)
	}
	if err != nil {
		log.Error("server error", zap.Error(err))
		return 1
	}
	return 0
}

func main() {
	os.Exit(run())
}

// printVersion prints version information
func printVersion() {
	fmt.Printf("MCP Release Notes\n")
	fmt.Printf("Version: %s\n", version)
	fmt.Printf("Build Time: %s\n", buildTime)
	fmt.Printf("Git Commit: %s\n", gitCommit)
	fmt.Printf("Built with: %s\n", runtime.Version())
}
