package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"golang.org/x/sync/errgroup"

	"github.com/Kylob/Sitemap/internal/config"
	"github.com/Kylob/Sitemap/internal/mcp"
	"github.com/Kylob/Sitemap/internal/searcher"
	"github.com/Kylob/Sitemap/internal/server"
	"github.com/Kylob/Sitemap/internal/storage"
)

var (
	version   = "dev"
	buildTime = "unknown"
)

func main() {
	var (
		configPath  = flag.String("config", "", "path to YAML config file")
		mcpMode     = flag.Bool("mcp", false, "serve the MCP protocol on stdio instead of HTTP")
		showVersion = flag.Bool("version", false, "print version and exit")
	)
	flag.Parse()

	if *showVersion {
		fmt.Printf("sitemapd\n")
		fmt.Printf("Version: %s\n", version)
		fmt.Printf("Build Time: %s\n", buildTime)
		fmt.Printf("Build Mode: %s\n", storage.BuildMode)
		fmt.Printf("SQLite Driver: %s\n", storage.DriverName)
		os.Exit(0)
	}

	// stdout is reserved for the MCP protocol in mcp mode
	logger := slog.New(slog.NewTextHandler(os.Stderr, nil))
	slog.SetDefault(logger)

	if err := run(*configPath, *mcpMode, logger); err != nil {
		logger.Error("fatal", "error", err)
		os.Exit(1)
	}
}

func run(configPath string, mcpMode bool, logger *slog.Logger) error {
	cfg, err := config.Load(configPath)
	if err != nil {
		return err
	}

	store, err := storage.Open(cfg.Database)
	if err != nil {
		return err
	}
	defer func() { _ = store.Close() }()

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	logger.Info("starting", "version", version, "driver", storage.DriverName,
		"build_mode", storage.BuildMode, "database", cfg.Database)

	if mcpMode {
		mcpServer, err := mcp.NewServer(store, cfg)
		if err != nil {
			return err
		}
		logger.Info("mcp server ready, listening on stdio")
		return mcpServer.Serve(ctx)
	}

	srch, err := searcher.New(store, cfg.BaseURL, cfg.Suffix, cfg.Search.CacheSize)
	if err != nil {
		return err
	}
	srv := server.New(store, srch, cfg, logger)
	httpServer := &http.Server{
		Addr:              cfg.Listen,
		Handler:           srv.Router(),
		ReadHeaderTimeout: 10 * time.Second,
	}

	g, ctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		logger.Info("http server listening", "addr", cfg.Listen)
		if err := httpServer.ListenAndServe(); !errors.Is(err, http.ErrServerClosed) {
			return err
		}
		return nil
	})
	g.Go(func() error {
		<-ctx.Done()
		logger.Info("shutting down")
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer cancel()
		return httpServer.Shutdown(shutdownCtx)
	})
	return g.Wait()
}
