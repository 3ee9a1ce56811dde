package main

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"golang.org/x/sync/errgroup"

	"github.com/lysyi3m/patreon-rss/app/api"
	"github.com/lysyi3m/patreon-rss/app/cache"
	"github.com/lysyi3m/patreon-rss/app/cfg"
	"github.com/lysyi3m/patreon-rss/app/feed"
	"github.com/lysyi3m/patreon-rss/app/patreon"
)

func main() {
	appCfg, err := cfg.Load()
	if err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
	if appCfg == nil {
		// Help was shown
		return
	}

	setupLogger(appCfg.Debug)

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	client := patreon.NewClient(patreon.WithUserAgent(appCfg.UserAgent))
	query := patreon.NewQuery(appCfg.CreatorID).WithBaseURL(appCfg.APIURL)
	baseFeed := feed.NewFeed(client, query, feed.NewGenerator())
	store := cache.NewFileCache(appCfg.CacheDir)

	switch appCfg.Command {
	case cfg.CommandServe:
		err = serveFeeds(ctx, appCfg, baseFeed, store)
	default:
		err = printFeed(ctx, appCfg, baseFeed, store)
	}

	if err != nil {
		slog.Error("Command failed", "command", appCfg.Command, "error", err)
		os.Exit(1)
	}
}

func setupLogger(debug bool) {
	level := slog.LevelInfo
	if debug {
		level = slog.LevelDebug
	}
	// Logs go to stderr so stdout carries only the feed document
	slog.SetDefault(slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{Level: level})))
}

func printFeed(ctx context.Context, appCfg *cfg.Cfg, f *feed.Feed, store feed.Store) error {
	if appCfg.Timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, appCfg.TimeoutDuration())
		defer cancel()
	}

	if appCfg.NoCache {
		return f.RSS(ctx, os.Stdout)
	}
	return f.CachedRSS(ctx, os.Stdout, store, appCfg.MaxAgeDuration())
}

func serveFeeds(ctx context.Context, appCfg *cfg.Cfg, f *feed.Feed, store *cache.FileCache) error {
	slog.Info("Starting Patreon RSS server", "version", appCfg.Version)

	configCache := feed.NewConfigCache(appCfg.FeedsDir)
	if err := configCache.LoadAll(); err != nil {
		return fmt.Errorf("failed to load feed configurations: %w", err)
	}
	slog.Info("Feed configurations loaded", "dir", appCfg.FeedsDir, "count", configCache.Count())

	handler := api.NewHandler(f, configCache, store, store.Sub("feeds"), appCfg.MaxAgeDuration(), appCfg.TimeoutDuration())

	httpServer := &http.Server{
		Addr:         ":" + appCfg.Port,
		Handler:      api.NewServer(handler),
		ReadTimeout:  30 * time.Second,
		WriteTimeout: 60 * time.Second,
		IdleTimeout:  120 * time.Second,
	}

	g, gctx := errgroup.WithContext(ctx)

	g.Go(func() error {
		slog.Info("HTTP server listening", "port", appCfg.Port)
		slog.Info("Endpoints available",
			"feeds", fmt.Sprintf("http://localhost:%s/feeds/<name>", appCfg.Port),
			"creators", fmt.Sprintf("http://localhost:%s/creators/<id>", appCfg.Port),
			"health", fmt.Sprintf("http://localhost:%s/health", appCfg.Port))

		if err := httpServer.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			return fmt.Errorf("HTTP server error: %w", err)
		}
		return nil
	})

	if _, err := os.Stat(appCfg.FeedsDir); err == nil {
		g.Go(func() error {
			return feed.NewWatcher(configCache).Run(gctx)
		})
	} else {
		slog.Warn("Feeds directory not found, hot reload disabled", "dir", appCfg.FeedsDir)
	}

	g.Go(func() error {
		<-gctx.Done()
		slog.Info("Shutting down server gracefully...")

		shutdownCtx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
		defer cancel()

		if err := httpServer.Shutdown(shutdownCtx); err != nil {
			return fmt.Errorf("HTTP server shutdown error: %w", err)
		}
		slog.Info("HTTP server stopped")
		return nil
	})

	return g.Wait()
}
