package main

import (
	"context"
	"errors"
	"fmt"
	"log"
	"net/http"
	"os"
	"os/signal"
	"strings"
	"syscall"
	"time"

	"github.com/gin-gonic/gin"

	"github.com/achildrenmile/oeradio-mcp/internal/availability"
	"github.com/achildrenmile/oeradio-mcp/internal/config"
	"github.com/achildrenmile/oeradio-mcp/internal/db"
	"github.com/achildrenmile/oeradio-mcp/internal/logging"
	"github.com/achildrenmile/oeradio-mcp/internal/lookup"
	"github.com/achildrenmile/oeradio-mcp/internal/redisclient"
	"github.com/achildrenmile/oeradio-mcp/internal/store"
	"github.com/achildrenmile/oeradio-mcp/internal/suggest"
	"github.com/achildrenmile/oeradio-mcp/internal/version"
	"github.com/achildrenmile/oeradio-mcp/internal/web"
)

func main() {
	status := RunApplication(context.Background(), os.Args[1:])
	if status != 0 {
		os.Exit(status)
	}
}

// RunApplication runs the serving application. It returns an exit code
// integer; tests call this function directly to start the app in-process.
func RunApplication(ctx context.Context, args []string) int {
	ctx, cancel := context.WithCancel(ctx)
	defer cancel()

	setupLogging()

	cfg, err := config.LoadConfig()
	if err != nil {
		log.Printf("FATAL: Failed to load configuration: %v", err)
		return 1
	}
	logConfiguration(cfg)

	if len(args) > 0 && strings.ToLower(args[0]) == "healthcheck" {
		fmt.Println("Health check successful")
		return 0
	}

	// Optional Redis cache tier. Failure degrades to in-memory only.
	rdb := initializeRedis(ctx, cfg)
	defer func() {
		if rdb != nil {
			rdb.Close()
		}
	}()

	st := store.New(cfg.DataDir, cfg.DBFileName, cfg.SnapshotTTL)
	if _, err := st.Snapshot(); err != nil {
		if errors.Is(err, store.ErrNoDatabase) {
			logging.Crit("No callsign database at %s. Run oecall-rebuild first.", st.Path())
			return 1
		}
		logging.Crit("Failed to load callsign database: %v", err)
		return 1
	}
	logging.Notice("Callsign database loaded from %s.", st.Path())

	revisions := initializeRevisionLog(cfg)

	engine := buildEngine(cfg, st, rdb)
	checker := availability.NewChecker(st)
	generator := suggest.NewGenerator(checker)

	router := setupHTTPRouter()
	web.SetupRoutes(router.Group(cfg.BaseURL), web.Deps{
		Store:     st,
		Engine:    engine,
		Checker:   checker,
		Generator: generator,
		Revisions: revisions,
	})

	srv := &http.Server{
		Addr:    fmt.Sprintf("0.0.0.0:%d", cfg.WebPort),
		Handler: router,
	}

	go func() {
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			log.Fatalf("FATAL: HTTP server failed: %v\n", err)
		}
	}()
	logging.Notice("HTTP API listening on 0.0.0.0:%d (BaseURL: %s)", cfg.WebPort, cfg.BaseURL)

	return gracefulShutdown(ctx, srv)
}

// buildEngine assembles the lookup chain: authoritative local database
// first, then QRZ (if credentials are configured), then anonymous HamQTH.
func buildEngine(cfg *config.Config, st *store.Store, rdb *redisclient.Client) *lookup.Engine {
	sources := []lookup.Source{
		lookup.NewLocalSource(st),
		lookup.NewQRZSource(cfg.QRZ, cfg.ExternalTimeout, cfg.SourceMinInterval),
		lookup.NewHamQTHSource(cfg.ExternalTimeout, cfg.SourceMinInterval),
	}

	memory := lookup.NewMemoryCache(cfg.LookupCacheTTL)
	var cache lookup.ResultCache = memory
	if rdb != nil {
		cache = lookup.NewFallbackCache(lookup.NewRedisCache(rdb, cfg.LookupCacheTTL), memory)
		logging.Notice("Lookup cache: Redis primary with in-memory fallback (TTL %s).", cfg.LookupCacheTTL)
	} else {
		logging.Info("Lookup cache: in-memory only (TTL %s).", cfg.LookupCacheTTL)
	}

	return lookup.NewEngine(sources, cache, cfg.LookupCacheEnabled, cfg.ExternalTimeout, cfg.BatchLookupWorkers)
}

// setupLogging applies the LOG_LEVEL environment variable.
func setupLogging() {
	if v := os.Getenv("LOG_LEVEL"); v != "" {
		switch strings.ToLower(strings.TrimSpace(v)) {
		case "crit", "critical", "c", "0":
			logging.SetLevel(logging.LevelCrit)
		case "error", "err", "e", "1":
			logging.SetLevel(logging.LevelError)
		case "warn", "warning", "w", "2":
			logging.SetLevel(logging.LevelWarn)
		case "notice", "n", "3":
			logging.SetLevel(logging.LevelNotice)
		case "info", "i", "4":
			logging.SetLevel(logging.LevelInfo)
		case "debug", "d", "5":
			logging.SetLevel(logging.LevelDebug)
		default:
			logging.Warn("Unrecognized LOG_LEVEL=%q; valid: crit,error,warn,notice,info,debug or 0-5. Using default (NOTICE).", v)
		}
	}

	logging.Notice("Starting %s %s (+%s)", version.ProjectName, version.ProjectVersion, version.ProjectGitHubURL)
}

// logConfiguration logs configuration details.
func logConfiguration(cfg *config.Config) {
	logging.Notice("Configuration loaded. WebPort: %d, DataDir: %s, DBFile: %s", cfg.WebPort, cfg.DataDir, cfg.DBFileName)
	logging.Debug("Lookup cache enabled: %t (TTL %s), snapshot TTL: %s", cfg.LookupCacheEnabled, cfg.LookupCacheTTL, cfg.SnapshotTTL)

	if cfg.QRZ.Username != "" {
		logging.Notice("QRZ.com source configured for user %s.", cfg.QRZ.Username)
	} else {
		logging.Info("QRZ.com source not configured (no credentials); external lookups use HamQTH only.")
	}
	if cfg.Redis.Enabled {
		logging.Notice("Redis cache enabled. Host: %s:%s, DB: %d, TLS: %t", cfg.Redis.Host, cfg.Redis.Port, cfg.Redis.DB, cfg.Redis.UseTLS)
	} else {
		logging.Info("Redis cache disabled (using in-memory).")
	}
}

// initializeRedis creates and tests the Redis client, returns nil on failure.
func initializeRedis(ctx context.Context, cfg *config.Config) *redisclient.Client {
	if !cfg.Redis.Enabled {
		return nil
	}
	rdb, err := redisclient.NewClient(ctx, cfg.Redis)
	if err != nil {
		logging.Warn("Redis client initialization failed: %v. Continuing without Redis (in-memory mode).", err)
		return nil
	}
	logging.Notice("Redis client initialized and connected.")
	return rdb
}

// initializeRevisionLog opens the rebuild history; a failure only degrades
// the /info endpoint, so it is not fatal.
func initializeRevisionLog(cfg *config.Config) web.RevisionReader {
	dbClient, err := db.NewSQLiteClient(cfg.DataDir, store.RevisionDBFileName)
	if err != nil {
		logging.Warn("Revision history unavailable: %v", err)
		return nil
	}
	revLog, err := store.NewRevisionLog(dbClient)
	if err != nil {
		logging.Warn("Revision history unavailable: %v", err)
		dbClient.Close()
		return nil
	}
	return revLog
}

func setupHTTPRouter() *gin.Engine {
	gin.SetMode(gin.ReleaseMode)
	router := gin.New()
	router.Use(logging.GinLogger(), logging.GinRecovery())
	return router
}

// gracefulShutdown blocks until a signal or context cancellation, then
// drains the HTTP server.
func gracefulShutdown(ctx context.Context, srv *http.Server) int {
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)

	select {
	case sig := <-quit:
		logging.Notice("Received signal %s, shutting down...", sig)
	case <-ctx.Done():
		logging.Notice("Context cancelled, shutting down...")
	}

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		logging.Error("HTTP server shutdown error: %v", err)
		return 1
	}
	logging.Notice("Shutdown complete.")
	return 0
}
