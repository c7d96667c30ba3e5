// CLAUDE:SUMMARY Entry point for the arxpipe MCP server — stdio transport, optional admin HTTP and SQLite observability.
package main

import (
	"context"
	"encoding/json"
	"net/http"
	"os"
	"os/signal"
	"strconv"
	"syscall"
	"time"

	"log/slog"

	"github.com/go-chi/chi/v5"
	"github.com/modelcontextprotocol/go-sdk/mcp"
	_ "modernc.org/sqlite"

	"github.com/arxpipe/arxpipe/dbopen"
	"github.com/arxpipe/arxpipe/observability"
	"github.com/arxpipe/arxpipe/pipeline"
	"github.com/arxpipe/arxpipe/shield"
)

func main() {
	configPath := env("CONFIG_FILE", "")
	adminPort := env("ADMIN_PORT", "")
	metricsPath := env("METRICS_DB", "")
	logLevel := env("LOG_LEVEL", "info")

	// Logging. The MCP stdio transport owns stdout, so logs go to stderr.
	var lvl slog.Level
	switch logLevel {
	case "debug":
		lvl = slog.LevelDebug
	case "warn":
		lvl = slog.LevelWarn
	case "error":
		lvl = slog.LevelError
	default:
		lvl = slog.LevelInfo
	}
	logger := slog.New(slog.NewJSONHandler(os.Stderr, &slog.HandlerOptions{Level: lvl}))
	slog.SetDefault(logger)

	// Signal context.
	ctx, cancel := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer cancel()

	// Configuration.
	cfg := pipeline.DefaultConfig()
	if configPath != "" {
		var err error
		cfg, err = pipeline.LoadConfig(configPath)
		if err != nil {
			slog.Error("load config", "error", err)
			os.Exit(1)
		}
	}
	cfg.Logger = logger

	// Optional SQLite observability.
	var opts []pipeline.Option
	var events *observability.EventLogger
	if metricsPath != "" {
		obsDB, err := dbopen.Open(metricsPath,
			dbopen.WithMkdirAll(),
			dbopen.WithSchema(observability.Schema))
		if err != nil {
			slog.Error("metrics db", "error", err)
			os.Exit(1)
		}
		defer obsDB.Close()

		mm := observability.NewMetricsManager(obsDB, 100, 5*time.Second)
		defer mm.Close()
		cfg.Metrics = mm

		events = observability.NewEventLogger(obsDB)
		opts = append(opts, pipeline.WithEventHook(func(res *pipeline.Result, elapsed time.Duration) {
			events.LogEvent(context.Background(), observability.PaperEvent{
				ArxivID:     res.ID,
				MainTexFile: res.MainFile,
				FileCount:   res.FileCount,
				Success:     res.Success,
				PDFCompiled: res.PDFCompiled,
				DurationMs:  elapsed.Milliseconds(),
				Error:       res.Error,
			})
		}))

		hb := observability.NewHeartbeatWriter(obsDB, "arxpipe", 15*time.Second)
		hb.Start(ctx)
		defer hb.Stop()
	}

	p := pipeline.New(cfg, opts...)

	// Optional admin HTTP endpoint.
	if adminPort != "" {
		r := chi.NewRouter()
		for _, mw := range shield.DefaultAdminStack() {
			r.Use(mw)
		}
		r.Get("/health", func(w http.ResponseWriter, _ *http.Request) {
			writeJSON(w, 200, map[string]string{"status": "ok"})
		})
		r.Get("/status", func(w http.ResponseWriter, _ *http.Request) {
			writeJSON(w, 200, p.Status())
		})
		r.Get("/events", func(w http.ResponseWriter, req *http.Request) {
			if events == nil {
				writeJSON(w, 404, map[string]string{"error": "observability database not configured"})
				return
			}
			limit, _ := strconv.Atoi(req.URL.Query().Get("limit"))
			out, err := events.RecentEvents(req.Context(), req.URL.Query().Get("arxiv_id"), limit)
			if err != nil {
				writeError(w, 500, err)
				return
			}
			writeJSON(w, 200, out)
		})

		adminSrv := &http.Server{
			Addr:              ":" + adminPort,
			Handler:           r,
			ReadHeaderTimeout: 10 * time.Second,
			WriteTimeout:      60 * time.Second,
			IdleTimeout:       60 * time.Second,
		}
		go func() {
			slog.Info("admin server starting", "port", adminPort)
			if err := adminSrv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
				slog.Error("admin server", "error", err)
			}
		}()
		defer func() {
			shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 10*time.Second)
			defer shutdownCancel()
			adminSrv.Shutdown(shutdownCtx)
		}()
	}

	// MCP over stdio, the primary interface.
	srv := mcp.NewServer(&mcp.Implementation{
		Name:    "arxpipe",
		Version: "1.0.0",
	}, nil)
	p.RegisterMCP(srv)

	slog.Info("arxpipe starting", "transport", "stdio",
		"max_downloads", cfg.MaxDownloads,
		"max_extractions", cfg.MaxExtractions,
		"max_compilations", cfg.MaxCompilations)

	if err := srv.Run(ctx, &mcp.StdioTransport{}); err != nil && ctx.Err() == nil {
		slog.Error("mcp server", "error", err)
		os.Exit(1)
	}
	slog.Info("shutting down")
}

func env(key, def string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return def
}

func writeJSON(w http.ResponseWriter, code int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(code)
	json.NewEncoder(w).Encode(v)
}

func writeError(w http.ResponseWriter, code int, err error) {
	writeJSON(w, code, map[string]string{"error": err.Error()})
}
