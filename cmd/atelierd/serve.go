package main

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"sync"
	"syscall"
	"time"

	"github.com/spf13/cobra"
	"github.com/xraph/forge"

	"github.com/xraph/atelier"
	"github.com/xraph/atelier/api"
	"github.com/xraph/atelier/audit"
	"github.com/xraph/atelier/engine"
	"github.com/xraph/atelier/gen"
	"github.com/xraph/atelier/registry"
	"github.com/xraph/atelier/stream"
	"github.com/xraph/atelier/wire"
)

// Server timeout configuration.
const (
	readHeaderTimeout = 10 * time.Second
	readTimeout       = 30 * time.Second
	writeTimeout      = 2 * time.Minute // SSE streaming needs longer timeout
	idleTimeout       = 2 * time.Minute
)

var serveFlags struct {
	addr            string
	logLevel        string
	stageTimeout    time.Duration
	evictAfter      time.Duration
	evictSchedule   string
	shutdownTimeout time.Duration
	geminiModel     string
	auditLog        string
}

var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Start the Atelier HTTP and WebSocket server",
	RunE: func(cmd *cobra.Command, _ []string) error {
		return runServe(cmd.Context())
	},
}

func init() {
	f := serveCmd.Flags()
	f.StringVar(&serveFlags.addr, "addr", ":8080", "listen address")
	f.StringVar(&serveFlags.logLevel, "log-level", "info", "log level (debug, info, warn, error)")
	f.DurationVar(&serveFlags.stageTimeout, "stage-timeout", 2*time.Minute, "per-stage execution timeout (0 disables)")
	f.DurationVar(&serveFlags.evictAfter, "evict-after", 0, "retention for terminal projects (0 retains forever)")
	f.StringVar(&serveFlags.evictSchedule, "evict-schedule", "@every 1m", "cron schedule for the eviction sweep")
	f.DurationVar(&serveFlags.shutdownTimeout, "shutdown-timeout", 30*time.Second, "graceful shutdown deadline")
	f.StringVar(&serveFlags.geminiModel, "gemini-model", gen.DefaultGeminiModel, "Gemini model for content generation")
	f.StringVar(&serveFlags.auditLog, "audit-log", "", "append lifecycle audit events as JSON lines to this file")
	rootCmd.AddCommand(serveCmd)
}

func newLogger(level string) *slog.Logger {
	var lvl slog.Level
	switch level {
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

// newGenerator picks the content generator: Gemini when GEMINI_API_KEY is
// set, the deterministic generator otherwise.
func newGenerator(ctx context.Context, logger *slog.Logger) (gen.Generator, error) {
	apiKey := os.Getenv("GEMINI_API_KEY")
	if apiKey == "" {
		logger.Warn("GEMINI_API_KEY not set, using deterministic content generator")
		return gen.NewStatic(), nil
	}

	g, err := gen.NewGemini(ctx, apiKey, gen.WithModel(serveFlags.geminiModel))
	if err != nil {
		return nil, fmt.Errorf("create gemini generator: %w", err)
	}
	logger.Info("gemini generator ready", slog.String("model", serveFlags.geminiModel))
	return g, nil
}

func runServe(ctx context.Context) error {
	ctx, cancel := signal.NotifyContext(ctx, syscall.SIGINT, syscall.SIGTERM)
	defer cancel()

	logger := newLogger(serveFlags.logLevel)
	slog.SetDefault(logger)
	logger.Info("starting atelierd", slog.String("version", Version))

	generator, err := newGenerator(ctx, logger)
	if err != nil {
		return err
	}

	opts := []atelier.Option{
		atelier.WithLogger(logger),
		atelier.WithRegistry(registry.New(registry.WithLogger(logger))),
		atelier.WithStageTimeout(serveFlags.stageTimeout),
	}
	if serveFlags.evictAfter > 0 {
		opts = append(opts, atelier.WithEviction(serveFlags.evictAfter, serveFlags.evictSchedule))
	}

	a, err := atelier.New(opts...)
	if err != nil {
		return fmt.Errorf("create atelier: %w", err)
	}

	broker := stream.NewBroker(logger)
	engOpts := []engine.Option{
		engine.WithGenerator(generator),
		engine.WithExtension(broker),
	}

	if serveFlags.auditLog != "" {
		auditFile, openErr := os.OpenFile(serveFlags.auditLog, os.O_CREATE|os.O_WRONLY|os.O_APPEND, 0o644)
		if openErr != nil {
			return fmt.Errorf("open audit log: %w", openErr)
		}
		defer auditFile.Close()

		var auditMu sync.Mutex
		recorder := audit.RecorderFunc(func(_ context.Context, evt *audit.Event) error {
			auditMu.Lock()
			defer auditMu.Unlock()
			return json.NewEncoder(auditFile).Encode(evt)
		})
		engOpts = append(engOpts, engine.WithExtension(audit.New(recorder, audit.WithLogger(logger))))
		logger.Info("audit trail enabled", slog.String("file", serveFlags.auditLog))
	}

	eng, err := engine.Build(a, engOpts...)
	if err != nil {
		return fmt.Errorf("build engine: %w", err)
	}
	if err := eng.Start(ctx); err != nil {
		return fmt.Errorf("start engine: %w", err)
	}

	// Assemble the router: REST routes plus the wire WS/SSE endpoints.
	router := forge.NewRouter()
	api.New(eng, router).RegisterRoutes(router)
	wire.NewServer(broker, wire.NewHandler(eng, broker, logger), wire.WithLogger(logger)).RegisterRoutes(router)

	srv := &http.Server{
		Addr:              serveFlags.addr,
		Handler:           router.Handler(),
		ReadHeaderTimeout: readHeaderTimeout,
		ReadTimeout:       readTimeout,
		WriteTimeout:      writeTimeout,
		IdleTimeout:       idleTimeout,
	}

	logger.Info("atelierd ready",
		slog.String("addr", serveFlags.addr),
		slog.String("api", "/v1/projects"),
		slog.String("wire", "/wire, /wire/sse"),
	)

	errCh := make(chan error, 1)
	go func() {
		errCh <- srv.ListenAndServe()
	}()

	select {
	case <-ctx.Done():
		logger.Info("shutting down")
		shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), serveFlags.shutdownTimeout)
		defer shutdownCancel()
		if err := srv.Shutdown(shutdownCtx); err != nil {
			logger.Warn("http shutdown error", slog.String("error", err.Error()))
		}
		<-errCh
		if err := eng.Stop(shutdownCtx); err != nil {
			return fmt.Errorf("stop engine: %w", err)
		}
		return nil
	case err := <-errCh:
		if errors.Is(err, http.ErrServerClosed) {
			return nil
		}
		return fmt.Errorf("http server: %w", err)
	}
}
