// Designd is a multi-agent design pipeline daemon with an HTTP API.
//
// This binary starts the designd HTTP server with full service
// initialization: the role registry, the LLM-backed agent invoker, the
// orchestration engine and the per-session chat log.
//
// Configuration is loaded from ~/.config/designd/config.yaml and
// overridden by environment variables. See internal/config for details.
//
// Usage:
//
//	# Start server with defaults
//	designd
//
//	# Configure via environment
//	SERVER_HTTP_PORT=9000 OPENAI_API_KEY=sk-... designd
package main

import (
	"context"
	"flag"
	"fmt"
	"log"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/labstack/echo/v4"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"go.uber.org/zap"
	"golang.org/x/time/rate"

	"github.com/fyrsmithlabs/designd/internal/agent"
	"github.com/fyrsmithlabs/designd/internal/chatlog"
	"github.com/fyrsmithlabs/designd/internal/config"
	httpapi "github.com/fyrsmithlabs/designd/internal/http"
	"github.com/fyrsmithlabs/designd/internal/logging"
	"github.com/fyrsmithlabs/designd/internal/orchestrator"
	"github.com/fyrsmithlabs/designd/internal/registry"
	"github.com/fyrsmithlabs/designd/internal/services"
	"github.com/fyrsmithlabs/designd/internal/toolset"
)

// Version information (set via ldflags during build)
var (
	version   = "dev"
	gitCommit = "unknown"
	buildDate = "unknown"
)

func main() {
	configPath := flag.String("config", "", "path to config file (default ~/.config/designd/config.yaml)")
	flag.Parse()
	args := flag.Args()

	if len(args) > 0 {
		switch args[0] {
		case "version":
			printVersion()
			os.Exit(0)
		default:
			fmt.Fprintf(os.Stderr, "Unknown command: %s\n", args[0])
			fmt.Fprintf(os.Stderr, "\nUsage:\n")
			fmt.Fprintf(os.Stderr, "  designd           Start the designd daemon\n")
			fmt.Fprintf(os.Stderr, "  designd version   Show version information\n")
			os.Exit(1)
		}
	}

	// Signal handling for graceful shutdown
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, syscall.SIGINT, syscall.SIGTERM)

	go func() {
		sig := <-sigCh
		log.Printf("Received signal %v, shutting down gracefully...", sig)
		cancel()
	}()

	if err := run(ctx, *configPath); err != nil {
		log.Fatalf("Server error: %v", err)
	}

	log.Println("Server shutdown complete")
}

func printVersion() {
	fmt.Printf("designd by Fyrsmith Labs\n")
	fmt.Printf("Version:    %s\n", version)
	fmt.Printf("Commit:     %s\n", gitCommit)
	fmt.Printf("Build Date: %s\n", buildDate)
}

// run starts the designd server and blocks until context is cancelled.
//
// This function initializes all services:
//  1. Loads and validates configuration
//  2. Initializes the logger
//  3. Builds the role registry and optional overrides watcher
//  4. Creates the LLM backend, invoker and orchestration engine
//  5. Wires the chat log store and spill sink
//  6. Starts the HTTP server with /metrics exposed
//  7. Performs graceful shutdown on context cancellation
func run(ctx context.Context, configPath string) error {
	if err := config.EnsureConfigDir(); err != nil {
		return err
	}

	cfg, err := config.LoadWithFile(configPath)
	if err != nil {
		return fmt.Errorf("invalid configuration: %w", err)
	}

	logger, err := logging.New(&logging.Config{
		Level:  cfg.Logging.Level,
		Format: cfg.Logging.Format,
		Caller: logging.CallerConfig{Enabled: true},
		Fields: map[string]string{"service": "designd"},
	})
	if err != nil {
		return fmt.Errorf("failed to initialize logger: %w", err)
	}
	defer func() {
		_ = logging.Sync(logger)
	}()

	logger.Info("Starting designd",
		zap.Int("port", cfg.Server.Port),
		zap.String("model", cfg.LLM.Model),
		zap.String("policy", cfg.Pipeline.Policy),
		zap.Int("max_iterations", cfg.Pipeline.MaxIterations),
		zap.Duration("shutdown_timeout", cfg.Server.ShutdownTimeout.Duration()))

	// Role registry, with optional hot-reloaded instruction overrides
	roles := registry.Default()
	if cfg.Pipeline.RolesFile != "" {
		watcher, err := registry.NewWatcher(roles, cfg.Pipeline.RolesFile, logger)
		if err != nil {
			return fmt.Errorf("failed to create overrides watcher: %w", err)
		}
		if err := watcher.Start(ctx); err != nil {
			return fmt.Errorf("failed to start overrides watcher: %w", err)
		}
		defer func() {
			_ = watcher.Stop()
		}()
		logger.Info("Role overrides active", zap.String("path", cfg.Pipeline.RolesFile))
	}

	// LLM backend and invoker
	backend, err := agent.NewOpenAIBackend(agent.OpenAIConfig{
		BaseURL: cfg.LLM.BaseURL,
		Model:   cfg.LLM.Model,
		APIKey:  cfg.LLM.APIKey.Value(),
	})
	if err != nil {
		return fmt.Errorf("failed to create llm backend: %w", err)
	}

	invokerOpts := []agent.Option{
		agent.WithRateLimiter(rate.NewLimiter(rate.Limit(2), 4)),
	}

	tools := toolset.FromConfig(cfg.Toolset.URL, cfg.Toolset.Token.Value())
	if tools != nil {
		pingCtx, pingCancel := context.WithTimeout(ctx, 5*time.Second)
		if err := tools.Ping(pingCtx); err != nil {
			logger.Warn("Toolset endpoint unreachable, agents are still told about it",
				zap.String("url", tools.URL()),
				zap.Error(err))
		}
		pingCancel()
		invokerOpts = append(invokerOpts, agent.WithSystemNote(tools.Note()))
		logger.Info("Toolset enabled", zap.String("url", tools.URL()))
	}

	invoker := agent.NewInvoker(backend, invokerOpts...)

	// Orchestration engine
	engine, err := orchestrator.NewEngine(invoker, roles,
		orchestrator.WithPolicy(orchestrator.Policy(cfg.Pipeline.Policy)),
		orchestrator.WithLogger(logger))
	if err != nil {
		return fmt.Errorf("failed to create engine: %w", err)
	}

	// Chat log with file spill
	sink, err := chatlog.NewFileSink(cfg.ChatLog.Dir)
	if err != nil {
		return fmt.Errorf("failed to create chat log sink: %w", err)
	}
	store := chatlog.NewStore(cfg.ChatLog.MaxEntries,
		chatlog.WithSink(sink),
		chatlog.WithLogger(logger))

	svc := services.NewRegistry(services.Options{
		Engine:  engine,
		Roles:   roles,
		ChatLog: store,
		LogSink: sink,
		Toolset: tools,
	})

	srv, err := httpapi.NewServer(svc.Engine(), svc.Roles(), svc.ChatLog(), svc.LogSink(), logger, &httpapi.Config{
		Host:          "0.0.0.0",
		Port:          cfg.Server.Port,
		MaxIterations: cfg.Pipeline.MaxIterations,
		Toolset:       svc.Toolset(),
	})
	if err != nil {
		return fmt.Errorf("failed to create http server: %w", err)
	}

	// Metrics endpoint
	srv.Echo().GET("/metrics", echo.WrapHandler(promhttp.Handler()))

	logger.Info("Server configured",
		zap.String("health_endpoint", fmt.Sprintf("http://localhost:%d/health", cfg.Server.Port)),
		zap.String("runs_endpoint", "/api/v1/runs"),
		zap.String("metrics_endpoint", "/metrics"))

	errCh := make(chan error, 1)
	go func() {
		errCh <- srv.Start()
	}()

	select {
	case err := <-errCh:
		return err
	case <-ctx.Done():
	}

	shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), cfg.Server.ShutdownTimeout.Duration())
	defer shutdownCancel()
	return srv.Shutdown(shutdownCtx)
}
