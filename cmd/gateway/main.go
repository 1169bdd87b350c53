package main

import (
	"context"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/alecthomas/kong"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/relaylayer/llmgw/internal/backendauth"
	"github.com/relaylayer/llmgw/internal/gatewayconfig"
	"github.com/relaylayer/llmgw/internal/gatewayhttp"
	"github.com/relaylayer/llmgw/internal/metrics"
	"github.com/relaylayer/llmgw/internal/pipeline"
	"github.com/relaylayer/llmgw/internal/ratelimit"
	"github.com/relaylayer/llmgw/internal/registry"
	"github.com/relaylayer/llmgw/internal/tokenestimate"
	"github.com/relaylayer/llmgw/internal/translator"
)

// cmdRun corresponds to `gateway run <config>`; the binary's other
// sub-command is `version`.
type cmdRun struct {
	Path               string `arg:"" name:"config" help:"Path to the gateway configuration yaml file." type:"path"`
	Debug              bool   `help:"Enable debug logging emitted to stderr."`
	SelectorHeader     string `name:"selector-header" help:"Inbound header used as the rate limiter's per-selector key." default:"x-llm-selector"`
	ProviderHintHeader string `name:"provider-hint-header" help:"Inbound header carrying an explicit provider/model hint." default:"x-llm-provider-hint"`
}

var cli struct {
	Run     cmdRun    `cmd:"" help:"Run the gateway for a given configuration."`
	Version versionCmd `cmd:"" help:"Show version."`
}

type versionCmd struct{}

func (versionCmd) Run() error {
	println("llmgw dev")
	return nil
}

func main() {
	ctx := kong.Parse(&cli)
	ctx.FatalIfErrorf(ctx.Run())
}

func (c *cmdRun) Run() error {
	setupLogger(c.Debug)

	cfg, err := gatewayconfig.Load(c.Path)
	if err != nil {
		slog.Error("failed to load config", "error", err)
		os.Exit(1)
	}

	slog.Info("starting llm gateway", "listen", cfg.Listen, "providers", len(cfg.Providers))

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	reg := registry.New(cfg.Bindings())

	limiter := ratelimit.New()
	for _, rl := range cfg.RateLimits {
		limiter.Configure(ratelimit.Key{Model: rl.Model, Selector: rl.Selector}, rl.Capacity, rl.RefillPerSecond)
	}

	authHandlers := make(map[string]backendauth.Handler, len(cfg.Providers))
	for _, b := range reg.AllBindings() {
		h, err := backendauth.NewHandler(ctx, b.Auth)
		if err != nil {
			slog.Error("failed to build auth handler", "provider", b.Key, "error", err)
			os.Exit(1)
		}
		authHandlers[b.Key] = h
	}

	sink := metrics.NewPrometheusSink(prometheus.DefaultRegisterer)

	pl := &pipeline.Pipeline{
		Registry:           reg,
		Limiter:            limiter,
		Metrics:            sink,
		Host:               gatewayhttp.NewNetHost(),
		Defaults:           translator.Defaults{MaxTokens: cfg.DefaultMaxTokens},
		Estimator:          tokenestimate.New(),
		AuthHandlers:       authHandlers,
		SelectorHeader:     c.SelectorHeader,
		ProviderHintHeader: c.ProviderHintHeader,
	}

	mux := http.NewServeMux()
	mux.Handle("/", gatewayhttp.NewServer(pl, reg, slog.Default()))
	mux.Handle("/metrics", promhttp.Handler())

	srv := &http.Server{
		Addr:         cfg.Listen,
		Handler:      mux,
		ReadTimeout:  30 * time.Second,
		WriteTimeout: 10 * time.Minute, // long-lived SSE streams
		IdleTimeout:  120 * time.Second,
	}

	go func() {
		slog.Info("server listening", "addr", cfg.Listen)
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			slog.Error("server error", "error", err)
			os.Exit(1)
		}
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	slog.Info("shutting down server...")
	shutdownCtx, shutdownCancel := context.WithTimeout(ctx, 30*time.Second)
	defer shutdownCancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		slog.Error("server forced to shutdown", "error", err)
	}
	slog.Info("server stopped")
	return nil
}

func setupLogger(debug bool) {
	level := slog.LevelInfo
	if debug {
		level = slog.LevelDebug
	}
	handler := slog.NewJSONHandler(os.Stderr, &slog.HandlerOptions{Level: level})
	slog.SetDefault(slog.New(handler))
}
