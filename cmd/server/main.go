package main

import (
	"fmt"
	"log"
	"net/http"
	"os"

	"github.com/dukerupert/vatcheck/internal"
	"github.com/dukerupert/vatcheck/internal/handler/api"
	"github.com/dukerupert/vatcheck/internal/middleware"
	"github.com/dukerupert/vatcheck/internal/router"
	"github.com/dukerupert/vatcheck/internal/routes"
	"github.com/dukerupert/vatcheck/internal/telemetry"
	"github.com/dukerupert/vatcheck/internal/vat"
	"github.com/dukerupert/vatcheck/internal/vies"
)

func run() error {
	// Load configuration
	cfg, err := internal.NewConfig()
	if err != nil {
		return fmt.Errorf("config initialization failed: %w", err)
	}

	// Configure logger
	logger := internal.NewLogger(os.Stdout, cfg.Env, cfg.LogLevel)

	// Load the country rule registry
	registry := vat.NewDefaultRegistry()
	logger.Info("Rule registry loaded", "countries", len(registry.Countries()))

	// Initialize VIES verification client
	logger.Info("Initializing VIES client...", "endpoint", cfg.Vies.Endpoint)
	viesClient := vies.New(vies.Config{
		Endpoint:   cfg.Vies.Endpoint,
		HTTPClient: &http.Client{Timeout: cfg.Vies.Timeout},
		Logger:     logger,
		Registry:   registry,
	})
	logger.Info("VIES client initialized", "timeout", cfg.Vies.Timeout)

	// ==========================================================================
	// Build route dependencies
	// ==========================================================================

	// Initialize Prometheus metrics
	metrics := middleware.NewMetrics(cfg.Metrics.Namespace)
	business := telemetry.NewBusinessMetrics(cfg.Metrics.Namespace)

	apiDeps := routes.APIDeps{
		VATHandler:    api.NewVATHandler(registry, business, logger),
		VerifyHandler: api.NewVerifyHandler(viesClient, business, logger),
	}

	// ==========================================================================
	// Create router and register routes
	// ==========================================================================

	r := router.New(
		router.Recovery(logger),
		middleware.RequestID,
		middleware.WithRequestLogger(logger),
		metrics.Middleware,
		middleware.MaxBodySize(middleware.SmallMaxBodySize),
		middleware.Timeout(middleware.DefaultTimeout),
		router.Logger(logger),
	)

	// Metrics endpoint (no auth required, but should be protected in production via firewall)
	r.Get("/metrics", func(w http.ResponseWriter, req *http.Request) {
		metrics.Handler().ServeHTTP(w, req)
	})

	// Health check endpoint
	r.Get("/health", func(w http.ResponseWriter, req *http.Request) {
		w.WriteHeader(http.StatusOK)
		w.Write([]byte("OK"))
	})

	routes.RegisterAPIRoutes(r, apiDeps)

	// ==========================================================================
	// Start server
	// ==========================================================================

	addr := fmt.Sprintf(":%d", cfg.Port)
	logger.Info("Starting server", "address", addr, "env", cfg.Env)

	if err := http.ListenAndServe(addr, r); err != nil {
		return fmt.Errorf("server failed: %w", err)
	}

	return nil
}

func main() {
	if err := run(); err != nil {
		log.Fatal(err)
	}
}
