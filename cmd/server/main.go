package main

import (
	"context"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/cors"

	"github.com/koiakoia/amazon-product-scraper/internal/api"
	"github.com/koiakoia/amazon-product-scraper/internal/config"
	"github.com/koiakoia/amazon-product-scraper/internal/fetch"
	"github.com/koiakoia/amazon-product-scraper/internal/jobs"
	"github.com/koiakoia/amazon-product-scraper/internal/observability"
	"github.com/koiakoia/amazon-product-scraper/internal/parser"
	"github.com/koiakoia/amazon-product-scraper/internal/scraper"
	"github.com/koiakoia/amazon-product-scraper/pkg/logger"
)

func main() {
	cfg, err := config.Load()
	if err != nil {
		fmt.Fprintf(os.Stderr, "failed to load config: %v\n", err)
		os.Exit(1)
	}
	if err := cfg.Validate(); err != nil {
		fmt.Fprintf(os.Stderr, "invalid config: %v\n", err)
		os.Exit(1)
	}

	log := logger.New(cfg.Logging.Level, cfg.Logging.Format)

	observability.Register()

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	fetcher := fetch.New(fetch.Options{
		UserAgents: cfg.Scraper.UserAgents,
		MaxRetries: cfg.Scraper.MaxRetries,
		RetryDelay: cfg.Scraper.RetryDelay,
		Timeout:    cfg.Scraper.RequestTimeout,
		DelayMin:   cfg.Scraper.DelayMin,
		DelayMax:   cfg.Scraper.DelayMax,
	}, log)

	s := scraper.NewAmazonScraper(fetcher, parser.NewAmazonParser(), cfg.Scraper.BaseURL, log)

	jobManager := jobs.NewManager(s, log)
	defer jobManager.Close()

	go jobManager.StartWorker(ctx)

	handlers := api.NewHandlers(s, jobManager, log)

	r := chi.NewRouter()

	r.Use(middleware.RequestID)
	r.Use(middleware.RealIP)
	r.Use(middleware.Logger)
	r.Use(middleware.Recoverer)
	r.Use(middleware.Timeout(5 * time.Minute))

	r.Use(cors.Handler(cors.Options{
		AllowedOrigins:   []string{"http://localhost:*", "https://localhost:*"},
		AllowedMethods:   []string{"GET", "POST", "OPTIONS"},
		AllowedHeaders:   []string{"Accept", "Authorization", "Content-Type"},
		AllowCredentials: true,
		MaxAge:           300,
	}))

	r.Get("/health", handlers.Health)
	r.Method(http.MethodGet, "/metrics", observability.Handler())

	r.Route("/api/v1", func(r chi.Router) {
		r.Route("/scraper", func(r chi.Router) {
			r.Post("/products", handlers.ScrapeProducts)

			r.Post("/jobs", handlers.CreateJob)
			r.Get("/jobs", handlers.ListJobs)
			r.Get("/jobs/{jobID}", handlers.GetJob)
			r.Get("/jobs/{jobID}/products", handlers.GetJobProducts)
			r.Get("/jobs/{jobID}/export", handlers.ExportJob)
		})

		r.Get("/stats", handlers.GetStats)
	})

	server := &http.Server{
		Addr:         fmt.Sprintf("%s:%s", cfg.Server.Host, cfg.Server.Port),
		Handler:      r,
		ReadTimeout:  cfg.Server.ReadTimeout,
		WriteTimeout: cfg.Server.WriteTimeout,
		IdleTimeout:  60 * time.Second,
	}

	go func() {
		sigChan := make(chan os.Signal, 1)
		signal.Notify(sigChan, os.Interrupt, syscall.SIGTERM)
		<-sigChan

		log.Info("shutting down server...")
		cancel()

		shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), cfg.Server.ShutdownTimeout)
		defer shutdownCancel()

		if err := server.Shutdown(shutdownCtx); err != nil {
			log.Error("server shutdown failed", "error", err)
		}
	}()

	log.Info("server starting", "addr", server.Addr)
	if err := server.ListenAndServe(); err != nil && err != http.ErrServerClosed {
		log.Error("server failed", "error", err)
		os.Exit(1)
	}

	log.Info("server stopped")
}
