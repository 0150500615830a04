package main

import (
	"context"
	"flag"
	"fmt"
	"os"
	"os/signal"
	"path/filepath"
	"strings"
	"syscall"

	"github.com/koiakoia/amazon-product-scraper/internal/config"
	"github.com/koiakoia/amazon-product-scraper/internal/export"
	"github.com/koiakoia/amazon-product-scraper/internal/fetch"
	"github.com/koiakoia/amazon-product-scraper/internal/observability"
	"github.com/koiakoia/amazon-product-scraper/internal/parser"
	"github.com/koiakoia/amazon-product-scraper/internal/scraper"
	"github.com/koiakoia/amazon-product-scraper/internal/storage"
	"github.com/koiakoia/amazon-product-scraper/pkg/logger"
)

func main() {
	var (
		keyword = flag.String("keyword", "", "Search keyword")
		pages   = flag.Int("pages", 1, "Number of search result pages to scrape")
		urls    = flag.String("urls", "", "Comma-separated product URLs (alternative to -keyword)")
		output  = flag.String("output", "", "Output directory (default: from config)")
		formats = flag.String("formats", "", "Comma-separated export formats: csv,json,xlsx (default: from config)")
	)
	flag.Parse()

	if *keyword == "" && *urls == "" {
		fmt.Println("Please provide -keyword or -urls")
		flag.Usage()
		os.Exit(1)
	}

	cfg, err := config.Load()
	if err != nil {
		fmt.Fprintf(os.Stderr, "failed to load config: %v\n", err)
		os.Exit(1)
	}
	if err := cfg.Validate(); err != nil {
		fmt.Fprintf(os.Stderr, "invalid config: %v\n", err)
		os.Exit(1)
	}

	if *output != "" {
		cfg.Export.OutputDir = *output
	}
	if *formats != "" {
		cfg.Export.Formats = strings.Split(*formats, ",")
	}

	log := logger.New(cfg.Logging.Level, cfg.Logging.Format)
	log.Info("starting Amazon product scraper")

	observability.Register()

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	sigChan := make(chan os.Signal, 1)
	signal.Notify(sigChan, os.Interrupt, syscall.SIGTERM)
	go func() {
		<-sigChan
		log.Info("shutdown signal received")
		cancel()
	}()

	fetcher := fetch.New(fetch.Options{
		UserAgents: cfg.Scraper.UserAgents,
		MaxRetries: cfg.Scraper.MaxRetries,
		RetryDelay: cfg.Scraper.RetryDelay,
		Timeout:    cfg.Scraper.RequestTimeout,
		DelayMin:   cfg.Scraper.DelayMin,
		DelayMax:   cfg.Scraper.DelayMax,
	}, log)

	s := scraper.NewAmazonScraper(fetcher, parser.NewAmazonParser(), cfg.Scraper.BaseURL, log)

	productURLs := splitNonEmpty(*urls)

	if *keyword != "" {
		found, err := s.SearchProducts(ctx, *keyword, *pages)
		if err != nil {
			log.Error("search failed", "error", err)
			os.Exit(1)
		}
		productURLs = append(productURLs, found...)
	}

	if len(productURLs) == 0 {
		log.Warn("no products found")
		return
	}

	batch := storage.NewBatch()
	if err := batch.AddAll(s.ScrapeAll(ctx, productURLs)); err != nil {
		log.Error("failed to collect records", "error", err)
		os.Exit(1)
	}

	stats := batch.Stats()
	log.Info("scraping finished", "total", stats["total"], "complete", stats["complete"], "partial", stats["partial"])

	if batch.Len() == 0 {
		log.Warn("no products were successfully scraped")
		return
	}

	for _, format := range cfg.Export.Formats {
		filename := filepath.Join(cfg.Export.OutputDir, export.DefaultFilename(format))
		if err := export.Write(batch.Items(), format, filename); err != nil {
			log.Error("export failed", "format", format, "error", err)
			continue
		}
		log.Info("exported products", "format", format, "file", filename, "count", batch.Len())
	}
}

func splitNonEmpty(s string) []string {
	if s == "" {
		return nil
	}

	var out []string
	for _, part := range strings.Split(s, ",") {
		if part = strings.TrimSpace(part); part != "" {
			out = append(out, part)
		}
	}
	return out
}
