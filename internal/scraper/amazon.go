package scraper

import (
	"context"
	"fmt"
	"log/slog"
	"net/url"
	"regexp"

	"github.com/koiakoia/amazon-product-scraper/internal/models"
	"github.com/koiakoia/amazon-product-scraper/internal/observability"
)

const productURLPattern = `/(?:dp|gp/product)/([A-Z0-9]{10})`

var asinPattern = regexp.MustCompile(productURLPattern)

// AmazonScraper ties the fetch and parser layers together. Requests run
// strictly sequentially; inter-request spacing is owned by the fetcher.
type AmazonScraper struct {
	fetcher Fetcher
	parser  Parser
	baseURL string
	logger  *slog.Logger
}

func NewAmazonScraper(f Fetcher, p Parser, baseURL string, logger *slog.Logger) *AmazonScraper {
	return &AmazonScraper{
		fetcher: f,
		parser:  p,
		baseURL: baseURL,
		logger:  logger.With("component", "scraper"),
	}
}

// ScrapeProduct fetches and parses a single product page. ASIN and URL are
// always set on the returned record; any other field may be empty.
func (s *AmazonScraper) ScrapeProduct(ctx context.Context, productURL string) (*models.Product, error) {
	asin, err := s.ExtractASIN(productURL)
	if err != nil {
		return nil, fmt.Errorf("failed to extract ASIN from %q: %w", productURL, err)
	}

	s.logger.Info("scraping product", "asin", asin, "url", productURL)

	html, err := s.fetcher.Fetch(ctx, productURL)
	if err != nil {
		return nil, fmt.Errorf("failed to fetch product page: %w", err)
	}

	product, err := s.parser.ParseProductPage(html, asin, productURL)
	if err != nil {
		return nil, fmt.Errorf("failed to parse product page: %w", err)
	}

	observability.ProductsScrapedTotal.Inc()
	s.logger.Info("scraped product", "asin", asin, "title", product.Title)

	return product, nil
}

func (s *AmazonScraper) ScrapeByASIN(ctx context.Context, asin string) (*models.Product, error) {
	return s.ScrapeProduct(ctx, fmt.Sprintf("%s/dp/%s", s.baseURL, asin))
}

// SearchProducts collects product URLs from up to pages search result pages.
// A failed page is logged and skipped; the remaining pages still run.
func (s *AmazonScraper) SearchProducts(ctx context.Context, keyword string, pages int) ([]string, error) {
	if keyword == "" {
		return nil, ErrEmptyKeyword
	}
	if pages < 1 {
		pages = 1
	}

	s.logger.Info("searching products", "keyword", keyword, "pages", pages)

	var productURLs []string

	for page := 1; page <= pages; page++ {
		select {
		case <-ctx.Done():
			return productURLs, ctx.Err()
		default:
		}

		searchURL := fmt.Sprintf("%s/s?k=%s&page=%d", s.baseURL, url.QueryEscape(keyword), page)

		html, err := s.fetcher.Fetch(ctx, searchURL)
		if err != nil {
			s.logger.Error("failed to fetch search page", "page", page, "error", err)
			continue
		}

		results, err := s.parser.ParseSearchResults(html, s.baseURL)
		if err != nil {
			s.logger.Error("failed to parse search page", "page", page, "error", err)
			continue
		}

		s.logger.Info("found products on page", "page", page, "count", len(results))

		for _, result := range results {
			productURLs = append(productURLs, result.URL)
		}
	}

	s.logger.Info("search finished", "keyword", keyword, "total", len(productURLs))
	return productURLs, nil
}

// ScrapeAll scrapes each URL in order. Per-item failures are logged and the
// item skipped, so the returned batch can be shorter than the input.
func (s *AmazonScraper) ScrapeAll(ctx context.Context, urls []string) []*models.Product {
	products := make([]*models.Product, 0, len(urls))

	for i, productURL := range urls {
		select {
		case <-ctx.Done():
			s.logger.Warn("scrape cancelled", "done", i, "total", len(urls))
			return products
		default:
		}

		s.logger.Info("processing product", "index", i+1, "total", len(urls))

		product, err := s.ScrapeProduct(ctx, productURL)
		if err != nil {
			s.logger.Error("failed to scrape product", "url", productURL, "error", err)
			continue
		}

		products = append(products, product)
	}

	return products
}

// ExtractASIN pulls the marketplace identifier out of a product URL.
func (s *AmazonScraper) ExtractASIN(productURL string) (string, error) {
	matches := asinPattern.FindStringSubmatch(productURL)
	if len(matches) < 2 {
		return "", ErrInvalidURL
	}

	return matches[1], nil
}
