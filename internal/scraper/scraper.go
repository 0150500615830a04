package scraper

import (
	"context"
	"errors"

	"github.com/koiakoia/amazon-product-scraper/internal/models"
	"github.com/koiakoia/amazon-product-scraper/internal/parser"
)

var (
	ErrInvalidURL   = errors.New("invalid Amazon URL")
	ErrEmptyKeyword = errors.New("search keyword is empty")
)

type Scraper interface {
	ScrapeProduct(ctx context.Context, url string) (*models.Product, error)
	ScrapeByASIN(ctx context.Context, asin string) (*models.Product, error)
	SearchProducts(ctx context.Context, keyword string, pages int) ([]string, error)
	ScrapeAll(ctx context.Context, urls []string) []*models.Product
	ExtractASIN(url string) (string, error)
}

type Fetcher interface {
	Fetch(ctx context.Context, url string) (string, error)
}

type Parser interface {
	ParseProductPage(html, asin, url string) (*models.Product, error)
	ParseSearchResults(html, baseURL string) ([]parser.SearchResult, error)
}
