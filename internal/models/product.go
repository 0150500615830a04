package models

import (
	"time"
)

// Product is one scraped product record. ASIN, URL and ScrapedAt are always
// populated; every other field is empty when extraction missed it.
type Product struct {
	ASIN         string    `json:"asin"`
	URL          string    `json:"url"`
	Title        string    `json:"title,omitempty"`
	Price        string    `json:"price,omitempty"`
	Rating       string    `json:"rating,omitempty"`
	RatingCount  string    `json:"rating_count,omitempty"`
	Availability string    `json:"availability,omitempty"`
	Images       []string  `json:"images,omitempty"`
	Features     []string  `json:"features,omitempty"`
	Description  string    `json:"description,omitempty"`
	ScrapedAt    time.Time `json:"scraped_at"`
}

type ScrapeResult struct {
	Product *Product `json:"product,omitempty"`
	Error   *Error   `json:"error,omitempty"`
	Success bool     `json:"success"`
}

type Error struct {
	Code    string    `json:"code"`
	Message string    `json:"message"`
	Time    time.Time `json:"time"`
	URL     string    `json:"url,omitempty"`
}

func NewProduct(asin, url string) *Product {
	return &Product{
		ASIN:      asin,
		URL:       url,
		ScrapedAt: time.Now(),
	}
}

func (p *Product) Validate() []string {
	var errors []string

	if p.ASIN == "" {
		errors = append(errors, "ASIN is required")
	}

	if p.URL == "" {
		errors = append(errors, "URL is required")
	}

	if p.ScrapedAt.IsZero() {
		errors = append(errors, "ScrapedAt is required")
	}

	return errors
}

// IsComplete reports whether the main listing fields were all extracted.
// Partial records are still valid exports.
func (p *Product) IsComplete() bool {
	return p.Title != "" && p.Price != "" && len(p.Images) > 0
}
