// Package export serializes product batches to flat files. Tabular formats
// (CSV, XLSX) flatten list fields into delimited strings; JSON keeps them
// as arrays.
package export

import (
	"fmt"
	"strings"
	"time"

	"github.com/koiakoia/amazon-product-scraper/internal/models"
	"github.com/koiakoia/amazon-product-scraper/internal/observability"
)

const (
	// Join delimiters for list-valued fields in tabular formats.
	ImageDelimiter   = ", "
	FeatureDelimiter = " | "
)

// Header is the column order shared by CSV and XLSX output.
var Header = []string{
	"asin",
	"url",
	"title",
	"price",
	"rating",
	"rating_count",
	"availability",
	"images",
	"features",
	"description",
	"scraped_at",
}

// Row flattens one record into the Header column order.
func Row(p *models.Product) []string {
	return []string{
		p.ASIN,
		p.URL,
		p.Title,
		p.Price,
		p.Rating,
		p.RatingCount,
		p.Availability,
		strings.Join(p.Images, ImageDelimiter),
		strings.Join(p.Features, FeatureDelimiter),
		p.Description,
		p.ScrapedAt.Format(time.RFC3339Nano),
	}
}

// DefaultFilename builds a timestamped output name for the given format.
func DefaultFilename(format string) string {
	return fmt.Sprintf("amazon_products_%s.%s", time.Now().Format("20060102_150405"), format)
}

// Write dispatches to the writer for format ("csv", "json" or "xlsx").
func Write(products []*models.Product, format, filename string) error {
	var err error

	switch format {
	case "csv":
		err = WriteCSV(products, filename)
	case "json":
		err = WriteJSON(products, filename)
	case "xlsx":
		err = WriteXLSX(products, filename)
	default:
		return fmt.Errorf("unsupported export format: %s", format)
	}

	if err != nil {
		return err
	}

	observability.ExportsTotal.WithLabelValues(format).Inc()
	return nil
}
