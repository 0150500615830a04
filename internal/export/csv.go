package export

import (
	"encoding/csv"
	"fmt"
	"os"
	"strings"
	"time"

	"github.com/koiakoia/amazon-product-scraper/internal/models"
)

// WriteCSV writes one row per record, list fields flattened per the
// package delimiters.
func WriteCSV(products []*models.Product, filename string) error {
	file, err := os.Create(filename)
	if err != nil {
		return fmt.Errorf("failed to create output file: %w", err)
	}
	defer file.Close()

	writer := csv.NewWriter(file)
	defer writer.Flush()

	if err := writer.Write(Header); err != nil {
		return err
	}

	for _, product := range products {
		if err := writer.Write(Row(product)); err != nil {
			return err
		}
	}

	writer.Flush()
	return writer.Error()
}

// ReadCSV reads a file written by WriteCSV back into records, splitting the
// flattened list fields on the package delimiters.
func ReadCSV(filename string) ([]*models.Product, error) {
	file, err := os.Open(filename)
	if err != nil {
		return nil, err
	}
	defer file.Close()

	rows, err := csv.NewReader(file).ReadAll()
	if err != nil {
		return nil, err
	}

	if len(rows) == 0 {
		return nil, fmt.Errorf("empty CSV file: %s", filename)
	}

	products := make([]*models.Product, 0, len(rows)-1)

	for _, row := range rows[1:] {
		if len(row) != len(Header) {
			return nil, fmt.Errorf("unexpected column count %d", len(row))
		}

		scrapedAt, err := time.Parse(time.RFC3339Nano, row[10])
		if err != nil {
			return nil, fmt.Errorf("invalid scraped_at value %q: %w", row[10], err)
		}

		products = append(products, &models.Product{
			ASIN:         row[0],
			URL:          row[1],
			Title:        row[2],
			Price:        row[3],
			Rating:       row[4],
			RatingCount:  row[5],
			Availability: row[6],
			Images:       splitList(row[7], ImageDelimiter),
			Features:     splitList(row[8], FeatureDelimiter),
			Description:  row[9],
			ScrapedAt:    scrapedAt,
		})
	}

	return products, nil
}

func splitList(value, delimiter string) []string {
	if value == "" {
		return nil
	}
	return strings.Split(value, delimiter)
}
