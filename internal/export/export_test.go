package export

import (
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/koiakoia/amazon-product-scraper/internal/models"
)

func sampleProducts() []*models.Product {
	scrapedAt := time.Date(2025, 1, 8, 10, 30, 0, 0, time.UTC)

	return []*models.Product{
		{
			ASIN:         "B08N5WRWNW",
			URL:          "https://www.amazon.com/dp/B08N5WRWNW",
			Title:        "Test Product 1",
			Price:        "$99.99",
			Rating:       "4.5",
			RatingCount:  "1,234 ratings",
			Availability: "In Stock",
			Images:       []string{"https://example.com/image1.jpg", "https://example.com/image2.jpg"},
			Features:     []string{"Feature 1", "Feature 2", "Feature 3"},
			Description:  "This is a test product description.",
			ScrapedAt:    scrapedAt,
		},
		{
			ASIN:      "B123456789",
			URL:       "https://www.amazon.com/dp/B123456789",
			Title:     "Test Product 2",
			Price:     "$149.99",
			Images:    []string{"https://example.com/image3.jpg"},
			ScrapedAt: scrapedAt.Add(time.Minute),
		},
	}
}

func TestJSONRoundTrip(t *testing.T) {
	products := sampleProducts()
	filename := filepath.Join(t.TempDir(), "products.json")

	require.NoError(t, WriteJSON(products, filename))

	restored, err := ReadJSON(filename)
	require.NoError(t, err)
	require.Len(t, restored, len(products))

	for i := range products {
		assert.Equal(t, products[i].ASIN, restored[i].ASIN)
		assert.Equal(t, products[i].Title, restored[i].Title)
		assert.Equal(t, products[i].Price, restored[i].Price)
		assert.Equal(t, products[i].Rating, restored[i].Rating)
		assert.Equal(t, products[i].Images, restored[i].Images, "list fields survive JSON round trip")
		assert.Equal(t, products[i].Features, restored[i].Features)
		assert.True(t, products[i].ScrapedAt.Equal(restored[i].ScrapedAt))
	}
}

func TestCSVRoundTrip(t *testing.T) {
	products := sampleProducts()
	filename := filepath.Join(t.TempDir(), "products.csv")

	require.NoError(t, WriteCSV(products, filename))

	restored, err := ReadCSV(filename)
	require.NoError(t, err)
	require.Len(t, restored, len(products))

	for i := range products {
		assert.Equal(t, products[i].ASIN, restored[i].ASIN)
		assert.Equal(t, products[i].URL, restored[i].URL)
		assert.Equal(t, products[i].Title, restored[i].Title)
		assert.Equal(t, products[i].Availability, restored[i].Availability)
		assert.Equal(t, products[i].Images, restored[i].Images)
		assert.Equal(t, products[i].Features, restored[i].Features)
		assert.True(t, products[i].ScrapedAt.Equal(restored[i].ScrapedAt))
	}
}

func TestCSVFlattensListFields(t *testing.T) {
	row := Row(sampleProducts()[0])

	assert.Equal(t, "https://example.com/image1.jpg, https://example.com/image2.jpg", row[7])
	assert.Equal(t, "Feature 1 | Feature 2 | Feature 3", row[8])
}

func TestXLSXWriteAndReadBack(t *testing.T) {
	products := sampleProducts()
	filename := filepath.Join(t.TempDir(), "products.xlsx")

	require.NoError(t, WriteXLSX(products, filename))

	rows, err := ReadXLSX(filename)
	require.NoError(t, err)
	require.Len(t, rows, len(products)+1)

	assert.Equal(t, Header, rows[0])
	assert.Equal(t, "B08N5WRWNW", rows[1][0])
	assert.Equal(t, "Feature 1 | Feature 2 | Feature 3", rows[1][8], "same flattening as CSV")
	assert.Equal(t, "B123456789", rows[2][0])
}

func TestWriteDispatch(t *testing.T) {
	dir := t.TempDir()

	for _, format := range []string{"csv", "json", "xlsx"} {
		filename := filepath.Join(dir, "out."+format)
		require.NoError(t, Write(sampleProducts(), format, filename))
	}

	err := Write(sampleProducts(), "parquet", filepath.Join(dir, "out.parquet"))
	require.Error(t, err)
	assert.Contains(t, err.Error(), "unsupported export format")
}

func TestDefaultFilename(t *testing.T) {
	name := DefaultFilename("csv")

	assert.True(t, strings.HasPrefix(name, "amazon_products_"))
	assert.True(t, strings.HasSuffix(name, ".csv"))
}
