package models

import (
	"encoding/json"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNewProduct(t *testing.T) {
	p := NewProduct("B08N5WRWNW", "https://www.amazon.com/dp/B08N5WRWNW")

	assert.Equal(t, "B08N5WRWNW", p.ASIN)
	assert.Equal(t, "https://www.amazon.com/dp/B08N5WRWNW", p.URL)
	assert.False(t, p.ScrapedAt.IsZero())
	assert.Empty(t, p.Validate())
}

func TestValidateReportsMissingFields(t *testing.T) {
	problems := (&Product{}).Validate()
	assert.Len(t, problems, 3)
}

func TestIsComplete(t *testing.T) {
	p := NewProduct("B08N5WRWNW", "https://www.amazon.com/dp/B08N5WRWNW")
	assert.False(t, p.IsComplete())

	p.Title = "Widget"
	p.Price = "$9.99"
	assert.False(t, p.IsComplete(), "still missing images")

	p.Images = []string{"https://example.com/1.jpg"}
	assert.True(t, p.IsComplete())
}

func TestMissingFieldsOmittedFromJSON(t *testing.T) {
	p := NewProduct("B08N5WRWNW", "https://www.amazon.com/dp/B08N5WRWNW")

	data, err := json.Marshal(p)
	require.NoError(t, err)

	var decoded map[string]interface{}
	require.NoError(t, json.Unmarshal(data, &decoded))

	assert.Contains(t, decoded, "asin")
	assert.Contains(t, decoded, "scraped_at")
	assert.NotContains(t, decoded, "title")
	assert.NotContains(t, decoded, "rating")
	assert.NotContains(t, decoded, "images")
}
