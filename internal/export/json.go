package export

import (
	"encoding/json"
	"fmt"
	"os"

	"github.com/koiakoia/amazon-product-scraper/internal/models"
)

// WriteJSON writes the batch as an indented JSON array, list fields
// preserved as arrays.
func WriteJSON(products []*models.Product, filename string) error {
	data, err := json.MarshalIndent(products, "", "  ")
	if err != nil {
		return fmt.Errorf("failed to marshal products: %w", err)
	}

	return os.WriteFile(filename, data, 0644)
}

func ReadJSON(filename string) ([]*models.Product, error) {
	data, err := os.ReadFile(filename)
	if err != nil {
		return nil, err
	}

	var products []*models.Product
	if err := json.Unmarshal(data, &products); err != nil {
		return nil, fmt.Errorf("failed to unmarshal products: %w", err)
	}

	return products, nil
}
