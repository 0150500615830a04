package storage

import (
	"encoding/json"
	"fmt"
	"os"
	"sync"

	"github.com/koiakoia/amazon-product-scraper/internal/models"
)

// Batch collects product records in scrape order. Records are immutable
// once added; a second record with the same ASIN replaces the first in
// place so the batch stays free of duplicates without reordering.
type Batch struct {
	mu      sync.RWMutex
	records []*models.Product
	index   map[string]int
}

func NewBatch() *Batch {
	return &Batch{
		records: make([]*models.Product, 0),
		index:   make(map[string]int),
	}
}

func (b *Batch) Add(product *models.Product) error {
	if product == nil || product.ASIN == "" {
		return fmt.Errorf("ASIN is required")
	}

	b.mu.Lock()
	defer b.mu.Unlock()

	if pos, exists := b.index[product.ASIN]; exists {
		b.records[pos] = product
		return nil
	}

	b.index[product.ASIN] = len(b.records)
	b.records = append(b.records, product)
	return nil
}

func (b *Batch) AddAll(products []*models.Product) error {
	for _, product := range products {
		if err := b.Add(product); err != nil {
			return err
		}
	}
	return nil
}

func (b *Batch) Get(asin string) (*models.Product, bool) {
	b.mu.RLock()
	defer b.mu.RUnlock()

	pos, exists := b.index[asin]
	if !exists {
		return nil, false
	}
	return b.records[pos], true
}

// Items returns the records in insertion order.
func (b *Batch) Items() []*models.Product {
	b.mu.RLock()
	defer b.mu.RUnlock()

	items := make([]*models.Product, len(b.records))
	copy(items, b.records)
	return items
}

func (b *Batch) Len() int {
	b.mu.RLock()
	defer b.mu.RUnlock()
	return len(b.records)
}

func (b *Batch) Stats() map[string]int {
	b.mu.RLock()
	defer b.mu.RUnlock()

	stats := map[string]int{
		"total":    len(b.records),
		"complete": 0,
		"partial":  0,
	}

	for _, record := range b.records {
		if record.IsComplete() {
			stats["complete"]++
		} else {
			stats["partial"]++
		}
	}

	return stats
}

// Snapshot writes the batch to filename as JSON, via a temp file and rename
// so a crash never leaves a half-written snapshot.
func (b *Batch) Snapshot(filename string) error {
	b.mu.RLock()
	data, err := json.MarshalIndent(b.records, "", "  ")
	b.mu.RUnlock()
	if err != nil {
		return err
	}

	tmpFile := filename + ".tmp"
	if err := os.WriteFile(tmpFile, data, 0644); err != nil {
		return err
	}

	return os.Rename(tmpFile, filename)
}

// Load replaces the batch contents with a previously written snapshot.
func (b *Batch) Load(filename string) error {
	data, err := os.ReadFile(filename)
	if err != nil {
		return err
	}

	var records []*models.Product
	if err := json.Unmarshal(data, &records); err != nil {
		return err
	}

	b.mu.Lock()
	defer b.mu.Unlock()

	b.records = b.records[:0]
	b.index = make(map[string]int)
	for _, record := range records {
		b.index[record.ASIN] = len(b.records)
		b.records = append(b.records, record)
	}

	return nil
}
