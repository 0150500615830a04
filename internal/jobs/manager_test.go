package jobs

import (
	"context"
	"io"
	"log/slog"
	"regexp"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/koiakoia/amazon-product-scraper/internal/models"
	"github.com/koiakoia/amazon-product-scraper/internal/scraper"
)

var testASINPattern = regexp.MustCompile(`/dp/([A-Z0-9]{10})`)

// fakeScraper returns one canned record per requested URL.
type fakeScraper struct {
	searchResults []string
	searchErr     error
}

func (f *fakeScraper) ExtractASIN(url string) (string, error) {
	matches := testASINPattern.FindStringSubmatch(url)
	if len(matches) < 2 {
		return "", scraper.ErrInvalidURL
	}
	return matches[1], nil
}

func (f *fakeScraper) ScrapeProduct(ctx context.Context, url string) (*models.Product, error) {
	asin, err := f.ExtractASIN(url)
	if err != nil {
		return nil, err
	}
	return models.NewProduct(asin, url), nil
}

func (f *fakeScraper) ScrapeByASIN(ctx context.Context, asin string) (*models.Product, error) {
	return models.NewProduct(asin, "https://www.amazon.com/dp/"+asin), nil
}

func (f *fakeScraper) SearchProducts(ctx context.Context, keyword string, pages int) ([]string, error) {
	if f.searchErr != nil {
		return nil, f.searchErr
	}
	return f.searchResults, nil
}

func (f *fakeScraper) ScrapeAll(ctx context.Context, urls []string) []*models.Product {
	products := make([]*models.Product, 0, len(urls))
	for _, url := range urls {
		if product, err := f.ScrapeProduct(ctx, url); err == nil {
			products = append(products, product)
		}
	}
	return products
}

func newTestManager(s scraper.Scraper) *Manager {
	return NewManager(s, slog.New(slog.NewTextHandler(io.Discard, nil)))
}

func waitForStatus(t *testing.T, m *Manager, jobID, status string) *Job {
	t.Helper()

	deadline := time.After(2 * time.Second)
	for {
		select {
		case <-deadline:
			t.Fatalf("job %s never reached status %s", jobID, status)
		case <-time.After(5 * time.Millisecond):
		}

		job, err := m.GetJob(jobID)
		require.NoError(t, err)
		if job.Status == status {
			return job
		}
	}
}

func TestCreateSearchJobValidation(t *testing.T) {
	m := newTestManager(&fakeScraper{})

	_, err := m.CreateSearchJob("", 1)
	assert.ErrorIs(t, err, scraper.ErrEmptyKeyword)
}

func TestCreateURLJobValidation(t *testing.T) {
	m := newTestManager(&fakeScraper{})

	_, err := m.CreateURLJob(nil)
	assert.Error(t, err)

	_, err = m.CreateURLJob([]string{"https://example.com/not-a-product"})
	assert.ErrorIs(t, err, scraper.ErrInvalidURL)
}

func TestSearchJobRunsToCompletion(t *testing.T) {
	s := &fakeScraper{searchResults: []string{
		"https://www.amazon.com/dp/B08N5WRWNW",
		"https://www.amazon.com/dp/B123456789",
	}}
	m := newTestManager(s)

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	go m.StartWorker(ctx)

	job, err := m.CreateSearchJob("widgets", 1)
	require.NoError(t, err)
	assert.Equal(t, StatusPending, job.Status)

	finished := waitForStatus(t, m, job.ID, StatusCompleted)
	assert.Equal(t, 2, finished.Found)
	require.NotNil(t, finished.FinishedAt)

	products, err := m.JobProducts(job.ID)
	require.NoError(t, err)
	require.Len(t, products, 2)
	assert.Equal(t, "B08N5WRWNW", products[0].ASIN)
}

func TestURLJobRunsToCompletion(t *testing.T) {
	m := newTestManager(&fakeScraper{})

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	go m.StartWorker(ctx)

	job, err := m.CreateURLJob([]string{"https://www.amazon.com/dp/B08N5WRWNW"})
	require.NoError(t, err)

	finished := waitForStatus(t, m, job.ID, StatusCompleted)
	assert.Equal(t, 1, finished.Found)
}

func TestFailedSearchMarksJobFailed(t *testing.T) {
	m := newTestManager(&fakeScraper{searchErr: context.DeadlineExceeded})

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	go m.StartWorker(ctx)

	job, err := m.CreateSearchJob("widgets", 1)
	require.NoError(t, err)

	finished := waitForStatus(t, m, job.ID, StatusFailed)
	assert.NotEmpty(t, finished.Error)
}

func TestListJobsAndStats(t *testing.T) {
	m := newTestManager(&fakeScraper{})

	first, err := m.CreateURLJob([]string{"https://www.amazon.com/dp/B08N5WRWNW"})
	require.NoError(t, err)
	second, err := m.CreateSearchJob("widgets", 1)
	require.NoError(t, err)

	listed := m.ListJobs()
	require.Len(t, listed, 2)
	assert.Equal(t, first.ID, listed[0].ID, "creation order preserved")
	assert.Equal(t, second.ID, listed[1].ID)

	stats := m.Stats()
	assert.Equal(t, 2, stats["total"])
	assert.Equal(t, 2, stats[StatusPending])
	assert.Equal(t, 2, stats["queued"])
}

func TestGetJobNotFound(t *testing.T) {
	m := newTestManager(&fakeScraper{})

	_, err := m.GetJob("missing")
	assert.Error(t, err)

	_, err = m.JobProducts("missing")
	assert.Error(t, err)
}
