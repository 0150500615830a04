package jobs

import (
	"context"
	"fmt"
	"log/slog"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/koiakoia/amazon-product-scraper/internal/models"
	"github.com/koiakoia/amazon-product-scraper/internal/queue"
	"github.com/koiakoia/amazon-product-scraper/internal/scraper"
)

const (
	StatusPending   = "pending"
	StatusRunning   = "running"
	StatusCompleted = "completed"
	StatusFailed    = "failed"
)

// Job is one scrape request and its outcome. Products are retained in
// memory until the process exits; exports read from here.
type Job struct {
	ID         string            `json:"id"`
	Keyword    string            `json:"keyword,omitempty"`
	Pages      int               `json:"pages,omitempty"`
	URLs       []string          `json:"urls,omitempty"`
	Status     string            `json:"status"`
	Error      string            `json:"error,omitempty"`
	CreatedAt  time.Time         `json:"created_at"`
	FinishedAt *time.Time        `json:"finished_at,omitempty"`
	Found      int               `json:"found"`
	Products   []*models.Product `json:"-"`
}

// Manager owns the job table and the single worker that drains the queue.
// One worker keeps the site-facing traffic strictly sequential.
type Manager struct {
	mu      sync.RWMutex
	jobs    map[string]*Job
	order   []string
	queue   queue.Queue
	scraper scraper.Scraper
	logger  *slog.Logger
}

func NewManager(s scraper.Scraper, logger *slog.Logger) *Manager {
	return &Manager{
		jobs:    make(map[string]*Job),
		queue:   queue.NewInMemoryQueue(),
		scraper: s,
		logger:  logger.With("component", "jobs"),
	}
}

// CreateSearchJob enqueues a keyword search followed by product scrapes.
func (m *Manager) CreateSearchJob(keyword string, pages int) (*Job, error) {
	if keyword == "" {
		return nil, scraper.ErrEmptyKeyword
	}
	if pages < 1 {
		pages = 1
	}

	job := &Job{
		ID:        uuid.NewString(),
		Keyword:   keyword,
		Pages:     pages,
		Status:    StatusPending,
		CreatedAt: time.Now(),
	}

	return m.enqueue(job, &queue.Task{
		JobID:     job.ID,
		Keyword:   keyword,
		Pages:     pages,
		CreatedAt: job.CreatedAt,
	})
}

// CreateURLJob enqueues scrapes for an explicit product URL list. Every URL
// must carry an extractable ASIN.
func (m *Manager) CreateURLJob(urls []string) (*Job, error) {
	if len(urls) == 0 {
		return nil, fmt.Errorf("at least one URL is required")
	}

	for _, u := range urls {
		if _, err := m.scraper.ExtractASIN(u); err != nil {
			return nil, fmt.Errorf("%w: %s", scraper.ErrInvalidURL, u)
		}
	}

	job := &Job{
		ID:        uuid.NewString(),
		URLs:      urls,
		Status:    StatusPending,
		CreatedAt: time.Now(),
	}

	return m.enqueue(job, &queue.Task{
		JobID:     job.ID,
		URLs:      urls,
		CreatedAt: job.CreatedAt,
	})
}

func (m *Manager) enqueue(job *Job, task *queue.Task) (*Job, error) {
	m.mu.Lock()
	m.jobs[job.ID] = job
	m.order = append(m.order, job.ID)
	m.mu.Unlock()

	if err := m.queue.Push(task); err != nil {
		m.setFailed(job.ID, err)
		return nil, fmt.Errorf("failed to enqueue job: %w", err)
	}

	m.logger.Info("job created", "id", job.ID, "keyword", job.Keyword, "urls", len(job.URLs))
	return m.snapshot(job.ID), nil
}

func (m *Manager) GetJob(id string) (*Job, error) {
	job := m.snapshot(id)
	if job == nil {
		return nil, fmt.Errorf("job not found: %s", id)
	}
	return job, nil
}

func (m *Manager) ListJobs() []*Job {
	m.mu.RLock()
	ids := make([]string, len(m.order))
	copy(ids, m.order)
	m.mu.RUnlock()

	jobs := make([]*Job, 0, len(ids))
	for _, id := range ids {
		if job := m.snapshot(id); job != nil {
			jobs = append(jobs, job)
		}
	}
	return jobs
}

// JobProducts returns the records collected by a finished or running job.
func (m *Manager) JobProducts(id string) ([]*models.Product, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	job, exists := m.jobs[id]
	if !exists {
		return nil, fmt.Errorf("job not found: %s", id)
	}

	products := make([]*models.Product, len(job.Products))
	copy(products, job.Products)
	return products, nil
}

func (m *Manager) Stats() map[string]int {
	m.mu.RLock()
	defer m.mu.RUnlock()

	stats := map[string]int{
		"total":  len(m.jobs),
		"queued": m.queue.Size(),
	}
	for _, job := range m.jobs {
		stats[job.Status]++
	}
	return stats
}

// StartWorker drains the queue until ctx is cancelled. Jobs run one at a
// time; there is never more than one request in flight.
func (m *Manager) StartWorker(ctx context.Context) {
	m.logger.Info("job worker started")

	for {
		task, err := m.queue.Pop(ctx)
		if err != nil {
			m.logger.Info("job worker stopping", "reason", err)
			return
		}

		m.processTask(ctx, task)
	}
}

func (m *Manager) processTask(ctx context.Context, task *queue.Task) {
	m.logger.Info("processing job", "id", task.JobID)
	m.setStatus(task.JobID, StatusRunning)

	urls := task.URLs

	if task.Keyword != "" {
		found, err := m.scraper.SearchProducts(ctx, task.Keyword, task.Pages)
		if err != nil {
			m.setFailed(task.JobID, err)
			return
		}
		urls = found
	}

	products := m.scraper.ScrapeAll(ctx, urls)

	if err := ctx.Err(); err != nil {
		m.setFailed(task.JobID, err)
		return
	}

	m.mu.Lock()
	if job, exists := m.jobs[task.JobID]; exists {
		now := time.Now()
		job.Products = products
		job.Found = len(products)
		job.Status = StatusCompleted
		job.FinishedAt = &now
	}
	m.mu.Unlock()

	m.logger.Info("job completed", "id", task.JobID, "products", len(products))
}

func (m *Manager) setStatus(id, status string) {
	m.mu.Lock()
	defer m.mu.Unlock()

	if job, exists := m.jobs[id]; exists {
		job.Status = status
	}
}

func (m *Manager) setFailed(id string, err error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	if job, exists := m.jobs[id]; exists {
		now := time.Now()
		job.Status = StatusFailed
		job.Error = err.Error()
		job.FinishedAt = &now
	}

	m.logger.Error("job failed", "id", id, "error", err)
}

// snapshot returns a copy safe to hand to HTTP handlers.
func (m *Manager) snapshot(id string) *Job {
	m.mu.RLock()
	defer m.mu.RUnlock()

	job, exists := m.jobs[id]
	if !exists {
		return nil
	}

	copied := *job
	copied.Products = nil
	return &copied
}

// Close stops accepting new jobs; the worker drains what is left.
func (m *Manager) Close() error {
	return m.queue.Close()
}
