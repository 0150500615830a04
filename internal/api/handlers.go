package api

import (
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"path/filepath"

	"github.com/go-chi/chi/v5"

	"github.com/koiakoia/amazon-product-scraper/internal/export"
	"github.com/koiakoia/amazon-product-scraper/internal/jobs"
	"github.com/koiakoia/amazon-product-scraper/internal/scraper"
)

type Handlers struct {
	scraper scraper.Scraper
	jobs    *jobs.Manager
	logger  *slog.Logger
}

func NewHandlers(s scraper.Scraper, m *jobs.Manager, logger *slog.Logger) *Handlers {
	return &Handlers{
		scraper: s,
		jobs:    m,
		logger:  logger,
	}
}

// ScrapeProductsRequest asks for a synchronous scrape of explicit URLs.
type ScrapeProductsRequest struct {
	URLs []string `json:"urls"`
}

// ScrapeProducts scrapes the given product URLs in order and returns the
// extracted records. Failed items are omitted from the response.
func (h *Handlers) ScrapeProducts(w http.ResponseWriter, r *http.Request) {
	var req ScrapeProductsRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		h.respondError(w, http.StatusBadRequest, "invalid request body")
		return
	}

	if len(req.URLs) == 0 {
		h.respondError(w, http.StatusBadRequest, "urls is required")
		return
	}

	for _, u := range req.URLs {
		if _, err := h.scraper.ExtractASIN(u); err != nil {
			h.respondError(w, http.StatusBadRequest, fmt.Sprintf("invalid product URL: %s", u))
			return
		}
	}

	products := h.scraper.ScrapeAll(r.Context(), req.URLs)
	h.respondJSON(w, http.StatusOK, products)
}

// CreateJobRequest starts an asynchronous scrape: either a keyword search
// or an explicit URL list.
type CreateJobRequest struct {
	Keyword string   `json:"keyword"`
	Pages   int      `json:"pages"`
	URLs    []string `json:"urls"`
}

type CreateJobResponse struct {
	JobID   string `json:"job_id"`
	Status  string `json:"status"`
	Message string `json:"message"`
}

func (h *Handlers) CreateJob(w http.ResponseWriter, r *http.Request) {
	var req CreateJobRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		h.respondError(w, http.StatusBadRequest, "invalid request body")
		return
	}

	if req.Keyword == "" && len(req.URLs) == 0 {
		h.respondError(w, http.StatusBadRequest, "either keyword or urls is required")
		return
	}

	var (
		job *jobs.Job
		err error
	)

	if req.Keyword != "" {
		job, err = h.jobs.CreateSearchJob(req.Keyword, req.Pages)
	} else {
		job, err = h.jobs.CreateURLJob(req.URLs)
	}

	if err != nil {
		if errors.Is(err, scraper.ErrInvalidURL) || errors.Is(err, scraper.ErrEmptyKeyword) {
			h.respondError(w, http.StatusBadRequest, err.Error())
			return
		}
		h.logger.Error("failed to create job", "error", err)
		h.respondError(w, http.StatusInternalServerError, "failed to create job")
		return
	}

	h.respondJSON(w, http.StatusCreated, CreateJobResponse{
		JobID:   job.ID,
		Status:  job.Status,
		Message: "Job created successfully",
	})
}

func (h *Handlers) GetJob(w http.ResponseWriter, r *http.Request) {
	jobID := chi.URLParam(r, "jobID")

	job, err := h.jobs.GetJob(jobID)
	if err != nil {
		h.respondError(w, http.StatusNotFound, "job not found")
		return
	}

	h.respondJSON(w, http.StatusOK, job)
}

func (h *Handlers) ListJobs(w http.ResponseWriter, r *http.Request) {
	h.respondJSON(w, http.StatusOK, h.jobs.ListJobs())
}

func (h *Handlers) GetJobProducts(w http.ResponseWriter, r *http.Request) {
	jobID := chi.URLParam(r, "jobID")

	products, err := h.jobs.JobProducts(jobID)
	if err != nil {
		h.respondError(w, http.StatusNotFound, "job not found")
		return
	}

	h.respondJSON(w, http.StatusOK, products)
}

// ExportJob writes a job's records in the requested format and serves the
// file as a download.
func (h *Handlers) ExportJob(w http.ResponseWriter, r *http.Request) {
	jobID := chi.URLParam(r, "jobID")

	format := r.URL.Query().Get("format")
	if format == "" {
		format = "json"
	}

	products, err := h.jobs.JobProducts(jobID)
	if err != nil {
		h.respondError(w, http.StatusNotFound, "job not found")
		return
	}

	filename := filepath.Join(os.TempDir(), export.DefaultFilename(format))
	if err := export.Write(products, format, filename); err != nil {
		h.logger.Error("export failed", "job", jobID, "format", format, "error", err)
		h.respondError(w, http.StatusBadRequest, err.Error())
		return
	}
	defer os.Remove(filename)

	w.Header().Set("Content-Disposition", fmt.Sprintf("attachment; filename=%q", filepath.Base(filename)))
	http.ServeFile(w, r, filename)
}

func (h *Handlers) GetStats(w http.ResponseWriter, r *http.Request) {
	h.respondJSON(w, http.StatusOK, h.jobs.Stats())
}

func (h *Handlers) Health(w http.ResponseWriter, r *http.Request) {
	h.respondJSON(w, http.StatusOK, map[string]string{"status": "ok"})
}

func (h *Handlers) respondJSON(w http.ResponseWriter, status int, data interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(data); err != nil {
		h.logger.Error("failed to encode response", "error", err)
	}
}

func (h *Handlers) respondError(w http.ResponseWriter, status int, message string) {
	h.respondJSON(w, status, map[string]string{"error": message})
}
