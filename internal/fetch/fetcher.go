package fetch

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"math/rand"
	"net/http"
	"strings"
	"time"

	"github.com/koiakoia/amazon-product-scraper/internal/observability"
	"github.com/koiakoia/amazon-product-scraper/internal/ratelimit"
)

var (
	ErrBlocked    = errors.New("blocked by anti-bot response")
	ErrMaxRetries = errors.New("max retries exceeded")
)

type Options struct {
	UserAgents []string
	MaxRetries int
	RetryDelay time.Duration
	Timeout    time.Duration
	DelayMin   time.Duration
	DelayMax   time.Duration
}

// Fetcher issues sequential GET requests through a single reused HTTP
// client, rotating user agents and spacing requests via the rate limiter.
type Fetcher struct {
	client     *http.Client
	limiter    *ratelimit.AdaptiveRateLimiter
	userAgents []string
	maxRetries int
	retryDelay time.Duration
	logger     *slog.Logger
}

func New(opts Options, logger *slog.Logger) *Fetcher {
	if opts.MaxRetries < 1 {
		opts.MaxRetries = 1
	}
	if opts.Timeout == 0 {
		opts.Timeout = 10 * time.Second
	}
	if len(opts.UserAgents) == 0 {
		opts.UserAgents = []string{"Mozilla/5.0 (X11; Linux x86_64) AppleWebKit/537.36 (KHTML, like Gecko) Chrome/120.0.0.0 Safari/537.36"}
	}

	return &Fetcher{
		client:     &http.Client{Timeout: opts.Timeout},
		limiter:    ratelimit.NewAdaptiveRateLimiter(opts.DelayMin, opts.DelayMax),
		userAgents: opts.UserAgents,
		maxRetries: opts.MaxRetries,
		retryDelay: opts.RetryDelay,
		logger:     logger.With("component", "fetcher"),
	}
}

// Fetch retrieves url and returns the response body. Transient failures and
// blocking responses are retried up to the configured cap; a blocking
// response is reported as ErrBlocked once the cap is reached.
func (f *Fetcher) Fetch(ctx context.Context, url string) (string, error) {
	var lastErr error

	for attempt := 1; attempt <= f.maxRetries; attempt++ {
		if err := f.limiter.Wait(ctx); err != nil {
			return "", err
		}

		if attempt > 1 {
			observability.RequestRetriesTotal.Inc()
			if err := f.backoff(ctx, attempt); err != nil {
				return "", err
			}
		}

		body, err := f.doRequest(ctx, url)
		if err == nil {
			f.limiter.RecordSuccess()
			return body, nil
		}

		lastErr = err
		f.limiter.RecordError()

		if errors.Is(err, ErrBlocked) {
			observability.BlockedResponsesTotal.Inc()
			f.logger.Warn("blocking response detected", "url", url, "attempt", attempt)
		} else {
			f.logger.Warn("request failed", "url", url, "attempt", attempt, "error", err)
		}
	}

	f.logger.Error("giving up on url", "url", url, "attempts", f.maxRetries, "error", lastErr)
	return "", fmt.Errorf("%w after %d attempts: %w", ErrMaxRetries, f.maxRetries, lastErr)
}

func (f *Fetcher) doRequest(ctx context.Context, url string) (string, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		return "", err
	}

	for key, value := range f.headers() {
		req.Header.Set(key, value)
	}

	observability.RequestsTotal.Inc()

	resp, err := f.client.Do(req)
	if err != nil {
		return "", err
	}
	defer resp.Body.Close()

	if resp.StatusCode == http.StatusServiceUnavailable {
		return "", ErrBlocked
	}

	if resp.StatusCode != http.StatusOK {
		return "", fmt.Errorf("unexpected status %d", resp.StatusCode)
	}

	data, err := io.ReadAll(resp.Body)
	if err != nil {
		return "", err
	}

	body := string(data)
	if isBlockedPage(body) {
		return "", ErrBlocked
	}

	return body, nil
}

// headers builds request headers with a user agent drawn from the pool.
func (f *Fetcher) headers() map[string]string {
	return map[string]string{
		"User-Agent":                f.userAgents[rand.Intn(len(f.userAgents))],
		"Accept":                    "text/html,application/xhtml+xml,application/xml;q=0.9,image/webp,*/*;q=0.8",
		"Accept-Language":           "en-US,en;q=0.5",
		"Connection":                "keep-alive",
		"Upgrade-Insecure-Requests": "1",
	}
}

// backoff sleeps proportionally to the attempt number, so repeated failures
// slow down on top of the regular inter-request delay.
func (f *Fetcher) backoff(ctx context.Context, attempt int) error {
	if f.retryDelay == 0 {
		return nil
	}

	wait := f.retryDelay * time.Duration(attempt-1)

	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-time.After(wait):
		return nil
	}
}

// SetDelay adjusts the inter-request delay window at runtime.
func (f *Fetcher) SetDelay(min, max time.Duration) {
	f.limiter.SetDelay(min, max)
}

// isBlockedPage detects Amazon's captcha interstitial, which is served with
// status 200.
func isBlockedPage(body string) bool {
	lower := strings.ToLower(body)
	return strings.Contains(lower, "captcha") ||
		strings.Contains(lower, "robot check") ||
		strings.Contains(lower, "api-services-support@amazon.com")
}
