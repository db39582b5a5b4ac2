package scraper

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/url"
	"sync"
	"sync/atomic"
	"time"

	"github.com/aluiziolira/go-scrape-competitors/config"
	"github.com/aluiziolira/go-scrape-competitors/models"
	"github.com/aluiziolira/go-scrape-competitors/parser"
	"github.com/aluiziolira/go-scrape-competitors/pipeline"
	"golang.org/x/time/rate"
)

// CanceledError is recorded for targets that were never fetched because the
// run was canceled.
const CanceledError = "canceled"

// Scraper visits every configured target once and feeds the results to a
// pipeline in configured order.
type Scraper struct {
	cfg       *config.Config
	fetcher   Fetcher
	extractor *Extractor
	limiter   *hostLimiter
	Metrics   *Metrics

	now func() time.Time

	requestCount int64
	errorCount   int64

	mu           sync.Mutex
	failedURLs   []string
	errorsByType map[string]int
}

// Option customises a Scraper.
type Option func(*Scraper)

// WithFetcher replaces the default colly fetcher.
func WithFetcher(f Fetcher) Option {
	return func(s *Scraper) {
		s.fetcher = f
	}
}

// WithMetrics shares an existing metrics bundle.
func WithMetrics(m *Metrics) Option {
	return func(s *Scraper) {
		s.Metrics = m
	}
}

// NewScraper builds a scraper instance configured from cfg.
func NewScraper(cfg *config.Config, opts ...Option) (*Scraper, error) {
	if err := parser.ValidateLabels(cfg.CategoryLabels); err != nil {
		return nil, fmt.Errorf("category labels: %w", err)
	}

	s := &Scraper{
		cfg:          cfg,
		extractor:    NewExtractor(cfg.CategoryLabels),
		limiter:      newHostLimiter(cfg.Delay),
		Metrics:      NewMetrics(),
		now:          time.Now,
		errorsByType: make(map[string]int),
	}
	for _, opt := range opts {
		opt(s)
	}
	if s.fetcher == nil {
		s.fetcher = NewCollyFetcher(cfg, s.Metrics)
	}
	return s, nil
}

// Run scrapes every target and submits one result per target to p, in the
// configured order. Each request is bounded by the fetcher's own timeout.
// Fetch failures never abort the run; the returned error is only set when
// the pipeline rejects the results.
func (s *Scraper) Run(ctx context.Context, p *pipeline.Pipeline) (*models.RunResult, error) {
	if ctx == nil {
		ctx = context.Background()
	}

	start := s.now()
	slog.Info("starting run",
		slog.Int("targets", len(s.cfg.Targets)),
		slog.Int("parallel", s.cfg.Parallelism),
		slog.Duration("delay", s.cfg.Delay),
	)

	var results []models.ScrapeResult
	if s.cfg.Parallelism > 1 {
		results = s.runConcurrent(ctx)
	} else {
		results = s.runSequential(ctx)
	}

	if err := p.Process(results...); err != nil {
		return nil, fmt.Errorf("process results: %w", err)
	}

	prepared := p.Results()
	result := &models.RunResult{
		Results:      prepared,
		StartTime:    start,
		EndTime:      s.now(),
		ErrorCount:   int(atomic.LoadInt64(&s.errorCount)),
		FailedURLs:   s.snapshotFailedURLs(),
		ErrorsByType: s.snapshotErrors(),
		RequestCount: int(atomic.LoadInt64(&s.requestCount)),
	}
	for _, r := range prepared {
		result.TotalItems += len(r.Items)
	}
	return result, nil
}

func (s *Scraper) runSequential(ctx context.Context) []models.ScrapeResult {
	results := make([]models.ScrapeResult, len(s.cfg.Targets))
	for i, target := range s.cfg.Targets {
		if i > 0 {
			sleepContext(ctx, s.cfg.Delay)
		}
		if ctx.Err() != nil {
			results[i] = s.canceledResult(target)
			continue
		}
		results[i] = s.scrapeTarget(ctx, target)
	}
	return results
}

func (s *Scraper) runConcurrent(ctx context.Context) []models.ScrapeResult {
	results := make([]models.ScrapeResult, len(s.cfg.Targets))
	sem := make(chan struct{}, s.cfg.Parallelism)
	var wg sync.WaitGroup

	for i, target := range s.cfg.Targets {
		select {
		case sem <- struct{}{}:
		case <-ctx.Done():
			results[i] = s.canceledResult(target)
			continue
		}

		wg.Add(1)
		go func() {
			defer wg.Done()
			defer func() { <-sem }()

			if err := s.limiter.Wait(ctx, target.URL); err != nil {
				results[i] = s.canceledResult(target)
				return
			}
			results[i] = s.scrapeTarget(ctx, target)
		}()
	}

	wg.Wait()
	return results
}

func (s *Scraper) scrapeTarget(ctx context.Context, target models.Target) models.ScrapeResult {
	result := models.ScrapeResult{
		Name:      target.Name,
		URL:       target.URL,
		Selector:  target.Selector,
		Items:     []models.Item{},
		Timestamp: s.now(),
		Dedupe:    target.Dedupe,
	}

	atomic.AddInt64(&s.requestCount, 1)
	s.Metrics.IncRequest("started")
	slog.Info("fetching target", slog.String("target", target.Name), slog.String("url", target.URL))

	markup, err := s.fetcher.Fetch(ctx, target.URL)
	if err != nil {
		if errors.Is(err, context.Canceled) {
			return s.canceledResult(target)
		}
		s.recordFailure(target, err)
		result.Error = failureText(err)
		return result
	}
	s.Metrics.IncRequest("completed")

	items, err := s.extractor.Extract(target, markup, s.cfg.MaxItemsFor(target))
	if err != nil {
		slog.Warn("extraction failed",
			slog.String("target", target.Name),
			slog.Any("error", err),
		)
	} else {
		result.Items = items
	}

	s.Metrics.AddItems(target.Name, len(result.Items))
	if len(result.Items) == 0 {
		s.Metrics.IncTarget("empty")
		slog.Warn("no items found", slog.String("target", target.Name), slog.String("selector", target.Selector))
	} else {
		s.Metrics.IncTarget("ok")
		slog.Info("target scraped", slog.String("target", target.Name), slog.Int("items", len(result.Items)))
	}
	return result
}

func (s *Scraper) canceledResult(target models.Target) models.ScrapeResult {
	s.Metrics.IncTarget(CanceledError)
	slog.Warn("target skipped", slog.String("target", target.Name), slog.String("reason", CanceledError))
	return models.ScrapeResult{
		Name:      target.Name,
		URL:       target.URL,
		Selector:  target.Selector,
		Items:     []models.Item{},
		Timestamp: s.now(),
		Error:     CanceledError,
		Dedupe:    target.Dedupe,
	}
}

func (s *Scraper) recordFailure(target models.Target, err error) {
	atomic.AddInt64(&s.errorCount, 1)
	category := ErrorTypeLabel(err)

	s.mu.Lock()
	s.errorsByType[category]++
	s.failedURLs = append(s.failedURLs, target.URL)
	s.mu.Unlock()

	slog.Error("request error",
		slog.String("target", target.Name),
		slog.String("url", target.URL),
		slog.String("category", category),
		slog.Any("error", err),
	)
	s.Metrics.IncError(category)
	s.Metrics.IncTarget("failed")
}

func (s *Scraper) snapshotFailedURLs() []string {
	s.mu.Lock()
	defer s.mu.Unlock()
	out := make([]string, len(s.failedURLs))
	copy(out, s.failedURLs)
	return out
}

func (s *Scraper) snapshotErrors() map[string]int {
	s.mu.Lock()
	defer s.mu.Unlock()
	out := make(map[string]int, len(s.errorsByType))
	for k, v := range s.errorsByType {
		out[k] = v
	}
	return out
}

// failureText is the cause without the FetchError prefix, for reports.
func failureText(err error) string {
	var fetchErr *FetchError
	if errors.As(err, &fetchErr) && fetchErr.Err != nil {
		return fetchErr.Err.Error()
	}
	return err.Error()
}

func sleepContext(ctx context.Context, d time.Duration) {
	if d <= 0 {
		return
	}
	timer := time.NewTimer(d)
	defer timer.Stop()
	select {
	case <-ctx.Done():
	case <-timer.C:
	}
}

// hostLimiter spaces requests to the same host by at least the configured
// delay.
type hostLimiter struct {
	every    time.Duration
	mu       sync.Mutex
	limiters map[string]*rate.Limiter
}

func newHostLimiter(every time.Duration) *hostLimiter {
	return &hostLimiter{
		every:    every,
		limiters: make(map[string]*rate.Limiter),
	}
}

// Wait blocks until a request to rawURL's host is allowed.
func (h *hostLimiter) Wait(ctx context.Context, rawURL string) error {
	if h.every <= 0 {
		return ctx.Err()
	}
	return h.limiterFor(hostOf(rawURL)).Wait(ctx)
}

func (h *hostLimiter) limiterFor(host string) *rate.Limiter {
	h.mu.Lock()
	defer h.mu.Unlock()
	limiter, ok := h.limiters[host]
	if !ok {
		limiter = rate.NewLimiter(rate.Every(h.every), 1)
		h.limiters[host] = limiter
	}
	return limiter
}

func hostOf(rawURL string) string {
	parsed, err := url.Parse(rawURL)
	if err != nil || parsed.Host == "" {
		return rawURL
	}
	return parsed.Hostname()
}
