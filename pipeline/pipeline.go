package pipeline

import (
	"errors"
	"fmt"
	"sync"

	"github.com/aluiziolira/go-scrape-competitors/config"
	"github.com/aluiziolira/go-scrape-competitors/models"
	"github.com/aluiziolira/go-scrape-competitors/parser"
	lru "github.com/hashicorp/golang-lru/v2"
)

var (
	// ErrPipelineClosed is returned when Process is called after shutdown.
	ErrPipelineClosed = errors.New("pipeline: closed")
)

// OutputWriter defines the interface for report output.
type OutputWriter interface {
	Write(results []models.ScrapeResult) error
	Close() error
	Validate() error
}

// Pipeline validates and de-duplicates items, keeps results in target
// order, and hands them to the writer once on Close.
type Pipeline struct {
	writer OutputWriter

	results []models.ScrapeResult
	seen    *lru.Cache[string, struct{}]

	metrics metrics

	mu     sync.Mutex // guards results/closed/err
	closed bool
	err    error

	closeOnce sync.Once
}

// NewPipeline builds a pipeline whose cross-target link memory is bounded by
// cfg.DedupeMaxSize.
func NewPipeline(writer OutputWriter, cfg *config.Config) (*Pipeline, error) {
	size := cfg.DedupeMaxSize
	if size <= 0 {
		size = config.DefaultConfig().DedupeMaxSize
	}
	seen, err := lru.New[string, struct{}](size)
	if err != nil {
		return nil, fmt.Errorf("create dedupe cache: %w", err)
	}

	return &Pipeline{
		writer:  writer,
		seen:    seen,
		metrics: newMetrics(),
	}, nil
}

// Process prepares results and appends them in the order given.
func (p *Pipeline) Process(results ...models.ScrapeResult) error {
	p.mu.Lock()
	defer p.mu.Unlock()

	if p.err != nil {
		return p.err
	}
	if p.closed {
		return ErrPipelineClosed
	}

	for _, result := range results {
		p.results = append(p.results, p.prepare(result))
	}
	return nil
}

// Close writes the collected results, closes the writer and prevents more
// submissions.
func (p *Pipeline) Close() error {
	p.closeOnce.Do(func() {
		p.mu.Lock()
		p.closed = true
		results := make([]models.ScrapeResult, len(p.results))
		copy(results, p.results)
		p.mu.Unlock()

		err := p.writer.Write(results)
		if err != nil {
			err = fmt.Errorf("write results: %w", err)
		}
		if closeErr := p.writer.Close(); closeErr != nil && err == nil {
			err = fmt.Errorf("close writer: %w", closeErr)
		}
		p.setErr(err)
	})
	return p.Err()
}

// Err returns the first error encountered during processing.
func (p *Pipeline) Err() error {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.err
}

// Results returns a snapshot of the prepared results.
func (p *Pipeline) Results() []models.ScrapeResult {
	p.mu.Lock()
	defer p.mu.Unlock()
	out := make([]models.ScrapeResult, len(p.results))
	copy(out, p.results)
	return out
}

// GetMetrics returns a snapshot of the internal counters.
func (p *Pipeline) GetMetrics() map[string]interface{} {
	return p.metrics.snapshot()
}

// prepare must be called with p.mu held.
func (p *Pipeline) prepare(result models.ScrapeResult) models.ScrapeResult {
	prepared := result
	prepared.Items = make([]models.Item, 0, len(result.Items))

	for _, item := range result.Items {
		if err := parser.ValidateItem(&item); err != nil {
			p.metrics.addValidation("invalid_record")
			continue
		}
		if result.Dedupe && item.Link != "" {
			if found, _ := p.seen.ContainsOrAdd(parser.DedupeKey(item.Link), struct{}{}); found {
				p.metrics.addValidation("duplicate_link")
				continue
			}
		}
		prepared.Items = append(prepared.Items, item)
		p.metrics.incrementProcessed()
	}

	if prepared.Failed() {
		p.metrics.incrementFailed()
	}
	return prepared
}

func (p *Pipeline) setErr(err error) {
	if err == nil {
		return
	}

	p.mu.Lock()
	defer p.mu.Unlock()
	if p.err != nil {
		return
	}
	p.err = err
	p.closed = true
}

type metrics struct {
	mu         sync.Mutex
	processed  int64
	failed     int64
	validation map[string]int
}

func newMetrics() metrics {
	return metrics{
		validation: make(map[string]int),
	}
}

func (m *metrics) incrementProcessed() {
	m.mu.Lock()
	m.processed++
	m.mu.Unlock()
}

func (m *metrics) incrementFailed() {
	m.mu.Lock()
	m.failed++
	m.mu.Unlock()
}

func (m *metrics) addValidation(kind string) {
	m.mu.Lock()
	m.validation[kind]++
	m.mu.Unlock()
}

func (m *metrics) snapshot() map[string]interface{} {
	m.mu.Lock()
	defer m.mu.Unlock()

	copyValidation := make(map[string]int, len(m.validation))
	for k, v := range m.validation {
		copyValidation[k] = v
	}

	return map[string]interface{}{
		"processed_items":   m.processed,
		"failed_targets":    m.failed,
		"validation_errors": copyValidation,
	}
}
