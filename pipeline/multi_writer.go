package pipeline

import (
	"errors"
	"fmt"
	"path/filepath"
	"sync"
	"time"

	"github.com/aluiziolira/go-scrape-competitors/config"
	"github.com/aluiziolira/go-scrape-competitors/models"
)

// MultiWriter fans results out to several writers.
type MultiWriter struct {
	writers []OutputWriter
	mu      sync.Mutex
}

// NewMultiWriter combines writers; they are written and closed in order.
func NewMultiWriter(writers ...OutputWriter) *MultiWriter {
	return &MultiWriter{writers: writers}
}

// Write writes results to every writer, stopping at the first failure.
func (mw *MultiWriter) Write(results []models.ScrapeResult) error {
	mw.mu.Lock()
	defer mw.mu.Unlock()

	for _, w := range mw.writers {
		if err := w.Write(results); err != nil {
			return err
		}
	}
	return nil
}

// Close closes every writer and joins their errors.
func (mw *MultiWriter) Close() error {
	mw.mu.Lock()
	defer mw.mu.Unlock()

	var errs []error
	for _, w := range mw.writers {
		if err := w.Close(); err != nil {
			errs = append(errs, err)
		}
	}
	return errors.Join(errs...)
}

// Validate validates every output file.
func (mw *MultiWriter) Validate() error {
	var errs []error
	for _, w := range mw.writers {
		if err := w.Validate(); err != nil {
			errs = append(errs, err)
		}
	}
	return errors.Join(errs...)
}

// OutputPaths are the files produced by one run. Unused formats are empty.
type OutputPaths struct {
	JSON     string
	Markdown string
	CSV      string
}

// List returns the non-empty paths.
func (p OutputPaths) List() []string {
	var out []string
	for _, path := range []string{p.JSON, p.Markdown, p.CSV} {
		if path != "" {
			out = append(out, path)
		}
	}
	return out
}

// PathsFor derives timestamped file names for a run started at now.
func PathsFor(cfg *config.Config, now time.Time) OutputPaths {
	var paths OutputPaths
	stamp := now.Format("20060102_150405")
	if cfg.HasFormat(config.FormatJSON) {
		paths.JSON = filepath.Join(cfg.OutputDir, fmt.Sprintf("%s_%s.json", cfg.FilePrefix, stamp))
	}
	if cfg.HasFormat(config.FormatCSV) {
		paths.CSV = filepath.Join(cfg.OutputDir, fmt.Sprintf("%s_%s.csv", cfg.FilePrefix, stamp))
	}
	if cfg.HasFormat(config.FormatMarkdown) {
		paths.Markdown = filepath.Join(cfg.ReportsDir, fmt.Sprintf("%s_report_%s.md", cfg.FilePrefix, now.Format("2006-01-02_150405")))
	}
	return paths
}

// NewWriters opens one writer per configured format.
func NewWriters(cfg *config.Config, now time.Time) (*MultiWriter, OutputPaths, error) {
	paths := PathsFor(cfg, now)
	var writers []OutputWriter
	closeAll := func() {
		for _, w := range writers {
			w.Close()
		}
	}

	if paths.JSON != "" {
		w, err := NewJSONWriter(paths.JSON)
		if err != nil {
			return nil, paths, err
		}
		writers = append(writers, w)
	}
	if paths.Markdown != "" {
		w, err := NewMarkdownWriter(paths.Markdown, cfg.ReportTitle, now)
		if err != nil {
			closeAll()
			return nil, paths, err
		}
		writers = append(writers, w)
	}
	if paths.CSV != "" {
		w, err := NewCSVWriter(paths.CSV)
		if err != nil {
			closeAll()
			return nil, paths, err
		}
		writers = append(writers, w)
	}

	return NewMultiWriter(writers...), paths, nil
}
