package config

import (
	"fmt"
	"net/url"
	"strings"
	"time"

	"github.com/aluiziolira/go-scrape-competitors/models"
	"github.com/aluiziolira/go-scrape-competitors/parser"
	"github.com/andybalholm/cascadia"
)

// Output formats understood by the report writers.
const (
	FormatJSON     = "json"
	FormatMarkdown = "markdown"
	FormatCSV      = "csv"
)

// Config holds tracker configuration.
type Config struct {
	Targets          []models.Target
	UserAgent        string
	Timeout          time.Duration
	Delay            time.Duration
	MaxItems         int
	Parallelism      int
	CategoryLabels   []string
	OutputDir        string
	ReportsDir       string
	OutputFormats    []string
	ReportTitle      string
	FilePrefix       string
	DedupeMaxSize    int
	MetricsAddr      string
	Verbose          bool
	RespectRobotsTxt bool
}

// DefaultTargets is used when no configuration file is present.
func DefaultTargets() []models.Target {
	return []models.Target{
		{
			Name:     "OpenAI",
			URL:      "https://openai.com/blog",
			Selector: "article",
		},
	}
}

// DefaultConfig returns conservative defaults: one request at a time, two
// seconds apart.
func DefaultConfig() *Config {
	return &Config{
		Targets:          DefaultTargets(),
		UserAgent:        "Mozilla/5.0 (Windows NT 10.0; Win64; x64) AppleWebKit/537.36 (KHTML, like Gecko) Chrome/120.0.0.0 Safari/537.36",
		Timeout:          10 * time.Second,
		Delay:            2 * time.Second,
		MaxItems:         5,
		Parallelism:      1,
		CategoryLabels:   append([]string(nil), parser.DefaultCategoryLabels...),
		OutputDir:        "data",
		ReportsDir:       "reports",
		OutputFormats:    []string{FormatJSON, FormatMarkdown},
		ReportTitle:      "AI Competitor Intelligence Report",
		FilePrefix:       "competitors",
		DedupeMaxSize:    1024,
		MetricsAddr:      "",
		Verbose:          false,
		RespectRobotsTxt: false,
	}
}

// MaxItemsFor returns the item cap for target.
func (c *Config) MaxItemsFor(target models.Target) int {
	if target.MaxItems > 0 {
		return target.MaxItems
	}
	return c.MaxItems
}

// HasFormat reports whether format is one of the configured outputs.
func (c *Config) HasFormat(format string) bool {
	for _, f := range c.OutputFormats {
		if f == format {
			return true
		}
	}
	return false
}

// Validate ensures all configuration values are coherent.
func (c *Config) Validate() error {
	if len(c.Targets) == 0 {
		return fmt.Errorf("at least one target is required")
	}
	for i, target := range c.Targets {
		if err := validateTarget(target); err != nil {
			return fmt.Errorf("target %d: %w", i, err)
		}
	}

	if c.UserAgent == "" {
		return fmt.Errorf("user agent cannot be empty")
	}
	if c.Timeout <= 0 {
		return fmt.Errorf("timeout must be positive")
	}
	if c.Delay < 0 {
		return fmt.Errorf("delay cannot be negative")
	}
	if c.MaxItems <= 0 {
		return fmt.Errorf("max items must be positive")
	}
	if c.Parallelism <= 0 {
		return fmt.Errorf("parallelism must be positive")
	}
	if err := parser.ValidateLabels(c.CategoryLabels); err != nil {
		return fmt.Errorf("category labels: %w", err)
	}
	if c.OutputDir == "" {
		return fmt.Errorf("output dir cannot be empty")
	}
	if c.ReportsDir == "" {
		return fmt.Errorf("reports dir cannot be empty")
	}
	if len(c.OutputFormats) == 0 {
		return fmt.Errorf("at least one output format is required")
	}
	for _, format := range c.OutputFormats {
		if format != FormatJSON && format != FormatMarkdown && format != FormatCSV {
			return fmt.Errorf("output format must be json, markdown, or csv, got %q", format)
		}
	}
	if strings.ContainsAny(c.FilePrefix, `/\`) || c.FilePrefix == "" {
		return fmt.Errorf("file prefix must be a non-empty file name")
	}
	if c.DedupeMaxSize <= 0 {
		return fmt.Errorf("dedupe max size must be positive")
	}

	return nil
}

func validateTarget(t models.Target) error {
	if strings.TrimSpace(t.Name) == "" {
		return fmt.Errorf("name cannot be empty")
	}
	if t.URL == "" {
		return fmt.Errorf("%s: URL cannot be empty", t.Name)
	}
	parsedURL, err := url.Parse(t.URL)
	if err != nil {
		return fmt.Errorf("%s: invalid URL: %w", t.Name, err)
	}
	if parsedURL.Scheme != "http" && parsedURL.Scheme != "https" {
		return fmt.Errorf("%s: URL scheme must be http or https", t.Name)
	}
	if parsedURL.Host == "" {
		return fmt.Errorf("%s: URL must include a host", t.Name)
	}
	if t.MaxItems < 0 {
		return fmt.Errorf("%s: max items cannot be negative", t.Name)
	}

	if strings.TrimSpace(t.Selector) == "" {
		return fmt.Errorf("%s: selector cannot be empty", t.Name)
	}
	selectors := map[string]string{
		"selector":          t.Selector,
		"title_selector":    t.TitleSelector,
		"link_selector":     t.LinkSelector,
		"date_selector":     t.DateSelector,
		"score_selector":    t.ScoreSelector,
		"comments_selector": t.CommentsSelector,
	}
	for field, sel := range selectors {
		if sel == "" {
			continue
		}
		if _, err := cascadia.Compile(sel); err != nil {
			return fmt.Errorf("%s: invalid %s %q: %w", t.Name, field, sel, err)
		}
	}
	return nil
}
