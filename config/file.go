package config

import (
	"errors"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"time"

	"dario.cat/mergo"
	"github.com/aluiziolira/go-scrape-competitors/models"
	"github.com/titanous/json5"
	"gopkg.in/yaml.v3"
)

// File is the on-disk configuration. Zero values keep the defaults.
type File struct {
	Competitors    []models.Target `json:"competitors" yaml:"competitors"`
	UserAgent      string          `json:"user_agent" yaml:"user_agent"`
	MaxItems       int             `json:"max_items" yaml:"max_items"`
	DelayMs        int             `json:"delay_ms" yaml:"delay_ms"`
	TimeoutMs      int             `json:"timeout_ms" yaml:"timeout_ms"`
	Parallelism    int             `json:"parallel" yaml:"parallel"`
	CategoryLabels []string        `json:"category_labels" yaml:"category_labels"`
	OutputDir      string          `json:"output_dir" yaml:"output_dir"`
	ReportsDir     string          `json:"reports_dir" yaml:"reports_dir"`
	Formats        []string        `json:"formats" yaml:"formats"`
	ReportTitle    string          `json:"report_title" yaml:"report_title"`
	FilePrefix     string          `json:"file_prefix" yaml:"file_prefix"`
	RespectRobots  *bool           `json:"respect_robots" yaml:"respect_robots"`
}

// Load builds a Config from defaults overlaid with the file at path. A
// missing file is not an error: the built-in default target is used.
func Load(path string) (*Config, error) {
	cfg := DefaultConfig()
	if path == "" {
		return cfg, nil
	}

	file, err := ReadFile(path)
	if errors.Is(err, os.ErrNotExist) {
		slog.Warn("config file not found, using default configuration", slog.String("path", path))
		return cfg, nil
	}
	if err != nil {
		return nil, err
	}

	file.Apply(cfg)
	return cfg, nil
}

// ReadFile reads path and merges an optional <name>.local.<ext> next to it,
// the local file taking precedence. Files ending in .yaml or .yml are
// decoded as YAML, everything else as JSON5.
func ReadFile(path string) (File, error) {
	var out File
	found := false

	base, err := decodeFile(path)
	if err != nil && !errors.Is(err, os.ErrNotExist) {
		return out, err
	}
	if err == nil {
		out = base
		found = true
	}

	localPath := localVariant(path)
	local, err := decodeFile(localPath)
	if err != nil && !errors.Is(err, os.ErrNotExist) {
		return out, err
	}
	if err == nil {
		if err := mergo.Merge(&out, local, mergo.WithOverride); err != nil {
			return out, fmt.Errorf("merge %s: %w", localPath, err)
		}
		// mergo skips a false value behind a pointer.
		if local.RespectRobots != nil {
			out.RespectRobots = local.RespectRobots
		}
		slog.Info("merging config with local overrides", slog.String("local", localPath))
		found = true
	}

	if !found {
		return out, os.ErrNotExist
	}
	return out, nil
}

// Apply overlays the non-zero fields of f onto cfg.
func (f File) Apply(cfg *Config) {
	if len(f.Competitors) > 0 {
		cfg.Targets = append([]models.Target(nil), f.Competitors...)
	}
	if f.UserAgent != "" {
		cfg.UserAgent = f.UserAgent
	}
	if f.MaxItems != 0 {
		cfg.MaxItems = f.MaxItems
	}
	if f.DelayMs != 0 {
		cfg.Delay = time.Duration(f.DelayMs) * time.Millisecond
	}
	if f.TimeoutMs != 0 {
		cfg.Timeout = time.Duration(f.TimeoutMs) * time.Millisecond
	}
	if f.Parallelism != 0 {
		cfg.Parallelism = f.Parallelism
	}
	if f.CategoryLabels != nil {
		cfg.CategoryLabels = append([]string(nil), f.CategoryLabels...)
	}
	if f.OutputDir != "" {
		cfg.OutputDir = f.OutputDir
	}
	if f.ReportsDir != "" {
		cfg.ReportsDir = f.ReportsDir
	}
	if len(f.Formats) > 0 {
		cfg.OutputFormats = normalizeFormats(f.Formats)
	}
	if f.ReportTitle != "" {
		cfg.ReportTitle = f.ReportTitle
	}
	if f.FilePrefix != "" {
		cfg.FilePrefix = f.FilePrefix
	}
	if f.RespectRobots != nil {
		cfg.RespectRobotsTxt = *f.RespectRobots
	}
}

// ParseFormats splits a comma separated format list.
func ParseFormats(value string) []string {
	return normalizeFormats(strings.Split(value, ","))
}

func normalizeFormats(formats []string) []string {
	out := make([]string, 0, len(formats))
	for _, f := range formats {
		f = strings.ToLower(strings.TrimSpace(f))
		if f == "md" {
			f = FormatMarkdown
		}
		if f != "" {
			out = append(out, f)
		}
	}
	return out
}

func decodeFile(path string) (File, error) {
	var out File
	data, err := os.ReadFile(path)
	if err != nil {
		return out, err
	}
	if len(data) == 0 {
		return out, nil
	}

	switch strings.ToLower(filepath.Ext(path)) {
	case ".yaml", ".yml":
		err = yaml.Unmarshal(data, &out)
	default:
		err = json5.Unmarshal(data, &out)
	}
	if err != nil {
		return out, fmt.Errorf("parse %s: %w", path, err)
	}
	return out, nil
}

func localVariant(path string) string {
	ext := filepath.Ext(path)
	return strings.TrimSuffix(path, ext) + ".local" + ext
}

// EnvString returns the value of key when it is set and non-empty.
func EnvString(key string) (string, bool) {
	value, ok := os.LookupEnv(key)
	if !ok || strings.TrimSpace(value) == "" {
		return "", false
	}
	return value, true
}

// EnvInt parses key as an integer.
func EnvInt(key string) (int, bool, error) {
	value, ok := EnvString(key)
	if !ok {
		return 0, false, nil
	}
	n, err := strconv.Atoi(strings.TrimSpace(value))
	if err != nil {
		return 0, false, fmt.Errorf("%s: %w", key, err)
	}
	return n, true, nil
}

// EnvDuration parses key as a Go duration ("2s", "500ms").
func EnvDuration(key string) (time.Duration, bool, error) {
	value, ok := EnvString(key)
	if !ok {
		return 0, false, nil
	}
	d, err := time.ParseDuration(strings.TrimSpace(value))
	if err != nil {
		return 0, false, fmt.Errorf("%s: %w", key, err)
	}
	return d, true, nil
}

// EnvBool parses key with strconv.ParseBool.
func EnvBool(key string) (bool, bool, error) {
	value, ok := EnvString(key)
	if !ok {
		return false, false, nil
	}
	b, err := strconv.ParseBool(strings.TrimSpace(value))
	if err != nil {
		return false, false, fmt.Errorf("%s: %w", key, err)
	}
	return b, true, nil
}
