package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/require"
)

func writeFile(t *testing.T, path, body string) {
	t.Helper()
	require.NoError(t, os.WriteFile(path, []byte(body), 0o644))
}

func TestLoadMissingFileFallsBackToDefault(t *testing.T) {
	cfg, err := Load(filepath.Join(t.TempDir(), "config.json"))
	require.NoError(t, err)
	require.Equal(t, DefaultTargets(), cfg.Targets)
	require.NoError(t, cfg.Validate())
}

func TestLoadJSON5(t *testing.T) {
	path := filepath.Join(t.TempDir(), "config.json")
	writeFile(t, path, `{
		// comments and unquoted keys are accepted
		competitors: [
			{name: "Acme", url: "https://acme.test/news", selector: "article", max_items: 10},
			{name: "Hacker News", url: "https://news.ycombinator.com", selector: "tr.athing", title_selector: "span.titleline a"},
		],
		user_agent: "tracker-test/1.0",
		delay_ms: 250,
		formats: ["json", "md", "csv"],
	}`)

	cfg, err := Load(path)
	require.NoError(t, err)
	require.Len(t, cfg.Targets, 2)
	require.Equal(t, "Acme", cfg.Targets[0].Name)
	require.Equal(t, 10, cfg.Targets[0].MaxItems)
	require.Equal(t, "span.titleline a", cfg.Targets[1].TitleSelector)
	require.Equal(t, "tracker-test/1.0", cfg.UserAgent)
	require.Equal(t, 250*time.Millisecond, cfg.Delay)
	require.Equal(t, []string{FormatJSON, FormatMarkdown, FormatCSV}, cfg.OutputFormats)
	require.Equal(t, 10*time.Second, cfg.Timeout, "unset fields keep defaults")
	require.NoError(t, cfg.Validate())
}

func TestLoadYAMLWithLocalOverride(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "targets.yaml")
	writeFile(t, path, `
competitors:
  - name: Acme
    url: https://acme.test/news
    selector: article
max_items: 3
reports_dir: out/reports
`)
	writeFile(t, filepath.Join(dir, "targets.local.yaml"), `
max_items: 7
`)

	cfg, err := Load(path)
	require.NoError(t, err)
	require.Equal(t, 7, cfg.MaxItems)
	require.Equal(t, "out/reports", cfg.ReportsDir)
	require.Len(t, cfg.Targets, 1)
}

func TestLoadLocalOverrideDisablesRobots(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "config.json")
	writeFile(t, path, `{respect_robots: true, max_items: 4}`)
	writeFile(t, filepath.Join(dir, "config.local.json"), `{respect_robots: false}`)

	cfg, err := Load(path)
	require.NoError(t, err)
	require.False(t, cfg.RespectRobotsTxt)
	require.Equal(t, 4, cfg.MaxItems)

	require.NoError(t, os.Remove(filepath.Join(dir, "config.local.json")))
	cfg, err = Load(path)
	require.NoError(t, err)
	require.True(t, cfg.RespectRobotsTxt)
}

func TestLoadInvalidFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "config.json")
	writeFile(t, path, `{competitors: [`)

	_, err := Load(path)
	require.Error(t, err)
}

func TestEnvHelpers(t *testing.T) {
	t.Setenv("SCRAPER_TEST_INT", "12")
	t.Setenv("SCRAPER_TEST_BAD", "twelve")
	t.Setenv("SCRAPER_TEST_DUR", "1500ms")
	t.Setenv("SCRAPER_TEST_EMPTY", " ")

	n, ok, err := EnvInt("SCRAPER_TEST_INT")
	require.NoError(t, err)
	require.True(t, ok)
	require.Equal(t, 12, n)

	_, _, err = EnvInt("SCRAPER_TEST_BAD")
	require.Error(t, err)

	d, ok, err := EnvDuration("SCRAPER_TEST_DUR")
	require.NoError(t, err)
	require.True(t, ok)
	require.Equal(t, 1500*time.Millisecond, d)

	_, ok = EnvString("SCRAPER_TEST_EMPTY")
	require.False(t, ok)
}

func TestParseFormats(t *testing.T) {
	require.Equal(t, []string{"json", "markdown"}, ParseFormats(" JSON, md ,"))
}
