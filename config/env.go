package config

// Environment variables read by ApplyEnv.
const (
	EnvConfigPath    = "SCRAPER_CONFIG"
	EnvOutputDir     = "SCRAPER_OUTPUT_DIR"
	EnvReportsDir    = "SCRAPER_REPORTS_DIR"
	EnvMaxItems      = "SCRAPER_MAX_ITEMS"
	EnvDelay         = "SCRAPER_DELAY"
	EnvTimeout       = "SCRAPER_TIMEOUT"
	EnvParallel      = "SCRAPER_PARALLEL"
	EnvFormat        = "SCRAPER_FORMAT"
	EnvUserAgent     = "SCRAPER_USER_AGENT"
	EnvMetricsAddr   = "SCRAPER_METRICS_ADDR"
	EnvRespectRobots = "SCRAPER_RESPECT_ROBOTS"
	EnvVerbose       = "SCRAPER_VERBOSE"
)

// ApplyEnv overlays SCRAPER_* variables onto cfg. Unset variables leave the
// current value untouched.
func ApplyEnv(cfg *Config) error {
	if value, ok := EnvString(EnvOutputDir); ok {
		cfg.OutputDir = value
	}
	if value, ok := EnvString(EnvReportsDir); ok {
		cfg.ReportsDir = value
	}
	if value, ok := EnvString(EnvFormat); ok {
		cfg.OutputFormats = ParseFormats(value)
	}
	if value, ok := EnvString(EnvUserAgent); ok {
		cfg.UserAgent = value
	}
	if value, ok := EnvString(EnvMetricsAddr); ok {
		cfg.MetricsAddr = value
	}

	if value, ok, err := EnvInt(EnvMaxItems); err != nil {
		return err
	} else if ok {
		cfg.MaxItems = value
	}
	if value, ok, err := EnvInt(EnvParallel); err != nil {
		return err
	} else if ok {
		cfg.Parallelism = value
	}
	if value, ok, err := EnvDuration(EnvDelay); err != nil {
		return err
	} else if ok {
		cfg.Delay = value
	}
	if value, ok, err := EnvDuration(EnvTimeout); err != nil {
		return err
	} else if ok {
		cfg.Timeout = value
	}
	if value, ok, err := EnvBool(EnvRespectRobots); err != nil {
		return err
	} else if ok {
		cfg.RespectRobotsTxt = value
	}
	if value, ok, err := EnvBool(EnvVerbose); err != nil {
		return err
	} else if ok {
		cfg.Verbose = value
	}
	return nil
}
