// Package config loads force-scraper settings.
//
// Settings come from, in increasing precedence: built-in defaults, an optional
// YAML file, environment variables (FORCE_SCRAPER_*, also read from a .env
// file in the working directory), and command-line flags applied by the cli
// package.
package config

import (
	"errors"
	"fmt"
	"os"
	"strconv"
	"time"

	"github.com/joho/godotenv"
	"gopkg.in/yaml.v3"

	"github.com/pfrederiksen/force-scraper/internal/browser"
	"github.com/pfrederiksen/force-scraper/internal/scraper"
)

// DefaultFile is read when no config path is given and it exists.
const DefaultFile = "force-scraper.yaml"

const envPrefix = "FORCE_SCRAPER_"

// Config holds every setting of a run.
type Config struct {
	BaseURL  string `yaml:"base_url"`
	OutDir   string `yaml:"out_dir"`
	LogLevel string `yaml:"log_level"`

	Browser BrowserConfig `yaml:"browser"`

	// Settle is the pause after the listing and warm-up pages load.
	Settle time.Duration `yaml:"settle"`
	// Delay is the minimum interval between navigations.
	Delay time.Duration `yaml:"delay"`

	Match string `yaml:"match"`
	Limit int    `yaml:"limit"`

	// MetricsFile, when set, receives the run metrics in Prometheus text
	// format.
	MetricsFile string `yaml:"metrics_file"`
}

type BrowserConfig struct {
	Driver    string        `yaml:"driver"` // chrome | static
	Headless  bool          `yaml:"headless"`
	ExecPath  string        `yaml:"exec_path"`
	UserAgent string        `yaml:"user_agent"`
	Timeout   time.Duration `yaml:"timeout"`
}

// Default returns the built-in settings.
func Default() *Config {
	return &Config{
		BaseURL:  scraper.DefaultBaseURL,
		OutDir:   "data/processed",
		LogLevel: "info",
		Browser: BrowserConfig{
			Driver:    string(browser.KindChrome),
			Headless:  true,
			UserAgent: browser.DefaultUserAgent,
			Timeout:   browser.DefaultTimeout,
		},
		Settle: scraper.DefaultSettle,
	}
}

// Load builds a Config from defaults, the YAML file at path and the
// environment. An empty path reads DefaultFile if it exists; an explicit path
// must exist.
func Load(path string) (*Config, error) {
	cfg := Default()

	// .env is optional
	_ = godotenv.Load()

	explicit := path != ""
	if !explicit {
		path = DefaultFile
	}
	if err := cfg.loadFile(path); err != nil {
		if explicit || !errors.Is(err, os.ErrNotExist) {
			return nil, err
		}
	}

	if err := cfg.applyEnv(os.LookupEnv); err != nil {
		return nil, err
	}

	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

func (c *Config) loadFile(path string) error {
	data, err := os.ReadFile(path)
	if err != nil {
		return fmt.Errorf("reading config: %w", err)
	}
	if err := yaml.Unmarshal(data, c); err != nil {
		return fmt.Errorf("parsing config %s: %w", path, err)
	}
	return nil
}

// applyEnv overrides settings from FORCE_SCRAPER_* variables.
func (c *Config) applyEnv(lookup func(string) (string, bool)) error {
	str := func(name string, dst *string) {
		if v, ok := lookup(envPrefix + name); ok && v != "" {
			*dst = v
		}
	}
	str("BASE_URL", &c.BaseURL)
	str("OUT_DIR", &c.OutDir)
	str("LOG_LEVEL", &c.LogLevel)
	str("DRIVER", &c.Browser.Driver)
	str("CHROME_PATH", &c.Browser.ExecPath)
	str("USER_AGENT", &c.Browser.UserAgent)
	str("MATCH", &c.Match)
	str("METRICS_FILE", &c.MetricsFile)

	if v, ok := lookup(envPrefix + "HEADLESS"); ok && v != "" {
		b, err := strconv.ParseBool(v)
		if err != nil {
			return fmt.Errorf("invalid %sHEADLESS: %w", envPrefix, err)
		}
		c.Browser.Headless = b
	}

	durations := []struct {
		name string
		dst  *time.Duration
	}{
		{"TIMEOUT", &c.Browser.Timeout},
		{"SETTLE", &c.Settle},
		{"DELAY", &c.Delay},
	}
	for _, d := range durations {
		v, ok := lookup(envPrefix + d.name)
		if !ok || v == "" {
			continue
		}
		parsed, err := time.ParseDuration(v)
		if err != nil {
			return fmt.Errorf("invalid %s%s: %w", envPrefix, d.name, err)
		}
		*d.dst = parsed
	}

	if v, ok := lookup(envPrefix + "LIMIT"); ok && v != "" {
		n, err := strconv.Atoi(v)
		if err != nil {
			return fmt.Errorf("invalid %sLIMIT: %w", envPrefix, err)
		}
		c.Limit = n
	}

	return nil
}

// Validate checks that settings are usable.
func (c *Config) Validate() error {
	if c.BaseURL == "" {
		return errors.New("base_url is required")
	}
	if c.OutDir == "" {
		return errors.New("out_dir is required")
	}
	if _, err := browser.ParseKind(c.Browser.Driver); err != nil {
		return err
	}
	if c.Browser.Timeout <= 0 {
		return fmt.Errorf("browser timeout must be positive, got %s", c.Browser.Timeout)
	}
	if c.Settle < 0 || c.Delay < 0 {
		return errors.New("settle and delay must not be negative")
	}
	if c.Limit < 0 {
		return fmt.Errorf("limit must not be negative, got %d", c.Limit)
	}
	return nil
}

// BrowserOptions converts the browser settings for browser.Open.
func (c *Config) BrowserOptions() browser.Options {
	kind, _ := browser.ParseKind(c.Browser.Driver)
	return browser.Options{
		Kind:      kind,
		Headless:  c.Browser.Headless,
		ExecPath:  c.Browser.ExecPath,
		UserAgent: c.Browser.UserAgent,
		Timeout:   c.Browser.Timeout,
	}
}

// ScraperOptions converts the pacing settings for scraper.New.
func (c *Config) ScraperOptions() scraper.Options {
	return scraper.Options{
		BaseURL: c.BaseURL,
		Settle:  c.Settle,
		Delay:   c.Delay,
	}
}
