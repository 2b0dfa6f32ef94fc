package config

import (
	"errors"
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"

	"gopkg.in/yaml.v3"

	"github.com/danielpatrickdp/jalsathi/go-controller/internal/match"
	"github.com/danielpatrickdp/jalsathi/go-controller/internal/slots"
)

// #region types
// Config is the controller configuration.
type Config struct {
	Service     ServiceConfig `yaml:"service"`
	Matcher     MatcherConfig `yaml:"matcher"`
	KnownYears  []int         `yaml:"known_years"`
	DBPath      string        `yaml:"db_path"`
	ExportDir   string        `yaml:"export_dir"`
	LogLevel    string        `yaml:"log_level"`
	MetricsAddr string        `yaml:"metrics_addr"`
}

// ServiceConfig points at the data service.
type ServiceConfig struct {
	BaseURL string        `yaml:"base_url"`
	Timeout time.Duration `yaml:"timeout"`
}

// MatcherConfig tunes name resolution.
type MatcherConfig struct {
	Scorer          string  `yaml:"scorer"`
	Threshold       float64 `yaml:"threshold"`
	SuggestionLimit int     `yaml:"suggestion_limit"`
}

// #endregion types

// #region defaults
// Default returns the built-in configuration with environment overrides
// applied. Reads JALSATHI_SERVICE_URL, JALSATHI_TIMEOUT (seconds),
// JALSATHI_DB, JALSATHI_LOG_LEVEL, JALSATHI_EXPORT_DIR, JALSATHI_SCORER,
// JALSATHI_METRICS_ADDR.
func Default() Config {
	cfg := Config{
		Service: ServiceConfig{
			BaseURL: "http://localhost:8080/api",
			Timeout: 10 * time.Second,
		},
		Matcher: MatcherConfig{
			Scorer:          "overlap",
			Threshold:       match.DefaultThreshold,
			SuggestionLimit: match.DefaultSuggestionLimit,
		},
		KnownYears: append([]int(nil), slots.DefaultKnownYears...),
		DBPath:     "jalsathi.db",
		ExportDir:  ".",
		LogLevel:   "info",
	}
	cfg.applyEnv()
	return cfg
}

func (c *Config) applyEnv() {
	c.Service.BaseURL = envOr("JALSATHI_SERVICE_URL", c.Service.BaseURL)
	if v := os.Getenv("JALSATHI_TIMEOUT"); v != "" {
		if sec, err := strconv.Atoi(v); err == nil && sec > 0 {
			c.Service.Timeout = time.Duration(sec) * time.Second
		}
	}
	c.DBPath = envOr("JALSATHI_DB", c.DBPath)
	c.LogLevel = envOr("JALSATHI_LOG_LEVEL", c.LogLevel)
	c.ExportDir = envOr("JALSATHI_EXPORT_DIR", c.ExportDir)
	c.Matcher.Scorer = envOr("JALSATHI_SCORER", c.Matcher.Scorer)
	c.MetricsAddr = envOr("JALSATHI_METRICS_ADDR", c.MetricsAddr)
}

func envOr(key, fallback string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return fallback
}

// #endregion defaults

// Load reads path over the defaults, then re-applies the environment so
// variables win over the file. An empty path returns Default().
func Load(path string) (Config, error) {
	cfg := Default()
	if path == "" {
		return cfg, cfg.Validate()
	}
	data, err := os.ReadFile(path)
	if err != nil {
		return Config{}, fmt.Errorf("read config: %w", err)
	}
	if err := yaml.Unmarshal(data, &cfg); err != nil {
		return Config{}, fmt.Errorf("parse config: %w", err)
	}
	cfg.applyEnv()
	return cfg, cfg.Validate()
}

// Validate rejects settings the controller cannot run with.
func (c Config) Validate() error {
	var errs []error
	if strings.TrimSpace(c.Service.BaseURL) == "" {
		errs = append(errs, errors.New("service.base_url is required"))
	}
	if c.Service.Timeout <= 0 {
		errs = append(errs, errors.New("service.timeout must be positive"))
	}
	if c.Matcher.Threshold <= 0 || c.Matcher.Threshold > 1 {
		errs = append(errs, fmt.Errorf("matcher.threshold %v outside (0, 1]", c.Matcher.Threshold))
	}
	if _, err := match.ScorerByName(c.Matcher.Scorer); err != nil {
		errs = append(errs, fmt.Errorf("matcher.scorer: %w", err))
	}
	if len(c.KnownYears) == 0 {
		errs = append(errs, errors.New("known_years must not be empty"))
	}
	return errors.Join(errs...)
}

// NewMatcher builds the configured matcher.
func (c Config) NewMatcher() (*match.Matcher, error) {
	scorer, err := match.ScorerByName(c.Matcher.Scorer)
	if err != nil {
		return nil, err
	}
	return match.New(match.WithScorer(scorer), match.WithThreshold(c.Matcher.Threshold)), nil
}
