// Package config loads the bts-board YAML configuration.
package config

import (
	"errors"
	"fmt"
	"os"
	"strings"
	"time"
	_ "time/tzdata"

	"github.com/pfrederiksen/bts-board/internal/logger"
	"github.com/pfrederiksen/bts-board/internal/source"
	"gopkg.in/yaml.v3"
)

// Config represents the complete bts-board configuration
type Config struct {
	Server  ServerConfig  `yaml:"server"`
	Source  SourceConfig  `yaml:"source"`
	Dates   DatesConfig   `yaml:"dates"`
	Logging LoggingConfig `yaml:"logging"`
}

// ServerConfig contains HTTP listener settings
type ServerConfig struct {
	Addr            string        `yaml:"addr"`
	ShutdownTimeout time.Duration `yaml:"shutdown_timeout"`
}

// SourceConfig locates the data repository and tunes the HTTP client
type SourceConfig struct {
	BaseURL   string        `yaml:"base_url"`
	Owner     string        `yaml:"owner"`
	Repo      string        `yaml:"repo"`
	Branch    string        `yaml:"branch"`
	Timeout   time.Duration `yaml:"timeout"`
	Retries   int           `yaml:"retries"`
	UserAgent string        `yaml:"user_agent"`
}

// DatesConfig controls the date dropdown
type DatesConfig struct {
	CandidateDays int    `yaml:"candidate_days"`
	Timezone      string `yaml:"timezone"`
}

// LoggingConfig contains logging settings
type LoggingConfig struct {
	Level string `yaml:"level"`
}

// Default returns the configuration used when no file is given
func Default() *Config {
	return &Config{
		Server: ServerConfig{
			Addr:            ":8080",
			ShutdownTimeout: 10 * time.Second,
		},
		Source: SourceConfig{
			BaseURL:   source.DefaultBaseURL,
			Owner:     source.DefaultOwner,
			Repo:      source.DefaultRepoName,
			Branch:    source.DefaultBranch,
			Timeout:   source.Timeout,
			UserAgent: source.UserAgent,
		},
		Dates: DatesConfig{
			CandidateDays: 7,
			Timezone:      "Local",
		},
		Logging: LoggingConfig{
			Level: "info",
		},
	}
}

// Load reads filename over the defaults. An empty filename returns Default().
func Load(filename string) (*Config, error) {
	cfg := Default()
	if filename == "" {
		return cfg, nil
	}

	data, err := os.ReadFile(filename)
	if err != nil {
		return nil, fmt.Errorf("failed to read config file: %w", err)
	}

	if err := yaml.Unmarshal(data, cfg); err != nil {
		return nil, fmt.Errorf("failed to parse config file: %w", err)
	}

	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("invalid config %s: %w", filename, err)
	}
	return cfg, nil
}

// Validate checks value ranges and names
func (c *Config) Validate() error {
	var errs []error

	if strings.TrimSpace(c.Server.Addr) == "" {
		errs = append(errs, errors.New("server.addr is empty"))
	}
	if c.Server.ShutdownTimeout < 0 {
		errs = append(errs, errors.New("server.shutdown_timeout is negative"))
	}
	if !strings.HasPrefix(c.Source.BaseURL, "http://") && !strings.HasPrefix(c.Source.BaseURL, "https://") {
		errs = append(errs, fmt.Errorf("source.base_url %q is not an http(s) URL", c.Source.BaseURL))
	}
	if c.Source.Owner == "" || c.Source.Repo == "" || c.Source.Branch == "" {
		errs = append(errs, errors.New("source.owner, source.repo and source.branch are required"))
	}
	if c.Source.Timeout <= 0 {
		errs = append(errs, errors.New("source.timeout must be positive"))
	}
	if c.Source.Retries < 0 {
		errs = append(errs, errors.New("source.retries is negative"))
	}
	if c.Dates.CandidateDays < 1 || c.Dates.CandidateDays > 366 {
		errs = append(errs, fmt.Errorf("dates.candidate_days %d out of range 1-366", c.Dates.CandidateDays))
	}
	if _, err := c.Location(); err != nil {
		errs = append(errs, err)
	}
	if _, err := logger.ParseLevel(c.Logging.Level); err != nil {
		errs = append(errs, err)
	}

	return errors.Join(errs...)
}

// Location resolves dates.timezone
func (c *Config) Location() (*time.Location, error) {
	switch c.Dates.Timezone {
	case "", "Local":
		return time.Local, nil
	}
	loc, err := time.LoadLocation(c.Dates.Timezone)
	if err != nil {
		return nil, fmt.Errorf("dates.timezone: %w", err)
	}
	return loc, nil
}

// Repo returns the configured data repository
func (c *Config) Repo() source.Repo {
	return source.Repo{
		BaseURL: c.Source.BaseURL,
		Owner:   c.Source.Owner,
		Name:    c.Source.Repo,
		Branch:  c.Source.Branch,
	}
}

// ClientOptions returns the source.Client options for this config
func (c *Config) ClientOptions() []source.Option {
	return []source.Option{
		source.WithTimeout(c.Source.Timeout),
		source.WithRetries(c.Source.Retries),
		source.WithUserAgent(c.Source.UserAgent),
	}
}
