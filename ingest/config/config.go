package config

import (
	"errors"
	"fmt"
	"os"
	"time"
	_ "time/tzdata" // reporting timezone on hosts without zoneinfo

	"github.com/pelletier/go-toml"
	"github.com/robfig/cron/v3"
)

const (
	DefaultRequestTimeout  = 30 * time.Second
	DefaultRenderTimeoutMS = 60000
	DefaultDirectWorkers   = 8
	DefaultRenderedWorkers = 2
	DefaultAdapterTimeout  = 2 * time.Minute
	DefaultSchedule        = "0 1 * * *"
	DefaultTimezone        = "Asia/Ulaanbaatar"
)

var (
	ErrInvalidTimeout  = errors.New("invalid timeout")
	ErrInvalidWorkers  = errors.New("invalid worker count")
	ErrInvalidSchedule = errors.New("invalid schedule")
	ErrInvalidTimezone = errors.New("invalid timezone")
)

// Config defines the ingestion configuration
type Config struct {
	// Per-bank source endpoint overrides,
	// keyed by the lowercase canonical bank name
	BankURLs map[string]string `toml:"bank_urls"`

	// The cron expression (standard 5-field) of the daily ingestion run
	Schedule string `toml:"schedule"`

	// The reporting timezone run dates are computed in
	Timezone string `toml:"timezone"`

	// The bearer token of the ArigBank rate API
	ArigBankToken string `toml:"arigbank_token"`

	// The Chrome / Chromium binary used for rendering, if not on the path
	ChromePath string `toml:"chrome_path"`

	// Timeout of a single direct source request
	RequestTimeout time.Duration `toml:"request_timeout"`

	// Timeout of a single rendered page, in milliseconds
	RenderTimeoutMS int `toml:"render_timeout_ms"`

	// Timeout of a single adapter run
	AdapterTimeout time.Duration `toml:"adapter_timeout"`

	// Worker ceilings of the transport pools
	DirectWorkers   int `toml:"direct_workers"`
	RenderedWorkers int `toml:"rendered_workers"`

	// Flag indicating if source TLS certificates are verified
	VerifyTLS bool `toml:"verify_tls"`

	// Flag indicating if a run is triggered when the scheduler starts
	RunOnStart bool `toml:"run_on_start"`
}

// DefaultConfig returns the default ingestion configuration
func DefaultConfig() *Config {
	return &Config{
		BankURLs:        map[string]string{},
		Schedule:        DefaultSchedule,
		Timezone:        DefaultTimezone,
		RequestTimeout:  DefaultRequestTimeout,
		RenderTimeoutMS: DefaultRenderTimeoutMS,
		AdapterTimeout:  DefaultAdapterTimeout,
		DirectWorkers:   DefaultDirectWorkers,
		RenderedWorkers: DefaultRenderedWorkers,
		VerifyTLS:       false,
	}
}

// RenderTimeout returns the render timeout as a duration
func (c *Config) RenderTimeout() time.Duration {
	return time.Duration(c.RenderTimeoutMS) * time.Millisecond
}

// Location loads the reporting timezone
func (c *Config) Location() (*time.Location, error) {
	loc, err := time.LoadLocation(c.Timezone)
	if err != nil {
		return nil, fmt.Errorf("%w: %w", ErrInvalidTimezone, err)
	}

	return loc, nil
}

// ValidateConfig validates the ingestion configuration
func ValidateConfig(config *Config) error {
	if config.RequestTimeout <= 0 || config.RenderTimeoutMS <= 0 || config.AdapterTimeout <= 0 {
		return ErrInvalidTimeout
	}

	if config.DirectWorkers <= 0 || config.RenderedWorkers <= 0 {
		return ErrInvalidWorkers
	}

	if _, err := cron.ParseStandard(config.Schedule); err != nil {
		return fmt.Errorf("%w: %w", ErrInvalidSchedule, err)
	}

	if _, err := config.Location(); err != nil {
		return err
	}

	return nil
}

// Read reads the configuration from the given path.
// Values missing from the file keep their defaults
func Read(path string) (*Config, error) {
	// Read the config file
	content, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}

	// Parse it
	cfg := DefaultConfig()

	if err := toml.Unmarshal(content, cfg); err != nil {
		return nil, err
	}

	return cfg, nil
}
