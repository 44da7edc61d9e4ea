package config

import (
	"errors"
	"os"
	"regexp"
	"time"
	_ "time/tzdata" // reporting timezone on hosts without zoneinfo

	"github.com/pelletier/go-toml"
)

const (
	DefaultListenAddress = "0.0.0.0:8080"
	DefaultTimezone      = "Asia/Ulaanbaatar"
)

var (
	ErrInvalidListenAddress = errors.New("invalid listen address")
	ErrInvalidTimezone      = errors.New("invalid timezone")
)

var listenAddressRegex = regexp.MustCompile(`^\d{1,3}(\.\d{1,3}){3}:\d+$`)

// Config defines the base-level server configuration
type Config struct {
	// The reporting timezone, used for the default scrape date
	Timezone string `toml:"timezone"`

	// The associated CORS config, if any
	CORSConfig *CORS `toml:"cors_config"`

	// The address at which the server will be served.
	// Format should be: <IP>:<PORT>
	ListenAddress string `toml:"listen_address"`
}

// DefaultConfig returns the default server configuration
func DefaultConfig() *Config {
	return &Config{
		ListenAddress: DefaultListenAddress,
		CORSConfig:    DefaultCORSConfig(),
		Timezone:      DefaultTimezone,
	}
}

// ValidateConfig validates the server configuration
func ValidateConfig(config *Config) error {
	// Validate the listen address
	if !listenAddressRegex.MatchString(config.ListenAddress) {
		return ErrInvalidListenAddress
	}

	// Validate the timezone
	if _, err := time.LoadLocation(config.Timezone); err != nil {
		return ErrInvalidTimezone
	}

	return nil
}

// Read reads the configuration from the given path
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
