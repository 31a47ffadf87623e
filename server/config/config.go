package config

import (
	"errors"
	"net/url"
	"os"
	"regexp"

	"github.com/pelletier/go-toml"

	"github.com/sig-0/krwrates/provider/naver"
)

const (
	DefaultListenAddress = "0.0.0.0:8545"
	DefaultSourceURL     = naver.DefaultURL

	// Timeout for a single outbound source fetch
	DefaultFetchTimeoutSeconds = 20

	// Freshness window for the auxiliary history cache
	DefaultHistoryCacheHours = 3

	DefaultHistoryLookbackDays = 30
)

var (
	ErrInvalidListenAddress = errors.New("invalid listen address")
	ErrInvalidSourceURL     = errors.New("invalid source URL")
	ErrInvalidFetchTimeout  = errors.New("invalid fetch timeout")
)

var listenAddressRegex = regexp.MustCompile(`^\d{1,3}(\.\d{1,3}){3}:\d+$`)

// Config defines the base-level server configuration
type Config struct {
	// The associated CORS config, if any
	CORSConfig *CORS `toml:"cors_config"`

	// The address at which the server will be served.
	// Format should be: <IP>:<PORT>
	ListenAddress string `toml:"listen_address"`

	// The upstream exchange list page URL
	SourceURL string `toml:"source_url"`

	// The auxiliary historical time-series endpoint, if any
	HistoryURL string `toml:"history_url"`

	// The short build identifier embedded in the served artifact, if any
	BuildID string `toml:"build_identifier"`

	// The outbound fetch timeout, in seconds
	FetchTimeoutSeconds int64 `toml:"fetch_timeout_seconds"`

	// The history cache freshness window, in hours
	HistoryCacheHours int64 `toml:"history_cache_hours"`

	// The history lookback window, in days
	HistoryLookbackDays int64 `toml:"history_lookback_days"`
}

// DefaultConfig returns the default server configuration
func DefaultConfig() *Config {
	return &Config{
		ListenAddress:       DefaultListenAddress,
		CORSConfig:          DefaultCORSConfig(),
		SourceURL:           DefaultSourceURL,
		FetchTimeoutSeconds: DefaultFetchTimeoutSeconds,
		HistoryCacheHours:   DefaultHistoryCacheHours,
		HistoryLookbackDays: DefaultHistoryLookbackDays,
	}
}

// ValidateConfig validates the server configuration
func ValidateConfig(config *Config) error {
	// Validate the listen address
	if !listenAddressRegex.MatchString(config.ListenAddress) {
		return ErrInvalidListenAddress
	}

	// Validate the source URL
	if parsed, err := url.Parse(config.SourceURL); err != nil || parsed.Scheme == "" {
		return ErrInvalidSourceURL
	}

	// Validate the fetch timeout
	if config.FetchTimeoutSeconds <= 0 {
		return ErrInvalidFetchTimeout
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
	var cfg Config

	if err := toml.Unmarshal(content, &cfg); err != nil {
		return nil, err
	}

	return &cfg, nil
}
