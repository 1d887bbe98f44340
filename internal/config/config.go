// Package config provides configuration management for the resume uploader.
package config

import (
	"errors"
	"fmt"
	"net/url"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/resumeranker/resume-uploader/internal/constants"
)

// Environment variables that override the config file.
const (
	EnvAPIURL    = "RESUME_UPLOADER_API_URL"
	EnvBatchMode = "RESUME_UPLOADER_BATCH_MODE"
	EnvProxy     = "HTTPS_PROXY"
)

// Proxy modes
const (
	ProxyModeNone   = "no-proxy"
	ProxyModeSystem = "system"
	ProxyModeBasic  = "basic"
	ProxyModeNTLM   = "ntlm"
)

// Config holds the effective settings for one run.
type Config struct {
	// [api]
	APIBaseURL        string
	RetryMax          int
	RetryWaitMin      time.Duration
	RetryWaitMax      time.Duration
	RequestsPerSecond float64 // 0 = unpaced

	// [proxy]
	ProxyMode     string // "no-proxy", "system", "basic", "ntlm"
	ProxyHost     string
	ProxyPort     int
	ProxyUser     string
	ProxyPassword string
	NoProxy       string // Comma-separated list of hosts to bypass proxy
	ProxyWarmup   bool

	// [upload]
	BatchMode         bool
	AllowedExtensions string // comma-separated, e.g. ".pdf,.docx"
	MaxFileSizeMB     int64  // 0 = unlimited
	Recursive         bool

	// [logging]
	LogLevel string
}

// Validation errors
var (
	ErrMissingAPIBaseURL  = errors.New("api base_url is required")
	ErrInvalidAPIBaseURL  = errors.New("api base_url must be an http or https URL")
	ErrInvalidRetryMax    = errors.New("retry_max must be between 0 and 10")
	ErrInvalidRetryWait   = errors.New("retry_wait_min_ms must not exceed retry_wait_max_ms")
	ErrInvalidRate        = errors.New("requests_per_second must not be negative")
	ErrInvalidProxyMode   = errors.New("proxy mode must be one of no-proxy, system, basic, ntlm")
	ErrMissingProxyHost   = errors.New("proxy host is required for basic and ntlm modes")
	ErrInvalidMaxFileSize = errors.New("max_file_size_mb must not be negative")
)

// NewConfig creates a Config with default values.
func NewConfig() *Config {
	return &Config{
		APIBaseURL:        constants.DefaultAPIBaseURL,
		RetryMax:          constants.DefaultRetryMax,
		RetryWaitMin:      constants.DefaultRetryWaitMin,
		RetryWaitMax:      constants.DefaultRetryWaitMax,
		ProxyMode:         ProxyModeNone,
		AllowedExtensions: constants.DefaultAllowedExtensions,
		LogLevel:          "info",
	}
}

// ApplyEnv applies environment overrides.
func (c *Config) ApplyEnv() {
	if envURL := os.Getenv(EnvAPIURL); envURL != "" {
		c.APIBaseURL = envURL
	}
	if envBatch := os.Getenv(EnvBatchMode); envBatch != "" {
		if v, err := strconv.ParseBool(envBatch); err == nil {
			c.BatchMode = v
		}
	}
	if envProxy := os.Getenv(EnvProxy); envProxy != "" && c.ProxyHost == "" {
		c.parseProxyURL(envProxy)
	}
}

// MergeWithFlags applies command-line flags (highest priority).
// Empty values leave the current setting unchanged.
func (c *Config) MergeWithFlags(apiBaseURL, logLevel string) {
	if apiBaseURL != "" {
		c.APIBaseURL = apiBaseURL
	}
	if logLevel != "" {
		c.LogLevel = logLevel
	}
	c.APIBaseURL = strings.TrimSuffix(c.APIBaseURL, "/")
}

// MaxFileSize returns the size limit in bytes (0 = unlimited).
func (c *Config) MaxFileSize() int64 {
	return c.MaxFileSizeMB * constants.BytesPerMB
}

// parseProxyURL parses a proxy URL from environment variable
func (c *Config) parseProxyURL(proxyURL string) {
	proxyURL = strings.TrimPrefix(proxyURL, "http://")
	proxyURL = strings.TrimPrefix(proxyURL, "https://")
	proxyURL = strings.TrimSuffix(proxyURL, "/")

	parts := strings.Split(proxyURL, ":")
	if len(parts) >= 1 {
		c.ProxyHost = parts[0]
	}
	if len(parts) >= 2 {
		if port, err := strconv.Atoi(parts[1]); err == nil {
			c.ProxyPort = port
		}
	}
	if c.ProxyHost != "" && c.ProxyMode == ProxyModeNone {
		c.ProxyMode = ProxyModeSystem
	}
}

// Validate checks if the configuration is valid
func (c *Config) Validate() error {
	if strings.TrimSpace(c.APIBaseURL) == "" {
		return ErrMissingAPIBaseURL
	}
	u, err := url.Parse(c.APIBaseURL)
	if err != nil || (u.Scheme != "http" && u.Scheme != "https") || u.Host == "" {
		return fmt.Errorf("%w: %q", ErrInvalidAPIBaseURL, c.APIBaseURL)
	}
	if c.RetryMax < 0 || c.RetryMax > 10 {
		return ErrInvalidRetryMax
	}
	if c.RetryWaitMin > c.RetryWaitMax {
		return ErrInvalidRetryWait
	}
	if c.RequestsPerSecond < 0 {
		return ErrInvalidRate
	}
	switch c.ProxyMode {
	case "", ProxyModeNone, ProxyModeSystem:
	case ProxyModeBasic, ProxyModeNTLM:
		if strings.TrimSpace(c.ProxyHost) == "" {
			return ErrMissingProxyHost
		}
	default:
		return fmt.Errorf("%w: %q", ErrInvalidProxyMode, c.ProxyMode)
	}
	if c.MaxFileSizeMB < 0 {
		return ErrInvalidMaxFileSize
	}
	return nil
}

// Masked returns a copy safe to print.
func (c *Config) Masked() Config {
	out := *c
	if out.ProxyPassword != "" {
		out.ProxyPassword = "********"
	}
	return out
}
