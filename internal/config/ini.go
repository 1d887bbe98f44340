package config

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"runtime"
	"strconv"
	"time"

	"gopkg.in/ini.v1"
)

// Config file format:
//
//	[api]
//	base_url = http://localhost:8000
//	retry_max = 2
//	retry_wait_min_ms = 500
//	retry_wait_max_ms = 10000
//	requests_per_second = 0
//
//	[proxy]
//	mode = no-proxy
//	host =
//	port = 0
//	user =
//	password =
//	no_proxy =
//	warmup = false
//
//	[upload]
//	batch_mode = false
//	allowed_extensions = .pdf,.doc,.docx,.txt,.rtf
//	max_file_size_mb = 0
//	recursive = false
//
//	[logging]
//	level = info

// DefaultConfigPath returns the default config file location.
//   - Windows: %USERPROFILE%\.config\resume-uploader\config
//   - Unix: ~/.config/resume-uploader/config
func DefaultConfigPath() (string, error) {
	var home string
	if runtime.GOOS == "windows" {
		home = os.Getenv("USERPROFILE")
		if home == "" {
			return "", errors.New("USERPROFILE environment variable not set")
		}
	} else {
		var err error
		home, err = os.UserHomeDir()
		if err != nil {
			return "", fmt.Errorf("failed to get home directory: %w", err)
		}
	}
	return filepath.Join(home, ".config", "resume-uploader", "config"), nil
}

// Load reads configuration from an INI file.
// If the file doesn't exist, returns a config with default values and no error.
// If the file exists but is invalid, returns an error.
func Load(path string) (*Config, error) {
	cfg := NewConfig()

	if path == "" {
		var err error
		path, err = DefaultConfigPath()
		if err != nil {
			return cfg, nil // Return defaults if we can't determine path
		}
	}

	if _, err := os.Stat(path); os.IsNotExist(err) {
		return cfg, nil
	}

	iniFile, err := ini.Load(path)
	if err != nil {
		return nil, fmt.Errorf("failed to load config: %w", err)
	}

	api := iniFile.Section("api")
	cfg.APIBaseURL = api.Key("base_url").MustString(cfg.APIBaseURL)
	cfg.RetryMax = api.Key("retry_max").MustInt(cfg.RetryMax)
	cfg.RetryWaitMin = time.Duration(api.Key("retry_wait_min_ms").MustInt64(cfg.RetryWaitMin.Milliseconds())) * time.Millisecond
	cfg.RetryWaitMax = time.Duration(api.Key("retry_wait_max_ms").MustInt64(cfg.RetryWaitMax.Milliseconds())) * time.Millisecond
	cfg.RequestsPerSecond = api.Key("requests_per_second").MustFloat64(0)

	proxy := iniFile.Section("proxy")
	cfg.ProxyMode = proxy.Key("mode").MustString(cfg.ProxyMode)
	cfg.ProxyHost = proxy.Key("host").String()
	cfg.ProxyPort = proxy.Key("port").MustInt(0)
	cfg.ProxyUser = proxy.Key("user").String()
	cfg.ProxyPassword = proxy.Key("password").String()
	cfg.NoProxy = proxy.Key("no_proxy").String()
	cfg.ProxyWarmup = proxy.Key("warmup").MustBool(false)

	upload := iniFile.Section("upload")
	cfg.BatchMode = upload.Key("batch_mode").MustBool(false)
	cfg.AllowedExtensions = upload.Key("allowed_extensions").MustString(cfg.AllowedExtensions)
	cfg.MaxFileSizeMB = upload.Key("max_file_size_mb").MustInt64(0)
	cfg.Recursive = upload.Key("recursive").MustBool(false)

	cfg.LogLevel = iniFile.Section("logging").Key("level").MustString(cfg.LogLevel)

	return cfg, nil
}

// Save writes configuration to an INI file.
// Creates parent directories if they don't exist.
// The proxy password is stored in the file - ensure appropriate file permissions.
func Save(cfg *Config, path string) error {
	if path == "" {
		var err error
		path, err = DefaultConfigPath()
		if err != nil {
			return fmt.Errorf("failed to determine config path: %w", err)
		}
	}

	dir := filepath.Dir(path)
	if err := os.MkdirAll(dir, 0700); err != nil {
		return fmt.Errorf("failed to create config directory: %w", err)
	}

	iniFile := ini.Empty()

	sections := []struct {
		name string
		keys [][2]string
	}{
		{"api", [][2]string{
			{"base_url", cfg.APIBaseURL},
			{"retry_max", strconv.Itoa(cfg.RetryMax)},
			{"retry_wait_min_ms", strconv.FormatInt(cfg.RetryWaitMin.Milliseconds(), 10)},
			{"retry_wait_max_ms", strconv.FormatInt(cfg.RetryWaitMax.Milliseconds(), 10)},
			{"requests_per_second", strconv.FormatFloat(cfg.RequestsPerSecond, 'f', -1, 64)},
		}},
		{"proxy", [][2]string{
			{"mode", cfg.ProxyMode},
			{"host", cfg.ProxyHost},
			{"port", strconv.Itoa(cfg.ProxyPort)},
			{"user", cfg.ProxyUser},
			{"password", cfg.ProxyPassword},
			{"no_proxy", cfg.NoProxy},
			{"warmup", strconv.FormatBool(cfg.ProxyWarmup)},
		}},
		{"upload", [][2]string{
			{"batch_mode", strconv.FormatBool(cfg.BatchMode)},
			{"allowed_extensions", cfg.AllowedExtensions},
			{"max_file_size_mb", strconv.FormatInt(cfg.MaxFileSizeMB, 10)},
			{"recursive", strconv.FormatBool(cfg.Recursive)},
		}},
		{"logging", [][2]string{
			{"level", cfg.LogLevel},
		}},
	}

	for _, s := range sections {
		section, err := iniFile.NewSection(s.name)
		if err != nil {
			return fmt.Errorf("failed to create %s section: %w", s.name, err)
		}
		for _, kv := range s.keys {
			section.Key(kv[0]).SetValue(kv[1])
		}
	}

	// Use temporary file + rename for atomicity
	tmpPath := path + ".tmp"
	if err := iniFile.SaveTo(tmpPath); err != nil {
		return fmt.Errorf("failed to write config: %w", err)
	}

	if runtime.GOOS != "windows" {
		if err := os.Chmod(tmpPath, 0600); err != nil {
			os.Remove(tmpPath)
			return fmt.Errorf("failed to set config permissions: %w", err)
		}
	}

	if err := os.Rename(tmpPath, path); err != nil {
		os.Remove(tmpPath)
		return fmt.Errorf("failed to save config: %w", err)
	}

	return nil
}
