package cli

import (
	"fmt"
	"os"

	"github.com/rs/zerolog"

	"github.com/resumeranker/resume-uploader/internal/api"
	"github.com/resumeranker/resume-uploader/internal/config"
	"github.com/resumeranker/resume-uploader/internal/http"
	"github.com/resumeranker/resume-uploader/internal/logging"
)

// loadConfig builds the effective configuration.
// Priority: flags > environment > config file > defaults
func loadConfig() (*config.Config, error) {
	cfg, err := config.Load(cfgFile)
	if err != nil {
		return nil, err
	}
	cfg.ApplyEnv()
	cfg.MergeWithFlags(apiBaseURL, "")

	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("invalid configuration: %w", err)
	}
	applyLogLevel(cfg)
	return cfg, nil
}

// applyLogLevel sets the global level from --verbose/--debug or [logging] level.
func applyLogLevel(cfg *config.Config) {
	if verbose || debug {
		logging.SetGlobalLevel(zerolog.DebugLevel)
		return
	}
	level, err := logging.ParseLevel(cfg.LogLevel)
	if err != nil {
		GetLogger().Warn().Err(err).Msg("Ignoring [logging] level")
	}
	logging.SetGlobalLevel(level)
}

// getAPIClient creates an API client for cfg, prompting for a proxy password
// when the proxy needs one and none is configured.
func getAPIClient(cfg *config.Config) (*api.Client, error) {
	if http.NeedsProxyPassword(cfg) {
		p := newPrompter(os.Stdin, os.Stderr)
		password, err := p.secret(fmt.Sprintf("Proxy password for %s@%s", cfg.ProxyUser, cfg.ProxyHost))
		if err != nil {
			return nil, fmt.Errorf("failed to read proxy password: %w", err)
		}
		cfg.ProxyPassword = password
	}

	client, err := api.NewClient(cfg, GetLogger())
	if err != nil {
		return nil, fmt.Errorf("failed to create API client: %w", err)
	}
	return client, nil
}
