package cli

import (
	"fmt"
	"io"
	"os"

	"github.com/spf13/cobra"

	"github.com/resumeranker/resume-uploader/internal/config"
)

// newConfigCmd creates the 'config' command group.
func newConfigCmd() *cobra.Command {
	configCmd := &cobra.Command{
		Use:   "config",
		Short: "Manage resume-upload configuration",
		Long: `Configuration management commands for resume-upload.

Commands:
  init  - Interactive configuration setup
  show  - Display current configuration
  path  - Show configuration file path`,
	}

	configCmd.AddCommand(newConfigInitCmd())
	configCmd.AddCommand(newConfigShowCmd())
	configCmd.AddCommand(newConfigPathCmd())

	return configCmd
}

// configPath returns --config or the default location.
func configPath() (string, error) {
	if cfgFile != "" {
		return cfgFile, nil
	}
	return config.DefaultConfigPath()
}

// newConfigInitCmd creates the 'config init' command.
func newConfigInitCmd() *cobra.Command {
	var force bool

	cmd := &cobra.Command{
		Use:   "init",
		Short: "Initialize configuration interactively",
		Long: `Interactive configuration setup for resume-upload.

The configuration will be saved to ~/.config/resume-uploader/config
(or the path given with --config).

Use --force to overwrite existing configuration.`,
		RunE: func(cmd *cobra.Command, args []string) error {
			path, err := configPath()
			if err != nil {
				return err
			}
			out := cmd.OutOrStdout()

			// Check if config already exists
			if !force {
				if _, err := os.Stat(path); err == nil {
					fmt.Fprintf(out, "Configuration already exists at: %s\n", path)
					fmt.Fprintln(out, "Use --force to overwrite or run 'config show' to view current config.")
					return nil
				}
			}

			cfg, err := runConfigWizard(newPrompter(cmd.InOrStdin(), out), out)
			if err != nil {
				return err
			}
			if err := cfg.Validate(); err != nil {
				return fmt.Errorf("invalid configuration: %w", err)
			}
			if err := config.Save(cfg, path); err != nil {
				return fmt.Errorf("failed to save config: %w", err)
			}

			GetLogger().Info().Str("path", path).Msg("Configuration saved")
			fmt.Fprintln(out)
			fmt.Fprintf(out, "✓ Configuration saved to: %s\n", path)
			return nil
		},
	}

	cmd.Flags().BoolVarP(&force, "force", "f", false, "Overwrite existing configuration")

	return cmd
}

// runConfigWizard asks for each setting, starting from the defaults.
func runConfigWizard(p *prompter, out io.Writer) (*config.Config, error) {
	cfg := config.NewConfig()

	fmt.Fprintln(out, "Resume Upload Configuration Setup")
	fmt.Fprintln(out, "=================================")
	fmt.Fprintln(out)

	cfg.APIBaseURL = p.ask("API Base URL", cfg.APIBaseURL)

	fmt.Fprintln(out)
	fmt.Fprintln(out, "Upload Settings (press Enter for defaults)")
	fmt.Fprintln(out, "------------------------------------------")
	cfg.BatchMode = p.confirm("Send all files in one batched request by default?", cfg.BatchMode)
	cfg.AllowedExtensions = p.ask("Allowed extensions", cfg.AllowedExtensions)
	cfg.Recursive = p.confirm("Descend into sub-directories?", cfg.Recursive)

	fmt.Fprintln(out)
	if !p.confirm("Configure proxy?", false) {
		cfg.ProxyMode = config.ProxyModeNone
		return cfg, nil
	}

	fmt.Fprintln(out)
	fmt.Fprintln(out, "Proxy Configuration")
	fmt.Fprintln(out, "-------------------")
	fmt.Fprintln(out, "Proxy modes: no-proxy, system, basic, ntlm")
	cfg.ProxyMode = p.ask("Proxy mode", config.ProxyModeSystem)
	if cfg.ProxyMode == config.ProxyModeNone {
		return cfg, nil
	}
	cfg.ProxyHost = p.ask("Proxy host", "")
	cfg.ProxyPort = p.askInt("Proxy port", 8080)
	cfg.NoProxy = p.ask("Hosts to bypass (comma-separated)", "")

	if cfg.ProxyMode == config.ProxyModeBasic || cfg.ProxyMode == config.ProxyModeNTLM {
		cfg.ProxyUser = p.ask("Proxy user", "")
		if cfg.ProxyUser != "" && p.confirm("Store the proxy password in the config file?", false) {
			password, err := p.secret("Proxy password")
			if err != nil {
				return nil, fmt.Errorf("failed to read proxy password: %w", err)
			}
			cfg.ProxyPassword = password
		}
	}
	return cfg, nil
}

// newConfigShowCmd creates the 'config show' command.
func newConfigShowCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "show",
		Short: "Display current configuration",
		Long: `Display the current configuration settings.

This command shows the merged configuration from:
  1. Configuration file (~/.config/resume-uploader/config)
  2. Environment variables (` + config.EnvAPIURL + `, ` + config.EnvBatchMode + `, ` + config.EnvProxy + `)
  3. Command-line flags (--api-url)

Priority: flags > environment > config file > defaults`,
		RunE: func(cmd *cobra.Command, args []string) error {
			path, err := configPath()
			if err != nil {
				return err
			}
			cfg, err := config.Load(path)
			if err != nil {
				return fmt.Errorf("failed to load config: %w", err)
			}
			cfg.ApplyEnv()
			cfg.MergeWithFlags(apiBaseURL, "")

			printConfig(cmd.OutOrStdout(), cfg.Masked(), path)
			return nil
		},
	}

	return cmd
}

func printConfig(out io.Writer, cfg config.Config, path string) {
	fmt.Fprintln(out, "Current Configuration")
	fmt.Fprintln(out, "=====================")
	fmt.Fprintln(out)

	fmt.Fprintln(out, "API Settings:")
	fmt.Fprintf(out, "  API Base URL:        %s\n", cfg.APIBaseURL)
	fmt.Fprintf(out, "  Retry Max:           %d\n", cfg.RetryMax)
	fmt.Fprintf(out, "  Retry Wait:          %s - %s\n", cfg.RetryWaitMin, cfg.RetryWaitMax)
	if cfg.RequestsPerSecond > 0 {
		fmt.Fprintf(out, "  Requests per second: %g\n", cfg.RequestsPerSecond)
	} else {
		fmt.Fprintln(out, "  Requests per second: unlimited")
	}
	fmt.Fprintln(out)

	fmt.Fprintln(out, "Upload Settings:")
	fmt.Fprintf(out, "  Batch Mode:         %t\n", cfg.BatchMode)
	fmt.Fprintf(out, "  Allowed Extensions: %s\n", cfg.AllowedExtensions)
	if cfg.MaxFileSizeMB > 0 {
		fmt.Fprintf(out, "  Max File Size:      %d MB\n", cfg.MaxFileSizeMB)
	} else {
		fmt.Fprintln(out, "  Max File Size:      unlimited")
	}
	fmt.Fprintf(out, "  Recursive:          %t\n", cfg.Recursive)
	fmt.Fprintln(out)

	fmt.Fprintln(out, "Proxy Settings:")
	fmt.Fprintf(out, "  Proxy Mode: %s\n", cfg.ProxyMode)
	if cfg.ProxyHost != "" {
		fmt.Fprintf(out, "  Proxy Host: %s\n", cfg.ProxyHost)
		fmt.Fprintf(out, "  Proxy Port: %d\n", cfg.ProxyPort)
	}
	if cfg.ProxyUser != "" {
		fmt.Fprintf(out, "  Proxy User: %s\n", cfg.ProxyUser)
	}
	if cfg.ProxyPassword != "" {
		fmt.Fprintf(out, "  Proxy Password: %s\n", cfg.ProxyPassword)
	}
	if cfg.NoProxy != "" {
		fmt.Fprintf(out, "  No Proxy:   %s\n", cfg.NoProxy)
	}
	fmt.Fprintln(out)

	level := cfg.LogLevel
	if level == "" {
		level = "info"
	}
	fmt.Fprintf(out, "Log Level: %s\n", level)
	fmt.Fprintln(out)

	fmt.Fprintf(out, "Configuration file: %s\n", path)
	if _, err := os.Stat(path); os.IsNotExist(err) {
		fmt.Fprintln(out, "  (file does not exist - using defaults)")
	}
}

// newConfigPathCmd creates the 'config path' command.
func newConfigPathCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "path",
		Short: "Show configuration file path",
		Long:  `Display the path to the configuration file.`,
		RunE: func(cmd *cobra.Command, args []string) error {
			path, err := configPath()
			if err != nil {
				return err
			}
			fmt.Fprintln(cmd.OutOrStdout(), path)
			return nil
		},
	}

	return cmd
}
