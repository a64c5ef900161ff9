package main

import (
	"fmt"

	"github.com/spf13/cobra"

	"vaani-labs/drishti/pkg/config"
	"vaani-labs/drishti/pkg/plugin"
	"vaani-labs/drishti/pkg/server"
)

var runFlags struct {
	listen   string
	upstream string
	logLevel string
	dryRun   bool
}

var runCmd = &cobra.Command{
	Use:   "run",
	Short: "Start the Drishti gateway",
	Long: `Start the Drishti gateway with the specified configuration.

The gateway listens on the configured address, proxies requests to the
upstream inference service, and serves metrics on the exposition endpoints.

Examples:
  # Start with default config and an upstream
  drishti run --upstream http://inference:8000

  # Start with a config file
  drishti run --config /etc/drishti/drishti.yaml

  # Override the listen address
  drishti run --config drishti.yaml --listen 0.0.0.0:8080

  # Validate config without starting the gateway
  drishti run --config drishti.yaml --dry-run`,
	RunE: runGateway,
}

func init() {
	rootCmd.AddCommand(runCmd)

	runCmd.Flags().StringVarP(&runFlags.listen, "listen", "l", "", "override listen address")
	runCmd.Flags().StringVar(&runFlags.upstream, "upstream", "", "override upstream base URL")
	runCmd.Flags().StringVar(&runFlags.logLevel, "log-level", "", "override log level (debug, info, warn, error)")
	runCmd.Flags().BoolVar(&runFlags.dryRun, "dry-run", false, "validate config without starting the gateway")
}

func runGateway(cmd *cobra.Command, args []string) error {
	cfg, err := loadConfig()
	if err != nil {
		return err
	}

	if runFlags.listen != "" {
		cfg.Server.Listen = runFlags.listen
	}
	if runFlags.upstream != "" {
		cfg.Server.Upstream = runFlags.upstream
	}
	if runFlags.logLevel != "" {
		cfg.Logging.Level = runFlags.logLevel
	}
	if verbose {
		cfg.Debug = true
	}

	if err := config.Validate(cfg); err != nil {
		return fmt.Errorf("invalid configuration: %w", err)
	}

	if runFlags.dryRun {
		cmd.Println("configuration is valid")
		return nil
	}

	var opts []plugin.Option
	if cfgFile != "" {
		opts = append(opts, plugin.WithConfigPath(cfgFile))
	}
	p, err := plugin.New(cfg, opts...)
	if err != nil {
		return err
	}

	srv, err := server.NewServer(cfg, p)
	if err != nil {
		return err
	}
	return srv.Start(cmd.Context())
}

// loadConfig loads the configuration file named by --config, or the
// defaults with environment overrides when no file is given.
func loadConfig() (*config.Config, error) {
	if cfgFile != "" {
		return config.LoadConfigWithEnvOverrides(cfgFile)
	}
	cfg := config.Default()
	config.ApplyEnvOverrides(cfg)
	if err := config.Validate(cfg); err != nil {
		return nil, err
	}
	return cfg, nil
}
