package main

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"
)

var (
	// Global flags
	cfgFile string
	verbose bool
)

var rootCmd = &cobra.Command{
	Use:   "drishti",
	Short: "Drishti - enterprise observability gateway for AI inference",
	Long: `Drishti measures AI inference traffic per tenant and exposes the results
in the Prometheus text format.

Running as a reverse proxy in front of an inference service, it provides:
  - Per-tenant request, latency, and error metrics
  - Service classification from request routes (translation, ASR, TTS, OCR, ...)
  - Business volume metrics: characters, audio seconds, images, tokens
  - Tenant monthly quota gauges backed by SQLite
  - Process and infrastructure resource gauges`,
	Version: Version,
}

// Execute runs the root command.
func Execute() {
	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

func init() {
	rootCmd.PersistentFlags().StringVarP(&cfgFile, "config", "c", "", "config file path")
	rootCmd.PersistentFlags().BoolVarP(&verbose, "verbose", "v", false, "verbose output")
}
