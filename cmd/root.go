package cmd

import (
	"os"
	"strings"

	"github.com/killallgit/gistapi/pkg/config"
	"github.com/killallgit/gistapi/pkg/logger"
	"github.com/rs/zerolog/log"
	"github.com/spf13/cobra"
)

// rootCmd represents the base command when called without any subcommands
var rootCmd = &cobra.Command{
	Use:   "gistapi",
	Short: "Gist Search API server",
	Long: `Gist Search API - search a GitHub user's public gists by regular expression

Given a username and a pattern, the API lists the user's public gists,
fetches each one (including the full content of truncated files) and
returns the URL of every gist that matches.

Features:
  • Perl/Python compatible patterns with lookarounds and backreferences
  • Bounded concurrent fetching with deterministic result order
  • Partial failure reporting instead of aborting the whole search
  • Prometheus metrics and Swagger documentation`,
	SilenceUsage:      true,
	PersistentPreRunE: initCommand,
}

// Execute adds all child commands to the root command and sets flags appropriately.
// This is called by main.main(). It only needs to happen once to the rootCmd.
func Execute() {
	err := rootCmd.Execute()
	if err != nil {
		os.Exit(1)
	}
}

// NewRootCmd creates a new root command (exported for testing)
func NewRootCmd() *cobra.Command {
	return rootCmd
}

func init() {
	// Add persistent flags for logging configuration
	rootCmd.PersistentFlags().String("log-level", "info", "log level (debug, info, warn, error)")
	rootCmd.PersistentFlags().Bool("json-logs", false, "enable JSON formatted logs")
}

// initCommand sets up logging and, for commands that need it, configuration
func initCommand(cmd *cobra.Command, args []string) error {
	setupLogging(cmd)

	// Version and help don't need config
	if cmd.Name() == "version" || cmd.Name() == "help" {
		return nil
	}

	if err := loadConfig(); err != nil {
		return err
	}

	// Config may carry logging settings the flags did not override
	setupLogging(cmd)
	return nil
}

// loadConfig initializes the configuration system
func loadConfig() error {
	if err := config.Init(); err != nil {
		log.Error().Err(err).Msg("Error initializing config")
		return err
	}
	return nil
}

// setupLogging configures the global logger from flags, falling back to config
func setupLogging(cmd *cobra.Command) {
	flags := cmd.Flags()

	level, _ := flags.GetString("log-level")
	if !flags.Changed("log-level") {
		if configured := config.GetString("logging.level"); configured != "" {
			level = configured
		}
	}

	jsonLogs, _ := flags.GetBool("json-logs")
	if !flags.Changed("json-logs") {
		jsonLogs = jsonLogs || strings.EqualFold(config.GetString("logging.format"), "json")
	}

	logger.Setup(logger.Options{
		Level:  level,
		JSON:   jsonLogs,
		Output: cmd.ErrOrStderr(),
	})
}
