package cmd

import (
	"encoding/json"
	"fmt"

	"github.com/killallgit/gistapi/pkg/config"
	"github.com/spf13/cobra"
)

var (
	searchBaseURL     string
	searchConcurrency int
	searchDedupe      bool
)

// searchCmd runs a single search and prints the result
var searchCmd = &cobra.Command{
	Use:   "search <username> <pattern>",
	Short: "Search a user's gists from the command line",
	Long: `Run one search against the gists API and print the result as JSON,
exactly as POST /api/v1/search would return it.

Example:
  gistapi search justdionysus 'TerbiumLabsChallenge_[0-9]+'
  gistapi search octocat '(?i)hello' --dedupe`,
	Args: cobra.ExactArgs(2),
	RunE: runSearch,
}

func init() {
	rootCmd.AddCommand(searchCmd)

	searchCmd.Flags().StringVar(&searchBaseURL, "base-url", "", "gists API base URL (overrides config)")
	searchCmd.Flags().IntVar(&searchConcurrency, "concurrency", 0, "gists fetched in parallel (overrides config)")
	searchCmd.Flags().BoolVar(&searchDedupe, "dedupe", false, "report each matching gist once")
}

func runSearch(cmd *cobra.Command, args []string) error {
	cfg, err := config.GetConfig()
	if err != nil {
		return err
	}

	if searchBaseURL != "" {
		cfg.GitHub.BaseURL = searchBaseURL
	}
	if searchConcurrency > 0 {
		cfg.Search.MaxConcurrency = searchConcurrency
	}
	if cmd.Flags().Changed("dedupe") {
		cfg.Search.DedupeMatches = searchDedupe
	}
	if err := cfg.Validate(); err != nil {
		return err
	}

	service, _, err := newSearchService(cfg, nil)
	if err != nil {
		return err
	}

	result, err := service.Search(cmd.Context(), args[0], args[1])
	if err != nil {
		return err
	}

	out, err := json.MarshalIndent(result, "", "  ")
	if err != nil {
		return fmt.Errorf("failed to encode result: %w", err)
	}

	fmt.Fprintln(cmd.OutOrStdout(), string(out))
	return nil
}
