// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

// Package main is the entry point for the biosearch CLI.
// See docs/ARCHITECTURE § Pipeline Interface, § Project Structure.
package main

import (
	"fmt"
	"os"
	"path/filepath"
	"sort"

	"github.com/spf13/cobra"
	"github.com/spf13/viper"

	"github.com/pdiddy/biosearch/internal/secrets"
	"github.com/pdiddy/biosearch/pkg/types"
)

// version is set at build time via ldflags.
var version = "dev"

// loadedSecrets holds API keys loaded from .secrets/ at startup.
var loadedSecrets map[string]string

// secretDefault returns fallback when set, the loaded secret for key
// otherwise.
func secretDefault(key, fallback string) string {
	if fallback != "" {
		return fallback
	}
	if v, ok := loadedSecrets[key]; ok {
		return v
	}
	return ""
}

// rootCmd is the base command for the biosearch CLI.
var rootCmd = &cobra.Command{
	Use:   "biosearch",
	Short: "Aggregate biomedical studies and publications from public sources",
	Long: `biosearch queries public biomedical databases (ClinicalTrials.gov, PubMed,
Semantic Scholar, bioRxiv, medRxiv, OpenAlex, Europe PMC) in parallel,
normalizes what each returns into a common record shape, and scores every
record for completeness.

Run one-shot aggregations with "search", or start the HTTP API with
"serve" to run searches as background tasks with progress polling and a
persistent history.`,
	PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
		s, err := secrets.Load(".secrets/")
		if err != nil {
			return err
		}
		loadedSecrets = s
		if len(s) > 0 {
			keys := make([]string, 0, len(s))
			for k := range s {
				keys = append(keys, k)
			}
			sort.Strings(keys)
			fmt.Fprintf(os.Stderr, "Loaded secrets: %v\n", keys)
		}
		return nil
	},
}

func init() {
	cobra.OnInitialize(initConfig)

	rootCmd.PersistentFlags().String("config", "", "config file (default: ./biosearch.yaml or ~/.config/biosearch/config.yaml)")
}

func initConfig() {
	cfgFile, _ := rootCmd.PersistentFlags().GetString("config")
	if cfgFile != "" {
		viper.SetConfigFile(cfgFile)
	} else {
		viper.SetConfigName("biosearch")
		viper.SetConfigType("yaml")
		viper.AddConfigPath(".")

		home, err := os.UserHomeDir()
		if err == nil {
			viper.AddConfigPath(filepath.Join(home, ".config", "biosearch"))
		}
	}

	viper.SetEnvPrefix("BIOSEARCH")
	viper.AutomaticEnv()

	if err := viper.ReadInConfig(); err == nil {
		fmt.Fprintln(os.Stderr, "Using config file:", viper.ConfigFileUsed())
	}
}

// pipelineConfig builds the typed configuration from defaults, config file
// overrides, and loaded secrets.
func pipelineConfig() types.PipelineConfig {
	cfg := types.DefaultPipelineConfig()

	if v := viper.GetDuration("fetch.timeout"); v > 0 {
		cfg.Fetch.Timeout = v
	}
	if v := viper.GetString("fetch.user_agent"); v != "" {
		cfg.Fetch.UserAgent = v
	}
	if v := viper.GetInt("fetch.max_results"); v > 0 {
		cfg.Fetch.MaxResults = v
	}
	if viper.IsSet("fetch.page_delay") {
		cfg.Fetch.PageDelay = viper.GetDuration("fetch.page_delay")
	}
	if viper.IsSet("fetch.enrich_open_access") {
		cfg.Fetch.EnrichOpenAccess = viper.GetBool("fetch.enrich_open_access")
	}
	if v := viper.GetDuration("fetch.preprint_window"); v > 0 {
		cfg.Fetch.PreprintWindow = v
	}
	cfg.Fetch.NCBIAPIKey = secretDefault("ncbi-api-key", viper.GetString("fetch.ncbi_api_key"))
	cfg.Fetch.SemanticScholarAPIKey = secretDefault("semantic-scholar-api-key", viper.GetString("fetch.semantic_scholar_api_key"))
	cfg.Fetch.UnpaywallEmail = secretDefault("unpaywall-email", viper.GetString("fetch.unpaywall_email"))

	if v := viper.GetDuration("tasks.ttl"); v > 0 {
		cfg.Tasks.TTL = v
	}
	if v := viper.GetInt("tasks.max_tasks"); v > 0 {
		cfg.Tasks.MaxTasks = v
	}
	if v := viper.GetString("history.data_dir"); v != "" {
		cfg.History.DataDir = v
	}
	if v := viper.GetInt("history.page_size"); v > 0 {
		cfg.History.PageSize = v
	}
	if v := viper.GetString("server.addr"); v != "" {
		cfg.Server.Addr = v
	}
	return cfg
}

func main() {
	if err := rootCmd.Execute(); err != nil {
		os.Exit(1)
	}
}
