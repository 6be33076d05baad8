// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

// Package main is the entry point for the lead-research CLI.
package main

import (
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"time"

	"github.com/spf13/cobra"
	"github.com/spf13/viper"
	"go.uber.org/zap"

	"github.com/pdiddy/lead-research/internal/logging"
	"github.com/pdiddy/lead-research/internal/secrets"
	"github.com/pdiddy/lead-research/pkg/types"
)

// version is set at build time via ldflags.
var version = "dev"

// logger is built once the .env file and config are loaded.
var logger = zap.NewNop()

// rootCmd is the only command: it researches a subject or starts a server.
var rootCmd = &cobra.Command{
	Use:   "lead-research [subject name]",
	Short: "Research a company or person and print a structured lead record",
	Long: `lead-research asks Claude, with web search enabled, to research a company
or person and returns a JSON lead record: website, industry, size, location,
key people, recent news, tech stack, funding and sources.

All arguments are joined into one subject name:

  lead-research "Acme Corp"      research one lead and print it
  lead-research --server         start the webhook server (port 5000)
  lead-research --fastapi        start the API server (port 8000)

The API key is read from ANTHROPIC_API_KEY, which may be set in a .env file
in the working directory, beside the binary, or in the binary's parent
directory.`,
	Version:           version,
	Args:              cobra.ArbitraryArgs,
	SilenceUsage:      true,
	PersistentPreRunE: loadEnvironment,
	RunE:              runRoot,
}

func init() {
	cobra.OnInitialize(initConfig)

	rootCmd.PersistentFlags().String("config", "", "config file (default: ./lead-research.yaml or ~/.config/lead-research/lead-research.yaml)")
	rootCmd.PersistentFlags().String("log-level", "info", "log level: debug, info, warn, error")
	rootCmd.PersistentFlags().String("log-format", "console", "log format: console or json")
	rootCmd.PersistentFlags().String("model", "", "model identifier (default "+types.DefaultModel+")")

	rootCmd.Flags().Bool("server", false, "start the webhook server (net/http, default port 5000)")
	rootCmd.Flags().Bool("fastapi", false, "start the API server (gin, default port 8000)")
	rootCmd.Flags().String("host", "", "listen host for server modes (default all interfaces)")
	rootCmd.Flags().Int("port", 0, "listen port for server modes (default 5000 or 8000)")
	rootCmd.Flags().String("format", "json", "output format: json, yaml, or table")
	rootCmd.MarkFlagsMutuallyExclusive("server", "fastapi")

	_ = viper.BindPFlag("log_level", rootCmd.PersistentFlags().Lookup("log-level"))
	_ = viper.BindPFlag("log_format", rootCmd.PersistentFlags().Lookup("log-format"))
	_ = viper.BindPFlag("model", rootCmd.PersistentFlags().Lookup("model"))
	_ = viper.BindPFlag("host", rootCmd.Flags().Lookup("host"))
	_ = viper.BindPFlag("port", rootCmd.Flags().Lookup("port"))
}

func initConfig() {
	viper.SetDefault("model", types.DefaultModel)
	viper.SetDefault("base_url", types.DefaultBaseURL)
	viper.SetDefault("max_tokens", types.DefaultMaxTokens)
	viper.SetDefault("max_search_uses", types.DefaultMaxSearchUses)
	viper.SetDefault("max_attempts", types.DefaultMaxAttempts)
	viper.SetDefault("initial_backoff", types.DefaultInitialBackoff)
	viper.SetDefault("timeout", types.DefaultTimeout)
	viper.SetDefault("shutdown_timeout", 30*time.Second)

	cfgFile, _ := rootCmd.PersistentFlags().GetString("config")
	if cfgFile != "" {
		viper.SetConfigFile(cfgFile)
	} else {
		viper.SetConfigName("lead-research")
		viper.SetConfigType("yaml")
		viper.AddConfigPath(".")

		home, err := os.UserHomeDir()
		if err == nil {
			viper.AddConfigPath(filepath.Join(home, ".config", "lead-research"))
		}
	}

	viper.SetEnvPrefix("LEAD_RESEARCH")
	viper.AutomaticEnv()
	_ = viper.BindEnv("api_key", "ANTHROPIC_API_KEY", "LEAD_RESEARCH_API_KEY")

	if err := viper.ReadInConfig(); err == nil {
		fmt.Fprintln(os.Stderr, "Using config file:", viper.ConfigFileUsed())
	}
}

// loadEnvironment exports the first .env file found and builds the logger.
func loadEnvironment(cmd *cobra.Command, args []string) error {
	values, path, err := secrets.Load(secrets.Candidates())
	if err != nil {
		return err
	}
	if err := secrets.Apply(values); err != nil {
		return err
	}

	logger, err = logging.New(viper.GetString("log_level"), logging.Format(viper.GetString("log_format")))
	if err != nil {
		return err
	}

	if path != "" {
		keys := make([]string, 0, len(values))
		for k := range values {
			keys = append(keys, k)
		}
		sort.Strings(keys)
		logger.Debug("loaded environment file", zap.String("path", path), zap.Strings("keys", keys))
	}
	return nil
}

func main() {
	err := rootCmd.Execute()
	_ = logger.Sync()
	if err != nil {
		os.Exit(1)
	}
}
