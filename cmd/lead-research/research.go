// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"strings"
	"syscall"

	"github.com/spf13/cobra"
	"github.com/spf13/viper"

	"github.com/pdiddy/lead-research/internal/provider"
	"github.com/pdiddy/lead-research/internal/research"
	"github.com/pdiddy/lead-research/pkg/types"
)

func runRoot(cmd *cobra.Command, args []string) error {
	serverMode, _ := cmd.Flags().GetBool("server")
	apiMode, _ := cmd.Flags().GetBool("fastapi")

	switch {
	case serverMode:
		return runServer(cmd, types.VariantWebhook)
	case apiMode:
		return runServer(cmd, types.VariantAPI)
	case len(args) > 0:
		return runResearch(cmd, strings.Join(args, " "))
	default:
		return cmd.Usage()
	}
}

// runResearch researches one subject and prints the result. Error records
// are printed like leads and do not change the exit status.
func runResearch(cmd *cobra.Command, subject string) error {
	format, _ := cmd.Flags().GetString("format")
	if !validFormat(format) {
		return fmt.Errorf("unsupported format %q: use json, yaml, or table", format)
	}

	orch, err := newOrchestrator()
	if err != nil {
		return err
	}

	ctx, stop := signal.NotifyContext(cmdContext(cmd), os.Interrupt, syscall.SIGTERM)
	defer stop()

	fmt.Fprintf(os.Stderr, "Researching: %s\n", subject)
	result := orch.Research(ctx, subject)
	return writeResult(os.Stdout, format, result)
}

// newOrchestrator builds the orchestrator and its provider client from
// the resolved configuration.
func newOrchestrator() (*research.Orchestrator, error) {
	cfg, err := researchConfig()
	if err != nil {
		return nil, err
	}
	client := provider.NewAnthropic(cfg.AIConfig)
	return research.New(client, cfg, research.WithLogger(logger.Named("research"))), nil
}

// researchConfig reads the orchestrator settings from viper.
func researchConfig() (types.ResearchConfig, error) {
	cfg := types.ResearchConfig{
		AIConfig: types.AIConfig{
			HTTPConfig: types.HTTPConfig{
				Timeout:   viper.GetDuration("timeout"),
				UserAgent: "lead-research/" + version,
			},
			Model:     viper.GetString("model"),
			APIKey:    viper.GetString("api_key"),
			BaseURL:   viper.GetString("base_url"),
			MaxTokens: viper.GetInt("max_tokens"),
		},
		MaxSearchUses: viper.GetInt("max_search_uses"),
		Retry: types.RetryConfig{
			MaxAttempts:    viper.GetInt("max_attempts"),
			InitialBackoff: viper.GetDuration("initial_backoff"),
		},
	}.WithDefaults()

	if cfg.APIKey == "" {
		return cfg, fmt.Errorf("no API key: set ANTHROPIC_API_KEY in the environment or a .env file, or api_key in the config file")
	}
	return cfg, nil
}

func cmdContext(cmd *cobra.Command) context.Context {
	if ctx := cmd.Context(); ctx != nil {
		return ctx
	}
	return context.Background()
}
