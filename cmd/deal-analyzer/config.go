// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package main

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/spf13/cobra"
	"github.com/spf13/pflag"
	"github.com/spf13/viper"
	"go.yaml.in/yaml/v3"

	"github.com/pdiddy/deal-analyzer/internal/secrets"
	"github.com/pdiddy/deal-analyzer/pkg/types"
)

func initConfig() {
	cfgFile, _ := rootCmd.PersistentFlags().GetString("config")
	if cfgFile != "" {
		viper.SetConfigFile(cfgFile)
	} else {
		viper.SetConfigName("deal-analyzer")
		viper.SetConfigType("yaml")
		viper.AddConfigPath(".")

		home, err := os.UserHomeDir()
		if err == nil {
			viper.AddConfigPath(filepath.Join(home, ".config", "deal-analyzer"))
		}
	}

	viper.SetEnvPrefix("DEAL_ANALYZER")
	viper.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	viper.AutomaticEnv()
	setDefaults(viper.GetViper(), types.DefaultConfig())

	if err := viper.ReadInConfig(); err == nil {
		fmt.Fprintln(os.Stderr, "Using config file:", viper.ConfigFileUsed())
	}
}

// bindFlags maps global flags onto configuration keys.
func bindFlags(flags *pflag.FlagSet) {
	viper.BindPFlag("checkpoint.dir", flags.Lookup("state-dir"))
	viper.BindPFlag("notify.target", flags.Lookup("target"))
	viper.BindPFlag("completion.provider", flags.Lookup("provider"))
}

// setDefaults registers every default so that environment variables are
// honored for keys missing from the config file.
func setDefaults(v *viper.Viper, d types.Config) {
	defaults := map[string]any{
		"completion.timeout":         d.Completion.Timeout,
		"completion.user_agent":      d.Completion.UserAgent,
		"completion.provider":        string(d.Completion.Provider),
		"completion.api_key":         "",
		"completion.lite_model":      d.Completion.LiteModel,
		"completion.standard_model":  d.Completion.StandardModel,
		"completion.max_attempts":    d.Completion.MaxAttempts,
		"completion.rate_limit_step": d.Completion.RateLimitStep,
		"completion.rate_limit_cap":  d.Completion.RateLimitCap,
		"completion.overload_wait":   d.Completion.OverloadWait,

		"research.timeout":           d.Research.Timeout,
		"research.user_agent":        d.Research.UserAgent,
		"research.backend":           string(d.Research.Backend),
		"research.api_key":           "",
		"research.engine_id":         "",
		"research.results_per_query": d.Research.ResultsPerQuery,
		"research.items_per_purpose": d.Research.ItemsPerPurpose,
		"research.inter_query_delay": d.Research.InterQueryDelay,

		"analysis.inter_call_delay":   d.Analysis.InterCallDelay,
		"analysis.degraded_threshold": d.Analysis.DegradedThreshold,

		"checkpoint.dir":              d.Checkpoint.Dir,
		"checkpoint.freshness_window": d.Checkpoint.FreshnessWindow,

		"notify.command":     d.Notify.Command,
		"notify.channel":     d.Notify.Channel,
		"notify.target":      d.Notify.Target,
		"notify.attempts":    d.Notify.Attempts,
		"notify.retry_delay": d.Notify.RetryDelay,

		"delivery.output_dir":    d.Delivery.OutputDir,
		"delivery.email_command": d.Delivery.EmailCommand,
		"delivery.email_to":      d.Delivery.EmailTo,
		"delivery.email_account": d.Delivery.EmailAccount,

		"archive.path":        d.Archive.Path,
		"archive.max_results": d.Archive.MaxResults,

		"source.timeout":         d.Source.Timeout,
		"source.user_agent":      d.Source.UserAgent,
		"source.allowed_domains": d.Source.AllowedDomains,
		"source.max_redirects":   d.Source.MaxRedirects,
		"source.max_bytes":       d.Source.MaxBytes,
	}
	for k, val := range defaults {
		v.SetDefault(k, val)
	}
}

// loadConfig resolves the effective configuration: defaults, config file,
// environment, flags, then API keys from .secrets/ or the environment when
// still unset.
func loadConfig(requireCompletion bool) (types.Config, error) {
	cfg := types.DefaultConfig()
	if err := viper.Unmarshal(&cfg); err != nil {
		return cfg, fmt.Errorf("decoding config: %w", err)
	}

	if cfg.Completion.APIKey == "" {
		key := secrets.AnthropicAPIKey
		if cfg.Completion.Provider == types.ProviderGemini {
			key = secrets.GeminiAPIKey
		}
		cfg.Completion.APIKey = loadedSecrets.Lookup(key, os.Getenv)
	}
	if cfg.Research.APIKey == "" {
		key := secrets.BraveSearchAPIKey
		if cfg.Research.Backend == types.SearchGoogle {
			key = secrets.GoogleSearchAPIKey
		}
		cfg.Research.APIKey = loadedSecrets.Lookup(key, os.Getenv)
	}

	if !requireCompletion && cfg.Completion.APIKey == "" {
		// Commands that never call the model accept a missing key.
		cfg.Completion.APIKey = "unused"
	}
	if err := cfg.Validate(); err != nil {
		return cfg, err
	}
	return cfg, nil
}

var configCmd = &cobra.Command{
	Use:   "config",
	Short: "Print the effective configuration as YAML",
	Long: `Config prints the configuration resolved from defaults, the config file,
DEAL_ANALYZER_* environment variables and flags. API keys are redacted.`,
	RunE: func(cmd *cobra.Command, args []string) error {
		cfg, err := loadConfig(false)
		if err != nil {
			return err
		}
		cfg.Completion.APIKey = redact(cfg.Completion.APIKey)
		cfg.Research.APIKey = redact(cfg.Research.APIKey)
		enc := yaml.NewEncoder(cmd.OutOrStdout())
		defer enc.Close()
		return enc.Encode(cfg)
	},
}

func redact(s string) string {
	if s == "" || s == "unused" {
		return ""
	}
	return "********"
}

func init() {
	rootCmd.AddCommand(configCmd)
}
