// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package types

import (
	"fmt"
	"time"

	"github.com/go-playground/validator/v10"
)

// HTTPConfig holds shared HTTP settings used by components that make network
// requests.
type HTTPConfig struct {
	// Timeout bounds one request.
	Timeout time.Duration `json:"timeout" yaml:"timeout" mapstructure:"timeout" validate:"gt=0"`

	// UserAgent is sent with outbound requests (e.g. "deal-analyzer/0.1").
	UserAgent string `json:"user_agent" yaml:"user_agent" mapstructure:"user_agent"`
}

// Provider identifies the completion service.
type Provider string

const (
	ProviderAnthropic Provider = "anthropic"
	ProviderGemini    Provider = "gemini"
)

// SearchBackend identifies the web search service.
type SearchBackend string

const (
	SearchBrave  SearchBackend = "brave"
	SearchGoogle SearchBackend = "google"
)

// CompletionConfig holds settings for the completion client.
type CompletionConfig struct {
	HTTPConfig `yaml:",inline" mapstructure:",squash"`

	Provider Provider `json:"provider" yaml:"provider" mapstructure:"provider" validate:"oneof=anthropic gemini"`
	APIKey   string   `json:"api_key,omitempty" yaml:"api_key,omitempty" mapstructure:"api_key" validate:"required"`

	// LiteModel serves extraction and the TL;DR.
	LiteModel string `json:"lite_model" yaml:"lite_model" mapstructure:"lite_model" validate:"required"`

	// StandardModel serves section analysis and synthesis.
	StandardModel string `json:"standard_model" yaml:"standard_model" mapstructure:"standard_model" validate:"required"`

	// MaxAttempts is shared by rate-limited and overloaded retries (default 5).
	MaxAttempts int `json:"max_attempts" yaml:"max_attempts" mapstructure:"max_attempts" validate:"min=1"`

	// RateLimitStep grows the rate-limit wait linearly per attempt (default 15s).
	RateLimitStep time.Duration `json:"rate_limit_step" yaml:"rate_limit_step" mapstructure:"rate_limit_step" validate:"gte=0"`

	// RateLimitCap caps the rate-limit wait (default 60s).
	RateLimitCap time.Duration `json:"rate_limit_cap" yaml:"rate_limit_cap" mapstructure:"rate_limit_cap" validate:"gte=0"`

	// OverloadWait is the fixed wait after an overloaded response (default 30s).
	OverloadWait time.Duration `json:"overload_wait" yaml:"overload_wait" mapstructure:"overload_wait" validate:"gte=0"`
}

// ResearchConfig holds settings for the research coordinator and the search
// backend.
type ResearchConfig struct {
	HTTPConfig `yaml:",inline" mapstructure:",squash"`

	// Backend selects the web search service: "brave" (default) or "google".
	Backend SearchBackend `json:"backend" yaml:"backend" mapstructure:"backend" validate:"oneof=brave google"`

	// APIKey authenticates with the search backend. Research is skipped
	// when empty.
	APIKey string `json:"api_key,omitempty" yaml:"api_key,omitempty" mapstructure:"api_key"`

	// EngineID is the Programmable Search engine (cx) for the google backend.
	EngineID string `json:"engine_id,omitempty" yaml:"engine_id,omitempty" mapstructure:"engine_id" validate:"required_if=Backend google"`

	// ResultsPerQuery is the hit count requested per query (default 5).
	ResultsPerQuery int `json:"results_per_query" yaml:"results_per_query" mapstructure:"results_per_query" validate:"min=1,max=20"`

	// ItemsPerPurpose limits hits rendered into a section prompt (default 4).
	ItemsPerPurpose int `json:"items_per_purpose" yaml:"items_per_purpose" mapstructure:"items_per_purpose" validate:"min=1"`

	// InterQueryDelay spaces consecutive queries (default 300ms).
	InterQueryDelay time.Duration `json:"inter_query_delay" yaml:"inter_query_delay" mapstructure:"inter_query_delay" validate:"gte=0"`
}

// AnalysisConfig holds settings for the analysis orchestrator.
type AnalysisConfig struct {
	// InterCallDelay spaces consecutive section calls (default 2s).
	InterCallDelay time.Duration `json:"inter_call_delay" yaml:"inter_call_delay" mapstructure:"inter_call_delay" validate:"gte=0"`

	// DegradedThreshold is the failed-section count at which delivery is
	// refused without --force. Zero means every section.
	DegradedThreshold int `json:"degraded_threshold" yaml:"degraded_threshold" mapstructure:"degraded_threshold" validate:"gte=0"`
}

// CheckpointConfig holds settings for the checkpoint store and run lock.
type CheckpointConfig struct {
	// Dir contains the checkpoint slot and the lock file.
	Dir string `json:"dir" yaml:"dir" mapstructure:"dir" validate:"required"`

	// FreshnessWindow is how long a checkpoint may be reused (default 30m).
	FreshnessWindow time.Duration `json:"freshness_window" yaml:"freshness_window" mapstructure:"freshness_window" validate:"gt=0"`
}

// NotifyConfig holds settings for the chat notifier.
type NotifyConfig struct {
	// Command is the messaging CLI executable (default "openclaw").
	Command string `json:"command" yaml:"command" mapstructure:"command"`

	Channel string `json:"channel" yaml:"channel" mapstructure:"channel"`

	// Target is the recipient. Notifications are disabled when empty.
	Target string `json:"target" yaml:"target" mapstructure:"target"`

	// Attempts bounds retries of report messages (default 3).
	Attempts int `json:"attempts" yaml:"attempts" mapstructure:"attempts" validate:"min=1"`

	RetryDelay time.Duration `json:"retry_delay" yaml:"retry_delay" mapstructure:"retry_delay" validate:"gte=0"`
}

// DeliveryConfig holds settings for report delivery.
type DeliveryConfig struct {
	// OutputDir receives the markdown report. Empty disables file delivery.
	OutputDir string `json:"output_dir" yaml:"output_dir" mapstructure:"output_dir"`

	// EmailCommand is the mail CLI executable (default "gog").
	EmailCommand string `json:"email_command" yaml:"email_command" mapstructure:"email_command"`

	// EmailTo is the report recipient. Email delivery is disabled when empty.
	EmailTo      string `json:"email_to" yaml:"email_to" mapstructure:"email_to" validate:"omitempty,email"`
	EmailAccount string `json:"email_account" yaml:"email_account" mapstructure:"email_account" validate:"omitempty,email"`
}

// ArchiveConfig holds settings for the evaluation archive.
type ArchiveConfig struct {
	// Path is the SQLite database file.
	Path string `json:"path" yaml:"path" mapstructure:"path" validate:"required"`

	// MaxResults is the default search limit (default 20).
	MaxResults int `json:"max_results" yaml:"max_results" mapstructure:"max_results" validate:"min=1"`
}

// SourceConfig holds settings for deck source loading.
type SourceConfig struct {
	HTTPConfig `yaml:",inline" mapstructure:",squash"`

	// AllowedDomains restricts URL sources to deck-hosting services.
	AllowedDomains []string `json:"allowed_domains" yaml:"allowed_domains" mapstructure:"allowed_domains" validate:"min=1,dive,hostname"`

	MaxRedirects int `json:"max_redirects" yaml:"max_redirects" mapstructure:"max_redirects" validate:"gte=0,lte=10"`

	// MaxBytes caps a fetched body.
	MaxBytes int64 `json:"max_bytes" yaml:"max_bytes" mapstructure:"max_bytes" validate:"gt=0"`
}

// Config is the complete runtime configuration, constructed once at process
// start and passed into constructors.
type Config struct {
	Completion CompletionConfig `json:"completion" yaml:"completion" mapstructure:"completion"`
	Research   ResearchConfig   `json:"research" yaml:"research" mapstructure:"research"`
	Analysis   AnalysisConfig   `json:"analysis" yaml:"analysis" mapstructure:"analysis"`
	Checkpoint CheckpointConfig `json:"checkpoint" yaml:"checkpoint" mapstructure:"checkpoint"`
	Notify     NotifyConfig     `json:"notify" yaml:"notify" mapstructure:"notify"`
	Delivery   DeliveryConfig   `json:"delivery" yaml:"delivery" mapstructure:"delivery"`
	Archive    ArchiveConfig    `json:"archive" yaml:"archive" mapstructure:"archive"`
	Source     SourceConfig     `json:"source" yaml:"source" mapstructure:"source"`
}

// DefaultAllowedDomains lists the deck-hosting services accepted as URL
// sources.
var DefaultAllowedDomains = []string{
	"docsend.com",
	"docs.google.com",
	"drive.google.com",
	"dropbox.com",
	"papermark.com",
	"pitch.com",
	"slides.com",
	"canva.com",
}

// DefaultConfig returns a configuration with every default set. API keys and
// recipients are left empty.
func DefaultConfig() Config {
	return Config{
		Completion: CompletionConfig{
			HTTPConfig:    HTTPConfig{Timeout: 120 * time.Second, UserAgent: "deal-analyzer/0.1"},
			Provider:      ProviderAnthropic,
			LiteModel:     "claude-haiku-4-5",
			StandardModel: "claude-sonnet-4-5",
			MaxAttempts:   5,
			RateLimitStep: 15 * time.Second,
			RateLimitCap:  60 * time.Second,
			OverloadWait:  30 * time.Second,
		},
		Research: ResearchConfig{
			HTTPConfig:      HTTPConfig{Timeout: 10 * time.Second, UserAgent: "deal-analyzer/0.1"},
			Backend:         SearchBrave,
			ResultsPerQuery: 5,
			ItemsPerPurpose: 4,
			InterQueryDelay: 300 * time.Millisecond,
		},
		Analysis: AnalysisConfig{
			InterCallDelay: 2 * time.Second,
		},
		Checkpoint: CheckpointConfig{
			Dir:             "/tmp",
			FreshnessWindow: DefaultFreshnessWindow,
		},
		Notify: NotifyConfig{
			Command:    "openclaw",
			Channel:    "whatsapp",
			Attempts:   3,
			RetryDelay: 3 * time.Second,
		},
		Delivery: DeliveryConfig{
			OutputDir:    "output/reports",
			EmailCommand: "gog",
		},
		Archive: ArchiveConfig{
			Path:       "deal-analyzer.db",
			MaxResults: 20,
		},
		Source: SourceConfig{
			HTTPConfig:     HTTPConfig{Timeout: 30 * time.Second, UserAgent: "Mozilla/5.0 (compatible; deal-analyzer/0.1)"},
			AllowedDomains: append([]string(nil), DefaultAllowedDomains...),
			MaxRedirects:   5,
			MaxBytes:       20 << 20,
		},
	}
}

var configValidator = validator.New(validator.WithRequiredStructEnabled())

// Validate checks every field constraint and reports the first violations
// as one error.
func (c *Config) Validate() error {
	if err := configValidator.Struct(c); err != nil {
		if verrs, ok := err.(validator.ValidationErrors); ok {
			msgs := make([]string, 0, len(verrs))
			for _, fe := range verrs {
				msgs = append(msgs, fmt.Sprintf("%s: failed %q", fe.Namespace(), fe.Tag()))
			}
			return fmt.Errorf("invalid config: %v", msgs)
		}
		return fmt.Errorf("invalid config: %w", err)
	}
	return nil
}
