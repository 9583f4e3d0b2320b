// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package types

import "time"

// HTTPConfig holds shared HTTP settings used by stages that make network requests.
type HTTPConfig struct {
	// Timeout is the HTTP request timeout applied to every provider call.
	Timeout time.Duration `json:"timeout" yaml:"timeout"`

	// UserAgent is the User-Agent header sent with HTTP requests
	// (e.g. "biosearch/0.1").
	UserAgent string `json:"user_agent" yaml:"user_agent"`
}

// FetchConfig holds settings for the fetch orchestrator and the source
// adapters.
type FetchConfig struct {
	HTTPConfig `yaml:",inline"`

	// MaxResults is the default total result budget split across the
	// requested sources (default 100).
	MaxResults int `json:"max_results" yaml:"max_results"`

	// PageDelay is the pacing delay between consecutive page requests to
	// the same provider (default 300ms). Not a strict rate limiter.
	PageDelay time.Duration `json:"page_delay" yaml:"page_delay"`

	// NCBIAPIKey raises the PubMed eutils rate limit when set.
	NCBIAPIKey string `json:"ncbi_api_key,omitempty" yaml:"ncbi_api_key,omitempty"`

	// SemanticScholarAPIKey is an optional API key for higher rate limits.
	SemanticScholarAPIKey string `json:"semantic_scholar_api_key,omitempty" yaml:"semantic_scholar_api_key,omitempty"`

	// UnpaywallEmail is required by the Unpaywall API and sent as the
	// OpenAlex mailto parameter for polite pool access.
	UnpaywallEmail string `json:"unpaywall_email" yaml:"unpaywall_email"`

	// EnrichOpenAccess enables the best-effort Unpaywall pass that fills
	// open-access PDF links on literature records after normalization.
	EnrichOpenAccess bool `json:"enrich_open_access" yaml:"enrich_open_access"`

	// PreprintWindow bounds how far back the bioRxiv/medRxiv adapters scan
	// (their API is queried by date interval, default 2 years).
	PreprintWindow time.Duration `json:"preprint_window" yaml:"preprint_window"`
}

// TaskConfig holds settings for the task lifecycle manager.
type TaskConfig struct {
	// TTL is how long a task is kept before expiry (default 24h).
	TTL time.Duration `json:"ttl" yaml:"ttl"`

	// MaxTasks caps the task table size; at capacity, the oldest half of
	// the terminal tasks are evicted (default 1000).
	MaxTasks int `json:"max_tasks" yaml:"max_tasks"`
}

// HistoryConfig holds settings for the search history store.
type HistoryConfig struct {
	// DataDir is the directory holding the history database (default "data").
	DataDir string `json:"data_dir" yaml:"data_dir"`

	// PageSize is the default history listing page size (default 20).
	PageSize int `json:"page_size" yaml:"page_size"`
}

// ServerConfig holds settings for the HTTP API.
type ServerConfig struct {
	// Addr is the listen address (default ":8080").
	Addr string `json:"addr" yaml:"addr"`
}

// PipelineConfig groups all stage configurations.
type PipelineConfig struct {
	Fetch   FetchConfig   `json:"fetch" yaml:"fetch"`
	Tasks   TaskConfig    `json:"tasks" yaml:"tasks"`
	History HistoryConfig `json:"history" yaml:"history"`
	Server  ServerConfig  `json:"server" yaml:"server"`
}

// DefaultPipelineConfig returns the configuration used when no config file
// overrides a value.
func DefaultPipelineConfig() PipelineConfig {
	return PipelineConfig{
		Fetch: FetchConfig{
			HTTPConfig: HTTPConfig{
				Timeout:   30 * time.Second,
				UserAgent: "biosearch/0.1",
			},
			MaxResults:       100,
			PageDelay:        300 * time.Millisecond,
			EnrichOpenAccess: true,
			PreprintWindow:   2 * 365 * 24 * time.Hour,
		},
		Tasks: TaskConfig{
			TTL:      24 * time.Hour,
			MaxTasks: 1000,
		},
		History: HistoryConfig{
			DataDir:  "data",
			PageSize: 20,
		},
		Server: ServerConfig{
			Addr: ":8080",
		},
	}
}
