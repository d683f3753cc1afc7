package types

import "time"

// HTTPConfig holds shared HTTP settings for stages that make network requests.
type HTTPConfig struct {
	// Timeout is the HTTP request timeout.
	Timeout time.Duration `json:"timeout" yaml:"timeout"`

	// UserAgent is the User-Agent header sent with HTTP requests
	// (e.g. "medscan/0.1").
	UserAgent string `json:"user_agent" yaml:"user_agent"`
}

// OracleConfig holds settings for the LLM fallback oracle. The oracle is the
// rare path: it is consulted only for text the pattern cascade cannot match.
type OracleConfig struct {
	HTTPConfig `yaml:",inline"`

	// Model is the chat-completions model identifier (e.g. "grok-2-latest").
	Model string `json:"model" yaml:"model"`

	// APIKey authenticates against the completions endpoint.
	APIKey string `json:"api_key,omitempty" yaml:"api_key,omitempty"`

	// BaseURL is the chat-completions endpoint. Defaults to the x.ai API.
	BaseURL string `json:"base_url,omitempty" yaml:"base_url,omitempty"`

	// MaxRetries is the number of retry attempts after a failed call
	// (default 1; the oracle degrades to "no record", it never escalates).
	MaxRetries int `json:"max_retries" yaml:"max_retries"`
}

// ParseConfig holds settings for label parsing.
type ParseConfig struct {
	// Oracle configures the fallback extraction service. An empty APIKey
	// disables the fallback entirely.
	Oracle OracleConfig `json:"oracle" yaml:"oracle"`

	// MinConfidence drops candidates scoring below this value (default 0,
	// keep everything that validates).
	MinConfidence float64 `json:"min_confidence" yaml:"min_confidence"`
}

// CatalogConfig holds settings for the reference catalog store.
type CatalogConfig struct {
	// DBPath is the SQLite database file (default "catalog/medscan.db").
	DBPath string `json:"db_path" yaml:"db_path"`

	// CSVPath is the medication-locations CSV ingested by `catalog load`.
	CSVPath string `json:"csv_path,omitempty" yaml:"csv_path,omitempty"`

	// FuzzyThreshold is the minimum weighted score for a fuzzy catalog
	// match (default 0.75).
	FuzzyThreshold float64 `json:"fuzzy_threshold" yaml:"fuzzy_threshold"`
}

// StockConfig holds settings for floor-stock table parsing.
type StockConfig struct {
	// Tolerance is the permitted |pick - (max - current)| residual when
	// disambiguating table numbers (default 5, covering OCR digit noise and
	// timing skew between the pick and stock counts).
	Tolerance int `json:"tolerance" yaml:"tolerance"`

	// RowClusterPx is the Y distance within which word boxes belong to the
	// same table row (default 15).
	RowClusterPx float64 `json:"row_cluster_px" yaml:"row_cluster_px"`
}

// PipelineConfig groups all stage configurations.
type PipelineConfig struct {
	Parse   ParseConfig   `json:"parse" yaml:"parse"`
	Catalog CatalogConfig `json:"catalog" yaml:"catalog"`
	Stock   StockConfig   `json:"stock" yaml:"stock"`
}
