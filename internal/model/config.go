package model

import "time"

// Config is the complete, immutable runtime configuration.
// It is built once at startup and injected into each component.
type Config struct {
	PWS     PWSConfig     `yaml:"pws" mapstructure:"pws"`
	HTTP    HTTPConfig    `yaml:"http" mapstructure:"http"`
	Retry   RetryConfig   `yaml:"retry" mapstructure:"retry"`
	Search  SearchConfig  `yaml:"search" mapstructure:"search"`
	Jobs    JobsConfig    `yaml:"jobs" mapstructure:"jobs"`
	Query   QueryConfig   `yaml:"query" mapstructure:"query"`
	Verify  VerifyConfig  `yaml:"verify" mapstructure:"verify"`
	Limits  LimitsConfig  `yaml:"limits" mapstructure:"limits"`
	Scrape  ScrapeConfig  `yaml:"scrape" mapstructure:"scrape"`
	LLM     LLMConfig     `yaml:"llm" mapstructure:"llm"`
	Server  ServerConfig  `yaml:"server" mapstructure:"server"`
	Cache   CacheConfig   `yaml:"cache" mapstructure:"cache"`
	Trust   TrustConfig   `yaml:"trust" mapstructure:"trust"`
	Output  OutputConfig  `yaml:"output" mapstructure:"output"`
	Workers WorkersConfig `yaml:"workers" mapstructure:"workers"`
}

// PWSConfig locates the remote search/task/findall service
type PWSConfig struct {
	BaseURL      string   `yaml:"base_url" mapstructure:"base_url"`
	APIKey       string   `yaml:"api_key,omitempty" mapstructure:"api_key"`
	AllowedHosts []string `yaml:"allowed_hosts" mapstructure:"allowed_hosts"` // empty allows any host (tests, self-hosted)
}

// HTTPConfig governs outbound job calls
type HTTPConfig struct {
	Timeout      time.Duration `yaml:"timeout" mapstructure:"timeout"`
	UserAgent    string        `yaml:"user_agent" mapstructure:"user_agent"`
	MaxBodyBytes int64         `yaml:"max_body_bytes" mapstructure:"max_body_bytes"`
	HTTPProxy    string        `yaml:"http_proxy,omitempty" mapstructure:"http_proxy"`
	HTTPSProxy   string        `yaml:"https_proxy,omitempty" mapstructure:"https_proxy"`
	NoProxy      string        `yaml:"no_proxy,omitempty" mapstructure:"no_proxy"`
}

// RetryConfig is the default retry policy for job submit/poll calls
type RetryConfig struct {
	MaxRetries  int           `yaml:"max_retries" mapstructure:"max_retries"`
	BaseBackoff time.Duration `yaml:"base_backoff" mapstructure:"base_backoff"`
}

// SearchConfig governs evidence search and scoring
type SearchConfig struct {
	Processor         string        `yaml:"processor" mapstructure:"processor"`
	MaxResults        int           `yaml:"max_results" mapstructure:"max_results"`
	MaxCharsPerResult int           `yaml:"max_chars_per_result" mapstructure:"max_chars_per_result"`
	Threshold         float64       `yaml:"threshold" mapstructure:"threshold"`
	Timeout           time.Duration `yaml:"timeout" mapstructure:"timeout"`
	MaxBytes          int64         `yaml:"max_bytes" mapstructure:"max_bytes"`
	MaxRetries        int           `yaml:"max_retries" mapstructure:"max_retries"`
	BaseBackoff       time.Duration `yaml:"base_backoff" mapstructure:"base_backoff"`
}

// JobsConfig governs the asynchronous job modes
type JobsConfig struct {
	Processor             string        `yaml:"processor" mapstructure:"processor"`
	DeepResearchProcessor string        `yaml:"deep_research_processor" mapstructure:"deep_research_processor"`
	TaskPollInterval      time.Duration `yaml:"task_poll_interval" mapstructure:"task_poll_interval"`
	FindAllPollInterval   time.Duration `yaml:"findall_poll_interval" mapstructure:"findall_poll_interval"`
	MaxWait               time.Duration `yaml:"max_wait" mapstructure:"max_wait"`
	FindAllResultLimit    int           `yaml:"findall_result_limit" mapstructure:"findall_result_limit"`
}

// QueryConfig governs search-query generation
type QueryConfig struct {
	Processor string        `yaml:"processor" mapstructure:"processor"`
	MaxWait   time.Duration `yaml:"max_wait" mapstructure:"max_wait"`
}

// VerifyConfig governs the claim verification loop
type VerifyConfig struct {
	MaxClaims         int           `yaml:"max_claims" mapstructure:"max_claims"`
	ClaimDelay        time.Duration `yaml:"claim_delay" mapstructure:"claim_delay"`
	Concurrency       int           `yaml:"concurrency" mapstructure:"concurrency"`
	RequestsPerSecond float64       `yaml:"requests_per_second" mapstructure:"requests_per_second"` // 0 = unlimited
	Burst             int           `yaml:"burst" mapstructure:"burst"`
}

// LimitsConfig bounds what the boundary layer accepts
type LimitsConfig struct {
	MaxFiles      int   `yaml:"max_files" mapstructure:"max_files"`
	MaxFileBytes  int64 `yaml:"max_file_bytes" mapstructure:"max_file_bytes"`
	MaxTotalBytes int64 `yaml:"max_total_bytes" mapstructure:"max_total_bytes"`
	MaxLinkLength int   `yaml:"max_link_length" mapstructure:"max_link_length"`
}

// ScrapeConfig governs fetching a linked web page
type ScrapeConfig struct {
	Timeout       time.Duration `yaml:"timeout" mapstructure:"timeout"`
	MaxBytes      int64         `yaml:"max_bytes" mapstructure:"max_bytes"`
	UserAgent     string        `yaml:"user_agent" mapstructure:"user_agent"`
	RespectRobots bool          `yaml:"respect_robots" mapstructure:"respect_robots"`
}

// LLMConfig selects an optional chat-completion backend for query generation
type LLMConfig struct {
	Provider string `yaml:"provider" mapstructure:"provider"` // "", openai, anthropic, ollama
	Model    string `yaml:"model" mapstructure:"model"`       // empty uses the provider default
	APIKey   string `yaml:"api_key,omitempty" mapstructure:"api_key"`
	BaseURL  string `yaml:"base_url,omitempty" mapstructure:"base_url"`
	Timeout  int    `yaml:"timeout" mapstructure:"timeout"` // seconds
}

// ServerConfig governs the HTTP API
type ServerConfig struct {
	Addr           string   `yaml:"addr" mapstructure:"addr"`
	AllowedOrigins []string `yaml:"allowed_origins" mapstructure:"allowed_origins"`
}

// CacheConfig governs run-scoped memoization
type CacheConfig struct {
	Enabled bool          `yaml:"enabled" mapstructure:"enabled"`
	TTL     time.Duration `yaml:"ttl" mapstructure:"ttl"`
}

// TrustConfig adds domain trust weights on top of the built-in rules.
// Keys are domain suffixes (e.g. "nature.com"); values are in [0,1].
type TrustConfig struct {
	DomainWeights map[string]float64 `yaml:"domain_weights,omitempty" mapstructure:"domain_weights"`
}

// OutputConfig governs CLI output
type OutputConfig struct {
	Verbose bool `yaml:"verbose" mapstructure:"verbose"`
}

// WorkersConfig governs the batch command
type WorkersConfig struct {
	Concurrency int `yaml:"concurrency" mapstructure:"concurrency"`
}

// DefaultConfig returns the built-in defaults
func DefaultConfig() *Config {
	return &Config{
		PWS: PWSConfig{
			BaseURL:      "https://api.parallel.ai",
			AllowedHosts: []string{"parallel.ai"},
		},
		HTTP: HTTPConfig{
			Timeout:      30 * time.Second,
			UserAgent:    "pws/0.1 (+https://github.com/ckwokli/pws)",
			MaxBodyBytes: 1_000_000,
		},
		Retry: RetryConfig{
			MaxRetries:  2,
			BaseBackoff: 500 * time.Millisecond,
		},
		Search: SearchConfig{
			Processor:         "base",
			MaxResults:        5,
			MaxCharsPerResult: 800,
			Threshold:         0.3,
			Timeout:           12 * time.Second,
			MaxBytes:          1_000_000,
			MaxRetries:        2,
			BaseBackoff:       600 * time.Millisecond,
		},
		Jobs: JobsConfig{
			Processor:             "base",
			DeepResearchProcessor: "ultra",
			TaskPollInterval:      1500 * time.Millisecond,
			FindAllPollInterval:   2 * time.Second,
			MaxWait:               120 * time.Second,
			FindAllResultLimit:    20,
		},
		Query: QueryConfig{
			Processor: "base",
			MaxWait:   90 * time.Second,
		},
		Verify: VerifyConfig{
			MaxClaims:   50,
			ClaimDelay:  50 * time.Millisecond,
			Concurrency: 1,
			Burst:       5,
		},
		Limits: LimitsConfig{
			MaxFiles:      5,
			MaxFileBytes:  10 * 1024 * 1024,
			MaxTotalBytes: 25 * 1024 * 1024,
			MaxLinkLength: 2048,
		},
		Scrape: ScrapeConfig{
			Timeout:       10 * time.Second,
			MaxBytes:      1_000_000,
			UserAgent:     "Mozilla/5.0 (compatible; pws/0.1)",
			RespectRobots: true,
		},
		LLM: LLMConfig{
			Timeout: 30,
		},
		Server: ServerConfig{
			Addr:           ":8080",
			AllowedOrigins: []string{"*"},
		},
		Cache: CacheConfig{
			Enabled: true,
			TTL:     10 * time.Minute,
		},
		Workers: WorkersConfig{
			Concurrency: 4,
		},
	}
}
