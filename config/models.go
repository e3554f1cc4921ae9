package config

import "time"

// Config holds the configuration of the application
// Use config.LoadConfig to create a new instance
type Config struct {
	LLM         LLM               `mapstructure:"llm"`
	Memory      MemoryConfig      `mapstructure:"memory"`
	Parser      ParserConfig      `mapstructure:"parser"`
	Recommend   RecommendConfig   `mapstructure:"recommend"`
	Cache       CacheConfig       `mapstructure:"cache"`
	Persistence PersistenceConfig `mapstructure:"persistence"`
	Vision      VisionConfig      `mapstructure:"vision"`
	Places      PlacesConfig      `mapstructure:"places"`
	Reference   ReferenceConfig   `mapstructure:"reference"`
	Server      ServerConfig      `mapstructure:"server"`
	Log         LogConfig         `mapstructure:"log"`
	Telemetry   TelemetryConfig   `mapstructure:"telemetry"`
}

type LLM struct {
	// Service is one of "openai" or "openai_compat"
	Service string `mapstructure:"service"`
	Model   string `mapstructure:"model"`
	// OpenAIAPIKey is loaded from ENV not config file.
	OpenAIAPIKey   string        `mapstructure:"openai_api_key"`
	OpenAIEndpoint string        `mapstructure:"openai_endpoint"`
	OpenAIOrgID    string        `mapstructure:"openai_org_id"`
	Temperature    float64       `mapstructure:"temperature"`
	MaxTokens      int           `mapstructure:"max_tokens"`
	Timeout        time.Duration `mapstructure:"timeout"`
	// MaxRetries is the number of HTTP level retries. Completions are not
	// retried by default.
	MaxRetries int `mapstructure:"max_retries"`
}

type MemoryConfig struct {
	MaxTokenLimit    int    `mapstructure:"max_token_limit"`
	SummaryMaxTokens int    `mapstructure:"summary_max_tokens"`
	TokenEncoding    string `mapstructure:"token_encoding"`
}

type ParserConfig struct {
	Mode                 string   `mapstructure:"mode"`
	KeywordPrefixes      []string `mapstructure:"keyword_prefixes"`
	KeywordCaseSensitive bool     `mapstructure:"keyword_case_sensitive"`
	Suffixes             []string `mapstructure:"suffixes"`
}

type RecommendConfig struct {
	QuestionTemplate string `mapstructure:"question_template"`
	DefaultSession   string `mapstructure:"default_session"`
}

type CacheConfig struct {
	Enabled bool          `mapstructure:"enabled"`
	Type    string        `mapstructure:"type"`
	TTL     time.Duration `mapstructure:"ttl"`
	Redis   RedisConfig   `mapstructure:"redis"`
}

type RedisConfig struct {
	Address  string `mapstructure:"address"`
	Password string `mapstructure:"password"`
	DB       int    `mapstructure:"db"`
}

type PersistenceConfig struct {
	Enabled bool `mapstructure:"enabled"`
	// Queue is one of "memory" or "postgres"
	Queue    string         `mapstructure:"queue"`
	Timeout  time.Duration  `mapstructure:"timeout"`
	Postgres PostgresConfig `mapstructure:"postgres"`
}

type PostgresConfig struct {
	DSN string `mapstructure:"dsn"`
}

type VisionConfig struct {
	Enabled         bool          `mapstructure:"enabled"`
	CredentialsFile string        `mapstructure:"credentials_file"`
	APIKey          string        `mapstructure:"api_key"`
	MaxLabels       int           `mapstructure:"max_labels"`
	Timeout         time.Duration `mapstructure:"timeout"`
}

type PlacesConfig struct {
	APIKey   string        `mapstructure:"api_key"`
	Endpoint string        `mapstructure:"endpoint"`
	Language string        `mapstructure:"language"`
	Timeout  time.Duration `mapstructure:"timeout"`
}

// ReferenceConfig points at an open data XML dataset used as prompt context.
type ReferenceConfig struct {
	Enabled  bool          `mapstructure:"enabled"`
	Endpoint string        `mapstructure:"endpoint"`
	APIKey   string        `mapstructure:"api_key"`
	Dataset  string        `mapstructure:"dataset"`
	MaxRows  int           `mapstructure:"max_rows"`
	Timeout  time.Duration `mapstructure:"timeout"`
}

type ServerConfig struct {
	Port           int   `mapstructure:"port"`
	MaxUploadBytes int64 `mapstructure:"max_upload_bytes"`
}

type LogConfig struct {
	Level string `mapstructure:"level"`
	// Format is one of "text" or "json"
	Format string `mapstructure:"format"`
}

type TelemetryConfig struct {
	Enabled      bool   `mapstructure:"enabled"`
	OTLPEndpoint string `mapstructure:"otlp_endpoint"`
	Insecure     bool   `mapstructure:"insecure"`
	ServiceName  string `mapstructure:"service_name"`
}
