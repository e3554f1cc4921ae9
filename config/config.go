package config

import (
	"errors"
	"strings"
	"time"

	"github.com/introduceourtown/townrec/internal"

	"github.com/joho/godotenv"
	"github.com/sirupsen/logrus"
	"github.com/spf13/viper"
)

const EnvPrefix = "TOWNREC"

// We're bootstrapping so avoid any imports from other packages
var log = logrus.New()

var defaults = map[string]any{
	"llm.service":                   "openai",
	"llm.model":                     "gpt-3.5-turbo",
	"llm.openai_api_key":            "",
	"llm.openai_endpoint":           "",
	"llm.openai_org_id":             "",
	"llm.temperature":               0.0,
	"llm.max_tokens":                1024,
	"llm.timeout":                   30 * time.Second,
	"llm.max_retries":               0,
	"memory.max_token_limit":        120,
	"memory.summary_max_tokens":     256,
	"memory.token_encoding":         "cl100k_base",
	"parser.mode":                   "single_line_colon",
	"parser.keyword_prefixes":       []string{"Keywords:", "Keyword:"},
	"parser.keyword_case_sensitive": true,
	"parser.suffixes":               []string{"-dong", "-gu", "-eup"},
	"recommend.question_template":   "",
	"recommend.default_session":     "default",
	"cache.enabled":                 true,
	"cache.type":                    "memory",
	"cache.ttl":                     300 * time.Second,
	"cache.redis.address":           "localhost:6379",
	"cache.redis.password":          "",
	"cache.redis.db":                0,
	"persistence.enabled":           false,
	"persistence.queue":             "memory",
	"persistence.timeout":           10 * time.Second,
	"persistence.postgres.dsn":      "",
	"vision.enabled":                false,
	"vision.credentials_file":       "",
	"vision.api_key":                "",
	"vision.max_labels":             5,
	"vision.timeout":                30 * time.Second,
	"places.api_key":                "",
	"places.endpoint":               "https://maps.googleapis.com/maps/api/place/textsearch/json",
	"places.language":               "",
	"places.timeout":                15 * time.Second,
	"reference.enabled":             false,
	"reference.endpoint":            "http://openapi.seoul.go.kr:8088",
	"reference.api_key":             "",
	"reference.dataset":             "SebcArtGalleryKor",
	"reference.max_rows":            5,
	"reference.timeout":             10 * time.Second,
	"server.port":                   5001,
	"server.max_upload_bytes":       10 << 20,
	"log.level":                     "info",
	"log.format":                    "text",
	"telemetry.enabled":             false,
	"telemetry.otlp_endpoint":       "localhost:4318",
	"telemetry.insecure":            true,
	"telemetry.service_name":        "townrec",
}

// LoadConfig loads the config file and ENV variables into a Config struct.
// A missing config.yaml is not an error when no config file is given; defaults apply.
func LoadConfig(configFile string) (*Config, error) {
	if configFile != "" {
		viper.SetConfigFile(configFile)
	} else {
		viper.AddConfigPath(".")
		viper.SetConfigName("config")
	}

	viper.SetConfigType("yaml")

	for k, v := range defaults {
		viper.SetDefault(k, v)
	}

	viper.SetEnvPrefix(EnvPrefix)
	viper.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	viper.AutomaticEnv()

	if err := viper.ReadInConfig(); err != nil {
		var notFound viper.ConfigFileNotFoundError
		if configFile != "" || !errors.As(err, &notFound) {
			return nil, err
		}
		log.Warn("config.yaml not found, using defaults and environment")
	}

	// Environment variables take precedence over config file
	loadDotEnv()

	err := viper.BindEnv("llm.openai_api_key", EnvPrefix+"_OPENAI_API_KEY", "OPENAI_API_KEY")
	if err != nil {
		log.Fatalf("Error binding environment variable: %s", err)
	}
	err = viper.BindEnv("places.api_key", EnvPrefix+"_PLACES_API_KEY", "GOOGLE_PLACES_API_KEY")
	if err != nil {
		log.Fatalf("Error binding environment variable: %s", err)
	}
	err = viper.BindEnv("reference.api_key", EnvPrefix+"_REFERENCE_API_KEY", "SEOUL_API_KEY")
	if err != nil {
		log.Fatalf("Error binding environment variable: %s", err)
	}

	var cfg Config
	if err := viper.Unmarshal(&cfg); err != nil {
		return nil, err
	}

	return &cfg, nil
}

// loadDotEnv loads environment variables from .env file
func loadDotEnv() {
	err := godotenv.Load()
	if err != nil {
		log.Debug(".env file not found or unable to load")
	}
}

// ConfigureLogging applies the log level and format from the config. An invalid
// level falls back to INFO and an invalid format to text.
func ConfigureLogging(cfg *Config) {
	level, err := logrus.ParseLevel(cfg.Log.Level)
	if err != nil {
		level = logrus.InfoLevel
	}
	internal.SetLogLevel(level)

	if err := internal.ConfigureLogger(cfg.Log.Format, LogFields()); err != nil {
		log.Warnf("%v, using text", err)
		_ = internal.ConfigureLogger(internal.LogFormatText, LogFields())
	}
	log.Info("Log level set to: ", level)
}
