package config

import (
	"fmt"
	"net/url"
	"os"

	"go-simpler.org/env"
)

// Config holds every setting the pipeline binaries read from the environment.
type Config struct {
	AppEnv   string `env:"APP_ENV" default:"dev"`
	LogLevel string `env:"LOG_LEVEL" default:"info"`

	ProcessedReviewsPath string `env:"PROCESSED_REVIEWS_PATH" default:"data/processed/reviews_processed.csv"`
	SentimentResultsPath string `env:"SENTIMENT_RESULTS_PATH" default:"data/processed/reviews_with_sentiment.csv"`
	FinalResultsPath     string `env:"FINAL_RESULTS_PATH" default:"data/processed/reviews_final.csv"`
	ReportDir            string `env:"REPORT_DIR"`
	SchemaExportPath     string `env:"SCHEMA_EXPORT_PATH" default:"schema.sql"`

	TextColumn  string `env:"TEXT_COLUMN" default:"review_text"`
	GroupColumn string `env:"GROUP_COLUMN" default:"bank_name"`
	BatchSize   int    `env:"BATCH_SIZE" default:"16"`

	// SentimentModel is the ONNX export used by the local runtime, RemoteSentimentModel
	// the hub id served by the inference endpoint.
	SentimentModel       string `env:"SENTIMENT_MODEL" default:"KnightsAnalytics/distilbert-base-uncased-finetuned-sst-2-english"`
	RemoteSentimentModel string `env:"REMOTE_SENTIMENT_MODEL" default:"distilbert/distilbert-base-uncased-finetuned-sst-2-english"`
	ModelRuntime         string `env:"MODEL_RUNTIME" default:"local"`
	ModelDir             string `env:"MODEL_DIR" default:"./models"`
	HFInferenceEndpoint  string `env:"HF_INFERENCE_ENDPOINT" default:"https://api-inference.huggingface.co/models"`
	HFToken              string `env:"HF_TOKEN"`

	DBHost     string `env:"DB_HOST" default:"localhost"`
	DBPort     string `env:"DB_PORT" default:"5432"`
	DBName     string `env:"DB_NAME" default:"bank_reviews"`
	DBUser     string `env:"DB_USER" default:"postgres"`
	DBPassword string `env:"DB_PASSWORD"`

	CBEAppID    string `env:"CBE_APP_ID" default:"com.combanketh.mobilebanking"`
	BOAAppID    string `env:"BOA_APP_ID" default:"com.boa.boaMobileBanking"`
	DashenAppID string `env:"DASHEN_APP_ID" default:"com.dashen.dashensuperapp"`

	// Optional sinks, an empty address disables them.
	ValkeyAddress  string `env:"VALKEY_INIT_ADDRESS"`
	ValkeyPassword string `env:"VALKEY_PASSWORD"`
	ValkeyTLS      bool   `env:"VALKEY_TLS"`
	KafkaBroker    string `env:"KAFKA_BROKER"`
	KafkaTopic     string `env:"KAFKA_TOPIC" default:"review-sentiment"`
	SummaryTable   string `env:"SUMMARY_TABLE"`
	AWSEndpoint    string `env:"AWS_ENDPOINT"`
	AWSRegion      string `env:"AWS_REGION" default:"us-west-2"`
}

// Load reads the environment into a Config. LoadEnv should run first so that
// values from the env file are visible.
func Load() (*Config, error) {
	var cfg Config
	if err := env.Load(&cfg, nil); err != nil {
		return nil, fmt.Errorf("failed to load environment variables: %w", err)
	}

	if err := validate(&cfg); err != nil {
		return nil, err
	}

	return &cfg, nil
}

// AppEnv returns APP_ENV, defaulting to dev. It is read before the env file
// is loaded, so it cannot come from Config.
func AppEnv() string {
	appEnv := os.Getenv("APP_ENV")
	if appEnv == "" {
		appEnv = "dev"
	}
	return appEnv
}

// DatabaseURL builds the postgres connection string from the DB_* settings.
func (c *Config) DatabaseURL() string {
	u := url.URL{
		Scheme:   "postgres",
		User:     url.UserPassword(c.DBUser, c.DBPassword),
		Host:     c.DBHost + ":" + c.DBPort,
		Path:     c.DBName,
		RawQuery: "sslmode=disable",
	}
	return u.String()
}

// AppIDs maps bank codes to their Play Store application ids.
func (c *Config) AppIDs() map[string]string {
	return map[string]string{
		"CBE":    c.CBEAppID,
		"BOA":    c.BOAAppID,
		"Dashen": c.DashenAppID,
	}
}

func validate(cfg *Config) error {
	if cfg.BatchSize <= 0 {
		return fmt.Errorf("BATCH_SIZE must be positive, got %d", cfg.BatchSize)
	}
	if cfg.TextColumn == "" {
		return fmt.Errorf("TEXT_COLUMN is required")
	}
	switch cfg.ModelRuntime {
	case "local", "remote":
	default:
		return fmt.Errorf("MODEL_RUNTIME must be 'local' or 'remote', got %q", cfg.ModelRuntime)
	}
	return nil
}
