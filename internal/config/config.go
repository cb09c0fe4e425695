package config

import (
	"errors"
	"fmt"
	"strconv"
	"time"

	"github.com/couchcryptid/water-quality-service/internal/ingest"
	sharedcfg "github.com/couchcryptid/storm-data-shared/config"
)

// Config holds all service settings, populated from environment variables.
type Config struct {
	HTTPAddr        string
	LogLevel        string
	LogFormat       string
	ShutdownTimeout time.Duration

	// Submission handling.
	MaxUploadBytes int64
	CSVDelimiter   rune
	ResultTTL      time.Duration
	EntryURL       string

	// Stream scorer. Kafka settings are only validated when StreamEnabled is set.
	StreamEnabled      bool
	KafkaBrokers       []string
	KafkaSourceTopic   string
	KafkaSinkTopic     string
	KafkaGroupID       string
	BatchSize          int
	BatchFlushInterval time.Duration
}

// Load reads configuration from environment variables, applying defaults where unset.
func Load() (*Config, error) {
	shutdownTimeout, err := sharedcfg.ParseShutdownTimeout()
	if err != nil {
		return nil, err
	}

	maxUpload, err := parseMaxUploadBytes()
	if err != nil {
		return nil, err
	}

	delimiter, err := parseDelimiter()
	if err != nil {
		return nil, err
	}

	resultTTL, err := time.ParseDuration(sharedcfg.EnvOrDefault("RESULT_TTL", "30m"))
	if err != nil || resultTTL <= 0 {
		return nil, errors.New("invalid RESULT_TTL")
	}

	streamEnabled, err := strconv.ParseBool(sharedcfg.EnvOrDefault("STREAM_ENABLED", "false"))
	if err != nil {
		return nil, errors.New("invalid STREAM_ENABLED")
	}

	batchSize, err := sharedcfg.ParseBatchSize()
	if err != nil {
		return nil, err
	}

	flushInterval, err := sharedcfg.ParseBatchFlushInterval()
	if err != nil {
		return nil, err
	}

	cfg := &Config{
		HTTPAddr:        sharedcfg.EnvOrDefault("HTTP_ADDR", ":8080"),
		LogLevel:        sharedcfg.EnvOrDefault("LOG_LEVEL", "info"),
		LogFormat:       sharedcfg.EnvOrDefault("LOG_FORMAT", "json"),
		ShutdownTimeout: shutdownTimeout,

		MaxUploadBytes: maxUpload,
		CSVDelimiter:   delimiter,
		ResultTTL:      resultTTL,
		EntryURL:       sharedcfg.EnvOrDefault("ENTRY_URL", "/"),

		StreamEnabled:      streamEnabled,
		KafkaBrokers:       sharedcfg.ParseBrokers(sharedcfg.EnvOrDefault("KAFKA_BROKERS", "localhost:9092")),
		KafkaSourceTopic:   sharedcfg.EnvOrDefault("KAFKA_SOURCE_TOPIC", "raw-water-samples"),
		KafkaSinkTopic:     sharedcfg.EnvOrDefault("KAFKA_SINK_TOPIC", "scored-water-samples"),
		KafkaGroupID:       sharedcfg.EnvOrDefault("KAFKA_GROUP_ID", "water-quality-scorer"),
		BatchSize:          batchSize,
		BatchFlushInterval: flushInterval,
	}

	if cfg.StreamEnabled {
		if len(cfg.KafkaBrokers) == 0 {
			return nil, errors.New("KAFKA_BROKERS is required")
		}
		if cfg.KafkaSourceTopic == "" {
			return nil, errors.New("KAFKA_SOURCE_TOPIC is required")
		}
		if cfg.KafkaSinkTopic == "" {
			return nil, errors.New("KAFKA_SINK_TOPIC is required")
		}
	}

	return cfg, nil
}

func parseMaxUploadBytes() (int64, error) {
	s := sharedcfg.EnvOrDefault("MAX_UPLOAD_BYTES", "10485760")
	n, err := strconv.ParseInt(s, 10, 64)
	if err != nil || n <= 0 {
		return 0, fmt.Errorf("invalid MAX_UPLOAD_BYTES %q: must be a positive integer", s)
	}
	return n, nil
}

func parseDelimiter() (rune, error) {
	r, err := ingest.ParseDelimiter(sharedcfg.EnvOrDefault("CSV_DELIMITER", ","))
	if err != nil {
		return 0, fmt.Errorf("invalid CSV_DELIMITER: %w", err)
	}
	return r, nil
}
