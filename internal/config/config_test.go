package config

import (
	"testing"
	"time"

	"github.com/couchcryptid/water-quality-service/internal/ingest"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const defaultBroker = "localhost:9092"

func TestLoad_Defaults(t *testing.T) {
	cfg, err := Load()
	require.NoError(t, err)

	assert.Equal(t, ":8080", cfg.HTTPAddr)
	assert.Equal(t, "info", cfg.LogLevel)
	assert.Equal(t, "json", cfg.LogFormat)
	assert.Equal(t, 10*time.Second, cfg.ShutdownTimeout)
	assert.Equal(t, int64(10<<20), cfg.MaxUploadBytes)
	assert.Equal(t, ',', cfg.CSVDelimiter)
	assert.Equal(t, 30*time.Minute, cfg.ResultTTL)
	assert.Equal(t, "/", cfg.EntryURL)
	assert.False(t, cfg.StreamEnabled)
	assert.Equal(t, []string{defaultBroker}, cfg.KafkaBrokers)
	assert.Equal(t, "raw-water-samples", cfg.KafkaSourceTopic)
	assert.Equal(t, "scored-water-samples", cfg.KafkaSinkTopic)
	assert.Equal(t, "water-quality-scorer", cfg.KafkaGroupID)
	assert.Equal(t, 50, cfg.BatchSize)
	assert.Equal(t, 500*time.Millisecond, cfg.BatchFlushInterval)
}

func TestLoad_CustomEnv(t *testing.T) {
	t.Setenv("HTTP_ADDR", ":9090")
	t.Setenv("LOG_LEVEL", "debug")
	t.Setenv("LOG_FORMAT", "text")
	t.Setenv("SHUTDOWN_TIMEOUT", "30s")
	t.Setenv("MAX_UPLOAD_BYTES", "2048")
	t.Setenv("CSV_DELIMITER", ";")
	t.Setenv("RESULT_TTL", "5m")
	t.Setenv("ENTRY_URL", "/validation")
	t.Setenv("STREAM_ENABLED", "true")
	t.Setenv("KAFKA_BROKERS", "broker1:9092,broker2:9092")
	t.Setenv("KAFKA_SOURCE_TOPIC", "custom-source")
	t.Setenv("KAFKA_SINK_TOPIC", "custom-sink")
	t.Setenv("KAFKA_GROUP_ID", "custom-group")
	t.Setenv("BATCH_SIZE", "100")
	t.Setenv("BATCH_FLUSH_INTERVAL", "1s")

	cfg, err := Load()
	require.NoError(t, err)

	assert.Equal(t, ":9090", cfg.HTTPAddr)
	assert.Equal(t, "debug", cfg.LogLevel)
	assert.Equal(t, "text", cfg.LogFormat)
	assert.Equal(t, 30*time.Second, cfg.ShutdownTimeout)
	assert.Equal(t, int64(2048), cfg.MaxUploadBytes)
	assert.Equal(t, ';', cfg.CSVDelimiter)
	assert.Equal(t, 5*time.Minute, cfg.ResultTTL)
	assert.Equal(t, "/validation", cfg.EntryURL)
	assert.True(t, cfg.StreamEnabled)
	assert.Equal(t, []string{"broker1:9092", "broker2:9092"}, cfg.KafkaBrokers)
	assert.Equal(t, "custom-source", cfg.KafkaSourceTopic)
	assert.Equal(t, "custom-sink", cfg.KafkaSinkTopic)
	assert.Equal(t, "custom-group", cfg.KafkaGroupID)
	assert.Equal(t, 100, cfg.BatchSize)
	assert.Equal(t, 1*time.Second, cfg.BatchFlushInterval)
}

func TestLoad_InvalidShutdownTimeout(t *testing.T) {
	t.Setenv("SHUTDOWN_TIMEOUT", "not-a-duration")
	_, err := Load()
	require.Error(t, err)
	assert.Contains(t, err.Error(), "SHUTDOWN_TIMEOUT")
}

func TestLoad_NegativeShutdownTimeout(t *testing.T) {
	t.Setenv("SHUTDOWN_TIMEOUT", "-1s")
	_, err := Load()
	require.Error(t, err)
	assert.Contains(t, err.Error(), "SHUTDOWN_TIMEOUT")
}

func TestLoad_InvalidBatchSize(t *testing.T) {
	t.Setenv("BATCH_SIZE", "0")
	_, err := Load()
	require.Error(t, err)
	assert.Contains(t, err.Error(), "BATCH_SIZE")
}

func TestLoad_BatchSizeTooLarge(t *testing.T) {
	t.Setenv("BATCH_SIZE", "9999")
	_, err := Load()
	require.Error(t, err)
	assert.Contains(t, err.Error(), "BATCH_SIZE")
}

func TestLoad_InvalidBatchFlushInterval(t *testing.T) {
	t.Setenv("BATCH_FLUSH_INTERVAL", "not-a-duration")
	_, err := Load()
	require.Error(t, err)
	assert.Contains(t, err.Error(), "BATCH_FLUSH_INTERVAL")
}

func TestLoad_MaxUploadBytes(t *testing.T) {
	for _, v := range []string{"0", "-5", "ten"} {
		t.Run(v, func(t *testing.T) {
			t.Setenv("MAX_UPLOAD_BYTES", v)
			_, err := Load()
			require.Error(t, err)
			assert.Contains(t, err.Error(), "MAX_UPLOAD_BYTES")
		})
	}
}

func TestLoad_CSVDelimiter(t *testing.T) {
	tests := []struct {
		value   string
		want    rune
		wantErr bool
	}{
		{value: "|", want: '|'},
		{value: `\t`, want: '\t'},
		{value: "¦", want: '¦'},
		{value: ";;", wantErr: true},
		{value: `"`, wantErr: true},
		{value: "\r", wantErr: true},
		{value: "\xff", wantErr: true},
	}
	for _, tt := range tests {
		t.Run(tt.value, func(t *testing.T) {
			t.Setenv("CSV_DELIMITER", tt.value)
			cfg, err := Load()
			if tt.wantErr {
				require.Error(t, err)
				assert.Contains(t, err.Error(), "CSV_DELIMITER")
				return
			}
			require.NoError(t, err)
			assert.Equal(t, tt.want, cfg.CSVDelimiter)
		})
	}
}

func TestLoad_CSVDelimiterMatchesUploadRules(t *testing.T) {
	// Every value the service accepts at startup must also be accepted per upload.
	for _, v := range []string{",", ";", "|", `\t`, "\t", "¦"} {
		t.Setenv("CSV_DELIMITER", v)
		cfg, err := Load()
		require.NoError(t, err, "%q", v)

		want, err := ingest.ParseDelimiter(v)
		require.NoError(t, err)
		assert.Equal(t, want, cfg.CSVDelimiter)
	}
}

func TestLoad_InvalidResultTTL(t *testing.T) {
	for _, v := range []string{"0s", "-1m", "forever"} {
		t.Run(v, func(t *testing.T) {
			t.Setenv("RESULT_TTL", v)
			_, err := Load()
			require.Error(t, err)
			assert.Contains(t, err.Error(), "RESULT_TTL")
		})
	}
}

func TestLoad_InvalidStreamEnabled(t *testing.T) {
	t.Setenv("STREAM_ENABLED", "sometimes")
	_, err := Load()
	require.Error(t, err)
	assert.Contains(t, err.Error(), "STREAM_ENABLED")
}
