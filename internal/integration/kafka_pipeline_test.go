//go:build integration

package integration_test

import (
	"context"
	"encoding/json"
	"fmt"
	"testing"
	"time"

	"github.com/couchcryptid/water-quality-service/internal/adapter/kafka"
	"github.com/couchcryptid/water-quality-service/internal/config"
	"github.com/couchcryptid/water-quality-service/internal/dataset"
	"github.com/couchcryptid/water-quality-service/internal/domain"
	"github.com/couchcryptid/water-quality-service/internal/ingest"
	"github.com/couchcryptid/water-quality-service/internal/observability"
	"github.com/couchcryptid/water-quality-service/internal/pipeline"
	kafkago "github.com/segmentio/kafka-go"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const (
	testSourceTopic = "test-source"
	testSinkTopic   = "test-sink"
)

// scoredMessage holds a deserialized message read from the sink topic.
type scoredMessage struct {
	Sample  domain.ScoredSample
	Key     string
	Headers map[string]string
}

// readScored reads a single message from the sink consumer and deserializes it.
func readScored(ctx context.Context, t *testing.T, consumer *kafkago.Reader) scoredMessage {
	t.Helper()
	readCtx, cancel := context.WithTimeout(ctx, 30*time.Second)
	defer cancel()

	msg, err := consumer.ReadMessage(readCtx)
	require.NoError(t, err, "read from sink topic")

	headers := make(map[string]string, len(msg.Headers))
	for _, h := range msg.Headers {
		headers[h.Key] = string(h.Value)
	}
	var sample domain.ScoredSample
	require.NoError(t, json.Unmarshal(msg.Value, &sample), "unmarshal sink message")

	return scoredMessage{Sample: sample, Key: string(msg.Key), Headers: headers}
}

// samplePayloads turns the default dataset into one JSON object per row, as a
// field probe would publish them.
func samplePayloads(t *testing.T) ([][]byte, []domain.RawRecord) {
	t.Helper()
	ds, err := ingest.Parse(dataset.Default(), ingest.FormatCSV, ingest.Options{})
	require.NoError(t, err)

	payloads := make([][]byte, len(ds.Records))
	for i, rec := range ds.Records {
		payloads[i], err = json.Marshal(rec.Values)
		require.NoError(t, err)
	}
	return payloads, ds.Records
}

func testConfig(broker, group string) *config.Config {
	return &config.Config{
		KafkaBrokers:       []string{broker},
		KafkaSourceTopic:   testSourceTopic,
		KafkaSinkTopic:     testSinkTopic,
		KafkaGroupID:       fmt.Sprintf("%s-%d", group, time.Now().UnixNano()),
		BatchFlushInterval: 5 * time.Second,
	}
}

func sinkConsumer(t *testing.T, broker string) *kafkago.Reader {
	consumer := kafkago.NewReader(kafkago.ReaderConfig{
		Brokers:     []string{broker},
		Topic:       testSinkTopic,
		GroupID:     fmt.Sprintf("test-sink-%d", time.Now().UnixNano()),
		StartOffset: kafkago.FirstOffset,
	})
	t.Cleanup(func() { _ = consumer.Close() })
	return consumer
}

// TestKafkaReaderWriter verifies the adapter layer: kafka.Reader and
// kafka.Writer round-trip a sample through Kafka.
func TestKafkaReaderWriter(t *testing.T) {
	ctx, cancel := context.WithTimeout(context.Background(), 90*time.Second)
	defer cancel()

	broker := startKafka(ctx, t)
	createTopic(t, broker, testSourceTopic)
	createTopic(t, broker, testSinkTopic)
	cfg := testConfig(broker, "test-reader")

	payloads, _ := samplePayloads(t)
	sampledAt := time.Date(2026, time.March, 14, 6, 0, 0, 0, time.UTC)

	producer := &kafkago.Writer{Addr: kafkago.TCP(broker), Topic: testSourceTopic}
	t.Cleanup(func() { _ = producer.Close() })
	require.NoError(t, producer.WriteMessages(ctx, kafkago.Message{
		Key:   []byte("well-7"),
		Value: payloads[0],
		Time:  sampledAt,
	}))

	// Retry because the consumer group may need time to rebalance before
	// partitions are assigned and messages become available.
	reader := kafka.NewReader(cfg, discardLogger())
	t.Cleanup(func() { _ = reader.Close() })

	var batch []domain.RawEvent
	for len(batch) == 0 {
		var err error
		batch, err = reader.ExtractBatch(ctx, 1)
		require.NoError(t, err)
		if ctx.Err() != nil {
			t.Fatal("timed out waiting for message from source topic")
		}
	}
	require.Len(t, batch, 1)
	raw := batch[0]
	assert.Equal(t, []byte("well-7"), raw.Key)
	assert.Equal(t, payloads[0], raw.Value)
	assert.Equal(t, testSourceTopic, raw.Topic)
	require.NotNil(t, raw.Commit, "commit callback should be set")
	require.NoError(t, raw.Commit(ctx))

	transformer := pipeline.NewTransformer(discardLogger(), observability.NewMetricsForTesting())
	out, err := transformer.Transform(ctx, raw)
	require.NoError(t, err)

	writer := kafka.NewWriter(cfg, discardLogger())
	t.Cleanup(func() { _ = writer.Close() })
	require.NoError(t, writer.LoadBatch(ctx, []domain.OutputEvent{out}))

	sm := readScored(ctx, t, sinkConsumer(t, broker))
	assert.Equal(t, "well-7", sm.Key)
	assert.Equal(t, "well-7", sm.Sample.ID)
	assert.Equal(t, string(sm.Sample.Classification), sm.Headers["classification"])
	_, err = time.Parse(time.RFC3339, sm.Headers["scored_at"])
	assert.NoError(t, err, "scored_at should be valid RFC3339")
	assert.True(t, sm.Sample.SampledAt.Equal(sampledAt))
}

// TestPipelineEndToEnd runs the stream scorer over the whole default dataset
// and checks every published score against the scorer run locally.
func TestPipelineEndToEnd(t *testing.T) {
	ctx, cancel := context.WithTimeout(context.Background(), 2*time.Minute)
	defer cancel()

	broker := startKafka(ctx, t)
	createTopic(t, broker, testSourceTopic)
	createTopic(t, broker, testSinkTopic)
	cfg := testConfig(broker, "test-pipeline")

	payloads, raws := samplePayloads(t)
	records, _, err := domain.ValidateDataset(raws, discardLogger())
	require.NoError(t, err)

	want := make(map[string]domain.ScoredRecord, len(records))
	msgs := make([]kafkago.Message, len(payloads))
	for i := range payloads {
		key := fmt.Sprintf("sample-%02d", i)
		want[key] = domain.Score(records[i])
		msgs[i] = kafkago.Message{Key: []byte(key), Value: payloads[i]}
	}

	producer := &kafkago.Writer{Addr: kafkago.TCP(broker), Topic: testSourceTopic}
	t.Cleanup(func() { _ = producer.Close() })
	require.NoError(t, producer.WriteMessages(ctx, msgs...))

	reader := kafka.NewReader(cfg, discardLogger())
	t.Cleanup(func() { _ = reader.Close() })
	writer := kafka.NewWriter(cfg, discardLogger())
	t.Cleanup(func() { _ = writer.Close() })

	metrics := observability.NewMetricsForTesting()
	p := pipeline.New(reader, pipeline.NewTransformer(discardLogger(), metrics), writer, discardLogger(), metrics, 50)

	pipelineCtx, pipelineCancel := context.WithCancel(ctx)
	errCh := make(chan error, 1)
	go func() { errCh <- p.Run(pipelineCtx) }()

	consumer := sinkConsumer(t, broker)
	received := make(map[string]scoredMessage, len(msgs))
	for len(received) < len(msgs) {
		sm := readScored(ctx, t, consumer)
		received[sm.Key] = sm
	}

	pipelineCancel()
	require.NoError(t, <-errCh)
	require.NoError(t, p.CheckReadiness(ctx))

	for key, exp := range want {
		sm, ok := received[key]
		require.True(t, ok, "missing scored sample %s", key)
		assert.InDelta(t, exp.Score, sm.Sample.Score, 1e-9, key)
		assert.Equal(t, exp.Classification, sm.Sample.Classification, key)
		assert.Equal(t, string(exp.Classification), sm.Headers["classification"], key)
	}
}

// TestPipelineTransformError verifies that an unscorable message (poison pill)
// is skipped and the scorer continues with valid messages.
func TestPipelineTransformError(t *testing.T) {
	ctx, cancel := context.WithTimeout(context.Background(), 90*time.Second)
	defer cancel()

	broker := startKafka(ctx, t)
	createTopic(t, broker, testSourceTopic)
	createTopic(t, broker, testSinkTopic)
	cfg := testConfig(broker, "test-poison")

	payloads, _ := samplePayloads(t)

	producer := &kafkago.Writer{Addr: kafkago.TCP(broker), Topic: testSourceTopic}
	t.Cleanup(func() { _ = producer.Close() })
	require.NoError(t, producer.WriteMessages(ctx,
		kafkago.Message{Key: []byte("bad"), Value: []byte("not-json{{{")},
		kafkago.Message{Key: []byte("partial"), Value: []byte(`{"ph": 7}`)},
		kafkago.Message{Key: []byte("good"), Value: payloads[1]},
	))

	reader := kafka.NewReader(cfg, discardLogger())
	t.Cleanup(func() { _ = reader.Close() })
	writer := kafka.NewWriter(cfg, discardLogger())
	t.Cleanup(func() { _ = writer.Close() })

	metrics := observability.NewMetricsForTesting()
	p := pipeline.New(reader, pipeline.NewTransformer(discardLogger(), metrics), writer, discardLogger(), metrics, 50)

	pipelineCtx, pipelineCancel := context.WithCancel(ctx)
	errCh := make(chan error, 1)
	go func() { errCh <- p.Run(pipelineCtx) }()

	consumer := sinkConsumer(t, broker)
	sm := readScored(ctx, t, consumer)
	assert.Equal(t, "good", sm.Key)

	// No second message arrives: both poison pills were skipped.
	readCtx, readCancel := context.WithTimeout(ctx, 5*time.Second)
	_, err := consumer.ReadMessage(readCtx)
	readCancel()
	assert.Error(t, err, "expected no further messages on sink topic")

	pipelineCancel()
	require.NoError(t, <-errCh)
}
