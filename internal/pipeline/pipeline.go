package pipeline

import (
	"context"
	"errors"
	"log/slog"
	"sync/atomic"
	"time"

	"github.com/couchcryptid/water-quality-service/internal/domain"
	"github.com/couchcryptid/water-quality-service/internal/observability"
)

// Broker retry bounds. A failed fetch or publish waits retryFloor, doubling
// up to retryCeiling; the next successful fetch resets it.
const (
	retryFloor   = 200 * time.Millisecond
	retryCeiling = 5 * time.Second
)

// BatchExtractor reads up to batchSize raw sample messages from the source.
// An empty batch with a nil error means the topic was idle.
type BatchExtractor interface {
	ExtractBatch(ctx context.Context, batchSize int) ([]domain.RawEvent, error)
}

// Transformer scores a raw sample message and encodes the result.
type Transformer interface {
	Transform(ctx context.Context, raw domain.RawEvent) (domain.OutputEvent, error)
}

// BatchLoader writes scored samples to the destination.
type BatchLoader interface {
	LoadBatch(ctx context.Context, events []domain.OutputEvent) error
}

// Pipeline is the stream scorer. Each cycle fetches a batch of raw samples,
// scores them with the same validator and scorer as file uploads, publishes
// the scored samples and commits their offsets.
//
// A sample that cannot be scored (malformed JSON, a missing schema field in
// the message) will never score on redelivery, so it is committed straight
// away and counted in transform_errors_total. Samples with unparseable
// readings are not rejected: they are coerced to 0 and published with
// coerced_fields set. Broker failures are the only retried condition; on a
// failed publish nothing in the batch is committed, so the batch is
// redelivered.
type Pipeline struct {
	extractor   BatchExtractor
	transformer Transformer
	loader      BatchLoader
	logger      *slog.Logger
	metrics     *observability.Metrics
	batchSize   int

	// reached is set by the first fetch that returns without error.
	reached atomic.Bool
}

// New creates a stream scorer reading batchSize messages per cycle.
func New(e BatchExtractor, t Transformer, l BatchLoader, logger *slog.Logger, metrics *observability.Metrics, batchSize int) *Pipeline {
	return &Pipeline{
		extractor:   e,
		transformer: t,
		loader:      l,
		logger:      logger,
		metrics:     metrics,
		batchSize:   batchSize,
	}
}

// CheckReadiness reports ready once the source topic has been reached. An
// idle topic counts: the extractor returns an empty batch after its poll.
func (p *Pipeline) CheckReadiness(_ context.Context) error {
	if !p.reached.Load() {
		return errors.New("stream scorer has not reached the source topic yet")
	}
	return nil
}

// Run scores samples until ctx is cancelled. It returns nil on shutdown;
// broker errors are logged and retried, never returned.
func (p *Pipeline) Run(ctx context.Context) error {
	p.logger.Info("stream scorer started", "batch_size", p.batchSize)
	p.metrics.PipelineRunning.Set(1)
	defer p.metrics.PipelineRunning.Set(0)

	retry := retryDelay{next: retryFloor}
	for ctx.Err() == nil {
		if !p.cycle(ctx, &retry) {
			break
		}
	}
	p.logger.Info("stream scorer stopping", "reason", context.Cause(ctx))
	return nil
}

// cycle runs one fetch, score and publish round. It returns false when the
// loop should stop.
func (p *Pipeline) cycle(ctx context.Context, retry *retryDelay) bool {
	start := time.Now()

	batch, err := p.extractor.ExtractBatch(ctx, p.batchSize)
	if err != nil {
		if ctx.Err() != nil {
			return false
		}
		p.logger.Error("fetch raw samples failed", observability.Err(err), "retry_in", retry.next)
		return retry.wait(ctx)
	}
	p.reached.Store(true)
	retry.reset()

	if len(batch) == 0 {
		return true
	}
	p.metrics.MessagesConsumed.Add(float64(len(batch)))
	p.metrics.BatchSize.Observe(float64(len(batch)))

	scored := p.score(ctx, batch)
	if len(scored.events) == 0 {
		return true
	}

	if err := p.loader.LoadBatch(ctx, scored.events); err != nil {
		p.logger.Error("publish scored samples failed", observability.Err(err),
			"samples", len(scored.events),
			"retry_in", retry.next,
		)
		return retry.wait(ctx)
	}
	p.metrics.MessagesProduced.Add(float64(len(scored.events)))

	for _, raw := range scored.sources {
		p.commit(ctx, raw)
	}

	p.metrics.BatchProcessingDuration.Observe(time.Since(start).Seconds())
	p.logger.Debug("batch scored",
		"consumed", len(batch),
		"published", len(scored.events),
		"rejected", scored.rejected,
	)
	return true
}

// scoredBatch pairs each output event with the message it came from, so
// offsets are committed only after the publish succeeds.
type scoredBatch struct {
	events   []domain.OutputEvent
	sources  []domain.RawEvent
	rejected int
}

// score transforms every message in the batch. Rejected samples are
// committed here since no retry can make them scorable.
func (p *Pipeline) score(ctx context.Context, batch []domain.RawEvent) scoredBatch {
	out := scoredBatch{
		events:  make([]domain.OutputEvent, 0, len(batch)),
		sources: make([]domain.RawEvent, 0, len(batch)),
	}

	for _, raw := range batch {
		ev, err := p.transformer.Transform(ctx, raw)
		if err != nil {
			p.logger.Warn("rejecting unscorable sample",
				observability.Err(err),
				"outcome", Outcome(err),
				"key", string(raw.Key),
				"partition", raw.Partition,
				"offset", raw.Offset,
			)
			p.metrics.TransformErrors.Inc()
			p.commit(ctx, raw)
			out.rejected++
			continue
		}
		out.events = append(out.events, ev)
		out.sources = append(out.sources, raw)
	}
	return out
}

// commit acknowledges raw. Messages without a commit hook are skipped.
func (p *Pipeline) commit(ctx context.Context, raw domain.RawEvent) {
	if raw.Commit == nil {
		return
	}
	if err := raw.Commit(ctx); err != nil {
		p.logger.Warn("commit offset failed", observability.Err(err),
			"partition", raw.Partition,
			"offset", raw.Offset,
		)
	}
}

// retryDelay is the exponential wait between broker retries.
type retryDelay struct {
	next time.Duration
}

func (r *retryDelay) reset() { r.next = retryFloor }

// wait sleeps for the current delay and doubles it, capped at retryCeiling.
// It returns false if ctx ends first.
func (r *retryDelay) wait(ctx context.Context) bool {
	timer := time.NewTimer(r.next)
	defer timer.Stop()

	select {
	case <-ctx.Done():
		return false
	case <-timer.C:
	}
	r.next = min(r.next*2, retryCeiling)
	return true
}
