package pipeline

import (
	"context"
	"errors"
	"fmt"
	"log/slog"

	"github.com/couchcryptid/water-quality-service/internal/dataset"
	"github.com/couchcryptid/water-quality-service/internal/domain"
	"github.com/couchcryptid/water-quality-service/internal/ingest"
	"github.com/couchcryptid/water-quality-service/internal/observability"
	"github.com/rs/xid"
	"github.com/samber/lo"
)

// PreviewRows is the number of rows included in a dataset preview.
const PreviewRows = 10

// VerdictStore holds completed verdicts for later lookup.
type VerdictStore interface {
	Put(v domain.Verdict)
	Len() int
}

// Upload is a file submission: raw bytes plus enough context to pick a parser.
type Upload struct {
	Name      string        // original file name; used to infer Format when unset
	Format    ingest.Format // explicit format tag, optional
	Content   []byte
	Delimiter rune // CSV only; the evaluator default when zero
}

// Result is a completed submission: the held verdict plus ingestion diagnostics.
type Result struct {
	Verdict domain.Verdict      `json:"verdict"`
	Skipped []ingest.SkippedRow `json:"skipped_rows,omitempty"`
	Coerced []domain.Coercion   `json:"coerced,omitempty"`
}

// Preview summarises an uploaded dataset without scoring it.
type Preview struct {
	Format  ingest.Format       `json:"format"`
	Columns []string            `json:"columns"`
	Rows    [][]string          `json:"rows"`
	Total   int                 `json:"total"`
	Missing []domain.Field      `json:"missing_fields,omitempty"`
	Skipped []ingest.SkippedRow `json:"skipped_rows,omitempty"`
}

// EvaluatorOptions configure an Evaluator.
type EvaluatorOptions struct {
	MaxUploadBytes int64
	Delimiter      rune
}

// Evaluator runs form and file submissions through validation, scoring and
// aggregation. A verdict is stored only when the whole submission succeeds.
type Evaluator struct {
	store   VerdictStore
	logger  *slog.Logger
	metrics *observability.Metrics
	opts    EvaluatorOptions
}

// NewEvaluator creates an Evaluator backed by store.
func NewEvaluator(store VerdictStore, logger *slog.Logger, metrics *observability.Metrics, opts EvaluatorOptions) *Evaluator {
	return &Evaluator{
		store:   store,
		logger:  logger,
		metrics: metrics,
		opts:    opts,
	}
}

// CheckReadiness reports whether submissions can be accepted. Form and file
// submissions depend only on the verdict store.
func (e *Evaluator) CheckReadiness(_ context.Context) error {
	if e.store == nil {
		return errors.New("verdict store not configured")
	}
	return nil
}

// EvaluateForm validates a manual entry and scores it as a single record.
func (e *Evaluator) EvaluateForm(ctx context.Context, fields map[string]string) (Result, error) {
	if err := ctx.Err(); err != nil {
		return Result{}, err
	}

	rec, err := domain.ValidateForm(fields)
	if err != nil {
		e.observeFailure(domain.SourceForm, err)
		return Result{}, err
	}

	res := Result{Verdict: domain.SingleVerdict(rec)}
	e.complete(&res)
	return res, nil
}

// EvaluateFile parses, validates and scores an uploaded dataset and
// aggregates the scores into one verdict.
func (e *Evaluator) EvaluateFile(ctx context.Context, up Upload) (Result, error) {
	if err := ctx.Err(); err != nil {
		return Result{}, err
	}

	res, err := e.evaluateFile(up)
	if err != nil {
		e.observeFailure(domain.SourceFile, err)
		return Result{}, err
	}
	e.complete(&res)
	return res, nil
}

// EvaluateDefault scores the built-in sample dataset.
func (e *Evaluator) EvaluateDefault(ctx context.Context) (Result, error) {
	return e.EvaluateFile(ctx, DefaultUpload())
}

func (e *Evaluator) evaluateFile(up Upload) (Result, error) {
	ds, err := e.parse(up)
	if err != nil {
		return Result{}, err
	}
	if ds.Empty() {
		return Result{}, domain.ErrEmptyDataset
	}

	records, coerced, err := domain.ValidateDataset(ds.Records, e.logger)
	if err != nil {
		return Result{}, err
	}

	verdict, err := domain.Aggregate(domain.ScoreAll(records))
	if err != nil {
		return Result{}, err
	}

	e.metrics.RowsSkipped.Add(float64(len(ds.Skipped)))
	e.metrics.FieldsCoerced.Add(float64(len(coerced)))

	return Result{Verdict: verdict, Skipped: ds.Skipped, Coerced: coerced}, nil
}

// Preview parses an upload and returns its columns and first rows. Values
// are shown as uploaded; nothing is coerced or scored.
func (e *Evaluator) Preview(ctx context.Context, up Upload) (Preview, error) {
	if err := ctx.Err(); err != nil {
		return Preview{}, err
	}

	ds, err := e.parse(up)
	if err != nil {
		return Preview{}, err
	}

	rows := lo.Map(lo.Slice(ds.Records, 0, PreviewRows), func(r domain.RawRecord, _ int) []string {
		return lo.Map(ds.Columns, func(c string, _ int) string { return r.Values[c] })
	})
	missing := lo.Filter(domain.Schema(), func(f domain.Field, _ int) bool {
		return !lo.Contains(ds.Columns, string(f))
	})

	return Preview{
		Format:  ds.Format,
		Columns: ds.Columns,
		Rows:    rows,
		Total:   len(ds.Records),
		Missing: missing,
		Skipped: ds.Skipped,
	}, nil
}

func (e *Evaluator) parse(up Upload) (ingest.Dataset, error) {
	format := up.Format
	if format == "" {
		f, err := ingest.FormatFromFilename(up.Name)
		if err != nil {
			return ingest.Dataset{}, err
		}
		format = f
	}

	delim := up.Delimiter
	if delim == 0 {
		delim = e.opts.Delimiter
	}

	ds, err := ingest.Parse(up.Content, format, ingest.Options{
		MaxSize:   e.opts.MaxUploadBytes,
		Delimiter: delim,
		Logger:    e.logger.With("file", up.Name),
	})
	if err != nil {
		return ingest.Dataset{}, fmt.Errorf("parse %s: %w", up.Name, err)
	}
	return ds, nil
}

// complete assigns an ID, stores the verdict and records success metrics.
func (e *Evaluator) complete(res *Result) {
	res.Verdict.ID = xid.New().String()
	e.store.Put(res.Verdict)

	v := res.Verdict
	e.metrics.Submissions.WithLabelValues(string(v.Source), "scored").Inc()
	e.metrics.Verdicts.WithLabelValues(string(v.Classification)).Inc()
	e.metrics.RecordsScored.Add(float64(len(v.Records)))
	e.metrics.ResultsHeld.Set(float64(e.store.Len()))

	e.logger.Info("submission scored",
		"id", v.ID,
		"source", v.Source,
		"records", len(v.Records),
		"skipped_rows", len(res.Skipped),
		"coerced", len(res.Coerced),
		"score", v.Score,
		"classification", v.Classification,
	)
}

func (e *Evaluator) observeFailure(src domain.Source, err error) {
	outcome := Outcome(err)
	e.metrics.Submissions.WithLabelValues(string(src), outcome).Inc()
	e.logger.Info("submission rejected", "source", src, "outcome", outcome, observability.Err(err))
}

// Outcome maps a submission error to its metrics label.
func Outcome(err error) string {
	var (
		verr *domain.ValidationError
		uerr *ingest.UnsupportedFormatError
		serr *ingest.SizeLimitError
		ferr *ingest.FormatError
	)
	switch {
	case err == nil:
		return "scored"
	case errors.As(err, &verr):
		return "invalid"
	case errors.Is(err, domain.ErrEmptyDataset):
		return "empty"
	case errors.As(err, &uerr):
		return "unsupported"
	case errors.As(err, &serr):
		return "too_large"
	case errors.As(err, &ferr):
		return "malformed"
	default:
		return "error"
	}
}

// DefaultUpload wraps the built-in sample dataset as an upload.
func DefaultUpload() Upload {
	return Upload{
		Name:    dataset.FileName,
		Format:  ingest.FormatCSV,
		Content: dataset.Default(),
	}
}
