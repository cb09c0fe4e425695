package http

import (
	"context"
	"log/slog"
	"net/http"
	"time"

	"github.com/couchcryptid/water-quality-service/internal/domain"
	"github.com/couchcryptid/water-quality-service/internal/pipeline"
	sharedobs "github.com/couchcryptid/storm-data-shared/observability"
	"github.com/go-chi/chi/v5"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// Evaluator runs submissions through the scoring pipeline.
type Evaluator interface {
	EvaluateForm(ctx context.Context, fields map[string]string) (pipeline.Result, error)
	EvaluateFile(ctx context.Context, up pipeline.Upload) (pipeline.Result, error)
	EvaluateDefault(ctx context.Context) (pipeline.Result, error)
	Preview(ctx context.Context, up pipeline.Upload) (pipeline.Preview, error)
}

// ResultStore looks up held verdicts.
type ResultStore interface {
	Get(id string) (domain.Verdict, bool)
}

// Options configure the HTTP surface.
type Options struct {
	Addr           string
	EntryURL       string // where results requests for unknown verdicts are sent
	MaxUploadBytes int64
}

// Server exposes the submission API, the results view and exports, plus
// health, readiness, and metrics endpoints.
type Server struct {
	httpServer *http.Server
	logger     *slog.Logger
	eval       Evaluator
	results    ResultStore
	opts       Options
}

// NewServer creates an HTTP server with the API routes and /healthz, /readyz, and /metrics.
func NewServer(opts Options, eval Evaluator, results ResultStore, ready sharedobs.ReadinessChecker, logger *slog.Logger) *Server {
	if opts.EntryURL == "" {
		opts.EntryURL = "/"
	}

	r := chi.NewRouter()

	s := &Server{
		httpServer: &http.Server{
			Addr:         opts.Addr,
			Handler:      r,
			ReadTimeout:  30 * time.Second,
			WriteTimeout: 30 * time.Second,
			IdleTimeout:  60 * time.Second,
		},
		logger:  logger,
		eval:    eval,
		results: results,
		opts:    opts,
	}

	r.Get("/healthz", sharedobs.LivenessHandler())
	r.Get("/readyz", sharedobs.ReadinessHandler(ready))
	r.Handle("/metrics", promhttp.Handler())

	r.Route("/api", func(r chi.Router) {
		r.Use(traceID(logger), recovery)

		r.Get("/health", s.handleHealth)
		r.Post("/predict", s.handlePredict)
		r.Post("/validate", s.handleValidate)
		r.Post("/browse-dataset", s.handleBrowse)
		r.Get("/load-default-dataset", s.handleLoadDefault)
		r.Post("/validate-default", s.handleValidateDefault)

		r.Route("/results/{id}", func(r chi.Router) {
			r.Get("/", s.handleResult)
			r.Get("/export.csv", s.handleExportCSV)
			r.Get("/export.pdf", s.handleExportPDF)
		})
	})

	return s
}

// Start begins listening. Returns http.ErrServerClosed on graceful shutdown.
func (s *Server) Start() error {
	s.logger.Info("http server starting", "addr", s.httpServer.Addr)
	return s.httpServer.ListenAndServe()
}

// Shutdown gracefully drains connections within the given context deadline.
func (s *Server) Shutdown(ctx context.Context) error {
	return s.httpServer.Shutdown(ctx)
}

// ServeHTTP delegates to the underlying handler, useful for testing.
func (s *Server) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	s.httpServer.Handler.ServeHTTP(w, r)
}
