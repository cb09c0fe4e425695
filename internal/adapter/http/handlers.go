package http

import (
	"bytes"
	"net/http"

	"github.com/couchcryptid/water-quality-service/internal/domain"
	"github.com/couchcryptid/water-quality-service/internal/export"
	"github.com/couchcryptid/water-quality-service/internal/observability"
	"github.com/couchcryptid/water-quality-service/internal/pipeline"
	"github.com/go-chi/chi/v5"
)

const csvExportPrefix = "water_quality_analysis"

// verdictResponse is the body returned for a scored submission and for the
// results view.
type verdictResponse struct {
	pipeline.Result
	Advice string `json:"advice"`
	Links  links  `json:"links"`
}

type links struct {
	Self string `json:"self"`
	CSV  string `json:"csv"`
	PDF  string `json:"pdf"`
}

func resultPath(id string) string {
	return "/api/results/" + id
}

func newVerdictResponse(res pipeline.Result) verdictResponse {
	self := resultPath(res.Verdict.ID)
	return verdictResponse{
		Result: res,
		Advice: res.Verdict.Classification.Advice(),
		Links: links{
			Self: self,
			CSV:  self + "/export.csv",
			PDF:  self + "/export.pdf",
		},
	}
}

func (s *Server) handleHealth(w http.ResponseWriter, r *http.Request) {
	writeJSON(r.Context(), w, http.StatusOK, map[string]string{"status": "healthy"})
}

func (s *Server) handlePredict(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	fields, err := readPredict(r)
	if err != nil {
		writeError(ctx, w, err)
		return
	}

	res, err := s.eval.EvaluateForm(ctx, fields)
	if err != nil {
		writeError(ctx, w, err)
		return
	}
	s.writeCreated(w, r, res)
}

func (s *Server) handleValidate(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	up, err := readUpload(w, r, s.opts.MaxUploadBytes)
	if err != nil {
		writeError(ctx, w, err)
		return
	}

	res, err := s.eval.EvaluateFile(ctx, up)
	if err != nil {
		writeError(ctx, w, err)
		return
	}
	s.writeCreated(w, r, res)
}

func (s *Server) handleValidateDefault(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	res, err := s.eval.EvaluateDefault(ctx)
	if err != nil {
		writeError(ctx, w, err)
		return
	}
	s.writeCreated(w, r, res)
}

func (s *Server) handleBrowse(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	up, err := readUpload(w, r, s.opts.MaxUploadBytes)
	if err != nil {
		writeError(ctx, w, err)
		return
	}

	p, err := s.eval.Preview(ctx, up)
	if err != nil {
		writeError(ctx, w, err)
		return
	}
	writeJSON(ctx, w, http.StatusOK, p)
}

func (s *Server) handleLoadDefault(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	p, err := s.eval.Preview(ctx, pipeline.DefaultUpload())
	if err != nil {
		writeError(ctx, w, err)
		return
	}
	writeJSON(ctx, w, http.StatusOK, p)
}

func (s *Server) writeCreated(w http.ResponseWriter, r *http.Request, res pipeline.Result) {
	w.Header().Set("Location", resultPath(res.Verdict.ID))
	writeJSON(r.Context(), w, http.StatusCreated, newVerdictResponse(res))
}

// lookup fetches the verdict named in the URL. Unknown or expired verdicts
// send the caller back to the entry view.
func (s *Server) lookup(w http.ResponseWriter, r *http.Request) (domain.Verdict, bool) {
	id := chi.URLParam(r, "id")
	v, ok := s.results.Get(id)
	if !ok {
		loggerFrom(r.Context()).Info("no verdict held, redirecting to entry", "id", id)
		http.Redirect(w, r, s.opts.EntryURL, http.StatusSeeOther)
		return domain.Verdict{}, false
	}
	return v, true
}

func (s *Server) handleResult(w http.ResponseWriter, r *http.Request) {
	v, ok := s.lookup(w, r)
	if !ok {
		return
	}
	writeJSON(r.Context(), w, http.StatusOK, newVerdictResponse(pipeline.Result{Verdict: v}))
}

func (s *Server) handleExportCSV(w http.ResponseWriter, r *http.Request) {
	v, ok := s.lookup(w, r)
	if !ok {
		return
	}

	var buf bytes.Buffer
	if err := export.WriteCSV(&buf, v.Records); err != nil {
		writeError(r.Context(), w, err)
		return
	}
	name := export.FileName(csvExportPrefix, domain.Now(), "csv")
	s.writeAttachment(w, r, "text/csv; charset=utf-8", name, buf.Bytes())
}

func (s *Server) handleExportPDF(w http.ResponseWriter, r *http.Request) {
	v, ok := s.lookup(w, r)
	if !ok {
		return
	}

	var buf bytes.Buffer
	if err := export.WritePDF(&buf, v, domain.Now()); err != nil {
		writeError(r.Context(), w, err)
		return
	}
	s.writeAttachment(w, r, "application/pdf", export.ReportFileName, buf.Bytes())
}

func (s *Server) writeAttachment(w http.ResponseWriter, r *http.Request, contentType, name string, body []byte) {
	w.Header().Set("Content-Type", contentType)
	w.Header().Set("Content-Disposition", `attachment; filename="`+name+`"`)
	w.WriteHeader(http.StatusOK)
	if _, err := w.Write(body); err != nil {
		loggerFrom(r.Context()).Error("write export", observability.Err(err))
	}
}
