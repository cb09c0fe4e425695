package http

import (
	"context"
	"errors"
	"net/http"

	"github.com/couchcryptid/water-quality-service/internal/domain"
	"github.com/couchcryptid/water-quality-service/internal/ingest"
	"github.com/couchcryptid/water-quality-service/internal/observability"
	jsoniter "github.com/json-iterator/go"
)

var json = jsoniter.ConfigCompatibleWithStandardLibrary

// Error codes returned in the "code" field of error bodies.
const (
	codeValidation   = "ValidationError"
	codeUnsupported  = "UnsupportedFormat"
	codeTooLarge     = "FileTooLarge"
	codeInvalidFile  = "InvalidFileFormat"
	codeEmptyDataset = "EmptyDataset"
	codeNoFile       = "NoFileUploaded"
	codeInternal     = "InternalServerError"
)

type errorResponse struct {
	Code      string                `json:"code"`
	Message   string                `json:"message"`
	SupportID string                `json:"supportId"`
	Fields    []domain.FieldProblem `json:"fields,omitempty"`
}

// requestError is a client error raised by the adapter itself, before any
// submission reaches the evaluator.
type requestError struct {
	code    string
	message string
}

func (e *requestError) Error() string { return e.message }

func writeJSON(ctx context.Context, w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json; charset=utf-8")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(v); err != nil {
		loggerFrom(ctx).Error("encode response", observability.Err(err))
	}
}

// writeError maps submission errors onto status codes. No verdict exists for
// any of them.
func writeError(ctx context.Context, w http.ResponseWriter, err error) {
	resp := errorResponse{Message: err.Error(), SupportID: supportID(ctx)}
	status := http.StatusInternalServerError

	var (
		reqErr *requestError
		verr   *domain.ValidationError
		uerr   *ingest.UnsupportedFormatError
		serr   *ingest.SizeLimitError
		ferr   *ingest.FormatError
		mbErr  *http.MaxBytesError
	)
	switch {
	case errors.As(err, &reqErr):
		status, resp.Code = http.StatusBadRequest, reqErr.code
	case errors.As(err, &verr):
		status, resp.Code = http.StatusBadRequest, codeValidation
		resp.Fields = verr.Problems
	case errors.As(err, &uerr):
		status, resp.Code = http.StatusUnsupportedMediaType, codeUnsupported
	case errors.As(err, &serr), errors.As(err, &mbErr):
		status, resp.Code = http.StatusRequestEntityTooLarge, codeTooLarge
	case errors.As(err, &ferr):
		status, resp.Code = http.StatusBadRequest, codeInvalidFile
	case errors.Is(err, domain.ErrEmptyDataset):
		status, resp.Code = http.StatusUnprocessableEntity, codeEmptyDataset
	default:
		resp.Code = codeInternal
		resp.Message = "internal server error"
	}

	if status >= http.StatusInternalServerError {
		loggerFrom(ctx).Error("request failed", observability.Err(err))
	} else {
		loggerFrom(ctx).Info("request rejected", "status", status, "code", resp.Code, observability.Err(err))
	}
	writeJSON(ctx, w, status, resp)
}
