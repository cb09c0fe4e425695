package http

import (
	"errors"
	"fmt"
	"io"
	"net/http"

	"github.com/couchcryptid/water-quality-service/internal/ingest"
	"github.com/couchcryptid/water-quality-service/internal/pipeline"
	"github.com/go-playground/validator/v10"
)

var validate = validator.New(validator.WithRequiredStructEnabled())

// multipartOverhead is allowed on top of the upload limit for form boundaries
// and the other form fields.
const multipartOverhead = 1 << 20

// predictRequest is the manual entry body. Values may be JSON numbers or
// strings; validation of the readings themselves is the domain's job.
type predictRequest struct {
	Fields map[string]any `json:"fields" validate:"required"`
}

// uploadForm holds the optional multipart fields sent alongside a file.
type uploadForm struct {
	Format    string `validate:"omitempty,oneof=csv json yaml yml delimited structured"`
	Delimiter string `validate:"omitempty,max=4"`
}

func readPredict(r *http.Request) (map[string]string, error) {
	var req predictRequest
	dec := json.NewDecoder(r.Body)
	dec.UseNumber()
	if err := dec.Decode(&req); err != nil {
		return nil, &requestError{code: codeValidation, message: fmt.Sprintf("invalid JSON body: %v", err)}
	}
	if err := validate.StructCtx(r.Context(), req); err != nil {
		return nil, &requestError{code: codeValidation, message: `request body must contain a "fields" object`}
	}

	// Keys are normalised like file headers, so "pH" and "Organic Carbon"
	// name schema fields here as they do in uploads and the CLI.
	fields := make(map[string]string, len(req.Fields))
	for k, v := range req.Fields {
		key := ingest.NormalizeKey(k)
		switch t := v.(type) {
		case nil:
			fields[key] = ""
		case string:
			fields[key] = t
		default:
			fields[key] = fmt.Sprint(t)
		}
	}
	return fields, nil
}

// readUpload extracts the "file" part of a multipart request.
func readUpload(w http.ResponseWriter, r *http.Request, maxBytes int64) (pipeline.Upload, error) {
	if maxBytes <= 0 {
		maxBytes = ingest.DefaultMaxSize
	}
	r.Body = http.MaxBytesReader(w, r.Body, maxBytes+multipartOverhead)

	file, header, err := r.FormFile("file")
	if err != nil {
		var mbErr *http.MaxBytesError
		if errors.As(err, &mbErr) {
			return pipeline.Upload{}, err
		}
		return pipeline.Upload{}, &requestError{code: codeNoFile, message: "no file uploaded"}
	}
	defer file.Close()

	form := uploadForm{
		Format:    r.FormValue("format"),
		Delimiter: r.FormValue("delimiter"),
	}
	if err := validate.StructCtx(r.Context(), form); err != nil {
		return pipeline.Upload{}, &requestError{code: codeValidation, message: fmt.Sprintf("invalid upload options: %v", err)}
	}

	up := pipeline.Upload{Name: header.Filename}
	if form.Format != "" {
		f, err := ingest.ParseFormat(form.Format)
		if err != nil {
			return pipeline.Upload{}, err
		}
		up.Format = f
	}
	if form.Delimiter != "" {
		d, err := ingest.ParseDelimiter(form.Delimiter)
		if err != nil {
			return pipeline.Upload{}, &requestError{code: codeValidation, message: err.Error()}
		}
		up.Delimiter = d
	}

	// Read one byte past the limit so ingestion reports the size error.
	up.Content, err = io.ReadAll(io.LimitReader(file, maxBytes+1))
	if err != nil {
		return pipeline.Upload{}, fmt.Errorf("read upload: %w", err)
	}
	return up, nil
}
