// Package ingest turns uploaded file content into ordered raw records.
//
// Ingestion never performs I/O: callers read the bytes and pass them in
// together with a format tag. Records come out with string values; numeric
// conversion is the validator's job.
package ingest

import (
	"bytes"
	"fmt"
	"log/slog"
	"path/filepath"
	"strings"
	"unicode/utf8"

	"github.com/couchcryptid/water-quality-service/internal/domain"
	"golang.org/x/text/cases"
	"golang.org/x/text/unicode/norm"
)

// DefaultMaxSize is the upload limit applied when Options.MaxSize is unset.
const DefaultMaxSize int64 = 10 << 20

// Format tags the encoding of an upload.
type Format string

const (
	FormatCSV  Format = "csv"  // delimited text with a header row
	FormatJSON Format = "json" // top-level array of objects
	FormatYAML Format = "yaml" // top-level sequence of mappings
)

// Structured reports whether f is a document format rather than delimited text.
func (f Format) Structured() bool {
	return f == FormatJSON || f == FormatYAML
}

// ParseFormat accepts a format tag. "delimited" and "structured" are aliases
// for csv and json.
func ParseFormat(tag string) (Format, error) {
	switch strings.ToLower(strings.TrimSpace(tag)) {
	case "csv", "delimited":
		return FormatCSV, nil
	case "json", "structured":
		return FormatJSON, nil
	case "yaml", "yml":
		return FormatYAML, nil
	default:
		return "", &UnsupportedFormatError{Format: tag}
	}
}

// FormatFromFilename infers the format from a file extension.
func FormatFromFilename(name string) (Format, error) {
	ext := strings.TrimPrefix(filepath.Ext(name), ".")
	if ext == "" {
		return "", &UnsupportedFormatError{Format: name}
	}
	return ParseFormat(ext)
}

// Options tune a single Parse call.
type Options struct {
	MaxSize   int64        // bytes; DefaultMaxSize when <= 0
	Delimiter rune         // CSV only; ',' when zero
	Logger    *slog.Logger // receives skipped-row warnings; may be nil
}

func (o Options) maxSize() int64 {
	if o.MaxSize <= 0 {
		return DefaultMaxSize
	}
	return o.MaxSize
}

func (o Options) delimiter() rune {
	if o.Delimiter == 0 {
		return ','
	}
	return o.Delimiter
}

// SkippedRow describes a CSV row dropped because its field count did not match the header.
type SkippedRow struct {
	Line   int `json:"line"`
	Fields int `json:"fields"`
	Want   int `json:"want"`
}

// Dataset is the result of a successful parse. Zero records is a valid
// result; callers decide whether an empty dataset is an error.
type Dataset struct {
	Format  Format
	Columns []string
	Records []domain.RawRecord
	Skipped []SkippedRow
}

// Empty reports whether no records were produced.
func (d Dataset) Empty() bool {
	return len(d.Records) == 0
}

var utf8BOM = []byte("\ufeff")

// Parse decodes content in the given format. Content larger than the size
// limit is rejected with *SizeLimitError before any parsing.
func Parse(content []byte, format Format, opts Options) (Dataset, error) {
	if size, limit := int64(len(content)), opts.maxSize(); size > limit {
		return Dataset{}, &SizeLimitError{Size: size, Limit: limit}
	}

	content = bytes.TrimPrefix(content, utf8BOM)

	switch format {
	case FormatCSV:
		return parseDelimited(content, opts.delimiter(), opts.Logger)
	case FormatJSON:
		return parseJSON(content)
	case FormatYAML:
		return parseYAML(content)
	default:
		return Dataset{}, &UnsupportedFormatError{Format: string(format)}
	}
}

// NormalizeKey canonicalises a column or object key so that exported labels
// such as "Organic Carbon" or "pH" map back onto schema names.
func NormalizeKey(key string) string {
	key = norm.NFKC.String(key)
	key = strings.TrimSpace(key)
	key = strings.Trim(key, `"`)
	key = cases.Fold().String(key)
	return strings.Map(func(r rune) rune {
		if r == ' ' || r == '-' {
			return '_'
		}
		return r
	}, key)
}

// ParseDelimiter reads a delimiter option: a single character, or the
// escaped form `\t` for tab.
func ParseDelimiter(s string) (rune, error) {
	if s == `\t` {
		return '\t', nil
	}
	r, size := utf8.DecodeRuneInString(s)
	if size == 0 || size != len(s) || !validDelimiter(r) {
		return 0, fmt.Errorf("delimiter %q must be a single character other than a quote or newline", s)
	}
	return r, nil
}
