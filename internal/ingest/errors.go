package ingest

import "fmt"

// UnsupportedFormatError is returned for a format tag or file extension other
// than csv, json or yaml.
type UnsupportedFormatError struct {
	Format string
}

func (e *UnsupportedFormatError) Error() string {
	return fmt.Sprintf("unsupported format %q: please upload a valid CSV or JSON file", e.Format)
}

// SizeLimitError is returned before parsing when content exceeds the limit.
type SizeLimitError struct {
	Size  int64
	Limit int64
}

func (e *SizeLimitError) Error() string {
	return fmt.Sprintf("file size %d bytes exceeds the %d byte limit", e.Size, e.Limit)
}

// FormatError wraps a parser failure for malformed content.
type FormatError struct {
	Format Format
	Err    error
}

func (e *FormatError) Error() string {
	return fmt.Sprintf("invalid %s format: %v", e.Format, e.Err)
}

func (e *FormatError) Unwrap() error {
	return e.Err
}
