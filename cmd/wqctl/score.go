package main

import (
	"bytes"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/couchcryptid/water-quality-service/internal/domain"
	"github.com/couchcryptid/water-quality-service/internal/export"
	"github.com/couchcryptid/water-quality-service/internal/ingest"
	"github.com/couchcryptid/water-quality-service/internal/pipeline"
	"github.com/spf13/cobra"
)

// exportOptions select report files to write alongside the summary.
type exportOptions struct {
	csvPath string
	pdfPath string
}

func (e *exportOptions) register(cmd *cobra.Command) {
	cmd.Flags().StringVar(&e.csvPath, "csv", "", "write the scored records as CSV to this path")
	cmd.Flags().StringVar(&e.pdfPath, "pdf", "", "write a PDF report to this path")
}

func (e *exportOptions) write(v domain.Verdict) error {
	if e.csvPath != "" {
		var buf bytes.Buffer
		if err := export.WriteCSV(&buf, v.Records); err != nil {
			return fmt.Errorf("export csv: %w", err)
		}
		if err := writeFile(e.csvPath, buf.Bytes()); err != nil {
			return err
		}
	}
	if e.pdfPath != "" {
		var buf bytes.Buffer
		if err := export.WritePDF(&buf, v, domain.Now()); err != nil {
			return fmt.Errorf("export pdf: %w", err)
		}
		if err := writeFile(e.pdfPath, buf.Bytes()); err != nil {
			return err
		}
	}
	return nil
}

func newScoreCmd(root *rootOptions) *cobra.Command {
	var (
		format  string
		records bool
		exports exportOptions
	)

	cmd := &cobra.Command{
		Use:   "score [file]",
		Short: "Score a CSV, JSON or YAML dataset",
		Long: "Validates and scores every record of a dataset and prints the aggregate verdict.\n" +
			"Without a file argument the built-in sample dataset is scored.",
		Args: cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			eval, err := root.evaluator(cmd)
			if err != nil {
				return err
			}

			up := pipeline.DefaultUpload()
			if len(args) == 1 {
				up, err = readUpload(args[0], format)
				if err != nil {
					return err
				}
			}

			res, err := eval.EvaluateFile(cmd.Context(), up)
			if err != nil {
				return err
			}

			out := cmd.OutOrStdout()
			if err := printSummary(out, up.Name, res); err != nil {
				return err
			}
			if records {
				if err := printRecords(out, res.Verdict.Records); err != nil {
					return err
				}
			}
			return exports.write(res.Verdict)
		},
	}

	cmd.Flags().StringVar(&format, "format", "", "input format (csv, json, yaml); inferred from the extension when unset")
	cmd.Flags().BoolVar(&records, "records", false, "print every scored record")
	exports.register(cmd)
	return cmd
}

func newFormCmd(root *rootOptions) *cobra.Command {
	var exports exportOptions

	cmd := &cobra.Command{
		Use:   "form field=value...",
		Short: "Score a single set of readings",
		Long: "Scores one reading set given as field=value pairs. Every parameter is required:\n  " +
			strings.Join(fieldNames(), ", "),
		Args: cobra.MinimumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			fields, err := parsePairs(args)
			if err != nil {
				return err
			}

			eval, err := root.evaluator(cmd)
			if err != nil {
				return err
			}

			res, err := eval.EvaluateForm(cmd.Context(), fields)
			if err != nil {
				return err
			}
			if err := printSummary(cmd.OutOrStdout(), "form", res); err != nil {
				return err
			}
			return exports.write(res.Verdict)
		},
	}

	exports.register(cmd)
	return cmd
}

func newPreviewCmd(root *rootOptions) *cobra.Command {
	var format string

	cmd := &cobra.Command{
		Use:   "preview <file>",
		Short: "Show the columns and first rows of a dataset without scoring it",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			eval, err := root.evaluator(cmd)
			if err != nil {
				return err
			}

			up, err := readUpload(args[0], format)
			if err != nil {
				return err
			}

			p, err := eval.Preview(cmd.Context(), up)
			if err != nil {
				return err
			}
			return printPreview(cmd.OutOrStdout(), p)
		},
	}

	cmd.Flags().StringVar(&format, "format", "", "input format (csv, json, yaml); inferred from the extension when unset")
	return cmd
}

func readUpload(path, format string) (pipeline.Upload, error) {
	content, err := os.ReadFile(path)
	if err != nil {
		return pipeline.Upload{}, fmt.Errorf("read input: %w", err)
	}

	up := pipeline.Upload{Name: filepath.Base(path), Content: content}
	if format != "" {
		f, err := ingest.ParseFormat(format)
		if err != nil {
			return pipeline.Upload{}, err
		}
		up.Format = f
	}
	return up, nil
}

// parsePairs splits field=value arguments. Keys are normalised the same way
// as file headers, so "pH=7" and "Organic Carbon=3" are accepted.
func parsePairs(args []string) (map[string]string, error) {
	fields := make(map[string]string, len(args))
	for _, arg := range args {
		k, v, ok := strings.Cut(arg, "=")
		if !ok {
			return nil, fmt.Errorf("argument %q is not field=value", arg)
		}
		fields[ingest.NormalizeKey(k)] = v
	}
	return fields, nil
}

func fieldNames() []string {
	names := make([]string, 0, len(domain.Schema()))
	for _, f := range domain.Schema() {
		names = append(names, string(f))
	}
	return names
}

func writeFile(path string, data []byte) error {
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return err
	}
	if err := os.WriteFile(path, data, 0o600); err != nil {
		return fmt.Errorf("write %s: %w", path, err)
	}
	return nil
}
