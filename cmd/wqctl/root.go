package main

import (
	"github.com/couchcryptid/water-quality-service/internal/ingest"
	"github.com/couchcryptid/water-quality-service/internal/observability"
	"github.com/couchcryptid/water-quality-service/internal/pipeline"
	"github.com/couchcryptid/water-quality-service/internal/results"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/spf13/cobra"
)

// rootOptions are the flags shared by every subcommand.
type rootOptions struct {
	logLevel  string
	maxUpload int64
	delimiter string
}

func newRootCmd() *cobra.Command {
	opts := &rootOptions{}

	cmd := &cobra.Command{
		Use:           "wqctl",
		Short:         "Score water quality readings",
		Long:          "Validate, score and classify water quality readings from files or manual entry.",
		SilenceUsage:  true,
		SilenceErrors: true,
	}

	cmd.PersistentFlags().StringVar(&opts.logLevel, "log-level", "warn", "log level (debug, info, warn, error)")
	cmd.PersistentFlags().Int64Var(&opts.maxUpload, "max-bytes", ingest.DefaultMaxSize, "maximum input file size in bytes")
	cmd.PersistentFlags().StringVar(&opts.delimiter, "delimiter", ",", `CSV delimiter; use \t for tab`)

	cmd.AddCommand(
		newScoreCmd(opts),
		newFormCmd(opts),
		newPreviewCmd(opts),
	)
	return cmd
}

// evaluator builds an evaluator whose logs go to the command's stderr.
func (o *rootOptions) evaluator(cmd *cobra.Command) (*pipeline.Evaluator, error) {
	delim, err := ingest.ParseDelimiter(o.delimiter)
	if err != nil {
		return nil, err
	}

	logger := observability.NewLoggerTo(cmd.ErrOrStderr(), o.logLevel, "text")
	metrics := observability.NewMetricsWithRegistry(prometheus.NewRegistry())

	return pipeline.NewEvaluator(results.NewStore(results.DefaultTTL), logger, metrics, pipeline.EvaluatorOptions{
		MaxUploadBytes: o.maxUpload,
		Delimiter:      delim,
	}), nil
}
