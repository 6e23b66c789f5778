package cli

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"strings"
	"syscall"

	"github.com/spf13/cobra"

	"github.com/roach88/onvoc/internal/pipeline"
)

// MapOptions holds flags for the map command.
type MapOptions struct {
	*RootOptions
	Tool      string
	Ontology  string
	Threshold float64
	Jobs      int
	Pattern   string

	// Runner allows overriding how the tool is executed (for testing).
	// If nil, the tool is run with os/exec.
	Runner pipeline.CommandRunner
}

// NewMapCommand creates the map command.
func NewMapCommand(rootOpts *RootOptions) *cobra.Command {
	return newMapCommand(&MapOptions{RootOptions: rootOpts})
}

func newMapCommand(opts *MapOptions) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "map <input-dir> <output-dir>",
		Short: "Run the external mapping tool over a folder",
		Long: `Run an external term-mapping tool once per input file.

The tool is invoked as
  <tool> --input <file> --output <file> --ontology <file> --threshold <t>
with output files mirroring the input layout under <output-dir> and a .tsv
extension. At most --jobs invocations run at a time. Failures are reported
per file; the other files still run.

Example:
  onvoc map --tool ./extract --ontology onvoc.owl --threshold 0.8 ./papers ./mapped`,
		Args: cobra.ExactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			return runMap(opts, args[0], args[1], cmd)
		},
	}

	cmd.Flags().StringVar(&opts.Tool, "tool", "", "mapping tool executable (required)")
	_ = cmd.MarkFlagRequired("tool")
	cmd.Flags().StringVar(&opts.Ontology, "ontology", "", "ontology file passed to the tool (required)")
	_ = cmd.MarkFlagRequired("ontology")
	cmd.Flags().Float64Var(&opts.Threshold, "threshold", 0.5, "similarity threshold in [0, 1]")
	cmd.Flags().IntVar(&opts.Jobs, "jobs", 1, "maximum concurrent invocations")
	cmd.Flags().StringVar(&opts.Pattern, "pattern", pipeline.DefaultPattern, "glob selecting input files")

	return cmd
}

func runMap(opts *MapOptions, inputDir, outputDir string, cmd *cobra.Command) error {
	driverOpts := []pipeline.Option{pipeline.WithLogger(opts.Logger)}
	if opts.Runner != nil {
		driverOpts = append(driverOpts, pipeline.WithRunner(opts.Runner))
	}

	d, err := pipeline.New(pipeline.Config{
		Tool:      opts.Tool,
		Ontology:  opts.Ontology,
		Threshold: opts.Threshold,
		Jobs:      opts.Jobs,
		Pattern:   opts.Pattern,
	}, driverOpts...)
	if err != nil {
		return WrapExitError(ExitCommandError, "invalid map options", err)
	}

	parentCtx := cmd.Context()
	if parentCtx == nil {
		parentCtx = context.Background()
	}
	ctx, stop := signal.NotifyContext(parentCtx, os.Interrupt, syscall.SIGTERM)
	defer stop()

	result, err := d.Run(ctx, inputDir, outputDir)
	if err != nil {
		return WrapExitError(ExitCommandError, "map failed", err)
	}

	failures := result.Failures()
	var b strings.Builder
	for _, f := range result.Files {
		if f.Failed() {
			fmt.Fprintf(&b, "✗ %s: %s\n", f.Input, f.Error)
			continue
		}
		fmt.Fprintf(&b, "✓ %s -> %s\n", f.Input, f.Output)
	}
	fmt.Fprintf(&b, "%d files, %d failed", len(result.Files), len(failures))

	f := opts.formatter(cmd)
	if len(failures) == 0 {
		return f.Success(result, b.String())
	}

	msg := fmt.Sprintf("%d of %d files failed", len(failures), len(result.Files))
	if err := f.Partial(result, "MAP_FAILED", msg, b.String()); err != nil {
		return err
	}
	return reported(NewExitError(ExitFailure, msg))
}
