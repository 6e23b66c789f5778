package cli

import (
	"context"
	"fmt"
	"io"
	"os"
	"strings"

	"github.com/spf13/cobra"

	"github.com/roach88/onvoc/internal/batch"
	"github.com/roach88/onvoc/internal/vocab"
)

// BatchOptions holds flags for the batch command.
type BatchOptions struct {
	*RootOptions
	StopOnError bool
}

// BatchLine is one line of the batch report.
type BatchLine struct {
	Line         int    `json:"line"`
	Text         string `json:"text"`
	Status       string `json:"status"` // "ok", "noop" or "error"
	Path         string `json:"path,omitempty"`
	VocabularyID string `json:"vocabulary_id,omitempty"`
	Code         string `json:"code,omitempty"`
	Error        string `json:"error,omitempty"`
}

// BatchResult summarizes a batch run.
type BatchResult struct {
	RunID   string      `json:"run_id,omitempty"`
	Source  string      `json:"source"`
	Lines   []BatchLine `json:"lines"`
	Applied int         `json:"applied"`
	Failed  int         `json:"failed"`
	Stopped bool        `json:"stopped,omitempty"`
}

// NewBatchCommand creates the batch command.
func NewBatchCommand(rootOpts *RootOptions) *cobra.Command {
	opts := &BatchOptions{RootOptions: rootOpts}

	cmd := &cobra.Command{
		Use:   "batch <file>",
		Short: "Apply a script of add, remove and move lines",
		Long: `Apply a batch script line by line.

Each line is one operation with double-quoted arguments:
  add "<name>" "<category>/<subcategory>"
  remove "<category>/<subcategory>/<name>"
  move "<category>/<subcategory>/<name>" "<category>/<subcategory>/<name>"

Blank lines and lines starting with # are ignored. Each line commits on its
own: a failing line is reported with its line number and does not undo the
lines before it. Use - to read the script from standard input.

Exit codes:
  0 - Every line applied
  1 - One or more lines failed
  2 - Command error (unreadable script, unwritable trees, etc.)`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return runBatch(opts, args[0], cmd)
		},
	}

	cmd.Flags().BoolVar(&opts.StopOnError, "stop-on-error", false, "stop at the first failed line")

	return cmd
}

func runBatch(opts *BatchOptions, file string, cmd *cobra.Command) error {
	var src io.Reader
	if file == "-" {
		src = cmd.InOrStdin()
	} else {
		f, err := os.Open(file)
		if err != nil {
			return WrapExitError(ExitCommandError, "failed to open script", err)
		}
		defer f.Close()
		src = f
	}

	eng, err := opts.openEngine()
	if err != nil {
		return err
	}
	f := opts.formatter(cmd)
	f.VerboseLog("loaded %d terms in %d subcategories", eng.Store().Len(), len(eng.Store().Locations()))

	j, err := opts.openJournal()
	if err != nil {
		return err
	}
	defer closeJournal(j, opts.Logger)

	ctx := cmd.Context()
	if ctx == nil {
		ctx = context.Background()
	}

	runner := opts.newRunner(eng, j, opts.StopOnError)
	report, err := runner.Run(ctx, file, src)
	if err != nil {
		return wrapTreeError("batch aborted", err)
	}

	result := buildBatchResult(report)
	if report.RunID != "" {
		f.VerboseLog("journaled %d lines as run %s", len(report.Results), report.RunID)
	}

	// Per-line failures go to stderr in text mode.
	if !f.IsJSON() {
		for _, res := range report.Failures() {
			fmt.Fprintf(f.GetErrWriter(), "line %d: %v\n", res.Line, res.Err)
		}
	}

	if result.Failed == 0 {
		return f.Success(result, batchSummary(result))
	}

	msg := fmt.Sprintf("%d of %d lines failed", result.Failed, len(result.Lines))
	if err := f.Partial(result, "BATCH_FAILED", msg, batchSummary(result)); err != nil {
		return err
	}
	return reported(NewExitError(ExitFailure, msg))
}

func buildBatchResult(report *batch.Report) BatchResult {
	result := BatchResult{
		RunID:   report.RunID,
		Source:  report.Source,
		Lines:   make([]BatchLine, 0, len(report.Results)),
		Stopped: report.Stopped,
	}
	for _, res := range report.Results {
		line := BatchLine{Line: res.Line, Text: res.Text, Status: "ok"}
		switch {
		case res.Err != nil:
			line.Status = "error"
			line.Error = res.Err.Error()
			if code, ok := vocab.CodeOf(res.Err); ok {
				line.Code = string(code)
			}
			result.Failed++
		case res.Change.NoOp:
			line.Status = "noop"
			line.Path = res.Change.Term.Path.String()
			line.VocabularyID = res.Change.Term.ID
			result.Applied++
		default:
			line.Path = res.Change.Term.Path.String()
			line.VocabularyID = res.Change.Term.ID
			result.Applied++
		}
		result.Lines = append(result.Lines, line)
	}
	return result
}

func batchSummary(r BatchResult) string {
	var b strings.Builder
	for _, line := range r.Lines {
		if line.Status == "error" {
			continue
		}
		fmt.Fprintf(&b, "%d: %s %s %s\n", line.Line, line.Status, line.Path, line.VocabularyID)
	}
	fmt.Fprintf(&b, "%d applied, %d failed", r.Applied, r.Failed)
	if r.Stopped {
		b.WriteString(" (stopped at first failure)")
	}
	return b.String()
}
