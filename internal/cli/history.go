package cli

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/spf13/cobra"

	"github.com/roach88/onvoc/internal/journal"
)

// HistoryOptions holds flags for the history command.
type HistoryOptions struct {
	*RootOptions
	RunID        string
	VocabularyID string
	Limit        int
}

// HistoryResult is the output of the history command.
type HistoryResult struct {
	Entries []journal.Entry `json:"entries"`
}

// NewHistoryCommand creates the history command.
func NewHistoryCommand(rootOpts *RootOptions) *cobra.Command {
	opts := &HistoryOptions{RootOptions: rootOpts}

	cmd := &cobra.Command{
		Use:   "history",
		Short: "List journaled operations",
		Long: `List operations recorded in the journal, oldest first.

Every add, remove, move and sync run with a journal configured is
recorded, including failed batch lines.

Examples:
  onvoc history --limit 20
  onvoc history --run 0190a0c4-6f1e-7b4a-9c7d-2f0e4b1a3c5d
  onvoc history --id ONVOC:0000042 --format json`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runHistory(opts, cmd)
		},
	}

	cmd.Flags().StringVar(&opts.RunID, "run", "", "only entries of this run")
	cmd.Flags().StringVar(&opts.VocabularyID, "id", "", "only entries touching this identifier")
	cmd.Flags().IntVar(&opts.Limit, "limit", 0, "keep only the most recent n entries")

	return cmd
}

func runHistory(opts *HistoryOptions, cmd *cobra.Command) error {
	if opts.Config.Journal == "" {
		return NewExitError(ExitCommandError, "no journal configured (--journal or journal in config)")
	}
	j, err := opts.openJournal()
	if err != nil {
		return err
	}
	defer closeJournal(j, opts.Logger)

	ctx := cmd.Context()
	if ctx == nil {
		ctx = context.Background()
	}

	entries, err := j.List(ctx, journal.Filter{
		RunID:        opts.RunID,
		VocabularyID: opts.VocabularyID,
		Limit:        opts.Limit,
	})
	if err != nil {
		return WrapExitError(ExitCommandError, "failed to read journal", err)
	}

	if len(entries) == 0 {
		return opts.formatter(cmd).Success(HistoryResult{Entries: entries}, "No journal entries found.")
	}

	var b strings.Builder
	for i, e := range entries {
		if i > 0 {
			b.WriteByte('\n')
		}
		b.WriteString(formatHistoryEntry(e))
	}
	return opts.formatter(cmd).Success(HistoryResult{Entries: entries}, b.String())
}

// formatHistoryEntry renders one entry as
//
//	seq  time  run  source[:line]  op  [from ->] [to]  [id]  outcome [code]
func formatHistoryEntry(e journal.Entry) string {
	source := e.Source
	if e.Line > 0 {
		source = fmt.Sprintf("%s:%d", e.Source, e.Line)
	}

	var target string
	switch {
	case e.From != "" && e.To != "":
		target = e.From + " -> " + e.To
	case e.From != "":
		target = e.From
	default:
		target = e.To
	}

	parts := []string{
		fmt.Sprintf("%d", e.Seq),
		e.RecordedAt.UTC().Format(time.RFC3339),
		e.RunID,
		source,
		e.Op,
	}
	if target != "" {
		parts = append(parts, target)
	}
	if e.VocabularyID != "" {
		parts = append(parts, e.VocabularyID)
	}
	outcome := string(e.Outcome)
	if e.ErrorCode != "" {
		outcome += " " + e.ErrorCode
	}
	parts = append(parts, outcome)
	return strings.Join(parts, "  ")
}
