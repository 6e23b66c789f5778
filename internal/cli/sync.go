package cli

import (
	"context"
	"fmt"
	"strings"

	"github.com/spf13/cobra"

	"github.com/roach88/onvoc/internal/engine"
	"github.com/roach88/onvoc/internal/journal"
)

// SyncResult is the output of the sync command.
type SyncResult struct {
	RunID string          `json:"run_id,omitempty"`
	Added []engine.Change `json:"added"`
}

// NewSyncCommand creates the sync command.
func NewSyncCommand(rootOpts *RootOptions) *cobra.Command {
	return &cobra.Command{
		Use:   "sync",
		Short: "Assign identifiers to terms missing from the vocabulary tree",
		Long: `Assign fresh identifiers to terms listed in the terms tree but absent
from the vocabulary tree, creating vocabulary files as needed.

Run against an empty or missing vocabulary root, sync initializes the
vocabulary. Anything present only in the vocabulary tree is drift: sync
refuses it and writes nothing.`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runSync(rootOpts, cmd)
		},
	}
}

func runSync(opts *RootOptions, cmd *cobra.Command) error {
	terms, vocabulary, err := opts.requireRoots()
	if err != nil {
		return err
	}
	j, err := opts.openJournal()
	if err != nil {
		return err
	}
	defer closeJournal(j, opts.Logger)

	res, err := engine.Sync(terms, vocabulary,
		engine.WithScheme(opts.Config.Scheme()),
		engine.WithLogger(opts.Logger),
	)
	if err != nil {
		return wrapTreeError("sync failed", err)
	}

	f := opts.formatter(cmd)
	f.VerboseLog("synchronized %s with %s", vocabulary, terms)

	out := SyncResult{Added: res.Added}
	if j != nil && len(res.Added) > 0 {
		ctx := cmd.Context()
		if ctx == nil {
			ctx = context.Background()
		}
		out.RunID, err = recordSync(ctx, j, opts.runIDs().Generate(), res.Added)
		if err != nil {
			return WrapExitError(ExitCommandError, "failed to journal sync", err)
		}
		f.VerboseLog("journaled %d assignments as run %s", len(res.Added), out.RunID)
	}

	var b strings.Builder
	for _, c := range res.Added {
		fmt.Fprintln(&b, describeChange(c))
	}
	fmt.Fprintf(&b, "%d terms assigned identifiers", len(res.Added))
	return f.Success(out, b.String())
}

func recordSync(ctx context.Context, j *journal.Journal, runID string, added []engine.Change) (string, error) {
	for _, c := range added {
		_, err := j.Record(ctx, journal.Entry{
			RunID:        runID,
			Source:       "sync",
			Op:           string(engine.OpSync),
			To:           c.Term.Path.String(),
			VocabularyID: c.Term.ID,
			Outcome:      journal.OutcomeOK,
		})
		if err != nil {
			return "", err
		}
	}
	return runID, nil
}
