package cli

import (
	"context"
	"fmt"
	"strconv"

	"github.com/spf13/cobra"

	"github.com/roach88/onvoc/internal/batch"
	"github.com/roach88/onvoc/internal/engine"
	"github.com/roach88/onvoc/internal/vocab"
)

// SourceCLI is the journal source of single commands.
const SourceCLI = "cli"

// NewAddCommand creates the add command.
func NewAddCommand(rootOpts *RootOptions) *cobra.Command {
	return &cobra.Command{
		Use:   "add <name> <category/subcategory>",
		Short: "Add a term with a fresh identifier",
		Long: `Add a term to a subcategory in both trees.

The term receives the next unused identifier and an empty comment. The
category and subcategory are created if they do not exist.

Example:
  onvoc add "Tremor" Disorders/Neurological_Disorders`,
		Args: cobra.ExactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			loc, err := vocab.ParseLocation(args[1])
			if err != nil {
				return WrapExitError(ExitFailure, "invalid location", err)
			}
			return runSingle(rootOpts, cmd, batch.Command{
				Text:     commandText(engine.OpAdd, args...),
				Op:       engine.OpAdd,
				Name:     args[0],
				Location: loc,
			})
		},
	}
}

// NewRemoveCommand creates the remove command.
func NewRemoveCommand(rootOpts *RootOptions) *cobra.Command {
	return &cobra.Command{
		Use:   "remove <category/subcategory/name>",
		Short: "Remove a term and retire its identifier",
		Long: `Remove a term from both trees.

Its identifier is recorded in the retired ledger and is never issued
again. The subcategory is kept even when it becomes empty.

Example:
  onvoc remove Disorders/Neurological_Disorders/Tremor`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			p, err := vocab.ParsePath(args[0])
			if err != nil {
				return WrapExitError(ExitFailure, "invalid path", err)
			}
			return runSingle(rootOpts, cmd, batch.Command{
				Text: commandText(engine.OpRemove, args...),
				Op:   engine.OpRemove,
				From: p,
			})
		},
	}
}

// NewMoveCommand creates the move command.
func NewMoveCommand(rootOpts *RootOptions) *cobra.Command {
	return &cobra.Command{
		Use:   "move <category/subcategory/name> <category/subcategory/name>",
		Short: "Move or rename a term, keeping its identifier",
		Long: `Move a term to another subcategory, rename it, or both.

The identifier and comment travel with the term. Moving a term onto its
own path succeeds without writing anything.

Examples:
  onvoc move Disorders/Neurological_Disorders/Tremor Disorders/Movement_Disorders/Tremor
  onvoc move Disorders/Neurological_Disorders/Ataxia "Disorders/Neurological_Disorders/Cerebellar Ataxia"`,
		Args: cobra.ExactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			from, err := vocab.ParsePath(args[0])
			if err != nil {
				return WrapExitError(ExitFailure, "invalid source path", err)
			}
			to, err := vocab.ParsePath(args[1])
			if err != nil {
				return WrapExitError(ExitFailure, "invalid destination path", err)
			}
			return runSingle(rootOpts, cmd, batch.Command{
				Text: commandText(engine.OpMove, args...),
				Op:   engine.OpMove,
				From: from,
				To:   to,
			})
		},
	}
}

// runSingle applies one command through the batch runner so single
// commands are journaled the same way as script lines.
func runSingle(opts *RootOptions, cmd *cobra.Command, c batch.Command) error {
	eng, err := opts.openEngine()
	if err != nil {
		return err
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

	runner := opts.newRunner(eng, j, false)
	report, err := runner.Apply(ctx, SourceCLI, []batch.Line{{Text: c.Text, Command: c}})
	if err != nil {
		return wrapTreeError(fmt.Sprintf("%s failed", c.Op), err)
	}

	res := report.Results[0]
	if res.Err != nil {
		return WrapExitError(ExitFailure, fmt.Sprintf("%s failed", c.Op), res.Err)
	}
	return opts.formatter(cmd).Success(res.Change, describeChange(res.Change))
}

// describeChange renders a committed change as one line of text.
func describeChange(c engine.Change) string {
	switch {
	case c.NoOp:
		return fmt.Sprintf("unchanged %s %s", c.Term.Path, c.Term.ID)
	case c.Op == engine.OpAdd:
		return fmt.Sprintf("added %s %s", c.Term.Path, c.Term.ID)
	case c.Op == engine.OpRemove:
		return fmt.Sprintf("removed %s %s (retired)", c.Term.Path, c.Term.ID)
	case c.Op == engine.OpMove:
		return fmt.Sprintf("moved %s -> %s %s", c.From, c.Term.Path, c.Term.ID)
	case c.Op == engine.OpSync:
		return fmt.Sprintf("assigned %s %s", c.Term.Path, c.Term.ID)
	}
	return fmt.Sprintf("%s %s %s", c.Op, c.Term.Path, c.Term.ID)
}

// commandText renders arguments as the equivalent batch line.
func commandText(op engine.Op, args ...string) string {
	text := string(op)
	for _, a := range args {
		text += " " + strconv.Quote(a)
	}
	return text
}
