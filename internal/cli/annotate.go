package cli

import (
	"fmt"
	"strings"

	"github.com/spf13/cobra"

	"github.com/roach88/onvoc/internal/annotate"
	"github.com/roach88/onvoc/internal/store"
)

// AnnotateOptions holds flags for the annotate command.
type AnnotateOptions struct {
	*RootOptions
	Pattern string
}

// AnnotateResult is the output of the annotate command.
type AnnotateResult struct {
	Files []annotate.FileResult `json:"files"`
}

// NewAnnotateCommand creates the annotate command.
func NewAnnotateCommand(rootOpts *RootOptions) *cobra.Command {
	opts := &AnnotateOptions{RootOptions: rootOpts}

	cmd := &cobra.Command{
		Use:   "annotate <folder>...",
		Short: "Write vocabulary identifiers next to term-list files",
		Long: `Annotate term-list files with vocabulary identifiers.

For every file under each folder matching --pattern, a sibling .tsv file
is written with the header "term<TAB>vocabulary_id" and one row per
non-empty line. The identifier is left blank when the line does not match
a vocabulary term exactly.

Only the vocabulary tree is read.

Examples:
  onvoc annotate ./datasets
  onvoc annotate --pattern '**/{labels,tags}.txt' ./datasets ./extra`,
		Args: cobra.MinimumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return runAnnotate(opts, args, cmd)
		},
	}

	cmd.Flags().StringVar(&opts.Pattern, "pattern", annotate.DefaultPattern, "glob selecting input files in each folder")

	return cmd
}

func runAnnotate(opts *AnnotateOptions, folders []string, cmd *cobra.Command) error {
	vocabulary, err := opts.requireVocabulary()
	if err != nil {
		return err
	}

	tree, err := store.ReadVocabulary(vocabulary, opts.Config.Scheme())
	if err != nil {
		return wrapTreeError("failed to read vocabulary", err)
	}

	a, err := annotate.New(annotate.NewIndex(tree),
		annotate.WithPattern(opts.Pattern),
		annotate.WithLogger(opts.Logger),
	)
	if err != nil {
		return WrapExitError(ExitCommandError, "invalid annotate options", err)
	}

	result := AnnotateResult{Files: []annotate.FileResult{}}
	for _, folder := range folders {
		files, err := a.AnnotateFolder(folder)
		if err != nil {
			return WrapExitError(ExitCommandError, "annotate failed", err)
		}
		result.Files = append(result.Files, files...)
	}

	var b strings.Builder
	for _, f := range result.Files {
		fmt.Fprintf(&b, "%s: %d of %d terms matched\n", f.Output, f.Matched, f.Terms)
	}
	fmt.Fprintf(&b, "%d files annotated", len(result.Files))
	return opts.formatter(cmd).Success(result, b.String())
}
