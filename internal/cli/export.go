package cli

import (
	"bytes"
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/roach88/onvoc/internal/export"
)

// ExportOptions holds flags for the export command.
type ExportOptions struct {
	*RootOptions
	Output    string
	SKOS      bool
	Namespace string
	Label     string
}

// NewExportCommand creates the export command.
func NewExportCommand(rootOpts *RootOptions) *cobra.Command {
	opts := &ExportOptions{RootOptions: rootOpts}

	cmd := &cobra.Command{
		Use:   "export",
		Short: "Export the vocabulary as a JSON tree or SKOS",
		Long: `Export categories, subcategories and terms as a JSON tree.

Categories and subcategories are sorted and labelled with their display
names; terms keep file order and carry their identifier and comment. The
tree is written to standard output unless --output is given.

With --skos the vocabulary is written as a SKOS concept scheme in Turtle:
categories are top concepts, terms are concepts named after their
identifier, and retired identifiers are deprecated concepts.

Examples:
  onvoc export -o catalog.json
  onvoc export --skos --namespace https://example.org/onvoc# -o onvoc.ttl`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runExport(opts, cmd)
		},
	}

	cmd.Flags().StringVarP(&opts.Output, "output", "o", "", "output file (default stdout)")
	cmd.Flags().BoolVar(&opts.SKOS, "skos", false, "write SKOS Turtle instead of JSON")
	cmd.Flags().StringVar(&opts.Namespace, "namespace", export.DefaultNamespace, "concept IRI namespace (with --skos)")
	cmd.Flags().StringVar(&opts.Label, "label", export.DefaultSchemeLabel, "concept scheme label (with --skos)")

	return cmd
}

func runExport(opts *ExportOptions, cmd *cobra.Command) error {
	s, err := opts.loadStore()
	if err != nil {
		return err
	}

	var buf bytes.Buffer
	if opts.SKOS {
		err = export.WriteSKOS(&buf, s, export.SKOSOptions{Namespace: opts.Namespace, Label: opts.Label})
	} else {
		err = export.Write(&buf, s)
	}
	if err != nil {
		return WrapExitError(ExitCommandError, "failed to encode export", err)
	}

	if opts.Output == "" {
		_, err := cmd.OutOrStdout().Write(buf.Bytes())
		return err
	}

	if err := os.WriteFile(opts.Output, buf.Bytes(), 0o644); err != nil {
		return WrapExitError(ExitCommandError, "failed to write export", err)
	}
	data := map[string]any{"output": opts.Output, "terms": s.Len()}
	return opts.formatter(cmd).Success(data, fmt.Sprintf("wrote %d terms to %s", s.Len(), opts.Output))
}
