package cli

import (
	"fmt"
	"strings"

	"github.com/spf13/cobra"

	"github.com/roach88/onvoc/internal/check"
)

// CheckResult is the output of the check command.
type CheckResult struct {
	Findings []check.Finding `json:"findings"`
	Errors   int             `json:"errors"`
	Warnings int             `json:"warnings"`
	Info     int             `json:"info"`
}

// CheckOptions holds flags for the check command.
type CheckOptions struct {
	*RootOptions
	Mappings string
}

// NewCheckCommand creates the check command.
func NewCheckCommand(rootOpts *RootOptions) *cobra.Command {
	opts := &CheckOptions{RootOptions: rootOpts}

	cmd := &cobra.Command{
		Use:   "check",
		Short: "Report drift and naming problems without changing anything",
		Long: `Read both trees and report every problem found:

  drift      categories, subcategories or terms present in one tree only (error)
  malformed  files that cannot be parsed (error)
  naming     category and subcategory names that break the naming rules (warning)
  shadowing  terms named like a category or subcategory (warning)
  homonym    the same term name in several subcategories (info)
  mapping    with --mappings, mapping rows whose vocabulary_id is unknown or
             retired, or whose vocabulary_term differs from the vocabulary (error)

Exit codes:
  0 - No error-severity findings
  1 - At least one error-severity finding
  2 - Command error`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runCheck(opts, cmd)
		},
	}

	cmd.Flags().StringVar(&opts.Mappings, "mappings", "", "also check the mapping files (*.tsv) below this directory")

	return cmd
}

func runCheck(opts *CheckOptions, cmd *cobra.Command) error {
	terms, vocabulary, err := opts.requireRoots()
	if err != nil {
		return err
	}

	var checkOpts []check.Option
	if opts.Mappings != "" {
		checkOpts = append(checkOpts, check.WithMappings(opts.Mappings))
	}
	report, err := check.Run(terms, vocabulary, opts.Config.Scheme(), checkOpts...)
	if err != nil {
		return WrapExitError(ExitCommandError, "check failed", err)
	}

	result := CheckResult{
		Findings: report.Findings,
		Errors:   report.Count(check.SeverityError),
		Warnings: report.Count(check.SeverityWarning),
		Info:     report.Count(check.SeverityInfo),
	}
	if result.Findings == nil {
		result.Findings = []check.Finding{}
	}

	var b strings.Builder
	for _, f := range result.Findings {
		fmt.Fprintln(&b, f.String())
	}
	fmt.Fprintf(&b, "%d errors, %d warnings, %d info", result.Errors, result.Warnings, result.Info)

	f := opts.formatter(cmd)
	if !report.HasErrors() {
		return f.Success(result, b.String())
	}

	msg := fmt.Sprintf("%d error findings", result.Errors)
	if err := f.Partial(result, "CHECK_FAILED", msg, b.String()); err != nil {
		return err
	}
	return reported(NewExitError(ExitFailure, msg))
}
