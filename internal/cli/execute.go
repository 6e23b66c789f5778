package cli

import (
	"errors"
	"io"
	"slices"
)

// Execute runs the CLI with args and returns the process exit code.
//
// Errors not already reported by the command are written once: as a JSON
// error response on stdout with --format json, as text on stderr otherwise.
// Errors that are not ExitErrors come from cobra itself (unknown flags,
// wrong argument counts) and map to ExitCommandError.
func Execute(args []string, stdout, stderr io.Writer) int {
	opts := &RootOptions{}
	cmd := newRootCommand(opts)
	cmd.SetArgs(args)
	cmd.SetOut(stdout)
	cmd.SetErr(stderr)

	err := cmd.Execute()
	if err == nil {
		return ExitSuccess
	}

	var exitErr *ExitError
	isExit := errors.As(err, &exitErr)
	if !isExit || !exitErr.Reported {
		format := opts.Format
		if !slices.Contains(ValidFormats, format) {
			format = "text"
		}
		f := &OutputFormatter{Format: format, Writer: stdout, ErrWriter: stderr, Verbose: opts.Verbose}
		_ = f.Failure(err)
	}

	if !isExit {
		return ExitCommandError
	}
	return exitErr.Code
}
