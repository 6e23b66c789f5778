// Package pipeline drives the external term-mapping tool over a folder of
// input files.
//
// The tool is a black box reached through its command line:
//
//	<tool> --input <file> --output <file> --ontology <file> --threshold <t>
//
// One invocation runs per input file, a bounded number at a time. Output
// files mirror the input folder layout with a .tsv extension.
package pipeline

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"math"
	"os"
	"os/exec"
	"path/filepath"
	"slices"
	"strconv"
	"strings"

	"github.com/bmatcuk/doublestar/v4"
	"golang.org/x/sync/errgroup"
)

// DefaultPattern selects every .txt file below the input folder.
const DefaultPattern = "**/*.txt"

// Config describes one mapping run.
type Config struct {
	Tool      string
	Ontology  string
	Threshold float64

	// Jobs bounds concurrent invocations. Values below 1 mean 1.
	Jobs int

	// Pattern selects input files relative to the input folder.
	Pattern string
}

// Validate checks the configuration before any invocation.
func (c Config) Validate() error {
	var errs []error
	if c.Tool == "" {
		errs = append(errs, errors.New("tool is required"))
	}
	if c.Ontology == "" {
		errs = append(errs, errors.New("ontology is required"))
	}
	if math.IsNaN(c.Threshold) || c.Threshold < 0 || c.Threshold > 1 {
		errs = append(errs, fmt.Errorf("threshold %v outside [0, 1]", c.Threshold))
	}
	if c.Pattern != "" && !doublestar.ValidatePattern(c.Pattern) {
		errs = append(errs, fmt.Errorf("invalid pattern %q", c.Pattern))
	}
	return errors.Join(errs...)
}

// Args returns the tool arguments for one file.
func (c Config) Args(input, output string) []string {
	return []string{
		"--input", input,
		"--output", output,
		"--ontology", c.Ontology,
		"--threshold", strconv.FormatFloat(c.Threshold, 'f', -1, 64),
	}
}

// CommandRunner executes the tool. ExecRunner is the real implementation;
// tests substitute a fake.
type CommandRunner interface {
	Run(ctx context.Context, name string, args []string) (output []byte, err error)
}

// ExecRunner runs commands with os/exec, capturing combined output.
type ExecRunner struct{}

// Run implements CommandRunner.
func (ExecRunner) Run(ctx context.Context, name string, args []string) ([]byte, error) {
	cmd := exec.CommandContext(ctx, name, args...)
	var out bytes.Buffer
	cmd.Stdout = &out
	cmd.Stderr = &out
	err := cmd.Run()
	return out.Bytes(), err
}

// FileResult is the outcome of one invocation.
type FileResult struct {
	Input  string `json:"input"`
	Output string `json:"output"`
	Error  string `json:"error,omitempty"`
}

// Failed reports whether the invocation failed.
func (r FileResult) Failed() bool {
	return r.Error != ""
}

// Result lists every invocation in input order.
type Result struct {
	Files []FileResult `json:"files"`
}

// Failures returns the failed invocations.
func (r *Result) Failures() []FileResult {
	var out []FileResult
	for _, f := range r.Files {
		if f.Failed() {
			out = append(out, f)
		}
	}
	return out
}

// Driver runs the tool over folders.
type Driver struct {
	cfg    Config
	runner CommandRunner
	logger *slog.Logger
}

// Option configures a Driver.
type Option func(*Driver)

// WithRunner replaces the command runner. Default: ExecRunner.
func WithRunner(r CommandRunner) Option {
	return func(d *Driver) {
		d.runner = r
	}
}

// WithLogger sets the logger. Default: discard.
func WithLogger(logger *slog.Logger) Option {
	return func(d *Driver) {
		d.logger = logger
	}
}

// New validates cfg and returns a Driver.
func New(cfg Config, opts ...Option) (*Driver, error) {
	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("invalid pipeline config: %w", err)
	}
	if cfg.Pattern == "" {
		cfg.Pattern = DefaultPattern
	}
	if cfg.Jobs < 1 {
		cfg.Jobs = 1
	}
	d := &Driver{
		cfg:    cfg,
		runner: ExecRunner{},
		logger: slog.New(slog.NewTextHandler(io.Discard, nil)),
	}
	for _, opt := range opts {
		opt(d)
	}
	return d, nil
}

// Run invokes the tool once per matching file under inputDir. Tool failures
// are collected per file; the returned error is reserved for problems that
// stop the run (unreadable input folder, uncreatable output folder,
// cancellation).
func (d *Driver) Run(ctx context.Context, inputDir, outputDir string) (*Result, error) {
	info, err := os.Stat(inputDir)
	if err != nil {
		return nil, fmt.Errorf("input folder: %w", err)
	}
	if !info.IsDir() {
		return nil, fmt.Errorf("input folder %s is not a directory", inputDir)
	}

	matches, err := doublestar.Glob(os.DirFS(inputDir), d.cfg.Pattern, doublestar.WithFilesOnly())
	if err != nil {
		return nil, fmt.Errorf("glob %s: %w", inputDir, err)
	}
	slices.Sort(matches)

	result := &Result{Files: make([]FileResult, len(matches))}
	for i, rel := range matches {
		out := strings.TrimSuffix(rel, filepath.Ext(rel)) + ".tsv"
		result.Files[i] = FileResult{
			Input:  filepath.Join(inputDir, filepath.FromSlash(rel)),
			Output: filepath.Join(outputDir, filepath.FromSlash(out)),
		}
	}

	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(d.cfg.Jobs)
	for i := range result.Files {
		f := &result.Files[i]
		g.Go(func() error {
			if err := os.MkdirAll(filepath.Dir(f.Output), 0o755); err != nil {
				return fmt.Errorf("create output folder: %w", err)
			}
			if err := gctx.Err(); err != nil {
				return err
			}

			d.logger.Debug("invoking mapping tool", "tool", d.cfg.Tool, "input", f.Input, "output", f.Output)
			output, err := d.runner.Run(gctx, d.cfg.Tool, d.cfg.Args(f.Input, f.Output))
			if err != nil {
				f.Error = describe(err, output)
				d.logger.Warn("mapping failed", "input", f.Input, "error", f.Error)
				return nil
			}
			d.logger.Info("file mapped", "input", f.Input, "output", f.Output)
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return result, err
	}
	return result, nil
}

func describe(err error, output []byte) string {
	msg := err.Error()
	if tail := strings.TrimSpace(string(output)); tail != "" {
		if i := strings.LastIndexByte(tail, '\n'); i >= 0 {
			tail = tail[i+1:]
		}
		msg += ": " + tail
	}
	return msg
}
