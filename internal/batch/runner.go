package batch

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"

	"github.com/roach88/onvoc/internal/engine"
	"github.com/roach88/onvoc/internal/journal"
	"github.com/roach88/onvoc/internal/vocab"
)

// Applier executes single operations. Implemented by *engine.Engine.
type Applier interface {
	Add(name string, loc vocab.Location) (engine.Change, error)
	Remove(p vocab.Path) (engine.Change, error)
	Move(from, to vocab.Path) (engine.Change, error)
}

// Recorder journals attempted operations. Implemented by *journal.Journal.
type Recorder interface {
	Record(ctx context.Context, e journal.Entry) (int64, error)
}

// Result is the outcome of one script line.
type Result struct {
	Line   int           `json:"line"`
	Text   string        `json:"text"`
	Op     engine.Op     `json:"op,omitempty"`
	Change engine.Change `json:"change"`
	Err    error         `json:"-"`

	cmd Command
}

// Failed reports whether the line was rejected.
func (r Result) Failed() bool {
	return r.Err != nil
}

// Entry converts the result to a journal entry.
func (r Result) Entry(runID, source string) journal.Entry {
	e := journal.Entry{
		RunID:   runID,
		Source:  source,
		Line:    r.Line,
		Op:      string(r.Op),
		Outcome: journal.OutcomeOK,
	}
	if e.Op == "" {
		e.Op = "invalid"
	}

	switch r.Op {
	case engine.OpAdd:
		e.To = vocab.Path{Location: r.cmd.Location, Name: r.cmd.Name}.String()
	case engine.OpRemove:
		e.From = r.cmd.From.String()
	case engine.OpMove:
		e.From = r.cmd.From.String()
		e.To = r.cmd.To.String()
	}
	e.VocabularyID = r.Change.Term.ID

	if r.Change.NoOp {
		e.Outcome = journal.OutcomeNoOp
	}
	if r.Err != nil {
		e.Outcome = journal.OutcomeError
		e.ErrorMessage = r.Err.Error()
		if code, ok := vocab.CodeOf(r.Err); ok {
			e.ErrorCode = string(code)
		}
	}
	return e
}

// Report summarizes a run.
type Report struct {
	RunID   string   `json:"run_id,omitempty"`
	Source  string   `json:"source"`
	Results []Result `json:"results"`

	// Stopped is set when the run ended at a failed line before the end of
	// the script.
	Stopped bool `json:"stopped,omitempty"`
}

// Failures returns the failed results in line order.
func (r *Report) Failures() []Result {
	var out []Result
	for _, res := range r.Results {
		if res.Failed() {
			out = append(out, res)
		}
	}
	return out
}

// OK reports whether every line succeeded.
func (r *Report) OK() bool {
	return len(r.Failures()) == 0
}

// Runner applies scripts through an Applier.
type Runner struct {
	applier     Applier
	recorder    Recorder
	runIDs      journal.RunIDGenerator
	logger      *slog.Logger
	stopOnError bool
}

// Option configures a Runner.
type Option func(*Runner)

// WithRecorder journals every line. Default: no journal.
func WithRecorder(rec Recorder) Option {
	return func(r *Runner) {
		r.recorder = rec
	}
}

// WithRunIDGenerator sets the run id source. Default: UUIDv7.
func WithRunIDGenerator(g journal.RunIDGenerator) Option {
	return func(r *Runner) {
		r.runIDs = g
	}
}

// WithLogger sets the logger. Default: discard.
func WithLogger(logger *slog.Logger) Option {
	return func(r *Runner) {
		r.logger = logger
	}
}

// WithStopOnError ends the run at the first failed line. Default: continue.
func WithStopOnError(stop bool) Option {
	return func(r *Runner) {
		r.stopOnError = stop
	}
}

// NewRunner creates a Runner over a.
func NewRunner(a Applier, opts ...Option) *Runner {
	r := &Runner{
		applier: a,
		runIDs:  journal.UUIDv7Generator{},
		logger:  slog.New(slog.NewTextHandler(io.Discard, nil)),
	}
	for _, opt := range opts {
		opt(r)
	}
	return r
}

// Run parses src and applies it. source names the script in the report and
// journal.
//
// Domain failures (parse errors, duplicates, missing terms, invalid paths)
// are reported per line and never returned. The returned error is fatal:
// an unreadable script, a failed write, or a failed journal insert. The
// report then covers every line processed before the failure; lines read
// before a read failure are still applied.
func (r *Runner) Run(ctx context.Context, source string, src io.Reader) (*Report, error) {
	lines, readErr := Parse(src)
	report, err := r.Apply(ctx, source, lines)
	if err != nil {
		return report, err
	}
	return report, readErr
}

// Apply applies already parsed lines in order.
func (r *Runner) Apply(ctx context.Context, source string, lines []Line) (*Report, error) {
	report := &Report{Source: source, Results: make([]Result, 0, len(lines))}
	if r.recorder != nil {
		report.RunID = r.runIDs.Generate()
	}

	for i, line := range lines {
		res := r.applyLine(line)
		report.Results = append(report.Results, res)

		if r.recorder != nil {
			if _, err := r.recorder.Record(ctx, res.Entry(report.RunID, source)); err != nil {
				return report, fmt.Errorf("journal line %d: %w", res.Line, err)
			}
		}

		if res.Err != nil && !vocab.IsDomain(res.Err) {
			r.logger.Error("batch aborted", "source", source, "line", res.Line, "error", res.Err)
			return report, fmt.Errorf("line %d: %w", res.Line, res.Err)
		}
		if res.Failed() {
			r.logger.Warn("batch line failed", "source", source, "line", res.Line, "error", res.Err)
			if r.stopOnError && i < len(lines)-1 {
				report.Stopped = true
				break
			}
		}
	}

	r.logger.Info("batch finished",
		"source", source,
		"lines", len(report.Results),
		"failed", len(report.Failures()),
	)
	return report, nil
}

func (r *Runner) applyLine(line Line) Result {
	res := Result{Line: line.Number, Text: line.Text, Op: line.Command.Op, cmd: line.Command}
	if line.Err != nil {
		res.Err = line.Err
		return res
	}

	cmd := line.Command
	var err error
	switch cmd.Op {
	case engine.OpAdd:
		res.Change, err = r.applier.Add(cmd.Name, cmd.Location)
	case engine.OpRemove:
		res.Change, err = r.applier.Remove(cmd.From)
	case engine.OpMove:
		res.Change, err = r.applier.Move(cmd.From, cmd.To)
	default:
		err = vocab.NewParseError(line.Number, line.Text, fmt.Sprintf("unsupported operation %q", cmd.Op))
	}
	if err != nil {
		res.Err = attachLine(err, line.Number)
	}
	return res
}

// attachLine stamps a domain error with the script line that caused it.
func attachLine(err error, n int) error {
	var verr *vocab.Error
	if !errors.As(err, &verr) {
		return err
	}
	stamped := *verr
	stamped.Line = n
	return &stamped
}
