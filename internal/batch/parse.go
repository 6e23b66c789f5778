package batch

import (
	"bufio"
	"errors"
	"fmt"
	"io"
	"strings"

	"github.com/roach88/onvoc/internal/engine"
	"github.com/roach88/onvoc/internal/vocab"
)

// Command is one parsed operation line.
type Command struct {
	Line int       `json:"line"`
	Text string    `json:"text"`
	Op   engine.Op `json:"op"`

	// add
	Name     string         `json:"name,omitempty"`
	Location vocab.Location `json:"-"`

	// remove and move
	From vocab.Path `json:"-"`

	// move
	To vocab.Path `json:"-"`
}

// Line is a non-blank, non-comment script line: either a Command or the
// ParseError it produced.
type Line struct {
	Number  int
	Text    string
	Command Command
	Err     error
}

// arity is the number of quoted arguments each keyword takes.
var arity = map[engine.Op]int{
	engine.OpAdd:    2,
	engine.OpRemove: 1,
	engine.OpMove:   2,
}

// MaxLineLength is the longest script line accepted. Longer lines are
// reported as parse errors for that line only.
const MaxLineLength = 1024 * 1024

// Parse splits a script into lines. Blank and comment lines are dropped; a
// line that does not match the grammar, or is longer than MaxLineLength, is
// returned with a vocab.CodeParseError in Err. Only read failures are
// returned as an error, together with the lines read before the failure.
func Parse(r io.Reader) ([]Line, error) {
	var lines []Line
	br := bufio.NewReaderSize(r, 64*1024)
	for n := 1; ; n++ {
		text, overlong, err := readLine(br)
		if errors.Is(err, io.EOF) {
			return lines, nil
		}
		if err != nil {
			return lines, fmt.Errorf("read script: %w", err)
		}
		if overlong {
			lines = append(lines, Line{
				Number: n,
				Text:   text,
				Err:    vocab.NewParseError(n, text, fmt.Sprintf("line longer than %d bytes", MaxLineLength)),
			})
			continue
		}
		text = strings.TrimRight(text, "\r")
		cmd, ok, err := ParseLine(n, text)
		if !ok {
			continue
		}
		lines = append(lines, Line{Number: n, Text: text, Command: cmd, Err: err})
	}
}

// overlongPrefix is how much of an overlong line is kept for the report.
const overlongPrefix = 64

// readLine reads one line without its terminator. Past MaxLineLength the
// rest of the line is discarded and only a short prefix is returned.
func readLine(br *bufio.Reader) (text string, overlong bool, err error) {
	var buf []byte
	for {
		chunk, isPrefix, err := br.ReadLine()
		if err != nil {
			return string(buf), overlong, err
		}
		if !overlong {
			buf = append(buf, chunk...)
			if len(buf) > MaxLineLength {
				overlong = true
				buf = append([]byte(nil), buf[:overlongPrefix]...)
			}
		}
		if !isPrefix {
			return string(buf), overlong, nil
		}
	}
}

// ParseLine parses one line numbered n. ok is false for blank and comment
// lines, which carry no command and no error.
func ParseLine(n int, text string) (cmd Command, ok bool, err error) {
	trimmed := strings.TrimSpace(text)
	if trimmed == "" || strings.HasPrefix(trimmed, "#") {
		return Command{}, false, nil
	}

	keyword, rest := trimmed, ""
	if i := strings.IndexAny(trimmed, " \t"); i >= 0 {
		keyword, rest = trimmed[:i], trimmed[i:]
	}
	op := engine.Op(keyword)
	want, known := arity[op]
	if !known {
		return Command{}, true, vocab.NewParseError(n, text, fmt.Sprintf("unknown operation %q", keyword))
	}

	args, err := splitQuoted(rest)
	if err != nil {
		return Command{}, true, vocab.NewParseError(n, text, err.Error())
	}
	if len(args) != want {
		return Command{}, true, vocab.NewParseError(n, text,
			fmt.Sprintf("%s takes %d quoted argument(s), got %d", op, want, len(args)))
	}

	cmd = Command{Line: n, Text: text, Op: op}
	switch op {
	case engine.OpAdd:
		cmd.Name = vocab.NormalizeName(args[0])
		if err := vocab.ValidateTermName(cmd.Name); err != nil {
			return Command{}, true, vocab.NewParseError(n, text, err.Error())
		}
		cmd.Location, err = vocab.ParseLocation(args[1])
	case engine.OpRemove:
		cmd.From, err = vocab.ParsePath(args[0])
	case engine.OpMove:
		cmd.From, err = vocab.ParsePath(args[0])
		if err == nil {
			cmd.To, err = vocab.ParsePath(args[1])
		}
	}
	if err != nil {
		return Command{}, true, vocab.NewParseError(n, text, reason(err))
	}
	return cmd, true, nil
}

// splitQuoted reads a whitespace-separated sequence of double-quoted strings.
func splitQuoted(s string) ([]string, error) {
	var args []string
	i := 0
	for {
		for i < len(s) && (s[i] == ' ' || s[i] == '\t') {
			i++
		}
		if i == len(s) {
			return args, nil
		}
		if s[i] != '"' {
			return nil, fmt.Errorf("expected '\"' at column %d", i+1)
		}
		i++

		var b strings.Builder
		closed := false
		for i < len(s) {
			c := s[i]
			i++
			if c == '"' {
				closed = true
				break
			}
			if c == '\\' {
				if i == len(s) || (s[i] != '"' && s[i] != '\\') {
					return nil, fmt.Errorf("invalid escape at column %d", i)
				}
				c = s[i]
				i++
			}
			b.WriteByte(c)
		}
		if !closed {
			return nil, fmt.Errorf("unterminated quoted argument")
		}
		if i < len(s) && s[i] != ' ' && s[i] != '\t' {
			return nil, fmt.Errorf("expected whitespace after argument at column %d", i+1)
		}
		args = append(args, b.String())
	}
}

// reason extracts the bare message from a domain error.
func reason(err error) string {
	var verr *vocab.Error
	if errors.As(err, &verr) {
		return verr.Message
	}
	return err.Error()
}
