package harness

import (
	"bytes"
	"fmt"
	"os"
	"strings"

	"gopkg.in/yaml.v3"

	"github.com/roach88/onvoc/internal/journal"
	"github.com/roach88/onvoc/internal/vocab"
)

// Scenario defines one end-to-end run over a seeded tree pair.
type Scenario struct {
	// Name uniquely identifies this scenario and names its golden file.
	Name string `yaml:"name"`

	// Description explains what this scenario validates.
	Description string `yaml:"description"`

	// RunID is the fixed run id stamped on journal entries.
	// If empty, defaults to "test-run-default".
	RunID string `yaml:"run_id,omitempty"`

	// Seed lists the initial files of both trees.
	Seed map[string]string `yaml:"seed"`

	// OpenError, when set, is the error code the engine must report while
	// loading the seeded trees. Flow must then be empty.
	OpenError string `yaml:"open_error,omitempty"`

	// Setup contains batch lines applied before the flow. They must succeed.
	Setup []string `yaml:"setup,omitempty"`

	// Flow contains the batch lines under test.
	Flow []FlowStep `yaml:"flow,omitempty"`

	// Assertions validate the final trees and journal.
	Assertions []Assertion `yaml:"assertions"`
}

// FlowStep is one batch line and its expected outcome.
type FlowStep struct {
	// Op is the batch line, e.g. add "Tremor" "Disorders/Neurological_Disorders".
	Op string `yaml:"op"`

	// Expect specifies the expected outcome. If nil, success is expected.
	Expect *ExpectClause `yaml:"expect,omitempty"`
}

// ExpectClause specifies the expected outcome of a flow step.
type ExpectClause struct {
	// Outcome is ok, noop or error.
	Outcome string `yaml:"outcome"`

	// Code is the expected error code when Outcome is error.
	Code string `yaml:"code,omitempty"`

	// VocabularyID is the expected identifier of the affected term.
	VocabularyID string `yaml:"vocabulary_id,omitempty"`
}

// Assertion validates the final state.
type Assertion struct {
	// Type specifies the assertion type:
	// - "term_exists": Path is live (optionally with VocabularyID and Comment)
	// - "term_absent": Path is not live
	// - "file_equals": File has exactly Content
	// - "file_absent": File does not exist
	// - "journal_count": Count entries match Op and Outcome
	// - "trees_agree": both trees load without drift
	Type string `yaml:"type"`

	// Path is a term path (term_exists, term_absent).
	Path string `yaml:"path,omitempty"`

	// VocabularyID and Comment are optional checks for term_exists.
	VocabularyID string  `yaml:"vocabulary_id,omitempty"`
	Comment      *string `yaml:"comment,omitempty"`

	// File is a seed-style path such as vocabulary/retired.tsv.
	File string `yaml:"file,omitempty"`

	// Content is the exact expected file content (file_equals).
	Content *string `yaml:"content,omitempty"`

	// Op and Outcome filter journal entries (journal_count). Empty matches all.
	Op      string `yaml:"op,omitempty"`
	Outcome string `yaml:"outcome,omitempty"`

	// Count is the expected number of matching entries (journal_count).
	Count int `yaml:"count,omitempty"`
}

// Assertion type constants.
const (
	AssertTermExists   = "term_exists"
	AssertTermAbsent   = "term_absent"
	AssertFileEquals   = "file_equals"
	AssertFileAbsent   = "file_absent"
	AssertJournalCount = "journal_count"
	AssertTreesAgree   = "trees_agree"
)

// LoadScenario reads and parses a scenario YAML file.
// Returns an error if the file doesn't exist, is malformed,
// contains unknown fields (typos), or is missing required fields.
func LoadScenario(path string) (*Scenario, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read scenario file: %w", err)
	}

	// Strict field validation catches typos like "assertion:" vs "assertions:".
	var scenario Scenario
	decoder := yaml.NewDecoder(bytes.NewReader(data))
	decoder.KnownFields(true)
	if err := decoder.Decode(&scenario); err != nil {
		return nil, fmt.Errorf("failed to parse YAML: %w", err)
	}

	if err := validateScenario(&scenario); err != nil {
		return nil, fmt.Errorf("invalid scenario: %w", err)
	}

	return &scenario, nil
}

// validateScenario checks that required fields are present and valid.
func validateScenario(s *Scenario) error {
	if s.Name == "" {
		return fmt.Errorf("name is required")
	}

	if s.Description == "" {
		return fmt.Errorf("description is required")
	}

	if len(s.Assertions) == 0 {
		return fmt.Errorf("assertions list is required and must be non-empty")
	}

	for key := range s.Seed {
		if !strings.HasPrefix(key, "terms/") && !strings.HasPrefix(key, "vocabulary/") {
			return fmt.Errorf("seed key %q must start with terms/ or vocabulary/", key)
		}
	}

	if s.OpenError != "" && (len(s.Flow) > 0 || len(s.Setup) > 0) {
		return fmt.Errorf("open_error scenarios cannot have setup or flow steps")
	}

	for i, line := range s.Setup {
		if strings.ContainsAny(line, "\r\n") {
			return fmt.Errorf("setup[%d]: must be a single line", i)
		}
	}

	for i, step := range s.Flow {
		if strings.TrimSpace(step.Op) == "" {
			return fmt.Errorf("flow[%d]: op is required", i)
		}
		if strings.ContainsAny(step.Op, "\r\n") {
			return fmt.Errorf("flow[%d]: op must be a single line", i)
		}
		if strings.HasPrefix(strings.TrimSpace(step.Op), "#") {
			return fmt.Errorf("flow[%d]: op cannot be a comment", i)
		}
		if step.Expect != nil {
			if err := validateExpect(step.Expect); err != nil {
				return fmt.Errorf("flow[%d].expect: %w", i, err)
			}
		}
	}

	for i, assertion := range s.Assertions {
		if err := validateAssertion(i, &assertion); err != nil {
			return err
		}
	}

	return nil
}

func validateExpect(e *ExpectClause) error {
	switch journal.Outcome(e.Outcome) {
	case journal.OutcomeOK, journal.OutcomeNoOp:
		if e.Code != "" {
			return fmt.Errorf("code is only valid with outcome error")
		}
	case journal.OutcomeError:
		if e.Code == "" {
			return fmt.Errorf("code is required with outcome error")
		}
	default:
		return fmt.Errorf("outcome must be ok, noop or error, got %q", e.Outcome)
	}
	return nil
}

// validateAssertion validates a single assertion based on its type.
func validateAssertion(index int, a *Assertion) error {
	if a.Type == "" {
		return fmt.Errorf("assertions[%d]: type is required", index)
	}

	switch a.Type {
	case AssertTermExists, AssertTermAbsent:
		if _, err := vocab.ParsePath(a.Path); err != nil {
			return fmt.Errorf("assertions[%d]: %s needs a valid path: %w", index, a.Type, err)
		}
	case AssertFileEquals:
		if a.File == "" {
			return fmt.Errorf("assertions[%d]: file is required for file_equals", index)
		}
		if a.Content == nil {
			return fmt.Errorf("assertions[%d]: content is required for file_equals", index)
		}
	case AssertFileAbsent:
		if a.File == "" {
			return fmt.Errorf("assertions[%d]: file is required for file_absent", index)
		}
	case AssertJournalCount:
		if a.Count < 0 {
			return fmt.Errorf("assertions[%d]: count must be non-negative for journal_count", index)
		}
	case AssertTreesAgree:
	default:
		return fmt.Errorf("assertions[%d]: unknown assertion type %q", index, a.Type)
	}

	return nil
}
