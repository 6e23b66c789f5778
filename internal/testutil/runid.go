package testutil

// FixedRunID generates the same run id every time.
//
// Journal entries written with a FixedRunID are byte-identical across test
// runs. If id is empty, Generate() returns "test-run-default".
//
// Thread-safety: FixedRunID is stateless and safe for concurrent use.
type FixedRunID struct {
	id string
}

// NewFixedRunID creates a new fixed run id generator.
func NewFixedRunID(id string) *FixedRunID {
	if id == "" {
		id = "test-run-default"
	}
	return &FixedRunID{id: id}
}

// Generate returns the fixed run id.
func (g *FixedRunID) Generate() string {
	return g.id
}
