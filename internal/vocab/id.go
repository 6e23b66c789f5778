package vocab

import (
	"fmt"
	"strconv"
	"strings"
)

// IDScheme describes the identifier format: Prefix, a colon, then exactly
// Width decimal digits.
type IDScheme struct {
	Prefix string
	Width  int
}

// DefaultIDScheme produces identifiers like ONVOC:0000001.
var DefaultIDScheme = IDScheme{Prefix: "ONVOC", Width: 7}

// Validate checks the scheme itself.
func (s IDScheme) Validate() error {
	if s.Prefix == "" || strings.ContainsAny(s.Prefix, ": \t\r\n") {
		return fmt.Errorf("invalid identifier prefix %q", s.Prefix)
	}
	if s.Width < 1 || s.Width > 18 {
		return fmt.Errorf("identifier width %d out of range [1,18]", s.Width)
	}
	return nil
}

// Max returns the largest number representable in Width digits.
func (s IDScheme) Max() int64 {
	m := int64(1)
	for i := 0; i < s.Width; i++ {
		m *= 10
	}
	return m - 1
}

// Format renders n as an identifier. n must be in [1, Max()].
func (s IDScheme) Format(n int64) (string, error) {
	if n < 1 {
		return "", fmt.Errorf("identifier number %d must be positive", n)
	}
	if n > s.Max() {
		return "", fmt.Errorf("identifier space exhausted: %d does not fit in %d digits", n, s.Width)
	}
	return fmt.Sprintf("%s:%0*d", s.Prefix, s.Width, n), nil
}

// Parse extracts the number from an identifier, rejecting other prefixes
// and widths.
func (s IDScheme) Parse(id string) (int64, error) {
	digits, ok := strings.CutPrefix(id, s.Prefix+":")
	if !ok {
		return 0, fmt.Errorf("identifier %q does not start with %s:", id, s.Prefix)
	}
	if len(digits) != s.Width {
		return 0, fmt.Errorf("identifier %q must have exactly %d digits", id, s.Width)
	}
	for _, r := range digits {
		if r < '0' || r > '9' {
			return 0, fmt.Errorf("identifier %q has non-digit characters", id)
		}
	}
	n, err := strconv.ParseInt(digits, 10, 64)
	if err != nil {
		return 0, fmt.Errorf("identifier %q: %w", id, err)
	}
	if n < 1 {
		return 0, fmt.Errorf("identifier %q must be positive", id)
	}
	return n, nil
}
