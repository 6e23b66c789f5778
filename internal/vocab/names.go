package vocab

import (
	"errors"
	"fmt"
	"strings"

	"golang.org/x/text/unicode/norm"
)

// Reserved file names. They live in the vocabulary tree next to the
// subcategory files but are indexes, not subcategories.
const (
	// RetiredFile lists every identifier removed from the vocabulary.
	RetiredFile = "retired.tsv"
	// CategoriesIndexFile and SubcategoriesIndexFile are written by the
	// legacy initializer. Their identifiers count as issued.
	CategoriesIndexFile    = "Categories.tsv"
	SubcategoriesIndexFile = "Subcategories.tsv"
)

// File extensions of the two trees.
const (
	TermsExt      = ".txt"
	VocabularyExt = ".tsv"
)

// NormalizeName trims surrounding whitespace and applies Unicode NFC so that
// visually identical names compare equal.
func NormalizeName(s string) string {
	return norm.NFC.String(strings.TrimSpace(s))
}

// DisplayName converts a directory or file stem into its display form.
func DisplayName(stem string) string {
	return strings.ReplaceAll(stem, "_", " ")
}

// ValidateTermName reports whether a normalized name can be stored in both
// trees. Names occupy one line of a terms file and one field of a TSV row.
func ValidateTermName(name string) error {
	if name == "" {
		return errors.New("empty term name")
	}
	if strings.ContainsAny(name, "\t\r\n") {
		return fmt.Errorf("term name %q contains a tab or line break", name)
	}
	return nil
}

// ValidateLocation reports whether both segments can be used as a directory
// and a file stem in the two trees.
func ValidateLocation(loc Location) error {
	if err := validateSegment("category", loc.Category); err != nil {
		return err
	}
	if err := validateSegment("subcategory", loc.Subcategory); err != nil {
		return err
	}
	if loc.Subcategory+VocabularyExt == SubcategoriesIndexFile {
		return fmt.Errorf("subcategory name %q is reserved", loc.Subcategory)
	}
	return nil
}

func validateSegment(kind, s string) error {
	switch {
	case s == "":
		return fmt.Errorf("empty %s", kind)
	case s == "." || s == "..":
		return fmt.Errorf("%s %q is not a valid name", kind, s)
	case strings.HasPrefix(s, "."):
		return fmt.Errorf("%s %q must not start with a dot", kind, s)
	case strings.ContainsAny(s, "/\\\t\r\n"):
		return fmt.Errorf("%s %q contains a separator or control character", kind, s)
	}
	return nil
}
