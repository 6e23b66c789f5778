package vocab

import "strings"

// Location names one subcategory: a category directory and the list file
// inside it.
type Location struct {
	Category    string
	Subcategory string
}

// String returns "Category/Subcategory".
func (l Location) String() string {
	return l.Category + "/" + l.Subcategory
}

// MarshalText renders the location as "Category/Subcategory".
func (l Location) MarshalText() ([]byte, error) {
	return []byte(l.String()), nil
}

// Path is the identity of a term.
type Path struct {
	Location
	Name string
}

// String returns "Category/Subcategory/Name".
func (p Path) String() string {
	return p.Location.String() + "/" + p.Name
}

// MarshalText renders the path as "Category/Subcategory/Name".
func (p Path) MarshalText() ([]byte, error) {
	return []byte(p.String()), nil
}

// Term is one live vocabulary entry as seen by callers.
type Term struct {
	Path    Path   `json:"path"`
	ID      string `json:"vocabulary_id"`
	Comment string `json:"comment,omitempty"`
}

// ParseLocation parses "Category/Subcategory". Both segments are
// normalized and validated.
func ParseLocation(s string) (Location, error) {
	parts := strings.Split(strings.TrimSpace(s), "/")
	if len(parts) != 2 {
		return Location{}, NewInvalidPath(s, "expected <category>/<subcategory>")
	}
	loc := Location{
		Category:    NormalizeName(parts[0]),
		Subcategory: NormalizeName(parts[1]),
	}
	if err := ValidateLocation(loc); err != nil {
		return Location{}, NewInvalidPath(s, err.Error())
	}
	return loc, nil
}

// ParsePath parses "Category/Subcategory/Name". The name is everything
// after the second slash, so term names may themselves contain '/'.
func ParsePath(s string) (Path, error) {
	parts := strings.SplitN(strings.TrimSpace(s), "/", 3)
	if len(parts) != 3 {
		return Path{}, NewInvalidPath(s, "expected <category>/<subcategory>/<name>")
	}
	p := Path{
		Location: Location{
			Category:    NormalizeName(parts[0]),
			Subcategory: NormalizeName(parts[1]),
		},
		Name: NormalizeName(parts[2]),
	}
	if err := ValidateLocation(p.Location); err != nil {
		return Path{}, NewInvalidPath(s, err.Error())
	}
	if err := ValidateTermName(p.Name); err != nil {
		return Path{}, NewInvalidPath(s, err.Error())
	}
	return p, nil
}
