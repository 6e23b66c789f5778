package export

import (
	"fmt"
	"io"
	"net/url"
	"strings"

	"github.com/roach88/onvoc/internal/store"
	"github.com/roach88/onvoc/internal/vocab"
)

// Defaults for SKOSOptions.
const (
	DefaultNamespace   = "http://www.onvoc/test/alpha#"
	DefaultSchemeLabel = "Alpha Controlled Vocabulary"
)

// SKOSOptions configures WriteSKOS.
type SKOSOptions struct {
	// Namespace prefixes every concept IRI.
	Namespace string
	// Label is the prefLabel of the concept scheme.
	Label string
}

func (o SKOSOptions) withDefaults() SKOSOptions {
	if o.Namespace == "" {
		o.Namespace = DefaultNamespace
	}
	if o.Label == "" {
		o.Label = DefaultSchemeLabel
	}
	return o
}

var skosPrefixes = []struct{ name, iri string }{
	{"owl", "http://www.w3.org/2002/07/owl#"},
	{"rdf", "http://www.w3.org/1999/02/22-rdf-syntax-ns#"},
	{"skos", "http://www.w3.org/2004/02/skos/core#"},
}

type statement struct {
	predicate string
	object    string
}

// WriteSKOS writes s as a SKOS concept scheme in Turtle. Categories are top
// concepts, subcategories are narrower than their category and terms are
// narrower than their subcategory. Term IRIs are built from the identifier
// so they survive moves; container IRIs are built from the path. Retired
// identifiers are kept as deprecated concepts.
func WriteSKOS(w io.Writer, s *store.Store, opts SKOSOptions) error {
	opts = opts.withDefaults()
	scheme := iri(opts.Namespace + "scheme")

	var b strings.Builder
	for _, p := range skosPrefixes {
		fmt.Fprintf(&b, "@prefix %s: <%s> .\n", p.name, p.iri)
	}

	byCategory := make(map[string][]vocab.Location)
	for _, loc := range s.Locations() {
		byCategory[loc.Category] = append(byCategory[loc.Category], loc)
	}

	top := []statement{
		{"a", "skos:ConceptScheme"},
		{"skos:prefLabel", literal(opts.Label)},
	}
	for _, category := range s.Categories() {
		top = append(top, statement{"skos:hasTopConcept", categoryIRI(opts.Namespace, category)})
	}
	writeBlock(&b, scheme, top)

	for _, category := range s.Categories() {
		catIRI := categoryIRI(opts.Namespace, category)
		stmts := concept(vocab.DisplayName(category), scheme)
		stmts = append(stmts, statement{"skos:topConceptOf", scheme})
		for _, loc := range byCategory[category] {
			stmts = append(stmts, statement{"skos:narrower", subcategoryIRI(opts.Namespace, loc)})
		}
		writeBlock(&b, catIRI, stmts)

		for _, loc := range byCategory[category] {
			subIRI := subcategoryIRI(opts.Namespace, loc)
			terms := s.Terms(loc)

			stmts := concept(vocab.DisplayName(loc.Subcategory), scheme)
			stmts = append(stmts, statement{"skos:broader", catIRI})
			for _, t := range terms {
				stmts = append(stmts, statement{"skos:narrower", termIRI(opts.Namespace, t.ID)})
			}
			writeBlock(&b, subIRI, stmts)

			for _, t := range terms {
				stmts := concept(t.Path.Name, scheme)
				stmts = append(stmts, statement{"skos:notation", literal(t.ID)})
				if t.Comment != "" {
					stmts = append(stmts, statement{"skos:scopeNote", literal(t.Comment)})
				}
				stmts = append(stmts, statement{"skos:broader", subIRI})
				writeBlock(&b, termIRI(opts.Namespace, t.ID), stmts)
			}
		}
	}

	for _, rec := range s.Retired() {
		label := rec.Name
		if p, err := vocab.ParsePath(rec.Name); err == nil {
			label = p.Name
		}
		stmts := concept(label, scheme)
		stmts = append(stmts,
			statement{"skos:notation", literal(rec.ID)},
			statement{"owl:deprecated", "true"},
		)
		writeBlock(&b, termIRI(opts.Namespace, rec.ID), stmts)
	}

	_, err := io.WriteString(w, b.String())
	return err
}

func concept(label, scheme string) []statement {
	return []statement{
		{"a", "skos:Concept, owl:NamedIndividual"},
		{"skos:prefLabel", literal(label)},
		{"skos:inScheme", scheme},
	}
}

// writeBlock writes one subject with its predicate list, preceded by a
// blank line.
func writeBlock(b *strings.Builder, subject string, stmts []statement) {
	fmt.Fprintf(b, "\n%s\n", subject)
	for i, st := range stmts {
		fmt.Fprintf(b, "    %s %s", st.predicate, st.object)
		if i < len(stmts)-1 {
			b.WriteString(" ;\n")
		} else {
			b.WriteString(" .\n")
		}
	}
}

func categoryIRI(ns, category string) string {
	return iri(ns + "category/" + url.PathEscape(category))
}

func subcategoryIRI(ns string, loc vocab.Location) string {
	return iri(ns + "category/" + url.PathEscape(loc.Category) + "/" + url.PathEscape(loc.Subcategory))
}

func termIRI(ns, id string) string {
	return iri(ns + strings.ReplaceAll(id, ":", "_"))
}

func iri(s string) string {
	return "<" + s + ">"
}

func literal(s string) string {
	r := strings.NewReplacer(
		`\`, `\\`,
		`"`, `\"`,
		"\n", `\n`,
		"\r", `\r`,
		"\t", `\t`,
	)
	return `"` + r.Replace(s) + `"`
}
