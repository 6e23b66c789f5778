// Package export renders a vocabulary as a JSON tree of categories,
// subcategories and terms, or as a SKOS concept scheme in Turtle.
package export

import (
	"encoding/json"
	"io"

	"github.com/roach88/onvoc/internal/store"
	"github.com/roach88/onvoc/internal/vocab"
)

// Node is one tree node. Only terms carry an identifier.
type Node struct {
	ID       string `json:"id,omitempty"`
	Label    string `json:"label"`
	Comment  string `json:"comment,omitempty"`
	Children []Node `json:"children,omitempty"`
}

// Tree builds the category forest of s. Categories and subcategories are
// sorted and labeled with their display names; terms keep file order.
func Tree(s *store.Store) []Node {
	byCategory := make(map[string][]vocab.Location)
	for _, loc := range s.Locations() {
		byCategory[loc.Category] = append(byCategory[loc.Category], loc)
	}

	tree := []Node{}
	for _, category := range s.Categories() {
		node := Node{Label: vocab.DisplayName(category)}
		for _, loc := range byCategory[category] {
			sub := Node{Label: vocab.DisplayName(loc.Subcategory)}
			for _, t := range s.Terms(loc) {
				sub.Children = append(sub.Children, Node{ID: t.ID, Label: t.Path.Name, Comment: t.Comment})
			}
			node.Children = append(node.Children, sub)
		}
		tree = append(tree, node)
	}
	return tree
}

// Write encodes the tree of s to w as indented JSON.
func Write(w io.Writer, s *store.Store) error {
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	enc.SetEscapeHTML(false)
	return enc.Encode(Tree(s))
}
