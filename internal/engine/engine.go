package engine

import (
	"fmt"
	"io"
	"log/slog"

	"github.com/roach88/onvoc/internal/store"
	"github.com/roach88/onvoc/internal/vocab"
)

// Op names an engine operation.
type Op string

const (
	OpAdd    Op = "add"
	OpRemove Op = "remove"
	OpMove   Op = "move"
	OpSync   Op = "sync"
)

// Change describes a committed operation.
type Change struct {
	Op Op `json:"op"`

	// From is the previous path of a moved term, empty otherwise.
	From string `json:"from,omitempty"`

	// Term is the term after the operation; for remove, the term removed.
	Term vocab.Term `json:"term"`

	// NoOp is set when nothing had to be written.
	NoOp bool `json:"no_op,omitempty"`
}

// Engine applies operations to one loaded tree pair.
type Engine struct {
	store  *store.Store
	scheme vocab.IDScheme
	logger *slog.Logger
}

// Option configures an Engine.
type Option func(*config)

type config struct {
	scheme vocab.IDScheme
	logger *slog.Logger
}

// WithScheme sets the identifier scheme. Default: vocab.DefaultIDScheme.
func WithScheme(scheme vocab.IDScheme) Option {
	return func(c *config) {
		c.scheme = scheme
	}
}

// WithLogger sets the logger. Default: discard.
func WithLogger(logger *slog.Logger) Option {
	return func(c *config) {
		c.logger = logger
	}
}

func buildConfig(opts []Option) config {
	c := config{
		scheme: vocab.DefaultIDScheme,
		logger: slog.New(slog.NewTextHandler(io.Discard, nil)),
	}
	for _, opt := range opts {
		opt(&c)
	}
	return c
}

func (c config) storeOptions() []store.Option {
	return []store.Option{store.WithScheme(c.scheme), store.WithLogger(c.logger)}
}

// Open loads the tree pair and returns an engine over it. Load failures
// (drift, malformed files, unreadable roots) are returned unchanged.
func Open(termsRoot, vocabularyRoot string, opts ...Option) (*Engine, error) {
	c := buildConfig(opts)
	s, err := store.Load(termsRoot, vocabularyRoot, c.storeOptions()...)
	if err != nil {
		return nil, err
	}
	return &Engine{store: s, scheme: c.scheme, logger: c.logger}, nil
}

// Store returns the underlying store for read access.
func (e *Engine) Store() *store.Store {
	return e.store
}

// Add creates name in loc with a fresh identifier and an empty comment,
// creating the category and subcategory in both trees if needed.
func (e *Engine) Add(name string, loc vocab.Location) (Change, error) {
	name = vocab.NormalizeName(name)
	if err := vocab.ValidateTermName(name); err != nil {
		return Change{}, vocab.NewInvalidPath(loc.String()+"/"+name, err.Error())
	}
	if err := vocab.ValidateLocation(loc); err != nil {
		return Change{}, vocab.NewInvalidPath(loc.String(), err.Error())
	}

	p := vocab.Path{Location: loc, Name: name}
	if _, exists := e.store.Lookup(p); exists {
		return Change{}, vocab.NewDuplicateTerm(p)
	}

	id, err := NextID(e.store, e.scheme)
	if err != nil {
		return Change{}, fmt.Errorf("add %s: %w", p, err)
	}

	term := vocab.Term{Path: p, ID: id}
	e.store.Insert(term)
	if err := e.store.Save(); err != nil {
		return Change{}, fmt.Errorf("add %s: %w", p, err)
	}

	e.logger.Info("term added", "path", p.String(), "vocabulary_id", id)
	return Change{Op: OpAdd, Term: term}, nil
}

// Remove deletes the term at p from both trees and retires its identifier.
// The subcategory is kept even when it becomes empty.
func (e *Engine) Remove(p vocab.Path) (Change, error) {
	if _, exists := e.store.Lookup(p); !exists {
		return Change{}, vocab.NewTermNotFound(p)
	}

	term, _ := e.store.Delete(p)
	e.store.Retire(term)
	if err := e.store.Save(); err != nil {
		return Change{}, fmt.Errorf("remove %s: %w", p, err)
	}

	e.logger.Info("term removed", "path", p.String(), "vocabulary_id", term.ID)
	return Change{Op: OpRemove, Term: term}, nil
}

// Move relocates or renames the term at from to to, carrying its identifier
// and comment. Moving a term onto itself is a successful no-op.
func (e *Engine) Move(from, to vocab.Path) (Change, error) {
	current, exists := e.store.Lookup(from)
	if !exists {
		return Change{}, vocab.NewTermNotFound(from)
	}
	if err := vocab.ValidateLocation(to.Location); err != nil {
		return Change{}, vocab.NewInvalidPath(to.String(), err.Error())
	}
	if err := vocab.ValidateTermName(to.Name); err != nil {
		return Change{}, vocab.NewInvalidPath(to.String(), err.Error())
	}
	if from == to {
		return Change{Op: OpMove, From: from.String(), Term: current, NoOp: true}, nil
	}
	if _, taken := e.store.Lookup(to); taken {
		return Change{}, vocab.NewDuplicateTerm(to)
	}

	term, _ := e.store.Relocate(from, to)
	if err := e.store.Save(); err != nil {
		return Change{}, fmt.Errorf("move %s: %w", from, err)
	}

	e.logger.Info("term moved", "from", from.String(), "to", to.String(), "vocabulary_id", term.ID)
	return Change{Op: OpMove, From: from.String(), Term: term}, nil
}
