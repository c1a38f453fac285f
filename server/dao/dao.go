// Package dao provides data access objects for use in the RuleCheck server.
package dao

import (
	"context"
	"time"

	"github.com/dekarrin/rulecheck/internal/grammar"
	"github.com/google/uuid"
)

// Store holds all the repositories.
type Store interface {
	Grammars() GrammarRepository
	Close() error
}

type GrammarRepository interface {

	// Create creates a new Grammar. All attributes except for auto-generated
	// fields are taken from the provided Grammar.
	Create(ctx context.Context, g Grammar) (Grammar, error)
	GetAll(ctx context.Context) ([]Grammar, error)
	GetByID(ctx context.Context, id uuid.UUID) (Grammar, error)
	GetByName(ctx context.Context, name string) (Grammar, error)
	Update(ctx context.Context, id uuid.UUID, g Grammar) (Grammar, error)
	Delete(ctx context.Context, id uuid.UUID) (Grammar, error)
	Close() error
}

// Grammar is a named rule table stored by the server. Names are unique among
// stored grammars.
type Grammar struct {
	ID       uuid.UUID
	Name     string
	Rules    *grammar.Grammar
	Created  time.Time
	Modified time.Time
}
