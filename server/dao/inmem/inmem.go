// Package inmem provides a dao.Store that keeps everything in memory. Its
// contents are lost when the process exits.
package inmem

import (
	"github.com/dekarrin/rulecheck/server/dao"
)

type store struct {
	grammars *InMemoryGrammarsRepository
}

func NewDatastore() dao.Store {
	return &store{
		grammars: NewGrammarsRepository(),
	}
}

func (s *store) Grammars() dao.GrammarRepository {
	return s.grammars
}

func (s *store) Close() error {
	return s.grammars.Close()
}
