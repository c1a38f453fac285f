package inmem

import (
	"testing"

	"github.com/dekarrin/rulecheck/server/dao"
	"github.com/dekarrin/rulecheck/server/dao/daotest"
)

func Test_InMemoryGrammarsRepository(t *testing.T) {
	daotest.GrammarRepository(t, func(t *testing.T) dao.GrammarRepository {
		return NewGrammarsRepository()
	})
}
