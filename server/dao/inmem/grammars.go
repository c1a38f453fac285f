package inmem

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/dekarrin/rulecheck/internal/grammar"
	"github.com/dekarrin/rulecheck/internal/util"
	"github.com/dekarrin/rulecheck/server/dao"
	"github.com/google/uuid"
)

func NewGrammarsRepository() *InMemoryGrammarsRepository {
	return &InMemoryGrammarsRepository{
		grammars:    make(map[uuid.UUID]dao.Grammar),
		byNameIndex: make(map[string]uuid.UUID),
	}
}

// InMemoryGrammarsRepository stores grammars in a map. It is safe for
// concurrent use. Stored rule tables are frozen copies of the ones given to it.
type InMemoryGrammarsRepository struct {
	mtx         sync.RWMutex
	grammars    map[uuid.UUID]dao.Grammar
	byNameIndex map[string]uuid.UUID
}

func (imgr *InMemoryGrammarsRepository) Close() error {
	return nil
}

func (imgr *InMemoryGrammarsRepository) Create(ctx context.Context, g dao.Grammar) (dao.Grammar, error) {
	if g.Rules == nil {
		return dao.Grammar{}, fmt.Errorf("grammar has no rules table")
	}

	newUUID, err := uuid.NewRandom()
	if err != nil {
		return dao.Grammar{}, fmt.Errorf("could not generate ID: %w", err)
	}

	imgr.mtx.Lock()
	defer imgr.mtx.Unlock()

	if _, ok := imgr.byNameIndex[g.Name]; ok {
		return dao.Grammar{}, dao.ErrConstraintViolation
	}

	now := time.Now()

	g.ID = newUUID
	g.Created = now
	g.Modified = now
	g.Rules = frozenCopy(g)

	imgr.grammars[g.ID] = g
	imgr.byNameIndex[g.Name] = g.ID

	return g, nil
}

func (imgr *InMemoryGrammarsRepository) GetAll(ctx context.Context) ([]dao.Grammar, error) {
	imgr.mtx.RLock()
	defer imgr.mtx.RUnlock()

	all := make([]dao.Grammar, 0, len(imgr.grammars))
	for k := range imgr.grammars {
		all = append(all, imgr.grammars[k])
	}

	all = util.SortBy(all, func(l, r dao.Grammar) bool {
		return l.Name < r.Name
	})

	return all, nil
}

func (imgr *InMemoryGrammarsRepository) GetByID(ctx context.Context, id uuid.UUID) (dao.Grammar, error) {
	imgr.mtx.RLock()
	defer imgr.mtx.RUnlock()

	g, ok := imgr.grammars[id]
	if !ok {
		return dao.Grammar{}, dao.ErrNotFound
	}

	return g, nil
}

func (imgr *InMemoryGrammarsRepository) GetByName(ctx context.Context, name string) (dao.Grammar, error) {
	imgr.mtx.RLock()
	defer imgr.mtx.RUnlock()

	id, ok := imgr.byNameIndex[name]
	if !ok {
		return dao.Grammar{}, dao.ErrNotFound
	}

	return imgr.grammars[id], nil
}

func (imgr *InMemoryGrammarsRepository) Update(ctx context.Context, id uuid.UUID, g dao.Grammar) (dao.Grammar, error) {
	if g.Rules == nil {
		return dao.Grammar{}, fmt.Errorf("grammar has no rules table")
	}

	imgr.mtx.Lock()
	defer imgr.mtx.Unlock()

	existing, ok := imgr.grammars[id]
	if !ok {
		return dao.Grammar{}, dao.ErrNotFound
	}

	// check for conflicts on this table only
	if g.ID != id {
		if _, ok := imgr.grammars[g.ID]; ok {
			return dao.Grammar{}, dao.ErrConstraintViolation
		}
	}
	if g.Name != existing.Name {
		if _, ok := imgr.byNameIndex[g.Name]; ok {
			return dao.Grammar{}, dao.ErrConstraintViolation
		}
	}

	g.Created = existing.Created
	g.Modified = time.Now()
	g.Rules = frozenCopy(g)

	delete(imgr.grammars, id)
	delete(imgr.byNameIndex, existing.Name)
	imgr.grammars[g.ID] = g
	imgr.byNameIndex[g.Name] = g.ID

	return g, nil
}

func (imgr *InMemoryGrammarsRepository) Delete(ctx context.Context, id uuid.UUID) (dao.Grammar, error) {
	imgr.mtx.Lock()
	defer imgr.mtx.Unlock()

	g, ok := imgr.grammars[id]
	if !ok {
		return dao.Grammar{}, dao.ErrNotFound
	}

	delete(imgr.byNameIndex, g.Name)
	delete(imgr.grammars, g.ID)

	return g, nil
}

func frozenCopy(g dao.Grammar) *grammar.Grammar {
	rules := g.Rules.Copy()
	rules.Freeze()
	return rules
}
