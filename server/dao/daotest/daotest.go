// Package daotest holds tests that every dao.GrammarRepository implementation
// must pass.
package daotest

import (
	"context"
	"testing"

	"github.com/dekarrin/rulecheck/internal/grammar"
	"github.com/dekarrin/rulecheck/server/dao"
	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
)

const loopRules = `0: 8 11
8: 42 | 42 8
11: 42 31 | 42 11 31
42: "a"
31: "b"`

// GrammarRepository runs the repository tests against fresh repositories made
// by newRepo.
func GrammarRepository(t *testing.T, newRepo func(t *testing.T) dao.GrammarRepository) {
	t.Run("Create then GetByID", func(t *testing.T) {
		assert := assert.New(t)
		repo := newRepo(t)
		ctx := context.Background()

		created, err := repo.Create(ctx, dao.Grammar{Name: "loops", Rules: grammar.MustParse(loopRules)})
		if !assert.NoError(err) {
			return
		}
		assert.NotEqual(uuid.Nil, created.ID)
		assert.Equal("loops", created.Name)
		assert.False(created.Created.IsZero())

		got, err := repo.GetByID(ctx, created.ID)
		if !assert.NoError(err) {
			return
		}
		assert.Equal(created.ID, got.ID)
		assert.Equal("loops", got.Name)
		assert.True(grammar.MustParse(loopRules).Equal(got.Rules))
		assert.True(got.Rules.Frozen())
		assert.Equal([]int{8, 11}, got.Rules.Recursive())
	})

	t.Run("Create does not keep caller grammar", func(t *testing.T) {
		assert := assert.New(t)
		repo := newRepo(t)
		ctx := context.Background()

		rules := grammar.MustParse(loopRules)
		created, err := repo.Create(ctx, dao.Grammar{Name: "loops", Rules: rules})
		if !assert.NoError(err) {
			return
		}

		assert.NoError(rules.Extend(8, "42"))

		got, err := repo.GetByID(ctx, created.ID)
		if !assert.NoError(err) {
			return
		}
		r, _ := got.Rules.Rule(8)
		assert.Equal("42 | 42 8", r.String())
	})

	t.Run("Create duplicate name", func(t *testing.T) {
		assert := assert.New(t)
		repo := newRepo(t)
		ctx := context.Background()

		_, err := repo.Create(ctx, dao.Grammar{Name: "loops", Rules: grammar.MustParse(loopRules)})
		assert.NoError(err)

		_, err = repo.Create(ctx, dao.Grammar{Name: "loops", Rules: grammar.MustParse(loopRules)})
		assert.ErrorIs(err, dao.ErrConstraintViolation)
	})

	t.Run("GetByName", func(t *testing.T) {
		assert := assert.New(t)
		repo := newRepo(t)
		ctx := context.Background()

		created, err := repo.Create(ctx, dao.Grammar{Name: "loops", Rules: grammar.MustParse(loopRules)})
		if !assert.NoError(err) {
			return
		}

		got, err := repo.GetByName(ctx, "loops")
		assert.NoError(err)
		assert.Equal(created.ID, got.ID)

		_, err = repo.GetByName(ctx, "nope")
		assert.ErrorIs(err, dao.ErrNotFound)
	})

	t.Run("GetAll is ordered by name", func(t *testing.T) {
		assert := assert.New(t)
		repo := newRepo(t)
		ctx := context.Background()

		for _, name := range []string{"charlie", "alpha", "bravo"} {
			_, err := repo.Create(ctx, dao.Grammar{Name: name, Rules: grammar.MustParse(`0: "a"`)})
			if !assert.NoError(err) {
				return
			}
		}

		all, err := repo.GetAll(ctx)
		if !assert.NoError(err) {
			return
		}

		var names []string
		for _, g := range all {
			names = append(names, g.Name)
		}
		assert.Equal([]string{"alpha", "bravo", "charlie"}, names)
	})

	t.Run("Update", func(t *testing.T) {
		assert := assert.New(t)
		repo := newRepo(t)
		ctx := context.Background()

		created, err := repo.Create(ctx, dao.Grammar{Name: "loops", Rules: grammar.MustParse(loopRules)})
		if !assert.NoError(err) {
			return
		}

		changed := created.Rules.Copy()
		assert.NoError(changed.Extend(8, "42"))
		created.Rules = changed

		updated, err := repo.Update(ctx, created.ID, created)
		if !assert.NoError(err) {
			return
		}
		assert.Equal(created.ID, updated.ID)

		got, err := repo.GetByID(ctx, created.ID)
		if !assert.NoError(err) {
			return
		}
		r, _ := got.Rules.Rule(8)
		assert.Equal("42", r.String())
		assert.Equal([]int{11}, got.Rules.Recursive())
	})

	t.Run("Update missing", func(t *testing.T) {
		assert := assert.New(t)
		repo := newRepo(t)

		id := uuid.New()
		_, err := repo.Update(context.Background(), id, dao.Grammar{ID: id, Name: "x", Rules: grammar.MustParse(`0: "a"`)})
		assert.ErrorIs(err, dao.ErrNotFound)
	})

	t.Run("Delete", func(t *testing.T) {
		assert := assert.New(t)
		repo := newRepo(t)
		ctx := context.Background()

		created, err := repo.Create(ctx, dao.Grammar{Name: "loops", Rules: grammar.MustParse(loopRules)})
		if !assert.NoError(err) {
			return
		}

		deleted, err := repo.Delete(ctx, created.ID)
		assert.NoError(err)
		assert.Equal("loops", deleted.Name)

		_, err = repo.GetByID(ctx, created.ID)
		assert.ErrorIs(err, dao.ErrNotFound)

		_, err = repo.Delete(ctx, created.ID)
		assert.ErrorIs(err, dao.ErrNotFound)

		// name is free again
		_, err = repo.Create(ctx, dao.Grammar{Name: "loops", Rules: grammar.MustParse(loopRules)})
		assert.NoError(err)
	})
}
