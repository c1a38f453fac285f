package sqlite

import (
	"context"
	"testing"

	"github.com/dekarrin/rulecheck/internal/grammar"
	"github.com/dekarrin/rulecheck/server/dao"
	"github.com/dekarrin/rulecheck/server/dao/daotest"
	"github.com/stretchr/testify/assert"
)

func Test_GrammarsDB(t *testing.T) {
	daotest.GrammarRepository(t, func(t *testing.T) dao.GrammarRepository {
		st, err := NewDatastore(t.TempDir())
		if err != nil {
			t.Fatalf("open datastore: %v", err)
		}
		t.Cleanup(func() { st.Close() })
		return st.Grammars()
	})
}

func Test_NewDatastore_reopen(t *testing.T) {
	assert := assert.New(t)
	dir := t.TempDir()
	ctx := context.Background()

	st, err := NewDatastore(dir)
	if !assert.NoError(err) {
		return
	}
	created, err := st.Grammars().Create(ctx, dao.Grammar{Name: "finite", Rules: grammar.MustParse("0: 1 2\n1: \"a\"\n2: 1 3 | 3 1\n3: \"b\"")})
	if !assert.NoError(err) {
		return
	}
	assert.NoError(st.Close())

	st, err = NewDatastore(dir)
	if !assert.NoError(err) {
		return
	}
	defer st.Close()

	got, err := st.Grammars().GetByID(ctx, created.ID)
	if !assert.NoError(err) {
		return
	}
	assert.Equal([]string{`0: 1 2`, `1: "a"`, `2: 1 3 | 3 1`, `3: "b"`}, got.Rules.Lines())
}

func Test_decodeRules_garbage(t *testing.T) {
	testCases := []struct {
		name string
		enc  string
	}{
		{name: "not base64", enc: "!!!"},
		{name: "empty", enc: ""},
	}

	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			assert := assert.New(t)

			_, err := decodeRules(tc.enc)

			assert.Error(err)
		})
	}
}
