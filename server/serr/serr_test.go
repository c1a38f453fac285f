package serr

import (
	"errors"
	"fmt"
	"testing"

	"github.com/stretchr/testify/assert"
)

func Test_Error_Error(t *testing.T) {
	testCases := []struct {
		name   string
		err    Error
		expect string
	}{
		{
			name:   "message only",
			err:    New("name cannot be blank", ErrBadArgument),
			expect: "name cannot be blank: one or more of the arguments is invalid",
		},
		{
			name:   "no causes",
			err:    New("plain"),
			expect: "plain",
		},
		{
			name:   "no message",
			err:    New("", ErrNotFound),
			expect: "the requested entity could not be found",
		},
		{
			name:   "WrapDB with message",
			err:    WrapDB("could not get grammar", errors.New("disk on fire")),
			expect: "could not get grammar: disk on fire",
		},
		{
			name:   "WrapDB without message",
			err:    WrapDB("", errors.New("disk on fire")),
			expect: "disk on fire",
		},
	}

	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			assert := assert.New(t)

			assert.Equal(tc.expect, tc.err.Error())
		})
	}
}

func Test_Error_Is(t *testing.T) {
	assert := assert.New(t)

	dbErr := errors.New("disk on fire")
	err := fmt.Errorf("update: %w", WrapDB("could not update", dbErr))

	assert.ErrorIs(err, ErrDB)
	assert.ErrorIs(err, dbErr)
	assert.NotErrorIs(err, ErrNotFound)

	multi := New("rules", errors.New("line 1"), ErrBadArgument, ErrInfinite)
	assert.ErrorIs(multi, ErrBadArgument)
	assert.ErrorIs(multi, ErrInfinite)
	assert.NotErrorIs(multi, ErrAlreadyExists)

	nested := New("update rule", New("get grammar", ErrNotFound))
	assert.ErrorIs(nested, ErrNotFound)
	assert.ErrorIs(nested, New("get grammar", ErrNotFound))
	assert.NotErrorIs(nested, New("get grammar", ErrDB))
}
