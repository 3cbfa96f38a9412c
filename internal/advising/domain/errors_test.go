package domain

import (
	"errors"
	"fmt"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestKindOf(t *testing.T) {
	tests := []struct {
		name string
		err  error
		want Kind
	}{
		{"nil", nil, ""},
		{"sentinel", ErrSlotTaken, KindSlotTaken},
		{"wrapped", fmt.Errorf("book: %w", ErrAdvisorUnavailable), KindAdvisorUnavailable},
		{"invalid request with fields", InvalidRequest("date", "start_time"), KindInvalidRequest},
		{"store failure", StoreFailure("find session", errors.New("conn reset")), KindStoreFailure},
		{"unknown error", errors.New("boom"), KindStoreFailure},
	}

	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			assert.Equal(t, tc.want, KindOf(tc.err))
		})
	}
}

func TestIsKnown(t *testing.T) {
	assert.True(t, IsKnown(fmt.Errorf("book: %w", ErrSlotTaken)))
	assert.True(t, IsKnown(StoreFailure("list", errors.New("boom"))))
	assert.False(t, IsKnown(errors.New("flag parse")))
	assert.False(t, IsKnown(nil))
}

func TestStoreFailure(t *testing.T) {
	cause := errors.New("disk full")

	err := StoreFailure("create session", cause)

	assert.ErrorIs(t, err, ErrStoreFailure)
	assert.ErrorIs(t, err, cause)
	assert.Equal(t, "create session: disk full", err.Error())

	assert.Same(t, ErrSlotTaken, StoreFailure("create session", ErrSlotTaken))
	assert.NoError(t, StoreFailure("noop", nil))
}

func TestParseRole(t *testing.T) {
	r, err := ParseRole(" Admin ")
	assert.NoError(t, err)
	assert.Equal(t, RoleAdministrator, r)
	assert.True(t, r.IsStaff())

	r, err = ParseRole("student")
	assert.NoError(t, err)
	assert.False(t, r.IsStaff())

	_, err = ParseRole("dean")
	assert.ErrorIs(t, err, ErrInvalidRequest)
}
