package apperr

import (
	"errors"
	"fmt"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestTypedErrorsMatchSentinels(t *testing.T) {
	tests := []struct {
		err      error
		sentinel error
	}{
		{&InvalidIntervalError{Start: "10:00", End: "09:00"}, ErrInvalidInterval},
		{&OverlapError{ConflictID: "a"}, ErrOverlap},
		{&NotFoundError{Kind: "template", ID: "x"}, ErrNotFound},
		{&PreferenceInvariantError{Start: "12:00", End: "09:00"}, ErrPreferenceInvariant},
		{&ReplayFailedError{TemplateID: "t", Block: -1, Err: errors.New("db down")}, ErrReplayFailed},
		{&UnknownCategoryError{Category: "gaming"}, ErrUnknownCategory},
	}
	for _, tc := range tests {
		wrapped := fmt.Errorf("outer: %w", tc.err)
		assert.ErrorIs(t, wrapped, tc.sentinel, tc.err.Error())
	}
}

func TestReplayFailedError_UnwrapsCause(t *testing.T) {
	cause := &OverlapError{ConflictID: "abc", ConflictStart: "09:00", ConflictEnd: "10:00"}
	err := error(&ReplayFailedError{TemplateID: "t1", Date: "2025-01-02", Block: 1, Err: cause})

	var overlap *OverlapError
	require.ErrorAs(t, err, &overlap)
	assert.Equal(t, "abc", overlap.ConflictID)
	assert.ErrorIs(t, err, ErrOverlap)
	assert.Contains(t, err.Error(), "block 2")
}

func TestOverlapError_MessageWithoutConflict(t *testing.T) {
	assert.Equal(t, ErrOverlap.Error(), (&OverlapError{}).Error())
}
