package errors

import (
	"errors"
	"fmt"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestError_Error(t *testing.T) {
	tests := []struct {
		name string
		err  *Error
		want string
	}{
		{
			name: "error with cause",
			err:  &Error{Kind: UniquenessConflict, Message: "object_key exists", Cause: errors.New("duplicate key")},
			want: "uniqueness_conflict: object_key exists: duplicate key",
		},
		{
			name: "error without cause",
			err:  &Error{Kind: NotFound, Message: "session missing"},
			want: "not_found: session missing",
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, tt.err.Error())
		})
	}
}

func TestError_Unwrap(t *testing.T) {
	cause := errors.New("underlying")
	err := New(Internal, "msg", cause)
	require.Equal(t, cause, err.Unwrap())

	noCause := New(Internal, "msg", nil)
	require.Nil(t, noCause.Unwrap())
}

func TestConstructors(t *testing.T) {
	cause := errors.New("cause")
	tests := []struct {
		name        string
		constructor func(string, error) *Error
		wantKind    Kind
	}{
		{"NewUniquenessConflict", NewUniquenessConflict, UniquenessConflict},
		{"NewIllegalState", NewIllegalState, IllegalState},
		{"NewIllegalTransition", NewIllegalTransition, IllegalTransition},
		{"NewNotFound", NewNotFound, NotFound},
		{"NewTransient", NewTransient, Transient},
		{"NewCancelled", NewCancelled, Cancelled},
		{"NewInternal", NewInternal, Internal},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := tt.constructor("test message", cause)
			assert.Equal(t, tt.wantKind, err.Kind)
			assert.Equal(t, "test message", err.Message)
			assert.Equal(t, cause, err.Cause)
		})
	}
}

func TestKindCheckers(t *testing.T) {
	tests := []struct {
		name    string
		err     error
		checker func(error) bool
		want    bool
	}{
		{"IsUniquenessConflict matching", NewUniquenessConflict("t", nil), IsUniquenessConflict, true},
		{"IsUniquenessConflict non-matching", NewNotFound("t", nil), IsUniquenessConflict, false},
		{"IsUniquenessConflict plain error", errors.New("plain"), IsUniquenessConflict, false},
		{"IsIllegalState matching", NewIllegalState("t", nil), IsIllegalState, true},
		{"IsIllegalTransition matching", NewIllegalTransition("t", nil), IsIllegalTransition, true},
		{"IsNotFound matching", NewNotFound("t", nil), IsNotFound, true},
		{"IsTransient matching", NewTransient("t", nil), IsTransient, true},
		{"IsCancelled matching", NewCancelled("t", nil), IsCancelled, true},
		{"IsInternal matching", NewInternal("t", nil), IsInternal, true},
		{"IsInternal nil error", nil, IsInternal, false},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, tt.checker(tt.err))
		})
	}
}

func TestError_UnwrapChain(t *testing.T) {
	base := NewNotFound("session missing", nil)
	wrapped := fmt.Errorf("get_open: %w", base)
	assert.True(t, IsNotFound(wrapped))
	assert.False(t, IsInternal(wrapped))
}

func TestCode(t *testing.T) {
	tests := []struct {
		name string
		err  error
		want int
	}{
		{"uniqueness conflict", NewUniquenessConflict("t", nil), 409},
		{"not found", NewNotFound("t", nil), 404},
		{"illegal state", NewIllegalState("t", nil), 400},
		{"transient", NewTransient("t", nil), 503},
		{"cancelled", NewCancelled("t", nil), 499},
		{"illegal transition", NewIllegalTransition("t", nil), 500},
		{"internal", NewInternal("t", nil), 500},
		{"plain error", errors.New("plain"), 500},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, Code(tt.err))
		})
	}
}
