package core

import (
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestErrorKind_Labels(t *testing.T) {
	assert.Equal(t, "capability_unavailable", KindUnavailable.String())
	assert.Equal(t, "capability_malformed_response", KindMalformed.String())
	assert.Equal(t, "input_rejected", KindRejected.String())
}

func TestError_WrapAndUnwrap(t *testing.T) {
	cause := errors.New("connection refused")
	err := Unavailable("knowledge.retrieve", cause)

	var e *Error
	require.True(t, errors.As(err, &e))
	assert.Equal(t, KindUnavailable, e.Kind)
	assert.Equal(t, "knowledge.retrieve", e.Op)
	assert.ErrorIs(t, err, cause)
	assert.Contains(t, err.Error(), "knowledge.retrieve")
	assert.Contains(t, err.Error(), "connection refused")
}

func TestKindOf(t *testing.T) {
	assert.Equal(t, KindMalformed, KindOf(Malformed("op", errors.New("bad json"))))
	assert.Equal(t, KindRejected, KindOf(Rejected("op", "empty input")))
	assert.Equal(t, KindUnavailable, KindOf(errors.New("anonymous failure")))
}

func TestIsRetryable(t *testing.T) {
	assert.True(t, IsRetryable(Unavailable("op", errors.New("timeout"))))
	assert.False(t, IsRetryable(Malformed("op", errors.New("bad json"))))
	assert.False(t, IsRetryable(Rejected("op", "nope")))
	assert.True(t, IsRetryable(errors.New("unknown")), "unknown failures are presumed transient")
	assert.False(t, IsRetryable(nil))
}

func TestIsRejected(t *testing.T) {
	assert.True(t, IsRejected(Rejected("op", "empty")))
	assert.False(t, IsRejected(Unavailable("op", errors.New("x"))))
	assert.False(t, IsRejected(nil))
}
