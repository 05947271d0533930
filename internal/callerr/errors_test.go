package callerr

import (
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestWrapMatchesBothClassAndCause(t *testing.T) {
	cause := errors.New("boom")
	err := Wrap(Transient, cause)
	assert.True(t, errors.Is(err, Transient))
	assert.True(t, errors.Is(err, cause))
	assert.False(t, errors.Is(err, Permanent))
}

func TestWrapNilCauseReturnsNil(t *testing.T) {
	assert.NoError(t, Wrap(Transient, nil))
}

func TestIsRetryableOnlyTrueForTransient(t *testing.T) {
	assert.True(t, IsRetryable(Wrap(Transient, errors.New("x"))))
	assert.False(t, IsRetryable(Wrap(Permanent, errors.New("x"))))
	assert.False(t, IsRetryable(Wrap(Decode, errors.New("x"))))
	assert.False(t, IsRetryable(errors.New("unclassified")))
}

func TestErrorMessageIncludesClassAndCause(t *testing.T) {
	err := Wrap(Permanent, errors.New("bad request"))
	assert.Contains(t, err.Error(), "permanent client error")
	assert.Contains(t, err.Error(), "bad request")
}
