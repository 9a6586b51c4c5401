package errors

import (
	stderrors "errors"
	"fmt"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestDomainError_Is(t *testing.T) {
	cause := stderrors.New("dial tcp: timeout")
	err := fmt.Errorf("get wallet: %w", Wrap(ErrStoreUnavailable, "", cause))

	assert.True(t, stderrors.Is(err, ErrStoreUnavailable))
	assert.False(t, stderrors.Is(err, ErrNotFound))
	assert.True(t, stderrors.Is(err, cause))
	assert.Equal(t, CodeStoreUnavailable, CodeOf(err))
	assert.Contains(t, err.Error(), "record store unavailable")
}

func TestNewf(t *testing.T) {
	err := Newf(ErrInvalidState, "scheduled bill %s is %s", "sb-1", "paid")

	assert.ErrorIs(t, err, ErrInvalidState)
	assert.Equal(t, "scheduled bill sb-1 is paid", err.Error())
	assert.Equal(t, "", CodeOf(stderrors.New("plain")))
}
