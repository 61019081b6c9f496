package common

import (
	"errors"
	"fmt"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestNewError_MatchesKind(t *testing.T) {
	err := NewError(ErrorForbidden, "blocked")

	assert.True(t, errors.Is(err, ErrorForbidden))
	assert.False(t, errors.Is(err, ErrorNotFound))
	assert.Equal(t, "blocked", err.Error())
}

func TestNewError_Wrapped(t *testing.T) {
	err := fmt.Errorf("handler: %w", NewError(ErrorNotFound, "User not found"))

	assert.True(t, errors.Is(err, ErrorNotFound))
	msg, ok := PublicMessage(err)
	assert.True(t, ok)
	assert.Equal(t, "User not found", msg)
}

func TestPublicMessage_HidesInternal(t *testing.T) {
	_, ok := PublicMessage(errors.New("db error: connection refused"))
	assert.False(t, ok)

	_, ok = PublicMessage(NewError(ErrorInternal, "pq: relation does not exist"))
	assert.False(t, ok)
}
