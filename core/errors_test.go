package core

import (
	"testing"

	"github.com/pkg/errors"
	"github.com/stretchr/testify/assert"
)

func TestValidationError(t *testing.T) {
	err := NewValidationError(errors.New("invalid token"))
	assert.EqualError(t, err, "invalid token")

	verr := NewValidationError(nil, FieldError{Field: "date", Error: "required"})
	assert.Empty(t, verr.Error())
	assert.Equal(t, []FieldError{{Field: "date", Error: "required"}}, verr.(*ValidationError).Fields)
}

func TestIsShutdown(t *testing.T) {
	err := NewShutdownError("integrity issue")
	assert.EqualError(t, err, "integrity issue")
	assert.True(t, IsShutdown(err))
	assert.True(t, IsShutdown(errors.Wrap(err, "handler")))
	assert.False(t, IsShutdown(errors.New("boom")))
}
