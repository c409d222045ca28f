package apperr

import (
	"errors"
	"fmt"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestKindOf(t *testing.T) {
	wrapped := fmt.Errorf("create quote: %w", Invalid("grams", "grams must be positive"))

	assert.Equal(t, KindInvalidInput, KindOf(wrapped))
	assert.Equal(t, KindNotFound, KindOf(NotFound("quote", "abc")))
	assert.Equal(t, KindInternal, KindOf(errors.New("boom")))
}

func TestErrorMessage(t *testing.T) {
	err := Invalid("quantity", "quantity must be between %d and %d", 1, 1000)
	assert.Equal(t, "[INVALID_INPUT quantity] quantity must be between 1 and 1000", err.Error())

	cause := errors.New("disk full")
	internal := Internal("persist quote", cause)
	assert.ErrorIs(t, internal, cause)
	assert.Equal(t, "[INTERNAL] persist quote: disk full", internal.Error())
}
