package apperrors

import (
	"errors"
	"fmt"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestKindOfWrappedError(t *testing.T) {
	base := Persistence("Failed to save profile", errors.New("connection reset"))
	wrapped := fmt.Errorf("profile.Upsert: %w", base)

	assert.Equal(t, KindPersistence, KindOf(wrapped))
	assert.True(t, Is(wrapped, KindPersistence))
	assert.False(t, Is(wrapped, KindValidation))
	assert.Contains(t, wrapped.Error(), "connection reset")
}

func TestKindOfPlainError(t *testing.T) {
	assert.Equal(t, KindInternal, KindOf(errors.New("boom")))
	assert.False(t, Is(nil, KindInternal))
}

func TestFieldErrorsKeepOrder(t *testing.T) {
	fields := FieldErrors{}
	fields.Add("age", "Age must be a number.")
	fields.Add("age", "Age is required.")

	assert.Equal(t, []string{"Age must be a number.", "Age is required."}, fields["age"])
}
