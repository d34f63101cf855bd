package store

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/raushankrgupta/tailor-connect/measurement"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestMemoryApplyMerges(t *testing.T) {
	ctx := context.Background()
	m := NewMemory()
	fixed := time.Date(2026, 1, 2, 3, 4, 5, 0, time.UTC)
	m.SetClock(func() time.Time { return fixed })

	created, err := m.Apply(ctx, "customers", "u1", Update{
		Set:         map[string]any{"fullName": "Asha", "measurements.Chest": 98.0},
		SetOnInsert: map[string]any{"role": "customer", "createdAt": fixed},
		CurrentDate: []string{"updatedAt"},
	})
	require.NoError(t, err)
	assert.True(t, created)

	created, err = m.Apply(ctx, "customers", "u1", Update{
		Set:         map[string]any{"age": 31, "measurements.Waist": 82.0},
		SetOnInsert: map[string]any{"role": "tailor"},
	})
	require.NoError(t, err)
	assert.False(t, created)

	p, err := m.Load(ctx, "customers", "u1")
	require.NoError(t, err)
	assert.Equal(t, "Asha", p.FullName)
	assert.Equal(t, 31, p.Age)
	assert.Equal(t, "customer", string(p.Role))
	assert.Equal(t, measurement.Set{measurement.Chest: 98, measurement.Waist: 82}, p.Measurements)
	assert.True(t, p.UpdatedAt.Equal(fixed))
}

func TestMemoryLoadMissing(t *testing.T) {
	_, err := NewMemory().Load(context.Background(), "tailors", "nobody")
	assert.ErrorIs(t, err, ErrNotFound)
}

func TestMemoryFailAndEmptyUID(t *testing.T) {
	ctx := context.Background()
	m := NewMemory()

	_, err := m.Apply(ctx, "customers", "", Update{Set: map[string]any{"a": 1}})
	assert.ErrorIs(t, err, ErrNoUID)

	boom := errors.New("offline")
	m.Fail = boom
	_, err = m.Apply(ctx, "customers", "u1", Update{Set: map[string]any{"a": 1}})
	assert.ErrorIs(t, err, boom)
	_, ok := m.Document("customers", "u1")
	assert.False(t, ok)
}

func TestMemoryCodes(t *testing.T) {
	ctx := context.Background()
	m := NewMemory()

	uid, err := m.SaveCode(ctx, "a@example.com", Code{Hash: "h1", ExpiresAt: time.Now().Add(time.Minute)})
	require.NoError(t, err)
	require.NotEmpty(t, uid)

	require.NoError(t, m.RecordAttempt(ctx, "a@example.com"))
	again, err := m.SaveCode(ctx, "a@example.com", Code{Hash: "h2"})
	require.NoError(t, err)
	assert.Equal(t, uid, again)

	id, err := m.Identity(ctx, "a@example.com")
	require.NoError(t, err)
	assert.Equal(t, "h2", id.CodeHash)
	assert.Zero(t, id.Attempts)

	require.NoError(t, m.ClearCode(ctx, "a@example.com"))
	id, err = m.Identity(ctx, "a@example.com")
	require.NoError(t, err)
	assert.Empty(t, id.CodeHash)
}
