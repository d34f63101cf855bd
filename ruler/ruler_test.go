package ruler

import (
	"math"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newTestRuler(t *testing.T, value float64) *Ruler {
	t.Helper()
	r, err := New(20, 200, value, WithViewport(300))
	require.NoError(t, err)
	return r
}

func onGrid(r *Ruler, v float64) bool {
	steps := (v - r.Min()) / r.Step()
	return math.Abs(steps-math.Round(steps)) < 1e-6
}

func TestValueAtAndOffsetForAreInverse(t *testing.T) {
	r := newTestRuler(t, 98)
	for _, v := range []float64{20, 45.3, 98, 150.1, 200} {
		assert.InDelta(t, v, r.ValueAt(r.OffsetFor(v)), 1e-9)
	}
}

func TestDragClampsToBoundaries(t *testing.T) {
	r := newTestRuler(t, 98)

	r.PointerDown(500)
	v, moving := r.PointerMove(500 + 1e6)
	assert.True(t, moving)
	assert.Equal(t, 20.0, v)
	assert.Equal(t, 20.0, r.PointerUp())

	r.PointerDown(0)
	r.PointerMove(-1e6)
	assert.Equal(t, 200.0, r.PointerUp())
}

func TestCommittedValuesAreOnStepGrid(t *testing.T) {
	r := newTestRuler(t, 20)
	for dx := -2000.0; dx <= 2000; dx += 3.7 {
		r.PointerDown(0)
		r.PointerMove(dx)
		v := r.PointerUp()
		assert.True(t, onGrid(r, v), "value %v is off grid", v)
		assert.GreaterOrEqual(t, v, 20.0)
		assert.LessOrEqual(t, v, 200.0)
	}
}

func TestPointerMoveKeepsLatestOnly(t *testing.T) {
	r := newTestRuler(t, 98)
	r.PointerDown(100)
	r.PointerMove(90)
	r.PointerMove(40)
	last, _ := r.PointerMove(80)

	// 20px to the left is two ticks up.
	assert.Equal(t, 98.2, last)
	assert.Equal(t, 98.2, r.PointerUp())
}

func TestPointerMoveWhileIdleIsIgnored(t *testing.T) {
	r := newTestRuler(t, 98)
	v, moving := r.PointerMove(1000)
	assert.False(t, moving)
	assert.Equal(t, 98.0, v)
}

func TestExternalValueIgnoredWhileDragging(t *testing.T) {
	r := newTestRuler(t, 98)
	r.PointerDown(0)
	r.PointerMove(-10)

	assert.False(t, r.SetValue(150))
	assert.Equal(t, Dragging, r.State())
	assert.Equal(t, 98.1, r.PointerUp())

	assert.True(t, r.SetValue(150))
	assert.Equal(t, 150.0, r.Value())
	assert.InDelta(t, r.OffsetFor(150), r.Offset(), 1e-9)
}

func TestCommitTextMatchesDrag(t *testing.T) {
	typed := newTestRuler(t, 98)
	v, err := typed.CommitText(" 98.26 ")
	require.NoError(t, err)
	assert.Equal(t, 98.3, v)

	dragged := newTestRuler(t, 98)
	dragged.PointerDown(0)
	dragged.PointerMove(-30)
	assert.Equal(t, v, dragged.PointerUp())

	out, err := typed.CommitText("999")
	require.NoError(t, err)
	assert.Equal(t, 200.0, out)

	_, err = typed.CommitText("abc")
	assert.Error(t, err)
	assert.Equal(t, 200.0, typed.Value())

	for _, text := range []string{"NaN", "Inf", "-Infinity"} {
		out, err := typed.CommitText(text)
		assert.Error(t, err, text)
		assert.Equal(t, 200.0, out, text)
		assert.Equal(t, 200.0, typed.Value(), text)
		assert.InDelta(t, typed.OffsetFor(200), typed.Offset(), 1e-9, text)
	}
}

func TestNonFiniteValuesStayOnTheRuler(t *testing.T) {
	r := newTestRuler(t, 98)
	assert.False(t, r.SetValue(math.NaN()))
	assert.False(t, r.SetValue(math.Inf(1)))
	assert.Equal(t, 98.0, r.Value())

	assert.Equal(t, r.Min(), r.Normalize(math.NaN()))
	assert.Equal(t, r.Max(), r.Normalize(math.Inf(1)))
	assert.Equal(t, r.Min(), r.Normalize(math.Inf(-1)))
}

func TestNewRejectsRangeOffGrid(t *testing.T) {
	_, err := New(0, 10.05, 5)
	assert.Error(t, err)

	_, err = New(10, 10, 10)
	assert.Error(t, err)

	r, err := New(8, 80, 100)
	require.NoError(t, err)
	assert.Equal(t, 80.0, r.Value())
	assert.Equal(t, 720, r.TickCount())
}
