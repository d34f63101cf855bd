package measurement

import (
	"math"
	"testing"

	"github.com/google/go-cmp/cmp"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestConvertSameUnitIsIdentity(t *testing.T) {
	set := Set{Shoulder: 45.3, Chest: 98.1, Waist: 82, Hips: 104.7, Inseam: 78.2, Sleeve: 62.9}

	got := set
	for i := 0; i < 50; i++ {
		var err error
		got, err = Convert(got, Centimeter, Centimeter)
		require.NoError(t, err)
	}

	if diff := cmp.Diff(set, got); diff != "" {
		t.Fatalf("no-op conversion drifted (-want +got):\n%s", diff)
	}
}

func TestConvertCentimeterToInch(t *testing.T) {
	got, err := Convert(DefaultSet(), Centimeter, Inch)
	require.NoError(t, err)

	want := Set{Shoulder: 17.7, Chest: 38.6, Waist: 32.3, Hips: 40.9, Inseam: 30.7, Sleeve: 24.4}
	if diff := cmp.Diff(want, got); diff != "" {
		t.Fatalf("unexpected conversion (-want +got):\n%s", diff)
	}
}

func TestConvertConvertsEveryKey(t *testing.T) {
	set := DefaultSet()
	got, err := Convert(set, Inch, Centimeter)
	require.NoError(t, err)

	assert.Len(t, got, len(set))
	for name, v := range set {
		assert.InDelta(t, v*2.54, got[name], 0.05, name)
	}
	assert.Equal(t, 45.0, set[Shoulder], "input must not be mutated")
}

func TestConvertRoundTripWithinTolerance(t *testing.T) {
	for tenths := 200; tenths <= 2000; tenths++ {
		v := float64(tenths) / 10
		set := Set{Chest: v, Waist: v, Sleeve: v}

		inches, err := Convert(set, Centimeter, Inch)
		require.NoError(t, err)
		back, err := Convert(inches, Inch, Centimeter)
		require.NoError(t, err)

		for name := range set {
			if math.Abs(back[name]-set[name]) > 0.1+1e-9 {
				t.Fatalf("round trip of %v drifted to %v", set[name], back[name])
			}
		}
	}
}

func TestConvertUnknownUnit(t *testing.T) {
	_, err := Convert(DefaultSet(), Centimeter, Unit("meter"))
	assert.Error(t, err)
}

func TestParseUnit(t *testing.T) {
	u, err := ParseUnit("in")
	require.NoError(t, err)
	assert.Equal(t, Inch, u)

	u, err = ParseUnit(" CM ")
	require.NoError(t, err)
	assert.Equal(t, Centimeter, u)

	_, err = ParseUnit("meter")
	assert.Error(t, err)
}

func TestSetComplete(t *testing.T) {
	assert.True(t, DefaultSet().Complete())

	partial := DefaultSet()
	delete(partial, Sleeve)
	assert.False(t, partial.Complete())

	zero := DefaultSet()
	zero[Hips] = 0
	assert.False(t, zero.Complete())
}
