package audioio

import (
	"math"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/tphakala/go-mdct/internal/testutil"
)

func TestClip(t *testing.T) {
	x := []float64{-2, -1, -0.5, 0, 0.5, 1, 3}
	got := Clip(x, -1, 1)
	assert.Equal(t, []float64{-1, -1, -0.5, 0, 0.5, 1, 1}, got)
	assert.Equal(t, got, x, "Clip works in place")

	assert.Equal(t, []float64{0.2, 0.3}, Clip([]float64{0, 0.3}, 0.2, 0.4))
	assert.Empty(t, Clip(nil, -1, 1))
}

func TestEnvelope_PeriodicTone(t *testing.T) {
	for _, n := range []int{64, 100, 257} {
		// A whole number of periods keeps the analytic signal exact.
		x := make([]float64, n)
		for i := range x {
			x[i] = 0.7 * math.Cos(2*math.Pi*5*float64(i)/float64(n))
		}
		env := Envelope(x)
		require.Len(t, env, n)
		for i, v := range env {
			assert.InDelta(t, 0.7, v, 1e-9, "n=%d i=%d", n, i)
		}
	}
	assert.Nil(t, Envelope(nil))
}

func TestEnvelope_DC(t *testing.T) {
	env := Envelope([]float64{0.25, 0.25, 0.25, 0.25})
	testutil.AssertSliceInDelta(t, []float64{0.25, 0.25, 0.25, 0.25}, env, 1e-12, "dc envelope")
}

func TestNormaliseEnergy_Global(t *testing.T) {
	loud := sine(1024, 8, 1024, 0.5)
	quiet := sine(1024, 8, 1024, 0.125)

	y1, y2, err := NormaliseEnergy(loud, quiet, 0)
	require.NoError(t, err)
	testutil.AssertSliceInDelta(t, loud, y1, 1e-12, "louder side untouched")
	// Raised by the amplitude ratio 4; the energy ratio 16 would clip it.
	testutil.AssertSliceInDelta(t, loud, y2, 1e-9, "quieter side raised")

	// Inputs are not modified.
	assert.InDelta(t, 0.125, maxAbs(quiet), 1e-3)

	y1, y2, err = NormaliseEnergy(quiet, loud, 0)
	require.NoError(t, err)
	testutil.AssertSliceInDelta(t, loud, y1, 1e-9, "quieter side raised")
	testutil.AssertSliceInDelta(t, loud, y2, 1e-12, "louder side untouched")
}

func TestNormaliseEnergy_ClipsResult(t *testing.T) {
	loud := sine(512, 4, 512, 1.0)
	quiet := sine(512, 4, 512, 0.1)
	quiet[10] = 0.5

	_, y2, err := NormaliseEnergy(loud, quiet, 0)
	require.NoError(t, err)
	testutil.AssertAllInRange(t, y2, -1, 1)
}

func TestNormaliseEnergy_Windowed(t *testing.T) {
	const wsz = 128
	x1 := sine(4*wsz, 8, wsz, 0.4)
	x2 := sine(3*wsz+17, 8, wsz, 0.2)
	// Silence in the last full window of x2.
	for i := 2 * wsz; i < 3*wsz; i++ {
		x2[i] = 0
	}

	y1, y2, err := NormaliseEnergy(x1, x2, wsz)
	require.NoError(t, err)
	require.Len(t, y1, len(x1))
	require.Len(t, y2, len(x2))

	testutil.AssertSliceInDelta(t, x1, y1, 1e-12, "louder side untouched")
	testutil.AssertSliceInDelta(t, x1[:2*wsz], y2[:2*wsz], 1e-9, "raised windows")
	for i := 2 * wsz; i < 3*wsz; i++ {
		assert.Zero(t, y2[i], "silent window stays silent")
	}
}

func TestNormaliseEnergy_Edges(t *testing.T) {
	_, _, err := NormaliseEnergy([]float64{1}, []float64{1}, -1)
	assert.ErrorIs(t, err, ErrInvalidWindow)

	y1, y2, err := NormaliseEnergy(nil, []float64{2, 0.5}, 0)
	require.NoError(t, err)
	assert.Empty(t, y1)
	assert.Equal(t, []float64{1, 0.5}, y2)

	silent := make([]float64, 64)
	y1, y2, err = NormaliseEnergy(silent, sine(64, 2, 64, 0.3), 0)
	require.NoError(t, err)
	assert.Equal(t, silent, y1)
	testutil.AssertNoNaNOrInf(t, y2)
}

func maxAbs(x []float64) float64 {
	var m float64
	for _, v := range x {
		m = max(m, math.Abs(v))
	}
	return m
}
