package mdct

import (
	"bytes"
	"fmt"
	"math"
	"strings"
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/tphakala/go-mdct/internal/testutil"
	"github.com/tphakala/go-mdct/internal/window"
)

// fbLiteral is a non-symmetric coefficient vector for N = 4.
var fbLiteral = []float64{0.2, 0.55, 0.8, 0.95, 0.9, 0.6}

func ramp(n int) []float64 {
	x := make([]float64, n)
	for i := range x {
		x[i] = float64(i)
	}
	return x
}

// The analysis of 64 samples with N = 4 has 17 blocks, not 16: the 16
// signal blocks convolved with the two-tap delay matrix gain a tail block.
func TestScenario_RampN4(t *testing.T) {
	x := ramp(64)

	y, err := Analyze(x, 4, fbLiteral)
	require.NoError(t, err)
	bands, blocks := y.Shape()
	assert.Equal(t, 4, bands)
	assert.Equal(t, 17, blocks)

	xr, err := Synthesize(y, fbLiteral)
	require.NoError(t, err)
	require.Len(t, xr, 72)

	testutil.AssertSliceInDelta(t, x, xr[4:68], testutil.ReconstructionTolerance)
	for _, v := range append(xr[:4:4], xr[68:]...) {
		assert.InDelta(t, 0.0, v, testutil.ReconstructionTolerance)
	}
}

func TestRoundTrip(t *testing.T) {
	kbd := func(n int) []float64 {
		fb, err := KBDCoefficients(n, DefaultKBDAlpha)
		require.NoError(t, err)
		return fb
	}
	sine := func(n int) []float64 {
		fb, err := SineCoefficients(n)
		require.NoError(t, err)
		return fb
	}
	// Princen-Bradley does not hold for this one; the fold inverse still
	// reconstructs exactly.
	custom := func(n int) []float64 {
		fb := make([]float64, n*3/2)
		for i := range fb {
			fb[i] = 0.5 + 0.4*math.Sin(float64(i+1))
		}
		return fb
	}

	tests := []struct {
		name   string
		window func(int) []float64
	}{
		{"sine", sine},
		{"kbd", kbd},
		{"custom", custom},
	}

	for _, tt := range tests {
		for _, n := range []int{2, 4, 16, 64, 128} {
			t.Run(fmt.Sprintf("%s/N=%d", tt.name, n), func(t *testing.T) {
				fb := tt.window(n)
				bank, err := NewCustom(fb)
				require.NoError(t, err)

				for _, length := range []int{1, n - 1, n, 5*n + 3, 1000} {
					x := testutil.RandomSignal(uint64(length), length)

					y, err := bank.Analyze(x)
					require.NoError(t, err)
					assert.Equal(t, (length+n-1)/n+1, y.Blocks())

					xr, err := bank.Synthesize(y)
					require.NoError(t, err)
					require.Len(t, xr, (y.Blocks()+1)*n)

					testutil.AssertNoNaNOrInf(t, xr)
					testutil.AssertSliceInDelta(t, x, xr[n:n+length], testutil.ReconstructionTolerance,
						"length=%d", length)
				}
			})
		}
	}
}

func TestAnalyze_EmptySignal(t *testing.T) {
	bank, err := NewSine(8)
	require.NoError(t, err)

	y, err := bank.Analyze(nil)
	require.NoError(t, err)
	assert.Equal(t, 8, y.Bands())
	assert.Equal(t, 2, y.Blocks())
	for _, v := range y.Data() {
		assert.Zero(t, v)
	}
}

func TestImpulseResponse_Subband0(t *testing.T) {
	for _, n := range []int{4, 16} {
		fb, err := SineCoefficients(n)
		require.NoError(t, err)

		y, err := NewCoefficients(n, 16)
		require.NoError(t, err)
		y.Set(0, 0, 1)

		xr, err := Synthesize(y, fb)
		require.NoError(t, err)
		require.Len(t, xr, 17*n)

		var energy float64
		for i, v := range xr {
			if i >= 2*n {
				assert.Zero(t, v, "n=%d sample %d outside [0, 2N)", n, i)
			}
			energy += v * v
		}
		// An orthogonal bank maps a unit coefficient to a unit-energy basis function.
		assert.InDelta(t, 1.0, energy, 1e-9, "n=%d", n)
	}
}

// mdctBasis returns -w[n]·sqrt(2/N)·cos(π/N·(n+½+N/2)·(k+½)) for n < 2N,
// the windowed MDCT cosine of band k.
func mdctBasis(w []float64, k int) []float64 {
	n := len(w) / 2
	g := make([]float64, 2*n)
	for i := range g {
		phase := math.Pi / float64(n) * (float64(i) + 0.5 + float64(n)/2) * (float64(k) + 0.5)
		g[i] = -w[i] * math.Sqrt(2/float64(n)) * math.Cos(phase)
	}
	return g
}

func TestSynthesis_MDCTBasis(t *testing.T) {
	for _, n := range []int{2, 8, 16, 64} {
		w, err := window.Sine(n)
		require.NoError(t, err)
		fb, err := window.Coefficients(w)
		require.NoError(t, err)
		bank, err := NewCustom(fb)
		require.NoError(t, err)

		const block = 1
		for k := range n {
			y, err := NewCoefficients(n, 4)
			require.NoError(t, err)
			y.Set(k, block, 1)

			xr, err := bank.Synthesize(y)
			require.NoError(t, err)

			want := make([]float64, len(xr))
			copy(want[block*n:], mdctBasis(w, k))
			testutil.AssertSliceInDelta(t, want, xr, 1e-12, "n=%d k=%d", n, k)
		}
	}
}

func TestAnalysis_DirectMDCT(t *testing.T) {
	for _, n := range []int{4, 8, 64} {
		w, err := window.Sine(n)
		require.NoError(t, err)
		bank, err := NewSine(n)
		require.NoError(t, err)

		x := testutil.RandomSignal(uint64(n), 5*n+3)
		y, err := bank.Analyze(x)
		require.NoError(t, err)

		// Block m covers the frame x[(m-1)N : (m+1)N].
		for m := range y.Blocks() {
			for k := range n {
				g := mdctBasis(w, k)
				var want float64
				for i, v := range g {
					if t0 := (m-1)*n + i; t0 >= 0 && t0 < len(x) {
						want += v * x[t0]
					}
				}
				assert.InDelta(t, want, y.At(k, m), 1e-12, "n=%d block=%d band=%d", n, m, k)
			}
		}
	}
}

func TestDelay_TimeImpulse(t *testing.T) {
	const n = 8
	bank, err := NewKBD(n, 0)
	require.NoError(t, err)
	assert.Equal(t, n, bank.Delay())

	for _, pos := range []int{0, 5, 8, 37} {
		x := make([]float64, 48)
		x[pos] = 1

		y, err := bank.Analyze(x)
		require.NoError(t, err)
		xr, err := bank.Synthesize(y)
		require.NoError(t, err)

		for i, v := range xr {
			want := 0.0
			if i == pos+bank.Delay() {
				want = 1
			}
			assert.InDelta(t, want, v, 1e-12, "pos=%d sample %d", pos, i)
		}
	}
}

func TestAnalyze_Deterministic(t *testing.T) {
	bank, err := NewSine(32)
	require.NoError(t, err)
	x := testutil.RandomSignal(9, 777)

	a, err := bank.Analyze(x)
	require.NoError(t, err)
	b, err := bank.Analyze(x)
	require.NoError(t, err)
	assert.Equal(t, a.Data(), b.Data())
}

func TestAnalyze_SineToneConcentrates(t *testing.T) {
	const n = 64
	bank, err := NewSine(n)
	require.NoError(t, err)

	// Centre frequency of band 10: (10.5)/(2N) cycles per sample.
	x := make([]float64, 64*n)
	for i := range x {
		x[i] = math.Cos(math.Pi / n * 10.5 * float64(i))
	}
	y, err := bank.Analyze(x)
	require.NoError(t, err)

	energy := make([]float64, n)
	for k := range n {
		for _, v := range y.Row(k) {
			energy[k] += v * v
		}
	}
	var peak int
	for k := range energy {
		if energy[k] > energy[peak] {
			peak = k
		}
	}
	assert.InDelta(t, 10, peak, 1)
}

func TestConfig_Validate(t *testing.T) {
	tests := []struct {
		name    string
		cfg     Config
		wantErr error
	}{
		{"sine", Config{Bands: 8}, nil},
		{"kbd", Config{Bands: 8, Window: WindowKBD, KBDAlpha: 6}, nil},
		{"custom", Config{Window: WindowCustom, Coefficients: fbLiteral}, nil},
		{"custom matching bands", Config{Bands: 4, Window: WindowCustom, Coefficients: fbLiteral}, nil},
		{"odd bands", Config{Bands: 7}, ErrConfiguration},
		{"zero bands", Config{}, ErrConfiguration},
		{"too many bands", Config{Bands: maxBands * 2}, ErrConfiguration},
		{"coefficients with sine", Config{Bands: 4, Coefficients: fbLiteral}, ErrConfiguration},
		{"custom wrong length", Config{Window: WindowCustom, Coefficients: fbLiteral[:5]}, ErrConfiguration},
		{"custom band mismatch", Config{Bands: 8, Window: WindowCustom, Coefficients: fbLiteral}, ErrConfiguration},
		{"negative alpha", Config{Bands: 8, Window: WindowKBD, KBDAlpha: -1}, ErrConfiguration},
		{"negative workers", Config{Bands: 8, Workers: -1}, ErrConfiguration},
		{"unknown window", Config{Bands: 8, Window: Window(42)}, ErrConfiguration},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := tt.cfg.Validate()
			if tt.wantErr == nil {
				assert.NoError(t, err)
				return
			}
			assert.ErrorIs(t, err, tt.wantErr)
		})
	}
}

func TestNew_Errors(t *testing.T) {
	_, err := New(nil)
	assert.ErrorIs(t, err, ErrConfiguration)

	_, err = NewCustom([]float64{0, 1, 1, 1, 1, 1})
	assert.ErrorIs(t, err, ErrNumerical)

	_, err = NewCustom([]float64{1, 1, math.Inf(1), 1, 1, 1})
	assert.ErrorIs(t, err, ErrNumerical)

	_, err = NewSine(3)
	assert.ErrorIs(t, err, ErrConfiguration)
}

func TestAnalyze_ConvenienceErrors(t *testing.T) {
	_, err := Analyze(ramp(8), 8, fbLiteral)
	assert.ErrorIs(t, err, ErrConfiguration)

	_, err = Analyze(ramp(8), 4, fbLiteral[:4])
	assert.ErrorIs(t, err, ErrConfiguration)

	y, err := NewCoefficients(8, 2)
	require.NoError(t, err)
	_, err = Synthesize(y, fbLiteral)
	assert.ErrorIs(t, err, ErrDimension)

	_, err = Synthesize(nil, fbLiteral)
	assert.ErrorIs(t, err, ErrDimension)
}

func TestFilterBank_Accessors(t *testing.T) {
	bank, err := NewCustom(fbLiteral)
	require.NoError(t, err)

	assert.Equal(t, 4, bank.Bands())
	assert.Equal(t, fbLiteral, bank.Coefficients())

	fa := bank.Folding()
	fs := bank.Unfolding()
	assert.Equal(t, 1, fa.Taps())
	assert.Equal(t, 1, fs.Taps())

	d, dinv := bank.DelayMatrices()
	assert.Equal(t, 2, d.Taps())
	assert.Equal(t, 2, dinv.Taps())

	// The copy is independent of the bank.
	fb := bank.Coefficients()
	fb[0] = 42
	assert.Equal(t, 0.2, bank.Coefficients()[0])
}

func TestGetInfo(t *testing.T) {
	bank, err := New(&Config{Bands: 128, Window: WindowKBD, EnableParallel: true, Workers: 3})
	require.NoError(t, err)

	info := bank.GetInfo()
	assert.Equal(t, 128, info.Bands)
	assert.Equal(t, "kbd", info.Window)
	assert.Equal(t, 192, info.Coefficients)
	assert.Equal(t, 128, info.Latency)
	assert.Equal(t, 3, info.Workers)
	// KBD satisfies Princen-Bradley, so the fold is orthogonal.
	assert.InDelta(t, 1.0, info.ConditionNumber, 1e-9)
	assert.Positive(t, info.MemoryUsage)
}

func TestWindow_StringAndParse(t *testing.T) {
	for _, w := range []Window{WindowSine, WindowKBD, WindowCustom} {
		got, err := ParseWindow(w.String())
		require.NoError(t, err)
		assert.Equal(t, w, got)
	}
	_, err := ParseWindow("hann")
	assert.ErrorIs(t, err, ErrConfiguration)
	assert.Equal(t, "window(9)", Window(9).String())
}

func TestCoefficients(t *testing.T) {
	c, err := CoefficientsFromRows([][]float64{{1, 2, 3}, {4, 5, 6}})
	require.NoError(t, err)

	assert.Equal(t, 2, c.Bands())
	assert.Equal(t, 3, c.Blocks())
	assert.Equal(t, 6.0, c.At(1, 2))
	assert.Equal(t, []float64{4, 5, 6}, c.Row(1))
	assert.Equal(t, []float64{2, 5}, c.Block(1))

	clone := c.Clone()
	clone.Set(0, 0, 10)
	assert.Equal(t, 1.0, c.At(0, 0))

	clone.Quantize(4)
	assert.Equal(t, []float64{12, 4, 4, 4, 4, 8}, clone.Data())

	_, err = CoefficientsFromRows([][]float64{{1, 2}, {3}})
	assert.ErrorIs(t, err, ErrDimension)
	_, err = CoefficientsFromRows(nil)
	assert.ErrorIs(t, err, ErrDimension)
	_, err = NewCoefficients(0, 3)
	assert.ErrorIs(t, err, ErrDimension)
}

func TestCache_SharesFilterBanks(t *testing.T) {
	var cache Cache
	fb, err := SineCoefficients(16)
	require.NoError(t, err)

	var wg sync.WaitGroup
	banks := make([]*FilterBank, 8)
	for i := range banks {
		wg.Add(1)
		go func() {
			defer wg.Done()
			b, err := cache.Get(fb)
			assert.NoError(t, err)
			banks[i] = b
		}()
	}
	wg.Wait()

	for _, b := range banks {
		assert.Same(t, banks[0], b)
	}
	assert.Equal(t, 1, cache.Len())

	_, err = cache.Get(fbLiteral)
	require.NoError(t, err)
	assert.Equal(t, 2, cache.Len())

	_, err = cache.Get([]float64{0, 1, 1, 1, 1, 1})
	assert.ErrorIs(t, err, ErrNumerical)
	assert.Equal(t, 2, cache.Len())

	cache.Purge()
	assert.Zero(t, cache.Len())
}

func TestCache_Limit(t *testing.T) {
	cache := Cache{Limit: 3}
	for i := range 10 {
		fb := []float64{1, 1, 1, 1, 1, float64(i + 2)}
		_, err := cache.Get(fb)
		require.NoError(t, err)
		assert.LessOrEqual(t, cache.Len(), 3, "after %d windows", i+1)
	}
	assert.Positive(t, cache.Len())

	var unlimited Cache
	for i := range DefaultCacheLimit + 5 {
		_, err := unlimited.Get([]float64{1, 1, 1, 1, 1, float64(i + 2)})
		require.NoError(t, err)
	}
	assert.LessOrEqual(t, unlimited.Len(), DefaultCacheLimit)
}

func TestReadWriteCoefficients(t *testing.T) {
	fb, err := KBDCoefficients(8, DefaultKBDAlpha)
	require.NoError(t, err)

	var buf bytes.Buffer
	require.NoError(t, WriteCoefficients(&buf, fb))

	got, err := ReadCoefficients(&buf)
	require.NoError(t, err)
	assert.Equal(t, fb, got)

	table := "# optimised N=4\n0.2 0.55\n0.8   0.95 # middle\n\n0.9\n0.6\n"
	got, err = ReadCoefficients(strings.NewReader(table))
	require.NoError(t, err)
	assert.Equal(t, fbLiteral, got)

	_, err = ReadCoefficients(strings.NewReader("1 2 x"))
	assert.ErrorIs(t, err, ErrConfiguration)
	_, err = ReadCoefficients(strings.NewReader("1 2 3 4"))
	assert.ErrorIs(t, err, ErrConfiguration)
}
