package mdct

import (
	"fmt"
	"math"
	"runtime"

	"github.com/tphakala/go-mdct/internal/lapped"
	"github.com/tphakala/go-mdct/internal/polymat"
	"github.com/tphakala/go-mdct/internal/window"
)

// Common errors returned by the filter bank. They alias the sentinels of the
// internal packages so errors.Is works on errors from any layer.
var (
	// ErrConfiguration indicates an invalid band count, coefficient vector
	// or option.
	ErrConfiguration = lapped.ErrConfiguration

	// ErrDimension indicates coefficients or matrices of the wrong shape.
	ErrDimension = polymat.ErrDimension

	// ErrNumerical indicates a folding matrix that cannot be inverted.
	ErrNumerical = lapped.ErrNumerical
)

// Window selects how the filter bank coefficient vector is obtained.
type Window int

const (
	// WindowSine uses the sine window sin(π/(2N)·(n+½)).
	WindowSine Window = iota

	// WindowKBD uses the Kaiser-Bessel-derived window with Config.KBDAlpha.
	WindowKBD

	// WindowCustom uses Config.Coefficients as given.
	WindowCustom
)

// String returns the window name.
func (w Window) String() string {
	switch w {
	case WindowSine:
		return "sine"
	case WindowKBD:
		return "kbd"
	case WindowCustom:
		return "custom"
	default:
		return fmt.Sprintf("window(%d)", int(w))
	}
}

// ParseWindow parses a window name as printed by Window.String.
func ParseWindow(name string) (Window, error) {
	switch name {
	case "sine":
		return WindowSine, nil
	case "kbd":
		return WindowKBD, nil
	case "custom":
		return WindowCustom, nil
	default:
		return 0, fmt.Errorf("%w: unknown window %q", ErrConfiguration, name)
	}
}

// Config holds filter bank configuration.
type Config struct {
	// Bands is the number of subbands N (even, positive). It may be left 0
	// with WindowCustom, in which case it is derived from the coefficients.
	Bands int

	// Window selects the coefficient source.
	Window Window

	// KBDAlpha is the Kaiser-Bessel-derived shape parameter.
	// Zero selects DefaultKBDAlpha.
	KBDAlpha float64

	// Coefficients is the 1.5·N coefficient vector used with WindowCustom.
	Coefficients []float64

	// EnableParallel splits the polynomial products of long signals and
	// the channels of AnalyzeMulti/SynthesizeMulti across goroutines.
	// Results are bit-identical to the sequential path.
	EnableParallel bool

	// Workers bounds the goroutines used when EnableParallel is set.
	// Zero selects runtime.GOMAXPROCS(0).
	Workers int
}

// Validate checks if the configuration is valid.
func (c *Config) Validate() error {
	switch c.Window {
	case WindowSine, WindowKBD:
		if err := lapped.ValidateBands(c.Bands); err != nil {
			return err
		}
		if c.Bands > maxBands {
			return fmt.Errorf("%w: too many bands (max %d)", ErrConfiguration, maxBands)
		}
		if len(c.Coefficients) != 0 {
			return fmt.Errorf("%w: coefficients given for %s window", ErrConfiguration, c.Window)
		}

	case WindowCustom:
		n, err := lapped.BandsFor(len(c.Coefficients))
		if err != nil {
			return err
		}
		if c.Bands != 0 && c.Bands != n {
			return fmt.Errorf("%w: %d coefficients imply %d bands, config says %d",
				ErrConfiguration, len(c.Coefficients), n, c.Bands)
		}

	default:
		return fmt.Errorf("%w: unknown window %d", ErrConfiguration, int(c.Window))
	}

	if c.KBDAlpha < 0 || math.IsNaN(c.KBDAlpha) || math.IsInf(c.KBDAlpha, 0) {
		return fmt.Errorf("%w: KBD alpha must be a non-negative number", ErrConfiguration)
	}
	if c.Workers < 0 {
		return fmt.Errorf("%w: workers must not be negative", ErrConfiguration)
	}
	return nil
}

// coefficients returns the coefficient vector selected by the config.
// The config must be valid.
func (c *Config) coefficients() ([]float64, error) {
	switch c.Window {
	case WindowSine:
		return SineCoefficients(c.Bands)
	case WindowKBD:
		alpha := c.KBDAlpha
		if alpha == 0 {
			alpha = DefaultKBDAlpha
		}
		return KBDCoefficients(c.Bands, alpha)
	default:
		fb := make([]float64, len(c.Coefficients))
		copy(fb, c.Coefficients)
		return fb, nil
	}
}

func (c *Config) workers() int {
	if !c.EnableParallel {
		return 1
	}
	if c.Workers > 0 {
		return c.Workers
	}
	return runtime.GOMAXPROCS(0)
}

// DefaultKBDAlpha is the Kaiser-Bessel-derived α used when Config.KBDAlpha is 0.
const DefaultKBDAlpha = window.DefaultKBDAlpha

// SineCoefficients returns the 1.5·N coefficient vector of the sine window.
func SineCoefficients(bands int) ([]float64, error) {
	w, err := window.Sine(bands)
	if err != nil {
		return nil, fmt.Errorf("%w: %w", ErrConfiguration, err)
	}
	return window.Coefficients(w)
}

// KBDCoefficients returns the 1.5·N coefficient vector of the
// Kaiser-Bessel-derived window with shape parameter alpha.
func KBDCoefficients(bands int, alpha float64) ([]float64, error) {
	w, err := window.KBD(bands, alpha)
	if err != nil {
		return nil, fmt.Errorf("%w: %w", ErrConfiguration, err)
	}
	return window.Coefficients(w)
}

// Info describes a filter bank.
type Info struct {
	// Bands is the number of subbands N.
	Bands int

	// Window is the coefficient source.
	Window string

	// Coefficients is the length of the coefficient vector (1.5·N).
	Coefficients int

	// Latency is the end-to-end delay in samples.
	Latency int

	// ConditionNumber is the 2-norm condition number of the folding matrix.
	ConditionNumber float64

	// Workers is the number of goroutines used for large products.
	Workers int

	// MemoryUsage is the approximate memory held by the matrices in bytes.
	MemoryUsage int64

	// SIMDEnabled indicates if SIMD optimizations are active.
	SIMDEnabled bool

	// SIMDType describes the SIMD instruction set in use.
	SIMDType string
}
