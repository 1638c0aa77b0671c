package mdct

import (
	"fmt"
)

// NewSine creates a filter bank with the sine window.
func NewSine(bands int) (*FilterBank, error) {
	return New(&Config{Bands: bands, Window: WindowSine})
}

// NewKBD creates a filter bank with the Kaiser-Bessel-derived window.
// alpha == 0 selects DefaultKBDAlpha.
func NewKBD(bands int, alpha float64) (*FilterBank, error) {
	return New(&Config{Bands: bands, Window: WindowKBD, KBDAlpha: alpha})
}

// NewCustom creates a filter bank from a 1.5·N coefficient vector.
func NewCustom(fb []float64) (*FilterBank, error) {
	return New(&Config{Window: WindowCustom, Coefficients: fb})
}

// Analyze is a convenience function for one-shot analysis of x into bands
// subbands with coefficient vector fb. The filter bank is taken from Shared,
// which holds at most Shared.Limit banks; call Shared.Purge to release them
// early.
func Analyze(x []float64, bands int, fb []float64) (*Coefficients, error) {
	n, err := bandsFor(fb)
	if err != nil {
		return nil, err
	}
	if n != bands {
		return nil, fmt.Errorf("%w: %d coefficients imply %d bands, got %d",
			ErrConfiguration, len(fb), n, bands)
	}

	b, err := Shared.Get(fb)
	if err != nil {
		return nil, err
	}
	return b.Analyze(x)
}

// Synthesize is a convenience function for one-shot synthesis. The band
// count is derived from len(fb) and must match y. Like Analyze it builds
// the bank through Shared.
func Synthesize(y *Coefficients, fb []float64) ([]float64, error) {
	if _, err := bandsFor(fb); err != nil {
		return nil, err
	}

	b, err := Shared.Get(fb)
	if err != nil {
		return nil, err
	}
	return b.Synthesize(y)
}

func bandsFor(fb []float64) (int, error) {
	cfg := Config{Window: WindowCustom, Coefficients: fb}
	if err := cfg.Validate(); err != nil {
		return 0, err
	}
	return len(fb) / 3 * 2, nil
}
