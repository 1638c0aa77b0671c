// Package mathutil provides the special functions behind the Kaiser and
// Kaiser-Bessel-derived windows.
package mathutil

import "math"

// BesselI0 computes the modified Bessel function of the first kind, order
// zero, by its power series
//
//	I₀(x) = Σ ((x/2)^2k) / (k!)²
//
// which converges for every x and is accurate to float64 precision. For
// |x| beyond the float64 range of I₀ it returns +Inf; use LogBesselI0 there.
func BesselI0(x float64) float64 {
	ax := math.Abs(x)
	if ax > seriesLimit {
		return math.Exp(LogBesselI0(ax))
	}

	q := ax * ax / 4
	sum, term := 1.0, 1.0
	for k := 1.0; ; k++ {
		term *= q / (k * k)
		sum += term
		if term < sum*seriesEpsilon {
			return sum
		}
	}
}

// LogBesselI0 returns ln I₀(x) without overflow. Large arguments use the
// asymptotic expansion
//
//	I₀(x) ≈ eˣ / sqrt(2πx) · (1 + 1/(8x) + 9/(128x²) + 225/(3072x³))
func LogBesselI0(x float64) float64 {
	ax := math.Abs(x)
	if ax <= seriesLimit {
		return math.Log(BesselI0(ax))
	}
	inv := 1 / ax
	corr := inv * (1.0/8 + inv*(9.0/128+inv*225.0/3072))
	return ax - 0.5*math.Log(2*math.Pi*ax) + math.Log1p(corr)
}

// KaiserBeta computes the Kaiser β that reaches the given sidelobe
// attenuation in decibels:
//   - att > 50 dB: β = 0.1102 · (att - 8.7)
//   - 21 dB ≤ att ≤ 50 dB: β = 0.5842 · (att - 21)^0.4 + 0.07886 · (att - 21)
//   - att < 21 dB: β = 0
func KaiserBeta(attenuation float64) float64 {
	switch {
	case attenuation > kaiserAttHigh:
		return kaiserHighSlope * (attenuation - kaiserHighOffset)
	case attenuation >= kaiserAttMedium:
		d := attenuation - kaiserAttMedium
		return kaiserMediumCoeff*math.Pow(d, kaiserMediumPower) + kaiserMediumSlope*d
	default:
		return 0
	}
}

// KaiserAttenuation estimates the sidelobe attenuation of a Kaiser window
// with the given β by inverting the high-attenuation branch of KaiserBeta.
func KaiserAttenuation(beta float64) float64 {
	if beta < kaiserMinBeta {
		return 0
	}
	return kaiserHighOffset + beta/kaiserHighSlope
}

// KBDAlpha returns the Kaiser-Bessel-derived α (β = π·α) of the Kaiser
// kernel designed for the given attenuation.
func KBDAlpha(attenuation float64) float64 {
	return KaiserBeta(attenuation) / math.Pi
}

// KBDAttenuation is the inverse of KBDAlpha on the high-attenuation branch.
func KBDAttenuation(alpha float64) float64 {
	return KaiserAttenuation(math.Pi * alpha)
}
