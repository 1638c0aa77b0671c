package mathutil

const (
	// seriesEpsilon stops the I₀ power series once a term no longer changes
	// the float64 sum.
	seriesEpsilon = 1e-17

	// seriesLimit is the largest argument summed directly. I₀(713) overflows
	// float64; past the limit only the logarithm is meaningful.
	seriesLimit = 700.0
)

// Kaiser & Schafer empirical design formula.
const (
	kaiserAttHigh   = 50.0 // dB
	kaiserAttMedium = 21.0 // dB

	kaiserHighSlope  = 0.1102
	kaiserHighOffset = 8.7

	kaiserMediumCoeff = 0.5842
	kaiserMediumPower = 0.4
	kaiserMediumSlope = 0.07886

	// Below this β the window is effectively rectangular.
	kaiserMinBeta = 0.1
)
