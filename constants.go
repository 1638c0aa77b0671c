package mdct

// Limits
const (
	maxChannels = 256     // Maximum channel count for AnalyzeMulti/SynthesizeMulti
	maxBands    = 1 << 16 // Maximum number of subbands
)

// Memory accounting
const (
	bytesPerFloat64 = 8
)
