package mdct

import (
	"context"
	"fmt"

	"golang.org/x/sync/errgroup"

	"github.com/tphakala/go-mdct/internal/dct4"
	"github.com/tphakala/go-mdct/internal/lapped"
	"github.com/tphakala/go-mdct/internal/pipeline"
	"github.com/tphakala/go-mdct/internal/polymat"
	"github.com/tphakala/go-mdct/internal/polyphase"
)

// FilterBank is a polyphase-matrix MDCT filter bank for a fixed band count
// and coefficient vector.
//
// All matrices are built and the folding matrix inverted once in New. A
// FilterBank is immutable and safe for concurrent use.
type FilterBank struct {
	bands   int
	window  Window
	fb      []float64
	workers int
	cond    float64

	fold   *polymat.Matrix // Fa
	unfold *polymat.Matrix // Fa⁻¹
	delay  *polymat.Matrix // D
	undo   *polymat.Matrix // Dinv

	analysis  *pipeline.Pipeline
	synthesis *pipeline.Pipeline
}

// New creates a filter bank with the specified configuration.
func New(config *Config) (*FilterBank, error) {
	if config == nil {
		return nil, fmt.Errorf("%w: config is nil", ErrConfiguration)
	}
	if err := config.Validate(); err != nil {
		return nil, err
	}

	fb, err := config.coefficients()
	if err != nil {
		return nil, err
	}
	return newFilterBank(fb, config.Window, config.workers())
}

func newFilterBank(fb []float64, win Window, workers int) (*FilterBank, error) {
	n, err := lapped.BandsFor(len(fb))
	if err != nil {
		return nil, err
	}

	fold, err := lapped.Folding(fb)
	if err != nil {
		return nil, err
	}
	unfold, err := lapped.InvertZeroTap(fold)
	if err != nil {
		return nil, err
	}
	cond, err := lapped.Condition(fold)
	if err != nil {
		return nil, err
	}
	delay, undo, err := lapped.Delay(n)
	if err != nil {
		return nil, err
	}
	tr, err := dct4.New(n)
	if err != nil {
		return nil, err
	}

	b := &FilterBank{
		bands:   n,
		window:  win,
		fb:      fb,
		workers: workers,
		cond:    cond,
		fold:    fold,
		unfold:  unfold,
		delay:   delay,
		undo:    undo,
	}

	transform := pipeline.NewTransformStage(tr)
	foldStage, err := pipeline.NewMulStage(pipeline.StageFold, fold, workers)
	if err != nil {
		return nil, err
	}
	delayStage, err := pipeline.NewMulStage(pipeline.StageDelay, delay, workers)
	if err != nil {
		return nil, err
	}
	undoStage, err := pipeline.NewMulStage(pipeline.StageDelay, undo, workers)
	if err != nil {
		return nil, err
	}
	unfoldStage, err := pipeline.NewMulStage(pipeline.StageFold, unfold, workers)
	if err != nil {
		return nil, err
	}

	if b.analysis, err = pipeline.New(foldStage, delayStage, transform); err != nil {
		return nil, err
	}
	if b.synthesis, err = pipeline.New(transform, undoStage, unfoldStage); err != nil {
		return nil, err
	}
	return b, nil
}

// Bands returns the number of subbands N.
func (b *FilterBank) Bands() int { return b.bands }

// Delay returns the end-to-end delay in samples:
// Synthesize(Analyze(x))[Delay()+t] == x[t]. D·Dinv is a one-block delay,
// so this is always Bands().
func (b *FilterBank) Delay() int { return b.bands }

// Coefficients returns a copy of the coefficient vector.
func (b *FilterBank) Coefficients() []float64 {
	out := make([]float64, len(b.fb))
	copy(out, b.fb)
	return out
}

// Folding returns the folding matrix Fa.
func (b *FilterBank) Folding() *polymat.Matrix { return b.fold }

// Unfolding returns the synthesis folding matrix Fa⁻¹.
func (b *FilterBank) Unfolding() *polymat.Matrix { return b.unfold }

// DelayMatrices returns the analysis delay matrix D and its synthesis
// counterpart Dinv.
func (b *FilterBank) DelayMatrices() (d, dinv *polymat.Matrix) { return b.delay, b.undo }

// Analyze transforms a signal into subband coefficients. The result has
// Bands() rows and ceil(len(x)/Bands()) + 1 blocks; an empty signal
// occupies one zero block.
func (b *FilterBank) Analyze(x []float64) (*Coefficients, error) {
	return b.AnalyzeContext(context.Background(), x)
}

// AnalyzeContext is Analyze with cancellation of the parallel products.
func (b *FilterBank) AnalyzeContext(ctx context.Context, x []float64) (*Coefficients, error) {
	blocks, err := polyphase.Blocken(x, b.bands)
	if err != nil {
		return nil, fmt.Errorf("%w: %w", ErrConfiguration, err)
	}

	y, err := b.analysis.Run(ctx, blocks)
	if err != nil {
		return nil, err
	}

	// A 1 × N × T row vector is stored entry-major, which is exactly the
	// row-major N × T coefficient grid.
	return &Coefficients{bands: b.bands, blocks: y.Taps(), data: y.Data()}, nil
}

// Synthesize reconstructs a signal from subband coefficients. The result
// has (y.Blocks()+1)·Bands() samples and is delayed by Delay() samples.
func (b *FilterBank) Synthesize(y *Coefficients) ([]float64, error) {
	return b.SynthesizeContext(context.Background(), y)
}

// SynthesizeContext is Synthesize with cancellation of the parallel products.
func (b *FilterBank) SynthesizeContext(ctx context.Context, y *Coefficients) ([]float64, error) {
	if y == nil {
		return nil, fmt.Errorf("%w: nil coefficients", ErrDimension)
	}
	if y.bands != b.bands {
		return nil, fmt.Errorf("%w: coefficients have %d bands, filter bank has %d",
			ErrDimension, y.bands, b.bands)
	}

	xp, err := polymat.New(1, b.bands, y.blocks, y.data)
	if err != nil {
		return nil, err
	}
	xp, err = b.synthesis.Run(ctx, xp)
	if err != nil {
		return nil, err
	}
	return polyphase.Unblock(xp)
}

// AnalyzeMulti analyses independent channels. With EnableParallel the
// channels run concurrently.
func (b *FilterBank) AnalyzeMulti(channels [][]float64) ([]*Coefficients, error) {
	out := make([]*Coefficients, len(channels))
	err := b.forEachChannel(len(channels), func(ctx context.Context, ch int) error {
		y, err := b.AnalyzeContext(ctx, channels[ch])
		if err != nil {
			return fmt.Errorf("channel %d: %w", ch, err)
		}
		out[ch] = y
		return nil
	})
	if err != nil {
		return nil, err
	}
	return out, nil
}

// SynthesizeMulti reconstructs independent channels. With EnableParallel
// the channels run concurrently.
func (b *FilterBank) SynthesizeMulti(channels []*Coefficients) ([][]float64, error) {
	out := make([][]float64, len(channels))
	err := b.forEachChannel(len(channels), func(ctx context.Context, ch int) error {
		x, err := b.SynthesizeContext(ctx, channels[ch])
		if err != nil {
			return fmt.Errorf("channel %d: %w", ch, err)
		}
		out[ch] = x
		return nil
	})
	if err != nil {
		return nil, err
	}
	return out, nil
}

func (b *FilterBank) forEachChannel(count int, fn func(ctx context.Context, ch int) error) error {
	if count > maxChannels {
		return fmt.Errorf("%w: too many channels (max %d)", ErrConfiguration, maxChannels)
	}

	// Sequential processing (default or when parallel disabled)
	if b.workers <= 1 || count <= 1 {
		for ch := range count {
			if err := fn(context.Background(), ch); err != nil {
				return err
			}
		}
		return nil
	}

	g, ctx := errgroup.WithContext(context.Background())
	g.SetLimit(b.workers)
	for ch := range count {
		g.Go(func() error { return fn(ctx, ch) })
	}
	return g.Wait()
}

// GetInfo returns information about the filter bank.
func (b *FilterBank) GetInfo() Info {
	info := Info{
		Bands:           b.bands,
		Window:          b.window.String(),
		Coefficients:    len(b.fb),
		Latency:         b.Delay(),
		ConditionNumber: b.cond,
		Workers:         b.workers,
		MemoryUsage:     b.analysis.GetMemoryUsage() + matrixBytes(b.unfold) + matrixBytes(b.undo),
	}
	if simd := b.analysis.GetSIMDInfo(); simd != "" {
		info.SIMDEnabled = true
		info.SIMDType = simd
	}
	return info
}

func matrixBytes(m *polymat.Matrix) int64 {
	rows, cols, taps := m.Shape()
	return int64(rows*cols*taps) * bytesPerFloat64
}
