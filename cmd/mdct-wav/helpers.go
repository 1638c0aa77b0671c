package main

import (
	"context"
	"fmt"
	"log"
	"math"
	"os"
	"os/signal"
	"time"

	mdct "github.com/tphakala/go-mdct"
	"github.com/tphakala/go-mdct/audioio"
)

// options collects the command line.
type options struct {
	input, output string

	bands      int
	window     string
	alpha      float64
	coeffsPath string
	quantBits  int
	pcmBits    int
	mono       bool
	start, end float64
	normalise  int
	parallel   bool
	play       bool
	verbose    bool
}

// processStats summarises one run.
type processStats struct {
	rate     int
	channels int
	samples  int
	bands    int
	window   string
	blocks   int
	delay    int
	step     float64
	snr      []float64
}

// stageTimer logs the duration of each processing stage in verbose mode.
type stageTimer struct {
	verbose bool
	last    time.Time
}

func newStageTimer(verbose bool) *stageTimer {
	return &stageTimer{verbose: verbose, last: time.Now()}
}

// done logs the stage that just finished.
func (s *stageTimer) done(stage string) {
	if !s.verbose {
		return
	}
	now := time.Now()
	log.Printf("%s: %v", stage, now.Sub(s.last).Round(time.Microsecond))
	s.last = now
}

// buildConfig maps the command line onto a filter bank configuration.
func buildConfig(opts options) (*mdct.Config, error) {
	win, err := mdct.ParseWindow(opts.window)
	if err != nil {
		return nil, err
	}

	cfg := &mdct.Config{
		Bands:          opts.bands,
		Window:         win,
		EnableParallel: opts.parallel,
	}
	switch win {
	case mdct.WindowKBD:
		cfg.KBDAlpha = opts.alpha
	case mdct.WindowCustom:
		if opts.coeffsPath == "" {
			return nil, fmt.Errorf("-window custom needs -coeffs")
		}
		fb, err := loadCoefficients(opts.coeffsPath)
		if err != nil {
			return nil, err
		}
		cfg.Coefficients = fb
		// The coefficient count decides the band count.
		cfg.Bands = 0
	}

	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

func loadCoefficients(path string) ([]float64, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("failed to open coefficient file: %w", err)
	}
	defer func() { _ = f.Close() }()

	fb, err := mdct.ReadCoefficients(f)
	if err != nil {
		return nil, fmt.Errorf("failed to read coefficient file: %w", err)
	}
	return fb, nil
}

// processFile reads, transforms and writes one file.
func processFile(opts options) (*processStats, error) {
	cfg, err := buildConfig(opts)
	if err != nil {
		return nil, err
	}
	bank, err := mdct.New(cfg)
	if err != nil {
		return nil, err
	}

	outFormat, err := audioio.FormatFromPath(opts.output)
	if err != nil {
		return nil, err
	}

	timer := newStageTimer(opts.verbose)
	sig, err := audioio.Read(opts.input, audioio.Options{Mono: opts.mono, Start: opts.start, End: opts.end})
	if err != nil {
		return nil, fmt.Errorf("failed to read input: %w", err)
	}
	timer.done("read")

	if opts.verbose {
		info := bank.GetInfo()
		log.Printf("Input: %s (%d Hz, %d channels, %.2fs)", opts.input, sig.Rate, sig.NumChannels(), sig.Duration())
		log.Printf("Filter bank: %d bands, %s window, cond %.3g, %d workers",
			info.Bands, info.Window, info.ConditionNumber, info.Workers)
		if info.SIMDEnabled {
			log.Printf("SIMD: %s", info.SIMDType)
		}
	}

	out, stats, err := processSignal(bank, sig, opts.quantBits, timer)
	if err != nil {
		return nil, err
	}

	if opts.normalise >= 0 {
		for ch := range out.Channels {
			_, y, err := audioio.NormaliseEnergy(sig.Channels[ch], out.Channels[ch], opts.normalise)
			if err != nil {
				return nil, err
			}
			out.Channels[ch] = y
		}
		timer.done("normalise")
	}

	if err := audioio.Write(opts.output, out, opts.pcmBits, outFormat); err != nil {
		return nil, fmt.Errorf("failed to write output: %w", err)
	}
	timer.done("write")

	return stats, nil
}

// processSignal analyses every channel, optionally quantises the subband
// coefficients and reconstructs an aligned, clipped signal.
func processSignal(bank *mdct.FilterBank, sig *audioio.Signal, quantBits int, timer *stageTimer) (*audioio.Signal, *processStats, error) {
	coeffs, err := bank.AnalyzeMulti(sig.Channels)
	if err != nil {
		return nil, nil, fmt.Errorf("analysis failed: %w", err)
	}
	timer.done("analysis")

	var step float64
	if quantBits > 0 {
		step = quantizeAll(coeffs, quantBits)
		timer.done("quantise")
	}

	recon, err := bank.SynthesizeMulti(coeffs)
	if err != nil {
		return nil, nil, fmt.Errorf("synthesis failed: %w", err)
	}
	timer.done("synthesis")

	n := sig.Len()
	out := &audioio.Signal{Channels: make([][]float64, len(recon)), Rate: sig.Rate}
	stats := &processStats{
		rate:     sig.Rate,
		channels: sig.NumChannels(),
		samples:  n,
		bands:    bank.Bands(),
		window:   bank.GetInfo().Window,
		delay:    bank.Delay(),
		step:     step,
		snr:      make([]float64, len(recon)),
	}
	if len(coeffs) > 0 {
		stats.blocks = coeffs[0].Blocks()
	}

	for ch, x := range recon {
		y := trimDelay(x, bank.Delay(), n)
		audioio.Clip(y, -1, 1)
		out.Channels[ch] = y
		stats.snr[ch] = snrDB(sig.Channels[ch], y)
	}
	return out, stats, nil
}

// quantizeAll rounds every coefficient to a uniform grid spanning the peak
// magnitude with 2^(bits-1) steps per sign and returns the step. Silent
// input is left untouched and reports a zero step.
func quantizeAll(coeffs []*mdct.Coefficients, bits int) float64 {
	var peak float64
	for _, c := range coeffs {
		for _, v := range c.Data() {
			peak = max(peak, math.Abs(v))
		}
	}
	if peak == 0 {
		return 0
	}

	step := peak / math.Ldexp(1, bits-1)
	for _, c := range coeffs {
		c.Quantize(step)
	}
	return step
}

// trimDelay removes the filter bank delay and the trailing padding.
func trimDelay(x []float64, delay, n int) []float64 {
	out := make([]float64, n)
	if delay < len(x) {
		copy(out, x[delay:])
	}
	return out
}

// snrDB returns 10·log10(|ref|² / |ref - got|²), +Inf for an exact match.
func snrDB(ref, got []float64) float64 {
	var sig, noise float64
	for i, r := range ref {
		var g float64
		if i < len(got) {
			g = got[i]
		}
		sig += r * r
		noise += (r - g) * (r - g)
	}
	if noise == 0 {
		return math.Inf(1)
	}
	return 10 * math.Log10(sig/noise)
}

func formatSNR(snr float64) string {
	if math.IsInf(snr, 1) {
		return "exact"
	}
	return fmt.Sprintf("%.1f dB", snr)
}

// playOutput plays the written file until it ends or the user interrupts.
func playOutput(path string, verbose bool) error {
	sig, err := audioio.Read(path, audioio.Options{})
	if err != nil {
		return err
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt)
	defer stop()

	pb, err := audioio.Play(ctx, sig)
	if err != nil {
		return err
	}
	defer func() { _ = pb.Close() }()

	if verbose {
		log.Printf("Playing %s (Ctrl+C to stop)", path)
	}
	select {
	case <-pb.Done():
		return pb.Wait()
	case <-ctx.Done():
		return nil
	}
}
