// Command mdct-wav runs an audio file through MDCT analysis and synthesis.
//
// Usage:
//
//	mdct-wav input.wav output.wav
//	mdct-wav -n 256 -window kbd -alpha 6 input.mp3 output.wav
//	mdct-wav -bits 8 speech.wav speech_q8.wav          # quantise subband coefficients
//	mdct-wav -window custom -coeffs fb.txt in.wav out.wav
//
// The reconstruction is aligned with the input (the filter bank delay is
// removed), clipped to [-1, 1] and written with the requested PCM depth.
// The signal-to-noise ratio of the reconstruction is printed per channel.
package main

import (
	"flag"
	"fmt"
	"log"
	"os"
	"path/filepath"
	"runtime/pprof"
	"time"

	mdct "github.com/tphakala/go-mdct"
)

const (
	// CLI defaults
	defaultBands    = 512
	defaultPCMBits  = 16
	minRequiredArgs = 2
)

func main() {
	if err := run(); err != nil {
		log.Fatal(err)
	}
}

func run() error {
	var opts options
	flag.IntVar(&opts.bands, "n", defaultBands, "Number of subbands (even)")
	flag.StringVar(&opts.window, "window", "sine", "Window: sine, kbd, custom")
	flag.Float64Var(&opts.alpha, "alpha", mdct.DefaultKBDAlpha, "KBD window shape parameter")
	flag.StringVar(&opts.coeffsPath, "coeffs", "", "Coefficient file for -window custom (1.5*N values)")
	flag.IntVar(&opts.quantBits, "bits", 0, "Quantise subband coefficients to this many bits (0 = off)")
	flag.IntVar(&opts.pcmBits, "pcm-bits", defaultPCMBits, "Output PCM depth: 8, 16, 24, 32")
	flag.BoolVar(&opts.mono, "mono", false, "Downmix the input to mono")
	flag.Float64Var(&opts.start, "start", 0, "Segment start in seconds")
	flag.Float64Var(&opts.end, "end", 0, "Segment end in seconds (0 = end of file)")
	flag.IntVar(&opts.normalise, "normalise", -1, "Match output energy to the input with this window (0 = global, -1 = off)")
	flag.BoolVar(&opts.parallel, "parallel", true, "Process channels and long products concurrently")
	flag.BoolVar(&opts.play, "play", false, "Play the reconstruction after writing it")
	flag.BoolVar(&opts.verbose, "v", false, "Verbose output")
	cpuprofile := flag.String("cpuprofile", "", "Write CPU profile to file (for PGO)")
	flag.Parse()

	args := flag.Args()
	if len(args) < minRequiredArgs {
		fmt.Fprintf(os.Stderr, "Usage: %s [options] input output\n\n", os.Args[0])
		fmt.Fprintf(os.Stderr, "Options:\n")
		flag.PrintDefaults()
		fmt.Fprintf(os.Stderr, "\nExamples:\n")
		fmt.Fprintf(os.Stderr, "  %s in.wav out.wav                  # Sine window, 512 bands\n", os.Args[0])
		fmt.Fprintf(os.Stderr, "  %s -window kbd -n 256 in.mp3 out.wav\n", os.Args[0])
		fmt.Fprintf(os.Stderr, "  %s -bits 6 speech.wav coarse.wav   # Hear coefficient quantisation\n", os.Args[0])
		return fmt.Errorf("insufficient arguments")
	}
	opts.input, opts.output = args[0], args[1]

	if *cpuprofile != "" {
		f, err := os.Create(*cpuprofile)
		if err != nil {
			return fmt.Errorf("could not create CPU profile: %w", err)
		}
		if err := pprof.StartCPUProfile(f); err != nil {
			_ = f.Close()
			return fmt.Errorf("could not start CPU profile: %w", err)
		}
		defer func() {
			pprof.StopCPUProfile()
			_ = f.Close()
		}()
	}

	start := time.Now()
	stats, err := processFile(opts)
	if err != nil {
		return err
	}
	elapsed := time.Since(start)

	fmt.Printf("Processed %s -> %s\n", filepath.Base(opts.input), filepath.Base(opts.output))
	fmt.Printf("  %d Hz, %d channels, %d samples, %d bands (%s window)\n",
		stats.rate, stats.channels, stats.samples, stats.bands, stats.window)
	fmt.Printf("  %d blocks per channel, delay %d samples\n", stats.blocks, stats.delay)
	if opts.quantBits > 0 {
		fmt.Printf("  Quantisation: %d bits, step %.3g\n", opts.quantBits, stats.step)
	}
	for ch, snr := range stats.snr {
		fmt.Printf("  Channel %d SNR: %s\n", ch, formatSNR(snr))
	}
	fmt.Printf("  Duration: %.2fs, Speed: %.1fx realtime\n",
		elapsed.Seconds(), float64(stats.samples)/float64(stats.rate)/elapsed.Seconds())

	if opts.play {
		return playOutput(opts.output, opts.verbose)
	}
	return nil
}
