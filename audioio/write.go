package audioio

import (
	"context"
	"fmt"
	"io"
	"math"
	"os"

	"github.com/go-audio/aiff"
	"github.com/go-audio/audio"
	"github.com/go-audio/wav"
)

// wavFormatPCM is the WAVE_FORMAT_PCM tag.
const wavFormatPCM = 1

// WriteOptions controls WriteContext.
type WriteOptions struct {
	// Bits is the PCM sample depth: 8, 16, 24 or 32.
	Bits int

	// Format selects the output container.
	Format Format

	// Transcoder encodes MP3, Ogg Vorbis, AU and WMA output. Nil uses
	// DefaultTranscoder.
	Transcoder *Transcoder
}

// Write stores sig at path. Samples outside [-1, 1] are clipped.
func Write(path string, sig *Signal, bits int, format Format) error {
	return WriteContext(context.Background(), path, sig, WriteOptions{Bits: bits, Format: format})
}

// WriteContext is Write with a context bounding the external transcoder.
// Encoded formats are written as a temporary WAV first; the temporary file
// is removed on every path.
func WriteContext(ctx context.Context, path string, sig *Signal, opts WriteOptions) error {
	if err := sig.Validate(); err != nil {
		return err
	}
	if _, err := fullScale(opts.Bits); err != nil {
		return err
	}
	if _, ok := formatNames[opts.Format]; !ok {
		return fmt.Errorf("%w: %s", ErrUnsupportedFormat, opts.Format)
	}

	switch opts.Format {
	case FormatWAV:
		return writeFile(path, sig, opts.Bits, EncodeWAV)
	case FormatAIFF:
		return writeFile(path, sig, opts.Bits, EncodeAIFF)
	}

	tc := opts.Transcoder
	if tc == nil {
		tc = DefaultTranscoder
	}
	// Fail before doing any work when the transcoder is missing.
	if !tc.Available() {
		return fmt.Errorf("%w: %s", ErrTranscoderNotFound, tc.binary())
	}

	tmp, err := tempPath("mdct-out-*.wav")
	if err != nil {
		return err
	}
	defer func() { _ = os.Remove(tmp) }()

	if err := writeFile(tmp, sig, opts.Bits, EncodeWAV); err != nil {
		return err
	}
	return tc.Transcode(ctx, tmp, path)
}

type encodeFunc func(w io.WriteSeeker, sig *Signal, bits int) error

func writeFile(path string, sig *Signal, bits int, encode encodeFunc) (err error) {
	f, err := os.Create(path)
	if err != nil {
		return fmt.Errorf("create %s: %w", path, err)
	}
	// Close errors matter: the encoders patch the header on close.
	defer func() {
		if closeErr := f.Close(); err == nil && closeErr != nil {
			err = fmt.Errorf("close %s: %w", path, closeErr)
		}
	}()
	return encode(f, sig, bits)
}

// EncodeWAV writes sig as integer PCM WAV.
func EncodeWAV(w io.WriteSeeker, sig *Signal, bits int) error {
	buf, err := toIntBuffer(sig, bits, bits == 8)
	if err != nil {
		return err
	}
	enc := wav.NewEncoder(w, sig.Rate, bits, sig.NumChannels(), wavFormatPCM)
	if err := enc.Write(buf); err != nil {
		return fmt.Errorf("write WAV samples: %w", err)
	}
	if err := enc.Close(); err != nil {
		return fmt.Errorf("finalize WAV header: %w", err)
	}
	return nil
}

// EncodeAIFF writes sig as integer PCM AIFF.
func EncodeAIFF(w io.WriteSeeker, sig *Signal, bits int) error {
	buf, err := toIntBuffer(sig, bits, false)
	if err != nil {
		return err
	}
	enc := aiff.NewEncoder(w, sig.Rate, bits, sig.NumChannels())
	if err := enc.Write(buf); err != nil {
		return fmt.Errorf("write AIFF samples: %w", err)
	}
	if err := enc.Close(); err != nil {
		return fmt.Errorf("finalize AIFF header: %w", err)
	}
	return nil
}

// toIntBuffer quantises sig to interleaved integers of the given depth.
func toIntBuffer(sig *Signal, bits int, unsigned bool) (*audio.IntBuffer, error) {
	if err := sig.Validate(); err != nil {
		return nil, err
	}
	full, err := fullScale(bits)
	if err != nil {
		return nil, err
	}

	peak := full - 1
	samples := sig.Interleaved()
	data := make([]int, len(samples))
	for i, v := range samples {
		q := int(math.Round(clamp(v, -1, 1) * peak))
		if unsigned {
			q += int(full)
		}
		data[i] = q
	}

	return &audio.IntBuffer{
		Format:         &audio.Format{NumChannels: sig.NumChannels(), SampleRate: sig.Rate},
		Data:           data,
		SourceBitDepth: bits,
	}, nil
}
