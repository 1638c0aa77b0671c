package audioio

import (
	"context"
	"encoding/binary"
	"errors"
	"fmt"
	"io"
	"os"

	"github.com/go-audio/aiff"
	"github.com/go-audio/audio"
	"github.com/go-audio/wav"
	gomp3 "github.com/hajimehoshi/go-mp3"
	"github.com/jfreymuth/oggvorbis"

	"github.com/tphakala/go-mdct/internal/simdops"
)

// go-mp3 always decodes to 16-bit little-endian stereo.
const (
	mp3Channels       = 2
	mp3BytesPerSample = 2
	mp3ReadChunk      = 64 * 1024
)

// Options selects what Read returns.
type Options struct {
	// Mono averages all channels into one.
	Mono bool

	// Start and End select a segment in seconds. End <= 0 means the end of
	// the signal.
	Start float64
	End   float64

	// Transcoder converts AU and WMA input to WAV. Nil uses DefaultTranscoder.
	Transcoder *Transcoder
}

// decoded is the interleaved output of a container decoder.
type decoded struct {
	data     []float32
	channels int
	rate     int
	bitDepth int
}

// Read decodes an audio file into a Signal. The format is taken from the
// file extension.
func Read(path string, opts Options) (*Signal, error) {
	return ReadContext(context.Background(), path, opts)
}

// ReadContext is Read with a context bounding the external transcoder.
func ReadContext(ctx context.Context, path string, opts Options) (*Signal, error) {
	format, err := FormatFromPath(path)
	if err != nil {
		return nil, err
	}

	var dec *decoded
	if format.native() {
		dec, err = decodeFile(path, format)
	} else {
		dec, err = decodeTranscoded(ctx, path, opts.Transcoder)
	}
	if err != nil {
		return nil, err
	}
	if dec.channels <= 0 {
		return nil, fmt.Errorf("%w: %s has no channels", ErrInvalidSignal, path)
	}

	sig := &Signal{Channels: deinterleave(dec.data, dec.channels), Rate: dec.rate}
	if err := selectSegment(sig, opts.Start, opts.End); err != nil {
		return nil, err
	}
	if opts.Mono && sig.NumChannels() > 1 {
		sig.Channels = [][]float64{sig.Mono()}
	}
	return sig, nil
}

// Decode decodes a native format from a stream.
func Decode(r io.ReadSeeker, format Format) (*Signal, error) {
	dec, err := decode(r, format)
	if err != nil {
		return nil, err
	}
	return &Signal{Channels: deinterleave(dec.data, dec.channels), Rate: dec.rate}, nil
}

func decodeFile(path string, format Format) (*decoded, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("open %s: %w", path, err)
	}
	defer func() { _ = f.Close() }()

	dec, err := decode(f, format)
	if err != nil {
		return nil, fmt.Errorf("decode %s: %w", path, err)
	}
	return dec, nil
}

func decode(r io.ReadSeeker, format Format) (*decoded, error) {
	switch format {
	case FormatWAV:
		return decodeWAV(r)
	case FormatAIFF:
		return decodeAIFF(r)
	case FormatMP3:
		return decodeMP3(r)
	case FormatOggVorbis:
		return decodeVorbis(r)
	default:
		return nil, fmt.Errorf("%w: %s needs the transcoder", ErrUnsupportedFormat, format)
	}
}

func decodeTranscoded(ctx context.Context, path string, tc *Transcoder) (*decoded, error) {
	if tc == nil {
		tc = DefaultTranscoder
	}
	tmp, err := tempPath("mdct-in-*.wav")
	if err != nil {
		return nil, err
	}
	defer func() { _ = os.Remove(tmp) }()

	if err := tc.Transcode(ctx, path, tmp); err != nil {
		return nil, err
	}
	return decodeFile(tmp, FormatWAV)
}

func decodeWAV(r io.ReadSeeker) (*decoded, error) {
	d := wav.NewDecoder(r)
	if !d.IsValidFile() {
		return nil, fmt.Errorf("%w: not a valid WAV file", ErrUnsupportedFormat)
	}
	buf, err := d.FullPCMBuffer()
	if err != nil {
		return nil, fmt.Errorf("read WAV samples: %w", err)
	}
	// 8-bit WAV is unsigned.
	return fromIntBuffer(buf, int(d.BitDepth), d.BitDepth == 8)
}

func decodeAIFF(r io.ReadSeeker) (*decoded, error) {
	d := aiff.NewDecoder(r)
	if !d.IsValidFile() {
		return nil, fmt.Errorf("%w: not a valid AIFF file", ErrUnsupportedFormat)
	}
	buf, err := d.FullPCMBuffer()
	if err != nil {
		return nil, fmt.Errorf("read AIFF samples: %w", err)
	}
	return fromIntBuffer(buf, int(d.BitDepth), false)
}

func fromIntBuffer(buf *audio.IntBuffer, bitDepth int, unsigned bool) (*decoded, error) {
	full, err := fullScale(bitDepth)
	if err != nil {
		return nil, err
	}
	if buf == nil || buf.Format == nil {
		return nil, fmt.Errorf("%w: missing PCM format", ErrUnsupportedFormat)
	}

	offset := 0
	if unsigned {
		offset = int(full)
	}
	data := make([]float32, len(buf.Data))
	simdops.NormalizePCM(data, buf.Data, offset, float32(full))

	return &decoded{
		data:     data,
		channels: buf.Format.NumChannels,
		rate:     buf.Format.SampleRate,
		bitDepth: bitDepth,
	}, nil
}

func decodeMP3(r io.Reader) (*decoded, error) {
	d, err := gomp3.NewDecoder(r)
	if err != nil {
		return nil, fmt.Errorf("open MP3 stream: %w", err)
	}

	var pcm []byte
	chunk := make([]byte, mp3ReadChunk)
	for {
		n, err := d.Read(chunk)
		pcm = append(pcm, chunk[:n]...)
		if errors.Is(err, io.EOF) {
			break
		}
		if err != nil {
			return nil, fmt.Errorf("read MP3 samples: %w", err)
		}
	}

	data := make([]float32, len(pcm)/mp3BytesPerSample)
	for i := range data {
		data[i] = float32(int16(binary.LittleEndian.Uint16(pcm[mp3BytesPerSample*i:])))
	}
	simdops.Float32Ops().Scale(data, data, 1.0/32768)

	return &decoded{data: data, channels: mp3Channels, rate: d.SampleRate(), bitDepth: 16}, nil
}

func decodeVorbis(r io.Reader) (*decoded, error) {
	data, format, err := oggvorbis.ReadAll(r)
	if err != nil {
		return nil, fmt.Errorf("read Ogg Vorbis stream: %w", err)
	}
	return &decoded{data: data, channels: format.Channels, rate: format.SampleRate}, nil
}

// fullScale returns 2^(bits-1), the magnitude of the most negative sample.
func fullScale(bitDepth int) (float64, error) {
	switch bitDepth {
	case 8, 16, 24, 32:
		return float64(uint64(1) << (bitDepth - 1)), nil
	default:
		return 0, fmt.Errorf("%w: %d", ErrUnsupportedBitDepth, bitDepth)
	}
}

// selectSegment trims sig to [start, end) seconds.
func selectSegment(sig *Signal, start, end float64) error {
	if start == 0 && end <= 0 {
		return nil
	}
	total := sig.Len()
	from := int(start * float64(sig.Rate))
	to := total
	if end > 0 {
		to = int(end * float64(sig.Rate))
	}
	if start < 0 || from >= to || to > total {
		return fmt.Errorf("%w: [%gs, %gs) of a %.3fs signal", ErrSegmentOutOfRange, start, end, sig.Duration())
	}
	for ch := range sig.Channels {
		sig.Channels[ch] = sig.Channels[ch][from:to]
	}
	return nil
}
