package audioio

import (
	"bytes"
	"context"
	"fmt"
	"math"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/tphakala/go-mdct/internal/testutil"
)

const missingBinary = "mdct-no-such-binary-on-path"

func sine(n int, freq, rate, amp float64) []float64 {
	x := make([]float64, n)
	for i := range x {
		x[i] = amp * math.Sin(2*math.Pi*freq*float64(i)/rate)
	}
	return x
}

func TestFormatFromPath(t *testing.T) {
	tests := []struct {
		path    string
		want    Format
		wantErr bool
	}{
		{"a.wav", FormatWAV, false},
		{"/tmp/A.WAV", FormatWAV, false},
		{"song.aif", FormatAIFF, false},
		{"song.aiff", FormatAIFF, false},
		{"x.mp3", FormatMP3, false},
		{"x.ogg", FormatOggVorbis, false},
		{"x.au", FormatAU, false},
		{"x.wma", FormatWMA, false},
		{"x.flac", 0, true},
		{"noext", 0, true},
	}

	for _, tt := range tests {
		t.Run(tt.path, func(t *testing.T) {
			got, err := FormatFromPath(tt.path)
			if tt.wantErr {
				assert.ErrorIs(t, err, ErrUnsupportedFormat)
				return
			}
			require.NoError(t, err)
			assert.Equal(t, tt.want, got)
		})
	}
}

func TestParseFormat(t *testing.T) {
	f, err := ParseFormat("MP3")
	require.NoError(t, err)
	assert.Equal(t, FormatMP3, f)

	f, err = ParseFormat(".wav")
	require.NoError(t, err)
	assert.Equal(t, FormatWAV, f)
	assert.Equal(t, ".wav", f.Ext())

	_, err = ParseFormat("flac")
	assert.ErrorIs(t, err, ErrUnsupportedFormat)
	assert.Equal(t, "Format(42)", Format(42).String())
}

func TestSignal_Interleaved(t *testing.T) {
	stereo := &Signal{Channels: [][]float64{{1, 2, 3}, {-1, -2, -3}}, Rate: 8000}
	assert.Equal(t, []float64{1, -1, 2, -2, 3, -3}, stereo.Interleaved())

	three := &Signal{Channels: [][]float64{{1, 2}, {3, 4}, {5, 6}}, Rate: 8000}
	assert.Equal(t, []float64{1, 3, 5, 2, 4, 6}, three.Interleaved())

	mono := NewMono([]float64{0.5, 0.25}, 8000)
	assert.Equal(t, []float64{0.5, 0.25}, mono.Interleaved())
}

func TestSignal_Mono(t *testing.T) {
	s := &Signal{Channels: [][]float64{{0.5, 1}, {-0.1, 0}}, Rate: 8000}
	testutil.AssertSliceInDelta(t, []float64{0.2, 0.5}, s.Mono(), 1e-12, "downmix")
	assert.InDelta(t, 2.0/8000, s.Duration(), 1e-15)
}

func TestSignal_Validate(t *testing.T) {
	assert.ErrorIs(t, (*Signal)(nil).Validate(), ErrInvalidSignal)
	assert.ErrorIs(t, (&Signal{Rate: 8000}).Validate(), ErrInvalidSignal)
	assert.ErrorIs(t, NewMono([]float64{1}, 0).Validate(), ErrInvalidSignal)
	ragged := &Signal{Channels: [][]float64{{1, 2}, {1}}, Rate: 8000}
	assert.ErrorIs(t, ragged.Validate(), ErrInvalidSignal)
	assert.NoError(t, NewMono(nil, 8000).Validate())
}

func TestWAVRoundTrip(t *testing.T) {
	for _, bits := range []int{16, 24, 32} {
		t.Run(fmt.Sprintf("%dbit", bits), func(t *testing.T) {
			path := filepath.Join(t.TempDir(), "tone.wav")
			in := &Signal{
				Channels: [][]float64{sine(1000, 440, 16000, 0.8), sine(1000, 220, 16000, -0.5)},
				Rate:     16000,
			}
			require.NoError(t, Write(path, in, bits, FormatWAV))

			out, err := Read(path, Options{})
			require.NoError(t, err)
			assert.Equal(t, 16000, out.Rate)
			require.Equal(t, 2, out.NumChannels())

			// Decoding goes through float32.
			tol := max(2/math.Ldexp(1, bits-1), 1e-6)
			for ch := range in.Channels {
				testutil.AssertSliceInDelta(t, in.Channels[ch], out.Channels[ch], tol, "channel")
			}
		})
	}
}

func TestAIFFRoundTrip(t *testing.T) {
	path := filepath.Join(t.TempDir(), "tone.aiff")
	in := NewMono(sine(512, 1000, 44100, 0.9), 44100)
	require.NoError(t, Write(path, in, 16, FormatAIFF))

	out, err := Read(path, Options{})
	require.NoError(t, err)
	assert.Equal(t, 44100, out.Rate)
	require.Equal(t, 1, out.NumChannels())
	testutil.AssertSliceInDelta(t, in.Channels[0], out.Channels[0], 1e-4, "aiff samples")
}

func TestWrite_ClipsOutOfRange(t *testing.T) {
	path := filepath.Join(t.TempDir(), "loud.wav")
	require.NoError(t, Write(path, NewMono([]float64{2, -3, 0.5}, 8000), 16, FormatWAV))

	out, err := Read(path, Options{})
	require.NoError(t, err)
	testutil.AssertAllInRange(t, out.Channels[0], -1, 1)
	assert.InDelta(t, 1.0, out.Channels[0][0], 1e-4)
	assert.InDelta(t, -1.0, out.Channels[0][1], 1e-4)
}

func TestRead_MonoAndSegment(t *testing.T) {
	path := filepath.Join(t.TempDir(), "stereo.wav")
	left := make([]float64, 1000)
	right := make([]float64, 1000)
	for i := range left {
		left[i] = float64(i) / 2000
		right[i] = -0.1
	}
	require.NoError(t, Write(path, &Signal{Channels: [][]float64{left, right}, Rate: 1000}, 24, FormatWAV))

	sig, err := Read(path, Options{Mono: true, Start: 0.25, End: 0.5})
	require.NoError(t, err)
	require.Equal(t, 1, sig.NumChannels())
	require.Equal(t, 250, sig.Len())
	for i, v := range sig.Channels[0] {
		want := (float64(250+i)/2000 - 0.1) / 2
		assert.InDelta(t, want, v, 1e-5, "i=%d", i)
	}

	sig, err = Read(path, Options{Start: 0.9})
	require.NoError(t, err)
	assert.Equal(t, 100, sig.Len())
	assert.Equal(t, 2, sig.NumChannels())
}

func TestRead_SegmentOutOfRange(t *testing.T) {
	path := filepath.Join(t.TempDir(), "short.wav")
	require.NoError(t, Write(path, NewMono(make([]float64, 100), 1000), 16, FormatWAV))

	tests := []struct {
		name       string
		start, end float64
	}{
		{"end past signal", 0, 0.2},
		{"start past signal", 0.5, 0},
		{"negative start", -1, 0.05},
		{"start after end", 0.06, 0.05},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := Read(path, Options{Start: tt.start, End: tt.end})
			assert.ErrorIs(t, err, ErrSegmentOutOfRange)
		})
	}
}

func TestRead_Errors(t *testing.T) {
	dir := t.TempDir()

	_, err := Read(filepath.Join(dir, "x.flac"), Options{})
	assert.ErrorIs(t, err, ErrUnsupportedFormat)

	_, err = Read(filepath.Join(dir, "missing.wav"), Options{})
	assert.ErrorIs(t, err, os.ErrNotExist)

	garbage := filepath.Join(dir, "garbage.wav")
	require.NoError(t, os.WriteFile(garbage, []byte("definitely not RIFF data"), 0o600))
	_, err = Read(garbage, Options{})
	assert.ErrorIs(t, err, ErrUnsupportedFormat)

	_, err = Decode(bytes.NewReader(nil), FormatAU)
	assert.ErrorIs(t, err, ErrUnsupportedFormat)
}

func TestTranscoderNotFound(t *testing.T) {
	dir := t.TempDir()
	tc := &Transcoder{Binary: missingBinary}
	assert.False(t, tc.Available())

	au := filepath.Join(dir, "in.au")
	require.NoError(t, os.WriteFile(au, []byte{0}, 0o600))
	_, err := ReadContext(context.Background(), au, Options{Transcoder: tc})
	assert.ErrorIs(t, err, ErrTranscoderNotFound)

	mp3 := filepath.Join(dir, "out.mp3")
	err = WriteContext(context.Background(), mp3, NewMono([]float64{0}, 8000),
		WriteOptions{Bits: 16, Format: FormatMP3, Transcoder: tc})
	assert.ErrorIs(t, err, ErrTranscoderNotFound)
	assert.NoFileExists(t, mp3)
}

func TestWrite_Errors(t *testing.T) {
	path := filepath.Join(t.TempDir(), "x.wav")
	sig := NewMono([]float64{0, 0.5}, 8000)

	assert.ErrorIs(t, Write(path, sig, 12, FormatWAV), ErrUnsupportedBitDepth)
	assert.ErrorIs(t, Write(path, sig, 16, Format(99)), ErrUnsupportedFormat)
	assert.ErrorIs(t, Write(path, &Signal{Rate: 8000}, 16, FormatWAV), ErrInvalidSignal)
}

func TestPlayWith_NoPlayer(t *testing.T) {
	_, err := PlayWith(context.Background(), NewMono([]float64{0}, 8000), Player{Binary: missingBinary})
	assert.ErrorIs(t, err, ErrPlayerNotFound)
}
