package audioio

import "errors"

var (
	// ErrUnsupportedFormat is returned for file extensions or format tags
	// with no decoder or encoder.
	ErrUnsupportedFormat = errors.New("unsupported audio format")

	// ErrSegmentOutOfRange is returned when Options.Start/End select
	// samples outside the decoded signal.
	ErrSegmentOutOfRange = errors.New("segment out of range")

	// ErrUnsupportedBitDepth is returned for PCM depths other than 8, 16, 24 and 32.
	ErrUnsupportedBitDepth = errors.New("unsupported bit depth")

	// ErrTranscoderNotFound is returned when the ffmpeg binary cannot be located.
	ErrTranscoderNotFound = errors.New("transcoder not found")

	// ErrPlayerNotFound is returned when no audio player binary can be located.
	ErrPlayerNotFound = errors.New("audio player not found")

	// ErrInvalidSignal is returned for signals with no channels, ragged
	// channels or a non-positive sample rate.
	ErrInvalidSignal = errors.New("invalid signal")

	// ErrInvalidWindow is returned for a negative energy normalisation window.
	ErrInvalidWindow = errors.New("invalid window size")
)
