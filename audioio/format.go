package audioio

import (
	"fmt"
	"path/filepath"
	"strings"
)

// Format identifies an audio container.
type Format int

const (
	FormatWAV Format = iota
	FormatAIFF
	FormatMP3
	FormatOggVorbis
	FormatAU
	FormatWMA
)

var formatNames = map[Format]string{
	FormatWAV:       "wav",
	FormatAIFF:      "aiff",
	FormatMP3:       "mp3",
	FormatOggVorbis: "ogg",
	FormatAU:        "au",
	FormatWMA:       "wma",
}

var extensions = map[string]Format{
	".wav":  FormatWAV,
	".wave": FormatWAV,
	".aiff": FormatAIFF,
	".aif":  FormatAIFF,
	".mp3":  FormatMP3,
	".ogg":  FormatOggVorbis,
	".oga":  FormatOggVorbis,
	".au":   FormatAU,
	".snd":  FormatAU,
	".wma":  FormatWMA,
}

// String returns the canonical file extension without the dot.
func (f Format) String() string {
	if name, ok := formatNames[f]; ok {
		return name
	}
	return fmt.Sprintf("Format(%d)", int(f))
}

// Ext returns the canonical file extension including the dot.
func (f Format) Ext() string {
	return "." + f.String()
}

// native reports whether the format is decoded without the transcoder.
func (f Format) native() bool {
	switch f {
	case FormatWAV, FormatAIFF, FormatMP3, FormatOggVorbis:
		return true
	default:
		return false
	}
}

// FormatFromPath resolves the format from the file extension, case-insensitively.
func FormatFromPath(path string) (Format, error) {
	ext := strings.ToLower(filepath.Ext(path))
	if f, ok := extensions[ext]; ok {
		return f, nil
	}
	return 0, fmt.Errorf("%w: %q", ErrUnsupportedFormat, ext)
}

// ParseFormat resolves a format name such as "wav" or ".mp3".
func ParseFormat(name string) (Format, error) {
	name = strings.ToLower(strings.TrimSpace(name))
	if !strings.HasPrefix(name, ".") {
		name = "." + name
	}
	if f, ok := extensions[name]; ok {
		return f, nil
	}
	return 0, fmt.Errorf("%w: %q", ErrUnsupportedFormat, name)
}
