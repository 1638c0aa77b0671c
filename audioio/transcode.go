package audioio

import (
	"bytes"
	"context"
	"fmt"
	"os"
	"os/exec"
	"path/filepath"
	"strings"
)

// Transcoder converts between containers with an external ffmpeg binary.
type Transcoder struct {
	// Binary is the executable name or path. Empty means "ffmpeg".
	Binary string
}

// DefaultTranscoder looks up ffmpeg on PATH.
var DefaultTranscoder = &Transcoder{Binary: "ffmpeg"}

func (t *Transcoder) binary() string {
	if t == nil || t.Binary == "" {
		return "ffmpeg"
	}
	return t.Binary
}

// Available reports whether the binary can be found.
func (t *Transcoder) Available() bool {
	_, err := exec.LookPath(t.binary())
	return err == nil
}

// Transcode converts src into dst, choosing the output container from the
// extension of dst. An existing dst is overwritten.
func (t *Transcoder) Transcode(ctx context.Context, src, dst string) error {
	bin, err := exec.LookPath(t.binary())
	if err != nil {
		return fmt.Errorf("%w: %s: %w", ErrTranscoderNotFound, t.binary(), err)
	}

	cmd := exec.CommandContext(ctx, bin, "-hide_banner", "-loglevel", "error", "-y", "-i", src, dst)
	var stderr bytes.Buffer
	cmd.Stderr = &stderr
	if err := cmd.Run(); err != nil {
		msg := strings.TrimSpace(stderr.String())
		if msg == "" {
			return fmt.Errorf("transcode %s -> %s: %w", filepath.Base(src), filepath.Base(dst), err)
		}
		return fmt.Errorf("transcode %s -> %s: %w: %s", filepath.Base(src), filepath.Base(dst), err, msg)
	}
	return nil
}

// tempPath reserves a file name in the system temporary directory.
func tempPath(pattern string) (string, error) {
	f, err := os.CreateTemp("", pattern)
	if err != nil {
		return "", fmt.Errorf("create temporary file: %w", err)
	}
	name := f.Name()
	if err := f.Close(); err != nil {
		_ = os.Remove(name)
		return "", fmt.Errorf("close temporary file: %w", err)
	}
	return name, nil
}
