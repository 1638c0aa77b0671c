package audioio

import (
	"context"
	"errors"
	"fmt"
	"os"
	"os/exec"
	"sync"
	"sync/atomic"
)

// playbackBits is the depth of the temporary file handed to the player.
const playbackBits = 16

// Player describes an external command that plays a WAV file given as its
// last argument.
type Player struct {
	Binary string
	Args   []string
}

// DefaultPlayers are tried in order by Play.
var DefaultPlayers = []Player{
	{Binary: "ffplay", Args: []string{"-nodisp", "-autoexit", "-loglevel", "error"}},
	{Binary: "aplay", Args: []string{"-q"}},
	{Binary: "afplay"},
	{Binary: "paplay"},
}

// Playback is a running player process. Close must be called to release the
// temporary file.
type Playback struct {
	cmd    *exec.Cmd
	cancel context.CancelFunc
	path   string
	done   chan struct{}
	err    error

	stopping  atomic.Bool
	closeOnce sync.Once
}

// Play writes sig to a temporary 16-bit WAV and starts the first available
// player from DefaultPlayers. The returned handle stops playback when ctx is
// cancelled, Stop is called or Close is called.
func Play(ctx context.Context, sig *Signal) (*Playback, error) {
	return PlayWith(ctx, sig, DefaultPlayers...)
}

// PlayWith is Play with an explicit list of candidate players.
func PlayWith(ctx context.Context, sig *Signal, players ...Player) (*Playback, error) {
	if err := sig.Validate(); err != nil {
		return nil, err
	}

	var (
		player Player
		bin    string
	)
	for _, p := range players {
		if path, err := exec.LookPath(p.Binary); err == nil {
			player, bin = p, path
			break
		}
	}
	if bin == "" {
		return nil, ErrPlayerNotFound
	}

	tmp, err := tempPath("mdct-play-*.wav")
	if err != nil {
		return nil, err
	}
	if err := writeFile(tmp, sig, playbackBits, EncodeWAV); err != nil {
		_ = os.Remove(tmp)
		return nil, err
	}

	ctx, cancel := context.WithCancel(ctx)
	args := append(append([]string(nil), player.Args...), tmp)
	cmd := exec.CommandContext(ctx, bin, args...)
	if err := cmd.Start(); err != nil {
		cancel()
		_ = os.Remove(tmp)
		return nil, fmt.Errorf("start %s: %w", player.Binary, err)
	}

	pb := &Playback{cmd: cmd, cancel: cancel, path: tmp, done: make(chan struct{})}
	go func() {
		pb.err = cmd.Wait()
		close(pb.done)
	}()
	return pb, nil
}

// Done is closed when the player exits.
func (p *Playback) Done() <-chan struct{} {
	return p.done
}

// Wait blocks until the player exits and returns its error. A playback ended
// by Stop or Close returns nil.
func (p *Playback) Wait() error {
	<-p.done
	if p.stopping.Load() {
		return nil
	}
	return p.err
}

// Stop terminates the player.
func (p *Playback) Stop() {
	p.stopping.Store(true)
	p.cancel()
	<-p.done
}

// Close stops the player and removes the temporary file.
func (p *Playback) Close() error {
	var err error
	p.closeOnce.Do(func() {
		p.Stop()
		if rmErr := os.Remove(p.path); rmErr != nil && !errors.Is(rmErr, os.ErrNotExist) {
			err = fmt.Errorf("remove %s: %w", p.path, rmErr)
		}
	})
	return err
}
