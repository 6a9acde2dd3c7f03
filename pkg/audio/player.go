// Package audio plays synthesized speech and cue sounds through external
// player processes.
package audio

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"os/exec"
	"sync"
	"sync/atomic"
)

// DefaultPlayerCommand reads an MP3 stream from stdin with no caching.
var DefaultPlayerCommand = []string{"mpv", "--no-cache", "--no-terminal", "--", "fd://0"}

// DefaultCueCommand plays a short WAV file; the path is appended.
var DefaultCueCommand = []string{"aplay", "-q"}

// ChunkSize is how much audio is written to the player per write.
const ChunkSize = 4096

// ErrNoCommand is returned when the player command is empty.
var ErrNoCommand = errors.New("audio: player command is empty")

// Player pipes audio streams into a player process, one stream at a time.
type Player struct {
	command []string
	cue     []string
	logger  *slog.Logger

	// Serializes Play calls; speech must never overlap.
	playMu  sync.Mutex
	playing atomic.Bool

	// Callbacks
	OnPlaybackStart func()
	OnPlaybackEnd   func()

	cues sync.WaitGroup
}

// NewPlayer creates a player. A nil command uses DefaultPlayerCommand.
func NewPlayer(command []string, logger *slog.Logger) *Player {
	if len(command) == 0 {
		command = DefaultPlayerCommand
	}
	if logger == nil {
		logger = slog.Default()
	}
	return &Player{
		command: command,
		cue:     DefaultCueCommand,
		logger:  logger.With("component", "audio.player"),
	}
}

// SetCueCommand overrides the program used by Cue.
func (p *Player) SetCueCommand(command []string) {
	p.cue = command
}

// Play copies r into the player's stdin in ChunkSize writes and waits for
// the player to exit. Cancelling ctx kills the player.
func (p *Player) Play(ctx context.Context, r io.Reader) error {
	if len(p.command) == 0 {
		return ErrNoCommand
	}

	p.playMu.Lock()
	defer p.playMu.Unlock()

	cmd := exec.CommandContext(ctx, p.command[0], p.command[1:]...)
	stdin, err := cmd.StdinPipe()
	if err != nil {
		return fmt.Errorf("stdin pipe: %w", err)
	}
	if err := cmd.Start(); err != nil {
		return fmt.Errorf("start %s: %w", p.command[0], err)
	}

	p.playing.Store(true)
	if p.OnPlaybackStart != nil {
		p.OnPlaybackStart()
	}
	defer func() {
		p.playing.Store(false)
		if p.OnPlaybackEnd != nil {
			p.OnPlaybackEnd()
		}
	}()

	buf := make([]byte, ChunkSize)
	n, copyErr := io.CopyBuffer(stdin, r, buf)
	stdin.Close()

	waitErr := cmd.Wait()
	p.logger.Debug("playback finished", "bytes", n)

	if copyErr != nil {
		return fmt.Errorf("stream audio: %w", copyErr)
	}
	if waitErr != nil {
		if ctx.Err() != nil {
			return ctx.Err()
		}
		return fmt.Errorf("%s exited: %w", p.command[0], waitErr)
	}
	return nil
}

// Cue plays a sound file without waiting for it to finish.
func (p *Player) Cue(path string) {
	if len(p.cue) == 0 || path == "" {
		return
	}
	args := append(append([]string(nil), p.cue[1:]...), path)
	cmd := exec.Command(p.cue[0], args...)
	if err := cmd.Start(); err != nil {
		p.logger.Warn("cue failed", "file", path, "error", err)
		return
	}
	p.cues.Add(1)
	go func() {
		defer p.cues.Done()
		if err := cmd.Wait(); err != nil {
			p.logger.Debug("cue exited with error", "file", path, "error", err)
		}
	}()
}

// WaitCues blocks until every started cue has exited.
func (p *Player) WaitCues() {
	p.cues.Wait()
}

// IsPlaying returns whether a stream is being played.
func (p *Player) IsPlaying() bool {
	return p.playing.Load()
}

// LookPath reports whether the player binary is installed.
func (p *Player) LookPath() (string, error) {
	if len(p.command) == 0 {
		return "", ErrNoCommand
	}
	return exec.LookPath(p.command[0])
}
