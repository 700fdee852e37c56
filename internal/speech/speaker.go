// Package speech provides terminal speech adapters for spelling sessions.
package speech

import (
	"context"
	"fmt"
	"log/slog"
	"os/exec"
	"time"

	"github.com/abhisek/studybuddy/internal/spelling"
)

// Engines are the text-to-speech commands tried, in order.
var Engines = []string{"espeak-ng", "espeak", "say"}

// CommandSpeaker speaks through the first engine found on PATH. Without
// one it only shows captions, holding each for CaptionHold.
type CommandSpeaker struct {
	engine string

	// Caption, when set, receives every spoken text.
	Caption     func(text string)
	CaptionHold time.Duration
}

var _ spelling.Speaker = (*CommandSpeaker)(nil)

// NewCommandSpeaker probes PATH for a speech engine.
func NewCommandSpeaker(caption func(string)) *CommandSpeaker {
	s := &CommandSpeaker{Caption: caption, CaptionHold: 700 * time.Millisecond}
	for _, name := range Engines {
		if _, err := exec.LookPath(name); err == nil {
			s.engine = name
			break
		}
	}
	if s.engine == "" {
		slog.Warn("no speech engine installed, showing captions only", "tried", Engines)
	}
	return s
}

// Engine returns the command in use, or "" in captions-only mode.
func (s *CommandSpeaker) Engine() string {
	return s.engine
}

func (s *CommandSpeaker) Speak(ctx context.Context, text string, done func()) error {
	if s.Caption != nil {
		s.Caption(text)
	}

	if s.engine == "" {
		go func() {
			select {
			case <-time.After(s.CaptionHold):
			case <-ctx.Done():
			}
			done()
		}()
		return nil
	}

	cmd := exec.CommandContext(ctx, s.engine, text)
	if err := cmd.Start(); err != nil {
		return fmt.Errorf("start %s: %w", s.engine, err)
	}
	go func() {
		if err := cmd.Wait(); err != nil && ctx.Err() == nil {
			slog.Warn("speech engine failed", "engine", s.engine, "error", err)
		}
		done()
	}()
	return nil
}
