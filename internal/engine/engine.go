package engine

import (
	"context"
	"regexp"
	"sync"
	"time"

	"github.com/genricoloni/sbcast/internal/domain"
	"github.com/genricoloni/sbcast/internal/render"
	"go.uber.org/zap"
)

// ytmArtist matches the provisional artist YouTube Music reports before the
// parsed metadata arrives
var ytmArtist = regexp.MustCompile(`^\[YT\] (.*) - Topic$`)

// Synchronizer owns the authoritative PlaybackState and keeps the display in
// sync with it. Bursts of updates are coalesced into a single redraw.
type Synchronizer struct {
	logger *zap.Logger
	link   domain.DisplayLink
	delay  time.Duration

	// mu guards state, pending and seq, and serializes redraws
	mu      sync.Mutex
	state   domain.PlaybackState
	pending *time.Timer
	seq     uint64 // id of the most recently armed timer
}

// NewSynchronizer creates a synchronizer using the configured update delay
func NewSynchronizer(logger *zap.Logger, cfg domain.Config, link domain.DisplayLink) *Synchronizer {
	return NewSynchronizerWithDelay(logger, link, cfg.GetUpdateDelay())
}

// NewSynchronizerWithDelay creates a synchronizer with an explicit debounce window
func NewSynchronizerWithDelay(logger *zap.Logger, link domain.DisplayLink, delay time.Duration) *Synchronizer {
	return &Synchronizer{
		logger: logger,
		link:   link,
		delay:  delay,
	}
}

// UpdatePhase sets the playback phase. Playing or buffering without any
// metadata is shown as initializing.
func (s *Synchronizer) UpdatePhase(phase domain.Phase, source string) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if (phase == domain.PhasePlaying || phase == domain.PhaseBuffering) && !s.state.HasMetadata() {
		phase = domain.PhaseInitializing
	}
	s.state.Phase = phase
	s.state.Source = source
	s.scheduleLocked()

	s.logger.Debug("Enqueued redraw for phase",
		zap.Stringer("phase", phase),
		zap.String("source", source))
}

// UpdateSong replaces the song metadata
func (s *Synchronizer) UpdateSong(song domain.Song, source string) {
	if m := ytmArtist.FindStringSubmatch(song.Artist); m != nil {
		song.Artist = m[1]
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	s.state.Song = song
	s.state.Source = source
	s.scheduleLocked()

	s.logger.Debug("Enqueued redraw for song",
		zap.String("title", song.Title),
		zap.String("artist", song.Artist),
		zap.String("source", source))
}

// Reset clears the state and aborts a pending redraw
func (s *Synchronizer) Reset() {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.resetLocked()
}

// Teardown disconnects the display and resets the state
func (s *Synchronizer) Teardown() {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.link.Disconnect()
	s.resetLocked()
	s.logger.Info("Display released")
}

// State returns a copy of the current playback state
func (s *Synchronizer) State() domain.PlaybackState {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.state
}

// Stop aborts pending redraws and releases the display
func (s *Synchronizer) Stop(ctx context.Context) error {
	s.logger.Info("Synchronizer stopping...")
	s.Teardown()
	return nil
}

func (s *Synchronizer) resetLocked() {
	if s.pending != nil {
		// A timer that already fired runs to completion
		s.pending.Stop()
		s.pending = nil
	}
	s.state = domain.PlaybackState{}
}

// scheduleLocked arms the redraw timer unless one is already pending.
// The window is not extended by later updates.
func (s *Synchronizer) scheduleLocked() {
	if s.pending != nil {
		return
	}
	s.seq++
	id := s.seq
	s.pending = time.AfterFunc(s.delay, func() { s.redraw(id) })
}

// redraw runs on the timer goroutine
func (s *Synchronizer) redraw(id uint64) {
	s.mu.Lock()
	// Superseded by a newer schedule or cancelled by a reset while waiting for the lock
	if s.seq != id || s.pending == nil {
		s.mu.Unlock()
		return
	}
	s.pending = nil
	state := s.state

	s.logger.Debug("Redrawing",
		zap.Stringer("phase", state.Phase),
		zap.String("source", state.Source))

	// No retry on failure, the next update schedules a new redraw
	if !s.link.EnsureConnected() {
		s.mu.Unlock()
		s.logger.Info("Display offline, not updating")
		return
	}

	s.logger.Info("Drawing on display",
		zap.String("title", state.Title),
		zap.String("artist", state.Artist),
		zap.String("album", state.Album),
		zap.Stringer("phase", state.Phase))
	s.link.Send(render.Frame(state))
	s.mu.Unlock()

	if icon := render.Icon(state.Phase); icon != nil {
		s.link.Send(icon)
	}
}
