//go:build linux

package monitor

import (
	"context"
	"fmt"
	"strings"
	"sync"
	"time"

	"github.com/genricoloni/sbcast/internal/domain"
	"github.com/godbus/dbus/v5"
	"go.uber.org/zap"
)

const (
	mprisPrefix     = "org.mpris.MediaPlayer2."
	mprisPath       = "/org/mpris/MediaPlayer2"
	playerInterface = "org.mpris.MediaPlayer2.Player"

	metadataProp = playerInterface + ".Metadata"
	statusProp   = playerInterface + ".PlaybackStatus"

	eventBufferSize = 32
)

// MprisMonitor watches MPRIS media players on the D-Bus session bus.
// Every player is one media source, labelled by its well-known name
// without the MPRIS prefix (e.g. "spotify").
type MprisMonitor struct {
	logger      *zap.Logger
	events      chan domain.MediaEvent
	mu          sync.RWMutex
	running     bool
	cancel      context.CancelFunc
	conn        DBusClient        // Interface for testability
	wg          sync.WaitGroup    // Tracks active producer goroutines
	playerNames map[string]string // Maps unique bus names (:1.45) to well-known names (org.mpris.MediaPlayer2.spotify)
}

// NewMprisMonitor creates a new MPRIS monitor instance
func NewMprisMonitor(logger *zap.Logger) *MprisMonitor {
	return &MprisMonitor{
		logger:      logger,
		events:      make(chan domain.MediaEvent, eventBufferSize),
		playerNames: make(map[string]string),
	}
}

// Start connects to the session bus and blocks until ctx is cancelled or Stop is called
func (m *MprisMonitor) Start(ctx context.Context) error {
	m.mu.Lock()
	if m.running {
		m.mu.Unlock()
		return nil
	}
	m.running = true

	monitorCtx, cancel := context.WithCancel(ctx)
	m.cancel = cancel
	m.mu.Unlock()

	m.logger.Info("MPRIS monitor started")

	// Connect to Session Bus (this may block)
	conn, err := NewStdDBusClient()
	if err != nil {
		m.logger.Error("Failed to connect to session bus", zap.Error(err))
		m.mu.Lock()
		defer m.mu.Unlock()
		m.running = false
		m.cancel = nil
		cancel()
		return fmt.Errorf("session bus connection failed: %w", err)
	}

	// Stopped while connecting
	select {
	case <-monitorCtx.Done():
		m.logger.Info("Monitor stopped during D-Bus connection")
		if err := conn.Close(); err != nil {
			m.logger.Warn("Failed to close D-Bus connection", zap.Error(err))
		}
		return monitorCtx.Err()
	default:
	}

	m.mu.Lock()
	m.conn = conn
	m.mu.Unlock()

	if err := conn.AddMatchSignal(
		dbus.WithMatchObjectPath(mprisPath),
		dbus.WithMatchInterface("org.freedesktop.DBus.Properties"),
		dbus.WithMatchMember("PropertiesChanged"),
	); err != nil {
		m.logger.Error("Failed to add match signal", zap.Error(err))
		return fmt.Errorf("failed to add match signal: %w", err)
	}

	if err := conn.AddMatchSignal(
		dbus.WithMatchInterface(busInterface),
		dbus.WithMatchMember("NameOwnerChanged"),
	); err != nil {
		// Players that quit are still caught by the health check
		m.logger.Warn("Failed to add NameOwnerChanged match signal", zap.Error(err))
	} else {
		m.logger.Info("Dynamic player tracking enabled via NameOwnerChanged")
	}

	m.wg.Add(1)
	go m.monitorSignals(monitorCtx)

	// Existing players are reported after subscribing so no change slips through
	m.wg.Add(1)
	func() {
		defer m.wg.Done()
		if err := m.detectExistingPlayers(monitorCtx); err != nil {
			m.logger.Warn("Failed to detect existing players", zap.Error(err))
		}
	}()

	<-monitorCtx.Done()

	m.logger.Info("MPRIS monitor stopped")
	return monitorCtx.Err()
}

// Stop cancels monitoring, waits for producers and closes the events channel
func (m *MprisMonitor) Stop(ctx context.Context) error {
	m.mu.Lock()
	if !m.running {
		m.mu.Unlock()
		return nil
	}
	if m.cancel != nil {
		m.cancel()
	}
	m.running = false
	m.mu.Unlock()

	// Producers must be gone before the channel is closed
	m.logger.Debug("Waiting for monitoring goroutines to finish")
	done := make(chan struct{})
	go func() {
		m.wg.Wait()
		close(done)
	}()
	select {
	case <-done:
	case <-ctx.Done():
		return fmt.Errorf("waiting for monitor goroutines: %w", ctx.Err())
	}

	close(m.events)

	m.mu.Lock()
	if m.conn != nil {
		if err := m.conn.Close(); err != nil {
			m.logger.Warn("Failed to close D-Bus connection", zap.Error(err))
		}
		m.conn = nil
	}
	m.mu.Unlock()

	m.logger.Info("MPRIS monitor shutdown complete")
	return nil
}

// Events returns the stream of status and removal events
func (m *MprisMonitor) Events() <-chan domain.MediaEvent {
	return m.events
}

// Alive reports whether the player behind source still owns its bus name
func (m *MprisMonitor) Alive(source string) bool {
	m.mu.RLock()
	conn := m.conn
	m.mu.RUnlock()
	if conn == nil {
		return false
	}

	owner, err := conn.GetNameOwner(mprisPrefix + source)
	if err != nil {
		m.logger.Debug("Name owner lookup failed", zap.String("source", source), zap.Error(err))
		return false
	}
	return owner != ""
}

// detectExistingPlayers queries D-Bus for currently running MPRIS players
func (m *MprisMonitor) detectExistingPlayers(ctx context.Context) error {
	names, err := m.conn.ListNames()
	if err != nil {
		return fmt.Errorf("failed to list bus names: %w", err)
	}

	playerCount := 0
	for _, name := range names {
		if !strings.HasPrefix(name, mprisPrefix) {
			continue
		}
		playerCount++
		m.logger.Info("Detected MPRIS player", zap.String("name", name))

		uniqueName, err := m.conn.GetNameOwner(name)
		if err == nil {
			m.mu.Lock()
			m.playerNames[uniqueName] = name
			m.mu.Unlock()
			m.logger.Debug("Mapped player name",
				zap.String("unique", uniqueName),
				zap.String("wellKnown", name))
		}

		if err := m.fetchPlayerStatus(ctx, name); err != nil {
			m.logger.Warn("Failed to fetch initial status",
				zap.String("player", name),
				zap.Error(err))
		}
	}

	m.logger.Info("Player detection complete", zap.Int("count", playerCount))
	return nil
}

// fetchPlayerStatus reads the full state of a player and emits it
func (m *MprisMonitor) fetchPlayerStatus(ctx context.Context, playerName string) error {
	variant, err := m.conn.GetProperty(playerName, mprisPath, metadataProp)
	if err != nil {
		return fmt.Errorf("failed to get metadata: %w", err)
	}

	// Idle players may return nil or unexpected types
	metadata, ok := variant.Value().(map[string]dbus.Variant)
	if !ok {
		m.logger.Debug("Metadata variant is not a map, skipping", zap.String("player", playerName))
		return nil
	}

	statusVariant, err := m.conn.GetProperty(playerName, mprisPath, statusProp)
	if err != nil {
		return fmt.Errorf("failed to get playback status: %w", err)
	}

	status, ok := statusVariant.Value().(string)
	if !ok {
		return fmt.Errorf("invalid playback status format")
	}

	source := sourceLabel(playerName)
	m.emit(ctx, domain.MediaEvent{
		Kind:   domain.EventStatus,
		Source: source,
		Status: m.parseStatus(source, metadata, status),
	})
	return nil
}

// monitorSignals listens for D-Bus signals and processes them
func (m *MprisMonitor) monitorSignals(ctx context.Context) {
	defer m.wg.Done()

	signals := make(chan *dbus.Signal, 10)
	m.conn.Signal(signals)

	m.logger.Info("Signal monitoring goroutine started")

	for {
		select {
		case <-ctx.Done():
			m.logger.Info("Signal monitoring goroutine stopped")
			return
		case sig := <-signals:
			if sig == nil {
				continue
			}
			if sig.Name == busInterface+".NameOwnerChanged" {
				m.handleNameOwnerChanged(ctx, sig)
			} else {
				m.handleSignal(ctx, sig)
			}
		}
	}
}

// handleNameOwnerChanged tracks players appearing, leaving and changing owner
func (m *MprisMonitor) handleNameOwnerChanged(ctx context.Context, sig *dbus.Signal) {
	if len(sig.Body) < 3 {
		return
	}

	name, ok := sig.Body[0].(string)
	if !ok || !strings.HasPrefix(name, mprisPrefix) {
		return
	}

	oldOwner, _ := sig.Body[1].(string)
	newOwner, _ := sig.Body[2].(string)

	switch {
	case newOwner != "" && oldOwner == "":
		m.mu.Lock()
		m.playerNames[newOwner] = name
		m.mu.Unlock()

		m.logger.Info("New MPRIS player detected",
			zap.String("player", name),
			zap.String("unique", newOwner))

		if err := m.fetchPlayerStatus(ctx, name); err != nil {
			m.logger.Warn("Failed to fetch status from new player",
				zap.String("player", name),
				zap.Error(err))
		}

	case newOwner == "" && oldOwner != "":
		m.mu.Lock()
		delete(m.playerNames, oldOwner)
		m.mu.Unlock()

		m.logger.Info("MPRIS player removed",
			zap.String("player", name),
			zap.String("unique", oldOwner))

		m.emit(ctx, domain.MediaEvent{Kind: domain.EventRemoved, Source: sourceLabel(name)})

	case newOwner != "" && oldOwner != "":
		m.mu.Lock()
		delete(m.playerNames, oldOwner)
		m.playerNames[newOwner] = name
		m.mu.Unlock()

		m.logger.Debug("MPRIS player ownership changed",
			zap.String("player", name),
			zap.String("oldUnique", oldOwner),
			zap.String("newUnique", newOwner))
	}
}

// handleSignal processes a PropertiesChanged signal of a player.
// The body is the interface name, the changed properties and the invalidated ones.
func (m *MprisMonitor) handleSignal(ctx context.Context, sig *dbus.Signal) {
	if sig.Name != "org.freedesktop.DBus.Properties.PropertiesChanged" {
		return
	}
	if len(sig.Body) < 2 {
		return
	}

	interfaceName, ok := sig.Body[0].(string)
	if !ok || interfaceName != playerInterface {
		return
	}

	changedProps, ok := sig.Body[1].(map[string]dbus.Variant)
	if !ok {
		return
	}

	playerName := m.getPlayerName(sig.Sender)

	m.logger.Debug("Received PropertiesChanged signal",
		zap.String("sender", sig.Sender),
		zap.String("player", playerName),
		zap.Int("properties", len(changedProps)))

	metadataVariant, hasMetadata := changedProps["Metadata"]
	statusVariant, hasStatus := changedProps["PlaybackStatus"]

	if !hasMetadata && !hasStatus {
		return
	}

	var metadata map[string]dbus.Variant
	var status string

	if hasMetadata {
		metadata, ok = metadataVariant.Value().(map[string]dbus.Variant)
		if !ok {
			m.logger.Warn("Invalid metadata format in signal, ignoring")
			return
		}
	}

	if hasStatus {
		status, ok = statusVariant.Value().(string)
		if !ok {
			m.logger.Warn("Invalid playback status format in signal, ignoring")
			return
		}
	} else {
		variant, err := m.conn.GetProperty(sig.Sender, mprisPath, statusProp)
		if err == nil {
			if s, ok := variant.Value().(string); ok {
				status = s
			}
		}
	}

	// Status-only changes still carry the full song
	if !hasMetadata {
		variant, err := m.conn.GetProperty(sig.Sender, mprisPath, metadataProp)
		if err == nil {
			if md, ok := variant.Value().(map[string]dbus.Variant); ok {
				metadata = md
			}
		}
	}

	source := sourceLabel(playerName)
	ev := domain.MediaEvent{
		Kind:   domain.EventStatus,
		Source: source,
		Status: m.parseStatus(source, metadata, status),
	}
	m.logger.Info("Media change detected",
		zap.String("player", playerName),
		zap.String("title", ev.Status.Title),
		zap.String("artist", ev.Status.Artist),
		zap.String("state", string(ev.Status.PlayerState)))
	m.emit(ctx, ev)
}

// emit blocks until the event is queued or ctx is done.
// Events are not dropped since removals and song changes must not be lost.
func (m *MprisMonitor) emit(ctx context.Context, ev domain.MediaEvent) {
	select {
	case m.events <- ev:
	case <-ctx.Done():
		m.logger.Debug("Monitor stopping, event discarded", zap.String("source", ev.Source))
	}
}

// parseStatus converts MPRIS metadata and playback status to a MediaStatus.
// Fields of unexpected type are left absent.
func (m *MprisMonitor) parseStatus(source string, metadata map[string]dbus.Variant, status string) domain.MediaStatus {
	st := domain.MediaStatus{
		Source:      source,
		PlayerState: playerState(status),
	}

	if metadata == nil {
		return st
	}

	if titleVar, ok := metadata["xesam:title"]; ok {
		if title, ok := titleVar.Value().(string); ok {
			st.Title = title
		}
	}

	// xesam:artist is a list, some players send a plain string
	if artistVar, ok := metadata["xesam:artist"]; ok {
		switch artists := artistVar.Value().(type) {
		case []string:
			if len(artists) > 0 {
				st.Artist = artists[0]
			}
		case string:
			st.Artist = artists
		default:
			m.logger.Debug("Unexpected artist type in metadata",
				zap.String("type", fmt.Sprintf("%T", artistVar.Value())))
		}
	}

	if albumVar, ok := metadata["xesam:album"]; ok {
		if album, ok := albumVar.Value().(string); ok {
			st.Album = album
		}
	}

	if lengthVar, ok := metadata["mpris:length"]; ok {
		st.Duration = microseconds(lengthVar.Value())
	}

	if trackVar, ok := metadata["mpris:trackid"]; ok {
		switch id := trackVar.Value().(type) {
		case dbus.ObjectPath:
			st.ContentID = string(id)
		case string:
			st.ContentID = id
		}
	}

	if urlVar, ok := metadata["xesam:url"]; ok {
		if raw, ok := urlVar.Value().(string); ok {
			st.LookupID = YouTubeID(raw)
			// Browsers without a track id still identify the content by URL
			if st.ContentID == "" {
				st.ContentID = raw
			}
		}
	}

	return st
}

// microseconds converts an mpris:length value; players disagree on the integer type
func microseconds(v interface{}) time.Duration {
	var us int64
	switch n := v.(type) {
	case int64:
		us = n
	case uint64:
		us = int64(n)
	case int32:
		us = int64(n)
	case uint32:
		us = int64(n)
	case int:
		us = int64(n)
	case float64:
		us = int64(n)
	default:
		return 0
	}
	if us <= 0 {
		return 0
	}
	return time.Duration(us) * time.Microsecond
}

// playerState maps an MPRIS PlaybackStatus to the native player state
func playerState(status string) domain.PlayerState {
	switch status {
	case "Playing":
		return domain.PlayerPlaying
	case "Paused":
		return domain.PlayerPaused
	case "Stopped":
		return domain.PlayerIdle
	default:
		return domain.PlayerUnknown
	}
}

// sourceLabel strips the MPRIS prefix from a well-known bus name
func sourceLabel(name string) string {
	return strings.TrimPrefix(name, mprisPrefix)
}

// getPlayerName returns the well-known player name for a unique bus name
// Falls back to the unique name if no mapping exists
func (m *MprisMonitor) getPlayerName(uniqueName string) string {
	m.mu.RLock()
	defer m.mu.RUnlock()

	if wellKnown, ok := m.playerNames[uniqueName]; ok {
		return wellKnown
	}
	return uniqueName
}
