package domain

import (
	"context"
	"time"
)

// Monitor defines the interface for watching media sources
// Implementations should handle discovery and session maintenance
type Monitor interface {
	// Start begins monitoring for media events
	// It should block until context is cancelled or an error occurs
	Start(ctx context.Context) error

	// Stop gracefully stops the monitor
	Stop(ctx context.Context) error

	// Events returns a read-only channel that emits a MediaEvent
	// whenever a source reports a status change or disappears
	Events() <-chan MediaEvent

	// Alive reports whether the given source still has a live session
	Alive(source string) bool
}

// TitleResolver turns a video identifier into a human-readable title
//
//go:generate mockgen -destination=mocks/mocks.go -package=mocks github.com/genricoloni/sbcast/internal/domain TitleResolver,Display
type TitleResolver interface {
	// ResolveTitle returns ErrTitleNotFound, a *LookupHTTPError or any other error on failure
	ResolveTitle(ctx context.Context, id string) (ResolvedTitle, error)
}

// DisplayLink is the connection to the remote display.
// None of its methods return errors: failures tear the connection down
// and the next call reconnects.
type DisplayLink interface {
	// EnsureConnected connects and initializes the display if needed
	EnsureConnected() bool

	// Send writes the commands in order, stopping at the first failure
	Send(commands []DrawCommand) bool

	// Disconnect closes the connection, a no-op if already disconnected
	Disconnect()
}

// Display is what media sources feed; it owns the PlaybackState
type Display interface {
	// UpdatePhase sets the playback phase reported by source
	UpdatePhase(phase Phase, source string)

	// UpdateSong sets the song metadata reported by source
	UpdateSong(song Song, source string)

	// Teardown drops the display connection and clears all state
	Teardown()
}

// Config defines the interface for application configuration
type Config interface {
	// GetDisplayAddress returns host:port of the remote display
	GetDisplayAddress() string

	// GetConnectTimeout bounds connecting to and writing to the display
	GetConnectTimeout() time.Duration

	// GetUpdateDelay returns the debounce window for redraws
	GetUpdateDelay() time.Duration

	// GetSourceFilter returns the accepted source labels, empty means all
	GetSourceFilter() []string

	// GetHealthInterval returns how often source liveness is checked
	GetHealthInterval() time.Duration

	// GetLookupEndpoint returns the oEmbed endpoint used for title lookups
	GetLookupEndpoint() string

	// GetLookupTimeout bounds a single title lookup
	GetLookupTimeout() time.Duration
}
