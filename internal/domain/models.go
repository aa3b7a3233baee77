package domain

import "time"

// Phase describes the playback lifecycle as shown on the display
type Phase int

const (
	// PhaseInitializing means a source started playback but no metadata arrived yet
	PhaseInitializing Phase = iota
	// PhasePlaying indicates the media is currently playing
	PhasePlaying
	// PhasePaused indicates the media is paused
	PhasePaused
	// PhaseBuffering indicates the source is loading media
	PhaseBuffering
	// PhaseStopped indicates the end of playback
	PhaseStopped
	// PhaseIdle leaves the current icon untouched
	PhaseIdle
)

func (p Phase) String() string {
	switch p {
	case PhaseInitializing:
		return "INITIALIZING"
	case PhasePlaying:
		return "PLAYING"
	case PhasePaused:
		return "PAUSED"
	case PhaseBuffering:
		return "BUFFERING"
	case PhaseStopped:
		return "STOPPED"
	case PhaseIdle:
		return "IDLE"
	default:
		return "UNKNOWN"
	}
}

// PlayerState is the native playback state reported by a media source
type PlayerState string

const (
	PlayerPlaying   PlayerState = "PLAYING"
	PlayerBuffering PlayerState = "BUFFERING"
	PlayerPaused    PlayerState = "PAUSED"
	PlayerIdle      PlayerState = "IDLE"
	PlayerUnknown   PlayerState = "UNKNOWN"
)

// Active reports whether the source is still in a session worth displaying.
// Anything other than playing, buffering, paused or idle means the source went away.
func (s PlayerState) Active() bool {
	switch s {
	case PlayerPlaying, PlayerBuffering, PlayerPaused, PlayerIdle:
		return true
	default:
		return false
	}
}

// Song holds the displayable metadata of a track.
// Empty strings and a zero Duration mean the value is absent.
type Song struct {
	Title    string
	Artist   string
	Album    string
	Duration time.Duration
}

// HasMetadata reports whether any of title, artist or album is known
func (s Song) HasMetadata() bool {
	return s.Title != "" || s.Artist != "" || s.Album != ""
}

// PlaybackState is the authoritative content of the display
type PlaybackState struct {
	Song
	Phase Phase
	// Source identifies which media source last wrote this state
	Source string
}

// MediaStatus is a raw status update as delivered by a media source
type MediaStatus struct {
	// Source is the label of the reporting media source
	Source      string
	PlayerState PlayerState
	Title       string
	Artist      string
	Album       string
	Duration    time.Duration
	// ContentID identifies the underlying media resource
	ContentID string
	// LookupID is an identifier the title resolver understands, if any
	LookupID string
}

// EventKind distinguishes status updates from source teardown
type EventKind int

const (
	// EventStatus carries a MediaStatus
	EventStatus EventKind = iota
	// EventRemoved signals that the source disconnected
	EventRemoved
)

// MediaEvent is emitted by a Monitor for each change of a media source
type MediaEvent struct {
	Kind   EventKind
	Source string
	Status MediaStatus
}

// ResolvedTitle is the result of a successful title lookup
type ResolvedTitle struct {
	Title string
	// Channel is the attributed channel, shown as artist
	Channel string
}
