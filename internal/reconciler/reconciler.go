// Package reconciler decides, per media source, which status updates carry
// something new worth showing and forwards them to the display.
package reconciler

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/genricoloni/sbcast/internal/domain"
	"go.uber.org/zap"
)

// LastSeenSong is the metadata most recently accepted from one source
type LastSeenSong struct {
	Title     string
	Artist    string
	Album     string
	ContentID string
}

func (l LastSeenSong) sameMetadata(s domain.MediaStatus) bool {
	return l.Title == s.Title && l.Artist == s.Artist && l.Album == s.Album
}

// Reconciler filters the status stream of a single media source.
// Sources may report the previous track's metadata once after the content id
// already moved on; such updates are replaced by a title lookup instead of
// flickering back to stale text.
type Reconciler struct {
	logger        *zap.Logger
	source        string
	display       domain.Display
	resolver      domain.TitleResolver // nil disables lookups
	lookupTimeout time.Duration

	mu   sync.Mutex
	last LastSeenSong
}

// NewReconciler creates a reconciler with an empty memo for source
func NewReconciler(
	logger *zap.Logger,
	source string,
	display domain.Display,
	resolver domain.TitleResolver,
	lookupTimeout time.Duration,
) *Reconciler {
	return &Reconciler{
		logger:        logger.With(zap.String("source", source)),
		source:        source,
		display:       display,
		resolver:      resolver,
		lookupTimeout: lookupTimeout,
	}
}

// OnStatusUpdate handles one status event. Calls for the same source must be serialized.
func (r *Reconciler) OnStatusUpdate(ctx context.Context, status domain.MediaStatus) {
	r.logger.Info("Got media status", zap.String("state", string(status.PlayerState)))

	if !status.PlayerState.Active() {
		r.logger.Info("Source became inactive, releasing display",
			zap.String("state", string(status.PlayerState)))
		r.display.Teardown()
		return
	}

	r.reconcileSong(ctx, status)
	r.display.UpdatePhase(PhaseFor(status.PlayerState), r.source)
}

// LastSeen returns a copy of the memo
func (r *Reconciler) LastSeen() LastSeenSong {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.last
}

func (r *Reconciler) reconcileSong(ctx context.Context, status domain.MediaStatus) {
	r.mu.Lock()
	defer r.mu.Unlock()

	stale := r.last.sameMetadata(status)
	missing := status.Title == ""

	if !stale && !missing {
		r.last = LastSeenSong{
			Title:     status.Title,
			Artist:    status.Artist,
			Album:     status.Album,
			ContentID: status.ContentID,
		}
		r.logger.Info("New song",
			zap.String("title", status.Title),
			zap.String("artist", status.Artist),
			zap.String("album", status.Album))
		r.display.UpdateSong(domain.Song{
			Title:    status.Title,
			Artist:   status.Artist,
			Album:    status.Album,
			Duration: status.Duration,
		}, r.source)
		return
	}

	canLookup := r.resolver != nil && status.LookupID != ""
	if !canLookup || (!missing && status.ContentID == r.last.ContentID) {
		r.logger.Debug("Nothing new to show",
			zap.Bool("stale", stale),
			zap.Bool("missing", missing))
		return
	}

	song := r.lookup(ctx, status)
	// Only the content id is remembered so the real metadata still counts as new
	r.last.ContentID = status.ContentID
	r.display.UpdateSong(song, r.source)
}

// lookup resolves the title of status.LookupID. Failures become placeholder text.
func (r *Reconciler) lookup(ctx context.Context, status domain.MediaStatus) domain.Song {
	if r.lookupTimeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, r.lookupTimeout)
		defer cancel()
	}

	song := domain.Song{Duration: status.Duration}
	res, err := r.resolver.ResolveTitle(ctx, status.LookupID)
	if err != nil {
		r.logger.Warn("Title lookup failed",
			zap.String("id", status.LookupID),
			zap.Error(err))
		song.Title, song.Artist = Placeholder(status.LookupID, err)
		return song
	}

	r.logger.Info("Title looked up",
		zap.String("id", status.LookupID),
		zap.String("title", res.Title),
		zap.String("channel", res.Channel))
	song.Title = res.Title
	song.Artist = res.Channel
	return song
}

// Placeholder returns the title and artist shown when a lookup failed
func Placeholder(id string, err error) (title, artist string) {
	var httpErr *domain.LookupHTTPError
	var diag string
	switch {
	case errors.Is(err, domain.ErrTitleNotFound):
		diag = "not found"
	case errors.As(err, &httpErr):
		diag = httpErr.Error()
	default:
		diag = err.Error()
	}
	return fmt.Sprintf("Video %s", id), "Lookup failed: " + diag
}

// PhaseFor maps a native player state to a display phase.
// Unrecognized states count as stopped.
func PhaseFor(state domain.PlayerState) domain.Phase {
	switch state {
	case domain.PlayerPlaying:
		return domain.PhasePlaying
	case domain.PlayerBuffering:
		return domain.PhaseBuffering
	case domain.PlayerPaused:
		return domain.PhasePaused
	default:
		return domain.PhaseStopped
	}
}
