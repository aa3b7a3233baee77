package render

import (
	"fmt"
	"time"

	"github.com/genricoloni/sbcast/internal/domain"
)

// Geometry of the display in pixels
const (
	ScreenWidth  = 280
	ScreenHeight = 16
	// CharWidth is the advance of one character in the default font
	CharWidth = 6
	// LineHeight is the height of a text line including margin
	LineHeight = 8
	// StatusWidth is the right-hand gutter holding icon and duration
	StatusWidth = 35
	// IconX is the left edge of the playback icon
	IconX = ScreenWidth - 18

	bodyWidth = ScreenWidth - StatusWidth
)

// MaxChars is how many characters fit on a body line
const MaxChars = bodyWidth / CharWidth

const (
	unknownTitle   = "<Unknown title>"
	unknownArtist  = "<Unknown artist>"
	stoppedMessage = "End of playlist."
)

// Frame returns the full redraw batch for state: clear, body text and duration.
// Icons are drawn separately, see Icon.
func Frame(state domain.PlaybackState) []domain.DrawCommand {
	cmds := []domain.DrawCommand{domain.Clear()}
	cmds = append(cmds, Body(state)...)
	return append(cmds, DurationGutter(state.Duration)...)
}

// Body renders the two text lines for state
func Body(state domain.PlaybackState) []domain.DrawCommand {
	switch state.Phase {
	case domain.PhaseInitializing:
		return TextLines(fmt.Sprintf("%s is starting playback...", state.Source), "", false)
	case domain.PhaseStopped:
		return TextLines(stoppedMessage, "", false)
	default:
		title := state.Title
		if title == "" {
			title = unknownTitle
		}
		artist := state.Artist
		if artist == "" {
			artist = unknownArtist
		}
		// Album segment is omitted entirely when unknown
		if state.Album != "" {
			artist += " | " + state.Album
		}
		return TextLines(title, artist, true)
	}
}

// TextLines paints the body area and draws two lines of text.
// Text is truncated (and centered) here; escaping happens on the wire.
func TextLines(first, second string, center bool) []domain.DrawCommand {
	first = Truncate(Flatten(first), MaxChars)
	second = Truncate(Flatten(second), MaxChars)
	if center {
		first = Center(first, MaxChars)
		second = Center(second, MaxChars)
	}
	return []domain.DrawCommand{
		domain.SetColor(domain.ColorBackground),
		domain.Rect(0, 0, bodyWidth, ScreenHeight),
		domain.SetColor(domain.ColorForeground),
		domain.Text(0, 0, first),
		domain.Text(0, LineHeight, second),
	}
}

// DurationGutter right-aligns the formatted duration on the second status row
func DurationGutter(d time.Duration) []domain.DrawCommand {
	s := FormatDuration(d)
	x := ScreenWidth - Length(s)*CharWidth
	return []domain.DrawCommand{
		domain.SetColor(domain.ColorBackground),
		domain.Rect(bodyWidth, LineHeight, StatusWidth, LineHeight),
		domain.SetColor(domain.ColorForeground),
		domain.Text(x, LineHeight, s),
	}
}

// Icon returns the glyph batch for phase, or nil when the icon should stay as is.
// Every glyph first paints its box in the background color.
func Icon(phase domain.Phase) []domain.DrawCommand {
	var glyph []domain.DrawCommand
	switch phase {
	case domain.PhasePlaying:
		glyph = playGlyph()
	case domain.PhasePaused:
		glyph = pauseGlyph()
	case domain.PhaseBuffering, domain.PhaseInitializing:
		glyph = bufferingGlyph()
	case domain.PhaseStopped:
		glyph = stopGlyph()
	default:
		return nil
	}

	cmds := []domain.DrawCommand{
		domain.SetColor(domain.ColorBackground),
		domain.Rect(IconX-1, 0, 9, 8),
		domain.SetColor(domain.ColorForeground),
	}
	return append(cmds, glyph...)
}

func stopGlyph() []domain.DrawCommand {
	return []domain.DrawCommand{
		domain.Rect(IconX, 1, 6, 6),
	}
}

func pauseGlyph() []domain.DrawCommand {
	return []domain.DrawCommand{
		domain.Rect(IconX, 1, 2, 6),
		domain.Rect(IconX+4, 1, 2, 6),
	}
}

func playGlyph() []domain.DrawCommand {
	return []domain.DrawCommand{
		domain.Rect(IconX, 0, 2, 7),
		domain.Rect(IconX+2, 1, 2, 5),
		domain.Rect(IconX+4, 2, 2, 3),
		domain.Point(IconX+6, 3),
	}
}

// bufferingGlyph is an hourglass
func bufferingGlyph() []domain.DrawCommand {
	return []domain.DrawCommand{
		domain.Line(IconX, 0, IconX+8, 0),
		domain.Line(IconX, 7, IconX+8, 7),
		domain.Line(IconX, 1, IconX+3, 4),
		domain.Line(IconX, 6, IconX+3, 3),
		domain.Line(IconX+7, 1, IconX+4, 4),
		domain.Line(IconX+7, 6, IconX+4, 3),
	}
}
