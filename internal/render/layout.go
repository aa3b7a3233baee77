// Package render turns playback state into display draw commands.
package render

import (
	"fmt"
	"strings"
	"time"
	"unicode"

	"github.com/rivo/uniseg"
)

// Ellipsis replaces the tail of truncated text
const Ellipsis = "…"

// Length returns the number of characters the display renders for s
func Length(s string) int {
	return uniseg.GraphemeClusterCount(s)
}

// Flatten replaces control characters such as line breaks with spaces.
// The display draws a single line per text command.
func Flatten(s string) string {
	return strings.Map(func(r rune) rune {
		if unicode.IsControl(r) {
			return ' '
		}
		return r
	}, s)
}

// Truncate shortens text to at most maxChars characters, ending with a
// single ellipsis when anything was cut.
func Truncate(text string, maxChars int) string {
	if Length(text) <= maxChars {
		return text
	}
	if maxChars <= 0 {
		return ""
	}

	var b strings.Builder
	g := uniseg.NewGraphemes(text)
	for i := 0; i < maxChars-1 && g.Next(); i++ {
		b.WriteString(g.Str())
	}
	b.WriteString(Ellipsis)
	return b.String()
}

// Center left-pads text so it sits in the middle of maxChars columns.
// No right padding is added.
func Center(text string, maxChars int) string {
	indent := (maxChars - Length(text)) / 2
	if indent <= 0 {
		return text
	}
	return strings.Repeat(" ", indent) + text
}

// FormatDuration renders d as M:SS, or --:-- when unknown
func FormatDuration(d time.Duration) string {
	if d <= 0 {
		return "--:--"
	}
	secs := int(d / time.Second)
	return fmt.Sprintf("%d:%02d", secs/60, secs%60)
}
