package monitor

import (
	"net/url"
	"strings"
)

// YouTubeID extracts the video id from a YouTube watch, shorts or youtu.be URL.
// It returns an empty string for anything else.
func YouTubeID(raw string) string {
	u, err := url.Parse(raw)
	if err != nil {
		return ""
	}

	host := strings.TrimPrefix(strings.ToLower(u.Hostname()), "www.")
	switch host {
	case "youtu.be":
		return firstSegment(u.Path)
	case "youtube.com", "m.youtube.com", "music.youtube.com":
		if u.Path == "/watch" {
			return u.Query().Get("v")
		}
		if rest, ok := strings.CutPrefix(u.Path, "/shorts/"); ok {
			return firstSegment(rest)
		}
	}
	return ""
}

func firstSegment(path string) string {
	path = strings.TrimPrefix(path, "/")
	if i := strings.IndexByte(path, '/'); i >= 0 {
		path = path[:i]
	}
	return path
}
