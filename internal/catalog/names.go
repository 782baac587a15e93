// Package catalog maps the TV's opaque identifiers to display metadata:
// friendly names for inputs and applications, stable now-playing IDs,
// and local icon resources. Everything here is a pure lookup with no
// network dependency.
package catalog

import (
	"strings"
)

// knownApps maps URI substrings to display names. Matching is
// case-insensitive against the whole app URI.
var knownApps = []struct {
	fragment string
	name     string
}{
	{"netflix", "Netflix"},
	{"youtube", "YouTube"},
	{"disney", "Disney+"},
	{"amazon", "Prime Video"},
	{"apple.atve", "Apple TV"},
	{"hbo", "HBO Max"},
	{"spotify", "Spotify"},
	{"plex", "Plex"},
	{"twitch", "Twitch"},
	{"crunchyroll", "Crunchyroll"},
	{"dazn", "DAZN"},
	{"atbat", "MLB"},
	{"nba", "NBA"},
}

// FriendlyInputName converts a physical-input URI to a human-readable
// name, e.g. "extInput:hdmi?port=1" -> "HDMI 1". Returns "" when the
// URI is not a recognized input scheme.
func FriendlyInputName(uri string) string {
	if uri == "" {
		return ""
	}
	if strings.Contains(uri, "hdmi") {
		if _, after, ok := strings.Cut(uri, "port="); ok {
			port, _, _ := strings.Cut(after, "&")
			if port != "" {
				return "HDMI " + port
			}
		}
		return "HDMI"
	}
	if strings.HasPrefix(uri, "tv:") {
		return "TV"
	}
	if strings.Contains(uri, "composite") {
		return "AV"
	}
	if strings.Contains(uri, "component") {
		return "Component"
	}
	return ""
}

// AppName derives a display name from an application URI. Unknown apps
// fall back to the last dot-separated segment of the URI.
func AppName(uri string) string {
	if uri == "" {
		return "App"
	}

	lower := strings.ToLower(uri)
	for _, app := range knownApps {
		if strings.Contains(lower, app.fragment) {
			return app.name
		}
	}

	parts := strings.Split(uri, ".")
	if last := parts[len(parts)-1]; last != "" {
		return last
	}
	return "App"
}

// nowPlayingIDs assigns fixed integers to known content titles so that
// downstream consumers (metrics dashboards) get stable series. 0 means
// unknown/unmapped. Order matters for the substring fallback.
var nowPlayingIDs = []struct {
	title string
	id    int
}{
	{"Unknown", 0},
	{"Home Screen", 1},
	{"Web Browser", 2},
	{"PS5", 10},
	{"Switch", 11},
	{"HDMI 3", 12},
	{"HDMI 4", 13},
	{"TV", 20},
	{"AV", 21},
	{"Component", 22},
	{"Netflix", 100},
	{"YouTube", 101},
	{"Disney+", 102},
	{"Prime Video", 103},
	{"Apple TV", 104},
	{"HBO Max", 105},
	{"Spotify", 106},
	{"Plex", 107},
	{"Twitch", 108},
	{"Crunchyroll", 109},
	{"DAZN", 110},
	{"MLB", 111},
	{"NBA", 112},
}

// NowPlayingID returns the fixed ID for a title: exact match first,
// then substring match for dynamic names, else 0.
func NowPlayingID(title string) int {
	for _, entry := range nowPlayingIDs {
		if entry.title == title {
			return entry.id
		}
	}
	for _, entry := range nowPlayingIDs {
		if strings.Contains(title, entry.title) {
			return entry.id
		}
	}
	return 0
}
