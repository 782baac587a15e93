package catalog

import (
	"strings"
)

// IconIndex resolves device identifiers to locally served icon paths.
// The TV's protocol does not supply icon imagery for third-party
// applications, so icons come from a static catalog keyed by identifier
// fragments. Exact matches win over fragment matches.
type IconIndex struct {
	exact     map[string]string
	fragments []iconFragment
}

type iconFragment struct {
	fragment string
	path     string
}

// defaultAppIcons maps app URI fragments to icon paths under /icons/.
var defaultAppIcons = []iconFragment{
	{"netflix", "/icons/netflix.png"},
	{"youtube", "/icons/youtube.png"},
	{"disney", "/icons/disney.png"},
	{"amazon", "/icons/prime.png"},
	{"apple.atve", "/icons/appletv.png"},
	{"hbo", "/icons/hbomax.png"},
	{"spotify", "/icons/spotify.png"},
	{"plex", "/icons/plex.png"},
	{"twitch", "/icons/twitch.png"},
	{"crunchyroll", "/icons/crunchyroll.png"},
	{"dazn", "/icons/dazn.png"},
	{"atbat", "/icons/mlb.png"},
	{"nba", "/icons/nba.png"},
}

// defaultDeviceIcons maps user-assigned HDMI labels to icon paths.
var defaultDeviceIcons = map[string]string{
	"ps5":    "/icons/ps5.png",
	"ps4":    "/icons/ps4.png",
	"switch": "/icons/switch.png",
}

// NewIconIndex creates an index with the built-in icon catalog.
func NewIconIndex() *IconIndex {
	return &IconIndex{
		exact:     make(map[string]string),
		fragments: defaultAppIcons,
	}
}

// Add registers an exact identifier-to-path mapping, overriding any
// fragment match for that identifier.
func (ix *IconIndex) Add(identifier, path string) {
	ix.exact[strings.ToLower(identifier)] = path
}

// Resolve returns the icon path for an identifier, or "" when nothing
// in the catalog matches.
func (ix *IconIndex) Resolve(identifier string) string {
	lower := strings.ToLower(identifier)

	if path, ok := ix.exact[lower]; ok {
		return path
	}
	for _, entry := range ix.fragments {
		if strings.Contains(lower, entry.fragment) {
			return entry.path
		}
	}
	return ""
}

// DeviceIcon returns the icon for a user-assigned input label
// (e.g. "PS5"), or "" when the label is unknown.
func DeviceIcon(label string) string {
	return defaultDeviceIcons[strings.ToLower(label)]
}
