// Package reconciler owns the single in-memory snapshot of TV state and
// keeps it converged with the device through a fixed-interval poll loop.
package reconciler

import (
	"time"

	"tvremote/internal/catalog"
)

// Power states as tracked in the snapshot. PowerOffline is synthesized
// when the device stays unreachable; the device itself only ever
// reports active or standby.
const (
	PowerUnknown = "unknown"
	PowerActive  = "active"
	PowerStandby = "standby"
	PowerOffline = "offline"
)

// TitleSentinel is the display value for title when nothing is known.
const TitleSentinel = "—"

// Snapshot is the single shared view of TV state. The Manager holds
// exactly one copy; it is overwritten on each poll or action, never
// persisted.
type Snapshot struct {
	Power        string    `json:"power"`
	Volume       int       `json:"volume"`
	Muted        bool      `json:"muted"`
	Title        string    `json:"title"`
	URI          string    `json:"uri"`
	NowPlayingID int       `json:"nowPlayingId"`
	UpdatedAt    time.Time `json:"lastUpdateTimestamp"`
}

// Update carries the fields one poll cycle managed to observe. Nil
// fields were not obtained this cycle and keep their previous values
// (subject to the power override below).
type Update struct {
	Power  *string
	Volume *int
	Muted  *bool
	Title  *string
	URI    *string
}

// ClampVolume bounds a volume value to the displayable [0, 100] range.
func ClampVolume(v int) int {
	if v < 0 {
		return 0
	}
	if v > 100 {
		return 100
	}
	return v
}

// Merge applies an update to a snapshot and returns the new snapshot.
// When the merged power state is anything but active, the dependent
// fields are forced to their unknown/off sentinels: the device reports
// stale values while transitioning, and they must not leak into the UI.
func Merge(old Snapshot, upd Update, now time.Time) Snapshot {
	s := old

	if upd.Power != nil {
		s.Power = *upd.Power
	}
	if upd.Volume != nil {
		s.Volume = ClampVolume(*upd.Volume)
	}
	if upd.Muted != nil {
		s.Muted = *upd.Muted
	}
	if upd.Title != nil {
		s.Title = *upd.Title
		s.NowPlayingID = catalog.NowPlayingID(s.Title)
	}
	if upd.URI != nil {
		s.URI = *upd.URI
	}

	if s.Power != PowerActive {
		s.Volume = 0
		s.Muted = false
		s.Title = TitleSentinel
		s.URI = ""
		s.NowPlayingID = 0
	}

	s.UpdatedAt = now
	return s
}
