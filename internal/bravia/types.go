package bravia

import (
	"encoding/json"
)

// request is the JSON envelope POSTed to /sony/<service> endpoints.
// The TV answers HTTP 200 for protocol-level errors too; callers must
// check the error member of the reply.
type request struct {
	ID      int    `json:"id"`
	Method  string `json:"method"`
	Version string `json:"version"`
	Params  []any  `json:"params"`
}

// response is the raw reply envelope. Result and Error are mutually
// exclusive; Error is a [code, message] pair.
type response struct {
	ID     int               `json:"id"`
	Result []json.RawMessage `json:"result,omitempty"`
	Error  []json.RawMessage `json:"error,omitempty"`
}

// Power states reported by the TV.
const (
	PowerActive  = "active"
	PowerStandby = "standby"
)

// VolumeInformation describes one audio output target.
type VolumeInformation struct {
	Target    string `json:"target"`
	Volume    int    `json:"volume"`
	Mute      bool   `json:"mute"`
	MinVolume int    `json:"minVolume"`
	MaxVolume int    `json:"maxVolume"`
}

// PlayingContent describes what the TV reports as currently displayed.
// Title is frequently empty for external inputs; URI is the device's
// opaque addressing scheme (e.g. extInput:hdmi?port=2).
type PlayingContent struct {
	Title  string `json:"title"`
	URI    string `json:"uri"`
	Source string `json:"source"`
}

// ExternalInput describes a physical input as reported by the TV,
// including the user-assigned label (e.g. "PS5") and whether a cable
// is attached.
type ExternalInput struct {
	URI        string `json:"uri"`
	Title      string `json:"title"`
	Label      string `json:"label"`
	Connection bool   `json:"connection"`
	Icon       string `json:"icon"`
}

// AppInfo describes an installed application.
type AppInfo struct {
	Title string `json:"title"`
	URI   string `json:"uri"`
	Icon  string `json:"icon"`
}

// Source is one entry of the TV's configured source list.
type Source struct {
	Source string `json:"source"`
}
