// Package testutil provides testing utilities for the TV gateway.
// This package contains a mock Bravia control server and helpers for
// writing integration tests against the full HTTP surface.
package testutil

import (
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/http/httptest"
	"strconv"
	"strings"
	"sync"
	"time"
)

// MockTVServer simulates a Sony Bravia's IP control endpoint: the JSON
// services under /sony/<service> and the IRCC SOAP endpoint. It keeps
// a small fake TV state so command calls are observable through
// subsequent status calls, the way the real device behaves.
type MockTVServer struct {
	server *httptest.Server

	mu      sync.Mutex
	psk     string
	power   string
	volume  int
	muted   bool
	playing PlayingState
	inputs  []InputState
	apps    []AppState
	sources []string
	calls   []DeviceCall
}

// PlayingState is what the fake TV reports as currently displayed.
type PlayingState struct {
	Title  string
	URI    string
	Source string
}

// InputState is one physical input of the fake TV.
type InputState struct {
	URI        string
	Title      string
	Label      string
	Connection bool
}

// AppState is one installed application of the fake TV.
type AppState struct {
	Title string
	URI   string
}

// NewMockTVServer starts a mock TV listening on a random local port.
// The TV starts in standby with volume 20.
func NewMockTVServer(psk string) *MockTVServer {
	s := &MockTVServer{
		psk:    psk,
		power:  "standby",
		volume: 20,
		playing: PlayingState{
			Title:  "",
			URI:    "",
			Source: "",
		},
	}

	mux := http.NewServeMux()
	mux.HandleFunc("/sony/IRCC", s.handleIRCC)
	mux.HandleFunc("/sony/", s.handleService)
	s.server = httptest.NewServer(mux)

	return s
}

// URL returns the mock TV's base URL, e.g. "http://127.0.0.1:54321".
func (s *MockTVServer) URL() string {
	return s.server.URL
}

// Stop shuts the mock TV down. Clients see connection errors
// afterwards, which is exactly how an unplugged TV looks.
func (s *MockTVServer) Stop() {
	s.server.Close()
}

// SetPSK changes the key the TV expects; pointing it away from the
// gateway's configured key simulates a credential mismatch.
func (s *MockTVServer) SetPSK(psk string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.psk = psk
}

func (s *MockTVServer) checkPSK(r *http.Request) bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return r.Header.Get("X-Auth-PSK") == s.psk
}

// SetPower sets the fake power state ("active" or "standby").
func (s *MockTVServer) SetPower(state string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.power = state
}

// Power reports the fake power state.
func (s *MockTVServer) Power() string {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.power
}

// SetVolume seeds the fake volume state.
func (s *MockTVServer) SetVolume(volume int, muted bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.volume = volume
	s.muted = muted
}

// Volume reports the fake volume state.
func (s *MockTVServer) Volume() (int, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.volume, s.muted
}

// SetPlaying seeds what the fake TV reports as on screen.
func (s *MockTVServer) SetPlaying(p PlayingState) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.playing = p
}

// Playing reports the fake on-screen content.
func (s *MockTVServer) Playing() PlayingState {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.playing
}

// SetInputs seeds the fake physical input list.
func (s *MockTVServer) SetInputs(inputs []InputState) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.inputs = inputs
}

// SetApps seeds the fake installed application list.
func (s *MockTVServer) SetApps(apps []AppState) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.apps = apps
}

// SetSources seeds the fake source list.
func (s *MockTVServer) SetSources(sources []string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.sources = sources
}

// envelope is the JSON control request shape.
type envelope struct {
	ID      int    `json:"id"`
	Method  string `json:"method"`
	Version string `json:"version"`
	Params  []any  `json:"params"`
}

func (s *MockTVServer) handleService(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		http.Error(w, "method not allowed", http.StatusMethodNotAllowed)
		return
	}
	if !s.checkPSK(r) {
		http.Error(w, "forbidden", http.StatusForbidden)
		return
	}

	service := strings.TrimPrefix(r.URL.Path, "/sony/")

	var req envelope
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		http.Error(w, "bad request", http.StatusBadRequest)
		return
	}

	s.mu.Lock()
	s.calls = append(s.calls, DeviceCall{
		Timestamp: time.Now(),
		Service:   service,
		Method:    req.Method,
		Params:    req.Params,
	})
	s.mu.Unlock()

	result, code, msg := s.dispatch(service, req)
	if msg != "" {
		writeEnvelope(w, req.ID, nil, []any{code, msg})
		return
	}
	writeEnvelope(w, req.ID, result, nil)
}

// dispatch executes one control method against the fake state. It
// returns either a result payload or a device error code and message.
func (s *MockTVServer) dispatch(service string, req envelope) (result []any, errCode int, errMsg string) {
	s.mu.Lock()
	defer s.mu.Unlock()

	switch service + "." + req.Method {
	case "system.getPowerStatus":
		return []any{map[string]string{"status": s.power}}, 0, ""

	case "system.setPowerStatus":
		on, ok := paramBool(req.Params, "status")
		if !ok {
			return nil, 3, "Illegal Argument"
		}
		if on {
			s.power = "active"
		} else {
			s.power = "standby"
		}
		return []any{}, 0, ""

	case "audio.getVolumeInformation":
		return []any{[]map[string]any{{
			"target":    "speaker",
			"volume":    s.volume,
			"mute":      s.muted,
			"minVolume": 0,
			"maxVolume": 100,
		}}}, 0, ""

	case "audio.setAudioVolume":
		value, ok := paramString(req.Params, "volume")
		if !ok {
			return nil, 3, "Illegal Argument"
		}
		if err := s.applyVolume(value); err != nil {
			return nil, 3, err.Error()
		}
		return []any{0}, 0, ""

	case "audio.setAudioMute":
		muted, ok := paramBool(req.Params, "status")
		if !ok {
			return nil, 3, "Illegal Argument"
		}
		s.muted = muted
		return []any{0}, 0, ""

	case "avContent.getPlayingContentInfo":
		if s.power != "active" {
			return nil, 40005, "Display Is Turned off"
		}
		return []any{map[string]string{
			"title":  s.playing.Title,
			"uri":    s.playing.URI,
			"source": s.playing.Source,
		}}, 0, ""

	case "avContent.getCurrentExternalInputsStatus":
		inputs := make([]map[string]any, 0, len(s.inputs))
		for _, in := range s.inputs {
			inputs = append(inputs, map[string]any{
				"uri":        in.URI,
				"title":      in.Title,
				"label":      in.Label,
				"connection": in.Connection,
			})
		}
		return []any{inputs}, 0, ""

	case "avContent.getSourceList":
		sources := make([]map[string]string, 0, len(s.sources))
		for _, src := range s.sources {
			sources = append(sources, map[string]string{"source": src})
		}
		return []any{sources}, 0, ""

	case "avContent.setPlayContent":
		uri, ok := paramString(req.Params, "uri")
		if !ok {
			return nil, 3, "Illegal Argument"
		}
		s.playing = PlayingState{URI: uri, Source: "extInput"}
		for _, in := range s.inputs {
			if in.URI == uri {
				s.playing.Title = in.Title
			}
		}
		return []any{}, 0, ""

	case "appControl.getApplicationList":
		apps := make([]map[string]string, 0, len(s.apps))
		for _, app := range s.apps {
			apps = append(apps, map[string]string{"title": app.Title, "uri": app.URI})
		}
		return []any{apps}, 0, ""

	case "appControl.setActiveApp":
		uri, ok := paramString(req.Params, "uri")
		if !ok {
			return nil, 3, "Illegal Argument"
		}
		for _, app := range s.apps {
			if app.URI == uri {
				s.playing = PlayingState{Title: app.Title, URI: uri, Source: "app"}
				return []any{}, 0, ""
			}
		}
		return nil, 12, "No Such App"

	case "appControl.setTextForm":
		return []any{}, 0, ""

	default:
		return nil, 12, "No Such Method"
	}
}

// applyVolume interprets the protocol's string volume: absolute
// ("37") or relative ("+5", "-5").
func (s *MockTVServer) applyVolume(value string) error {
	switch {
	case strings.HasPrefix(value, "+"), strings.HasPrefix(value, "-"):
		delta, err := strconv.Atoi(value)
		if err != nil {
			return fmt.Errorf("bad relative volume %q", value)
		}
		s.volume += delta
	default:
		v, err := strconv.Atoi(value)
		if err != nil {
			return fmt.Errorf("bad volume %q", value)
		}
		s.volume = v
	}
	if s.volume < 0 {
		s.volume = 0
	}
	if s.volume > 100 {
		s.volume = 100
	}
	return nil
}

func (s *MockTVServer) handleIRCC(w http.ResponseWriter, r *http.Request) {
	if !s.checkPSK(r) {
		http.Error(w, "forbidden", http.StatusForbidden)
		return
	}

	body, _ := io.ReadAll(r.Body)
	code := extractIRCCCode(string(body))

	s.mu.Lock()
	s.calls = append(s.calls, DeviceCall{
		Timestamp: time.Now(),
		Service:   "IRCC",
		Method:    "X_SendIRCC",
		Params:    []any{code},
	})
	s.mu.Unlock()

	w.Header().Set("Content-Type", "text/xml; charset=UTF-8")
	fmt.Fprint(w, `<?xml version="1.0"?><s:Envelope><s:Body><u:X_SendIRCCResponse/></s:Body></s:Envelope>`)
}

func extractIRCCCode(body string) string {
	_, after, ok := strings.Cut(body, "<IRCCCode>")
	if !ok {
		return ""
	}
	code, _, _ := strings.Cut(after, "</IRCCCode>")
	return code
}

func writeEnvelope(w http.ResponseWriter, id int, result []any, devErr []any) {
	w.Header().Set("Content-Type", "application/json")
	resp := map[string]any{"id": id}
	if devErr != nil {
		resp["error"] = devErr
	} else {
		if result == nil {
			result = []any{}
		}
		resp["result"] = result
	}
	json.NewEncoder(w).Encode(resp)
}

func paramString(params []any, key string) (string, bool) {
	m, ok := firstParamMap(params)
	if !ok {
		return "", false
	}
	v, ok := m[key].(string)
	return v, ok
}

func paramBool(params []any, key string) (bool, bool) {
	m, ok := firstParamMap(params)
	if !ok {
		return false, false
	}
	v, ok := m[key].(bool)
	return v, ok
}

func firstParamMap(params []any) (map[string]any, bool) {
	if len(params) == 0 {
		return nil, false
	}
	m, ok := params[0].(map[string]any)
	return m, ok
}
