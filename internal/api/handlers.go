package api

import (
	"encoding/json"
	"net/http"
	"strconv"
	"strings"
	"time"

	"go.uber.org/zap"

	"tvremote/internal/bravia"
	"tvremote/internal/catalog"
	"tvremote/internal/config"
	"tvremote/internal/reconciler"
)

// Post-action refresh delays. Device state changes are not
// instantaneous; an immediate re-fetch would observe stale values.
const (
	powerRefreshDelay  = 2 * time.Second
	volumeRefreshDelay = 500 * time.Millisecond
	switchRefreshDelay = 2 * time.Second
)

type commandResponse struct {
	Success bool   `json:"success"`
	Error   string `json:"error,omitempty"`
}

type statusResponse struct {
	Success bool   `json:"success"`
	Power   string `json:"power"`
	Volume  int    `json:"volume"`
	Muted   bool   `json:"muted"`
	Title   string `json:"title"`
	URI     string `json:"uri"`
}

type volumeResponse struct {
	Success bool   `json:"success"`
	Volume  *int   `json:"volume,omitempty"`
	Muted   *bool  `json:"muted,omitempty"`
	Error   string `json:"error,omitempty"`
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(v)
}

// commandFailure reports a failed device command. Failures of any kind
// are HTTP 200 with success:false; HTTP errors are reserved for
// malformed requests.
func commandFailure(w http.ResponseWriter, err error) {
	writeJSON(w, http.StatusOK, commandResponse{Success: false, Error: err.Error()})
}

func badRequest(w http.ResponseWriter, msg string) {
	writeJSON(w, http.StatusBadRequest, commandResponse{Success: false, Error: msg})
}

func decodeBody(w http.ResponseWriter, r *http.Request, v any) bool {
	if err := json.NewDecoder(r.Body).Decode(v); err != nil {
		badRequest(w, "invalid JSON body")
		return false
	}
	return true
}

// handleStatus aggregates live device state: power first, then volume
// and playing content only when the TV is active. An unreachable TV is
// a normal "offline" status, not an error.
func (s *Server) handleStatus(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()

	resp := statusResponse{
		Success: true,
		Power:   reconciler.PowerOffline,
		Title:   reconciler.TitleSentinel,
	}

	power, err := s.client.PowerStatus(ctx)
	if err != nil {
		if bravia.IsUnreachable(err) {
			writeJSON(w, http.StatusOK, resp)
			return
		}
		s.logger.Warn("Power status query failed", zap.Error(err))
		commandFailure(w, err)
		return
	}

	resp.Power = power
	if power != reconciler.PowerActive {
		writeJSON(w, http.StatusOK, resp)
		return
	}

	if info, err := s.client.VolumeInformation(ctx); err != nil {
		s.logger.Warn("Volume query failed during status aggregation", zap.Error(err))
	} else {
		resp.Volume = reconciler.ClampVolume(info.Volume)
		resp.Muted = info.Mute
	}

	if title, uri, err := reconciler.ResolveNowPlaying(ctx, s.client); err != nil {
		s.logger.Warn("Playing content query failed during status aggregation", zap.Error(err))
	} else {
		if title != "" {
			resp.Title = title
		}
		resp.URI = uri
	}

	writeJSON(w, http.StatusOK, resp)
}

func (s *Server) handlePower(w http.ResponseWriter, r *http.Request) {
	var req struct {
		Action string `json:"action"`
	}
	if !decodeBody(w, r, &req) {
		return
	}

	ctx := r.Context()
	switch req.Action {
	case "on":
		// Wake first: in deep standby the control endpoint is down, so
		// success means the signal was transmitted, not that the TV is
		// already on.
		if err := s.waker.Wake(); err != nil {
			s.logger.Error("Failed to send wake signal", zap.Error(err))
			commandFailure(w, err)
			return
		}
		if err := s.client.SetPowerStatus(ctx, true); err != nil {
			s.logger.Debug("API power-on failed after wake signal", zap.Error(err))
		}
	case "off":
		if err := s.client.SetPowerStatus(ctx, false); err != nil {
			commandFailure(w, err)
			return
		}
	default:
		badRequest(w, "action must be \"on\" or \"off\"")
		return
	}

	s.reconciler.RefreshSoon(powerRefreshDelay)
	writeJSON(w, http.StatusOK, commandResponse{Success: true})
}

func (s *Server) handleGetVolume(w http.ResponseWriter, r *http.Request) {
	info, err := s.client.VolumeInformation(r.Context())
	if err != nil {
		commandFailure(w, err)
		return
	}

	volume := reconciler.ClampVolume(info.Volume)
	writeJSON(w, http.StatusOK, volumeResponse{
		Success: true,
		Volume:  &volume,
		Muted:   &info.Mute,
	})
}

// handleSetVolume dispatches the volume actions. "set" validates the
// range before any device contact; the device does not echo the new
// value back, so the response repeats the values as sent.
func (s *Server) handleSetVolume(w http.ResponseWriter, r *http.Request) {
	var req struct {
		Action string `json:"action"`
		Volume *int   `json:"volume"`
	}
	if !decodeBody(w, r, &req) {
		return
	}

	ctx := r.Context()
	resp := volumeResponse{Success: true}

	switch req.Action {
	case "up":
		if err := s.client.SetVolume(ctx, "+5"); err != nil {
			commandFailure(w, err)
			return
		}
	case "down":
		if err := s.client.SetVolume(ctx, "-5"); err != nil {
			commandFailure(w, err)
			return
		}
	case "mute", "unmute":
		muted := req.Action == "mute"
		if err := s.client.SetMute(ctx, muted); err != nil {
			commandFailure(w, err)
			return
		}
		resp.Muted = &muted
	case "set":
		if req.Volume == nil {
			badRequest(w, "volume is required for action \"set\"")
			return
		}
		if *req.Volume < 0 || *req.Volume > 100 {
			writeJSON(w, http.StatusOK, volumeResponse{
				Success: false,
				Error:   "volume must be between 0 and 100",
			})
			return
		}
		if err := s.client.SetVolume(ctx, strconv.Itoa(*req.Volume)); err != nil {
			commandFailure(w, err)
			return
		}
		resp.Volume = req.Volume
	default:
		badRequest(w, "action must be one of up, down, mute, unmute, set")
		return
	}

	s.reconciler.RefreshSoon(volumeRefreshDelay)
	writeJSON(w, http.StatusOK, resp)
}

type channelResponse struct {
	Success bool   `json:"success"`
	Title   string `json:"title"`
	URI     string `json:"uri"`
}

// handleChannel reports what the TV is showing. Live resolution first;
// when the device reports nothing useful the last snapshot (which may
// carry a recent user override) fills in, then "Unknown".
func (s *Server) handleChannel(w http.ResponseWriter, r *http.Request) {
	title, uri, err := reconciler.ResolveNowPlaying(r.Context(), s.client)
	if err != nil || title == "" {
		snap := s.reconciler.Snapshot()
		if snap.Title != "" && snap.Title != reconciler.TitleSentinel {
			title, uri = snap.Title, snap.URI
		} else {
			title = "Unknown"
		}
	}

	writeJSON(w, http.StatusOK, channelResponse{Success: true, Title: title, URI: uri})
}

func (s *Server) handleText(w http.ResponseWriter, r *http.Request) {
	var req struct {
		Text string `json:"text"`
	}
	if !decodeBody(w, r, &req) {
		return
	}
	if req.Text == "" {
		badRequest(w, "text is required")
		return
	}

	if err := s.client.SendText(r.Context(), req.Text); err != nil {
		commandFailure(w, err)
		return
	}
	writeJSON(w, http.StatusOK, commandResponse{Success: true})
}

// handleApplications serves the preset catalog. App shortcuts are
// curated configuration, not a live device query.
func (s *Server) handleApplications(w http.ResponseWriter, r *http.Request) {
	apps := s.apps
	if apps == nil {
		apps = []config.Application{}
	}
	writeJSON(w, http.StatusOK, struct {
		Success      bool                 `json:"success"`
		Applications []config.Application `json:"applications"`
	}{true, apps})
}

func (s *Server) handleLaunch(w http.ResponseWriter, r *http.Request) {
	uri, title, ok := s.decodeContentRequest(w, r)
	if !ok {
		return
	}

	if err := s.client.SetActiveApp(r.Context(), uri); err != nil {
		commandFailure(w, err)
		return
	}

	if title == "" {
		title = catalog.AppName(uri)
	}
	s.reconciler.Override(title, uri)
	s.reconciler.RefreshSoon(switchRefreshDelay)
	writeJSON(w, http.StatusOK, commandResponse{Success: true})
}

func (s *Server) handleSwitch(w http.ResponseWriter, r *http.Request) {
	uri, title, ok := s.decodeContentRequest(w, r)
	if !ok {
		return
	}

	if err := s.client.SetPlayContent(r.Context(), uri); err != nil {
		commandFailure(w, err)
		return
	}

	if title == "" {
		title = catalog.FriendlyInputName(uri)
	}
	s.reconciler.Override(title, uri)
	s.reconciler.RefreshSoon(switchRefreshDelay)
	writeJSON(w, http.StatusOK, commandResponse{Success: true})
}

// decodeContentRequest reads the shared {uri, title} body of the launch
// and switch routes. The uri is the device's opaque identifier and is
// passed through unmodified.
func (s *Server) decodeContentRequest(w http.ResponseWriter, r *http.Request) (uri, title string, ok bool) {
	var req struct {
		URI   string `json:"uri"`
		Title string `json:"title"`
	}
	if !decodeBody(w, r, &req) {
		return "", "", false
	}
	if req.URI == "" {
		badRequest(w, "uri is required")
		return "", "", false
	}
	return req.URI, req.Title, true
}

func (s *Server) handleInputs(w http.ResponseWriter, r *http.Request) {
	sources, err := s.client.SourceList(r.Context())
	if err != nil {
		commandFailure(w, err)
		return
	}
	if sources == nil {
		sources = []bravia.Source{}
	}
	writeJSON(w, http.StatusOK, struct {
		Success bool            `json:"success"`
		Inputs  []bravia.Source `json:"inputs"`
	}{true, sources})
}

type hdmiInput struct {
	URI         string `json:"uri"`
	Title       string `json:"title,omitempty"`
	Label       string `json:"label,omitempty"`
	DisplayName string `json:"displayName"`
	Connected   bool   `json:"connected"`
	Icon        string `json:"icon,omitempty"`
}

// handleHDMIInputs annotates the physical HDMI inputs with display
// metadata. Nothing is filtered on label or connection state; the UI
// decides what to show.
func (s *Server) handleHDMIInputs(w http.ResponseWriter, r *http.Request) {
	inputs, err := s.client.ExternalInputsStatus(r.Context())
	if err != nil {
		commandFailure(w, err)
		return
	}

	annotated := []hdmiInput{}
	for _, in := range inputs {
		if !strings.Contains(in.URI, "hdmi") {
			continue
		}

		display := in.Label
		if display == "" {
			display = in.Title
		}
		if display == "" {
			display = catalog.FriendlyInputName(in.URI)
		}

		annotated = append(annotated, hdmiInput{
			URI:         in.URI,
			Title:       in.Title,
			Label:       in.Label,
			DisplayName: display,
			Connected:   in.Connection,
			Icon:        catalog.DeviceIcon(in.Label),
		})
	}

	writeJSON(w, http.StatusOK, struct {
		Success bool        `json:"success"`
		Inputs  []hdmiInput `json:"inputs"`
	}{true, annotated})
}

// handleAppIcons maps the TV's installed applications to locally
// served icon paths. The installed list is stable, so the first
// successful result is cached; a later device failure serves the cache.
func (s *Server) handleAppIcons(w http.ResponseWriter, r *http.Request) {
	s.iconsMu.Lock()
	cached := s.iconsCache
	s.iconsMu.Unlock()

	apps, err := s.client.ApplicationList(r.Context())
	if err != nil {
		if cached == nil {
			commandFailure(w, err)
			return
		}
		s.logger.Debug("Serving cached app icons, device query failed", zap.Error(err))
		s.writeAppIcons(w, cached)
		return
	}

	icons := make(map[string]string)
	for _, app := range apps {
		key := app.URI
		if path := s.icons.Resolve(key); path != "" {
			icons[key] = path
			continue
		}
		if path := s.icons.Resolve(app.Title); path != "" {
			icons[key] = path
		}
	}

	s.iconsMu.Lock()
	s.iconsCache = icons
	s.iconsMu.Unlock()

	s.writeAppIcons(w, icons)
}

func (s *Server) writeAppIcons(w http.ResponseWriter, icons map[string]string) {
	writeJSON(w, http.StatusOK, struct {
		Success bool              `json:"success"`
		Icons   map[string]string `json:"icons"`
	}{true, icons})
}

func (s *Server) handleRemote(w http.ResponseWriter, r *http.Request) {
	var req struct {
		Command string `json:"command"`
	}
	if !decodeBody(w, r, &req) {
		return
	}
	if req.Command == "" {
		badRequest(w, "command is required")
		return
	}

	code, ok := bravia.RemoteCommands[req.Command]
	if !ok {
		writeJSON(w, http.StatusOK, commandResponse{
			Success: false,
			Error:   "unknown command " + strconv.Quote(req.Command),
		})
		return
	}

	if err := s.client.SendIRCC(r.Context(), code); err != nil {
		commandFailure(w, err)
		return
	}
	writeJSON(w, http.StatusOK, commandResponse{Success: true})
}

func (s *Server) handleHealth(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
}
