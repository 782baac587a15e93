package api

import (
	"bytes"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"go.uber.org/zap"

	"tvremote/internal/bravia"
	"tvremote/internal/catalog"
	"tvremote/internal/clock"
	"tvremote/internal/config"
	"tvremote/internal/reconciler"
)

type fakeWaker struct {
	calls int
	err   error
}

func (f *fakeWaker) Wake() error {
	f.calls++
	return f.err
}

type testFixture struct {
	server *Server
	client *bravia.MockClient
	waker  *fakeWaker
	clk    *clock.MockClock
}

func newTestServer(t *testing.T) *testFixture {
	t.Helper()

	logger := zap.NewNop()
	client := bravia.NewMockClient()
	clk := clock.NewMockClock(time.Date(2024, 1, 15, 12, 0, 0, 0, time.UTC))
	waker := &fakeWaker{}
	manager := reconciler.NewManager(client, clk, logger, 10*time.Second)

	srv := NewServer(Options{
		Client:     client,
		Waker:      waker,
		Reconciler: manager,
		Icons:      catalog.NewIconIndex(),
		Applications: []config.Application{
			{DisplayName: "Netflix", URI: "com.sony.dtv.com.netflix.ninja", Icon: "/icons/netflix.png"},
		},
		Port:   0,
		Logger: logger,
	})

	return &testFixture{server: srv, client: client, waker: waker, clk: clk}
}

func (f *testFixture) get(t *testing.T, path string) *httptest.ResponseRecorder {
	t.Helper()
	req := httptest.NewRequest(http.MethodGet, path, nil)
	w := httptest.NewRecorder()
	f.server.Handler().ServeHTTP(w, req)
	return w
}

func (f *testFixture) post(t *testing.T, path string, body any) *httptest.ResponseRecorder {
	t.Helper()
	data, err := json.Marshal(body)
	if err != nil {
		t.Fatalf("Failed to marshal body: %v", err)
	}
	req := httptest.NewRequest(http.MethodPost, path, bytes.NewReader(data))
	req.Header.Set("Content-Type", "application/json")
	w := httptest.NewRecorder()
	f.server.Handler().ServeHTTP(w, req)
	return w
}

func decode(t *testing.T, w *httptest.ResponseRecorder) map[string]any {
	t.Helper()
	var m map[string]any
	if err := json.Unmarshal(w.Body.Bytes(), &m); err != nil {
		t.Fatalf("Failed to decode response %q: %v", w.Body.String(), err)
	}
	return m
}

func TestStatusActiveTV(t *testing.T) {
	f := newTestServer(t)
	f.client.SetPowerState(bravia.PowerActive)
	f.client.SetVolumeState(37, false)
	f.client.SetPlayingContent("Netflix", "com.sony.dtv.netflix", "app")

	w := f.get(t, "/api/status")

	if w.Code != http.StatusOK {
		t.Fatalf("Expected 200, got %d", w.Code)
	}
	resp := decode(t, w)
	if resp["success"] != true {
		t.Error("Expected success true")
	}
	if resp["power"] != "active" {
		t.Errorf("Expected power active, got %v", resp["power"])
	}
	if resp["volume"] != float64(37) {
		t.Errorf("Expected volume 37, got %v", resp["volume"])
	}
	if resp["title"] != "Netflix" {
		t.Errorf("Expected title Netflix, got %v", resp["title"])
	}
}

func TestStatusUnreachableIsOffline(t *testing.T) {
	f := newTestServer(t)
	f.client.SetUnreachable(true)

	w := f.get(t, "/api/status")

	if w.Code != http.StatusOK {
		t.Fatalf("Expected 200 for unreachable TV, got %d", w.Code)
	}
	resp := decode(t, w)
	if resp["success"] != true {
		t.Error("Expected success true: offline is a status, not an error")
	}
	if resp["power"] != "offline" {
		t.Errorf("Expected power offline, got %v", resp["power"])
	}
	if resp["volume"] != float64(0) {
		t.Errorf("Expected volume 0 when offline, got %v", resp["volume"])
	}
}

func TestStatusStandbySkipsDependentFields(t *testing.T) {
	f := newTestServer(t)
	f.client.SetPowerState(bravia.PowerStandby)
	f.client.SetVolumeState(42, true)

	w := f.get(t, "/api/status")

	resp := decode(t, w)
	if resp["power"] != "standby" {
		t.Errorf("Expected power standby, got %v", resp["power"])
	}
	if resp["volume"] != float64(0) || resp["muted"] != false {
		t.Errorf("Expected sentinel volume/muted in standby, got %v/%v",
			resp["volume"], resp["muted"])
	}
	if len(f.client.CallsTo("VolumeInformation")) != 0 {
		t.Error("Expected no volume query while in standby")
	}
}

func TestPowerOnSendsWakeSignal(t *testing.T) {
	f := newTestServer(t)
	f.client.SetUnreachable(true) // TV in deep standby

	w := f.post(t, "/api/power", map[string]string{"action": "on"})

	resp := decode(t, w)
	if resp["success"] != true {
		t.Error("Expected success when wake signal transmitted, even with TV unreachable")
	}
	if f.waker.calls != 1 {
		t.Errorf("Expected 1 wake signal, got %d", f.waker.calls)
	}
}

func TestPowerOffUsesStandby(t *testing.T) {
	f := newTestServer(t)
	f.client.SetPowerState(bravia.PowerActive)

	w := f.post(t, "/api/power", map[string]string{"action": "off"})

	resp := decode(t, w)
	if resp["success"] != true {
		t.Errorf("Expected success, got %v", resp)
	}
	if f.waker.calls != 0 {
		t.Error("Expected no wake signal for power off")
	}
	if len(f.client.CallsTo("SetPowerStatus")) != 1 {
		t.Error("Expected one setPowerStatus call")
	}
}

func TestPowerRejectsUnknownAction(t *testing.T) {
	f := newTestServer(t)

	w := f.post(t, "/api/power", map[string]string{"action": "toggle"})

	if w.Code != http.StatusBadRequest {
		t.Errorf("Expected 400 for unknown action, got %d", w.Code)
	}
}

func TestVolumeSetOutOfRangeNoDeviceCall(t *testing.T) {
	f := newTestServer(t)
	f.client.SetPowerState(bravia.PowerActive)

	w := f.post(t, "/api/volume", map[string]any{"action": "set", "volume": 150})

	if w.Code != http.StatusOK {
		t.Fatalf("Expected 200 with success:false, got %d", w.Code)
	}
	resp := decode(t, w)
	if resp["success"] != false {
		t.Error("Expected success false for volume 150")
	}
	if resp["error"] == nil || resp["error"] == "" {
		t.Error("Expected an error message")
	}
	if len(f.client.Calls()) != 0 {
		t.Errorf("Expected zero device calls, got %v", f.client.Calls())
	}
}

func TestVolumeSetForwardsValue(t *testing.T) {
	f := newTestServer(t)
	f.client.SetPowerState(bravia.PowerActive)

	w := f.post(t, "/api/volume", map[string]any{"action": "set", "volume": 65})

	resp := decode(t, w)
	if resp["success"] != true {
		t.Errorf("Expected success, got %v", resp)
	}
	if resp["volume"] != float64(65) {
		t.Errorf("Expected echoed volume 65, got %v", resp["volume"])
	}
	calls := f.client.CallsTo("SetVolume")
	if len(calls) != 1 || calls[0].Arg != "65" {
		t.Errorf("Expected SetVolume with \"65\", got %v", calls)
	}
}

func TestVolumeSetMissingValue(t *testing.T) {
	f := newTestServer(t)

	w := f.post(t, "/api/volume", map[string]any{"action": "set"})

	if w.Code != http.StatusBadRequest {
		t.Errorf("Expected 400 for set without volume, got %d", w.Code)
	}
}

func TestVolumeUpDownRelative(t *testing.T) {
	f := newTestServer(t)
	f.client.SetPowerState(bravia.PowerActive)

	f.post(t, "/api/volume", map[string]string{"action": "up"})
	f.post(t, "/api/volume", map[string]string{"action": "down"})

	calls := f.client.CallsTo("SetVolume")
	if len(calls) != 2 || calls[0].Arg != "+5" || calls[1].Arg != "-5" {
		t.Errorf("Expected +5 then -5, got %v", calls)
	}
}

func TestMuteIdempotent(t *testing.T) {
	f := newTestServer(t)
	f.client.SetPowerState(bravia.PowerActive)

	for i := 0; i < 2; i++ {
		w := f.post(t, "/api/volume", map[string]string{"action": "mute"})
		resp := decode(t, w)
		if resp["success"] != true {
			t.Fatalf("Expected success on mute call %d, got %v", i+1, resp)
		}
		if resp["muted"] != true {
			t.Errorf("Expected muted true after call %d", i+1)
		}
	}
}

func TestChannelFallsBackToOverride(t *testing.T) {
	f := newTestServer(t)
	f.client.SetPowerState(bravia.PowerActive)
	f.client.SetPlayingContent("", "", "")
	f.server.reconciler.Override("PS5", "extInput:hdmi?port=2")

	w := f.get(t, "/api/channel")

	resp := decode(t, w)
	if resp["title"] != "PS5" {
		t.Errorf("Expected override title PS5, got %v", resp["title"])
	}
	if resp["uri"] != "extInput:hdmi?port=2" {
		t.Errorf("Expected override uri, got %v", resp["uri"])
	}
}

func TestChannelUnknownWithoutData(t *testing.T) {
	f := newTestServer(t)
	f.client.SetUnreachable(true)

	w := f.get(t, "/api/channel")

	resp := decode(t, w)
	if resp["title"] != "Unknown" {
		t.Errorf("Expected Unknown, got %v", resp["title"])
	}
}

func TestApplicationsServesPresetCatalog(t *testing.T) {
	f := newTestServer(t)

	w := f.get(t, "/api/applications")

	resp := decode(t, w)
	apps, ok := resp["applications"].([]any)
	if !ok || len(apps) != 1 {
		t.Fatalf("Expected 1 preset application, got %v", resp["applications"])
	}
	first := apps[0].(map[string]any)
	if first["displayName"] != "Netflix" {
		t.Errorf("Expected Netflix, got %v", first["displayName"])
	}
	if len(f.client.Calls()) != 0 {
		t.Error("Expected no device calls for the preset catalog")
	}
}

func TestLaunchPassesURIThroughAndOverrides(t *testing.T) {
	f := newTestServer(t)
	f.client.SetPowerState(bravia.PowerActive)
	f.client.SetApplications([]bravia.AppInfo{
		{Title: "Netflix", URI: "com.sony.dtv.com.netflix.ninja"},
	})

	w := f.post(t, "/api/applications/launch", map[string]string{
		"uri":   "com.sony.dtv.com.netflix.ninja",
		"title": "Netflix",
	})

	resp := decode(t, w)
	if resp["success"] != true {
		t.Fatalf("Expected success, got %v", resp)
	}
	calls := f.client.CallsTo("SetActiveApp")
	if len(calls) != 1 || calls[0].Arg != "com.sony.dtv.com.netflix.ninja" {
		t.Errorf("Expected uri passed through unmodified, got %v", calls)
	}
	snap := f.server.reconciler.Snapshot()
	if snap.Title != "Netflix" {
		t.Errorf("Expected snapshot override Netflix, got %q", snap.Title)
	}
}

func TestLaunchUnknownAppFails(t *testing.T) {
	f := newTestServer(t)
	f.client.SetPowerState(bravia.PowerActive)

	w := f.post(t, "/api/applications/launch", map[string]string{"uri": "bogus.app"})

	if w.Code != http.StatusOK {
		t.Fatalf("Expected 200 with success:false, got %d", w.Code)
	}
	resp := decode(t, w)
	if resp["success"] != false {
		t.Error("Expected success false for unknown app uri")
	}
}

func TestSwitchInputOverridesSnapshot(t *testing.T) {
	f := newTestServer(t)
	f.client.SetPowerState(bravia.PowerActive)

	w := f.post(t, "/api/inputs/switch", map[string]string{
		"uri": "extInput:hdmi?port=1",
	})

	resp := decode(t, w)
	if resp["success"] != true {
		t.Fatalf("Expected success, got %v", resp)
	}
	snap := f.server.reconciler.Snapshot()
	if snap.Title != "HDMI 1" {
		t.Errorf("Expected derived title HDMI 1, got %q", snap.Title)
	}
	if snap.URI != "extInput:hdmi?port=1" {
		t.Errorf("Expected override uri, got %q", snap.URI)
	}
}

func TestSwitchRequiresURI(t *testing.T) {
	f := newTestServer(t)

	w := f.post(t, "/api/inputs/switch", map[string]string{"title": "PS5"})

	if w.Code != http.StatusBadRequest {
		t.Errorf("Expected 400 for missing uri, got %d", w.Code)
	}
}

func TestHDMIInputsAnnotated(t *testing.T) {
	f := newTestServer(t)
	f.client.SetPowerState(bravia.PowerActive)
	f.client.SetExternalInputs([]bravia.ExternalInput{
		{URI: "extInput:hdmi?port=1", Title: "HDMI 1", Label: "PS5", Connection: true},
		{URI: "extInput:hdmi?port=2", Title: "HDMI 2", Connection: false},
		{URI: "extInput:composite?port=1", Title: "AV"},
	})

	w := f.get(t, "/api/inputs/hdmi")

	resp := decode(t, w)
	inputs, ok := resp["inputs"].([]any)
	if !ok || len(inputs) != 2 {
		t.Fatalf("Expected 2 hdmi inputs, got %v", resp["inputs"])
	}

	first := inputs[0].(map[string]any)
	if first["displayName"] != "PS5" {
		t.Errorf("Expected label as display name, got %v", first["displayName"])
	}
	if first["connected"] != true {
		t.Error("Expected connected true")
	}
	if first["icon"] != "/icons/ps5.png" {
		t.Errorf("Expected ps5 icon, got %v", first["icon"])
	}

	second := inputs[1].(map[string]any)
	if second["displayName"] != "HDMI 2" {
		t.Errorf("Expected title fallback for unlabelled input, got %v", second["displayName"])
	}
}

func TestAppIconsResolvedAndCached(t *testing.T) {
	f := newTestServer(t)
	f.client.SetPowerState(bravia.PowerActive)
	f.client.SetApplications([]bravia.AppInfo{
		{Title: "Netflix", URI: "com.sony.dtv.com.netflix.ninja"},
		{Title: "Obscure", URI: "com.example.obscure"},
	})

	w := f.get(t, "/api/app-icons")
	resp := decode(t, w)
	icons, ok := resp["icons"].(map[string]any)
	if !ok {
		t.Fatalf("Expected icons map, got %v", resp["icons"])
	}
	if icons["com.sony.dtv.com.netflix.ninja"] != "/icons/netflix.png" {
		t.Errorf("Expected netflix icon, got %v", icons)
	}
	if _, present := icons["com.example.obscure"]; present {
		t.Error("Expected no entry for app without a catalog icon")
	}

	// Cache survives a device outage
	f.client.SetUnreachable(true)
	w = f.get(t, "/api/app-icons")
	resp = decode(t, w)
	if resp["success"] != true {
		t.Error("Expected cached icons while TV unreachable")
	}
}

func TestRemoteCommandDispatch(t *testing.T) {
	f := newTestServer(t)
	f.client.SetPowerState(bravia.PowerActive)

	w := f.post(t, "/api/remote", map[string]string{"command": "VolumeUp"})

	resp := decode(t, w)
	if resp["success"] != true {
		t.Fatalf("Expected success, got %v", resp)
	}
	calls := f.client.CallsTo("SendIRCC")
	if len(calls) != 1 || calls[0].Arg != string(bravia.CodeVolumeUp) {
		t.Errorf("Expected VolumeUp IRCC code, got %v", calls)
	}
}

func TestRemoteUnknownCommand(t *testing.T) {
	f := newTestServer(t)

	w := f.post(t, "/api/remote", map[string]string{"command": "SelfDestruct"})

	if w.Code != http.StatusOK {
		t.Fatalf("Expected 200 with success:false, got %d", w.Code)
	}
	resp := decode(t, w)
	if resp["success"] != false {
		t.Error("Expected success false for unknown command")
	}
	if len(f.client.Calls()) != 0 {
		t.Error("Expected no device call for unknown command")
	}
}

func TestTextForwarded(t *testing.T) {
	f := newTestServer(t)
	f.client.SetPowerState(bravia.PowerActive)

	w := f.post(t, "/api/text", map[string]string{"text": "search query"})

	resp := decode(t, w)
	if resp["success"] != true {
		t.Fatalf("Expected success, got %v", resp)
	}
	calls := f.client.CallsTo("SendText")
	if len(calls) != 1 || calls[0].Arg != "search query" {
		t.Errorf("Expected text passed through, got %v", calls)
	}
}

func TestHealth(t *testing.T) {
	f := newTestServer(t)

	w := f.get(t, "/health")

	if w.Code != http.StatusOK {
		t.Errorf("Expected 200, got %d", w.Code)
	}
	resp := decode(t, w)
	if resp["status"] != "ok" {
		t.Errorf("Expected ok, got %v", resp["status"])
	}
}
