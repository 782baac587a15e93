package integration

import (
	"bytes"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/require"

	"tvremote/internal/config"
	"tvremote/pkg/testutil"
)

const testPSK = "test_psk_12345"

var testApps = []config.Application{
	{DisplayName: "Netflix", URI: "com.sony.dtv.com.netflix.ninja", Icon: "/icons/netflix.png"},
	{DisplayName: "YouTube", URI: "com.sony.dtv.com.google.android.youtube.tv", Icon: "/icons/youtube.png"},
}

func setupTest(t *testing.T) (*testutil.TestEnv, func()) {
	t.Helper()

	env := testutil.NewTestEnv(testPSK, testApps)

	// A realistic living-room TV: two consoles, two streaming apps
	env.TV.SetApps([]testutil.AppState{
		{Title: "Netflix", URI: "com.sony.dtv.com.netflix.ninja"},
		{Title: "YouTube", URI: "com.sony.dtv.com.google.android.youtube.tv"},
	})
	env.TV.SetInputs([]testutil.InputState{
		{URI: "extInput:hdmi?port=1", Title: "HDMI 1", Label: "PS5", Connection: true},
		{URI: "extInput:hdmi?port=2", Title: "HDMI 2", Label: "Switch", Connection: true},
		{URI: "extInput:hdmi?port=3", Title: "HDMI 3", Connection: false},
	})
	env.TV.SetSources([]string{"extInput:hdmi", "tv:dvbt"})

	return env, env.Cleanup
}

func getJSON(t *testing.T, env *testutil.TestEnv, path string) (int, map[string]any) {
	t.Helper()
	req := httptest.NewRequest(http.MethodGet, path, nil)
	w := httptest.NewRecorder()
	env.Handler.ServeHTTP(w, req)
	return w.Code, decodeJSON(t, w)
}

func postJSON(t *testing.T, env *testutil.TestEnv, path string, body any) (int, map[string]any) {
	t.Helper()
	data, err := json.Marshal(body)
	require.NoError(t, err)
	req := httptest.NewRequest(http.MethodPost, path, bytes.NewReader(data))
	req.Header.Set("Content-Type", "application/json")
	w := httptest.NewRecorder()
	env.Handler.ServeHTTP(w, req)
	return w.Code, decodeJSON(t, w)
}

func decodeJSON(t *testing.T, w *httptest.ResponseRecorder) map[string]any {
	t.Helper()
	var m map[string]any
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &m),
		"response should be JSON, got %q", w.Body.String())
	return m
}
