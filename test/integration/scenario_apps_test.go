package integration

import (
	"net/http"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// TestScenario_PresetApplicationCatalog validates that the app list
// comes from configuration, not from the device.
func TestScenario_PresetApplicationCatalog(t *testing.T) {
	env, cleanup := setupTest(t)
	defer cleanup()

	t.Log("GIVEN: A TV that is completely offline")
	env.TV.Stop()

	t.Log("WHEN: The browser requests the application shortcuts")
	code, resp := getJSON(t, env, "/api/applications")

	t.Log("THEN: The preset catalog is served regardless of the TV")
	require.Equal(t, http.StatusOK, code)
	assert.Equal(t, true, resp["success"])
	apps, ok := resp["applications"].([]any)
	require.True(t, ok)
	require.Len(t, apps, 2)
	first := apps[0].(map[string]any)
	assert.Equal(t, "Netflix", first["displayName"])
	assert.Equal(t, "com.sony.dtv.com.netflix.ninja", first["uri"])
}

// TestScenario_AppIconMapping validates that installed apps map to
// locally served icons, with identifier substring matching.
func TestScenario_AppIconMapping(t *testing.T) {
	env, cleanup := setupTest(t)
	defer cleanup()

	t.Log("GIVEN: An active TV reporting its installed apps")
	env.TV.SetPower("active")

	t.Log("WHEN: The browser requests the icon map")
	code, resp := getJSON(t, env, "/api/app-icons")

	t.Log("THEN: Known apps resolve to icon paths")
	require.Equal(t, http.StatusOK, code)
	icons, ok := resp["icons"].(map[string]any)
	require.True(t, ok)
	assert.Equal(t, "/icons/netflix.png", icons["com.sony.dtv.com.netflix.ninja"])
	assert.Equal(t, "/icons/youtube.png", icons["com.sony.dtv.com.google.android.youtube.tv"])

	t.Log("THEN: The map survives a device outage via the cache")
	env.TV.Stop()
	code, resp = getJSON(t, env, "/api/app-icons")
	require.Equal(t, http.StatusOK, code)
	assert.Equal(t, true, resp["success"])
}

// TestScenario_HDMIInputsAnnotated validates the annotated input
// listing: labels, display names, connection flags and device icons.
func TestScenario_HDMIInputsAnnotated(t *testing.T) {
	env, cleanup := setupTest(t)
	defer cleanup()

	t.Log("GIVEN: An active TV with labelled consoles on HDMI 1 and 2")
	env.TV.SetPower("active")

	t.Log("WHEN: The browser requests the HDMI input list")
	code, resp := getJSON(t, env, "/api/inputs/hdmi")

	t.Log("THEN: All HDMI inputs come back annotated, nothing filtered")
	require.Equal(t, http.StatusOK, code)
	inputs, ok := resp["inputs"].([]any)
	require.True(t, ok)
	require.Len(t, inputs, 3, "disconnected unlabelled inputs are the caller's problem, not the gateway's")

	ps5 := inputs[0].(map[string]any)
	assert.Equal(t, "PS5", ps5["displayName"])
	assert.Equal(t, true, ps5["connected"])
	assert.Equal(t, "/icons/ps5.png", ps5["icon"])

	bare := inputs[2].(map[string]any)
	assert.Equal(t, "HDMI 3", bare["displayName"])
	assert.Equal(t, false, bare["connected"])
}
