package integration

import (
	"net/http"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// TestScenario_PowerOnWakesSleepingTV validates that power-on succeeds
// on the strength of the wake signal alone, even when the TV's control
// endpoint is unreachable.
func TestScenario_PowerOnWakesSleepingTV(t *testing.T) {
	env, cleanup := setupTest(t)
	defer cleanup()

	t.Log("GIVEN: A TV in deep standby, unreachable over the network")
	env.TV.Stop()

	t.Log("WHEN: The browser requests power on")
	code, resp := postJSON(t, env, "/api/power", map[string]string{"action": "on"})

	t.Log("THEN: The wake signal was sent and the request succeeded")
	require.Equal(t, http.StatusOK, code)
	assert.Equal(t, true, resp["success"],
		"transmitting the wake signal is success; the TV powers on later")
	assert.Equal(t, 1, env.Waker.Count())
}

// TestScenario_PowerOffPutsTVInStandby validates the power-off path
// through the device protocol.
func TestScenario_PowerOffPutsTVInStandby(t *testing.T) {
	env, cleanup := setupTest(t)
	defer cleanup()

	t.Log("GIVEN: An active TV")
	env.TV.SetPower("active")

	t.Log("WHEN: The browser requests power off")
	code, resp := postJSON(t, env, "/api/power", map[string]string{"action": "off"})

	t.Log("THEN: The TV is in standby and no wake signal was sent")
	require.Equal(t, http.StatusOK, code)
	assert.Equal(t, true, resp["success"])
	assert.Equal(t, "standby", env.TV.Power())
	assert.Equal(t, 0, env.Waker.Count())
}

// TestScenario_AuthRejectedIsCommandError validates that a wrong
// pre-shared key surfaces as a command failure, not a crash or an
// HTTP server error.
func TestScenario_AuthRejectedIsCommandError(t *testing.T) {
	env, cleanup := setupTest(t)
	defer cleanup()

	t.Log("GIVEN: An active TV whose key no longer matches the gateway's")
	env.TV.SetPower("active")
	env.TV.SetPSK("rotated_on_the_tv")

	t.Log("WHEN: A command goes out with the stale credential")
	code, resp := postJSON(t, env, "/api/power", map[string]string{"action": "off"})

	t.Log("THEN: The command fails with success false")
	require.Equal(t, http.StatusOK, code)
	assert.Equal(t, false, resp["success"])
	assert.NotEmpty(t, resp["error"])
}
