package launcher

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestBuildEnvOverridesHome(t *testing.T) {
	t.Setenv("HOME", "/home/original")
	t.Setenv("LAUNCHSUPERVISOR_TEST_MARKER", "present")

	env := buildEnv("")

	var sawHome, sawMarker bool
	for _, kv := range env {
		if kv == "LAUNCHSUPERVISOR_TEST_MARKER=present" {
			sawMarker = true
		}
		if strings.HasPrefix(kv, "HOME=") {
			sawHome = true
		}
	}
	assert.True(t, sawMarker, "non-HOME env vars must be preserved")
	assert.True(t, sawHome, "HOME must be present exactly once")

	homeCount := 0
	for _, kv := range env {
		if strings.HasPrefix(kv, "HOME=") {
			homeCount++
		}
	}
	assert.Equal(t, 1, homeCount)
}

func TestLaunchBackendRequiresPath(t *testing.T) {
	_, err := LaunchBackend(Config{})
	assert.Error(t, err)
}

func TestResolveHomeUnknownUser(t *testing.T) {
	_, err := resolveHome("no-such-user-launchsupervisor-test")
	assert.Error(t, err)
}
