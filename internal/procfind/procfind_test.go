package procfind

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestIsTargetCaseInsensitive(t *testing.T) {
	assert.True(t, IsTarget("Sighthound-Agent"))
	assert.True(t, IsTarget("SIGHTHOUND-VIDEO"))
	assert.False(t, IsTarget("launchsupervisor"))
	assert.False(t, IsTarget(""))
}
