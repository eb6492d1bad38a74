package exchange

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// memRegion is an in-memory region backend used only by tests, so the
// Exchange's field semantics can be exercised without real shared
// memory.
type memRegion struct {
	buf []byte
}

func newMemRegion() *memRegion { return &memRegion{buf: make([]byte, Size)} }

func (m *memRegion) bytes() []byte           { return m.buf }
func (m *memRegion) close(bool) error        { return nil }

func newTestHandle(t *testing.T) *Handle {
	t.Helper()
	return &Handle{r: newMemRegion(), owner: true}
}

func TestInitIdentityIsReadinessFence(t *testing.T) {
	h := newTestHandle(t)
	require.Equal(t, int32(0), h.readSize(), "size must read zero before InitIdentity")

	h.InitIdentity(4242, "r00042", "/data/launchsupervisor")
	assert.Equal(t, int32(Size), h.readSize())

	snap := h.Snapshot()
	assert.EqualValues(t, 4242, snap.ProcessID)
	assert.Equal(t, "r00042", snap.Build)
	assert.Equal(t, "/data/launchsupervisor", snap.DataDir)
}

func TestSwapLaunchConsumesAndZeroes(t *testing.T) {
	h := newTestHandle(t)
	h.StoreLaunch(0x0001)

	got := h.SwapLaunch()
	assert.EqualValues(t, 0x0001, got)
	assert.EqualValues(t, 0, h.LoadLaunch())
}

func TestClearLaunchBitsLeavesOtherBitsAlone(t *testing.T) {
	h := newTestHandle(t)
	h.StoreLaunch(LaunchFlagKillFirst | 0x0007)

	h.ClearLaunchBits(LaunchFlagKillFirst)

	assert.EqualValues(t, 0x0007, h.LoadLaunch())
}

func TestClearLaunchBitsDoesNotClobberConcurrentWrite(t *testing.T) {
	h := newTestHandle(t)
	h.StoreLaunch(LaunchFlagKillFirst)

	// A racing client's brand new command (kill-first plus code 2) lands
	// before the clear runs: ClearLaunchBits must drop only the kill-first
	// bit and keep the new launch code. The writes here are sequential;
	// the CAS loop's retry path itself is not interleaved.
	h.StoreLaunch(0x10002)
	h.ClearLaunchBits(LaunchFlagKillFirst)

	assert.EqualValues(t, 0x0002, h.LoadLaunch())
}

func TestLaunchProcessIDRoundTrip(t *testing.T) {
	h := newTestHandle(t)
	h.StoreLaunchProcessID(9001)
	assert.EqualValues(t, 9001, h.LoadLaunchProcessID())
}

func TestShutdownLatch(t *testing.T) {
	h := newTestHandle(t)
	assert.EqualValues(t, 0, h.LoadShutdown())
	h.SetShutdown()
	assert.EqualValues(t, 1, h.LoadShutdown())
}

func TestIncrementCyclesMonotonic(t *testing.T) {
	h := newTestHandle(t)
	var last int32
	for i := 0; i < 100; i++ {
		v := h.IncrementCycles()
		assert.Greater(t, v, last)
		last = v
	}
}

func TestTrimNul(t *testing.T) {
	assert.Equal(t, "abc", trimNul([]byte{'a', 'b', 'c', 0, 0, 0}))
	assert.Equal(t, "abc", trimNul([]byte{'a', 'b', 'c'}))
}
