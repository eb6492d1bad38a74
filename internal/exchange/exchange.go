// Package exchange implements the Exchange: the fixed-layout shared
// memory region Supervisor and clients use as a wait-free control
// surface. See spec §3 and §4.1.
package exchange

import (
	"context"
	"encoding/binary"
	"errors"
	"fmt"
	"sync/atomic"
	"time"

	"github.com/avast/retry-go"
)

var (
	// ErrSharedMemory covers any failure creating, attaching to, or
	// recreating the Exchange. Fatal to the Supervisor.
	ErrSharedMemory = errors.New("exchange: shared memory error")
	// ErrNotReady is returned by Open when the liveness deadline elapses
	// before size and cycles both indicate a healthy Supervisor.
	ErrNotReady = errors.New("exchange: not ready")
)

type region interface {
	bytes() []byte
	close(removeBacking bool) error
}

// Handle is a process's attachment to the Exchange, either as owner
// (the Supervisor, who created it) or as a client (read-write, never
// destroying it).
type Handle struct {
	r     region
	owner bool
}

// Snapshot is an immutable, plain copy of the Exchange's fields, taken
// for logging and diffing without holding any lock across calls.
type Snapshot struct {
	Size            int32
	Cycles          int32
	ProcessID       uint32
	Status          int32
	LaunchProcessID int32
	Launch          int32
	Shutdown        int32
	Build           string
	DataDir         string
}

// Create allocates a new Exchange, permissive for all local users. On
// Unix a stale region of the same name is removed and recreated (retried
// once) before failing; on Windows an existing mapping of the same name
// is reused as is.
func Create() (*Handle, error) {
	r, err := createRegion()
	if err != nil {
		return nil, err
	}
	return &Handle{r: r, owner: true}, nil
}

// Open attaches to an existing Exchange read-write and polls until
// Size matches the expected layout size and Cycles has advanced past
// zero, or until deadline elapses.
func Open(ctx context.Context, deadline time.Duration) (*Handle, error) {
	r, err := openRegion()
	if err != nil {
		return nil, err
	}
	h := &Handle{r: r, owner: false}

	deadlineCtx, cancel := context.WithTimeout(ctx, deadline)
	defer cancel()

	err = retry.Do(
		func() error {
			if h.readSize() == Size && h.readCycles() != 0 {
				return nil
			}
			return fmt.Errorf("exchange not yet initialized")
		},
		retry.Context(deadlineCtx),
		retry.Delay(20*time.Millisecond),
		retry.DelayType(retry.FixedDelay),
		retry.Attempts(1<<20), // effectively unbounded; the context deadline governs
		retry.LastErrorOnly(true),
	)
	if err != nil {
		_ = r.close(false)
		return nil, fmt.Errorf("%w: %v", ErrNotReady, err)
	}
	return h, nil
}

// Close detaches from the Exchange. If this handle is the owner it
// also removes the backing object.
func (h *Handle) Close() error {
	return h.r.close(h.owner)
}

// InitIdentity writes the single-writer identity fields. Must only be
// called once, by the owner, before any client can observe Size ==
// expected.
func (h *Handle) InitIdentity(pid uint32, build, dataDir string) {
	buf := h.r.bytes()
	binary.LittleEndian.PutUint32(buf[offProcessID:], pid)

	var b [buildLen]byte
	copy(b[:], build)
	copy(buf[offBuild:offBuild+buildLen], b[:])

	var d [dataDirLen]byte
	copy(d[:], dataDir)
	copy(buf[offDataDir:offDataDir+dataDirLen], d[:])

	// size is written last: it is the readiness fence every client
	// polls on, so every other identity field must already be visible.
	binary.LittleEndian.PutUint32(buf[offSize:], uint32(Size))
}

func (h *Handle) readSize() int32 {
	return int32(binary.LittleEndian.Uint32(h.r.bytes()[offSize:]))
}

func (h *Handle) readCycles() int32 {
	return int32(binary.LittleEndian.Uint32(h.r.bytes()[offCycles:]))
}

// IncrementCycles bumps the heartbeat. Owner-only, ordinary (non-atomic)
// word per spec §5 — clients use it only as a liveness hint.
func (h *Handle) IncrementCycles() int32 {
	buf := h.r.bytes()
	v := int32(binary.LittleEndian.Uint32(buf[offCycles:])) + 1
	binary.LittleEndian.PutUint32(buf[offCycles:], uint32(v))
	return v
}

func (h *Handle) atomic32(off int) *int32 {
	return (*int32)(bytePtr(h.r.bytes(), off))
}

// SwapLaunch atomically swaps the launch word to zero and returns the
// value observed before the swap. The Control Loop does not use it: it
// reads the word from a Snapshot and clears the handled bits with
// ClearLaunchBits.
func (h *Handle) SwapLaunch() int32 {
	return atomic.SwapInt32(h.atomic32(offLaunch), 0)
}

// ClearLaunchBits atomically clears the given bits of the launch word
// (fetch-and-and with the complement), e.g. clearing LaunchFlagKillFirst
// or LaunchMask without disturbing a racing client's newer write to the
// other bits.
func (h *Handle) ClearLaunchBits(bits int32) {
	p := h.atomic32(offLaunch)
	for {
		old := atomic.LoadInt32(p)
		next := old &^ bits
		if next == old || atomic.CompareAndSwapInt32(p, old, next) {
			return
		}
	}
}

// LoadLaunch reads the current launch word.
func (h *Handle) LoadLaunch() int32 { return atomic.LoadInt32(h.atomic32(offLaunch)) }

// StoreStatus atomically stores v into the status field.
func (h *Handle) StoreStatus(v int32) { atomic.StoreInt32(h.atomic32(offStatus), v) }

// LoadStatus atomically reads the status field.
func (h *Handle) LoadStatus() int32 { return atomic.LoadInt32(h.atomic32(offStatus)) }

// LoadLaunchProcessID atomically reads the source PID of the most
// recent launch command.
func (h *Handle) LoadLaunchProcessID() int32 { return atomic.LoadInt32(h.atomic32(offLaunchProcessID)) }

// StoreLaunchProcessID atomically writes the source PID, used by
// clients issuing a command.
func (h *Handle) StoreLaunchProcessID(pid int32) {
	atomic.StoreInt32(h.atomic32(offLaunchProcessID), pid)
}

// StoreLaunch atomically writes a launch word, used by clients issuing
// a command. Commands race; the last write wins, by design (spec §5).
func (h *Handle) StoreLaunch(v int32) { atomic.StoreInt32(h.atomic32(offLaunch), v) }

// SetShutdown atomically sets the shutdown flag to 1, notifying
// backends to exit.
func (h *Handle) SetShutdown() { atomic.StoreInt32(h.atomic32(offShutdown), 1) }

// LoadShutdown atomically reads the shutdown flag.
func (h *Handle) LoadShutdown() int32 { return atomic.LoadInt32(h.atomic32(offShutdown)) }

// Snapshot takes a point-in-time copy of every field, for diff logging
// and testing. Non-atomic fields are read without synchronization,
// matching the happens-before guarantee established by Size/Cycles.
func (h *Handle) Snapshot() Snapshot {
	buf := h.r.bytes()
	return Snapshot{
		Size:            h.readSize(),
		Cycles:          h.readCycles(),
		ProcessID:       binary.LittleEndian.Uint32(buf[offProcessID:]),
		Status:          h.LoadStatus(),
		LaunchProcessID: h.LoadLaunchProcessID(),
		Launch:          h.LoadLaunch(),
		Shutdown:        h.LoadShutdown(),
		Build:           trimNul(buf[offBuild : offBuild+buildLen]),
		DataDir:         trimNul(buf[offDataDir : offDataDir+dataDirLen]),
	}
}

func trimNul(b []byte) string {
	for i, c := range b {
		if c == 0 {
			return string(b[:i])
		}
	}
	return string(b)
}
