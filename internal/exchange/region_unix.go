//go:build !windows

package exchange

import (
	"fmt"
	"hash/fnv"

	"golang.org/x/sys/unix"
)

// exchangeName is the compile-time token clients use to find the
// Exchange, mirrored from shlaunch.h's EXCHANGE_NAME. SysV shared
// memory is keyed by an integer, so the name is folded into one with
// FNV-1a rather than a human path, avoiding any chance of collision
// with an unrelated product's key.
const exchangeName = "fed45fe4e41b7695"

func shmKey(name string) int {
	h := fnv.New32a()
	_, _ = h.Write([]byte(name))
	return int(h.Sum32() & 0x7fffffff)
}

type unixRegion struct {
	id  int
	buf []byte
}

func (r *unixRegion) bytes() []byte { return r.buf }

func (r *unixRegion) close(removeBacking bool) error {
	var detachErr error
	if r.buf != nil {
		detachErr = unix.SysvShmDetach(r.buf)
		r.buf = nil
	}
	if removeBacking {
		if _, err := unix.SysvShmCtl(r.id, unix.IPC_RMID, nil); err != nil {
			return fmt.Errorf("%w: shmctl(IPC_RMID): %v", ErrSharedMemory, err)
		}
	}
	return detachErr
}

// createRegion allocates a fresh SysV shared memory segment sized to
// Size, permissive for all local users (mode 0666, matching the
// product's original shmget call). If a stale segment with the same
// key exists it is removed and recreated once before failing.
func createRegion() (*unixRegion, error) {
	key := shmKey(exchangeName)

	id, err := unix.SysvShmGet(key, Size, unix.IPC_CREAT|unix.IPC_EXCL|0666)
	if err != nil {
		// A stale segment from a prior, uncleanly terminated Supervisor.
		// Look up its id just long enough to remove it, then retry once.
		if staleID, getErr := unix.SysvShmGet(key, 0, 0666); getErr == nil {
			_, _ = unix.SysvShmCtl(staleID, unix.IPC_RMID, nil)
		}
		id, err = unix.SysvShmGet(key, Size, unix.IPC_CREAT|unix.IPC_EXCL|0666)
		if err != nil {
			return nil, fmt.Errorf("%w: shmget: %v", ErrSharedMemory, err)
		}
	}

	buf, err := unix.SysvShmAttach(id, 0, 0)
	if err != nil {
		return nil, fmt.Errorf("%w: shmat: %v", ErrSharedMemory, err)
	}
	return &unixRegion{id: id, buf: buf}, nil
}

func openRegion() (*unixRegion, error) {
	key := shmKey(exchangeName)
	id, err := unix.SysvShmGet(key, 0, 0666)
	if err != nil {
		return nil, fmt.Errorf("%w: shmget: %v", ErrNotReady, err)
	}
	buf, err := unix.SysvShmAttach(id, 0, 0)
	if err != nil {
		return nil, fmt.Errorf("%w: shmat: %v", ErrNotReady, err)
	}
	return &unixRegion{id: id, buf: buf}, nil
}
