//go:build windows

package exchange

import (
	"fmt"
	"unsafe"

	"golang.org/x/sys/windows"
)

// exchangeName matches EXCHANGE_NAME from shlaunch.h: a "Global\\" kernel
// object name so it's visible to sessions other than the service's own,
// since clients run as ordinary logged-in users.
const exchangeName = `Global\fed45fe4e41b7695`

// permissiveSDDL grants read/write to any local, authenticated user and
// denies anonymous and guest logons, per spec §4.1's ACL requirement.
const permissiveSDDL = "D:(D;;GA;;;AN)(D;;GA;;;BG)(A;;GRGW;;;AU)(A;;GRGW;;;BA)"

type windowsRegion struct {
	handle windows.Handle
	buf    []byte
}

func (r *windowsRegion) bytes() []byte { return r.buf }

func (r *windowsRegion) close(removeBacking bool) error {
	var err error
	if r.buf != nil {
		err = windows.UnmapViewOfFile(uintptr(unsafe.Pointer(&r.buf[0])))
		r.buf = nil
	}
	// Named kernel objects on Windows are reference counted: the mapping
	// disappears once every handle everywhere is closed. There is no
	// forced-removal equivalent of SysV's IPC_RMID, so "removeBacking"
	// just means closing our own handle promptly.
	if r.handle != 0 {
		closeErr := windows.CloseHandle(r.handle)
		r.handle = 0
		if err == nil {
			err = closeErr
		}
	}
	_ = removeBacking
	return err
}

func securityAttributes() (*windows.SecurityAttributes, error) {
	sd, err := windows.SecurityDescriptorFromString(permissiveSDDL)
	if err != nil {
		return nil, fmt.Errorf("%w: build security descriptor: %v", ErrSharedMemory, err)
	}
	sa := &windows.SecurityAttributes{
		Length:             uint32(unsafe.Sizeof(windows.SecurityAttributes{})),
		SecurityDescriptor: sd,
		InheritHandle:      0,
	}
	return sa, nil
}

// createRegion allocates a fresh named file mapping sized to Size, with
// a permissive security descriptor so unprivileged clients can attach.
// Unlike the SysV path there is no "remove stale, retry" dance: a
// leaked handle from a crashed prior Supervisor means the kernel object
// outlives it, and CreateFileMapping simply hands back a mapping to the
// same object (ERROR_ALREADY_EXISTS), which is harmless here since the
// new Supervisor immediately overwrites the identity fields.
func createRegion() (*windowsRegion, error) {
	namePtr, err := windows.UTF16PtrFromString(exchangeName)
	if err != nil {
		return nil, fmt.Errorf("%w: encode name: %v", ErrSharedMemory, err)
	}
	sa, err := securityAttributes()
	if err != nil {
		return nil, err
	}
	h, err := windows.CreateFileMapping(windows.InvalidHandle, sa, windows.PAGE_READWRITE, 0, uint32(Size), namePtr)
	if err != nil {
		return nil, fmt.Errorf("%w: CreateFileMapping: %v", ErrSharedMemory, err)
	}
	buf, err := mapView(h)
	if err != nil {
		_ = windows.CloseHandle(h)
		return nil, err
	}
	return &windowsRegion{handle: h, buf: buf}, nil
}

func openRegion() (*windowsRegion, error) {
	namePtr, err := windows.UTF16PtrFromString(exchangeName)
	if err != nil {
		return nil, fmt.Errorf("%w: encode name: %v", ErrNotReady, err)
	}
	h, err := windows.OpenFileMapping(windows.FILE_MAP_READ|windows.FILE_MAP_WRITE, false, namePtr)
	if err != nil {
		return nil, fmt.Errorf("%w: OpenFileMapping: %v", ErrNotReady, err)
	}
	buf, err := mapView(h)
	if err != nil {
		_ = windows.CloseHandle(h)
		return nil, err
	}
	return &windowsRegion{handle: h, buf: buf}, nil
}

func mapView(h windows.Handle) ([]byte, error) {
	addr, err := windows.MapViewOfFile(h, windows.FILE_MAP_READ|windows.FILE_MAP_WRITE, 0, 0, uintptr(Size))
	if err != nil {
		return nil, fmt.Errorf("%w: MapViewOfFile: %v", ErrSharedMemory, err)
	}
	return unsafe.Slice((*byte)(unsafe.Pointer(addr)), Size), nil
}
