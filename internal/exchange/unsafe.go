package exchange

import "unsafe"

// bytePtr returns a pointer into buf usable with sync/atomic, for the
// four fields the Exchange exposes as atomics (spec §3, §5). The
// Exchange's offsets are word-aligned by construction (layout.go), so
// this satisfies atomic's alignment requirement on every supported
// architecture.
func bytePtr(buf []byte, off int) unsafe.Pointer {
	return unsafe.Pointer(&buf[off])
}
