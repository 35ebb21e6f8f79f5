//go:build linux

package ppscapture

import (
	"context"
	"fmt"
	"os"
	"unsafe"

	"golang.org/x/sys/unix"
)

// Linux PPS API (include/uapi/linux/pps.h): PPS_FETCH is
// _IOWR('p', 0xa4, struct pps_fdata *), which encodes to 0xc00470a4 (size
// field 4, the 32-bit pointer size). pps_fdata is pps_kinfo (assert_sequence, clear_sequence, assert_tu,
// clear_tu, current_mode, padded to 48 bytes) followed by a pps_ktime_t
// timeout, for 64 bytes total.
const (
	ppsIoctlFetch   = 0xc00470a4
	ppsFdataSize    = 64
	ppsAssertSeqOf  = 0
	ppsTimeoutSecOf = 48
)

// LinuxKernelSource reads PPS edges from the kernel PPS API at
// Path (e.g. /dev/pps0), blocking in PPS_FETCH until a new edge arrives.
type LinuxKernelSource struct {
	Path string
	Raw  RawSource
}

// Run implements Source. It opens the device once and blocks in PPS_FETCH
// until ctx is cancelled; cancellation is observed between edges, not
// inside a single blocking fetch.
func (s *LinuxKernelSource) Run(ctx context.Context, h *Handoff) error {
	f, err := os.OpenFile(s.Path, os.O_RDONLY, 0)
	if err != nil {
		return fmt.Errorf("ppscapture: open %s: %w", s.Path, err)
	}
	defer f.Close()

	var lastSeq uint32
	primed := false
	buf := make([]byte, ppsFdataSize)

	for {
		if ctx.Err() != nil {
			return ctx.Err()
		}
		seq, err := fetchOnce(int(f.Fd()), buf)
		if err != nil {
			return fmt.Errorf("ppscapture: PPS_FETCH: %w", err)
		}
		if !primed {
			lastSeq = seq
			primed = true
			continue
		}
		if seq == lastSeq {
			continue
		}
		lastSeq = seq
		h.Publish(Event{CapturedMicros: s.Raw.RawMicros(), CapturedMs: s.Raw.RawMillis()})
	}
}

// fetchOnce issues a blocking PPS_FETCH and returns the kernel's
// assert_sequence counter, which changes exactly once per new edge.
func fetchOnce(fd int, buf []byte) (uint32, error) {
	for i := range buf {
		buf[i] = 0
	}
	// timeout.sec = -1 requests an indefinite block until the next edge.
	putInt64(buf[ppsTimeoutSecOf:], -1)

	_, _, errno := unix.Syscall(unix.SYS_IOCTL, uintptr(fd), uintptr(ppsIoctlFetch), uintptr(unsafe.Pointer(&buf[0])))
	if errno != 0 {
		return 0, errno
	}
	return getUint32(buf[ppsAssertSeqOf:]), nil
}

func putInt64(b []byte, v int64) {
	u := uint64(v)
	for i := 0; i < 8; i++ {
		b[i] = byte(u >> (8 * i))
	}
}

func getUint32(b []byte) uint32 {
	return uint32(b[0]) | uint32(b[1])<<8 | uint32(b[2])<<16 | uint32(b[3])<<24
}
