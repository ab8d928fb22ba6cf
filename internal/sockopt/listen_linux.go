//go:build linux

package sockopt

import "golang.org/x/sys/unix"

// SetReusePort enables SO_REUSEPORT where the kernel supports it
// (Linux 3.9+). listen_darwin.go sets the same option on the
// BSD/Darwin family.
func SetReusePort(fd int) error {
	return unix.SetsockoptInt(fd, unix.SOL_SOCKET, unix.SO_REUSEPORT, 1)
}

// DisableSigpipe is a no-op on Linux: the dispatcher never writes to a
// socket outside a registered-writable event, so EPIPE is observed as
// a normal write error rather than a delivered signal, per
// SPEC_FULL.md §4.4.
func DisableSigpipe(fd int) error {
	return nil
}
