//go:build darwin || freebsd || netbsd || openbsd || dragonfly

package sockopt

import "golang.org/x/sys/unix"

// SetReusePort enables SO_REUSEPORT, available on the whole BSD/Darwin
// family this build tag covers.
func SetReusePort(fd int) error {
	return unix.SetsockoptInt(fd, unix.SOL_SOCKET, unix.SO_REUSEPORT, 1)
}

// DisableSigpipe sets SO_NOSIGPIPE, the per-socket option
// original_source's core/net/socket.rs relies on in place of a
// process-wide SIGPIPE disposition change.
func DisableSigpipe(fd int) error {
	return unix.SetsockoptInt(fd, unix.SOL_SOCKET, unix.SO_NOSIGPIPE, 1)
}
