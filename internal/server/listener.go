package server

import (
	"fmt"
	"net"
	"strconv"
	"strings"

	"golang.org/x/sys/unix"

	"github.com/borsokman/localhost/internal/fdutil"
	"github.com/borsokman/localhost/internal/herr"
	"github.com/borsokman/localhost/internal/sockopt"
)

// Listener is a bound, listening, non-blocking IPv4 socket tagged with
// the address it was configured with, generalizing
// original_source's core/net/socket.rs create_listening_socket (IPv4
// only, matching the original's to_sockaddr_in which errors on IPv6).
type Listener struct {
	Fd   *fdutil.Descriptor
	Addr string // as configured, e.g. "0.0.0.0:8080"
}

const listenBacklog = 128

// NewListener creates a listening socket bound to addr ("host:port").
func NewListener(addr string) (*Listener, error) {
	host, portStr, err := net.SplitHostPort(addr)
	if err != nil {
		return nil, herr.New(herr.CodeListenerBind, "malformed listen address", err)
	}
	port, err := strconv.Atoi(portStr)
	if err != nil {
		return nil, herr.New(herr.CodeListenerBind, "malformed listen port", err)
	}

	ip := net.ParseIP(host)
	if ip == nil || ip.To4() == nil {
		return nil, herr.New(herr.CodeListenerBind, fmt.Sprintf("only IPv4 listen addresses are supported, got %q", host))
	}

	fd, err := unix.Socket(unix.AF_INET, unix.SOCK_STREAM, 0)
	if err != nil {
		return nil, herr.New(herr.CodeListenerBind, "socket() failed", err)
	}
	desc := fdutil.New(fd)

	if err := unix.SetsockoptInt(fd, unix.SOL_SOCKET, unix.SO_REUSEADDR, 1); err != nil {
		desc.Close()
		return nil, herr.New(herr.CodeListenerBind, "SO_REUSEADDR failed", err)
	}
	_ = sockopt.SetReusePort(fd) // best-effort: not all kernels support it
	if err := sockopt.DisableSigpipe(fd); err != nil {
		desc.Close()
		return nil, herr.New(herr.CodeListenerBind, "disabling SIGPIPE delivery failed", err)
	}
	if err := unix.SetNonblock(fd, true); err != nil {
		desc.Close()
		return nil, herr.New(herr.CodeListenerBind, "O_NONBLOCK failed", err)
	}

	sa := &unix.SockaddrInet4{Port: port}
	copy(sa.Addr[:], ip.To4())
	if err := unix.Bind(fd, sa); err != nil {
		desc.Close()
		return nil, herr.New(herr.CodeListenerBind, "bind() failed", err)
	}
	if err := unix.Listen(fd, listenBacklog); err != nil {
		desc.Close()
		return nil, herr.New(herr.CodeListenerBind, "listen() failed", err)
	}

	return &Listener{Fd: desc, Addr: normalizeAddr(host, port)}, nil
}

func normalizeAddr(host string, port int) string {
	return strings.Join([]string{host, strconv.Itoa(port)}, ":")
}

// AcceptNonblocking accepts one pending connection, treating
// EWOULDBLOCK/EAGAIN as "no connection ready" rather than an error,
// per accept_nonblocking in original_source's socket.rs.
func (l *Listener) AcceptNonblocking() (*fdutil.Descriptor, bool, error) {
	fd, _, err := unix.Accept(l.Fd.Fd())
	if err != nil {
		if err == unix.EAGAIN || err == unix.EWOULDBLOCK {
			return nil, false, nil
		}
		return nil, false, err
	}
	if err := unix.SetNonblock(fd, true); err != nil {
		unix.Close(fd)
		return nil, false, err
	}
	_ = sockopt.DisableSigpipe(fd)
	_ = unix.SetsockoptLinger(fd, unix.SOL_SOCKET, unix.SO_LINGER, &unix.Linger{Onoff: 1, Linger: 0})
	return fdutil.New(fd), true, nil
}
