// Package netpoll wraps the host kernel's readiness notifier behind one
// interface, with epoll (Linux) and kqueue (Darwin/BSD) implementations
// selected at compile time by build tag — the same split as
// original_source's core/event/poller.rs, rebuilt on
// golang.org/x/sys/unix the way docker-compose/monitor's
// monitor_linux.go wraps syscall.EpollWait for a process monitor.
package netpoll

import "time"

// Event is one readiness notification for a descriptor.
type Event struct {
	Fd       int
	Readable bool
	Writable bool
	Error    bool
	EOF      bool
}

// Poller is the event-loop's only blocking collaborator.
type Poller interface {
	RegisterRead(fd int) error
	RegisterWrite(fd int) error
	DisableWrite(fd int) error
	Deregister(fd int) error
	Wait(maxEvents int, timeout time.Duration) ([]Event, error)
	Close() error
}
