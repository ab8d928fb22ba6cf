//go:build linux

package netpoll

import (
	"fmt"
	"time"

	"golang.org/x/sys/unix"
)

// epollPoller is the Linux readiness notifier, edge-triggered via
// EPOLLET, matching docker-compose/monitor's EpollCreate1/EpollCtl use
// but generalized from a single EPOLLHUP filter to independent
// read/write interest per descriptor.
type epollPoller struct {
	fd int
}

// New constructs the platform-appropriate Poller.
func New() (Poller, error) {
	fd, err := unix.EpollCreate1(0)
	if err != nil {
		return nil, fmt.Errorf("netpoll: epoll_create1: %w", err)
	}
	return &epollPoller{fd: fd}, nil
}

func (p *epollPoller) ctl(op int, fd int, events uint32) error {
	ev := unix.EpollEvent{Events: events, Fd: int32(fd)}
	err := unix.EpollCtl(p.fd, op, fd, &ev)
	if op == unix.EPOLL_CTL_DEL && err == unix.ENOENT {
		return nil
	}
	return err
}

func (p *epollPoller) RegisterRead(fd int) error {
	return p.ctl(unix.EPOLL_CTL_ADD, fd, unix.EPOLLIN|unix.EPOLLET)
}

func (p *epollPoller) RegisterWrite(fd int) error {
	// Client connections are always RegisterRead first, so EPOLL_CTL_MOD
	// (which requires a prior ADD) succeeds for them. CGI input pipes are
	// registered for write only and were never ADDed, so MOD would fail
	// with ENOENT; fall back to ADD in that case rather than also
	// arming read interest on a write-only fd (which would let epoll
	// report it readable and have the dispatcher misroute the event to
	// the CGI output step).
	err := p.ctl(unix.EPOLL_CTL_MOD, fd, unix.EPOLLIN|unix.EPOLLOUT|unix.EPOLLET)
	if err == unix.ENOENT {
		return p.ctl(unix.EPOLL_CTL_ADD, fd, unix.EPOLLOUT|unix.EPOLLET)
	}
	return err
}

func (p *epollPoller) DisableWrite(fd int) error {
	return p.ctl(unix.EPOLL_CTL_MOD, fd, unix.EPOLLIN|unix.EPOLLET)
}

func (p *epollPoller) Deregister(fd int) error {
	return p.ctl(unix.EPOLL_CTL_DEL, fd, 0)
}

func (p *epollPoller) Wait(maxEvents int, timeout time.Duration) ([]Event, error) {
	raw := make([]unix.EpollEvent, maxEvents)
	ms := int(timeout / time.Millisecond)
	if timeout < 0 {
		ms = -1
	}

	var n int
	var err error
	for {
		n, err = unix.EpollWait(p.fd, raw, ms)
		if err == unix.EINTR {
			continue
		}
		break
	}
	if err != nil {
		return nil, fmt.Errorf("netpoll: epoll_wait: %w", err)
	}

	out := make([]Event, 0, n)
	for i := 0; i < n; i++ {
		e := raw[i]
		out = append(out, Event{
			Fd:       int(e.Fd),
			Readable: e.Events&unix.EPOLLIN != 0,
			Writable: e.Events&unix.EPOLLOUT != 0,
			Error:    e.Events&unix.EPOLLERR != 0,
			EOF:      e.Events&unix.EPOLLHUP != 0,
		})
	}
	return out, nil
}

func (p *epollPoller) Close() error {
	return unix.Close(p.fd)
}
