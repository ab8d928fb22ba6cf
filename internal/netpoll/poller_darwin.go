//go:build darwin || freebsd || netbsd || openbsd || dragonfly

package netpoll

import (
	"fmt"
	"time"

	"golang.org/x/sys/unix"
)

// kqueuePoller is the BSD/Darwin readiness notifier, edge-triggered via
// EV_CLEAR, a direct rebuild of original_source's
// core/event/poller.rs Poller in Go.
type kqueuePoller struct {
	fd int
}

// New constructs the platform-appropriate Poller.
func New() (Poller, error) {
	fd, err := unix.Kqueue()
	if err != nil {
		return nil, fmt.Errorf("netpoll: kqueue: %w", err)
	}
	return &kqueuePoller{fd: fd}, nil
}

func (p *kqueuePoller) change(fd int, filter int16, flags uint16) error {
	ev := unix.Kevent_t{
		Ident:  uint64(fd),
		Filter: filter,
		Flags:  flags,
	}
	_, err := unix.Kevent(p.fd, []unix.Kevent_t{ev}, nil, nil)
	return err
}

func (p *kqueuePoller) RegisterRead(fd int) error {
	return p.change(fd, unix.EVFILT_READ, unix.EV_ADD|unix.EV_ENABLE|unix.EV_CLEAR)
}

func (p *kqueuePoller) RegisterWrite(fd int) error {
	return p.change(fd, unix.EVFILT_WRITE, unix.EV_ADD|unix.EV_ENABLE|unix.EV_CLEAR)
}

func (p *kqueuePoller) DisableWrite(fd int) error {
	return p.change(fd, unix.EVFILT_WRITE, unix.EV_DISABLE)
}

func (p *kqueuePoller) Deregister(fd int) error {
	_ = p.change(fd, unix.EVFILT_WRITE, unix.EV_DELETE)
	return p.change(fd, unix.EVFILT_READ, unix.EV_DELETE)
}

func (p *kqueuePoller) Wait(maxEvents int, timeout time.Duration) ([]Event, error) {
	raw := make([]unix.Kevent_t, maxEvents)
	var ts *unix.Timespec
	if timeout >= 0 {
		t := unix.NsecToTimespec(timeout.Nanoseconds())
		ts = &t
	}

	var n int
	var err error
	for {
		n, err = unix.Kevent(p.fd, nil, raw, ts)
		if err == unix.EINTR {
			continue
		}
		break
	}
	if err != nil {
		return nil, fmt.Errorf("netpoll: kevent: %w", err)
	}

	out := make([]Event, 0, n)
	for i := 0; i < n; i++ {
		e := raw[i]
		out = append(out, Event{
			Fd:       int(e.Ident),
			Readable: e.Filter == unix.EVFILT_READ,
			Writable: e.Filter == unix.EVFILT_WRITE,
			Error:    e.Flags&unix.EV_ERROR != 0,
			EOF:      e.Flags&unix.EV_EOF != 0,
		})
	}
	return out, nil
}

func (p *kqueuePoller) Close() error {
	return unix.Close(p.fd)
}
