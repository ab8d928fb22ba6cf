// Package fdutil provides the descriptor wrapper every fd-owning
// structure in this server builds on: close-once, never duplicated.
package fdutil

import (
	"sync"

	"golang.org/x/sys/unix"
)

// Descriptor owns a single OS handle and releases it exactly once.
type Descriptor struct {
	fd   int
	once sync.Once
}

// New wraps an already-open, non-negative fd.
func New(fd int) *Descriptor {
	return &Descriptor{fd: fd}
}

// Fd returns the raw handle for use in syscalls. Valid only before
// Close has run.
func (d *Descriptor) Fd() int { return d.fd }

// Close releases the handle exactly once; subsequent calls are no-ops.
func (d *Descriptor) Close() error {
	var err error
	d.once.Do(func() {
		if d.fd >= 0 {
			err = unix.Close(d.fd)
		}
	})
	return err
}
