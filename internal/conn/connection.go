// Package conn holds the per-connection state machine described in
// SPEC_FULL.md §4.3, a direct generalization of original_source's
// core/net/connection.rs ConnState/Connection pair.
package conn

import (
	"os"
	"time"

	"github.com/borsokman/localhost/internal/fdutil"
)

// State tags the phase a Connection is in.
type State int

const (
	Reading State = iota
	Writing
	Cgi
	Closing
)

func (s State) String() string {
	switch s {
	case Reading:
		return "reading"
	case Writing:
		return "writing"
	case Cgi:
		return "cgi"
	case Closing:
		return "closing"
	default:
		return "unknown"
	}
}

// CgiState holds the child process and pipe descriptors for a
// connection currently running CGI, mirroring ConnState::Cgi in
// original_source.
type CgiState struct {
	Process      *os.Process
	Input        *fdutil.Descriptor // nil once the request body is fully written or absent
	Output       *fdutil.Descriptor
	Accumulated  []byte
	PendingBody  []byte // bytes of the request body not yet written to Input
}

// Connection aggregates one client TCP session.
type Connection struct {
	Fd        *fdutil.Descriptor
	LocalAddr string

	ReadBuf  []byte
	WriteBuf []byte

	State State
	Cgi   *CgiState

	LastActivity time.Time
	IdleTimeout  time.Duration
	KeepAlive    bool
}

// New creates a Connection in the Reading state, per SPEC_FULL.md
// §4.3's entry conditions.
func New(fd *fdutil.Descriptor, localAddr string, idleTimeout time.Duration) *Connection {
	return &Connection{
		Fd:           fd,
		LocalAddr:    localAddr,
		State:        Reading,
		IdleTimeout:  idleTimeout,
		KeepAlive:    true,
		LastActivity: time.Now(),
	}
}

// Touch refreshes the idle-timeout clock.
func (c *Connection) Touch() {
	c.LastActivity = time.Now()
}

// IsTimedOut reports whether the connection has been idle past its
// configured timeout.
func (c *Connection) IsTimedOut(now time.Time) bool {
	return now.Sub(c.LastActivity) >= c.IdleTimeout
}
