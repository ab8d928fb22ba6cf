package conn

import "time"

// Table owns every live Connection, keyed by client fd, plus the
// pipe_map side-index from a CGI pipe fd to its owning client fd —
// the cyclic-reference-avoiding layout described in SPEC_FULL.md §9,
// generalized from original_source's application/server/manager.rs
// ServerManager (which only tracked conns, no CGI pipes).
type Table struct {
	conns   map[int]*Connection
	pipeMap map[int]int
}

// NewTable builds an empty connection table.
func NewTable() *Table {
	return &Table{
		conns:   make(map[int]*Connection),
		pipeMap: make(map[int]int),
	}
}

func (t *Table) Insert(fd int, c *Connection) {
	t.conns[fd] = c
}

func (t *Table) Get(fd int) (*Connection, bool) {
	c, ok := t.conns[fd]
	return c, ok
}

func (t *Table) Remove(fd int) {
	delete(t.conns, fd)
}

// LinkPipe records that pipeFd belongs to the connection at ownerFd.
func (t *Table) LinkPipe(pipeFd, ownerFd int) {
	t.pipeMap[pipeFd] = ownerFd
}

// UnlinkPipe removes a pipe_map entry; a miss is not an error.
func (t *Table) UnlinkPipe(pipeFd int) {
	delete(t.pipeMap, pipeFd)
}

// ResolveOwner returns the connection fd that owns pipeFd, if any.
func (t *Table) ResolveOwner(pipeFd int) (int, bool) {
	owner, ok := t.pipeMap[pipeFd]
	return owner, ok
}

// SweepTimedOut returns the fds of every connection whose idle time has
// exceeded its configured timeout, matching
// ServerManager::sweep_timeouts. Sweeping never runs mid-batch, only
// between poller.Wait calls, per SPEC_FULL.md §4.4.
func (t *Table) SweepTimedOut(now time.Time) []int {
	var out []int
	for fd, c := range t.conns {
		if c.IsTimedOut(now) {
			out = append(out, fd)
		}
	}
	return out
}

// Len reports the number of live connections.
func (t *Table) Len() int { return len(t.conns) }
