// Package server assembles the readiness poller, connection table, and
// per-connection state machine into the event loop, structured the way
// the retrieval pack's rcproxy core/eventloop.go organizes
// register/read/write/closeConn around a poller — generalized here from
// a fixed-protocol redis proxy to the Reading/Writing/Cgi/Closing HTTP
// state machine in SPEC_FULL.md §4.3.
package server

import (
	"time"

	"github.com/borsokman/localhost/internal/cgi"
	"github.com/borsokman/localhost/internal/config"
	"github.com/borsokman/localhost/internal/conn"
	"github.com/borsokman/localhost/internal/handler"
	"github.com/borsokman/localhost/internal/httpmsg"
	"github.com/borsokman/localhost/internal/logging"
	"github.com/borsokman/localhost/internal/netpoll"
)

const (
	maxEventsPerWait = 256
	pollTimeout      = time.Second
	readChunkSize    = 8192
)

// Dispatcher owns the poller, the connection table, and the listener
// set, and drives the event loop body.
type Dispatcher struct {
	cfg    *config.Config
	poller netpoll.Poller
	table  *conn.Table
	log    *logging.Logger

	listeners    []*Listener
	listenerByFd map[int]*Listener
}

// New builds a Dispatcher and binds one listener per distinct address
// named across all configured servers.
func New(cfg *config.Config, log *logging.Logger) (*Dispatcher, error) {
	poller, err := netpoll.New()
	if err != nil {
		return nil, err
	}

	d := &Dispatcher{
		cfg:          cfg,
		poller:       poller,
		table:        conn.NewTable(),
		log:          log,
		listenerByFd: make(map[int]*Listener),
	}

	seen := make(map[string]bool)
	for _, s := range cfg.Servers {
		for _, addr := range s.Listen {
			if seen[addr] {
				continue
			}
			seen[addr] = true
			l, err := NewListener(addr)
			if err != nil {
				d.Close()
				return nil, err
			}
			if err := poller.RegisterRead(l.Fd.Fd()); err != nil {
				d.Close()
				return nil, err
			}
			d.listeners = append(d.listeners, l)
			d.listenerByFd[l.Fd.Fd()] = l
		}
	}
	return d, nil
}

// Close releases the poller and every listener.
func (d *Dispatcher) Close() {
	for _, l := range d.listeners {
		l.Fd.Close()
	}
	if d.poller != nil {
		d.poller.Close()
	}
}

// Run drives the event loop until Wait returns a fatal error.
func (d *Dispatcher) Run() error {
	for {
		events, err := d.poller.Wait(maxEventsPerWait, pollTimeout)
		if err != nil {
			return err
		}
		for _, ev := range events {
			d.dispatch(ev)
		}
		d.sweep()
	}
}

func (d *Dispatcher) dispatch(ev netpoll.Event) {
	if l, ok := d.listenerByFd[ev.Fd]; ok {
		d.acceptAll(l)
		return
	}

	connFd, isClient := ev.Fd, true
	c, ok := d.table.Get(ev.Fd)
	if !ok {
		if owner, found := d.table.ResolveOwner(ev.Fd); found {
			connFd, isClient = owner, false
			c, ok = d.table.Get(owner)
		}
		if !ok {
			return
		}
	}

	c.Touch()
	if ev.Error || (ev.EOF && isClient) {
		c.State = conn.Closing
	} else {
		d.step(c, ev, isClient)
	}

	if c.State == conn.Closing {
		d.closeConn(connFd, c)
	}
}

func (d *Dispatcher) acceptAll(l *Listener) {
	for {
		fd, ok, err := l.AcceptNonblocking()
		if err != nil {
			d.log.Warnf("accept on %s: %v", l.Addr, err)
			return
		}
		if !ok {
			return
		}

		var timeout time.Duration
		if s := d.cfg.FindServer(l.Addr, ""); s != nil {
			timeout = s.EffectiveKeepAliveTimeout()
		} else {
			timeout = config.DefaultKeepAliveTimeout
		}

		c := conn.New(fd, l.Addr, timeout)
		if err := d.poller.RegisterRead(fd.Fd()); err != nil {
			fd.Close()
			continue
		}
		d.table.Insert(fd.Fd(), c)
	}
}

func (d *Dispatcher) sweep() {
	now := time.Now()
	for _, fd := range d.table.SweepTimedOut(now) {
		if c, ok := d.table.Get(fd); ok {
			d.closeConn(fd, c)
		}
	}
}

func (d *Dispatcher) closeConn(fd int, c *conn.Connection) {
	if c.Cgi != nil {
		if c.Cgi.Input != nil {
			d.poller.Deregister(c.Cgi.Input.Fd())
			d.table.UnlinkPipe(c.Cgi.Input.Fd())
			c.Cgi.Input.Close()
		}
		d.poller.Deregister(c.Cgi.Output.Fd())
		d.table.UnlinkPipe(c.Cgi.Output.Fd())
		c.Cgi.Output.Close()
		reapProcess(c.Cgi.Process)
		c.Cgi = nil
	}
	d.poller.Deregister(fd)
	c.Fd.Close()
	d.table.Remove(fd)
}

func (d *Dispatcher) step(c *conn.Connection, ev netpoll.Event, isClient bool) {
	switch c.State {
	case conn.Reading:
		if isClient && ev.Readable {
			d.stepReading(c)
		}
	case conn.Writing:
		if isClient && ev.Writable {
			d.stepWriting(c)
		}
	case conn.Cgi:
		if !isClient && ev.Readable {
			d.stepCgiOutput(c)
		} else if !isClient && ev.Writable {
			d.stepCgiInput(c)
		}
	}
}

func (d *Dispatcher) stepReading(c *conn.Connection) {
	buf := make([]byte, readChunkSize)
	for {
		n, errno := readRaw(c.Fd.Fd(), buf)
		if n > 0 {
			c.ReadBuf = append(c.ReadBuf, buf[:n]...)
		}
		if errno == errWouldBlock {
			break
		}
		if n == 0 {
			c.State = conn.Closing
			return
		}
		if errno != nil {
			c.State = conn.Closing
			return
		}
	}

	server := d.cfg.FindServer(c.LocalAddr, "")
	loc := (*config.Location)(nil)
	limit := int64(0)
	if server != nil {
		limit = server.ClientMaxBodySize
	}

	result := httpmsg.Parse(c.ReadBuf, limit)
	switch result.Outcome {
	case httpmsg.Incomplete:
		return
	case httpmsg.Error:
		status := httpmsg.StatusBadRequest
		if result.Err == httpmsg.ErrBodyTooLarge {
			status = httpmsg.StatusPayloadTooLarge
		}
		root := ""
		if server != nil {
			root = server.Root
		}
		resp := handler.ErrorResponse(status, server, root)
		d.queueResponse(c, resp, false)
		return
	}

	c.ReadBuf = c.ReadBuf[result.Consumed:]
	c.KeepAlive = result.Request.KeepAlive

	if server != nil {
		host, _ := result.Request.Headers.Get("Host")
		server = d.cfg.FindServer(c.LocalAddr, host)
		loc = server.FindLocation(result.Request.Path)
	}
	d.route(c, server, loc, result.Request)
}

func (d *Dispatcher) route(c *conn.Connection, server *config.Server, loc *config.Location, req *httpmsg.Request) {
	root := ""
	if server != nil {
		root = server.Root
	}
	if loc != nil && loc.Root != "" {
		root = loc.Root
	}

	effectiveLimit := int64(0)
	if loc != nil {
		effectiveLimit = loc.BodyLimit
	}
	if effectiveLimit > 0 && req.ContentLength > effectiveLimit {
		d.queueResponse(c, handler.ErrorResponse(httpmsg.StatusPayloadTooLarge, server, root), false)
		return
	}

	if loc != nil && !loc.AllowsMethod(config.Method(req.Method)) {
		d.queueResponse(c, handler.ErrorResponse(httpmsg.StatusMethodNotAllowed, server, root), true)
		return
	}

	if loc != nil && loc.Redirect != "" {
		resp := httpmsg.NewResponse(httpmsg.StatusMovedPermanently, nil)
		resp.Headers.Set("Location", loc.Redirect)
		d.queueResponse(c, resp, true)
		return
	}

	if loc != nil && loc.Cgi != nil && isCgiMethod(req.Method) {
		d.startCgi(c, server, loc, root, req)
		return
	}

	switch req.Method {
	case httpmsg.MethodDelete:
		d.queueResponse(c, handler.Delete(server, root, req.Path), true)
	case httpmsg.MethodPost:
		ct, _ := req.Headers.Get("Content-Type")
		d.queueResponse(c, handler.Upload(server, root, ct, req.Body), true)
	default:
		var index []string
		if server != nil {
			index = server.Index
		}
		d.queueResponse(c, handler.Static(server, loc, root, req.Path, index), true)
	}
}

func isCgiMethod(m httpmsg.Method) bool {
	return m == httpmsg.MethodGet || m == httpmsg.MethodPost || m == httpmsg.MethodDelete
}

func (d *Dispatcher) queueResponse(c *conn.Connection, resp *httpmsg.Response, viaHandler bool) {
	keepAlive := c.KeepAlive
	if !viaHandler {
		keepAlive = false
		c.KeepAlive = false
	}
	serialized := httpmsg.Serialize(resp, keepAlive, int(c.IdleTimeout.Seconds()))
	c.WriteBuf = append(c.WriteBuf, serialized...)
	c.State = conn.Writing
	d.poller.RegisterWrite(c.Fd.Fd())
}

func (d *Dispatcher) stepWriting(c *conn.Connection) {
	for len(c.WriteBuf) > 0 {
		n, errno := writeRaw(c.Fd.Fd(), c.WriteBuf)
		if n > 0 {
			c.WriteBuf = c.WriteBuf[n:]
		}
		if errno == errWouldBlock {
			return
		}
		if errno != nil {
			c.State = conn.Closing
			return
		}
	}

	d.poller.DisableWrite(c.Fd.Fd())
	if c.KeepAlive {
		c.State = conn.Reading
		// A pipelined request already in ReadBuf will not produce a new
		// edge-triggered read event, so parse it now.
		if len(c.ReadBuf) > 0 {
			d.stepReading(c)
		}
	} else {
		c.State = conn.Closing
	}
}

func (d *Dispatcher) startCgi(c *conn.Connection, server *config.Server, loc *config.Location, root string, req *httpmsg.Request) {
	scriptPath, ok := cgi.ResolveScript(root, req.Path, loc.Cgi)
	if !ok {
		d.queueResponse(c, handler.ErrorResponse(httpmsg.StatusNotFound, server, root), true)
		return
	}

	proc, err := cgi.Start(loc.Cgi, scriptPath, req)
	if err != nil {
		d.log.Errorf("cgi start failed: %v", err)
		d.queueResponse(c, handler.ErrorResponse(httpmsg.StatusInternalServerError, server, root), true)
		return
	}

	c.Cgi = &conn.CgiState{Output: proc.Output, Input: proc.Input, PendingBody: req.Body, Process: proc.Cmd.Process}
	c.State = conn.Cgi

	d.poller.RegisterRead(proc.Output.Fd())
	d.table.LinkPipe(proc.Output.Fd(), c.Fd.Fd())
	if proc.Input != nil {
		// RegisterWrite falls back to an ADD for a never-registered fd
		// (see poller_linux.go), which is what this write-only pipe needs.
		d.poller.RegisterWrite(proc.Input.Fd())
		d.table.LinkPipe(proc.Input.Fd(), c.Fd.Fd())
	}
}

func (d *Dispatcher) stepCgiOutput(c *conn.Connection) {
	buf := make([]byte, readChunkSize)
	for {
		n, errno := readRaw(c.Cgi.Output.Fd(), buf)
		if n > 0 {
			c.Cgi.Accumulated = append(c.Cgi.Accumulated, buf[:n]...)
		}
		if errno == errWouldBlock {
			return
		}
		if n == 0 {
			d.finishCgi(c)
			return
		}
		if errno != nil {
			d.finishCgi(c)
			return
		}
	}
}

func (d *Dispatcher) finishCgi(c *conn.Connection) {
	server := d.cfg.FindServer(c.LocalAddr, "")
	root := ""
	if server != nil {
		root = server.Root
	}

	resp, err := cgi.ParseResponse(c.Cgi.Accumulated)
	if err != nil {
		resp = handler.ErrorResponse(httpmsg.StatusInternalServerError, server, root)
	}

	d.poller.Deregister(c.Cgi.Output.Fd())
	d.table.UnlinkPipe(c.Cgi.Output.Fd())
	c.Cgi.Output.Close()
	if c.Cgi.Input != nil {
		d.poller.Deregister(c.Cgi.Input.Fd())
		d.table.UnlinkPipe(c.Cgi.Input.Fd())
		c.Cgi.Input.Close()
	}
	reapProcess(c.Cgi.Process)
	c.Cgi = nil

	d.queueResponse(c, resp, true)
}

func (d *Dispatcher) stepCgiInput(c *conn.Connection) {
	if len(c.Cgi.PendingBody) == 0 {
		d.poller.Deregister(c.Cgi.Input.Fd())
		d.table.UnlinkPipe(c.Cgi.Input.Fd())
		c.Cgi.Input.Close()
		c.Cgi.Input = nil
		return
	}

	n, errno := writeRaw(c.Cgi.Input.Fd(), c.Cgi.PendingBody)
	if n > 0 {
		c.Cgi.PendingBody = c.Cgi.PendingBody[n:]
	}
	if len(c.Cgi.PendingBody) == 0 || (errno != nil && errno != errWouldBlock) {
		// Body fully written, or a write error, which is non-fatal to
		// the HTTP response: close input and let the child exit
		// naturally, per SPEC_FULL.md §4.3.
		d.poller.Deregister(c.Cgi.Input.Fd())
		d.table.UnlinkPipe(c.Cgi.Input.Fd())
		c.Cgi.Input.Close()
		c.Cgi.Input = nil
	}
}
