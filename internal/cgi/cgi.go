// Package cgi orchestrates CGI child processes: starting them with
// non-blocking pipe descriptors the dispatcher can register with the
// poller, and parsing their stdout into an HTTP response. Grounded on
// original_source's application/handler/cgi.rs (CgiProcess, start_cgi,
// parse_cgi_response, resolve_script, build_env, map_status), rebuilt
// on os/exec.Cmd in place of raw fork/dup2/execve — Cmd.Dir is the
// chdir equivalent, and Path/Args/Env replace the exec*() call.
package cgi

import (
	"os"
	"os/exec"
	"path/filepath"
	"runtime"
	"strconv"
	"strings"
	"syscall"

	"github.com/borsokman/localhost/internal/config"
	"github.com/borsokman/localhost/internal/fdutil"
	"github.com/borsokman/localhost/internal/herr"
	"github.com/borsokman/localhost/internal/httpmsg"
)

// Process is a running CGI child plus the parent-side pipe ends the
// dispatcher registers with the poller. The raw *os.File objects are
// kept alongside the fd-only Descriptor wrappers: os.Pipe returns
// *os.File, and (*os.File).Fd() documents that a finalizer may close
// the descriptor once the File becomes unreachable, so a File used
// only by its raw fd number must stay reachable for as long as that
// fd is registered with the poller.
type Process struct {
	Cmd    *exec.Cmd
	Input  *fdutil.Descriptor // nil if the request has no body to forward
	Output *fdutil.Descriptor

	inputFile  *os.File // kept alive only to pin Input's fd; nil if Input is nil
	outputFile *os.File // kept alive only to pin Output's fd
}

// ResolveScript joins root and the request path, rejecting anything
// that does not resolve to a regular file with the location's
// configured CGI extension, per start_cgi's up-front checks.
func ResolveScript(root, reqPath string, cgiCfg *config.Cgi) (string, bool) {
	full := filepath.Join(root, filepath.FromSlash(reqPath))
	if !strings.HasSuffix(full, cgiCfg.Extension) {
		return "", false
	}
	info, err := os.Stat(full)
	if err != nil || !info.Mode().IsRegular() {
		return "", false
	}
	return full, true
}

// Start spawns the CGI interpreter against scriptPath. Any failure
// during pipe/process setup closes every descriptor already allocated
// before returning, per SPEC_FULL.md §9's partial-failure cleanup rule.
func Start(cgiCfg *config.Cgi, scriptPath string, req *httpmsg.Request) (*Process, error) {
	inRead, inWrite, err := os.Pipe()
	if err != nil {
		return nil, herr.New(herr.CodeCgiStart, "failed to create input pipe", err)
	}
	outRead, outWrite, err := os.Pipe()
	if err != nil {
		inRead.Close()
		inWrite.Close()
		return nil, herr.New(herr.CodeCgiStart, "failed to create output pipe", err)
	}

	cmd := exec.Command(cgiCfg.Interpreter, scriptPath)
	cmd.Dir = filepath.Dir(scriptPath)
	cmd.Stdin = inRead
	cmd.Stdout = outWrite
	cmd.Env = buildEnv(scriptPath, req)

	if err := cmd.Start(); err != nil {
		inRead.Close()
		inWrite.Close()
		outRead.Close()
		outWrite.Close()
		return nil, herr.New(herr.CodeCgiStart, "failed to start interpreter", err)
	}

	// The child holds its own copies of inRead/outWrite; the parent's
	// copies must close so EOF propagates correctly on both ends.
	inRead.Close()
	outWrite.Close()

	hasBody := len(req.Body) > 0 && (req.Method == httpmsg.MethodPost || req.Method == httpmsg.MethodDelete)

	// fdutil.Descriptor now owns the raw fd's lifetime; disarm each
	// File's GC finalizer so it can't race that ownership and close
	// the fd (or a since-recycled fd with the same number) out from
	// under the live poller registration.
	runtime.SetFinalizer(outRead, nil)
	p := &Process{Cmd: cmd, Output: fdutil.New(int(outRead.Fd())), outputFile: outRead}
	if hasBody {
		setNonblocking(int(inWrite.Fd()))
		runtime.SetFinalizer(inWrite, nil)
		p.Input = fdutil.New(int(inWrite.Fd()))
		p.inputFile = inWrite
	} else {
		inWrite.Close()
	}
	setNonblocking(int(outRead.Fd()))

	return p, nil
}

func setNonblocking(fd int) {
	_ = syscall.SetNonblock(fd, true)
}

func buildEnv(scriptPath string, req *httpmsg.Request) []string {
	env := []string{
		"REQUEST_METHOD=" + string(req.Method),
		"QUERY_STRING=" + queryString(req.RawTarget),
		"SERVER_PROTOCOL=HTTP/1.1",
		"GATEWAY_INTERFACE=CGI/1.1",
		"PATH_INFO=" + scriptPath,
		"CONTENT_LENGTH=" + strconv.FormatInt(req.ContentLength, 10),
	}
	if ct, ok := req.Headers.Get("Content-Type"); ok {
		env = append(env, "CONTENT_TYPE="+ct)
	}
	return env
}

func queryString(target string) string {
	if i := strings.IndexByte(target, '?'); i >= 0 {
		return target[i+1:]
	}
	return ""
}

// ParseResponse splits accumulated CGI stdout at the header/body
// boundary (CRLFCRLF, falling back to LFLF) and maps a `Status:`
// pseudo-header onto the response status, exactly as
// cgi.rs's parse_cgi_response/split_headers_body/map_status do. When
// no boundary is found at all, split_headers_body treats the whole
// buffer as the body with no headers and the default 200 status,
// rather than failing the response.
func ParseResponse(accumulated []byte) (*httpmsg.Response, error) {
	head, body, ok := splitHeadersBody(accumulated)
	if !ok {
		return httpmsg.NewResponse(httpmsg.StatusOK, accumulated), nil
	}

	resp := httpmsg.NewResponse(httpmsg.StatusOK, body)
	for _, line := range strings.Split(strings.ReplaceAll(head, "\r\n", "\n"), "\n") {
		if line == "" {
			continue
		}
		i := strings.IndexByte(line, ':')
		if i < 0 {
			continue
		}
		name := strings.TrimSpace(line[:i])
		value := strings.TrimSpace(line[i+1:])
		if strings.EqualFold(name, "Status") {
			resp.Status = parseStatusPseudoHeader(value)
			continue
		}
		resp.Headers.Set(name, value)
	}
	return resp, nil
}

func splitHeadersBody(data []byte) (head string, body []byte, ok bool) {
	s := string(data)
	if i := strings.Index(s, "\r\n\r\n"); i >= 0 {
		return s[:i], data[i+4:], true
	}
	if i := strings.Index(s, "\n\n"); i >= 0 {
		return s[:i], data[i+2:], true
	}
	return "", nil, false
}

func parseStatusPseudoHeader(value string) httpmsg.Status {
	fields := strings.Fields(value)
	if len(fields) == 0 {
		return httpmsg.StatusInternalServerError
	}
	code, err := strconv.Atoi(fields[0])
	if err != nil {
		return httpmsg.StatusInternalServerError
	}
	return httpmsg.StatusFromCgi(code)
}
