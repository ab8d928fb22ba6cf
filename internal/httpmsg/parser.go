package httpmsg

import (
	"bytes"
	"errors"
	"strconv"
	"strings"
)

// ErrBodyTooLarge is the one parser error SPEC_FULL.md's taxonomy maps
// to 413; every other parse error maps to 400.
var ErrBodyTooLarge = errors.New("body too large")

// Outcome tags a single Parse call's result.
type Outcome int

const (
	Incomplete Outcome = iota
	Complete
	Error
)

// ParseResult is the collaborator contract from SPEC_FULL.md §4.6.
type ParseResult struct {
	Outcome  Outcome
	Request  *Request
	Consumed int
	Err      error
}

// Parse attempts to parse one HTTP/1.1 request from the front of buf,
// enforcing bodyLimit on the declared (or accumulated, for chunked)
// body size.
func Parse(buf []byte, bodyLimit int64) ParseResult {
	headerEnd := bytes.Index(buf, []byte("\r\n\r\n"))
	sepLen := 4
	if headerEnd < 0 {
		headerEnd = bytes.Index(buf, []byte("\n\n"))
		sepLen = 2
	}
	if headerEnd < 0 {
		return ParseResult{Outcome: Incomplete}
	}

	head := string(buf[:headerEnd])
	lines := splitLines(head)
	if len(lines) == 0 {
		return ParseResult{Outcome: Error, Err: errors.New("empty request")}
	}

	method, path, ok := parseRequestLine(lines[0])
	if !ok {
		return ParseResult{Outcome: Error, Err: errors.New("malformed request line")}
	}

	req := &Request{Method: method, Path: pathOnly(path), RawTarget: path, KeepAlive: true}
	var contentLength int64 = -1
	chunked := false

	for _, line := range lines[1:] {
		name, value, ok := splitHeaderLine(line)
		if !ok {
			continue
		}
		canonical := canonicalHeaderName(name)
		req.Headers.Set(canonical, value)
		switch canonical {
		case "Content-Length":
			n, err := strconv.ParseInt(strings.TrimSpace(value), 10, 64)
			if err != nil {
				return ParseResult{Outcome: Error, Err: errors.New("malformed Content-Length")}
			}
			contentLength = n
		case "Connection":
			req.KeepAlive = !strings.EqualFold(strings.TrimSpace(value), "close")
		case "Transfer-Encoding":
			if strings.EqualFold(strings.TrimSpace(value), "chunked") {
				chunked = true
			}
		}
	}

	bodyStart := headerEnd + sepLen
	available := buf[bodyStart:]

	if chunked {
		body, consumedBody, outcome, err := decodeChunked(available, bodyLimit)
		switch outcome {
		case Incomplete:
			return ParseResult{Outcome: Incomplete}
		case Error:
			return ParseResult{Outcome: Error, Err: err}
		}
		req.Body = body
		req.ContentLength = int64(len(body))
		return ParseResult{Outcome: Complete, Request: req, Consumed: bodyStart + consumedBody}
	}

	if contentLength < 0 {
		contentLength = 0
	}
	if bodyLimit > 0 && contentLength > bodyLimit {
		return ParseResult{Outcome: Error, Err: ErrBodyTooLarge}
	}
	if int64(len(available)) < contentLength {
		return ParseResult{Outcome: Incomplete}
	}

	req.Body = append([]byte(nil), available[:contentLength]...)
	req.ContentLength = contentLength
	return ParseResult{Outcome: Complete, Request: req, Consumed: bodyStart + int(contentLength)}
}

// decodeChunked dechunks a `Transfer-Encoding: chunked` body, discarding
// any trailers, returning the consumed byte count measured from the
// start of the chunked stream (i.e. relative to `available`).
func decodeChunked(available []byte, bodyLimit int64) (body []byte, consumed int, outcome Outcome, err error) {
	var out bytes.Buffer
	pos := 0
	for {
		lineEnd := bytes.Index(available[pos:], []byte("\r\n"))
		if lineEnd < 0 {
			return nil, 0, Incomplete, nil
		}
		sizeLine := string(available[pos : pos+lineEnd])
		if i := strings.IndexByte(sizeLine, ';'); i >= 0 {
			sizeLine = sizeLine[:i]
		}
		size, perr := strconv.ParseInt(strings.TrimSpace(sizeLine), 16, 64)
		if perr != nil {
			return nil, 0, Error, errors.New("malformed chunk size")
		}
		pos += lineEnd + 2

		if size == 0 {
			// No trailers: the stream ends with the CRLF right here.
			if bytes.HasPrefix(available[pos:], []byte("\r\n")) {
				return out.Bytes(), pos + 2, Complete, nil
			}
			// Trailers: scan to the blank line terminating them.
			trailerEnd := bytes.Index(available[pos:], []byte("\r\n\r\n"))
			if trailerEnd < 0 {
				return nil, 0, Incomplete, nil
			}
			return out.Bytes(), pos + trailerEnd + 4, Complete, nil
		}

		if bodyLimit > 0 && int64(out.Len())+size > bodyLimit {
			return nil, 0, Error, ErrBodyTooLarge
		}
		if int64(len(available)-pos) < size+2 {
			return nil, 0, Incomplete, nil
		}
		out.Write(available[pos : pos+int(size)])
		pos += int(size) + 2 // skip the chunk's trailing CRLF
	}
}

func splitLines(head string) []string {
	head = strings.ReplaceAll(head, "\r\n", "\n")
	return strings.Split(head, "\n")
}

func parseRequestLine(line string) (Method, string, bool) {
	parts := strings.Fields(line)
	if len(parts) != 3 {
		return "", "", false
	}
	method, target, version := parts[0], parts[1], parts[2]
	if !strings.HasPrefix(version, "HTTP/1.") {
		return "", "", false
	}
	switch Method(method) {
	case MethodGet, MethodPost, MethodDelete:
		return Method(method), target, true
	default:
		return "", "", false
	}
}

func splitHeaderLine(line string) (name, value string, ok bool) {
	i := strings.IndexByte(line, ':')
	if i < 0 {
		return "", "", false
	}
	return strings.TrimSpace(line[:i]), strings.TrimSpace(line[i+1:]), true
}

func pathOnly(target string) string {
	if i := strings.IndexByte(target, '?'); i >= 0 {
		return target[:i]
	}
	return target
}

var canonicalNames = map[string]string{
	"content-length":    "Content-Length",
	"content-type":      "Content-Type",
	"connection":        "Connection",
	"transfer-encoding": "Transfer-Encoding",
	"host":              "Host",
}

func canonicalHeaderName(name string) string {
	if c, ok := canonicalNames[strings.ToLower(name)]; ok {
		return c
	}
	return name
}
