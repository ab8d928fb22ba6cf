package httpmsg

import (
	"bytes"
	"fmt"
)

// Serialize renders resp to wire bytes, inserting Content-Length if the
// handler did not set one, and always setting Connection from
// keepAlive — unlike original_source's serializer.rs, which hardcodes
// `Connection: close` when the header is absent; this server's
// keep-alive behavior is request-driven per SPEC_FULL.md §6.
func Serialize(resp *Response, keepAlive bool, keepAliveTimeout int) []byte {
	var b bytes.Buffer

	fmt.Fprintf(&b, "HTTP/1.1 %d %s\r\n", resp.Status, resp.Status.Reason())

	if !resp.Headers.Has("Content-Length") {
		resp.Headers.Set("Content-Length", fmt.Sprintf("%d", len(resp.Body)))
	}
	if keepAlive {
		resp.Headers.Set("Connection", "keep-alive")
	} else {
		resp.Headers.Set("Connection", "close")
	}
	if keepAlive && !resp.Headers.Has("Keep-Alive") {
		resp.Headers.Set("Keep-Alive", fmt.Sprintf("timeout=%d", keepAliveTimeout))
	}

	resp.Headers.Each(func(name, value string) {
		fmt.Fprintf(&b, "%s: %s\r\n", name, value)
	})
	b.WriteString("\r\n")
	b.Write(resp.Body)

	return b.Bytes()
}
