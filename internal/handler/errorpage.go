// Package handler implements the pure (server, root, request) ->
// response collaborators the dispatcher routes to: static file
// serving, upload, delete, and error-page rendering. Each is a direct
// generalization of the corresponding file under
// original_source/src/application/handler/.
package handler

import (
	"fmt"
	"os"
	"path/filepath"

	"github.com/borsokman/localhost/internal/config"
	"github.com/borsokman/localhost/internal/httpmsg"
)

// ErrorResponse renders a response for status, trying the server's
// configured custom page first, falling back to "<root>/errors/<code>.html",
// and finally a built-in inline body — mirroring
// error_page_handler.rs's error_response exactly, including that a
// failure to load either file degrades silently rather than recursing.
func ErrorResponse(status httpmsg.Status, server *config.Server, root string) *httpmsg.Response {
	code := int(status)

	candidates := []string{filepath.Join(root, "errors", fmt.Sprintf("%d.html", code))}
	if custom, ok := server.ErrorPageFor(code); ok {
		if !filepath.IsAbs(custom) {
			custom = filepath.Join(root, custom)
		}
		candidates = append([]string{custom}, candidates...)
	}

	resp := httpmsg.NewResponse(status, nil)
	loaded := false
	for _, file := range candidates {
		if body, err := os.ReadFile(file); err == nil {
			resp.Body = body
			loaded = true
			break
		}
	}
	if !loaded {
		resp.Body = []byte(fmt.Sprintf(
			"<html><head><title>%d %s</title></head><body><h1>%d %s</h1><p>%s</p></body></html>",
			code, status.Reason(), code, status.Reason(), defaultMessage(code)))
	}
	resp.Headers.Set("Content-Type", "text/html; charset=utf-8")
	return resp
}

func defaultMessage(code int) string {
	switch code {
	case 400:
		return "Bad Request"
	case 403:
		return "Forbidden"
	case 404:
		return "Not Found"
	case 405:
		return "Method Not Allowed"
	case 413:
		return "Payload Too Large"
	case 500:
		return "Internal Server Error"
	default:
		return "Unknown Error"
	}
}
