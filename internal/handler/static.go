package handler

import (
	"fmt"
	"mime"
	"os"
	"path/filepath"
	"sort"
	"strings"

	"github.com/borsokman/localhost/internal/config"
	"github.com/borsokman/localhost/internal/httpmsg"
)

// MaxStaticResponseBytes is the 8 MiB ceiling on static-file response
// bodies SPEC_FULL.md §6 requires.
const MaxStaticResponseBytes = 8 * 1024 * 1024

// Static serves a file or directory listing under root for
// reqPath, rejecting path traversal before ever touching the
// filesystem — static_file.rs's early variant only joins root+path
// with no such check, so this is a from-scratch hardening per
// SPEC_FULL.md §4.8.
func Static(server *config.Server, loc *config.Location, root string, reqPath string, index []string) *httpmsg.Response {
	if !safeRelativePath(reqPath) {
		return ErrorResponse(httpmsg.StatusNotFound, server, root)
	}

	full := filepath.Join(root, filepath.FromSlash(reqPath))

	info, err := os.Stat(full)
	if err != nil {
		return ErrorResponse(httpmsg.StatusNotFound, server, root)
	}

	if info.IsDir() {
		return serveDir(server, loc, root, full, reqPath, index)
	}
	return serveFile(server, root, full, info.Size())
}

func serveDir(server *config.Server, loc *config.Location, root, full, reqPath string, index []string) *httpmsg.Response {
	candidates := index
	if loc != nil && loc.DefaultFile != "" {
		candidates = append([]string{loc.DefaultFile}, candidates...)
	}
	for _, name := range candidates {
		candidate := filepath.Join(full, name)
		if info, err := os.Stat(candidate); err == nil && !info.IsDir() {
			return serveFile(server, root, candidate, info.Size())
		}
	}
	if loc != nil && loc.Autoindex {
		return autoindex(full, reqPath)
	}
	return ErrorResponse(httpmsg.StatusNotFound, server, root)
}

func serveFile(server *config.Server, root, full string, size int64) *httpmsg.Response {
	if size > MaxStaticResponseBytes {
		return ErrorResponse(httpmsg.StatusPayloadTooLarge, server, root)
	}
	body, err := os.ReadFile(full)
	if err != nil {
		return ErrorResponse(httpmsg.StatusNotFound, server, root)
	}
	resp := httpmsg.NewResponse(httpmsg.StatusOK, body)
	ct := mime.TypeByExtension(filepath.Ext(full))
	if ct == "" {
		ct = "application/octet-stream"
	}
	resp.Headers.Set("Content-Type", ct)
	return resp
}

func autoindex(dir, reqPath string) *httpmsg.Response {
	entries, err := os.ReadDir(dir)
	if err != nil {
		return httpmsg.NewResponse(httpmsg.StatusInternalServerError, nil)
	}
	names := make([]string, 0, len(entries))
	for _, e := range entries {
		name := e.Name()
		if e.IsDir() {
			name += "/"
		}
		names = append(names, name)
	}
	sort.Strings(names)

	var b strings.Builder
	fmt.Fprintf(&b, "<html><head><title>Index of %s</title></head><body><h1>Index of %s</h1><ul>\n", reqPath, reqPath)
	for _, name := range names {
		fmt.Fprintf(&b, "<li><a href=\"%s\">%s</a></li>\n", name, name)
	}
	b.WriteString("</ul></body></html>")

	resp := httpmsg.NewResponse(httpmsg.StatusOK, []byte(b.String()))
	resp.Headers.Set("Content-Type", "text/html; charset=utf-8")
	return resp
}

// safeRelativePath rejects any path containing a ".." segment, per
// SPEC_FULL.md's path-safety invariant. Leading or repeated "/"
// separators are accepted; callers always join the path under root.
func safeRelativePath(p string) bool {
	for _, seg := range strings.Split(filepath.ToSlash(p), "/") {
		if seg == ".." {
			return false
		}
	}
	return true
}
