package handler

import (
	"bytes"
	"os"
	"path/filepath"
	"strings"

	"github.com/borsokman/localhost/internal/config"
	"github.com/borsokman/localhost/internal/httpmsg"
)

// Upload parses a single-file multipart/form-data body the way
// upload.rs does: extract the boundary from Content-Type, find the
// first part's Content-Disposition filename, strip directory
// components from it, and write the part body under
// "<root>/uploads/<name>". original_source used the twoway crate's
// boundary search; bytes.Index is the stdlib equivalent of the same
// substring search and needs no extra dependency.
func Upload(server *config.Server, root string, contentType string, body []byte) *httpmsg.Response {
	boundary, ok := extractBoundary(contentType)
	if !ok {
		return ErrorResponse(httpmsg.StatusBadRequest, server, root)
	}

	filename, content, ok := firstFilePart(body, boundary)
	if !ok {
		return ErrorResponse(httpmsg.StatusBadRequest, server, root)
	}

	filename = sanitizeFilename(filename)
	if filename == "" {
		return ErrorResponse(httpmsg.StatusBadRequest, server, root)
	}

	uploadsDir := filepath.Join(root, "uploads")
	if err := os.MkdirAll(uploadsDir, 0o755); err != nil {
		return ErrorResponse(httpmsg.StatusInternalServerError, server, root)
	}
	if err := os.WriteFile(filepath.Join(uploadsDir, filename), content, 0o644); err != nil {
		return ErrorResponse(httpmsg.StatusInternalServerError, server, root)
	}

	resp := httpmsg.NewResponse(httpmsg.StatusSeeOther, nil)
	resp.Headers.Set("Location", "/upload.html")
	return resp
}

func extractBoundary(contentType string) (string, bool) {
	if !strings.Contains(contentType, "multipart/form-data") {
		return "", false
	}
	const marker = "boundary="
	i := strings.Index(contentType, marker)
	if i < 0 {
		return "", false
	}
	b := strings.TrimSpace(contentType[i+len(marker):])
	b = strings.Trim(b, `"`)
	if b == "" {
		return "", false
	}
	return "--" + b, true
}

func firstFilePart(body []byte, boundary string) (filename string, content []byte, ok bool) {
	delim := []byte(boundary)
	start := bytes.Index(body, delim)
	if start < 0 {
		return "", nil, false
	}
	rest := body[start+len(delim):]

	headerEnd := bytes.Index(rest, []byte("\r\n\r\n"))
	if headerEnd < 0 {
		return "", nil, false
	}
	header := string(rest[:headerEnd])

	const fnMarker = `filename="`
	fi := strings.Index(header, fnMarker)
	if fi < 0 {
		return "", nil, false
	}
	fi += len(fnMarker)
	fend := strings.IndexByte(header[fi:], '"')
	if fend < 0 {
		return "", nil, false
	}
	filename = header[fi : fi+fend]

	partBody := rest[headerEnd+4:]
	end := bytes.Index(partBody, delim)
	if end < 0 {
		return "", nil, false
	}
	content = partBody[:end]
	content = bytes.TrimSuffix(content, []byte("\r\n"))
	return filename, content, true
}

// sanitizeFilename strips both "/" and "\" directory components, per
// upload.rs's filename sanitization.
func sanitizeFilename(name string) string {
	name = strings.ReplaceAll(name, "\\", "/")
	if i := strings.LastIndexByte(name, '/'); i >= 0 {
		name = name[i+1:]
	}
	return strings.TrimSpace(name)
}
