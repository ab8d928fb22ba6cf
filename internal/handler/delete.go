package handler

import (
	"errors"
	"os"
	"path/filepath"

	"github.com/borsokman/localhost/internal/config"
	"github.com/borsokman/localhost/internal/httpmsg"
)

// Delete removes the file at root/reqPath, mapping filesystem errors
// onto status codes exactly as delete.rs does: not-found -> 404,
// permission -> 403, anything else -> 500, success -> 200.
func Delete(server *config.Server, root, reqPath string) *httpmsg.Response {
	if !safeRelativePath(reqPath) {
		return ErrorResponse(httpmsg.StatusNotFound, server, root)
	}

	full := filepath.Join(root, filepath.FromSlash(reqPath))
	err := os.Remove(full)
	switch {
	case err == nil:
		return httpmsg.NewResponse(httpmsg.StatusOK, []byte("deleted"))
	case errors.Is(err, os.ErrNotExist):
		return ErrorResponse(httpmsg.StatusNotFound, server, root)
	case errors.Is(err, os.ErrPermission):
		return ErrorResponse(httpmsg.StatusForbidden, server, root)
	default:
		return ErrorResponse(httpmsg.StatusInternalServerError, server, root)
	}
}
