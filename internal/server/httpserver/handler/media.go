package handler

import (
	"io/fs"
	"net/http"
	"path"
	"strings"
)

// MediaGroup serves stored media files under /media. Missing files are
// delegated with ErrNoRoute.
type MediaGroup struct {
	fsys fs.FS
}

// NewMediaGroup creates a group serving files from fsys.
func NewMediaGroup(fsys fs.FS) *MediaGroup {
	return &MediaGroup{fsys: fsys}
}

// Serve implements Group.
func (g *MediaGroup) Serve(w http.ResponseWriter, r *http.Request) error {
	if r.Method != http.MethodGet && r.Method != http.MethodHead {
		return ErrNoRoute
	}
	name := strings.TrimPrefix(path.Clean("/"+r.URL.Path), "/")
	if name == "" || !fs.ValidPath(name) || strings.HasPrefix(path.Base(name), ".") {
		return ErrNoRoute
	}
	info, err := fs.Stat(g.fsys, name)
	if err != nil || info.IsDir() {
		return ErrNoRoute
	}

	w.Header().Set("Cache-Control", "public, max-age=31536000, immutable")
	w.Header().Set("X-Content-Type-Options", "nosniff")
	http.ServeFileFS(w, r, g.fsys, name)
	return nil
}
