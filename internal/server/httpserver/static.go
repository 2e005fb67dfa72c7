package httpserver

import (
	"bytes"
	"errors"
	"io"
	"io/fs"
	"net/http"
	"path"
	"strings"
)

// errNoAsset reports a static lookup miss.
var errNoAsset = errors.New("no static asset")

// staticFiles serves the SPA bundle from an fs.FS. Names are resolved with
// fs.ValidPath semantics, so lookups never leave the root.
type staticFiles struct {
	fsys  fs.FS
	index string
}

// serveAsset serves the file at the request path. Directories resolve to
// their index document.
func (s *staticFiles) serveAsset(w http.ResponseWriter, r *http.Request) error {
	if s.fsys == nil {
		return errNoAsset
	}
	name := strings.TrimPrefix(path.Clean("/"+r.URL.Path), "/")
	if name == "" {
		name = "."
	}
	if !fs.ValidPath(name) {
		return errNoAsset
	}

	info, err := fs.Stat(s.fsys, name)
	if err != nil {
		return errNoAsset
	}
	if info.IsDir() {
		name = path.Join(name, s.index)
		if info, err = fs.Stat(s.fsys, name); err != nil || info.IsDir() {
			return errNoAsset
		}
	}
	return s.serveFile(w, r, name)
}

// serveIndex serves the entry document.
func (s *staticFiles) serveIndex(w http.ResponseWriter, r *http.Request) error {
	if s.fsys == nil {
		return errNoAsset
	}
	if info, err := fs.Stat(s.fsys, s.index); err != nil || info.IsDir() {
		return errNoAsset
	}
	w.Header().Set("Cache-Control", "no-cache")
	return s.serveFile(w, r, s.index)
}

// hasIndex reports whether the entry document exists.
func (s *staticFiles) hasIndex() bool {
	if s.fsys == nil {
		return false
	}
	info, err := fs.Stat(s.fsys, s.index)
	return err == nil && !info.IsDir()
}

func (s *staticFiles) serveFile(w http.ResponseWriter, r *http.Request, name string) error {
	f, err := s.fsys.Open(name)
	if err != nil {
		return errNoAsset
	}
	defer f.Close()

	info, err := f.Stat()
	if err != nil {
		return err
	}

	rs, ok := f.(io.ReadSeeker)
	if !ok {
		data, err := io.ReadAll(f)
		if err != nil {
			return err
		}
		rs = bytes.NewReader(data)
	}
	http.ServeContent(w, r, info.Name(), info.ModTime(), rs)
	return nil
}
