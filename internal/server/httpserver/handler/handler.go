package handler

import (
	"context"
	"errors"
	"net/http"
	"path"
	"strings"
)

// ErrNoRoute is returned by a Group that does not handle the request.
var ErrNoRoute = errors.New("no route")

// Group handles the sub-paths of one mount prefix.
type Group interface {
	Serve(w http.ResponseWriter, r *http.Request) error
}

// HandlerFunc handles a matched route and reports failures as errors.
type HandlerFunc func(w http.ResponseWriter, r *http.Request) error

// Router matches routes with http.ServeMux patterns (e.g. "GET /{id}")
// and returns ErrNoRoute for anything unmatched.
type Router struct {
	mux *http.ServeMux
}

type resultKey struct{}

type result struct {
	err error
}

// NewRouter creates an empty Router.
func NewRouter() *Router {
	rt := &Router{mux: http.NewServeMux()}
	rt.mux.HandleFunc("/", func(_ http.ResponseWriter, r *http.Request) {
		if res, ok := r.Context().Value(resultKey{}).(*result); ok {
			res.err = ErrNoRoute
		}
	})
	return rt
}

// Handle registers fn for pattern.
func (rt *Router) Handle(pattern string, fn HandlerFunc) {
	rt.mux.HandleFunc(pattern, func(w http.ResponseWriter, r *http.Request) {
		res, ok := r.Context().Value(resultKey{}).(*result)
		if !ok {
			return
		}
		res.err = fn(w, r)
	})
}

// Serve implements Group. Non-canonical paths ("//list", "/a/../list") are
// not routed; the mux would answer them with a redirect that drops the
// mount prefix.
func (rt *Router) Serve(w http.ResponseWriter, r *http.Request) error {
	if !canonicalPath(r.URL.Path) {
		return ErrNoRoute
	}
	res := &result{}
	rt.mux.ServeHTTP(w, r.WithContext(context.WithValue(r.Context(), resultKey{}, res)))
	return res.err
}

func canonicalPath(p string) bool {
	if p == "" || p[0] != '/' {
		return false
	}
	clean := path.Clean(p)
	if clean != "/" && strings.HasSuffix(p, "/") {
		clean += "/"
	}
	return clean == p
}
