package httpserver

import (
	"bytes"
	"encoding/json"
	"errors"
	"io"
	"io/fs"
	"log/slog"
	"mime"
	"net/http"
	"net/url"
	"strings"

	"github.com/yndnr/storefront-go/internal/core/domain"
	"github.com/yndnr/storefront-go/internal/server/httpserver/handler"
	"github.com/yndnr/storefront-go/internal/telemetry/metric"
)

// CORS defaults.
const (
	corsAllowMethods = "GET,HEAD,PUT,PATCH,POST,DELETE"
	corsMaxAge       = "86400"
)

// Mount binds a route group to a path prefix.
type Mount struct {
	// Prefix matches the exact path or the path followed by "/".
	Prefix string

	// Name labels the group in logs and metrics.
	Name string

	Group handler.Group
}

// RouterConfig holds configuration for the HTTP router.
type RouterConfig struct {
	// Metrics is the registry counted by the pipeline and exposed at
	// MetricsPath. Required.
	Metrics *metric.Registry

	// Logger for request and error logging.
	Logger *slog.Logger

	// APIPrefix is the namespace counted by app_requests_total. Paths under
	// it never reach the static handler.
	APIPrefix string

	// MetricsPath is the exact path of the Prometheus endpoint.
	MetricsPath string

	// BodyLimit caps JSON request bodies, in bytes.
	BodyLimit int64

	// CORSAllowedOrigins narrows CORS; empty or "*" allows any origin.
	CORSAllowedOrigins []string

	// RateLimit is the per-client request rate; zero disables limiting.
	RateLimit float64
	RateBurst int

	// TrustProxy honors X-Forwarded-For / X-Real-IP for client IPs.
	TrustProxy bool

	// Mounts are tried in order; the first prefix match wins.
	Mounts []Mount

	// Static is the SPA bundle; nil disables static serving.
	Static      fs.FS
	StaticIndex string
}

// DefaultRouterConfig returns default router configuration.
func DefaultRouterConfig() *RouterConfig {
	return &RouterConfig{
		APIPrefix:   "/api",
		MetricsPath: "/metrics",
		BodyLimit:   100 << 10,
		StaticIndex: "index.html",
	}
}

// pipeline runs the stages after the outer middleware: body parsing, CORS,
// rate limiting, dispatch, static assets, SPA fallback and not-found. Every
// stage error goes to the global error terminator.
type pipeline struct {
	logger     *slog.Logger
	metrics    *metric.Registry
	apiPrefix  string
	bodyLimit  int64
	origins    map[string]struct{}
	anyOrigin  bool
	limiter    *RateLimiter
	trustProxy bool
	mounts     []Mount
	static     staticFiles
}

// NewRouter builds the request pipeline:
//
//	Recover -> RequestID -> AccessLog -> API metrics tap -> GET metrics ->
//	JSON body -> CORS -> rate limit -> groups -> static -> SPA -> not found
func NewRouter(cfg *RouterConfig) http.Handler {
	log := cfg.Logger
	if log == nil {
		log = slog.Default()
	}
	reg := cfg.Metrics
	if reg == nil {
		reg = metric.Global()
	}
	index := cfg.StaticIndex
	if index == "" {
		index = "index.html"
	}

	p := &pipeline{
		logger:     log,
		metrics:    reg,
		apiPrefix:  strings.TrimSuffix(cfg.APIPrefix, "/"),
		bodyLimit:  cfg.BodyLimit,
		origins:    make(map[string]struct{}),
		anyOrigin:  len(cfg.CORSAllowedOrigins) == 0,
		trustProxy: cfg.TrustProxy,
		mounts:     cfg.Mounts,
		static:     staticFiles{fsys: cfg.Static, index: index},
	}
	for _, o := range cfg.CORSAllowedOrigins {
		if o == "*" {
			p.anyOrigin = true
		}
		p.origins[o] = struct{}{}
	}
	if cfg.RateLimit > 0 {
		p.limiter = NewRateLimiter(cfg.RateLimit, cfg.RateBurst)
	}
	if !p.static.hasIndex() {
		log.Warn("SPA entry document missing; fallback will answer 404", "index", index)
	}

	return Chain(p,
		Recover(log),
		RequestID(),
		AccessLog(log, reg, cfg.TrustProxy),
		APIMetrics(reg, p.apiPrefix),
		MetricsEndpoint(cfg.MetricsPath, reg.Handler(log)),
	)
}

// ServeHTTP implements http.Handler.
func (p *pipeline) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	if err := p.serve(w, r); err != nil {
		writeError(w, r, err, p.logger)
	}
}

func (p *pipeline) serve(w http.ResponseWriter, r *http.Request) error {
	r, err := p.parseBody(w, r)
	if err != nil {
		return err
	}

	if p.cors(w, r) {
		setRoute(r, "preflight")
		return nil
	}

	if p.limiter != nil && !p.limiter.Allow(clientIP(r, p.trustProxy)) {
		p.metrics.RateLimitRejects.Inc()
		return domain.ErrRateLimited
	}

	for _, m := range p.mounts {
		rest, ok := matchPrefix(r.URL.Path, m.Prefix)
		if !ok {
			continue
		}
		setRoute(r, m.Name)
		err := m.Group.Serve(w, stripPrefix(r, rest))
		if !errors.Is(err, handler.ErrNoRoute) {
			return err
		}
		break
	}

	if _, ok := matchPrefix(r.URL.Path, p.apiPrefix); ok {
		setRoute(r, "notfound")
		return notFound(r)
	}

	if r.Method == http.MethodGet || r.Method == http.MethodHead {
		setRoute(r, "static")
		if err := p.static.serveAsset(w, r); !errors.Is(err, errNoAsset) {
			return err
		}
		setRoute(r, "spa")
		if err := p.static.serveIndex(w, r); !errors.Is(err, errNoAsset) {
			return err
		}
	}

	setRoute(r, "notfound")
	return notFound(r)
}

// parseBody reads and validates JSON request bodies. The raw document is
// stored in the context and the body is replaced so handlers can reread it.
func (p *pipeline) parseBody(w http.ResponseWriter, r *http.Request) (*http.Request, error) {
	if r.Body == nil || r.Body == http.NoBody || r.ContentLength == 0 || !isJSON(r.Header.Get("Content-Type")) {
		return r, nil
	}
	if p.bodyLimit > 0 && r.ContentLength > p.bodyLimit {
		return r, domain.ErrPayloadTooLarge
	}

	var body io.Reader = r.Body
	if p.bodyLimit > 0 {
		body = http.MaxBytesReader(w, r.Body, p.bodyLimit)
	}
	raw, err := io.ReadAll(body)
	if err != nil {
		var tooLarge *http.MaxBytesError
		if errors.As(err, &tooLarge) {
			return r, domain.ErrPayloadTooLarge
		}
		return r, domain.ErrBadRequest.WithCause(err)
	}
	if len(bytes.TrimSpace(raw)) == 0 {
		r.Body = io.NopCloser(bytes.NewReader(raw))
		return r, nil
	}
	if !json.Valid(raw) {
		return r, domain.ErrBadRequest.WithDetails("malformed JSON body")
	}
	if first := bytes.TrimSpace(raw)[0]; first != '{' && first != '[' {
		return r, domain.ErrBadRequest.WithDetails("JSON body must be an object or array")
	}

	r = r.WithContext(handler.WithBody(r.Context(), json.RawMessage(raw)))
	r.Body = io.NopCloser(bytes.NewReader(raw))
	return r, nil
}

// cors sets CORS headers and reports whether the request was a preflight
// that has been answered.
func (p *pipeline) cors(w http.ResponseWriter, r *http.Request) bool {
	origin := r.Header.Get("Origin")
	allowOrigin := ""
	switch {
	case p.anyOrigin:
		allowOrigin = "*"
	case origin != "":
		if _, ok := p.origins[origin]; ok {
			allowOrigin = origin
		}
		w.Header().Add("Vary", "Origin")
	}

	if allowOrigin == "" {
		return false
	}
	h := w.Header()
	h.Set("Access-Control-Allow-Origin", allowOrigin)

	if r.Method != http.MethodOptions || r.Header.Get("Access-Control-Request-Method") == "" {
		return false
	}
	h.Set("Access-Control-Allow-Methods", corsAllowMethods)
	if reqHeaders := r.Header.Get("Access-Control-Request-Headers"); reqHeaders != "" {
		h.Set("Access-Control-Allow-Headers", reqHeaders)
		h.Add("Vary", "Access-Control-Request-Headers")
	}
	h.Set("Access-Control-Max-Age", corsMaxAge)
	h.Set("Content-Length", "0")
	w.WriteHeader(http.StatusNoContent)
	return true
}

// notFound is the not-found terminator's error.
func notFound(r *http.Request) error {
	return domain.NewDomainError(domain.ErrRouteNotFound.Code,
		domain.ErrRouteNotFound.Message+": "+r.Method+" "+r.URL.Path)
}

// matchPrefix matches path against prefix at a segment boundary and
// returns the remainder ("/" when empty).
func matchPrefix(path, prefix string) (string, bool) {
	if prefix == "" || prefix == "/" {
		return path, true
	}
	if path == prefix {
		return "/", true
	}
	if strings.HasPrefix(path, prefix) && path[len(prefix)] == '/' {
		return path[len(prefix):], true
	}
	return "", false
}

// stripPrefix returns a shallow copy of r whose path is rest.
func stripPrefix(r *http.Request, rest string) *http.Request {
	r2 := new(http.Request)
	*r2 = *r
	r2.URL = new(url.URL)
	*r2.URL = *r.URL
	r2.URL.Path = rest
	r2.URL.RawPath = ""
	return r2
}

func isJSON(contentType string) bool {
	mediaType, _, err := mime.ParseMediaType(contentType)
	if err != nil {
		return false
	}
	return mediaType == "application/json" || strings.HasSuffix(mediaType, "+json")
}
