// Package router implements the per-Server HTTP service (the "Rxh
// service"): given an immutable Server configuration, it matches each
// request's path against the configured pattern table and dispatches to
// either the proxy forwarder or the static file server.
package router

import (
	"bufio"
	"net"
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/rs/zerolog"

	"github.com/tomtom215/rxh/internal/config"
	"github.com/tomtom215/rxh/internal/logging"
	"github.com/tomtom215/rxh/internal/metrics"
	"github.com/tomtom215/rxh/internal/middleware"
	"github.com/tomtom215/rxh/internal/proxy"
	"github.com/tomtom215/rxh/internal/rxerr"
	"github.com/tomtom215/rxh/internal/scheduler"
	"github.com/tomtom215/rxh/internal/shaping"
	"github.com/tomtom215/rxh/internal/staticfile"
)

// route is a single resolved Pattern: its URI prefix plus whichever
// destination it was configured with, built once at construction so
// request handling never re-parses configuration.
type route struct {
	uri       string
	scheduler scheduler.Scheduler
	static    *staticfile.Server
	proxyID   string
}

// Handler is the HTTP service for a single Server listener. It is
// immutable after New returns and safe for concurrent use by every
// connection task the listener spawns.
type Handler struct {
	listenName string // label used for metrics and logs, typically the listen address
	serverAddr string
	routes     []route
	log        zerolog.Logger
}

// New builds a Handler for srv, bound to listenAddr (this replica's actual
// listen address) and serverAddr (the local address handlers report to
// upstreams as the Forwarded "by" value when no ProxyID is configured).
func New(srv config.Server, listenAddr, serverAddr string) (*Handler, error) {
	patterns := srv.Patterns()
	routes := make([]route, 0, len(patterns))
	for _, p := range patterns {
		rt := route{uri: p.URI}
		switch {
		case p.Forward != nil:
			backends := make([]scheduler.Backend, len(p.Forward.Backends))
			for i, b := range p.Forward.Backends {
				backends[i] = scheduler.Backend{Address: b.Address, Weight: b.Weight}
			}
			algo := scheduler.Algorithm(p.Forward.Algorithm)
			sched, err := scheduler.New(algo, backends)
			if err != nil {
				return nil, rxerr.Config("build scheduler for pattern "+p.URI, err)
			}
			rt.scheduler = sched
			rt.proxyID = p.Forward.ProxyID
			if rt.proxyID == "" {
				rt.proxyID = uuid.NewString()
			}
		case p.Serve != "":
			fs, err := staticfile.New(p.Serve)
			if err != nil {
				return nil, rxerr.IO("build static file server for pattern "+p.URI, err)
			}
			rt.static = fs
		}
		routes = append(routes, rt)
	}
	return &Handler{
		listenName: listenAddr,
		serverAddr: serverAddr,
		routes:     routes,
		log:        logging.WithComponent("router").With().Str("listen", listenAddr).Logger(),
	}, nil
}

// ServeHTTP stamps a request ID and correlation ID on every request this
// listener sees, then dispatches to the first route whose URI is a prefix
// of the request path, recording request metrics under this Handler's
// listen name. No match produces a 404.
func (h *Handler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	middleware.RequestID(h.route)(w, r)
}

func (h *Handler) route(w http.ResponseWriter, r *http.Request) {
	start := time.Now()
	mw := &metricsWriter{ResponseWriter: w, status: http.StatusOK}
	ctx := r.Context()

	rt, ok := h.match(r.URL.Path)
	if !ok {
		logging.CtxWith(ctx).Str("path", r.URL.Path).Logger().Debug().Msg("no pattern matched, returning 404")
		shaping.WriteNotFound(mw)
	} else if rt.static != nil {
		h.log.With().Str("correlation_id", logging.CorrelationIDFromContext(ctx)).Logger().
			Debug().Str("route", rt.uri).Msg("dispatching to static file route")
		h.serveStatic(mw, r, rt)
	} else {
		h.log.With().Str("correlation_id", logging.CorrelationIDFromContext(ctx)).Logger().
			Debug().Str("route", rt.uri).Str("proxy_id", rt.proxyID).Msg("dispatching to forward route")
		h.serveForward(mw, r, rt)
	}

	metrics.RecordRequest(h.listenName, strconv.Itoa(mw.status), time.Since(start))
}

func (h *Handler) match(path string) (route, bool) {
	for _, rt := range h.routes {
		if strings.HasPrefix(path, rt.uri) {
			return rt, true
		}
	}
	return route{}, false
}

func (h *Handler) serveStatic(w http.ResponseWriter, r *http.Request, rt route) {
	suffix := strings.TrimPrefix(r.URL.Path, rt.uri)
	if !strings.HasPrefix(suffix, "/") {
		suffix = "/" + suffix
	}
	sub := r.Clone(r.Context())
	sub.URL.Path = suffix
	rt.static.ServeHTTP(w, sub)
}

func (h *Handler) serveForward(w http.ResponseWriter, r *http.Request, rt route) {
	backend := rt.scheduler.Next()
	metrics.RecordBackendSelected(h.listenName, backend)

	if err := proxy.Forward(w, r, backend, proxy.Request{
		ClientAddr: r.RemoteAddr,
		ServerAddr: h.serverAddr,
		ProxyID:    rt.proxyID,
	}); err != nil {
		metrics.RecordError("http")
	}
}

// metricsWriter captures the response status code so ServeHTTP can label
// its duration/count metrics, while still exposing Hijack for the upgrade
// tunnel path in internal/proxy.
type metricsWriter struct {
	http.ResponseWriter
	status      int
	wroteHeader bool
}

func (m *metricsWriter) WriteHeader(status int) {
	if !m.wroteHeader {
		m.status = status
		m.wroteHeader = true
	}
	m.ResponseWriter.WriteHeader(status)
}

func (m *metricsWriter) Write(b []byte) (int, error) {
	m.wroteHeader = true
	return m.ResponseWriter.Write(b)
}

func (m *metricsWriter) Hijack() (net.Conn, *bufio.ReadWriter, error) {
	hj, ok := m.ResponseWriter.(http.Hijacker)
	if !ok {
		return nil, nil, http.ErrNotSupported
	}
	return hj.Hijack()
}
