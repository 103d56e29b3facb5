// Package server exposes a dashboard session over local HTTP: the current
// view as JSON, hover and refresh actions, and Prometheus metrics.
package server

import (
	"context"
	"encoding/json"
	"net/http"
	"strconv"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/ziris-labs/ziris/internal/dashboard"
	"github.com/ziris-labs/ziris/internal/errors"
	"github.com/ziris-labs/ziris/internal/highlight"
	"github.com/ziris-labs/ziris/internal/hover"
	"github.com/ziris-labs/ziris/internal/logger"
	"github.com/ziris-labs/ziris/internal/notify"
	"github.com/ziris-labs/ziris/internal/refresh"
	"github.com/ziris-labs/ziris/internal/series"
)

// DefaultRequestTimeout bounds every request, including a waited refresh.
const DefaultRequestTimeout = 15 * time.Second

// shutdownTimeout is how long in-flight requests get once the context ends.
const shutdownTimeout = 5 * time.Second

// Surface is the part of a dashboard session the server reads and drives.
type Surface interface {
	View() dashboard.View
	Stats() refresh.Stats
	PushReceived() int64
	RequestRefresh(t refresh.Trigger)
	RefreshNow(ctx context.Context) error
	SyncHover(index int, origin hover.ChartID)
	ClearHover(origin hover.ChartID)
}

// Option configures a Server.
type Option func(*Server)

// WithLogger sets the server logger.
func WithLogger(l logger.Logger) Option {
	return func(s *Server) { s.log = l }
}

// WithRequestTimeout overrides DefaultRequestTimeout.
func WithRequestTimeout(d time.Duration) Option {
	return func(s *Server) { s.timeout = d }
}

// Server serves one session.
type Server struct {
	surface  Surface
	log      logger.Logger
	timeout  time.Duration
	registry *prometheus.Registry
	requests *prometheus.CounterVec
}

// New builds a server for surface and registers its metrics on a private
// registry.
func New(surface Surface, opts ...Option) *Server {
	s := &Server{
		surface: surface,
		timeout: DefaultRequestTimeout,
	}
	for _, opt := range opts {
		opt(s)
	}
	s.log = logger.OrDefault(s.log)
	s.registry = prometheus.NewRegistry()
	s.requests = prometheus.NewCounterVec(prometheus.CounterOpts{
		Name: "ziris_http_requests_total",
		Help: "HTTP requests served, by route and status code.",
	}, []string{"route", "code"})
	s.registry.MustRegister(s.requests)
	s.registry.MustRegister(newSessionCollectors(surface)...)
	return s
}

// Registry returns the metrics registry.
func (s *Server) Registry() *prometheus.Registry {
	return s.registry
}

// Handler returns the HTTP routes.
func (s *Server) Handler() http.Handler {
	r := chi.NewRouter()
	r.Use(middleware.RequestID)
	r.Use(middleware.Recoverer)
	r.Use(middleware.Timeout(s.timeout))
	r.Use(s.count)

	r.Route("/api", func(r chi.Router) {
		r.Get("/view", s.handleView)
		r.Get("/series", s.handleSeries)
		r.Get("/notifications", s.handleNotifications)
		r.Get("/thresholds", s.handleThresholds)
		r.Post("/hover", s.handleHover)
		r.Post("/refresh", s.handleRefresh)
	})
	r.Handle("/metrics", promhttp.HandlerFor(s.registry, promhttp.HandlerOpts{}))
	return r
}

// ListenAndServe serves on addr until ctx is cancelled, then drains
// in-flight requests.
func (s *Server) ListenAndServe(ctx context.Context, addr string) error {
	srv := &http.Server{
		Addr:              addr,
		Handler:           s.Handler(),
		ReadHeaderTimeout: 5 * time.Second,
	}

	errCh := make(chan error, 1)
	go func() {
		s.log.Info("listening on http://%s", addr)
		errCh <- srv.ListenAndServe()
	}()

	select {
	case err := <-errCh:
		if err == http.ErrServerClosed {
			return nil
		}
		return errors.WrapWithCode(err, errors.ErrConfig,
			"Couldn't listen on "+addr,
			"Pick a free address with --addr or serve.addr in .ziris.yaml.")
	case <-ctx.Done():
		shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
		defer cancel()
		return srv.Shutdown(shutdownCtx)
	}
}

// count records every request under its route pattern.
func (s *Server) count(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		ww := middleware.NewWrapResponseWriter(w, r.ProtoMajor)
		next.ServeHTTP(ww, r)

		route := r.URL.Path
		if rctx := chi.RouteContext(r.Context()); rctx != nil && rctx.RoutePattern() != "" {
			route = rctx.RoutePattern()
		}
		status := ww.Status()
		if status == 0 {
			status = http.StatusOK
		}
		s.requests.WithLabelValues(route, strconv.Itoa(status)).Inc()
	})
}

type seriesResponse struct {
	Series   series.Contents     `json:"series"`
	Channels []highlight.Channel `json:"channels"`
}

type hoverRequest struct {
	Index  *int          `json:"index"`
	Origin hover.ChartID `json:"origin"`
}

type errorResponse struct {
	OK      bool   `json:"ok"`
	Code    string `json:"code"`
	Message string `json:"message"`
}

func (s *Server) handleView(w http.ResponseWriter, _ *http.Request) {
	writeJSON(w, http.StatusOK, s.surface.View())
}

func (s *Server) handleSeries(w http.ResponseWriter, _ *http.Request) {
	v := s.surface.View()
	writeJSON(w, http.StatusOK, seriesResponse{
		Series:   v.Series,
		Channels: highlight.ResolveAll(v.Series, v.Thresholds),
	})
}

func (s *Server) handleNotifications(w http.ResponseWriter, _ *http.Request) {
	v := s.surface.View()
	items := v.Notifications
	if items == nil {
		items = []notify.Event{}
	}
	writeJSON(w, http.StatusOK, items)
}

func (s *Server) handleThresholds(w http.ResponseWriter, _ *http.Request) {
	writeJSON(w, http.StatusOK, s.surface.View().Thresholds)
}

// handleHover sets the active index from origin, or clears it when index
// is absent.
func (s *Server) handleHover(w http.ResponseWriter, r *http.Request) {
	var req hoverRequest
	dec := json.NewDecoder(r.Body)
	dec.DisallowUnknownFields()
	if err := dec.Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, errors.ErrDecode, "invalid hover body: "+err.Error())
		return
	}
	if !knownChart(req.Origin) {
		writeError(w, http.StatusBadRequest, errors.ErrDecode, "unknown chart "+strconv.Quote(string(req.Origin)))
		return
	}

	if req.Index == nil {
		s.surface.ClearHover(req.Origin)
	} else {
		s.surface.SyncHover(*req.Index, req.Origin)
	}
	w.WriteHeader(http.StatusNoContent)
}

// handleRefresh requests a debounced refresh, or with ?wait=true runs one
// immediately and reports its outcome.
func (s *Server) handleRefresh(w http.ResponseWriter, r *http.Request) {
	if wait, _ := strconv.ParseBool(r.URL.Query().Get("wait")); !wait {
		s.surface.RequestRefresh(refresh.TriggerUser)
		writeJSON(w, http.StatusAccepted, map[string]any{"ok": true})
		return
	}

	if err := s.surface.RefreshNow(r.Context()); err != nil {
		s.log.Warn("refresh via http failed: %s", errors.Message(err))
		writeError(w, http.StatusBadGateway, errors.Code(err, errors.ErrNetwork), errors.Message(err))
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{"ok": true, "seq": s.surface.View().Seq})
}

func knownChart(id hover.ChartID) bool {
	for _, known := range hover.ChartIDs {
		if id == known {
			return true
		}
	}
	return false
}

func writeJSON(w http.ResponseWriter, status int, payload any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(payload)
}

func writeError(w http.ResponseWriter, status int, code, message string) {
	writeJSON(w, status, errorResponse{OK: false, Code: code, Message: message})
}
