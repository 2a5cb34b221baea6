package httpapi

import (
	"net/http"
	"time"

	"github.com/gorilla/mux"

	"github.com/warpscheduler/core/boundary"
	"github.com/warpscheduler/core/logging"
	"github.com/warpscheduler/core/metrics"
)

// Server binds a boundary.Dispatcher to HTTP routes, mirroring the
// internal/marble.Service.Router() convention: one mux.Router, one set of
// middleware, one handler per route.
type Server struct {
	dispatcher *boundary.Dispatcher
	logger     *logging.Logger
	metrics    *metrics.Metrics
	service    string
	router     *mux.Router
}

// NewServer builds a Server and registers its routes. metricsClient may be
// nil, in which case the timing middleware is a no-op.
func NewServer(dispatcher *boundary.Dispatcher, logger *logging.Logger, metricsClient *metrics.Metrics, service string) *Server {
	s := &Server{dispatcher: dispatcher, logger: logger, metrics: metricsClient, service: service, router: mux.NewRouter()}
	s.registerRoutes()
	return s
}

// Router returns the underlying mux.Router, e.g. for http.ListenAndServe.
func (s *Server) Router() *mux.Router {
	return s.router
}

func (s *Server) registerRoutes() {
	s.router.Use(s.loggingMiddleware, s.recoveryMiddleware, s.timingMiddleware)

	s.router.HandleFunc("/jobs", s.handleCreateJob).Methods(http.MethodPost)
	s.router.HandleFunc("/jobs", s.handleQueryJobs).Methods(http.MethodGet)
	s.router.HandleFunc("/jobs/{id}", s.handleQueryJob).Methods(http.MethodGet)
	s.router.HandleFunc("/jobs/{id}", s.handleUpdateJob).Methods(http.MethodPut)
	s.router.HandleFunc("/jobs/{id}", s.handleDeleteJob).Methods(http.MethodDelete)
	s.router.HandleFunc("/jobs/{id}/execute", s.handleExecuteJob).Methods(http.MethodPost)
	s.router.HandleFunc("/jobs/{id}/evict", s.handleEvictJob).Methods(http.MethodPost)
	s.router.HandleFunc("/jobs/{id}/account", s.handleQueryJobAccount).Methods(http.MethodGet)
	s.router.HandleFunc("/accounts/{owner}", s.handleQueryAccount).Methods(http.MethodGet)
	s.router.HandleFunc("/config", s.handleQueryConfig).Methods(http.MethodGet)
	s.router.HandleFunc("/config", s.handleUpdateConfig).Methods(http.MethodPut)
}

// loggingMiddleware logs method, path, and latency, mirroring the prior service-automation design's
// marble.LoggingMiddleware.
func (s *Server) loggingMiddleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		start := time.Now()
		next.ServeHTTP(w, r)
		if s.logger != nil {
			s.logger.WithFields(map[string]interface{}{
				"method":  r.Method,
				"path":    r.URL.Path,
				"latency": time.Since(start).String(),
			}).Info("http request")
		}
	})
}

// recoveryMiddleware recovers from handler panics, mirroring the prior service-automation design's
// marble.RecoveryMiddleware.
func (s *Server) recoveryMiddleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		defer func() {
			if rec := recover(); rec != nil {
				if s.logger != nil {
					s.logger.WithFields(map[string]interface{}{"panic": rec}).Warn("recovered from handler panic")
				}
				writeError(w, http.StatusInternalServerError, "", "internal server error")
			}
		}()
		next.ServeHTTP(w, r)
	})
}

// timingMiddleware observes request latency against the route's registered
// path template, labeled the same as every other scheduler metric.
func (s *Server) timingMiddleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if s.metrics == nil {
			next.ServeHTTP(w, r)
			return
		}
		start := time.Now()
		next.ServeHTTP(w, r)
		operation := r.Method + " " + routeTemplate(r)
		s.metrics.RequestDuration.WithLabelValues(s.service, operation).Observe(time.Since(start).Seconds())
	})
}

func routeTemplate(r *http.Request) string {
	if route := mux.CurrentRoute(r); route != nil {
		if tmpl, err := route.GetPathTemplate(); err == nil {
			return tmpl
		}
	}
	return r.URL.Path
}
