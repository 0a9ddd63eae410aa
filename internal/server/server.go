// Package server exposes week collections and their analytics as a JSON
// API. The only write is evicting a cached week.
package server

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"sort"
	"strconv"
	"time"

	"github.com/KaramelBytes/chefscore-cli/internal/analysis"
	"github.com/KaramelBytes/chefscore-cli/internal/isoweek"
	"github.com/KaramelBytes/chefscore-cli/internal/ranking"
	"github.com/KaramelBytes/chefscore-cli/internal/roster"
	"github.com/KaramelBytes/chefscore-cli/internal/transport"
	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/cors"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"go.uber.org/zap"
)

// WeekLister enumerates the weeks a source can serve.
type WeekLister interface {
	WeekIDs() []string
}

// Config wires a Server.
type Config struct {
	Source transport.Source
	// Weeks is optional; without it /api/v1/weeks lists cached weeks.
	Weeks          WeekLister
	Roster         roster.Options
	Ranking        ranking.Options
	Snapshot       analysis.SnapshotOptions
	AllowedOrigins []string
	Logger         *zap.SugaredLogger
}

// Server serves the API.
type Server struct {
	cache    *weekCache
	weeks    WeekLister
	ranking  ranking.Options
	snapshot analysis.SnapshotOptions
	origins  []string
	logger   *zap.SugaredLogger
}

// New builds a server from cfg.
func New(cfg Config) *Server {
	log := cfg.Logger
	if log == nil {
		log = zap.NewNop().Sugar()
	}
	if cfg.Snapshot.HistogramColumn == "" {
		cfg.Snapshot.HistogramColumn = roster.ColTotalScore
	}
	if cfg.Snapshot.Buckets < 1 {
		cfg.Snapshot.Buckets = analysis.DefaultBuckets
	}
	origins := cfg.AllowedOrigins
	if len(origins) == 0 {
		origins = []string{"*"}
	}
	return &Server{
		cache:    newWeekCache(cfg.Source, cfg.Roster, log),
		weeks:    cfg.Weeks,
		ranking:  cfg.Ranking,
		snapshot: cfg.Snapshot,
		origins:  origins,
		logger:   log,
	}
}

// Routes returns the HTTP handler.
func (s *Server) Routes() http.Handler {
	r := chi.NewRouter()
	r.Use(middleware.RequestID)
	r.Use(middleware.Recoverer)
	r.Use(s.instrument)
	r.Use(cors.Handler(cors.Options{
		AllowedOrigins: s.origins,
		AllowedMethods: []string{http.MethodGet, http.MethodDelete, http.MethodOptions},
		AllowedHeaders: []string{"Accept", "Content-Type"},
		MaxAge:         300,
	}))

	r.Get("/healthz", s.Health)
	r.Handle("/metrics", promhttp.Handler())

	r.Route("/api/v1", func(r chi.Router) {
		r.Get("/weeks", s.ListWeeks)
		r.Route("/weeks/{week}", func(r chi.Router) {
			r.Get("/records", s.GetRecords)
			r.Get("/snapshot", s.GetSnapshot)
			r.Get("/clan", s.GetClanMetrics)
			r.Get("/correlation", s.GetCorrelation)
			r.Get("/curve", s.GetCurve)
			r.Get("/histogram", s.GetHistogram)
			r.Delete("/cache", s.EvictWeek)
		})
		r.Get("/isoweek/{year}/{week}", s.GetISOWeek)
	})
	return r
}

// Invalidate drops a cached week so the next request refetches it.
func (s *Server) Invalidate(week string) { s.cache.invalidate(week) }

// EvictWeek drops {week} from the cache; the next read refetches it.
func (s *Server) EvictWeek(w http.ResponseWriter, r *http.Request) {
	id, err := isoweek.ParseID(chi.URLParam(r, "week"))
	if err != nil {
		s.errorResponse(w, http.StatusBadRequest, err.Error())
		return
	}
	s.Invalidate(id.String())
	s.logger.Infow("week evicted", "week", id.String())
	w.WriteHeader(http.StatusNoContent)
}

// ListenAndServe runs until ctx is cancelled, then shuts down gracefully.
func (s *Server) ListenAndServe(ctx context.Context, addr string) error {
	srv := &http.Server{
		Addr:              addr,
		Handler:           s.Routes(),
		ReadHeaderTimeout: 10 * time.Second,
	}
	errCh := make(chan error, 1)
	go func() {
		s.logger.Infow("listening", "addr", addr)
		errCh <- srv.ListenAndServe()
	}()
	select {
	case err := <-errCh:
		if errors.Is(err, http.ErrServerClosed) {
			return nil
		}
		return err
	case <-ctx.Done():
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		return srv.Shutdown(shutdownCtx)
	}
}

func (s *Server) instrument(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		ww := middleware.NewWrapResponseWriter(w, r.ProtoMajor)
		next.ServeHTTP(ww, r)
		route := "unmatched"
		if rc := chi.RouteContext(r.Context()); rc != nil && rc.RoutePattern() != "" {
			route = rc.RoutePattern()
		}
		status := ww.Status()
		if status == 0 {
			status = http.StatusOK
		}
		httpRequests.WithLabelValues(route, strconv.Itoa(status)).Inc()
	})
}

// Health check endpoint
func (s *Server) Health(w http.ResponseWriter, r *http.Request) {
	s.jsonResponse(w, http.StatusOK, map[string]interface{}{
		"status":    "ok",
		"timestamp": time.Now().UTC(),
	})
}

// ListWeeks returns the known week identifiers, oldest first.
func (s *Server) ListWeeks(w http.ResponseWriter, r *http.Request) {
	var weeks []string
	if s.weeks != nil {
		weeks = s.weeks.WeekIDs()
	} else {
		weeks = s.cache.weeks()
		sort.Strings(weeks)
	}
	if weeks == nil {
		weeks = []string{}
	}
	s.jsonResponse(w, http.StatusOK, map[string]interface{}{"weeks": weeks})
}

func (s *Server) jsonResponse(w http.ResponseWriter, status int, data interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(data); err != nil {
		s.logger.Errorw("encode response", "error", err)
	}
}

func (s *Server) errorResponse(w http.ResponseWriter, status int, message string) {
	s.jsonResponse(w, status, map[string]string{"error": message})
}
