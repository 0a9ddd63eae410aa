package server

import (
	"errors"
	"net/http"
	"strconv"

	"github.com/KaramelBytes/chefscore-cli/internal/analysis"
	"github.com/KaramelBytes/chefscore-cli/internal/isoweek"
	"github.com/KaramelBytes/chefscore-cli/internal/ranking"
	"github.com/KaramelBytes/chefscore-cli/internal/roster"
	"github.com/KaramelBytes/chefscore-cli/internal/transport"
	"github.com/go-chi/chi/v5"
)

// loadWeek resolves the {week} URL parameter to a collection, writing the
// error response itself when it fails.
func (s *Server) loadWeek(w http.ResponseWriter, r *http.Request) (string, *roster.Collection, bool) {
	id, err := isoweek.ParseID(chi.URLParam(r, "week"))
	if err != nil {
		s.errorResponse(w, http.StatusBadRequest, err.Error())
		return "", nil, false
	}
	week := id.String()
	c, err := s.cache.get(r.Context(), week)
	if err != nil {
		s.writeLoadError(w, week, err)
		return "", nil, false
	}
	return week, c, true
}

func (s *Server) writeLoadError(w http.ResponseWriter, week string, err error) {
	var pe *roster.ParseError
	var te *transport.Error
	switch {
	case errors.Is(err, transport.ErrNotFound):
		s.errorResponse(w, http.StatusNotFound, "week "+week+" not found")
	case errors.As(err, &pe):
		s.logger.Warnw("parse failure", "week", week, "line", pe.Line, "error", err)
		s.errorResponse(w, http.StatusUnprocessableEntity, err.Error())
	case errors.As(err, &te):
		s.logger.Errorw("transport failure", "week", week, "status", te.StatusCode, "error", err)
		s.errorResponse(w, http.StatusBadGateway, "could not fetch week "+week)
	default:
		s.logger.Errorw("load week", "week", week, "error", err)
		s.errorResponse(w, http.StatusInternalServerError, "internal error")
	}
}

func intQuery(r *http.Request, key string, def int) (int, error) {
	v := r.URL.Query().Get(key)
	if v == "" {
		return def, nil
	}
	i, err := strconv.Atoi(v)
	if err != nil || i < 1 || i > 1000 {
		return 0, errors.New("invalid " + key + ": " + v)
	}
	return i, nil
}

// GetRecords returns the week's records, optionally sorted with ?sort=&dir=.
func (s *Server) GetRecords(w http.ResponseWriter, r *http.Request) {
	week, c, ok := s.loadWeek(w, r)
	if !ok {
		return
	}
	if col := r.URL.Query().Get("sort"); col != "" {
		dir, err := ranking.ParseDirection(r.URL.Query().Get("dir"))
		if err != nil {
			s.errorResponse(w, http.StatusBadRequest, err.Error())
			return
		}
		c = c.Sorted(ranking.Spec{Column: col, Direction: dir}, s.ranking)
	}
	s.jsonResponse(w, http.StatusOK, map[string]interface{}{"week": week, "collection": c})
}

// GetSnapshot returns every derived view of the week.
func (s *Server) GetSnapshot(w http.ResponseWriter, r *http.Request) {
	week, c, ok := s.loadWeek(w, r)
	if !ok {
		return
	}
	opt := s.snapshot
	if col := r.URL.Query().Get("histogram"); col != "" {
		opt.HistogramColumn = col
	}
	n, err := intQuery(r, "buckets", opt.Buckets)
	if err != nil {
		s.errorResponse(w, http.StatusBadRequest, err.Error())
		return
	}
	opt.Buckets = n
	s.jsonResponse(w, http.StatusOK, map[string]interface{}{"week": week, "snapshot": analysis.BuildSnapshot(c, opt)})
}

// GetClanMetrics returns the week's aggregate totals.
func (s *Server) GetClanMetrics(w http.ResponseWriter, r *http.Request) {
	_, c, ok := s.loadWeek(w, r)
	if !ok {
		return
	}
	s.jsonResponse(w, http.StatusOK, analysis.Aggregate(c.Records(), c.CategoryKeys()))
}

// GetCorrelation returns the category correlation matrix.
func (s *Server) GetCorrelation(w http.ResponseWriter, r *http.Request) {
	_, c, ok := s.loadWeek(w, r)
	if !ok {
		return
	}
	s.jsonResponse(w, http.StatusOK, analysis.Correlate(c.Records(), c.CategoryKeys()))
}

// GetCurve returns the contribution curve with its equality baseline.
func (s *Server) GetCurve(w http.ResponseWriter, r *http.Request) {
	_, c, ok := s.loadWeek(w, r)
	if !ok {
		return
	}
	s.jsonResponse(w, http.StatusOK, map[string]interface{}{
		"points":   analysis.ContributionCurve(c.Records()),
		"equality": analysis.EqualityLine(),
	})
}

// GetHistogram bins ?column= (default from config) into ?buckets= buckets.
func (s *Server) GetHistogram(w http.ResponseWriter, r *http.Request) {
	_, c, ok := s.loadWeek(w, r)
	if !ok {
		return
	}
	col := r.URL.Query().Get("column")
	if col == "" {
		col = s.snapshot.HistogramColumn
	}
	n, err := intQuery(r, "buckets", s.snapshot.Buckets)
	if err != nil {
		s.errorResponse(w, http.StatusBadRequest, err.Error())
		return
	}
	s.jsonResponse(w, http.StatusOK, map[string]interface{}{
		"column":  col,
		"buckets": analysis.Histogram(c.Records(), col, n),
	})
}

// GetISOWeek returns the Monday..Sunday range of a week.
func (s *Server) GetISOWeek(w http.ResponseWriter, r *http.Request) {
	year, errY := strconv.Atoi(chi.URLParam(r, "year"))
	week, errW := strconv.Atoi(chi.URLParam(r, "week"))
	if errY != nil || errW != nil {
		s.errorResponse(w, http.StatusBadRequest, "year and week must be integers")
		return
	}
	rng, err := isoweek.WeekDateRange(week, year)
	if err != nil {
		s.errorResponse(w, http.StatusBadRequest, err.Error())
		return
	}
	s.jsonResponse(w, http.StatusOK, map[string]interface{}{
		"id":        isoweek.ID{Year: year, Week: week}.String(),
		"startDate": rng.Start.Format("2006-01-02"),
		"endDate":   rng.End.Format("2006-01-02"),
	})
}
