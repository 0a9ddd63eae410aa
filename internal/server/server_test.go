package server

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync"
	"sync/atomic"
	"testing"

	"github.com/KaramelBytes/chefscore-cli/internal/roster"
	"github.com/KaramelBytes/chefscore-cli/internal/transport"
	"go.uber.org/zap"
)

type stubSource struct {
	mu    sync.Mutex
	data  map[string]string
	err   error
	calls int32
}

func (s *stubSource) Fetch(ctx context.Context, week string) ([]byte, error) {
	atomic.AddInt32(&s.calls, 1)
	if s.err != nil {
		return nil, s.err
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	body, ok := s.data[week]
	if !ok {
		return nil, &transport.Error{Week: week, Source: "stub", Err: transport.ErrNotFound}
	}
	return []byte(body), nil
}

func (s *stubSource) WeekIDs() []string { return []string{"2024-W04", "2024-W05"} }

const week5 = "PLAYER,TOTAL_SCORE,CHEST_COUNT,Crypt,Arena\n" +
	"alice,100,5,60,40\n" +
	"Bob,200,10,50,150\n" +
	",1,1,1,1\n" +
	"carol,50,2,25,25\n"

func newTestServer(src *stubSource) http.Handler {
	return New(Config{
		Source: src,
		Weeks:  src,
		Roster: roster.DefaultOptions(),
		Logger: zap.NewNop().Sugar(),
	}).Routes()
}

func get(t *testing.T, h http.Handler, path string) *httptest.ResponseRecorder {
	t.Helper()
	req := httptest.NewRequest(http.MethodGet, path, nil)
	w := httptest.NewRecorder()
	h.ServeHTTP(w, req)
	return w
}

func TestRecordsSorted(t *testing.T) {
	h := newTestServer(&stubSource{data: map[string]string{"2024-W05": week5}})

	w := get(t, h, "/api/v1/weeks/2024-W05/records?sort=PLAYER&dir=asc")
	if w.Code != http.StatusOK {
		t.Fatalf("status = %d body=%s", w.Code, w.Body.String())
	}
	var body struct {
		Week       string `json:"week"`
		Collection struct {
			Records []struct {
				Name string `json:"name"`
			} `json:"records"`
			Rejected []roster.RowRejection `json:"rejected"`
		} `json:"collection"`
	}
	if err := json.Unmarshal(w.Body.Bytes(), &body); err != nil {
		t.Fatalf("decode: %v", err)
	}
	var names []string
	for _, r := range body.Collection.Records {
		names = append(names, r.Name)
	}
	if strings.Join(names, ",") != "alice,Bob,carol" {
		t.Fatalf("names = %v", names)
	}
	if len(body.Collection.Rejected) != 1 || body.Collection.Rejected[0].Line != 4 {
		t.Fatalf("rejected = %#v", body.Collection.Rejected)
	}

	w = get(t, h, "/api/v1/weeks/2024W5/records?sort=TOTAL_SCORE&dir=desc")
	if w.Code != http.StatusOK || !strings.Contains(w.Body.String(), `"week":"2024-W05"`) {
		t.Fatalf("status = %d body=%s", w.Code, w.Body.String())
	}
	if strings.Index(w.Body.String(), "Bob") > strings.Index(w.Body.String(), "alice") {
		t.Fatalf("Bob should be first when sorting by score desc: %s", w.Body.String())
	}

	if w := get(t, h, "/api/v1/weeks/2024-W05/records?sort=PLAYER&dir=sideways"); w.Code != http.StatusBadRequest {
		t.Fatalf("bad direction status = %d", w.Code)
	}
}

func TestAnalyticsEndpoints(t *testing.T) {
	h := newTestServer(&stubSource{data: map[string]string{"2024-W05": week5}})

	w := get(t, h, "/api/v1/weeks/2024-W05/clan")
	var clan struct {
		TotalPlayers int     `json:"totalPlayers"`
		TotalScore   float64 `json:"totalScore"`
	}
	if err := json.Unmarshal(w.Body.Bytes(), &clan); err != nil || clan.TotalPlayers != 3 || clan.TotalScore != 350 {
		t.Fatalf("clan = %+v (%v) body=%s", clan, err, w.Body.String())
	}

	w = get(t, h, "/api/v1/weeks/2024-W05/correlation")
	if !strings.Contains(w.Body.String(), `"keys":["Crypt","Arena"]`) {
		t.Fatalf("correlation body = %s", w.Body.String())
	}

	w = get(t, h, "/api/v1/weeks/2024-W05/curve")
	if !strings.Contains(w.Body.String(), `"equality"`) || !strings.Contains(w.Body.String(), `{"playersPercent":100,"scorePercent":100}`) {
		t.Fatalf("curve body = %s", w.Body.String())
	}

	w = get(t, h, "/api/v1/weeks/2024-W05/histogram?column=Crypt&buckets=3")
	var hist struct {
		Column  string `json:"column"`
		Buckets []struct {
			Count int `json:"count"`
		} `json:"buckets"`
	}
	if err := json.Unmarshal(w.Body.Bytes(), &hist); err != nil || len(hist.Buckets) != 3 || hist.Column != "Crypt" {
		t.Fatalf("histogram = %+v (%v)", hist, err)
	}
	if w := get(t, h, "/api/v1/weeks/2024-W05/histogram?buckets=0"); w.Code != http.StatusBadRequest {
		t.Fatalf("buckets=0 status = %d", w.Code)
	}

	w = get(t, h, "/api/v1/weeks/2024-W05/snapshot?histogram=Arena&buckets=4")
	if w.Code != http.StatusOK || !strings.Contains(w.Body.String(), `"histogramColumn":"Arena"`) {
		t.Fatalf("snapshot status=%d body=%s", w.Code, w.Body.String())
	}
}

func TestLoadErrorsMapToStatus(t *testing.T) {
	ok := &stubSource{data: map[string]string{"2024-W05": "PLAYER,TOTAL_SCORE\nAlice,1,2\n"}}
	h := newTestServer(ok)
	if w := get(t, h, "/api/v1/weeks/2024-W05/clan"); w.Code != http.StatusUnprocessableEntity {
		t.Fatalf("parse failure status = %d", w.Code)
	}
	if w := get(t, h, "/api/v1/weeks/2024-W09/clan"); w.Code != http.StatusNotFound {
		t.Fatalf("missing week status = %d", w.Code)
	}
	if w := get(t, h, "/api/v1/weeks/banana/clan"); w.Code != http.StatusBadRequest {
		t.Fatalf("invalid week status = %d", w.Code)
	}

	down := &stubSource{err: &transport.Error{Week: "2024-W05", StatusCode: 503, Err: errors.New("busy")}}
	if w := get(t, newTestServer(down), "/api/v1/weeks/2024-W05/clan"); w.Code != http.StatusBadGateway {
		t.Fatalf("transport failure status = %d", w.Code)
	}
}

func TestWeekIsFetchedOnce(t *testing.T) {
	src := &stubSource{data: map[string]string{"2024-W05": week5}}
	h := newTestServer(src)

	var wg sync.WaitGroup
	for i := 0; i < 8; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			get(t, h, "/api/v1/weeks/2024-W05/clan")
		}()
	}
	wg.Wait()
	get(t, h, "/api/v1/weeks/2024-W05/curve")
	if n := atomic.LoadInt32(&src.calls); n != 1 {
		t.Fatalf("fetches = %d, want 1", n)
	}
}

func TestEvictRefetches(t *testing.T) {
	src := &stubSource{data: map[string]string{"2024-W05": week5}}
	srv := New(Config{Source: src, Roster: roster.DefaultOptions()})
	h := srv.Routes()
	get(t, h, "/api/v1/weeks/2024-W05/clan")

	src.mu.Lock()
	src.data["2024-W05"] = "PLAYER,TOTAL_SCORE\nZed,1\n"
	src.mu.Unlock()

	req := httptest.NewRequest(http.MethodDelete, "/api/v1/weeks/2024W5/cache", nil)
	w := httptest.NewRecorder()
	h.ServeHTTP(w, req)
	if w.Code != http.StatusNoContent {
		t.Fatalf("evict status = %d", w.Code)
	}

	w = get(t, h, "/api/v1/weeks/2024-W05/records")
	if !strings.Contains(w.Body.String(), "Zed") {
		t.Fatalf("stale collection served: %s", w.Body.String())
	}
	w = get(t, h, "/api/v1/weeks")
	if !strings.Contains(w.Body.String(), `"weeks":["2024-W05"]`) {
		t.Fatalf("cached weeks = %s", w.Body.String())
	}
}

func TestEvictRejectsBadWeek(t *testing.T) {
	h := newTestServer(&stubSource{})
	req := httptest.NewRequest(http.MethodDelete, "/api/v1/weeks/2024-W60/cache", nil)
	w := httptest.NewRecorder()
	h.ServeHTTP(w, req)
	if w.Code != http.StatusBadRequest {
		t.Fatalf("evict bad week status = %d", w.Code)
	}
}

func TestMiscRoutes(t *testing.T) {
	h := newTestServer(&stubSource{})
	if w := get(t, h, "/healthz"); w.Code != http.StatusOK || !strings.Contains(w.Body.String(), `"status":"ok"`) {
		t.Fatalf("healthz = %d %s", w.Code, w.Body.String())
	}
	if w := get(t, h, "/api/v1/weeks"); !strings.Contains(w.Body.String(), `"2024-W04","2024-W05"`) {
		t.Fatalf("weeks = %s", w.Body.String())
	}
	w := get(t, h, "/api/v1/isoweek/2024/5")
	if !strings.Contains(w.Body.String(), `"startDate":"2024-01-29"`) || !strings.Contains(w.Body.String(), `"endDate":"2024-02-04"`) {
		t.Fatalf("isoweek = %s", w.Body.String())
	}
	if w := get(t, h, "/api/v1/isoweek/2024/60"); w.Code != http.StatusBadRequest {
		t.Fatalf("isoweek out of range status = %d", w.Code)
	}
	if w := get(t, h, "/metrics"); w.Code != http.StatusOK || !strings.Contains(w.Body.String(), "chefscore_http_requests_total") {
		t.Fatalf("metrics = %d", w.Code)
	}
}
