package transport

import (
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"strings"
	"sync/atomic"
	"testing"
	"time"
)

func sequenceServer(t *testing.T, statuses []int, headers []http.Header, body string) (*httptest.Server, *int32) {
	t.Helper()
	var idx int32
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.Method != http.MethodGet || r.URL.Path != "/exports/2024-W05.csv" {
			http.NotFound(w, r)
			return
		}
		i := int(atomic.AddInt32(&idx, 1)) - 1
		if i >= len(statuses) {
			i = len(statuses) - 1
		}
		if headers != nil && i < len(headers) {
			for k, vals := range headers[i] {
				for _, v := range vals {
					w.Header().Add(k, v)
				}
			}
		}
		w.WriteHeader(statuses[i])
		if statuses[i] == http.StatusOK {
			_, _ = w.Write([]byte(body))
			return
		}
		_, _ = w.Write([]byte("upstream busy"))
	}))
	t.Cleanup(srv.Close)
	return srv, &idx
}

func newSource(t *testing.T, base string, attempts int) *HTTPSource {
	t.Helper()
	s, err := NewHTTPSource(base+"/exports/{week}.csv", HTTPOptions{
		Timeout:     2 * time.Second,
		MaxAttempts: attempts,
		BaseDelay:   5 * time.Millisecond,
		MaxDelay:    20 * time.Millisecond,
	})
	if err != nil {
		t.Fatalf("NewHTTPSource: %v", err)
	}
	return s
}

func TestHTTPSourceRetriesTransientFailures(t *testing.T) {
	srv, calls := sequenceServer(t, []int{503, 429, 200}, []http.Header{{}, {"Retry-After": {"0"}}, {}}, "PLAYER\nAlice\n")
	s := newSource(t, srv.URL, 3)

	data, err := s.Fetch(context.Background(), "2024-W05")
	if err != nil {
		t.Fatalf("Fetch: %v", err)
	}
	if string(data) != "PLAYER\nAlice\n" {
		t.Fatalf("body = %q", data)
	}
	if atomic.LoadInt32(calls) != 3 {
		t.Fatalf("calls = %d, want 3", *calls)
	}
}

func TestHTTPSourceGivesUpAfterMaxAttempts(t *testing.T) {
	srv, calls := sequenceServer(t, []int{500}, nil, "")
	s := newSource(t, srv.URL, 2)

	_, err := s.Fetch(context.Background(), "2024-W05")
	var terr *Error
	if !errors.As(err, &terr) {
		t.Fatalf("error %T is not *transport.Error", err)
	}
	if terr.StatusCode != 500 || terr.Week != "2024-W05" {
		t.Fatalf("unexpected error: %#v", terr)
	}
	if !strings.Contains(err.Error(), "upstream busy") {
		t.Fatalf("error should carry the body: %v", err)
	}
	if atomic.LoadInt32(calls) != 2 {
		t.Fatalf("calls = %d, want 2", *calls)
	}
}

func TestHTTPSourceNotFoundIsNotRetried(t *testing.T) {
	srv, _ := sequenceServer(t, []int{200}, nil, "x")
	s := newSource(t, srv.URL, 3)

	_, err := s.Fetch(context.Background(), "2019-W01")
	if !errors.Is(err, ErrNotFound) {
		t.Fatalf("err = %v, want ErrNotFound", err)
	}
}

func TestHTTPSourceHonorsCancellation(t *testing.T) {
	srv, _ := sequenceServer(t, []int{503}, []http.Header{{"Retry-After": {"5"}}}, "")
	s := newSource(t, srv.URL, 3)

	ctx, cancel := context.WithTimeout(context.Background(), 100*time.Millisecond)
	defer cancel()
	start := time.Now()
	_, err := s.Fetch(ctx, "2024-W05")
	if !errors.Is(err, context.DeadlineExceeded) {
		t.Fatalf("err = %v, want deadline exceeded", err)
	}
	if time.Since(start) > 2*time.Second {
		t.Fatalf("Fetch ignored cancellation")
	}
}

func TestNewHTTPSourceRequiresPlaceholder(t *testing.T) {
	if _, err := NewHTTPSource("https://example.org/export.csv", HTTPOptions{}); err == nil {
		t.Fatalf("expected error for template without %s", WeekPlaceholder)
	}
}

func TestFileSource(t *testing.T) {
	dir := t.TempDir()
	if err := os.WriteFile(filepath.Join(dir, "2024-W05.xlsx"), []byte("PK"), 0o644); err != nil {
		t.Fatalf("write: %v", err)
	}
	s := FileSource{Dir: dir}
	data, err := s.Fetch(context.Background(), "2024-W05")
	if err != nil || string(data) != "PK" {
		t.Fatalf("Fetch = %q, %v", data, err)
	}
	if _, err := s.Fetch(context.Background(), "2024-W06"); !errors.Is(err, ErrNotFound) {
		t.Fatalf("missing week err = %v", err)
	}
	if _, err := s.Fetch(context.Background(), "../etc/passwd"); err == nil || errors.Is(err, ErrNotFound) {
		t.Fatalf("path traversal should be rejected, got %v", err)
	}
}
