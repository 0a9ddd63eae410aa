package transport

import (
	"context"
	"errors"
	"fmt"
	"io"
	"math/rand"
	"net"
	"net/http"
	"net/url"
	"strconv"
	"strings"
	"time"

	"go.uber.org/zap"
)

// WeekPlaceholder is replaced with the week identifier in a URL template.
const WeekPlaceholder = "{week}"

// maxBody bounds a single export download.
const maxBody = 32 << 20

// HTTPSource downloads exports from a URL template such as
// https://example.org/exports/{week}.csv.
type HTTPSource struct {
	httpClient       *http.Client
	template         string
	retryMaxAttempts int
	retryBaseDelay   time.Duration
	retryMaxDelay    time.Duration
	log              *zap.Logger
}

// HTTPOptions customizes timeouts and retry/backoff behavior. Zero values
// select the defaults.
type HTTPOptions struct {
	Timeout     time.Duration
	MaxAttempts int
	BaseDelay   time.Duration
	MaxDelay    time.Duration
	Logger      *zap.Logger
}

// NewHTTPSource validates template and returns a source.
func NewHTTPSource(template string, opt HTTPOptions) (*HTTPSource, error) {
	if !strings.Contains(template, WeekPlaceholder) {
		return nil, fmt.Errorf("source url %q must contain %s", template, WeekPlaceholder)
	}
	if _, err := url.Parse(strings.ReplaceAll(template, WeekPlaceholder, "2024-W01")); err != nil {
		return nil, fmt.Errorf("source url: %w", err)
	}
	if opt.Timeout <= 0 {
		opt.Timeout = 30 * time.Second
	}
	if opt.MaxAttempts <= 0 {
		opt.MaxAttempts = 3
	}
	if opt.BaseDelay <= 0 {
		opt.BaseDelay = 500 * time.Millisecond
	}
	if opt.MaxDelay <= 0 {
		opt.MaxDelay = 4 * time.Second
	}
	if opt.Logger == nil {
		opt.Logger = zap.NewNop()
	}
	return &HTTPSource{
		httpClient:       &http.Client{Timeout: opt.Timeout},
		template:         template,
		retryMaxAttempts: opt.MaxAttempts,
		retryBaseDelay:   opt.BaseDelay,
		retryMaxDelay:    opt.MaxDelay,
		log:              opt.Logger,
	}, nil
}

// URL returns the expanded URL for week.
func (s *HTTPSource) URL(week string) string {
	return strings.ReplaceAll(s.template, WeekPlaceholder, url.PathEscape(week))
}

// Fetch implements Source. 429, 5xx and network timeouts are retried with
// exponential backoff; Retry-After is honored. ctx cancellation aborts both
// in-flight requests and waits.
func (s *HTTPSource) Fetch(ctx context.Context, week string) ([]byte, error) {
	endpoint := s.URL(week)
	backoff := s.retryBaseDelay
	var lastErr *Error
	for attempt := 1; attempt <= s.retryMaxAttempts; attempt++ {
		if err := ctx.Err(); err != nil {
			return nil, &Error{Week: week, Source: endpoint, Err: err}
		}
		data, terr := s.fetchOnce(ctx, week, endpoint)
		if terr == nil {
			return data, nil
		}
		lastErr = terr
		if !s.retryable(terr) || attempt == s.retryMaxAttempts {
			break
		}
		wait := terr.RetryAfter
		if wait <= 0 {
			wait = withJitter(backoff)
			if wait > s.retryMaxDelay {
				wait = s.retryMaxDelay
			}
			backoff *= 2
		}
		s.log.Debug("retrying fetch",
			zap.String("week", week),
			zap.Int("attempt", attempt),
			zap.Int("status", terr.StatusCode),
			zap.Duration("wait", wait),
		)
		if err := sleep(ctx, wait); err != nil {
			return nil, &Error{Week: week, Source: endpoint, Err: err}
		}
	}
	return nil, lastErr
}

func (s *HTTPSource) fetchOnce(ctx context.Context, week, endpoint string) ([]byte, *Error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, endpoint, nil)
	if err != nil {
		return nil, &Error{Week: week, Source: endpoint, Err: fmt.Errorf("build request: %w", err)}
	}
	req.Header.Set("User-Agent", "chefscore-cli")
	resp, err := s.httpClient.Do(req)
	if err != nil {
		return nil, &Error{Week: week, Source: endpoint, Err: fmt.Errorf("http request: %w", err)}
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		body, _ := io.ReadAll(io.LimitReader(resp.Body, 512))
		terr := &Error{Week: week, Source: endpoint, StatusCode: resp.StatusCode}
		switch {
		case resp.StatusCode == http.StatusNotFound:
			terr.Err = ErrNotFound
		case len(strings.TrimSpace(string(body))) > 0:
			terr.Err = errors.New(strings.TrimSpace(string(body)))
		}
		if ra := resp.Header.Get("Retry-After"); ra != "" {
			if secs, err := parseRetryAfterSeconds(ra); err == nil && secs > 0 {
				terr.RetryAfter = time.Duration(secs) * time.Second
			}
		}
		return nil, terr
	}
	data, err := io.ReadAll(io.LimitReader(resp.Body, maxBody+1))
	if err != nil {
		return nil, &Error{Week: week, Source: endpoint, StatusCode: resp.StatusCode, Err: fmt.Errorf("read body: %w", err)}
	}
	if len(data) > maxBody {
		return nil, &Error{Week: week, Source: endpoint, StatusCode: resp.StatusCode, Err: fmt.Errorf("export exceeds %d bytes", maxBody)}
	}
	return data, nil
}

func (s *HTTPSource) retryable(e *Error) bool {
	if e.StatusCode != 0 {
		return e.Temporary()
	}
	return isRetryableNetErr(e.Err)
}

func isRetryableNetErr(err error) bool {
	if errors.Is(err, context.Canceled) || errors.Is(err, context.DeadlineExceeded) {
		return false
	}
	var nerr net.Error
	if errors.As(err, &nerr) && nerr.Timeout() {
		return true
	}
	// EOF or connection reset
	if errors.Is(err, io.EOF) || errors.Is(err, io.ErrUnexpectedEOF) {
		return true
	}
	return false
}

func sleep(ctx context.Context, d time.Duration) error {
	t := time.NewTimer(d)
	defer t.Stop()
	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-t.C:
		return nil
	}
}

// parseRetryAfterSeconds tries to interpret Retry-After header value as seconds or HTTP date.
func parseRetryAfterSeconds(v string) (int, error) {
	if s, err := strconv.Atoi(v); err == nil {
		return s, nil
	}
	if t, err := http.ParseTime(v); err == nil {
		d := time.Until(t)
		if d < 0 {
			d = 0
		}
		return int(d.Seconds()), nil
	}
	return 0, fmt.Errorf("invalid Retry-After: %q", v)
}

// withJitter returns a backoff duration with +/- 20% jitter applied.
func withJitter(d time.Duration) time.Duration {
	if d <= 0 {
		return 500 * time.Millisecond
	}
	f := 0.8 + rand.Float64()*0.4
	out := time.Duration(float64(d) * f)
	if out <= 0 {
		return d
	}
	return out
}
