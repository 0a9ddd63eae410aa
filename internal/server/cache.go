package server

import (
	"context"
	"errors"
	"sync"
	"time"

	"github.com/KaramelBytes/chefscore-cli/internal/roster"
	"github.com/KaramelBytes/chefscore-cli/internal/transport"
	"go.uber.org/zap"
	"golang.org/x/sync/singleflight"
)

// weekCache holds one ingested collection per week. Concurrent misses for
// the same week share a single fetch.
type weekCache struct {
	source transport.Source
	opt    roster.Options
	log    *zap.SugaredLogger

	mu    sync.RWMutex
	items map[string]*roster.Collection
	group singleflight.Group
}

func newWeekCache(src transport.Source, opt roster.Options, log *zap.SugaredLogger) *weekCache {
	return &weekCache{source: src, opt: opt, log: log, items: make(map[string]*roster.Collection)}
}

func (c *weekCache) get(ctx context.Context, week string) (*roster.Collection, error) {
	c.mu.RLock()
	col, ok := c.items[week]
	c.mu.RUnlock()
	if ok {
		cacheHits.Inc()
		return col, nil
	}
	cacheMisses.Inc()

	v, err, _ := c.group.Do(week, func() (any, error) {
		c.mu.RLock()
		cached, ok := c.items[week]
		c.mu.RUnlock()
		if ok {
			return cached, nil
		}
		start := time.Now()
		// shared by all waiters; not bound to the first caller's ctx
		data, err := c.source.Fetch(context.WithoutCancel(ctx), week)
		fetchDuration.Observe(time.Since(start).Seconds())
		if err != nil {
			ingestFailures.WithLabelValues("transport").Inc()
			return nil, err
		}
		col, err := roster.IngestBytes(data, c.opt)
		if err != nil {
			ingestFailures.WithLabelValues("parse").Inc()
			return nil, err
		}
		if n := len(col.Rejected()); n > 0 {
			rowsRejected.Add(float64(n))
			c.log.Warnw("rows rejected", "week", week, "count", n)
		}
		c.mu.Lock()
		c.items[week] = col
		cachedWeeks.Set(float64(len(c.items)))
		c.mu.Unlock()
		return col, nil
	})
	if err != nil {
		return nil, err
	}
	col, ok = v.(*roster.Collection)
	if !ok {
		return nil, errors.New("unexpected cache value")
	}
	return col, nil
}

// weeks lists cached week identifiers.
func (c *weekCache) weeks() []string {
	c.mu.RLock()
	defer c.mu.RUnlock()
	out := make([]string, 0, len(c.items))
	for k := range c.items {
		out = append(out, k)
	}
	return out
}

func (c *weekCache) invalidate(week string) {
	c.mu.Lock()
	delete(c.items, week)
	cachedWeeks.Set(float64(len(c.items)))
	c.mu.Unlock()
	c.group.Forget(week)
}
