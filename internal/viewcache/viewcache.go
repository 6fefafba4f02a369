// Package viewcache memoizes derived views per (dataset, params).
package viewcache

import (
	"context"
	"encoding/json"
	"strings"
	"sync/atomic"

	lru "github.com/hashicorp/golang-lru/v2"
	"github.com/rotisserie/eris"
	"go.uber.org/zap"
	"golang.org/x/sync/singleflight"

	"github.com/sells-group/postmetrics/internal/dashboard"
	"github.com/sells-group/postmetrics/internal/dataset"
)

// DefaultSize is the number of view sets kept when size <= 0.
const DefaultSize = 128

// Cache is a concurrent-safe LRU of built views. Concurrent misses on the
// same key share one build.
type Cache struct {
	views  *lru.Cache[string, *dashboard.Views]
	group  singleflight.Group
	size   int
	hits   atomic.Int64
	misses atomic.Int64
}

// Stats contains cache performance statistics.
type Stats struct {
	Entries    int     `json:"entries"`
	MaxEntries int     `json:"max_entries"`
	Hits       int64   `json:"hits"`
	Misses     int64   `json:"misses"`
	HitRate    float64 `json:"hit_rate"`
}

// New creates a Cache holding up to size view sets.
func New(size int) (*Cache, error) {
	if size <= 0 {
		size = DefaultSize
	}
	l, err := lru.New[string, *dashboard.Views](size)
	if err != nil {
		return nil, eris.Wrap(err, "viewcache: new lru")
	}
	return &Cache{views: l, size: size}, nil
}

// Normalize fills defaults and drops blank filters so equivalent params
// share a key.
func Normalize(p dashboard.Params) dashboard.Params {
	if p.TopN <= 0 {
		p.TopN = dashboard.DefaultTopN
	}
	if p.Table.PageSize <= 0 {
		p.Table.PageSize = dashboard.DefaultPageSize
	}
	if p.Table.Page <= 0 {
		p.Table.Page = 1
	}
	p.Table.SortBy = strings.TrimSpace(p.Table.SortBy)
	if p.Table.SortBy == "" {
		p.Table.Desc = false
	}

	var filters map[string]string
	for k, v := range p.Table.Filters {
		k, v = strings.TrimSpace(k), strings.TrimSpace(v)
		if k == "" || v == "" {
			continue
		}
		if filters == nil {
			filters = make(map[string]string)
		}
		filters[k] = v
	}
	p.Table.Filters = filters
	return p
}

// Key builds the cache key for a dataset ID and normalized params.
func Key(datasetID string, p dashboard.Params) (string, error) {
	b, err := json.Marshal(Normalize(p))
	if err != nil {
		return "", eris.Wrap(err, "viewcache: encode params")
	}
	return datasetID + "|" + string(b), nil
}

// Views returns the memoized views for ds and p, building them on a miss.
// Failed builds are not cached.
func (c *Cache) Views(ctx context.Context, ds *dataset.Dataset, p dashboard.Params) (*dashboard.Views, error) {
	if ds == nil {
		return nil, eris.New("viewcache: nil dataset")
	}
	p = Normalize(p)
	key, err := Key(ds.ID, p)
	if err != nil {
		return nil, err
	}

	if v, ok := c.views.Get(key); ok {
		c.hits.Add(1)
		return v, nil
	}
	c.misses.Add(1)

	res, err, shared := c.group.Do(key, func() (any, error) {
		v, err := dashboard.Build(ctx, ds, p)
		if err != nil {
			return nil, err
		}
		c.views.Add(key, v)
		return v, nil
	})
	if err != nil {
		return nil, err
	}
	if shared {
		zap.L().Debug("viewcache: shared build", zap.String("dataset_id", ds.ID))
	}
	return res.(*dashboard.Views), nil
}

// Invalidate drops every entry built from datasetID.
func (c *Cache) Invalidate(datasetID string) int {
	prefix := datasetID + "|"
	removed := 0
	for _, k := range c.views.Keys() {
		if strings.HasPrefix(k, prefix) && c.views.Remove(k) {
			removed++
		}
	}
	return removed
}

// Purge drops every entry.
func (c *Cache) Purge() {
	c.views.Purge()
}

// Stats returns cache performance statistics.
func (c *Cache) Stats() Stats {
	hits := c.hits.Load()
	misses := c.misses.Load()

	var hitRate float64
	if total := hits + misses; total > 0 {
		hitRate = float64(hits) / float64(total)
	}

	return Stats{
		Entries:    c.views.Len(),
		MaxEntries: c.size,
		Hits:       hits,
		Misses:     misses,
		HitRate:    hitRate,
	}
}
