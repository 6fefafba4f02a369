// Package dashboard derives the four dashboard views (stats, series,
// leaders, table) from a loaded dataset. Every builder is a pure function of
// (rows, resolved columns, params).
package dashboard

import (
	"context"
	"time"

	"github.com/rotisserie/eris"
	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"

	"github.com/sells-group/postmetrics/internal/columns"
	"github.com/sells-group/postmetrics/internal/dataset"
)

// Params are the derivation parameters that change a view's output.
type Params struct {
	TopN  int        `json:"top_n,omitempty" yaml:"top_n,omitempty"`
	Table TableQuery `json:"table" yaml:"table"`
}

// Views bundles every derived view of one dataset.
type Views struct {
	DatasetID string            `json:"dataset_id" yaml:"dataset_id"`
	Columns   columns.ColumnMap `json:"columns" yaml:"columns"`
	Stats     StatsView         `json:"stats" yaml:"stats"`
	Series    SeriesView        `json:"series" yaml:"series"`
	Leaders   LeadersView       `json:"leaders" yaml:"leaders"`
	Table     TableView         `json:"table" yaml:"table"`
}

// Build resolves columns once and computes the four views concurrently.
// The builders share nothing but the read-only rows and column map.
func Build(ctx context.Context, ds *dataset.Dataset, p Params) (*Views, error) {
	if ds == nil {
		return nil, eris.New("dashboard: nil dataset")
	}
	start := time.Now()

	cols := columns.Resolve(ds.Headers)
	v := &Views{DatasetID: ds.ID, Columns: cols}

	g, gctx := errgroup.WithContext(ctx)
	run := func(name string, fn func()) {
		g.Go(func() error {
			if err := gctx.Err(); err != nil {
				return eris.Wrapf(err, "dashboard: %s", name)
			}
			fn()
			return nil
		})
	}
	run("stats", func() { v.Stats = Stats(ds.Rows, cols) })
	run("series", func() { v.Series = Series(ds.Rows, cols) })
	run("leaders", func() { v.Leaders = Leaders(ds.Rows, cols, p.TopN) })
	run("table", func() { v.Table = Table(ds.Rows, cols, p.Table) })

	if err := g.Wait(); err != nil {
		return nil, err
	}

	zap.L().Debug("dashboard: views built",
		zap.String("dataset_id", ds.ID),
		zap.Int("rows", ds.Len()),
		zap.Duration("elapsed", time.Since(start)),
	)
	return v, nil
}
