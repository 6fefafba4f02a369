package dashboard

import (
	"sort"

	"github.com/sells-group/postmetrics/internal/columns"
	"github.com/sells-group/postmetrics/internal/dataset"
	"github.com/sells-group/postmetrics/internal/textnorm"
)

// SeriesView is the per-day time series. Every slice is aligned to Dates.
// Views is nil when the export has no view-count column.
type SeriesView struct {
	Dates        []string  `json:"dates" yaml:"dates"`
	Posts        []int     `json:"posts" yaml:"posts"`
	Interactions []float64 `json:"interactions" yaml:"interactions"`
	Views        []float64 `json:"views" yaml:"views"`
}

// Series buckets rows by the calendar day of their date cell. Rows whose
// date does not parse are skipped.
func Series(rows []dataset.Row, cols columns.ColumnMap) SeriesView {
	dateCol := cols.Header(columns.RoleDate)
	interCol := cols.Header(columns.RoleInteractions)
	viewsCol := cols.Header(columns.RoleViews)
	hasViews := cols.Has(columns.RoleViews)

	posts := make(map[string]int)
	inter := make(map[string]float64)
	var views map[string]float64
	if hasViews {
		views = make(map[string]float64)
	}

	for _, r := range rows {
		day, ok := DayKey(r[dateCol])
		if !ok {
			continue
		}
		posts[day]++
		inter[day] += textnorm.ParseLocaleNumber(r[interCol])
		if hasViews {
			views[day] += textnorm.ParseLocaleNumber(r[viewsCol])
		}
	}

	dates := unionKeys(posts, inter)
	out := SeriesView{
		Dates:        dates,
		Posts:        make([]int, len(dates)),
		Interactions: make([]float64, len(dates)),
	}
	if hasViews {
		out.Views = make([]float64, len(dates))
	}
	for i, d := range dates {
		out.Posts[i] = posts[d]
		out.Interactions[i] = inter[d]
		if hasViews {
			out.Views[i] = views[d]
		}
	}
	return out
}

// unionKeys returns the sorted union of the day keys of both metrics.
func unionKeys(posts map[string]int, inter map[string]float64) []string {
	set := make(map[string]struct{}, len(posts))
	for k := range posts {
		set[k] = struct{}{}
	}
	for k := range inter {
		set[k] = struct{}{}
	}
	keys := make([]string, 0, len(set))
	for k := range set {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	return keys
}
