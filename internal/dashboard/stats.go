package dashboard

import (
	"strings"

	"github.com/sells-group/postmetrics/internal/columns"
	"github.com/sells-group/postmetrics/internal/dataset"
	"github.com/sells-group/postmetrics/internal/textnorm"
)

// StatsView holds the headline counters.
type StatsView struct {
	Accounts     int      `json:"accounts" yaml:"accounts" csv:"accounts"`
	Posts        int      `json:"posts" yaml:"posts" csv:"posts"`
	Interactions float64  `json:"interactions" yaml:"interactions" csv:"interactions"`
	Views        *float64 `json:"views" yaml:"views" csv:"views,omitempty"`
}

// Stats counts posts and distinct account names and sums interactions and
// views. Accounts compares trimmed raw names, not CleanID keys. Views is nil
// when the export has no view-count column.
func Stats(rows []dataset.Row, cols columns.ColumnMap) StatsView {
	nameCol := cols.Header(columns.RoleName)
	interCol := cols.Header(columns.RoleInteractions)
	viewsCol := cols.Header(columns.RoleViews)
	hasViews := cols.Has(columns.RoleViews)

	names := make(map[string]struct{})
	var inter, views float64
	for _, r := range rows {
		if n := strings.TrimSpace(r[nameCol]); n != "" {
			names[n] = struct{}{}
		}
		inter += textnorm.ParseLocaleNumber(r[interCol])
		if hasViews {
			views += textnorm.ParseLocaleNumber(r[viewsCol])
		}
	}

	out := StatsView{
		Accounts:     len(names),
		Posts:        len(rows),
		Interactions: inter,
	}
	if hasViews {
		out.Views = &views
	}
	return out
}
