package dashboard

import (
	"sort"
	"strings"
	"time"

	"github.com/sells-group/postmetrics/internal/columns"
	"github.com/sells-group/postmetrics/internal/dataset"
	"github.com/sells-group/postmetrics/internal/platform"
	"github.com/sells-group/postmetrics/internal/textnorm"
)

// Table defaults.
const (
	DefaultPageSize = 10
	PlatformColumn  = "platform"
)

// TableQuery selects, orders and pages table rows. Filter and sort keys may
// be a CSV header, a role name ("party", "views", ...) or PlatformColumn.
type TableQuery struct {
	Filters  map[string]string `json:"filters,omitempty" yaml:"filters,omitempty"`
	SortBy   string            `json:"sort_by,omitempty" yaml:"sort_by,omitempty"`
	Desc     bool              `json:"desc,omitempty" yaml:"desc,omitempty"`
	Page     int               `json:"page,omitempty" yaml:"page,omitempty"`
	PageSize int               `json:"page_size,omitempty" yaml:"page_size,omitempty"`
}

// TableRow projects a row onto its resolved roles. Raw keeps every column.
type TableRow struct {
	Name         string      `json:"name" yaml:"name" csv:"name"`
	Date         string      `json:"date" yaml:"date" csv:"date"`
	Platform     string      `json:"platform" yaml:"platform" csv:"platform"`
	URL          string      `json:"url" yaml:"url" csv:"url"`
	Party        string      `json:"party" yaml:"party" csv:"party"`
	State        string      `json:"state" yaml:"state" csv:"state"`
	Role         string      `json:"role" yaml:"role" csv:"role"`
	Ideology     string      `json:"ideology" yaml:"ideology" csv:"ideology"`
	Text         string      `json:"text" yaml:"text" csv:"text"`
	Interactions float64     `json:"interactions" yaml:"interactions" csv:"interactions"`
	Views        float64     `json:"views" yaml:"views" csv:"views"`
	Likes        float64     `json:"likes" yaml:"likes" csv:"likes"`
	Comments     float64     `json:"comments" yaml:"comments" csv:"comments"`
	Raw          dataset.Row `json:"raw" yaml:"raw" csv:"-"`
}

// TableView is one page of the filtered, sorted rows. Total counts every
// row that passed the filters.
type TableView struct {
	Rows     []TableRow `json:"rows" yaml:"rows"`
	Total    int        `json:"total" yaml:"total"`
	Page     int        `json:"page" yaml:"page"`
	PageSize int        `json:"page_size" yaml:"page_size"`
	Pages    int        `json:"pages" yaml:"pages"`
}

// Table filters rows (case-insensitive substring, all filters must match,
// blank values ignored), sorts them stably and returns the requested page,
// clamped to the pages that exist.
func Table(rows []dataset.Row, cols columns.ColumnMap, q TableQuery) TableView {
	filtered := filterRows(rows, cols, q.Filters)

	if key := strings.TrimSpace(q.SortBy); key != "" {
		sortRows(filtered, resolveRef(key, rows, cols), q.Desc)
	}

	size := q.PageSize
	if size <= 0 {
		size = DefaultPageSize
	}
	page, pages := ClampPage(q.Page, size, len(filtered))

	start := (page - 1) * size
	end := min(start+size, len(filtered))

	out := TableView{
		Rows:     make([]TableRow, 0, end-start),
		Total:    len(filtered),
		Page:     page,
		PageSize: size,
		Pages:    pages,
	}
	for _, r := range filtered[start:end] {
		out.Rows = append(out.Rows, project(r, cols))
	}
	return out
}

// ClampPage bounds page to [1, pages] where pages is at least 1.
func ClampPage(page, size, total int) (int, int) {
	if size <= 0 {
		size = DefaultPageSize
	}
	pages := max(1, (total+size-1)/size)
	return min(max(page, 1), pages), pages
}

// columnRef is a resolved filter or sort key.
type columnRef struct {
	header   string
	role     columns.Role
	platform bool
}

func (c columnRef) value(r dataset.Row) string {
	if c.platform {
		return platform.FromURL(r[c.header])
	}
	return r[c.header]
}

func resolveRef(key string, rows []dataset.Row, cols columns.ColumnMap) columnRef {
	if strings.EqualFold(key, PlatformColumn) {
		return columnRef{header: cols.Header(columns.RoleURL), platform: true}
	}
	if len(rows) > 0 {
		if _, ok := rows[0][key]; ok {
			return columnRef{header: key, role: roleOfHeader(key, cols)}
		}
	}
	if role, ok := columns.ParseRole(key); ok {
		return columnRef{header: cols.Header(role), role: role}
	}
	return columnRef{header: key}
}

func roleOfHeader(header string, cols columns.ColumnMap) columns.Role {
	for _, role := range columns.Roles() {
		if cols.Has(role) && cols.Header(role) == header {
			return role
		}
	}
	return ""
}

type activeFilter struct {
	ref    columnRef
	needle string
}

func filterRows(rows []dataset.Row, cols columns.ColumnMap, filters map[string]string) []dataset.Row {
	var active []activeFilter
	for key, v := range filters {
		needle := strings.ToLower(strings.TrimSpace(v))
		if needle == "" {
			continue
		}
		active = append(active, activeFilter{ref: resolveRef(strings.TrimSpace(key), rows, cols), needle: needle})
	}

	out := make([]dataset.Row, 0, len(rows))
	for _, r := range rows {
		if matchesAll(r, active) {
			out = append(out, r)
		}
	}
	return out
}

func matchesAll(r dataset.Row, filters []activeFilter) bool {
	for _, f := range filters {
		if !strings.Contains(strings.ToLower(f.ref.value(r)), f.needle) {
			return false
		}
	}
	return true
}

type sortKind int

const (
	sortText sortKind = iota
	sortNumber
	sortDate
)

func kindOf(ref columnRef) sortKind {
	switch ref.role {
	case columns.RoleInteractions, columns.RoleViews, columns.RoleLikes, columns.RoleComments:
		return sortNumber
	case columns.RoleDate:
		return sortDate
	default:
		return sortText
	}
}

type sortEntry struct {
	row  dataset.Row
	num  float64
	at   time.Time
	text string
}

func sortRows(rows []dataset.Row, ref columnRef, desc bool) {
	kind := kindOf(ref)
	entries := make([]sortEntry, len(rows))
	for i, r := range rows {
		v := ref.value(r)
		e := sortEntry{row: r}
		switch kind {
		case sortNumber:
			e.num = textnorm.ParseLocaleNumber(v)
		case sortDate:
			e.at, _ = ParseDate(v)
		default:
			e.text = textnorm.Normalize(strings.TrimSpace(v))
		}
		entries[i] = e
	}

	less := func(a, b sortEntry) bool {
		switch kind {
		case sortNumber:
			return a.num < b.num
		case sortDate:
			return a.at.Before(b.at)
		default:
			return a.text < b.text
		}
	}
	sort.SliceStable(entries, func(i, j int) bool {
		if desc {
			return less(entries[j], entries[i])
		}
		return less(entries[i], entries[j])
	})

	for i, e := range entries {
		rows[i] = e.row
	}
}

func project(r dataset.Row, cols columns.ColumnMap) TableRow {
	url := cols.Value(r, columns.RoleURL)
	return TableRow{
		Name:         cols.Value(r, columns.RoleName),
		Date:         cols.Value(r, columns.RoleDate),
		Platform:     platform.FromURL(url),
		URL:          url,
		Party:        cols.Value(r, columns.RoleParty),
		State:        cols.Value(r, columns.RoleState),
		Role:         cols.Value(r, columns.RoleRole),
		Ideology:     cols.Value(r, columns.RoleIdeology),
		Text:         cols.Value(r, columns.RoleText),
		Interactions: textnorm.ParseLocaleNumber(cols.Value(r, columns.RoleInteractions)),
		Views:        textnorm.ParseLocaleNumber(cols.Value(r, columns.RoleViews)),
		Likes:        textnorm.ParseLocaleNumber(cols.Value(r, columns.RoleLikes)),
		Comments:     textnorm.ParseLocaleNumber(cols.Value(r, columns.RoleComments)),
		Raw:          r,
	}
}
