package dashboard

import (
	"sort"

	"github.com/sells-group/postmetrics/internal/columns"
	"github.com/sells-group/postmetrics/internal/dataset"
	"github.com/sells-group/postmetrics/internal/textnorm"
)

// DefaultTopN is the leaderboard size when none is requested.
const DefaultTopN = 10

// AccountAggregate sums one account's metrics. Label is the display name of
// the first row seen for the account.
type AccountAggregate struct {
	Key          string  `json:"key" yaml:"key"`
	Label        string  `json:"label" yaml:"label"`
	Posts        int     `json:"posts" yaml:"posts"`
	Interactions float64 `json:"interactions" yaml:"interactions"`
	Likes        float64 `json:"likes" yaml:"likes"`
	Comments     float64 `json:"comments" yaml:"comments"`
	Views        float64 `json:"views" yaml:"views"`
}

// ScatterPoint is one account on the correlation chart.
type ScatterPoint struct {
	Name  string     `json:"name" yaml:"name"`
	Value [2]float64 `json:"value" yaml:"value"`
}

// LeaderEntry is one leaderboard row with every summed metric.
type LeaderEntry struct {
	Rank         int     `json:"rank" yaml:"rank" csv:"rank"`
	Account      string  `json:"account" yaml:"account" csv:"account"`
	Posts        int     `json:"posts" yaml:"posts" csv:"posts"`
	Interactions float64 `json:"interactions" yaml:"interactions" csv:"interactions"`
	Likes        float64 `json:"likes" yaml:"likes" csv:"likes"`
	Comments     float64 `json:"comments" yaml:"comments" csv:"comments"`
	Views        float64 `json:"views" yaml:"views" csv:"views"`
}

// LeadersView is the top-N leaderboard plus scatter points for all accounts.
// With HasLikesComments the points are (likes, comments), otherwise
// (views, interactions).
type LeadersView struct {
	TopLabels        []string       `json:"topLabels" yaml:"topLabels"`
	TopInteractions  []float64      `json:"topInteractions" yaml:"topInteractions"`
	Points           []ScatterPoint `json:"points" yaml:"points"`
	HasLikesComments bool           `json:"hasLikesComments" yaml:"hasLikesComments"`
	Entries          []LeaderEntry  `json:"entries" yaml:"entries"`
}

// Accounts aggregates rows per CleanID key in first-seen order. Rows with a
// blank key are left out.
func Accounts(rows []dataset.Row, cols columns.ColumnMap) []AccountAggregate {
	nameCol := cols.Header(columns.RoleName)
	interCol := cols.Header(columns.RoleInteractions)
	likesCol := cols.Header(columns.RoleLikes)
	commentsCol := cols.Header(columns.RoleComments)
	viewsCol := cols.Header(columns.RoleViews)
	hasLikes := cols.Has(columns.RoleLikes)
	hasComments := cols.Has(columns.RoleComments)
	hasViews := cols.Has(columns.RoleViews)

	index := make(map[string]int)
	var accounts []AccountAggregate
	for _, r := range rows {
		raw := r[nameCol]
		key := textnorm.CleanID(raw)
		if key == "" {
			continue
		}

		i, ok := index[key]
		if !ok {
			i = len(accounts)
			index[key] = i
			accounts = append(accounts, AccountAggregate{Key: key, Label: textnorm.DisplayName(raw)})
		}

		a := &accounts[i]
		a.Posts++
		a.Interactions += textnorm.ParseLocaleNumber(r[interCol])
		if hasLikes {
			a.Likes += textnorm.ParseLocaleNumber(r[likesCol])
		}
		if hasComments {
			a.Comments += textnorm.ParseLocaleNumber(r[commentsCol])
		}
		if hasViews {
			a.Views += textnorm.ParseLocaleNumber(r[viewsCol])
		}
	}
	return accounts
}

// Leaders ranks accounts by interactions, descending; ties keep first-seen
// order. topN <= 0 means DefaultTopN.
func Leaders(rows []dataset.Row, cols columns.ColumnMap, topN int) LeadersView {
	if topN <= 0 {
		topN = DefaultTopN
	}

	accounts := Accounts(rows, cols)
	hasLC := cols.Has(columns.RoleLikes) && cols.Has(columns.RoleComments)

	ranked := make([]AccountAggregate, len(accounts))
	copy(ranked, accounts)
	sort.SliceStable(ranked, func(i, j int) bool {
		return ranked[i].Interactions > ranked[j].Interactions
	})
	if len(ranked) > topN {
		ranked = ranked[:topN]
	}

	out := LeadersView{
		TopLabels:        make([]string, len(ranked)),
		TopInteractions:  make([]float64, len(ranked)),
		Entries:          make([]LeaderEntry, len(ranked)),
		Points:           make([]ScatterPoint, 0, len(accounts)),
		HasLikesComments: hasLC,
	}
	for i, a := range ranked {
		out.TopLabels[i] = a.Label
		out.TopInteractions[i] = a.Interactions
		out.Entries[i] = LeaderEntry{
			Rank:         i + 1,
			Account:      a.Label,
			Posts:        a.Posts,
			Interactions: a.Interactions,
			Likes:        a.Likes,
			Comments:     a.Comments,
			Views:        a.Views,
		}
	}

	for _, a := range accounts {
		p := ScatterPoint{Name: a.Label, Value: [2]float64{a.Views, a.Interactions}}
		if hasLC {
			p.Value = [2]float64{a.Likes, a.Comments}
		}
		if p.Value[0] == 0 && p.Value[1] == 0 {
			continue
		}
		out.Points = append(out.Points, p)
	}
	return out
}
