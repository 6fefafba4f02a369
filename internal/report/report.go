// Package report renders derived dashboard views as a markdown document.
package report

import (
	"fmt"
	"strings"
	"time"

	"github.com/sells-group/postmetrics/internal/columns"
	"github.com/sells-group/postmetrics/internal/dashboard"
	"github.com/sells-group/postmetrics/internal/format"
	"github.com/sells-group/postmetrics/internal/textnorm"
)

// Meta describes the dataset a report was built from.
type Meta struct {
	Source      string
	GeneratedAt time.Time
}

// Markdown writes the headline counters, the daily series, the leaderboard
// and the current table page.
func Markdown(meta Meta, v *dashboard.Views) string {
	var b strings.Builder

	b.WriteString("# Relatório de publicações\n")
	if meta.Source != "" {
		fmt.Fprintf(&b, "Fonte: %s\n", meta.Source)
	}
	if !meta.GeneratedAt.IsZero() {
		fmt.Fprintf(&b, "Gerado em: %s\n", format.DateTimeBR(meta.GeneratedAt))
	}
	b.WriteString("\n")

	if v == nil {
		b.WriteString("Sem dados.\n")
		return b.String()
	}

	writeStats(&b, v.Stats)
	writeSeries(&b, v.Series)
	writeLeaders(&b, v.Leaders)
	writeTable(&b, v.Table)
	writeColumns(&b, v.Columns)

	return b.String()
}

func writeStats(b *strings.Builder, s dashboard.StatsView) {
	b.WriteString("## Resumo\n")
	fmt.Fprintf(b, "- Contas: %s\n", format.NumberBR(float64(s.Accounts), 0))
	fmt.Fprintf(b, "- Publicações: %s\n", format.NumberBR(float64(s.Posts), 0))
	fmt.Fprintf(b, "- Interações: %s\n", format.Compact(s.Interactions))
	if s.Views != nil {
		fmt.Fprintf(b, "- Visualizações: %s\n", format.Compact(*s.Views))
	} else {
		fmt.Fprintf(b, "- Visualizações: %s\n", textnorm.Placeholder)
	}
	b.WriteString("\n")
}

func writeSeries(b *strings.Builder, s dashboard.SeriesView) {
	b.WriteString("## Interações por dia\n")
	if len(s.Dates) == 0 {
		b.WriteString("Nenhuma data válida.\n\n")
		return
	}

	if s.Views != nil {
		b.WriteString("| Dia | Publicações | Interações | Visualizações |\n|---|---:|---:|---:|\n")
	} else {
		b.WriteString("| Dia | Publicações | Interações |\n|---|---:|---:|\n")
	}
	for i, d := range s.Dates {
		fmt.Fprintf(b, "| %s | %d | %s |", format.DateBR(d), s.Posts[i], format.NumberBR(s.Interactions[i], 0))
		if s.Views != nil {
			fmt.Fprintf(b, " %s |", format.NumberBR(s.Views[i], 0))
		}
		b.WriteString("\n")
	}
	b.WriteString("\n")
}

func writeLeaders(b *strings.Builder, l dashboard.LeadersView) {
	b.WriteString("## Ranking por interações\n")
	if len(l.Entries) == 0 {
		b.WriteString("Nenhuma conta identificada.\n\n")
		return
	}
	for _, e := range l.Entries {
		fmt.Fprintf(b, "%d. **%s**: %s interações em %d publicações\n",
			e.Rank, escape(e.Account), format.Compact(e.Interactions), e.Posts)
	}
	b.WriteString("\n")

	axis := "visualizações x interações"
	if l.HasLikesComments {
		axis = "curtidas x comentários"
	}
	fmt.Fprintf(b, "Dispersão (%s): %d contas\n\n", axis, len(l.Points))
}

func writeTable(b *strings.Builder, t dashboard.TableView) {
	fmt.Fprintf(b, "## Publicações (página %d de %d, %d no total)\n", t.Page, t.Pages, t.Total)
	if len(t.Rows) == 0 {
		b.WriteString("Nenhuma publicação.\n\n")
		return
	}
	b.WriteString("| Conta | Data | Plataforma | Partido | Interações |\n|---|---|---|---|---:|\n")
	for _, r := range t.Rows {
		fmt.Fprintf(b, "| %s | %s | %s | %s | %s |\n",
			escape(textnorm.DisplayName(r.Name)),
			format.DateBR(r.Date),
			r.Platform,
			escape(textnorm.DisplayName(r.Party)),
			format.NumberBR(r.Interactions, 0),
		)
	}
	b.WriteString("\n")
}

func writeColumns(b *strings.Builder, cm columns.ColumnMap) {
	var missing []string
	for _, role := range columns.Roles() {
		if !cm.Has(role) {
			missing = append(missing, string(role))
		}
	}
	if len(missing) == 0 {
		return
	}
	fmt.Fprintf(b, "_Colunas não encontradas: %s._\n", strings.Join(missing, ", "))
}

// escape keeps cell text from breaking table rows or emphasis.
func escape(s string) string {
	r := strings.NewReplacer("|", `\|`, "*", `\*`, "\n", " ", "\r", "")
	return r.Replace(s)
}
