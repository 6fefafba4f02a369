package main

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/rotisserie/eris"
	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/sells-group/postmetrics/internal/dashboard"
	"github.com/sells-group/postmetrics/internal/dataset"
	"github.com/sells-group/postmetrics/internal/report"
)

var (
	leadersTop     int
	tableFilters   []string
	tableSort      string
	tableDesc      bool
	tablePage      int
	tablePageSize  int
	reportTop      int
	reportPageSize int
)

// seriesRecord is one day of the series in CSV output.
type seriesRecord struct {
	Date         string   `csv:"date"`
	Posts        int      `csv:"posts"`
	Interactions float64  `csv:"interactions"`
	Views        *float64 `csv:"views,omitempty"`
}

func seriesRecords(s dashboard.SeriesView) []seriesRecord {
	out := make([]seriesRecord, len(s.Dates))
	for i, d := range s.Dates {
		out[i] = seriesRecord{Date: d, Posts: s.Posts[i], Interactions: s.Interactions[i]}
		if s.Views != nil {
			v := s.Views[i]
			out[i].Views = &v
		}
	}
	return out
}

// parseFilters turns repeated col=value flags into a filter map. The value
// may be empty; the column may not.
func parseFilters(raw []string) (map[string]string, error) {
	if len(raw) == 0 {
		return nil, nil
	}
	out := make(map[string]string, len(raw))
	for _, f := range raw {
		col, val, ok := strings.Cut(f, "=")
		col = strings.TrimSpace(col)
		if !ok || col == "" {
			return nil, eris.Errorf("invalid filter %q (want column=value)", f)
		}
		out[col] = val
	}
	return out, nil
}

// buildViews loads the source and derives every view for p.
func buildViews(ctx context.Context, p dashboard.Params) (*dataset.Dataset, *dashboard.Views, error) {
	if err := applySourceFlags(cfg, "cli"); err != nil {
		return nil, nil, err
	}
	if p.TopN <= 0 {
		p.TopN = cfg.Dashboard.TopN
	}
	if p.Table.PageSize <= 0 {
		p.Table.PageSize = cfg.Dashboard.PageSize
	}

	ds, err := loadSource(ctx, cfg)
	if err != nil {
		return nil, nil, err
	}
	if ds.Empty() {
		zap.L().Warn("source has no rows", zap.String("source", ds.Source))
	}

	v, err := dashboard.Build(ctx, ds, p)
	if err != nil {
		return nil, nil, eris.Wrap(err, "build views")
	}
	return ds, v, nil
}

var statsCmd = &cobra.Command{
	Use:   "stats",
	Short: "Print accounts, posts, interactions and views totals",
	RunE: func(cmd *cobra.Command, _ []string) error {
		_, v, err := buildViews(cmd.Context(), dashboard.Params{})
		if err != nil {
			return err
		}
		return writeOutput(cmd.OutOrStdout(), formatFlag, v.Stats, []dashboard.StatsView{v.Stats})
	},
}

var seriesCmd = &cobra.Command{
	Use:   "series",
	Short: "Print posts, interactions and views per day",
	RunE: func(cmd *cobra.Command, _ []string) error {
		_, v, err := buildViews(cmd.Context(), dashboard.Params{})
		if err != nil {
			return err
		}
		return writeOutput(cmd.OutOrStdout(), formatFlag, v.Series, seriesRecords(v.Series))
	},
}

var leadersCmd = &cobra.Command{
	Use:   "leaders",
	Short: "Print the accounts with the most interactions",
	RunE: func(cmd *cobra.Command, _ []string) error {
		_, v, err := buildViews(cmd.Context(), dashboard.Params{TopN: leadersTop})
		if err != nil {
			return err
		}
		return writeOutput(cmd.OutOrStdout(), formatFlag, v.Leaders, v.Leaders.Entries)
	},
}

var tableCmd = &cobra.Command{
	Use:   "table",
	Short: "Print a filtered, sorted page of posts",
	Example: `  postmetrics table --source posts.csv --filter Partido=PT --sort interactions --desc
  postmetrics table --source posts.csv --filter platform=tiktok --page 2 --format csv`,
	RunE: func(cmd *cobra.Command, _ []string) error {
		filters, err := parseFilters(tableFilters)
		if err != nil {
			return err
		}
		_, v, err := buildViews(cmd.Context(), dashboard.Params{Table: dashboard.TableQuery{
			Filters:  filters,
			SortBy:   tableSort,
			Desc:     tableDesc,
			Page:     tablePage,
			PageSize: tablePageSize,
		}})
		if err != nil {
			return err
		}
		return writeOutput(cmd.OutOrStdout(), formatFlag, v.Table, v.Table.Rows)
	},
}

var reportCmd = &cobra.Command{
	Use:   "report",
	Short: "Print a markdown report of every view",
	RunE: func(cmd *cobra.Command, _ []string) error {
		ds, v, err := buildViews(cmd.Context(), dashboard.Params{
			TopN:  reportTop,
			Table: dashboard.TableQuery{PageSize: reportPageSize},
		})
		if err != nil {
			return err
		}
		_, err = fmt.Fprint(cmd.OutOrStdout(), report.Markdown(report.Meta{
			Source:      ds.Source,
			GeneratedAt: time.Now(),
		}, v))
		return err
	},
}

func init() {
	for _, c := range []*cobra.Command{statsCmd, seriesCmd, leadersCmd, tableCmd} {
		c.Flags().StringVar(&formatFlag, "format", formatJSON, "output format: json, yaml or csv")
	}

	leadersCmd.Flags().IntVar(&leadersTop, "top", 0, "leaderboard size (default from config)")

	tableCmd.Flags().StringArrayVar(&tableFilters, "filter", nil, "column=value substring filter (repeatable)")
	tableCmd.Flags().StringVar(&tableSort, "sort", "", "column or role to sort by")
	tableCmd.Flags().BoolVar(&tableDesc, "desc", false, "sort descending")
	tableCmd.Flags().IntVar(&tablePage, "page", 1, "page number")
	tableCmd.Flags().IntVar(&tablePageSize, "page-size", 0, "rows per page (default from config)")

	reportCmd.Flags().IntVar(&reportTop, "top", 0, "leaderboard size (default from config)")
	reportCmd.Flags().IntVar(&reportPageSize, "page-size", 0, "table rows shown (default from config)")

	rootCmd.AddCommand(statsCmd, seriesCmd, leadersCmd, tableCmd, reportCmd)
}
