package main

import (
	"fmt"
	"io"
	"strings"
	"text/tabwriter"

	"github.com/rotisserie/eris"
	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/AngelCh415/campaign-dashboard/internal/ingest"
	"github.com/AngelCh415/campaign-dashboard/internal/metrics"
	"github.com/AngelCh415/campaign-dashboard/internal/store"
	"github.com/AngelCh415/campaign-dashboard/internal/table"
)

var queryOpts struct {
	search  string
	filters []string
	sort    string
	dir     string
	page    int
	rows    int
	columns []string
}

var queryCmd = &cobra.Command{
	Use:   "query",
	Short: "Print one page of the campaign table",
	Example: `  dashboard query --search admob --filter "Country:US" --filter "Spend:>5"
  dashboard query --sort spend --dir asc --rows 20 --page 2`,
	RunE: func(cmd *cobra.Command, args []string) error {
		defs, err := cfg.ViewDefaults()
		if err != nil {
			return err
		}

		st := store.NewMemoryStore()
		if err := ingest.NewLoader(st, zap.L(), cfg.Dataset.Path).Run(cmd.Context()); err != nil {
			return eris.Wrap(err, "load dataset")
		}

		p := metrics.Params{
			Search:        queryOpts.search,
			Filters:       queryOpts.filters,
			SortField:     defs.SortField,
			SortDirection: defs.SortDirection,
			Page:          queryOpts.page,
			RowsPerPage:   defs.RowsPerPage,
			Columns:       queryOpts.columns,
		}
		if queryOpts.sort != "" {
			p.SortField = queryOpts.sort
		}
		if queryOpts.dir != "" {
			if p.SortDirection, err = table.ParseDirection(queryOpts.dir); err != nil {
				return err
			}
		}
		if queryOpts.rows > 0 {
			p.RowsPerPage = queryOpts.rows
		}

		res, err := metrics.NewService(st, defs).Query(p)
		if err != nil {
			return err
		}
		return printResult(cmd.OutOrStdout(), res)
	},
}

func printResult(out io.Writer, res metrics.Result) error {
	if len(res.Filters) > 0 {
		chips := make([]string, 0, len(res.Filters))
		for _, c := range res.Filters {
			chips = append(chips, c.Category.Name+": "+c.Label)
		}
		fmt.Fprintf(out, "Filters: %s\n", strings.Join(chips, " | "))
	}

	tw := tabwriter.NewWriter(out, 0, 0, 2, ' ', 0)
	t := res.Table
	headers := make([]string, 0, len(t.Columns))
	for _, c := range t.Columns {
		h := strings.ToUpper(c.Header)
		if c.Field == t.SortField {
			if t.SortDirection == table.Asc {
				h += " ^"
			} else {
				h += " v"
			}
		}
		headers = append(headers, h)
	}
	fmt.Fprintln(tw, strings.Join(headers, "\t"))

	if len(t.Rows) == 0 {
		fmt.Fprintln(tw, "No results found")
	}
	for _, row := range t.Rows {
		cells := make([]string, 0, len(row.Cells))
		for _, c := range row.Cells {
			cells = append(cells, c.Text)
		}
		fmt.Fprintln(tw, strings.Join(cells, "\t"))
	}
	if len(t.Totals) > 0 {
		cells := make([]string, 0, len(t.Totals))
		for _, tot := range t.Totals {
			cells = append(cells, tot.Text)
		}
		fmt.Fprintln(tw, strings.Join(cells, "\t"))
	}
	if err := tw.Flush(); err != nil {
		return eris.Wrap(err, "write table")
	}

	fmt.Fprintf(out, "Showing %d-%d of %d results (page %d of %d)\n",
		t.RangeStart, t.RangeEnd, t.TotalRows, t.Page, t.TotalPages)
	fmt.Fprintf(out, "%d of %d items\n", res.FilteredRows, res.TotalRecords)
	return nil
}

func init() {
	f := queryCmd.Flags()
	f.StringVar(&queryOpts.search, "search", "", "case-insensitive search over every field and the tag string")
	f.StringArrayVar(&queryOpts.filters, "filter", nil, `filter expression, repeatable ("Country:US", "Spend:>5")`)
	f.StringVar(&queryOpts.sort, "sort", "", "sort field (default from config)")
	f.StringVar(&queryOpts.dir, "dir", "", "sort direction: asc or desc")
	f.IntVar(&queryOpts.page, "page", 1, "page number")
	f.IntVar(&queryOpts.rows, "rows", 0, "rows per page (default from config)")
	f.StringSliceVar(&queryOpts.columns, "columns", nil, "comma-separated visible columns")
	rootCmd.AddCommand(queryCmd)
}
