package table

import (
	"github.com/rotisserie/eris"
	"golang.org/x/text/language"

	"github.com/AngelCh415/campaign-dashboard/internal/models"
)

var ErrInvalidRowsPerPage = eris.New("rows per page must be positive")

// RowsPerPageOptions are the page sizes offered by the pagination control.
var RowsPerPageOptions = []int{5, 10, 20, 50}

// Request selects how a filtered record set is shown.
type Request struct {
	SortField     string
	SortDirection Direction
	Page          int
	RowsPerPage   int
	Visible       Visibility
	Locale        language.Tag
}

// Cell is one rendered value.
type Cell struct {
	Field string `json:"field"`
	Text  string `json:"text"`
	Tone  Tone   `json:"tone,omitempty"`
}

type Row struct {
	Cells []Cell `json:"cells"`
}

// Result is a rendered page plus the figures that describe the whole set.
type Result struct {
	Columns       []Column        `json:"columns"`
	Rows          []Row           `json:"rows"`
	// Records are the page rows for in-process callers; never serialized.
	Records       []models.Record `json:"-"`
	Totals        []Total         `json:"totals,omitempty"`
	TotalRows     int             `json:"total_rows"`
	TotalPages    int             `json:"total_pages"`
	Page          int             `json:"page"`
	RowsPerPage   int             `json:"rows_per_page"`
	RangeStart    int             `json:"range_start"`
	RangeEnd      int             `json:"range_end"`
	SortField     string          `json:"sort_field"`
	SortDirection Direction       `json:"sort_direction"`
	PageLinks     []PageLink      `json:"page_links"`
}

// Present sorts the whole filtered set, then cuts out the requested page.
// Totals always cover the full sorted set. An empty set has zero pages and
// reports page 1.
func Present(records []models.Record, req Request) (Result, error) {
	if req.RowsPerPage <= 0 {
		return Result{}, eris.Wrapf(ErrInvalidRowsPerPage, "got %d", req.RowsPerPage)
	}
	if req.SortDirection == "" {
		req.SortDirection = Asc
	}
	if req.Visible == nil {
		req.Visible = DefaultVisibility()
	}

	sorted, err := Sort(records, req.SortField, req.SortDirection, req.Locale)
	if err != nil {
		return Result{}, err
	}

	total := len(sorted)
	pages := TotalPages(total, req.RowsPerPage)
	page := ClampPage(req.Page, pages)
	start, end := PageBounds(page, req.RowsPerPage, total)
	pageRecs := sorted[start:end]

	cols := req.Visible.Columns()
	res := Result{
		Columns:       cols,
		Rows:          make([]Row, 0, len(pageRecs)),
		Records:       pageRecs,
		TotalRows:     total,
		TotalPages:    pages,
		Page:          page,
		RowsPerPage:   req.RowsPerPage,
		RangeEnd:      end,
		SortField:     req.SortField,
		SortDirection: req.SortDirection,
		PageLinks:     PageLinks(page, pages),
	}
	if len(pageRecs) > 0 {
		res.RangeStart = start + 1
	}
	for i := range pageRecs {
		res.Rows = append(res.Rows, renderRow(&pageRecs[i], cols))
	}
	if total > 0 {
		res.Totals = Totals(sorted, cols, req.Locale)
	}
	return res, nil
}

func renderRow(r *models.Record, cols []Column) Row {
	row := Row{Cells: make([]Cell, 0, len(cols))}
	for _, c := range cols {
		cell := Cell{Field: c.Field, Text: FormatCell(r, c.Field)}
		if n, ok := r.NumberField(c.Field); ok {
			cell.Tone = ToneOf(c.Field, n)
		}
		row.Cells = append(row.Cells, cell)
	}
	return row
}

// TotalPages is ceil(total/perPage).
func TotalPages(total, perPage int) int {
	if perPage <= 0 || total <= 0 {
		return 0
	}
	return (total + perPage - 1) / perPage
}

// ClampPage keeps page inside [1, pages]; with no pages it is 1.
func ClampPage(page, pages int) int {
	if page > pages {
		page = pages
	}
	if page < 1 {
		page = 1
	}
	return page
}

// PageBounds returns the slice bounds of page within total rows.
func PageBounds(page, perPage, total int) (int, int) {
	start := (page - 1) * perPage
	if start > total {
		start = total
	}
	end := start + perPage
	if end > total {
		end = total
	}
	return start, end
}
