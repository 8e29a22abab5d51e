package metrics

import (
	"net/url"
	"strconv"
	"strings"

	"github.com/rotisserie/eris"

	"github.com/AngelCh415/campaign-dashboard/internal/facets"
	"github.com/AngelCh415/campaign-dashboard/internal/filter"
	"github.com/AngelCh415/campaign-dashboard/internal/store"
	"github.com/AngelCh415/campaign-dashboard/internal/table"
	"github.com/AngelCh415/campaign-dashboard/internal/view"
)

// Service answers one-shot campaign performance queries without touching the
// interactive view state.
type Service struct {
	st   *store.MemoryStore
	defs view.Defaults
}

func NewService(st *store.MemoryStore, defs view.Defaults) *Service {
	return &Service{st: st, defs: defs}
}

func norm(s string) string { return strings.TrimSpace(s) }

func csvList(s string) []string {
	var out []string
	for _, p := range strings.Split(s, ",") {
		p = norm(p)
		if p != "" {
			out = append(out, p)
		}
	}
	return out
}

// Params is a decoded query.
type Params struct {
	Search        string
	Filters       []string
	SortField     string
	SortDirection table.Direction
	Page          int
	RowsPerPage   int
	Columns       []string
}

// ParseParams reads search, filter (repeatable), sort, dir, page, per_page and columns.
func (s *Service) ParseParams(v url.Values) (Params, error) {
	p := Params{
		Search:        v.Get("search"),
		Filters:       v["filter"],
		SortField:     s.defs.SortField,
		SortDirection: s.defs.SortDirection,
		Page:          atoiDef(v.Get("page"), 1),
		RowsPerPage:   atoiDef(v.Get("per_page"), s.defs.RowsPerPage),
		Columns:       csvList(v.Get("columns")),
	}
	if p.Search == "" {
		p.Search = v.Get("q")
	}
	if f := norm(v.Get("sort")); f != "" {
		p.SortField = f
	}
	if d := norm(v.Get("dir")); d != "" {
		dir, err := table.ParseDirection(d)
		if err != nil {
			return Params{}, err
		}
		p.SortDirection = dir
	}
	return p, nil
}

// Result mirrors view.Snapshot for stateless queries.
type Result struct {
	Search       string        `json:"search"`
	Filters      []filter.Chip `json:"filters"`
	Table        table.Result  `json:"table"`
	FilteredRows int           `json:"filtered_rows"`
	TotalRecords int           `json:"total_records"`
}

// Query runs the whole pipeline: parse filters, evaluate, sort, paginate, total.
func (s *Service) Query(p Params) (Result, error) {
	records, ext := s.st.Snapshot()

	list := filter.NewList()
	for _, expr := range p.Filters {
		pred, err := filter.ParseExpr(ext, expr)
		if err != nil {
			return Result{}, eris.Wrapf(err, "filter %q", expr)
		}
		list.Append(pred)
	}

	visible := table.DefaultVisibility()
	if len(p.Columns) > 0 {
		var err error
		if visible, err = table.VisibilityOf(p.Columns...); err != nil {
			return Result{}, err
		}
	}

	filtered := filter.Evaluate(records, list.Items(), p.Search)
	res, err := table.Present(filtered, table.Request{
		SortField:     p.SortField,
		SortDirection: p.SortDirection,
		Page:          p.Page,
		RowsPerPage:   p.RowsPerPage,
		Visible:       visible,
		Locale:        s.defs.Locale,
	})
	if err != nil {
		return Result{}, err
	}
	return Result{
		Search:       p.Search,
		Filters:      list.Chips(),
		Table:        res,
		FilteredRows: len(filtered),
		TotalRecords: len(records),
	}, nil
}

// FacetsView lists every filterable axis of the current dataset.
type FacetsView struct {
	Dimensions    []facets.Dimension  `json:"dimensions"`
	Metrics       []facets.Metric     `json:"metrics"`
	TagCategories []string            `json:"tag_categories"`
	Comparisons   []filter.Comparison `json:"comparisons"`
	Columns       []table.Column      `json:"columns"`
	RowsPerPage   []int               `json:"rows_per_page_options"`
}

func (s *Service) Facets() FacetsView {
	ext := s.st.Facets()
	return FacetsView{
		Dimensions:    ext.Dimensions(),
		Metrics:       ext.Metrics(),
		TagCategories: ext.TagCategories(),
		Comparisons:   filter.Comparisons(),
		Columns:       table.Catalog(),
		RowsPerPage:   table.RowsPerPageOptions,
	}
}

// Options returns the enumerated values of a dimension or tag category.
func (s *Service) Options(category string) (facets.Category, []string, error) {
	ext := s.st.Facets()
	c, err := ext.Lookup(category)
	if err != nil {
		return facets.Category{}, nil, err
	}
	return c, ext.FilterOptions(c), nil
}

func atoiDef(s string, d int) int {
	v, err := strconv.Atoi(strings.TrimSpace(s))
	if err != nil {
		return d
	}
	return v
}
