// Package view keeps the interactive table state (search, filters, sort, page,
// columns, filter builder) and renders it against the record store.
package view

import (
	"sync"

	"github.com/rotisserie/eris"
	"golang.org/x/text/language"

	"github.com/AngelCh415/campaign-dashboard/internal/builder"
	"github.com/AngelCh415/campaign-dashboard/internal/facets"
	"github.com/AngelCh415/campaign-dashboard/internal/filter"
	"github.com/AngelCh415/campaign-dashboard/internal/models"
	"github.com/AngelCh415/campaign-dashboard/internal/table"
)

var ErrInvalidRowsPerPage = table.ErrInvalidRowsPerPage

// Source is what the view renders from.
type Source interface {
	Snapshot() ([]models.Record, *facets.Extractor)
}

// Defaults seeds a fresh State.
type Defaults struct {
	SortField     string
	SortDirection table.Direction
	RowsPerPage   int
	Locale        language.Tag
}

func DefaultDefaults() Defaults {
	return Defaults{
		SortField:     models.FieldImpressions,
		SortDirection: table.Desc,
		RowsPerPage:   10,
		Locale:        language.AmericanEnglish,
	}
}

// State is the transient view state. All methods are safe for concurrent use.
type State struct {
	mu          sync.Mutex
	src         Source
	search      string
	filters     *filter.List
	sortField   string
	sortDir     table.Direction
	page        int
	rowsPerPage int
	visible     table.Visibility
	wizard      *builder.Wizard
	locale      language.Tag
}

func New(src Source, d Defaults) (*State, error) {
	if d.RowsPerPage <= 0 {
		return nil, eris.Wrapf(ErrInvalidRowsPerPage, "got %d", d.RowsPerPage)
	}
	if !table.Sortable(d.SortField) {
		return nil, eris.Wrapf(table.ErrUnknownField, "sort field %q", d.SortField)
	}
	if d.SortDirection == "" {
		d.SortDirection = table.Desc
	}
	return &State{
		src:         src,
		filters:     filter.NewList(),
		sortField:   d.SortField,
		sortDir:     d.SortDirection,
		page:        1,
		rowsPerPage: d.RowsPerPage,
		visible:     table.DefaultVisibility(),
		wizard:      builder.New(),
		locale:      d.Locale,
	}, nil
}

func (s *State) SetSearch(term string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.search = term
}

func (s *State) Search() string {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.search
}

// ToggleSort flips the direction on the current field; a new field starts ascending.
func (s *State) ToggleSort(field string) error {
	if !table.Sortable(field) {
		return eris.Wrapf(table.ErrUnknownField, "sort field %q", field)
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.sortField == field {
		s.sortDir = s.sortDir.Flip()
		return nil
	}
	s.sortField = field
	s.sortDir = table.Asc
	return nil
}

func (s *State) SetSort(field string, dir table.Direction) error {
	if !table.Sortable(field) {
		return eris.Wrapf(table.ErrUnknownField, "sort field %q", field)
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	s.sortField = field
	s.sortDir = dir
	return nil
}

// GoToPage stores the requested page clamped to the pages of the current view.
func (s *State) GoToPage(page int) {
	s.mu.Lock()
	defer s.mu.Unlock()
	records, _ := s.src.Snapshot()
	pages := table.TotalPages(len(s.filtered(records)), s.rowsPerPage)
	s.page = table.ClampPage(page, pages)
}

// SetRowsPerPage changes the page size and goes back to page 1.
func (s *State) SetRowsPerPage(n int) error {
	if n <= 0 {
		return eris.Wrapf(ErrInvalidRowsPerPage, "got %d", n)
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	s.rowsPerPage = n
	s.page = 1
	return nil
}

func (s *State) ToggleColumn(field string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.visible.Toggle(field)
}

func (s *State) AddFilter(p filter.Predicate) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.filters.Append(p)
}

func (s *State) RemoveFilter(i int) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.filters.Remove(i)
}

func (s *State) ClearFilters() {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.filters.Clear()
}

func (s *State) Filters() []filter.Predicate {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.filters.Items()
}

// Builder runs fn with exclusive access to the filter builder and the facets it
// needs. Submitting inside fn appends to the active filter list.
func (s *State) Builder(fn func(w *builder.Wizard, ext *facets.Extractor, list *filter.List) error) (builder.State, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	_, ext := s.src.Snapshot()
	err := fn(s.wizard, ext, s.filters)
	return s.wizard.Describe(ext), err
}

func (s *State) filtered(records []models.Record) []models.Record {
	return filter.Evaluate(records, s.filters.Items(), s.search)
}

// Snapshot is everything a client needs to draw the dashboard.
type Snapshot struct {
	Search       string          `json:"search"`
	Filters      []filter.Chip   `json:"filters"`
	Table        table.Result    `json:"table"`
	FilteredRows int             `json:"filtered_rows"`
	TotalRecords int             `json:"total_records"`
	Visibility   map[string]bool `json:"visibility"`
	Builder      builder.State   `json:"builder"`
}

// Render evaluates filters and search, then presents the result.
func (s *State) Render() (Snapshot, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	records, ext := s.src.Snapshot()
	filtered := s.filtered(records)
	res, err := table.Present(filtered, table.Request{
		SortField:     s.sortField,
		SortDirection: s.sortDir,
		Page:          s.page,
		RowsPerPage:   s.rowsPerPage,
		Visible:       s.visible,
		Locale:        s.locale,
	})
	if err != nil {
		return Snapshot{}, err
	}
	return Snapshot{
		Search:       s.search,
		Filters:      s.filters.Chips(),
		Table:        res,
		FilteredRows: len(filtered),
		TotalRecords: len(records),
		Visibility:   s.visible.Clone(),
		Builder:      s.wizard.Describe(ext),
	}, nil
}
