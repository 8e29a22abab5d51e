// Package builder implements the two-step filter builder: pick a category, then
// pick a value (or a comparison and a number for metrics) and submit.
package builder

import (
	"strings"

	"github.com/rotisserie/eris"

	"github.com/AngelCh415/campaign-dashboard/internal/facets"
	"github.com/AngelCh415/campaign-dashboard/internal/filter"
)

var (
	// ErrIncomplete is returned when submitting without a usable value.
	ErrIncomplete = eris.New("filter builder: value missing or invalid")
	// ErrWrongStep is returned when an action does not belong to the current step.
	ErrWrongStep = eris.New("filter builder: action not allowed in current step")
)

// Step is the wizard position. Exactly one of ChooseCategory or ChooseValue.
type Step interface {
	Number() int
	step()
}

// ChooseCategory is step one: a tab of categories with a live name filter.
type ChooseCategory struct {
	Tab    facets.Tab
	Search string
}

// ChooseValue is step two for the chosen category.
type ChooseValue struct {
	Category     facets.Category
	Value        string
	Comparison   filter.Comparison
	OptionSearch string
}

func (ChooseCategory) Number() int { return 1 }
func (ChooseValue) Number() int    { return 2 }
func (ChooseCategory) step()       {}
func (ChooseValue) step()          {}

func initial() Step { return ChooseCategory{Tab: facets.TabDimensions} }

// Wizard holds the builder state. Not safe for concurrent use.
type Wizard struct {
	open bool
	cur  Step
}

func New() *Wizard { return &Wizard{cur: initial()} }

func (w *Wizard) IsOpen() bool { return w.open }
func (w *Wizard) Step() Step   { return w.cur }

// Open shows the builder on step one.
func (w *Wizard) Open() { w.open = true }

// Toggle opens a closed builder and closes an open one.
func (w *Wizard) Toggle() {
	if w.open {
		w.Close()
		return
	}
	w.Open()
}

// Close hides the builder and drops any partial selection.
func (w *Wizard) Close() {
	w.open = false
	w.cur = initial()
}

func (w *Wizard) reset() { w.cur = initial() }

func (w *Wizard) stepOne() (ChooseCategory, error) {
	s, ok := w.cur.(ChooseCategory)
	if !ok {
		return ChooseCategory{}, eris.Wrap(ErrWrongStep, "expected category step")
	}
	return s, nil
}

func (w *Wizard) stepTwo() (ChooseValue, error) {
	s, ok := w.cur.(ChooseValue)
	if !ok {
		return ChooseValue{}, eris.Wrap(ErrWrongStep, "expected value step")
	}
	return s, nil
}

// SelectTab switches the category tab and clears its name filter.
func (w *Wizard) SelectTab(tab facets.Tab) error {
	if _, err := w.stepOne(); err != nil {
		return err
	}
	w.cur = ChooseCategory{Tab: tab}
	return nil
}

func (w *Wizard) SetCategorySearch(s string) error {
	cur, err := w.stepOne()
	if err != nil {
		return err
	}
	cur.Search = s
	w.cur = cur
	return nil
}

// Categories lists the current tab's categories matching the name filter.
func (w *Wizard) Categories(ext *facets.Extractor) ([]facets.Category, error) {
	cur, err := w.stepOne()
	if err != nil {
		return nil, err
	}
	return ext.Categories(cur.Tab, cur.Search), nil
}

// ChooseCategory moves to step two for the named category.
func (w *Wizard) ChooseCategory(ext *facets.Extractor, name string) error {
	if _, err := w.stepOne(); err != nil {
		return err
	}
	c, err := ext.Lookup(name)
	if err != nil {
		return err
	}
	w.cur = ChooseValue{Category: c, Comparison: filter.Equals}
	return nil
}

// Back returns to step one on the tab of the chosen category.
func (w *Wizard) Back() error {
	cur, err := w.stepTwo()
	if err != nil {
		return err
	}
	w.cur = ChooseCategory{Tab: facets.TabOf(cur.Category)}
	return nil
}

func (w *Wizard) SetValue(v string) error {
	cur, err := w.stepTwo()
	if err != nil {
		return err
	}
	cur.Value = v
	w.cur = cur
	return nil
}

// SetComparison only applies to metric categories.
func (w *Wizard) SetComparison(c filter.Comparison) error {
	cur, err := w.stepTwo()
	if err != nil {
		return err
	}
	if !cur.Category.IsNumeric() {
		return eris.Wrapf(ErrWrongStep, "category %q has no comparison", cur.Category.Name)
	}
	cur.Comparison = c
	w.cur = cur
	return nil
}

func (w *Wizard) SetOptionSearch(s string) error {
	cur, err := w.stepTwo()
	if err != nil {
		return err
	}
	cur.OptionSearch = s
	w.cur = cur
	return nil
}

// Options lists the selectable values for a categorical step, live-filtered.
// Metric categories have none.
func (w *Wizard) Options(ext *facets.Extractor) ([]string, error) {
	cur, err := w.stepTwo()
	if err != nil {
		return nil, err
	}
	return facets.MatchOptions(ext.FilterOptions(cur.Category), cur.OptionSearch), nil
}

// CanSubmit reports whether the current selection forms a valid predicate.
func (w *Wizard) CanSubmit() bool {
	_, err := w.predicate()
	return err == nil
}

func (w *Wizard) predicate() (filter.Predicate, error) {
	cur, err := w.stepTwo()
	if err != nil {
		return nil, err
	}
	var p filter.Predicate
	if cur.Category.IsNumeric() {
		p, err = filter.NewNumeric(cur.Category, cur.Comparison, cur.Value)
	} else {
		p, err = filter.NewCategorical(cur.Category, cur.Value)
	}
	if err != nil {
		return nil, eris.Wrap(ErrIncomplete, err.Error())
	}
	return p, nil
}

// Submit appends the built predicate to list, then resets and closes the builder.
func (w *Wizard) Submit(list *filter.List) (filter.Predicate, error) {
	p, err := w.predicate()
	if err != nil {
		return nil, err
	}
	list.Append(p)
	w.reset()
	w.open = false
	return p, nil
}

// State is the JSON view of the builder.
type State struct {
	Open         bool              `json:"open"`
	Step         int               `json:"step"`
	Tab          facets.Tab        `json:"tab,omitempty"`
	Search       string            `json:"search,omitempty"`
	Categories   []facets.Category `json:"categories,omitempty"`
	Category     *facets.Category  `json:"category,omitempty"`
	Value        string            `json:"value,omitempty"`
	Comparison   filter.Comparison `json:"comparison,omitempty"`
	Comparisons  []ComparisonView  `json:"comparisons,omitempty"`
	OptionSearch string            `json:"option_search,omitempty"`
	Options      []string          `json:"options,omitempty"`
	CanSubmit    bool              `json:"can_submit"`
}

type ComparisonView struct {
	Value filter.Comparison `json:"value"`
	Text  string            `json:"text"`
}

// Describe renders the builder for a client.
func (w *Wizard) Describe(ext *facets.Extractor) State {
	st := State{Open: w.open, Step: w.cur.Number()}
	switch cur := w.cur.(type) {
	case ChooseCategory:
		st.Tab = cur.Tab
		st.Search = cur.Search
		st.Categories = ext.Categories(cur.Tab, cur.Search)
	case ChooseValue:
		c := cur.Category
		st.Category = &c
		st.Value = cur.Value
		if c.IsNumeric() {
			st.Comparison = cur.Comparison
			for _, cmp := range filter.Comparisons() {
				st.Comparisons = append(st.Comparisons, ComparisonView{Value: cmp, Text: cmp.Text()})
			}
		} else {
			st.OptionSearch = cur.OptionSearch
			st.Options = facets.MatchOptions(ext.FilterOptions(c), cur.OptionSearch)
		}
		st.CanSubmit = w.CanSubmit()
	}
	return st
}

// ParseComparison is lenient like filter.ParseComparison but rejects blank input.
func ParseComparison(s string) (filter.Comparison, error) {
	if strings.TrimSpace(s) == "" {
		return "", eris.New("comparison is required")
	}
	return filter.ParseComparison(s), nil
}
