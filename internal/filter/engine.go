package filter

import (
	"math"
	"strconv"
	"strings"

	"github.com/rotisserie/eris"

	"github.com/AngelCh415/campaign-dashboard/internal/facets"
	"github.com/AngelCh415/campaign-dashboard/internal/models"
)

var (
	ErrIndexOutOfRange = eris.New("filter index out of range")
	ErrEmptyValue      = eris.New("filter value is empty")
	ErrNotANumber      = eris.New("filter value is not a number")
	ErrBadExpression   = eris.New("malformed filter expression")
)

// MatchesSearch reports whether any field of r contains term, ignoring case.
// An empty term matches every record.
func MatchesSearch(r *models.Record, term string) bool {
	if term == "" {
		return true
	}
	needle := strings.ToLower(term)
	for _, v := range r.SearchValues() {
		if strings.Contains(strings.ToLower(v), needle) {
			return true
		}
	}
	return false
}

// Evaluate returns, in order, the records matching the search term and every predicate.
// The input slice is never modified.
func Evaluate(records []models.Record, preds []Predicate, term string) []models.Record {
	out := make([]models.Record, 0, len(records))
	for i := range records {
		r := &records[i]
		if !MatchesSearch(r, term) {
			continue
		}
		if !matchAll(r, preds) {
			continue
		}
		out = append(out, *r)
	}
	return out
}

func matchAll(r *models.Record, preds []Predicate) bool {
	for _, p := range preds {
		if !p.Match(r) {
			return false
		}
	}
	return true
}

// NewCategorical validates and builds a dimension or tag predicate.
func NewCategorical(c facets.Category, value string) (Predicate, error) {
	if c.Kind == facets.KindMetric {
		return nil, eris.Errorf("category %q is numeric", c.Name)
	}
	if value == "" {
		return nil, eris.Wrapf(ErrEmptyValue, "category %q", c.Name)
	}
	return Categorical{Cat: c, Value: value}, nil
}

// NewNumeric validates and builds a metric predicate from user input.
func NewNumeric(c facets.Category, cmp Comparison, value string) (Predicate, error) {
	if c.Kind != facets.KindMetric {
		return nil, eris.Errorf("category %q is not numeric", c.Name)
	}
	v, err := strconv.ParseFloat(strings.TrimSpace(value), 64)
	if err != nil || math.IsNaN(v) || math.IsInf(v, 0) {
		return nil, eris.Wrapf(ErrNotANumber, "category %q value %q", c.Name, value)
	}
	return Numeric{Cat: c, Comparison: cmp, Value: v}, nil
}

// Build resolves category by name and builds the matching predicate shape.
func Build(ext *facets.Extractor, category, value string, cmp Comparison) (Predicate, error) {
	c, err := ext.Lookup(category)
	if err != nil {
		return nil, err
	}
	if c.IsNumeric() {
		return NewNumeric(c, cmp, value)
	}
	return NewCategorical(c, value)
}

// ParseExpr parses the textual filter form used by the CLI and the query API:
//
//	Country:US        Spend:>5        Spend:<5        Spend:=5        Spend:5
func ParseExpr(ext *facets.Extractor, expr string) (Predicate, error) {
	category, rest, found := strings.Cut(expr, ":")
	if !found {
		return nil, eris.Wrapf(ErrBadExpression, "%q", expr)
	}
	category = strings.TrimSpace(category)
	c, err := ext.Lookup(category)
	if err != nil {
		return nil, err
	}
	if !c.IsNumeric() {
		return NewCategorical(c, strings.TrimSpace(rest))
	}
	rest = strings.TrimSpace(rest)
	cmp := Equals
	switch {
	case strings.HasPrefix(rest, ">"):
		cmp, rest = Greater, rest[1:]
	case strings.HasPrefix(rest, "<"):
		cmp, rest = Less, rest[1:]
	case strings.HasPrefix(rest, "="):
		rest = rest[1:]
	}
	return NewNumeric(c, cmp, rest)
}

// List is the ordered set of active predicates. It only changes by whole-list
// operations: append, remove by index, clear. Not safe for concurrent use.
type List struct {
	items []Predicate
}

func NewList(preds ...Predicate) *List {
	l := &List{}
	l.items = append(l.items, preds...)
	return l
}

func (l *List) Append(p Predicate) {
	next := make([]Predicate, 0, len(l.items)+1)
	next = append(next, l.items...)
	l.items = append(next, p)
}

func (l *List) Remove(i int) error {
	if i < 0 || i >= len(l.items) {
		return eris.Wrapf(ErrIndexOutOfRange, "index %d of %d", i, len(l.items))
	}
	next := make([]Predicate, 0, len(l.items)-1)
	next = append(next, l.items[:i]...)
	l.items = append(next, l.items[i+1:]...)
	return nil
}

func (l *List) Clear() {
	l.items = nil
}

func (l *List) Len() int {
	return len(l.items)
}

// Items returns a copy of the active predicates.
func (l *List) Items() []Predicate {
	out := make([]Predicate, len(l.items))
	copy(out, l.items)
	return out
}

// Chips renders every active predicate.
func (l *List) Chips() []Chip {
	items := l.Items()
	out := make([]Chip, 0, len(items))
	for i, p := range items {
		out = append(out, ChipOf(i, p))
	}
	return out
}
