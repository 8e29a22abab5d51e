package filter

import (
	"strconv"
	"strings"

	"github.com/AngelCh415/campaign-dashboard/internal/facets"
	"github.com/AngelCh415/campaign-dashboard/internal/models"
)

// Comparison is the operator of a numeric predicate.
type Comparison string

const (
	Equals  Comparison = "equals"
	Greater Comparison = "greater"
	Less    Comparison = "less"
)

// ParseComparison maps anything unrecognised to Equals.
func ParseComparison(s string) Comparison {
	switch Comparison(strings.ToLower(strings.TrimSpace(s))) {
	case Greater:
		return Greater
	case Less:
		return Less
	}
	return Equals
}

// Text is the human label used on filter chips and in the builder.
func (c Comparison) Text() string {
	switch c {
	case Greater:
		return "greater than"
	case Less:
		return "less than"
	}
	return "equals"
}

// Comparisons lists the operators offered for numeric categories.
func Comparisons() []Comparison { return []Comparison{Equals, Greater, Less} }

// Predicate is one committed filter condition. The set of implementations is closed.
type Predicate interface {
	Match(r *models.Record) bool
	Category() facets.Category
	predicate()
}

// Categorical matches a dimension field or a tag by exact value.
type Categorical struct {
	Cat   facets.Category
	Value string
}

func (p Categorical) Category() facets.Category { return p.Cat }
func (Categorical) predicate()                  {}

func (p Categorical) Match(r *models.Record) bool {
	switch p.Cat.Kind {
	case facets.KindDimension:
		v, ok := r.StringField(p.Cat.Field)
		return ok && v == p.Value
	case facets.KindTag:
		return HasTag(r.Tags, p.Cat.Name, p.Value)
	}
	return false
}

// Numeric compares a metric field against a number.
type Numeric struct {
	Cat        facets.Category
	Comparison Comparison
	Value      float64
}

func (p Numeric) Category() facets.Category { return p.Cat }
func (Numeric) predicate()                  {}

// Match never accepts a missing (NaN) field value.
func (p Numeric) Match(r *models.Record) bool {
	n, ok := r.NumberField(p.Cat.Field)
	if !ok || !n.Valid() {
		return false
	}
	v := float64(n)
	switch p.Comparison {
	case Greater:
		return v > p.Value
	case Less:
		return v < p.Value
	}
	return v == p.Value
}

// HasTag reports whether the raw tag string holds a segment key:value exactly.
// Each ';'-separated segment is split on its first ':' and trimmed, so
// "country:U" does not match "country:US" and "xcountry:US" does not match "country:US".
func HasTag(raw, key, value string) bool {
	for len(raw) > 0 {
		seg := raw
		if i := strings.IndexByte(raw, ';'); i >= 0 {
			seg, raw = raw[:i], raw[i+1:]
		} else {
			raw = ""
		}
		if k, v, ok := models.SplitTag(seg); ok && k == key && v == value {
			return true
		}
	}
	return false
}

// Chip is the display form of an active predicate.
type Chip struct {
	Index      int             `json:"index"`
	Category   facets.Category `json:"category"`
	Comparison Comparison      `json:"comparison,omitempty"`
	Value      string          `json:"value"`
	Label      string          `json:"label"`
}

// ChipOf renders p the way the filter bar shows it.
func ChipOf(i int, p Predicate) Chip {
	c := Chip{Index: i, Category: p.Category()}
	switch p := p.(type) {
	case Categorical:
		c.Value = p.Value
		c.Label = p.Value
	case Numeric:
		c.Comparison = p.Comparison
		c.Value = strconv.FormatFloat(p.Value, 'f', -1, 64)
		if p.Comparison != Equals {
			c.Label = p.Comparison.Text() + " " + c.Value
		} else {
			c.Label = c.Value
		}
	}
	return c
}
