package table

import (
	"sort"

	"github.com/rotisserie/eris"

	"github.com/AngelCh415/campaign-dashboard/internal/models"
)

var ErrUnknownField = eris.New("unknown table field")

// Aggregate is the summary shown under a column.
type Aggregate string

const (
	AggNone Aggregate = ""
	AggSum  Aggregate = "sum"
	AggAvg  Aggregate = "avg"
)

// Column describes one table column.
type Column struct {
	Field     string    `json:"field"`
	Header    string    `json:"header"`
	Numeric   bool      `json:"numeric"`
	Aggregate Aggregate `json:"aggregate,omitempty"`
	Default   bool      `json:"-"`
}

var catalog = []Column{
	{Field: models.FieldCreativeName, Header: "Creative Name", Default: true},
	{Field: models.FieldCampaign, Header: "Campaign", Default: true},
	{Field: models.FieldAdGroup, Header: "Ad Group", Default: true},
	{Field: models.FieldCountry, Header: "Country", Default: true},
	{Field: models.FieldIPM, Header: "IPM", Numeric: true, Aggregate: AggAvg, Default: true},
	{Field: models.FieldCTR, Header: "CTR", Numeric: true, Aggregate: AggAvg, Default: true},
	{Field: models.FieldSpend, Header: "Spend", Numeric: true, Aggregate: AggSum, Default: true},
	{Field: models.FieldImpressions, Header: "Impressions", Numeric: true, Aggregate: AggSum, Default: true},
	{Field: models.FieldInstalls, Header: "Installs", Numeric: true, Aggregate: AggSum, Default: true},
	{Field: models.FieldAdNetwork, Header: "Ad Network"},
	{Field: models.FieldOS, Header: "OS"},
	{Field: models.FieldClicks, Header: "Clicks", Numeric: true, Aggregate: AggSum},
	{Field: models.FieldCPM, Header: "CPM", Numeric: true},
	{Field: models.FieldCostPerClick, Header: "Cost Per Click", Numeric: true},
	{Field: models.FieldCostPerInstall, Header: "Cost Per Install", Numeric: true},
}

// Catalog returns every column in display order.
func Catalog() []Column {
	out := make([]Column, len(catalog))
	copy(out, catalog)
	return out
}

// ColumnFor returns the catalog entry for field.
func ColumnFor(field string) (Column, bool) {
	for _, c := range catalog {
		if c.Field == field {
			return c, true
		}
	}
	return Column{}, false
}

// Visibility maps a column field to whether it is shown.
type Visibility map[string]bool

// DefaultVisibility shows the nine standard columns.
func DefaultVisibility() Visibility {
	v := Visibility{}
	for _, c := range catalog {
		v[c.Field] = c.Default
	}
	return v
}

// VisibilityOf shows exactly the given fields.
func VisibilityOf(fields ...string) (Visibility, error) {
	v := Visibility{}
	for _, c := range catalog {
		v[c.Field] = false
	}
	for _, f := range fields {
		if _, ok := v[f]; !ok {
			return nil, eris.Wrapf(ErrUnknownField, "column %q", f)
		}
		v[f] = true
	}
	return v, nil
}

func (v Visibility) Clone() Visibility {
	out := make(Visibility, len(v))
	for k, b := range v {
		out[k] = b
	}
	return out
}

// Toggle flips one column.
func (v Visibility) Toggle(field string) error {
	if _, ok := ColumnFor(field); !ok {
		return eris.Wrapf(ErrUnknownField, "column %q", field)
	}
	v[field] = !v[field]
	return nil
}

func (v Visibility) Set(field string, visible bool) error {
	if _, ok := ColumnFor(field); !ok {
		return eris.Wrapf(ErrUnknownField, "column %q", field)
	}
	v[field] = visible
	return nil
}

// Columns returns the visible columns in catalog order.
func (v Visibility) Columns() []Column {
	out := make([]Column, 0, len(catalog))
	for _, c := range catalog {
		if v[c.Field] {
			out = append(out, c)
		}
	}
	return out
}

// Fields returns the visible field identifiers, sorted.
func (v Visibility) Fields() []string {
	out := make([]string, 0, len(v))
	for f, ok := range v {
		if ok {
			out = append(out, f)
		}
	}
	sort.Strings(out)
	return out
}

// Sortable reports whether records can be ordered by field.
func Sortable(field string) bool {
	return models.IsNumberField(field) || models.IsStringField(field)
}
