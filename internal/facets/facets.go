// Package facets derives the filterable axes of the dataset: the fixed dimensions and
// metrics, and the tag categories discovered in the records' tag strings.
package facets

import (
	"sort"
	"strings"

	"github.com/rotisserie/eris"

	"github.com/AngelCh415/campaign-dashboard/internal/models"
)

// ErrUnknownCategory is returned when a category name resolves to no facet.
var ErrUnknownCategory = eris.New("unknown filter category")

// Kind tells the three facet families apart.
type Kind int

const (
	KindDimension Kind = iota
	KindTag
	KindMetric
)

func (k Kind) String() string {
	switch k {
	case KindDimension:
		return "dimension"
	case KindTag:
		return "tag"
	case KindMetric:
		return "metric"
	}
	return "unknown"
}

func (k Kind) MarshalText() ([]byte, error) { return []byte(k.String()), nil }

// Dimension is a fixed categorical field.
type Dimension struct {
	Name  string `json:"name"`
	Field string `json:"field"`
}

// Metric is a fixed numeric field.
type Metric struct {
	Name      string `json:"name"`
	Field     string `json:"field"`
	IsNumeric bool   `json:"is_numeric"`
}

// Category is any facet a filter can target. Field is empty for tags.
type Category struct {
	Kind  Kind   `json:"kind"`
	Name  string `json:"name"`
	Field string `json:"field,omitempty"`
}

func (c Category) IsNumeric() bool { return c.Kind == KindMetric }

var dimensions = []Dimension{
	{Name: "Campaign", Field: models.FieldCampaign},
	{Name: "Ad Group", Field: models.FieldAdGroup},
	{Name: "Country", Field: models.FieldCountry},
	{Name: "Creative Name", Field: models.FieldCreativeName},
	{Name: "Ad Network", Field: models.FieldAdNetwork},
	{Name: "OS", Field: models.FieldOS},
}

var metrics = []Metric{
	{Name: "IPM", Field: models.FieldIPM, IsNumeric: true},
	{Name: "CTR", Field: models.FieldCTR, IsNumeric: true},
	{Name: "Spend", Field: models.FieldSpend, IsNumeric: true},
	{Name: "Impressions", Field: models.FieldImpressions, IsNumeric: true},
	{Name: "Clicks", Field: models.FieldClicks, IsNumeric: true},
	{Name: "CPM", Field: models.FieldCPM, IsNumeric: true},
	{Name: "Cost Per Click", Field: models.FieldCostPerClick, IsNumeric: true},
	{Name: "Cost Per Install", Field: models.FieldCostPerInstall, IsNumeric: true},
	{Name: "Installs", Field: models.FieldInstalls, IsNumeric: true},
}

// Dimensions returns the fixed dimension list.
func Dimensions() []Dimension {
	out := make([]Dimension, len(dimensions))
	copy(out, dimensions)
	return out
}

// Metrics returns the fixed metric list.
func Metrics() []Metric {
	out := make([]Metric, len(metrics))
	copy(out, metrics)
	return out
}

// DimensionCategory returns the category for a dimension display name.
func DimensionCategory(name string) (Category, bool) {
	for _, d := range dimensions {
		if d.Name == name {
			return Category{Kind: KindDimension, Name: d.Name, Field: d.Field}, true
		}
	}
	return Category{}, false
}

// MetricCategory returns the category for a metric display name.
func MetricCategory(name string) (Category, bool) {
	for _, m := range metrics {
		if m.Name == name {
			return Category{Kind: KindMetric, Name: m.Name, Field: m.Field}, true
		}
	}
	return Category{}, false
}

// TagCategory returns the category for a tag key.
func TagCategory(key string) Category { return Category{Kind: KindTag, Name: key} }

// Extractor answers facet questions about one fixed record set.
// It is built once per record set and never mutated.
type Extractor struct {
	records []models.Record
	tags    []string
	tagSet  map[string]struct{}
}

// New scans records once for their tag categories.
func New(records []models.Record) *Extractor {
	set := map[string]struct{}{}
	for i := range records {
		for _, p := range models.TagPairs(records[i].Tags) {
			set[p.Key] = struct{}{}
		}
	}
	tags := make([]string, 0, len(set))
	for k := range set {
		tags = append(tags, k)
	}
	sort.Strings(tags)
	return &Extractor{records: records, tags: tags, tagSet: set}
}

func (e *Extractor) Dimensions() []Dimension { return Dimensions() }
func (e *Extractor) Metrics() []Metric       { return Metrics() }

// TagCategories returns the distinct tag keys, sorted ascending.
func (e *Extractor) TagCategories() []string {
	out := make([]string, len(e.tags))
	copy(out, e.tags)
	return out
}

// Lookup resolves a display name: dimensions first, then metrics, then tag keys.
func (e *Extractor) Lookup(name string) (Category, error) {
	if c, ok := DimensionCategory(name); ok {
		return c, nil
	}
	if c, ok := MetricCategory(name); ok {
		return c, nil
	}
	if _, ok := e.tagSet[name]; ok {
		return TagCategory(name), nil
	}
	return Category{}, eris.Wrapf(ErrUnknownCategory, "category %q", name)
}

// FilterOptions returns the sorted distinct non-empty values of a dimension or tag.
// Metrics have no enumerated options.
func (e *Extractor) FilterOptions(c Category) []string {
	set := map[string]struct{}{}
	switch c.Kind {
	case KindDimension:
		for i := range e.records {
			if v, _ := e.records[i].StringField(c.Field); v != "" {
				set[v] = struct{}{}
			}
		}
	case KindTag:
		// every segment counts, so a repeated key offers each of its values
		for i := range e.records {
			for _, p := range models.TagPairs(e.records[i].Tags) {
				if p.Key == c.Name {
					set[p.Value] = struct{}{}
				}
			}
		}
	default:
		return []string{}
	}
	out := make([]string, 0, len(set))
	for v := range set {
		out = append(out, v)
	}
	sort.Strings(out)
	return out
}

// Tab is a step-one grouping of categories in the filter builder.
type Tab string

const (
	TabDimensions Tab = "Dimensions"
	TabTags       Tab = "Tags"
	TabMetrics    Tab = "Metrics"
)

// ParseTab accepts a tab name case-insensitively.
func ParseTab(s string) (Tab, bool) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "dimensions":
		return TabDimensions, true
	case "tags":
		return TabTags, true
	case "metrics":
		return TabMetrics, true
	}
	return "", false
}

// TabOf returns the tab a category is listed under.
func TabOf(c Category) Tab {
	switch c.Kind {
	case KindTag:
		return TabTags
	case KindMetric:
		return TabMetrics
	}
	return TabDimensions
}

// Categories lists a tab's categories whose names contain search, case-insensitively.
func (e *Extractor) Categories(tab Tab, search string) []Category {
	var all []Category
	switch tab {
	case TabTags:
		for _, t := range e.tags {
			all = append(all, TagCategory(t))
		}
	case TabMetrics:
		for _, m := range metrics {
			all = append(all, Category{Kind: KindMetric, Name: m.Name, Field: m.Field})
		}
	default:
		for _, d := range dimensions {
			all = append(all, Category{Kind: KindDimension, Name: d.Name, Field: d.Field})
		}
	}
	needle := strings.ToLower(search)
	out := make([]Category, 0, len(all))
	for _, c := range all {
		if needle == "" || strings.Contains(strings.ToLower(c.Name), needle) {
			out = append(out, c)
		}
	}
	return out
}

// MatchOptions keeps the options containing search, case-insensitively.
func MatchOptions(options []string, search string) []string {
	if search == "" {
		return options
	}
	needle := strings.ToLower(search)
	out := make([]string, 0, len(options))
	for _, o := range options {
		if strings.Contains(strings.ToLower(o), needle) {
			out = append(out, o)
		}
	}
	return out
}
