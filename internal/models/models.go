package models

import (
	"encoding/json"
	"math"
	"strconv"
	"strings"
)

// Field identifiers as they appear in the dataset.
const (
	FieldCampaign       = "campaign"
	FieldAdGroup        = "ad_group"
	FieldCountry        = "country"
	FieldCreativeName   = "creative_name"
	FieldAdNetwork      = "ad_network"
	FieldOS             = "os"
	FieldTags           = "tags"
	FieldIPM            = "ipm"
	FieldCTR            = "ctr"
	FieldSpend          = "spend"
	FieldImpressions    = "impressions"
	FieldClicks         = "clicks"
	FieldCPM            = "cpm"
	FieldCostPerClick   = "cost_per_click"
	FieldCostPerInstall = "cost_per_install"
	FieldInstalls       = "installs"
)

// StringFields lists the categorical fields in dataset order.
var StringFields = []string{
	FieldCampaign, FieldAdGroup, FieldCountry, FieldCreativeName, FieldAdNetwork, FieldOS,
}

// NumberFields lists the numeric fields in dataset order.
var NumberFields = []string{
	FieldIPM, FieldCTR, FieldSpend, FieldImpressions, FieldClicks,
	FieldCPM, FieldCostPerClick, FieldCostPerInstall, FieldInstalls,
}

// IsNumberField reports whether field holds a numeric value.
func IsNumberField(field string) bool {
	for _, f := range NumberFields {
		if f == field {
			return true
		}
	}
	return false
}

// IsStringField reports whether field holds a categorical value.
func IsStringField(field string) bool {
	for _, f := range StringFields {
		if f == field {
			return true
		}
	}
	return false
}

// FlexString accepts either a JSON string or a JSON number.
type FlexString string

func (f *FlexString) UnmarshalJSON(b []byte) error {
	s := strings.TrimSpace(string(b))
	if s == "null" {
		*f = ""
		return nil
	}
	if strings.HasPrefix(s, `"`) {
		var v string
		if err := json.Unmarshal(b, &v); err != nil {
			return err
		}
		*f = FlexString(v)
		return nil
	}
	*f = FlexString(s)
	return nil
}

// UnmarshalYAML keeps scalar nodes verbatim so numbers and strings both work.
func (f *FlexString) UnmarshalYAML(unmarshal func(any) error) error {
	var v string
	if err := unmarshal(&v); err != nil {
		return err
	}
	*f = FlexString(v)
	return nil
}

// RawRecord is one row of the bundled dataset, before normalization.
type RawRecord struct {
	Campaign       string     `json:"campaign" yaml:"campaign"`
	AdGroup        string     `json:"ad_group" yaml:"ad_group"`
	Country        string     `json:"country" yaml:"country"`
	CreativeName   string     `json:"creative_name" yaml:"creative_name"`
	AdNetwork      string     `json:"ad_network" yaml:"ad_network"`
	OS             string     `json:"os" yaml:"os"`
	Tags           string     `json:"tags" yaml:"tags"`
	IPM            FlexString `json:"ipm" yaml:"ipm"`
	CTR            FlexString `json:"ctr" yaml:"ctr"`
	Spend          FlexString `json:"spend" yaml:"spend"`
	Impressions    FlexString `json:"impressions" yaml:"impressions"`
	Clicks         FlexString `json:"clicks" yaml:"clicks"`
	CPM            FlexString `json:"cpm" yaml:"cpm"`
	CostPerClick   FlexString `json:"cost_per_click" yaml:"cost_per_click"`
	CostPerInstall FlexString `json:"cost_per_install" yaml:"cost_per_install"`
	Installs       FlexString `json:"installs" yaml:"installs"`
}

// Num is a numeric field value; NaN marks a missing or malformed value.
type Num float64

// NaN returns the missing-value marker.
func NaN() Num { return Num(math.NaN()) }

func (n Num) Valid() bool { return !math.IsNaN(float64(n)) }

// OrZero returns the value, or 0 when it is missing.
func (n Num) OrZero() float64 {
	if !n.Valid() {
		return 0
	}
	return float64(n)
}

func (n Num) String() string {
	if !n.Valid() {
		return ""
	}
	return strconv.FormatFloat(float64(n), 'f', -1, 64)
}

func (n Num) MarshalJSON() ([]byte, error) {
	if !n.Valid() || math.IsInf(float64(n), 0) {
		return []byte("null"), nil
	}
	return []byte(strconv.FormatFloat(float64(n), 'f', -1, 64)), nil
}

func (n *Num) UnmarshalJSON(b []byte) error {
	s := strings.TrimSpace(string(b))
	if s == "null" {
		*n = NaN()
		return nil
	}
	v, err := strconv.ParseFloat(s, 64)
	if err != nil {
		return err
	}
	*n = Num(v)
	return nil
}

// TagMap maps a tag key to its value.
type TagMap map[string]string

// TagPair is one well-formed key:value segment of a raw tag string.
type TagPair struct {
	Key   string
	Value string
}

// SplitTag splits one tag segment on its first ':' and trims both halves.
func SplitTag(seg string) (key, value string, ok bool) {
	k, v, found := strings.Cut(seg, ":")
	if !found {
		return "", "", false
	}
	k, v = strings.TrimSpace(k), strings.TrimSpace(v)
	if k == "" || v == "" {
		return "", "", false
	}
	return k, v, true
}

// TagPairs returns every well-formed segment of raw in order, repeated keys included.
func TagPairs(raw string) []TagPair {
	var out []TagPair
	for _, seg := range strings.Split(raw, ";") {
		if k, v, ok := SplitTag(seg); ok {
			out = append(out, TagPair{Key: k, Value: v})
		}
	}
	return out
}

// Record is a normalized dataset row. String fields are carried over untouched.
type Record struct {
	Campaign     string `json:"campaign"`
	AdGroup      string `json:"ad_group"`
	Country      string `json:"country"`
	CreativeName string `json:"creative_name"`
	AdNetwork    string `json:"ad_network"`
	OS           string `json:"os"`
	Tags         string `json:"tags"`

	IPM            Num `json:"ipm"`
	CTR            Num `json:"ctr"`
	Spend          Num `json:"spend"`
	Impressions    Num `json:"impressions"`
	Clicks         Num `json:"clicks"`
	CPM            Num `json:"cpm"`
	CostPerClick   Num `json:"cost_per_click"`
	CostPerInstall Num `json:"cost_per_install"`
	Installs       Num `json:"installs"`

	TagMap TagMap `json:"parsed_tags"`
}

// StringField returns a categorical field by identifier.
func (r *Record) StringField(field string) (string, bool) {
	switch field {
	case FieldCampaign:
		return r.Campaign, true
	case FieldAdGroup:
		return r.AdGroup, true
	case FieldCountry:
		return r.Country, true
	case FieldCreativeName:
		return r.CreativeName, true
	case FieldAdNetwork:
		return r.AdNetwork, true
	case FieldOS:
		return r.OS, true
	case FieldTags:
		return r.Tags, true
	}
	return "", false
}

// NumberField returns a numeric field by identifier.
func (r *Record) NumberField(field string) (Num, bool) {
	switch field {
	case FieldIPM:
		return r.IPM, true
	case FieldCTR:
		return r.CTR, true
	case FieldSpend:
		return r.Spend, true
	case FieldImpressions:
		return r.Impressions, true
	case FieldClicks:
		return r.Clicks, true
	case FieldCPM:
		return r.CPM, true
	case FieldCostPerClick:
		return r.CostPerClick, true
	case FieldCostPerInstall:
		return r.CostPerInstall, true
	case FieldInstalls:
		return r.Installs, true
	}
	return NaN(), false
}

// SearchValues returns the string form of every present field value,
// including the raw tag string. Missing values are left out.
func (r *Record) SearchValues() []string {
	out := make([]string, 0, len(StringFields)+len(NumberFields)+1)
	for _, f := range StringFields {
		if v, _ := r.StringField(f); v != "" {
			out = append(out, v)
		}
	}
	if r.Tags != "" {
		out = append(out, r.Tags)
	}
	for _, f := range NumberFields {
		if v, _ := r.NumberField(f); v.Valid() {
			out = append(out, v.String())
		}
	}
	return out
}
