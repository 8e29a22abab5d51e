package table

import (
	"math"
	"strconv"

	"github.com/shopspring/decimal"
	"golang.org/x/text/language"
	"golang.org/x/text/message"

	"github.com/AngelCh415/campaign-dashboard/internal/models"
)

// Tone is the display color class of a cell. It never affects filtering.
type Tone string

const (
	TonePlain   Tone = ""
	ToneNeutral Tone = "neutral"
	ToneHigh    Tone = "high"
	ToneMedium  Tone = "medium"
	ToneLow     Tone = "low"
	ToneGood    Tone = "good"
	TonePoor    Tone = "poor"
)

// ToneOf classifies a metric value. Higher is better for ctr, ipm and installs;
// lower is better for spend. Zero or missing values are neutral.
func ToneOf(field string, n models.Num) Tone {
	switch field {
	case models.FieldCTR, models.FieldIPM, models.FieldInstalls, models.FieldSpend:
	default:
		return TonePlain
	}
	if !n.Valid() || n == 0 {
		return ToneNeutral
	}
	v := float64(n)
	switch field {
	case models.FieldCTR, models.FieldIPM:
		if v > 1.5 {
			return ToneHigh
		}
		if v > 0.8 {
			return ToneMedium
		}
		return ToneLow
	case models.FieldInstalls:
		if v > 20 {
			return ToneHigh
		}
		if v > 10 {
			return ToneMedium
		}
		return ToneLow
	}
	// spend
	if v < 3 {
		return ToneGood
	}
	if v < 5 {
		return ToneMedium
	}
	return TonePoor
}

// FormatCell renders one field of r for display.
func FormatCell(r *models.Record, field string) string {
	if s, ok := r.StringField(field); ok {
		return s
	}
	n, _ := r.NumberField(field)
	switch field {
	case models.FieldIPM:
		return fixed2(n.OrZero())
	case models.FieldCTR:
		return fixed2(n.OrZero()) + "%"
	case models.FieldSpend, models.FieldCPM, models.FieldCostPerClick, models.FieldCostPerInstall:
		return money(n.OrZero())
	case models.FieldImpressions, models.FieldClicks, models.FieldInstalls:
		return strconv.FormatInt(int64(n.OrZero()), 10)
	}
	return n.String()
}

// fixed2 rounds the exact binary value half up to two decimals, so 2.675 (stored
// as 2.67499...) gives "2.67" and 0.125 gives "0.13".
func fixed2(v float64) string { return decimal.NewFromFloatWithExponent(v, -2).StringFixed(2) }
func money(v float64) string  { return "$" + fixed2(v) }

// grouped renders an integer with the locale's digit grouping ("1,234").
func grouped(loc language.Tag, v float64) string {
	return message.NewPrinter(loc).Sprintf("%d", int64(math.Round(v)))
}

// Total is the summary cell of one visible column.
type Total struct {
	Field     string    `json:"field"`
	Aggregate Aggregate `json:"aggregate,omitempty"`
	Value     float64   `json:"value"`
	Text      string    `json:"text"`
}

// Totals summarises records for each column. Missing values count as 0 and
// averages divide by the number of records.
func Totals(records []models.Record, cols []Column, loc language.Tag) []Total {
	out := make([]Total, 0, len(cols))
	for _, c := range cols {
		t := Total{Field: c.Field, Aggregate: c.Aggregate}
		if c.Aggregate == AggNone || len(records) == 0 {
			out = append(out, t)
			continue
		}
		var sum float64
		for i := range records {
			n, _ := records[i].NumberField(c.Field)
			sum += n.OrZero()
		}
		switch c.Aggregate {
		case AggSum:
			t.Value = sum
		case AggAvg:
			t.Value = sum / float64(len(records))
		}
		t.Text = totalText(c.Field, t.Value, loc)
		out = append(out, t)
	}
	return out
}

func totalText(field string, v float64, loc language.Tag) string {
	switch field {
	case models.FieldImpressions:
		return "Total: " + grouped(loc, v)
	case models.FieldClicks, models.FieldInstalls:
		return grouped(loc, v)
	case models.FieldIPM:
		return "Avg: " + fixed2(v)
	case models.FieldCTR:
		return "Avg: " + fixed2(v) + "%"
	case models.FieldSpend:
		return "Total: " + money(v)
	}
	return ""
}
