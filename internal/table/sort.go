package table

import (
	"sort"
	"strings"

	"github.com/rotisserie/eris"
	"golang.org/x/text/collate"
	"golang.org/x/text/language"

	"github.com/AngelCh415/campaign-dashboard/internal/models"
)

var ErrInvalidDirection = eris.New("invalid sort direction")

// Direction is a sort order.
type Direction string

const (
	Asc  Direction = "asc"
	Desc Direction = "desc"
)

// ParseDirection accepts "asc"/"desc" in any case; anything else is an error.
func ParseDirection(s string) (Direction, error) {
	switch Direction(strings.ToLower(strings.TrimSpace(s))) {
	case Asc:
		return Asc, nil
	case Desc:
		return Desc, nil
	}
	return "", eris.Wrapf(ErrInvalidDirection, "%q", s)
}

func (d Direction) Flip() Direction {
	if d == Asc {
		return Desc
	}
	return Asc
}

func (d Direction) sign() int {
	if d == Desc {
		return -1
	}
	return 1
}

// Sort returns a stably sorted copy of records. Numbers compare numerically with
// missing values lowest; strings use the collation of loc, empty first.
func Sort(records []models.Record, field string, dir Direction, loc language.Tag) ([]models.Record, error) {
	if !Sortable(field) {
		return nil, eris.Wrapf(ErrUnknownField, "sort field %q", field)
	}
	out := make([]models.Record, len(records))
	copy(out, records)
	sign := dir.sign()

	if models.IsNumberField(field) {
		sort.SliceStable(out, func(i, j int) bool {
			a, _ := out[i].NumberField(field)
			b, _ := out[j].NumberField(field)
			return compareNum(a, b)*sign < 0
		})
		return out, nil
	}

	col := collate.New(loc)
	sort.SliceStable(out, func(i, j int) bool {
		a, _ := out[i].StringField(field)
		b, _ := out[j].StringField(field)
		return col.CompareString(a, b)*sign < 0
	})
	return out, nil
}

func compareNum(a, b models.Num) int {
	switch {
	case !a.Valid() && !b.Valid():
		return 0
	case !a.Valid():
		return -1
	case !b.Valid():
		return 1
	case a < b:
		return -1
	case a > b:
		return 1
	}
	return 0
}
