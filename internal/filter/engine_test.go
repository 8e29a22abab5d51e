package filter

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/AngelCh415/campaign-dashboard/internal/facets"
	"github.com/AngelCh415/campaign-dashboard/internal/models"
)

func rec(campaign, country, network, tags string, spend models.Num) models.Record {
	return models.Record{
		Campaign:       campaign,
		Country:        country,
		AdNetwork:      network,
		Tags:           tags,
		Spend:          spend,
		IPM:            models.NaN(),
		CTR:            models.NaN(),
		Impressions:    models.NaN(),
		Clicks:         models.NaN(),
		CPM:            models.NaN(),
		CostPerClick:   models.NaN(),
		CostPerInstall: models.NaN(),
		Installs:       models.NaN(),
		TagMap:         tagMap(tags),
	}
}

func tagMap(raw string) models.TagMap {
	out := models.TagMap{}
	for _, k := range []string{"country", "network", "hook"} {
		for _, v := range []string{"US", "DE", "AdMob", "Fun"} {
			if HasTag(raw, k, v) {
				out[k] = v
			}
		}
	}
	return out
}

func dataset() []models.Record {
	return []models.Record{
		rec("A", "US", "AdMob", "country:US;network:AdMob", 10),
		rec("B", "DE", "AdMob", "country:DE;network:AdMob", 5),
		rec("C", "US", "Unity", "country:US;hook:Fun", 5.01),
		rec("D", "US", "Unity", "", models.NaN()),
	}
}

func names(rs []models.Record) []string {
	out := make([]string, 0, len(rs))
	for _, r := range rs {
		out = append(out, r.Campaign)
	}
	return out
}

func mustBuild(t *testing.T, ext *facets.Extractor, category, value string, cmp Comparison) Predicate {
	t.Helper()
	p, err := Build(ext, category, value, cmp)
	require.NoError(t, err)
	return p
}

func TestSearchAndCategoricalFilter(t *testing.T) {
	recs := dataset()
	ext := facets.New(recs)
	country := mustBuild(t, ext, "Country", "US", Equals)

	got := Evaluate(recs, []Predicate{country}, "admob")
	assert.Equal(t, []string{"A"}, names(got))
}

func TestNumericGreaterIsStrict(t *testing.T) {
	recs := dataset()
	ext := facets.New(recs)
	spend := mustBuild(t, ext, "Spend", "5", Greater)

	got := Evaluate(recs, []Predicate{spend}, "")
	assert.Equal(t, []string{"A", "C"}, names(got))
}

func TestNumericComparisons(t *testing.T) {
	recs := dataset()
	ext := facets.New(recs)

	less := mustBuild(t, ext, "Spend", "5.01", Less)
	assert.Equal(t, []string{"B"}, names(Evaluate(recs, []Predicate{less}, "")))

	eq := mustBuild(t, ext, "Spend", "5", Equals)
	assert.Equal(t, []string{"B"}, names(Evaluate(recs, []Predicate{eq}, "")))
}

func TestMissingValueNeverMatches(t *testing.T) {
	r := rec("D", "US", "Unity", "", models.NaN())
	spend, _ := facets.MetricCategory("Spend")
	for _, cmp := range Comparisons() {
		for _, v := range []float64{-1e9, 0, 1e9} {
			assert.False(t, Numeric{Cat: spend, Comparison: cmp, Value: v}.Match(&r), "%s %v", cmp, v)
		}
	}
}

func TestTagMatchIsExact(t *testing.T) {
	assert.True(t, HasTag("country:US;network:AdMob", "country", "US"))
	assert.True(t, HasTag(" country : US ;x:y", "country", "US"))
	assert.False(t, HasTag("country:US", "country", "U"))
	assert.False(t, HasTag("country:USA", "country", "US"))
	assert.False(t, HasTag("xcountry:US", "country", "US"))
	assert.False(t, HasTag("country", "country", "US"))
	assert.False(t, HasTag("", "country", "US"))

	r := rec("A", "US", "AdMob", "country:US", 1)
	p := Categorical{Cat: facets.TagCategory("country"), Value: "U"}
	assert.False(t, p.Match(&r))
}

func TestPredicateOrderDoesNotMatter(t *testing.T) {
	recs := dataset()
	ext := facets.New(recs)
	a := mustBuild(t, ext, "Country", "US", Equals)
	b := mustBuild(t, ext, "Spend", "1", Greater)
	c := mustBuild(t, ext, "country", "US", Equals)

	first := Evaluate(recs, []Predicate{a, b, c}, "")
	second := Evaluate(recs, []Predicate{c, a, b}, "")
	assert.Equal(t, names(first), names(second))
	assert.Equal(t, []string{"A", "C"}, names(first))
}

func TestEvaluateDoesNotTouchInput(t *testing.T) {
	recs := dataset()
	ext := facets.New(recs)
	p := mustBuild(t, ext, "Country", "DE", Equals)

	got := Evaluate(recs, []Predicate{p}, "")
	require.Len(t, got, 1)
	got[0].Campaign = "changed"
	assert.Equal(t, "B", recs[1].Campaign)
	assert.Len(t, Evaluate(recs, nil, ""), len(recs))
}

func TestSearchCoversNumbersAndTags(t *testing.T) {
	recs := dataset()
	assert.Equal(t, []string{"C"}, names(Evaluate(recs, nil, "5.01")))
	assert.Equal(t, []string{"C"}, names(Evaluate(recs, nil, "HOOK:fun")))
	assert.Empty(t, Evaluate(recs, nil, "nothing-like-this"))
}

func TestBuildValidation(t *testing.T) {
	ext := facets.New(dataset())

	_, err := Build(ext, "Spend", "abc", Greater)
	assert.ErrorIs(t, err, ErrNotANumber)
	_, err = Build(ext, "Spend", "", Equals)
	assert.ErrorIs(t, err, ErrNotANumber)
	_, err = Build(ext, "Spend", "NaN", Equals)
	assert.ErrorIs(t, err, ErrNotANumber)
	_, err = Build(ext, "Country", "", Equals)
	assert.ErrorIs(t, err, ErrEmptyValue)
	_, err = Build(ext, "Bogus", "x", Equals)
	assert.ErrorIs(t, err, facets.ErrUnknownCategory)
}

func TestParseExpr(t *testing.T) {
	ext := facets.New(dataset())

	p, err := ParseExpr(ext, "Country:US")
	require.NoError(t, err)
	assert.Equal(t, Categorical{Cat: p.Category(), Value: "US"}, p)

	p, err = ParseExpr(ext, "Spend:>5")
	require.NoError(t, err)
	assert.Equal(t, Greater, p.(Numeric).Comparison)
	assert.Equal(t, 5.0, p.(Numeric).Value)

	p, err = ParseExpr(ext, "Spend: <2.5")
	require.NoError(t, err)
	assert.Equal(t, Less, p.(Numeric).Comparison)

	for _, expr := range []string{"Spend:=3", "Spend:3"} {
		p, err = ParseExpr(ext, expr)
		require.NoError(t, err)
		assert.Equal(t, Equals, p.(Numeric).Comparison)
		assert.Equal(t, 3.0, p.(Numeric).Value)
	}

	p, err = ParseExpr(ext, "network:AdMob")
	require.NoError(t, err)
	assert.Equal(t, facets.KindTag, p.Category().Kind)

	_, err = ParseExpr(ext, "no colon")
	assert.ErrorIs(t, err, ErrBadExpression)
}

func TestListOperations(t *testing.T) {
	ext := facets.New(dataset())
	a := mustBuild(t, ext, "Country", "US", Equals)
	b := mustBuild(t, ext, "Spend", "5", Greater)
	c := mustBuild(t, ext, "network", "AdMob", Equals)

	l := NewList()
	l.Append(a)
	l.Append(b)
	l.Append(c)
	require.Equal(t, 3, l.Len())

	require.NoError(t, l.Remove(1))
	assert.Equal(t, []Predicate{a, c}, l.Items())

	assert.ErrorIs(t, l.Remove(2), ErrIndexOutOfRange)
	assert.ErrorIs(t, l.Remove(-1), ErrIndexOutOfRange)
	assert.Equal(t, 2, l.Len())

	items := l.Items()
	items[0] = b
	assert.Equal(t, a, l.Items()[0])

	l.Clear()
	assert.Zero(t, l.Len())
	assert.Empty(t, l.Chips())
}

func TestChips(t *testing.T) {
	ext := facets.New(dataset())
	l := NewList(
		mustBuild(t, ext, "Country", "US", Equals),
		mustBuild(t, ext, "Spend", "5", Greater),
		mustBuild(t, ext, "Spend", "2.5", Equals),
	)

	chips := l.Chips()
	require.Len(t, chips, 3)
	assert.Equal(t, "US", chips[0].Label)
	assert.Equal(t, "Country", chips[0].Category.Name)
	assert.Equal(t, "greater than 5", chips[1].Label)
	assert.Equal(t, Greater, chips[1].Comparison)
	assert.Equal(t, "2.5", chips[2].Label)
	assert.Equal(t, 2, chips[2].Index)
}

func TestParseComparison(t *testing.T) {
	assert.Equal(t, Greater, ParseComparison(" Greater "))
	assert.Equal(t, Less, ParseComparison("less"))
	assert.Equal(t, Equals, ParseComparison("whatever"))
	assert.Equal(t, "less than", Less.Text())
}

func TestTagOptionsAgreeWithMatching(t *testing.T) {
	r := rec("A", "US", "AdMob", "k:1;k:2", 1)
	ext := facets.New([]models.Record{r})
	cat := facets.TagCategory("k")

	opts := ext.FilterOptions(cat)
	assert.Equal(t, []string{"1", "2"}, opts)
	for _, v := range opts {
		assert.True(t, Categorical{Cat: cat, Value: v}.Match(&r), v)
	}
}
