package ingest

import (
	"math"
	"strconv"
	"strings"

	"github.com/AngelCh415/campaign-dashboard/internal/models"
)

// Normalize converts raw dataset rows into typed records. Length and order are preserved.
func Normalize(raws []models.RawRecord) []models.Record {
	out := make([]models.Record, 0, len(raws))
	for _, r := range raws {
		out = append(out, NormalizeOne(r))
	}
	return out
}

func NormalizeOne(r models.RawRecord) models.Record {
	return models.Record{
		Campaign:     r.Campaign,
		AdGroup:      r.AdGroup,
		Country:      r.Country,
		CreativeName: r.CreativeName,
		AdNetwork:    r.AdNetwork,
		OS:           r.OS,
		Tags:         r.Tags,

		IPM:            parseFloat(r.IPM),
		CTR:            parseFloat(r.CTR),
		Spend:          parseFloat(r.Spend),
		CPM:            parseFloat(r.CPM),
		CostPerClick:   parseFloat(r.CostPerClick),
		CostPerInstall: parseFloat(r.CostPerInstall),
		Impressions:    parseInt(r.Impressions),
		Clicks:         parseInt(r.Clicks),
		Installs:       parseInt(r.Installs),

		TagMap: ParseTags(r.Tags),
	}
}

// ParseTags parses "k1:v1;k2:v2". Segments with an empty key or value are dropped;
// a repeated key keeps its last value.
func ParseTags(s string) models.TagMap {
	out := models.TagMap{}
	for _, p := range models.TagPairs(s) {
		out[p.Key] = p.Value
	}
	return out
}

func parseFloat(s models.FlexString) models.Num {
	v, err := strconv.ParseFloat(strings.TrimSpace(string(s)), 64)
	if err != nil || math.IsInf(v, 0) {
		return models.NaN()
	}
	return models.Num(v)
}

// enteros: se trunca hacia cero ("12.7" -> 12)
func parseInt(s models.FlexString) models.Num {
	trimmed := strings.TrimSpace(string(s))
	if i, err := strconv.ParseInt(trimmed, 10, 64); err == nil {
		return models.Num(i)
	}
	f := parseFloat(s)
	if !f.Valid() {
		return f
	}
	return models.Num(math.Trunc(float64(f)))
}
