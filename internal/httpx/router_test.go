package httpx

import (
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/AngelCh415/campaign-dashboard/internal/ingest"
	"github.com/AngelCh415/campaign-dashboard/internal/metrics"
	"github.com/AngelCh415/campaign-dashboard/internal/models"
	"github.com/AngelCh415/campaign-dashboard/internal/store"
	"github.com/AngelCh415/campaign-dashboard/internal/telemetry"
	"github.com/AngelCh415/campaign-dashboard/internal/view"
)

func newTestRouter(t *testing.T, raws []models.RawRecord) http.Handler {
	t.Helper()
	h, _ := newTestServer(t, raws)
	return h
}

func newTestServer(t *testing.T, raws []models.RawRecord) (http.Handler, *telemetry.Metrics) {
	t.Helper()
	st := store.NewMemoryStore()
	if raws != nil {
		st.Replace(ingest.Normalize(raws))
	}
	defs := view.DefaultDefaults()
	vs, err := view.New(st, defs)
	require.NoError(t, err)

	reg := prometheus.NewRegistry()
	m := telemetry.NewMetrics(reg)
	return NewRouter(Deps{
		Log:            zap.NewNop(),
		Store:          st,
		Service:        metrics.NewService(st, defs),
		View:           vs,
		Metrics:        m,
		Gatherer:       reg,
		AllowedOrigins: []string{"*"},
	}), m
}

func sampleRaws() []models.RawRecord {
	return []models.RawRecord{
		{Campaign: "A", Country: "US", AdNetwork: "AdMob", Tags: "country:US;network:AdMob", Spend: "10", Impressions: "100"},
		{Campaign: "B", Country: "DE", AdNetwork: "AdMob", Tags: "country:DE;network:AdMob", Spend: "5", Impressions: "300"},
		{Campaign: "C", Country: "US", AdNetwork: "Unity", Tags: "country:US;hook:Fun", Spend: "5.01", Impressions: "50"},
	}
}

func do(t *testing.T, h http.Handler, method, path, body string) *httptest.ResponseRecorder {
	t.Helper()
	var req *http.Request
	if body == "" {
		req = httptest.NewRequest(method, path, nil)
	} else {
		req = httptest.NewRequest(method, path, strings.NewReader(body))
		req.Header.Set("Content-Type", "application/json")
	}
	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, req)
	return rec
}

func decodeBody(t *testing.T, rec *httptest.ResponseRecorder) map[string]any {
	t.Helper()
	var out map[string]any
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &out), rec.Body.String())
	return out
}

func TestHealthAndReadiness(t *testing.T) {
	h := newTestRouter(t, sampleRaws())
	rec := do(t, h, http.MethodGet, "/healthz", "")
	assert.Equal(t, http.StatusOK, rec.Code)
	assert.NotEmpty(t, rec.Header().Get("X-Request-ID"))

	assert.Equal(t, http.StatusOK, do(t, h, http.MethodGet, "/readyz", "").Code)

	empty := newTestRouter(t, nil)
	assert.Equal(t, http.StatusServiceUnavailable, do(t, empty, http.MethodGet, "/readyz", "").Code)
}

func TestRequestIDIsReused(t *testing.T) {
	h := newTestRouter(t, sampleRaws())
	req := httptest.NewRequest(http.MethodGet, "/healthz", nil)
	req.Header.Set("X-Request-ID", "abc-123")
	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, req)
	assert.Equal(t, "abc-123", rec.Header().Get("X-Request-ID"))
}

func TestRecordsQuery(t *testing.T) {
	h := newTestRouter(t, sampleRaws())
	rec := do(t, h, http.MethodGet, "/api/records?search=admob&filter=Country:US", "")
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())

	body := decodeBody(t, rec)
	assert.EqualValues(t, 1, body["filtered_rows"])
	assert.EqualValues(t, 3, body["total_records"])

	rec = do(t, h, http.MethodGet, "/api/records?dir=sideways", "")
	assert.Equal(t, http.StatusBadRequest, rec.Code)

	rec = do(t, h, http.MethodGet, "/api/records?filter=Nope:1", "")
	assert.Equal(t, http.StatusNotFound, rec.Code)

	rec = do(t, h, http.MethodGet, "/api/records?filter=Spend:%3Ex", "")
	assert.Equal(t, http.StatusBadRequest, rec.Code)
}

func TestFacetsEndpoints(t *testing.T) {
	h := newTestRouter(t, sampleRaws())

	rec := do(t, h, http.MethodGet, "/api/facets", "")
	require.Equal(t, http.StatusOK, rec.Code)
	body := decodeBody(t, rec)
	assert.Equal(t, []any{"country", "hook", "network"}, body["tag_categories"])

	rec = do(t, h, http.MethodGet, "/api/facets/options?category=Country", "")
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, []any{"DE", "US"}, decodeBody(t, rec)["options"])

	assert.Equal(t, http.StatusBadRequest, do(t, h, http.MethodGet, "/api/facets/options", "").Code)
	assert.Equal(t, http.StatusNotFound, do(t, h, http.MethodGet, "/api/facets/options?category=zzz", "").Code)
}

func TestViewLifecycle(t *testing.T) {
	h := newTestRouter(t, sampleRaws())

	rec := do(t, h, http.MethodPost, "/api/filters/", `{"expr":"Spend:>5"}`)
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())
	assert.EqualValues(t, 2, decodeBody(t, rec)["filtered_rows"])

	rec = do(t, h, http.MethodPost, "/api/filters/", `{"category":"country","value":"US"}`)
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())
	assert.EqualValues(t, 2, decodeBody(t, rec)["filtered_rows"])

	rec = do(t, h, http.MethodGet, "/api/filters/", "")
	require.Equal(t, http.StatusOK, rec.Code)
	var chips []map[string]any
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &chips))
	require.Len(t, chips, 2)
	assert.Equal(t, "greater than 5", chips[0]["label"])

	rec = do(t, h, http.MethodPut, "/api/view/search", `{"term":"unity"}`)
	require.Equal(t, http.StatusOK, rec.Code)
	assert.EqualValues(t, 1, decodeBody(t, rec)["filtered_rows"])

	assert.Equal(t, http.StatusNotFound, do(t, h, http.MethodDelete, "/api/filters/9", "").Code)
	assert.Equal(t, http.StatusBadRequest, do(t, h, http.MethodDelete, "/api/filters/x", "").Code)
	require.Equal(t, http.StatusOK, do(t, h, http.MethodDelete, "/api/filters/0", "").Code)

	rec = do(t, h, http.MethodDelete, "/api/filters/", "")
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Empty(t, decodeBody(t, rec)["filters"])
}

func TestViewSortAndPaging(t *testing.T) {
	h := newTestRouter(t, sampleRaws())

	rec := do(t, h, http.MethodPut, "/api/view/sort", `{"field":"spend","direction":"asc"}`)
	require.Equal(t, http.StatusOK, rec.Code)
	tbl := decodeBody(t, rec)["table"].(map[string]any)
	assert.Equal(t, "spend", tbl["sort_field"])
	assert.Equal(t, "asc", tbl["sort_direction"])

	rec = do(t, h, http.MethodPut, "/api/view/sort", `{"field":"spend"}`)
	require.Equal(t, http.StatusOK, rec.Code)
	tbl = decodeBody(t, rec)["table"].(map[string]any)
	assert.Equal(t, "desc", tbl["sort_direction"])

	assert.Equal(t, http.StatusNotFound, do(t, h, http.MethodPut, "/api/view/sort", `{"field":"nope"}`).Code)
	assert.Equal(t, http.StatusBadRequest, do(t, h, http.MethodPut, "/api/view/sort", `{"field":"spend","direction":"up"}`).Code)

	rec = do(t, h, http.MethodPut, "/api/view/rows-per-page", `{"rows_per_page":1}`)
	require.Equal(t, http.StatusOK, rec.Code)
	rec = do(t, h, http.MethodPut, "/api/view/page", `{"page":9}`)
	require.Equal(t, http.StatusOK, rec.Code)
	tbl = decodeBody(t, rec)["table"].(map[string]any)
	assert.EqualValues(t, 3, tbl["page"])
	assert.EqualValues(t, 3, tbl["total_pages"])

	assert.Equal(t, http.StatusBadRequest, do(t, h, http.MethodPut, "/api/view/rows-per-page", `{"rows_per_page":0}`).Code)
	assert.Equal(t, http.StatusBadRequest, do(t, h, http.MethodPut, "/api/view/page", `not json`).Code)

	rec = do(t, h, http.MethodPost, "/api/view/columns/os/toggle", "")
	require.Equal(t, http.StatusOK, rec.Code)
	vis := decodeBody(t, rec)["visibility"].(map[string]any)
	assert.Equal(t, true, vis["os"])
	assert.Equal(t, http.StatusNotFound, do(t, h, http.MethodPost, "/api/view/columns/nope/toggle", "").Code)

	rec = do(t, h, http.MethodGet, "/api/view/", "")
	require.Equal(t, http.StatusOK, rec.Code)
}

func TestBuilderActions(t *testing.T) {
	h := newTestRouter(t, sampleRaws())

	rec := do(t, h, http.MethodPost, "/api/builder/open", "")
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, true, decodeBody(t, rec)["open"])

	rec = do(t, h, http.MethodPost, "/api/builder/tab", `{"tab":"metrics"}`)
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "Metrics", decodeBody(t, rec)["tab"])

	assert.Equal(t, http.StatusBadRequest, do(t, h, http.MethodPost, "/api/builder/tab", `{"tab":"other"}`).Code)
	assert.Equal(t, http.StatusConflict, do(t, h, http.MethodPost, "/api/builder/value", `{"value":"5"}`).Code)

	rec = do(t, h, http.MethodPost, "/api/builder/category", `{"category":"Spend"}`)
	require.Equal(t, http.StatusOK, rec.Code)
	assert.EqualValues(t, 2, decodeBody(t, rec)["step"])

	require.Equal(t, http.StatusOK, do(t, h, http.MethodPost, "/api/builder/comparison", `{"comparison":"greater"}`).Code)
	assert.Equal(t, http.StatusBadRequest, do(t, h, http.MethodPost, "/api/builder/submit", "").Code)

	rec = do(t, h, http.MethodPost, "/api/builder/value", `{"value":"5"}`)
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, true, decodeBody(t, rec)["can_submit"])

	rec = do(t, h, http.MethodPost, "/api/builder/submit", "")
	require.Equal(t, http.StatusOK, rec.Code)
	body := decodeBody(t, rec)
	assert.Equal(t, false, body["open"])
	assert.EqualValues(t, 1, body["step"])

	rec = do(t, h, http.MethodGet, "/api/view/", "")
	require.Equal(t, http.StatusOK, rec.Code)
	assert.EqualValues(t, 2, decodeBody(t, rec)["filtered_rows"])

	assert.Equal(t, http.StatusNotFound, do(t, h, http.MethodPost, "/api/builder/dance", "").Code)
	require.Equal(t, http.StatusOK, do(t, h, http.MethodGet, "/api/builder/", "").Code)
}

func TestBuilderSubmitUpdatesActiveFilters(t *testing.T) {
	h, m := newTestServer(t, sampleRaws())

	for _, step := range []struct{ action, body string }{
		{"open", ""},
		{"tab", `{"tab":"metrics"}`},
		{"category", `{"category":"Spend"}`},
		{"comparison", `{"comparison":"greater"}`},
		{"value", `{"value":"5"}`},
		{"submit", ""},
	} {
		require.Equal(t, http.StatusOK, do(t, h, http.MethodPost, "/api/builder/"+step.action, step.body).Code, step.action)
	}
	assert.Equal(t, 1.0, testutil.ToFloat64(m.ActiveFilters))

	require.Equal(t, http.StatusOK, do(t, h, http.MethodDelete, "/api/filters/", "").Code)
	assert.Equal(t, 0.0, testutil.ToFloat64(m.ActiveFilters))
}

func TestBuilderAcceptsChunkedEmptyBody(t *testing.T) {
	h := newTestRouter(t, sampleRaws())

	req := httptest.NewRequest(http.MethodPost, "/api/builder/open", strings.NewReader(""))
	req.ContentLength = -1
	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, req)
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())
	assert.Equal(t, true, decodeBody(t, rec)["open"])

	req = httptest.NewRequest(http.MethodPost, "/api/builder/tab", strings.NewReader(`{"tab":`))
	req.ContentLength = -1
	rec = httptest.NewRecorder()
	h.ServeHTTP(rec, req)
	assert.Equal(t, http.StatusBadRequest, rec.Code)
}

func TestMetricsEndpoint(t *testing.T) {
	h := newTestRouter(t, sampleRaws())
	require.Equal(t, http.StatusOK, do(t, h, http.MethodGet, "/api/records", "").Code)

	rec := do(t, h, http.MethodGet, "/metrics", "")
	require.Equal(t, http.StatusOK, rec.Code)
	out := rec.Body.String()
	assert.Contains(t, out, "dashboard_http_requests_total")
	assert.Contains(t, out, `route="/api/records"`)
	assert.Contains(t, out, "dashboard_query_duration_seconds")
}
