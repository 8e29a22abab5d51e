package httpx

import (
	"encoding/json"
	"errors"
	"io"
	"net/http"
	"strconv"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/cors"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/rotisserie/eris"
	"go.uber.org/zap"

	"github.com/AngelCh415/campaign-dashboard/internal/builder"
	"github.com/AngelCh415/campaign-dashboard/internal/facets"
	"github.com/AngelCh415/campaign-dashboard/internal/filter"
	"github.com/AngelCh415/campaign-dashboard/internal/metrics"
	"github.com/AngelCh415/campaign-dashboard/internal/store"
	"github.com/AngelCh415/campaign-dashboard/internal/table"
	"github.com/AngelCh415/campaign-dashboard/internal/telemetry"
	"github.com/AngelCh415/campaign-dashboard/internal/utils"
	"github.com/AngelCh415/campaign-dashboard/internal/view"
)

// Deps is everything the router serves from.
type Deps struct {
	Log            *zap.Logger
	Store          *store.MemoryStore
	Service        *metrics.Service
	View           *view.State
	Metrics        *telemetry.Metrics
	Gatherer       prometheus.Gatherer
	AllowedOrigins []string
}

type router struct {
	log  *zap.Logger
	st   *store.MemoryStore
	svc  *metrics.Service
	vs   *view.State
	prom *telemetry.Metrics
}

func NewRouter(d Deps) http.Handler {
	rt := &router{log: d.Log, st: d.Store, svc: d.Service, vs: d.View, prom: d.Metrics}
	if d.Gatherer == nil {
		d.Gatherer = prometheus.DefaultGatherer
	}

	mux := chi.NewRouter()
	mux.Use(utils.RequestID)
	mux.Use(utils.Logger(d.Log, d.Metrics))
	mux.Use(cors.Handler(cors.Options{
		AllowedOrigins: d.AllowedOrigins,
		AllowedMethods: []string{"GET", "POST", "PUT", "DELETE", "OPTIONS"},
		AllowedHeaders: []string{"Accept", "Content-Type", "X-Request-ID"},
		ExposedHeaders: []string{"X-Request-ID"},
		MaxAge:         300,
	}))

	mux.Get("/healthz", func(w http.ResponseWriter, r *http.Request) { w.WriteHeader(200); w.Write([]byte("ok")) })
	mux.Get("/readyz", func(w http.ResponseWriter, r *http.Request) {
		if rt.st.Len() == 0 {
			http.Error(w, "dataset not loaded", http.StatusServiceUnavailable)
			return
		}
		w.WriteHeader(200)
		w.Write([]byte("ready"))
	})
	mux.Method(http.MethodGet, "/metrics", promhttp.HandlerFor(d.Gatherer, promhttp.HandlerOpts{}))

	mux.Route("/api", func(api chi.Router) {
		api.Get("/facets", rt.getFacets)
		api.Get("/facets/options", rt.getOptions)
		api.Get("/records", rt.getRecords)

		api.Route("/view", func(v chi.Router) {
			v.Get("/", rt.getView)
			v.Put("/search", rt.putSearch)
			v.Put("/sort", rt.putSort)
			v.Put("/page", rt.putPage)
			v.Put("/rows-per-page", rt.putRowsPerPage)
			v.Post("/columns/{field}/toggle", rt.toggleColumn)
		})

		api.Route("/filters", func(f chi.Router) {
			f.Get("/", rt.getFilters)
			f.Post("/", rt.addFilter)
			f.Delete("/", rt.clearFilters)
			f.Delete("/{index}", rt.removeFilter)
		})

		api.Route("/builder", func(b chi.Router) {
			b.Get("/", rt.getBuilder)
			b.Post("/{action}", rt.builderAction)
		})
	})

	return mux
}

func (rt *router) getFacets(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, rt.svc.Facets())
}

func (rt *router) getOptions(w http.ResponseWriter, r *http.Request) {
	name := r.URL.Query().Get("category")
	if name == "" {
		writeError(w, eris.New("category required"), http.StatusBadRequest)
		return
	}
	c, opts, err := rt.svc.Options(name)
	if err != nil {
		rt.fail(w, err)
		return
	}
	writeJSON(w, map[string]any{"category": c, "options": opts})
}

func (rt *router) getRecords(w http.ResponseWriter, r *http.Request) {
	p, err := rt.svc.ParseParams(r.URL.Query())
	if err != nil {
		writeError(w, err, http.StatusBadRequest)
		return
	}
	start := time.Now()
	res, err := rt.svc.Query(p)
	if err != nil {
		rt.fail(w, err)
		return
	}
	if rt.prom != nil {
		rt.prom.ObserveQuery("records", time.Since(start), res.FilteredRows)
	}
	writeJSON(w, res)
}

func (rt *router) getView(w http.ResponseWriter, r *http.Request) { rt.renderView(w) }

func (rt *router) renderView(w http.ResponseWriter) {
	start := time.Now()
	snap, err := rt.vs.Render()
	if err != nil {
		rt.fail(w, err)
		return
	}
	if rt.prom != nil {
		rt.prom.ObserveQuery("view", time.Since(start), snap.FilteredRows)
		rt.prom.ActiveFilters.Set(float64(len(snap.Filters)))
	}
	writeJSON(w, snap)
}

func (rt *router) putSearch(w http.ResponseWriter, r *http.Request) {
	var body struct {
		Term string `json:"term"`
	}
	if !decode(w, r, &body) {
		return
	}
	rt.vs.SetSearch(body.Term)
	rt.renderView(w)
}

// putSort sets field and direction; without a direction it toggles like a header click.
func (rt *router) putSort(w http.ResponseWriter, r *http.Request) {
	var body struct {
		Field     string `json:"field"`
		Direction string `json:"direction"`
	}
	if !decode(w, r, &body) {
		return
	}
	var err error
	if body.Direction == "" {
		err = rt.vs.ToggleSort(body.Field)
	} else {
		var dir table.Direction
		if dir, err = table.ParseDirection(body.Direction); err == nil {
			err = rt.vs.SetSort(body.Field, dir)
		}
	}
	if err != nil {
		rt.fail(w, err)
		return
	}
	rt.renderView(w)
}

func (rt *router) putPage(w http.ResponseWriter, r *http.Request) {
	var body struct {
		Page int `json:"page"`
	}
	if !decode(w, r, &body) {
		return
	}
	rt.vs.GoToPage(body.Page)
	rt.renderView(w)
}

func (rt *router) putRowsPerPage(w http.ResponseWriter, r *http.Request) {
	var body struct {
		RowsPerPage int `json:"rows_per_page"`
	}
	if !decode(w, r, &body) {
		return
	}
	if err := rt.vs.SetRowsPerPage(body.RowsPerPage); err != nil {
		rt.fail(w, err)
		return
	}
	rt.renderView(w)
}

func (rt *router) toggleColumn(w http.ResponseWriter, r *http.Request) {
	if err := rt.vs.ToggleColumn(chi.URLParam(r, "field")); err != nil {
		rt.fail(w, err)
		return
	}
	rt.renderView(w)
}

func (rt *router) getFilters(w http.ResponseWriter, r *http.Request) {
	preds := rt.vs.Filters()
	chips := make([]filter.Chip, 0, len(preds))
	for i, p := range preds {
		chips = append(chips, filter.ChipOf(i, p))
	}
	writeJSON(w, chips)
}

// addFilter accepts either {"expr": "Spend:>5"} or {"category", "value", "comparison"}.
func (rt *router) addFilter(w http.ResponseWriter, r *http.Request) {
	var body struct {
		Expr       string `json:"expr"`
		Category   string `json:"category"`
		Value      string `json:"value"`
		Comparison string `json:"comparison"`
	}
	if !decode(w, r, &body) {
		return
	}
	ext := rt.st.Facets()
	var (
		p   filter.Predicate
		err error
	)
	if body.Expr != "" {
		p, err = filter.ParseExpr(ext, body.Expr)
	} else {
		p, err = filter.Build(ext, body.Category, body.Value, filter.ParseComparison(body.Comparison))
	}
	if err != nil {
		rt.fail(w, err)
		return
	}
	rt.vs.AddFilter(p)
	rt.renderView(w)
}

func (rt *router) removeFilter(w http.ResponseWriter, r *http.Request) {
	i, err := strconv.Atoi(chi.URLParam(r, "index"))
	if err != nil {
		writeError(w, eris.New("index must be an integer"), http.StatusBadRequest)
		return
	}
	if err := rt.vs.RemoveFilter(i); err != nil {
		rt.fail(w, err)
		return
	}
	rt.renderView(w)
}

func (rt *router) clearFilters(w http.ResponseWriter, r *http.Request) {
	rt.vs.ClearFilters()
	rt.renderView(w)
}

func (rt *router) getBuilder(w http.ResponseWriter, r *http.Request) {
	st, _ := rt.vs.Builder(func(*builder.Wizard, *facets.Extractor, *filter.List) error { return nil })
	writeJSON(w, st)
}

func (rt *router) builderAction(w http.ResponseWriter, r *http.Request) {
	var body struct {
		Tab        string `json:"tab"`
		Search     string `json:"search"`
		Category   string `json:"category"`
		Value      string `json:"value"`
		Comparison string `json:"comparison"`
	}
	if !decodeOptional(w, r, &body) {
		return
	}
	action := chi.URLParam(r, "action")
	st, err := rt.vs.Builder(func(wz *builder.Wizard, ext *facets.Extractor, list *filter.List) error {
		switch action {
		case "open":
			wz.Open()
		case "close":
			wz.Close()
		case "toggle":
			wz.Toggle()
		case "tab":
			tab, ok := facets.ParseTab(body.Tab)
			if !ok {
				return eris.Wrapf(errBadRequest, "unknown tab %q", body.Tab)
			}
			return wz.SelectTab(tab)
		case "search":
			return wz.SetCategorySearch(body.Search)
		case "category":
			return wz.ChooseCategory(ext, body.Category)
		case "value":
			return wz.SetValue(body.Value)
		case "comparison":
			c, err := builder.ParseComparison(body.Comparison)
			if err != nil {
				return eris.Wrap(errBadRequest, err.Error())
			}
			return wz.SetComparison(c)
		case "option-search":
			return wz.SetOptionSearch(body.Search)
		case "back":
			return wz.Back()
		case "submit":
			_, err := wz.Submit(list)
			return err
		default:
			return eris.Wrapf(errNotFound, "unknown builder action %q", action)
		}
		return nil
	})
	if err != nil {
		rt.fail(w, err)
		return
	}
	if rt.prom != nil {
		rt.prom.ActiveFilters.Set(float64(len(rt.vs.Filters())))
	}
	writeJSON(w, st)
}

var (
	errBadRequest = eris.New("bad request")
	errNotFound   = eris.New("not found")
)

// fail maps domain errors onto HTTP status codes.
func (rt *router) fail(w http.ResponseWriter, err error) {
	status := http.StatusInternalServerError
	switch {
	case errors.Is(err, facets.ErrUnknownCategory),
		errors.Is(err, table.ErrUnknownField),
		errors.Is(err, filter.ErrIndexOutOfRange),
		errors.Is(err, errNotFound):
		status = http.StatusNotFound
	case errors.Is(err, builder.ErrWrongStep):
		status = http.StatusConflict
	case errors.Is(err, builder.ErrIncomplete),
		errors.Is(err, filter.ErrEmptyValue),
		errors.Is(err, filter.ErrNotANumber),
		errors.Is(err, filter.ErrBadExpression),
		errors.Is(err, table.ErrInvalidRowsPerPage),
		errors.Is(err, table.ErrInvalidDirection),
		errors.Is(err, errBadRequest):
		status = http.StatusBadRequest
	}
	if status == http.StatusInternalServerError {
		rt.log.Error("request failed", zap.Error(err))
	}
	writeError(w, err, status)
}

func decode(w http.ResponseWriter, r *http.Request, v any) bool {
	dec := json.NewDecoder(r.Body)
	if err := dec.Decode(v); err != nil {
		writeError(w, eris.Wrap(err, "invalid request body"), http.StatusBadRequest)
		return false
	}
	return true
}

// decodeOptional is decode for actions whose body may be absent, chunked ones included.
func decodeOptional(w http.ResponseWriter, r *http.Request, v any) bool {
	if r.Body == nil {
		return true
	}
	err := json.NewDecoder(r.Body).Decode(v)
	if err == nil || errors.Is(err, io.EOF) {
		return true
	}
	writeError(w, eris.Wrap(err, "invalid request body"), http.StatusBadRequest)
	return false
}

func writeError(w http.ResponseWriter, err error, status int) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(map[string]string{"error": err.Error()})
}

func writeJSON(w http.ResponseWriter, v any) {
	w.Header().Set("Content-Type", "application/json")
	enc := json.NewEncoder(w)
	enc.SetIndent("", " ")
	enc.Encode(v)
}
