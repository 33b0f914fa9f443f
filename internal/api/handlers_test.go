package api

import (
	"context"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/goccy/go-json"
	"github.com/labstack/echo/v4"

	"vizboard/internal/catalog"
	"vizboard/internal/dashboard"
	"vizboard/internal/engine"
	"vizboard/internal/models"
	"vizboard/internal/store"
)

func newTestHandler(tb testing.TB) (*Handler, *echo.Echo) {
	tb.Helper()
	tables := engine.NewTableStore()
	tables.Add(&models.Table{
		Name:    "sales",
		Columns: []string{"region", "revenue"},
		Types:   []models.DataType{models.TypeString, models.TypeNumber},
		Values: map[string][]any{
			"region":  {"US", "EU", "US"},
			"revenue": {100.0, 80.0, 50.0},
		},
	})
	st, closeFn, err := store.Open(context.Background(), ":memory:")
	if err != nil {
		tb.Fatalf("open store: %v", err)
	}
	tb.Cleanup(closeFn)

	h := NewHandler(dashboard.NewSession("test", tables), catalog.New(), tables, st)
	return h, echo.New()
}

func doJSON(e *echo.Echo, method, path, body string) (echo.Context, *httptest.ResponseRecorder) {
	req := httptest.NewRequest(method, path, strings.NewReader(body))
	if body != "" {
		req.Header.Set(echo.HeaderContentType, echo.MIMEApplicationJSON)
	}
	rec := httptest.NewRecorder()
	return e.NewContext(req, rec), rec
}

func TestAddChartRejectsUnknownKind(t *testing.T) {
	h, e := newTestHandler(t)

	c, _ := doJSON(e, http.MethodPost, "/api/charts", `{"kind":"treemap"}`)
	err := h.AddChart(c)
	he, ok := err.(*echo.HTTPError)
	if !ok || he.Code != http.StatusBadRequest {
		t.Fatalf("AddChart(treemap) = %v", err)
	}
}

func TestAddChartReturnsSchemaSlots(t *testing.T) {
	h, e := newTestHandler(t)

	c, rec := doJSON(e, http.MethodPost, "/api/charts", `{"kind":"bar"}`)
	if err := h.AddChart(c); err != nil {
		t.Fatal(err)
	}
	if rec.Code != http.StatusCreated {
		t.Fatalf("status = %d", rec.Code)
	}

	var chart models.ChartConfiguration
	if err := json.Unmarshal(rec.Body.Bytes(), &chart); err != nil {
		t.Fatal(err)
	}
	if chart.ID != 1 || len(chart.Slots) != 2 {
		t.Errorf("chart = %+v", chart)
	}
}

func TestBindIncompatibleFieldReports400(t *testing.T) {
	h, e := newTestHandler(t)
	chart := h.session.AddChart("bar")

	body := `{"role":"values","field":{"fieldName":"region","displayName":"region","dataType":"string","sourceTable":"sales"}}`
	c, _ := doJSON(e, http.MethodPost, "/api/charts/1/bindings", body)
	c.SetParamNames("id")
	c.SetParamValues("1")

	err := h.Bind(c)
	he, ok := err.(*echo.HTTPError)
	if !ok || he.Code != http.StatusBadRequest {
		t.Fatalf("Bind = %v", err)
	}
	// The rejection message names the slot and its accepted types.
	msg, _ := he.Message.(string)
	if !strings.Contains(msg, "number") {
		t.Errorf("message = %q", msg)
	}
	if len(chart.Slot("values").Fields) != 0 {
		t.Error("chart must be unchanged after a rejected binding")
	}
}

func TestDashboardReflectsCrossFilter(t *testing.T) {
	h, e := newTestHandler(t)
	chart := h.session.AddChart("bar")
	h.session.Bind(chart.ID, "axis", models.Field{FieldName: "region", DisplayName: "region", DataType: models.TypeString, SourceTable: "sales"})
	h.session.Bind(chart.ID, "values", models.Field{FieldName: "revenue", DisplayName: "revenue", DataType: models.TypeNumber, SourceTable: "sales"})

	c, _ := doJSON(e, http.MethodPost, "/api/crossfilter", `{"sourceId":1,"field":"region","value":"US"}`)
	if err := h.ApplyCrossFilter(c); err != nil {
		t.Fatal(err)
	}

	c, rec := doJSON(e, http.MethodGet, "/api/dashboard", "")
	if err := h.GetDashboard(c); err != nil {
		t.Fatal(err)
	}

	var resp struct {
		Specs         map[string]*models.ChartSpec `json:"specs"`
		GlobalFilters models.Filters               `json:"globalFilters"`
	}
	if err := json.Unmarshal(rec.Body.Bytes(), &resp); err != nil {
		t.Fatal(err)
	}
	if resp.GlobalFilters["region"] != "US" {
		t.Errorf("globalFilters = %+v", resp.GlobalFilters)
	}
	spec := resp.Specs["1"]
	if spec == nil || len(spec.Series) != 1 {
		t.Fatalf("spec = %+v", spec)
	}
	// Only the two US rows survive the filter.
	if spec.Series[0].Values[0] != 150 {
		t.Errorf("series = %v", spec.Series[0].Values)
	}
}

func TestSaveAndLoadDashboard(t *testing.T) {
	h, e := newTestHandler(t)
	chart := h.session.AddChart("kpi")
	h.session.Bind(chart.ID, "values", models.Field{FieldName: "revenue", DisplayName: "revenue", DataType: models.TypeNumber, SourceTable: "sales"})

	c, _ := doJSON(e, http.MethodPost, "/api/dashboards/demo/save", "")
	c.SetParamNames("name")
	c.SetParamValues("demo")
	if err := h.SaveDashboard(c); err != nil {
		t.Fatalf("SaveDashboard: %v", err)
	}

	// Wipe the session, then load it back.
	h.session.DeleteChart(chart.ID)
	c, rec := doJSON(e, http.MethodPost, "/api/dashboards/demo/load", "")
	c.SetParamNames("name")
	c.SetParamValues("demo")
	if err := h.LoadDashboard(c); err != nil {
		t.Fatalf("LoadDashboard: %v", err)
	}
	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d", rec.Code)
	}
	if got := h.session.Charts(); len(got) != 1 || got[0].Kind != "kpi" {
		t.Errorf("restored charts = %+v", got)
	}
}

func TestLoadUnknownDashboardIs404(t *testing.T) {
	h, e := newTestHandler(t)

	c, _ := doJSON(e, http.MethodPost, "/api/dashboards/nope/load", "")
	c.SetParamNames("name")
	c.SetParamValues("nope")
	err := h.LoadDashboard(c)
	he, ok := err.(*echo.HTTPError)
	if !ok || he.Code != http.StatusNotFound {
		t.Errorf("LoadDashboard = %v", err)
	}
}
