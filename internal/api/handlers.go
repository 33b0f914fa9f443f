// Package api exposes the dashboard session over HTTP. Handlers are thin:
// they decode the request, call one session or catalog method, and encode
// the result. All state lives behind the dashboard package.
package api

import (
	"errors"
	"net/http"
	"strconv"

	"github.com/labstack/echo/v4"

	"vizboard/internal/catalog"
	"vizboard/internal/dashboard"
	"vizboard/internal/engine"
	"vizboard/internal/models"
	"vizboard/internal/schema"
	"vizboard/internal/store"
)

type Handler struct {
	session *dashboard.Session
	catalog *catalog.Catalog
	tables  *engine.TableStore
	store   *store.Store
}

// NewHandler wires the API to a session, catalog and table store. The
// snapshot store may be nil; save/load endpoints then report 503.
func NewHandler(session *dashboard.Session, cat *catalog.Catalog, tables *engine.TableStore, st *store.Store) *Handler {
	return &Handler{session: session, catalog: cat, tables: tables, store: st}
}

func (h *Handler) RegisterRoutes(e *echo.Echo) {
	api := e.Group("/api")

	api.GET("/tables", h.GetTables)
	api.GET("/fields", h.GetFields)
	api.GET("/kinds", h.GetKinds)

	api.GET("/measures", h.GetMeasures)
	api.POST("/measures", h.AddMeasure)
	api.DELETE("/measures/:id", h.RemoveMeasure)

	api.GET("/charts", h.GetCharts)
	api.POST("/charts", h.AddChart)
	api.DELETE("/charts/:id", h.DeleteChart)
	api.POST("/charts/:id/bindings", h.Bind)
	api.DELETE("/charts/:id/bindings/:role/:index", h.Unbind)
	api.PUT("/charts/:id/bindings/:role/:index/aggregation", h.SetAggregation)
	api.PUT("/charts/:id/position", h.SetPosition)
	api.PUT("/charts/:id/size", h.SetSize)
	api.PUT("/charts/:id/interactions/:target", h.SetInteraction)
	api.PUT("/charts/:id/filters", h.SetChartFilter)

	api.POST("/crossfilter", h.ApplyCrossFilter)
	api.DELETE("/filters/:field", h.RemoveGlobalFilter)
	api.POST("/filters/clear", h.ClearFilters)

	api.PUT("/canvas/scale", h.SetScale)

	api.GET("/dashboard", h.GetDashboard)
	api.GET("/dashboards", h.ListDashboards)
	api.POST("/dashboards/:name/save", h.SaveDashboard)
	api.POST("/dashboards/:name/load", h.LoadDashboard)
	api.DELETE("/dashboards/:name", h.DeleteDashboard)
}

func chartID(c echo.Context) (int, error) {
	id, err := strconv.Atoi(c.Param("id"))
	if err != nil {
		return 0, echo.NewHTTPError(http.StatusBadRequest, "invalid chart id")
	}
	return id, nil
}

// --- CATALOG ---

func (h *Handler) GetTables(c echo.Context) error {
	tables := h.tables.All()
	if len(tables) == 0 {
		// Still ingesting in the background.
		return c.JSON(http.StatusServiceUnavailable, map[string]string{"status": "loading"})
	}
	type meta struct {
		Name        string   `json:"name"`
		Description string   `json:"description"`
		Columns     []string `json:"columns"`
		Rows        int      `json:"rows"`
	}
	out := make([]meta, 0, len(tables))
	for _, t := range tables {
		rows := 0
		if len(t.Columns) > 0 {
			rows = len(t.Values[t.Columns[0]])
		}
		out = append(out, meta{Name: t.Name, Description: t.Description, Columns: t.Columns, Rows: rows})
	}
	return c.JSON(http.StatusOK, out)
}

func (h *Handler) GetFields(c echo.Context) error {
	table := h.tables.Get(c.QueryParam("table"))
	if table == nil {
		table = h.tables.First()
	}
	if table == nil {
		return c.JSON(http.StatusServiceUnavailable, map[string]string{"status": "loading"})
	}
	fields := append(catalog.Fields(table), h.catalog.MeasureFields()...)
	return c.JSON(http.StatusOK, catalog.Search(fields, c.QueryParam("q")))
}

func (h *Handler) GetKinds(c echo.Context) error {
	out := make(map[string][]models.Slot, len(schema.Kinds))
	for _, kind := range schema.Kinds {
		out[kind] = schema.SlotsFor(kind)
	}
	return c.JSON(http.StatusOK, out)
}

// --- MEASURES ---

func (h *Handler) GetMeasures(c echo.Context) error {
	return c.JSON(http.StatusOK, h.catalog.Measures())
}

func (h *Handler) AddMeasure(c echo.Context) error {
	var req struct {
		Name    string `json:"name"`
		Formula string `json:"formula"`
	}
	if err := c.Bind(&req); err != nil || req.Name == "" {
		return echo.NewHTTPError(http.StatusBadRequest, "measure needs a name")
	}
	return c.JSON(http.StatusCreated, h.catalog.AddMeasure(req.Name, req.Formula))
}

func (h *Handler) RemoveMeasure(c echo.Context) error {
	id, err := strconv.Atoi(c.Param("id"))
	if err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, "invalid measure id")
	}
	h.catalog.RemoveMeasure(id)
	return c.NoContent(http.StatusNoContent)
}

// --- CHARTS ---

func (h *Handler) GetCharts(c echo.Context) error {
	return c.JSON(http.StatusOK, h.session.Charts())
}

func (h *Handler) AddChart(c echo.Context) error {
	var req struct {
		Kind string `json:"kind"`
	}
	if err := c.Bind(&req); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, "invalid body")
	}
	if schema.SlotsFor(req.Kind) == nil {
		return echo.NewHTTPError(http.StatusBadRequest, "unknown chart kind: "+req.Kind)
	}
	return c.JSON(http.StatusCreated, h.session.AddChart(req.Kind))
}

func (h *Handler) DeleteChart(c echo.Context) error {
	id, err := chartID(c)
	if err != nil {
		return err
	}
	h.session.DeleteChart(id)
	return c.NoContent(http.StatusNoContent)
}

func (h *Handler) Bind(c echo.Context) error {
	id, err := chartID(c)
	if err != nil {
		return err
	}
	var req struct {
		Role  string       `json:"role"`
		Field models.Field `json:"field"`
	}
	if err := c.Bind(&req); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, "invalid body")
	}

	if err := h.session.Bind(id, req.Role, req.Field); err != nil {
		var incompatible *dashboard.IncompatibleBindingError
		if errors.As(err, &incompatible) {
			// The message is what the user sees in the binding panel.
			return echo.NewHTTPError(http.StatusBadRequest, incompatible.Error())
		}
		if errors.Is(err, dashboard.ErrChartNotFound) {
			return echo.NewHTTPError(http.StatusNotFound, err.Error())
		}
		return echo.NewHTTPError(http.StatusBadRequest, err.Error())
	}
	return c.JSON(http.StatusOK, h.session.Chart(id))
}

func (h *Handler) Unbind(c echo.Context) error {
	id, err := chartID(c)
	if err != nil {
		return err
	}
	index, err := strconv.Atoi(c.Param("index"))
	if err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, "invalid binding index")
	}
	h.session.Unbind(id, c.Param("role"), index)
	return c.NoContent(http.StatusNoContent)
}

func (h *Handler) SetAggregation(c echo.Context) error {
	id, err := chartID(c)
	if err != nil {
		return err
	}
	index, err := strconv.Atoi(c.Param("index"))
	if err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, "invalid binding index")
	}
	var req struct {
		Aggregation models.Aggregation `json:"aggregation"`
	}
	if err := c.Bind(&req); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, "invalid body")
	}
	h.session.SetAggregation(id, c.Param("role"), index, req.Aggregation)
	return c.JSON(http.StatusOK, h.session.Chart(id))
}

func (h *Handler) SetPosition(c echo.Context) error {
	id, err := chartID(c)
	if err != nil {
		return err
	}
	var req models.Position
	if err := c.Bind(&req); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, "invalid body")
	}
	h.session.SetPosition(id, req.X, req.Y)
	return c.JSON(http.StatusOK, h.session.Chart(id))
}

func (h *Handler) SetSize(c echo.Context) error {
	id, err := chartID(c)
	if err != nil {
		return err
	}
	var req models.Size
	if err := c.Bind(&req); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, "invalid body")
	}
	h.session.SetSize(id, req.Width, req.Height)
	return c.JSON(http.StatusOK, h.session.Chart(id))
}

func (h *Handler) SetInteraction(c echo.Context) error {
	id, err := chartID(c)
	if err != nil {
		return err
	}
	target, err := strconv.Atoi(c.Param("target"))
	if err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, "invalid target chart id")
	}
	var req struct {
		Mode models.Interaction `json:"mode"`
	}
	if err := c.Bind(&req); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, "invalid body")
	}
	h.session.SetInteraction(id, target, req.Mode)
	return c.NoContent(http.StatusNoContent)
}

func (h *Handler) SetChartFilter(c echo.Context) error {
	id, err := chartID(c)
	if err != nil {
		return err
	}
	var req struct {
		Field string `json:"field"`
		Value any    `json:"value"`
	}
	if err := c.Bind(&req); err != nil || req.Field == "" {
		return echo.NewHTTPError(http.StatusBadRequest, "filter needs a field")
	}
	h.session.SetChartFilter(id, req.Field, req.Value)
	return c.NoContent(http.StatusNoContent)
}

// --- FILTERS ---

func (h *Handler) ApplyCrossFilter(c echo.Context) error {
	var req struct {
		SourceID int    `json:"sourceId"`
		Field    string `json:"field"`
		Value    any    `json:"value"`
	}
	if err := c.Bind(&req); err != nil || req.Field == "" {
		return echo.NewHTTPError(http.StatusBadRequest, "cross-filter needs a field")
	}
	h.session.ApplyCrossFilter(req.SourceID, req.Field, req.Value)
	return c.JSON(http.StatusOK, h.session.GlobalFilters())
}

func (h *Handler) RemoveGlobalFilter(c echo.Context) error {
	h.session.RemoveGlobalFilter(c.Param("field"))
	return c.JSON(http.StatusOK, h.session.GlobalFilters())
}

func (h *Handler) ClearFilters(c echo.Context) error {
	h.session.ClearFilters()
	return c.NoContent(http.StatusNoContent)
}

// --- CANVAS ---

func (h *Handler) SetScale(c echo.Context) error {
	var req struct {
		Scale float64 `json:"scale"`
	}
	if err := c.Bind(&req); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, "invalid body")
	}
	h.session.SetScale(req.Scale)
	return c.JSON(http.StatusOK, map[string]float64{"scale": h.session.Scale()})
}

// --- DASHBOARD ---

// GetDashboard recomputes every chart against one consistent filter
// snapshot and returns the render-ready specs alongside the configuration.
func (h *Handler) GetDashboard(c echo.Context) error {
	if h.tables.First() == nil {
		return c.JSON(http.StatusServiceUnavailable, map[string]string{"status": "loading"})
	}
	specs, stamp, err := h.session.RecomputeAll(c.Request().Context())
	if err != nil {
		return echo.NewHTTPError(http.StatusInternalServerError, err.Error())
	}
	return c.JSON(http.StatusOK, map[string]any{
		"name":          h.session.Name,
		"charts":        h.session.Charts(),
		"specs":         specs,
		"globalFilters": h.session.GlobalFilters(),
		"filterVersion": strconv.FormatUint(stamp, 10),
		"scale":         h.session.Scale(),
	})
}

func (h *Handler) ListDashboards(c echo.Context) error {
	if h.store == nil {
		return echo.NewHTTPError(http.StatusServiceUnavailable, "persistence disabled")
	}
	entries, err := h.store.List(c.Request().Context())
	if err != nil {
		return echo.NewHTTPError(http.StatusInternalServerError, err.Error())
	}
	if entries == nil {
		entries = []store.Entry{}
	}
	return c.JSON(http.StatusOK, entries)
}

func (h *Handler) SaveDashboard(c echo.Context) error {
	if h.store == nil {
		return echo.NewHTTPError(http.StatusServiceUnavailable, "persistence disabled")
	}
	payload, err := h.session.MarshalJSON()
	if err != nil {
		return echo.NewHTTPError(http.StatusInternalServerError, err.Error())
	}
	if err := h.store.Save(c.Request().Context(), c.Param("name"), payload); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, err.Error())
	}
	return c.NoContent(http.StatusNoContent)
}

func (h *Handler) LoadDashboard(c echo.Context) error {
	if h.store == nil {
		return echo.NewHTTPError(http.StatusServiceUnavailable, "persistence disabled")
	}
	payload, err := h.store.Load(c.Request().Context(), c.Param("name"))
	if errors.Is(err, store.ErrNotFound) {
		return echo.NewHTTPError(http.StatusNotFound, err.Error())
	}
	if err != nil {
		return echo.NewHTTPError(http.StatusInternalServerError, err.Error())
	}
	if err := h.session.Restore(payload); err != nil {
		return echo.NewHTTPError(http.StatusInternalServerError, err.Error())
	}
	return h.GetDashboard(c)
}

func (h *Handler) DeleteDashboard(c echo.Context) error {
	if h.store == nil {
		return echo.NewHTTPError(http.StatusServiceUnavailable, "persistence disabled")
	}
	err := h.store.Delete(c.Request().Context(), c.Param("name"))
	if errors.Is(err, store.ErrNotFound) {
		return echo.NewHTTPError(http.StatusNotFound, err.Error())
	}
	if err != nil {
		return echo.NewHTTPError(http.StatusInternalServerError, err.Error())
	}
	return c.NoContent(http.StatusNoContent)
}
