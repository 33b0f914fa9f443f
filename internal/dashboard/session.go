// Package dashboard holds the mutable state of one dashboard session: the
// chart arena, the global filter set, and the canvas layout. All mutation
// goes through Session methods so a transformation pass never observes a
// half-applied change.
package dashboard

import (
	"context"
	"fmt"
	"sort"
	"sync"

	"github.com/goccy/go-json"
	"github.com/zeebo/xxh3"
	"golang.org/x/sync/errgroup"

	"vizboard/internal/engine"
	"vizboard/internal/models"
	"vizboard/internal/schema"
)

// IncompatibleBindingError reports a field whose type a slot does not
// accept. Its message is user-facing and names the accepted types.
type IncompatibleBindingError struct {
	Slot     string
	DataType models.DataType
	Accepted []models.DataType
}

func (e *IncompatibleBindingError) Error() string {
	return fmt.Sprintf("field type %s is not compatible with %s; accepted types: %v",
		e.DataType, e.Slot, e.Accepted)
}

// ErrChartNotFound is returned for operations on unknown chart ids.
var ErrChartNotFound = fmt.Errorf("chart not found")

// defaultColors is the palette new charts start with.
var defaultColors = []string{"#5470c6", "#91cc75", "#fac858", "#ee6666", "#73c0de"}

// Session is the arena of charts plus the shared cross-chart filter state.
type Session struct {
	mu     sync.RWMutex
	Name   string
	charts map[int]*models.ChartConfiguration
	global models.Filters
	tables *engine.TableStore
	canvas canvasState
}

func NewSession(name string, tables *engine.TableStore) *Session {
	return &Session{
		Name:   name,
		charts: make(map[int]*models.ChartConfiguration),
		global: models.Filters{},
		tables: tables,
		canvas: canvasState{scale: 1},
	}
}

// AddChart creates a chart of the given kind with its schema slots and the
// default placement cascade, and returns it. Ids are monotonic: always
// max(existing)+1, so a deleted id is never reused while a higher one lives.
func (s *Session) AddChart(kind string) *models.ChartConfiguration {
	s.mu.Lock()
	defer s.mu.Unlock()

	id := 1
	for existing := range s.charts {
		if existing >= id {
			id = existing + 1
		}
	}

	title := fmt.Sprintf("New chart %d", id)
	chart := &models.ChartConfiguration{
		ID:       id,
		Kind:     kind,
		Title:    title,
		Position: models.Position{X: 50 + float64(id)*20, Y: 50 + float64(id)*20},
		Size:     models.Size{Width: 300, Height: 220},
		Slots:    schema.SlotsFor(kind),
		FormatOptions: models.FormatOptions{
			Title:  models.TitleFormat{Show: true, Text: title, FontSize: 16, Color: "#ffffff"},
			Legend: models.LegendFormat{Show: true, Position: "right", FontSize: 12},
			Colors: models.ColorFormat{Scheme: "default", Custom: append([]string(nil), defaultColors...)},
			Axes:   models.AxesFormat{ShowGrid: true},
		},
		Interactions: map[int]models.Interaction{},
		Filters:      models.Filters{},
	}
	s.charts[id] = chart
	s.canvas.selected = id
	return chart
}

// DeleteChart removes a chart and purges every interaction entry in other
// charts that references it.
func (s *Session) DeleteChart(id int) {
	s.mu.Lock()
	defer s.mu.Unlock()
	delete(s.charts, id)
	for _, chart := range s.charts {
		delete(chart.Interactions, id)
	}
	if s.canvas.selected == id {
		s.canvas.selected = 0
	}
}

// Chart returns the chart with the given id, or nil.
func (s *Session) Chart(id int) *models.ChartConfiguration {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.charts[id]
}

// Charts returns the session's charts ordered by id.
func (s *Session) Charts() []*models.ChartConfiguration {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.chartsLocked()
}

func (s *Session) chartsLocked() []*models.ChartConfiguration {
	out := make([]*models.ChartConfiguration, 0, len(s.charts))
	for _, chart := range s.charts {
		out = append(out, chart)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ID < out[j].ID })
	return out
}

// Bind places a field into a chart's slot. Fields whose type the slot does
// not accept are rejected with an IncompatibleBindingError and the chart is
// left untouched. Single slots replace their binding, multi slots append.
// The default aggregation is sum for numeric fields and none otherwise.
func (s *Session) Bind(chartID int, role string, field models.Field) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	chart := s.charts[chartID]
	if chart == nil {
		return fmt.Errorf("bind: %w: %d", ErrChartNotFound, chartID)
	}
	slot := chart.Slot(role)
	if slot == nil {
		return fmt.Errorf("bind: chart %d has no slot %q", chartID, role)
	}
	if !slot.Accepts(field.DataType) {
		return &IncompatibleBindingError{
			Slot:     slot.Label,
			DataType: field.DataType,
			Accepted: slot.AcceptedTypes,
		}
	}

	agg := models.AggNone
	if field.DataType.IsNumeric() {
		agg = models.AggSum
	}
	binding := models.FieldBinding{
		FieldName:   field.FieldName,
		DisplayName: field.DisplayName,
		DataType:    field.DataType,
		SourceTable: field.SourceTable,
		Aggregation: agg,
	}

	if slot.MultipleAllowed {
		slot.Fields = append(slot.Fields, binding)
	} else {
		slot.Fields = []models.FieldBinding{binding}
	}
	return nil
}

// Unbind removes one binding from a slot. Out-of-range indexes and unknown
// roles are a no-op, never an error.
func (s *Session) Unbind(chartID int, role string, index int) {
	s.mu.Lock()
	defer s.mu.Unlock()

	chart := s.charts[chartID]
	if chart == nil {
		return
	}
	slot := chart.Slot(role)
	if slot == nil || index < 0 || index >= len(slot.Fields) {
		return
	}
	slot.Fields = append(slot.Fields[:index], slot.Fields[index+1:]...)
}

// SetAggregation overwrites a binding's aggregation. Any aggregation value
// is legal; the transformation engine degrades gracefully on combinations
// that make no numeric sense.
func (s *Session) SetAggregation(chartID int, role string, index int, agg models.Aggregation) {
	s.mu.Lock()
	defer s.mu.Unlock()

	chart := s.charts[chartID]
	if chart == nil {
		return
	}
	slot := chart.Slot(role)
	if slot == nil || index < 0 || index >= len(slot.Fields) {
		return
	}
	slot.Fields[index].Aggregation = agg
}

// SetInteraction records how clicks on the source chart should affect the
// target. The value is advisory: cross-filter dispatch ignores it.
func (s *Session) SetInteraction(sourceID, targetID int, mode models.Interaction) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if chart := s.charts[sourceID]; chart != nil {
		chart.Interactions[targetID] = mode
	}
}

// SetChartFilter sets a chart-local filter; a nil value clears the entry.
func (s *Session) SetChartFilter(chartID int, field string, value any) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if chart := s.charts[chartID]; chart != nil {
		if value == nil {
			delete(chart.Filters, field)
		} else {
			chart.Filters[field] = value
		}
	}
}

// ApplyCrossFilter handles a click on a rendered chart: it unconditionally
// sets the global filter for the clicked field. The source chart's
// interactions map does not gate propagation.
func (s *Session) ApplyCrossFilter(sourceID int, field string, value any) {
	_ = sourceID
	s.mu.Lock()
	defer s.mu.Unlock()
	s.global[field] = value
}

// RemoveGlobalFilter drops a single global filter by field name.
func (s *Session) RemoveGlobalFilter(field string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	delete(s.global, field)
}

// ClearFilters empties the global filter set and every chart's local
// filters.
func (s *Session) ClearFilters() {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.global = models.Filters{}
	for _, chart := range s.charts {
		chart.Filters = models.Filters{}
	}
}

// GlobalFilters returns a copy of the global filter set.
func (s *Session) GlobalFilters() models.Filters {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return copyFilters(s.global)
}

func copyFilters(in models.Filters) models.Filters {
	out := make(models.Filters, len(in))
	for k, v := range in {
		out[k] = v
	}
	return out
}

// FilterVersion stamps the current global filter snapshot. Readers compare
// stamps to detect that a result was computed against superseded filters.
func (s *Session) FilterVersion() uint64 {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return filterStamp(s.global)
}

func filterStamp(filters models.Filters) uint64 {
	keys := make([]string, 0, len(filters))
	for k := range filters {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	var buf []byte
	for _, k := range keys {
		buf = append(buf, k...)
		buf = append(buf, '=')
		v, _ := json.Marshal(filters[k])
		buf = append(buf, v...)
		buf = append(buf, ';')
	}
	return xxh3.Hash(buf)
}

// RecomputeAll transforms every chart against one consistent snapshot of
// tables, configurations and global filters, so no chart renders against a
// filter state another chart has already superseded. Charts are transformed
// concurrently; ctx cancels a pass that has been superseded.
func (s *Session) RecomputeAll(ctx context.Context) (map[int]*models.ChartSpec, uint64, error) {
	s.mu.RLock()
	charts := s.chartsLocked()
	global := copyFilters(s.global)
	table := s.tables.First()
	s.mu.RUnlock()

	stamp := filterStamp(global)
	rows := engine.Rows(table)

	specs := make([]*models.ChartSpec, len(charts))
	g, ctx := errgroup.WithContext(ctx)
	for i, chart := range charts {
		g.Go(func() error {
			if err := ctx.Err(); err != nil {
				return err
			}
			specs[i] = engine.Transform(chart, rows, global)
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return nil, stamp, err
	}

	out := make(map[int]*models.ChartSpec, len(charts))
	for i, chart := range charts {
		out[chart.ID] = specs[i]
	}
	return out, stamp, nil
}

// snapshot is the serialized shape of a session: plain data, no cycles.
type snapshot struct {
	Name          string                       `json:"name"`
	Charts        []*models.ChartConfiguration `json:"charts"`
	GlobalFilters models.Filters               `json:"globalFilters"`
}

// MarshalJSON serializes the session state for save/restore.
func (s *Session) MarshalJSON() ([]byte, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return json.Marshal(snapshot{
		Name:          s.Name,
		Charts:        s.chartsLocked(),
		GlobalFilters: s.global,
	})
}

// Restore replaces the session's charts, name and global filters with the
// given serialized state.
func (s *Session) Restore(data []byte) error {
	var snap snapshot
	if err := json.Unmarshal(data, &snap); err != nil {
		return fmt.Errorf("restore session: %w", err)
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	s.Name = snap.Name
	s.charts = make(map[int]*models.ChartConfiguration, len(snap.Charts))
	for _, chart := range snap.Charts {
		if chart.Interactions == nil {
			chart.Interactions = map[int]models.Interaction{}
		}
		if chart.Filters == nil {
			chart.Filters = models.Filters{}
		}
		s.charts[chart.ID] = chart
	}
	if snap.GlobalFilters == nil {
		snap.GlobalFilters = models.Filters{}
	}
	s.global = snap.GlobalFilters
	s.canvas.selected = 0
	return nil
}
