package models

// ChartSpec is the render-ready output of the transformation engine. One
// struct covers every chart kind; only the sections relevant to Kind are
// populated, the rest stay at their zero value and are elided from JSON.
// The rendering layer dispatches on Kind.
type ChartSpec struct {
	Kind  string `json:"kind"`
	Title string `json:"title,omitempty"`

	// Cartesian kinds: bar, line, area, waterfall.
	Categories []string `json:"categories,omitempty"`
	Series     []Series `json:"series,omitempty"`
	// Area charts hint a vertical gradient fill under the line.
	AreaGradient bool `json:"areaGradient,omitempty"`

	// Radial kinds: pie, donut, funnel.
	Pairs []NamedValue `json:"pairs,omitempty"`
	// InnerRadius > 0 turns a pie into a donut.
	InnerRadius float64 `json:"innerRadius,omitempty"`

	// Scatter: one point per row, [x, y] or [x, y, size].
	Points [][]float64 `json:"points,omitempty"`

	// Heatmap: cell triples [xIndex, yIndex, value] against two category
	// axes; MaxValue scales the color ramp.
	XCategories []string     `json:"xCategories,omitempty"`
	YCategories []string     `json:"yCategories,omitempty"`
	Cells       [][3]float64 `json:"cells,omitempty"`
	MaxValue    float64      `json:"maxValue,omitempty"`

	// Waterfall: per-category [start, end] intervals of the running sum.
	Intervals []Interval `json:"intervals,omitempty"`

	Gauge  *GaugeSpec  `json:"gauge,omitempty"`
	Radar  *RadarSpec  `json:"radar,omitempty"`
	KPI    *KPISpec    `json:"kpi,omitempty"`
	Slicer *SlicerSpec `json:"slicer,omitempty"`

	// Table: first rows projected onto the bound columns.
	TableColumns []string         `json:"tableColumns,omitempty"`
	TableRows    []map[string]any `json:"tableRows,omitempty"`

	// Clickable charts report which field a click should cross-filter by.
	Clickable  bool   `json:"clickable,omitempty"`
	ClickField string `json:"clickField,omitempty"`
}

// Series is one named value sequence aligned with Categories.
type Series struct {
	Name   string    `json:"name"`
	Values []float64 `json:"values"`
}

// NamedValue is a category/aggregate pair.
type NamedValue struct {
	Name  string  `json:"name"`
	Value float64 `json:"value"`
}

// Interval is one waterfall bar. Positive marks deltas >= 0 so the renderer
// can pick the rise/fall color.
type Interval struct {
	Name     string  `json:"name"`
	Start    float64 `json:"start"`
	End      float64 `json:"end"`
	Positive bool    `json:"positive"`
}

// GaugeSpec is a single needle against a target.
type GaugeSpec struct {
	Name       string  `json:"name"`
	Value      float64 `json:"value"`
	Target     float64 `json:"target"`
	Percentage float64 `json:"percentage"`
}

// RadarSpec is one polygon over per-dimension axes.
type RadarSpec struct {
	Indicators []RadarIndicator `json:"indicators"`
	Name       string           `json:"name"`
	Values     []float64        `json:"values"`
}

// RadarIndicator is one radar axis; Max carries display headroom above the
// observed maximum.
type RadarIndicator struct {
	Name string  `json:"name"`
	Max  float64 `json:"max"`
}

// KPISpec is a single aggregated scalar with a display format hint.
type KPISpec struct {
	Value  float64 `json:"value"`
	Label  string  `json:"label"`
	Format string  `json:"format"` // "currency" or "number"
}

// SlicerSpec lists the selectable values of one field and which value, if
// any, is the currently effective filter.
type SlicerSpec struct {
	Field    string `json:"field"`
	Values   []any  `json:"values"`
	Selected any    `json:"selected"`
}
