package engine

import (
	"math"
	"testing"

	"vizboard/internal/models"
	"vizboard/internal/schema"
)

// chartWith builds a chart of the given kind and binds fields into roles,
// bypassing the validator: transform behavior is what is under test here.
func chartWith(kind string, bindings map[string][]models.FieldBinding) *models.ChartConfiguration {
	cfg := &models.ChartConfiguration{
		ID:           1,
		Kind:         kind,
		Slots:        schema.SlotsFor(kind),
		Interactions: map[int]models.Interaction{},
		Filters:      models.Filters{},
	}
	for role, fields := range bindings {
		if s := cfg.Slot(role); s != nil {
			s.Fields = fields
		}
	}
	return cfg
}

func numField(name string, agg models.Aggregation) models.FieldBinding {
	return models.FieldBinding{FieldName: name, DisplayName: name, DataType: models.TypeNumber, Aggregation: agg}
}

func strField(name string) models.FieldBinding {
	return models.FieldBinding{FieldName: name, DisplayName: name, DataType: models.TypeString, Aggregation: models.AggNone}
}

func salesRows() []Row {
	return []Row{
		{"region": "US", "product": "Laptop", "revenue": 100.0, "units": 2.0},
		{"region": "US", "product": "Phone", "revenue": 50.0, "units": 1.0},
		{"region": "EU", "product": "Laptop", "revenue": 80.0, "units": 3.0},
	}
}

func TestTransformBarGroupsAndAggregates(t *testing.T) {
	cfg := chartWith("bar", map[string][]models.FieldBinding{
		"axis":   {strField("region")},
		"values": {numField("revenue", models.AggSum)},
	})

	spec := Transform(cfg, salesRows(), nil)
	if spec == nil {
		t.Fatal("Expected a spec")
	}
	if spec.Kind != "bar" {
		t.Errorf("Kind = %q", spec.Kind)
	}
	if len(spec.Categories) != 2 || spec.Categories[0] != "US" || spec.Categories[1] != "EU" {
		t.Fatalf("Categories = %v", spec.Categories)
	}
	if len(spec.Series) != 1 || spec.Series[0].Values[0] != 150 || spec.Series[0].Values[1] != 80 {
		t.Fatalf("Series = %v", spec.Series)
	}
	if !spec.Clickable || spec.ClickField != "region" {
		t.Errorf("Click metadata wrong: %v %q", spec.Clickable, spec.ClickField)
	}
}

func TestTransformMultipleValueSeries(t *testing.T) {
	cfg := chartWith("bar", map[string][]models.FieldBinding{
		"axis": {strField("region")},
		"values": {
			numField("revenue", models.AggSum),
			numField("units", models.AggCount),
		},
	})

	spec := Transform(cfg, salesRows(), nil)
	if len(spec.Series) != 2 {
		t.Fatalf("Expected 2 series, got %d", len(spec.Series))
	}
	if spec.Series[1].Name != "units" || spec.Series[1].Values[0] != 2 {
		t.Errorf("Second series wrong: %+v", spec.Series[1])
	}
}

func TestTransformMissingRequiredSlotYieldsNil(t *testing.T) {
	// No axis field bound: nil, not an error.
	cfg := chartWith("bar", map[string][]models.FieldBinding{
		"values": {numField("revenue", models.AggSum)},
	})
	if spec := Transform(cfg, salesRows(), nil); spec != nil {
		t.Errorf("Expected nil spec, got %+v", spec)
	}
}

func TestTransformUnknownKind(t *testing.T) {
	cfg := chartWith("treemap", nil)
	if spec := Transform(cfg, salesRows(), nil); spec != nil {
		t.Errorf("Expected nil for unknown kind, got %+v", spec)
	}
}

func TestTransformAppliesGlobalFilters(t *testing.T) {
	cfg := chartWith("bar", map[string][]models.FieldBinding{
		"axis":   {strField("region")},
		"values": {numField("revenue", models.AggSum)},
	})

	spec := Transform(cfg, salesRows(), models.Filters{"product": "Laptop"})
	if len(spec.Categories) != 2 {
		t.Fatalf("Categories = %v", spec.Categories)
	}
	if spec.Series[0].Values[0] != 100 || spec.Series[0].Values[1] != 80 {
		t.Errorf("Filtered series wrong: %v", spec.Series[0].Values)
	}
}

func TestTransformAreaGradientHint(t *testing.T) {
	cfg := chartWith("area", map[string][]models.FieldBinding{
		"axis":   {strField("region")},
		"values": {numField("revenue", models.AggSum)},
	})
	spec := Transform(cfg, salesRows(), nil)
	if spec == nil || !spec.AreaGradient {
		t.Error("Area spec must carry the gradient hint")
	}
}

func TestTransformPieAndDonut(t *testing.T) {
	bindings := map[string][]models.FieldBinding{
		"legend": {strField("product")},
		"values": {numField("revenue", models.AggSum)},
	}

	pie := Transform(chartWith("pie", bindings), salesRows(), nil)
	if pie == nil || len(pie.Pairs) != 2 {
		t.Fatalf("Pie pairs = %+v", pie)
	}
	if pie.Pairs[0].Name != "Laptop" || pie.Pairs[0].Value != 180 {
		t.Errorf("Pair 0 = %+v", pie.Pairs[0])
	}
	if pie.InnerRadius != 0 {
		t.Errorf("Pie inner radius = %v", pie.InnerRadius)
	}
	if !pie.Clickable || pie.ClickField != "product" {
		t.Errorf("Pie click metadata wrong")
	}

	donut := Transform(chartWith("donut", bindings), salesRows(), nil)
	if donut.InnerRadius != 0.4 {
		t.Errorf("Donut inner radius = %v", donut.InnerRadius)
	}
}

func TestTransformScatter(t *testing.T) {
	cfg := chartWith("scatter", map[string][]models.FieldBinding{
		"xaxis": {numField("revenue", models.AggNone)},
		"yaxis": {numField("units", models.AggNone)},
	})
	spec := Transform(cfg, salesRows(), nil)
	if len(spec.Points) != 3 {
		t.Fatalf("Expected one point per row, got %d", len(spec.Points))
	}
	if len(spec.Points[0]) != 2 {
		t.Fatalf("No size bound: points must be 2d, got %v", spec.Points[0])
	}
	if spec.Points[0][0] != 100 || spec.Points[0][1] != 2 {
		t.Errorf("Point 0 = %v", spec.Points[0])
	}

	// With a size binding, missing/zero sizes fall back to 10.
	cfg = chartWith("scatter", map[string][]models.FieldBinding{
		"xaxis": {numField("revenue", models.AggNone)},
		"yaxis": {numField("units", models.AggNone)},
		"size":  {numField("weight", models.AggNone)},
	})
	spec = Transform(cfg, salesRows(), nil)
	if len(spec.Points[0]) != 3 || spec.Points[0][2] != 10 {
		t.Errorf("Size fallback wrong: %v", spec.Points[0])
	}
}

func TestTransformGauge(t *testing.T) {
	rows := []Row{
		{"score": 30.0, "goal": 200.0},
		{"score": 50.0, "goal": 200.0},
	}
	cfg := chartWith("gauge", map[string][]models.FieldBinding{
		"values": {numField("score", models.AggSum)},
		"target": {numField("goal", models.AggNone)},
	})
	spec := Transform(cfg, rows, nil)
	g := spec.Gauge
	if g == nil {
		t.Fatal("Expected gauge section")
	}
	if g.Value != 80 || g.Target != 200 {
		t.Errorf("Gauge = %+v", g)
	}
	if g.Percentage != 40 {
		t.Errorf("Percentage = %v, want 40", g.Percentage)
	}

	// Without a target binding the target defaults to 100 and the
	// percentage is capped at 100.
	cfg = chartWith("gauge", map[string][]models.FieldBinding{
		"values": {numField("score", models.AggSum)},
	})
	spec = Transform(cfg, rows, nil)
	if spec.Gauge.Target != 100 || spec.Gauge.Percentage != 80 {
		t.Errorf("Default target gauge = %+v", spec.Gauge)
	}
	spec = Transform(cfg, append(rows, Row{"score": 100.0}), nil)
	if spec.Gauge.Percentage != 100 {
		t.Errorf("Percentage must cap at 100, got %v", spec.Gauge.Percentage)
	}
}

func TestTransformHeatmap(t *testing.T) {
	rows := []Row{
		{"day": "Mon", "hour": "09", "visits": 4.0},
		{"day": "Mon", "hour": "10", "visits": 7.0},
		{"day": "Tue", "hour": "09", "visits": 2.0},
	}
	cfg := chartWith("heatmap", map[string][]models.FieldBinding{
		"xaxis":  {strField("day")},
		"yaxis":  {strField("hour")},
		"values": {numField("visits", models.AggSum)},
	})
	spec := Transform(cfg, rows, nil)
	if len(spec.XCategories) != 2 || len(spec.YCategories) != 2 {
		t.Fatalf("Categories = %v / %v", spec.XCategories, spec.YCategories)
	}
	// One cell per row, indexed into the distinct category lists.
	want := [][3]float64{{0, 0, 4}, {0, 1, 7}, {1, 0, 2}}
	for i, cell := range want {
		if spec.Cells[i] != cell {
			t.Errorf("Cell %d = %v, want %v", i, spec.Cells[i], cell)
		}
	}
	if spec.MaxValue != 7 {
		t.Errorf("MaxValue = %v", spec.MaxValue)
	}
}

func TestTransformRadar(t *testing.T) {
	rows := []Row{
		{"speed": 10.0, "power": 30.0},
		{"speed": 20.0, "power": 50.0},
	}
	cfg := chartWith("radar", map[string][]models.FieldBinding{
		"dimensions": {numField("speed", models.AggNone), numField("power", models.AggNone)},
		"values":     {numField("speed", models.AggAvg)},
	})
	spec := Transform(cfg, rows, nil)
	r := spec.Radar
	if r == nil || len(r.Indicators) != 2 {
		t.Fatalf("Radar = %+v", r)
	}
	// Each dimension: mean value, max with 20% headroom.
	if r.Values[0] != 15 || r.Values[1] != 40 {
		t.Errorf("Means = %v", r.Values)
	}
	if math.Abs(r.Indicators[0].Max-24) > 1e-9 || math.Abs(r.Indicators[1].Max-60) > 1e-9 {
		t.Errorf("Indicator max = %v / %v", r.Indicators[0].Max, r.Indicators[1].Max)
	}
}

func TestTransformFunnelSortsDescending(t *testing.T) {
	rows := []Row{
		{"stage": "Visit", "n": 10.0},
		{"stage": "Buy", "n": 90.0},
		{"stage": "Cart", "n": 40.0},
	}
	cfg := chartWith("funnel", map[string][]models.FieldBinding{
		"stages": {strField("stage")},
		"values": {numField("n", models.AggSum)},
	})
	spec := Transform(cfg, rows, nil)
	if len(spec.Pairs) != 3 {
		t.Fatalf("Pairs = %+v", spec.Pairs)
	}
	if spec.Pairs[0].Name != "Buy" || spec.Pairs[1].Name != "Cart" || spec.Pairs[2].Name != "Visit" {
		t.Errorf("Sort order wrong: %+v", spec.Pairs)
	}
}

func TestTransformWaterfallCumulative(t *testing.T) {
	rows := []Row{
		{"step": "Start", "delta": 10.0},
		{"step": "Fees", "delta": -3.0},
		{"step": "Growth", "delta": 7.0},
	}
	cfg := chartWith("waterfall", map[string][]models.FieldBinding{
		"categories": {strField("step")},
		"values":     {numField("delta", models.AggSum)},
	})
	spec := Transform(cfg, rows, nil)
	want := []models.Interval{
		{Name: "Start", Start: 0, End: 10, Positive: true},
		{Name: "Fees", Start: 10, End: 7, Positive: false},
		{Name: "Growth", Start: 7, End: 14, Positive: true},
	}
	if len(spec.Intervals) != len(want) {
		t.Fatalf("Intervals = %+v", spec.Intervals)
	}
	for i, w := range want {
		if spec.Intervals[i] != w {
			t.Errorf("Interval %d = %+v, want %+v", i, spec.Intervals[i], w)
		}
	}
}

func TestTransformTableLimitsAndProjects(t *testing.T) {
	rows := make([]Row, 0, 12)
	for i := 0; i < 12; i++ {
		rows = append(rows, Row{"region": "US", "revenue": float64(i), "secret": "x"})
	}
	cfg := chartWith("table", map[string][]models.FieldBinding{
		"values": {strField("region"), numField("revenue", models.AggNone)},
	})
	spec := Transform(cfg, rows, nil)
	if len(spec.TableRows) != 10 {
		t.Fatalf("Expected 10 rows, got %d", len(spec.TableRows))
	}
	if _, leaked := spec.TableRows[0]["secret"]; leaked {
		t.Error("Rows must be restricted to the bound fields")
	}
	if spec.TableColumns[0] != "region" || spec.TableColumns[1] != "revenue" {
		t.Errorf("Columns = %v", spec.TableColumns)
	}
}

func TestTransformKPI(t *testing.T) {
	cfg := chartWith("kpi", map[string][]models.FieldBinding{
		"values": {{
			FieldName: "revenue", DisplayName: "Revenue",
			DataType: models.TypeCurrency, Aggregation: models.AggSum,
		}},
	})
	spec := Transform(cfg, salesRows(), nil)
	k := spec.KPI
	if k == nil || k.Value != 230 {
		t.Fatalf("KPI = %+v", k)
	}
	if k.Format != "currency" {
		t.Errorf("Format = %q, want currency", k.Format)
	}
}

func TestTransformSlicer(t *testing.T) {
	cfg := chartWith("slicer", map[string][]models.FieldBinding{
		"field": {strField("product")},
	})
	rows := append(salesRows(), Row{"region": "US", "product": nil})

	spec := Transform(cfg, rows, nil)
	s := spec.Slicer
	if s == nil {
		t.Fatal("Expected slicer section")
	}
	if len(s.Values) != 2 || s.Values[0] != "Laptop" || s.Values[1] != "Phone" {
		t.Errorf("Values = %v", s.Values)
	}
	if s.Selected != nil {
		t.Errorf("Selected = %v, want nil", s.Selected)
	}

	// With an effective filter on the field, the selection is flagged.
	spec = Transform(cfg, rows, models.Filters{"product": "Phone"})
	if spec.Slicer.Selected != "Phone" {
		t.Errorf("Selected = %v, want Phone", spec.Slicer.Selected)
	}
}

func TestTransformTitlePassthrough(t *testing.T) {
	cfg := chartWith("kpi", map[string][]models.FieldBinding{
		"values": {numField("revenue", models.AggSum)},
	})
	cfg.FormatOptions.Title = models.TitleFormat{Show: true, Text: "Revenue"}
	if spec := Transform(cfg, salesRows(), nil); spec.Title != "Revenue" {
		t.Errorf("Title = %q", spec.Title)
	}
	cfg.FormatOptions.Title.Show = false
	if spec := Transform(cfg, salesRows(), nil); spec.Title != "" {
		t.Errorf("Hidden title leaked: %q", spec.Title)
	}
}
