package engine

import (
	"sort"

	"vizboard/internal/models"
)

// builder turns a chart's filtered rows into a render-ready spec. Builders
// return nil when a required slot has no field bound; the rendering layer
// shows a placeholder for nil, never an error.
type builder func(cfg *models.ChartConfiguration, rows []Row, eff models.Filters) *models.ChartSpec

// builders is the dispatch table keyed by chart kind. Adding a chart kind
// means registering a schema entry and a builder here; no existing case is
// touched.
var builders = map[string]builder{
	"bar":       buildBar,
	"line":      buildLine,
	"area":      buildArea,
	"pie":       buildPie,
	"donut":     buildDonut,
	"scatter":   buildScatter,
	"gauge":     buildGauge,
	"heatmap":   buildHeatmap,
	"radar":     buildRadar,
	"funnel":    buildFunnel,
	"waterfall": buildWaterfall,
	"table":     buildTable,
	"kpi":       buildKPI,
	"slicer":    buildSlicer,
}

// Transform runs the full pipeline for one chart: resolve effective filters,
// select matching rows, and dispatch to the kind-specific builder. A nil
// result means the chart has nothing to render (unbound required slots or an
// unknown kind).
func Transform(chart *models.ChartConfiguration, rows []Row, global models.Filters) *models.ChartSpec {
	build, ok := builders[chart.Kind]
	if !ok {
		return nil
	}
	eff := EffectiveFilters(chart, global)
	spec := build(chart, filterRows(rows, eff), eff)
	if spec == nil {
		return nil
	}
	spec.Kind = chart.Kind
	if chart.FormatOptions.Title.Show {
		spec.Title = chart.FormatOptions.Title.Text
	}
	return spec
}

// cartesian covers bar, line and area: one category axis plus one series per
// bound value field, each reduced by its own aggregation.
func cartesian(cfg *models.ChartConfiguration, rows []Row) *models.ChartSpec {
	axis := cfg.FirstBinding("axis")
	valuesSlot := cfg.Slot("values")
	if axis == nil || valuesSlot == nil || len(valuesSlot.Fields) == 0 {
		return nil
	}

	var categories []string
	series := make([]models.Series, 0, len(valuesSlot.Fields))
	for i, fb := range valuesSlot.Fields {
		groups := groupBy(rows, axis.FieldName, fb.FieldName)
		if i == 0 {
			categories = make([]string, len(groups))
			for j, g := range groups {
				categories[j] = g.key
			}
		}
		values := make([]float64, len(groups))
		for j, g := range groups {
			values[j] = reduceNumber(fb.Aggregation, g.values)
		}
		series = append(series, models.Series{Name: fb.DisplayName, Values: values})
	}

	return &models.ChartSpec{
		Categories: categories,
		Series:     series,
		Clickable:  true,
		ClickField: axis.FieldName,
	}
}

func buildBar(cfg *models.ChartConfiguration, rows []Row, _ models.Filters) *models.ChartSpec {
	return cartesian(cfg, rows)
}

func buildLine(cfg *models.ChartConfiguration, rows []Row, _ models.Filters) *models.ChartSpec {
	return cartesian(cfg, rows)
}

func buildArea(cfg *models.ChartConfiguration, rows []Row, _ models.Filters) *models.ChartSpec {
	spec := cartesian(cfg, rows)
	if spec != nil {
		spec.AreaGradient = true
	}
	return spec
}

// radial covers pie and donut: category/aggregate pairs keyed by the legend
// field. Donut only differs in its inner radius.
func radial(cfg *models.ChartConfiguration, rows []Row, innerRadius float64) *models.ChartSpec {
	legend := cfg.FirstBinding("legend")
	value := cfg.FirstBinding("values")
	if legend == nil || value == nil {
		return nil
	}
	groups := groupBy(rows, legend.FieldName, value.FieldName)
	pairs := make([]models.NamedValue, len(groups))
	for i, g := range groups {
		pairs[i] = models.NamedValue{Name: g.key, Value: reduceNumber(value.Aggregation, g.values)}
	}
	return &models.ChartSpec{
		Pairs:       pairs,
		InnerRadius: innerRadius,
		Clickable:   true,
		ClickField:  legend.FieldName,
	}
}

func buildPie(cfg *models.ChartConfiguration, rows []Row, _ models.Filters) *models.ChartSpec {
	return radial(cfg, rows, 0)
}

func buildDonut(cfg *models.ChartConfiguration, rows []Row, _ models.Filters) *models.ChartSpec {
	return radial(cfg, rows, 0.4)
}

func buildScatter(cfg *models.ChartConfiguration, rows []Row, _ models.Filters) *models.ChartSpec {
	x := cfg.FirstBinding("xaxis")
	y := cfg.FirstBinding("yaxis")
	if x == nil || y == nil {
		return nil
	}
	size := cfg.FirstBinding("size")

	points := make([][]float64, len(rows))
	for i, row := range rows {
		point := []float64{ToNumber(row[x.FieldName]), ToNumber(row[y.FieldName])}
		if size != nil {
			s := ToNumber(row[size.FieldName])
			if s == 0 {
				s = 10
			}
			point = append(point, s)
		}
		points[i] = point
	}
	return &models.ChartSpec{Points: points}
}

func buildGauge(cfg *models.ChartConfiguration, rows []Row, _ models.Filters) *models.ChartSpec {
	value := cfg.FirstBinding("values")
	if value == nil {
		return nil
	}
	target := cfg.FirstBinding("target")

	cells := make([]any, len(rows))
	for i, row := range rows {
		cells[i] = row[value.FieldName]
	}
	v := ToNumber(Reduce(value.Aggregation, cells))

	t := 100.0
	if target != nil && len(rows) > 0 {
		if got := ToNumber(rows[0][target.FieldName]); got != 0 {
			t = got
		}
	}

	pct := v / t * 100
	if pct > 100 {
		pct = 100
	}
	return &models.ChartSpec{Gauge: &models.GaugeSpec{
		Name:       value.DisplayName,
		Value:      v,
		Target:     t,
		Percentage: pct,
	}}
}

// buildHeatmap places each row at the index of its x/y category. Rows are not
// pre-grouped: duplicate coordinates overwrite each other at render time
// (last write wins), matching the historical behavior.
func buildHeatmap(cfg *models.ChartConfiguration, rows []Row, _ models.Filters) *models.ChartSpec {
	x := cfg.FirstBinding("xaxis")
	y := cfg.FirstBinding("yaxis")
	value := cfg.FirstBinding("values")
	if x == nil || y == nil || value == nil {
		return nil
	}

	xCats, xIndex := distinctKeys(rows, x.FieldName)
	yCats, yIndex := distinctKeys(rows, y.FieldName)

	cells := make([][3]float64, len(rows))
	var max float64
	for i, row := range rows {
		v := ToNumber(row[value.FieldName])
		cells[i] = [3]float64{
			float64(xIndex[categoryKey(row[x.FieldName])]),
			float64(yIndex[categoryKey(row[y.FieldName])]),
			v,
		}
		if v > max {
			max = v
		}
	}
	return &models.ChartSpec{
		XCategories: xCats,
		YCategories: yCats,
		Cells:       cells,
		MaxValue:    max,
	}
}

func buildRadar(cfg *models.ChartConfiguration, rows []Row, _ models.Filters) *models.ChartSpec {
	dims := cfg.Slot("dimensions")
	value := cfg.FirstBinding("values")
	if dims == nil || len(dims.Fields) == 0 || value == nil {
		return nil
	}

	indicators := make([]models.RadarIndicator, len(dims.Fields))
	values := make([]float64, len(dims.Fields))
	for i, fb := range dims.Fields {
		var sum, max float64
		for _, row := range rows {
			n := ToNumber(row[fb.FieldName])
			sum += n
			if n > max {
				max = n
			}
		}
		mean := 0.0
		if len(rows) > 0 {
			mean = sum / float64(len(rows))
		}
		// 20% headroom so the polygon never touches the rim.
		indicators[i] = models.RadarIndicator{Name: fb.FieldName, Max: max * 1.2}
		values[i] = mean
	}
	return &models.ChartSpec{Radar: &models.RadarSpec{
		Indicators: indicators,
		Name:       value.DisplayName,
		Values:     values,
	}}
}

func buildFunnel(cfg *models.ChartConfiguration, rows []Row, _ models.Filters) *models.ChartSpec {
	stage := cfg.FirstBinding("stages")
	value := cfg.FirstBinding("values")
	if stage == nil || value == nil {
		return nil
	}
	groups := groupBy(rows, stage.FieldName, value.FieldName)
	pairs := make([]models.NamedValue, len(groups))
	for i, g := range groups {
		pairs[i] = models.NamedValue{Name: g.key, Value: reduceNumber(value.Aggregation, g.values)}
	}
	sort.SliceStable(pairs, func(i, j int) bool { return pairs[i].Value > pairs[j].Value })
	return &models.ChartSpec{Pairs: pairs}
}

func buildWaterfall(cfg *models.ChartConfiguration, rows []Row, _ models.Filters) *models.ChartSpec {
	category := cfg.FirstBinding("categories")
	value := cfg.FirstBinding("values")
	if category == nil || value == nil {
		return nil
	}

	groups := groupBy(rows, category.FieldName, value.FieldName)
	categories := make([]string, len(groups))
	intervals := make([]models.Interval, len(groups))
	var cumulative float64
	for i, g := range groups {
		delta := reduceNumber(value.Aggregation, g.values)
		start := cumulative
		cumulative += delta
		categories[i] = g.key
		intervals[i] = models.Interval{
			Name:     g.key,
			Start:    start,
			End:      cumulative,
			Positive: delta >= 0,
		}
	}
	return &models.ChartSpec{Categories: categories, Intervals: intervals}
}

// tableRowLimit caps how many rows a table chart shows.
const tableRowLimit = 10

func buildTable(cfg *models.ChartConfiguration, rows []Row, _ models.Filters) *models.ChartSpec {
	valuesSlot := cfg.Slot("values")
	if valuesSlot == nil || len(valuesSlot.Fields) == 0 {
		return nil
	}
	columns := make([]string, len(valuesSlot.Fields))
	for i, fb := range valuesSlot.Fields {
		columns[i] = fb.FieldName
	}

	limit := len(rows)
	if limit > tableRowLimit {
		limit = tableRowLimit
	}
	out := make([]map[string]any, limit)
	for i := 0; i < limit; i++ {
		record := make(map[string]any, len(columns))
		for _, col := range columns {
			record[col] = rows[i][col]
		}
		out[i] = record
	}
	return &models.ChartSpec{TableColumns: columns, TableRows: out}
}

func buildKPI(cfg *models.ChartConfiguration, rows []Row, _ models.Filters) *models.ChartSpec {
	value := cfg.FirstBinding("values")
	if value == nil {
		return nil
	}
	cells := make([]any, len(rows))
	for i, row := range rows {
		cells[i] = row[value.FieldName]
	}
	format := "number"
	if value.DataType == models.TypeCurrency {
		format = "currency"
	}
	return &models.ChartSpec{KPI: &models.KPISpec{
		Value:  ToNumber(Reduce(value.Aggregation, cells)),
		Label:  value.DisplayName,
		Format: format,
	}}
}

func buildSlicer(cfg *models.ChartConfiguration, rows []Row, eff models.Filters) *models.ChartSpec {
	field := cfg.FirstBinding("field")
	if field == nil {
		return nil
	}
	seen := make(map[any]bool)
	var values []any
	for _, row := range rows {
		v := row[field.FieldName]
		if v == nil || seen[v] {
			continue
		}
		seen[v] = true
		values = append(values, v)
	}
	return &models.ChartSpec{
		Slicer: &models.SlicerSpec{
			Field:    field.FieldName,
			Values:   values,
			Selected: eff[field.FieldName],
		},
		Clickable:  true,
		ClickField: field.FieldName,
	}
}

// distinctKeys lists the distinct category labels of a field in order of
// first appearance, plus a label→index lookup.
func distinctKeys(rows []Row, field string) ([]string, map[string]int) {
	index := make(map[string]int)
	var keys []string
	for _, row := range rows {
		key := categoryKey(row[field])
		if _, ok := index[key]; !ok {
			index[key] = len(keys)
			keys = append(keys, key)
		}
	}
	return keys, index
}
