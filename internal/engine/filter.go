package engine

import "vizboard/internal/models"

// EffectiveFilters merges the global filter set with a chart's own filters.
// Chart-local filters win on key collision. The result is a fresh map.
func EffectiveFilters(chart *models.ChartConfiguration, global models.Filters) models.Filters {
	eff := make(models.Filters, len(global)+len(chart.Filters))
	for k, v := range global {
		eff[k] = v
	}
	for k, v := range chart.Filters {
		eff[k] = v
	}
	return eff
}

// rowMatches reports whether a row passes every filter. A nil filter value is
// "no constraint" and always matches; otherwise the row's cell must be
// strictly equal to the filter value.
func rowMatches(row Row, filters models.Filters) bool {
	for field, want := range filters {
		if want == nil {
			continue
		}
		if row[field] != want {
			return false
		}
	}
	return true
}

// filterRows returns the rows passing the filter set. With no constraints the
// input slice is returned as-is.
func filterRows(rows []Row, filters models.Filters) []Row {
	if len(filters) == 0 {
		return rows
	}
	out := make([]Row, 0, len(rows))
	for _, row := range rows {
		if rowMatches(row, filters) {
			out = append(out, row)
		}
	}
	return out
}
