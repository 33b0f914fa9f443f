// Package engine turns columnar tables into render-ready chart specs: row
// materialization, filter resolution, aggregation, and the per-kind
// transformation algorithms.
package engine

import "vizboard/internal/models"

// Row is one materialized record of a table.
type Row map[string]any

// Rows converts a table's columnar storage into row-oriented records. The row
// count is taken from the first declared column; columns with shorter value
// arrays contribute nil cells rather than failing, so ragged tables degrade
// instead of crashing the pipeline.
func Rows(table *models.Table) []Row {
	if table == nil || len(table.Columns) == 0 {
		return nil
	}
	count := len(table.Values[table.Columns[0]])
	rows := make([]Row, count)
	for i := 0; i < count; i++ {
		row := make(Row, len(table.Columns))
		for _, col := range table.Columns {
			vals := table.Values[col]
			if i < len(vals) {
				row[col] = vals[i]
			} else {
				row[col] = nil
			}
		}
		rows[i] = row
	}
	return rows
}
