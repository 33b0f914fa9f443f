// Package catalog enumerates the fields a user can drag into chart slots:
// table columns plus user-authored measures.
package catalog

import (
	"strings"
	"sync"

	"vizboard/internal/models"
)

// MeasureTable is the pseudo source table measures report as their origin.
const MeasureTable = "measures"

// Catalog serves field lookups over a set of tables and holds the session's
// measures.
type Catalog struct {
	mu            sync.RWMutex
	measures      []models.Measure
	nextMeasureID int
}

func New() *Catalog {
	return &Catalog{nextMeasureID: 1}
}

// Fields lists the selectable fields of a table, in column order.
func Fields(table *models.Table) []models.Field {
	if table == nil {
		return nil
	}
	fields := make([]models.Field, 0, len(table.Columns))
	for i, col := range table.Columns {
		t := models.TypeString
		if i < len(table.Types) {
			t = table.Types[i]
		}
		fields = append(fields, models.Field{
			FieldName:   col,
			DisplayName: col,
			DataType:    t,
			SourceTable: table.Name,
		})
	}
	return fields
}

// Search filters a field list by case-insensitive substring match on the
// display name. An empty term matches everything.
func Search(fields []models.Field, term string) []models.Field {
	if term == "" {
		return fields
	}
	term = strings.ToLower(term)
	out := make([]models.Field, 0, len(fields))
	for _, f := range fields {
		if strings.Contains(strings.ToLower(f.DisplayName), term) {
			out = append(out, f)
		}
	}
	return out
}

// AddMeasure registers a user-authored computed measure and returns it.
// Measures are numeric and bind like any other field.
func (c *Catalog) AddMeasure(name, formula string) models.Measure {
	c.mu.Lock()
	defer c.mu.Unlock()
	m := models.Measure{ID: c.nextMeasureID, Name: name, Formula: formula}
	c.nextMeasureID++
	c.measures = append(c.measures, m)
	return m
}

// RemoveMeasure deletes a measure by id. Unknown ids are a no-op.
func (c *Catalog) RemoveMeasure(id int) {
	c.mu.Lock()
	defer c.mu.Unlock()
	for i, m := range c.measures {
		if m.ID == id {
			c.measures = append(c.measures[:i], c.measures[i+1:]...)
			return
		}
	}
}

// Measures returns the current measure list.
func (c *Catalog) Measures() []models.Measure {
	c.mu.RLock()
	defer c.mu.RUnlock()
	out := make([]models.Measure, len(c.measures))
	copy(out, c.measures)
	return out
}

// MeasureFields exposes measures as catalog fields so they can be bound
// into slots alongside table columns.
func (c *Catalog) MeasureFields() []models.Field {
	c.mu.RLock()
	defer c.mu.RUnlock()
	fields := make([]models.Field, 0, len(c.measures))
	for _, m := range c.measures {
		fields = append(fields, models.Field{
			FieldName:   m.Name,
			DisplayName: m.Name,
			DataType:    models.TypeNumber,
			SourceTable: MeasureTable,
			IsMeasure:   true,
			Formula:     m.Formula,
		})
	}
	return fields
}
