// Package schema is the slot registry: for every supported chart kind it
// fixes which binding slots exist, which data types they accept, and whether
// they take one field or many.
package schema

import "vizboard/internal/models"

// Kinds lists every chart kind with a registered slot schema, in menu order.
var Kinds = []string{
	"bar", "line", "area", "pie", "donut", "scatter", "gauge",
	"heatmap", "radar", "funnel", "waterfall", "table", "kpi", "slicer",
}

type dt = models.DataType

var (
	categorical = []dt{models.TypeString, models.TypeDate, models.TypeNumber}
	numeric     = []dt{models.TypeNumber, models.TypeCurrency}
	stringOnly  = []dt{models.TypeString}
	stringDate  = []dt{models.TypeString, models.TypeDate}
)

var registry = map[string][]models.Slot{
	"bar": {
		{Role: "axis", Label: "Axis", AcceptedTypes: categorical, Required: true},
		{Role: "values", Label: "Values", AcceptedTypes: numeric, MultipleAllowed: true, Required: true},
	},
	"line": {
		{Role: "axis", Label: "Axis", AcceptedTypes: categorical, Required: true},
		{Role: "values", Label: "Values", AcceptedTypes: numeric, MultipleAllowed: true, Required: true},
	},
	"area": {
		{Role: "axis", Label: "Axis", AcceptedTypes: categorical, Required: true},
		{Role: "values", Label: "Values", AcceptedTypes: numeric, MultipleAllowed: true, Required: true},
	},
	"pie": {
		{Role: "legend", Label: "Legend", AcceptedTypes: stringOnly, Required: true},
		{Role: "values", Label: "Values", AcceptedTypes: numeric, Required: true},
	},
	"donut": {
		{Role: "legend", Label: "Legend", AcceptedTypes: stringOnly, Required: true},
		{Role: "values", Label: "Values", AcceptedTypes: numeric, Required: true},
	},
	"scatter": {
		{Role: "xaxis", Label: "X Axis", AcceptedTypes: numeric, Required: true},
		{Role: "yaxis", Label: "Y Axis", AcceptedTypes: numeric, Required: true},
		{Role: "size", Label: "Size", AcceptedTypes: numeric},
	},
	"gauge": {
		{Role: "values", Label: "Values", AcceptedTypes: numeric, Required: true},
		{Role: "target", Label: "Target", AcceptedTypes: numeric},
	},
	"heatmap": {
		{Role: "xaxis", Label: "X Axis", AcceptedTypes: stringDate, Required: true},
		{Role: "yaxis", Label: "Y Axis", AcceptedTypes: stringDate, Required: true},
		{Role: "values", Label: "Values", AcceptedTypes: numeric, Required: true},
	},
	"radar": {
		{Role: "dimensions", Label: "Dimensions", AcceptedTypes: numeric, MultipleAllowed: true, Required: true},
		{Role: "values", Label: "Values", AcceptedTypes: numeric, Required: true},
	},
	"funnel": {
		{Role: "stages", Label: "Stages", AcceptedTypes: stringOnly, Required: true},
		{Role: "values", Label: "Values", AcceptedTypes: numeric, Required: true},
	},
	"waterfall": {
		{Role: "categories", Label: "Categories", AcceptedTypes: stringOnly, Required: true},
		{Role: "values", Label: "Values", AcceptedTypes: numeric, Required: true},
	},
	"table": {
		{Role: "values", Label: "Values", AcceptedTypes: []dt{models.TypeString, models.TypeNumber, models.TypeCurrency, models.TypeDate}, MultipleAllowed: true, Required: true},
	},
	"kpi": {
		{Role: "values", Label: "Values", AcceptedTypes: numeric, Required: true},
	},
	"slicer": {
		{Role: "field", Label: "Field", AcceptedTypes: []dt{models.TypeString, models.TypeNumber, models.TypeDate}, Required: true},
	},
}

// SlotsFor returns fresh slot instances for the given chart kind. The caller
// owns the result; Fields start empty. Unknown kinds yield an empty list, so
// the chart simply renders nothing.
func SlotsFor(kind string) []models.Slot {
	tmpl, ok := registry[kind]
	if !ok {
		return nil
	}
	slots := make([]models.Slot, len(tmpl))
	copy(slots, tmpl)
	for i := range slots {
		slots[i].Fields = nil
	}
	return slots
}
