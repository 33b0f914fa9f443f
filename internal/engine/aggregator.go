package engine

import (
	"fmt"
	"math"
	"strconv"
	"strings"

	"vizboard/internal/models"
)

// ToNumber coerces a cell to float64 with Number(v)||0 semantics: numeric
// types convert directly, booleans map to 0/1, parseable strings parse, and
// everything else (including nil and NaN) collapses to 0. Aggregations rely
// on this policy; it is deliberate, not a bug to fix.
func ToNumber(v any) float64 {
	switch n := v.(type) {
	case float64:
		if math.IsNaN(n) {
			return 0
		}
		return n
	case float32:
		return float64(n)
	case int:
		return float64(n)
	case int32:
		return float64(n)
	case int64:
		return float64(n)
	case bool:
		if n {
			return 1
		}
		return 0
	case string:
		f, err := strconv.ParseFloat(strings.TrimSpace(n), 64)
		if err != nil || math.IsNaN(f) {
			return 0
		}
		return f
	default:
		return 0
	}
}

// Reduce collapses a non-empty group of cell values using the binding's
// aggregation. It returns the raw first value for AggNone; every other
// aggregation yields a float64. An empty group reduces to 0 (the avg-of-zero
// sentinel) except for count, which is naturally 0.
func Reduce(agg models.Aggregation, values []any) any {
	if len(values) == 0 {
		if agg == models.AggNone {
			return nil
		}
		return float64(0)
	}
	switch agg {
	case models.AggSum:
		var sum float64
		for _, v := range values {
			sum += ToNumber(v)
		}
		return sum
	case models.AggAvg:
		var sum float64
		for _, v := range values {
			sum += ToNumber(v)
		}
		return sum / float64(len(values))
	case models.AggCount:
		return float64(len(values))
	case models.AggMin:
		min := ToNumber(values[0])
		for _, v := range values[1:] {
			if n := ToNumber(v); n < min {
				min = n
			}
		}
		return min
	case models.AggMax:
		max := ToNumber(values[0])
		for _, v := range values[1:] {
			if n := ToNumber(v); n > max {
				max = n
			}
		}
		return max
	default: // AggNone and anything unrecognized
		return values[0]
	}
}

// reduceNumber is Reduce with the result coerced for numeric output slots.
func reduceNumber(agg models.Aggregation, values []any) float64 {
	return ToNumber(Reduce(agg, values))
}

// group is one category bucket with the collected cell values of a field.
type group struct {
	key    string
	values []any
}

// groupBy buckets rows by the categorical key field, preserving the order of
// first appearance, and collects each row's valueField cell.
func groupBy(rows []Row, keyField, valueField string) []group {
	index := make(map[string]int)
	var groups []group
	for _, row := range rows {
		key := categoryKey(row[keyField])
		i, ok := index[key]
		if !ok {
			i = len(groups)
			index[key] = i
			groups = append(groups, group{key: key})
		}
		groups[i].values = append(groups[i].values, row[valueField])
	}
	return groups
}

// categoryKey renders a cell as a category label. Floats drop a trailing
// ".0"-style fraction so 2021 and 2021.0 land in the same bucket.
func categoryKey(v any) string {
	switch s := v.(type) {
	case nil:
		return ""
	case string:
		return s
	case float64:
		return strconv.FormatFloat(s, 'f', -1, 64)
	default:
		return fmt.Sprint(v)
	}
}
