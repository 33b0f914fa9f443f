package models

// DataType classifies the values a table column (or measure) can hold.
type DataType string

const (
	TypeString   DataType = "string"
	TypeNumber   DataType = "number"
	TypeDate     DataType = "date"
	TypeBoolean  DataType = "boolean"
	TypeCurrency DataType = "currency"
)

// Aggregation is the reduction applied to a bound field's grouped values.
type Aggregation string

const (
	AggSum   Aggregation = "sum"
	AggAvg   Aggregation = "avg"
	AggCount Aggregation = "count"
	AggMin   Aggregation = "min"
	AggMax   Aggregation = "max"
	AggNone  Aggregation = "none"
)

// IsNumeric reports whether a data type participates in numeric aggregation
// by default.
func (d DataType) IsNumeric() bool {
	return d == TypeNumber || d == TypeCurrency
}

// Table is a named columnar dataset. Values are stored per column; all value
// arrays are expected to have equal length, but consumers must tolerate
// ragged input (missing cells read as nil).
type Table struct {
	Name        string           `json:"name"`
	Description string           `json:"description"`
	Columns     []string         `json:"columns"`
	Types       []DataType       `json:"types"`
	Values      map[string][]any `json:"values"`
}

// Field is a selectable catalog entry: a table column or a user measure.
type Field struct {
	FieldName   string   `json:"fieldName"`
	DisplayName string   `json:"displayName"`
	DataType    DataType `json:"dataType"`
	SourceTable string   `json:"sourceTable"`
	IsMeasure   bool     `json:"isMeasure,omitempty"`
	Formula     string   `json:"formula,omitempty"`
}

// Measure is a user-authored computed field.
type Measure struct {
	ID      int    `json:"id"`
	Name    string `json:"name"`
	Formula string `json:"formula"`
}

// FieldBinding is a field placed into a slot, with its aggregation choice.
type FieldBinding struct {
	FieldName   string      `json:"fieldName"`
	DisplayName string      `json:"displayName"`
	DataType    DataType    `json:"dataType"`
	SourceTable string      `json:"sourceTable"`
	Aggregation Aggregation `json:"aggregation"`
}

// Slot is a typed binding point in a chart's schema.
type Slot struct {
	Role            string         `json:"role"`
	Label           string         `json:"label"`
	AcceptedTypes   []DataType     `json:"acceptedTypes"`
	MultipleAllowed bool           `json:"multipleAllowed"`
	Required        bool           `json:"required"`
	Fields          []FieldBinding `json:"fields"`
}

// Accepts reports whether the slot takes fields of the given type.
func (s *Slot) Accepts(t DataType) bool {
	for _, a := range s.AcceptedTypes {
		if a == t {
			return true
		}
	}
	return false
}

// Interaction describes how a click on one chart affects another. It is
// advisory metadata: cross-filter dispatch does not consult it.
type Interaction string

const (
	InteractionFilter    Interaction = "filter"
	InteractionHighlight Interaction = "highlight"
	InteractionNone      Interaction = "none"
)

// Filters maps field names to the single value rows must equal to pass.
// A nil value means "no constraint".
type Filters map[string]any

// Position is a chart's unscaled canvas coordinate.
type Position struct {
	X float64 `json:"x"`
	Y float64 `json:"y"`
}

// Size is a chart's unscaled canvas extent.
type Size struct {
	Width  float64 `json:"width"`
	Height float64 `json:"height"`
}

// FormatOptions carries per-chart presentation settings. The engine passes
// these through to the spec; it never interprets them beyond title text.
type FormatOptions struct {
	Title  TitleFormat  `json:"title"`
	Legend LegendFormat `json:"legend"`
	Colors ColorFormat  `json:"colors"`
	Axes   AxesFormat   `json:"axes"`
}

type TitleFormat struct {
	Show     bool   `json:"show"`
	Text     string `json:"text"`
	FontSize int    `json:"fontSize"`
	Color    string `json:"color"`
}

type LegendFormat struct {
	Show     bool   `json:"show"`
	Position string `json:"position"`
	FontSize int    `json:"fontSize"`
}

type ColorFormat struct {
	Scheme string   `json:"scheme"`
	Custom []string `json:"custom"`
}

type AxesFormat struct {
	XTitle   string `json:"xTitle"`
	YTitle   string `json:"yTitle"`
	ShowGrid bool   `json:"showGrid"`
}

// ChartConfiguration is the full mutable state of one chart on the canvas.
// It is plain data: interactions reference target chart ids, never chart
// objects, so the whole struct round-trips through JSON.
type ChartConfiguration struct {
	ID            int                 `json:"id"`
	Kind          string              `json:"kind"`
	Title         string              `json:"title"`
	Position      Position            `json:"position"`
	Size          Size                `json:"size"`
	Slots         []Slot              `json:"slots"`
	FormatOptions FormatOptions       `json:"formatOptions"`
	Interactions  map[int]Interaction `json:"interactions"`
	Filters       Filters             `json:"filters"`
}

// Slot returns the slot with the given role, or nil.
func (c *ChartConfiguration) Slot(role string) *Slot {
	for i := range c.Slots {
		if c.Slots[i].Role == role {
			return &c.Slots[i]
		}
	}
	return nil
}

// FirstBinding returns the first field bound to the role, or nil.
func (c *ChartConfiguration) FirstBinding(role string) *FieldBinding {
	s := c.Slot(role)
	if s == nil || len(s.Fields) == 0 {
		return nil
	}
	return &s.Fields[0]
}
