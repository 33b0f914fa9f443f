package dashboard

import "vizboard/internal/models"

// Canvas bounds. Charts cannot shrink below the size at which their content
// stops being legible, and never leave the top-left origin.
const (
	MinChartWidth  = 200
	MinChartHeight = 150
	MinCanvasScale = 0.5
	MaxCanvasScale = 2.0
)

// canvasOp is the layout state machine: a chart is idle, dragging, or
// resizing. At most one chart is mid-operation at a time.
type canvasOp int

const (
	opIdle canvasOp = iota
	opDragging
	opResizing
)

type canvasState struct {
	scale    float64
	selected int
	op       canvasOp
	opChart  int
	handle   string
}

// Select marks a chart as selected; 0 clears the selection.
func (s *Session) Select(id int) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.canvas.selected = id
}

// Selected returns the selected chart id, 0 if none.
func (s *Session) Selected() int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.canvas.selected
}

// StartDrag begins a drag operation for the chart. It fails silently if
// another operation is already active; the caller sequences mouse events.
func (s *Session) StartDrag(id int) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.canvas.op != opIdle || s.charts[id] == nil {
		return
	}
	s.canvas.op = opDragging
	s.canvas.opChart = id
}

// StartResize begins a resize operation using one of the handles "se", "s"
// or "e".
func (s *Session) StartResize(id int, handle string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.canvas.op != opIdle || s.charts[id] == nil {
		return
	}
	s.canvas.op = opResizing
	s.canvas.opChart = id
	s.canvas.handle = handle
}

// EndOp returns the canvas to idle.
func (s *Session) EndOp() {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.canvas.op = opIdle
	s.canvas.opChart = 0
	s.canvas.handle = ""
}

// SetPosition moves a chart, clamping both coordinates to the canvas
// origin. Coordinates are stored unscaled.
func (s *Session) SetPosition(id int, x, y float64) {
	s.mu.Lock()
	defer s.mu.Unlock()
	chart := s.charts[id]
	if chart == nil {
		return
	}
	chart.Position = models.Position{X: max(0, x), Y: max(0, y)}
}

// SetSize resizes a chart, enforcing the minimum extent. Sizes are stored
// unscaled.
func (s *Session) SetSize(id int, width, height float64) {
	s.mu.Lock()
	defer s.mu.Unlock()
	chart := s.charts[id]
	if chart == nil {
		return
	}
	chart.Size = models.Size{
		Width:  max(MinChartWidth, width),
		Height: max(MinChartHeight, height),
	}
}

// ResizeBy applies a mouse delta through the active handle: "se" resizes
// both dimensions, "s" height only, "e" width only.
func (s *Session) ResizeBy(id int, handle string, dx, dy float64) {
	s.mu.Lock()
	defer s.mu.Unlock()
	chart := s.charts[id]
	if chart == nil {
		return
	}
	width, height := chart.Size.Width, chart.Size.Height
	switch handle {
	case "se":
		width += dx
		height += dy
	case "s":
		height += dy
	case "e":
		width += dx
	default:
		return
	}
	chart.Size = models.Size{
		Width:  max(MinChartWidth, width),
		Height: max(MinChartHeight, height),
	}
}

// SetScale sets the canvas zoom, clamped to its bounds. Scale affects
// rendering only; stored positions and sizes stay unscaled.
func (s *Session) SetScale(scale float64) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if scale < MinCanvasScale {
		scale = MinCanvasScale
	} else if scale > MaxCanvasScale {
		scale = MaxCanvasScale
	}
	s.canvas.scale = scale
}

// Scale returns the current canvas zoom.
func (s *Session) Scale() float64 {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.canvas.scale
}
