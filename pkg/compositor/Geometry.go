package compositor

import (
	"strconv"

	"github.com/adampresley/photostrip/pkg/models"
)

const (
	defaultPadding = 25
	headerBottom   = 85
	footerHeight   = 60
	gridColumns    = 2
)

type Rect struct {
	X      int `json:"x"`
	Y      int `json:"y"`
	Width  int `json:"width"`
	Height int `json:"height"`
}

func (r Rect) Right() int {
	return r.X + r.Width
}

func (r Rect) Bottom() int {
	return r.Y + r.Height
}

func (r Rect) Overlaps(other Rect) bool {
	return r.X < other.Right() && other.X < r.Right() && r.Y < other.Bottom() && other.Y < r.Bottom()
}

func (r Rect) Inside(width, height int) bool {
	return r.X >= 0 && r.Y >= 0 && r.Right() <= width && r.Bottom() <= height
}

func padding(layout models.Layout) int {
	if layout.Spacing > 0 {
		return layout.Spacing
	}

	return defaultPadding
}

/*
ContentTop is the Y coordinate where the first row of photos begins.
*/
func ContentTop(layout models.Layout) int {
	if layout.ShowHeader {
		return headerBottom
	}

	return padding(layout)
}

/*
ContentBottom is the lowest Y coordinate a photo may reach.
*/
func ContentBottom(layout models.Layout) int {
	if layout.ShowFooter {
		return layout.CanvasSize.Height - footerHeight
	}

	return layout.CanvasSize.Height - padding(layout)
}

/*
SlotRect returns the placement of photo index (0-based) on the canvas.
Vertical strips center each photo horizontally and stack them from the
content top. Horizontal strips lay photos left to right, centered in the
band between header and footer. Grids fill two columns row by row.
*/
func SlotRect(layout models.Layout, index int) Rect {
	pw := layout.PhotoSize.Width
	ph := layout.PhotoSize.Height
	pad := padding(layout)
	top := ContentTop(layout)

	r := Rect{Width: pw, Height: ph}

	switch layout.Orientation {
	case models.OrientationHorizontal:
		r.X = pad + index*(pw+layout.Spacing)
		r.Y = top + (ContentBottom(layout)-top-ph)/2

	case models.OrientationGrid:
		col := index % gridColumns
		row := index / gridColumns
		r.X = pad + col*(pw+layout.Spacing)
		r.Y = top + row*(ph+layout.Spacing)

	default:
		r.X = (layout.CanvasSize.Width - pw) / 2
		r.Y = top + index*(ph+layout.Spacing)
	}

	return r
}

func Slots(layout models.Layout) []Rect {
	result := make([]Rect, 0, layout.PhotoCount)

	for i := 0; i < layout.PhotoCount; i++ {
		result = append(result, SlotRect(layout, i))
	}

	return result
}

/*
SlotLabel is the number drawn in the badge of photo index.
*/
func SlotLabel(index int) string {
	return strconv.Itoa(index + 1)
}
