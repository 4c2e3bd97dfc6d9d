package models

type Orientation string

const (
	OrientationVertical   Orientation = "vertical"
	OrientationHorizontal Orientation = "horizontal"
	OrientationGrid       Orientation = "grid"
)

func (o Orientation) IsValid() bool {
	switch o {
	case OrientationVertical, OrientationHorizontal, OrientationGrid:
		return true
	}

	return false
}

type Size struct {
	Width  int `json:"width" yaml:"width"`
	Height int `json:"height" yaml:"height"`
}

/*
Layout describes the geometry of a photo strip: how many photos it holds,
how they are packed, and which decorative bands are drawn.
*/
type Layout struct {
	ID           string      `json:"id" yaml:"id"`
	Name         string      `json:"name" yaml:"name"`
	Description  string      `json:"description" yaml:"description"`
	PhotoCount   int         `json:"photoCount" yaml:"photoCount"`
	Orientation  Orientation `json:"orientation" yaml:"orientation"`
	CanvasSize   Size        `json:"canvasSize" yaml:"canvasSize"`
	PhotoSize    Size        `json:"photoSize" yaml:"photoSize"`
	Spacing      int         `json:"spacing" yaml:"spacing"`
	ShowHeader   bool        `json:"showHeader" yaml:"showHeader"`
	ShowFooter   bool        `json:"showFooter" yaml:"showFooter"`
	CornerRadius int         `json:"cornerRadius" yaml:"cornerRadius"`
	BorderWidth  int         `json:"borderWidth" yaml:"borderWidth"`
}
