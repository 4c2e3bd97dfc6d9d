package catalog

import "github.com/adampresley/photostrip/pkg/models"

const (
	DefaultLayoutID = "classic"
	DefaultThemeID  = "classic"
)

func BuiltinLayouts() []models.Layout {
	return []models.Layout{
		{
			ID:           "classic",
			Name:         "Classic Strip",
			Description:  "Traditional 4-photo vertical strip",
			PhotoCount:   4,
			Orientation:  models.OrientationVertical,
			CanvasSize:   models.Size{Width: 300, Height: 1200},
			PhotoSize:    models.Size{Width: 260, Height: 240},
			Spacing:      10,
			ShowHeader:   true,
			ShowFooter:   true,
			CornerRadius: 8,
			BorderWidth:  2,
		},
		{
			ID:           "vintage",
			Name:         "Vintage Strip",
			Description:  "Nostalgic 3-photo vertical strip",
			PhotoCount:   3,
			Orientation:  models.OrientationVertical,
			CanvasSize:   models.Size{Width: 300, Height: 900},
			PhotoSize:    models.Size{Width: 250, Height: 230},
			Spacing:      15,
			ShowHeader:   true,
			ShowFooter:   true,
			CornerRadius: 12,
			BorderWidth:  3,
		},
		{
			ID:           "horizontal",
			Name:         "Horizontal Strip",
			Description:  "Modern 3-photo horizontal layout",
			PhotoCount:   3,
			Orientation:  models.OrientationHorizontal,
			CanvasSize:   models.Size{Width: 900, Height: 400},
			PhotoSize:    models.Size{Width: 260, Height: 260},
			Spacing:      30,
			ShowHeader:   true,
			ShowFooter:   false,
			CornerRadius: 8,
			BorderWidth:  2,
		},
		{
			ID:           "grid",
			Name:         "2x2 Grid",
			Description:  "Square grid layout",
			PhotoCount:   4,
			Orientation:  models.OrientationGrid,
			CanvasSize:   models.Size{Width: 600, Height: 680},
			PhotoSize:    models.Size{Width: 270, Height: 270},
			Spacing:      20,
			ShowHeader:   false,
			ShowFooter:   true,
			CornerRadius: 8,
			BorderWidth:  2,
		},
	}
}

func BuiltinThemes() []models.Theme {
	return []models.Theme{
		{
			ID:              "classic",
			Name:            "Classic",
			Description:     "Timeless black and white",
			BackgroundColor: "#FFFFFF",
			BorderColor:     "#000000",
			AccentColor:     "#333333",
			TextColor:       "#000000",
			FontFamily:      "Arial, sans-serif",
			HeaderText:      "PHOTOBOOTH",
		},
		{
			ID:              "vintage",
			Name:            "Vintage",
			Description:     "Warm sepia tones",
			BackgroundColor: "#F5F5DC",
			BorderColor:     "#8B4513",
			AccentColor:     "#D2691E",
			TextColor:       "#654321",
			FontFamily:      "serif",
			HeaderText:      "MEMORIES",
		},
		{
			ID:              "birthday",
			Name:            "Birthday Party",
			Description:     "Fun and colorful celebration",
			BackgroundColor: "#FFE4E1",
			BorderColor:     "#FF69B4",
			AccentColor:     "#FF6347",
			TextColor:       "#FF1493",
			FontFamily:      "Comic Sans MS, cursive",
			HeaderText:      "PARTY TIME!",
		},
		{
			ID:              "wedding",
			Name:            "Wedding",
			Description:     "Elegant gold and cream",
			BackgroundColor: "#FFFAF0",
			BorderColor:     "#FFD700",
			AccentColor:     "#DAA520",
			TextColor:       "#8B4513",
			FontFamily:      "Georgia, serif",
			HeaderText:      "LOVE MEMORIES",
		},
		{
			ID:              "neon",
			Name:            "Neon",
			Description:     "Bright cyberpunk vibes",
			BackgroundColor: "#000000",
			BorderColor:     "#00FFFF",
			AccentColor:     "#FF00FF",
			TextColor:       "#00FFFF",
			FontFamily:      "Courier New, monospace",
			HeaderText:      "NEON BOOTH",
		},
	}
}
