package catalog

import (
	"fmt"
	"regexp"

	"github.com/adampresley/photostrip/pkg/compositor"
	"github.com/adampresley/photostrip/pkg/models"
)

var (
	ErrInvalidLayout = fmt.Errorf("invalid layout")
	ErrInvalidTheme  = fmt.Errorf("invalid theme")

	hexColorPattern = regexp.MustCompile(`^#([0-9a-fA-F]{3}|[0-9a-fA-F]{6})$`)
)

/*
ValidateLayout makes sure every photo slot of the layout lands inside the
canvas and that no two slots overlap.
*/
func ValidateLayout(layout models.Layout) error {
	if layout.ID == "" {
		return fmt.Errorf("%w: missing id", ErrInvalidLayout)
	}

	if layout.PhotoCount < 1 {
		return fmt.Errorf("%w: '%s' must hold at least one photo", ErrInvalidLayout, layout.ID)
	}

	if !layout.Orientation.IsValid() {
		return fmt.Errorf("%w: '%s' has unknown orientation '%s'", ErrInvalidLayout, layout.ID, layout.Orientation)
	}

	if layout.CanvasSize.Width <= 0 || layout.CanvasSize.Height <= 0 {
		return fmt.Errorf("%w: '%s' has an empty canvas", ErrInvalidLayout, layout.ID)
	}

	if layout.PhotoSize.Width <= 0 || layout.PhotoSize.Height <= 0 {
		return fmt.Errorf("%w: '%s' has an empty photo size", ErrInvalidLayout, layout.ID)
	}

	if layout.Spacing < 0 || layout.CornerRadius < 0 {
		return fmt.Errorf("%w: '%s' has negative spacing or radius", ErrInvalidLayout, layout.ID)
	}

	slots := compositor.Slots(layout)

	for i, slot := range slots {
		if !slot.Inside(layout.CanvasSize.Width, layout.CanvasSize.Height) {
			return fmt.Errorf("%w: '%s' photo %d at %+v falls outside the %dx%d canvas",
				ErrInvalidLayout, layout.ID, i+1, slot, layout.CanvasSize.Width, layout.CanvasSize.Height)
		}

		for j := i + 1; j < len(slots); j++ {
			if slot.Overlaps(slots[j]) {
				return fmt.Errorf("%w: '%s' photos %d and %d overlap", ErrInvalidLayout, layout.ID, i+1, j+1)
			}
		}
	}

	return nil
}

func ValidateTheme(theme models.Theme) error {
	if theme.ID == "" {
		return fmt.Errorf("%w: missing id", ErrInvalidTheme)
	}

	colors := map[string]string{
		"backgroundColor": theme.BackgroundColor,
		"borderColor":     theme.BorderColor,
		"accentColor":     theme.AccentColor,
		"textColor":       theme.TextColor,
	}

	for name, value := range colors {
		if !hexColorPattern.MatchString(value) {
			return fmt.Errorf("%w: '%s' %s '%s' is not a hex color", ErrInvalidTheme, theme.ID, name, value)
		}
	}

	return nil
}
