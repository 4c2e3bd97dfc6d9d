package catalog

import (
	"fmt"

	"github.com/adampresley/photostrip/pkg/models"
)

type ThemeCatalog struct {
	defaultID string
	order     []string
	themes    map[string]models.Theme
}

func NewThemeCatalog(defaultID string, themes ...models.Theme) (*ThemeCatalog, error) {
	result := &ThemeCatalog{
		defaultID: defaultID,
		order:     make([]string, 0, len(themes)),
		themes:    make(map[string]models.Theme, len(themes)),
	}

	for _, theme := range themes {
		if err := ValidateTheme(theme); err != nil {
			return nil, err
		}

		if _, ok := result.themes[theme.ID]; !ok {
			result.order = append(result.order, theme.ID)
		}

		result.themes[theme.ID] = theme
	}

	if _, ok := result.themes[defaultID]; !ok {
		return nil, fmt.Errorf("%w: default theme '%s' is not in the catalog", ErrInvalidTheme, defaultID)
	}

	return result, nil
}

/*
Resolve returns the theme with the given id, or the default theme when
the id is unknown.
*/
func (c *ThemeCatalog) Resolve(id string) models.Theme {
	if theme, ok := c.themes[id]; ok {
		return theme
	}

	return c.themes[c.defaultID]
}

func (c *ThemeCatalog) Get(id string) (models.Theme, bool) {
	theme, ok := c.themes[id]
	return theme, ok
}

func (c *ThemeCatalog) List() []models.Theme {
	result := make([]models.Theme, 0, len(c.order))

	for _, id := range c.order {
		result = append(result, c.themes[id])
	}

	return result
}

func (c *ThemeCatalog) DefaultID() string {
	return c.defaultID
}
