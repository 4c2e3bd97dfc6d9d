package catalog

import (
	"fmt"

	"github.com/adampresley/photostrip/pkg/models"
)

/*
LayoutCatalog is an immutable registry of layouts. Lookups never fail:
an unknown id resolves to the default layout.
*/
type LayoutCatalog struct {
	defaultID string
	order     []string
	layouts   map[string]models.Layout
}

/*
NewLayoutCatalog builds a catalog from layouts in the order given. A later
layout with the same id replaces the earlier one in place. Every layout is
validated and the default id must be present.
*/
func NewLayoutCatalog(defaultID string, layouts ...models.Layout) (*LayoutCatalog, error) {
	result := &LayoutCatalog{
		defaultID: defaultID,
		order:     make([]string, 0, len(layouts)),
		layouts:   make(map[string]models.Layout, len(layouts)),
	}

	for _, layout := range layouts {
		if err := ValidateLayout(layout); err != nil {
			return nil, err
		}

		if _, ok := result.layouts[layout.ID]; !ok {
			result.order = append(result.order, layout.ID)
		}

		result.layouts[layout.ID] = layout
	}

	if _, ok := result.layouts[defaultID]; !ok {
		return nil, fmt.Errorf("%w: default layout '%s' is not in the catalog", ErrInvalidLayout, defaultID)
	}

	return result, nil
}

func (c *LayoutCatalog) Resolve(id string) models.Layout {
	if layout, ok := c.layouts[id]; ok {
		return layout
	}

	return c.layouts[c.defaultID]
}

func (c *LayoutCatalog) Get(id string) (models.Layout, bool) {
	layout, ok := c.layouts[id]
	return layout, ok
}

func (c *LayoutCatalog) List() []models.Layout {
	result := make([]models.Layout, 0, len(c.order))

	for _, id := range c.order {
		result = append(result, c.layouts[id])
	}

	return result
}

func (c *LayoutCatalog) DefaultID() string {
	return c.defaultID
}
