package catalog

import (
	"fmt"
	"os"

	"github.com/adampresley/photostrip/pkg/models"
	"gopkg.in/yaml.v3"
)

type Catalogs struct {
	Layouts *LayoutCatalog
	Themes  *ThemeCatalog
}

/*
CatalogFile is the shape of the optional YAML file read at startup. Its
layouts and themes are added to the built-in ones, replacing any with the
same id.
*/
type CatalogFile struct {
	DefaultLayout string          `yaml:"defaultLayout"`
	DefaultTheme  string          `yaml:"defaultTheme"`
	Layouts       []models.Layout `yaml:"layouts"`
	Themes        []models.Theme  `yaml:"themes"`
}

func Builtin() Catalogs {
	layouts, err := NewLayoutCatalog(DefaultLayoutID, BuiltinLayouts()...)
	if err != nil {
		panic(err)
	}

	themes, err := NewThemeCatalog(DefaultThemeID, BuiltinThemes()...)
	if err != nil {
		panic(err)
	}

	return Catalogs{
		Layouts: layouts,
		Themes:  themes,
	}
}

/*
Load returns the built-in catalogs merged with the YAML file at path. An
empty path returns the built-ins unchanged.
*/
func Load(path string) (Catalogs, error) {
	var (
		err  error
		b    []byte
		file CatalogFile
	)

	if path == "" {
		return Builtin(), nil
	}

	if b, err = os.ReadFile(path); err != nil {
		return Catalogs{}, fmt.Errorf("error reading catalog file '%s': %w", path, err)
	}

	if err = yaml.Unmarshal(b, &file); err != nil {
		return Catalogs{}, fmt.Errorf("error parsing catalog file '%s': %w", path, err)
	}

	return Merge(file)
}

func Merge(file CatalogFile) (Catalogs, error) {
	var (
		err    error
		result Catalogs
	)

	defaultLayout := DefaultLayoutID
	if file.DefaultLayout != "" {
		defaultLayout = file.DefaultLayout
	}

	defaultTheme := DefaultThemeID
	if file.DefaultTheme != "" {
		defaultTheme = file.DefaultTheme
	}

	layouts := append(BuiltinLayouts(), file.Layouts...)
	themes := append(BuiltinThemes(), file.Themes...)

	if result.Layouts, err = NewLayoutCatalog(defaultLayout, layouts...); err != nil {
		return Catalogs{}, err
	}

	if result.Themes, err = NewThemeCatalog(defaultTheme, themes...); err != nil {
		return Catalogs{}, err
	}

	return result, nil
}
