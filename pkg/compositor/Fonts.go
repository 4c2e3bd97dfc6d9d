package compositor

import (
	"fmt"
	"strings"
	"sync"

	"github.com/gogpu/gg/text"
	"golang.org/x/image/font/gofont/gobold"
	"golang.org/x/image/font/gofont/gobolditalic"
	"golang.org/x/image/font/gofont/goitalic"
	"golang.org/x/image/font/gofont/gomedium"
	"golang.org/x/image/font/gofont/gomono"
	"golang.org/x/image/font/gofont/gomonobold"
	"golang.org/x/image/font/gofont/goregular"
)

type fontWeight int

const (
	weightRegular fontWeight = iota
	weightBold
)

type fontFamily int

const (
	familySans fontFamily = iota
	familySerif
	familyMono
	familyScript
)

var (
	fontsOnce   sync.Once
	fontsErr    error
	fontSources map[fontFamily][2]*text.FontSource
)

func loadFonts() error {
	fontsOnce.Do(func() {
		faces := map[fontFamily][2][]byte{
			familySans:   {goregular.TTF, gobold.TTF},
			familySerif:  {gomedium.TTF, gobold.TTF},
			familyMono:   {gomono.TTF, gomonobold.TTF},
			familyScript: {goitalic.TTF, gobolditalic.TTF},
		}

		fontSources = make(map[fontFamily][2]*text.FontSource, len(faces))

		for family, data := range faces {
			var pair [2]*text.FontSource

			for weight, ttf := range data {
				source, err := text.NewFontSource(ttf)
				if err != nil {
					fontsErr = fmt.Errorf("error loading font family %d: %w", family, err)
					return
				}

				pair[weight] = source
			}

			fontSources[family] = pair
		}
	})

	return fontsErr
}

/*
familyFromCSS maps a CSS-style font stack ("Georgia, serif") onto one of
the embedded Go font families.
*/
func familyFromCSS(stack string) fontFamily {
	s := strings.ToLower(stack)

	switch {
	case strings.Contains(s, "mono"), strings.Contains(s, "courier"):
		return familyMono
	case strings.Contains(s, "cursive"), strings.Contains(s, "comic"), strings.Contains(s, "script"):
		return familyScript
	case strings.Contains(s, "sans"):
		return familySans
	case strings.Contains(s, "serif"), strings.Contains(s, "georgia"), strings.Contains(s, "times"):
		return familySerif
	}

	return familySans
}

func face(stack string, weight fontWeight, size float64) (text.Face, error) {
	if err := loadFonts(); err != nil {
		return nil, err
	}

	return fontSources[familyFromCSS(stack)][weight].Face(size), nil
}
