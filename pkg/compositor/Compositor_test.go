package compositor

import (
	"bytes"
	"context"
	"image"
	"image/color"
	"image/jpeg"
	"image/png"
	"testing"
	"time"

	"github.com/adampresley/photostrip/pkg/models"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

var testTime = time.Date(2024, time.March, 14, 15, 9, 26, 0, time.UTC)

func classicLayout() models.Layout {
	return models.Layout{
		ID:           "classic",
		PhotoCount:   4,
		Orientation:  models.OrientationVertical,
		CanvasSize:   models.Size{Width: 300, Height: 1200},
		PhotoSize:    models.Size{Width: 260, Height: 240},
		Spacing:      10,
		ShowHeader:   true,
		ShowFooter:   true,
		CornerRadius: 8,
	}
}

func testTheme() models.Theme {
	return models.Theme{
		ID:              "classic",
		BackgroundColor: "#FFFFFF",
		BorderColor:     "#000000",
		AccentColor:     "#333333",
		TextColor:       "#000000",
		FontFamily:      "Arial, sans-serif",
		HeaderText:      "PHOTOBOOTH",
	}
}

func solidFrame(t *testing.T, width, height int, c color.Color) models.Frame {
	t.Helper()

	img := image.NewRGBA(image.Rect(0, 0, width, height))
	for y := 0; y < height; y++ {
		for x := 0; x < width; x++ {
			img.Set(x, y, c)
		}
	}

	buf := bytes.Buffer{}
	require.NoError(t, jpeg.Encode(&buf, img, &jpeg.Options{Quality: 95}))

	return models.Frame{
		Data:        buf.Bytes(),
		ContentType: "image/jpeg",
		CapturedAt:  testTime,
		Width:       width,
		Height:      height,
		FacingMode:  models.FacingUser,
	}
}

func frames(t *testing.T, n int, width, height int) []models.Frame {
	result := []models.Frame{}
	for i := 0; i < n; i++ {
		result = append(result, solidFrame(t, width, height, color.RGBA{R: 220, G: 20, B: 20, A: 255}))
	}

	return result
}

func TestComposeOutputMatchesCanvasSize(t *testing.T) {
	c := NewStripCompositor(CompositorConfig{})

	sizes := [][2]int{{640, 480}, {1280, 720}, {300, 900}}

	for _, size := range sizes {
		result, err := c.Compose(context.Background(), frames(t, 4, size[0], size[1]), classicLayout(), testTheme(), testTime)
		require.NoError(t, err)

		assert.Equal(t, "image/jpeg", result.ContentType)
		assert.Equal(t, 300, result.Width)
		assert.Equal(t, 1200, result.Height)
		assert.Equal(t, testTime, result.GeneratedAt)

		cfg, format, err := image.DecodeConfig(bytes.NewReader(result.Data))
		require.NoError(t, err)
		assert.Equal(t, "jpeg", format)
		assert.Equal(t, 300, cfg.Width)
		assert.Equal(t, 1200, cfg.Height)
	}
}

func TestComposeIsDeterministic(t *testing.T) {
	c := NewStripCompositor(CompositorConfig{})
	input := frames(t, 4, 640, 480)

	first, err := c.Compose(context.Background(), input, classicLayout(), testTheme(), testTime)
	require.NoError(t, err)

	second, err := c.Compose(context.Background(), input, classicLayout(), testTheme(), testTime)
	require.NoError(t, err)

	assert.True(t, bytes.Equal(first.Data, second.Data))
}

func TestComposeRejectsPartialSequence(t *testing.T) {
	c := NewStripCompositor(CompositorConfig{})

	_, err := c.Compose(context.Background(), frames(t, 3, 64, 48), classicLayout(), testTheme(), testTime)
	assert.ErrorIs(t, err, ErrFrameCount)

	_, err = c.Compose(context.Background(), frames(t, 5, 64, 48), classicLayout(), testTheme(), testTime)
	assert.ErrorIs(t, err, ErrFrameCount)
}

func TestComposeReportsUndecodableFrame(t *testing.T) {
	c := NewStripCompositor(CompositorConfig{})
	input := frames(t, 4, 64, 48)
	input[2].Data = []byte("not an image")

	result, err := c.Compose(context.Background(), input, classicLayout(), testTheme(), testTime)

	var decodeErr *DecodeError
	require.ErrorAs(t, err, &decodeErr)
	assert.Equal(t, 2, decodeErr.Index)
	assert.True(t, IsDecodeError(err))
	assert.True(t, result.IsEmpty())
}

func TestComposeStopsWhenContextCancelled(t *testing.T) {
	c := NewStripCompositor(CompositorConfig{})
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	_, err := c.Compose(ctx, frames(t, 4, 64, 48), classicLayout(), testTheme(), testTime)
	assert.ErrorIs(t, err, context.Canceled)
}

func TestComposeRejectsEmptyCanvas(t *testing.T) {
	c := NewStripCompositor(CompositorConfig{})
	layout := classicLayout()
	layout.CanvasSize = models.Size{}

	_, err := c.Compose(context.Background(), frames(t, 4, 64, 48), layout, testTheme(), testTime)
	assert.ErrorIs(t, err, ErrInvalidLayout)
}

func TestComposePlacesPhotosInSlots(t *testing.T) {
	c := NewStripCompositor(CompositorConfig{Format: FormatPNG})
	layout := classicLayout()

	result, err := c.Compose(context.Background(), frames(t, 4, 640, 480), layout, testTheme(), testTime)
	require.NoError(t, err)
	assert.Equal(t, "image/png", result.ContentType)

	img, err := png.Decode(bytes.NewReader(result.Data))
	require.NoError(t, err)

	for i, slot := range Slots(layout) {
		// sample left of center to stay clear of the badge
		r, g, b, _ := img.At(slot.X+slot.Width/3, slot.Y+slot.Height/2).RGBA()

		assert.InDelta(t, 220, r>>8, 25, "photo %d red channel", i+1)
		assert.InDelta(t, 20, g>>8, 25, "photo %d green channel", i+1)
		assert.InDelta(t, 20, b>>8, 25, "photo %d blue channel", i+1)
	}

	// between two photos there is no photo content
	r, g, b, _ := img.At(150, 85+240+5).RGBA()
	assert.False(t, r>>8 > 180 && g>>8 < 60 && b>>8 < 60, "gap between photos should not be photo red")
}

func TestComposeEveryOrientation(t *testing.T) {
	layouts := []models.Layout{
		classicLayout(),
		{
			ID: "horizontal", PhotoCount: 3, Orientation: models.OrientationHorizontal,
			CanvasSize: models.Size{Width: 900, Height: 400}, PhotoSize: models.Size{Width: 260, Height: 260},
			Spacing: 30, ShowHeader: true, CornerRadius: 8,
		},
		{
			ID: "grid", PhotoCount: 4, Orientation: models.OrientationGrid,
			CanvasSize: models.Size{Width: 600, Height: 680}, PhotoSize: models.Size{Width: 270, Height: 270},
			Spacing: 20, ShowFooter: true,
		},
	}

	c := NewStripCompositor(CompositorConfig{})

	for _, layout := range layouts {
		t.Run(layout.ID, func(t *testing.T) {
			result, err := c.Compose(context.Background(), frames(t, layout.PhotoCount, 320, 240), layout, testTheme(), testTime)
			require.NoError(t, err)
			assert.Equal(t, layout.CanvasSize.Width, result.Width)
			assert.Equal(t, layout.CanvasSize.Height, result.Height)
		})
	}
}

func TestThemeDateFormatWins(t *testing.T) {
	c := NewStripCompositor(CompositorConfig{})

	theme := testTheme()
	assert.Equal(t, DefaultDateFormat, c.dateFormatFor(theme))

	theme.DateFormat = "2006.01.02"
	assert.Equal(t, "2006.01.02", c.dateFormatFor(theme))
}

func TestFooterDateDefaultsToLongForm(t *testing.T) {
	c := NewStripCompositor(CompositorConfig{})

	assert.Equal(t, "March 14, 2024", c.FooterDate(testTheme(), testTime))
}

func starRowPixel(t *testing.T, showFooter bool) color.RGBA {
	t.Helper()

	layout := classicLayout()
	layout.ShowFooter = showFooter

	theme := testTheme()
	theme.BorderColor = "#FFFFFF"
	theme.AccentColor = "#FF00FF"

	c := NewStripCompositor(CompositorConfig{Format: FormatPNG})
	result, err := c.Compose(context.Background(), frames(t, 4, 320, 240), layout, theme, testTime)
	require.NoError(t, err)

	img, err := png.Decode(bytes.NewReader(result.Data))
	require.NoError(t, err)

	w, h := layout.CanvasSize.Width, layout.CanvasSize.Height
	x := int(30 + 3*float64(w-60)/float64(starCount-1))

	return color.RGBAModel.Convert(img.At(x, h-starRowOffset)).(color.RGBA)
}

func TestStarRowBelongsToFooter(t *testing.T) {
	withFooter := starRowPixel(t, true)
	assert.Less(t, int(withFooter.G), 80, "star drawn in accent color")

	withoutFooter := starRowPixel(t, false)
	assert.Greater(t, int(withoutFooter.G), 150, "no stars without a footer")
}

func TestFamilyFromCSS(t *testing.T) {
	assert.Equal(t, familySans, familyFromCSS("Arial, sans-serif"))
	assert.Equal(t, familySerif, familyFromCSS("Georgia, serif"))
	assert.Equal(t, familyMono, familyFromCSS("Courier New, monospace"))
	assert.Equal(t, familyScript, familyFromCSS("Comic Sans MS, cursive"))
	assert.Equal(t, familySans, familyFromCSS(""))
}
