package compositor

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"image"
	_ "image/jpeg"
	_ "image/png"
	"log/slog"
	"math"
	"time"

	"github.com/adampresley/photostrip/pkg/models"
	"github.com/anthonynsimon/bild/transform"
	"github.com/gogpu/gg"
	"github.com/nfnt/resize"
	_ "golang.org/x/image/webp"
)

var (
	ErrFrameCount    = fmt.Errorf("frame count does not match the layout photo count")
	ErrInvalidLayout = fmt.Errorf("layout has no drawable canvas")
)

/*
DecodeError is returned when one of the captured frames cannot be decoded.
Composition stops and no output is produced.
*/
type DecodeError struct {
	Index int
	Err   error
}

func (e *DecodeError) Error() string {
	return fmt.Sprintf("error decoding frame %d: %s", e.Index, e.Err.Error())
}

func (e *DecodeError) Unwrap() error {
	return e.Err
}

func IsDecodeError(err error) bool {
	var decodeErr *DecodeError
	return errors.As(err, &decodeErr)
}

type Format string

const (
	FormatJPEG Format = "jpeg"
	FormatPNG  Format = "png"
)

const (
	DefaultQuality    = 95
	DefaultDateFormat = "January 2, 2006"
)

const (
	alpha50 = 128.0 / 255.0
	alpha37 = 96.0 / 255.0
	alpha25 = 64.0 / 255.0
	alpha10 = 0.1

	dotSpacing        = 20
	dotSize           = 2
	badgeSize         = 25
	cornerMarkLength  = 8
	cornerMarkWidth   = 2
	defaultPhotoRound = 15
	starCount         = 8
	starRowOffset     = 10
)

type Composer interface {
	Compose(ctx context.Context, frames []models.Frame, layout models.Layout, theme models.Theme, now time.Time) (models.CompositeResult, error)
}

type CompositorConfig struct {
	DateFormat string
	Format     Format
	Logger     *slog.Logger
	Quality    int
}

type StripCompositor struct {
	dateFormat string
	format     Format
	logger     *slog.Logger
	quality    int
}

func NewStripCompositor(config CompositorConfig) StripCompositor {
	if config.Quality <= 0 || config.Quality > 100 {
		config.Quality = DefaultQuality
	}

	if config.Format != FormatPNG {
		config.Format = FormatJPEG
	}

	if config.DateFormat == "" {
		config.DateFormat = DefaultDateFormat
	}

	if config.Logger == nil {
		config.Logger = slog.Default()
	}

	return StripCompositor{
		dateFormat: config.DateFormat,
		format:     config.Format,
		logger:     config.Logger,
		quality:    config.Quality,
	}
}

type palette struct {
	background gg.RGBA
	border     gg.RGBA
	accent     gg.RGBA
	text       gg.RGBA
}

func newPalette(theme models.Theme) palette {
	return palette{
		background: gg.Hex(theme.BackgroundColor),
		border:     gg.Hex(theme.BorderColor),
		accent:     gg.Hex(theme.AccentColor),
		text:       gg.Hex(theme.TextColor),
	}
}

func withAlpha(c gg.RGBA, a float64) gg.RGBA {
	c.A = a
	return c
}

/*
Compose renders frames into a single strip image. The frame count must
match layout.PhotoCount exactly. The output is fully determined by its
arguments, so identical inputs produce identical bytes.
*/
func (c StripCompositor) Compose(ctx context.Context, frames []models.Frame, layout models.Layout, theme models.Theme, now time.Time) (models.CompositeResult, error) {
	var (
		err    error
		img    image.Image
		result models.CompositeResult
		buf    bytes.Buffer
	)

	if len(frames) != layout.PhotoCount {
		return result, fmt.Errorf("%w: got %d, layout '%s' needs %d", ErrFrameCount, len(frames), layout.ID, layout.PhotoCount)
	}

	w := layout.CanvasSize.Width
	h := layout.CanvasSize.Height

	if w <= 0 || h <= 0 {
		return result, fmt.Errorf("%w: '%s' is %dx%d", ErrInvalidLayout, layout.ID, w, h)
	}

	p := newPalette(theme)

	dc := gg.NewContext(w, h)
	defer dc.Close()

	if err = c.drawBackground(dc, w, h, p); err != nil {
		return result, err
	}

	if err = c.drawBorders(dc, layout, p); err != nil {
		return result, err
	}

	if layout.ShowHeader && theme.HeaderText != "" {
		if err = c.drawHeader(dc, w, theme, p); err != nil {
			return result, err
		}
	}

	for index, frame := range frames {
		if err = ctx.Err(); err != nil {
			return result, fmt.Errorf("composition of '%s' stopped: %w", layout.ID, err)
		}

		if img, _, err = image.Decode(bytes.NewReader(frame.Data)); err != nil {
			return result, &DecodeError{Index: index, Err: err}
		}

		if err = c.drawPhoto(dc, img, layout, index, p); err != nil {
			return result, err
		}
	}

	if layout.ShowFooter {
		if err = c.drawFooter(dc, w, h, theme, p, now); err != nil {
			return result, err
		}

		if err = c.drawStars(dc, w, h, p); err != nil {
			return result, err
		}
	}

	switch c.format {
	case FormatPNG:
		err = dc.EncodePNG(&buf)
		result.ContentType = "image/png"
	default:
		err = dc.EncodeJPEG(&buf, c.quality)
		result.ContentType = "image/jpeg"
	}

	if err != nil {
		return models.CompositeResult{}, fmt.Errorf("error encoding strip for layout '%s': %w", layout.ID, err)
	}

	result.Data = buf.Bytes()
	result.Width = w
	result.Height = h
	result.GeneratedAt = now

	c.logger.Debug("strip composed",
		"layout", layout.ID,
		"theme", theme.ID,
		"frames", len(frames),
		"bytes", len(result.Data),
	)

	return result, nil
}

func (c StripCompositor) drawBackground(dc *gg.Context, w, h int, p palette) error {
	fw, fh := float64(w), float64(h)

	dc.ClearWithColor(p.background)

	gradient := gg.NewLinearGradientBrush(0, 0, fw, fh).
		AddColorStop(0, p.background).
		AddColorStop(0.3, withAlpha(p.accent, alpha50)).
		AddColorStop(0.7, withAlpha(p.background, alpha37)).
		AddColorStop(1, p.border)

	dc.SetFillBrush(gradient)
	dc.DrawRectangle(0, 0, fw, fh)

	if err := dc.Fill(); err != nil {
		return fmt.Errorf("error filling background: %w", err)
	}

	for x := 0; x < w; x += dotSpacing {
		for y := 0; y < h; y += dotSpacing {
			dc.DrawRectangle(float64(x), float64(y), dotSize, dotSize)
		}
	}

	dc.SetFillBrush(gg.Solid(withAlpha(p.border, alpha10)))

	if err := dc.Fill(); err != nil {
		return fmt.Errorf("error filling background pattern: %w", err)
	}

	return nil
}

func (c StripCompositor) drawBorders(dc *gg.Context, layout models.Layout, p palette) error {
	fw := float64(layout.CanvasSize.Width)
	fh := float64(layout.CanvasSize.Height)
	radius := float64(layout.CornerRadius)

	dc.SetFillBrush(gg.Solid(p.border))
	dc.SetLineWidth(8)
	dc.DrawRoundedRectangle(5, 5, fw-10, fh-10, radius+12)

	if err := dc.Stroke(); err != nil {
		return fmt.Errorf("error drawing outer border: %w", err)
	}

	dc.SetFillBrush(gg.Solid(p.accent))
	dc.SetLineWidth(3)
	dc.DrawRoundedRectangle(12, 12, fw-24, fh-24, radius+7)

	if err := dc.Stroke(); err != nil {
		return fmt.Errorf("error drawing inner border: %w", err)
	}

	return nil
}

func (c StripCompositor) drawHeader(dc *gg.Context, w int, theme models.Theme, p palette) error {
	fw := float64(w)

	band := gg.NewLinearGradientBrush(0, 20, fw, 70).
		AddColorStop(0, withAlpha(p.border, alpha25)).
		AddColorStop(1, withAlpha(p.accent, alpha25))

	dc.SetFillBrush(band)
	dc.DrawRoundedRectangle(20, 20, fw-40, 50, 10)

	if err := dc.Fill(); err != nil {
		return fmt.Errorf("error drawing header band: %w", err)
	}

	titleFace, err := face(theme.FontFamily, weightBold, math.Max(18, fw/15))
	if err != nil {
		return err
	}

	dc.SetFont(titleFace)

	dc.SetFillBrush(gg.Solid(gg.RGBA2(0, 0, 0, 0.3)))
	dc.DrawStringAnchored(theme.HeaderText, fw/2+2, 57, 0.5, 0)

	dc.SetFillBrush(gg.Solid(p.text))
	dc.DrawStringAnchored(theme.HeaderText, fw/2, 55, 0.5, 0)

	return nil
}

func (c StripCompositor) drawPhoto(dc *gg.Context, img image.Image, layout models.Layout, index int, p palette) error {
	var (
		err error
	)

	slot := SlotRect(layout, index)
	x, y := float64(slot.X), float64(slot.Y)
	pw, ph := float64(slot.Width), float64(slot.Height)

	radius := float64(layout.CornerRadius)
	if radius <= 0 {
		radius = defaultPhotoRound
	}

	/*
	 * Soft drop shadow under the frame
	 */
	for i := 3; i >= 1; i-- {
		spread := float64(i) * 2
		dc.DrawRoundedRectangle(x-8+3-spread/2, y-8+3-spread/2, pw+16+spread, ph+16+spread, radius+5+spread/2)
		dc.SetFillBrush(gg.Solid(gg.RGBA2(0, 0, 0, 0.08)))

		if err = dc.Fill(); err != nil {
			return fmt.Errorf("error drawing shadow for photo %d: %w", index, err)
		}
	}

	frameGradient := gg.NewRadialGradientBrush(x+pw/2, y+ph/2, 0, pw/2).
		AddColorStop(0, gg.RGBA2(1, 1, 1, 0.9)).
		AddColorStop(1, gg.RGBA2(200.0/255.0, 200.0/255.0, 200.0/255.0, 0.7))

	dc.SetFillBrush(frameGradient)
	dc.DrawRoundedRectangle(x-8, y-8, pw+16, ph+16, radius+5)

	if err = dc.Fill(); err != nil {
		return fmt.Errorf("error drawing frame for photo %d: %w", index, err)
	}

	/*
	 * The photo itself, cover-fitted and masked to rounded corners
	 */
	rounded, err := roundedPhoto(coverFit(img, slot.Width, slot.Height), slot.Width, slot.Height, radius)
	if err != nil {
		return fmt.Errorf("error masking photo %d: %w", index, err)
	}

	dc.DrawImage(gg.ImageBufFromImage(rounded), x, y)

	/*
	 * Numbered badge
	 */
	badgeX := x + pw - badgeSize - 5
	badgeY := y + 5

	dc.SetFillBrush(gg.Solid(p.border))
	dc.DrawCircle(badgeX+badgeSize/2, badgeY+badgeSize/2, badgeSize/2)

	if err = dc.Fill(); err != nil {
		return fmt.Errorf("error drawing badge for photo %d: %w", index, err)
	}

	badgeFace, err := face("sans-serif", weightBold, 12)
	if err != nil {
		return err
	}

	dc.SetFont(badgeFace)
	dc.SetFillBrush(gg.Solid(gg.White))
	dc.DrawStringAnchored(SlotLabel(index), badgeX+badgeSize/2, badgeY+badgeSize/2+4, 0.5, 0)

	/*
	 * Accent corner marks
	 */
	const (
		cl = cornerMarkLength
		cw = cornerMarkWidth
	)

	marks := [][4]float64{
		{x - 3, y - 3, cl, cw},
		{x - 3, y - 3, cw, cl},
		{x + pw - cl + 3, y - 3, cl, cw},
		{x + pw + 1, y - 3, cw, cl},
		{x - 3, y + ph + 1, cl, cw},
		{x - 3, y + ph - cl + 3, cw, cl},
		{x + pw - cl + 3, y + ph + 1, cl, cw},
		{x + pw + 1, y + ph - cl + 3, cw, cl},
	}

	for _, m := range marks {
		dc.DrawRectangle(m[0], m[1], m[2], m[3])
	}

	dc.SetFillBrush(gg.Solid(p.accent))

	if err = dc.Fill(); err != nil {
		return fmt.Errorf("error drawing corner marks for photo %d: %w", index, err)
	}

	return nil
}

func (c StripCompositor) drawFooter(dc *gg.Context, w, h int, theme models.Theme, p palette, now time.Time) error {
	fw, fh := float64(w), float64(h)
	footerY := fh - footerHeight

	band := gg.NewLinearGradientBrush(0, footerY, fw, footerY+40).
		AddColorStop(0, withAlpha(p.accent, alpha25)).
		AddColorStop(1, withAlpha(p.border, alpha25))

	dc.SetFillBrush(band)
	dc.DrawRoundedRectangle(20, footerY, fw-40, 40, 10)

	if err := dc.Fill(); err != nil {
		return fmt.Errorf("error drawing footer band: %w", err)
	}

	dateFace, err := face(theme.FontFamily, weightRegular, math.Max(14, fw/25))
	if err != nil {
		return err
	}

	date := c.FooterDate(theme, now)

	dc.SetFont(dateFace)
	dc.SetFillBrush(gg.Solid(p.text))
	dc.DrawStringAnchored(date, fw/2, footerY+25, 0.5, 0)

	textWidth, _ := dc.MeasureString(date)
	starOffset := textWidth/2 + 12

	drawStar(dc, fw/2-starOffset, footerY+20, 5, 2.2)
	drawStar(dc, fw/2+starOffset, footerY+20, 5, 2.2)
	dc.SetFillBrush(gg.Solid(p.accent))

	if err = dc.Fill(); err != nil {
		return fmt.Errorf("error drawing footer stars: %w", err)
	}

	return nil
}

/*
FooterDate is the date text printed in the footer: the long form
("January 2, 2006") unless the theme sets its own DateFormat.
*/
func (c StripCompositor) FooterDate(theme models.Theme, now time.Time) string {
	return now.Format(c.dateFormatFor(theme))
}

func (c StripCompositor) dateFormatFor(theme models.Theme) string {
	if theme.DateFormat != "" {
		return theme.DateFormat
	}

	return c.dateFormat
}

func (c StripCompositor) drawStars(dc *gg.Context, w, h int, p palette) error {
	fw, fh := float64(w), float64(h)

	for i := 0; i < starCount; i++ {
		x := 30 + float64(i)*(fw-60)/float64(starCount-1)
		drawStar(dc, x, fh-starRowOffset, 5, 2.2)
	}

	dc.SetFillBrush(gg.Solid(p.accent))

	if err := dc.Fill(); err != nil {
		return fmt.Errorf("error drawing stars: %w", err)
	}

	return nil
}

func drawStar(dc *gg.Context, cx, cy, outer, inner float64) {
	for i := 0; i < 10; i++ {
		r := outer
		if i%2 == 1 {
			r = inner
		}

		angle := -math.Pi/2 + float64(i)*math.Pi/5
		px := cx + r*math.Cos(angle)
		py := cy + r*math.Sin(angle)

		if i == 0 {
			dc.MoveTo(px, py)
		} else {
			dc.LineTo(px, py)
		}
	}

	dc.ClosePath()
}

/*
coverFit scales img so it covers a width x height box and crops the
overflow evenly from both sides.
*/
func coverFit(img image.Image, width, height int) image.Image {
	bounds := img.Bounds()
	iw := float64(bounds.Dx())
	ih := float64(bounds.Dy())

	scale := math.Max(float64(width)/iw, float64(height)/ih)
	sw := int(math.Ceil(iw * scale))
	sh := int(math.Ceil(ih * scale))

	if sw < width {
		sw = width
	}

	if sh < height {
		sh = height
	}

	scaled := resize.Resize(uint(sw), uint(sh), img, resize.Lanczos3)

	offsetX := (sw - width) / 2
	offsetY := (sh - height) / 2
	origin := scaled.Bounds().Min

	return transform.Crop(scaled, image.Rect(
		origin.X+offsetX,
		origin.Y+offsetY,
		origin.X+offsetX+width,
		origin.Y+offsetY+height,
	))
}

/*
roundedPhoto paints img into a transparent photo-sized surface through a
rounded rectangle so the corners outside the radius stay transparent.
*/
func roundedPhoto(img image.Image, width, height int, radius float64) (image.Image, error) {
	layer := gg.NewContext(width, height)
	defer layer.Close()

	buf := gg.ImageBufFromImage(img)
	layer.SetFillPattern(layer.CreateImagePattern(buf, 0, 0, width, height))
	layer.DrawRoundedRectangle(0, 0, float64(width), float64(height), radius)

	if err := layer.Fill(); err != nil {
		return nil, err
	}

	return layer.Image(), nil
}
