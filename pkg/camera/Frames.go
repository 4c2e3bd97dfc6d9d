package camera

import (
	"bytes"
	"fmt"
	"image"
	"path/filepath"
	"strings"
	"time"

	"github.com/adampresley/adamgokit/slices"
	"github.com/adampresley/photostrip/pkg/models"
	"github.com/anthonynsimon/bild/imgio"
	"github.com/anthonynsimon/bild/transform"
)

const DefaultQuality = 90

var imageExtensions = []string{".jpg", ".jpeg", ".png"}

func isImageFile(name string) bool {
	return slices.IsInSlice(strings.ToLower(filepath.Ext(name)), imageExtensions)
}

/*
frameFromImage encodes img as a JPEG frame. User-facing frames are
mirrored when mirror is set so the stored still matches the preview a
person sees of themselves.
*/
func frameFromImage(img image.Image, facing models.FacingMode, mirror bool, quality int, capturedAt time.Time) (models.Frame, error) {
	var (
		err error
		buf bytes.Buffer
	)

	if mirror && facing == models.FacingUser {
		img = transform.FlipH(img)
	}

	if quality <= 0 || quality > 100 {
		quality = DefaultQuality
	}

	encode := imgio.JPEGEncoder(quality)

	if err = encode(&buf, img); err != nil {
		return models.Frame{}, fmt.Errorf("error encoding frame: %w", err)
	}

	bounds := img.Bounds()

	return models.Frame{
		Data:        buf.Bytes(),
		ContentType: "image/jpeg",
		CapturedAt:  capturedAt,
		Width:       bounds.Dx(),
		Height:      bounds.Dy(),
		FacingMode:  facing,
	}, nil
}
