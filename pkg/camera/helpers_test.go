package camera

import (
	"bytes"
	"image"
	"image/color"
	"image/jpeg"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/require"
)

var fixedNow = func() time.Time {
	return time.Date(2024, time.June, 1, 12, 0, 0, 0, time.UTC)
}

/*
splitImage is red on the left half and blue on the right half, which
makes a horizontal mirror easy to spot.
*/
func splitImage(width, height int) image.Image {
	img := image.NewRGBA(image.Rect(0, 0, width, height))

	for y := 0; y < height; y++ {
		for x := 0; x < width; x++ {
			if x < width/2 {
				img.Set(x, y, color.RGBA{R: 255, A: 255})
			} else {
				img.Set(x, y, color.RGBA{B: 255, A: 255})
			}
		}
	}

	return img
}

func jpegBytes(t *testing.T, img image.Image) []byte {
	t.Helper()

	buf := bytes.Buffer{}
	require.NoError(t, jpeg.Encode(&buf, img, &jpeg.Options{Quality: 95}))
	return buf.Bytes()
}

func writeJPEG(t *testing.T, path string, img image.Image) {
	t.Helper()
	require.NoError(t, os.MkdirAll(filepath.Dir(path), 0o755))
	require.NoError(t, os.WriteFile(path, jpegBytes(t, img), 0o644))
}

func isRedAt(t *testing.T, data []byte, x, y int) bool {
	t.Helper()

	img, err := jpeg.Decode(bytes.NewReader(data))
	require.NoError(t, err)

	r, _, b, _ := img.At(x, y).RGBA()
	return r>>8 > 200 && b>>8 < 60
}
