package capture

import (
	"bytes"
	"image"
	"image/color"
	"image/draw"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func solid(w, h int, c color.Color) *image.RGBA {
	img := image.NewRGBA(image.Rect(0, 0, w, h))
	draw.Draw(img, img.Bounds(), image.NewUniform(c), image.Point{}, draw.Src)
	return img
}

var (
	red  = color.RGBA{R: 255, A: 255}
	blue = color.RGBA{B: 255, A: 255}
)

// renderedFrame is opaque red on the left half and transparent on the right.
func renderedFrame(w, h int) *image.RGBA {
	img := image.NewRGBA(image.Rect(0, 0, w, h))
	draw.Draw(img, image.Rect(0, 0, w/2, h), image.NewUniform(red), image.Point{}, draw.Src)
	return img
}

func TestComposeOverCamera(t *testing.T) {
	c := NewComposer(DefaultConfig(), nil)

	out, err := c.Compose(renderedFrame(200, 100), solid(40, 20, blue), "")
	require.NoError(t, err)
	assert.Equal(t, image.Rect(0, 0, 200, 100), out.Bounds())
	assert.Equal(t, red, out.RGBAAt(10, 50))
	bg := out.RGBAAt(150, 50)
	assert.Zero(t, bg.R, "camera frame is scaled to the full photo")
	assert.Greater(t, bg.B, uint8(250))
}

func TestComposeWithoutCamera(t *testing.T) {
	c := NewComposer(DefaultConfig(), nil)

	out, err := c.Compose(renderedFrame(20, 10), nil, "")
	require.NoError(t, err)
	assert.Equal(t, red, out.RGBAAt(1, 1))
	assert.Equal(t, color.RGBA{}, out.RGBAAt(15, 5))

	_, err = c.Compose(image.NewRGBA(image.Rect(0, 0, 0, 0)), nil, "")
	assert.ErrorIs(t, err, ErrEmptyFrame)
}

func TestComposeDrawsCaption(t *testing.T) {
	c := NewComposer(DefaultConfig(), nil)
	bg := color.RGBA{A: 255}

	out, err := c.Compose(solid(200, 100, bg), nil, c.DefaultCaption())
	require.NoError(t, err)

	changed := 0
	for y := 55; y < 75; y++ {
		for x := 20; x < 120; x++ {
			if out.RGBAAt(x, y) != bg {
				changed++
			}
		}
	}
	assert.Greater(t, changed, 0, "caption pixels near the bottom-left")

	// nothing above the caption line
	for x := 0; x < 200; x++ {
		require.Equal(t, bg, out.RGBAAt(x, 10))
	}
}

func TestEncodeAndDecode(t *testing.T) {
	img := solid(8, 8, red)

	png := NewComposer(DefaultConfig(), nil)
	var buf bytes.Buffer
	require.NoError(t, png.Encode(&buf, img))
	assert.Equal(t, "image/png", png.ContentType())

	back, err := Decode(&buf)
	require.NoError(t, err)
	assert.Equal(t, img.Bounds(), back.Bounds())
	r, g, b, a := back.At(3, 3).RGBA()
	assert.Equal(t, [4]uint32{0xffff, 0, 0, 0xffff}, [4]uint32{r, g, b, a})

	cfg := DefaultConfig()
	cfg.Format = FormatJPEG
	jpg := NewComposer(cfg, nil)
	buf.Reset()
	require.NoError(t, jpg.Encode(&buf, img))
	assert.Equal(t, "image/jpeg", jpg.ContentType())
	_, err = Decode(&buf)
	require.NoError(t, err)

	_, err = Decode(bytes.NewReader([]byte("not an image")))
	assert.Error(t, err)
}

func TestFileName(t *testing.T) {
	now := time.Date(2024, 1, 2, 3, 4, 5, 678_000_000, time.UTC)

	assert.Equal(t, "ar-screenshot-2024-01-02T03-04-05-678Z.png", NewComposer(DefaultConfig(), nil).FileName(now))

	cfg := DefaultConfig()
	cfg.Format, cfg.FilePrefix = FormatJPEG, "photo"
	local := now.In(time.FixedZone("UTC+3", 3*3600))
	assert.Equal(t, "photo-2024-01-02T03-04-05-678Z.jpg", NewComposer(cfg, nil).FileName(local))
}

func TestConfigValidate(t *testing.T) {
	assert.NoError(t, DefaultConfig().Validate())

	cfg := DefaultConfig()
	cfg.Format = "gif"
	assert.ErrorIs(t, cfg.Validate(), ErrUnsupportedFormat)

	cfg = DefaultConfig()
	cfg.Format, cfg.Quality = FormatJPEG, 0
	assert.Error(t, cfg.Validate())
}
