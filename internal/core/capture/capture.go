// Package capture composes the rendered scene over a camera frame into a
// still photo.
package capture

import (
	"image"
	"image/color"
	"image/jpeg"
	"image/png"
	"io"
	"strings"
	"time"

	"github.com/pkg/errors"
	"github.com/zeusync/arview/internal/core/observability/log"
	"golang.org/x/image/draw"
	"golang.org/x/image/font"
	"golang.org/x/image/font/basicfont"
	"golang.org/x/image/math/fixed"
)

var (
	ErrEmptyScene        = errors.New("nothing placed in the scene")
	ErrUnsupportedFormat = errors.New("unsupported image format")
	ErrEmptyFrame        = errors.New("rendered frame has no pixels")
)

const (
	FormatPNG  = "png"
	FormatJPEG = "jpeg"
)

type Config struct {
	Format     string `mapstructure:"format" yaml:"format"`
	Quality    int    `mapstructure:"quality" yaml:"quality"`
	Caption    string `mapstructure:"caption" yaml:"caption"`
	FilePrefix string `mapstructure:"filePrefix" yaml:"filePrefix"`
}

func DefaultConfig() Config {
	return Config{
		Format:     FormatPNG,
		Quality:    90,
		Caption:    "AR Quick Look",
		FilePrefix: "ar-screenshot",
	}
}

func (c Config) Validate() error {
	switch c.Format {
	case FormatPNG, FormatJPEG:
	default:
		return errors.Wrapf(ErrUnsupportedFormat, "%q", c.Format)
	}
	if c.Format == FormatJPEG && (c.Quality < 1 || c.Quality > 100) {
		return errors.Errorf("jpeg quality %d out of range [1, 100]", c.Quality)
	}
	return nil
}

// captionColor is white at 70% opacity.
var captionColor = color.NRGBA{R: 255, G: 255, B: 255, A: 178}

type Composer struct {
	cfg    Config
	face   font.Face
	logger log.Log
}

func NewComposer(cfg Config, logger log.Log) *Composer {
	if logger == nil {
		logger = log.NewNop()
	}
	return &Composer{
		cfg:    cfg,
		face:   basicfont.Face7x13,
		logger: logger.With(log.String("component", "capture")),
	}
}

func (c *Composer) DefaultCaption() string {
	return c.cfg.Caption
}

// Compose draws rendered over camera, scaled to the rendered size, and
// writes caption near the bottom-left corner. camera may be nil.
func (c *Composer) Compose(rendered, camera image.Image, caption string) (*image.RGBA, error) {
	rb := rendered.Bounds()
	if rb.Empty() {
		return nil, ErrEmptyFrame
	}
	dst := image.NewRGBA(image.Rect(0, 0, rb.Dx(), rb.Dy()))

	if camera != nil && !camera.Bounds().Empty() {
		draw.ApproxBiLinear.Scale(dst, dst.Bounds(), camera, camera.Bounds(), draw.Src, nil)
	}
	draw.Draw(dst, dst.Bounds(), rendered, rb.Min, draw.Over)

	if caption != "" {
		d := &font.Drawer{
			Dst:  dst,
			Src:  image.NewUniform(captionColor),
			Face: c.face,
			Dot:  fixed.P(20, rb.Dy()-30),
		}
		d.DrawString(caption)
	}

	c.logger.Debug("photo composed",
		log.Int("width", rb.Dx()),
		log.Int("height", rb.Dy()),
		log.Bool("camera", camera != nil),
	)
	return dst, nil
}

func (c *Composer) Encode(w io.Writer, img image.Image) error {
	switch c.cfg.Format {
	case FormatJPEG:
		return errors.Wrap(jpeg.Encode(w, img, &jpeg.Options{Quality: c.cfg.Quality}), "encode jpeg")
	case FormatPNG:
		return errors.Wrap(png.Encode(w, img), "encode png")
	default:
		return errors.Wrapf(ErrUnsupportedFormat, "%q", c.cfg.Format)
	}
}

func (c *Composer) ContentType() string {
	if c.cfg.Format == FormatJPEG {
		return "image/jpeg"
	}
	return "image/png"
}

func (c *Composer) extension() string {
	if c.cfg.Format == FormatJPEG {
		return "jpg"
	}
	return "png"
}

var timestampReplacer = strings.NewReplacer(":", "-", ".", "-")

// FileName is the download name for a photo taken at now, e.g.
// ar-screenshot-2024-01-02T03-04-05-678Z.png.
func (c *Composer) FileName(now time.Time) string {
	ts := now.UTC().Format("2006-01-02T15:04:05.000Z")
	return c.cfg.FilePrefix + "-" + timestampReplacer.Replace(ts) + "." + c.extension()
}

// Decode reads a PNG or JPEG frame.
func Decode(r io.Reader) (image.Image, error) {
	img, _, err := image.Decode(r)
	if err != nil {
		return nil, errors.Wrap(err, "decode frame")
	}
	return img, nil
}
