package softvk

import (
	"fmt"
	"image"
	"image/color"
	"image/png"
	"os"

	"github.com/gogpu/gputypes"
	"golang.org/x/image/draw"
	"golang.org/x/image/math/f32"

	"github.com/gogpu/softvk/internal/codec"
	"github.com/gogpu/softvk/internal/resource"
)

// TextureFormatB5G6R5Unorm is a packed 16-bit color format: red in bits
// 11-15, green in 5-10, blue in 0-4.
const TextureFormatB5G6R5Unorm = codec.TextureFormatB5G6R5Unorm

// Image is a two-dimensional image. Only the first mip level and array
// layer are stored.
type Image struct {
	desc   gputypes.TextureDescriptor
	width  int
	height int
	bpp    int // bytes per pixel of data; 0 for stencil-only formats

	data    []byte // color or depth plane
	stencil []byte // one byte per pixel for formats with a stencil aspect
}

// NewImage allocates a zeroed image.
func NewImage(desc gputypes.TextureDescriptor) (*Image, error) {
	if desc.Size.Width == 0 || desc.Size.Height == 0 {
		return nil, fmt.Errorf("%w: image %q has size %dx%d", ErrInvalidDescriptor, desc.Label, desc.Size.Width, desc.Size.Height)
	}
	bpp := codec.ColorSize(desc.Format)
	if bpp == 0 {
		bpp = codec.DepthSize(desc.Format)
	}
	if bpp == 0 && desc.Format != gputypes.TextureFormatStencil8 {
		return nil, fmt.Errorf("%w: image %q: %s", ErrFormat, desc.Label, codec.FormatName(desc.Format))
	}

	img := &Image{
		desc:   desc,
		width:  int(desc.Size.Width),
		height: int(desc.Size.Height),
		bpp:    bpp,
	}
	n := img.width * img.height
	img.data = make([]byte, n*bpp)
	if desc.Format.HasStencil() {
		img.stencil = make([]byte, n)
	}
	return img, nil
}

// Label returns the debug label.
func (img *Image) Label() string { return img.desc.Label }

// Width returns the width in pixels.
func (img *Image) Width() int { return img.width }

// Height returns the height in pixels.
func (img *Image) Height() int { return img.height }

// Format returns the pixel format.
func (img *Image) Format() gputypes.TextureFormat { return img.desc.Format }

// BytesPerPixel returns the size of one pixel of the color or depth plane.
func (img *Image) BytesPerPixel() int { return img.bpp }

// Bytes returns the color or depth plane, row-major without padding.
func (img *Image) Bytes() []byte { return img.data }

// CreateView returns a view of the whole image.
func (img *Image) CreateView() *ImageView {
	return &ImageView{img: img}
}

// ImageView is a view of an Image used as an attachment or sampled
// texture. Reads outside the image return zero; writes outside are
// ignored.
//
// ImageView implements image.Image for presentation.
type ImageView struct {
	img *Image
}

var (
	_ resource.ImageView = (*ImageView)(nil)
	_ image.Image        = (*ImageView)(nil)
)

// Image returns the viewed image.
func (v *ImageView) Image() *Image { return v.img }

func (v *ImageView) Width() int                     { return v.img.width }
func (v *ImageView) Height() int                    { return v.img.height }
func (v *ImageView) Format() gputypes.TextureFormat { return v.img.desc.Format }

func (v *ImageView) offset(x, y int) int {
	if x < 0 || y < 0 || x >= v.img.width || y >= v.img.height {
		return -1
	}
	return y*v.img.width + x
}

// ReadColor returns the pixel at (x, y) as normalized RGBA.
func (v *ImageView) ReadColor(x, y int) f32.Vec4 {
	i := v.offset(x, y)
	if i < 0 || v.img.bpp == 0 {
		return f32.Vec4{}
	}
	return codec.DecodeColor(v.img.desc.Format, v.img.data[i*v.img.bpp:])
}

// WriteColor stores c at (x, y).
func (v *ImageView) WriteColor(x, y int, c f32.Vec4) {
	i := v.offset(x, y)
	if i < 0 || v.img.bpp == 0 {
		return
	}
	codec.EncodeColor(v.img.desc.Format, v.img.data[i*v.img.bpp:], c)
}

// ReadDepth returns the depth at (x, y).
func (v *ImageView) ReadDepth(x, y int) float32 {
	i := v.offset(x, y)
	if i < 0 || v.img.bpp == 0 {
		return 0
	}
	return codec.DecodeDepth(v.img.desc.Format, v.img.data[i*v.img.bpp:])
}

// WriteDepth stores d at (x, y).
func (v *ImageView) WriteDepth(x, y int, d float32) {
	i := v.offset(x, y)
	if i < 0 || v.img.bpp == 0 {
		return
	}
	codec.EncodeDepth(v.img.desc.Format, v.img.data[i*v.img.bpp:], d)
}

// ReadStencil returns the stencil value at (x, y).
func (v *ImageView) ReadStencil(x, y int) uint8 {
	i := v.offset(x, y)
	if i < 0 || v.img.stencil == nil {
		return 0
	}
	return v.img.stencil[i]
}

// WriteStencil stores s at (x, y).
func (v *ImageView) WriteStencil(x, y int, s uint8) {
	i := v.offset(x, y)
	if i < 0 || v.img.stencil == nil {
		return
	}
	v.img.stencil[i] = s
}

// clearColor fills the view with c.
func (v *ImageView) clearColor(c f32.Vec4) {
	fill(v.img.data, v.img.bpp, func(px []byte) { codec.EncodeColor(v.img.desc.Format, px, c) })
}

// clearDepth fills the depth plane with d.
func (v *ImageView) clearDepth(d float32) {
	fill(v.img.data, v.img.bpp, func(px []byte) { codec.EncodeDepth(v.img.desc.Format, px, d) })
}

// clearStencil fills the stencil plane with s.
func (v *ImageView) clearStencil(s uint8) {
	for i := range v.img.stencil {
		v.img.stencil[i] = s
	}
}

// fill encodes the first pixel and replicates it over plane.
func fill(plane []byte, bpp int, encode func([]byte)) {
	if len(plane) == 0 || bpp == 0 {
		return
	}
	encode(plane[:bpp])
	for n := bpp; n < len(plane); n *= 2 {
		copy(plane[n:], plane[:n])
	}
}

// ColorModel implements the image.Image interface.
func (v *ImageView) ColorModel() color.Model { return color.NRGBAModel }

// Bounds implements the image.Image interface.
func (v *ImageView) Bounds() image.Rectangle {
	return image.Rect(0, 0, v.img.width, v.img.height)
}

// At implements the image.Image interface. Color formats are converted to
// 8-bit sRGB when the format is sRGB encoded; depth formats render as gray
// with depth 1 white, and stencil-only formats as the raw stencil value.
func (v *ImageView) At(x, y int) color.Color {
	f := v.img.desc.Format
	switch {
	case f.HasDepth():
		d := v.ReadDepth(x, y)
		g := codec.ToRGBA8888(f32.Vec4{d, d, d, 1})
		return color.NRGBA{R: g[2], G: g[1], B: g[0], A: 255}
	case f == gputypes.TextureFormatStencil8:
		s := v.ReadStencil(x, y)
		return color.NRGBA{R: s, G: s, B: s, A: 255}
	}
	c := v.ReadColor(x, y)
	if f.IsSrgb() {
		c = codec.EncodeSRGB(c)
	}
	b := codec.ToRGBA8888(c)
	return color.NRGBA{R: b[2], G: b[1], B: b[0], A: b[3]}
}

// ToImage converts the view to an image.NRGBA.
func (v *ImageView) ToImage() *image.NRGBA {
	dst := image.NewNRGBA(v.Bounds())
	draw.Draw(dst, dst.Bounds(), v, image.Point{}, draw.Src)
	return dst
}

// Scale draws the view into dr of dst using interpolator q, for example
// draw.NearestNeighbor or draw.CatmullRom. The view is converted with
// ToImage first, since the scalers only read RGBA64 sources directly.
func (v *ImageView) Scale(dst draw.Image, dr image.Rectangle, q draw.Interpolator) {
	src := v.ToImage()
	q.Scale(dst, dr, src, src.Bounds(), draw.Src, nil)
}

// SavePNG saves the view to a PNG file.
func (v *ImageView) SavePNG(path string) error {
	return savePNG(path, v.ToImage())
}

func savePNG(path string, img image.Image) error {
	f, err := os.Create(path) //nolint:gosec // path is user-provided intentionally
	if err != nil {
		return err
	}
	if err := png.Encode(f, img); err != nil {
		_ = f.Close()
		return err
	}
	return f.Close()
}
