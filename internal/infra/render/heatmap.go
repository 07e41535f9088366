package render

import (
	"bytes"
	"fmt"
	"image"
	"image/color"
	"image/jpeg"
	"image/png"

	"golang.org/x/image/draw"

	"github.com/attriscope/attriscope/internal/domain/workspace"
)

// jpegQuality matches the quality the API uses for all rendered images.
const jpegQuality = 70

// Heatmap renders an attribution tensor with the named color map.
// Multi-channel attributions are summed to a single channel first.
func Heatmap(attribution workspace.Tensor, colorMap string) (image.Image, error) {
	spec, ok := colorMaps[colorMap]
	if !ok {
		return nil, ErrUnknownColorMap(colorMap)
	}
	flat := attribution.SumChannels()
	return renderFlat(flat, spec), nil
}

func renderFlat(flat workspace.Tensor, spec colorMapSpec) *image.RGBA {
	var norm float64
	if spec.absNormalize {
		norm = float64(flat.AbsMax())
	} else {
		_, hi := tensorMax(flat)
		norm = hi
	}
	if norm == 0 {
		norm = 1
	}

	img := image.NewRGBA(image.Rect(0, 0, flat.Width, flat.Height))
	for y := 0; y < flat.Height; y++ {
		for x := 0; x < flat.Width; x++ {
			c := spec.fn(float64(flat.At(y, x, 0)) / norm)
			img.SetRGBA(x, y, color.RGBA{
				R: toByte(c.r),
				G: toByte(c.g),
				B: toByte(c.b),
				A: 255,
			})
		}
	}
	return img
}

// SuperimposedHeatmap renders the heatmap on top of the grayscaled input
// sample. Positive and negative relevance are blended with separate alpha
// masks so that negative attributions stay visible next to the usually
// stronger positive ones. Both masks are capped at 0.9 so the input always
// shines through.
func SuperimposedHeatmap(attribution workspace.Tensor, sample workspace.Tensor, colorMap string) (image.Image, error) {
	spec, ok := colorMaps[colorMap]
	if !ok {
		return nil, ErrUnknownColorMap(colorMap)
	}
	flat := attribution.SumChannels()
	heatmap := renderFlat(flat, spec)

	base := grayscale(sample)
	if heatmap.Bounds() != base.Bounds() {
		heatmap = resizeRGBA(heatmap, base.Bounds().Dx(), base.Bounds().Dy())
	}
	positive := alphaMask(flat, false, base.Bounds().Dx(), base.Bounds().Dy())
	negative := alphaMask(flat, true, base.Bounds().Dx(), base.Bounds().Dy())

	out := image.NewRGBA(base.Bounds())
	for y := 0; y < base.Bounds().Dy(); y++ {
		for x := 0; x < base.Bounds().Dx(); x++ {
			c := base.RGBAAt(x, y)
			c = blend(c, heatmap.RGBAAt(x, y), positive.GrayAt(x, y).Y)
			c = blend(c, heatmap.RGBAAt(x, y), negative.GrayAt(x, y).Y)
			out.SetRGBA(x, y, c)
		}
	}
	return out, nil
}

// Preview renders a horizontal gradient over the full relevance range, used
// by the color map listing of the API.
func Preview(colorMap string, width, height int) (image.Image, error) {
	spec, ok := colorMaps[colorMap]
	if !ok {
		return nil, ErrUnknownColorMap(colorMap)
	}

	if width < 2 || height < 1 {
		return nil, fmt.Errorf("invalid preview size %dx%d", width, height)
	}
	data := make([]float32, width*height)
	for y := 0; y < height; y++ {
		for x := 0; x < width; x++ {
			data[y*width+x] = float32(x)/float32(width-1)*2 - 1
		}
	}
	flat := workspace.Tensor{Height: height, Width: width, Channels: 1, Data: data}
	return renderFlat(flat, spec), nil
}

// SampleImage converts a denormalized sample tensor to an image.
func SampleImage(sample workspace.Tensor) image.Image {
	img := image.NewRGBA(image.Rect(0, 0, sample.Width, sample.Height))
	for y := 0; y < sample.Height; y++ {
		for x := 0; x < sample.Width; x++ {
			var r, g, b float32
			if sample.Channels >= 3 {
				r, g, b = sample.At(y, x, 0), sample.At(y, x, 1), sample.At(y, x, 2)
			} else {
				v := sample.At(y, x, 0)
				r, g, b = v, v, v
			}
			img.SetRGBA(x, y, color.RGBA{
				R: toByte(float64(r) / 255),
				G: toByte(float64(g) / 255),
				B: toByte(float64(b) / 255),
				A: 255,
			})
		}
	}
	return img
}

// EncodeJPEG encodes an image the way all image endpoints serve it.
func EncodeJPEG(img image.Image) ([]byte, error) {
	var buf bytes.Buffer
	if err := jpeg.Encode(&buf, img, &jpeg.Options{Quality: jpegQuality}); err != nil {
		return nil, err
	}
	return buf.Bytes(), nil
}

// EncodePNG encodes an image losslessly, used for the color map previews.
func EncodePNG(img image.Image) ([]byte, error) {
	var buf bytes.Buffer
	if err := png.Encode(&buf, img); err != nil {
		return nil, err
	}
	return buf.Bytes(), nil
}

// alphaMask builds the blending mask of one relevance sign, scaled by the
// sign's own maximum and capped at 0.9.
func alphaMask(flat workspace.Tensor, negative bool, width, height int) *image.Gray {
	values := make([]float64, len(flat.Data))
	var max float64
	for i, v := range flat.Data {
		f := float64(v)
		if negative {
			f = -f
		}
		if f < 0 {
			f = 0
		}
		values[i] = f
		if f > max {
			max = f
		}
	}

	mask := image.NewGray(image.Rect(0, 0, flat.Width, flat.Height))
	if max > 0 {
		for y := 0; y < flat.Height; y++ {
			for x := 0; x < flat.Width; x++ {
				mask.SetGray(x, y, color.Gray{Y: toByte(values[y*flat.Width+x] / max * 0.9)})
			}
		}
	}
	if mask.Bounds().Dx() != width || mask.Bounds().Dy() != height {
		dst := image.NewGray(image.Rect(0, 0, width, height))
		draw.BiLinear.Scale(dst, dst.Bounds(), mask, mask.Bounds(), draw.Src, nil)
		return dst
	}
	return mask
}

func grayscale(sample workspace.Tensor) *image.RGBA {
	img := image.NewRGBA(image.Rect(0, 0, sample.Width, sample.Height))
	for y := 0; y < sample.Height; y++ {
		for x := 0; x < sample.Width; x++ {
			var luma float64
			if sample.Channels >= 3 {
				luma = 0.299*float64(sample.At(y, x, 0)) +
					0.587*float64(sample.At(y, x, 1)) +
					0.114*float64(sample.At(y, x, 2))
			} else {
				luma = float64(sample.At(y, x, 0))
			}
			v := toByte(luma / 255)
			img.SetRGBA(x, y, color.RGBA{R: v, G: v, B: v, A: 255})
		}
	}
	return img
}

func resizeRGBA(img *image.RGBA, width, height int) *image.RGBA {
	dst := image.NewRGBA(image.Rect(0, 0, width, height))
	draw.BiLinear.Scale(dst, dst.Bounds(), img, img.Bounds(), draw.Src, nil)
	return dst
}

func blend(under, over color.RGBA, alpha uint8) color.RGBA {
	a := int(alpha)
	mix := func(u, o uint8) uint8 {
		return uint8((int(u)*(255-a) + int(o)*a) / 255)
	}
	return color.RGBA{R: mix(under.R, over.R), G: mix(under.G, over.G), B: mix(under.B, over.B), A: 255}
}

func toByte(v float64) uint8 {
	v = clamp(v, 0, 1)
	return uint8(v*255 + 0.5)
}

func tensorMax(t workspace.Tensor) (lo, hi float64) {
	if len(t.Data) == 0 {
		return 0, 0
	}
	lo, hi = float64(t.Data[0]), float64(t.Data[0])
	for _, v := range t.Data {
		f := float64(v)
		if f < lo {
			lo = f
		}
		if f > hi {
			hi = f
		}
	}
	return lo, hi
}
