package imagedir

import (
	"fmt"
	"image"
	"image/color"

	"golang.org/x/image/draw"
)

// Sampling method names accepted in project files.
const (
	SamplingNone       = "none"
	SamplingCenterCrop = "center_crop"
	SamplingResize     = "resize"
	SamplingFillZeros  = "fill_zeros"
	SamplingFillOnes   = "fill_ones"
	SamplingEdgeRepeat = "edge_repeat"
	SamplingMirrorEdge = "mirror_edge"
	SamplingWrapAround = "wrap_around"
)

// Resampler brings decoded images to a fixed input size. Images larger than
// the target are shrunk with the down-sampling method, smaller ones are grown
// with the up-sampling method.
type Resampler struct {
	width  int
	height int
	up     string
	down   string
}

var downMethods = map[string]bool{
	SamplingNone:       true,
	SamplingCenterCrop: true,
	SamplingResize:     true,
}

var upMethods = map[string]bool{
	SamplingNone:       true,
	SamplingResize:     true,
	SamplingFillZeros:  true,
	SamplingFillOnes:   true,
	SamplingEdgeRepeat: true,
	SamplingMirrorEdge: true,
	SamplingWrapAround: true,
}

// NewResampler validates the method names. Empty methods default to none.
func NewResampler(width, height int, up, down string) (*Resampler, error) {
	if up == "" {
		up = SamplingNone
	}
	if down == "" {
		down = SamplingNone
	}
	if !upMethods[up] {
		return nil, fmt.Errorf("unknown up-sampling method %q", up)
	}
	if !downMethods[down] {
		return nil, fmt.Errorf("unknown down-sampling method %q", down)
	}
	return &Resampler{width: width, height: height, up: up, down: down}, nil
}

// Resample applies the configured down- and up-sampling methods. With no
// target size or both methods set to none the image passes through
// unchanged.
func (r *Resampler) Resample(img image.Image) image.Image {
	if r.width <= 0 || r.height <= 0 {
		return img
	}

	bounds := img.Bounds()
	if bounds.Dx() > r.width || bounds.Dy() > r.height {
		switch r.down {
		case SamplingCenterCrop:
			img = centerCrop(img, r.width, r.height)
		case SamplingResize:
			img = scale(img, r.width, r.height)
		}
		bounds = img.Bounds()
	}

	if bounds.Dx() < r.width || bounds.Dy() < r.height {
		switch r.up {
		case SamplingResize:
			img = scale(img, r.width, r.height)
		case SamplingFillZeros:
			img = pad(img, r.width, r.height, padOutside, color.Black)
		case SamplingFillOnes:
			img = pad(img, r.width, r.height, padOutside, color.White)
		case SamplingEdgeRepeat:
			img = pad(img, r.width, r.height, padClamp, nil)
		case SamplingMirrorEdge:
			img = pad(img, r.width, r.height, padMirror, nil)
		case SamplingWrapAround:
			img = pad(img, r.width, r.height, padWrap, nil)
		}
	}

	return img
}

func scale(img image.Image, width, height int) image.Image {
	dst := image.NewRGBA(image.Rect(0, 0, width, height))
	draw.BiLinear.Scale(dst, dst.Bounds(), img, img.Bounds(), draw.Src, nil)
	return dst
}

func centerCrop(img image.Image, width, height int) image.Image {
	bounds := img.Bounds()
	cw, ch := min(bounds.Dx(), width), min(bounds.Dy(), height)
	x0 := bounds.Min.X + (bounds.Dx()-cw)/2
	y0 := bounds.Min.Y + (bounds.Dy()-ch)/2
	dst := image.NewRGBA(image.Rect(0, 0, cw, ch))
	draw.Draw(dst, dst.Bounds(), img, image.Pt(x0, y0), draw.Src)
	return dst
}

// padFunc maps an out-of-bounds source coordinate to an in-bounds one, or
// reports that the destination pixel is filler (ok false).
type padFunc func(coord, size int) (int, bool)

func padOutside(coord, size int) (int, bool) {
	if coord < 0 || coord >= size {
		return 0, false
	}
	return coord, true
}

func padClamp(coord, size int) (int, bool) {
	if coord < 0 {
		return 0, true
	}
	if coord >= size {
		return size - 1, true
	}
	return coord, true
}

func padMirror(coord, size int) (int, bool) {
	period := 2 * size
	coord = ((coord % period) + period) % period
	if coord >= size {
		coord = period - coord - 1
	}
	return coord, true
}

func padWrap(coord, size int) (int, bool) {
	return ((coord % size) + size) % size, true
}

// pad centers the image on a width x height canvas and fills the border by
// remapping coordinates through fn. Coordinates fn rejects get the fill
// color.
func pad(img image.Image, width, height int, fn padFunc, fill color.Color) image.Image {
	bounds := img.Bounds()
	sw, sh := bounds.Dx(), bounds.Dy()
	offX := (width - sw) / 2
	offY := (height - sh) / 2

	dst := image.NewRGBA(image.Rect(0, 0, width, height))
	for y := 0; y < height; y++ {
		for x := 0; x < width; x++ {
			sx, okX := fn(x-offX, sw)
			sy, okY := fn(y-offY, sh)
			if okX && okY {
				dst.Set(x, y, img.At(bounds.Min.X+sx, bounds.Min.Y+sy))
			} else {
				dst.Set(x, y, fill)
			}
		}
	}
	return dst
}
