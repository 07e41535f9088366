package workspace

import "math"

// Tensor is a dense float32 array in height x width x channel order. Samples
// and attributions arrive from storage in whatever axis order the training
// framework used; NewTensor normalizes them to HWC.
type Tensor struct {
	Height   int
	Width    int
	Channels int
	Data     []float32
}

// NewTensor wraps raw data with the given shape. When the smallest axis comes
// first the layout is assumed to be CHW (PyTorch style) and is transposed to
// HWC.
func NewTensor(data []float32, shape []int) Tensor {
	if len(shape) == 2 {
		return Tensor{Height: shape[0], Width: shape[1], Channels: 1, Data: data}
	}
	if argmin(shape) == 0 {
		c, h, w := shape[0], shape[1], shape[2]
		out := make([]float32, len(data))
		for ch := 0; ch < c; ch++ {
			for y := 0; y < h; y++ {
				for x := 0; x < w; x++ {
					out[(y*w+x)*c+ch] = data[ch*h*w+y*w+x]
				}
			}
		}
		return Tensor{Height: h, Width: w, Channels: c, Data: out}
	}
	return Tensor{Height: shape[0], Width: shape[1], Channels: shape[2], Data: data}
}

// At returns the value at row y, column x, channel c.
func (t Tensor) At(y, x, c int) float32 {
	return t.Data[(y*t.Width+x)*t.Channels+c]
}

// SumChannels flattens the tensor to a single channel by summing channels,
// which is how raw relevance maps are prepared for rendering.
func (t Tensor) SumChannels() Tensor {
	if t.Channels == 1 {
		return t
	}
	out := make([]float32, t.Height*t.Width)
	for i := 0; i < t.Height*t.Width; i++ {
		var s float32
		for c := 0; c < t.Channels; c++ {
			s += t.Data[i*t.Channels+c]
		}
		out[i] = s
	}
	return Tensor{Height: t.Height, Width: t.Width, Channels: 1, Data: out}
}

// AbsMax returns the maximum absolute value of the tensor.
func (t Tensor) AbsMax() float32 {
	var m float32
	for _, v := range t.Data {
		if a := float32(math.Abs(float64(v))); a > m {
			m = a
		}
	}
	return m
}

// Denormalize maps pixel data to the [0, 255] range. The source range is not
// recorded in the files, so it is guessed by L1 distance against the three
// ranges that occur in practice: [-1, 1], [0, 1] and [0, 255].
func (t Tensor) Denormalize() Tensor {
	lo, hi := minMax(t.Data)
	ranges := [3][2]float32{{-1, 1}, {0, 1}, {0, 255}}
	best, bestDist := 2, float32(math.MaxFloat32)
	for i, r := range ranges {
		d := float32(math.Abs(float64(r[0]-lo)) + math.Abs(float64(r[1]-hi)))
		if d < bestDist {
			best, bestDist = i, d
		}
	}
	out := make([]float32, len(t.Data))
	switch best {
	case 0:
		for i, v := range t.Data {
			out[i] = (v + 1) * 255 / 2
		}
	case 1:
		for i, v := range t.Data {
			out[i] = v * 255
		}
	default:
		copy(out, t.Data)
	}
	return Tensor{Height: t.Height, Width: t.Width, Channels: t.Channels, Data: out}
}

func argmin(shape []int) int {
	idx := 0
	for i, v := range shape {
		if v < shape[idx] {
			idx = i
		}
	}
	return idx
}

func minMax(data []float32) (lo, hi float32) {
	if len(data) == 0 {
		return 0, 0
	}
	lo, hi = data[0], data[0]
	for _, v := range data {
		if v < lo {
			lo = v
		}
		if v > hi {
			hi = v
		}
	}
	return lo, hi
}
