// Package render turns attribution tensors into heatmap images and encodes
// them for the HTTP API.
package render

import (
	"fmt"
	"math"
)

// ColorMap describes one supported heatmap color map.
type ColorMap struct {
	Name              string `json:"name"`
	HumanReadableName string `json:"humanReadableName"`
}

// rgb holds one mapped pixel with channels in [0, 1].
type rgb struct {
	r, g, b float64
}

// mapFunc maps one relevance value, already divided by the map's normalizer,
// to a color.
type mapFunc func(v float64) rgb

type colorMapSpec struct {
	humanReadableName string
	// absNormalize divides by the maximum absolute value instead of the
	// maximum value before mapping.
	absNormalize bool
	fn           mapFunc
}

var colorMaps = map[string]colorMapSpec{
	"gray-red":          {"Gray Red", false, grayRed},
	"black-green":       {"Black Green", false, blackGreen},
	"black-fire-red":    {"Black Fire-Red", true, blackFireRed},
	"blue-black-yellow": {"Blue Black Yellow", false, blueBlackYellow},
	"blue-white-red":    {"Blue White Red", true, diverging(blueWhiteRed)},
	"afm-hot":           {"AFM Hot", true, diverging(afmHot)},
	"jet":               {"Jet", true, diverging(jet)},
	"seismic":           {"Seismic", true, diverging(seismic)},
}

// colorMapOrder fixes the listing order of the API.
var colorMapOrder = []string{
	"gray-red",
	"black-green",
	"black-fire-red",
	"blue-black-yellow",
	"blue-white-red",
	"afm-hot",
	"jet",
	"seismic",
}

// ColorMaps lists the supported color maps in a stable order.
func ColorMaps() []ColorMap {
	maps := make([]ColorMap, 0, len(colorMapOrder))
	for _, name := range colorMapOrder {
		maps = append(maps, ColorMap{Name: name, HumanReadableName: colorMaps[name].humanReadableName})
	}
	return maps
}

// IsColorMap reports whether name is a supported color map.
func IsColorMap(name string) bool {
	_, ok := colorMaps[name]
	return ok
}

// ErrUnknownColorMap wraps an unsupported color map name.
func ErrUnknownColorMap(name string) error {
	return fmt.Errorf("the color map %q is not supported", name)
}

// diverging adapts a gradient over [0, 1] to relevance values in [-1, 1] by
// centering zero relevance at the middle of the gradient.
func diverging(gradient func(t float64) rgb) mapFunc {
	return func(v float64) rgb {
		return gradient((v + 1) / 2)
	}
}

// grayRed shades positive relevance red and negative relevance blue on a
// light gray background.
func grayRed(v float64) rgb {
	const baseGray = 0.8
	v = clamp(v, -1, 1)
	if v < 0 {
		return rgb{baseGray + v*baseGray, baseGray + v*baseGray, baseGray - v*(1-baseGray)}
	}
	return rgb{baseGray + v*(1-baseGray), baseGray - v*baseGray, baseGray - v*baseGray}
}

func blackGreen(v float64) rgb {
	if v < 0 {
		return rgb{0, 0, -v}
	}
	return rgb{0, v, 0}
}

func blueBlackYellow(v float64) rgb {
	if v < 0 {
		return rgb{0, 0, -v}
	}
	return rgb{v, v, 0}
}

// blackFireRed ramps positive relevance black, red, yellow, white and
// negative relevance black, blue, cyan, white.
func blackFireRed(v float64) rgb {
	return rgb{
		r: clamp(v, 0, 0.25)/0.25 + clamp(-v-0.5, 0, 0.5)/0.5,
		g: clamp(v-0.25, 0, 0.25)/0.25 + clamp(-v-0.25, 0, 0.25)/0.25,
		b: clamp(v-0.5, 0, 0.5)/0.5 + clamp(-v, 0, 0.25)/0.25,
	}
}

func blueWhiteRed(t float64) rgb {
	t = clamp(t, 0, 1)
	if t < 0.5 {
		s := t * 2
		return rgb{s, s, 1}
	}
	s := (t - 0.5) * 2
	return rgb{1, 1 - s, 1 - s}
}

func afmHot(t float64) rgb {
	t = clamp(t, 0, 1)
	return rgb{
		r: clamp(2*t, 0, 1),
		g: clamp(2*t-0.5, 0, 1),
		b: clamp(2*t-1, 0, 1),
	}
}

func jet(t float64) rgb {
	t = clamp(t, 0, 1)
	return rgb{
		r: clamp(1.5-math.Abs(4*t-3), 0, 1),
		g: clamp(1.5-math.Abs(4*t-2), 0, 1),
		b: clamp(1.5-math.Abs(4*t-1), 0, 1),
	}
}

// seismic is a piecewise linear diverging gradient from dark blue over white
// to dark red.
func seismic(t float64) rgb {
	t = clamp(t, 0, 1)
	switch {
	case t < 0.25:
		return rgb{0, 0, 0.3 + t/0.25*0.7}
	case t < 0.5:
		s := (t - 0.25) / 0.25
		return rgb{s, s, 1}
	case t < 0.75:
		s := (t - 0.5) / 0.25
		return rgb{1, 1 - s, 1 - s}
	default:
		s := (t - 0.75) / 0.25
		return rgb{1 - 0.5*s, 0, 0}
	}
}

func clamp(v, lo, hi float64) float64 {
	if v < lo {
		return lo
	}
	if v > hi {
		return hi
	}
	return v
}
