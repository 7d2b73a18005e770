package images

import (
	"image"
	"image/color"
	"math"

	"github.com/disintegration/imaging"
)

// Enhancer is one step of an enhancement chain. Factors follow the usual
// enhancement convention: 1.0 returns the input, 0.0 returns the degenerate
// image (grey, black, mean grey, smoothed), values above 1.0 amplify.
type Enhancer func(image.Image) *image.NRGBA

// Apply runs the enhancers over img in order.
func Apply(img image.Image, chain ...Enhancer) *image.NRGBA {
	out := imaging.Clone(img)
	for _, enhance := range chain {
		out = enhance(out)
	}
	return out
}

// luma uses the ITU-R 601-2 weights.
func luma(c color.NRGBA) float64 {
	return float64(299*int(c.R)+587*int(c.G)+114*int(c.B)) / 1000
}

func blend(base, value, factor float64) uint8 {
	return clamp(base + factor*(value-base))
}

func clamp(v float64) uint8 {
	v = math.Round(v)
	if v < 0 {
		return 0
	}
	if v > 255 {
		return 255
	}
	return uint8(v)
}

// Color blends each pixel with its own grey level.
func Color(factor float64) Enhancer {
	return func(img image.Image) *image.NRGBA {
		return imaging.AdjustFunc(img, func(c color.NRGBA) color.NRGBA {
			l := luma(c)
			return color.NRGBA{
				R: blend(l, float64(c.R), factor),
				G: blend(l, float64(c.G), factor),
				B: blend(l, float64(c.B), factor),
				A: c.A,
			}
		})
	}
}

// Brightness scales every channel towards or away from black.
func Brightness(factor float64) Enhancer {
	return func(img image.Image) *image.NRGBA {
		return imaging.AdjustFunc(img, func(c color.NRGBA) color.NRGBA {
			return color.NRGBA{
				R: blend(0, float64(c.R), factor),
				G: blend(0, float64(c.G), factor),
				B: blend(0, float64(c.B), factor),
				A: c.A,
			}
		})
	}
}

// Contrast blends each pixel with the mean grey level of the whole image.
func Contrast(factor float64) Enhancer {
	return func(img image.Image) *image.NRGBA {
		mean := math.Round(meanLuma(img))
		return imaging.AdjustFunc(img, func(c color.NRGBA) color.NRGBA {
			return color.NRGBA{
				R: blend(mean, float64(c.R), factor),
				G: blend(mean, float64(c.G), factor),
				B: blend(mean, float64(c.B), factor),
				A: c.A,
			}
		})
	}
}

// Sharpness blends the image with a 3×3 smoothed copy of itself, folded
// into a single convolution kernel.
func Sharpness(factor float64) Enhancer {
	// smoothing kernel: 1 1 1 / 1 5 1 / 1 1 1, scale 13
	edge := (1 - factor) / 13
	center := (1-factor)*5/13 + factor
	kernel := [9]float64{
		edge, edge, edge,
		edge, center, edge,
		edge, edge, edge,
	}
	return func(img image.Image) *image.NRGBA {
		return imaging.Convolve3x3(img, kernel, nil)
	}
}

// Grayscale drops colour information.
func Grayscale() Enhancer {
	return func(img image.Image) *image.NRGBA {
		return imaging.Grayscale(img)
	}
}

// Threshold maps pixels with luminance below cutoff to black and the rest
// to white.
func Threshold(cutoff uint8) Enhancer {
	return func(img image.Image) *image.NRGBA {
		return imaging.AdjustFunc(img, func(c color.NRGBA) color.NRGBA {
			if luma(c) < float64(cutoff) {
				return color.NRGBA{A: c.A}
			}
			return color.NRGBA{R: 255, G: 255, B: 255, A: c.A}
		})
	}
}

func meanLuma(img image.Image) float64 {
	gray := imaging.Grayscale(img)
	b := gray.Bounds()
	if b.Empty() {
		return 0
	}
	var sum float64
	for y := 0; y < b.Dy(); y++ {
		row := gray.Pix[y*gray.Stride : y*gray.Stride+b.Dx()*4]
		for x := 0; x < len(row); x += 4 {
			sum += float64(row[x])
		}
	}
	return sum / float64(b.Dx()*b.Dy())
}

// Opaque flattens palette and alpha images onto white, yielding an image
// with every pixel fully opaque.
func Opaque(img image.Image) *image.NRGBA {
	b := img.Bounds()
	bg := imaging.New(b.Dx(), b.Dy(), color.White)
	return imaging.Overlay(bg, img, image.Pt(0, 0), 1.0)
}
