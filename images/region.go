package images

import (
	"image"

	"github.com/disintegration/imaging"
	xdraw "golang.org/x/image/draw"
)

const (
	// UpscaleFactor enlarges cropped bands before recognition.
	UpscaleFactor = 2
	// BinarizeThreshold is the luminance cutoff used by the Binarize strategy.
	BinarizeThreshold uint8 = 140

	BioDataContrast = 2.0
	MRZContrast     = 2.5
)

// Region is a full-width horizontal band given as fractions of the image
// height.
type Region struct {
	Start float64 `json:"start"`
	End   float64 `json:"end"`
}

var (
	BioDataRegion = Region{Start: 0, End: 0.70}
	MRZRegion     = Region{Start: 0.60, End: 1.0}
)

// Valid reports whether the band lies inside [0,1] and is not inverted.
func (r Region) Valid() bool {
	return r.Start >= 0 && r.End <= 1 && r.Start < r.End
}

// Rect resolves the band against the given bounds. The result always
// covers at least one pixel row of a non-empty image.
func (r Region) Rect(b image.Rectangle) image.Rectangle {
	h := b.Dy()
	y0 := b.Min.Y + int(float64(h)*r.Start)
	y1 := b.Min.Y + int(float64(h)*r.End)

	if y0 < b.Min.Y {
		y0 = b.Min.Y
	}
	if y1 > b.Max.Y {
		y1 = b.Max.Y
	}
	if y0 >= b.Max.Y {
		y0 = b.Max.Y - 1
	}
	if y1 <= y0 {
		y1 = y0 + 1
	}
	return image.Rect(b.Min.X, y0, b.Max.X, y1)
}

type Enhancement int

const (
	// ContrastOnly keeps grey levels after the contrast boost.
	ContrastOnly Enhancement = iota
	// Binarize additionally thresholds the band to pure black and white.
	Binarize
)

// RegionConfig describes how one band is prepared for recognition.
type RegionConfig struct {
	Region      Region
	Upscale     int
	Contrast    float64
	Enhancement Enhancement
	Threshold   uint8
}

// BioDataConfig is the default preparation of the printed bio-data zone.
func BioDataConfig() RegionConfig {
	return RegionConfig{
		Region:      BioDataRegion,
		Upscale:     UpscaleFactor,
		Contrast:    BioDataContrast,
		Enhancement: ContrastOnly,
		Threshold:   BinarizeThreshold,
	}
}

// MRZConfig is the default preparation of the machine readable zone.
func MRZConfig() RegionConfig {
	return RegionConfig{
		Region:      MRZRegion,
		Upscale:     UpscaleFactor,
		Contrast:    MRZContrast,
		Enhancement: ContrastOnly,
		Threshold:   BinarizeThreshold,
	}
}

// PrepareRegion crops the configured band, upscales it, converts it to
// grey and boosts its contrast.
func PrepareRegion(img image.Image, cfg RegionConfig) *image.NRGBA {
	band := imaging.Crop(img, cfg.Region.Rect(img.Bounds()))

	if cfg.Upscale > 1 {
		b := band.Bounds()
		scaled := image.NewNRGBA(image.Rect(0, 0, b.Dx()*cfg.Upscale, b.Dy()*cfg.Upscale))
		xdraw.CatmullRom.Scale(scaled, scaled.Bounds(), band, b, xdraw.Src, nil)
		band = scaled
	}

	chain := []Enhancer{Grayscale(), Contrast(cfg.Contrast)}
	if cfg.Enhancement == Binarize {
		chain = append(chain, Threshold(cfg.Threshold))
	}
	return Apply(band, chain...)
}
