package images

import (
	"bytes"
	"fmt"
	"image"
	"log/slog"

	"github.com/disintegration/imaging"
)

const (
	PhotoWidth  = 120
	PhotoHeight = 150

	// MaxPhotoBytes is the upper bound of the encoded photo size.
	MaxPhotoBytes = 12 * 1024
	// MinPhotoBytes is the lower bound. It is never enforced by raising
	// quality; WithinBudget reports whether it was met.
	MinPhotoBytes = 5 * 1024

	StartQuality = 95
	QualityStep  = 5
	FloorQuality = 5
)

// PhotoArtifact is an encoded, normalized person photo.
type PhotoArtifact struct {
	Data    []byte
	Width   int
	Height  int
	Quality int
}

func (a PhotoArtifact) Size() int {
	return len(a.Data)
}

// WithinBudget reports whether the encoded size lies in [MinPhotoBytes, MaxPhotoBytes].
func (a PhotoArtifact) WithinBudget() bool {
	return a.Size() >= MinPhotoBytes && a.Size() <= MaxPhotoBytes
}

// PhotoSettings are the tunables of the normalizer. Zero values take the
// defaults.
type PhotoSettings struct {
	Color      float64 `json:"color"`
	Brightness float64 `json:"brightness"`
	Contrast   float64 `json:"contrast"`
	Sharpness  float64 `json:"sharpness"`
	MaxBytes   int     `json:"max_bytes"`
}

func DefaultPhotoSettings() PhotoSettings {
	return PhotoSettings{
		Color:      1.1,
		Brightness: 1.05,
		Contrast:   1.1,
		Sharpness:  1.5,
		MaxBytes:   MaxPhotoBytes,
	}
}

func (s PhotoSettings) withDefaults() PhotoSettings {
	d := DefaultPhotoSettings()
	if s.Color == 0 {
		s.Color = d.Color
	}
	if s.Brightness == 0 {
		s.Brightness = d.Brightness
	}
	if s.Contrast == 0 {
		s.Contrast = d.Contrast
	}
	if s.Sharpness == 0 {
		s.Sharpness = d.Sharpness
	}
	if s.MaxBytes <= 0 {
		s.MaxBytes = d.MaxBytes
	}
	return s
}

// PhotoNormalizer turns an arbitrary person photo into a 120×150 JPEG that
// fits the size budget of reservation systems.
type PhotoNormalizer struct {
	settings PhotoSettings
	chain    []Enhancer
	logger   *slog.Logger
}

func NewPhotoNormalizer(settings PhotoSettings, logger *slog.Logger) *PhotoNormalizer {
	if logger == nil {
		logger = slog.Default()
	}
	settings = settings.withDefaults()
	return &PhotoNormalizer{
		settings: settings,
		chain: []Enhancer{
			Color(settings.Color),
			Brightness(settings.Brightness),
			Contrast(settings.Contrast),
			Sharpness(settings.Sharpness),
		},
		logger: logger,
	}
}

// NormalizeBytes decodes data and normalizes it.
func (n *PhotoNormalizer) NormalizeBytes(data []byte) (PhotoArtifact, error) {
	img, err := Decode(data)
	if err != nil {
		return PhotoArtifact{}, fmt.Errorf("failed to decode photo: %w", err)
	}
	return n.Normalize(img)
}

// Normalize enhances, resizes and encodes img. The aspect ratio is not
// preserved.
func (n *PhotoNormalizer) Normalize(img image.Image) (PhotoArtifact, error) {
	if img.Bounds().Empty() {
		return PhotoArtifact{}, ErrEmptyImage
	}

	enhanced := Apply(Opaque(img), n.chain...)
	resized := imaging.Resize(enhanced, PhotoWidth, PhotoHeight, imaging.Lanczos)

	data, quality, err := searchQuality(n.settings.MaxBytes, func(q int) ([]byte, error) {
		var buf bytes.Buffer
		if err := imaging.Encode(&buf, resized, imaging.JPEG, imaging.JPEGQuality(q)); err != nil {
			return nil, err
		}
		return buf.Bytes(), nil
	})
	if err != nil {
		return PhotoArtifact{}, fmt.Errorf("failed to encode photo: %w", err)
	}

	artifact := PhotoArtifact{
		Data:    data,
		Width:   PhotoWidth,
		Height:  PhotoHeight,
		Quality: quality,
	}
	if !artifact.WithinBudget() {
		n.logger.Debug("photo outside size budget", "bytes", artifact.Size(), "quality", quality)
	}
	return artifact, nil
}

// searchQuality encodes from StartQuality downwards and stops at the first
// encoding no larger than maxBytes. At FloorQuality the last encoding is
// returned whatever its size.
func searchQuality(maxBytes int, encode func(quality int) ([]byte, error)) ([]byte, int, error) {
	var data []byte
	quality := StartQuality
	for ; quality >= FloorQuality; quality -= QualityStep {
		var err error
		data, err = encode(quality)
		if err != nil {
			return nil, 0, err
		}
		if len(data) <= maxBytes || quality-QualityStep < FloorQuality {
			break
		}
	}
	return data, quality, nil
}
