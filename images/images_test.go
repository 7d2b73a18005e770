package images

import (
	"bytes"
	"image"
	"image/color"
	"image/jpeg"
	"image/png"
	"math/rand"
	"testing"

	"github.com/stretchr/testify/require"
	"golang.org/x/image/bmp"
)

func uniform(w, h int, c color.Color) *image.NRGBA {
	img := image.NewNRGBA(image.Rect(0, 0, w, h))
	for y := 0; y < h; y++ {
		for x := 0; x < w; x++ {
			img.Set(x, y, c)
		}
	}
	return img
}

func noise(w, h int, seed int64) *image.NRGBA {
	r := rand.New(rand.NewSource(seed))
	img := image.NewNRGBA(image.Rect(0, 0, w, h))
	r.Read(img.Pix)
	for i := 3; i < len(img.Pix); i += 4 {
		img.Pix[i] = 255
	}
	return img
}

func TestDecode(t *testing.T) {
	src := uniform(8, 6, color.NRGBA{R: 10, G: 200, B: 30, A: 255})

	encoders := map[string]func(*bytes.Buffer) error{
		"png":  func(b *bytes.Buffer) error { return png.Encode(b, src) },
		"jpeg": func(b *bytes.Buffer) error { return jpeg.Encode(b, src, nil) },
		"bmp":  func(b *bytes.Buffer) error { return bmp.Encode(b, src) },
	}

	for name, encode := range encoders {
		t.Run(name, func(t *testing.T) {
			var buf bytes.Buffer
			require.NoError(t, encode(&buf))

			img, err := Decode(buf.Bytes())
			require.NoError(t, err)
			require.Equal(t, 8, img.Bounds().Dx())
			require.Equal(t, 6, img.Bounds().Dy())
		})
	}

	t.Run("empty input", func(t *testing.T) {
		_, err := Decode(nil)
		require.ErrorIs(t, err, ErrEmptyImage)
	})

	t.Run("garbage", func(t *testing.T) {
		_, err := Decode([]byte("definitely not an image"))
		require.Error(t, err)
	})
}

func TestResizeToFit(t *testing.T) {
	t.Run("large image shrinks keeping ratio", func(t *testing.T) {
		out := ResizeToFit(uniform(400, 200, color.White), 100, 100)
		require.Equal(t, 100, out.Bounds().Dx())
		require.Equal(t, 50, out.Bounds().Dy())
	})

	t.Run("small image untouched", func(t *testing.T) {
		src := uniform(40, 20, color.White)
		require.Same(t, src, ResizeToFit(src, 100, 100))
	})

	t.Run("no limits", func(t *testing.T) {
		src := uniform(40, 20, color.White)
		require.Same(t, src, ResizeToFit(src, 0, 0))
	})
}

func TestRegionRect(t *testing.T) {
	bounds := image.Rect(0, 0, 100, 200)

	tests := []struct {
		name     string
		region   Region
		expected image.Rectangle
	}{
		{"bio data band", BioDataRegion, image.Rect(0, 0, 100, 140)},
		{"mrz band", MRZRegion, image.Rect(0, 120, 100, 200)},
		{"inverted band clamps to one row", Region{Start: 0.5, End: 0.2}, image.Rect(0, 100, 100, 101)},
		{"band at the bottom edge", Region{Start: 1, End: 1}, image.Rect(0, 199, 100, 200)},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			require.Equal(t, tt.expected, tt.region.Rect(bounds))
		})
	}
}

func TestRegionValid(t *testing.T) {
	require.True(t, BioDataRegion.Valid())
	require.True(t, MRZRegion.Valid())
	require.False(t, Region{Start: 0.8, End: 0.2}.Valid())
	require.False(t, Region{Start: -0.1, End: 0.2}.Valid())
}

func TestPrepareRegion(t *testing.T) {
	src := noise(50, 100, 1)

	t.Run("upscales the cropped band", func(t *testing.T) {
		out := PrepareRegion(src, BioDataConfig())
		require.Equal(t, 100, out.Bounds().Dx())
		require.Equal(t, 140, out.Bounds().Dy())
	})

	t.Run("output is grey", func(t *testing.T) {
		out := PrepareRegion(src, MRZConfig())
		for i := 0; i < len(out.Pix); i += 4 {
			require.Equal(t, out.Pix[i], out.Pix[i+1])
			require.Equal(t, out.Pix[i], out.Pix[i+2])
		}
	})

	t.Run("binarize leaves only black and white", func(t *testing.T) {
		cfg := MRZConfig()
		cfg.Enhancement = Binarize
		out := PrepareRegion(src, cfg)
		for i := 0; i < len(out.Pix); i += 4 {
			require.Contains(t, []uint8{0, 255}, out.Pix[i])
		}
	})

	t.Run("tiny image still yields a band", func(t *testing.T) {
		out := PrepareRegion(uniform(3, 1, color.White), MRZConfig())
		require.False(t, out.Bounds().Empty())
	})
}

func TestEnhancers(t *testing.T) {
	grey := uniform(10, 10, color.NRGBA{R: 100, G: 100, B: 100, A: 255})

	t.Run("brightness multiplies channels", func(t *testing.T) {
		out := Brightness(1.5)(grey)
		require.Equal(t, color.NRGBA{R: 150, G: 150, B: 150, A: 255}, out.NRGBAAt(3, 3))
	})

	t.Run("brightness saturates", func(t *testing.T) {
		out := Brightness(4)(grey)
		require.Equal(t, uint8(255), out.NRGBAAt(0, 0).R)
	})

	t.Run("contrast keeps a uniform image", func(t *testing.T) {
		out := Contrast(2.5)(grey)
		require.Equal(t, grey.NRGBAAt(5, 5), out.NRGBAAt(5, 5))
	})

	t.Run("contrast spreads around the mean", func(t *testing.T) {
		img := uniform(2, 1, color.Black)
		img.Set(1, 0, color.NRGBA{R: 200, G: 200, B: 200, A: 255})
		out := Contrast(2)(img)
		require.Equal(t, uint8(0), out.NRGBAAt(0, 0).R)
		require.Equal(t, uint8(255), out.NRGBAAt(1, 0).R)
	})

	t.Run("color keeps grey pixels", func(t *testing.T) {
		out := Color(1.1)(grey)
		require.Equal(t, grey.NRGBAAt(1, 1), out.NRGBAAt(1, 1))
	})

	t.Run("color zero desaturates", func(t *testing.T) {
		out := Color(0)(uniform(2, 2, color.NRGBA{R: 255, A: 255}))
		px := out.NRGBAAt(0, 0)
		require.Equal(t, px.R, px.G)
		require.Equal(t, px.G, px.B)
	})

	t.Run("sharpness keeps a uniform image", func(t *testing.T) {
		out := Sharpness(1.5)(grey)
		px := out.NRGBAAt(5, 5)
		require.InDelta(t, 100, int(px.R), 1)
		require.InDelta(t, 100, int(px.G), 1)
	})

	t.Run("threshold", func(t *testing.T) {
		img := uniform(2, 1, color.NRGBA{R: 139, G: 139, B: 139, A: 255})
		img.Set(1, 0, color.NRGBA{R: 140, G: 140, B: 140, A: 255})
		out := Threshold(140)(img)
		require.Equal(t, uint8(0), out.NRGBAAt(0, 0).R)
		require.Equal(t, uint8(255), out.NRGBAAt(1, 0).R)
	})
}

func TestOpaque(t *testing.T) {
	img := uniform(4, 4, color.NRGBA{R: 0, G: 0, B: 0, A: 0})
	out := Opaque(img)
	for i := 3; i < len(out.Pix); i += 4 {
		require.Equal(t, uint8(255), out.Pix[i])
	}
	require.Equal(t, uint8(255), out.NRGBAAt(0, 0).R)

	pal := image.NewPaletted(image.Rect(0, 0, 2, 2), color.Palette{color.Black, color.White})
	require.Equal(t, 2, Opaque(pal).Bounds().Dx())
}

func TestSearchQuality(t *testing.T) {
	t.Run("stops at the first encoding within budget", func(t *testing.T) {
		var tried []int
		data, quality, err := searchQuality(MaxPhotoBytes, func(q int) ([]byte, error) {
			tried = append(tried, q)
			return make([]byte, q*200), nil
		})
		require.NoError(t, err)
		require.Equal(t, 60, quality)
		require.Len(t, data, 12000)
		require.Equal(t, []int{95, 90, 85, 80, 75, 70, 65, 60}, tried)
	})

	t.Run("first encoding already small", func(t *testing.T) {
		calls := 0
		data, quality, err := searchQuality(MaxPhotoBytes, func(q int) ([]byte, error) {
			calls++
			return make([]byte, 1000), nil
		})
		require.NoError(t, err)
		require.Equal(t, StartQuality, quality)
		require.Len(t, data, 1000)
		require.Equal(t, 1, calls)
	})

	t.Run("never fits ends at the floor", func(t *testing.T) {
		calls := 0
		data, quality, err := searchQuality(MaxPhotoBytes, func(q int) ([]byte, error) {
			calls++
			return make([]byte, 50000), nil
		})
		require.NoError(t, err)
		require.Equal(t, FloorQuality, quality)
		require.Len(t, data, 50000)
		require.Equal(t, 19, calls)
	})

	t.Run("encoder error", func(t *testing.T) {
		_, _, err := searchQuality(MaxPhotoBytes, func(q int) ([]byte, error) {
			return nil, image.ErrFormat
		})
		require.ErrorIs(t, err, image.ErrFormat)
	})
}

func TestPhotoNormalizer(t *testing.T) {
	n := NewPhotoNormalizer(PhotoSettings{}, nil)

	inputs := map[string]image.Image{
		"landscape noise": noise(640, 480, 7),
		"tall strip":      noise(50, 400, 8),
		"flat grey":       uniform(300, 300, color.NRGBA{R: 128, G: 128, B: 128, A: 255}),
		"transparent":     uniform(200, 250, color.NRGBA{R: 20, G: 40, B: 60, A: 10}),
	}

	for name, src := range inputs {
		t.Run(name, func(t *testing.T) {
			artifact, err := n.Normalize(src)
			require.NoError(t, err)
			require.GreaterOrEqual(t, artifact.Quality, FloorQuality)
			require.LessOrEqual(t, artifact.Quality, StartQuality)
			require.True(t, artifact.Size() <= MaxPhotoBytes || artifact.Quality == FloorQuality)

			decoded, err := jpeg.Decode(bytes.NewReader(artifact.Data))
			require.NoError(t, err)
			require.Equal(t, PhotoWidth, decoded.Bounds().Dx())
			require.Equal(t, PhotoHeight, decoded.Bounds().Dy())
		})
	}

	t.Run("small smooth photo keeps the start quality", func(t *testing.T) {
		artifact, err := n.Normalize(uniform(120, 150, color.White))
		require.NoError(t, err)
		require.Equal(t, StartQuality, artifact.Quality)
		require.False(t, artifact.WithinBudget())
	})

	t.Run("bytes round trip", func(t *testing.T) {
		var buf bytes.Buffer
		require.NoError(t, png.Encode(&buf, noise(90, 90, 3)))
		artifact, err := n.NormalizeBytes(buf.Bytes())
		require.NoError(t, err)
		require.Equal(t, PhotoWidth, artifact.Width)
	})

	t.Run("undecodable bytes", func(t *testing.T) {
		_, err := n.NormalizeBytes([]byte("nope"))
		require.Error(t, err)
	})
}
