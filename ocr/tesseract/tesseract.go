// Package tesseract implements ocr.Recognizer on top of the Tesseract
// engine through gosseract.
package tesseract

import (
	"bytes"
	"context"
	"fmt"
	"image"
	"image/color"
	"log/slog"

	"auto-photo-saver/ocr"

	"github.com/disintegration/imaging"
	"github.com/otiai10/gosseract/v2"
)

type Config struct {
	Languages      []string `json:"languages"`
	TessdataPrefix string   `json:"tessdata_prefix,omitempty"`
}

func (c Config) languages() []string {
	if len(c.Languages) == 0 {
		return []string{"eng"}
	}
	return c.Languages
}

// Recognizer creates one Tesseract client per call; clients are not safe
// for concurrent use.
type Recognizer struct {
	config Config
	logger *slog.Logger
}

func New(config Config, logger *slog.Logger) *Recognizer {
	if logger == nil {
		logger = slog.Default()
	}
	return &Recognizer{config: config, logger: logger}
}

func pageSegMode(layout ocr.Layout) gosseract.PageSegMode {
	switch layout {
	case ocr.LayoutBlock:
		return gosseract.PSM_SINGLE_BLOCK
	case ocr.LayoutSingleLine:
		return gosseract.PSM_SINGLE_LINE
	default:
		return gosseract.PSM_AUTO
	}
}

func (r *Recognizer) newClient(opts ocr.Options) (*gosseract.Client, error) {
	client := gosseract.NewClient()
	if r.config.TessdataPrefix != "" {
		if err := client.SetTessdataPrefix(r.config.TessdataPrefix); err != nil {
			client.Close()
			return nil, err
		}
	}
	if err := client.SetLanguage(r.config.languages()...); err != nil {
		client.Close()
		return nil, err
	}
	if err := client.SetPageSegMode(pageSegMode(opts.Layout)); err != nil {
		client.Close()
		return nil, err
	}
	if opts.Whitelist != "" {
		if err := client.SetWhitelist(opts.Whitelist); err != nil {
			client.Close()
			return nil, err
		}
	}
	return client, nil
}

func (r *Recognizer) Recognize(ctx context.Context, img image.Image, opts ocr.Options) ([]string, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	var buf bytes.Buffer
	if err := imaging.Encode(&buf, img, imaging.PNG); err != nil {
		return nil, fmt.Errorf("failed to encode image for recognition: %w", err)
	}

	client, err := r.newClient(opts)
	if err != nil {
		return nil, ocr.Unavailable(err)
	}
	defer client.Close()

	if err := client.SetImageFromBytes(buf.Bytes()); err != nil {
		return nil, fmt.Errorf("failed to load image into recognizer: %w", err)
	}

	text, err := client.Text()
	if err != nil {
		return nil, fmt.Errorf("text recognition failed: %w", err)
	}

	lines := ocr.SplitLines(text)
	r.logger.Debug("recognized text", "layout", opts.Layout.String(), "lines", len(lines))
	return lines, nil
}

// Check runs a recognition over a blank image, which fails when the engine
// or its language data cannot be loaded.
func (r *Recognizer) Check(ctx context.Context) error {
	if err := ctx.Err(); err != nil {
		return err
	}

	client, err := r.newClient(ocr.Options{Layout: ocr.LayoutSingleLine})
	if err != nil {
		return ocr.Unavailable(err)
	}
	defer client.Close()

	var buf bytes.Buffer
	if err := imaging.Encode(&buf, imaging.New(32, 16, color.White), imaging.PNG); err != nil {
		return ocr.Unavailable(err)
	}
	if err := client.SetImageFromBytes(buf.Bytes()); err != nil {
		return ocr.Unavailable(err)
	}
	if _, err := client.Text(); err != nil {
		return ocr.Unavailable(err)
	}

	r.logger.Debug("text recognition available", "languages", r.config.languages())
	return nil
}
