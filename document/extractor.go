package document

import (
	"context"
	"fmt"
	"image"
	"log/slog"
	"time"

	"auto-photo-saver/images"
	"auto-photo-saver/ocr"
)

// Scan is the recognized text of both zones of one passport image.
type Scan struct {
	BioData []string
	MRZ     []string
}

// Strategy reads whatever fields it can from a scan.
type Strategy interface {
	Source() Source
	Extract(scan Scan) *Partial
}

// Config tunes the extraction engine. Zero values take the defaults.
type Config struct {
	BioDataRegion images.Region `json:"bio_data_region"`
	MRZRegion     images.Region `json:"mrz_region"`
	// BinarizeMRZ thresholds the MRZ band to black and white before
	// recognition.
	BinarizeMRZ       bool   `json:"binarize_mrz"`
	BinarizeThreshold uint8  `json:"binarize_threshold"`
	NoiseLetters      string `json:"noise_letters"`
	Nationality       string `json:"nationality"`
	// MaxScanDimension caps the longest side of the input before the zones
	// are cut out. Zero takes the default; a negative value disables the cap.
	MaxScanDimension int `json:"max_scan_dimension"`
}

func DefaultConfig() Config {
	return Config{
		BioDataRegion:     images.BioDataRegion,
		MRZRegion:         images.MRZRegion,
		BinarizeThreshold: images.BinarizeThreshold,
		NoiseLetters:      DefaultNoiseLetters,
		Nationality:       DefaultNationality,
		MaxScanDimension:  4000,
	}
}

func (c Config) withDefaults() Config {
	d := DefaultConfig()
	if !c.BioDataRegion.Valid() {
		c.BioDataRegion = d.BioDataRegion
	}
	if !c.MRZRegion.Valid() {
		c.MRZRegion = d.MRZRegion
	}
	if c.BinarizeThreshold == 0 {
		c.BinarizeThreshold = d.BinarizeThreshold
	}
	if c.NoiseLetters == "" {
		c.NoiseLetters = d.NoiseLetters
	}
	if c.Nationality == "" {
		c.Nationality = d.Nationality
	}
	if c.MaxScanDimension == 0 {
		c.MaxScanDimension = d.MaxScanDimension
	}
	return c
}

// Extractor turns a passport image into a PassportRecord.
type Extractor struct {
	recognizer ocr.Recognizer
	config     Config
	strategies []Strategy
	merger     *Merger
	logger     *slog.Logger
}

func NewExtractor(recognizer ocr.Recognizer, config Config, logger *slog.Logger) *Extractor {
	if logger == nil {
		logger = slog.Default()
	}
	config = config.withDefaults()
	sanitizer := NewNameSanitizer(config.NoiseLetters)

	return &Extractor{
		recognizer: recognizer,
		config:     config,
		strategies: []Strategy{
			NewICAODecoder(sanitizer, logger),
			NewMRZExtractor(config.Nationality, sanitizer),
			NewVisualExtractor(sanitizer),
			TextScanner{},
		},
		merger: NewMerger(DefaultPrecedence),
		logger: logger,
	}
}

func (e *Extractor) Config() Config {
	return e.config
}

func (e *Extractor) regionConfigs() (bio, mrz images.RegionConfig) {
	bio = images.BioDataConfig()
	bio.Region = e.config.BioDataRegion

	mrz = images.MRZConfig()
	mrz.Region = e.config.MRZRegion
	mrz.Threshold = e.config.BinarizeThreshold
	if e.config.BinarizeMRZ {
		mrz.Enhancement = images.Binarize
	}
	return bio, mrz
}

// Scan recognizes the text of both zones.
func (e *Extractor) Scan(ctx context.Context, img image.Image) (Scan, error) {
	if e.config.MaxScanDimension > 0 {
		img = images.ResizeToFit(img, e.config.MaxScanDimension, e.config.MaxScanDimension)
	}
	bioCfg, mrzCfg := e.regionConfigs()

	bio, err := e.recognizer.Recognize(ctx, images.PrepareRegion(img, bioCfg), ocr.Options{Layout: ocr.LayoutAuto})
	if err != nil {
		return Scan{}, fmt.Errorf("failed to recognize bio-data zone: %w", err)
	}

	mrz, err := e.recognizer.Recognize(ctx, images.PrepareRegion(img, mrzCfg), ocr.Options{
		Whitelist: ocr.MRZWhitelist,
		Layout:    ocr.LayoutBlock,
	})
	if err != nil {
		return Scan{}, fmt.Errorf("failed to recognize machine readable zone: %w", err)
	}

	return Scan{BioData: bio, MRZ: mrz}, nil
}

// Reconcile runs every strategy over the scan and merges their results.
func (e *Extractor) Reconcile(scan Scan) PassportRecord {
	partials := make([]*Partial, 0, len(e.strategies))
	for _, s := range e.strategies {
		p := s.Extract(scan)
		e.logger.Debug("strategy finished", "source", s.Source(), "fields", len(p.values))
		partials = append(partials, p)
	}
	return e.merger.Merge(partials...)
}

// Extract scans img and reconciles the result. Fields that cannot be read
// are left empty; only recognizer failures are returned as errors.
func (e *Extractor) Extract(ctx context.Context, img image.Image) (PassportRecord, error) {
	start := time.Now()
	scan, err := e.Scan(ctx, img)
	if err != nil {
		return PassportRecord{}, err
	}

	record := e.Reconcile(scan)
	e.logger.Info("passport extracted",
		"duration", time.Since(start),
		"unresolved", len(record.Unresolved()),
		"passport_number_source", record.sources[FieldPassportNumber],
	)
	return record, nil
}
