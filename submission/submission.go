// Package submission processes passenger submissions: one passport image
// and one person photo per slot.
package submission

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"auto-photo-saver/document"
	"auto-photo-saver/images"
	"auto-photo-saver/metrics"
	"auto-photo-saver/ocr"
	"auto-photo-saver/reservation"
	"auto-photo-saver/storage"

	"github.com/google/uuid"
)

// MaxSlots is the number of passengers accepted in one batch.
const MaxSlots = 10

var ErrMalformedSubmission = errors.New("passport image or photo missing")

// SlotError ties a failure to the passenger it happened for.
type SlotError struct {
	Ordinal int
	Err     error
}

func (e *SlotError) Error() string {
	return fmt.Sprintf("passenger %d: %v", e.Ordinal, e.Err)
}

func (e *SlotError) Unwrap() error {
	return e.Err
}

// Slot is one passenger's submission. Ordinals start at 1.
type Slot struct {
	Ordinal  int
	Passport []byte
	Photo    []byte
}

func (s Slot) Empty() bool {
	return len(s.Passport) == 0 && len(s.Photo) == 0
}

func (s Slot) Complete() bool {
	return len(s.Passport) > 0 && len(s.Photo) > 0
}

// Result is the outcome of one slot. Err is nil on success and otherwise a
// *SlotError.
type Result struct {
	Ordinal       int
	Record        document.PassportRecord
	Photo         images.PhotoArtifact
	FileName      string
	Location      string
	Command       string
	PassengerType string
	Expired       bool
	Err           error
}

func (r Result) OK() bool {
	return r.Err == nil
}

func (r Result) Outcome() string {
	switch {
	case r.Err == nil:
		return metrics.OutcomeOK
	case errors.Is(r.Err, ErrMalformedSubmission):
		return metrics.OutcomeMalformed
	default:
		return metrics.OutcomeFailed
	}
}

// Batch is the outcome of a set of slots processed together.
type Batch struct {
	ID       string
	Results  []Result
	Started  time.Time
	Finished time.Time
}

func (b Batch) Succeeded() int {
	n := 0
	for _, r := range b.Results {
		if r.OK() {
			n++
		}
	}
	return n
}

func (b Batch) Failed() int {
	return len(b.Results) - b.Succeeded()
}

// Options carry the reservation context of a batch.
type Options struct {
	Airline string
}

type Processor struct {
	recognizer ocr.Recognizer
	extractor  *document.Extractor
	normalizer *images.PhotoNormalizer
	store      storage.ArtifactStore
	metrics    *metrics.Metrics
	now        func() time.Time
	logger     *slog.Logger
}

func NewProcessor(
	recognizer ocr.Recognizer,
	extractor *document.Extractor,
	normalizer *images.PhotoNormalizer,
	store storage.ArtifactStore,
	m *metrics.Metrics,
	logger *slog.Logger,
) *Processor {
	if logger == nil {
		logger = slog.Default()
	}
	return &Processor{
		recognizer: recognizer,
		extractor:  extractor,
		normalizer: normalizer,
		store:      store,
		metrics:    m,
		now:        time.Now,
		logger:     logger,
	}
}

// Check verifies that text recognition can run. The returned error always
// matches ocr.ErrServiceUnavailable.
func (p *Processor) Check(ctx context.Context) error {
	err := p.recognizer.Check(ctx)
	if err == nil {
		return nil
	}
	if errors.Is(err, ocr.ErrServiceUnavailable) {
		return err
	}
	return ocr.Unavailable(err)
}

// ProcessBatch checks the recognizer once and then processes the slots in
// order. Empty slots are skipped. A failing slot never stops the others;
// the only batch level error is an unavailable recognizer, in which case
// no slot is touched.
func (p *Processor) ProcessBatch(ctx context.Context, slots []Slot, opts Options) (Batch, error) {
	if err := p.Check(ctx); err != nil {
		p.metrics.ObserveSubmission(metrics.OutcomeUnavailable)
		return Batch{}, err
	}

	batch := Batch{ID: uuid.NewString(), Started: p.now()}
	logger := p.logger.With("batch_id", batch.ID)
	for _, slot := range slots {
		if slot.Empty() {
			continue
		}
		result := p.processSlot(ctx, slot, opts, logger)
		batch.Results = append(batch.Results, result)
	}
	batch.Finished = p.now()

	logger.Info("batch processed", "passengers", len(batch.Results), "failed", batch.Failed(), "duration", batch.Finished.Sub(batch.Started))
	return batch, nil
}

// ProcessSlot processes a single slot. Callers must have run Check.
func (p *Processor) ProcessSlot(ctx context.Context, slot Slot, opts Options) Result {
	return p.processSlot(ctx, slot, opts, p.logger)
}

func (p *Processor) processSlot(ctx context.Context, slot Slot, opts Options, logger *slog.Logger) (result Result) {
	logger = logger.With("ordinal", slot.Ordinal)
	result = Result{Ordinal: slot.Ordinal}

	defer func() {
		if r := recover(); r != nil {
			result = Result{Ordinal: slot.Ordinal, Err: &SlotError{Ordinal: slot.Ordinal, Err: fmt.Errorf("unexpected failure: %v", r)}}
		}
		if result.Err != nil {
			logger.Warn("passenger not processed", "error", result.Err)
		}
		p.metrics.ObserveSubmission(result.Outcome())
	}()

	if !slot.Complete() {
		result.Err = &SlotError{Ordinal: slot.Ordinal, Err: ErrMalformedSubmission}
		return result
	}

	fail := func(err error) Result {
		return Result{Ordinal: slot.Ordinal, Err: &SlotError{Ordinal: slot.Ordinal, Err: err}}
	}

	passport, err := images.Decode(slot.Passport)
	if err != nil {
		return fail(fmt.Errorf("failed to decode passport image: %w", err))
	}

	start := p.now()
	record, err := p.extractor.Extract(ctx, passport)
	if err != nil {
		return fail(err)
	}
	p.metrics.ObserveExtraction(p.now().Sub(start))
	p.metrics.ObserveRecord(record)

	photo, err := p.normalizer.NormalizeBytes(slot.Photo)
	if err != nil {
		return fail(err)
	}
	p.metrics.ObservePhoto(photo)

	name := FileName(record, slot.Ordinal)
	location, err := p.store.Save(ctx, name, photo.Data)
	if err != nil {
		return fail(fmt.Errorf("failed to store photo: %w", err))
	}

	now := p.now()
	result = Result{
		Ordinal:       slot.Ordinal,
		Record:        record,
		Photo:         photo,
		FileName:      name,
		Location:      location,
		Command:       reservation.SRDOCS(record, opts.Airline, p.extractor.Config().Nationality, slot.Ordinal),
		PassengerType: reservation.PassengerType(record, now),
		Expired:       record.Expired(now),
	}
	logger.Info("photo saved", "file", name, "bytes", photo.Size(), "quality", photo.Quality, "unresolved", len(record.Unresolved()))
	return result
}
