package document

import (
	"fmt"
	"log/slog"

	gmrtd "github.com/gmrtd/gmrtd/document"
)

// ICAODecoder reads a cleanly recognized zone with a strict ICAO 9303
// decoder. Lines that are not exactly two by 44 characters, or that the
// decoder rejects, produce an empty partial and leave the work to the
// tolerant strategies.
type ICAODecoder struct {
	sanitizer *NameSanitizer
	logger    *slog.Logger
}

func NewICAODecoder(sanitizer *NameSanitizer, logger *slog.Logger) *ICAODecoder {
	if sanitizer == nil {
		sanitizer = NewNameSanitizer("")
	}
	if logger == nil {
		logger = slog.Default()
	}
	return &ICAODecoder{sanitizer: sanitizer, logger: logger}
}

func (d *ICAODecoder) Source() Source {
	return SourceICAO
}

func (d *ICAODecoder) Extract(scan Scan) *Partial {
	p := NewPartial(SourceICAO)

	line1, line2 := locateMRZLines(normalizeMRZLines(scan.MRZ))
	if len(line1) != mrzLineLength || len(line2) != mrzLineLength {
		return p
	}

	dg1, err := decodeDG1(line1 + line2)
	if err != nil {
		d.logger.Debug("strict MRZ decode rejected zone", "error", err)
		return p
	}

	mrz := dg1.Mrz
	p.Set(FieldPassportNumber, CleanDocumentNumber(mrz.DocumentNumber))
	p.Set(FieldDateOfBirth, FormatMRZDate(mrz.DateOfBirth))
	p.Set(FieldExpiryDate, FormatMRZDate(mrz.DateOfExpiry))
	if len(mrz.Sex) == 1 {
		setSex(p, mrz.Sex[0])
	}
	p.Set(FieldSurname, d.sanitizer.Clean(fillerToSpace(mrz.NameOfHolder.Primary)))
	p.Set(FieldGivenName, d.sanitizer.Clean(fillerToSpace(mrz.NameOfHolder.Secondary)))
	return p
}

// decodeDG1 wraps the zone in a DG1 data group (tag 61 holding tag 5F1F)
// and hands it to the decoder.
func decodeDG1(zone string) (dg1 *gmrtd.DG1, err error) {
	defer func() {
		if r := recover(); r != nil {
			dg1, err = nil, fmt.Errorf("decoder panic: %v", r)
		}
	}()

	inner := append([]byte{0x5F, 0x1F, byte(len(zone))}, zone...)
	data := append([]byte{0x61, byte(len(inner))}, inner...)

	dg1, err = gmrtd.NewDG1(data)
	if err != nil {
		return nil, err
	}
	if dg1 == nil || dg1.Mrz == nil {
		return nil, fmt.Errorf("no MRZ in data group")
	}
	return dg1, nil
}
