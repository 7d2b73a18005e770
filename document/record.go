package document

import (
	"fmt"
	"time"
)

// Field names a PassportRecord field.
type Field string

const (
	FieldGivenName           Field = "given_name"
	FieldSurname             Field = "surname"
	FieldPassportNumber      Field = "passport_number"
	FieldDateOfBirth         Field = "date_of_birth"
	FieldExpiryDate          Field = "expiry_date"
	FieldGender              Field = "gender"
	FieldNationalIDNumber    Field = "national_id_number"
	FieldFatherOrHusbandName Field = "father_or_husband_name"
)

// Fields lists every record field in presentation order.
var Fields = []Field{
	FieldGivenName,
	FieldSurname,
	FieldPassportNumber,
	FieldDateOfBirth,
	FieldExpiryDate,
	FieldGender,
	FieldNationalIDNumber,
	FieldFatherOrHusbandName,
}

const DefaultGender = "M"

// PassportRecord is the reconciled result of one passport extraction. It is
// built once by a Merger and never changes afterwards. Unresolved fields
// are empty strings, except Gender which falls back to DefaultGender.
type PassportRecord struct {
	values  map[Field]string
	sources map[Field]Source
}

func (r PassportRecord) Field(f Field) string {
	if f == FieldGender && r.values[f] == "" {
		return DefaultGender
	}
	return r.values[f]
}

func (r PassportRecord) GivenName() string           { return r.Field(FieldGivenName) }
func (r PassportRecord) Surname() string             { return r.Field(FieldSurname) }
func (r PassportRecord) PassportNumber() string      { return r.Field(FieldPassportNumber) }
func (r PassportRecord) DateOfBirth() string         { return r.Field(FieldDateOfBirth) }
func (r PassportRecord) ExpiryDate() string          { return r.Field(FieldExpiryDate) }
func (r PassportRecord) Gender() string              { return r.Field(FieldGender) }
func (r PassportRecord) NationalIDNumber() string    { return r.Field(FieldNationalIDNumber) }
func (r PassportRecord) FatherOrHusbandName() string { return r.Field(FieldFatherOrHusbandName) }

// Source reports which strategy supplied f. It is false for unresolved
// fields, including a defaulted gender.
func (r PassportRecord) Source(f Field) (Source, bool) {
	src, ok := r.sources[f]
	return src, ok
}

// Sources returns a copy of the winning strategy per resolved field.
func (r PassportRecord) Sources() map[Field]Source {
	out := make(map[Field]Source, len(r.sources))
	for f, src := range r.sources {
		out[f] = src
	}
	return out
}

// Unresolved lists the fields no strategy could fill.
func (r PassportRecord) Unresolved() []Field {
	var missing []Field
	for _, f := range Fields {
		if _, ok := r.sources[f]; !ok {
			missing = append(missing, f)
		}
	}
	return missing
}

func (r PassportRecord) HasName() bool {
	return r.GivenName() != "" || r.Surname() != ""
}

// BirthTime resolves the two digit birth year to a full date.
func (r PassportRecord) BirthTime() (time.Time, error) {
	raw, err := mrzDateFromRecord(r.DateOfBirth())
	if err != nil {
		return time.Time{}, fmt.Errorf("date of birth: %w", err)
	}
	return ParseDateOfBirth(raw)
}

// ExpiryTime resolves the two digit expiry year to a full date.
func (r PassportRecord) ExpiryTime() (time.Time, error) {
	raw, err := mrzDateFromRecord(r.ExpiryDate())
	if err != nil {
		return time.Time{}, fmt.Errorf("expiry date: %w", err)
	}
	return ParseExpiryDate(raw)
}

// Expired reports whether the expiry date is known and lies before now.
func (r PassportRecord) Expired(now time.Time) bool {
	expiry, err := r.ExpiryTime()
	if err != nil {
		return false
	}
	return expiry.Before(now)
}
