package document

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/require"
)

func padMRZ(s string) string {
	return s + strings.Repeat("<", mrzLineLength-len(s))
}

var (
	pakLine1 = padMRZ("P<PAKKHAN<<MUHAMMAD<ALI")
	pakLine2 = "AB12345670PAK9001014M3012315" + "3520112345671<" + "28"
)

func extractMRZ(lines ...string) *Partial {
	return NewMRZExtractor("", nil).Extract(Scan{MRZ: lines})
}

func requireField(t *testing.T, p *Partial, f Field, expected string) {
	t.Helper()
	v, _ := p.Get(f)
	require.Equal(t, expected, v, string(f))
}

func TestMRZFixtures(t *testing.T) {
	require.Len(t, pakLine1, mrzLineLength)
	require.Len(t, pakLine2, mrzLineLength)
}

func TestMRZExtractorCleanZone(t *testing.T) {
	p := extractMRZ(pakLine1, pakLine2)

	requireField(t, p, FieldSurname, "KHAN")
	requireField(t, p, FieldGivenName, "MUHAMMAD ALI")
	requireField(t, p, FieldPassportNumber, "AB1234567")
	requireField(t, p, FieldDateOfBirth, "01JAN90")
	requireField(t, p, FieldExpiryDate, "31DEC30")
	requireField(t, p, FieldGender, "M")
	requireField(t, p, FieldNationalIDNumber, "35201-1234567-1")
}

func TestMRZExtractorReferenceLines(t *testing.T) {
	t.Run("second line with filler in the document number", func(t *testing.T) {
		p := extractMRZ(padMRZ("P<UTOERIKSSON<<ANNA<MARIA"), "L898902C<3UTO6908061F9406236ZE184226B<<<<<14")

		requireField(t, p, FieldPassportNumber, "L898902C")
		requireField(t, p, FieldDateOfBirth, "06AUG69")
		requireField(t, p, FieldGender, "F")
		requireField(t, p, FieldExpiryDate, "23JUN94")
	})

	t.Run("personal number with trailing filler", func(t *testing.T) {
		line2 := "AB12345670PAK9001014M3012315" + "4230109034370<<" + "8"
		require.Len(t, line2, mrzLineLength)

		p := extractMRZ(pakLine1, line2)
		requireField(t, p, FieldNationalIDNumber, "42301-0903437-0")
	})
}

func TestMRZExtractorNoisyZone(t *testing.T) {
	p := extractMRZ(
		"REPUBLIC OF PAKISTAN",
		"",
		strings.ToLower(strings.ReplaceAll(pakLine1, "<<<", "(<[ ")),
		"AB1234567 0PAK 9001014M30123153520112345671{28",
	)

	requireField(t, p, FieldSurname, "KHAN")
	requireField(t, p, FieldGivenName, "MUHAMMAD ALI")
	requireField(t, p, FieldPassportNumber, "AB1234567")
	requireField(t, p, FieldDateOfBirth, "01JAN90")
	requireField(t, p, FieldNationalIDNumber, "35201-1234567-1")
}

func TestMRZExtractorShortSecondLine(t *testing.T) {
	// one filler lost by the recognizer: fixed offsets no longer apply
	line2 := strings.Replace(pakLine2, "<", "", 1)
	require.Len(t, line2, mrzLineLength-1)

	p := extractMRZ(pakLine1, line2)

	requireField(t, p, FieldPassportNumber, "AB1234567")
	requireField(t, p, FieldDateOfBirth, "01JAN90")
	requireField(t, p, FieldGender, "M")
	requireField(t, p, FieldExpiryDate, "31DEC30")
	requireField(t, p, FieldNationalIDNumber, "35201-1234567-1")
}

func TestMRZExtractorSecondLineMissing(t *testing.T) {
	// too short to be located as a line, found by the grammar over all text
	p := extractMRZ(pakLine1, "AB12345670PAK9001014F301231")

	requireField(t, p, FieldSurname, "KHAN")
	requireField(t, p, FieldPassportNumber, "AB1234567")
	requireField(t, p, FieldGender, "F")
	requireField(t, p, FieldExpiryDate, "31DEC30")
	requireField(t, p, FieldNationalIDNumber, "")
}

func TestMRZExtractorSecondLineWithoutFirst(t *testing.T) {
	p := extractMRZ("SOME HEADER TEXT", pakLine2)

	requireField(t, p, FieldSurname, "")
	requireField(t, p, FieldGivenName, "")
	requireField(t, p, FieldPassportNumber, "AB1234567")
	requireField(t, p, FieldDateOfBirth, "01JAN90")
}

func TestMRZExtractorSecondLineAfterJunk(t *testing.T) {
	p := extractMRZ(pakLine1, "<<<<", "XXXXXXXXXXXXXXXXXXXXXXXXXXXXXXXXXXXX", pakLine2)

	// the line right after line 1 is too short, so the digit rich line wins
	requireField(t, p, FieldPassportNumber, "AB1234567")
	requireField(t, p, FieldNationalIDNumber, "35201-1234567-1")
}

func TestMRZExtractorNameLayouts(t *testing.T) {
	tests := []struct {
		name    string
		line1   string
		surname string
		given   string
	}{
		{"surname and given names", padMRZ("P<PAKKHAN<<MUHAMMAD<ALI"), "KHAN", "MUHAMMAD ALI"},
		{"given names only", padMRZ("P<PAK<<MUHAMMAD<ALI"), "", "MUHAMMAD ALI"},
		{"surname only", padMRZ("P<PAKKHAN"), "KHAN", ""},
		{"compound surname", padMRZ("P<PAKABDUL<REHMAN<<SANA"), "ABDUL REHMAN", "SANA"},
		{"trailing noise letters", "P<PAKKHAN<<MUHAMMAD<ALI<<<<<<<<<<<<<KKKKK", "KHAN", "MUHAMMAD ALI"},
		{"other nationality", padMRZ("P<UTOERIKSSON<<ANNA<MARIA"), "ERIKSSON", "ANNA MARIA"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			p := extractMRZ(tt.line1, pakLine2)
			requireField(t, p, FieldSurname, tt.surname)
			requireField(t, p, FieldGivenName, tt.given)
		})
	}
}

func TestMRZExtractorInvalidValues(t *testing.T) {
	t.Run("impossible dates are dropped", func(t *testing.T) {
		line2 := "AB12345670PAK9013014M3002315" + "3520112345671<" + "28"
		p := extractMRZ(pakLine1, line2)
		requireField(t, p, FieldDateOfBirth, "")
		requireField(t, p, FieldExpiryDate, "")
		requireField(t, p, FieldPassportNumber, "AB1234567")
	})

	t.Run("unknown sex is left unset", func(t *testing.T) {
		line2 := "AB12345670PAK9001014<3012315" + "3520112345671<" + "28"
		p := extractMRZ(pakLine1, line2)
		_, ok := p.Get(FieldGender)
		require.False(t, ok)
	})

	t.Run("letter O in the document number", func(t *testing.T) {
		line2 := "ABO2345670PAK9001014M3012315" + "3520112345671<" + "28"
		p := extractMRZ(pakLine1, line2)
		requireField(t, p, FieldPassportNumber, "AB0234567")
	})

	t.Run("short personal number", func(t *testing.T) {
		line2 := "AB12345670PAK9001014M3012315" + "35201123<<<<<<" + "28"
		p := extractMRZ(pakLine1, line2)
		requireField(t, p, FieldNationalIDNumber, "")
	})
}

func TestMRZExtractorNothingReadable(t *testing.T) {
	require.True(t, extractMRZ().Empty())
	require.True(t, extractMRZ("hello", "world").Empty())
}

func TestFormatNationalID(t *testing.T) {
	require.Equal(t, "35201-1234567-1", FormatNationalID("3520112345671"))
	require.Equal(t, "", FormatNationalID("352011234567"))
	require.Equal(t, "", FormatNationalID("35201123456712"))
	require.Equal(t, "", FormatNationalID("35201A2345671"))
}

func TestCleanDocumentNumber(t *testing.T) {
	require.Equal(t, "AB0234567", CleanDocumentNumber("ABO234567"))
	require.Equal(t, "L898902C", CleanDocumentNumber("L898902C<"))
}
