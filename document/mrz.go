package document

import (
	"regexp"
	"strings"
)

const (
	mrzLineLength    = 44
	minMRZLineLength = 30
	// DefaultNationality is the issuing state whose passports are read.
	DefaultNationality = "PAK"
	nationalIDDigits   = 13
)

// Glyphs the recognizer confuses with the filler character.
var mrzFillerLookalikes = strings.NewReplacer(
	"(", "<", ")", "<", "[", "<", "]", "<", "{", "<", "}", "<",
	"«", "<", "»", "<", "‹", "<", "›", "<",
	"£", "<", "€", "<", "$", "<", "¢", "<", "¥", "<",
)

var (
	nonMRZChars = regexp.MustCompile(`[^A-Z0-9<]`)

	// position independent layout of the second line, used when it was
	// not read at its full length
	mrzLine2Pattern  = regexp.MustCompile(`([A-Z0-9<]{8,9})[0-9<][A-Z<]{3}(\d{6})[0-9<]([A-Z<])(\d{6})`)
	personalIDMarker = regexp.MustCompile(`\d{6}[0-9<](\d{13})`)
)

// Offsets of the second line of a TD3 machine readable zone.
const (
	docNumberStart, docNumberEnd   = 0, 9
	birthDateStart, birthDateEnd   = 13, 19
	sexOffset                      = 20
	expiryDateStart, expiryDateEnd = 21, 27
	personalStart, personalEnd     = 28, 41
)

// normalizeMRZLines uppercases the lines, removes whitespace, maps filler
// lookalikes onto '<' and drops any other character outside the MRZ
// alphabet. Lines left empty are discarded.
func normalizeMRZLines(lines []string) []string {
	out := make([]string, 0, len(lines))
	for _, line := range lines {
		line = strings.ToUpper(line)
		line = mrzFillerLookalikes.Replace(line)
		line = nonMRZChars.ReplaceAllString(line, "")
		if line != "" {
			out = append(out, line)
		}
	}
	return out
}

func countDigits(s string) int {
	n := 0
	for _, r := range s {
		if r >= '0' && r <= '9' {
			n++
		}
	}
	return n
}

// locateMRZLines finds the two lines of the zone. Either may be empty.
func locateMRZLines(lines []string) (line1, line2 string) {
	start := 0
	for i, line := range lines {
		if len(line) >= minMRZLineLength && strings.Contains(line, "P<") {
			line1 = line
			start = i + 1
			if start < len(lines) && len(lines[start]) >= minMRZLineLength {
				return line1, lines[start]
			}
			break
		}
	}

	for _, line := range lines[start:] {
		if len(line) >= minMRZLineLength && countDigits(line) > 10 && strings.Contains(line, "<") {
			return line1, line
		}
	}
	return line1, ""
}

func fillerToSpace(s string) string {
	return strings.Join(strings.Fields(strings.ReplaceAll(s, "<", " ")), " ")
}

// CleanDocumentNumber strips filler and replaces the letter O with zero.
func CleanDocumentNumber(s string) string {
	s = strings.ReplaceAll(s, "<", "")
	return strings.ReplaceAll(strings.ToUpper(s), "O", "0")
}

// FormatNationalID renders a 13 digit identity number as NNNNN-NNNNNNN-N.
func FormatNationalID(digits string) string {
	if len(digits) != nationalIDDigits || !isDigits(digits) {
		return ""
	}
	return digits[:5] + "-" + digits[5:12] + "-" + digits[12:]
}

// MRZExtractor reads fields from the machine readable zone, tolerating
// recognition noise. It never fails; unreadable fields are left unset.
type MRZExtractor struct {
	nationality string
	sanitizer   *NameSanitizer
}

func NewMRZExtractor(nationality string, sanitizer *NameSanitizer) *MRZExtractor {
	if nationality == "" {
		nationality = DefaultNationality
	}
	if sanitizer == nil {
		sanitizer = NewNameSanitizer("")
	}
	return &MRZExtractor{nationality: strings.ToUpper(nationality), sanitizer: sanitizer}
}

func (e *MRZExtractor) Source() Source {
	return SourceMRZ
}

func (e *MRZExtractor) Extract(scan Scan) *Partial {
	lines := normalizeMRZLines(scan.MRZ)
	line1, line2 := locateMRZLines(lines)

	p := NewPartial(SourceMRZ)
	if line1 != "" {
		surname, given := e.parseNames(line1)
		p.Set(FieldSurname, surname)
		p.Set(FieldGivenName, given)
	}

	if len(line2) == mrzLineLength {
		parseFixedLine2(p, line2)
		return p
	}

	target := line2
	if target == "" {
		target = strings.Join(lines, "\n")
	}
	parsePatternLine2(p, target)
	return p
}

// parseNames splits the name field of the first line into surname and
// given names.
func (e *MRZExtractor) parseNames(line1 string) (surname, given string) {
	idx := strings.Index(line1, "P<"+e.nationality)
	if idx < 0 {
		idx = strings.Index(line1, "P<")
	}
	rest := line1[idx+2:]
	if len(rest) <= 3 {
		return "", ""
	}

	field := strings.TrimRight(rest[3:], "<")
	switch {
	case strings.HasPrefix(field, "<<"):
		given = field
	case strings.Contains(field, "<<"):
		parts := strings.SplitN(field, "<<", 2)
		surname, given = parts[0], parts[1]
	default:
		surname = field
	}

	return e.sanitizer.Clean(fillerToSpace(surname)), e.sanitizer.Clean(fillerToSpace(given))
}

func setSex(p *Partial, sex byte) {
	if sex == 'M' || sex == 'F' {
		p.Set(FieldGender, string(sex))
	}
}

func parseFixedLine2(p *Partial, line2 string) {
	p.Set(FieldPassportNumber, CleanDocumentNumber(line2[docNumberStart:docNumberEnd]))
	p.Set(FieldDateOfBirth, FormatMRZDate(line2[birthDateStart:birthDateEnd]))
	setSex(p, line2[sexOffset])
	p.Set(FieldExpiryDate, FormatMRZDate(line2[expiryDateStart:expiryDateEnd]))
	p.Set(FieldNationalIDNumber, FormatNationalID(strings.ReplaceAll(line2[personalStart:personalEnd], "<", "")))
}

func parsePatternLine2(p *Partial, text string) {
	if m := mrzLine2Pattern.FindStringSubmatch(text); m != nil {
		p.Set(FieldPassportNumber, CleanDocumentNumber(m[1]))
		p.Set(FieldDateOfBirth, FormatMRZDate(m[2]))
		setSex(p, m[3][0])
		p.Set(FieldExpiryDate, FormatMRZDate(m[4]))
	}
	if m := personalIDMarker.FindStringSubmatch(text); m != nil {
		p.Set(FieldNationalIDNumber, FormatNationalID(m[1]))
	}
}
