package document

import (
	"regexp"
	"strings"
)

const labelLookAhead = 3

var (
	fatherLabel    = regexp.MustCompile(`FATHER|HUSBAND|FATH|HUSB`)
	surnameLabel   = regexp.MustCompile(`\bSURNAME\b`)
	givenNameLabel = regexp.MustCompile(`\bGIVEN\s*NAMES?\b`)

	nationalIDPattern     = regexp.MustCompile(`\b(\d{5})[-\s]?(\d{7})[-\s]?(\d)\b`)
	passportNumberPattern = regexp.MustCompile(`\b[A-Z]{2}[0-9]{7}\b`)
)

// Printed captions and place names that show up next to the labels.
var labelDenylist = map[string]struct{}{
	"DATE": {}, "BIRTH": {}, "SEX": {}, "PLACE": {}, "NATIONALITY": {},
	"PASSPORT": {}, "AUTHORITY": {}, "PAKISTAN": {}, "KARACHI": {},
	"ISSUING": {}, "OF": {}, "NAME": {}, "REPUBLIC": {}, "M": {}, "F": {},
	"SURNAME": {}, "GIVEN": {}, "FATHER": {}, "HUSBAND": {}, "ISSUE": {},
	"EXPIRY": {}, "TYPE": {}, "CODE": {}, "COUNTRY": {}, "NUMBER": {},
}

func denied(candidate string) bool {
	for _, token := range strings.Fields(candidate) {
		if _, ok := labelDenylist[token]; ok {
			return true
		}
	}
	for word := range labelDenylist {
		if len(word) >= 4 && strings.Contains(candidate, word) {
			return true
		}
	}
	return false
}

// VisualExtractor reads names printed next to their captions in the
// bio-data zone.
type VisualExtractor struct {
	sanitizer *NameSanitizer
}

func NewVisualExtractor(sanitizer *NameSanitizer) *VisualExtractor {
	if sanitizer == nil {
		sanitizer = NewNameSanitizer("")
	}
	return &VisualExtractor{sanitizer: sanitizer}
}

func (e *VisualExtractor) Source() Source {
	return SourceVisual
}

func (e *VisualExtractor) Extract(scan Scan) *Partial {
	lines := make([]string, len(scan.BioData))
	for i, line := range scan.BioData {
		lines[i] = strings.ToUpper(line)
	}

	p := NewPartial(SourceVisual)
	p.Set(FieldFatherOrHusbandName, e.valueAfter(lines, fatherLabel))
	p.Set(FieldSurname, e.valueAfter(lines, surnameLabel))
	p.Set(FieldGivenName, e.valueAfter(lines, givenNameLabel))
	return p
}

// valueAfter returns the first acceptable name among the lines following
// a label line.
func (e *VisualExtractor) valueAfter(lines []string, label *regexp.Regexp) string {
	for i, line := range lines {
		if !label.MatchString(line) {
			continue
		}
		for j := i + 1; j <= i+labelLookAhead && j < len(lines); j++ {
			candidate := strings.Join(strings.Fields(nonNameChars.ReplaceAllString(lines[j], "")), " ")
			if len(candidate) <= 3 || denied(candidate) {
				continue
			}
			if name := e.sanitizer.Clean(candidate); name != "" {
				return name
			}
		}
	}
	return ""
}

// TextScanner looks for identifiers anywhere in the bio-data text,
// regardless of layout.
type TextScanner struct{}

func (TextScanner) Source() Source {
	return SourceScan
}

func (TextScanner) Extract(scan Scan) *Partial {
	text := strings.ToUpper(strings.Join(scan.BioData, "\n"))

	p := NewPartial(SourceScan)
	if m := nationalIDPattern.FindStringSubmatch(text); m != nil {
		p.Set(FieldNationalIDNumber, m[1]+"-"+m[2]+"-"+m[3])
	}
	if m := passportNumberPattern.FindString(strings.ReplaceAll(text, "O", "0")); m != "" {
		p.Set(FieldPassportNumber, m)
	}
	return p
}
