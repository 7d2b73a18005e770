package document

import (
	"regexp"
	"strings"
	"unicode"

	"golang.org/x/text/runes"
	"golang.org/x/text/transform"
	"golang.org/x/text/unicode/norm"
)

// DefaultNoiseLetters are the glyphs the recognizer tends to hallucinate
// from the guilloche pattern after a name.
const DefaultNoiseLetters = "KCSXZE"

var (
	nonNameChars = regexp.MustCompile(`[^A-Z ]`)
	whitespace   = regexp.MustCompile(`\s+`)
)

// FoldAccents strips combining marks, turning É into E.
func FoldAccents(s string) string {
	t := transform.Chain(norm.NFD, runes.Remove(runes.In(unicode.Mn)), norm.NFC)
	folded, _, err := transform.String(t, s)
	if err != nil {
		return s
	}
	return folded
}

// NameSanitizer strips recognizer noise from names.
type NameSanitizer struct {
	trailingWords *regexp.Regexp
	trailingRun   *regexp.Regexp
}

func NewNameSanitizer(noiseLetters string) *NameSanitizer {
	if noiseLetters == "" {
		noiseLetters = DefaultNoiseLetters
	}
	class := "[" + regexp.QuoteMeta(strings.ToUpper(noiseLetters)) + "]"
	return &NameSanitizer{
		trailingWords: regexp.MustCompile(`(\s+` + class + `+)+$`),
		trailingRun:   regexp.MustCompile(class + `{3,}$`),
	}
}

// Clean keeps uppercase letters and single spaces and removes trailing
// noise: whole words made only of noise letters, and runs of three or more
// noise letters glued to the last word. Clean(Clean(s)) == Clean(s).
func (s *NameSanitizer) Clean(text string) string {
	text = strings.ToUpper(FoldAccents(text))
	text = whitespace.ReplaceAllString(text, " ")
	text = nonNameChars.ReplaceAllString(text, "")

	for {
		before := text
		text = strings.TrimRight(text, " ")
		text = s.trailingWords.ReplaceAllString(text, "")
		text = s.trailingRun.ReplaceAllString(text, "")
		if text == before {
			break
		}
	}

	return strings.Join(strings.Fields(text), " ")
}
