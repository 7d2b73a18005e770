package submission

import (
	"fmt"
	"regexp"
	"strings"

	"auto-photo-saver/document"
)

const (
	// PlaceholderPassport stands in for an unreadable passport number.
	PlaceholderPassport = "NoPassport"
	photoExtension      = ".jpg"
)

var unsafeNameChars = regexp.MustCompile(`[^A-Za-z0-9 ]`)

func safeText(s string) string {
	s = unsafeNameChars.ReplaceAllString(document.FoldAccents(s), "")
	return strings.Join(strings.Fields(s), " ")
}

// FileName derives the artifact name of a passenger's photo:
// "<given> <surname>_<passport>.jpg", falling back to
// "Saved_Photo_<ordinal>" without a name and NoPassport without a number.
func FileName(record document.PassportRecord, ordinal int) string {
	stem := safeText(record.GivenName() + " " + record.Surname())
	if stem == "" {
		stem = fmt.Sprintf("Saved_Photo_%d", ordinal)
	}

	passport := strings.ReplaceAll(safeText(record.PassportNumber()), " ", "")
	if passport == "" {
		passport = PlaceholderPassport
	}

	return stem + "_" + passport + photoExtension
}
