package document

import (
	"fmt"
	"strings"
	"time"
)

const mrzDateLayout = "060102"

// recordDateLayout is the presentation layout of record dates, e.g. 06AUG69.
const recordDateLayout = "02Jan06"

func isDigits(s string) bool {
	if s == "" {
		return false
	}
	for _, r := range s {
		if r < '0' || r > '9' {
			return false
		}
	}
	return true
}

// FormatMRZDate turns a YYMMDD date into DDMONYY. Anything that is not six
// digits naming a real calendar day yields an empty string.
func FormatMRZDate(raw string) string {
	if len(raw) != 6 || !isDigits(raw) {
		return ""
	}
	parsed, err := time.Parse(mrzDateLayout, raw)
	if err != nil {
		return ""
	}
	return raw[4:6] + strings.ToUpper(parsed.Month().String()[:3]) + raw[0:2]
}

// mrzDateFromRecord converts DDMONYY back into YYMMDD.
func mrzDateFromRecord(formatted string) (string, error) {
	parsed, err := time.Parse(recordDateLayout, formatted)
	if err != nil {
		return "", fmt.Errorf("invalid record date %q: %w", formatted, err)
	}
	return parsed.Format(mrzDateLayout), nil
}

func ParseExpiryDate(dateStr string) (time.Time, error) {
	if len(dateStr) != 6 {
		return time.Time{}, fmt.Errorf("invalid date format: %s", dateStr)
	}

	parsedDate, err := time.Parse(mrzDateLayout, dateStr)
	if err != nil {
		return time.Time{}, fmt.Errorf("error parsing date: %w", err)
	}

	// a date more than 30 years ago is taken to be in the next century
	if parsedDate.Before(time.Now().AddDate(-30, 0, 0)) {
		parsedDate = parsedDate.AddDate(100, 0, 0)
	}

	return parsedDate, nil
}

func ParseDateOfBirth(dateStr string) (time.Time, error) {
	if len(dateStr) != 6 {
		return time.Time{}, fmt.Errorf("invalid date format: %s", dateStr)
	}

	parsedDate, err := time.Parse(mrzDateLayout, dateStr)
	if err != nil {
		return time.Time{}, fmt.Errorf("error parsing date: %w", err)
	}

	// two digit years after 68 parse into the 1900s, the rest into the
	// 2000s; nobody is born in the future
	if parsedDate.After(time.Now()) {
		parsedDate = parsedDate.AddDate(-100, 0, 0)
	}

	return parsedDate, nil
}
