// Package reservation formats passenger data for airline reservation
// systems.
package reservation

import (
	"fmt"
	"strings"
	"time"

	"auto-photo-saver/document"
)

// SRDOCS builds the special service request carrying the passenger's
// travel document, e.g.
//
//	SRDOCS sv HK1-P-pak-ab1234567-pak-01jan90-M-31dec30-khan-muhammadali-h/p1
//
// Unresolved fields leave their segment empty.
func SRDOCS(record document.PassportRecord, airline, nationality string, ordinal int) string {
	if nationality == "" {
		nationality = document.DefaultNationality
	}
	nat := strings.ToLower(nationality)

	return fmt.Sprintf("SRDOCS %s HK1-P-%s-%s-%s-%s-%s-%s-%s-%s-h/p%d",
		strings.ToLower(strings.TrimSpace(airline)),
		nat,
		strings.ToLower(record.PassportNumber()),
		nat,
		strings.ToLower(record.DateOfBirth()),
		record.Gender(),
		strings.ToLower(record.ExpiryDate()),
		compactName(record.Surname()),
		compactName(record.GivenName()),
		ordinal,
	)
}

func compactName(name string) string {
	return strings.ToLower(strings.ReplaceAll(name, " ", ""))
}

// Passenger type codes.
const (
	Adult  = "ADT"
	Child  = "CHD"
	Infant = "INF"
)

// PassengerType classifies the passenger by age on the given day. Records
// without a readable birth date count as adults.
func PassengerType(record document.PassportRecord, on time.Time) string {
	birth, err := record.BirthTime()
	if err != nil {
		return Adult
	}
	switch age := ageOn(birth, on); {
	case age < 2:
		return Infant
	case age < 12:
		return Child
	default:
		return Adult
	}
}

func ageOn(birth, on time.Time) int {
	age := on.Year() - birth.Year()
	if on.Month() < birth.Month() || (on.Month() == birth.Month() && on.Day() < birth.Day()) {
		age--
	}
	return age
}
