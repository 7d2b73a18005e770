package models

// NotFound is shown in place of fields that could not be read.
const NotFound = "Not Found"

type PassportDetails struct {
	GivenName           string `json:"given_name"`
	Surname             string `json:"surname"`
	PassportNumber      string `json:"passport_number"`
	DateOfBirth         string `json:"date_of_birth"`
	ExpiryDate          string `json:"expiry_date"`
	Gender              string `json:"gender"`
	NationalIDNumber    string `json:"national_id_number"`
	FatherOrHusbandName string `json:"father_or_husband_name"`

	// Sources maps resolved fields to the strategy that read them.
	Sources map[string]string `json:"sources,omitempty"`
}

// OrNotFound returns v, or NotFound when v is empty.
func OrNotFound(v string) string {
	if v == "" {
		return NotFound
	}
	return v
}
