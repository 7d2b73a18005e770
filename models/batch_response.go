package models

// Passenger status values.
const (
	StatusOK        = "ok"
	StatusMalformed = "malformed"
	StatusFailed    = "failed"
)

type PhotoInfo struct {
	FileName    string `json:"file_name"`
	DownloadURL string `json:"download_url,omitempty"`
	SizeBytes   int    `json:"size_bytes"`
	Quality     int    `json:"quality"`
	Width       int    `json:"width"`
	Height      int    `json:"height"`
	// Data is the base64 encoded JPEG.
	Data string `json:"data"`
}

type PassengerResult struct {
	Ordinal       int              `json:"ordinal"`
	Status        string           `json:"status"`
	Error         string           `json:"error,omitempty"`
	Passport      *PassportDetails `json:"passport,omitempty"`
	Photo         *PhotoInfo       `json:"photo,omitempty"`
	Command       string           `json:"srdocs,omitempty"`
	PassengerType string           `json:"passenger_type,omitempty"`
	Expired       bool             `json:"expired,omitempty"`
	Warnings      []string         `json:"warnings,omitempty"`
}

type BatchResponse struct {
	BatchID    string            `json:"batch_id"`
	Passengers []PassengerResult `json:"passengers"`
	Succeeded  int               `json:"succeeded"`
	Failed     int               `json:"failed"`
}

type HealthResponse struct {
	Ok         bool `json:"ok"`
	Recognizer bool `json:"recognizer"`
}
