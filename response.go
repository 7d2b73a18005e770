package main

import (
	"encoding/base64"

	"auto-photo-saver/document"
	"auto-photo-saver/metrics"
	"auto-photo-saver/models"
	"auto-photo-saver/submission"
)

func healthResponse(recognizerOk bool) models.HealthResponse {
	return models.HealthResponse{Ok: true, Recognizer: recognizerOk}
}

func toPassportDetails(record document.PassportRecord) *models.PassportDetails {
	details := &models.PassportDetails{
		GivenName:           models.OrNotFound(record.GivenName()),
		Surname:             models.OrNotFound(record.Surname()),
		PassportNumber:      models.OrNotFound(record.PassportNumber()),
		DateOfBirth:         models.OrNotFound(record.DateOfBirth()),
		ExpiryDate:          models.OrNotFound(record.ExpiryDate()),
		Gender:              models.OrNotFound(record.Gender()),
		NationalIDNumber:    models.OrNotFound(record.NationalIDNumber()),
		FatherOrHusbandName: models.OrNotFound(record.FatherOrHusbandName()),
	}
	sources := record.Sources()
	if len(sources) > 0 {
		details.Sources = make(map[string]string, len(sources))
		for field, source := range sources {
			details.Sources[string(field)] = string(source)
		}
	}
	return details
}

func toPassengerResult(result submission.Result, downloadURL func(name string) string) models.PassengerResult {
	passenger := models.PassengerResult{Ordinal: result.Ordinal}
	switch result.Outcome() {
	case metrics.OutcomeOK:
		passenger.Status = models.StatusOK
	case metrics.OutcomeMalformed:
		passenger.Status = models.StatusMalformed
	default:
		passenger.Status = models.StatusFailed
	}
	if result.Err != nil {
		passenger.Error = result.Err.Error()
		return passenger
	}

	passenger.Passport = toPassportDetails(result.Record)
	passenger.Photo = &models.PhotoInfo{
		FileName:  result.FileName,
		SizeBytes: result.Photo.Size(),
		Quality:   result.Photo.Quality,
		Width:     result.Photo.Width,
		Height:    result.Photo.Height,
		Data:      base64.StdEncoding.EncodeToString(result.Photo.Data),
	}
	if downloadURL != nil {
		passenger.Photo.DownloadURL = downloadURL(result.FileName)
	}
	passenger.Command = result.Command
	passenger.PassengerType = result.PassengerType
	passenger.Expired = result.Expired
	for _, field := range result.Record.Unresolved() {
		passenger.Warnings = append(passenger.Warnings, string(field)+" not found")
	}
	if !result.Photo.WithinBudget() {
		passenger.Warnings = append(passenger.Warnings, "photo size outside the 5-12 KB range")
	}
	return passenger
}

func toBatchResponse(batch submission.Batch, downloadURL func(name string) string) models.BatchResponse {
	response := models.BatchResponse{
		BatchID:    batch.ID,
		Passengers: make([]models.PassengerResult, 0, len(batch.Results)),
		Succeeded:  batch.Succeeded(),
		Failed:     batch.Failed(),
	}
	for _, result := range batch.Results {
		response.Passengers = append(response.Passengers, toPassengerResult(result, downloadURL))
	}
	return response
}
