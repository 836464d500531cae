package api

import "patientsheets/pkg/patients"

// createRequest is the body of POST /patient. The form client sends the
// document id alongside the record fields.
type createRequest struct {
	patients.Record
	SelectedSheetID string `json:"selectedSheetId,omitempty"`
}

type createResponse struct {
	Message string `json:"message"`
	TableID string `json:"tableId"`
}

type messageResponse struct {
	Message string `json:"message"`
}

type errorResponse struct {
	Error string `json:"error"`
}
