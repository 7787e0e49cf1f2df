package handler

import "time"

// intakeRequest registers new evidence. Content is base64; the blob itself
// lives in the external evidence store, the engine only needs the bytes long
// enough to hash them.
type intakeRequest struct {
	CaseID        string `json:"case_id"`
	Description   string `json:"description"`
	Custodian     string `json:"custodian"`
	Location      string `json:"location"`
	Purpose       string `json:"purpose,omitempty"`
	ContentBase64 string `json:"content,omitempty"`
}

type appendRequest struct {
	Action        string    `json:"action"`
	FromCustodian string    `json:"from_custodian,omitempty"`
	ToCustodian   string    `json:"to_custodian"`
	Location      string    `json:"location,omitempty"`
	Timestamp     time.Time `json:"timestamp"`
	Purpose       string    `json:"purpose"`
	Notes         string    `json:"notes,omitempty"`
}

type correctRequest struct {
	ToCustodian string `json:"to_custodian,omitempty"`
	Location    string `json:"location,omitempty"`
	Purpose     string `json:"purpose"`
	Notes       string `json:"notes,omitempty"`
}

type verifyHashRequest struct {
	ContentBase64 string `json:"content"`
}
