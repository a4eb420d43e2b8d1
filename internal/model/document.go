package model

import "time"

// DocumentStatus is the node of the document lifecycle state machine:
//
//	PENDING -> SIGNED -> {VERIFIED, REJECTED}
//
// VERIFIED and REJECTED are terminal. Status never moves backwards.
type DocumentStatus string

const (
	StatusPending  DocumentStatus = "PENDING"
	StatusSigned   DocumentStatus = "SIGNED"
	StatusVerified DocumentStatus = "VERIFIED"
	StatusRejected DocumentStatus = "REJECTED"
)

// Valid reports whether s is one of the known statuses.
func (s DocumentStatus) Valid() bool {
	switch s {
	case StatusPending, StatusSigned, StatusVerified, StatusRejected:
		return true
	}
	return false
}

// Terminal reports whether no further transition is allowed from s.
func (s DocumentStatus) Terminal() bool {
	return s == StatusVerified || s == StatusRejected
}

// SignatureField is a signature placement captured at upload time.
// X and Y are measured in PDF points from the bottom-left corner of the
// page; Page is a zero-based page index.
type SignatureField struct {
	FieldType string  `json:"field_type"`
	X         float64 `json:"x"`
	Y         float64 `json:"y"`
	Page      int     `json:"page"`
}

// Document is an uploaded PDF moving through the signing workflow.
// OriginalKey and SignedKey are opaque object-storage locators; SignedKey
// is empty until the document has been signed. Only the workflow service
// mutates Status.
type Document struct {
	ID              string           `json:"id"`
	UploaderID      string           `json:"uploader_id"`
	OriginalKey     string           `json:"original_key"`
	SignedKey       string           `json:"signed_key,omitempty"`
	Status          DocumentStatus   `json:"status"`
	SignatureFields []SignatureField `json:"signature_fields"`
	RejectReason    string           `json:"reject_reason,omitempty"`
	CreatedAt       time.Time        `json:"created_at"`
}
