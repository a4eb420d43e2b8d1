package model

import "time"

// Assignment binds a document to a signer. At most one assignment exists
// per (DocumentID, SignerID) pair; SignedAt stays nil until that signer
// completes signing and is set exactly once.
type Assignment struct {
	ID         string     `json:"id"`
	DocumentID string     `json:"document_id"`
	SignerID   string     `json:"signer_id"`
	SignedAt   *time.Time `json:"signed_at,omitempty"`
	CreatedAt  time.Time  `json:"created_at"`
}
